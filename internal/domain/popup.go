package domain

import (
	"fmt"
	"time"
)

const (
	dateLayout     = "Jan 2, 2006"
	dateTimeLayout = "Jan 2, 2006, 03:04 PM"
)

// PopupField is a labelled line of popup content.
type PopupField struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Popup is renderer-neutral popup content for a map feature.
type Popup struct {
	Title  string       `json:"title"`
	Fields []PopupField `json:"fields,omitempty"`
}

// FormatMagnitude renders a magnitude the way the dashboard labels it, e.g. "M 6.1".
func FormatMagnitude(mag float64) string {
	return fmt.Sprintf("M %.1f", mag)
}

// EventPopup builds the marker popup for an earthquake.
func EventPopup(e Event, loc *time.Location) Popup {
	if loc == nil {
		loc = time.Local
	}

	depth := "N/A"
	if d, ok := e.Depth(); ok {
		depth = fmt.Sprintf("%.1f km", d)
	}

	return Popup{
		Title: FormatMagnitude(e.Magnitude) + " Earthquake",
		Fields: []PopupField{
			{Label: "Location", Value: e.Place},
			{Label: "Time", Value: e.Time.In(loc).Format(dateTimeLayout)},
			{Label: "Depth", Value: depth},
			{Label: "ID", Value: e.ID},
		},
	}
}

// LineamentPopup builds the popup for a tectonic lineament.
func LineamentPopup(l Lineament) Popup {
	return Popup{Title: l.DisplayName()}
}
