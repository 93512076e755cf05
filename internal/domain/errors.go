package domain

import "fmt"

// FetchError reports that a feed could not be retrieved or decoded. The
// affected collection stays empty; the other feed is unaffected.
type FetchError struct {
	Feed   string
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s feed from %s: %v", e.Feed, e.Source, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// MalformedRecordError describes a feature skipped during loading.
type MalformedRecordError struct {
	Feed   string
	Index  int
	ID     string
	Reason string
}

func (e *MalformedRecordError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s feature %d (%s): %s", e.Feed, e.Index, e.ID, e.Reason)
	}
	return fmt.Sprintf("%s feature %d: %s", e.Feed, e.Index, e.Reason)
}
