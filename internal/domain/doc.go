// Package domain models earthquake catalog events and tectonic lineaments,
// and holds the pure transformations the dashboard is built from.
//
// # Data Sources
//
// Earthquake events come from a catalog feed in the USGS GeoJSON summary
// format. Each feature carries:
//
//	id                      unique event id, e.g. "us7000pn9s"
//	properties.mag          magnitude (number, may be null in raw feeds)
//	properties.place        free-text location, e.g. "27 km NNW of Sagaing, Myanmar"
//	properties.time         origin time in epoch milliseconds (UTC)
//	geometry.coordinates    [longitude, latitude, depth_km]
//
// The depth coordinate is optional. A missing depth is stored as nil and
// only replaced by DefaultDepthKm while averaging (see Summarize).
//
// Tectonic lineaments come from a geometry-only GeoJSON document (faults,
// thrusts, subduction fronts). Features may carry a "Name" or "name"
// property used as the popup title.
//
// # Magnitude Classification
//
// Magnitudes map to five visual tiers using inclusive lower bounds checked
// from the top down:
//
//	>= 7.0  extreme   #9b59b6  radius 18
//	>= 6.0  critical  #e74c3c  radius 14
//	>= 5.0  major     #e67e22  radius 11
//	>= 4.0  moderate  #f1c40f  radius 8
//	else    minor     #2ecc71  radius 5
//
// The major-events list uses a coarser severity: critical at M 6.0 and
// above, major at M 5.0 and above, everything else is normal and excluded.
//
// # Time Buckets
//
// The monthly histogram groups events by "YYYY-MM" of the origin time in the
// dashboard's display location. Keys are zero padded, so lexicographic
// order is chronological order.
package domain
