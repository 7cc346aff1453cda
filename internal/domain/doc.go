// Package domain models earthquake event records and the derived views the
// dashboard renders from them.
//
// # Data Source
//
// Events come from a single static CSV export of a national seismic bulletin
// (PHIVOLCS-style). The file is read once per process start; nothing in this
// package performs I/O.
//
// # Column Conventions
//
// Headers are trimmed and upper-cased before lookup, then mapped through an
// alias table to canonical keys (see [CanonicalColumn]):
//
//	"Depth (km)", "DEPTH_KM", "depth"     →  DEPTH
//	"Date & Time", "DATE_TIME", "datetime" →  DATETIME
//	"Lat", "Lon"                          →  LATITUDE, LONGITUDE
//
// Time formats:
//
//	Combined:  "31 January 2023 - 11:59 PM", "2023-01-31 23:59:00", RFC 3339
//	Date only: "31/01/2023" (day first), "2023-01-31", "31 January 2023"
//	Time only: "23:59:00", "23:59", "11:59 PM"
//
// A blank TIME defaults to midnight. Source times carry no zone and are read
// as UTC. Rows whose timestamp cannot be parsed are dropped, never defaulted.
//
// Depth is kept as positive kilometres. Elevation-based layers draw it below
// the surface, so [Event.Elevation] returns the negated value; the sign flip
// is a presentation convention only.
//
// # Intensity Scale
//
// Magnitude is bucketed into ten ordered levels, closed on the lower bound:
//
//	<1 barely perceptible | 1–2 scarcely perceptible | 2–3 weak |
//	3–4 moderately strong | 4–5 strong | 5–6 very strong | 6–7 destructive |
//	7–8 very destructive | 8–9 devastating | ≥9 completely devastating
//
// When the file has no CATEGORY value for a row, the bucket label becomes the
// event's category. Reported categories use the PHIVOLCS intensity names
// (SCARCELY PERCEPTIBLE … COMPLETELY DEVASTATING) and have their own colour
// table, see [CategoryColor].
//
// # ID Generation
//
// Event IDs are truncated SHA-256 hashes of row|lat|lon|timestamp|magnitude,
// so the same row keeps its ID across reloads of unchanged content and a
// duplicated row gets an ID of its own. See [generateID].
package domain
