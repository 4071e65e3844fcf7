// Package engagement records recipient interactions with shared proposals.
//
// Every shared proposal link carries an opaque tracking token. Beacons fired
// by the proposal viewer (pixel opens, page views, scroll depth, time spent,
// element clicks, PDF downloads) resolve that token to a per-token aggregate
// row plus append-only event rows.
//
// Recording is telemetry grade: counters only increase, first-event
// timestamps are written once, and a partial write failure is logged rather
// than surfaced to the recipient. The open pixel in particular must never
// fail from the caller's point of view.
//
// Events can be applied directly (Service) or routed through SQS by the
// public beacon edge (Publisher) and applied later (Consumer). Both paths
// end in the same Service methods.
package engagement
