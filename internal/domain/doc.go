// Package domain defines the core business types for the CleanBid platform:
// proposals and their status history, subscriptions and plans, and the
// per-proposal tracking record behind engagement beacons.
//
// Types here are pure value objects. They carry no database handles, no HTTP
// types, and import nothing from other internal/ packages, so every layer can
// depend on them without cycles. JSON and DB tags are metadata and allowed;
// so are validation methods and status constants.
package domain
