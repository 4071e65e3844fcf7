// Package billing implements the usage gate: the authorization check that
// limits proposal creation by subscription quota.
//
// The gate is read-only and fail-closed. It never reserves quota, so a
// tenant racing two creation requests at the limit boundary may exceed the
// limit by one; that race is accepted and documented rather than locked
// away. Usage increments happen after successful creation, sequenced by the
// orchestrating handler.
package billing
