// Package proposal implements proposal lifecycle management.
//
// The service layer contains all business logic for creating proposals,
// moving them through their status machine, and reading their audit trail.
// It depends on repository interfaces defined in this package and should
// never import from api/.
//
// Repository implementations live in repository/postgres/.
package proposal
