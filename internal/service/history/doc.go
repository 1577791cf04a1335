// Package history implements simulation run history management.
//
// The service layer owns the persistence contract for completed runs:
// atomic save of a result with its originating draft, read-back by run
// identifier, and listing/clearing of past runs. It depends on repository
// interfaces defined in this package and should never import from the
// transport layer.
//
// Repository implementations live in repository/postgres/.
package history
