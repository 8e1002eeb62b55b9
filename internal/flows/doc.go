// Package flows contains the token lifecycle state machine as pure
// orchestration functions. Each Run* function receives its dependencies as
// a Deps struct of function values wired once by the root engine, and
// returns a Result carrying either the success payload or a classified
// failure kind for root-level error mapping.
//
// Nothing in this package touches Redis, Postgres, or crypto directly;
// that keeps every transition unit-testable with fake deps.
package flows
