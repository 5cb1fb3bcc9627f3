// Package postgres implements the application's persistence contracts
// (task, generated-image, and usage-stats stores) against PostgreSQL via
// database/sql with the pgx driver. Database errors are mapped onto the
// sentinel errors in internal/store so callers never match on
// driver-specific types.
package postgres
