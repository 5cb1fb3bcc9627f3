// Package store defines the persistence interfaces and error types used
// by the application core. Concrete implementations live under
// internal/platform (e.g., internal/platform/postgres); the core depends
// only on these contracts.
package store
