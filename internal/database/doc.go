// Package database provides the PostgreSQL connection pool for the
// optional stats store. The database is off by default; the relay runs
// fully in-memory unless a host is configured.
package database
