// Package adminapi exposes a read-only HTTP view over a loader.Driver's
// process slot table, for operational inspection of a running procheckd
// instance.
//
// Routes:
//
//	GET /v1/processes       - snapshot of every slot in the table
//	GET /v1/processes/{id}  - a single slot by ID
//	GET /v1/running         - the current Running set
package adminapi
