// Package loader implements the process-load driver and the uniqueness
// arbiter: the fixed-capacity process-slot table and the
// single-threaded, cooperative Scan -> Check -> Identify -> Promote
// pipeline that turns a flash region into a Running set.
package loader
