// Package storeclient is the persistent store the pipeline publishes
// to. The publisher only ever issues raw DDL statements and bulk row
// inserts, so the contract stays small enough to back with either the
// Supabase REST surface or a direct SQL connection.
package storeclient

import "context"

type Client interface {
	// executes one DDL/SQL statement verbatim
	ExecStatement(ctx context.Context, statement string) error
	// inserts every row into the named table. a nil cell value is an
	// explicit null. columns carries the insert order for backends
	// that need one; every row holds a value (possibly nil) for every
	// column.
	InsertRows(ctx context.Context, table string, columns []string, rows []map[string]*string) error
	// whether the backend understands row-level-security policy DDL
	SupportsPolicies() bool
}
