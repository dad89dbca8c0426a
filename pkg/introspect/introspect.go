// SPDX-License-Identifier: Apache-2.0

// Package introspect is C5: one implementation per dialect, each querying
// that dialect's catalog (information_schema or its dialect-specific
// equivalent) to produce the same schema.Schema the Synthesizer produces
// for the target side, so the Differ can compare them structurally.
//
// Dialect variants self-register by dialect.Name in their own init(), the
// same registry shape pkg/typemap and pkg/emit use, so this package itself
// stays free of per-dialect branches and import cycles.
package introspect

import (
	"context"
	"fmt"

	"github.com/xataio/driftplan/pkg/db"
	"github.com/xataio/driftplan/pkg/dialect"
	"github.com/xataio/driftplan/pkg/schema"
)

// Introspector reads the current schema of one database connection.
type Introspector interface {
	// Introspect queries the catalog for schemaName (the dialect default
	// when empty) and returns the current schema.Schema.
	Introspect(ctx context.Context, conn db.DB, schemaName string) (*schema.Schema, error)
}

var introspectors = make(map[dialect.Name]Introspector)

// Register installs the Introspector for d, called from each dialect
// subpackage's init().
func Register(d dialect.Name, i Introspector) {
	if _, exists := introspectors[d]; exists {
		panic(fmt.Sprintf("introspect: dialect %q already registered", d))
	}
	introspectors[d] = i
}

// New returns the registered Introspector for d.
func New(d dialect.Name) (Introspector, error) {
	i, ok := introspectors[d]
	if !ok {
		return nil, dialect.UnsupportedDialectError{Dialect: d}
	}
	return i, nil
}
