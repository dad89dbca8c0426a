// SPDX-License-Identifier: Apache-2.0

// Package typemap maps an entity's abstract property type to a dialect's
// rendered SQL type string. Each dialect implements Mapper in its own
// subpackage; New looks up the Mapper that subpackage registered from its
// init() (see Register). No reflection is involved.
package typemap

import (
	"fmt"

	"github.com/oapi-codegen/nullable"

	"github.com/xataio/driftplan/pkg/dialect"
)

// Request describes one property's type-mapping inputs, carried over from
// entity.DiscoveredProperty without importing that package (type mapping is
// useful standalone, e.g. from tests, without a full entity).
type Request struct {
	AbstractType string
	MaxLength    *int
	Precision    *int
	Scale        *int
	Identity     bool
	// BigIdentity distinguishes an INT identity from a BIGINT identity when
	// AbstractType itself doesn't already say int64/long.
	BigIdentity bool
}

// Mapper renders SQL types and default-value expressions for one dialect.
type Mapper interface {
	// MapType returns the dialect SQL type string for req. Unknown abstract
	// types fall back to the dialect's widest string type.
	MapType(req Request) string

	// NormalizeDefault rewrites an abstract default-value token (NOW(),
	// UUID()) into the dialect's equivalent expression. Non-token defaults
	// (numeric/string literals) are passed through unchanged.
	NormalizeDefault(token string) string
}

// New returns the Mapper for dialect d.
func New(d dialect.Name) (Mapper, error) {
	m, ok := mappers[d]
	if !ok {
		return nil, dialect.UnsupportedDialectError{Dialect: d}
	}
	return m, nil
}

// MapNullableDefault resolves a property's nullable.Nullable[string] default
// value through m.NormalizeDefault, returning nil when the default was never
// set (as opposed to explicitly set to a literal null-like string).
func MapNullableDefault(m Mapper, def nullable.Nullable[string]) *string {
	if !def.IsSpecified() {
		return nil
	}
	if def.IsNull() {
		return nil
	}
	v, _ := def.Get()
	normalized := m.NormalizeDefault(v)
	return &normalized
}

// knownAbstractTypes documents the recognized abstract type tokens; no code
// or test references it.
var knownAbstractTypes = []string{
	"int", "int32", "int64", "short", "byte", "bool", "string", "datetime",
	"decimal", "double", "float", "guid", "uuid",
}

var mappers = map[dialect.Name]Mapper{}

// Register is called from each dialect subpackage's init() to install its
// Mapper, the same pattern database/sql itself uses for drivers: a dialect
// subpackage cannot be referenced from New directly without an import cycle
// (it depends on this package's Request/Mapper types), so it registers
// itself on import instead of being switch-cased here. Callers that need a
// dialect must blank-import its subpackage (see pkg/pipeline).
func Register(d dialect.Name, m Mapper) {
	if _, exists := mappers[d]; exists {
		panic(fmt.Sprintf("typemap: dialect %q already registered", d))
	}
	mappers[d] = m
}
