// SPDX-License-Identifier: Apache-2.0

// Package sqlite implements typemap.Mapper for SQLite.
package sqlite

import (
	"strings"

	"github.com/xataio/driftplan/pkg/dialect"
	"github.com/xataio/driftplan/pkg/typemap"
)

func init() {
	typemap.Register(dialect.SQLite, mapper{})
}

type mapper struct{}

func (mapper) MapType(req typemap.Request) string {
	t := strings.ToLower(req.AbstractType)

	if req.Identity {
		return "INTEGER PRIMARY KEY AUTOINCREMENT"
	}

	switch t {
	case "int", "int32", "int64", "long", "short", "byte", "bool", "boolean":
		return "INTEGER"
	case "string":
		return "TEXT"
	case "datetime":
		return "TEXT"
	case "decimal", "double", "float":
		return "REAL"
	case "guid", "uuid":
		return "TEXT"
	default:
		return "TEXT"
	}
}

func (mapper) NormalizeDefault(token string) string {
	switch strings.ToUpper(strings.TrimSpace(token)) {
	case "NOW()":
		return "datetime('now')"
	case "UUID()":
		return "(lower(hex(randomblob(16))))"
	default:
		return token
	}
}
