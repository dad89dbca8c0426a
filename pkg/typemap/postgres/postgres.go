// SPDX-License-Identifier: Apache-2.0

// Package postgres implements typemap.Mapper for PostgreSQL.
package postgres

import (
	"fmt"
	"strings"

	"github.com/xataio/driftplan/pkg/dialect"
	"github.com/xataio/driftplan/pkg/typemap"
)

func init() {
	typemap.Register(dialect.Postgres, mapper{})
}

type mapper struct{}

func (mapper) MapType(req typemap.Request) string {
	t := strings.ToLower(req.AbstractType)

	if req.Identity {
		if req.BigIdentity || t == "int64" || t == "long" {
			return "BIGSERIAL"
		}
		return "SERIAL"
	}

	switch t {
	case "int", "int32":
		return "INTEGER"
	case "int64", "long":
		return "BIGINT"
	case "short":
		return "SMALLINT"
	case "byte":
		return "SMALLINT"
	case "bool", "boolean":
		return "BOOLEAN"
	case "string":
		if req.MaxLength != nil {
			return fmt.Sprintf("VARCHAR(%d)", *req.MaxLength)
		}
		return "TEXT"
	case "datetime":
		return "TIMESTAMP"
	case "decimal":
		if req.Precision != nil && req.Scale != nil {
			return fmt.Sprintf("DECIMAL(%d,%d)", *req.Precision, *req.Scale)
		}
		return "DECIMAL(18,2)"
	case "double":
		return "DOUBLE PRECISION"
	case "float":
		return "REAL"
	case "guid", "uuid":
		return "UUID"
	default:
		return "VARCHAR(255)"
	}
}

func (mapper) NormalizeDefault(token string) string {
	switch strings.ToUpper(strings.TrimSpace(token)) {
	case "NOW()":
		return "now()"
	case "UUID()":
		return "gen_random_uuid()"
	default:
		return token
	}
}
