// SPDX-License-Identifier: Apache-2.0

// Package mysql implements typemap.Mapper for MySQL.
package mysql

import (
	"fmt"
	"strings"

	"github.com/xataio/driftplan/pkg/dialect"
	"github.com/xataio/driftplan/pkg/typemap"
)

func init() {
	typemap.Register(dialect.MySQL, mapper{})
}

type mapper struct{}

func (mapper) MapType(req typemap.Request) string {
	t := strings.ToLower(req.AbstractType)

	if req.Identity {
		if req.BigIdentity || t == "int64" || t == "long" {
			return "BIGINT AUTO_INCREMENT"
		}
		return "INT AUTO_INCREMENT"
	}

	switch t {
	case "int", "int32":
		return "INT"
	case "int64", "long":
		return "BIGINT"
	case "short":
		return "SMALLINT"
	case "byte":
		return "TINYINT"
	case "bool", "boolean":
		return "TINYINT(1)"
	case "string":
		if req.MaxLength != nil {
			return fmt.Sprintf("VARCHAR(%d)", *req.MaxLength)
		}
		return "TEXT"
	case "datetime":
		return "DATETIME"
	case "decimal":
		if req.Precision != nil && req.Scale != nil {
			return fmt.Sprintf("DECIMAL(%d,%d)", *req.Precision, *req.Scale)
		}
		return "DECIMAL(18,2)"
	case "double":
		return "DOUBLE"
	case "float":
		return "FLOAT"
	case "guid", "uuid":
		return "CHAR(36)"
	default:
		return "VARCHAR(255)"
	}
}

func (mapper) NormalizeDefault(token string) string {
	switch strings.ToUpper(strings.TrimSpace(token)) {
	case "NOW()":
		return "CURRENT_TIMESTAMP"
	case "UUID()":
		return "(UUID())"
	default:
		return token
	}
}
