// SPDX-License-Identifier: Apache-2.0

// Package sqlserver implements typemap.Mapper for Microsoft SQL Server.
package sqlserver

import (
	"fmt"
	"strings"

	"github.com/xataio/driftplan/pkg/dialect"
	"github.com/xataio/driftplan/pkg/typemap"
)

func init() {
	typemap.Register(dialect.SQLServer, mapper{})
}

type mapper struct{}

func (mapper) MapType(req typemap.Request) string {
	t := strings.ToLower(req.AbstractType)

	if req.Identity {
		if req.BigIdentity || t == "int64" || t == "long" {
			return "BIGINT IDENTITY(1,1)"
		}
		return "INT IDENTITY(1,1)"
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
		return "BIT"
	case "string":
		if req.MaxLength != nil {
			return fmt.Sprintf("NVARCHAR(%d)", *req.MaxLength)
		}
		return "NVARCHAR(MAX)"
	case "datetime":
		return "DATETIME2"
	case "decimal":
		if req.Precision != nil && req.Scale != nil {
			return fmt.Sprintf("DECIMAL(%d,%d)", *req.Precision, *req.Scale)
		}
		return "DECIMAL(18,2)"
	case "double":
		return "FLOAT"
	case "float":
		return "REAL"
	case "guid", "uuid":
		return "UNIQUEIDENTIFIER"
	default:
		return "NVARCHAR(255)"
	}
}

func (mapper) NormalizeDefault(token string) string {
	switch strings.ToUpper(strings.TrimSpace(token)) {
	case "NOW()":
		return "GETUTCDATE()"
	case "UUID()":
		return "NEWID()"
	default:
		return token
	}
}
