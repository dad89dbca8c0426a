// SPDX-License-Identifier: Apache-2.0

// Package oracle implements typemap.Mapper for Oracle Database.
package oracle

import (
	"fmt"
	"strings"

	"github.com/xataio/driftplan/pkg/dialect"
	"github.com/xataio/driftplan/pkg/typemap"
)

func init() {
	typemap.Register(dialect.Oracle, mapper{})
}

type mapper struct{}

func (mapper) MapType(req typemap.Request) string {
	t := strings.ToLower(req.AbstractType)

	if req.Identity {
		return "NUMBER GENERATED BY DEFAULT AS IDENTITY"
	}

	switch t {
	case "int", "int32":
		return "NUMBER(10)"
	case "int64", "long":
		return "NUMBER(19)"
	case "short":
		return "NUMBER(5)"
	case "byte":
		return "NUMBER(3)"
	case "bool", "boolean":
		return "NUMBER(1)"
	case "string":
		if req.MaxLength != nil {
			return fmt.Sprintf("VARCHAR2(%d)", *req.MaxLength)
		}
		return "VARCHAR2(4000)"
	case "datetime":
		return "TIMESTAMP"
	case "decimal":
		if req.Precision != nil && req.Scale != nil {
			return fmt.Sprintf("NUMBER(%d,%d)", *req.Precision, *req.Scale)
		}
		return "NUMBER(18,2)"
	case "double":
		return "BINARY_DOUBLE"
	case "float":
		return "BINARY_FLOAT"
	case "guid", "uuid":
		return "RAW(16)"
	default:
		return "VARCHAR2(255)"
	}
}

func (mapper) NormalizeDefault(token string) string {
	switch strings.ToUpper(strings.TrimSpace(token)) {
	case "NOW()":
		return "SYSDATE"
	case "UUID()":
		return "SYS_GUID()"
	default:
		return token
	}
}
