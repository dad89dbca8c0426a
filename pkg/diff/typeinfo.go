// SPDX-License-Identifier: Apache-2.0

package diff

import (
	"regexp"
	"strconv"
	"strings"
)

// typeInfo is a coarse, dialect-agnostic read of a rendered SQL type string,
// enough to decide whether an ALTER COLUMN data-type change narrows the
// column. It is not a parser for any dialect's full grammar.
type typeInfo struct {
	category string // "string", "numeric", "date", "boolean", "guid", "binary", "other"
	length   *int   // VARCHAR(n) etc.
	scale    *int   // DECIMAL(p,s) second component
}

var typeArgsPattern = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_ ]*)\s*(?:\(\s*([0-9]+)\s*(?:,\s*([0-9]+)\s*)?\))?`)

var categoryByBase = map[string]string{
	"varchar": "string", "nvarchar": "string", "char": "string", "nchar": "string",
	"varchar2": "string", "text": "string", "clob": "string", "string": "string",
	"int": "numeric", "integer": "numeric", "bigint": "numeric", "smallint": "numeric",
	"tinyint": "numeric", "number": "numeric", "decimal": "numeric", "numeric": "numeric",
	"float": "numeric", "real": "numeric", "double": "numeric", "double precision": "numeric",
	"binary_double": "numeric", "binary_float": "numeric",
	"datetime": "date", "datetime2": "date", "timestamp": "date", "date": "date",
	"bit": "boolean", "bool": "boolean", "boolean": "boolean",
	"uniqueidentifier": "guid", "uuid": "guid", "raw": "guid",
	"blob": "binary", "varbinary": "binary", "bytea": "binary",
}

func parseType(rendered string) typeInfo {
	s := strings.TrimSpace(rendered)
	// Strip dialect-specific identity/autoincrement suffixes so the base type
	// still classifies correctly.
	for _, suffix := range []string{" IDENTITY(1,1)", " AUTO_INCREMENT", " GENERATED BY DEFAULT AS IDENTITY", " AUTOINCREMENT"} {
		s = strings.TrimSuffix(strings.ToUpper(s), strings.ToUpper(suffix))
	}
	s = strings.TrimSpace(s)

	m := typeArgsPattern.FindStringSubmatch(s)
	if m == nil {
		return typeInfo{category: "other"}
	}
	base := strings.ToLower(strings.TrimSpace(m[1]))
	cat, ok := categoryByBase[base]
	if !ok {
		cat = "other"
	}

	info := typeInfo{category: cat}
	if m[2] != "" {
		if n, err := strconv.Atoi(m[2]); err == nil {
			info.length = &n
		}
	}
	if m[3] != "" {
		if n, err := strconv.Atoi(m[3]); err == nil {
			info.scale = &n
		}
	}
	return info
}

// narrows reports whether target cannot losslessly represent every value
// from-type could hold: a category change, a string length shrink, or a
// numeric scale/precision shrink.
func narrows(from, to string) bool {
	a, b := parseType(from), parseType(to)
	if a.category != b.category {
		return true
	}
	switch a.category {
	case "string":
		if a.length == nil || b.length == nil {
			return false // unbounded on either side: can't tell, assume safe
		}
		return *b.length < *a.length
	case "numeric":
		if a.length != nil && b.length != nil && *b.length < *a.length {
			return true
		}
		if a.scale != nil && b.scale != nil && *b.scale < *a.scale {
			return true
		}
		return false
	default:
		return false
	}
}
