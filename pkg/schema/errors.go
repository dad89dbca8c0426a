// SPDX-License-Identifier: Apache-2.0

package schema

import "fmt"

// DuplicateColumnError is returned when a table declares the same column
// name (case-insensitively) more than once.
type DuplicateColumnError struct {
	Table  string
	Column string
}

func (e DuplicateColumnError) Error() string {
	return fmt.Sprintf("table %q has duplicate column %q", e.Table, e.Column)
}

// DuplicateConstraintNameError is returned when two constraints in the same
// schema share a name.
type DuplicateConstraintNameError struct {
	Schema string
	Name   string
}

func (e DuplicateConstraintNameError) Error() string {
	return fmt.Sprintf("constraint name %q is already used in schema %q", e.Name, e.Schema)
}

// DuplicateIndexNameError is returned when two indexes in the same schema
// share a name.
type DuplicateIndexNameError struct {
	Schema string
	Name   string
}

func (e DuplicateIndexNameError) Error() string {
	return fmt.Sprintf("index name %q is already used in schema %q", e.Name, e.Schema)
}

// UnresolvedForeignKeyError is returned when a foreign key references a
// table or column set that does not exist in the schema.
type UnresolvedForeignKeyError struct {
	Table           string
	ReferencedTable string
}

func (e UnresolvedForeignKeyError) Error() string {
	return fmt.Sprintf("table %q references unknown table %q", e.Table, e.ReferencedTable)
}
