// SPDX-License-Identifier: Apache-2.0

// Package schema is the canonical, dialect-neutral database-side model: the
// shape every Introspector (current state) and the Synthesizer (target
// state) both produce, and the shape the Differ compares.
//
// Ownership is tree-shaped: constraints and indexes reference their owning
// table by (schema, name) string pair, not by back-pointer, so the model has
// no cycles and needs no weak references.
package schema

import "slices"

func New(name string) *Schema {
	return &Schema{
		Name:   name,
		Tables: make(map[string]*Table),
	}
}

// Schema is a database-side schema: a namespace of tables, constraints,
// indexes, views, procedures and functions for one dialect.
type Schema struct {
	// Name is the default schema/namespace name for the target dialect
	// (e.g. "dbo", "public", "SYSTEM", "").
	Name string `json:"name"`

	Tables     map[string]*Table     `json:"tables"`
	Views      map[string]*View      `json:"views,omitempty"`
	Procedures map[string]*Procedure `json:"procedures,omitempty"`
	Functions  map[string]*Function  `json:"functions,omitempty"`
}

// Table represents a table in the schema.
type Table struct {
	Name   string `json:"name"`
	Schema string `json:"schema"`

	Columns map[string]*Column `json:"columns"`

	Constraints map[string]*Constraint `json:"constraints,omitempty"`
	Indexes     map[string]*Index      `json:"indexes,omitempty"`

	Metadata map[string]any `json:"metadata,omitempty"`
}

// Column represents a column in a table. DataType is already rendered for
// the target dialect by the Type Mapper; the Schema Model carries no
// abstract type information.
type Column struct {
	Name     string `json:"name"`
	DataType string `json:"dataType"`
	Nullable bool   `json:"nullable"`

	PrimaryKey bool `json:"primaryKey"`
	Identity   bool `json:"identity"`

	MaxLength *int    `json:"maxLength,omitempty"`
	Precision *int    `json:"precision,omitempty"`
	Scale     *int    `json:"scale,omitempty"`
	Default   *string `json:"defaultValue,omitempty"`

	Metadata map[string]any `json:"metadata,omitempty"`
}

// ConstraintKind enumerates the four constraint types tracked by the model.
type ConstraintKind string

const (
	PrimaryKeyConstraint ConstraintKind = "PK"
	UniqueConstraint     ConstraintKind = "UQ"
	ForeignKeyConstraint ConstraintKind = "FK"
	CheckConstraint      ConstraintKind = "CK"
)

// Constraint represents a PK, UQ, FK or CK constraint on a table.
type Constraint struct {
	Name   string         `json:"name"`
	Kind   ConstraintKind `json:"kind"`
	Table  string         `json:"table"`
	Schema string         `json:"schema"`

	Columns []string `json:"columns"`

	ReferencedTable   string   `json:"referencedTable,omitempty"`
	ReferencedSchema  string   `json:"referencedSchema,omitempty"`
	ReferencedColumns []string `json:"referencedColumns,omitempty"`
	OnDelete          string   `json:"onDelete,omitempty"`
	OnUpdate          string   `json:"onUpdate,omitempty"`

	CheckExpression string `json:"checkExpression,omitempty"`
}

// Index represents an index on a table.
type Index struct {
	Name      string   `json:"name"`
	Table     string   `json:"table"`
	Schema    string   `json:"schema"`
	Columns   []string `json:"columns"`
	Unique    bool     `json:"unique"`
	Clustered bool     `json:"clustered"`
	Filter    string   `json:"filter,omitempty"`
}

// View is tracked only well enough to order its drop/recreate against the
// tables and objects it depends on; its Definition is opaque to the core.
type View struct {
	Name       string `json:"name"`
	Schema     string `json:"schema"`
	Definition string `json:"definition"`
}

// Procedure is a stored procedure, tracked for drop/recreate ordering only.
type Procedure struct {
	Name       string      `json:"name"`
	Schema     string      `json:"schema"`
	Definition string      `json:"definition"`
	Parameters []Parameter `json:"parameters,omitempty"`
}

// Function is a user-defined function, tracked for drop/recreate ordering
// only.
type Function struct {
	Name       string      `json:"name"`
	Schema     string      `json:"schema"`
	Definition string      `json:"definition"`
	Parameters []Parameter `json:"parameters,omitempty"`
}

// Parameter is one formal parameter of a Procedure or Function.
type Parameter struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// AddTable registers t under its name.
func (s *Schema) AddTable(t *Table) {
	if s.Tables == nil {
		s.Tables = make(map[string]*Table)
	}
	s.Tables[t.Name] = t
}

// GetTable returns the table named name, or nil.
func (s *Schema) GetTable(name string) *Table {
	if s.Tables == nil {
		return nil
	}
	return s.Tables[name]
}

// SortedTableNames returns table names in ascending order, for deterministic
// iteration.
func (s *Schema) SortedTableNames() []string {
	names := make([]string, 0, len(s.Tables))
	for n := range s.Tables {
		names = append(names, n)
	}
	sortStrings(names)
	return names
}

// GetColumn returns the column named name, or nil.
func (t *Table) GetColumn(name string) *Column {
	if t.Columns == nil {
		return nil
	}
	return t.Columns[name]
}

// SortedColumnNames returns column names in ascending order.
func (t *Table) SortedColumnNames() []string {
	names := make([]string, 0, len(t.Columns))
	for n := range t.Columns {
		names = append(names, n)
	}
	sortStrings(names)
	return names
}

// AddConstraint registers c under its name on its owning table.
func (t *Table) AddConstraint(c *Constraint) {
	if t.Constraints == nil {
		t.Constraints = make(map[string]*Constraint)
	}
	t.Constraints[c.Name] = c
}

// AddIndex registers i under its name on its owning table.
func (t *Table) AddIndex(i *Index) {
	if t.Indexes == nil {
		t.Indexes = make(map[string]*Index)
	}
	t.Indexes[i.Name] = i
}

// SortedConstraintNames returns constraint names in ascending order.
func (t *Table) SortedConstraintNames() []string {
	names := make([]string, 0, len(t.Constraints))
	for n := range t.Constraints {
		names = append(names, n)
	}
	sortStrings(names)
	return names
}

// SortedIndexNames returns index names in ascending order.
func (t *Table) SortedIndexNames() []string {
	names := make([]string, 0, len(t.Indexes))
	for n := range t.Indexes {
		names = append(names, n)
	}
	sortStrings(names)
	return names
}

func sortStrings(ss []string) {
	slices.Sort(ss)
}
