// SPDX-License-Identifier: Apache-2.0

// Package synth is the Target-Schema Synthesizer: it builds a
// schema.Schema from normalized entities by allocating a table per entity,
// mapping property types through typemap, and generating the PK/UQ/FK/CK
// constraints and indexes the entities imply.
package synth

import (
	"fmt"
	"strings"

	"github.com/xataio/driftplan/pkg/dialect"
	"github.com/xataio/driftplan/pkg/entity"
	"github.com/xataio/driftplan/pkg/schema"
	"github.com/xataio/driftplan/pkg/typemap"
)

// Options configures Synthesize beyond the entities themselves.
type Options struct {
	Dialect dialect.Name

	// GenerateFKIndexes adds an index for every foreign key's columns that
	// isn't already covered by an existing index prefix.
	GenerateFKIndexes bool

	// CrossSchemaRefsEnabled allows a relationship to reference a table not
	// present among the discovered entities (e.g. one synthesized
	// out-of-band); such references are taken on faith rather than
	// validated against the entity set.
	CrossSchemaRefsEnabled bool

	// IgnoreExportAttribute, when false, makes zero valid entities a fatal
	// error; when true it is only a warning.
	IgnoreExportAttribute bool
}

// Result is Synthesize's output: the target schema plus the warnings and
// errors accumulated while building it.
type Result struct {
	Schema   *schema.Schema
	Warnings []string
	Errors   []error
}

// Synthesize builds the target schema.Schema from normalized entities.
// Per-entity structural errors (duplicate columns) cause that entity to be
// skipped with an error recorded; the rest of the pipeline continues.
func Synthesize(entities []entity.DiscoveredEntity, opts Options) (Result, error) {
	res := Result{Schema: schema.New(opts.Dialect.DefaultSchema())}

	mapper, err := typemap.New(opts.Dialect)
	if err != nil {
		return res, err
	}

	tableNames := make(map[string]string, len(entities)) // entity name -> table name, for FK resolution
	for _, e := range entities {
		tableNames[e.Name] = e.TableName
	}

	validEntities := make([]entity.DiscoveredEntity, 0, len(entities))
	for _, e := range entities {
		table, warnings, errs := synthesizeTable(e, mapper, opts)
		res.Warnings = append(res.Warnings, warnings...)
		if len(errs) > 0 {
			res.Errors = append(res.Errors, errs...)
			continue
		}
		res.Schema.AddTable(table)
		validEntities = append(validEntities, e)
	}

	if len(validEntities) == 0 && !opts.IgnoreExportAttribute {
		return res, fmt.Errorf("synth: zero valid entities discovered")
	}

	for _, e := range validEntities {
		warnings := addConstraintsAndIndexes(res.Schema, e, tableNames, opts)
		res.Warnings = append(res.Warnings, warnings...)
	}

	return res, nil
}

func synthesizeTable(e entity.DiscoveredEntity, mapper typemap.Mapper, opts Options) (*schema.Table, []string, []error) {
	var warnings []string
	var errs []error

	table := &schema.Table{
		Name:    e.TableName,
		Schema:  e.SchemaName,
		Columns: make(map[string]*schema.Column, len(e.Properties)),
	}
	if table.Schema == "" {
		table.Schema = opts.Dialect.DefaultSchema()
	}

	seen := make(map[string]string) // lowercase column name -> original
	pkColumns := 0
	for _, p := range e.Properties {
		colName := p.ColumnName()
		lower := strings.ToLower(colName)
		if existing, dup := seen[lower]; dup {
			errs = append(errs, schema.DuplicateColumnError{Table: table.Name, Column: existing})
			continue
		}
		seen[lower] = colName

		if p.PrimaryKey {
			pkColumns++
		}

		isIdentity := p.PrimaryKey && isIntegerType(p.AbstractType)
		dataType := mapper.MapType(typemap.Request{
			AbstractType: p.AbstractType,
			MaxLength:    p.MaxLength,
			Precision:    p.Precision,
			Scale:        p.Scale,
			Identity:     isIdentity,
			BigIdentity:  strings.EqualFold(p.AbstractType, "int64") || strings.EqualFold(p.AbstractType, "long"),
		})

		table.Columns[colName] = &schema.Column{
			Name:       colName,
			DataType:   dataType,
			Nullable:   p.Nullable && !p.PrimaryKey,
			PrimaryKey: p.PrimaryKey,
			Identity:   isIdentity,
			MaxLength:  p.MaxLength,
			Precision:  p.Precision,
			Scale:      p.Scale,
			Default:    typemap.MapNullableDefault(mapper, p.DefaultValue),
		}

		if opts.Dialect.IsReservedWord(colName) {
			warnings = append(warnings, fmt.Sprintf("table %q: column %q is a reserved word in %s", table.Name, colName, opts.Dialect))
		}
		if len(colName) > opts.Dialect.MaxIdentifierLength() {
			warnings = append(warnings, fmt.Sprintf("table %q: column %q exceeds %s's %d-character identifier limit", table.Name, colName, opts.Dialect, opts.Dialect.MaxIdentifierLength()))
		}
	}

	if len(table.Columns) == 0 {
		errs = append(errs, fmt.Errorf("table %q: at least one column is required", table.Name))
	}
	if pkColumns == 0 {
		warnings = append(warnings, fmt.Sprintf("table %q: no primary key declared", table.Name))
	}
	if opts.Dialect.IsReservedWord(table.Name) {
		warnings = append(warnings, fmt.Sprintf("table %q is a reserved word in %s", table.Name, opts.Dialect))
	}

	return table, warnings, errs
}

func isIntegerType(abstractType string) bool {
	switch strings.ToLower(abstractType) {
	case "int", "int32", "int64", "long", "short", "byte":
		return true
	default:
		return false
	}
}

// addConstraintsAndIndexes generates the PK/UQ/FK/CK constraints and any
// implied indexes for e's table, already present in s.
func addConstraintsAndIndexes(s *schema.Schema, e entity.DiscoveredEntity, tableNames map[string]string, opts Options) []string {
	var warnings []string
	table := s.GetTable(e.TableName)
	if table == nil {
		return warnings
	}

	if pk := e.PrimaryKeyColumns(); len(pk) > 0 {
		table.AddConstraint(&schema.Constraint{
			Name:    fmt.Sprintf("PK_%s", table.Name),
			Kind:    schema.PrimaryKeyConstraint,
			Table:   table.Name,
			Schema:  table.Schema,
			Columns: pk,
		})
	}

	for _, p := range e.Properties {
		if p.Unique && !p.PrimaryKey {
			col := p.ColumnName()
			table.AddConstraint(&schema.Constraint{
				Name:    fmt.Sprintf("UQ_%s_%s", table.Name, col),
				Kind:    schema.UniqueConstraint,
				Table:   table.Name,
				Schema:  table.Schema,
				Columns: []string{col},
			})
		}
		if expr, ok := p.CheckExpression(); ok {
			col := p.ColumnName()
			table.AddConstraint(&schema.Constraint{
				Name:            fmt.Sprintf("CK_%s_%s", table.Name, col),
				Kind:            schema.CheckConstraint,
				Table:           table.Name,
				Schema:          table.Schema,
				Columns:         []string{col},
				CheckExpression: expr,
			})
		}
	}

	for _, rel := range e.Relationships {
		refTable := rel.ReferencedTable
		if refTable == "" {
			refTable = tableNames[rel.ReferencedEntity]
		}
		if refTable == "" {
			if !opts.CrossSchemaRefsEnabled {
				warnings = append(warnings, fmt.Sprintf("table %q: relationship %q references unresolvable entity %q, skipping foreign key", table.Name, rel.Name, rel.ReferencedEntity))
				continue
			}
			refTable = rel.ReferencedEntity
		}
		if s.GetTable(refTable) == nil && !opts.CrossSchemaRefsEnabled {
			warnings = append(warnings, fmt.Sprintf("table %q: relationship %q references unknown table %q, skipping foreign key", table.Name, rel.Name, refTable))
			continue
		}

		fkCols := rel.FKColumns
		refCols := rel.ReferencedColumns
		if len(refCols) == 0 {
			refCols = []string{"Id"}
		}

		table.AddConstraint(&schema.Constraint{
			Name:              fmt.Sprintf("FK_%s_%s_%s", table.Name, refTable, strings.Join(fkCols, "_")),
			Kind:              schema.ForeignKeyConstraint,
			Table:             table.Name,
			Schema:            table.Schema,
			Columns:           fkCols,
			ReferencedTable:   refTable,
			ReferencedColumns: refCols,
			OnDelete:          rel.OnDelete,
			OnUpdate:          rel.OnUpdate,
		})

		if opts.GenerateFKIndexes && !indexCoversPrefix(table, fkCols) {
			idxName := fmt.Sprintf("IX_%s_%s", table.Name, strings.Join(fkCols, "_"))
			if _, exists := findIndexCaseInsensitive(table, idxName); !exists {
				table.AddIndex(&schema.Index{
					Name:    idxName,
					Table:   table.Name,
					Schema:  table.Schema,
					Columns: fkCols,
				})
			}
		}
	}

	for _, idx := range e.Indexes {
		name := idx.Name
		if name == "" {
			name = fmt.Sprintf("IX_%s_%s", table.Name, strings.Join(idx.Columns, "_"))
		}
		if _, exists := findIndexCaseInsensitive(table, name); exists {
			continue
		}
		table.AddIndex(&schema.Index{
			Name:      name,
			Table:     table.Name,
			Schema:    table.Schema,
			Columns:   idx.Columns,
			Unique:    idx.Unique,
			Clustered: idx.Clustered,
			Filter:    idx.Filter,
		})
	}

	return warnings
}

func findIndexCaseInsensitive(t *schema.Table, name string) (*schema.Index, bool) {
	for _, n := range t.SortedIndexNames() {
		if strings.EqualFold(n, name) {
			return t.Indexes[n], true
		}
	}
	return nil, false
}

func indexCoversPrefix(t *schema.Table, columns []string) bool {
	names := t.SortedIndexNames()
	for _, n := range names {
		idx := t.Indexes[n]
		if len(idx.Columns) < len(columns) {
			continue
		}
		matches := true
		for i, c := range columns {
			if !strings.EqualFold(idx.Columns[i], c) {
				matches = false
				break
			}
		}
		if matches {
			return true
		}
	}
	return false
}
