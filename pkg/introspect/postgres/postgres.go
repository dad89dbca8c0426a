// SPDX-License-Identifier: Apache-2.0

// Package postgres introspects a PostgreSQL database's current schema via
// information_schema and pg_catalog.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/xataio/driftplan/pkg/db"
	"github.com/xataio/driftplan/pkg/dialect"
	"github.com/xataio/driftplan/pkg/introspect"
	"github.com/xataio/driftplan/pkg/schema"
)

func init() {
	introspect.Register(dialect.Postgres, introspector{})
}

type introspector struct{}

func (introspector) Introspect(ctx context.Context, conn db.DB, schemaName string) (*schema.Schema, error) {
	if schemaName == "" {
		schemaName = dialect.Postgres.DefaultSchema()
	}
	s := schema.New(schemaName)

	if err := loadTablesAndColumns(ctx, conn, s, schemaName); err != nil {
		return nil, fmt.Errorf("introspect: postgres: %w", err)
	}

	err := introspect.Concurrently(
		func() error { return loadConstraints(ctx, conn, s, schemaName) },
		func() error { return loadIndexes(ctx, conn, s, schemaName) },
		func() error { return loadViews(ctx, conn, s, schemaName) },
		func() error { return loadRoutines(ctx, conn, s, schemaName) },
	)
	if err != nil {
		return nil, fmt.Errorf("introspect: postgres: %w", err)
	}
	return s, nil
}

func loadTablesAndColumns(ctx context.Context, conn db.DB, s *schema.Schema, schemaName string) error {
	rows, err := conn.QueryContext(ctx, `
		SELECT c.table_name, c.column_name, c.data_type, c.is_nullable,
		       c.character_maximum_length, c.numeric_precision, c.numeric_scale,
		       c.column_default,
		       c.column_default LIKE 'nextval(%'
		FROM information_schema.columns c
		WHERE c.table_schema = $1
		ORDER BY c.table_name, c.ordinal_position`, schemaName)
	if err != nil {
		return fmt.Errorf("querying columns: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tableName, columnName, dataType, isNullable string
		var maxLength, precision, scale sql.NullInt64
		var def sql.NullString
		var isSerial bool
		if err := rows.Scan(&tableName, &columnName, &dataType, &isNullable, &maxLength, &precision, &scale, &def, &isSerial); err != nil {
			return fmt.Errorf("scanning column row: %w", err)
		}

		t := s.GetTable(tableName)
		if t == nil {
			t = &schema.Table{Name: tableName, Schema: schemaName, Columns: make(map[string]*schema.Column)}
			s.AddTable(t)
		}
		col := &schema.Column{
			Name:     columnName,
			DataType: dataType,
			Nullable: isNullable == "YES",
			Identity: isSerial,
		}
		if maxLength.Valid {
			v := int(maxLength.Int64)
			col.MaxLength = &v
		}
		if precision.Valid {
			v := int(precision.Int64)
			col.Precision = &v
		}
		if scale.Valid {
			v := int(scale.Int64)
			col.Scale = &v
		}
		if def.Valid {
			col.Default = &def.String
		}
		t.Columns[columnName] = col
	}
	return rows.Err()
}

func loadConstraints(ctx context.Context, conn db.DB, s *schema.Schema, schemaName string) error {
	rows, err := conn.QueryContext(ctx, `
		SELECT con.conname, con.contype, t.relname,
		       (SELECT array_agg(a.attname ORDER BY u.ord)
		        FROM unnest(con.conkey) WITH ORDINALITY AS u(attnum, ord)
		        JOIN pg_attribute a ON a.attrelid = con.conrelid AND a.attnum = u.attnum),
		       ft.relname,
		       (SELECT array_agg(a.attname ORDER BY u.ord)
		        FROM unnest(con.confkey) WITH ORDINALITY AS u(attnum, ord)
		        JOIN pg_attribute a ON a.attrelid = con.confrelid AND a.attnum = u.attnum),
		       con.confupdtype, con.confdeltype,
		       pg_get_constraintdef(con.oid)
		FROM pg_constraint con
		JOIN pg_class t ON t.oid = con.conrelid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		LEFT JOIN pg_class ft ON ft.oid = con.confrelid
		WHERE n.nspname = $1`, schemaName)
	if err != nil {
		return fmt.Errorf("querying constraints: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name, contype, tableName, def string
		var columns, refColumns pq.StringArray
		var refTable, onUpdate, onDelete sql.NullString
		if err := rows.Scan(&name, &contype, &tableName, &columns, &refTable, &refColumns, &onUpdate, &onDelete, &def); err != nil {
			return fmt.Errorf("scanning constraint row: %w", err)
		}

		t := s.GetTable(tableName)
		if t == nil {
			continue
		}
		c := &schema.Constraint{
			Name:    name,
			Table:   tableName,
			Schema:  schemaName,
			Kind:    constraintKind(contype),
			Columns: []string(columns),
		}
		if contype == "c" {
			c.CheckExpression = def
		}
		if refTable.Valid {
			c.ReferencedTable = refTable.String
			c.ReferencedSchema = schemaName
			c.ReferencedColumns = []string(refColumns)
			c.OnUpdate = refAction(onUpdate.String)
			c.OnDelete = refAction(onDelete.String)
		}
		t.AddConstraint(c)
	}
	return rows.Err()
}

func constraintKind(pgType string) schema.ConstraintKind {
	switch pgType {
	case "p":
		return schema.PrimaryKeyConstraint
	case "u":
		return schema.UniqueConstraint
	case "f":
		return schema.ForeignKeyConstraint
	case "c":
		return schema.CheckConstraint
	default:
		return schema.ConstraintKind(pgType)
	}
}

// refAction maps a pg_constraint confupdtype/confdeltype code to the
// referential action it represents.
func refAction(code string) string {
	switch code {
	case "a":
		return "NO ACTION"
	case "r":
		return "RESTRICT"
	case "c":
		return "CASCADE"
	case "n":
		return "SET NULL"
	case "d":
		return "SET DEFAULT"
	default:
		return ""
	}
}

func loadIndexes(ctx context.Context, conn db.DB, s *schema.Schema, schemaName string) error {
	rows, err := conn.QueryContext(ctx, `
		SELECT t.relname, i.relname, ix.indisunique, ix.indisclustered,
		       pg_get_expr(ix.indpred, ix.indrelid)
		FROM pg_index ix
		JOIN pg_class i ON i.oid = ix.indexrelid
		JOIN pg_class t ON t.oid = ix.indrelid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		WHERE n.nspname = $1 AND NOT ix.indisprimary`, schemaName)
	if err != nil {
		return fmt.Errorf("querying indexes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tableName, indexName string
		var unique, clustered bool
		var filter sql.NullString
		if err := rows.Scan(&tableName, &indexName, &unique, &clustered, &filter); err != nil {
			return fmt.Errorf("scanning index row: %w", err)
		}

		t := s.GetTable(tableName)
		if t == nil {
			continue
		}
		idx := &schema.Index{
			Name:      indexName,
			Table:     tableName,
			Schema:    schemaName,
			Unique:    unique,
			Clustered: clustered,
		}
		if filter.Valid {
			idx.Filter = filter.String
		}
		t.AddIndex(idx)
	}
	return rows.Err()
}

func loadViews(ctx context.Context, conn db.DB, s *schema.Schema, schemaName string) error {
	rows, err := conn.QueryContext(ctx, `
		SELECT table_name, view_definition
		FROM information_schema.views
		WHERE table_schema = $1`, schemaName)
	if err != nil {
		return fmt.Errorf("querying views: %w", err)
	}
	defer rows.Close()

	if s.Views == nil {
		s.Views = make(map[string]*schema.View)
	}
	for rows.Next() {
		var name, def string
		if err := rows.Scan(&name, &def); err != nil {
			return fmt.Errorf("scanning view row: %w", err)
		}
		s.Views[name] = &schema.View{Name: name, Schema: schemaName, Definition: def}
	}
	return rows.Err()
}

func loadRoutines(ctx context.Context, conn db.DB, s *schema.Schema, schemaName string) error {
	rows, err := conn.QueryContext(ctx, `
		SELECT routine_name, routine_type, routine_definition
		FROM information_schema.routines
		WHERE routine_schema = $1`, schemaName)
	if err != nil {
		return fmt.Errorf("querying routines: %w", err)
	}
	defer rows.Close()

	if s.Procedures == nil {
		s.Procedures = make(map[string]*schema.Procedure)
	}
	if s.Functions == nil {
		s.Functions = make(map[string]*schema.Function)
	}
	for rows.Next() {
		var name, kind string
		var def sql.NullString
		if err := rows.Scan(&name, &kind, &def); err != nil {
			return fmt.Errorf("scanning routine row: %w", err)
		}
		definition := def.String
		if kind == "PROCEDURE" {
			s.Procedures[name] = &schema.Procedure{Name: name, Schema: schemaName, Definition: definition}
		} else {
			s.Functions[name] = &schema.Function{Name: name, Schema: schemaName, Definition: definition}
		}
	}
	return rows.Err()
}
