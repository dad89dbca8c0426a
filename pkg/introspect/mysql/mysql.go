// SPDX-License-Identifier: Apache-2.0

// Package mysql introspects a MySQL/MariaDB database's current schema via
// information_schema.
package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/xataio/driftplan/pkg/db"
	"github.com/xataio/driftplan/pkg/dialect"
	"github.com/xataio/driftplan/pkg/introspect"
	"github.com/xataio/driftplan/pkg/schema"
)

func init() {
	introspect.Register(dialect.MySQL, introspector{})
}

type introspector struct{}

func (introspector) Introspect(ctx context.Context, conn db.DB, schemaName string) (*schema.Schema, error) {
	s := schema.New(schemaName)

	if err := loadTablesAndColumns(ctx, conn, s, schemaName); err != nil {
		return nil, fmt.Errorf("introspect: mysql: %w", err)
	}

	err := introspect.Concurrently(
		func() error { return loadConstraints(ctx, conn, s, schemaName) },
		func() error { return loadIndexes(ctx, conn, s, schemaName) },
		func() error { return loadViews(ctx, conn, s, schemaName) },
		func() error { return loadRoutines(ctx, conn, s, schemaName) },
	)
	if err != nil {
		return nil, fmt.Errorf("introspect: mysql: %w", err)
	}
	return s, nil
}

func loadTablesAndColumns(ctx context.Context, conn db.DB, s *schema.Schema, schemaName string) error {
	rows, err := conn.QueryContext(ctx, `
		SELECT table_name, column_name, column_type, is_nullable,
		       character_maximum_length, numeric_precision, numeric_scale,
		       column_default, extra LIKE '%auto_increment%', column_key = 'PRI'
		FROM information_schema.columns
		WHERE table_schema = ?
		ORDER BY table_name, ordinal_position`, schemaName)
	if err != nil {
		return fmt.Errorf("querying columns: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tableName, columnName, dataType, isNullable string
		var maxLength, precision, scale sql.NullInt64
		var def sql.NullString
		var autoIncrement, primaryKey bool
		if err := rows.Scan(&tableName, &columnName, &dataType, &isNullable, &maxLength, &precision, &scale, &def, &autoIncrement, &primaryKey); err != nil {
			return fmt.Errorf("scanning column row: %w", err)
		}

		t := s.GetTable(tableName)
		if t == nil {
			t = &schema.Table{Name: tableName, Schema: schemaName, Columns: make(map[string]*schema.Column)}
			s.AddTable(t)
		}
		col := &schema.Column{
			Name:       columnName,
			DataType:   dataType,
			Nullable:   isNullable == "YES",
			Identity:   autoIncrement,
			PrimaryKey: primaryKey,
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
		SELECT tc.constraint_name, tc.constraint_type, tc.table_name,
		       kcu.column_name, kcu.referenced_table_name, kcu.referenced_column_name,
		       rc.update_rule, rc.delete_rule
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON kcu.constraint_name = tc.constraint_name AND kcu.table_schema = tc.table_schema
		LEFT JOIN information_schema.referential_constraints rc
		  ON rc.constraint_name = tc.constraint_name AND rc.constraint_schema = tc.table_schema
		WHERE tc.table_schema = ?
		ORDER BY tc.constraint_name, kcu.ordinal_position`, schemaName)
	if err != nil {
		return fmt.Errorf("querying constraints: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name, kind, tableName, column string
		var refTable, refColumn, onUpdate, onDelete sql.NullString
		if err := rows.Scan(&name, &kind, &tableName, &column, &refTable, &refColumn, &onUpdate, &onDelete); err != nil {
			return fmt.Errorf("scanning constraint row: %w", err)
		}

		t := s.GetTable(tableName)
		if t == nil {
			continue
		}
		c := t.Constraints[name]
		if c == nil {
			c = &schema.Constraint{Name: name, Table: tableName, Schema: schemaName, Kind: constraintKind(kind)}
			t.AddConstraint(c)
		}
		c.Columns = append(c.Columns, column)
		if refColumn.Valid {
			c.ReferencedColumns = append(c.ReferencedColumns, refColumn.String)
		}
		if refTable.Valid {
			c.ReferencedTable = refTable.String
			c.ReferencedSchema = schemaName
		}
		if onUpdate.Valid {
			c.OnUpdate = onUpdate.String
		}
		if onDelete.Valid {
			c.OnDelete = onDelete.String
		}
	}
	return rows.Err()
}

func constraintKind(mysqlType string) schema.ConstraintKind {
	switch mysqlType {
	case "PRIMARY KEY":
		return schema.PrimaryKeyConstraint
	case "UNIQUE":
		return schema.UniqueConstraint
	case "FOREIGN KEY":
		return schema.ForeignKeyConstraint
	case "CHECK":
		return schema.CheckConstraint
	default:
		return schema.ConstraintKind(mysqlType)
	}
}

func loadIndexes(ctx context.Context, conn db.DB, s *schema.Schema, schemaName string) error {
	rows, err := conn.QueryContext(ctx, `
		SELECT table_name, index_name, NOT non_unique
		FROM information_schema.statistics
		WHERE table_schema = ? AND index_name != 'PRIMARY'
		GROUP BY table_name, index_name, non_unique`, schemaName)
	if err != nil {
		return fmt.Errorf("querying indexes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tableName, indexName string
		var unique bool
		if err := rows.Scan(&tableName, &indexName, &unique); err != nil {
			return fmt.Errorf("scanning index row: %w", err)
		}
		t := s.GetTable(tableName)
		if t == nil {
			continue
		}
		// MySQL has no clustered secondary indexes; InnoDB's PK is the
		// clustering index and is excluded above.
		t.AddIndex(&schema.Index{Name: indexName, Table: tableName, Schema: schemaName, Unique: unique})
	}
	return rows.Err()
}

func loadViews(ctx context.Context, conn db.DB, s *schema.Schema, schemaName string) error {
	rows, err := conn.QueryContext(ctx, `
		SELECT table_name, view_definition
		FROM information_schema.views
		WHERE table_schema = ?`, schemaName)
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
		WHERE routine_schema = ?`, schemaName)
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
		if kind == "PROCEDURE" {
			s.Procedures[name] = &schema.Procedure{Name: name, Schema: schemaName, Definition: def.String}
		} else {
			s.Functions[name] = &schema.Function{Name: name, Schema: schemaName, Definition: def.String}
		}
	}
	return rows.Err()
}
