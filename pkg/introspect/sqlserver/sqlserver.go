// SPDX-License-Identifier: Apache-2.0

// Package sqlserver introspects a SQL Server database's current schema via
// information_schema for tables/columns/constraints and sys.indexes for
// index clustering, which information_schema does not expose.
package sqlserver

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
	introspect.Register(dialect.SQLServer, introspector{})
}

type introspector struct{}

func (introspector) Introspect(ctx context.Context, conn db.DB, schemaName string) (*schema.Schema, error) {
	if schemaName == "" {
		schemaName = dialect.SQLServer.DefaultSchema()
	}
	s := schema.New(schemaName)

	if err := loadTablesAndColumns(ctx, conn, s, schemaName); err != nil {
		return nil, fmt.Errorf("introspect: sqlserver: %w", err)
	}

	err := introspect.Concurrently(
		func() error { return loadConstraints(ctx, conn, s, schemaName) },
		func() error { return loadIndexes(ctx, conn, s, schemaName) },
		func() error { return loadViews(ctx, conn, s, schemaName) },
		func() error { return loadRoutines(ctx, conn, s, schemaName) },
	)
	if err != nil {
		return nil, fmt.Errorf("introspect: sqlserver: %w", err)
	}
	return s, nil
}

func loadTablesAndColumns(ctx context.Context, conn db.DB, s *schema.Schema, schemaName string) error {
	rows, err := conn.QueryContext(ctx, `
		SELECT c.TABLE_NAME, c.COLUMN_NAME, c.DATA_TYPE, c.IS_NULLABLE,
		       c.CHARACTER_MAXIMUM_LENGTH, c.NUMERIC_PRECISION, c.NUMERIC_SCALE,
		       c.COLUMN_DEFAULT, COLUMNPROPERTY(OBJECT_ID(c.TABLE_SCHEMA + '.' + c.TABLE_NAME), c.COLUMN_NAME, 'IsIdentity')
		FROM INFORMATION_SCHEMA.COLUMNS c
		WHERE c.TABLE_SCHEMA = @p1
		ORDER BY c.TABLE_NAME, c.ORDINAL_POSITION`, schemaName)
	if err != nil {
		return fmt.Errorf("querying columns: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tableName, columnName, dataType, isNullable string
		var maxLength, precision, scale sql.NullInt64
		var def sql.NullString
		var isIdentity sql.NullInt64
		if err := rows.Scan(&tableName, &columnName, &dataType, &isNullable, &maxLength, &precision, &scale, &def, &isIdentity); err != nil {
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
			Identity: isIdentity.Valid && isIdentity.Int64 == 1,
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
		SELECT tc.CONSTRAINT_NAME, tc.CONSTRAINT_TYPE, tc.TABLE_NAME,
		       kcu.COLUMN_NAME, kcu.REFERENCED_TABLE_NAME, kcu.REFERENCED_COLUMN_NAME,
		       rc.UPDATE_RULE, rc.DELETE_RULE,
		       cc.CHECK_CLAUSE
		FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS tc
		LEFT JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE kcu
		  ON kcu.CONSTRAINT_NAME = tc.CONSTRAINT_NAME AND kcu.TABLE_SCHEMA = tc.TABLE_SCHEMA
		LEFT JOIN INFORMATION_SCHEMA.REFERENTIAL_CONSTRAINTS rc
		  ON rc.CONSTRAINT_NAME = tc.CONSTRAINT_NAME AND rc.CONSTRAINT_SCHEMA = tc.TABLE_SCHEMA
		LEFT JOIN INFORMATION_SCHEMA.CHECK_CONSTRAINTS cc
		  ON cc.CONSTRAINT_NAME = tc.CONSTRAINT_NAME AND cc.CONSTRAINT_SCHEMA = tc.TABLE_SCHEMA
		WHERE tc.TABLE_SCHEMA = @p1
		ORDER BY tc.CONSTRAINT_NAME`, schemaName)
	if err != nil {
		return fmt.Errorf("querying constraints: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name, kind, tableName string
		var column, refTable, refColumn, onUpdate, onDelete, checkClause sql.NullString
		if err := rows.Scan(&name, &kind, &tableName, &column, &refTable, &refColumn, &onUpdate, &onDelete, &checkClause); err != nil {
			return fmt.Errorf("scanning constraint row: %w", err)
		}

		t := s.GetTable(tableName)
		if t == nil {
			continue
		}
		c := t.Constraints[name]
		if c == nil {
			c = &schema.Constraint{Name: name, Table: tableName, Schema: schemaName, Kind: constraintKind(kind)}
			if checkClause.Valid {
				c.CheckExpression = checkClause.String
			}
			t.AddConstraint(c)
		}
		if column.Valid {
			c.Columns = append(c.Columns, column.String)
		}
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

func constraintKind(sqlServerType string) schema.ConstraintKind {
	switch sqlServerType {
	case "PRIMARY KEY":
		return schema.PrimaryKeyConstraint
	case "UNIQUE":
		return schema.UniqueConstraint
	case "FOREIGN KEY":
		return schema.ForeignKeyConstraint
	case "CHECK":
		return schema.CheckConstraint
	default:
		return schema.ConstraintKind(sqlServerType)
	}
}

func loadIndexes(ctx context.Context, conn db.DB, s *schema.Schema, schemaName string) error {
	rows, err := conn.QueryContext(ctx, `
		SELECT t.name, i.name, i.is_unique, i.type_desc, i.filter_definition
		FROM sys.indexes i
		JOIN sys.tables t ON t.object_id = i.object_id
		JOIN sys.schemas sc ON sc.schema_id = t.schema_id
		WHERE sc.name = @p1 AND i.is_primary_key = 0 AND i.name IS NOT NULL`, schemaName)
	if err != nil {
		return fmt.Errorf("querying indexes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tableName, indexName, typeDesc string
		var unique bool
		var filter sql.NullString
		if err := rows.Scan(&tableName, &indexName, &unique, &typeDesc, &filter); err != nil {
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
			Clustered: typeDesc == "CLUSTERED",
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
		SELECT TABLE_NAME, VIEW_DEFINITION
		FROM INFORMATION_SCHEMA.VIEWS
		WHERE TABLE_SCHEMA = @p1`, schemaName)
	if err != nil {
		return fmt.Errorf("querying views: %w", err)
	}
	defer rows.Close()

	if s.Views == nil {
		s.Views = make(map[string]*schema.View)
	}
	for rows.Next() {
		var name string
		var def sql.NullString
		if err := rows.Scan(&name, &def); err != nil {
			return fmt.Errorf("scanning view row: %w", err)
		}
		s.Views[name] = &schema.View{Name: name, Schema: schemaName, Definition: def.String}
	}
	return rows.Err()
}

func loadRoutines(ctx context.Context, conn db.DB, s *schema.Schema, schemaName string) error {
	rows, err := conn.QueryContext(ctx, `
		SELECT ROUTINE_NAME, ROUTINE_TYPE, ROUTINE_DEFINITION
		FROM INFORMATION_SCHEMA.ROUTINES
		WHERE ROUTINE_SCHEMA = @p1`, schemaName)
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
