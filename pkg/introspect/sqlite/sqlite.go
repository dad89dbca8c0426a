// SPDX-License-Identifier: Apache-2.0

// Package sqlite introspects a SQLite database via sqlite_master and the
// table_info/foreign_key_list/index_list/index_info pragmas. SQLite
// serializes all access to a single file, so unlike the other dialects
// this introspector queries sequentially rather than concurrently.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/xataio/driftplan/pkg/db"
	"github.com/xataio/driftplan/pkg/dialect"
	"github.com/xataio/driftplan/pkg/introspect"
	"github.com/xataio/driftplan/pkg/schema"
)

func init() {
	introspect.Register(dialect.SQLite, introspector{})
}

type introspector struct{}

func (introspector) Introspect(ctx context.Context, conn db.DB, schemaName string) (*schema.Schema, error) {
	s := schema.New(schemaName)

	tableNames, err := loadTableNames(ctx, conn)
	if err != nil {
		return nil, fmt.Errorf("introspect: sqlite: %w", err)
	}

	for _, name := range tableNames {
		t := &schema.Table{Name: name, Schema: schemaName, Columns: make(map[string]*schema.Column)}
		s.AddTable(t)

		if err := loadColumns(ctx, conn, t); err != nil {
			return nil, fmt.Errorf("introspect: sqlite: table %s: %w", name, err)
		}
		if err := loadForeignKeys(ctx, conn, t); err != nil {
			return nil, fmt.Errorf("introspect: sqlite: table %s: %w", name, err)
		}
		if err := loadIndexes(ctx, conn, t); err != nil {
			return nil, fmt.Errorf("introspect: sqlite: table %s: %w", name, err)
		}
	}

	if err := loadViews(ctx, conn, s); err != nil {
		return nil, fmt.Errorf("introspect: sqlite: %w", err)
	}
	return s, nil
}

func loadTableNames(ctx context.Context, conn db.DB) ([]string, error) {
	rows, err := conn.QueryContext(ctx, `
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("querying tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning table row: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func loadColumns(ctx context.Context, conn db.DB, t *schema.Table) error {
	rows, err := conn.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%q)`, t.Name))
	if err != nil {
		return fmt.Errorf("querying table_info: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name, declType string
		var notNull, pk int
		var def sql.NullString
		if err := rows.Scan(&cid, &name, &declType, &notNull, &def, &pk); err != nil {
			return fmt.Errorf("scanning table_info row: %w", err)
		}
		col := &schema.Column{
			Name:       name,
			DataType:   declType,
			Nullable:   notNull == 0,
			PrimaryKey: pk > 0,
			// SQLite treats an `INTEGER PRIMARY KEY` column as the table's
			// rowid alias, which auto-increments without AUTOINCREMENT.
			Identity: pk > 0 && strings.EqualFold(declType, "INTEGER"),
		}
		if def.Valid {
			col.Default = &def.String
		}
		t.Columns[name] = col
	}
	return rows.Err()
}

func loadForeignKeys(ctx context.Context, conn db.DB, t *schema.Table) error {
	rows, err := conn.QueryContext(ctx, fmt.Sprintf(`PRAGMA foreign_key_list(%q)`, t.Name))
	if err != nil {
		return fmt.Errorf("querying foreign_key_list: %w", err)
	}
	defer rows.Close()

	fks := make(map[int]*schema.Constraint)
	var ids []int
	for rows.Next() {
		var id, seq int
		var refTable, from, to, onUpdate, onDelete, match string
		if err := rows.Scan(&id, &seq, &refTable, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return fmt.Errorf("scanning foreign_key_list row: %w", err)
		}
		c, ok := fks[id]
		if !ok {
			c = &schema.Constraint{
				Name:             fmt.Sprintf("FK_%s_%d", t.Name, id),
				Table:            t.Name,
				Schema:           t.Schema,
				Kind:             schema.ForeignKeyConstraint,
				ReferencedTable:  refTable,
				ReferencedSchema: t.Schema,
				OnUpdate:         onUpdate,
				OnDelete:         onDelete,
			}
			fks[id] = c
			ids = append(ids, id)
		}
		c.Columns = append(c.Columns, from)
		c.ReferencedColumns = append(c.ReferencedColumns, to)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for _, id := range ids {
		t.AddConstraint(fks[id])
	}
	return nil
}

func loadIndexes(ctx context.Context, conn db.DB, t *schema.Table) error {
	rows, err := conn.QueryContext(ctx, fmt.Sprintf(`PRAGMA index_list(%q)`, t.Name))
	if err != nil {
		return fmt.Errorf("querying index_list: %w", err)
	}
	defer rows.Close()

	type indexRow struct {
		name, origin string
		unique       bool
	}
	var indexes []indexRow
	for rows.Next() {
		var seq int
		var name, origin string
		var unique, partial int
		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			return fmt.Errorf("scanning index_list row: %w", err)
		}
		indexes = append(indexes, indexRow{name: name, origin: origin, unique: unique == 1})
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, idx := range indexes {
		if idx.origin == "u" {
			// "u" origin indexes implement a UNIQUE column or table
			// constraint; surface them as a constraint rather than a
			// standalone index.
			columns, err := loadIndexColumns(ctx, conn, idx.name)
			if err != nil {
				return fmt.Errorf("loading columns for unique index %s: %w", idx.name, err)
			}
			t.AddConstraint(&schema.Constraint{
				Name:    idx.name,
				Table:   t.Name,
				Schema:  t.Schema,
				Kind:    schema.UniqueConstraint,
				Columns: columns,
			})
			continue
		}
		// "pk" origin indexes back the table's PRIMARY KEY and are
		// already represented by the PrimaryKey column flag; only track
		// indexes created by a standalone CREATE INDEX ("c").
		if idx.origin != "c" {
			continue
		}
		t.AddIndex(&schema.Index{Name: idx.name, Table: t.Name, Schema: t.Schema, Unique: idx.unique})
	}
	return nil
}

func loadIndexColumns(ctx context.Context, conn db.DB, indexName string) ([]string, error) {
	rows, err := conn.QueryContext(ctx, fmt.Sprintf(`PRAGMA index_info(%q)`, indexName))
	if err != nil {
		return nil, fmt.Errorf("querying index_info: %w", err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var seqno, cid int
		var name sql.NullString
		if err := rows.Scan(&seqno, &cid, &name); err != nil {
			return nil, fmt.Errorf("scanning index_info row: %w", err)
		}
		if name.Valid {
			columns = append(columns, name.String)
		}
	}
	return columns, rows.Err()
}

func loadViews(ctx context.Context, conn db.DB, s *schema.Schema) error {
	rows, err := conn.QueryContext(ctx, `
		SELECT name, sql FROM sqlite_master WHERE type = 'view' ORDER BY name`)
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
		s.Views[name] = &schema.View{Name: name, Schema: s.Name, Definition: def.String}
	}
	return rows.Err()
}
