// SPDX-License-Identifier: Apache-2.0

package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xataio/driftplan/pkg/schema"
)

func TestAddGetTable(t *testing.T) {
	s := schema.New("public")
	tbl := &schema.Table{Name: "users", Schema: "public", Columns: map[string]*schema.Column{
		"id": {Name: "id", DataType: "SERIAL", PrimaryKey: true},
	}}
	s.AddTable(tbl)

	assert.Same(t, tbl, s.GetTable("users"))
	assert.Nil(t, s.GetTable("missing"))
}

func TestSortedNamesAreDeterministic(t *testing.T) {
	s := schema.New("public")
	s.AddTable(&schema.Table{Name: "zeta"})
	s.AddTable(&schema.Table{Name: "alpha"})
	s.AddTable(&schema.Table{Name: "mid"})

	assert.Equal(t, []string{"alpha", "mid", "zeta"}, s.SortedTableNames())
}

func TestTableSortedColumnConstraintIndexNames(t *testing.T) {
	tbl := &schema.Table{
		Name: "orders",
		Columns: map[string]*schema.Column{
			"total": {Name: "total"},
			"id":    {Name: "id"},
		},
	}
	tbl.AddConstraint(&schema.Constraint{Name: "PK_orders", Kind: schema.PrimaryKeyConstraint})
	tbl.AddConstraint(&schema.Constraint{Name: "CK_orders_total", Kind: schema.CheckConstraint})
	tbl.AddIndex(&schema.Index{Name: "IX_orders_total"})

	assert.Equal(t, []string{"id", "total"}, tbl.SortedColumnNames())
	assert.Equal(t, []string{"CK_orders_total", "PK_orders"}, tbl.SortedConstraintNames())
	assert.Equal(t, []string{"IX_orders_total"}, tbl.SortedIndexNames())
}
