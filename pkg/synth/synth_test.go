// SPDX-License-Identifier: Apache-2.0

package synth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xataio/driftplan/pkg/dialect"
	"github.com/xataio/driftplan/pkg/entity"
	"github.com/xataio/driftplan/pkg/schema"
	"github.com/xataio/driftplan/pkg/synth"

	_ "github.com/xataio/driftplan/pkg/typemap/postgres"
)

func userAndOrderEntities() []entity.DiscoveredEntity {
	return entity.Normalize([]entity.DiscoveredEntity{
		{
			Name:      "User",
			TableName: "User",
			Properties: []entity.DiscoveredProperty{
				{Name: "Id", AbstractType: "int64", PrimaryKey: true},
				{Name: "Email", AbstractType: "string", Unique: true, MaxLength: intPtr(255)},
			},
		},
		{
			Name:      "Order",
			TableName: "Order",
			Properties: []entity.DiscoveredProperty{
				{Name: "Id", AbstractType: "int64", PrimaryKey: true},
				{Name: "Total", AbstractType: "decimal"},
			},
			Relationships: []entity.DiscoveredRelationship{
				{
					Name:             "Customer",
					Kind:             entity.ManyToOne,
					ReferencedEntity: "User",
					FKColumns:        []string{"CustomerId"},
				},
			},
		},
	})
}

func intPtr(i int) *int { return &i }

func TestSynthesizeCreatesTablesAndPK(t *testing.T) {
	res, err := synth.Synthesize(userAndOrderEntities(), synth.Options{Dialect: dialect.Postgres})
	require.NoError(t, err)
	require.Empty(t, res.Errors)

	userTable := res.Schema.GetTable("User")
	require.NotNil(t, userTable)
	assert.Contains(t, userTable.Constraints, "PK_User")
	assert.Contains(t, userTable.Constraints, "UQ_User_Email")
}

func TestSynthesizeGeneratesForeignKey(t *testing.T) {
	res, err := synth.Synthesize(userAndOrderEntities(), synth.Options{Dialect: dialect.Postgres, GenerateFKIndexes: true})
	require.NoError(t, err)

	orderTable := res.Schema.GetTable("Order")
	require.NotNil(t, orderTable)
	fk, ok := orderTable.Constraints["FK_Order_User_CustomerId"]
	require.True(t, ok)
	assert.Equal(t, schema.ForeignKeyConstraint, fk.Kind)
	assert.Equal(t, "User", fk.ReferencedTable)
	assert.Equal(t, []string{"Id"}, fk.ReferencedColumns)

	assert.Contains(t, orderTable.Indexes, "IX_Order_CustomerId")
}

func TestSynthesizeSkipsUnresolvableForeignKey(t *testing.T) {
	entities := entity.Normalize([]entity.DiscoveredEntity{
		{
			Name: "Order",
			Properties: []entity.DiscoveredProperty{
				{Name: "Id", AbstractType: "int64", PrimaryKey: true},
			},
			Relationships: []entity.DiscoveredRelationship{
				{Name: "Customer", Kind: entity.ManyToOne, ReferencedEntity: "Missing", FKColumns: []string{"CustomerId"}},
			},
		},
	})
	res, err := synth.Synthesize(entities, synth.Options{Dialect: dialect.Postgres})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Warnings)

	table := res.Schema.GetTable("Order")
	require.NotNil(t, table)
	assert.Len(t, table.Constraints, 1)
	assert.Contains(t, table.Constraints, "PK_Order")
}

func TestSynthesizeDuplicateColumnIsFatalForThatEntity(t *testing.T) {
	entities := entity.Normalize([]entity.DiscoveredEntity{
		{
			Name: "Bad",
			Properties: []entity.DiscoveredProperty{
				{Name: "Id", AbstractType: "int64", PrimaryKey: true},
				{Name: "id", AbstractType: "string"},
			},
		},
	})
	res, err := synth.Synthesize(entities, synth.Options{Dialect: dialect.Postgres, IgnoreExportAttribute: true})
	require.NoError(t, err)
	require.Len(t, res.Errors, 1)
	assert.Nil(t, res.Schema.GetTable("Bad"))
}

func TestSynthesizeZeroEntitiesFatalUnlessIgnored(t *testing.T) {
	_, err := synth.Synthesize(nil, synth.Options{Dialect: dialect.Postgres})
	assert.Error(t, err)

	res, err := synth.Synthesize(nil, synth.Options{Dialect: dialect.Postgres, IgnoreExportAttribute: true})
	assert.NoError(t, err)
	assert.Empty(t, res.Schema.Tables)
}

func TestSynthesizeWarnsOnReservedWord(t *testing.T) {
	entities := entity.Normalize([]entity.DiscoveredEntity{
		{
			Name: "Order",
			Properties: []entity.DiscoveredProperty{
				{Name: "Id", AbstractType: "int64", PrimaryKey: true},
				{Name: "select", AbstractType: "string"},
			},
		},
	})
	res, err := synth.Synthesize(entities, synth.Options{Dialect: dialect.Postgres})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Warnings)
}
