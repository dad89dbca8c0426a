// SPDX-License-Identifier: Apache-2.0

package entity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xataio/driftplan/pkg/entity"
)

func TestNormalizeDefaultsTableName(t *testing.T) {
	entities := entity.Normalize([]entity.DiscoveredEntity{
		{
			Name: "User",
			Properties: []entity.DiscoveredProperty{
				{Name: "Id", AbstractType: "int64", PrimaryKey: true},
			},
		},
	})
	require.Len(t, entities, 1)
	assert.Equal(t, "User", entities[0].TableName)
}

func TestNormalizeInsertsSyntheticPrimaryKey(t *testing.T) {
	entities := entity.Normalize([]entity.DiscoveredEntity{
		{
			Name: "Order",
			Properties: []entity.DiscoveredProperty{
				{Name: "Total", AbstractType: "decimal"},
			},
		},
	})
	require.Len(t, entities, 1)
	require.Len(t, entities[0].Properties, 2)
	assert.Equal(t, entity.SyntheticIDColumn, entities[0].Properties[0].Name)
	assert.True(t, entities[0].Properties[0].PrimaryKey)
	assert.Equal(t, []string{"Id"}, entities[0].PrimaryKeyColumns())
}

func TestNormalizeKeepsExistingPrimaryKey(t *testing.T) {
	entities := entity.Normalize([]entity.DiscoveredEntity{
		{
			Name: "Order",
			Properties: []entity.DiscoveredProperty{
				{Name: "OrderId", AbstractType: "guid", PrimaryKey: true},
				{Name: "Total", AbstractType: "decimal"},
			},
		},
	})
	require.Len(t, entities[0].Properties, 2)
	assert.Equal(t, []string{"OrderId"}, entities[0].PrimaryKeyColumns())
}

func TestValidateRejectsEmptyNameAndNoProperties(t *testing.T) {
	errs := entity.Validate([]entity.DiscoveredEntity{
		{Name: "", SourceFile: "a.go", SourceLine: 3},
		{Name: "Empty"},
	})
	require.Len(t, errs, 2)
	assert.IsType(t, entity.EmptyNameError{}, errs[0])
	assert.IsType(t, entity.NoPropertiesError{}, errs[1])
}

func TestColumnNameOverride(t *testing.T) {
	p := entity.DiscoveredProperty{
		Name:       "CreatedAt",
		Attributes: map[string]any{"column_name": "created_at"},
	}
	assert.Equal(t, "created_at", p.ColumnName())

	p2 := entity.DiscoveredProperty{Name: "CreatedAt"}
	assert.Equal(t, "CreatedAt", p2.ColumnName())
}
