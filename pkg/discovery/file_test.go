// SPDX-License-Identifier: Apache-2.0

package discovery_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xataio/driftplan/pkg/discovery"
)

func TestFileDiscovererReadsSingleEntityJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "user.entity.json"), `{
		"name": "User",
		"properties": [
			{"name": "Id", "abstractType": "int64", "primaryKey": true},
			{"name": "Email", "abstractType": "string", "unique": true}
		]
	}`)

	d := discovery.FileDiscoverer{}
	entities, err := d.Discover(context.Background(), []string{dir}, "TrackedEntity")
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, "User", entities[0].Name)
	assert.Len(t, entities[0].Properties, 2)
}

func TestFileDiscovererReadsEntitiesListYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "catalog.entity.yaml"), `
entities:
  - name: Product
    properties:
      - name: Id
        abstractType: int64
        primaryKey: true
  - name: Category
    properties:
      - name: Id
        abstractType: int64
        primaryKey: true
`)

	d := discovery.FileDiscoverer{}
	entities, err := d.Discover(context.Background(), []string{dir}, "")
	require.NoError(t, err)
	require.Len(t, entities, 2)
	assert.Equal(t, "Product", entities[0].Name)
	assert.Equal(t, "Category", entities[1].Name)
	for _, e := range entities {
		assert.Equal(t, filepath.Join(dir, "catalog.entity.yaml"), e.SourceFile)
	}
}

func TestFileDiscovererIgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "readme.md"), "not an entity")
	writeFile(t, filepath.Join(dir, "widget.entity.json"), `{
		"name": "Widget",
		"properties": [{"name": "Id", "abstractType": "int64", "primaryKey": true}]
	}`)

	d := discovery.FileDiscoverer{}
	entities, err := d.Discover(context.Background(), []string{dir}, "")
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, "Widget", entities[0].Name)
}

func TestFileDiscovererFailsFatallyOnZeroEntities(t *testing.T) {
	dir := t.TempDir()
	d := discovery.FileDiscoverer{}
	_, err := d.Discover(context.Background(), []string{dir}, "TrackedEntity")
	require.Error(t, err)

	var noEntities discovery.NoEntitiesError
	require.ErrorAs(t, err, &noEntities)
	assert.Equal(t, 5, noEntities.ExitCode())
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
}
