// SPDX-License-Identifier: Apache-2.0

package discovery

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"sigs.k8s.io/yaml"

	"github.com/xataio/driftplan/pkg/entity"
)

// FileDiscoverer reads entities pre-declared as `*.entity.json` or
// `*.entity.yaml`/`*.entity.yml` files under each source path, one
// DiscoveredEntity (or list of them) per file. It ignores trackAttribute:
// a file under a source path is, by definition, tracked.
//
// This is the demo discoverer named in SPEC_FULL.md's module list — a
// stand-in for the real per-language parsers, which live outside this
// module.
type FileDiscoverer struct{}

func (FileDiscoverer) Discover(_ context.Context, sourcePaths []string, trackAttribute string) ([]entity.DiscoveredEntity, error) {
	var files []string
	for _, root := range sourcePaths {
		err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if isEntityFile(path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("discovery: walking %s: %w", root, err)
		}
	}
	sort.Strings(files)

	var out []entity.DiscoveredEntity
	for _, f := range files {
		entities, err := parseEntityFile(f)
		if err != nil {
			return nil, err
		}
		out = append(out, entities...)
	}

	if len(out) == 0 {
		return nil, NoEntitiesError{SourcePaths: sourcePaths, TrackAttribute: trackAttribute}
	}
	return out, nil
}

func isEntityFile(path string) bool {
	name := strings.ToLower(filepath.Base(path))
	for _, suffix := range []string{".entity.json", ".entity.yaml", ".entity.yml"} {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// entityFile is a single source file's payload: either one entity, or a
// list of entities under "entities".
type entityFile struct {
	Entities []entity.DiscoveredEntity `json:"entities,omitempty"`
	entity.DiscoveredEntity
}

func parseEntityFile(path string) ([]entity.DiscoveredEntity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("discovery: reading %s: %w", path, err)
	}

	var f entityFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("discovery: parsing %s: %w", path, err)
	}

	if len(f.Entities) > 0 {
		for i := range f.Entities {
			if f.Entities[i].SourceFile == "" {
				f.Entities[i].SourceFile = path
			}
		}
		return f.Entities, nil
	}

	if f.DiscoveredEntity.Name == "" {
		return nil, nil
	}
	if f.DiscoveredEntity.SourceFile == "" {
		f.DiscoveredEntity.SourceFile = path
	}
	return []entity.DiscoveredEntity{f.DiscoveredEntity}, nil
}
