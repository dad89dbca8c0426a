// SPDX-License-Identifier: Apache-2.0

// Package discovery defines the contract for source-repo discovery of
// annotated entity types: "discover(path, marker) → [Entity]". The real
// discoverers for C#, Java, TypeScript, etc. live outside this module
// entirely; this package defines the Discoverer contract they implement and
// ships one concrete discoverer — for entities pre-declared as JSON or YAML
// files — useful both in tests and for repositories that hand-author their
// entity model rather than deriving it from annotated source.
package discovery

import (
	"context"
	"fmt"

	"github.com/xataio/driftplan/pkg/entity"
)

// Discoverer is the external entity-discovery contract:
// "discover(sourcePaths, trackAttribute) → [DiscoveredEntity]". trackAttribute
// is the marker (an attribute, annotation, or decorator name) a language
// discoverer uses to decide which types are entities; Discoverer
// implementations that do not parse annotated source may ignore it.
type Discoverer interface {
	Discover(ctx context.Context, sourcePaths []string, trackAttribute string) ([]entity.DiscoveredEntity, error)
}

// NoEntitiesError is returned when a Discoverer finds zero entities. This is
// fatal unless the caller's config has IgnoreExportAttribute set, in which
// case it is a warning instead.
type NoEntitiesError struct {
	SourcePaths    []string
	TrackAttribute string
}

func (e NoEntitiesError) Error() string {
	return fmt.Sprintf("discovery: no entities found under %v matching attribute %q", e.SourcePaths, e.TrackAttribute)
}

// ExitCode implements the pipeline's error-to-exit-code contract.
func (e NoEntitiesError) ExitCode() int { return 5 }
