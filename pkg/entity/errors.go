// SPDX-License-Identifier: Apache-2.0

package entity

import "fmt"

// EmptyNameError is returned when a DiscoveredEntity has no name.
type EmptyNameError struct {
	SourceFile string
	SourceLine int
}

func (e EmptyNameError) Error() string {
	return fmt.Sprintf("entity at %s:%d has no name", e.SourceFile, e.SourceLine)
}

// NoPropertiesError is returned when a DiscoveredEntity declares zero
// properties; such an entity cannot become a table.
type NoPropertiesError struct {
	Name string
}

func (e NoPropertiesError) Error() string {
	return fmt.Sprintf("entity %q has no properties", e.Name)
}

// Validate checks the structural invariants a DiscoveredEntity must satisfy
// before normalization-time defaults (table name, synthetic PK) are applied
// by Normalize. Callers normally call Validate on the raw discovery output,
// then Normalize.
func Validate(entities []DiscoveredEntity) []error {
	var errs []error
	for _, e := range entities {
		if e.Name == "" {
			errs = append(errs, EmptyNameError{SourceFile: e.SourceFile, SourceLine: e.SourceLine})
			continue
		}
		if len(e.Properties) == 0 {
			errs = append(errs, NoPropertiesError{Name: e.Name})
		}
	}
	return errs
}
