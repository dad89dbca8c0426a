// SPDX-License-Identifier: Apache-2.0

// Package entity is the language-neutral description of the types discovered
// in a source repository by an external per-language parser. It knows nothing
// about SQL or any particular database dialect.
package entity

import "github.com/oapi-codegen/nullable"

// RelationshipKind is the kind of association a DiscoveredRelationship
// represents.
type RelationshipKind string

const (
	OneToOne   RelationshipKind = "OneToOne"
	OneToMany  RelationshipKind = "OneToMany"
	ManyToOne  RelationshipKind = "ManyToOne"
	ManyToMany RelationshipKind = "ManyToMany"
)

// DiscoveredEntity is one type found by a language discoverer, destined to
// become exactly one table in the target schema.
type DiscoveredEntity struct {
	Name       string `json:"name"`
	FullName   string `json:"fullName"`
	Namespace  string `json:"namespace"`
	TableName  string `json:"tableName"`
	SchemaName string `json:"schemaName,omitempty"`

	SourceFile string `json:"sourceFile"`
	SourceLine int    `json:"sourceLine"`

	Properties    []DiscoveredProperty    `json:"properties"`
	Relationships []DiscoveredRelationship `json:"relationships"`
	Indexes       []DiscoveredIndex        `json:"indexes"`

	Attributes map[string]any `json:"attributes,omitempty"`
}

// DiscoveredProperty is one field on a DiscoveredEntity, destined to become a
// column (or, when PrimaryKey and part of a multi-column group, part of a
// composite primary key).
type DiscoveredProperty struct {
	Name         string `json:"name"`
	AbstractType string `json:"abstractType"`
	SQLType      string `json:"sqlType,omitempty"`

	Nullable   bool `json:"nullable"`
	PrimaryKey bool `json:"primaryKey"`
	ForeignKey bool `json:"foreignKey"`
	Unique     bool `json:"unique"`
	Indexed    bool `json:"indexed"`

	MaxLength *int `json:"maxLength,omitempty"`
	Precision *int `json:"precision,omitempty"`
	Scale     *int `json:"scale,omitempty"`

	DefaultValue nullable.Nullable[string] `json:"defaultValue,omitempty"`

	Attributes map[string]any `json:"attributes,omitempty"`
}

// ColumnName returns the SQL column name for a property: the
// "column_name" attribute override if present, otherwise the property name.
func (p DiscoveredProperty) ColumnName() string {
	if p.Attributes != nil {
		if v, ok := p.Attributes["column_name"]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return p.Name
}

// CheckExpression returns the "check_constraint" attribute, if any.
func (p DiscoveredProperty) CheckExpression() (string, bool) {
	if p.Attributes == nil {
		return "", false
	}
	v, ok := p.Attributes["check_constraint"]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok && s != ""
}

// DiscoveredRelationship is an association between two entities.
type DiscoveredRelationship struct {
	Name              string           `json:"name"`
	Kind              RelationshipKind `json:"kind"`
	ReferencedEntity  string           `json:"referencedEntity"`
	ReferencedTable   string           `json:"referencedTable,omitempty"`
	FKColumns         []string         `json:"fkColumns"`
	ReferencedColumns []string         `json:"referencedColumns,omitempty"`
	OnDelete          string           `json:"onDelete,omitempty"`
	OnUpdate          string           `json:"onUpdate,omitempty"`
}

// DiscoveredIndex is an index declared directly on an entity (as opposed to
// one implied by a unique or foreign-key property).
type DiscoveredIndex struct {
	Name      string         `json:"name"`
	Columns   []string       `json:"columns"`
	Unique    bool           `json:"unique"`
	Clustered bool           `json:"clustered"`
	Filter    string         `json:"filter,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// SyntheticIDColumn is the name used for the synthetic identity primary key
// inserted by Normalize when an entity declares no primary key property.
const SyntheticIDColumn = "Id"

// Normalize fills in defaults and repairs ambiguity that downstream stages
// assume has already been resolved:
//   - TableName defaults to Name.
//   - A synthetic identity primary key is inserted when no property is
//     marked PrimaryKey.
//
// It does not validate; see pkg/synth for structural validation (duplicate
// columns, reserved words, etc.) which requires dialect knowledge.
func Normalize(entities []DiscoveredEntity) []DiscoveredEntity {
	out := make([]DiscoveredEntity, len(entities))
	for i, e := range entities {
		if e.TableName == "" {
			e.TableName = e.Name
		}
		if !hasPrimaryKey(e.Properties) {
			synthetic := DiscoveredProperty{
				Name:         SyntheticIDColumn,
				AbstractType: "int64",
				Nullable:     false,
				PrimaryKey:   true,
			}
			e.Properties = append([]DiscoveredProperty{synthetic}, e.Properties...)
		}
		out[i] = e
	}
	return out
}

func hasPrimaryKey(props []DiscoveredProperty) bool {
	for _, p := range props {
		if p.PrimaryKey {
			return true
		}
	}
	return false
}

// PrimaryKeyColumns returns the column names (in declaration order) of the
// properties marked as the primary key.
func (e DiscoveredEntity) PrimaryKeyColumns() []string {
	var cols []string
	for _, p := range e.Properties {
		if p.PrimaryKey {
			cols = append(cols, p.ColumnName())
		}
	}
	return cols
}
