package mapping

import (
	"fmt"
	"sort"
)

// FieldMapping binds one local field to the JSON keypath it is read from.
type FieldMapping struct {
	Field   string
	KeyPath string

	path keyPath
}

// MappingSpec is the static, per-type declaration of how JSON documents map
// onto local fields: a keypath -> field table, default values for fields that
// arrive as JSON null, and optional per-field transformers.
//
// A MappingSpec is built once at startup and is read-only afterwards.
type MappingSpec struct {
	fields       []FieldMapping
	defaults     map[string]any
	transformers map[string]*ValueTransformer
	err          error
}

// NewMappingSpec compiles table, a JSON keypath -> field name map. Fields are
// kept in field-name order so mapping is deterministic. Compilation errors are
// reported by Validate.
func NewMappingSpec(table map[string]string) *MappingSpec {
	spec := &MappingSpec{
		fields:       make([]FieldMapping, 0, len(table)),
		defaults:     make(map[string]any),
		transformers: make(map[string]*ValueTransformer),
	}

	seen := make(map[string]string, len(table))
	for rawPath, field := range table {
		path, ok := compileKeyPath(rawPath)
		if !ok || field == "" {
			spec.err = fmt.Errorf("%w: keypath %q -> field %q", ErrInvalidMapping, rawPath, field)
			continue
		}
		if other, dup := seen[field]; dup {
			spec.err = fmt.Errorf("%w: field %q mapped from both %q and %q", ErrInvalidMapping, field, other, rawPath)
			continue
		}
		seen[field] = rawPath
		spec.fields = append(spec.fields, FieldMapping{Field: field, KeyPath: rawPath, path: path})
	}

	sort.Slice(spec.fields, func(i, j int) bool {
		return spec.fields[i].Field < spec.fields[j].Field
	})
	return spec
}

// WithDefault declares the value substituted when field arrives as JSON null.
func (m *MappingSpec) WithDefault(field string, value any) *MappingSpec {
	m.defaults[field] = value
	return m
}

// WithTransformer declares the transformer applied to non-null values of field.
func (m *MappingSpec) WithTransformer(field string, t *ValueTransformer) *MappingSpec {
	m.transformers[field] = t
	return m
}

// Validate reports table compilation errors and defaults or transformers
// declared for unmapped fields.
func (m *MappingSpec) Validate() error {
	if m.err != nil {
		return m.err
	}
	for field := range m.defaults {
		if !m.hasField(field) {
			return fmt.Errorf("%w: default declared for unmapped field %q", ErrInvalidMapping, field)
		}
	}
	for field, t := range m.transformers {
		if !m.hasField(field) {
			return fmt.Errorf("%w: transformer declared for unmapped field %q", ErrInvalidMapping, field)
		}
		if t == nil {
			return fmt.Errorf("%w: nil transformer for field %q", ErrInvalidMapping, field)
		}
	}
	return nil
}

// Fields returns the compiled field mappings in field-name order.
func (m *MappingSpec) Fields() []FieldMapping {
	return m.fields
}

// Default returns the declared default of field.
func (m *MappingSpec) Default(field string) (any, bool) {
	v, ok := m.defaults[field]
	return v, ok
}

// Transformer returns the transformer declared for field, or nil.
func (m *MappingSpec) Transformer(field string) *ValueTransformer {
	return m.transformers[field]
}

// Table returns the keypath -> field table, for diagnostics.
func (m *MappingSpec) Table() map[string]string {
	table := make(map[string]string, len(m.fields))
	for _, f := range m.fields {
		table[f.KeyPath] = f.Field
	}
	return table
}

// KeyPathOf returns the keypath field is read from.
func (m *MappingSpec) KeyPathOf(field string) (string, bool) {
	for _, f := range m.fields {
		if f.Field == field {
			return f.KeyPath, true
		}
	}
	return "", false
}

func (m *MappingSpec) hasField(field string) bool {
	_, ok := m.KeyPathOf(field)
	return ok
}
