// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package mapping turns JSON documents into candidate field sets of local
// records and back.
//
// A [MappingSpec] declares, per record type, which JSON keypath feeds which
// local field, which default replaces a JSON null and which
// [ValueTransformer] converts the raw value. [Map] applies a spec to one JSON
// object; [Reverse] builds the outbound JSON body of a record.
package mapping

import (
	"slices"
	"time"

	"github.com/MKhiriev/go-record-sync/models"
)

// FieldsHook post-processes a candidate set. It receives the mapped fields
// and returns the set handed to reconciliation.
type FieldsHook func(fields models.Fields) models.Fields

// MapOptions tune a single Map call.
type MapOptions struct {
	// PrimaryKeys lists fields exempt from default substitution.
	PrimaryKeys []string

	// Resolver resolves nested related records for object and collection
	// transformers.
	Resolver Resolver

	// Hook replaces the candidate set after mapping, exactly once.
	Hook FieldsHook
}

// Map produces the candidate field set of obj according to spec.
//
// For every declared field the keypath is resolved against obj:
//   - absent keypath: the field is omitted;
//   - JSON null: the declared default is used unless the field is a primary
//     key, otherwise the field is omitted so an update leaves it unchanged;
//   - any other value: the field's transformer is applied when declared, a
//     nil transformer result omits the field.
//
// Map fails with [ErrNoMappingDefined] when spec is nil.
func Map(spec *MappingSpec, obj map[string]any, opts MapOptions) (models.Fields, error) {
	if spec == nil {
		return nil, ErrNoMappingDefined
	}

	fields := make(models.Fields, len(spec.fields))
	for _, fm := range spec.fields {
		raw, present := fm.path.resolve(obj)
		if !present {
			continue
		}

		if raw == nil {
			if slices.Contains(opts.PrimaryKeys, fm.Field) {
				continue
			}
			if def, ok := spec.Default(fm.Field); ok {
				fields[fm.Field] = def
			}
			continue
		}

		if t := spec.Transformer(fm.Field); t != nil {
			converted := t.Forward(opts.Resolver, raw)
			if isNil(converted) {
				continue
			}
			fields[fm.Field] = converted
			continue
		}

		fields[fm.Field] = raw
	}

	if opts.Hook != nil {
		fields = opts.Hook(fields)
		if fields == nil {
			fields = models.Fields{}
		}
	}

	return fields, nil
}

// Reverse builds the JSON document of rec according to spec. Fields without a
// value are skipped, as are fields whose transformer is one-way or fails to
// convert. Fields without a transformer are emitted as stored, with times
// formatted as RFC 3339.
func Reverse(spec *MappingSpec, rec *models.Record) (map[string]any, error) {
	if spec == nil {
		return nil, ErrNoMappingDefined
	}

	doc := make(map[string]any, len(spec.fields))
	for _, fm := range spec.fields {
		v, ok := rec.Value(fm.Field)
		if !ok {
			continue
		}

		if t := spec.Transformer(fm.Field); t != nil {
			raw, ok := t.Reverse(v)
			if !ok {
				continue
			}
			fm.path.assign(doc, raw)
			continue
		}

		switch val := v.(type) {
		case models.Ref, []models.Ref:
			continue
		case time.Time:
			fm.path.assign(doc, val.UTC().Format(time.RFC3339Nano))
		case models.SyncStatus:
			fm.path.assign(doc, string(val))
		default:
			fm.path.assign(doc, val)
		}
	}

	return doc, nil
}

func isNil(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case []models.Ref:
		return val == nil
	}
	return false
}
