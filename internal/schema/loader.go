package schema

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/MKhiriev/go-record-sync/internal/mapping"
	"github.com/MKhiriev/go-record-sync/internal/store"
	"github.com/MKhiriev/go-record-sync/models"
)

// fileSchema is the YAML layout of a schema file:
//
//	types:
//	  - name: note
//	    serverIdField: serverId
//	    path: /api/notes
//	    items: data
//	    updateMethod: PATCH
//	    pagination: {pageParam: page, pageSizeParam: per_page, pageSize: 50}
//	    scope: {archived: false}
//	    dependsOn: [user]
//	    mapping: {id: serverId, title: title, attributes.pinned: pinned}
//	    defaults: {title: untitled}
//	    transformers: {owner: "object:user"}
type fileSchema struct {
	Types []fileType `yaml:"types"`
}

type fileType struct {
	Name          string            `yaml:"name"`
	ServerIDField string            `yaml:"serverIdField"`
	Path          string            `yaml:"path"`
	Items         string            `yaml:"items"`
	UpdateMethod  string            `yaml:"updateMethod"`
	Pagination    filePagination    `yaml:"pagination"`
	Params        map[string]any    `yaml:"params"`
	Scope         map[string]any    `yaml:"scope"`
	DependsOn     []string          `yaml:"dependsOn"`
	Mapping       map[string]string `yaml:"mapping"`
	Defaults      map[string]any    `yaml:"defaults"`
	Transformers  map[string]string `yaml:"transformers"`
}

type filePagination struct {
	PageParam     string `yaml:"pageParam"`
	PageSizeParam string `yaml:"pageSizeParam"`
	PageSize      int    `yaml:"pageSize"`
}

// LoadFile reads a YAML schema file and returns a validated registry.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML schema document and returns a validated registry.
// Transformer names are resolved here so a typo fails at startup.
func Parse(data []byte) (*Registry, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc fileSchema
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDefinition, err)
	}

	registry := NewRegistry()
	for _, ft := range doc.Types {
		def, err := ft.definition()
		if err != nil {
			return nil, err
		}
		if err = registry.Register(def); err != nil {
			return nil, err
		}
	}

	if err := registry.Validate(); err != nil {
		return nil, err
	}
	return registry, nil
}

func (ft fileType) definition() (*Definition, error) {
	def := &Definition{
		Name:          ft.Name,
		ServerIDKey:   ft.ServerIDField,
		Path:          ft.Path,
		ItemsKey:      ft.Items,
		PageParam:     ft.Pagination.PageParam,
		PageSizeParam: ft.Pagination.PageSizeParam,
		PageSize:      ft.Pagination.PageSize,
		UpdateMethod:  models.HTTPMethod(ft.UpdateMethod),
		Params:        ft.Params,
		DependsOn:     ft.DependsOn,
	}

	if len(ft.Scope) > 0 {
		fields := make([]string, 0, len(ft.Scope))
		for field := range ft.Scope {
			fields = append(fields, field)
		}
		sort.Strings(fields)

		preds := make([]store.Predicate, 0, len(fields))
		for _, field := range fields {
			preds = append(preds, store.FieldEq(field, ft.Scope[field]))
		}
		def.Scope = store.And(preds...)
	}

	if ft.Mapping == nil {
		return def, nil
	}

	spec := mapping.NewMappingSpec(ft.Mapping)
	for field, value := range ft.Defaults {
		spec.WithDefault(field, value)
	}
	for field, name := range ft.Transformers {
		t, err := mapping.ParseTransformer(name)
		if err != nil {
			return nil, errorf("%s.%s: %w", ft.Name, field, err)
		}
		spec.WithTransformer(field, t)
	}
	def.Spec = spec

	return def, nil
}
