package schema

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/MKhiriev/go-record-sync/internal/mapping"
	"github.com/MKhiriev/go-record-sync/internal/store"
	"github.com/MKhiriev/go-record-sync/models"
)

const (
	defaultPageParam     = "page"
	defaultPageSizeParam = "per_page"
)

// Definition is the data-driven declaration of a record type. It implements
// every capability of this package.
type Definition struct {
	// Name is the record type name.
	Name string

	// ServerIDKey is the candidate field holding the server id. Empty means
	// the type declares none.
	ServerIDKey string

	// Path is the collection path, e.g. "/api/notes". Items live under
	// Path + "/" + serverId.
	Path string

	// ItemsKey is the keypath of the item array in enveloped list responses.
	ItemsKey string

	// PageParam and PageSizeParam name the pagination query parameters.
	PageParam     string
	PageSizeParam string

	// PageSize is sent as PageSizeParam when positive.
	PageSize int

	// UpdateMethod is used to push changes of acknowledged records.
	// Defaults to PUT.
	UpdateMethod models.HTTPMethod

	// Params are sent with every fetch request.
	Params map[string]any

	// Scope narrows the orphan pruning set. nil means every record of the
	// type.
	Scope store.Predicate

	// DependsOn names the types fetched completely before this one.
	DependsOn []string

	// Spec is the mapping table. nil means the type cannot be reconciled.
	Spec *mapping.MappingSpec
}

var (
	_ Fetchable = (*Definition)(nil)
	_ Pageable  = (*Definition)(nil)
	_ Dependent = (*Definition)(nil)
	_ Syncable  = (*Definition)(nil)
)

func (d *Definition) TypeName() string {
	return d.Name
}

func (d *Definition) ServerIDField() string {
	return d.ServerIDKey
}

func (d *Definition) Mapping() *mapping.MappingSpec {
	return d.Spec
}

func (d *Definition) FetchRequest() models.Request {
	params := make(map[string]any, len(d.Params)+1)
	for k, v := range d.Params {
		params[k] = v
	}
	if d.PageSize > 0 {
		params[d.pageSizeParam()] = d.PageSize
	}

	return models.Request{
		Path:   d.Path,
		Method: models.MethodGet,
		Params: params,
	}
}

func (d *Definition) FetchScope() store.Predicate {
	return d.Scope
}

func (d *Definition) ItemsKeyPath() string {
	return d.ItemsKey
}

func (d *Definition) Dependencies() []string {
	return d.DependsOn
}

func (d *Definition) PageInfo(resp models.Response, params map[string]any, pageIndex int) models.PageInfo {
	return parsePageInfo(resp, params, pageIndex, d.pageParam())
}

func (d *Definition) SyncRequest(rec *models.Record, body map[string]any) (models.Request, bool) {
	switch {
	case rec.IsDeleted() && rec.ServerID == "":
		return models.Request{}, false
	case rec.IsDeleted():
		return models.Request{Path: d.itemPath(rec.ServerID), Method: models.MethodDelete}, true
	case rec.ServerID == "":
		return models.Request{Path: d.Path, Method: models.MethodPost, Params: body}, true
	}

	method := d.UpdateMethod
	if method == "" {
		method = models.MethodPut
	}
	return models.Request{Path: d.itemPath(rec.ServerID), Method: method, Params: body}, true
}

func (d *Definition) itemPath(serverID string) string {
	return strings.TrimRight(d.Path, "/") + "/" + url.PathEscape(serverID)
}

func (d *Definition) pageParam() string {
	if d.PageParam == "" {
		return defaultPageParam
	}
	return d.PageParam
}

func (d *Definition) pageSizeParam() string {
	if d.PageSizeParam == "" {
		return defaultPageSizeParam
	}
	return d.PageSizeParam
}

// validate checks the static parts of the definition.
func (d *Definition) validate() error {
	if d.Name == "" {
		return errorf("type name is empty")
	}
	if d.Path != "" && !strings.HasPrefix(d.Path, "/") {
		return errorf("%s: path %q must start with /", d.Name, d.Path)
	}
	if d.UpdateMethod != "" {
		switch d.UpdateMethod {
		case http.MethodPut, http.MethodPatch, http.MethodPost:
		default:
			return errorf("%s: unsupported update method %q", d.Name, d.UpdateMethod)
		}
	}
	if d.Spec == nil {
		return nil
	}
	if err := d.Spec.Validate(); err != nil {
		return errorf("%s: %w", d.Name, err)
	}
	if d.ServerIDKey != "" {
		if _, ok := d.Spec.KeyPathOf(d.ServerIDKey); !ok {
			return errorf("%s: server id field %q is not mapped", d.Name, d.ServerIDKey)
		}
	}
	return nil
}
