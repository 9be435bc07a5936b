package store

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/go-record-sync/models"
)

// Predicate filters records in Query. Any squirrel expression over the records
// table columns is accepted; the helpers below cover the common cases.
type Predicate = sq.Sqlizer

// ServerIDEq matches the record with the given server id.
func ServerIDEq(serverID string) Predicate {
	return sq.Eq{"server_id": serverID}
}

// ServerIDIn matches records whose server id is one of ids. An empty ids
// matches nothing.
func ServerIDIn(ids ...string) Predicate {
	return sq.Eq{"server_id": ids}
}

// LocalIDIn matches records whose local id is one of ids.
func LocalIDIn(ids ...string) Predicate {
	return sq.Eq{"local_id": ids}
}

// HasServerID matches records already acknowledged by the server.
func HasServerID() Predicate {
	return sq.NotEq{"server_id": nil}
}

// SyncStatusIn matches records in one of statuses.
func SyncStatusIn(statuses ...models.SyncStatus) Predicate {
	values := make([]string, 0, len(statuses))
	for _, s := range statuses {
		values = append(values, string(s))
	}
	return sq.Eq{"sync_status": values}
}

// NotDeleted matches records without a tombstone.
func NotDeleted() Predicate {
	return sq.Eq{"deleted_at": 0}
}

// Deleted matches tombstoned records.
func Deleted() Predicate {
	return sq.NotEq{"deleted_at": 0}
}

// FieldEq matches records whose type-specific field equals value. Supported
// values are strings, booleans, integers, floats, times and Refs.
func FieldEq(field string, value any) Predicate {
	path := `$."` + strings.ReplaceAll(field, `"`, `\"`) + `"`

	switch v := value.(type) {
	case string:
		return sq.Expr("json_extract(fields, ?) = ?", path+".s", v)
	case bool:
		return sq.Expr("json_extract(fields, ?) = ?", path+".b", v)
	case int:
		return sq.Expr("json_extract(fields, ?) = ?", path+".i", int64(v))
	case int64:
		return sq.Expr("json_extract(fields, ?) = ?", path+".i", v)
	case float64:
		return sq.Expr("json_extract(fields, ?) = ?", path+".f", v)
	case time.Time:
		return sq.Expr("json_extract(fields, ?) = ?", path+".t", v.UTC().Format(time.RFC3339Nano))
	case models.Ref:
		return sq.And{
			sq.Expr("json_extract(fields, ?) = ?", path+".r.type", v.Type),
			sq.Expr("json_extract(fields, ?) = ?", path+".r.localId", v.LocalID),
		}
	}
	return errPredicate{err: fmt.Errorf("%w: cannot filter field %s by %T", ErrBuildingSQLQuery, strconv.Quote(field), value)}
}

// And joins preds, skipping nil ones.
func And(preds ...Predicate) Predicate {
	out := make(sq.And, 0, len(preds))
	for _, p := range preds {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

type errPredicate struct {
	err error
}

func (p errPredicate) ToSql() (string, []any, error) {
	return "", nil, p.err
}
