package reconcile

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-record-sync/internal/logger"
	"github.com/MKhiriev/go-record-sync/internal/mapping"
	"github.com/MKhiriev/go-record-sync/internal/schema"
	"github.com/MKhiriev/go-record-sync/internal/store"
	"github.com/MKhiriev/go-record-sync/models"
)

// SerializeOptions tune how a payload is reconciled.
type SerializeOptions struct {
	// Hook post-processes the candidate set of every top-level item.
	Hook mapping.FieldsHook

	// Existing binds top-level items to local records, see ExistingResolver.
	Existing ExistingResolver
}

// Serializer maps and reconciles JSON payloads into the store.
type Serializer struct {
	records    store.RecordRepository
	registry   *schema.Registry
	reconciler *Reconciler
	logger     *logger.Logger
}

// NewSerializer builds a Serializer over records for the types of registry.
func NewSerializer(records store.RecordRepository, registry *schema.Registry, reconciler *Reconciler, logger *logger.Logger) *Serializer {
	return &Serializer{
		records:    records,
		registry:   registry,
		reconciler: reconciler,
		logger:     logger,
	}
}

// Serialize reconciles payload, a JSON array of objects or a single object,
// as records of typeName in one write transaction. req is the request the
// payload answered; its method selects read or write semantics.
//
// Item failures are collected in the result and never abort sibling items.
// A transaction the store refuses is reported as ErrPersistenceFailure.
func (s *Serializer) Serialize(ctx context.Context, typeName string, payload any, req models.Request, opts SerializeOptions) models.SerializeResult {
	log := logger.FromContext(ctx)

	var result models.SerializeResult
	err := s.records.Write(ctx, func(tx store.Txn) error {
		result = s.SerializeTxn(ctx, tx, typeName, payload, req, opts)
		return nil
	})
	if err != nil {
		log.Err(err).
			Str("func", "Serializer.Serialize").
			Str("type", typeName).
			Msg("failed to persist payload")
		return models.SerializeResult{
			ItemErrors: result.ItemErrors,
			Err:        fmt.Errorf("%w: %w", ErrPersistenceFailure, err),
		}
	}

	return result
}

// SerializeTxn is Serialize inside a transaction owned by the caller.
func (s *Serializer) SerializeTxn(ctx context.Context, tx store.Txn, typeName string, payload any, req models.Request, opts SerializeOptions) models.SerializeResult {
	log := logger.FromContext(ctx)

	entity, ok := s.registry.Lookup(typeName)
	if !ok {
		return models.SerializeResult{Err: fmt.Errorf("%w: %s", schema.ErrUnknownType, typeName)}
	}

	items, err := payloadItems(payload)
	if err != nil {
		return models.SerializeResult{Err: err}
	}

	var result models.SerializeResult
	for i, item := range items {
		obj, isObject := item.(map[string]any)
		if !isObject {
			result.ItemErrors = append(result.ItemErrors, fmt.Errorf("%w: item %d of %s is %T", ErrInvalidPayload, i, typeName, item))
			continue
		}

		rec, itemErr := s.reconcileObject(ctx, tx, entity, obj, req.Method, opts)
		if itemErr != nil {
			log.Warn().
				Err(itemErr).
				Str("func", "Serializer.SerializeTxn").
				Str("type", typeName).
				Int("item", i).
				Msg("failed to reconcile item")
			result.ItemErrors = append(result.ItemErrors, itemErr)
			continue
		}

		result.Records = append(result.Records, rec)
		result.Identities = append(result.Identities, rec.Identity())
	}

	return result
}

func (s *Serializer) reconcileObject(ctx context.Context, tx store.Txn, entity schema.Mappable, obj map[string]any, method models.HTTPMethod, opts SerializeOptions) (*models.Record, error) {
	fields, err := mapping.Map(entity.Mapping(), obj, mapping.MapOptions{
		PrimaryKeys: []string{models.FieldLocalID, entity.ServerIDField()},
		Resolver:    &txResolver{serializer: s, ctx: ctx, tx: tx},
		Hook:        opts.Hook,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", entity.TypeName(), err)
	}

	return s.reconciler.Reconcile(ctx, tx, entity, fields, Options{
		Method:   method,
		Existing: opts.Existing,
		JSON:     obj,
	})
}

// txResolver resolves related records inside the transaction of the payload
// being serialized.
type txResolver struct {
	serializer *Serializer
	ctx        context.Context
	tx         store.Txn
}

func (r *txResolver) ResolveObject(typeName string, obj map[string]any) (*models.Record, error) {
	entity, ok := r.serializer.registry.Lookup(typeName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", schema.ErrUnknownType, typeName)
	}
	// Related objects are never the target of the request being answered.
	return r.serializer.reconcileObject(r.ctx, r.tx, entity, obj, models.MethodGet, SerializeOptions{})
}

func (r *txResolver) ResolveIdentifier(typeName, serverID string) (*models.Record, error) {
	entity, ok := r.serializer.registry.Lookup(typeName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", schema.ErrUnknownType, typeName)
	}

	records, err := r.tx.Query(typeName, store.ServerIDEq(serverID))
	if err != nil {
		return nil, err
	}
	if len(records) > 0 {
		return records[0], nil
	}

	values := models.Fields{
		models.FieldServerID:   serverID,
		models.FieldSyncStatus: models.SyncStatusSynced,
	}
	if field := entity.ServerIDField(); field != "" {
		values[field] = serverID
	}
	return r.tx.Create(typeName, values, false)
}

func payloadItems(payload any) ([]any, error) {
	switch p := payload.(type) {
	case nil:
		return nil, nil
	case []any:
		return p, nil
	case map[string]any:
		return []any{p}, nil
	case []map[string]any:
		items := make([]any, 0, len(p))
		for _, obj := range p {
			items = append(items, obj)
		}
		return items, nil
	}
	return nil, fmt.Errorf("%w: %T", ErrInvalidPayload, payload)
}
