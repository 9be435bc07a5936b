// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package fetch lists record types from the server and mirrors them into the
// local store.
//
// [Pipeline.FetchPaged] requests the pages of one collection strictly in
// sequence, reconciles every page in its own write transaction and, once the
// last page was reached without any failure, soft-deletes the local records
// the server no longer returns.
package fetch

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/MKhiriev/go-record-sync/internal/adapter"
	"github.com/MKhiriev/go-record-sync/internal/logger"
	"github.com/MKhiriev/go-record-sync/internal/mapping"
	"github.com/MKhiriev/go-record-sync/internal/reconcile"
	"github.com/MKhiriev/go-record-sync/internal/schema"
	"github.com/MKhiriev/go-record-sync/internal/store"
	"github.com/MKhiriev/go-record-sync/internal/utils"
	"github.com/MKhiriev/go-record-sync/models"
	"github.com/google/uuid"
)

// DefaultConcurrency is the number of fetches run at once when none is
// configured.
const DefaultConcurrency = 1

// PreCheck runs before the first page of a fetch is requested. An error
// aborts the fetch.
type PreCheck func(ctx context.Context, entity schema.Fetchable) error

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithConcurrency bounds the number of fetches running at once. Values below
// 1 are ignored.
func WithConcurrency(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.limit = int64(n)
		}
	}
}

// FetchOption tunes a single fetch.
type FetchOption func(*fetchConfig)

type fetchConfig struct {
	preCheck PreCheck
	hook     mapping.FieldsHook
}

// WithPreCheck runs check before the first request, in place of fetching
// the declared dependencies of the type.
func WithPreCheck(check PreCheck) FetchOption {
	return func(c *fetchConfig) {
		c.preCheck = check
	}
}

// WithHook post-processes the candidate set of every fetched item.
func WithHook(hook mapping.FieldsHook) FetchOption {
	return func(c *fetchConfig) {
		c.hook = hook
	}
}

// Pipeline performs paginated fetches.
type Pipeline struct {
	records    store.RecordRepository
	registry   *schema.Registry
	transport  adapter.Transport
	serializer *reconcile.Serializer
	logger     *logger.Logger

	limit int64
	sem   *semaphore.Weighted
	now   func() time.Time
	wg    sync.WaitGroup
}

// NewPipeline builds a Pipeline.
func NewPipeline(records store.RecordRepository, registry *schema.Registry, transport adapter.Transport, serializer *reconcile.Serializer, logger *logger.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		records:    records,
		registry:   registry,
		transport:  transport,
		serializer: serializer,
		logger:     logger,
		limit:      DefaultConcurrency,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.sem = semaphore.NewWeighted(p.limit)
	return p
}

// FetchPaged fetches up to pageLimit pages of typeName, 0 meaning every
// page. A zero req uses the type's own fetch request.
//
// Orphan pruning runs only when pagination was exhausted and every page and
// every item was reconciled: local records of the fetch scope that are
// synced, acknowledged and not deleted when the fetch starts, and that no page
// returned, are soft-deleted in one transaction.
//
// A type declaring dependencies gets them fetched first unless a pre-check
// is passed; a dependency that fails aborts the fetch before any request.
func (p *Pipeline) FetchPaged(ctx context.Context, typeName string, req models.Request, pageLimit int, opts ...FetchOption) models.FetchPagedResult {
	ctx = p.logger.WithContext(ctx)
	if _, ok := utils.GetRequestIDFromContext(ctx); !ok {
		ctx = utils.WithRequestID(ctx, uuid.NewString())
	}

	entity, err := p.fetchable(typeName)
	if err != nil {
		return models.FetchPagedResult{Err: err}
	}

	cfg := fetchConfig{preCheck: p.dependencies(entity)}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.preCheck != nil {
		if err = cfg.preCheck(ctx, entity); err != nil {
			p.logger.Err(err).Str("func", "Pipeline.FetchPaged").Str("type", typeName).Msg("pre-check failed")
			return models.FetchPagedResult{Err: fmt.Errorf("%w: %w", ErrPreCheckFailed, err)}
		}
	}

	if err = p.sem.Acquire(ctx, 1); err != nil {
		return models.FetchPagedResult{Err: err}
	}
	defer p.sem.Release(1)

	if req.Path == "" && req.Method == "" {
		req = entity.FetchRequest()
	}
	if req.Method == "" {
		req.Method = models.MethodGet
	}

	return p.fetch(ctx, entity, req, pageLimit, cfg)
}

// FetchPagedAsync runs FetchPaged on its own goroutine and hands the result
// to cb. Wait blocks until every asynchronous fetch has returned.
func (p *Pipeline) FetchPagedAsync(ctx context.Context, typeName string, req models.Request, pageLimit int, cb func(models.FetchPagedResult), opts ...FetchOption) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		result := p.FetchPaged(ctx, typeName, req, pageLimit, opts...)
		if cb != nil {
			cb(result)
		}
	}()
}

// Wait blocks until every fetch started with FetchPagedAsync has returned.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

// FetchAll fetches every fetchable type with its own request. Fetches run
// concurrently up to the pipeline's bound and a failing type does not stop
// the others. A type starts once its dependencies finished and fails when
// one of them failed; every type is fetched once. The returned error reports
// the first fetch that failed; results hold every outcome.
func (p *Pipeline) FetchAll(ctx context.Context, pageLimit int) (map[string]models.FetchPagedResult, error) {
	var (
		mu      sync.Mutex
		results = make(map[string]models.FetchPagedResult)
	)

	fetchables := p.registry.Fetchables()
	done := make(map[string]chan struct{}, len(fetchables))
	for _, entity := range fetchables {
		done[entity.TypeName()] = make(chan struct{})
	}

	awaitDependencies := func(ctx context.Context, entity schema.Fetchable) error {
		dep, ok := entity.(schema.Dependent)
		if !ok {
			return nil
		}
		for _, name := range dep.Dependencies() {
			ch, inRun := done[name]
			if !inRun {
				if err := p.DependsOn(name)(ctx, entity); err != nil {
					return err
				}
				continue
			}

			select {
			case <-ch:
			case <-ctx.Done():
				return ctx.Err()
			}

			mu.Lock()
			err := results[name].Err
			mu.Unlock()
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
		}
		return nil
	}

	var g errgroup.Group
	for _, entity := range fetchables {
		g.Go(func() error {
			defer close(done[entity.TypeName()])

			result := p.FetchPaged(ctx, entity.TypeName(), models.Request{}, pageLimit, WithPreCheck(awaitDependencies))

			mu.Lock()
			results[entity.TypeName()] = result
			mu.Unlock()

			if result.Err != nil {
				return fmt.Errorf("%s: %w", entity.TypeName(), result.Err)
			}
			return nil
		})
	}

	err := g.Wait()
	return results, err
}

// DependsOn returns a PreCheck that completely fetches typeName first. The
// dependent fetch fails when typeName could not be fetched to the end.
func (p *Pipeline) DependsOn(typeName string) PreCheck {
	return func(ctx context.Context, _ schema.Fetchable) error {
		result := p.FetchPaged(ctx, typeName, models.Request{}, 0)
		if result.Err != nil {
			return fmt.Errorf("%s: %w", typeName, result.Err)
		}
		return nil
	}
}

// dependencies chains DependsOn over the declared dependencies of entity, in
// order. It is nil when entity declares none.
func (p *Pipeline) dependencies(entity schema.Fetchable) PreCheck {
	dep, ok := entity.(schema.Dependent)
	if !ok || len(dep.Dependencies()) == 0 {
		return nil
	}

	names := dep.Dependencies()
	return func(ctx context.Context, entity schema.Fetchable) error {
		for _, name := range names {
			if err := p.DependsOn(name)(ctx, entity); err != nil {
				return err
			}
		}
		return nil
	}
}

func (p *Pipeline) fetchable(typeName string) (schema.Fetchable, error) {
	entity, ok := p.registry.Lookup(typeName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", schema.ErrUnknownType, typeName)
	}
	fetchable, ok := entity.(schema.Fetchable)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFetchable, typeName)
	}
	return fetchable, nil
}

func (p *Pipeline) fetch(ctx context.Context, entity schema.Fetchable, req models.Request, pageLimit int, cfg fetchConfig) models.FetchPagedResult {
	log := logger.FromContext(ctx)
	typeName := entity.TypeName()

	var result models.FetchPagedResult

	known, snapshotErr := p.snapshot(ctx, entity)
	if snapshotErr != nil {
		log.Warn().Err(snapshotErr).Str("func", "Pipeline.fetch").Str("type", typeName).Msg("orphan pruning disabled for this fetch")
	}

	var (
		fetched    = make(map[string]struct{})
		params     = req.Params
		exhausted  bool
		itemFailed bool
	)

	for page := 1; pageLimit <= 0 || page <= pageLimit; page++ {
		pageReq := req
		pageReq.Params = params

		info, serialized, err := p.fetchPage(ctx, entity, pageReq, page, cfg)
		if err != nil {
			log.Err(err).Str("func", "Pipeline.fetch").Str("type", typeName).Int("page", page).Msg("fetch stopped")
			result.Err = err
			break
		}

		result.AllPageResults = append(result.AllPageResults, serialized)
		result.AllPageInfos = append(result.AllPageInfos, info)
		for id := range info.FetchedServerIDs {
			fetched[id] = struct{}{}
		}

		if serialized.Err != nil {
			result.Err = serialized.Err
			break
		}
		if len(serialized.ItemErrors) > 0 {
			itemFailed = true
		}

		if !info.HasNext() {
			exhausted = true
			break
		}
		if reflect.DeepEqual(info.NextParams, params) {
			result.Err = fmt.Errorf("%w: page %d", ErrPaginationLoop, page)
			break
		}
		params = info.NextParams
	}

	result.Complete = exhausted && result.Err == nil && !itemFailed
	if result.Complete && snapshotErr == nil {
		pruned, err := p.prune(ctx, typeName, known, fetched)
		if err != nil {
			log.Err(err).Str("func", "Pipeline.fetch").Str("type", typeName).Msg("failed to prune orphans")
			result.Err = err
		}
		result.Pruned = pruned
	}

	log.Info().
		Str("func", "Pipeline.fetch").
		Str("type", typeName).
		Int("pages", len(result.AllPageInfos)).
		Int("records", len(fetched)).
		Int("pruned", len(result.Pruned)).
		Bool("complete", result.Complete).
		Msg("fetch finished")

	return result
}

// fetchPage performs one request and reconciles its items. The returned
// error is set when the request failed or the response could not be read;
// reconciliation errors are reported in the SerializeResult.
func (p *Pipeline) fetchPage(ctx context.Context, entity schema.Fetchable, req models.Request, page int, cfg fetchConfig) (models.PageInfo, models.SerializeResult, error) {
	if err := ctx.Err(); err != nil {
		return models.PageInfo{}, models.SerializeResult{}, fmt.Errorf("%w %d: %w", ErrPageFailed, page, err)
	}

	resp, err := p.transport.Request(ctx, req)
	if err != nil {
		return models.PageInfo{}, models.SerializeResult{}, fmt.Errorf("%w %d: %w", ErrPageFailed, page, err)
	}

	items := resp.Body
	if path := entity.ItemsKeyPath(); path != "" {
		var ok bool
		if items, ok = mapping.Lookup(resp.Body, path); !ok {
			return models.PageInfo{}, models.SerializeResult{}, fmt.Errorf("%w %d: %w: %s", ErrPageFailed, page, ErrItemsNotFound, path)
		}
	}

	serialized := p.serializer.Serialize(ctx, entity.TypeName(), items, req, reconcile.SerializeOptions{Hook: cfg.hook})

	info := models.PageInfo{PageIndex: page}
	if pageable, ok := entity.(schema.Pageable); ok {
		info = pageable.PageInfo(resp, req.Params, page)
	}
	info.FetchedServerIDs = make(map[string]struct{}, len(serialized.Records))
	for _, rec := range serialized.Records {
		if rec.ServerID != "" {
			info.FetchedServerIDs[rec.ServerID] = struct{}{}
		}
	}

	return info, serialized, nil
}

// snapshot returns the records a complete fetch is expected to return.
func (p *Pipeline) snapshot(ctx context.Context, entity schema.Fetchable) ([]*models.Record, error) {
	return p.records.Query(ctx, entity.TypeName(), store.And(
		entity.FetchScope(),
		store.SyncStatusIn(models.SyncStatusSynced),
		store.HasServerID(),
		store.NotDeleted(),
	))
}

// prune soft-deletes the known records missing from fetched. Records changed
// locally since the snapshot are kept.
func (p *Pipeline) prune(ctx context.Context, typeName string, known []*models.Record, fetched map[string]struct{}) ([]string, error) {
	var orphans []*models.Record
	for _, rec := range known {
		if _, ok := fetched[rec.ServerID]; !ok {
			orphans = append(orphans, rec)
		}
	}
	if len(orphans) == 0 {
		return nil, nil
	}

	var pruned []string
	err := p.records.Write(ctx, func(tx store.Txn) error {
		pruned = pruned[:0]
		deletedAt := p.now().UTC()

		for _, orphan := range orphans {
			rec, err := tx.ObjectForPrimaryKey(typeName, orphan.LocalID)
			if err != nil {
				return err
			}
			if rec.IsDeleted() || rec.SyncStatus != models.SyncStatusSynced || rec.ServerID != orphan.ServerID {
				continue
			}
			if _, err = tx.Create(typeName, models.Fields{
				models.FieldLocalID:   rec.LocalID,
				models.FieldDeletedAt: deletedAt,
			}, true); err != nil {
				return err
			}
			pruned = append(pruned, rec.LocalID)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", reconcile.ErrPersistenceFailure, err)
	}
	return pruned, nil
}
