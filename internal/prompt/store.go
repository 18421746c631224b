// internal/prompt/store.go
package prompt

import (
	"context"
	"fmt"
	"time"

	"prompt-registry/internal/common/config"
	commonerrors "prompt-registry/internal/common/errors"
	"prompt-registry/internal/common/logger"
	"prompt-registry/internal/common/metrics"
	"prompt-registry/internal/common/observability"
)

// Store orchestrates the cache-aside read path and the version
// lifecycle write path. Reads degrade to direct store queries when the
// cache misbehaves; writes invalidate the name's cache slots on success.
type Store struct {
	repo   *Repository
	cache  *Cache
	cfg    config.CacheConfig
	logger logger.Logger
	obs    *observability.Observability
}

func NewStore(repo *Repository, cache *Cache, cfg config.CacheConfig, log logger.Logger, obs *observability.Observability) *Store {
	return &Store{
		repo:   repo,
		cache:  cache,
		cfg:    cfg,
		logger: log.WithFields(map[string]interface{}{"component": "prompt-store"}),
		obs:    obs,
	}
}

// FetchOptions narrows a fetch. Version wins over State; State defaults
// to production. Fallback, when non-empty, substitutes a FallbackPrompt
// for a missing template instead of a NOT_FOUND error.
type FetchOptions struct {
	State    State
	Version  int
	Fallback string
}

// Fetch resolves one template through the cache. The cache existence
// check, not the value read, decides hit/miss accounting, and only real
// records count — cached fallbacks are never a hit.
func (s *Store) Fetch(ctx context.Context, name string, opts FetchOptions) (Result, error) {
	if opts.State == "" {
		opts.State = StateProduction
	}
	start := time.Now()

	if !s.cache.Enabled() {
		res, err := s.fetchDirect(ctx, name, opts)
		if err == nil {
			s.recordFetch(ctx, start, sourceOf(res))
		}
		return res, err
	}

	key := cacheKey(name, opts.State, opts.Version)

	existed, err := s.cache.Exists(ctx, key)
	if err != nil {
		return s.degrade(ctx, name, opts, start, err)
	}

	if existed {
		res, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			return s.degrade(ctx, name, opts, start, err)
		}
		if ok {
			if s.cfg.Monitoring && res.Found() {
				s.cache.RecordHit(ctx, name)
			}
			metrics.TemplateCacheHits.Inc()
			s.recordFetch(ctx, start, "cache")
			return res, nil
		}
		// Key expired between the existence check and the read; treat as
		// a plain miss.
	}

	res, err := s.fetchDirect(ctx, name, opts)
	if err != nil {
		return Result{}, err
	}

	if err := s.cache.Set(ctx, key, res); err != nil {
		metrics.TemplateCacheErrors.Inc()
		s.logger.Warn("cache write-back failed", map[string]interface{}{
			"name":  name,
			"key":   key,
			"error": err,
		})
	}
	if s.cfg.Monitoring && res.Found() {
		s.cache.RecordMiss(ctx, name)
	}
	metrics.TemplateCacheMisses.Inc()
	s.recordFetch(ctx, start, sourceOf(res))
	return res, nil
}

// degrade logs a cache failure and serves the request from the store
// directly. A cache outage is never user-visible on the read path.
func (s *Store) degrade(ctx context.Context, name string, opts FetchOptions, start time.Time, cause error) (Result, error) {
	metrics.TemplateCacheErrors.Inc()
	s.logger.Warn("cache unavailable, serving direct read", map[string]interface{}{
		"name":  name,
		"error": cause,
	})

	res, err := s.fetchDirect(ctx, name, opts)
	if err == nil {
		s.recordFetch(ctx, start, sourceOf(res))
	}
	return res, err
}

func (s *Store) fetchDirect(ctx context.Context, name string, opts FetchOptions) (Result, error) {
	var (
		record *PromptVersion
		err    error
	)
	if opts.Version > 0 {
		record, err = s.repo.GetByVersion(ctx, name, opts.Version)
	} else {
		record, err = s.repo.GetByState(ctx, name, opts.State)
	}
	if err != nil {
		return Result{}, err
	}

	if record != nil {
		return Result{Record: record}, nil
	}
	if opts.Fallback != "" {
		return Result{Fallback: NewFallbackPrompt(name, opts.Fallback)}, nil
	}
	return Result{}, commonerrors.NewTemplateNotFoundError(name, describeFetch(opts))
}

func describeFetch(opts FetchOptions) string {
	if opts.Version > 0 {
		return fmt.Sprintf("version: %d", opts.Version)
	}
	return fmt.Sprintf("state: %s", opts.State)
}

func sourceOf(res Result) string {
	if res.Found() {
		return "store"
	}
	return "fallback"
}

func (s *Store) recordFetch(ctx context.Context, start time.Time, source string) {
	metrics.TemplateFetchDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
	if s.obs != nil {
		s.obs.RecordFetch(ctx, source)
		s.obs.RecordFetchDuration(ctx, time.Since(start), source)
	}
}

// FetchAll resolves several names at once. A name that cannot be served
// is logged and skipped; one bad name never fails the batch.
func (s *Store) FetchAll(ctx context.Context, names []string, state State) map[string]Result {
	results := make(map[string]Result, len(names))
	for _, name := range names {
		res, err := s.Fetch(ctx, name, FetchOptions{State: state})
		if err != nil {
			s.logger.Warn("fetch failed in batch", map[string]interface{}{
				"name":  name,
				"error": err,
			})
			continue
		}
		results[name] = res
	}
	return results
}

// CreateInput carries everything needed to cut a new version.
type CreateInput struct {
	Name                string
	Content             string
	Config              interface{}
	CommitMessage       string
	CreatedBy           string
	PromoteToProduction bool
}

// Create stores the next version of a name as a draft, optionally
// promoting it immediately. Config is normalized to a map exactly once,
// here at the store boundary.
func (s *Store) Create(ctx context.Context, in CreateInput) (*PromptVersion, error) {
	v := &PromptVersion{
		Name:          in.Name,
		Content:       in.Content,
		Config:        normalizeConfig(in.Config),
		CommitMessage: in.CommitMessage,
		CreatedBy:     in.CreatedBy,
	}

	if err := s.repo.Insert(ctx, v); err != nil {
		return nil, err
	}
	metrics.TemplateWrites.WithLabelValues("create").Inc()
	s.invalidateAfterWrite(ctx, in.Name)

	if in.PromoteToProduction {
		return s.Promote(ctx, in.Name, v.Version)
	}
	return v, nil
}

// Update replaces content and config on a draft. Immutable versions are
// rejected before anything persists.
func (s *Store) Update(ctx context.Context, name string, version int, content string, cfg interface{}) (*PromptVersion, error) {
	v, err := s.repo.UpdateDraft(ctx, name, version, content, normalizeConfig(cfg))
	if err != nil {
		return nil, err
	}
	metrics.TemplateWrites.WithLabelValues("update").Inc()
	s.invalidateAfterWrite(ctx, name)
	return v, nil
}

// Promote moves a draft to production, archiving any competing
// production version. Promoting the current production version is a
// no-op.
func (s *Store) Promote(ctx context.Context, name string, version int) (*PromptVersion, error) {
	return s.transition(ctx, name, version, EventPromote)
}

// Demote moves the production version to archived.
func (s *Store) Demote(ctx context.Context, name string, version int) (*PromptVersion, error) {
	return s.transition(ctx, name, version, EventDemote)
}

// Restore moves an archived version back to production, archiving the
// current holder the same way promote does.
func (s *Store) Restore(ctx context.Context, name string, version int) (*PromptVersion, error) {
	return s.transition(ctx, name, version, EventRestore)
}

func (s *Store) transition(ctx context.Context, name string, version int, event Event) (*PromptVersion, error) {
	v, err := s.repo.Transition(ctx, name, version, event)
	if err != nil {
		return nil, err
	}
	metrics.TemplateWrites.WithLabelValues(string(event)).Inc()
	s.invalidateAfterWrite(ctx, name)
	return v, nil
}

// Rollback re-activates an already-released version. Archived targets
// are restored, the current production target is a no-op, and drafts are
// rejected: rollback only ever moves backward through released states.
func (s *Store) Rollback(ctx context.Context, name string, toVersion int) (*PromptVersion, error) {
	target, err := s.repo.GetByVersion(ctx, name, toVersion)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, commonerrors.NewTemplateNotFoundError(name, fmt.Sprintf("version: %d", toVersion))
	}

	switch target.State {
	case StateProduction:
		return target, nil
	case StateArchived:
		return s.Restore(ctx, name, toVersion)
	default:
		return nil, commonerrors.NewInvalidTransitionError(
			fmt.Sprintf("cannot rollback to draft version %d of %s", toVersion, name))
	}
}

// Versions lists every version of a name, newest first.
func (s *Store) Versions(ctx context.Context, name string) ([]*PromptVersion, error) {
	return s.repo.ListVersions(ctx, name)
}

// CompareVersions loads two versions and reports their line-set diff.
func (s *Store) CompareVersions(ctx context.Context, name string, versionA, versionB int) (*Comparison, error) {
	from, err := s.repo.GetByVersion(ctx, name, versionA)
	if err != nil {
		return nil, err
	}
	if from == nil {
		return nil, commonerrors.NewTemplateNotFoundError(name, fmt.Sprintf("version: %d", versionA))
	}

	to, err := s.repo.GetByVersion(ctx, name, versionB)
	if err != nil {
		return nil, err
	}
	if to == nil {
		return nil, commonerrors.NewTemplateNotFoundError(name, fmt.Sprintf("version: %d", versionB))
	}

	return &Comparison{
		From: from,
		To:   to,
		Diff: diffContent(from.Content, to.Content),
	}, nil
}

// Invalidate drops cache slots for a name: one version slot when a
// version is given, otherwise every state slot. The staleness stamp is
// bumped either way.
func (s *Store) Invalidate(ctx context.Context, name string, version int) error {
	if version > 0 {
		return s.cache.InvalidateVersion(ctx, name, version)
	}
	return s.cache.InvalidateName(ctx, name)
}

// CacheStamp returns the last invalidation time for a name so
// collaborators can detect staleness without re-fetching.
func (s *Store) CacheStamp(ctx context.Context, name string) (time.Time, bool, error) {
	return s.cache.Stamp(ctx, name)
}

// invalidateAfterWrite is the lifecycle hook every successful mutation
// runs. Failures are logged, never propagated: the write already
// committed.
func (s *Store) invalidateAfterWrite(ctx context.Context, name string) {
	if err := s.cache.InvalidateName(ctx, name); err != nil {
		metrics.TemplateCacheErrors.Inc()
		s.logger.Warn("cache invalidation failed after write", map[string]interface{}{
			"name":  name,
			"error": err,
		})
	}
}

// WarmFailure pairs a name with the error that kept it cold.
type WarmFailure struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

// WarmReport lists warmed and failed names independently.
type WarmReport struct {
	Warmed []string      `json:"warmed"`
	Failed []WarmFailure `json:"failed"`
}

// WarmCache pre-loads production templates. Names resolve from the
// explicit list, then the configured critical list, then every name
// currently in production. One failing name never aborts the batch.
func (s *Store) WarmCache(ctx context.Context, names []string) (*WarmReport, error) {
	if len(names) == 0 {
		names = s.cfg.CriticalNames
	}
	if len(names) == 0 {
		discovered, err := s.repo.ProductionNames(ctx)
		if err != nil {
			return nil, err
		}
		names = discovered
	}

	report := &WarmReport{}
	for _, name := range names {
		if _, err := s.Fetch(ctx, name, FetchOptions{State: StateProduction}); err != nil {
			report.Failed = append(report.Failed, WarmFailure{Name: name, Error: err.Error()})
			continue
		}
		report.Warmed = append(report.Warmed, name)
	}

	s.logger.Info("cache warm-up finished", map[string]interface{}{
		"warmed": len(report.Warmed),
		"failed": len(report.Failed),
	})
	return report, nil
}

// CacheStatsReport is the advisory hit/miss telemetry for one name.
type CacheStatsReport struct {
	Name    string  `json:"name"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	Total   int64   `json:"total"`
	HitRate float64 `json:"hitRate"`
}

// CacheStats reads the per-name counters from the cache. Counters live
// in Redis, not the durable store, and are best-effort.
func (s *Store) CacheStats(ctx context.Context, name string) (*CacheStatsReport, error) {
	hits, misses, err := s.cache.Stats(ctx, name)
	if err != nil {
		return nil, commonerrors.NewCacheUnavailableError(err)
	}

	total := hits + misses
	rate := 0.0
	if total > 0 {
		rate = float64(hits) / float64(total)
	}
	return &CacheStatsReport{
		Name:    name,
		Hits:    hits,
		Misses:  misses,
		Total:   total,
		HitRate: rate,
	}, nil
}

// ClearStats resets the counters for every known production name.
func (s *Store) ClearStats(ctx context.Context) error {
	names, err := s.repo.ProductionNames(ctx)
	if err != nil {
		return err
	}
	if err := s.cache.ClearStats(ctx, names); err != nil {
		return commonerrors.NewCacheUnavailableError(err)
	}
	return nil
}
