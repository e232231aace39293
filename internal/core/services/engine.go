package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nulzo/model-orchestrator/internal/analytics"
	"github.com/nulzo/model-orchestrator/internal/core/domain"
	"github.com/nulzo/model-orchestrator/internal/core/ports"
	storemodel "github.com/nulzo/model-orchestrator/internal/store/model"
	"github.com/nulzo/model-orchestrator/pkg/api"
	"go.uber.org/zap"
)

const defaultAttemptCap = 3

// EngineConfig carries the dispatch knobs.
type EngineConfig struct {
	// Maximum total attempts per routing call
	AttemptCap int
	// Per-attempt timeout when the request carries no override
	DefaultTimeout time.Duration
	// Capability-specific timeout overrides
	CapabilityTimeouts map[domain.Capability]time.Duration
}

// Engine is the dispatcher / fallback executor. It owns the registry and ties
// admission, ranking, dispatch and score updates together for one request.
type Engine struct {
	logger    *zap.Logger
	registry  *Registry
	tracker   *Tracker
	selector  *Selector
	allocator *Allocator
	reporter  *Reporter
	ingestor  analytics.Ingestor
	cfg       EngineConfig
}

func NewEngine(
	logger *zap.Logger,
	registry *Registry,
	tracker *Tracker,
	selector *Selector,
	allocator *Allocator,
	cache ports.CacheService,
	ingestor analytics.Ingestor,
	cfg EngineConfig,
) *Engine {
	if cfg.AttemptCap < 1 {
		cfg.AttemptCap = defaultAttemptCap
	}
	if cfg.DefaultTimeout <= 0 {
		cfg.DefaultTimeout = 30 * time.Second
	}
	if ingestor == nil {
		ingestor = analytics.NopIngestor{}
	}

	return &Engine{
		logger:    logger,
		registry:  registry,
		tracker:   tracker,
		selector:  selector,
		allocator: allocator,
		reporter:  NewReporter(registry, selector, allocator, cache),
		ingestor:  ingestor,
		cfg:       cfg,
	}
}

// Register adds a descriptor and its adapter. All adapters are constructed
// up front and handed in; the engine never instantiates backends lazily.
func (e *Engine) Register(desc domain.ModelDescriptor, adapter ports.BackendAdapter) error {
	if desc.Identity == "" {
		return domain.BadRequestError("descriptor identity must not be empty")
	}
	if len(desc.Capabilities) == 0 {
		return domain.BadRequestError("descriptor must declare at least one capability")
	}
	for _, c := range desc.Capabilities {
		if !c.Valid() {
			return domain.UnknownCapabilityError(c.String())
		}
	}

	if err := e.registry.Register(desc, adapter); err != nil {
		return err
	}

	e.logger.Info("Registered backend",
		zap.String("identity", desc.Identity),
		zap.String("provider", desc.Provider),
	)
	return nil
}

// Deregister removes a descriptor. Idempotent.
func (e *Engine) Deregister(identity string) {
	e.registry.Deregister(identity)
	e.logger.Info("Deregistered backend", zap.String("identity", identity))
}

// List returns all registered descriptors with their current scores.
func (e *Engine) List() []api.BackendView {
	return e.reporter.backendViews()
}

// Snapshot aggregates registry, tracker and allocator state.
func (e *Engine) Snapshot(ctx context.Context) (*api.StatusView, error) {
	return e.reporter.Snapshot(ctx)
}

// Route validates the request at the boundary, then runs the fallback chain.
func (e *Engine) Route(ctx context.Context, req *api.RouteRequest) (*api.RouteResponse, error) {
	capability, err := domain.ParseCapability(req.Capability)
	if err != nil {
		return nil, domain.UnknownCapabilityError(req.Capability)
	}

	rr := domain.RoutingRequest{
		ID:         uuid.New().String(),
		Capability: capability,
		Payload:    req.Payload,
		Context:    req.Context,
		Preferred:  req.PreferredModel,
		NoFallback: req.NoFallback,
	}
	if req.TimeoutMS > 0 {
		rr.Timeout = time.Duration(req.TimeoutMS) * time.Millisecond
	}

	result, err := e.route(ctx, &rr)
	if err != nil {
		return nil, err
	}

	e.ingest(&rr, result)

	resp := &api.RouteResponse{
		ID:        rr.ID,
		Outcome:   string(result.Outcome),
		Model:     result.Model,
		Attempts:  result.Attempts,
		ElapsedMS: result.Elapsed.Milliseconds(),
		Output:    result.Output,
	}
	for _, f := range result.Failures {
		resp.Failures = append(resp.Failures, api.AttemptFailure{
			Identity:  f.Identity,
			Kind:      string(f.Kind),
			Reason:    f.Reason,
			LatencyMS: f.Latency.Milliseconds(),
		})
	}

	return resp, nil
}

// route runs one admission-ranking-dispatch cycle. Attempts are strictly
// sequential; a candidate is never attempted twice within one call.
func (e *Engine) route(ctx context.Context, req *domain.RoutingRequest) (*domain.RoutingResult, error) {
	start := time.Now()

	cost := e.allocator.EstimateCost(req.Capability, req.PayloadSize())
	lease, ok := e.allocator.Admit(cost)
	if !ok {
		e.logger.Warn("Routing rejected, budget exhausted",
			zap.String("request_id", req.ID),
			zap.String("capability", req.Capability.String()),
			zap.Int64("cost", cost),
		)
		return &domain.RoutingResult{
			Outcome: domain.OutcomeRejected,
			Elapsed: time.Since(start),
		}, nil
	}
	defer lease.Release()

	candidates := e.registry.Query(req.Capability)
	if req.NoFallback && req.Preferred != "" {
		candidates = filterByIdentity(candidates, req.Preferred)
	}
	if len(candidates) == 0 {
		return nil, domain.NoCandidateError(req.Capability)
	}

	ranked, err := e.selector.Rank(req.Capability, candidates, req.Preferred)
	if err != nil {
		return nil, err
	}

	result := &domain.RoutingResult{Outcome: domain.OutcomeExhausted}

	for _, cand := range ranked {
		if result.Attempts >= e.cfg.AttemptCap {
			break
		}
		if cerr := ctx.Err(); cerr != nil {
			// The caller walked away mid-chain. Record why the remaining
			// candidate was never tried so the failure trail stays honest.
			result.Failures = append(result.Failures, domain.AttemptFailure{
				Identity: cand.Descriptor.Identity,
				Kind:     domain.FailureCanceled,
				Reason:   cerr.Error(),
			})
			break
		}

		identity := cand.Descriptor.Identity
		attemptStart := time.Now()

		resp, err := e.dispatch(ctx, req, cand)
		latency := time.Since(attemptStart)
		result.Attempts++

		if err == nil {
			if terr := e.tracker.Update(identity, true, latency); terr != nil {
				e.logger.Warn("Score update failed", zap.String("identity", identity), zap.Error(terr))
			}
			result.Outcome = domain.OutcomeSuccess
			result.Model = identity
			result.Output = resp.Output
			result.Elapsed = time.Since(start)
			return result, nil
		}

		kind := domain.ClassifyDispatch(err)
		if terr := e.tracker.Update(identity, false, latency); terr != nil {
			e.logger.Warn("Score update failed", zap.String("identity", identity), zap.Error(terr))
		}

		result.Failures = append(result.Failures, domain.AttemptFailure{
			Identity: identity,
			Kind:     kind,
			Reason:   err.Error(),
			Latency:  latency,
		})

		e.logger.Warn("Dispatch attempt failed",
			zap.String("request_id", req.ID),
			zap.String("identity", identity),
			zap.String("kind", string(kind)),
			zap.Int("attempt", result.Attempts),
			zap.Error(err),
		)

		if !kind.Retryable() {
			break
		}
	}

	result.Elapsed = time.Since(start)
	return result, nil
}

// dispatch performs one attempt under the per-attempt timeout. The critical
// sections of registry and tracker are never held across this call.
func (e *Engine) dispatch(ctx context.Context, req *domain.RoutingRequest, cand Candidate) (*api.InvokeResponse, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, e.attemptTimeout(req))
	defer cancel()

	return cand.Adapter.Invoke(attemptCtx, &api.InvokeRequest{
		Model:      cand.Descriptor.Identity,
		Capability: req.Capability.String(),
		Payload:    req.Payload,
		Context:    req.Context,
	})
}

func (e *Engine) attemptTimeout(req *domain.RoutingRequest) time.Duration {
	if req.Timeout > 0 {
		return req.Timeout
	}
	if t, ok := e.cfg.CapabilityTimeouts[req.Capability]; ok && t > 0 {
		return t
	}
	return e.cfg.DefaultTimeout
}

func (e *Engine) ingest(req *domain.RoutingRequest, result *domain.RoutingResult) {
	kinds := make([]string, 0, len(result.Failures))
	for _, f := range result.Failures {
		kinds = append(kinds, string(f.Kind))
	}
	kindsJSON, _ := json.Marshal(kinds)

	e.ingestor.Log(&storemodel.DispatchLog{
		ID:           req.ID,
		Capability:   req.Capability.String(),
		ModelID:      result.Model,
		Outcome:      string(result.Outcome),
		Attempts:     result.Attempts,
		FailureKinds: string(kindsJSON),
		PayloadBytes: req.PayloadSize(),
		LatencyMS:    result.Elapsed.Milliseconds(),
		CreatedAt:    time.Now(),
	})
}

func filterByIdentity(cands []Candidate, identity string) []Candidate {
	var out []Candidate
	for _, c := range cands {
		if c.Descriptor.Identity == identity {
			out = append(out, c)
		}
	}
	return out
}
