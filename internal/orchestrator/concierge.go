// internal/orchestrator/concierge.go
package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"travel-concierge/internal/agents/destination"
	"travel-concierge/internal/agents/dining"
	"travel-concierge/internal/agents/lodging"
	"travel-concierge/internal/agents/validator"
	"travel-concierge/internal/common/config"
	apperrors "travel-concierge/internal/common/errors"
	"travel-concierge/internal/common/logger"
	"travel-concierge/internal/common/metrics"
	"travel-concierge/internal/common/observability"
	"travel-concierge/internal/llm"
	"travel-concierge/internal/models"
	"travel-concierge/internal/persona"
	"travel-concierge/pkg/catalog"
)

// Concierge coordinates the research workers for one itinerary at a time per call. It holds
// no per-run state, so concurrent GenerateItinerary calls are independent.
type Concierge struct {
	config      *config.Config
	builder     *persona.Builder
	destination *destination.Handler
	lodging     *lodging.Handler
	dining      *dining.Handler
	validator   *validator.Handler
	obs         *observability.Observability
	logger      logger.Logger
}

type Option func(*Concierge)

func WithPersonaBuilder(b *persona.Builder) Option {
	return func(c *Concierge) {
		c.builder = b
	}
}

func WithObservability(obs *observability.Observability) Option {
	return func(c *Concierge) {
		c.obs = obs
	}
}

// New wires the workers from configuration. The client and catalog are shared by all workers.
func New(cfg *config.Config, client llm.Client, cat *catalog.Catalog, log logger.Logger, opts ...Option) *Concierge {
	if cat == nil {
		cat = catalog.Default()
	}
	log = log.Named("orchestrator")
	scorer := persona.NewScorer(persona.DefaultWeights)

	c := &Concierge{
		config:  cfg,
		builder: persona.NewBuilder(nil),
		destination: destination.NewHandler(
			destination.LoadConfig(config.GetAgentConfig(cfg, config.AgentDestination)),
			client, cat, scorer, log,
		),
		lodging: lodging.NewHandler(
			lodging.LoadConfig(config.GetAgentConfig(cfg, config.AgentLodging)),
			client, cat, scorer, log,
		),
		dining: dining.NewHandler(
			dining.LoadConfig(config.GetAgentConfig(cfg, config.AgentDining)),
			client, cat, scorer, log,
		),
		validator: validator.NewHandler(
			validator.LoadConfig(config.GetAgentConfig(cfg, config.AgentValidator)),
			client, log,
		),
		logger: log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GenerateItinerary runs the whole pipeline. It never returns an error: failures are
// reported through the result's Success, Phase and Error fields, always with the
// conversation log collected so far.
func (c *Concierge) GenerateItinerary(ctx context.Context, req models.TravelRequirements, opts ...RunOption) *models.OrchestrationResult {
	var o runOptions
	for _, opt := range opts {
		opt(&o)
	}

	r := newRun(uuid.NewString(), o.sink, c.logger)
	metrics.RunsActive.Inc()
	defer metrics.RunsActive.Dec()

	ctx, span := c.obs.StartSpan(ctx, "itinerary.generate", attribute.String("run.id", r.result.RunID))
	defer span.End()
	if timeout := config.GetDuration(c.config.Orchestrator.RunTimeout); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	result := c.execute(ctx, r, req, o)

	phase := string(result.Phase)
	metrics.RunsTotal.WithLabelValues(phase).Inc()
	c.obs.RecordRun(ctx, phase, result.TotalExecutionTime)
	span.SetAttributes(attribute.String("run.phase", phase), attribute.Bool("run.success", result.Success))
	if result.Success {
		metrics.RunConfidence.Observe(result.Confidence)
	}
	r.logger.Info("Run finished", map[string]interface{}{
		"success":    result.Success,
		"phase":      phase,
		"confidence": result.Confidence,
		"durationMs": result.TotalExecutionTime.Milliseconds(),
		"calls":      result.Costs.Calls,
	})
	return result
}

func (c *Concierge) execute(ctx context.Context, r *run, req models.TravelRequirements, o runOptions) *models.OrchestrationResult {
	r.enter(models.PhaseInitialized, "validating requirements", 0)
	if err := req.Validate(); err != nil {
		return r.fail(err)
	}
	if req.TripDays <= 0 {
		req.TripDays = c.config.Orchestrator.DefaultTripDays
	}

	actx := c.builder.BuildContext(req, o.personaHint)
	profile := actx.PersonaProfile
	r.result.Persona = &profile
	r.enter(models.PhaseContextBuilt, fmt.Sprintf("planning for a %s traveler", profile.Primary), 10)

	var workers []settled
	r.enter(models.PhaseResearchInFlight, "discovering destinations", 15)

	destTask := c.newTask(models.PriorityHigh,
		fmt.Sprintf("Find destinations reachable from %s", req.Origin), actx,
		models.DestinationInput{Origin: req.Origin, TravelModes: req.TravelModes, MaxTravelTime: req.MaxTravelTime})
	r.task(destTask)
	destResp := c.destination.Execute(ctx, destTask, actx)
	workers = append(workers, c.settle(ctx, r, actx, models.WorkerDestination, destResp))
	if ctx.Err() != nil {
		return c.cancelled(r, workers, ctx.Err())
	}

	chosen, ok := pickDestination(destResp)
	if !ok || (destResp.IsFallback() && !c.config.Orchestrator.AllowDestinationFallback) {
		r.result.Costs = summarizeCosts(c.config.LLM.Pricing, workers)
		reason := destResp.FallbackReason
		if reason == "" {
			reason = "no destination was proposed"
		}
		return r.fail(apperrors.NewRunFatalError("destination discovery failed: "+reason, nil))
	}
	actx.SetDestinationCity(chosen.Name)
	r.progress("chose "+chosen.Name, 40)

	lodgingResp, diningResp, ran := c.researchDestination(ctx, r, actx, req)
	for _, w := range []models.WorkerType{models.WorkerLodging, models.WorkerDining} {
		switch {
		case !ran[w]:
		case w == models.WorkerLodging:
			workers = append(workers, c.settle(ctx, r, actx, w, lodgingResp))
		default:
			workers = append(workers, c.settle(ctx, r, actx, w, diningResp))
		}
	}
	if ctx.Err() != nil {
		return c.cancelled(r, workers, ctx.Err())
	}

	validatorWarnings := 0
	if config.IsAgentEnabled(c.config, config.AgentValidator) {
		r.enter(models.PhaseValidating, "reviewing recommendations", 75)
		report, settledValidator := c.validate(ctx, r, actx)
		workers = append(workers, settledValidator)
		if ctx.Err() != nil {
			return c.cancelled(r, workers, ctx.Err())
		}
		r.result.ValidationReport = report
		if report != nil {
			validatorWarnings = len(report.Warnings)
		}
	}

	r.enter(models.PhaseAssembling, "assembling the itinerary", 90)
	var fallbacks []models.WorkerType
	for _, w := range workers {
		if w.fallback && w.worker != models.WorkerValidator {
			fallbacks = append(fallbacks, w.worker)
		}
	}
	r.result.Itinerary = assembleItinerary(assemblyInput{
		days:        req.TripDays,
		destination: chosen,
		lodging:     recommendationsOf(lodgingResp),
		dining:      recommendationsOf(diningResp),
		profile:     profile,
		constraints: actx.Constraints,
		validation:  r.result.ValidationReport,
		fallbacks:   fallbacks,
	})
	r.result.Confidence = aggregateConfidence(c.config.Orchestrator, workers, validatorWarnings)
	r.result.Costs = summarizeCosts(c.config.LLM.Pricing, workers)
	return r.complete()
}

// researchDestination runs lodging and dining concurrently and waits for both to settle.
func (c *Concierge) researchDestination(ctx context.Context, r *run, actx *models.AgentContext, req models.TravelRequirements) (lodgingResp, diningResp models.AgentResponse[models.ResearchOutput], ran map[models.WorkerType]bool) {
	ran = map[models.WorkerType]bool{}
	city := actx.DestinationCity()
	var g errgroup.Group

	if config.IsAgentEnabled(c.config, config.AgentLodging) {
		task := c.newTask(models.PriorityMedium, "Find lodging in "+city, actx,
			models.LodgingInput{Destination: city, Nights: nights(req.TripDays), PartySize: req.PartySize()})
		r.task(task)
		ran[models.WorkerLodging] = true
		g.Go(func() error {
			lodgingResp = c.lodging.Execute(ctx, task, actx)
			return nil
		})
	}
	if config.IsAgentEnabled(c.config, config.AgentDining) {
		task := c.newTask(models.PriorityMedium, "Find places to eat in "+city, actx,
			models.DiningInput{Destination: city, Days: req.TripDays})
		r.task(task)
		ran[models.WorkerDining] = true
		g.Go(func() error {
			diningResp = c.dining.Execute(ctx, task, actx)
			return nil
		})
	}
	r.progress("researching lodging and dining in "+city, 50)
	_ = g.Wait()
	r.progress("lodging and dining settled", 70)
	return lodgingResp, diningResp, ran
}

func (c *Concierge) validate(ctx context.Context, r *run, actx *models.AgentContext) (*models.ValidationReport, settled) {
	task := c.newTask(models.PriorityLow, "Cross-check all recommendations", actx,
		models.ValidationInput{Workers: []models.WorkerType{models.WorkerDestination, models.WorkerLodging, models.WorkerDining}})
	r.task(task)
	resp := c.validator.Execute(ctx, task, actx)

	var warnings []string
	if resp.Data != nil {
		warnings = resp.Data.Warnings
		actx.RecordFinding(models.Finding{
			Worker:         models.WorkerValidator,
			Status:         resp.Status,
			Validation:     resp.Data,
			FallbackReason: resp.FallbackReason,
		})
	}
	r.response(models.WorkerValidator, resp.Status, resp.Confidence, resp.FallbackReason, warnings)
	if resp.IsFallback() {
		c.obs.RecordFallback(ctx, string(models.WorkerValidator))
	}
	return resp.Data, settled{
		worker:     models.WorkerValidator,
		confidence: resp.Confidence,
		fallback:   resp.IsFallback(),
		usage:      resp.Usage,
	}
}

// settle records a research response in the findings, the raw research map and the log.
func (c *Concierge) settle(ctx context.Context, r *run, actx *models.AgentContext, w models.WorkerType, resp models.AgentResponse[models.ResearchOutput]) settled {
	r.result.RawResearch[w] = resp
	var warnings []string
	if resp.Data != nil {
		warnings = resp.Data.Warnings
	}
	actx.RecordFinding(models.Finding{
		Worker:         w,
		Status:         resp.Status,
		Research:       resp.Data,
		FallbackReason: resp.FallbackReason,
	})
	r.response(w, resp.Status, resp.Confidence, resp.FallbackReason, warnings)
	if resp.IsFallback() {
		c.obs.RecordFallback(ctx, string(w))
	}
	return settled{worker: w, confidence: resp.Confidence, fallback: resp.IsFallback(), usage: resp.Usage}
}

// cancelled returns what was gathered so far. Validation and assembly are skipped.
func (c *Concierge) cancelled(r *run, workers []settled, cause error) *models.OrchestrationResult {
	r.result.Costs = summarizeCosts(c.config.LLM.Pricing, workers)
	return r.fail(apperrors.NewRunCancelledError(cause))
}

func (c *Concierge) newTask(p models.TaskPriority, description string, actx *models.AgentContext, input models.TaskInput) *models.TaskSpecification {
	w := models.TargetOf(input)
	return &models.TaskSpecification{
		ID:             uuid.NewString(),
		Worker:         w,
		Priority:       p,
		Description:    description,
		Constraints:    actx.Constraints.Describe(),
		ExpectedOutput: "JSON " + strings.ToLower(string(w)) + " recommendations",
		Input:          input,
	}
}

// pickDestination returns the recommendation with the highest personaFit; ties keep the
// earlier entry.
func pickDestination(resp models.AgentResponse[models.ResearchOutput]) (models.Recommendation, bool) {
	if resp.Data == nil || len(resp.Data.Recommendations) == 0 {
		return models.Recommendation{}, false
	}
	best := resp.Data.Recommendations[0]
	for _, rec := range resp.Data.Recommendations[1:] {
		if rec.PersonaFit > best.PersonaFit {
			best = rec
		}
	}
	return best, strings.TrimSpace(best.Name) != ""
}

func recommendationsOf(resp models.AgentResponse[models.ResearchOutput]) []models.Recommendation {
	if resp.Data == nil {
		return nil
	}
	return resp.Data.Recommendations
}

func nights(days int) int {
	if days <= 1 {
		return 1
	}
	return days - 1
}
