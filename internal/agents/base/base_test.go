package base

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travel-concierge/internal/common/cache"
	apperrors "travel-concierge/internal/common/errors"
	"travel-concierge/internal/common/logger"
	"travel-concierge/internal/llm"
	"travel-concierge/internal/models"
	"travel-concierge/internal/persona"
)

type echoWorker struct{}

func (echoWorker) Type() models.WorkerType { return models.WorkerLodging }

func (echoWorker) BuildPrompt(task *models.TaskSpecification, actx *models.AgentContext) string {
	return "lodging: " + task.Description
}

func (echoWorker) ParseResponse(text string, _ *models.TaskSpecification, _ *models.AgentContext) (*models.ResearchOutput, error) {
	if !strings.HasPrefix(text, "ok:") {
		return nil, apperrors.NewParseError("missing ok prefix", text, nil)
	}
	var recs []models.Recommendation
	for _, name := range strings.Split(strings.TrimPrefix(text, "ok:"), ",") {
		recs = append(recs, models.Recommendation{Name: name, Category: models.CategoryLodging, Source: models.SourceLLM})
	}
	return &models.ResearchOutput{Recommendations: recs}, nil
}

func (echoWorker) BuildFallback(_ *models.TaskSpecification, actx *models.AgentContext, reason string) *models.ResearchOutput {
	recs := []models.Recommendation{{Name: "Catalog Inn", Category: models.CategoryLodging, Source: models.SourceFallback}}
	return FallbackResearch(recs, 3, persona.NewScorer(persona.DefaultWeights), actx.PersonaProfile, reason)
}

func (echoWorker) Confidence(out *models.ResearchOutput) float64 { return ResearchConfidence(out) }

func fastPolicy() Policy {
	return Policy{Timeout: time.Second, MaxAttempts: 2, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}
}

func testContext() *models.AgentContext {
	return models.NewAgentContext(
		models.TravelRequirements{Origin: "Denver", NumberOfAdults: 2},
		models.PersonaProfile{Primary: models.PersonaBalanced, Interests: []string{"sightseeing"}},
		models.TravelConstraints{},
	)
}

func testTask() *models.TaskSpecification {
	return &models.TaskSpecification{ID: "task-1", Worker: models.WorkerLodging, Description: "find hotels"}
}

func TestRun_Success(t *testing.T) {
	client := llm.NewScripted().On("lodging", llm.Reply{Text: "ok:A,B,C", Usage: llm.Usage{PromptTokens: 100, CompletionTokens: 20}})
	runner := NewRunner(client, fastPolicy(), logger.NewTestLogger(t))

	resp := Run[models.ResearchOutput](context.Background(), runner, echoWorker{}, testTask(), testContext())

	assert.Equal(t, models.StatusSuccess, resp.Status)
	require.NotNil(t, resp.Data)
	assert.Len(t, resp.Data.Recommendations, 3)
	assert.InDelta(t, 0.8, resp.Confidence, 1e-9)
	assert.Empty(t, resp.FallbackReason)
	assert.Equal(t, models.Usage{PromptTokens: 100, CompletionTokens: 20, Calls: 1, Attempts: 1}, resp.Usage)
}

func TestRun_RetriesParseFailureThenSucceeds(t *testing.T) {
	client := llm.NewScripted().On("lodging", llm.Reply{Text: "garbage"}, llm.Reply{Text: "ok:A"})
	runner := NewRunner(client, fastPolicy(), logger.NewNoOpLogger())

	resp := Run[models.ResearchOutput](context.Background(), runner, echoWorker{}, testTask(), testContext())

	assert.Equal(t, models.StatusSuccess, resp.Status)
	assert.Equal(t, 2, resp.Usage.Attempts)
	assert.Equal(t, 2, client.Calls())
}

func TestRun_CachedClientRetriesPastRejectedReply(t *testing.T) {
	mr := miniredis.RunT(t)
	store := cache.Wrap(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute, "test:")
	inner := llm.NewScripted().On("lodging", llm.Reply{Text: "sorry, I cannot help"}, llm.Reply{Text: "ok:A,B"})
	runner := NewRunner(llm.WithCache(inner, store, logger.NewNoOpLogger()), fastPolicy(), logger.NewNoOpLogger())

	resp := Run[models.ResearchOutput](context.Background(), runner, echoWorker{}, testTask(), testContext())

	require.Equal(t, models.StatusSuccess, resp.Status, "fallback: %s", resp.FallbackReason)
	assert.Len(t, resp.Data.Recommendations, 2)
	assert.Equal(t, 2, resp.Usage.Attempts)
	assert.Equal(t, 0, resp.Usage.CachedCalls)
	assert.Equal(t, 2, inner.Calls())

	again := Run[models.ResearchOutput](context.Background(), runner, echoWorker{}, testTask(), testContext())

	require.Equal(t, models.StatusSuccess, again.Status)
	assert.Len(t, again.Data.Recommendations, 2)
	assert.Equal(t, 1, again.Usage.CachedCalls)
	assert.Equal(t, 2, inner.Calls(), "accepted reply is served from the cache")
}

func TestRun_RejectedReplyIsNotCached(t *testing.T) {
	mr := miniredis.RunT(t)
	store := cache.Wrap(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute, "test:")
	inner := llm.NewScripted().On("lodging", llm.Reply{Text: "garbage"})
	runner := NewRunner(llm.WithCache(inner, store, logger.NewNoOpLogger()), fastPolicy(), logger.NewNoOpLogger())

	resp := Run[models.ResearchOutput](context.Background(), runner, echoWorker{}, testTask(), testContext())
	assert.Equal(t, models.StatusPartial, resp.Status)
	assert.Equal(t, 2, inner.Calls())
	assert.Empty(t, mr.Keys())
}

func TestRun_FailingEveryAttemptFallsBack(t *testing.T) {
	tests := []struct {
		name      string
		kind      apperrors.ProviderErrorKind
		wantCalls int
		wantCode  string
	}{
		{"rate limit retried", apperrors.ProviderRateLimit, 2, string(apperrors.ErrCodeProviderRateLimit)},
		{"server error retried", apperrors.ProviderServerError, 2, string(apperrors.ErrCodeProviderServerError)},
		{"auth not retried", apperrors.ProviderAuth, 1, string(apperrors.ErrCodeProviderAuth)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := llm.AlwaysFail(tt.kind)
			runner := NewRunner(client, fastPolicy(), logger.NewNoOpLogger())

			resp := Run[models.ResearchOutput](context.Background(), runner, echoWorker{}, testTask(), testContext())

			assert.Equal(t, models.StatusPartial, resp.Status)
			assert.NotEmpty(t, resp.FallbackReason)
			assert.LessOrEqual(t, resp.Confidence, 0.5)
			require.NotNil(t, resp.Data)
			require.NotEmpty(t, resp.Data.Recommendations)
			assert.Equal(t, models.SourceFallback, resp.Data.Recommendations[0].Source)
			assert.Equal(t, 75, resp.Data.Recommendations[0].PersonaFit)
			assert.Equal(t, tt.wantCode, resp.ErrorCode)
			assert.Equal(t, tt.wantCalls, client.Calls())
		})
	}
}

func TestRun_WorkerTimeout(t *testing.T) {
	client := llm.NewScripted().Otherwise(llm.Reply{Text: "ok:A", Delay: time.Second})
	policy := fastPolicy()
	policy.Timeout = 30 * time.Millisecond
	runner := NewRunner(client, policy, logger.NewNoOpLogger())

	start := time.Now()
	resp := Run[models.ResearchOutput](context.Background(), runner, echoWorker{}, testTask(), testContext())

	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, models.StatusPartial, resp.Status)
	assert.Equal(t, string(apperrors.ErrCodeWorkerTimeout), resp.ErrorCode)
}

func TestRun_RunCancelled(t *testing.T) {
	client := llm.NewScripted().Otherwise(llm.Reply{Text: "ok:A", Delay: time.Second})
	runner := NewRunner(client, fastPolicy(), logger.NewNoOpLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resp := Run[models.ResearchOutput](ctx, runner, echoWorker{}, testTask(), testContext())
	assert.Equal(t, models.StatusPartial, resp.Status)
	assert.Equal(t, string(apperrors.ErrCodeRunCancelled), resp.ErrorCode)
}

func TestExecuteWithRetry(t *testing.T) {
	policy := Policy{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond}

	t.Run("stops at budget and returns last error", func(t *testing.T) {
		calls := 0
		_, attempts, err := ExecuteWithRetry(context.Background(), policy, func(context.Context, int) (int, error) {
			calls++
			return 0, apperrors.NewProviderError(apperrors.ProviderServerError, 503, "call "+string(rune('0'+calls)), nil)
		})
		require.Error(t, err)
		assert.Equal(t, 3, attempts)
		assert.Equal(t, 3, calls)
		assert.Contains(t, err.Error(), "call 3")
	})

	t.Run("non-retryable stops immediately", func(t *testing.T) {
		_, attempts, err := ExecuteWithRetry(context.Background(), policy, func(context.Context, int) (int, error) {
			return 0, errors.New("boom")
		})
		require.Error(t, err)
		assert.Equal(t, 1, attempts)
	})

	t.Run("returns first success", func(t *testing.T) {
		got, attempts, err := ExecuteWithRetry(context.Background(), policy, func(_ context.Context, attempt int) (int, error) {
			if attempt < 2 {
				return 0, apperrors.NewParseError("bad", "", nil)
			}
			return 42, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 42, got)
		assert.Equal(t, 2, attempts)
	})
}

func TestPolicy_Backoff(t *testing.T) {
	p := Policy{InitialBackoff: 100 * time.Millisecond, MaxBackoff: 300 * time.Millisecond}
	assert.Equal(t, time.Duration(0), p.Backoff(1))
	assert.Equal(t, 100*time.Millisecond, p.Backoff(2))
	assert.Equal(t, 200*time.Millisecond, p.Backoff(3))
	assert.Equal(t, 300*time.Millisecond, p.Backoff(4))
}

func TestTieredConfidence(t *testing.T) {
	tests := []struct {
		count int
		want  float64
	}{
		{0, 0.3},
		{1, 0.7},
		{2, 0.7},
		{3, 0.8},
		{5, 0.9},
		{12, 0.9},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, TieredConfidence(tt.count, nil), 1e-9, "count %d", tt.count)
	}

	assert.InDelta(t, MaxConfidence, TieredConfidence(3, []Tier{{MinCount: 1, Score: 1.5}}), 1e-9)
}

func TestBuildFallbackResponse_NilData(t *testing.T) {
	resp := BuildFallbackResponse[models.ResearchOutput](nil, "nothing", errors.New("x"))
	assert.Equal(t, models.StatusFailed, resp.Status)
	assert.Zero(t, resp.Confidence)
	assert.Equal(t, "nothing", resp.FallbackReason)
}

func TestDedupeByName(t *testing.T) {
	recs := []models.Recommendation{{Name: " Alpha "}, {Name: "alpha"}, {Name: ""}, {Name: "Beta"}}
	got := DedupeByName(recs)
	require.Len(t, got, 2)
	assert.Equal(t, "Alpha", got[0].Name)
	assert.Equal(t, "Beta", got[1].Name)
}
