// internal/models/agent.go
package models

import (
	"sort"
	"sync"
	"time"
)

type WorkerType string

const (
	WorkerDestination WorkerType = "destination"
	WorkerLodging     WorkerType = "lodging"
	WorkerDining      WorkerType = "dining"
	WorkerValidator   WorkerType = "validator"
)

type AgentStatus string

const (
	StatusSuccess AgentStatus = "success"
	StatusPartial AgentStatus = "partial"
	StatusFailed  AgentStatus = "failed"
)

type Category string

const (
	CategoryDestination Category = "destination"
	CategoryLodging     Category = "lodging"
	CategoryDining      Category = "dining"
)

type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealBrunch    MealType = "brunch"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
	MealSnack     MealType = "snack"
)

// Source records where a recommendation came from.
type Source string

const (
	SourceLLM      Source = "llm"
	SourceFallback Source = "fallback"
	SourceTextList Source = "text-list"
)

// Recommendation is immutable once a worker has returned it.
type Recommendation struct {
	Name           string              `json:"name"`
	Category       Category            `json:"category"`
	Description    string              `json:"description"`
	WhyRecommended string              `json:"whyRecommended,omitempty"`
	PersonaFit     int                 `json:"personaFit"`
	Location       string              `json:"location,omitempty"`
	Neighborhood   string              `json:"neighborhood,omitempty"`
	PriceTier      string              `json:"priceTier,omitempty"`
	MealTypes      []MealType          `json:"mealTypes,omitempty"`
	Cuisine        string              `json:"cuisine,omitempty"`
	Amenities      []string            `json:"amenities,omitempty"`
	LodgingType    string              `json:"lodgingType,omitempty"`
	Destination    *DestinationDetails `json:"destination,omitempty"`
	Source         Source              `json:"source"`
}

// HasMealType reports whether the dining recommendation serves meal m.
func (r Recommendation) HasMealType(m MealType) bool {
	for _, mt := range r.MealTypes {
		if mt == m {
			return true
		}
	}
	return false
}

type DestinationDetails struct {
	DistanceMiles     float64    `json:"distanceMiles,omitempty"`
	TravelTimeMinutes int        `json:"travelTimeMinutes,omitempty"`
	TravelMode        TravelMode `json:"travelMode,omitempty"`
	Highlights        []string   `json:"highlights,omitempty"`
	Attractions       []string   `json:"attractions,omitempty"`
	Vibe              string     `json:"vibe,omitempty"`
	PerfectFor        []string   `json:"perfectFor,omitempty"`
}

// ResearchOutput is one worker's full result for a run.
type ResearchOutput struct {
	Recommendations []Recommendation `json:"recommendations"`
	Confidence      float64          `json:"confidence"`
	Reasoning       string           `json:"reasoning,omitempty"`
	Warnings        []string         `json:"warnings,omitempty"`
}

// Usage accumulates LLM consumption for one worker invocation.
type Usage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
	Calls            int `json:"calls"`
	CachedCalls      int `json:"cachedCalls,omitempty"`
	Attempts         int `json:"attempts"`
}

func (u Usage) TotalTokens() int {
	return u.PromptTokens + u.CompletionTokens
}

func (u *Usage) Add(other Usage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.Calls += other.Calls
	u.CachedCalls += other.CachedCalls
	u.Attempts += other.Attempts
}

// AgentResponse is the envelope every worker returns. Data is nil only for failed responses.
type AgentResponse[T any] struct {
	Status         AgentStatus   `json:"status"`
	Data           *T            `json:"data"`
	Confidence     float64       `json:"confidence"`
	ExecutionTime  time.Duration `json:"executionTime"`
	FallbackReason string        `json:"fallbackReason,omitempty"`
	Error          string        `json:"error,omitempty"`
	ErrorCode      string        `json:"errorCode,omitempty"`
	Usage          Usage         `json:"usage"`
}

func (r AgentResponse[T]) IsFallback() bool {
	return r.FallbackReason != ""
}

type VerificationStatus string

const (
	Verified   VerificationStatus = "verified"
	Unverified VerificationStatus = "unverified"
	Flagged    VerificationStatus = "flagged"
)

type ValidationItem struct {
	Worker WorkerType         `json:"worker"`
	Name   string             `json:"name"`
	Status VerificationStatus `json:"status"`
	Notes  string             `json:"notes,omitempty"`
}

// ValidationReport annotates existing recommendations; it never adds new ones.
type ValidationReport struct {
	Items    []ValidationItem `json:"items"`
	Warnings []string         `json:"warnings,omitempty"`
	Coverage float64          `json:"coverage"`
	Summary  string           `json:"summary,omitempty"`
}

func (r ValidationReport) Count(status VerificationStatus) int {
	n := 0
	for _, item := range r.Items {
		if item.Status == status {
			n++
		}
	}
	return n
}

// Finding is what a settled worker leaves behind for later workers.
type Finding struct {
	Worker         WorkerType        `json:"worker"`
	Status         AgentStatus       `json:"status"`
	Research       *ResearchOutput   `json:"research,omitempty"`
	Validation     *ValidationReport `json:"validation,omitempty"`
	FallbackReason string            `json:"fallbackReason,omitempty"`
}

// AgentContext is owned by one orchestration run. DestinationCity and the findings map are
// guarded because lodging and dining read them while running concurrently.
type AgentContext struct {
	UserRequirements TravelRequirements
	PersonaProfile   PersonaProfile
	Constraints      TravelConstraints

	mu               sync.RWMutex
	destinationCity  string
	previousFindings map[WorkerType]Finding
}

func NewAgentContext(req TravelRequirements, persona PersonaProfile, constraints TravelConstraints) *AgentContext {
	return &AgentContext{
		UserRequirements: req,
		PersonaProfile:   persona,
		Constraints:      constraints,
		previousFindings: make(map[WorkerType]Finding),
	}
}

func (c *AgentContext) DestinationCity() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.destinationCity
}

func (c *AgentContext) SetDestinationCity(city string) {
	c.mu.Lock()
	c.destinationCity = city
	c.mu.Unlock()
}

// RecordFinding stores a settled worker's output. Entries are append-only: a second record
// for the same worker is rejected and reported as false.
func (c *AgentContext) RecordFinding(f Finding) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.previousFindings[f.Worker]; exists {
		return false
	}
	c.previousFindings[f.Worker] = f
	return true
}

func (c *AgentContext) Finding(worker WorkerType) (Finding, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	f, ok := c.previousFindings[worker]
	return f, ok
}

// Findings returns a snapshot ordered by worker name.
func (c *AgentContext) Findings() []Finding {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Finding, 0, len(c.previousFindings))
	for _, f := range c.previousFindings {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Worker < out[j].Worker })
	return out
}

type TaskPriority int

const (
	PriorityHigh   TaskPriority = 1
	PriorityMedium TaskPriority = 2
	PriorityLow    TaskPriority = 3
)

// TaskSpecification is created fresh for every worker call.
type TaskSpecification struct {
	ID             string       `json:"id"`
	Worker         WorkerType   `json:"worker"`
	Priority       TaskPriority `json:"priority"`
	Description    string       `json:"description"`
	Constraints    []string     `json:"constraints,omitempty"`
	ExpectedOutput string       `json:"expectedOutput,omitempty"`
	Input          TaskInput    `json:"input"`
}

// TaskInput is a closed union: only the input types declared in this package implement it.
type TaskInput interface {
	targetWorker() WorkerType
}

// TargetOf names the worker an input is addressed to.
func TargetOf(input TaskInput) WorkerType {
	if input == nil {
		return ""
	}
	return input.targetWorker()
}

type DestinationInput struct {
	Origin        string             `json:"origin"`
	TravelModes   []TravelMode       `json:"travelModes,omitempty"`
	MaxTravelTime map[TravelMode]int `json:"maxTravelTime,omitempty"`
	MinResults    int                `json:"minResults"`
	MaxResults    int                `json:"maxResults"`
}

func (DestinationInput) targetWorker() WorkerType { return WorkerDestination }

type LodgingInput struct {
	Destination string `json:"destination"`
	Nights      int    `json:"nights"`
	PartySize   int    `json:"partySize"`
}

func (LodgingInput) targetWorker() WorkerType { return WorkerLodging }

type DiningInput struct {
	Destination  string `json:"destination"`
	Days         int    `json:"days"`
	MinBreakfast int    `json:"minBreakfast"`
	MinDinner    int    `json:"minDinner"`
}

func (DiningInput) targetWorker() WorkerType { return WorkerDining }

type ValidationInput struct {
	Workers []WorkerType `json:"workers"`
}

func (ValidationInput) targetWorker() WorkerType { return WorkerValidator }
