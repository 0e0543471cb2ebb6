// internal/models/itinerary.go
package models

import "time"

type RunPhase string

const (
	PhaseInitialized      RunPhase = "initialized"
	PhaseContextBuilt     RunPhase = "context_built"
	PhaseResearchInFlight RunPhase = "research_in_flight"
	PhaseValidating       RunPhase = "validating"
	PhaseAssembling       RunPhase = "assembling"
	PhaseComplete         RunPhase = "complete"
	PhaseFailed           RunPhase = "failed"
)

func (p RunPhase) Terminal() bool {
	return p == PhaseComplete || p == PhaseFailed
}

type Itinerary struct {
	Destination  string           `json:"destination"`
	DurationDays int              `json:"durationDays"`
	Days         []ItineraryDay   `json:"days"`
	Lodging      []Recommendation `json:"lodging"`
	PersonaNotes []string         `json:"personaNotes,omitempty"`
}

type ItineraryDay struct {
	Day        int        `json:"day"`
	Theme      string     `json:"theme"`
	Activities []Activity `json:"activities"`
	Meals      []Meal     `json:"meals"`
}

type Activity struct {
	TimeOfDay   string `json:"timeOfDay"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type Meal struct {
	MealType     MealType `json:"mealType"`
	Name         string   `json:"name"`
	Cuisine      string   `json:"cuisine,omitempty"`
	Neighborhood string   `json:"neighborhood,omitempty"`
	PriceTier    string   `json:"priceTier,omitempty"`
}

type CostSummary struct {
	PromptTokens     int     `json:"promptTokens"`
	CompletionTokens int     `json:"completionTokens"`
	TotalTokens      int     `json:"totalTokens"`
	Calls            int     `json:"calls"`
	CachedCalls      int     `json:"cachedCalls,omitempty"`
	EstimatedCostUSD float64 `json:"estimatedCostUsd"`
}

type MessageKind string

const (
	MessageTask     MessageKind = "task"
	MessageResponse MessageKind = "response"
	MessageStatus   MessageKind = "status"
	MessageWarning  MessageKind = "warning"
	MessageError    MessageKind = "error"
)

// ConversationMessage is one diagnostic entry between the orchestrator and a worker.
type ConversationMessage struct {
	Seq       int                    `json:"seq"`
	Timestamp time.Time              `json:"timestamp"`
	From      string                 `json:"from"`
	To        string                 `json:"to"`
	Kind      MessageKind            `json:"kind"`
	Summary   string                 `json:"summary"`
	Status    AgentStatus            `json:"status,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

type RunError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

type OrchestrationResult struct {
	RunID              string                                       `json:"runId"`
	Success            bool                                         `json:"success"`
	Phase              RunPhase                                     `json:"phase"`
	Persona            *PersonaProfile                              `json:"persona,omitempty"`
	Itinerary          *Itinerary                                   `json:"itinerary,omitempty"`
	RawResearch        map[WorkerType]AgentResponse[ResearchOutput] `json:"rawResearch"`
	ValidationReport   *ValidationReport                            `json:"validationReport,omitempty"`
	Confidence         float64                                      `json:"confidence"`
	Costs              CostSummary                                  `json:"costs"`
	ConversationLog    []ConversationMessage                        `json:"conversationLog"`
	TotalExecutionTime time.Duration                                `json:"totalExecutionTime"`
	Error              *RunError                                    `json:"error,omitempty"`
}
