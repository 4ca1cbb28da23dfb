package services

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/custodia-labs/workbench-cli/internal/core/domain"
	"github.com/custodia-labs/workbench-cli/internal/core/ports/driven"
	"github.com/custodia-labs/workbench-cli/internal/logger"
)

// Temperatures for the two model calls in an agent turn. Planning wants
// reproducible tool selection; summarising wants natural phrasing.
const (
	planTemperature    = 0.3
	summaryTemperature = 0.7
)

// defaultSuggestions follow a prose reply, where no outcome hints at what
// the user might do next.
var defaultSuggestions = []string{"Create a task", "Record an expense", "Check the weather"}

// outcomeSuggestions maps successful outcome kinds to follow-up prompts.
var outcomeSuggestions = map[string][]string{
	OutcomeTodoCreated:    {"View my tasks", "Create another task"},
	OutcomeExpenseCreated: {"Show spending stats", "Record another expense"},
	OutcomeNoteCreated:    {"Search my notes", "Create another note"},
	OutcomeWeatherInfo:    {"Weather in another city", "Do I need an umbrella today"},
}

// fencedJSON matches a ```json ... ``` block in a model reply.
var fencedJSON = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")

// AgentOrchestrator runs the plan / execute / summarise loop behind one
// agent turn. Run never returns an error: whatever goes wrong, the user
// gets a reply.
type AgentOrchestrator struct {
	gateway  *ModelGateway
	catalog  *domain.Catalog
	executor *ToolExecutor
	clock    driven.Clock
	prompt   string
}

// NewAgentOrchestrator creates the orchestrator. The system prompt is
// rendered once from the catalog since the tool set is closed.
func NewAgentOrchestrator(gateway *ModelGateway, catalog *domain.Catalog, executor *ToolExecutor, clock driven.Clock) *AgentOrchestrator {
	if clock == nil {
		clock = driven.SystemClock{}
	}
	return &AgentOrchestrator{
		gateway:  gateway,
		catalog:  catalog,
		executor: executor,
		clock:    clock,
		prompt:   buildSystemPrompt(catalog),
	}
}

// Run executes one agent turn: ask the model for a plan, execute any tool
// calls concurrently, then summarise the results. Tool side effects that
// completed are always reported, even when later steps fail.
func (o *AgentOrchestrator) Run(ctx context.Context, owner, utterance string, history []domain.Utterance) (response domain.AgentResponse) {
	now := o.clock.Now()

	// Last resort: a panic anywhere below still yields a reply.
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Agent turn panicked: %v", r)
			response = domain.AgentResponse{
				Message:   "Sorry, something went wrong while handling your request. Please try again.",
				Timestamp: now,
			}
		}
	}()

	messages := make([]domain.Utterance, 0, domain.HistoryWindow+2)
	messages = append(messages, domain.Utterance{Role: domain.RoleSystem, Content: o.prompt})
	messages = append(messages, domain.TruncateHistory(history, domain.HistoryWindow)...)
	messages = append(messages, domain.Utterance{Role: domain.RoleUser, Content: utterance})

	completion, err := o.gateway.Complete(ctx, messages, driven.ChatOptions{Temperature: planTemperature})
	if err != nil {
		logger.Warn("Planning call failed: %v", err)
		return domain.AgentResponse{
			Message:   fmt.Sprintf("Sorry, I couldn't reach the model to handle your request: %v", err),
			Timestamp: now,
		}
	}

	plan := parsePlan(completion.Text)
	if plan.IsProse() {
		return domain.AgentResponse{
			Message:     plan.Text,
			Suggestions: defaultSuggestions,
			Timestamp:   now,
		}
	}

	logger.Debug("Plan has %d tool calls", len(plan.Calls))
	outcomes := o.executeAll(ctx, owner, plan.Calls)

	message := o.summarise(ctx, utterance, outcomes)

	return domain.AgentResponse{
		Message:     message,
		Outcomes:    outcomes,
		Suggestions: suggestionsFor(outcomes),
		Timestamp:   now,
	}
}

// executeAll fans the plan's tool calls out to the executor. Results land
// at the index of their call, so the response preserves plan order no
// matter which call finishes first.
func (o *AgentOrchestrator) executeAll(ctx context.Context, owner string, calls []domain.ToolCall) []domain.ToolOutcome {
	outcomes := make([]domain.ToolOutcome, len(calls))

	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(i int, call domain.ToolCall) {
			defer wg.Done()
			// A panicking tool must not take the whole turn down with it.
			defer func() {
				if r := recover(); r != nil {
					logger.Error("Tool %s panicked: %v", call.Tool, r)
					outcomes[i] = domain.ErrorOutcome(call.Tool, fmt.Sprintf("internal error: %v", r))
				}
			}()
			outcomes[i] = o.executor.Execute(ctx, owner, call)
		}(i, call)
	}
	wg.Wait()

	return outcomes
}

// summarise asks the model to phrase the tool results for the user. When
// that call fails the outcome messages are joined behind a short note about
// the missing summary: completed side effects must be reported even if the
// model went away mid-turn.
func (o *AgentOrchestrator) summarise(ctx context.Context, utterance string, outcomes []domain.ToolOutcome) string {
	var lines []string
	for _, outcome := range outcomes {
		marker := "ok"
		if !outcome.Success {
			marker = "failed"
		}
		lines = append(lines, fmt.Sprintf("[%s] %s: %s", marker, outcome.Tool, outcome.Message))
	}

	prompt := fmt.Sprintf(`User request: %q

Results:
%s

Give the user a short, friendly reply confirming what happened. If anything failed, explain why and suggest what to try.`,
		utterance, strings.Join(lines, "\n"))

	completion, err := o.gateway.Complete(ctx, []domain.Utterance{
		{Role: domain.RoleSystem, Content: "You are a friendly assistant. Reply concisely based on the tool results."},
		{Role: domain.RoleUser, Content: prompt},
	}, driven.ChatOptions{Temperature: summaryTemperature})
	if err != nil {
		logger.Warn("Summary call failed, replying with raw results: %v", err)
		var parts []string
		for _, outcome := range outcomes {
			parts = append(parts, outcome.Message)
		}
		return "I couldn't reach the model to phrase this, but here's what happened: " +
			strings.Join(parts, " ")
	}

	return completion.Text
}

// parsePlan interprets a planning reply. A well-formed tool_calls payload,
// fenced or bare, becomes a tool plan; everything else, including malformed
// JSON, is treated as prose and shown to the user verbatim.
func parsePlan(text string) domain.Plan {
	var payload struct {
		Thinking  string            `json:"thinking"`
		ToolCalls []domain.ToolCall `json:"tool_calls"`
	}

	candidate := ""
	if m := fencedJSON.FindStringSubmatch(text); m != nil {
		candidate = m[1]
	} else if trimmed := strings.TrimSpace(text); strings.HasPrefix(trimmed, "{") {
		candidate = trimmed
	}

	if candidate != "" {
		if err := json.Unmarshal([]byte(candidate), &payload); err == nil && len(payload.ToolCalls) > 0 {
			return domain.Plan{Text: text, Calls: payload.ToolCalls}
		}
	}

	return domain.Plan{Text: text}
}

// suggestionsFor derives up to three follow-up prompts from successful
// outcomes, deduplicated in encounter order.
func suggestionsFor(outcomes []domain.ToolOutcome) []string {
	var suggestions []string
	seen := make(map[string]bool)

	for _, outcome := range outcomes {
		if !outcome.Success {
			continue
		}
		for _, s := range outcomeSuggestions[outcome.Kind] {
			if seen[s] {
				continue
			}
			seen[s] = true
			suggestions = append(suggestions, s)
			if len(suggestions) == 3 {
				return suggestions
			}
		}
	}

	return suggestions
}

// buildSystemPrompt renders the planning instructions with the tool catalog
// inlined.
func buildSystemPrompt(catalog *domain.Catalog) string {
	return fmt.Sprintf(`You are the assistant of a personal productivity workbench. You help the user manage tasks, track expenses, keep notes and check the weather.

You can use these tools:
%s

When the user's request needs an action, reply with exactly this JSON format so the system can call the tools:
`+"```json"+`
{
  "thinking": "your reasoning",
  "tool_calls": [
    {
      "tool": "toolName",
      "params": { }
    }
  ]
}
`+"```"+`

If the request needs no tool (small talk, questions about your abilities), reply in plain natural language without JSON.

Rules:
1. Understand the intent precisely and pick the right tool.
2. Extract parameters from the user's own words.
3. Use ISO 8601 for date parameters.
4. Ask for clarification when information is missing.
5. You may call several tools at once.
6. Keep replies short and friendly.`, catalog.PromptSummary())
}
