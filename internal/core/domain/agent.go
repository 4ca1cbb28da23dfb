package domain

import "time"

// Role identifies the author of an utterance.
type Role string

// Conversation roles.
const (
	// RoleUser is the human side of the conversation.
	RoleUser Role = "user"

	// RoleAssistant is the agent side of the conversation.
	RoleAssistant Role = "assistant"

	// RoleSystem carries instructions to the model, never shown to users.
	RoleSystem Role = "system"
)

// HistoryWindow is the number of trailing utterances the agent keeps when
// building a planning prompt. Callers are expected to bound history
// themselves; the agent re-truncates defensively.
const HistoryWindow = 10

// Utterance is a single message in a conversation.
// Immutable once recorded.
type Utterance struct {
	// Role is who authored the message.
	Role Role

	// Content is the message text.
	Content string

	// Timestamp is when the utterance was recorded.
	Timestamp time.Time
}

// Conversation is a bounded rolling window of utterances, most-recent-last.
type Conversation struct {
	window int
	turns  []Utterance
}

// NewConversation creates a conversation capped at the given window size.
// A non-positive window defaults to HistoryWindow.
func NewConversation(window int) *Conversation {
	if window <= 0 {
		window = HistoryWindow
	}
	return &Conversation{window: window}
}

// Append records an utterance, dropping the oldest entries beyond the window.
func (c *Conversation) Append(u Utterance) {
	c.turns = append(c.turns, u)
	if len(c.turns) > c.window {
		c.turns = c.turns[len(c.turns)-c.window:]
	}
}

// Turns returns a copy of the current window, oldest first.
func (c *Conversation) Turns() []Utterance {
	out := make([]Utterance, len(c.turns))
	copy(out, c.turns)
	return out
}

// Len returns the number of retained utterances.
func (c *Conversation) Len() int {
	return len(c.turns)
}

// TruncateHistory bounds a caller-supplied history slice to the last n turns.
// The input slice is not modified.
func TruncateHistory(history []Utterance, n int) []Utterance {
	if n <= 0 || len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}

// ToolOutcome is the result of executing one tool call.
// Produced once per call, never mutated.
type ToolOutcome struct {
	// Tool is the name of the tool that produced this outcome.
	Tool Tool

	// Success indicates whether the tool completed its work.
	Success bool

	// Kind tags the outcome for rendering and summarisation
	// (e.g. "todo_created", "expense_stats", "error").
	Kind string

	// Data is the tool-specific payload, if any.
	Data any

	// Message is a human-readable description of what happened.
	Message string
}

// ErrorOutcome builds a failed outcome for the given tool.
func ErrorOutcome(tool Tool, message string) ToolOutcome {
	return ToolOutcome{Tool: tool, Success: false, Kind: "error", Message: message}
}

// AgentResponse is the final product of one agent turn.
type AgentResponse struct {
	// Message is the assistant's reply text.
	Message string

	// Outcomes lists the tool results for this turn, in plan order.
	// Empty when the reply was pure prose.
	Outcomes []ToolOutcome

	// Suggestions are up to three follow-up utterances.
	Suggestions []string

	// Timestamp is when the response was produced.
	Timestamp time.Time
}

// Plan is the parsed result of a planning call: either prose, or a list of
// tool calls. Any parse ambiguity resolves to a prose plan.
type Plan struct {
	// Text is the raw model reply, used verbatim when no tools are called.
	Text string

	// Calls is the list of proposed tool invocations. Empty means prose.
	Calls []ToolCall
}

// IsProse returns true when the plan carries no tool calls.
func (p Plan) IsProse() bool {
	return len(p.Calls) == 0
}
