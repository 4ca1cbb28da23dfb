package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Tool identifies a callable action in the catalog. The set is closed:
// the executor switches exhaustively over these values and refuses
// anything else.
type Tool string

// The tool catalog.
const (
	ToolCreateTodo         Tool = "createTodo"
	ToolCreateExpense      Tool = "createExpense"
	ToolSearchNotes        Tool = "searchNotes"
	ToolCreateNote         Tool = "createNote"
	ToolGetWeather         Tool = "getWeather"
	ToolGetTodoList        Tool = "getTodoList"
	ToolGetExpenseStats    Tool = "getExpenseStats"
	ToolExtractActionItems Tool = "extractActionItems"
	ToolPolishText         Tool = "polishText"
	ToolBatchPostponeTodos Tool = "batchPostponeTodos"
	ToolGetDailyBriefing   Tool = "getDailyBriefing"
	ToolAnalyzeExpenses    Tool = "analyzeExpenseAnomalies"
	ToolAskKnowledgeBase   Tool = "askKnowledgeBase"
)

// String returns the string representation.
func (t Tool) String() string {
	return string(t)
}

// ParamSpec describes one tool parameter.
type ParamSpec struct {
	// Type is the JSON type of the parameter ("string", "number").
	Type string

	// Description explains the parameter to the model.
	Description string

	// Enum restricts the parameter to a fixed set of values, if non-empty.
	Enum []string
}

// ToolDefinition declares a tool to the planning model: its name, a
// plain-language description, and a typed parameter schema. Definitions are
// built once at process start and never mutated; the description is fed to
// the model verbatim, so ambiguity here directly degrades planning quality.
type ToolDefinition struct {
	// Name is the unique tool identifier.
	Name Tool

	// Description tells the model when to call this tool.
	Description string

	// Parameters maps parameter name to its spec.
	Parameters map[string]ParamSpec

	// Required lists parameter names that must be present in a call.
	Required []string
}

// ToolCall is a proposed invocation emitted by the planning step. It is not
// guaranteed to reference a known tool or satisfy the schema; Catalog.Validate
// must pass before execution.
type ToolCall struct {
	// Tool is the requested tool name.
	Tool Tool `json:"tool"`

	// Params maps parameter name to value.
	Params map[string]any `json:"params"`
}

// Catalog is the closed, read-only set of tool definitions.
// Built once at process start; safe for concurrent reads without locking.
type Catalog struct {
	defs  map[Tool]ToolDefinition
	order []Tool
}

// NewCatalog builds a catalog from the given definitions, preserving order.
func NewCatalog(defs ...ToolDefinition) *Catalog {
	c := &Catalog{defs: make(map[Tool]ToolDefinition, len(defs))}
	for _, d := range defs {
		if _, exists := c.defs[d.Name]; exists {
			continue
		}
		c.defs[d.Name] = d
		c.order = append(c.order, d.Name)
	}
	return c
}

// Get returns the definition for a tool name.
func (c *Catalog) Get(name Tool) (ToolDefinition, bool) {
	d, ok := c.defs[name]
	return d, ok
}

// Names returns the tool names in declaration order.
func (c *Catalog) Names() []Tool {
	out := make([]Tool, len(c.order))
	copy(out, c.order)
	return out
}

// Len returns the number of tools in the catalog.
func (c *Catalog) Len() int {
	return len(c.order)
}

// Validate checks a tool call against the catalog: the tool must exist and
// every required parameter must be present and non-empty.
func (c *Catalog) Validate(call ToolCall) error {
	def, ok := c.defs[call.Tool]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTool, call.Tool)
	}

	var missing []string
	for _, name := range def.Required {
		v, present := call.Params[name]
		if !present || v == nil {
			missing = append(missing, name)
			continue
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			missing = append(missing, name)
		}
	}

	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("%w: %s requires %s",
			ErrInvalidToolParams, call.Tool, strings.Join(missing, ", "))
	}

	return nil
}

// PromptSummary renders the catalog as "name: description" lines for the
// planning prompt.
func (c *Catalog) PromptSummary() string {
	var b strings.Builder
	for _, name := range c.order {
		b.WriteString("- ")
		b.WriteString(string(name))
		b.WriteString(": ")
		b.WriteString(c.defs[name].Description)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
