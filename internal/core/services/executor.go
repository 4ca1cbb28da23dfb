package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/workbench-cli/internal/core/domain"
	"github.com/custodia-labs/workbench-cli/internal/core/ports/driven"
	"github.com/custodia-labs/workbench-cli/internal/core/ports/driving"
	"github.com/custodia-labs/workbench-cli/internal/logger"
)

// Outcome kinds. The agent and the CLI renderers key off these tags.
const (
	OutcomeTodoCreated     = "todo_created"
	OutcomeExpenseCreated  = "expense_created"
	OutcomeNotesFound      = "notes_found"
	OutcomeNoteCreated     = "note_created"
	OutcomeWeatherInfo     = "weather_info"
	OutcomeTodoList        = "todo_list"
	OutcomeExpenseStats    = "expense_stats"
	OutcomeActionItems     = "action_items"
	OutcomePolishedText    = "polished_text"
	OutcomeTodosPostponed  = "todos_postponed"
	OutcomeDailyBriefing   = "daily_briefing"
	OutcomeExpenseAnalysis = "expense_analysis"
	OutcomeKnowledgeAnswer = "knowledge_answer"
)

// anomalyFactor flags an expense as unusual when it exceeds this multiple
// of its category's average.
const anomalyFactor = 2.0

// ragSourceLimit caps the notes fed into a knowledge base answer.
const ragSourceLimit = 3

// ExecutorDeps wires the collaborators a ToolExecutor dispatches to.
type ExecutorDeps struct {
	Gateway     *ModelGateway
	Tasks       driven.TaskService
	Expenses    driven.ExpenseService
	Notes       driven.NoteStore
	Search      driving.NoteSearchService
	Weather     driven.WeatherService
	Clock       driven.Clock
	DefaultCity string
}

// ToolExecutor dispatches validated tool calls to their collaborators and
// converts every failure into a failed outcome. Execute never returns an
// error: the agent loop must keep going no matter what a single tool does.
type ToolExecutor struct {
	catalog *domain.Catalog
	deps    ExecutorDeps
}

// NewToolExecutor creates an executor over the given catalog and collaborators.
func NewToolExecutor(catalog *domain.Catalog, deps ExecutorDeps) *ToolExecutor {
	if deps.Clock == nil {
		deps.Clock = driven.SystemClock{}
	}
	return &ToolExecutor{catalog: catalog, deps: deps}
}

// Execute validates and runs one tool call. Validation happens before any
// collaborator is touched, so a rejected call has no side effects.
func (e *ToolExecutor) Execute(ctx context.Context, owner string, call domain.ToolCall) domain.ToolOutcome {
	if err := e.catalog.Validate(call); err != nil {
		logger.Warn("Rejected tool call %s: %v", call.Tool, err)
		return domain.ErrorOutcome(call.Tool, err.Error())
	}

	logger.Debug("Executing tool %s", call.Tool)

	switch call.Tool {
	case domain.ToolCreateTodo:
		return e.createTodo(ctx, owner, call)
	case domain.ToolCreateExpense:
		return e.createExpense(ctx, owner, call)
	case domain.ToolSearchNotes:
		return e.searchNotes(ctx, owner, call)
	case domain.ToolCreateNote:
		return e.createNote(ctx, owner, call)
	case domain.ToolGetWeather:
		return e.getWeather(ctx, call)
	case domain.ToolGetTodoList:
		return e.getTodoList(ctx, owner, call)
	case domain.ToolGetExpenseStats:
		return e.getExpenseStats(ctx, owner, call)
	case domain.ToolExtractActionItems:
		return e.extractActionItems(ctx, call)
	case domain.ToolPolishText:
		return e.polishText(ctx, call)
	case domain.ToolBatchPostponeTodos:
		return e.batchPostponeTodos(ctx, owner, call)
	case domain.ToolGetDailyBriefing:
		return e.getDailyBriefing(ctx, owner, call)
	case domain.ToolAnalyzeExpenses:
		return e.analyzeExpenseAnomalies(ctx, owner, call)
	case domain.ToolAskKnowledgeBase:
		return e.askKnowledgeBase(ctx, owner, call)
	}

	// Validate already rejected unknown names; this is unreachable unless
	// the catalog and this switch drift apart.
	return domain.ErrorOutcome(call.Tool, fmt.Sprintf("unknown tool: %s", call.Tool))
}

func (e *ToolExecutor) createTodo(ctx context.Context, owner string, call domain.ToolCall) domain.ToolOutcome {
	task := domain.Task{
		Title:       stringParam(call.Params, "title"),
		Description: stringParam(call.Params, "description"),
		Priority:    stringParamOr(call.Params, "priority", domain.PriorityMedium),
		Category:    stringParamOr(call.Params, "category", "daily"),
		Status:      domain.TaskStatusPending,
	}
	if when := parseWhen(stringParam(call.Params, "dueDate")); when != nil {
		task.DueDate = when
	}

	created, err := e.deps.Tasks.Create(ctx, owner, task)
	if err != nil {
		return domain.ErrorOutcome(call.Tool, err.Error())
	}

	return domain.ToolOutcome{
		Tool: call.Tool, Success: true, Kind: OutcomeTodoCreated, Data: created,
		Message: fmt.Sprintf("Created task %q", created.Title),
	}
}

func (e *ToolExecutor) createExpense(ctx context.Context, owner string, call domain.ToolCall) domain.ToolOutcome {
	amount, ok := numberParam(call.Params, "amount")
	if !ok || amount <= 0 {
		return domain.ErrorOutcome(call.Tool, "amount must be a positive number")
	}

	expense := domain.Expense{
		Amount:      amount,
		Category:    stringParam(call.Params, "category"),
		Description: stringParam(call.Params, "description"),
		Date:        e.deps.Clock.Now(),
	}
	if when := parseWhen(stringParam(call.Params, "date")); when != nil {
		expense.Date = *when
	}

	created, err := e.deps.Expenses.Create(ctx, owner, expense)
	if err != nil {
		return domain.ErrorOutcome(call.Tool, err.Error())
	}

	return domain.ToolOutcome{
		Tool: call.Tool, Success: true, Kind: OutcomeExpenseCreated, Data: created,
		Message: fmt.Sprintf("Recorded %.2f for %s", created.Amount, created.Category),
	}
}

func (e *ToolExecutor) searchNotes(ctx context.Context, owner string, call domain.ToolCall) domain.ToolOutcome {
	output, err := e.deps.Search.Search(ctx, owner, stringParam(call.Params, "query"))
	if err != nil {
		return domain.ErrorOutcome(call.Tool, err.Error())
	}

	message := fmt.Sprintf("Found %d matching notes", len(output.Results))
	if output.Degraded {
		message += " (similarity order, reranking unavailable)"
	}

	return domain.ToolOutcome{
		Tool: call.Tool, Success: true, Kind: OutcomeNotesFound, Data: output,
		Message: message,
	}
}

func (e *ToolExecutor) createNote(ctx context.Context, owner string, call domain.ToolCall) domain.ToolOutcome {
	note := domain.Note{
		Owner:   owner,
		Title:   stringParam(call.Params, "title"),
		Content: stringParam(call.Params, "content"),
		Tags:    splitTags(stringParam(call.Params, "tags")),
	}

	created, err := e.deps.Notes.Create(ctx, note)
	if err != nil {
		return domain.ErrorOutcome(call.Tool, err.Error())
	}

	// Indexing is best-effort: an unreachable embedding provider must not
	// fail the write. The note stays invisible to search until reindexed.
	if err := e.deps.Search.IndexNote(ctx, *created); err != nil {
		logger.Warn("Note %s saved but not indexed: %v", created.ID, err)
	}

	return domain.ToolOutcome{
		Tool: call.Tool, Success: true, Kind: OutcomeNoteCreated, Data: created,
		Message: fmt.Sprintf("Created note %q", created.Title),
	}
}

func (e *ToolExecutor) getWeather(ctx context.Context, call domain.ToolCall) domain.ToolOutcome {
	city := stringParam(call.Params, "city")

	summary, err := e.deps.Weather.GetSummary(ctx, city)
	if err != nil {
		return domain.ErrorOutcome(call.Tool, err.Error())
	}

	return domain.ToolOutcome{
		Tool: call.Tool, Success: true, Kind: OutcomeWeatherInfo, Data: summary,
		Message: fmt.Sprintf("Weather for %s retrieved", city),
	}
}

func (e *ToolExecutor) getTodoList(ctx context.Context, owner string, call domain.ToolCall) domain.ToolOutcome {
	filters := domain.TaskFilters{Priority: stringParam(call.Params, "priority")}
	if status := stringParam(call.Params, "status"); status != "" && status != "all" {
		filters.Status = status
	}

	tasks, err := e.deps.Tasks.List(ctx, owner, filters)
	if err != nil {
		return domain.ErrorOutcome(call.Tool, err.Error())
	}

	return domain.ToolOutcome{
		Tool: call.Tool, Success: true, Kind: OutcomeTodoList, Data: tasks,
		Message: fmt.Sprintf("You have %d tasks", len(tasks)),
	}
}

func (e *ToolExecutor) getExpenseStats(ctx context.Context, owner string, call domain.ToolCall) domain.ToolOutcome {
	stats, err := e.deps.Expenses.Stats(ctx, owner)
	if err != nil {
		return domain.ErrorOutcome(call.Tool, err.Error())
	}

	return domain.ToolOutcome{
		Tool: call.Tool, Success: true, Kind: OutcomeExpenseStats, Data: stats,
		Message: fmt.Sprintf("Spent %.2f this month", stats.MonthlyTotal),
	}
}

func (e *ToolExecutor) extractActionItems(ctx context.Context, call domain.ToolCall) domain.ToolOutcome {
	text := stringParam(call.Params, "text")

	prompt := "Extract the action items from the following text. " +
		"Reply with one item per line, each line starting with \"- \", and nothing else. " +
		"If there are no action items, reply with \"none\".\n\n" + text

	completion, err := e.deps.Gateway.Complete(ctx, []domain.Utterance{
		{Role: domain.RoleUser, Content: prompt},
	}, driven.ChatOptions{})
	if err != nil {
		return domain.ErrorOutcome(call.Tool, err.Error())
	}

	items := parseBulletLines(completion.Text)

	return domain.ToolOutcome{
		Tool: call.Tool, Success: true, Kind: OutcomeActionItems,
		Data:    map[string]any{"items": items, "raw": completion.Text},
		Message: fmt.Sprintf("Extracted %d action items", len(items)),
	}
}

func (e *ToolExecutor) polishText(ctx context.Context, call domain.ToolCall) domain.ToolOutcome {
	text := stringParam(call.Params, "text")

	styleDesc := map[string]string{
		"formal":         "formal",
		"casual":         "casual and friendly",
		"business_email": "professional business email",
		"report":         "structured report",
	}[stringParam(call.Params, "style")]
	if styleDesc == "" {
		styleDesc = "professional"
	}

	prompt := fmt.Sprintf(
		"Rewrite the following text in a %s style, keeping the original meaning. "+
			"Reply with the rewritten text only.\n\n%s", styleDesc, text)

	completion, err := e.deps.Gateway.Complete(ctx, []domain.Utterance{
		{Role: domain.RoleUser, Content: prompt},
	}, driven.ChatOptions{})
	if err != nil {
		return domain.ErrorOutcome(call.Tool, err.Error())
	}

	return domain.ToolOutcome{
		Tool: call.Tool, Success: true, Kind: OutcomePolishedText,
		Data:    map[string]any{"original": text, "polished": completion.Text},
		Message: "Text polished",
	}
}

func (e *ToolExecutor) batchPostponeTodos(ctx context.Context, owner string, call domain.ToolCall) domain.ToolOutcome {
	days, ok := numberParam(call.Params, "days")
	if !ok || days <= 0 {
		return domain.ErrorOutcome(call.Tool, "days must be a positive number")
	}

	filters := domain.TaskFilters{Status: domain.TaskStatusPending}
	if priority := stringParam(call.Params, "priority"); priority != "" && priority != "all" {
		filters.Priority = priority
	}

	tasks, err := e.deps.Tasks.List(ctx, owner, filters)
	if err != nil {
		return domain.ErrorOutcome(call.Tool, err.Error())
	}

	shift := time.Duration(days*24) * time.Hour
	postponed := 0
	for _, task := range tasks {
		if task.DueDate == nil {
			continue
		}
		due := task.DueDate.Add(shift)
		if _, err := e.deps.Tasks.Update(ctx, owner, task.ID, domain.TaskPatch{DueDate: &due}); err != nil {
			logger.Warn("Could not postpone task %s: %v", task.ID, err)
			continue
		}
		postponed++
	}

	return domain.ToolOutcome{
		Tool: call.Tool, Success: true, Kind: OutcomeTodosPostponed,
		Data:    map[string]any{"postponedCount": postponed, "days": int(days)},
		Message: fmt.Sprintf("Postponed %d tasks by %d days", postponed, int(days)),
	}
}

func (e *ToolExecutor) getDailyBriefing(ctx context.Context, owner string, call domain.ToolCall) domain.ToolOutcome {
	tasks, err := e.deps.Tasks.List(ctx, owner, domain.TaskFilters{Status: domain.TaskStatusPending})
	if err != nil {
		return domain.ErrorOutcome(call.Tool, err.Error())
	}

	stats, err := e.deps.Expenses.Stats(ctx, owner)
	if err != nil {
		return domain.ErrorOutcome(call.Tool, err.Error())
	}

	weatherLine := "weather unavailable"
	if summary, werr := e.deps.Weather.GetSummary(ctx, e.deps.DefaultCity); werr == nil {
		weatherLine = summary.Summary
	} else {
		logger.Warn("Briefing weather lookup failed: %v", werr)
	}

	now := e.deps.Clock.Now()
	today := now.Format("2006-01-02")
	var dueToday, highPriority, overdue int
	for _, task := range tasks {
		if task.Priority == domain.PriorityHigh {
			highPriority++
		}
		if task.DueDate == nil {
			continue
		}
		if task.DueDate.Format("2006-01-02") == today {
			dueToday++
		} else if task.DueDate.Before(now) {
			overdue++
		}
	}

	prompt := fmt.Sprintf(`Write a short, friendly daily briefing (3-5 lines) from this data:

Pending tasks: %d total
  - due today: %d
  - high priority: %d
  - overdue: %d

Spending this month: %.2f

Weather: %s

Summarise in a warm tone and add one or two suggestions.`,
		len(tasks), dueToday, highPriority, overdue, stats.MonthlyTotal, weatherLine)

	// Narration is decoration on top of the counts: if the model is away
	// the briefing still goes out, just without the friendly phrasing.
	briefing := ""
	completion, err := e.deps.Gateway.Complete(ctx, []domain.Utterance{
		{Role: domain.RoleUser, Content: prompt},
	}, driven.ChatOptions{})
	if err != nil {
		logger.Warn("Briefing narration failed, returning counts only: %v", err)
	} else {
		briefing = completion.Text
	}

	return domain.ToolOutcome{
		Tool: call.Tool, Success: true, Kind: OutcomeDailyBriefing,
		Data: map[string]any{
			"todoCount":         len(tasks),
			"dueTodayCount":     dueToday,
			"highPriorityCount": highPriority,
			"overdueCount":      overdue,
			"monthlyExpense":    stats.MonthlyTotal,
			"weather":           weatherLine,
			"briefing":          briefing,
		},
		Message: "Daily briefing ready",
	}
}

func (e *ToolExecutor) analyzeExpenseAnomalies(ctx context.Context, owner string, call domain.ToolCall) domain.ToolOutcome {
	stats, err := e.deps.Expenses.Stats(ctx, owner)
	if err != nil {
		return domain.ErrorOutcome(call.Tool, err.Error())
	}

	expenses, err := e.deps.Expenses.List(ctx, owner, domain.ExpenseFilters{})
	if err != nil {
		return domain.ErrorOutcome(call.Tool, err.Error())
	}

	categoryAvg := make(map[string]float64, len(stats.CategoryStats))
	for _, cs := range stats.CategoryStats {
		if cs.Count > 0 {
			categoryAvg[cs.Category] = cs.Total / float64(cs.Count)
		}
	}

	var anomalies []domain.Expense
	for _, exp := range expenses {
		avg, ok := categoryAvg[exp.Category]
		if ok && exp.Amount > avg*anomalyFactor {
			anomalies = append(anomalies, exp)
			if len(anomalies) == 5 {
				break
			}
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Analyze this spending and give brief advice (2-3 lines):\n\n")
	fmt.Fprintf(&b, "Total this month: %.2f\nBy category:\n", stats.MonthlyTotal)
	for _, cs := range stats.CategoryStats {
		fmt.Fprintf(&b, "- %s: %.2f (%d purchases)\n", cs.Category, cs.Total, cs.Count)
	}
	if len(anomalies) > 0 {
		b.WriteString("\nPossibly unusual purchases:\n")
		for _, a := range anomalies {
			fmt.Fprintf(&b, "- %.2f %s %s\n", a.Amount, a.Category, a.Description)
		}
	} else {
		b.WriteString("\nNo obviously unusual purchases.\n")
	}

	// Same contract as the briefing: the numbers stand on their own when
	// the narration call fails.
	analysis := ""
	completion, err := e.deps.Gateway.Complete(ctx, []domain.Utterance{
		{Role: domain.RoleUser, Content: b.String()},
	}, driven.ChatOptions{})
	if err != nil {
		logger.Warn("Spending analysis narration failed, returning stats only: %v", err)
	} else {
		analysis = completion.Text
	}

	message := "Spending looks normal"
	if len(anomalies) > 0 {
		message = fmt.Sprintf("Found %d possibly unusual purchases", len(anomalies))
	}

	return domain.ToolOutcome{
		Tool: call.Tool, Success: true, Kind: OutcomeExpenseAnalysis,
		Data: map[string]any{
			"monthlyTotal":  stats.MonthlyTotal,
			"categoryStats": stats.CategoryStats,
			"anomalies":     anomalies,
			"analysis":      analysis,
		},
		Message: message,
	}
}

func (e *ToolExecutor) askKnowledgeBase(ctx context.Context, owner string, call domain.ToolCall) domain.ToolOutcome {
	question := stringParam(call.Params, "question")

	output, err := e.deps.Search.Search(ctx, owner, question)
	if err != nil {
		return domain.ErrorOutcome(call.Tool, err.Error())
	}

	if len(output.Results) == 0 {
		return domain.ToolOutcome{
			Tool: call.Tool, Success: true, Kind: OutcomeKnowledgeAnswer,
			Data:    map[string]any{"answer": "Sorry, I couldn't find anything relevant in your notes.", "sources": []map[string]string{}},
			Message: "No relevant notes found",
		}
	}

	hits := output.Results
	if len(hits) > ragSourceLimit {
		hits = hits[:ragSourceLimit]
	}

	var contextB strings.Builder
	sources := make([]map[string]string, 0, len(hits))
	for i, hit := range hits {
		body := hit.Excerpt
		if note, gerr := e.deps.Notes.Get(ctx, owner, hit.NoteID); gerr == nil {
			body = note.Content
		}
		if i > 0 {
			contextB.WriteString("\n\n---\n\n")
		}
		fmt.Fprintf(&contextB, "[note %d] %s\n%s", i+1, hit.Title, body)
		sources = append(sources, map[string]string{"id": hit.NoteID, "title": hit.Title})
	}

	prompt := fmt.Sprintf(`Answer the user's question from the notes below. If the notes don't cover it, say so.

Question: %s

Notes:
%s

Give a concise, accurate answer and mention which note it came from.`, question, contextB.String())

	completion, err := e.deps.Gateway.Complete(ctx, []domain.Utterance{
		{Role: domain.RoleUser, Content: prompt},
	}, driven.ChatOptions{})
	if err != nil {
		return domain.ErrorOutcome(call.Tool, err.Error())
	}

	return domain.ToolOutcome{
		Tool: call.Tool, Success: true, Kind: OutcomeKnowledgeAnswer,
		Data:    map[string]any{"answer": completion.Text, "sources": sources},
		Message: fmt.Sprintf("Answered from %d notes", len(sources)),
	}
}

// stringParam returns the named parameter as a trimmed string, or "".
func stringParam(params map[string]any, name string) string {
	if s, ok := params[name].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// stringParamOr returns the named parameter or a fallback when absent.
func stringParamOr(params map[string]any, name, fallback string) string {
	if s := stringParam(params, name); s != "" {
		return s
	}
	return fallback
}

// numberParam returns the named parameter as a float64. JSON numbers decode
// as float64, but planning models occasionally quote them, so numeric
// strings are accepted too.
func numberParam(params map[string]any, name string) (float64, bool) {
	switch v := params[name].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}

// parseWhen parses the date formats planning models emit. Returns nil when
// the string is empty or unparseable.
func parseWhen(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	logger.Debug("Unparseable date %q, ignoring", s)
	return nil
}

// splitTags turns a comma-separated tag string into a clean slice.
func splitTags(s string) []string {
	if s == "" {
		return nil
	}
	var tags []string
	for _, tag := range strings.Split(s, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// parseBulletLines extracts "- item" lines from a model reply.
func parseBulletLines(text string) []string {
	var items []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "- ") {
			items = append(items, strings.TrimSpace(strings.TrimPrefix(line, "- ")))
		}
	}
	return items
}
