package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/workbench-cli/internal/core/domain"
)

type fakeTaskService struct {
	created []domain.Task
	listed  []domain.Task
	patches map[string]domain.TaskPatch
	err     error
}

func (f *fakeTaskService) Create(ctx context.Context, owner string, task domain.Task) (*domain.Task, error) {
	if f.err != nil {
		return nil, f.err
	}
	task.ID = "task-1"
	task.Owner = owner
	f.created = append(f.created, task)
	return &task, nil
}

func (f *fakeTaskService) List(ctx context.Context, owner string, filters domain.TaskFilters) ([]domain.Task, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.Task
	for _, t := range f.listed {
		if filters.Status != "" && t.Status != filters.Status {
			continue
		}
		if filters.Priority != "" && t.Priority != filters.Priority {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeTaskService) Update(ctx context.Context, owner, id string, patch domain.TaskPatch) (*domain.Task, error) {
	if f.patches == nil {
		f.patches = make(map[string]domain.TaskPatch)
	}
	f.patches[id] = patch
	return &domain.Task{ID: id}, nil
}

type fakeExpenseService struct {
	created []domain.Expense
	listed  []domain.Expense
	stats   domain.ExpenseStats
	err     error
}

func (f *fakeExpenseService) Create(ctx context.Context, owner string, expense domain.Expense) (*domain.Expense, error) {
	if f.err != nil {
		return nil, f.err
	}
	expense.ID = "exp-1"
	expense.Owner = owner
	f.created = append(f.created, expense)
	return &expense, nil
}

func (f *fakeExpenseService) List(ctx context.Context, owner string, filters domain.ExpenseFilters) ([]domain.Expense, error) {
	return f.listed, f.err
}

func (f *fakeExpenseService) Stats(ctx context.Context, owner string) (*domain.ExpenseStats, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &f.stats, nil
}

type fakeSearchService struct {
	output   *domain.NoteSearchOutput
	err      error
	indexed  []string
	indexErr error
	queries  []string
}

func (f *fakeSearchService) Search(ctx context.Context, owner, query string) (*domain.NoteSearchOutput, error) {
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	if f.output == nil {
		return &domain.NoteSearchOutput{}, nil
	}
	return f.output, nil
}

func (f *fakeSearchService) IndexNote(ctx context.Context, note domain.Note) error {
	if f.indexErr != nil {
		return f.indexErr
	}
	f.indexed = append(f.indexed, note.ID)
	return nil
}

type fakeWeatherService struct {
	summary *domain.WeatherSummary
	err     error
	cities  []string
}

func (f *fakeWeatherService) GetSummary(ctx context.Context, city string) (*domain.WeatherSummary, error) {
	f.cities = append(f.cities, city)
	if f.err != nil {
		return nil, f.err
	}
	return f.summary, nil
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type executorFixture struct {
	executor *ToolExecutor
	tasks    *fakeTaskService
	expenses *fakeExpenseService
	notes    *fakeNoteStore
	search   *fakeSearchService
	weather  *fakeWeatherService
	llm      *stubLLM
}

func newExecutorFixture() *executorFixture {
	f := &executorFixture{
		tasks:    &fakeTaskService{},
		expenses: &fakeExpenseService{},
		notes:    &fakeNoteStore{},
		search:   &fakeSearchService{},
		weather:  &fakeWeatherService{summary: &domain.WeatherSummary{Summary: "Sunny, 22 degrees"}},
		llm:      &stubLLM{reply: "model reply"},
	}
	f.executor = NewToolExecutor(BuildCatalog(), ExecutorDeps{
		Gateway:     NewModelGateway(f.llm, nil, nil),
		Tasks:       f.tasks,
		Expenses:    f.expenses,
		Notes:       f.notes,
		Search:      f.search,
		Weather:     f.weather,
		Clock:       fixedClock{now: time.Date(2026, 1, 16, 12, 0, 0, 0, time.UTC)},
		DefaultCity: "Hangzhou",
	})
	return f
}

func TestExecute_UnknownToolRejected(t *testing.T) {
	f := newExecutorFixture()

	outcome := f.executor.Execute(context.Background(), "local", domain.ToolCall{
		Tool: "dropTables", Params: map[string]any{},
	})

	assert.False(t, outcome.Success)
	assert.Equal(t, "error", outcome.Kind)
	assert.Contains(t, outcome.Message, "dropTables")
}

func TestExecute_MissingRequiredParamHasNoSideEffects(t *testing.T) {
	f := newExecutorFixture()

	outcome := f.executor.Execute(context.Background(), "local", domain.ToolCall{
		Tool: domain.ToolCreateTodo, Params: map[string]any{"priority": "high"},
	})

	assert.False(t, outcome.Success)
	assert.Contains(t, outcome.Message, "title")
	assert.Empty(t, f.tasks.created)
}

func TestExecute_CreateTodoDefaults(t *testing.T) {
	f := newExecutorFixture()

	outcome := f.executor.Execute(context.Background(), "local", domain.ToolCall{
		Tool: domain.ToolCreateTodo, Params: map[string]any{"title": "Buy milk"},
	})

	require.True(t, outcome.Success)
	assert.Equal(t, OutcomeTodoCreated, outcome.Kind)
	require.Len(t, f.tasks.created, 1)
	assert.Equal(t, "Buy milk", f.tasks.created[0].Title)
	assert.Equal(t, domain.PriorityMedium, f.tasks.created[0].Priority)
	assert.Equal(t, "daily", f.tasks.created[0].Category)
	assert.Equal(t, domain.TaskStatusPending, f.tasks.created[0].Status)
}

func TestExecute_CreateTodoParsesDueDate(t *testing.T) {
	f := newExecutorFixture()

	outcome := f.executor.Execute(context.Background(), "local", domain.ToolCall{
		Tool: domain.ToolCreateTodo,
		Params: map[string]any{
			"title": "Submit report", "dueDate": "2026-01-16T15:00:00", "priority": "high",
		},
	})

	require.True(t, outcome.Success)
	require.Len(t, f.tasks.created, 1)
	require.NotNil(t, f.tasks.created[0].DueDate)
	assert.Equal(t, 15, f.tasks.created[0].DueDate.Hour())
}

func TestExecute_CreateExpense(t *testing.T) {
	f := newExecutorFixture()

	outcome := f.executor.Execute(context.Background(), "local", domain.ToolCall{
		Tool: domain.ToolCreateExpense,
		Params: map[string]any{
			"amount": 25.0, "category": "food", "description": "lunch",
		},
	})

	require.True(t, outcome.Success)
	assert.Equal(t, OutcomeExpenseCreated, outcome.Kind)
	require.Len(t, f.expenses.created, 1)
	assert.Equal(t, 25.0, f.expenses.created[0].Amount)
	assert.Equal(t, "food", f.expenses.created[0].Category)
	// Date defaults to now when the model didn't supply one.
	assert.Equal(t, 2026, f.expenses.created[0].Date.Year())
}

func TestExecute_CreateExpenseAcceptsQuotedAmount(t *testing.T) {
	f := newExecutorFixture()

	outcome := f.executor.Execute(context.Background(), "local", domain.ToolCall{
		Tool:   domain.ToolCreateExpense,
		Params: map[string]any{"amount": "25", "category": "food"},
	})

	require.True(t, outcome.Success)
	require.Len(t, f.expenses.created, 1)
	assert.Equal(t, 25.0, f.expenses.created[0].Amount)
}

func TestExecute_CreateExpenseRejectsNonPositiveAmount(t *testing.T) {
	f := newExecutorFixture()

	outcome := f.executor.Execute(context.Background(), "local", domain.ToolCall{
		Tool:   domain.ToolCreateExpense,
		Params: map[string]any{"amount": -3.0, "category": "food"},
	})

	assert.False(t, outcome.Success)
	assert.Empty(t, f.expenses.created)
}

func TestExecute_CollaboratorErrorBecomesFailedOutcome(t *testing.T) {
	f := newExecutorFixture()
	f.tasks.err = errors.New("storage offline")

	outcome := f.executor.Execute(context.Background(), "local", domain.ToolCall{
		Tool: domain.ToolCreateTodo, Params: map[string]any{"title": "x"},
	})

	assert.False(t, outcome.Success)
	assert.Equal(t, "error", outcome.Kind)
	assert.Contains(t, outcome.Message, "storage offline")
}

func TestExecute_SearchNotes(t *testing.T) {
	f := newExecutorFixture()
	f.search.output = &domain.NoteSearchOutput{Results: []domain.NoteSearchResult{
		{NoteID: "n1", Title: "Go tips", Score: 0.9},
	}}

	outcome := f.executor.Execute(context.Background(), "local", domain.ToolCall{
		Tool: domain.ToolSearchNotes, Params: map[string]any{"query": "go"},
	})

	require.True(t, outcome.Success)
	assert.Equal(t, OutcomeNotesFound, outcome.Kind)
	assert.Contains(t, outcome.Message, "1 matching")
	assert.Equal(t, []string{"go"}, f.search.queries)
}

func TestExecute_SearchNotesDegradedMention(t *testing.T) {
	f := newExecutorFixture()
	f.search.output = &domain.NoteSearchOutput{
		Results:  []domain.NoteSearchResult{{NoteID: "n1"}},
		Degraded: true,
	}

	outcome := f.executor.Execute(context.Background(), "local", domain.ToolCall{
		Tool: domain.ToolSearchNotes, Params: map[string]any{"query": "go"},
	})

	require.True(t, outcome.Success)
	assert.Contains(t, outcome.Message, "reranking unavailable")
}

func TestExecute_SearchNotesEmbeddingDownFails(t *testing.T) {
	f := newExecutorFixture()
	f.search.err = domain.ErrEmbeddingUnavailable

	outcome := f.executor.Execute(context.Background(), "local", domain.ToolCall{
		Tool: domain.ToolSearchNotes, Params: map[string]any{"query": "go"},
	})

	assert.False(t, outcome.Success)
	assert.Equal(t, "error", outcome.Kind)
}

func TestExecute_CreateNoteIndexes(t *testing.T) {
	f := newExecutorFixture()

	outcome := f.executor.Execute(context.Background(), "local", domain.ToolCall{
		Tool: domain.ToolCreateNote,
		Params: map[string]any{
			"title": "Meeting", "content": "Discussed Q1 roadmap", "tags": "work, planning",
		},
	})

	require.True(t, outcome.Success)
	assert.Equal(t, OutcomeNoteCreated, outcome.Kind)
	assert.Len(t, f.search.indexed, 1)

	created, ok := outcome.Data.(*domain.Note)
	require.True(t, ok)
	assert.Equal(t, []string{"work", "planning"}, created.Tags)
}

func TestExecute_CreateNoteSucceedsWhenIndexingFails(t *testing.T) {
	f := newExecutorFixture()
	f.search.indexErr = domain.ErrEmbeddingUnavailable

	outcome := f.executor.Execute(context.Background(), "local", domain.ToolCall{
		Tool:   domain.ToolCreateNote,
		Params: map[string]any{"title": "T", "content": "C"},
	})

	// Embedding is derived data; the write must not fail with it.
	assert.True(t, outcome.Success)
	assert.Equal(t, OutcomeNoteCreated, outcome.Kind)
}

func TestExecute_GetWeather(t *testing.T) {
	f := newExecutorFixture()

	outcome := f.executor.Execute(context.Background(), "local", domain.ToolCall{
		Tool: domain.ToolGetWeather, Params: map[string]any{"city": "Shanghai"},
	})

	require.True(t, outcome.Success)
	assert.Equal(t, OutcomeWeatherInfo, outcome.Kind)
	assert.Equal(t, []string{"Shanghai"}, f.weather.cities)
}

func TestExecute_GetTodoListAllStatusMeansNoFilter(t *testing.T) {
	f := newExecutorFixture()
	f.tasks.listed = []domain.Task{
		{ID: "1", Status: domain.TaskStatusPending},
		{ID: "2", Status: domain.TaskStatusCompleted},
	}

	outcome := f.executor.Execute(context.Background(), "local", domain.ToolCall{
		Tool: domain.ToolGetTodoList, Params: map[string]any{"status": "all"},
	})

	require.True(t, outcome.Success)
	tasks, ok := outcome.Data.([]domain.Task)
	require.True(t, ok)
	assert.Len(t, tasks, 2)
}

func TestExecute_GetExpenseStats(t *testing.T) {
	f := newExecutorFixture()
	f.expenses.stats = domain.ExpenseStats{MonthlyTotal: 321.5}

	outcome := f.executor.Execute(context.Background(), "local", domain.ToolCall{
		Tool: domain.ToolGetExpenseStats, Params: map[string]any{},
	})

	require.True(t, outcome.Success)
	assert.Equal(t, OutcomeExpenseStats, outcome.Kind)
	assert.Contains(t, outcome.Message, "321.50")
}

func TestExecute_ExtractActionItems(t *testing.T) {
	f := newExecutorFixture()
	f.llm.reply = "- Email the vendor\n- Book the meeting room\nSome trailing chatter"

	outcome := f.executor.Execute(context.Background(), "local", domain.ToolCall{
		Tool:   domain.ToolExtractActionItems,
		Params: map[string]any{"text": "meeting notes here"},
	})

	require.True(t, outcome.Success)
	assert.Equal(t, OutcomeActionItems, outcome.Kind)
	data := outcome.Data.(map[string]any)
	assert.Equal(t, []string{"Email the vendor", "Book the meeting room"}, data["items"])
}

func TestExecute_PolishText(t *testing.T) {
	f := newExecutorFixture()
	f.llm.reply = "Dear team, please find attached..."

	outcome := f.executor.Execute(context.Background(), "local", domain.ToolCall{
		Tool:   domain.ToolPolishText,
		Params: map[string]any{"text": "send the doc", "style": "business_email"},
	})

	require.True(t, outcome.Success)
	assert.Equal(t, OutcomePolishedText, outcome.Kind)
	data := outcome.Data.(map[string]any)
	assert.Equal(t, "send the doc", data["original"])
	assert.Equal(t, "Dear team, please find attached...", data["polished"])
}

func TestExecute_BatchPostponeShiftsOnlyDatedTasks(t *testing.T) {
	f := newExecutorFixture()
	due := time.Date(2026, 1, 20, 9, 0, 0, 0, time.UTC)
	f.tasks.listed = []domain.Task{
		{ID: "dated", Status: domain.TaskStatusPending, Priority: domain.PriorityLow, DueDate: &due},
		{ID: "undated", Status: domain.TaskStatusPending, Priority: domain.PriorityLow},
	}

	outcome := f.executor.Execute(context.Background(), "local", domain.ToolCall{
		Tool:   domain.ToolBatchPostponeTodos,
		Params: map[string]any{"days": 3.0, "priority": "low"},
	})

	require.True(t, outcome.Success)
	assert.Equal(t, OutcomeTodosPostponed, outcome.Kind)

	data := outcome.Data.(map[string]any)
	assert.Equal(t, 1, data["postponedCount"])

	patch, ok := f.tasks.patches["dated"]
	require.True(t, ok)
	require.NotNil(t, patch.DueDate)
	assert.Equal(t, due.Add(72*time.Hour), *patch.DueDate)
	_, undatedPatched := f.tasks.patches["undated"]
	assert.False(t, undatedPatched)
}

func TestExecute_DailyBriefingSurvivesWeatherFailure(t *testing.T) {
	f := newExecutorFixture()
	f.weather.err = errors.New("geocoding down")
	f.tasks.listed = []domain.Task{
		{ID: "1", Status: domain.TaskStatusPending, Priority: domain.PriorityHigh},
	}
	f.llm.reply = "Good morning! One high priority task today."

	outcome := f.executor.Execute(context.Background(), "local", domain.ToolCall{
		Tool: domain.ToolGetDailyBriefing, Params: map[string]any{},
	})

	require.True(t, outcome.Success)
	assert.Equal(t, OutcomeDailyBriefing, outcome.Kind)

	data := outcome.Data.(map[string]any)
	assert.Equal(t, "weather unavailable", data["weather"])
	assert.Equal(t, 1, data["highPriorityCount"])
	assert.Equal(t, "Good morning! One high priority task today.", data["briefing"])
}

func TestExecute_DailyBriefingSurvivesNarrationFailure(t *testing.T) {
	f := newExecutorFixture()
	f.llm.err = errors.New("provider down")
	f.tasks.listed = []domain.Task{
		{ID: "1", Status: domain.TaskStatusPending, Priority: domain.PriorityHigh},
	}
	f.expenses.stats = domain.ExpenseStats{MonthlyTotal: 120}

	outcome := f.executor.Execute(context.Background(), "local", domain.ToolCall{
		Tool: domain.ToolGetDailyBriefing, Params: map[string]any{},
	})

	require.True(t, outcome.Success)
	assert.Equal(t, OutcomeDailyBriefing, outcome.Kind)

	// The counts still go out, only the phrasing is missing.
	data := outcome.Data.(map[string]any)
	assert.Equal(t, "", data["briefing"])
	assert.Equal(t, 1, data["todoCount"])
	assert.Equal(t, 1, data["highPriorityCount"])
	assert.Equal(t, 120.0, data["monthlyExpense"])
}

func TestExecute_DailyBriefingCountsBuckets(t *testing.T) {
	f := newExecutorFixture()
	today := time.Date(2026, 1, 16, 18, 0, 0, 0, time.UTC)
	past := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	f.tasks.listed = []domain.Task{
		{ID: "1", Status: domain.TaskStatusPending, DueDate: &today},
		{ID: "2", Status: domain.TaskStatusPending, DueDate: &past},
		{ID: "3", Status: domain.TaskStatusPending},
	}

	outcome := f.executor.Execute(context.Background(), "local", domain.ToolCall{
		Tool: domain.ToolGetDailyBriefing, Params: map[string]any{},
	})

	require.True(t, outcome.Success)
	data := outcome.Data.(map[string]any)
	assert.Equal(t, 3, data["todoCount"])
	assert.Equal(t, 1, data["dueTodayCount"])
	assert.Equal(t, 1, data["overdueCount"])
}

func TestExecute_AnalyzeExpensesFlagsOutliers(t *testing.T) {
	f := newExecutorFixture()
	f.expenses.stats = domain.ExpenseStats{
		MonthlyTotal: 400,
		CategoryStats: []domain.CategoryStat{
			{Category: "food", Total: 300, Count: 10}, // avg 30
		},
	}
	f.expenses.listed = []domain.Expense{
		{ID: "normal", Category: "food", Amount: 28},
		{ID: "outlier", Category: "food", Amount: 95}, // > 2x avg
	}

	outcome := f.executor.Execute(context.Background(), "local", domain.ToolCall{
		Tool: domain.ToolAnalyzeExpenses, Params: map[string]any{},
	})

	require.True(t, outcome.Success)
	assert.Equal(t, OutcomeExpenseAnalysis, outcome.Kind)
	assert.Contains(t, outcome.Message, "1 possibly unusual")

	data := outcome.Data.(map[string]any)
	anomalies := data["anomalies"].([]domain.Expense)
	require.Len(t, anomalies, 1)
	assert.Equal(t, "outlier", anomalies[0].ID)
}

func TestExecute_AnalyzeExpensesSurvivesNarrationFailure(t *testing.T) {
	f := newExecutorFixture()
	f.llm.err = errors.New("provider down")
	f.expenses.stats = domain.ExpenseStats{
		MonthlyTotal: 400,
		CategoryStats: []domain.CategoryStat{
			{Category: "food", Total: 300, Count: 10},
		},
	}
	f.expenses.listed = []domain.Expense{
		{ID: "outlier", Category: "food", Amount: 95},
	}

	outcome := f.executor.Execute(context.Background(), "local", domain.ToolCall{
		Tool: domain.ToolAnalyzeExpenses, Params: map[string]any{},
	})

	require.True(t, outcome.Success)
	assert.Contains(t, outcome.Message, "1 possibly unusual")

	data := outcome.Data.(map[string]any)
	assert.Equal(t, "", data["analysis"])
	anomalies := data["anomalies"].([]domain.Expense)
	require.Len(t, anomalies, 1)
	assert.Equal(t, "outlier", anomalies[0].ID)
}

func TestExecute_AnalyzeExpensesNoOutliers(t *testing.T) {
	f := newExecutorFixture()
	f.expenses.stats = domain.ExpenseStats{
		CategoryStats: []domain.CategoryStat{{Category: "food", Total: 100, Count: 4}},
	}
	f.expenses.listed = []domain.Expense{{Category: "food", Amount: 30}}

	outcome := f.executor.Execute(context.Background(), "local", domain.ToolCall{
		Tool: domain.ToolAnalyzeExpenses, Params: map[string]any{},
	})

	require.True(t, outcome.Success)
	assert.Equal(t, "Spending looks normal", outcome.Message)
}

func TestExecute_AskKnowledgeBaseNoResults(t *testing.T) {
	f := newExecutorFixture()

	outcome := f.executor.Execute(context.Background(), "local", domain.ToolCall{
		Tool:   domain.ToolAskKnowledgeBase,
		Params: map[string]any{"question": "what was the wifi password"},
	})

	// Nothing found is still a successful answer, not a failure.
	require.True(t, outcome.Success)
	assert.Equal(t, OutcomeKnowledgeAnswer, outcome.Kind)
	data := outcome.Data.(map[string]any)
	assert.Contains(t, data["answer"].(string), "couldn't find")
}

func TestExecute_AskKnowledgeBaseUsesTopThreeSources(t *testing.T) {
	f := newExecutorFixture()
	f.search.output = &domain.NoteSearchOutput{Results: []domain.NoteSearchResult{
		{NoteID: "n1", Title: "A"}, {NoteID: "n2", Title: "B"},
		{NoteID: "n3", Title: "C"}, {NoteID: "n4", Title: "D"},
	}}
	f.llm.reply = "The answer is in note 1."

	outcome := f.executor.Execute(context.Background(), "local", domain.ToolCall{
		Tool:   domain.ToolAskKnowledgeBase,
		Params: map[string]any{"question": "question"},
	})

	require.True(t, outcome.Success)
	data := outcome.Data.(map[string]any)
	sources := data["sources"].([]map[string]string)
	assert.Len(t, sources, ragSourceLimit)
	assert.Equal(t, "The answer is in note 1.", data["answer"])
}

func TestParseWhen(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"2026-01-16T15:00:00", true},
		{"2026-01-16T15:00:00Z", true},
		{"2026-01-16", true},
		{"next tuesday", false},
		{"", false},
	}

	for _, tt := range tests {
		got := parseWhen(tt.input)
		if tt.want {
			assert.NotNil(t, got, tt.input)
		} else {
			assert.Nil(t, got, tt.input)
		}
	}
}

func TestSplitTags(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitTags("a, b"))
	assert.Equal(t, []string{"solo"}, splitTags("solo"))
	assert.Nil(t, splitTags(""))
	assert.Equal(t, []string{"x"}, splitTags(" x , , "))
}
