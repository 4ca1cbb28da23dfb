package services

import "github.com/custodia-labs/workbench-cli/internal/core/domain"

// BuildCatalog declares the closed tool set offered to the planning model.
// Descriptions are fed to the model verbatim; parameter schemas back the
// validation that runs before any tool touches a collaborator.
func BuildCatalog() *domain.Catalog {
	return domain.NewCatalog(
		domain.ToolDefinition{
			Name:        domain.ToolCreateTodo,
			Description: "Create a new todo task. Call when the user asks to create a task, add a todo item or set a reminder.",
			Parameters: map[string]domain.ParamSpec{
				"title":       {Type: "string", Description: "Task title"},
				"description": {Type: "string", Description: "Task description (optional)"},
				"priority":    {Type: "string", Description: "Priority", Enum: []string{"high", "medium", "low"}},
				"dueDate":     {Type: "string", Description: "ISO 8601 date, e.g. 2026-01-16T15:00:00"},
				"category":    {Type: "string", Description: "Category", Enum: []string{"work", "daily", "study", "other"}},
			},
			Required: []string{"title"},
		},
		domain.ToolDefinition{
			Name:        domain.ToolCreateExpense,
			Description: "Record an expense. Call when the user mentions spending money, a purchase or bookkeeping.",
			Parameters: map[string]domain.ParamSpec{
				"amount":      {Type: "number", Description: "Amount spent"},
				"category":    {Type: "string", Description: "Expense category", Enum: []string{"food", "transport", "shopping", "entertainment", "utilities", "other"}},
				"description": {Type: "string", Description: "Expense description"},
				"date":        {Type: "string", Description: "ISO 8601 date"},
			},
			Required: []string{"amount", "category"},
		},
		domain.ToolDefinition{
			Name:        domain.ToolSearchNotes,
			Description: "Search the user's notes for relevant content. Call when the user asks about previously recorded information or wants to find a note.",
			Parameters: map[string]domain.ParamSpec{
				"query": {Type: "string", Description: "Search keywords or question"},
			},
			Required: []string{"query"},
		},
		domain.ToolDefinition{
			Name:        domain.ToolCreateNote,
			Description: "Create a new note. Call when the user asks to record information or save content.",
			Parameters: map[string]domain.ParamSpec{
				"title":   {Type: "string", Description: "Note title"},
				"content": {Type: "string", Description: "Note content (markdown supported)"},
				"tags":    {Type: "string", Description: "Comma-separated tags"},
			},
			Required: []string{"title", "content"},
		},
		domain.ToolDefinition{
			Name:        domain.ToolGetWeather,
			Description: "Look up weather information. Call when the user asks about the weather or whether to bring an umbrella.",
			Parameters: map[string]domain.ParamSpec{
				"city": {Type: "string", Description: "City name, e.g. \"Hangzhou\""},
			},
			Required: []string{"city"},
		},
		domain.ToolDefinition{
			Name:        domain.ToolGetTodoList,
			Description: "Get the user's todo list. Call when the user asks what tasks they have or what's due today.",
			Parameters: map[string]domain.ParamSpec{
				"status":   {Type: "string", Description: "Status filter", Enum: []string{"pending", "completed", "all"}},
				"priority": {Type: "string", Description: "Priority filter", Enum: []string{"high", "medium", "low"}},
			},
		},
		domain.ToolDefinition{
			Name:        domain.ToolGetExpenseStats,
			Description: "Get the user's expense statistics. Call when the user asks how much they've spent or for a spending breakdown.",
		},
		domain.ToolDefinition{
			Name:        domain.ToolExtractActionItems,
			Description: "Extract todo items from a block of text. Call when the user pastes meeting notes or a long text and asks to turn it into tasks.",
			Parameters: map[string]domain.ParamSpec{
				"text": {Type: "string", Description: "The text to analyze"},
			},
			Required: []string{"text"},
		},
		domain.ToolDefinition{
			Name:        domain.ToolPolishText,
			Description: "Polish and rewrite text. Call when the user asks to improve an email or rewrite copy.",
			Parameters: map[string]domain.ParamSpec{
				"text":  {Type: "string", Description: "The original text to polish"},
				"style": {Type: "string", Description: "Target style", Enum: []string{"formal", "casual", "business_email", "report"}},
			},
			Required: []string{"text"},
		},
		domain.ToolDefinition{
			Name:        domain.ToolBatchPostponeTodos,
			Description: "Postpone tasks in bulk. Call when the user says things like \"push all low priority tasks back\" or \"postpone this week's tasks\".",
			Parameters: map[string]domain.ParamSpec{
				"priority": {Type: "string", Description: "Priority filter for the tasks to postpone", Enum: []string{"high", "medium", "low", "all"}},
				"days":     {Type: "number", Description: "Number of days to postpone by"},
			},
			Required: []string{"days"},
		},
		domain.ToolDefinition{
			Name:        domain.ToolGetDailyBriefing,
			Description: "Generate a daily briefing. Call when the user asks for today's briefing or what's on for today.",
		},
		domain.ToolDefinition{
			Name:        domain.ToolAnalyzeExpenses,
			Description: "Analyze spending anomalies. Call when the user asks whether there's any unusual spending or if their expenses look normal.",
		},
		domain.ToolDefinition{
			Name:        domain.ToolAskKnowledgeBase,
			Description: "Answer a question from the user's note knowledge base. Call when the user asks what they previously wrote down about something.",
			Parameters: map[string]domain.ParamSpec{
				"question": {Type: "string", Description: "The user's question"},
			},
			Required: []string{"question"},
		},
	)
}
