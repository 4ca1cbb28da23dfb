package domain

import "time"

// Task priorities.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// Task statuses.
const (
	TaskStatusPending   = "pending"
	TaskStatusCompleted = "completed"
)

// Task is a to-do item.
type Task struct {
	// ID is the unique identifier.
	ID string

	// Owner is the identity of the task's owner.
	Owner string

	// Title is the task title.
	Title string

	// Description is the optional task body.
	Description string

	// Priority is one of high, medium, low.
	Priority string

	// Status is pending or completed.
	Status string

	// Category groups tasks (work, daily, study, other).
	Category string

	// DueDate is the optional deadline.
	DueDate *time.Time

	// CreatedAt is when the task was created.
	CreatedAt time.Time

	// UpdatedAt is when the task was last modified.
	UpdatedAt time.Time
}

// TaskFilters narrows task listings.
type TaskFilters struct {
	// Status filters by task status, empty for all.
	Status string

	// Priority filters by priority, empty for all.
	Priority string
}

// TaskPatch carries partial task updates. Nil fields are left unchanged.
type TaskPatch struct {
	Title       *string
	Description *string
	Priority    *string
	Status      *string
	DueDate     *time.Time
}

// Expense is a single spend record.
type Expense struct {
	// ID is the unique identifier.
	ID string

	// Owner is the identity of the expense's owner.
	Owner string

	// Amount is the spend amount.
	Amount float64

	// Category is the expense category (food, transport, ...).
	Category string

	// Description is an optional free-text note.
	Description string

	// Date is when the expense occurred.
	Date time.Time

	// CreatedAt is when the record was created.
	CreatedAt time.Time
}

// ExpenseFilters narrows expense listings.
type ExpenseFilters struct {
	// Category filters by category, empty for all.
	Category string
}

// CategoryStat aggregates expenses for one category.
type CategoryStat struct {
	// Category is the expense category.
	Category string

	// Total is the summed amount.
	Total float64

	// Count is the number of expenses.
	Count int
}

// ExpenseStats summarises an owner's spending.
type ExpenseStats struct {
	// CategoryStats breaks spending down per category.
	CategoryStats []CategoryStat

	// MonthlyTotal is the current calendar month's total spend.
	MonthlyTotal float64
}

// WeatherCurrent is the present conditions at a location.
type WeatherCurrent struct {
	// Temp is the temperature in degrees Celsius, rounded.
	Temp int

	// Condition is the human-readable weather condition.
	Condition string

	// Humidity is the relative humidity percentage.
	Humidity int

	// WindSpeed is the wind speed in km/h.
	WindSpeed float64

	// Location is the resolved place name.
	Location string
}

// WeatherDay is one day of forecast.
type WeatherDay struct {
	// Date is the forecast date (YYYY-MM-DD).
	Date string

	// High is the maximum temperature in degrees Celsius.
	High int

	// Low is the minimum temperature in degrees Celsius.
	Low int

	// Condition is the human-readable condition.
	Condition string

	// Precipitation is the maximum precipitation probability percentage.
	Precipitation int
}

// AirQuality is the current air quality at a location.
type AirQuality struct {
	// AQI is the US AQI value.
	AQI int

	// Level is the human-readable quality level.
	Level string
}

// WeatherSummary is the composed weather report for a city.
type WeatherSummary struct {
	// Current is the present conditions.
	Current WeatherCurrent

	// Forecast is the short-range daily forecast.
	Forecast []WeatherDay

	// AirQuality is the current air quality.
	AirQuality AirQuality

	// Summary is a one-line textual summary.
	Summary string
}
