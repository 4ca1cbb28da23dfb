package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/workbench-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/workbench-cli/internal/core/domain"
	"github.com/custodia-labs/workbench-cli/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides access to
// the task, expense and note store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.workbench/data/workbench.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".workbench", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "workbench.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// TaskService returns a TaskService interface backed by this store.
func (s *Store) TaskService() driven.TaskService {
	return &taskStore{store: s}
}

// ExpenseService returns an ExpenseService interface backed by this store.
func (s *Store) ExpenseService() driven.ExpenseService {
	return &expenseStore{store: s}
}

// NoteStore returns a NoteStore interface backed by this store.
func (s *Store) NoteStore() driven.NoteStore {
	return &noteStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Task Store ====================

// taskStore implements driven.TaskService.
type taskStore struct {
	store *Store
}

var _ driven.TaskService = (*taskStore)(nil)

// Create stores a new task.
func (s *taskStore) Create(ctx context.Context, owner string, task domain.Task) (*domain.Task, error) {
	if task.Title == "" {
		return nil, domain.ErrInvalidInput
	}

	now := time.Now().UTC()
	task.ID = uuid.NewString()
	task.Owner = owner
	task.CreatedAt = now
	task.UpdatedAt = now
	if task.Priority == "" {
		task.Priority = domain.PriorityMedium
	}
	if task.Status == "" {
		task.Status = domain.TaskStatusPending
	}
	if task.Category == "" {
		task.Category = "daily"
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO tasks (id, owner, title, description, priority, status, category, due_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, task.ID, task.Owner, task.Title, task.Description, task.Priority, task.Status,
		task.Category, nullTime(task.DueDate), task.CreatedAt, task.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("saving task: %w", err)
	}
	return &task, nil
}

// List returns the owner's tasks matching the filters, newest first.
func (s *taskStore) List(ctx context.Context, owner string, filters domain.TaskFilters) ([]domain.Task, error) {
	query := `
		SELECT id, owner, title, description, priority, status, category, due_date, created_at, updated_at
		FROM tasks WHERE owner = ?
	`
	args := []any{owner}
	if filters.Status != "" {
		query += " AND status = ?"
		args = append(args, filters.Status)
	}
	if filters.Priority != "" {
		query += " AND priority = ?"
		args = append(args, filters.Priority)
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}
	defer rows.Close()

	var tasks []domain.Task //nolint:prealloc // size unknown from query
	for rows.Next() {
		task, err := scanTaskRows(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tasks: %w", err)
	}

	return tasks, nil
}

// Update applies a patch to a task and returns the updated record.
func (s *taskStore) Update(ctx context.Context, owner, id string, patch domain.TaskPatch) (*domain.Task, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, owner, title, description, priority, status, category, due_date, created_at, updated_at
		FROM tasks WHERE owner = ? AND id = ?
	`, owner, id)

	task, err := scanTask(row)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		task.Title = *patch.Title
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.Priority != nil {
		task.Priority = *patch.Priority
	}
	if patch.Status != nil {
		task.Status = *patch.Status
	}
	if patch.DueDate != nil {
		task.DueDate = patch.DueDate
	}
	task.UpdatedAt = time.Now().UTC()

	_, err = s.store.db.ExecContext(ctx, `
		UPDATE tasks SET title = ?, description = ?, priority = ?, status = ?, due_date = ?, updated_at = ?
		WHERE owner = ? AND id = ?
	`, task.Title, task.Description, task.Priority, task.Status,
		nullTime(task.DueDate), task.UpdatedAt, owner, id)

	if err != nil {
		return nil, fmt.Errorf("updating task: %w", err)
	}
	return task, nil
}

// ==================== Expense Store ====================

// expenseStore implements driven.ExpenseService.
type expenseStore struct {
	store *Store
}

var _ driven.ExpenseService = (*expenseStore)(nil)

// Create stores a new expense.
func (s *expenseStore) Create(ctx context.Context, owner string, expense domain.Expense) (*domain.Expense, error) {
	if expense.Amount <= 0 {
		return nil, domain.ErrInvalidInput
	}

	now := time.Now().UTC()
	expense.ID = uuid.NewString()
	expense.Owner = owner
	expense.CreatedAt = now
	if expense.Date.IsZero() {
		expense.Date = now
	}
	if expense.Category == "" {
		expense.Category = "other"
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO expenses (id, owner, amount, category, description, date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, expense.ID, expense.Owner, expense.Amount, expense.Category,
		expense.Description, expense.Date, expense.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("saving expense: %w", err)
	}
	return &expense, nil
}

// List returns the owner's expenses matching the filters, newest first.
func (s *expenseStore) List(ctx context.Context, owner string, filters domain.ExpenseFilters) ([]domain.Expense, error) {
	query := `
		SELECT id, owner, amount, category, description, date, created_at
		FROM expenses WHERE owner = ?
	`
	args := []any{owner}
	if filters.Category != "" {
		query += " AND category = ?"
		args = append(args, filters.Category)
	}
	query += " ORDER BY date DESC"

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying expenses: %w", err)
	}
	defer rows.Close()

	var expenses []domain.Expense //nolint:prealloc // size unknown from query
	for rows.Next() {
		var e domain.Expense
		if err := rows.Scan(&e.ID, &e.Owner, &e.Amount, &e.Category,
			&e.Description, &e.Date, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning expense: %w", err)
		}
		expenses = append(expenses, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating expenses: %w", err)
	}

	return expenses, nil
}

// Stats aggregates the owner's spending per category plus a monthly total.
func (s *expenseStore) Stats(ctx context.Context, owner string) (*domain.ExpenseStats, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT category, SUM(amount), COUNT(*)
		FROM expenses WHERE owner = ?
		GROUP BY category
		ORDER BY SUM(amount) DESC
	`, owner)
	if err != nil {
		return nil, fmt.Errorf("querying expense stats: %w", err)
	}
	defer rows.Close()

	stats := &domain.ExpenseStats{}
	for rows.Next() {
		var cs domain.CategoryStat
		if err := rows.Scan(&cs.Category, &cs.Total, &cs.Count); err != nil {
			return nil, fmt.Errorf("scanning category stat: %w", err)
		}
		stats.CategoryStats = append(stats.CategoryStats, cs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating category stats: %w", err)
	}

	// Month boundaries are computed here rather than in SQL so the
	// comparison matches how the driver stores time values.
	now := time.Now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, 0)

	row := s.store.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount), 0)
		FROM expenses WHERE owner = ? AND date >= ? AND date < ?
	`, owner, monthStart, monthEnd)
	if err := row.Scan(&stats.MonthlyTotal); err != nil {
		return nil, fmt.Errorf("scanning monthly total: %w", err)
	}

	return stats, nil
}

// ==================== Note Store ====================

// noteStore implements driven.NoteStore.
type noteStore struct {
	store *Store
}

var _ driven.NoteStore = (*noteStore)(nil)

// Create stores a new note with its first content version.
func (s *noteStore) Create(ctx context.Context, note domain.Note) (*domain.Note, error) {
	if note.Title == "" {
		return nil, domain.ErrInvalidInput
	}

	now := time.Now().UTC()
	note.ID = uuid.NewString()
	note.CreatedAt = now
	note.UpdatedAt = now
	note.Versions = []domain.NoteVersion{{Content: note.Content, Timestamp: now}}

	tagsJSON, err := json.Marshal(note.Tags)
	if err != nil {
		return nil, fmt.Errorf("marshalling tags: %w", err)
	}
	versionsJSON, err := json.Marshal(note.Versions)
	if err != nil {
		return nil, fmt.Errorf("marshalling versions: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO notes (id, owner, title, content, tags, versions, embedding, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, note.ID, note.Owner, note.Title, note.Content, string(tagsJSON),
		string(versionsJSON), float32SliceToBytes(note.Embedding), note.CreatedAt, note.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("saving note: %w", err)
	}
	return &note, nil
}

// Update applies title/content/tag changes. A content change appends a
// version entry; a title or content change clears the embedding so the
// note is reindexed.
func (s *noteStore) Update(ctx context.Context, owner, id string, title, content *string, tags []string) (*domain.Note, error) {
	note, err := s.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	reindex := false

	if title != nil && *title != note.Title {
		note.Title = *title
		reindex = true
	}
	if content != nil && *content != note.Content {
		note.Content = *content
		note.Versions = append(note.Versions, domain.NoteVersion{Content: *content, Timestamp: now})
		reindex = true
	}
	if tags != nil {
		note.Tags = tags
	}
	if reindex {
		note.Embedding = nil
	}
	note.UpdatedAt = now

	tagsJSON, err := json.Marshal(note.Tags)
	if err != nil {
		return nil, fmt.Errorf("marshalling tags: %w", err)
	}
	versionsJSON, err := json.Marshal(note.Versions)
	if err != nil {
		return nil, fmt.Errorf("marshalling versions: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		UPDATE notes SET title = ?, content = ?, tags = ?, versions = ?, embedding = ?, updated_at = ?
		WHERE owner = ? AND id = ?
	`, note.Title, note.Content, string(tagsJSON), string(versionsJSON),
		float32SliceToBytes(note.Embedding), note.UpdatedAt, owner, id)

	if err != nil {
		return nil, fmt.Errorf("updating note: %w", err)
	}
	return note, nil
}

// Get retrieves a note by ID.
func (s *noteStore) Get(ctx context.Context, owner, id string) (*domain.Note, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, owner, title, content, tags, versions, embedding, created_at, updated_at
		FROM notes WHERE owner = ? AND id = ?
	`, owner, id)

	return scanNote(row)
}

// ListEmbedded returns the owner's notes that carry an embedding.
func (s *noteStore) ListEmbedded(ctx context.Context, owner string) ([]domain.Note, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, owner, title, content, tags, versions, embedding, created_at, updated_at
		FROM notes WHERE owner = ? AND embedding IS NOT NULL AND length(embedding) > 0
	`, owner)
	if err != nil {
		return nil, fmt.Errorf("querying notes: %w", err)
	}
	defer rows.Close()

	var notes []domain.Note //nolint:prealloc // size unknown from query
	for rows.Next() {
		note, err := scanNoteRows(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, *note)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating notes: %w", err)
	}

	return notes, nil
}

// SetEmbedding stores a freshly generated embedding for a note.
func (s *noteStore) SetEmbedding(ctx context.Context, owner, id string, embedding []float32) error {
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE notes SET embedding = ?, updated_at = ? WHERE owner = ? AND id = ?
	`, float32SliceToBytes(embedding), time.Now().UTC(), owner, id)
	if err != nil {
		return fmt.Errorf("saving embedding: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking embedding update: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ==================== Helper Functions ====================

// nullTime converts an optional time to a driver-friendly value.
func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

// scanTask scans a single task row.
func scanTask(row *sql.Row) (*domain.Task, error) {
	var task domain.Task
	var dueDate sql.NullTime

	if err := row.Scan(&task.ID, &task.Owner, &task.Title, &task.Description,
		&task.Priority, &task.Status, &task.Category, &dueDate,
		&task.CreatedAt, &task.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning task: %w", err)
	}

	if dueDate.Valid {
		task.DueDate = &dueDate.Time
	}

	return &task, nil
}

// scanTaskRows scans a task from *sql.Rows.
func scanTaskRows(rows *sql.Rows) (*domain.Task, error) {
	var task domain.Task
	var dueDate sql.NullTime

	if err := rows.Scan(&task.ID, &task.Owner, &task.Title, &task.Description,
		&task.Priority, &task.Status, &task.Category, &dueDate,
		&task.CreatedAt, &task.UpdatedAt); err != nil {
		return nil, fmt.Errorf("scanning task: %w", err)
	}

	if dueDate.Valid {
		task.DueDate = &dueDate.Time
	}

	return &task, nil
}

// scanNote scans a single note row.
func scanNote(row *sql.Row) (*domain.Note, error) {
	var note domain.Note
	var tagsJSON, versionsJSON string
	var embeddingBlob []byte

	if err := row.Scan(&note.ID, &note.Owner, &note.Title, &note.Content,
		&tagsJSON, &versionsJSON, &embeddingBlob, &note.CreatedAt, &note.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning note: %w", err)
	}

	return decodeNote(&note, tagsJSON, versionsJSON, embeddingBlob)
}

// scanNoteRows scans a note from *sql.Rows.
func scanNoteRows(rows *sql.Rows) (*domain.Note, error) {
	var note domain.Note
	var tagsJSON, versionsJSON string
	var embeddingBlob []byte

	if err := rows.Scan(&note.ID, &note.Owner, &note.Title, &note.Content,
		&tagsJSON, &versionsJSON, &embeddingBlob, &note.CreatedAt, &note.UpdatedAt); err != nil {
		return nil, fmt.Errorf("scanning note: %w", err)
	}

	return decodeNote(&note, tagsJSON, versionsJSON, embeddingBlob)
}

// decodeNote fills a note's JSON and blob columns.
func decodeNote(note *domain.Note, tagsJSON, versionsJSON string, embeddingBlob []byte) (*domain.Note, error) {
	if tagsJSON != "" {
		if err := json.Unmarshal([]byte(tagsJSON), &note.Tags); err != nil {
			return nil, fmt.Errorf("unmarshaling tags: %w", err)
		}
	}
	if versionsJSON != "" {
		if err := json.Unmarshal([]byte(versionsJSON), &note.Versions); err != nil {
			return nil, fmt.Errorf("unmarshaling versions: %w", err)
		}
	}
	note.Embedding = bytesToFloat32Slice(embeddingBlob)
	return note, nil
}
