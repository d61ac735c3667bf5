package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"study-assistant/src/domain"
)

// Поддерживаемые SQL драйверы
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// schemas DDL для каждого диалекта
var schemas = map[string][]string{
	DriverSQLite: {
		`CREATE TABLE IF NOT EXISTS ai_training_data (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			question TEXT NOT NULL,
			answer TEXT NOT NULL,
			category TEXT NOT NULL DEFAULT 'general',
			confidence_score REAL NOT NULL DEFAULT 1.0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS ai_interactions (
			id TEXT PRIMARY KEY,
			class_id TEXT NOT NULL DEFAULT '',
			question TEXT NOT NULL,
			answer TEXT NOT NULL,
			category TEXT NOT NULL,
			source TEXT NOT NULL,
			confidence REAL NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_ai_interactions_class ON ai_interactions(class_id)`,
	},
	DriverPostgres: {
		`CREATE TABLE IF NOT EXISTS ai_training_data (
			id SERIAL PRIMARY KEY,
			question TEXT NOT NULL,
			answer TEXT NOT NULL,
			category TEXT NOT NULL DEFAULT 'general',
			confidence_score DOUBLE PRECISION NOT NULL DEFAULT 1.0,
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS ai_interactions (
			id TEXT PRIMARY KEY,
			class_id TEXT NOT NULL DEFAULT '',
			question TEXT NOT NULL,
			answer TEXT NOT NULL,
			category TEXT NOT NULL,
			source TEXT NOT NULL,
			confidence DOUBLE PRECISION NOT NULL,
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_ai_interactions_class ON ai_interactions(class_id)`,
	},
}

// trainingRow строка таблицы ai_training_data
type trainingRow struct {
	ID              int64     `db:"id"`
	Question        string    `db:"question"`
	Answer          string    `db:"answer"`
	Category        string    `db:"category"`
	ConfidenceScore float64   `db:"confidence_score"`
	CreatedAt       time.Time `db:"created_at"`
}

func (r trainingRow) toDomain() domain.TrainingExample {
	return domain.TrainingExample{
		ID:              r.ID,
		Question:        r.Question,
		Answer:          r.Answer,
		Category:        r.Category,
		ConfidenceScore: r.ConfidenceScore,
		CreatedAt:       r.CreatedAt,
	}
}

// SQLRepository хранилище обучающих данных и журнала взаимодействий в SQL базе (SQLite или PostgreSQL)
type SQLRepository struct {
	db     *sqlx.DB
	logger *slog.Logger
}

var (
	_ domain.TrainingRepository    = (*SQLRepository)(nil)
	_ domain.InteractionRepository = (*SQLRepository)(nil)
)

// NewSQLiteRepository создает репозиторий в файле SQLite
func NewSQLiteRepository(dbPath string) (*SQLRepository, error) {
	return NewSQLRepository(DriverSQLite, dbPath)
}

// NewSQLRepository подключается к базе данных и инициализирует схему
func NewSQLRepository(driver, dsn string) (*SQLRepository, error) {
	if _, ok := schemas[driver]; !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownDriver, driver)
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к базе данных: %w", err)
	}

	if driver == DriverSQLite {
		// SQLite не допускает параллельной записи из нескольких соединений
		db.SetMaxOpenConns(1)
	}

	repo := &SQLRepository{
		db:     db,
		logger: slog.Default().With("component", "sql-repository", "driver", driver),
	}
	if err := repo.initSchema(driver); err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось инициализировать схему: %w", err)
	}

	return repo, nil
}

// initSchema создает таблицы, если их нет
func (r *SQLRepository) initSchema(driver string) error {
	for _, tableSQL := range schemas[driver] {
		if _, err := r.db.Exec(tableSQL); err != nil {
			r.logger.Error("ошибка выполнения SQL", "sql", tableSQL, "error", err)
			return fmt.Errorf("ошибка при создании таблицы: %w", err)
		}
	}
	return nil
}

// FetchAll возвращает все обучающие примеры в порядке добавления
func (r *SQLRepository) FetchAll(ctx context.Context) ([]domain.TrainingExample, error) {
	var rows []trainingRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT id, question, answer, category, confidence_score, created_at FROM ai_training_data ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса: %w", err)
	}

	examples := make([]domain.TrainingExample, 0, len(rows))
	for _, row := range rows {
		examples = append(examples, row.toDomain())
	}
	return examples, nil
}

// Append добавляет обучающий пример
func (r *SQLRepository) Append(ctx context.Context, question, answer, category string) error {
	query := r.db.Rebind(`INSERT INTO ai_training_data (question, answer, category, confidence_score, created_at) VALUES (?, ?, ?, ?, ?)`)

	_, err := r.db.ExecContext(ctx, query, question, answer, category, domain.DefaultConfidenceScore, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("не удалось вставить обучающий пример: %w", err)
	}
	return nil
}

// SaveInteraction сохраняет запись журнала взаимодействий
func (r *SQLRepository) SaveInteraction(ctx context.Context, it domain.Interaction) error {
	query := r.db.Rebind(`INSERT INTO ai_interactions (id, class_id, question, answer, category, source, confidence, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := r.db.ExecContext(ctx, query,
		it.ID, it.ClassID, it.Question, it.Answer, it.Category, string(it.Source), it.Confidence, it.CreatedAt)
	if err != nil {
		return fmt.Errorf("не удалось сохранить взаимодействие: %w", err)
	}
	return nil
}

// ListInteractions возвращает последние записи журнала для класса (пустой classID означает все классы).
// limit <= 0 снимает ограничение.
func (r *SQLRepository) ListInteractions(ctx context.Context, classID string, limit int) ([]domain.Interaction, error) {
	type interactionRow struct {
		ID         string    `db:"id"`
		ClassID    string    `db:"class_id"`
		Question   string    `db:"question"`
		Answer     string    `db:"answer"`
		Category   string    `db:"category"`
		Source     string    `db:"source"`
		Confidence float64   `db:"confidence"`
		CreatedAt  time.Time `db:"created_at"`
	}

	query := `SELECT id, class_id, question, answer, category, source, confidence, created_at FROM ai_interactions`
	args := []interface{}{}
	if classID != "" {
		query += ` WHERE class_id = ?`
		args = append(args, classID)
	}
	query += ` ORDER BY created_at DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	var rows []interactionRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса: %w", err)
	}

	out := make([]domain.Interaction, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.Interaction{
			ID:         row.ID,
			ClassID:    row.ClassID,
			Question:   row.Question,
			Answer:     row.Answer,
			Category:   row.Category,
			Source:     domain.Source(row.Source),
			Confidence: row.Confidence,
			CreatedAt:  row.CreatedAt,
		})
	}
	return out, nil
}

// Close закрывает соединение с базой данных
func (r *SQLRepository) Close() error {
	return r.db.Close()
}
