package badger

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"study-assistant/src/domain"
)

const (
	trainingPrefix    = "training:"
	interactionPrefix = "interaction:"
	trainingSequence  = "seq:training"

	sequenceBandwidth = 100
)

// loggerAdapter направляет внутренние логи badger в slog
type loggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*loggerAdapter)(nil)

func (l *loggerAdapter) Errorf(msg string, items ...any) {
	l.logger.Error(fmt.Sprintf(msg, items...))
}

func (l *loggerAdapter) Warningf(msg string, items ...any) {
	l.logger.Warn(fmt.Sprintf(msg, items...))
}

func (l *loggerAdapter) Infof(msg string, items ...any) {
	l.logger.Debug(fmt.Sprintf(msg, items...))
}

func (l *loggerAdapter) Debugf(msg string, items ...any) {
	l.logger.Debug(fmt.Sprintf(msg, items...))
}

// Repository хранилище обучающих данных и журнала во встроенной базе BadgerDB
type Repository struct {
	db     *badger.DB
	seq    *badger.Sequence
	logger *slog.Logger
}

var (
	_ domain.TrainingRepository    = (*Repository)(nil)
	_ domain.InteractionRepository = (*Repository)(nil)
)

// Open открывает базу в каталоге dir (создает его при необходимости).
// При inMemory каталог не используется.
func Open(dir string, inMemory bool) (*Repository, error) {
	logger := slog.Default().With("component", "badger-repository")

	var opts badger.Options
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("не удалось создать каталог базы данных: %w", err)
		}
		opts = badger.DefaultOptions(dir)
	}
	opts.Logger = &loggerAdapter{logger: logger}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть базу данных: %w", err)
	}

	seq, err := db.GetSequence([]byte(trainingSequence), sequenceBandwidth)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось получить последовательность: %w", err)
	}

	return &Repository{db: db, seq: seq, logger: logger}, nil
}

func trainingKey(id uint64) []byte {
	key := make([]byte, len(trainingPrefix)+8)
	copy(key, trainingPrefix)
	binary.BigEndian.PutUint64(key[len(trainingPrefix):], id)
	return key
}

// interactionKey упорядочивает записи по времени создания
func interactionKey(it domain.Interaction) []byte {
	key := make([]byte, 0, len(interactionPrefix)+8+len(it.ID))
	key = append(key, interactionPrefix...)
	key = binary.BigEndian.AppendUint64(key, uint64(it.CreatedAt.UnixNano()))
	return append(key, it.ID...)
}

// FetchAll возвращает все обучающие примеры в порядке добавления
func (r *Repository) FetchAll(ctx context.Context) ([]domain.TrainingExample, error) {
	var examples []domain.TrainingExample

	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(trainingPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var ex domain.TrainingExample
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &ex)
			})
			if err != nil {
				return fmt.Errorf("ошибка чтения примера: %w", err)
			}
			examples = append(examples, ex)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса: %w", err)
	}

	return examples, nil
}

// Append добавляет обучающий пример
func (r *Repository) Append(ctx context.Context, question, answer, category string) error {
	next, err := r.seq.Next()
	if err != nil {
		return fmt.Errorf("не удалось получить идентификатор: %w", err)
	}

	id := next + 1
	ex := domain.TrainingExample{
		ID:              int64(id),
		Question:        question,
		Answer:          answer,
		Category:        category,
		ConfidenceScore: domain.DefaultConfidenceScore,
		CreatedAt:       time.Now().UTC(),
	}
	val, err := json.Marshal(ex)
	if err != nil {
		return fmt.Errorf("ошибка сериализации примера: %w", err)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(trainingKey(id), val)
	})
	if err != nil {
		return fmt.Errorf("не удалось вставить обучающий пример: %w", err)
	}
	return nil
}

// SaveInteraction сохраняет запись журнала взаимодействий
func (r *Repository) SaveInteraction(ctx context.Context, it domain.Interaction) error {
	val, err := json.Marshal(it)
	if err != nil {
		return fmt.Errorf("ошибка сериализации взаимодействия: %w", err)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(interactionKey(it), val)
	})
	if err != nil {
		return fmt.Errorf("не удалось сохранить взаимодействие: %w", err)
	}
	return nil
}

// ListInteractions возвращает последние записи журнала, новые первыми
func (r *Repository) ListInteractions(ctx context.Context, classID string, limit int) ([]domain.Interaction, error) {
	var out []domain.Interaction

	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(interactionPrefix)
		// при обратном обходе начинаем с ключа, который больше любого ключа с префиксом
		seekKey := append(append([]byte{}, prefix...), 0xFF)
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(out) >= limit {
				break
			}
			var interaction domain.Interaction
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &interaction)
			})
			if err != nil {
				return fmt.Errorf("ошибка чтения взаимодействия: %w", err)
			}
			if classID != "" && interaction.ClassID != classID {
				continue
			}
			out = append(out, interaction)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса: %w", err)
	}

	return out, nil
}

// Close освобождает последовательность и закрывает базу
func (r *Repository) Close() error {
	if err := r.seq.Release(); err != nil {
		r.logger.Warn("ошибка освобождения последовательности", "error", err)
	}
	return r.db.Close()
}
