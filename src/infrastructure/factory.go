package infrastructure

import (
	"fmt"
	"io"

	"study-assistant/src/domain"
	"study-assistant/src/infrastructure/badger"
)

// Store хранилище обучающих данных и журнала взаимодействий
type Store interface {
	domain.TrainingRepository
	domain.InteractionRepository
	io.Closer
}

// Драйверы, которые можно указать в конфигурации
const (
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreBadger   = "badger"
)

// OpenStore открывает хранилище по имени драйвера из конфигурации
func OpenStore(driver, dsn string) (Store, error) {
	switch driver {
	case StoreSQLite, DriverSQLite, "":
		return NewSQLiteRepository(dsn)
	case StorePostgres:
		return NewSQLRepository(DriverPostgres, dsn)
	case StoreBadger:
		return badger.Open(dsn, false)
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownDriver, driver)
	}
}
