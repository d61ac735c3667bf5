package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config структура конфигурации приложения
type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Storage struct {
		Driver string `yaml:"driver"` // sqlite, postgres или badger
		DSN    string `yaml:"dsn"`
		Seed   bool   `yaml:"seed"`
	} `yaml:"storage"`
	Recorder struct {
		Enabled  bool `yaml:"enabled"`
		PoolSize int  `yaml:"pool_size"`
	} `yaml:"recorder"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // text или json
	} `yaml:"logging"`
}

// Default возвращает конфигурацию по умолчанию
func Default() Config {
	var cfg Config
	cfg.Server.Addr = ":8080"
	cfg.Storage.Driver = "sqlite"
	cfg.Storage.DSN = "./assistant.db"
	cfg.Storage.Seed = true
	cfg.Recorder.Enabled = true
	cfg.Recorder.PoolSize = 4
	cfg.Logging.Level = "info"
	cfg.Logging.Format = "text"
	return cfg
}

// Load загружает конфигурацию из YAML файла и применяет переменные окружения.
// Отсутствующий файл не является ошибкой: используются значения по умолчанию.
func Load(path string) (Config, error) {
	cfg := Default()

	// .env необязателен
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("ошибка чтения .env: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("ошибка чтения файла конфигурации: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("ошибка парсинга YAML: %w", err)
			}
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv переменные окружения имеют приоритет над файлом
func applyEnv(cfg *Config) error {
	if addr := os.Getenv("ASSISTANT_ADDR"); addr != "" {
		cfg.Server.Addr = addr
	}

	driver := os.Getenv("ASSISTANT_DB_DRIVER")
	if url := os.Getenv("DATABASE_URL"); url != "" {
		cfg.Storage.DSN = url
		if driver == "" {
			driver = "postgres"
		}
	}
	if driver != "" {
		cfg.Storage.Driver = driver
	}
	if dsn := os.Getenv("ASSISTANT_DB_DSN"); dsn != "" {
		cfg.Storage.DSN = dsn
	}
	if seed := os.Getenv("ASSISTANT_DB_SEED"); seed != "" {
		v, err := strconv.ParseBool(seed)
		if err != nil {
			return fmt.Errorf("некорректное значение ASSISTANT_DB_SEED: %w", err)
		}
		cfg.Storage.Seed = v
	}
	if level := os.Getenv("ASSISTANT_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	return nil
}
