// Package gormdb — альтернативная реализация хранилища на gorm.
// Поддерживает sqlite:// (локальный запуск, тесты) и postgres:// URL.
package gormdb

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/EgorLis/asset-catalog/internal/domain"
)

type Repo struct {
	db     *gorm.DB
	logger *log.Logger
}

var _ domain.Store = (*Repo)(nil)

func dialectorFor(databaseURL string) (gorm.Dialector, bool, error) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return postgres.Open(databaseURL), false, nil
	case strings.HasPrefix(databaseURL, "sqlite://"):
		return sqlite.Open(strings.TrimPrefix(databaseURL, "sqlite://")), true, nil
	}
	return nil, false, fmt.Errorf("unsupported database URL: %s", databaseURL)
}

// Open подключается по URL и выполняет AutoMigrate.
func Open(databaseURL string, logger *log.Logger) (*Repo, error) {
	dialector, isSQLite, err := dialectorFor(databaseURL)
	if err != nil {
		return nil, err
	}

	logger.Println("opening gorm database...")
	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger: gormlogger.New(logger, gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("gorm open: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("gorm db: %w", err)
	}
	if isSQLite {
		// sqlite допускает одного писателя; для :memory: ещё и одну общую базу
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(&categoryModel{}, &productModel{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	logger.Println("gorm database ready")

	return &Repo{db: db, logger: logger}, nil
}

func (r *Repo) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *Repo) Close() {
	r.logger.Println("closing gorm database...")
	if sqlDB, err := r.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	r.logger.Println("gorm database closed")
}

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: already exists", domain.ErrValidation)
	}
	return err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}
