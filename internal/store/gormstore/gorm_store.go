package gormstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cryptopredict/internal/inference"
	"cryptopredict/internal/prediction"
	storemodel "cryptopredict/internal/store/model"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type predictionModel = storemodel.PredictionModel

// GormStore implements prediction.Store using Gorm + SQLite.
type GormStore struct {
	db  *gorm.DB
	now func() time.Time
}

var _ prediction.Store = (*GormStore)(nil)

type Option func(*GormStore)

// WithClock overrides the insert timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *GormStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewGormStore opens (creating if needed) the sqlite file at path and migrates it.
func NewGormStore(path string, opts ...Option) (*GormStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("gorm store: path cannot be empty")
	}
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&predictionModel{}); err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite + WAL: allow a small amount of parallelism for concurrent HTTP reads
	// while keeping lock contention low.
	sqlDB.SetMaxOpenConns(2)
	sqlDB.SetMaxIdleConns(2)
	s := &GormStore{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *GormStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping reports whether the database answers.
func (s *GormStore) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("gorm store not initialized")
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *GormStore) GetLatest(ctx context.Context, symbol string) (*prediction.Record, error) {
	return s.latest(ctx, s.db.WithContext(ctx).Where("symbol = ?", symbol))
}

func (s *GormStore) GetLatestAfter(ctx context.Context, symbol string, after time.Time) (*prediction.Record, error) {
	return s.latest(ctx, s.db.WithContext(ctx).
		Where("symbol = ? AND created_at > ?", symbol, after.UnixMilli()))
}

func (s *GormStore) latest(_ context.Context, q *gorm.DB) (*prediction.Record, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("gorm store not initialized")
	}
	var m predictionModel
	if err := q.Order("created_at DESC, id DESC").First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	rec, err := predictionModelToRecord(m)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *GormStore) Insert(ctx context.Context, rec prediction.Record) (prediction.Record, error) {
	if s == nil || s.db == nil {
		return prediction.Record{}, fmt.Errorf("gorm store not initialized")
	}
	m, err := newPredictionModel(rec, s.now())
	if err != nil {
		return prediction.Record{}, err
	}
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return prediction.Record{}, fmt.Errorf("insert prediction %s: %w", rec.Symbol, err)
	}
	rec.ID = m.ID
	rec.CreatedAt = millisToTime(m.CreatedAt)
	return rec, nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func newPredictionModel(rec prediction.Record, now time.Time) (predictionModel, error) {
	summary, err := json.Marshal(rec.Summary)
	if err != nil {
		return predictionModel{}, fmt.Errorf("encode sentiment summary: %w", err)
	}
	factors := rec.KeyFactors
	if factors == nil {
		factors = []string{}
	}
	keyFactors, err := json.Marshal(factors)
	if err != nil {
		return predictionModel{}, fmt.Errorf("encode key factors: %w", err)
	}
	return predictionModel{
		Symbol:           rec.Symbol,
		Direction:        string(rec.Direction),
		Confidence:       rec.Confidence,
		SentimentSummary: datatypes.JSON(summary),
		Reasoning:        rec.Reasoning,
		KeyFactors:       datatypes.JSON(keyFactors),
		NewsAnalyzed:     rec.NewsAnalyzed,
		ModelVersion:     rec.ModelVersion,
		CreatedAt:        now.UnixMilli(),
	}, nil
}

func predictionModelToRecord(m predictionModel) (prediction.Record, error) {
	rec := prediction.Record{
		ID:           m.ID,
		Symbol:       m.Symbol,
		Direction:    inference.ParseDirection(m.Direction),
		Confidence:   m.Confidence,
		Reasoning:    m.Reasoning,
		NewsAnalyzed: m.NewsAnalyzed,
		ModelVersion: m.ModelVersion,
		CreatedAt:    millisToTime(m.CreatedAt),
	}
	if len(m.SentimentSummary) > 0 {
		if err := json.Unmarshal(m.SentimentSummary, &rec.Summary); err != nil {
			return prediction.Record{}, fmt.Errorf("decode sentiment summary of prediction %d: %w", m.ID, err)
		}
	}
	rec.KeyFactors = []string{}
	if len(m.KeyFactors) > 0 {
		if err := json.Unmarshal(m.KeyFactors, &rec.KeyFactors); err != nil {
			return prediction.Record{}, fmt.Errorf("decode key factors of prediction %d: %w", m.ID, err)
		}
	}
	return rec, nil
}

func millisToTime(v int64) time.Time {
	if v <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(v).UTC()
}
