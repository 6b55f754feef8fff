package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Store persists decisions, orders and cycle summaries in SQLite.
type Store struct {
	db *gorm.DB
}

func New(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("store: database path is empty")
	}
	if err := ensureDir(path); err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}

	if err := db.AutoMigrate(&DecisionRecord{}, &OrderRecord{}, &CycleRecord{}); err != nil {
		return nil, fmt.Errorf("store: migrate: %w", err)
	}

	return &Store{db: db}, nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveDecision inserts the record and returns its assigned id.
func (s *Store) SaveDecision(ctx context.Context, rec *DecisionRecord) (int64, error) {
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return 0, fmt.Errorf("store: save decision for %s: %w", rec.Symbol, err)
	}
	return rec.ID, nil
}

// UpdateDecisionOutcome stamps the gate/execution outcome after the fact.
func (s *Store) UpdateDecisionOutcome(ctx context.Context, id int64, outcome Outcome, reason string) error {
	err := s.db.WithContext(ctx).Model(&DecisionRecord{}).Where("id = ?", id).
		Updates(map[string]any{"outcome": outcome, "reject_reason": reason}).Error
	if err != nil {
		return fmt.Errorf("store: update decision %d: %w", id, err)
	}
	return nil
}

func (s *Store) SaveOrder(ctx context.Context, rec *OrderRecord) error {
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("store: save order for %s: %w", rec.Symbol, err)
	}
	return nil
}

func (s *Store) SaveCycle(ctx context.Context, rec *CycleRecord) error {
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("store: save cycle: %w", err)
	}
	return nil
}

// RecentDecisions returns the newest decisions, optionally filtered by
// symbol.
func (s *Store) RecentDecisions(ctx context.Context, symbol string, limit int) ([]DecisionRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	q := s.db.WithContext(ctx).Order("id DESC").Limit(limit)
	if symbol != "" {
		q = q.Where("symbol = ?", symbol)
	}
	var out []DecisionRecord
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("store: recent decisions: %w", err)
	}
	return out, nil
}

func (s *Store) DecisionByID(ctx context.Context, id int64) (*DecisionRecord, error) {
	var rec DecisionRecord
	if err := s.db.WithContext(ctx).First(&rec, id).Error; err != nil {
		return nil, fmt.Errorf("store: decision %d: %w", id, err)
	}
	return &rec, nil
}

func (s *Store) OrdersForDecision(ctx context.Context, decisionID int64) ([]OrderRecord, error) {
	var out []OrderRecord
	err := s.db.WithContext(ctx).Where("decision_id = ?", decisionID).Order("id ASC").Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("store: orders for decision %d: %w", decisionID, err)
	}
	return out, nil
}

// RecentCycles returns the newest cycle summaries.
func (s *Store) RecentCycles(ctx context.Context, limit int) ([]CycleRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	var out []CycleRecord
	err := s.db.WithContext(ctx).Order("id DESC").Limit(limit).Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("store: recent cycles: %w", err)
	}
	return out, nil
}
