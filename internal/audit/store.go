package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/BaSui01/eduflow/cache"
)

// =============================================================================
// 🗄️ 审计存储
// =============================================================================

// Row 审计记录的落盘行模型
type Row struct {
	ID           uint      `gorm:"primaryKey"`
	RequestID    string    `gorm:"index;size:64"`
	Subject      string    `gorm:"index;size:128"`
	Topic        string    `gorm:"size:256"`
	TargetCached int
	Accepted     int
	Misses       int
	Skipped      bool
	// 候选列表序列化为 JSON 列，查询时按需反序列化
	Candidates string
	CreatedAt  time.Time `gorm:"index"`
}

// TableName 固定表名
func (Row) TableName() string {
	return "cache_audit_records"
}

// Store 审计存储，实现 cache.Sink
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// Open 打开（必要时创建）SQLite 审计库并完成迁移
func Open(path string, logger *zap.Logger) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open audit database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	// 单文件 SQLite：单连接避免写锁竞争
	sqlDB.SetMaxOpenConns(1)

	return NewStore(db, logger)
}

// NewStore 基于已有 GORM 实例创建审计存储并完成迁移
func NewStore(db *gorm.DB, logger *zap.Logger) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}

	if err := db.AutoMigrate(&Row{}); err != nil {
		return nil, fmt.Errorf("migrate audit schema: %w", err)
	}

	logger.Info("audit store initialized")

	return &Store{
		db:     db,
		logger: logger.With(zap.String("component", "audit_store")),
	}, nil
}

// Write 落盘一条审计记录
func (s *Store) Write(ctx context.Context, record cache.Record) error {
	candidates, err := json.Marshal(record.Candidates)
	if err != nil {
		return fmt.Errorf("marshal audit candidates: %w", err)
	}

	row := Row{
		RequestID:    record.RequestID,
		Subject:      record.Subject,
		Topic:        record.Topic,
		TargetCached: record.TargetCached,
		Accepted:     record.Accepted,
		Misses:       record.Misses,
		Skipped:      record.Skipped,
		Candidates:   string(candidates),
		CreatedAt:    record.CreatedAt,
	}

	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("insert audit record: %w", err)
	}
	return nil
}

// ByRequest 按请求 ID 查询全部记录，按写入顺序返回
func (s *Store) ByRequest(ctx context.Context, requestID string) ([]Row, error) {
	var rows []Row
	err := s.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query audit records: %w", err)
	}
	return rows, nil
}

// Recent 返回最近 limit 条记录，新者在前
func (s *Store) Recent(ctx context.Context, limit int) ([]Row, error) {
	var rows []Row
	err := s.db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query audit records: %w", err)
	}
	return rows, nil
}

// DecodeCandidates 反序列化行内的候选列表
func (r *Row) DecodeCandidates() ([]cache.Candidate, error) {
	if r.Candidates == "" {
		return nil, nil
	}
	var candidates []cache.Candidate
	if err := json.Unmarshal([]byte(r.Candidates), &candidates); err != nil {
		return nil, fmt.Errorf("decode audit candidates: %w", err)
	}
	return candidates, nil
}

// Close 关闭底层数据库连接
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
