package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// SequenceRepository 合同编号序列仓储接口
// NextValue 必须在一条语句内完成查找或创建并自增,
// 即使同一 (company, period) 的分配请求并发到达,返回值也互不相同且连续
type SequenceRepository interface {
	NextValue(ctx context.Context, companyID, period string) (int64, error)
}

// sequenceRepository 合同编号序列仓储实现
type sequenceRepository struct {
	db *gorm.DB
}

// NewSequenceRepository 创建序列仓储
func NewSequenceRepository(db *gorm.DB) SequenceRepository {
	return &sequenceRepository{db: db}
}

// NextValue 分配下一个序列值
// 使用 upsert 保证自增和返回在同一条语句内完成,不做先读后写
// PostgreSQL 与 SQLite(>=3.35) 均支持 ON CONFLICT ... DO UPDATE ... RETURNING
func (r *sequenceRepository) NextValue(ctx context.Context, companyID, period string) (int64, error) {
	now := time.Now()

	var count int64
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO sequence_counters (company_id, period, count, created_at, updated_at)
		VALUES (?, ?, 1, ?, ?)
		ON CONFLICT (company_id, period)
		DO UPDATE SET count = sequence_counters.count + 1, updated_at = ?
		RETURNING count
	`, companyID, period, now, now, now).Scan(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}
