package repository_test

import (
	"context"
	"sync"
	"testing"

	"github.com/hectronix2005/Legalbot-sub003/internal/model"
	"github.com/hectronix2005/Legalbot-sub003/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB 创建测试数据库
// 内存 SQLite 必须限制为单连接,否则每个连接各自是一个独立的库
func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&model.Template{},
		&model.Contract{},
		&model.DocumentVersion{},
		&model.SequenceCounter{},
		&model.Company{},
		&model.AuditLogModel{},
	)
	require.NoError(t, err)

	return db
}

// TestSequenceRepository_NextValue 测试序号分配从 1 开始连续递增
func TestSequenceRepository_NextValue(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewSequenceRepository(db)

	for i := int64(1); i <= 5; i++ {
		value, err := repo.NextValue(context.Background(), "comp-001", "2025")
		require.NoError(t, err)
		assert.Equal(t, i, value)
	}
}

// TestSequenceRepository_IndependentScopes 测试不同公司和期间的序号互不影响
func TestSequenceRepository_IndependentScopes(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewSequenceRepository(db)
	ctx := context.Background()

	v1, err := repo.NextValue(ctx, "comp-001", "2025")
	require.NoError(t, err)
	v2, err := repo.NextValue(ctx, "comp-002", "2025")
	require.NoError(t, err)
	v3, err := repo.NextValue(ctx, "comp-001", "2026")
	require.NoError(t, err)
	v4, err := repo.NextValue(ctx, "comp-001", "2025")
	require.NoError(t, err)

	assert.Equal(t, int64(1), v1)
	assert.Equal(t, int64(1), v2)
	assert.Equal(t, int64(1), v3)
	assert.Equal(t, int64(2), v4)
}

// TestSequenceRepository_ConcurrentAllocation 测试并发分配不重复不跳号
func TestSequenceRepository_ConcurrentAllocation(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewSequenceRepository(db)

	const workers = 20

	var wg sync.WaitGroup
	values := make(chan int64, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			value, err := repo.NextValue(context.Background(), "comp-001", "2025")
			assert.NoError(t, err)
			values <- value
		}()
	}
	wg.Wait()
	close(values)

	// 每个值唯一且覆盖 1..workers
	seen := make(map[int64]bool, workers)
	for v := range values {
		assert.False(t, seen[v], "duplicate sequence value %d", v)
		seen[v] = true
	}
	for i := int64(1); i <= workers; i++ {
		assert.True(t, seen[i], "missing sequence value %d", i)
	}
}

// TestFormatContractNumber 测试合同编号格式
func TestFormatContractNumber(t *testing.T) {
	assert.Equal(t, "CON-2025-0001", model.FormatContractNumber("2025", 1))
	assert.Equal(t, "CON-2025-0011", model.FormatContractNumber("2025", 11))
	assert.Equal(t, "CON-2025-9999", model.FormatContractNumber("2025", 9999))
	// 超出 4 位后自然变长,编号仍然唯一
	assert.Equal(t, "CON-2025-10000", model.FormatContractNumber("2025", 10000))
}
