package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/hectronix2005/Legalbot-sub003/internal/config"
	"github.com/hectronix2005/Legalbot-sub003/internal/repository"
	"github.com/hectronix2005/Legalbot-sub003/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRetentionService_RunOnce 测试一轮全量清理
func TestRetentionService_RunOnce(t *testing.T) {
	env := setupEnv(t)
	tpl := env.createTemplate(t)

	generated, err := env.contractSvc.Generate(context.Background(), &service.GenerateContractRequest{
		TemplateID: tpl.ID,
		Answers:    map[string]string{"nombre": "Ana", "monto": "100"},
	})
	require.NoError(t, err)

	for _, monto := range []string{"200", "300"} {
		time.Sleep(5 * time.Millisecond)
		_, err = env.contractSvc.SaveEdit(context.Background(), generated.Contract.ID, &service.SaveEditRequest{
			Content: "Hola Ana, debes " + monto,
		})
		require.NoError(t, err)
	}

	retention := service.NewRetentionService(
		repository.NewContractRepository(env.db), env.store,
		config.RetentionConfig{Enabled: true, Schedule: "@daily", KeepCount: 1},
	)

	removed, err := retention.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, removed) // 每种格式 3 个文件,各保留 1 个

	// 当前版本的文件不受影响
	current, err := env.versionRepo.FindCurrent(generated.Contract.ID)
	require.NoError(t, err)
	assert.FileExists(t, current.DocxPath)
	assert.FileExists(t, current.PDFPath)
}

// TestRetentionService_DisabledStart 测试禁用时 Start 不报错
func TestRetentionService_DisabledStart(t *testing.T) {
	env := setupEnv(t)

	retention := service.NewRetentionService(
		repository.NewContractRepository(env.db), env.store,
		config.RetentionConfig{Enabled: false},
	)

	assert.NoError(t, retention.Start())
	retention.Stop()
}

// TestRetentionService_Schedule 测试定时任务注册与停止
func TestRetentionService_Schedule(t *testing.T) {
	env := setupEnv(t)

	retention := service.NewRetentionService(
		repository.NewContractRepository(env.db), env.store,
		config.RetentionConfig{Enabled: true, Schedule: "@every 1h", KeepCount: 2},
	)

	require.NoError(t, retention.Start())
	retention.Stop()
}
