package config_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/hectronix2005/Legalbot-sub003/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConfigWatcher_WatchConfigFile 测试配置文件变更触发回调
func TestConfigWatcher_WatchConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	// 写入初始配置
	initialConfig := `
server:
  host: "0.0.0.0"
  port: 8080
retention:
  enabled: true
  keep_count: 10
`
	err := os.WriteFile(configPath, []byte(initialConfig), 0644)
	require.NoError(t, err)

	cfg, err := config.Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Retention.KeepCount)

	watcher := config.NewConfigWatcher(cfg, configPath)
	var mu sync.Mutex
	callbackCalled := false
	var newConfig *config.Config

	watcher.OnConfigChange(func(cfg *config.Config) {
		mu.Lock()
		defer mu.Unlock()
		callbackCalled = true
		newConfig = cfg
	})

	err = watcher.Start()
	require.NoError(t, err)
	defer watcher.Stop()

	// 等待一下，确保监听器启动
	time.Sleep(100 * time.Millisecond)

	// 修改保留策略
	updatedConfig := `
server:
  host: "0.0.0.0"
  port: 8080
retention:
  enabled: true
  keep_count: 3
`
	err = os.WriteFile(configPath, []byte(updatedConfig), 0644)
	require.NoError(t, err)

	// 等待配置变更被检测到
	time.Sleep(500 * time.Millisecond)

	mu.Lock()
	wasCalled := callbackCalled
	newCfg := newConfig
	mu.Unlock()

	assert.True(t, wasCalled, "config change callback should be called")
	assert.NotNil(t, newCfg)
	assert.Equal(t, 3, newCfg.Retention.KeepCount)
}

// TestConfigWatcher_StartMissingFile 测试配置文件不存在时 Start 报错
func TestConfigWatcher_StartMissingFile(t *testing.T) {
	watcher := config.NewConfigWatcher(&config.Config{}, "/no/such/config.yaml")
	err := watcher.Start()
	assert.Error(t, err)
}

// TestConfigWatcher_GetConfig 测试获取当前配置
func TestConfigWatcher_GetConfig(t *testing.T) {
	cfg := &config.Config{Env: "development"}
	watcher := config.NewConfigWatcher(cfg, "config.yaml")
	assert.Equal(t, cfg, watcher.GetConfig())
}
