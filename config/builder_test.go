package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoaderBuilder_Build 测试构建完整加载链
func TestLoaderBuilder_Build(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.yaml"), []byte(`
callguard:
  enabled: true
log:
  level: info
`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "dev.yaml"), []byte(`
log:
  level: debug
`), 0644))

	t.Setenv("APP_ENV", "dev")
	t.Setenv("BDTEST_CALLGUARD_ENABLED", "false")

	loader, err := NewLoaderBuilder().
		WithConfigPath(tmpDir).
		WithEnvPrefix("BDTEST").
		WithDefaults(map[string]interface{}{
			"callguard.default.min_volume": 20,
			"log.level":                    "warn",
		}).
		Build()
	require.NoError(t, err)

	// 环境配置文件覆盖基础配置文件与默认值
	assert.Equal(t, "debug", loader.GetString("log.level"))
	// 环境变量优先级最高
	assert.False(t, loader.GetBool("callguard.enabled"))
	// 仅默认值提供的 key 保留
	assert.Equal(t, 20, loader.GetInt("callguard.default.min_volume"))
}

// TestLoaderBuilder_NoConfigPath 测试无配置目录时仅用默认值
func TestLoaderBuilder_NoConfigPath(t *testing.T) {
	loader, err := NewLoaderBuilder().
		WithDefaults(map[string]interface{}{"key": "value"}).
		Build()
	require.NoError(t, err)
	assert.Equal(t, "value", loader.GetString("key"))
	assert.Empty(t, loader.GetLoadedFiles())
}

// TestLoaderBuilder_MissingFiles 测试配置文件缺失时不报错
func TestLoaderBuilder_MissingFiles(t *testing.T) {
	loader, err := NewLoaderBuilder().
		WithConfigPath(t.TempDir()).
		Build()
	require.NoError(t, err)
	assert.NotNil(t, loader)
}

// TestGetEnv 测试运行环境解析
func TestGetEnv(t *testing.T) {
	t.Run("APP_ENV 优先", func(t *testing.T) {
		t.Setenv("APP_ENV", "prod")
		t.Setenv("ENV", "test")
		assert.Equal(t, "prod", GetEnv())
	})

	t.Run("回退到 ENV", func(t *testing.T) {
		t.Setenv("APP_ENV", "")
		t.Setenv("ENV", "test")
		assert.Equal(t, "test", GetEnv())
	})

	t.Run("默认 dev", func(t *testing.T) {
		t.Setenv("APP_ENV", "")
		t.Setenv("ENV", "")
		assert.Equal(t, "dev", GetEnv())
	})
}
