package logger

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewManager 测试创建独立 Manager 实例
func TestNewManager(t *testing.T) {
	tmpDir := t.TempDir()
	logDir := filepath.Join(tmpDir, "test")

	cfg := ManagerConfig{
		BaseLogDir: logDir,
		Level:      "info",
		Encoding:   "json",
	}

	manager := NewManager(cfg)
	assert.NotNil(t, manager)
	assert.Equal(t, logDir, manager.baseConfig.BaseLogDir)
	assert.Equal(t, "info", manager.baseConfig.Level)
	assert.NotNil(t, manager.loggers)
}

// TestManager_GetLogger_Caching 测试同一模块返回同一实例
func TestManager_GetLogger_Caching(t *testing.T) {
	manager := NewManager(ManagerConfig{
		EnableConsole: false,
	})

	l1 := manager.GetLogger("guard")
	l2 := manager.GetLogger("guard")
	l3 := manager.GetLogger("http")

	assert.Same(t, l1, l2)
	assert.NotSame(t, l1, l3)
	assert.Equal(t, "guard", l1.Module())
	assert.Equal(t, "http", l3.Module())
}

// TestManager_GetLogger_Concurrent 测试并发获取不会重复创建
func TestManager_GetLogger_Concurrent(t *testing.T) {
	manager := NewManager(ManagerConfig{
		EnableConsole: false,
	})

	const goroutines = 20
	results := make([]*CtxZapLogger, goroutines)

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func(idx int) {
			defer wg.Done()
			results[idx] = manager.GetLogger("shared")
		}(i)
	}
	wg.Wait()

	for i := 1; i < goroutines; i++ {
		assert.Same(t, results[0], results[i])
	}
}

// TestManager_FileOutput 测试文件输出与目录创建
func TestManager_FileOutput(t *testing.T) {
	tmpDir := t.TempDir()

	manager := NewManager(ManagerConfig{
		BaseLogDir:    tmpDir,
		Level:         "info",
		Encoding:      "json",
		EnableConsole: false,
		EnableFile:    true,
	})

	log := manager.GetLogger("breaker")
	log.Info("熔断器已打开")
	manager.CloseAll()

	logFile := filepath.Join(tmpDir, "breaker", "breaker.log")
	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "熔断器已打开")
	assert.Contains(t, string(data), `"module":"breaker"`)
}

// TestManager_AppNameField 测试 app 字段自动注入
func TestManager_AppNameField(t *testing.T) {
	tmpDir := t.TempDir()

	manager := NewManager(ManagerConfig{
		BaseLogDir:    tmpDir,
		AppName:       "callguard-demo",
		EnableConsole: false,
		EnableFile:    true,
	})

	log := manager.GetLogger("core")
	log.Info("started")
	manager.CloseAll()

	data, err := os.ReadFile(filepath.Join(tmpDir, "core", "core.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"app":"callguard-demo"`)
}

// TestManager_CloseAll 测试关闭后可重新创建 Logger
func TestManager_CloseAll(t *testing.T) {
	manager := NewManager(ManagerConfig{
		EnableConsole: false,
	})

	l1 := manager.GetLogger("guard")
	manager.CloseAll()

	// 关闭后缓存被清空，重新获取是新实例
	l2 := manager.GetLogger("guard")
	assert.NotSame(t, l1, l2)
}

// TestGetLogger_AutoInit 测试全局入口自动初始化
func TestGetLogger_AutoInit(t *testing.T) {
	log := GetLogger("auto")
	assert.NotNil(t, log)
	assert.Equal(t, "auto", log.Module())

	// 不会 panic
	assert.NotPanics(t, func() {
		log.Debug("debug message")
		log.Info("info message")
		log.Warn("warn message")
	})
}
