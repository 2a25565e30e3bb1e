package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

// TestManagerConfig_ApplyDefaults 测试默认值填充
func TestManagerConfig_ApplyDefaults(t *testing.T) {
	tests := []struct {
		name     string
		input    ManagerConfig
		expected ManagerConfig
	}{
		{
			name:  "空配置应填充所有默认值",
			input: ManagerConfig{},
			expected: ManagerConfig{
				BaseLogDir: "logs",
				Level:      "info",
				Encoding:   "json",
				MaxSize:    100,
				MaxBackups: 3,
				MaxAge:     28,
			},
		},
		{
			name: "部分配置应保留用户值",
			input: ManagerConfig{
				Level:   "debug",
				MaxSize: 200,
			},
			expected: ManagerConfig{
				BaseLogDir: "logs",
				Level:      "debug",
				Encoding:   "json",
				MaxSize:    200,
				MaxBackups: 3,
				MaxAge:     28,
			},
		},
		{
			name: "完整配置不应被覆盖",
			input: ManagerConfig{
				BaseLogDir: "custom/logs",
				Level:      "warn",
				Encoding:   "console",
				MaxSize:    500,
				MaxBackups: 10,
				MaxAge:     90,
			},
			expected: ManagerConfig{
				BaseLogDir: "custom/logs",
				Level:      "warn",
				Encoding:   "console",
				MaxSize:    500,
				MaxBackups: 10,
				MaxAge:     90,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.input
			cfg.ApplyDefaults()
			assert.Equal(t, tt.expected, cfg)
		})
	}
}

// TestDefaultManagerConfig 测试默认配置内容
func TestDefaultManagerConfig(t *testing.T) {
	cfg := DefaultManagerConfig()

	assert.Equal(t, "logs", cfg.BaseLogDir)
	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "json", cfg.Encoding)
	assert.True(t, cfg.EnableConsole)
	assert.False(t, cfg.EnableFile)
	assert.True(t, cfg.EnableTraceID)
}

// TestParseLevel 测试日志级别解析
func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"unknown", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ParseLevel(tt.input), "level=%q", tt.input)
	}
}
