package logger

import (
	"go.uber.org/zap/zapcore"
)

// ManagerConfig 全局日志管理器配置（所有模块共享）
type ManagerConfig struct {
	BaseLogDir    string `mapstructure:"base_log_dir"` // 日志根目录（默认 logs/）
	Level         string `mapstructure:"level"`
	AppName       string `mapstructure:"app_name"` // 应用名称（自动注入所有日志）
	Encoding      string `mapstructure:"encoding"` // json 或 console
	EnableConsole bool   `mapstructure:"enable_console"`
	EnableFile    bool   `mapstructure:"enable_file"`

	// 文件切割配置
	MaxSize    int  `mapstructure:"max_size"`    // 单文件最大大小（MB）
	MaxBackups int  `mapstructure:"max_backups"` // 保留旧文件数量
	MaxAge     int  `mapstructure:"max_age"`     // 保留天数
	Compress   bool `mapstructure:"compress"`    // 是否压缩

	EnableCaller bool `mapstructure:"enable_caller"`

	// Trace ID 配置
	EnableTraceID bool `mapstructure:"enable_trace_id"` // 是否自动提取 traceID
}

// DefaultManagerConfig 返回默认管理器配置
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		BaseLogDir:    "logs",
		Level:         "info",
		Encoding:      "json",
		EnableConsole: true,
		EnableFile:    false,
		MaxSize:       100,
		MaxBackups:    3,
		MaxAge:        28,
		Compress:      true,
		EnableCaller:  true,
		EnableTraceID: true,
	}
}

// ApplyDefaults 填充零值字段为默认值
func (c *ManagerConfig) ApplyDefaults() {
	def := DefaultManagerConfig()

	if c.BaseLogDir == "" {
		c.BaseLogDir = def.BaseLogDir
	}
	if c.Level == "" {
		c.Level = def.Level
	}
	if c.Encoding == "" {
		c.Encoding = def.Encoding
	}
	if c.MaxSize == 0 {
		c.MaxSize = def.MaxSize
	}
	if c.MaxBackups == 0 {
		c.MaxBackups = def.MaxBackups
	}
	if c.MaxAge == 0 {
		c.MaxAge = def.MaxAge
	}
}

// ParseLevel 解析日志级别字符串
func ParseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
