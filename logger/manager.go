package logger

import (
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Manager Logger 管理器（管理多个模块的 Logger 实例）
type Manager struct {
	baseConfig ManagerConfig
	loggers    map[string]*CtxZapLogger        // 模块名 -> CtxZapLogger 实例
	writers    map[string][]*lumberjack.Logger // 模块名 -> 文件写入器（用于关闭）
	mu         sync.RWMutex
}

var (
	globalManager *Manager
	managerOnce   sync.Once
)

// NewManager 创建独立的 Manager 实例（支持多实例场景）
// cfg 中的零值字段会自动填充为默认值
func NewManager(cfg ManagerConfig) *Manager {
	cfg.ApplyDefaults()
	return &Manager{
		baseConfig: cfg,
		loggers:    make(map[string]*CtxZapLogger),
		writers:    make(map[string][]*lumberjack.Logger),
	}
}

// InitManager 初始化全局 Logger 管理器（只调用一次）
func InitManager(cfg ManagerConfig) {
	managerOnce.Do(func() {
		globalManager = NewManager(cfg)
	})
}

// GetLogger 获取指定模块的 CtxZapLogger（线程安全，按需创建）
// 未初始化时使用默认配置自动初始化
func GetLogger(moduleName string) *CtxZapLogger {
	if globalManager == nil {
		InitManager(DefaultManagerConfig())
	}
	return globalManager.GetLogger(moduleName)
}

// CloseAll 关闭所有 Logger（应用退出时调用）
func CloseAll() {
	if globalManager == nil {
		return
	}
	globalManager.CloseAll()
}

// GetLogger 获取指定模块的 CtxZapLogger（线程安全，按需创建）
// 返回的 Logger 已自动包含 module 字段
func (m *Manager) GetLogger(moduleName string) *CtxZapLogger {
	// 先尝试读锁（快速路径）
	m.mu.RLock()
	if logger, exists := m.loggers[moduleName]; exists {
		m.mu.RUnlock()
		return logger
	}
	m.mu.RUnlock()

	// 不存在，创建新的 Logger（写锁）
	m.mu.Lock()
	defer m.mu.Unlock()

	// 双重检查（避免并发创建）
	if logger, exists := m.loggers[moduleName]; exists {
		return logger
	}

	zapLogger := m.createLogger(moduleName)

	// 自动添加 module / app 字段
	fields := []zap.Field{zap.String("module", moduleName)}
	if m.baseConfig.AppName != "" {
		fields = append(fields, zap.String("app", m.baseConfig.AppName))
	}
	zapLoggerWithModule := zapLogger.With(fields...)

	// 添加 CallerSkip，跳过 CtxZapLogger 的包装层
	zapLoggerWithSkip := zapLoggerWithModule.WithOptions(zap.AddCallerSkip(1))

	ctxLogger := &CtxZapLogger{
		base:   zapLoggerWithSkip,
		module: moduleName,
		config: &m.baseConfig,
	}

	m.loggers[moduleName] = ctxLogger
	return ctxLogger
}

// createLogger 创建底层 zap.Logger 实例
func (m *Manager) createLogger(moduleName string) *zap.Logger {
	cfg := m.baseConfig
	encoder := createEncoder(cfg)
	level := ParseLevel(cfg.Level)

	var cores []zapcore.Core
	var writers []*lumberjack.Logger

	// Console 输出
	if cfg.EnableConsole {
		consoleCore := zapcore.NewCore(
			encoder,
			zapcore.AddSync(os.Stdout),
			level,
		)
		cores = append(cores, consoleCore)
	}

	// 文件输出（按模块分文件，lumberjack 负责切割）
	if cfg.EnableFile {
		filename := filepath.Join(cfg.BaseLogDir, moduleName, moduleName+".log")
		fileWriter, lumber := createFileWriter(filename, cfg)
		writers = append(writers, lumber)

		fileCore := zapcore.NewCore(
			encoder,
			fileWriter,
			level,
		)
		cores = append(cores, fileCore)
	}

	core := zapcore.NewTee(cores...)

	opts := []zap.Option{}
	if cfg.EnableCaller {
		opts = append(opts, zap.AddCaller())
	}

	if len(writers) > 0 {
		m.writers[moduleName] = writers
	}

	return zap.New(core, opts...)
}

// CloseAll 刷新缓冲区并关闭所有文件句柄
func (m *Manager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, logger := range m.loggers {
		_ = logger.base.Sync()
	}

	for _, writers := range m.writers {
		for _, w := range writers {
			_ = w.Close()
		}
	}

	m.loggers = make(map[string]*CtxZapLogger)
	m.writers = make(map[string][]*lumberjack.Logger)
}

// createEncoder 创建编码器
func createEncoder(cfg ManagerConfig) zapcore.Encoder {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		MessageKey:     "msg",
		CallerKey:      "caller",
		StacktraceKey:  "stack",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	switch cfg.Encoding {
	case "console":
		return zapcore.NewConsoleEncoder(encoderConfig)
	default:
		return zapcore.NewJSONEncoder(encoderConfig)
	}
}

// createFileWriter 创建文件写入器（支持切割）
func createFileWriter(filename string, cfg ManagerConfig) (zapcore.WriteSyncer, *lumberjack.Logger) {
	// 确保目录存在
	dir := filepath.Dir(filename)
	_ = os.MkdirAll(dir, 0755)

	lumberLogger := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
		LocalTime:  true,
	}

	return zapcore.AddSync(lumberLogger), lumberLogger
}
