package config

// Source 配置数据源接口
// 所有数据源（内置默认值、文件、环境变量）实现此接口
type Source interface {
	// Name 数据源名称（用于日志与调试）
	Name() string

	// Priority 优先级（数值越大优先级越高）
	// 约定值：
	// - 内置默认值: 1
	// - 基础配置文件 (config.yaml): 10
	// - 环境配置文件 (dev.yaml): 20
	// - 环境变量: 50
	Priority() int

	// Load 加载配置数据
	// 返回的 map 使用点号分隔的 key，如 "callguard.default.open_duration"
	Load() (map[string]interface{}, error)
}
