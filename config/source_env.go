package config

import (
	"os"
	"strings"
)

// EnvSource 环境变量数据源
//
// 扫描带前缀的环境变量并转换为配置 key：
// APP_CALLGUARD_ENABLED=true -> callguard.enabled = "true"
//
// 环境变量名中的每个下划线都映射为层级分隔符，
// 因此含下划线的配置 key（如 window_duration）无法通过环境变量覆盖，
// 这类 key 只能来自文件或默认值数据源。
type EnvSource struct {
	prefix   string
	priority int
}

// NewEnvSource 创建环境变量数据源
func NewEnvSource(prefix string, priority int) *EnvSource {
	return &EnvSource{
		prefix:   prefix,
		priority: priority,
	}
}

// Name 数据源名称
func (s *EnvSource) Name() string {
	return "env:" + s.prefix
}

// Priority 优先级
func (s *EnvSource) Priority() int {
	return s.priority
}

// Load 加载环境变量配置
func (s *EnvSource) Load() (map[string]interface{}, error) {
	result := make(map[string]interface{})
	if s.prefix == "" {
		return result, nil
	}

	prefix := s.prefix + "_"
	for _, env := range os.Environ() {
		parts := strings.SplitN(env, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key, value := parts[0], parts[1]
		if !strings.HasPrefix(key, prefix) {
			continue
		}

		// APP_CALLGUARD_ENABLED -> callguard.enabled
		configKey := strings.TrimPrefix(key, prefix)
		configKey = strings.ToLower(configKey)
		configKey = strings.ReplaceAll(configKey, "_", ".")
		result[configKey] = value
	}

	return result, nil
}
