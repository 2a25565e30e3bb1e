package config

// DefaultsSource 内置默认值数据源（最低优先级）
type DefaultsSource struct {
	values map[string]interface{}
}

// NewDefaultsSource 创建默认值数据源
// values 使用点号分隔的 key，如 {"callguard.enabled": false}
func NewDefaultsSource(values map[string]interface{}) *DefaultsSource {
	copied := make(map[string]interface{}, len(values))
	for k, v := range values {
		copied[k] = v
	}
	return &DefaultsSource{values: copied}
}

// Name 数据源名称
func (s *DefaultsSource) Name() string {
	return "defaults"
}

// Priority 优先级（固定最低）
func (s *DefaultsSource) Priority() int {
	return 1
}

// Load 加载默认值
func (s *DefaultsSource) Load() (map[string]interface{}, error) {
	result := make(map[string]interface{}, len(s.values))
	for k, v := range s.values {
		result[k] = v
	}
	return result, nil
}
