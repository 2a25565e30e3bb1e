package guard

import (
	"time"
)

// Config 调用防护配置
type Config struct {
	// Enabled 是否启用（false 时直接透传，不进行熔断判断）
	Enabled bool `mapstructure:"enabled"`

	// EventBusBuffer 事件总线缓冲区大小
	EventBusBuffer int `mapstructure:"event_bus_buffer"`

	// Default 默认资源配置
	Default ResourceConfig `mapstructure:"default"`

	// Resources 资源级配置（覆盖 Default）
	Resources map[string]ResourceConfig `mapstructure:"resources"`
}

// ResourceConfig 资源级配置（防护器构造后不可变）
type ResourceConfig struct {
	// FailureRateThreshold 失败率阈值 (0.0-1.0)，达到后熔断
	FailureRateThreshold float64 `mapstructure:"failure_rate_threshold"`

	// MinVolume 窗口内最小调用数（未达到时不评估失败率，避免小流量误判）
	MinVolume int `mapstructure:"min_volume"`

	// WindowDuration 滑动窗口时长
	WindowDuration time.Duration `mapstructure:"window_duration"`

	// BucketDuration 时间桶粒度
	BucketDuration time.Duration `mapstructure:"bucket_duration"`

	// OpenDuration Open 状态持续时间（之后允许试探调用）
	OpenDuration time.Duration `mapstructure:"open_duration"`

	// HalfOpenTimeout 试探调用的最长执行时间（超过按失败处理）
	HalfOpenTimeout time.Duration `mapstructure:"half_open_timeout"`

	// CallTimeout 普通调用的默认超时时间
	CallTimeout time.Duration `mapstructure:"call_timeout"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Enabled:        false, // 默认不启用
		EventBusBuffer: 500,
		Default:        DefaultResourceConfig(),
		Resources:      make(map[string]ResourceConfig),
	}
}

// DefaultResourceConfig 返回默认资源配置
func DefaultResourceConfig() ResourceConfig {
	return ResourceConfig{
		FailureRateThreshold: 0.5,
		MinVolume:            20,
		WindowDuration:       10 * time.Second,
		BucketDuration:       time.Second,
		OpenDuration:         30 * time.Second,
		HalfOpenTimeout:      2 * time.Second,
		CallTimeout:          5 * time.Second,
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil // 未启用，不需要验证
	}

	if c.EventBusBuffer <= 0 {
		c.EventBusBuffer = 500
	}

	// 验证默认配置
	if err := c.Default.Validate(); err != nil {
		return err
	}

	// 合并并验证资源配置
	for name, cfg := range c.Resources {
		// 合并默认配置（资源配置中未设置的字段使用默认值）
		merged := c.Default.Merge(cfg)
		c.Resources[name] = merged

		if err := merged.Validate(); err != nil {
			return &ValidationError{
				Resource: name,
				Err:      err,
			}
		}
	}

	return nil
}

// Merge 合并配置（override 覆盖默认值，只覆盖非零值）
func (rc ResourceConfig) Merge(override ResourceConfig) ResourceConfig {
	result := rc

	if override.FailureRateThreshold > 0 {
		result.FailureRateThreshold = override.FailureRateThreshold
	}
	if override.MinVolume > 0 {
		result.MinVolume = override.MinVolume
	}
	if override.WindowDuration > 0 {
		result.WindowDuration = override.WindowDuration
	}
	if override.BucketDuration > 0 {
		result.BucketDuration = override.BucketDuration
	}
	if override.OpenDuration > 0 {
		result.OpenDuration = override.OpenDuration
	}
	if override.HalfOpenTimeout > 0 {
		result.HalfOpenTimeout = override.HalfOpenTimeout
	}
	if override.CallTimeout > 0 {
		result.CallTimeout = override.CallTimeout
	}

	return result
}

// Validate 验证资源配置
func (rc *ResourceConfig) Validate() error {
	if rc.FailureRateThreshold <= 0 || rc.FailureRateThreshold > 1 {
		return &ValidationError{Field: "FailureRateThreshold", Message: "must be between 0.0 and 1.0"}
	}

	if rc.MinVolume < 1 {
		return &ValidationError{Field: "MinVolume", Message: "must be >= 1"}
	}

	if rc.WindowDuration <= 0 {
		return &ValidationError{Field: "WindowDuration", Message: "must be > 0"}
	}

	if rc.BucketDuration <= 0 {
		return &ValidationError{Field: "BucketDuration", Message: "must be > 0"}
	}

	if rc.WindowDuration < rc.BucketDuration {
		return &ValidationError{Field: "WindowDuration", Message: "must be >= BucketDuration"}
	}

	if rc.OpenDuration <= 0 {
		return &ValidationError{Field: "OpenDuration", Message: "must be > 0"}
	}

	if rc.HalfOpenTimeout <= 0 {
		return &ValidationError{Field: "HalfOpenTimeout", Message: "must be > 0"}
	}

	if rc.CallTimeout <= 0 {
		return &ValidationError{Field: "CallTimeout", Message: "must be > 0"}
	}

	return nil
}

// GetResourceConfig 获取资源配置（优先使用资源级，否则使用默认）
func (c *Config) GetResourceConfig(resource string) ResourceConfig {
	if cfg, ok := c.Resources[resource]; ok {
		return cfg
	}
	return c.Default
}

// ValidationError 配置验证错误
type ValidationError struct {
	Resource string
	Field    string
	Message  string
	Err      error
}

func (e *ValidationError) Error() string {
	if e.Resource != "" {
		if e.Err != nil {
			return "callguard config validation failed for resource '" + e.Resource + "': " + e.Err.Error()
		}
		return "callguard config validation failed for resource '" + e.Resource + "." + e.Field + "': " + e.Message
	}

	if e.Field != "" {
		return "callguard config validation failed for field '" + e.Field + "': " + e.Message
	}

	if e.Err != nil {
		return "callguard config validation failed: " + e.Err.Error()
	}

	return "callguard config validation failed"
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
