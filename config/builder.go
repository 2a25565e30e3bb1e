package config

import (
	"os"
	"path/filepath"
)

// LoaderBuilder 配置加载器构建器
type LoaderBuilder struct {
	configPath string
	envPrefix  string
	defaults   map[string]interface{}
}

// NewLoaderBuilder 创建构建器
func NewLoaderBuilder() *LoaderBuilder {
	return &LoaderBuilder{}
}

// WithConfigPath 设置配置目录
func (b *LoaderBuilder) WithConfigPath(path string) *LoaderBuilder {
	b.configPath = path
	return b
}

// WithEnvPrefix 设置环境变量前缀
func (b *LoaderBuilder) WithEnvPrefix(prefix string) *LoaderBuilder {
	b.envPrefix = prefix
	return b
}

// WithDefaults 设置内置默认值（点号分隔的 key）
func (b *LoaderBuilder) WithDefaults(defaults map[string]interface{}) *LoaderBuilder {
	b.defaults = defaults
	return b
}

// Build 构建并加载
func (b *LoaderBuilder) Build() (*Loader, error) {
	loader := NewLoader()

	// 1. 内置默认值（优先级 1）
	if len(b.defaults) > 0 {
		loader.AddSource(NewDefaultsSource(b.defaults))
	}

	// 2. 基础配置文件（优先级 10）
	if b.configPath != "" {
		loader.AddSource(NewFileSource(filepath.Join(b.configPath, "config.yaml"), 10))
	}

	// 3. 环境配置文件（优先级 20）
	if b.configPath != "" {
		if env := GetEnv(); env != "" {
			loader.AddSource(NewFileSource(filepath.Join(b.configPath, env+".yaml"), 20))
		}
	}

	// 4. 环境变量（优先级 50）
	if b.envPrefix != "" {
		loader.AddSource(NewEnvSource(b.envPrefix, 50))
	}

	if err := loader.Load(); err != nil {
		return nil, err
	}

	return loader, nil
}

// GetEnv 获取运行环境（优先级：APP_ENV > ENV > 默认 dev）
func GetEnv() string {
	if env := os.Getenv("APP_ENV"); env != "" {
		return env
	}
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "dev"
}
