package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/viper"

	"github.com/KOMKZ/go-callguard/component"
)

// Loader 配置加载器（支持多数据源合并）
//
// 各数据源按优先级从低到高依次合并，高优先级覆盖低优先级。
// 合并结果同步到内部 Viper 实例，由 Viper 提供类型转换与反序列化。
type Loader struct {
	sources      []Source
	mergedConfig map[string]interface{}
	v            *viper.Viper
	loadedFiles  []string
}

var _ component.ConfigLoader = (*Loader)(nil)

// NewLoader 创建配置加载器
func NewLoader() *Loader {
	return &Loader{
		sources:      make([]Source, 0),
		mergedConfig: make(map[string]interface{}),
		v:            viper.New(),
		loadedFiles:  make([]string, 0),
	}
}

// AddSource 添加配置数据源
func (l *Loader) AddSource(source Source) {
	l.sources = append(l.sources, source)
}

// Load 加载并合并所有数据源
func (l *Loader) Load() error {
	sort.SliceStable(l.sources, func(i, j int) bool {
		return l.sources[i].Priority() < l.sources[j].Priority()
	})

	l.mergedConfig = make(map[string]interface{})
	l.loadedFiles = l.loadedFiles[:0]
	for _, source := range l.sources {
		data, err := source.Load()
		if err != nil {
			return fmt.Errorf("加载数据源 %s 失败: %w", source.Name(), err)
		}

		if fileSource, ok := source.(*FileSource); ok {
			l.loadedFiles = append(l.loadedFiles, fileSource.path)
		}

		for key, value := range data {
			l.mergedConfig[key] = value
		}
	}

	l.syncToViper()
	return nil
}

// Reload 重新加载配置
func (l *Loader) Reload() error {
	return l.Load()
}

// syncToViper 将合并后的配置同步到 Viper
func (l *Loader) syncToViper() {
	nested := unflattenMap(l.mergedConfig)

	l.v = viper.New()
	for key, value := range nested {
		l.v.Set(key, value)
	}
}

// unflattenMap 将展平的 map 还原为嵌套 map
// 例如：{"callguard.default.min_volume": 20} -> {"callguard": {"default": {"min_volume": 20}}}
func unflattenMap(flat map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{})
	for key, value := range flat {
		setNestedValue(result, key, value)
	}
	return result
}

func setNestedValue(m map[string]interface{}, key string, value interface{}) {
	keys := strings.Split(key, ".")

	current := m
	for i := 0; i < len(keys)-1; i++ {
		k := keys[i]
		nested, ok := current[k].(map[string]interface{})
		if !ok {
			// 非 map 的中间节点被嵌套 key 覆盖
			nested = make(map[string]interface{})
			current[k] = nested
		}
		current = nested
	}

	current[keys[len(keys)-1]] = value
}

// Get 获取配置值
func (l *Loader) Get(key string) interface{} {
	return l.v.Get(key)
}

// GetString 获取字符串配置
func (l *Loader) GetString(key string) string {
	return l.v.GetString(key)
}

// GetInt 获取整数配置
func (l *Loader) GetInt(key string) int {
	return l.v.GetInt(key)
}

// GetBool 获取布尔配置
func (l *Loader) GetBool(key string) bool {
	return l.v.GetBool(key)
}

// IsSet 检查配置项是否存在
func (l *Loader) IsSet(key string) bool {
	return l.v.IsSet(key)
}

// Unmarshal 将指定 key 下的配置反序列化到结构体
func (l *Loader) Unmarshal(key string, out interface{}) error {
	return l.v.UnmarshalKey(key, out)
}

// AllSettings 获取全部配置
func (l *Loader) AllSettings() map[string]interface{} {
	return l.v.AllSettings()
}

// GetLoadedFiles 获取已加载的配置文件列表
func (l *Loader) GetLoadedFiles() []string {
	return l.loadedFiles
}

// GetViper 获取底层 Viper 实例
func (l *Loader) GetViper() *viper.Viper {
	return l.v
}
