package component

// ConfigLoader 配置加载器接口
//
// 提供统一的配置读取能力，组件通过此接口读取自身配置，
// 避免组件依赖具体的配置结构。
type ConfigLoader interface {
	// Get 获取配置项（key 形如 "callguard.default.open_duration"）
	Get(key string) interface{}

	// Unmarshal 将配置反序列化到结构体
	//
	// 示例：
	//   var cfg guard.Config
	//   if err := loader.Unmarshal("callguard", &cfg); err != nil {
	//       return err
	//   }
	Unmarshal(key string, v interface{}) error

	// GetString 获取字符串配置
	GetString(key string) string

	// GetInt 获取整数配置
	GetInt(key string) int

	// GetBool 获取布尔配置
	GetBool(key string) bool

	// IsSet 检查配置项是否存在
	IsSet(key string) bool
}
