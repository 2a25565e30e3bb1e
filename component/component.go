// Package component 提供组件接口定义
// 这是最底层的包，不依赖任何业务包，避免循环依赖
package component

import "context"

// 组件名称常量
const (
	ComponentConfig    = "config"
	ComponentLogger    = "logger"
	ComponentCallGuard = "callguard"
	ComponentHealth    = "health"
)

// Component 组件接口（统一生命周期管理）
//
// 组件生命周期：Init → Start → Stop
type Component interface {
	// Name 组件名称（唯一标识）
	Name() string

	// DependsOn 声明依赖的组件名称
	//
	// 支持可选依赖：
	//   - 强制依赖：直接返回组件名，如 "config", "logger"
	//   - 可选依赖：使用 "optional:" 前缀，如 "optional:telemetry"
	DependsOn() []string

	// Init 初始化组件（创建资源，不启动对外服务）
	//
	// 组件通过 loader 自行读取配置，不依赖其他组件实例
	Init(ctx context.Context, loader ConfigLoader) error

	// Start 启动组件（对外提供服务或开始监听）
	Start(ctx context.Context) error

	// Stop 停止组件（释放资源，保证幂等）
	Stop(ctx context.Context) error
}

// HealthChecker 健康检查接口
// 组件可选实现此接口，提供健康检查能力
type HealthChecker interface {
	// Check 执行健康检查
	// 返回 nil 表示健康，返回 error 表示不健康
	Check(ctx context.Context) error

	// Name 返回检查项名称（如 "callguard"）
	Name() string
}

// HealthCheckProvider 健康检查提供者接口
type HealthCheckProvider interface {
	GetHealthChecker() HealthChecker
}
