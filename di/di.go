// Package di 提供基于 samber/do 的依赖注入和生命周期管理
package di

import "github.com/samber/do/v2"

// Injector 类型别名
type Injector = do.Injector

// RootScope 类型别名
type RootScope = do.RootScope

// New 创建新的根注入器
var New = do.New

// NewWithOpts 使用选项创建新的根注入器
var NewWithOpts = do.NewWithOpts

// 泛型函数无法导出为 var，通过包名调用：
//   - do.Provide[T](injector, provider)
//   - do.ProvideValue[T](injector, value)
//   - do.Invoke[T](injector)
//   - do.MustInvoke[T](injector)
//
// 使用示例:
//   injector := di.New()
//   di.RegisterCoreProviders(injector, di.ConfigOptions{ConfigPath: "./configs"})
//   manager := do.MustInvoke[*guard.Manager](injector)
