package di

import (
	"github.com/samber/do/v2"

	"github.com/KOMKZ/go-callguard/config"
	"github.com/KOMKZ/go-callguard/guard"
	"github.com/KOMKZ/go-callguard/health"
	"github.com/KOMKZ/go-callguard/httpclient"
	"github.com/KOMKZ/go-callguard/logger"
)

// ConfigOptions 配置组件选项
type ConfigOptions struct {
	ConfigPath   string                 // 配置目录路径
	ConfigPrefix string                 // 环境变量前缀
	Defaults     map[string]interface{} // 内置默认值
}

// RegisterCoreProviders 注册所有核心组件 Provider（懒加载）
// 按依赖层级注册：Config -> Logger -> Guard -> Health/HTTPClient
func RegisterCoreProviders(injector *do.RootScope, opts ConfigOptions) {
	do.Provide(injector, ProvideConfigLoader(opts))
	do.Provide(injector, ProvideLoggerManager)
	do.Provide(injector, ProvideCtxLogger("callguard"))
	do.Provide(injector, ProvideGuardManager)
	do.Provide(injector, ProvideHealthAggregator)
	do.Provide(injector, ProvideHTTPClient)
}

// ProvideConfigLoader 创建 config.Loader 的 Provider
// 最基础的组件，无依赖
func ProvideConfigLoader(opts ConfigOptions) func(do.Injector) (*config.Loader, error) {
	return func(i do.Injector) (*config.Loader, error) {
		if opts.ConfigPath == "" {
			opts.ConfigPath = "./configs"
		}

		return config.NewLoaderBuilder().
			WithConfigPath(opts.ConfigPath).
			WithEnvPrefix(opts.ConfigPrefix).
			WithDefaults(opts.Defaults).
			Build()
	}
}

// ProvideLoggerManager 创建 logger.Manager 的 Provider
// 依赖：config.Loader（读取 logger 配置，未配置时使用默认值）
func ProvideLoggerManager(i do.Injector) (*logger.Manager, error) {
	loader, err := do.Invoke[*config.Loader](i)
	if err != nil {
		return logger.NewManager(logger.DefaultManagerConfig()), nil
	}

	var loggerCfg logger.ManagerConfig
	if err := loader.Unmarshal("logger", &loggerCfg); err != nil {
		return logger.NewManager(logger.DefaultManagerConfig()), nil
	}

	loggerCfg.ApplyDefaults()
	return logger.NewManager(loggerCfg), nil
}

// ProvideCtxLogger 创建命名 CtxZapLogger 的 Provider 工厂
func ProvideCtxLogger(moduleName string) func(do.Injector) (*logger.CtxZapLogger, error) {
	return func(i do.Injector) (*logger.CtxZapLogger, error) {
		mgr, err := do.Invoke[*logger.Manager](i)
		if err != nil {
			return logger.GetLogger(moduleName), nil
		}
		return mgr.GetLogger(moduleName), nil
	}
}

// ProvideGuardManager 创建 guard.Manager 的 Provider
// 依赖：config.Loader（读取 callguard 配置）, Logger
func ProvideGuardManager(i do.Injector) (*guard.Manager, error) {
	loader, err := do.Invoke[*config.Loader](i)
	if err != nil {
		return nil, err
	}

	log, _ := do.Invoke[*logger.CtxZapLogger](i)
	if log == nil {
		log = logger.GetLogger("callguard")
	}

	cfg := guard.DefaultConfig()
	if loader.IsSet("callguard") {
		if err := loader.Unmarshal("callguard", &cfg); err != nil {
			return nil, err
		}
	}

	return guard.NewManagerWithLogger(cfg, log)
}

// ProvideHealthAggregator 创建 health.Aggregator 的 Provider
// 自动注册熔断器健康检查
func ProvideHealthAggregator(i do.Injector) (*health.Aggregator, error) {
	loader, err := do.Invoke[*config.Loader](i)
	if err != nil {
		return nil, err
	}

	healthCfg := health.DefaultConfig()
	if loader.IsSet("health") {
		if err := loader.Unmarshal("health", &healthCfg); err != nil {
			return nil, err
		}
	}

	aggregator := health.NewAggregator(healthCfg.Timeout)

	if manager, err := do.Invoke[*guard.Manager](i); err == nil && manager != nil {
		aggregator.Register(health.NewGuardChecker(manager))
	}

	return aggregator, nil
}

// ProvideHTTPClient 创建带调用防护的 httpclient.Client 的 Provider
func ProvideHTTPClient(i do.Injector) (*httpclient.Client, error) {
	manager, err := do.Invoke[*guard.Manager](i)
	if err != nil {
		return httpclient.NewClient(), nil
	}
	return httpclient.NewClient(httpclient.WithGuard(manager)), nil
}
