package guard

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/metric"

	"github.com/KOMKZ/go-callguard/component"
	"github.com/KOMKZ/go-callguard/logger"
)

// Component 调用防护组件（实现 component.Component）
//
// 从配置加载器的 "callguard" 配置段读取配置，Init 时创建 Manager。
type Component struct {
	manager     *Manager
	otelMetrics *OTelGuardMetrics
	mu          sync.RWMutex
}

var (
	_ component.Component       = (*Component)(nil)
	_ component.MetricsProvider = (*Component)(nil)
)

// NewComponent 创建调用防护组件
func NewComponent() *Component {
	return &Component{}
}

// Name 组件名称
func (c *Component) Name() string {
	return component.ComponentCallGuard
}

// DependsOn 依赖的组件
func (c *Component) DependsOn() []string {
	return []string{component.ComponentConfig, component.ComponentLogger}
}

// Init 初始化组件：读取配置并创建 Manager
func (c *Component) Init(ctx context.Context, loader component.ConfigLoader) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	cfg := DefaultConfig()
	if loader.IsSet("callguard") {
		if err := loader.Unmarshal("callguard", &cfg); err != nil {
			return fmt.Errorf("load callguard config: %w", err)
		}
	}

	log := logger.GetLogger("callguard")

	manager, err := NewManagerWithLogger(cfg, log)
	if err != nil {
		return err
	}
	c.manager = manager

	// 可选的 OTel 指标：通过事件总线接入
	var metricsCfg GuardMetricsConfig
	if loader.IsSet("callguard.metrics") {
		if err := loader.Unmarshal("callguard.metrics", &metricsCfg); err != nil {
			return fmt.Errorf("load callguard metrics config: %w", err)
		}
	}
	c.otelMetrics = NewOTelGuardMetrics(metricsCfg)

	if cfg.Enabled && metricsCfg.Enabled {
		manager.GetEventBus().Subscribe(c.otelMetrics.EventListener())
	}

	return nil
}

// Start 启动组件（无对外服务，空实现）
func (c *Component) Start(ctx context.Context) error {
	return nil
}

// Stop 停止组件（幂等）
func (c *Component) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.manager != nil {
		err := c.manager.Close()
		c.manager = nil
		return err
	}
	return nil
}

// GetManager 获取 Manager 实例（Init 之后可用）
func (c *Component) GetManager() *Manager {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.manager
}

// MetricsName 指标组名称
func (c *Component) MetricsName() string {
	return "callguard"
}

// IsMetricsEnabled 是否启用指标采集
func (c *Component) IsMetricsEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.otelMetrics != nil && c.otelMetrics.IsMetricsEnabled()
}

// RegisterMetrics 注册 OTel 指标
func (c *Component) RegisterMetrics(meter metric.Meter) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.otelMetrics == nil {
		return nil
	}
	return c.otelMetrics.RegisterMetrics(meter)
}
