package health

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/KOMKZ/go-callguard/component"
	"github.com/KOMKZ/go-callguard/logger"
)

// Component 健康检查组件
type Component struct {
	aggregator *Aggregator
	config     Config
	logger     *logger.CtxZapLogger
}

var _ component.Component = (*Component)(nil)

// NewComponent 创建健康检查组件
func NewComponent() *Component {
	return &Component{
		logger: logger.GetLogger("health"),
	}
}

// Name 组件名称
func (c *Component) Name() string {
	return component.ComponentHealth
}

// DependsOn 依赖组件
func (c *Component) DependsOn() []string {
	return []string{
		component.ComponentConfig,
		component.ComponentLogger,
	}
}

// Init 初始化组件
func (c *Component) Init(ctx context.Context, loader component.ConfigLoader) error {
	c.config = DefaultConfig()
	if loader.IsSet("health") {
		if err := loader.Unmarshal("health", &c.config); err != nil {
			c.logger.WarnCtx(ctx, "解析 health 配置失败，使用默认配置", zap.Error(err))
		}
	}

	if !c.config.Enabled {
		c.logger.InfoCtx(ctx, "健康检查已禁用")
		return nil
	}

	c.aggregator = NewAggregator(c.config.Timeout)

	c.logger.InfoCtx(ctx, "✅ 健康检查组件初始化完成",
		zap.Duration("timeout", c.config.Timeout))
	return nil
}

// Start 启动组件
func (c *Component) Start(ctx context.Context) error {
	return nil
}

// Stop 停止组件
func (c *Component) Stop(ctx context.Context) error {
	return nil
}

// Register 注册检查项（Init 之后调用）
func (c *Component) Register(checker Checker) {
	if c.aggregator != nil {
		c.aggregator.Register(checker)
	}
}

// GetAggregator 获取聚合器
func (c *Component) GetAggregator() *Aggregator {
	return c.aggregator
}

// IsEnabled 是否启用
func (c *Component) IsEnabled() bool {
	return c.config.Enabled
}

// Check 执行健康检查（便捷方法）
func (c *Component) Check(ctx context.Context) *Response {
	if !c.config.Enabled || c.aggregator == nil {
		return &Response{
			Status:    StatusHealthy,
			Timestamp: time.Now(),
			Checks:    make(map[string]CheckResult),
			Metadata:  map[string]interface{}{"enabled": false},
		}
	}
	return c.aggregator.Check(ctx)
}
