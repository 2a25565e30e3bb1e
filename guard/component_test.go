package guard

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KOMKZ/go-callguard/component"
)

// fakeLoader 测试用配置加载器
type fakeLoader struct {
	guardConfig   *Config
	metricsConfig *GuardMetricsConfig
}

func (l *fakeLoader) Get(key string) interface{}  { return nil }
func (l *fakeLoader) GetString(key string) string { return "" }
func (l *fakeLoader) GetInt(key string) int       { return 0 }
func (l *fakeLoader) GetBool(key string) bool     { return false }

func (l *fakeLoader) IsSet(key string) bool {
	switch key {
	case "callguard":
		return l.guardConfig != nil
	case "callguard.metrics":
		return l.metricsConfig != nil
	}
	return false
}

func (l *fakeLoader) Unmarshal(key string, v interface{}) error {
	switch key {
	case "callguard":
		if l.guardConfig != nil {
			*v.(*Config) = *l.guardConfig
		}
		return nil
	case "callguard.metrics":
		if l.metricsConfig != nil {
			*v.(*GuardMetricsConfig) = *l.metricsConfig
		}
		return nil
	}
	return fmt.Errorf("unknown key: %s", key)
}

var _ component.ConfigLoader = (*fakeLoader)(nil)

// TestComponent_Lifecycle 组件生命周期
func TestComponent_Lifecycle(t *testing.T) {
	comp := NewComponent()
	ctx := context.Background()

	assert.Equal(t, component.ComponentCallGuard, comp.Name())
	assert.Contains(t, comp.DependsOn(), component.ComponentConfig)
	assert.Contains(t, comp.DependsOn(), component.ComponentLogger)

	cfg := enabledTestConfig()
	loader := &fakeLoader{guardConfig: &cfg}

	require.NoError(t, comp.Init(ctx, loader))
	require.NotNil(t, comp.GetManager())
	assert.True(t, comp.GetManager().IsEnabled())

	assert.NoError(t, comp.Start(ctx))

	assert.NoError(t, comp.Stop(ctx))
	assert.Nil(t, comp.GetManager())

	// Stop 幂等
	assert.NoError(t, comp.Stop(ctx))
}

// TestComponent_InitWithoutConfig 无配置时使用默认配置（未启用）
func TestComponent_InitWithoutConfig(t *testing.T) {
	comp := NewComponent()

	require.NoError(t, comp.Init(context.Background(), &fakeLoader{}))
	require.NotNil(t, comp.GetManager())
	assert.False(t, comp.GetManager().IsEnabled())

	assert.NoError(t, comp.Stop(context.Background()))
}

// TestComponent_InitInvalidConfig 非法配置返回错误
func TestComponent_InitInvalidConfig(t *testing.T) {
	comp := NewComponent()

	cfg := enabledTestConfig()
	cfg.Default.OpenDuration = 0
	loader := &fakeLoader{guardConfig: &cfg}

	assert.Error(t, comp.Init(context.Background(), loader))
}

// TestComponent_MetricsProvider 指标提供者接口
func TestComponent_MetricsProvider(t *testing.T) {
	comp := NewComponent()

	cfg := enabledTestConfig()
	loader := &fakeLoader{
		guardConfig:   &cfg,
		metricsConfig: &GuardMetricsConfig{Enabled: true, RecordState: true},
	}

	require.NoError(t, comp.Init(context.Background(), loader))
	defer comp.Stop(context.Background())

	assert.Equal(t, "callguard", comp.MetricsName())
	assert.True(t, comp.IsMetricsEnabled())
}
