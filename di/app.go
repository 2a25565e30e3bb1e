package di

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/samber/do/v2"
	"go.uber.org/zap"

	"github.com/KOMKZ/go-callguard/config"
	"github.com/KOMKZ/go-callguard/guard"
	"github.com/KOMKZ/go-callguard/logger"
)

// App 应用启动框架
// 通过 samber/do 管理组件生命周期：Provider 创建时完成初始化，Shutdown 时清理
type App struct {
	injector *do.RootScope

	configPath   string
	configPrefix string

	// 核心组件缓存（快速访问）
	logger       *logger.CtxZapLogger
	configLoader *config.Loader

	ctx    context.Context
	cancel context.CancelFunc
	state  AppState
	mu     sync.RWMutex

	onSetup    func(*App) error
	onShutdown func(context.Context) error
}

// AppState 应用状态
type AppState int

const (
	StateInit AppState = iota
	StateSetup
	StateRunning
	StateStopping
	StateStopped
)

// String 状态字符串表示
func (s AppState) String() string {
	switch s {
	case StateInit:
		return "Init"
	case StateSetup:
		return "Setup"
	case StateRunning:
		return "Running"
	case StateStopping:
		return "Stopping"
	case StateStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// NewApp 创建应用实例
func NewApp(configPath, configPrefix string) *App {
	ctx, cancel := context.WithCancel(context.Background())
	injector := do.New()

	RegisterCoreProviders(injector, ConfigOptions{
		ConfigPath:   configPath,
		ConfigPrefix: configPrefix,
	})

	return &App{
		injector:     injector,
		configPath:   configPath,
		configPrefix: configPrefix,
		ctx:          ctx,
		cancel:       cancel,
		state:        StateInit,
	}
}

// Setup 初始化核心组件
func (a *App) Setup() error {
	a.setState(StateSetup)

	loader, err := do.Invoke[*config.Loader](a.injector)
	if err != nil {
		return fmt.Errorf("初始化配置失败: %w", err)
	}
	a.configLoader = loader

	log, err := do.Invoke[*logger.CtxZapLogger](a.injector)
	if err != nil {
		return fmt.Errorf("初始化日志失败: %w", err)
	}
	a.logger = log

	// 触发防护组件初始化
	if _, err := do.Invoke[*guard.Manager](a.injector); err != nil {
		return fmt.Errorf("初始化调用防护失败: %w", err)
	}
	a.logger.DebugCtx(a.ctx, "✅ 调用防护组件已就绪")

	if a.onSetup != nil {
		if err := a.onSetup(a); err != nil {
			return fmt.Errorf("onSetup failed: %w", err)
		}
	}

	a.setState(StateRunning)
	return nil
}

// Shutdown 优雅关闭
func (a *App) Shutdown(timeout time.Duration) error {
	a.setState(StateStopping)

	log := a.MustGetLogger()
	log.DebugCtx(a.ctx, "🔻 开始优雅关闭...")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if a.onShutdown != nil {
		if err := a.onShutdown(ctx); err != nil {
			log.ErrorCtx(ctx, "OnShutdown 回调失败", zap.Error(err))
		}
	}

	// 关闭防护器，排空事件总线
	if manager, err := do.Invoke[*guard.Manager](a.injector); err == nil && manager != nil {
		if err := manager.Close(); err != nil {
			log.ErrorCtx(ctx, "关闭调用防护失败", zap.Error(err))
		}
	}

	if err := a.injector.Shutdown(); err != nil {
		log.ErrorCtx(ctx, "DI 容器关闭失败", zap.Error(err))
	}

	log.DebugCtx(ctx, "✅ 所有组件已关闭")
	a.setState(StateStopped)
	return nil
}

// WaitShutdown 等待关闭信号
// 第一次信号触发优雅关停，第二次信号立即强制退出
func (a *App) WaitShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log := a.MustGetLogger()

	select {
	case sig := <-quit:
		log.DebugCtx(a.ctx, "收到关闭信号", zap.String("signal", sig.String()))
		a.cancel()

		go func() {
			sig := <-quit
			log.WarnCtx(context.Background(), "⚠️  收到第二次信号，强制退出", zap.String("signal", sig.String()))
			os.Exit(1)
		}()

	case <-a.ctx.Done():
		log.DebugCtx(context.Background(), "Context 已取消，开始优雅关闭")
	}
}

// Cancel 手动触发关闭（用于测试或程序控制）
func (a *App) Cancel() {
	a.cancel()
}

// OnSetup 注册 Setup 阶段回调
func (a *App) OnSetup(fn func(*App) error) *App {
	a.onSetup = fn
	return a
}

// OnShutdown 注册关闭前回调
func (a *App) OnShutdown(fn func(context.Context) error) *App {
	a.onShutdown = fn
	return a
}

// MustGetLogger 获取日志实例（Setup 后可用）
func (a *App) MustGetLogger() *logger.CtxZapLogger {
	if a.logger == nil {
		panic("logger not initialized, call Setup() first")
	}
	return a.logger
}

// GetConfigLoader 获取配置加载器（Setup 后可用）
func (a *App) GetConfigLoader() *config.Loader {
	if a.configLoader == nil {
		panic("config loader not initialized, call Setup() first")
	}
	return a.configLoader
}

// GetInjector 获取注入器
func (a *App) GetInjector() *do.RootScope {
	return a.injector
}

// GetState 获取当前状态（线程安全）
func (a *App) GetState() AppState {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

// Context 获取应用上下文
func (a *App) Context() context.Context {
	return a.ctx
}

func (a *App) setState(state AppState) {
	a.mu.Lock()
	defer a.mu.Unlock()

	oldState := a.state
	a.state = state

	if a.logger != nil {
		a.logger.DebugCtx(a.ctx, "应用状态变更",
			zap.String("from", oldState.String()),
			zap.String("to", state.String()))
	}
}
