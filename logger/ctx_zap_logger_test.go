package logger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

func newFileLogger(t *testing.T, enableTraceID bool) (*Manager, string) {
	t.Helper()
	tmpDir := t.TempDir()
	manager := NewManager(ManagerConfig{
		BaseLogDir:    tmpDir,
		Level:         "debug",
		Encoding:      "json",
		EnableConsole: false,
		EnableFile:    true,
		EnableTraceID: enableTraceID,
	})
	return manager, tmpDir
}

func readModuleLog(t *testing.T, dir, module string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, module, module+".log"))
	require.NoError(t, err)
	return string(data)
}

// TestCtxZapLogger_TraceID 测试从 ctx 的 Span 提取 trace_id
func TestCtxZapLogger_TraceID(t *testing.T) {
	manager, dir := newFileLogger(t, true)
	log := manager.GetLogger("traced")

	traceID, err := trace.TraceIDFromHex("0123456789abcdef0123456789abcdef")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("0123456789abcdef")
	require.NoError(t, err)

	spanCtx := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID,
		SpanID:  spanID,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), spanCtx)

	log.InfoCtx(ctx, "带追踪的日志")
	manager.CloseAll()

	out := readModuleLog(t, dir, "traced")
	assert.Contains(t, out, `"trace_id":"0123456789abcdef0123456789abcdef"`)
}

// TestCtxZapLogger_NoTraceID 测试无 Span 时不注入 trace_id
func TestCtxZapLogger_NoTraceID(t *testing.T) {
	manager, dir := newFileLogger(t, true)
	log := manager.GetLogger("plain")

	log.InfoCtx(context.Background(), "普通日志")
	manager.CloseAll()

	out := readModuleLog(t, dir, "plain")
	assert.Contains(t, out, "普通日志")
	assert.NotContains(t, out, "trace_id")
}

// TestCtxZapLogger_TraceIDDisabled 测试关闭 trace_id 提取
func TestCtxZapLogger_TraceIDDisabled(t *testing.T) {
	manager, dir := newFileLogger(t, false)
	log := manager.GetLogger("notrace")

	traceID, _ := trace.TraceIDFromHex("0123456789abcdef0123456789abcdef")
	spanID, _ := trace.SpanIDFromHex("0123456789abcdef")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID,
		SpanID:  spanID,
	}))

	log.InfoCtx(ctx, "关闭提取")
	manager.CloseAll()

	out := readModuleLog(t, dir, "notrace")
	assert.NotContains(t, out, "trace_id")
}

// TestCtxZapLogger_Levels 测试各级别输出
func TestCtxZapLogger_Levels(t *testing.T) {
	manager, dir := newFileLogger(t, false)
	log := manager.GetLogger("levels")

	log.Debug("debug-msg")
	log.Info("info-msg")
	log.Warn("warn-msg")
	log.Error("error-msg", zap.String("reason", "boom"))
	manager.CloseAll()

	out := readModuleLog(t, dir, "levels")
	assert.Contains(t, out, "debug-msg")
	assert.Contains(t, out, "info-msg")
	assert.Contains(t, out, "warn-msg")
	assert.Contains(t, out, "error-msg")
	assert.Contains(t, out, `"reason":"boom"`)
}

// TestCtxZapLogger_With 测试附加固定字段
func TestCtxZapLogger_With(t *testing.T) {
	manager, dir := newFileLogger(t, false)
	log := manager.GetLogger("with")

	scoped := log.With(zap.String("resource", "payment-api"))
	assert.Equal(t, "with", scoped.Module())

	scoped.Info("scoped message")
	manager.CloseAll()

	out := readModuleLog(t, dir, "with")
	assert.Contains(t, out, `"resource":"payment-api"`)
}
