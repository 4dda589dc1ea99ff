package testutil

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/d60-Lab/trustcircle/pkg/logger"
)

// ObserveLogs 把全局 logger 换成内存观察者，测试结束恢复
func ObserveLogs(tb testing.TB) *observer.ObservedLogs {
	tb.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	prev := logger.L()
	logger.Set(zap.New(core))
	tb.Cleanup(func() { logger.Set(prev) })
	return logs
}
