package processors

import (
	"time"

	"go.uber.org/zap"

	"nyayai/internal/core"
)

// RequestLogger 是一个记录请求日志的处理器
type RequestLogger struct {
	name     string
	priority int
}

// NewRequestLogger 创建一个新的请求日志处理器
func NewRequestLogger() *RequestLogger {
	return &RequestLogger{
		name:     "request-logger",
		priority: -100, // 必须是第一个执行
	}
}

// Name 返回处理器名称
func (r *RequestLogger) Name() string {
	return r.name
}

// Priority 返回处理器优先级
func (r *RequestLogger) Priority() int {
	return r.priority
}

// OnPrompt logs the start of a generation. Prompt content is never logged.
func (r *RequestLogger) OnPrompt(ctx *core.RequestContext, prompt string) (string, error) {
	ctx.Log.Info("Generation Started",
		zap.String("request_id", ctx.RequestID),
		zap.String("backend", ctx.Backend),
		zap.String("model", ctx.Model),
		zap.Int("prompt_chars", len(prompt)),
	)
	return prompt, nil
}

// OnCompletion logs latency and output size.
func (r *RequestLogger) OnCompletion(ctx *core.RequestContext, completion string) (string, error) {
	ctx.Log.Info("Generation Finished",
		zap.String("request_id", ctx.RequestID),
		zap.Duration("latency", time.Since(ctx.StartTime)),
		zap.Int("completion_chars", len(completion)),
	)
	return completion, nil
}
