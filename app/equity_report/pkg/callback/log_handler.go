package callback

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iWorld-y/equity_report/app/equity_report/pkg/logger"
)

// LogHandler 以 DEBUG 级别记录所有事件及耗时，trace 结束时输出汇总
type LogHandler struct {
	starts sync.Map // event id -> time.Time
	traces sync.Map // trace id -> time.Time
}

var _ Handler = (*LogHandler)(nil)

// NewLogHandler 创建日志 Handler
func NewLogHandler() *LogHandler {
	return &LogHandler{}
}

func (h *LogHandler) OnEventStart(_ context.Context, ev Event) {
	h.starts.Store(ev.ID, ev.Time)
	logger.Log.WithFields(logrus.Fields{
		"event":  ev.Type,
		"id":     ev.ID,
		"parent": ev.ParentID,
	}).Debug("event start")
}

func (h *LogHandler) OnEventEnd(_ context.Context, ev Event) {
	fields := logrus.Fields{"event": ev.Type, "id": ev.ID}
	if v, ok := h.starts.LoadAndDelete(ev.ID); ok {
		fields["elapsed"] = ev.Time.Sub(v.(time.Time)).Round(time.Millisecond)
	}
	switch p := ev.Payload.(type) {
	case *LLMPayload:
		if p.Usage != nil {
			fields["prompt_tokens"] = p.Usage.PromptTokens
			fields["completion_tokens"] = p.Usage.CompletionTokens
		}
	case *RetrievePayload:
		fields["documents"] = len(p.Documents)
	case *SubQuestionPayload:
		fields["tool"] = p.ToolName
	}
	logger.Log.WithFields(fields).Debug("event end")
}

func (h *LogHandler) StartTrace(_ context.Context, traceID string) {
	h.traces.Store(traceID, time.Now())
}

func (h *LogHandler) EndTrace(_ context.Context, traceID string, traceMap map[string][]string) {
	var elapsed time.Duration
	if v, ok := h.traces.LoadAndDelete(traceID); ok {
		elapsed = time.Since(v.(time.Time)).Round(time.Millisecond)
	}
	events := 0
	for _, children := range traceMap {
		events += len(children)
	}
	logger.Log.WithFields(logrus.Fields{
		"trace":   traceID,
		"events":  events,
		"elapsed": elapsed,
	}).Debug("trace finished")
}
