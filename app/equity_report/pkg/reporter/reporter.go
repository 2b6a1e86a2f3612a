// Package reporter 把查询引擎中已完成的子问题实时推送到输出面。
package reporter

import (
	"context"
	"sync"

	"github.com/iWorld-y/equity_report/app/equity_report/pkg/callback"
)

// Reporter 子问题事件上报器。
//
// 只处理 sub_question 的结束通知：问题与答案都已确定时，按到达顺序追加
// "Sub-Question"、"Answer" 和一条分隔线。开始通知以及其他类别一律忽略。
type Reporter struct {
	mu   sync.Mutex
	sink Sink
}

var _ callback.Handler = (*Reporter)(nil)

// New 创建 Reporter
func New(sink Sink) *Reporter {
	return &Reporter{sink: sink}
}

// OnEventStart 开始时答案尚未生成，不输出
func (r *Reporter) OnEventStart(context.Context, callback.Event) {}

func (r *Reporter) OnEventEnd(_ context.Context, ev callback.Event) {
	if ev.Type != callback.EventSubQuestion || r.sink == nil {
		return
	}
	p, ok := ev.Payload.(*callback.SubQuestionPayload)
	if !ok {
		return
	}
	pair, ok := p.Finalized()
	if !ok {
		return
	}

	// 三个块作为一个整体追加，避免并发子问题交错
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sink.Append(Text("Sub-Question: " + pair.Question))
	r.sink.Append(Text("Answer: " + pair.Answer))
	r.sink.Append(Separator())
}

func (r *Reporter) StartTrace(context.Context, string) {}

func (r *Reporter) EndTrace(context.Context, string, map[string][]string) {}
