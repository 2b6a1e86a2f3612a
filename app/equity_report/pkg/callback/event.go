// Package callback 定义查询引擎执行过程中的事件模型与监听接口。
//
// 引擎在每个阶段开始和结束时通过 Manager 通知已注册的 Handler，
// Handler 只观察，不改变引擎的控制流。
package callback

import (
	"context"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// EventType 事件类别
type EventType string

const (
	EventQuery       EventType = "query"
	EventSubQuestion EventType = "sub_question"
	EventRetrieve    EventType = "retrieve"
	EventSynthesize  EventType = "synthesize"
	EventLLM         EventType = "llm"
	EventTemplating  EventType = "templating"
)

// Event 一次事件通知
type Event struct {
	ID       string
	ParentID string
	Type     EventType
	Payload  Payload
	Time     time.Time
}

// Payload 事件负载，只有本包内定义的类型可以实现
type Payload interface {
	payloadType() EventType
}

// QueryPayload 顶层查询
type QueryPayload struct {
	Query    string
	Response string
}

// SubQuestionPayload 子问题。开始时 Answer 为空，结束时才有值
type SubQuestionPayload struct {
	Question string
	ToolName string
	Answer   *string
	Sources  []*schema.Document
}

// RetrievePayload 检索
type RetrievePayload struct {
	Query     string
	Documents []*schema.Document
}

// SynthesizePayload 答案合成
type SynthesizePayload struct {
	Query    string
	Response string
}

// LLMPayload 一次模型调用
type LLMPayload struct {
	Model    string
	Messages []*schema.Message
	Response string
	Usage    *model.TokenUsage
}

// TemplatingPayload 提示词模板渲染
type TemplatingPayload struct {
	Template string
	Vars     map[string]any
}

func (*QueryPayload) payloadType() EventType       { return EventQuery }
func (*SubQuestionPayload) payloadType() EventType { return EventSubQuestion }
func (*RetrievePayload) payloadType() EventType    { return EventRetrieve }
func (*SynthesizePayload) payloadType() EventType  { return EventSynthesize }
func (*LLMPayload) payloadType() EventType         { return EventLLM }
func (*TemplatingPayload) payloadType() EventType  { return EventTemplating }

// SubQuestionAnswer 已完成的子问题与答案
type SubQuestionAnswer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Finalized 子问题和答案都存在时返回完整的问答对
func (p *SubQuestionPayload) Finalized() (SubQuestionAnswer, bool) {
	if p == nil || p.Answer == nil {
		return SubQuestionAnswer{}, false
	}
	q := strings.TrimSpace(p.Question)
	a := strings.TrimSpace(*p.Answer)
	if q == "" || a == "" {
		return SubQuestionAnswer{}, false
	}
	return SubQuestionAnswer{Question: q, Answer: a}, true
}

// Answered 构造带答案的子问题负载
func Answered(question, toolName, answer string, sources []*schema.Document) *SubQuestionPayload {
	return &SubQuestionPayload{
		Question: question,
		ToolName: toolName,
		Answer:   &answer,
		Sources:  sources,
	}
}

// Handler 事件监听接口
type Handler interface {
	OnEventStart(ctx context.Context, ev Event)
	OnEventEnd(ctx context.Context, ev Event)
	StartTrace(ctx context.Context, traceID string)
	EndTrace(ctx context.Context, traceID string, traceMap map[string][]string)
}
