package callback

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iWorld-y/equity_report/app/equity_report/pkg/logger"
)

// RootEventID trace map 中顶层事件的父节点
const RootEventID = "root"

type ctxKey int

const (
	parentKey ctxKey = iota
	traceKey
	ownerKey
)

type trace struct {
	id    string
	mu    sync.Mutex
	edges map[string][]string
}

func (t *trace) link(parent, child string) {
	t.mu.Lock()
	t.edges[parent] = append(t.edges[parent], child)
	t.mu.Unlock()
}

func (t *trace) snapshot() map[string][]string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string][]string, len(t.edges))
	for k, v := range t.edges {
		out[k] = append([]string(nil), v...)
	}
	return out
}

type registration struct {
	handler      Handler
	ignoreStarts map[EventType]bool
	ignoreEnds   map[EventType]bool
}

// Option 注册 Handler 时的选项
type Option func(*registration)

// WithIgnoredStarts 忽略指定类别的开始通知
func WithIgnoredStarts(types ...EventType) Option {
	return func(r *registration) {
		for _, t := range types {
			r.ignoreStarts[t] = true
		}
	}
}

// WithIgnoredEnds 忽略指定类别的结束通知
func WithIgnoredEnds(types ...EventType) Option {
	return func(r *registration) {
		for _, t := range types {
			r.ignoreEnds[t] = true
		}
	}
}

// Manager 把引擎的事件按注册顺序分发给各个 Handler。
// nil *Manager 可以直接使用，所有方法均为空操作。
type Manager struct {
	mu   sync.RWMutex
	regs []*registration
}

// NewManager 创建 Manager 并注册 handlers
func NewManager(handlers ...Handler) *Manager {
	m := &Manager{}
	for _, h := range handlers {
		m.Add(h)
	}
	return m
}

// Add 注册一个 Handler
func (m *Manager) Add(h Handler, opts ...Option) {
	if m == nil || h == nil {
		return
	}
	r := &registration{
		handler:      h,
		ignoreStarts: map[EventType]bool{},
		ignoreEnds:   map[EventType]bool{},
	}
	for _, opt := range opts {
		opt(r)
	}
	m.mu.Lock()
	m.regs = append(m.regs, r)
	m.mu.Unlock()
}

// Len 已注册的 Handler 数量
func (m *Manager) Len() int {
	if m == nil {
		return 0
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.regs)
}

func (m *Manager) handlers() []*registration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*registration(nil), m.regs...)
}

// StartTrace 开始一次顶层查询的 trace。
// 已在 trace 中时沿用外层 trace，返回的 ctx 上 EndTrace 为空操作
func (m *Manager) StartTrace(ctx context.Context) context.Context {
	if m == nil {
		return ctx
	}
	if _, ok := ctx.Value(traceKey).(*trace); ok {
		return context.WithValue(ctx, ownerKey, (*trace)(nil))
	}
	t := &trace{id: uuid.NewString(), edges: map[string][]string{}}
	for _, r := range m.handlers() {
		safeCall("start_trace", func() { r.handler.StartTrace(ctx, t.id) })
	}
	ctx = context.WithValue(ctx, traceKey, t)
	return context.WithValue(ctx, ownerKey, t)
}

// EndTrace 结束 ctx 上的 trace，并把父子关系交给 Handler。
// 只有打开 trace 的那一层 StartTrace 返回的 ctx 会真正触发
func (m *Manager) EndTrace(ctx context.Context) {
	if m == nil {
		return
	}
	t, ok := ctx.Value(traceKey).(*trace)
	if !ok {
		return
	}
	if owner, _ := ctx.Value(ownerKey).(*trace); owner != t {
		return
	}
	edges := t.snapshot()
	for _, r := range m.handlers() {
		safeCall("end_trace", func() { r.handler.EndTrace(ctx, t.id, edges) })
	}
}

// OnStart 通知事件开始，返回的 ctx 以该事件作为后续事件的父节点
func (m *Manager) OnStart(ctx context.Context, typ EventType, payload Payload) (context.Context, Event) {
	if m == nil {
		return ctx, Event{Type: typ, Payload: payload}
	}
	ev := Event{
		ID:       uuid.NewString(),
		ParentID: parentID(ctx),
		Type:     typ,
		Payload:  payload,
		Time:     time.Now(),
	}
	if t, ok := ctx.Value(traceKey).(*trace); ok {
		t.link(ev.ParentID, ev.ID)
	}
	for _, r := range m.handlers() {
		if r.ignoreStarts[typ] {
			continue
		}
		safeCall("event_start", func() { r.handler.OnEventStart(ctx, ev) })
	}
	return context.WithValue(ctx, parentKey, ev.ID), ev
}

// OnEnd 通知事件结束，start 为 OnStart 返回的事件
func (m *Manager) OnEnd(ctx context.Context, start Event, payload Payload) {
	if m == nil {
		return
	}
	ev := Event{
		ID:       start.ID,
		ParentID: start.ParentID,
		Type:     start.Type,
		Payload:  payload,
		Time:     time.Now(),
	}
	for _, r := range m.handlers() {
		if r.ignoreEnds[ev.Type] {
			continue
		}
		safeCall("event_end", func() { r.handler.OnEventEnd(ctx, ev) })
	}
}

func parentID(ctx context.Context) string {
	if id, ok := ctx.Value(parentKey).(string); ok && id != "" {
		return id
	}
	return RootEventID
}

// safeCall Handler 的 panic 只记录日志，不影响查询
func safeCall(stage string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log.Errorf("callback handler panic [%s]: %v", stage, r)
		}
	}()
	fn()
}
