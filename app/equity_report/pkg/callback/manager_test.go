package callback

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	mu      sync.Mutex
	starts  []Event
	ends    []Event
	traces  []string
	edges   map[string][]string
	panicky bool
}

func (h *recordingHandler) OnEventStart(_ context.Context, ev Event) {
	if h.panicky {
		panic("boom")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.starts = append(h.starts, ev)
}

func (h *recordingHandler) OnEventEnd(_ context.Context, ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ends = append(h.ends, ev)
}

func (h *recordingHandler) StartTrace(_ context.Context, traceID string) {
	h.traces = append(h.traces, "start:"+traceID)
}

func (h *recordingHandler) EndTrace(_ context.Context, traceID string, traceMap map[string][]string) {
	h.traces = append(h.traces, "end:"+traceID)
	h.edges = traceMap
}

func TestManagerParentsAndTrace(t *testing.T) {
	h := &recordingHandler{}
	m := NewManager(h)

	ctx := m.StartTrace(context.Background())
	qctx, q := m.OnStart(ctx, EventQuery, &QueryPayload{Query: "report"})
	_, sq := m.OnStart(qctx, EventSubQuestion, &SubQuestionPayload{Question: "What was revenue?"})
	m.OnEnd(qctx, sq, Answered("What was revenue?", "engine", "$1B", nil))
	m.OnEnd(ctx, q, &QueryPayload{Query: "report", Response: "done"})
	m.EndTrace(ctx)

	require.Len(t, h.starts, 2)
	require.Len(t, h.ends, 2)
	assert.Equal(t, RootEventID, q.ParentID)
	assert.Equal(t, q.ID, sq.ParentID)
	assert.Equal(t, sq.ID, h.ends[0].ID)
	assert.Equal(t, EventSubQuestion, h.ends[0].Type)

	require.Len(t, h.traces, 2)
	assert.Equal(t, []string{q.ID}, h.edges[RootEventID])
	assert.Equal(t, []string{sq.ID}, h.edges[q.ID])
}

func TestManagerNestedTraceIsReused(t *testing.T) {
	h := &recordingHandler{}
	m := NewManager(h)

	ctx := m.StartTrace(context.Background())
	inner := m.StartTrace(ctx)
	assert.Len(t, h.traces, 1)

	_, ev := m.OnStart(inner, EventQuery, &QueryPayload{Query: "inner"})
	m.EndTrace(inner)
	assert.Len(t, h.traces, 1)

	m.EndTrace(ctx)
	require.Len(t, h.traces, 2)
	assert.Equal(t, "end:"+h.traces[0][len("start:"):], h.traces[1])
	assert.Equal(t, []string{ev.ID}, h.edges[RootEventID])
}

func TestManagerIgnoreLists(t *testing.T) {
	h := &recordingHandler{}
	m := NewManager()
	m.Add(h, WithIgnoredStarts(EventLLM), WithIgnoredEnds(EventRetrieve))

	ctx := context.Background()
	_, llm := m.OnStart(ctx, EventLLM, &LLMPayload{})
	m.OnEnd(ctx, llm, &LLMPayload{Response: "ok"})
	_, rt := m.OnStart(ctx, EventRetrieve, &RetrievePayload{Query: "q"})
	m.OnEnd(ctx, rt, &RetrievePayload{Query: "q"})

	require.Len(t, h.starts, 1)
	assert.Equal(t, EventRetrieve, h.starts[0].Type)
	require.Len(t, h.ends, 1)
	assert.Equal(t, EventLLM, h.ends[0].Type)
}

func TestManagerRecoversHandlerPanic(t *testing.T) {
	bad := &recordingHandler{panicky: true}
	good := &recordingHandler{}
	m := NewManager(bad, good)

	assert.NotPanics(t, func() {
		m.OnStart(context.Background(), EventQuery, &QueryPayload{})
	})
	assert.Len(t, good.starts, 1)
}

func TestNilManager(t *testing.T) {
	var m *Manager
	ctx := context.Background()

	assert.Equal(t, ctx, m.StartTrace(ctx))
	got, ev := m.OnStart(ctx, EventQuery, nil)
	assert.Equal(t, ctx, got)
	assert.Equal(t, EventQuery, ev.Type)
	m.OnEnd(ctx, ev, nil)
	m.EndTrace(ctx)
	m.Add(&recordingHandler{})
	assert.Zero(t, m.Len())
}

func TestSubQuestionPayloadFinalized(t *testing.T) {
	_, ok := (&SubQuestionPayload{Question: "q"}).Finalized()
	assert.False(t, ok)

	_, ok = Answered("", "engine", "a", nil).Finalized()
	assert.False(t, ok)

	_, ok = Answered("q", "engine", "  ", nil).Finalized()
	assert.False(t, ok)

	var nilPayload *SubQuestionPayload
	_, ok = nilPayload.Finalized()
	assert.False(t, ok)

	pair, ok := Answered(" q ", "engine", "a", nil).Finalized()
	assert.True(t, ok)
	assert.Equal(t, SubQuestionAnswer{Question: "q", Answer: "a"}, pair)
}

func TestLogHandlerDoesNotPanic(t *testing.T) {
	m := NewManager(NewLogHandler())
	ctx := m.StartTrace(context.Background())
	_, ev := m.OnStart(ctx, EventLLM, &LLMPayload{Model: "test"})
	m.OnEnd(ctx, ev, &LLMPayload{Model: "test", Response: "ok"})
	m.EndTrace(ctx)
}
