package reporter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/equity_report/app/equity_report/pkg/callback"
)

func endEvent(payload callback.Payload) callback.Event {
	return callback.Event{ID: "ev-1", Type: callback.EventSubQuestion, Payload: payload}
}

func TestReporterEndNotification(t *testing.T) {
	sink := NewBufferSink()
	r := New(sink)

	r.OnEventEnd(context.Background(), endEvent(callback.Answered("What was FY2023 revenue?", "engine", "$211.9B", nil)))

	assert.Equal(t, []Block{
		Text("Sub-Question: What was FY2023 revenue?"),
		Text("Answer: $211.9B"),
		Separator(),
	}, sink.Blocks())
}

func TestReporterStartNotificationIsNoop(t *testing.T) {
	sink := NewBufferSink()
	r := New(sink)

	ev := endEvent(callback.Answered("What was FY2023 revenue?", "engine", "$211.9B", nil))
	r.OnEventStart(context.Background(), ev)

	assert.Empty(t, sink.Blocks())
}

func TestReporterMissingPayload(t *testing.T) {
	sink := NewBufferSink()
	r := New(sink)
	ctx := context.Background()

	assert.NotPanics(t, func() {
		r.OnEventEnd(ctx, endEvent(nil))
		r.OnEventEnd(ctx, endEvent(&callback.SubQuestionPayload{Question: "no answer yet"}))
		r.OnEventEnd(ctx, endEvent(&callback.QueryPayload{Query: "wrong payload"}))
		r.OnEventEnd(ctx, endEvent((*callback.SubQuestionPayload)(nil)))
	})
	assert.Empty(t, sink.Blocks())
}

func TestReporterIgnoresOtherEventTypes(t *testing.T) {
	sink := NewBufferSink()
	r := New(sink)
	ctx := context.Background()

	for _, typ := range []callback.EventType{
		callback.EventQuery, callback.EventRetrieve, callback.EventSynthesize,
		callback.EventLLM, callback.EventTemplating,
	} {
		ev := callback.Event{Type: typ, Payload: callback.Answered("q", "engine", "a", nil)}
		r.OnEventStart(ctx, ev)
		r.OnEventEnd(ctx, ev)
	}
	r.StartTrace(ctx, "trace")
	r.EndTrace(ctx, "trace", map[string][]string{"root": {"a"}})

	assert.Empty(t, sink.Blocks())
}

func TestReporterPreservesArrivalOrder(t *testing.T) {
	sink := NewBufferSink()
	r := New(sink)
	ctx := context.Background()

	r.OnEventEnd(ctx, endEvent(callback.Answered("Q1", "engine", "A1", nil)))
	r.OnEventEnd(ctx, endEvent(callback.Answered("Q2", "engine", "A2", nil)))

	assert.Equal(t, []Block{
		Text("Sub-Question: Q1"), Text("Answer: A1"), Separator(),
		Text("Sub-Question: Q2"), Text("Answer: A2"), Separator(),
	}, sink.Blocks())
}

func TestReporterRegisteredWithoutQueries(t *testing.T) {
	sink := NewBufferSink()
	m := callback.NewManager(New(sink))
	require.Equal(t, 1, m.Len())
	assert.Empty(t, sink.Blocks())
}

func TestReporterThroughManager(t *testing.T) {
	sink := NewBufferSink()
	m := callback.NewManager(New(sink))
	ctx := m.StartTrace(context.Background())

	_, ev := m.OnStart(ctx, callback.EventSubQuestion, &callback.SubQuestionPayload{Question: "Q1"})
	assert.Empty(t, sink.Blocks())
	m.OnEnd(ctx, ev, callback.Answered("Q1", "engine", "A1", nil))
	m.EndTrace(ctx)

	assert.Len(t, sink.Blocks(), 3)
}

func TestReporterConcurrentTriplesDoNotInterleave(t *testing.T) {
	sink := NewBufferSink()
	r := New(sink)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r.OnEventEnd(ctx, endEvent(callback.Answered(fmt.Sprintf("Q%d", i), "engine", fmt.Sprintf("A%d", i), nil)))
		}(i)
	}
	wg.Wait()

	blocks := sink.Blocks()
	require.Len(t, blocks, 60)
	for i := 0; i < len(blocks); i += 3 {
		q := blocks[i].Text[len("Sub-Question: Q"):]
		assert.Equal(t, "Answer: A"+q, blocks[i+1].Text)
		assert.Equal(t, KindSeparator, blocks[i+2].Kind)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed pipe") }

func TestWriterSink(t *testing.T) {
	var buf bytes.Buffer
	r := New(NewWriterSink(&buf))
	r.OnEventEnd(context.Background(), endEvent(callback.Answered("Q1", "engine", "A1", nil)))
	assert.Equal(t, "Sub-Question: Q1\nAnswer: A1\n\n---\n\n", buf.String())

	broken := New(NewWriterSink(failingWriter{}))
	assert.NotPanics(t, func() {
		broken.OnEventEnd(context.Background(), endEvent(callback.Answered("Q1", "engine", "A1", nil)))
	})
}

func TestBufferSinkMarkdown(t *testing.T) {
	sink := NewBufferSink()
	sink.Append(Markdown("# Title"))
	sink.Append(Text("line"))
	sink.Append(Separator())
	assert.Equal(t, "# Title\n\nline\n\n---\n\n", sink.Markdown())

	var got []Block
	SinkFunc(func(b Block) { got = append(got, b) }).Append(Text("x"))
	assert.Equal(t, []Block{Text("x")}, got)
}
