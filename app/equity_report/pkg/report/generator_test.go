package report_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/equity_report/app/equity_report/pkg/company"
	"github.com/iWorld-y/equity_report/app/equity_report/pkg/engine"
	"github.com/iWorld-y/equity_report/app/equity_report/pkg/index"
	"github.com/iWorld-y/equity_report/app/equity_report/pkg/index/indextest"
	"github.com/iWorld-y/equity_report/app/equity_report/pkg/llm/llmtest"
	"github.com/iWorld-y/equity_report/app/equity_report/pkg/report"
	"github.com/iWorld-y/equity_report/app/equity_report/pkg/reporter"
)

type statusUpdate struct {
	state    report.State
	label    string
	expanded bool
}

type statusRecorder struct {
	mu      sync.Mutex
	updates []statusUpdate
}

func (s *statusRecorder) Update(state report.State, label string, expanded bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, statusUpdate{state, label, expanded})
}

// analystModel 对两段提示词各拆出一个子问题，其余调用按提示词中的问题作答
func analystModel() *llmtest.ChatModel {
	return &llmtest.ChatModel{Respond: func(msgs []*schema.Message) (string, error) {
		user := llmtest.LastUserContent(msgs)
		if strings.Contains(msgs[0].Content, "list of tools") {
			if strings.Contains(user, "first half") {
				return `{"items": [{"sub_question": "What was Apple's total net sales?", "tool_name": "engine"}]}`, nil
			}
			return `{"items": [{"sub_question": "What are Apple's key risks?", "tool_name": "engine"}]}`, nil
		}
		switch {
		case strings.Contains(user, "Query: What was Apple's total net sales?"):
			return "$394.3 billion", nil
		case strings.Contains(user, "Query: What are Apple's key risks?"):
			return "Supply chain concentration.", nil
		case strings.Contains(user, "first half"):
			return "## 1. Executive Summary\nApple sells hardware.", nil
		default:
			return "## 4. Valuation\nHold.", nil
		}
	}}
}

func newGenerator(t *testing.T) *report.Generator {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, indextest.WriteStorage(dir, map[string][]index.Node{
		"index_Apple": indextest.AppleNodes(),
	}))
	emb := &llmtest.Embedder{Vectors: map[string][]float64{"risk": {0, 1}}, Default: []float64{1, 0}}
	return report.NewGenerator(company.Default(), index.NewLoader(dir, emb), analystModel(), report.Options{
		Engine: engine.SubQuestionOptions{UseAsync: true, MaxConcurrency: 2},
	})
}

func TestGenerate(t *testing.T) {
	g := newGenerator(t)
	sink := reporter.NewBufferSink()
	status := &statusRecorder{}

	rep, err := g.Generate(context.Background(), "Apple", sink, status)
	require.NoError(t, err)

	assert.Equal(t, "Apple", rep.Company)
	assert.Equal(t, "Apple Equity Research Draft: ", rep.Title)
	assert.Equal(t, "For the fiscal year ended September 24, 2022", rep.FiscalYear)
	assert.Equal(t, "# Apple Equity Research Draft: \n\n## 1. Executive Summary\nApple sells hardware.\n\n## 4. Valuation\nHold.\n\n", rep.Markdown())
	require.Len(t, rep.SubQuestions, 2)
	assert.Equal(t, "$394.3 billion", rep.SubQuestions[0].Answer)

	blocks := sink.Blocks()
	require.Len(t, blocks, 6)
	assert.Equal(t, "Sub-Question: What was Apple's total net sales?", blocks[0].Text)
	assert.Equal(t, "Answer: $394.3 billion", blocks[1].Text)
	assert.Equal(t, reporter.KindSeparator, blocks[2].Kind)
	assert.Equal(t, "Sub-Question: What are Apple's key risks?", blocks[3].Text)

	assert.Equal(t, []statusUpdate{
		{report.StateRunning, report.LabelProcessing, false},
		{report.StateRunning, report.LabelGenerating, true},
		{report.StateComplete, report.LabelGenerating, false},
	}, status.updates)
}

func TestGenerateToolDescription(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, indextest.WriteStorage(dir, map[string][]index.Node{"index_Apple": indextest.AppleNodes()}))
	cm := analystModel()
	g := report.NewGenerator(company.Default(), index.NewLoader(dir, &llmtest.Embedder{Default: []float64{1, 0}}), cm, report.Options{})

	_, err := g.Generate(context.Background(), "Apple", nil, nil)
	require.NoError(t, err)

	plan := llmtest.LastUserContent(cm.Calls()[0])
	assert.Contains(t, plan, "- engine: Information of Apple yearly financials For the fiscal year ended September 24, 2022")
	assert.Contains(t, plan, report.FirstHalfPrompt)
}

func TestGenerateUnknownCompany(t *testing.T) {
	g := newGenerator(t)
	status := &statusRecorder{}

	rep, err := g.Generate(context.Background(), "Enron", reporter.NewBufferSink(), status)
	assert.Nil(t, rep)
	assert.ErrorIs(t, err, company.ErrUnknownCompany)
	require.Len(t, status.updates, 1)
	assert.Equal(t, report.StateError, status.updates[0].state)
}

func TestGenerateMissingIndex(t *testing.T) {
	g := newGenerator(t)
	sink := reporter.NewBufferSink()
	status := &statusRecorder{}

	rep, err := g.Generate(context.Background(), "Tesla", sink, status)
	assert.Nil(t, rep)
	assert.ErrorIs(t, err, index.ErrIndexNotFound)
	assert.Empty(t, sink.Blocks())
	assert.Equal(t, report.StateError, status.updates[len(status.updates)-1].state)
}

func TestPromptsKeepSectionStructure(t *testing.T) {
	for _, h := range []string{"## 1. Executive Summary", "## 2. Industry Analysis", "### 3.3 Cash Flow Statement Analysis", "DO NOT INCLUDE ANY CONCLUSIONS HERE."} {
		assert.Contains(t, report.FirstHalfPrompt, h)
	}
	for _, h := range []string{"## 4. Valuation", "## 5. SWOT Analysis", "## 6. Risk Factors", "## 7. Conclusion & Recommendations"} {
		assert.Contains(t, report.SecondHalfPrompt, h)
	}
}
