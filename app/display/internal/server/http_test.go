package server

import (
	"encoding/json"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/equity_report/app/display/internal/biz"
	"github.com/iWorld-y/equity_report/app/display/internal/conf"
	"github.com/iWorld-y/equity_report/app/display/internal/data"
	"github.com/iWorld-y/equity_report/app/display/internal/service"
	"github.com/iWorld-y/equity_report/app/equity_report/pkg/company"
	"github.com/iWorld-y/equity_report/app/equity_report/pkg/engine"
	"github.com/iWorld-y/equity_report/app/equity_report/pkg/filing"
	"github.com/iWorld-y/equity_report/app/equity_report/pkg/index"
	"github.com/iWorld-y/equity_report/app/equity_report/pkg/index/indextest"
	"github.com/iWorld-y/equity_report/app/equity_report/pkg/llm/llmtest"
	"github.com/iWorld-y/equity_report/app/equity_report/pkg/report"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, indextest.WriteStorage(dir, map[string][]index.Node{"index_Apple": indextest.AppleNodes()}))

	cm := &llmtest.ChatModel{Respond: func(msgs []*schema.Message) (string, error) {
		if strings.Contains(msgs[0].Content, "list of tools") {
			return `{"items": [{"sub_question": "What was Apple's total net sales?", "tool_name": "engine"}]}`, nil
		}
		if strings.Contains(llmtest.LastUserContent(msgs), "Query: What was Apple's total net sales?") {
			return "$394.3 billion", nil
		}
		return "## Summary\nApple **grew**.", nil
	}}
	gen := report.NewGenerator(company.Default(), index.NewLoader(dir, &llmtest.Embedder{Default: []float64{1, 0}}), cm, report.Options{
		Engine: engine.SubQuestionOptions{UseAsync: true},
	})

	d, cleanup, err := data.NewData(nil, log.DefaultLogger)
	require.NoError(t, err)
	t.Cleanup(cleanup)

	uc := biz.NewReportUseCase(data.NewReportRepo(d, log.DefaultLogger), gen, filing.NewPreviewer(nil, 0), log.DefaultLogger)
	srv := NewHTTPServer(&conf.Server{Http: &conf.HTTP{Timeout: "30s"}}, service.NewReportService(uc, log.DefaultLogger), log.DefaultLogger)

	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)
	return ts
}

func TestIndexPage(t *testing.T) {
	ts := newTestServer(t)
	resp, err := nethttp.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
}

func TestListCompanies(t *testing.T) {
	ts := newTestServer(t)
	resp, err := nethttp.Get(ts.URL + "/api/companies")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)

	var body struct {
		Companies []service.CompanyReply `json:"companies"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Companies, 7)
	assert.Equal(t, "Microsoft", body.Companies[0].Name)
}

func TestGenerateReportJSON(t *testing.T) {
	ts := newTestServer(t)
	resp, err := nethttp.Post(ts.URL+"/api/reports", "application/json", strings.NewReader(`{"company": "Apple"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)

	var reply service.ReportReply
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&reply))
	assert.Equal(t, "Apple", reply.Company)
	assert.Zero(t, reply.ID)
	assert.True(t, strings.HasPrefix(reply.Markdown, "# Apple Equity Research Draft: "))
	assert.Contains(t, reply.HTML, "<strong>grew</strong>")
	assert.Len(t, reply.SubQuestions, 2)
}

func TestGenerateReportUnknownCompany(t *testing.T) {
	ts := newTestServer(t)
	resp, err := nethttp.Post(ts.URL+"/api/reports", "application/json", strings.NewReader(`{"company": "Enron"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, nethttp.StatusNotFound, resp.StatusCode)
}

func TestReportHistoryWithoutDatabase(t *testing.T) {
	ts := newTestServer(t)

	resp, err := nethttp.Get(ts.URL + "/api/reports?page=1&page_size=5")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	var list service.ListReportsReply
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	assert.Empty(t, list.Reports)

	resp2, err := nethttp.Get(ts.URL + "/api/reports/3")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, nethttp.StatusNotFound, resp2.StatusCode)
}

func readStream(t *testing.T, ts *httptest.Server, company string) []service.StreamMessage {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/report?company=" + company
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var msgs []service.StreamMessage
	for {
		var msg service.StreamMessage
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		msgs = append(msgs, msg)
	}
	return msgs
}

func TestStreamReport(t *testing.T) {
	ts := newTestServer(t)
	msgs := readStream(t, ts, "Apple")
	require.NotEmpty(t, msgs)

	var types []string
	for _, m := range msgs {
		types = append(types, m.Type)
	}
	assert.Equal(t, []string{
		"status", "status",
		"block", "block", "block",
		"block", "block", "block",
		"status", "report",
	}, types)

	assert.Equal(t, report.LabelProcessing, msgs[0].Label)
	assert.True(t, msgs[1].Expanded)
	assert.Equal(t, "Sub-Question: What was Apple's total net sales?", msgs[2].Text)
	assert.Equal(t, "Answer: $394.3 billion", msgs[3].Text)
	assert.Equal(t, "separator", msgs[4].Kind)
	assert.Equal(t, string(report.StateComplete), msgs[8].State)
	assert.Contains(t, msgs[9].Report.HTML, "<h1>Apple Equity Research Draft:</h1>")
}

func TestStreamReportMissingIndex(t *testing.T) {
	ts := newTestServer(t)
	msgs := readStream(t, ts, "Tesla")
	require.NotEmpty(t, msgs)

	last := msgs[len(msgs)-1]
	assert.Equal(t, "error", last.Type)
	assert.Equal(t, "INDEX_NOT_FOUND", last.Reason)
	for _, m := range msgs {
		assert.NotEqual(t, "block", m.Type)
	}
}
