package model

import (
	"strings"
	"time"

	"github.com/iWorld-y/equity_report/app/equity_report/pkg/callback"
)

// Report 一份研究报告：前后两部分分别由两次独立查询生成
type Report struct {
	Company      string
	Title        string
	FiscalYear   string
	FirstHalf    string
	SecondHalf   string
	SubQuestions []callback.SubQuestionAnswer
	CreatedAt    time.Time
}

// Markdown 按顺序拼接标题与前后两部分
func (r *Report) Markdown() string {
	var sb strings.Builder
	sb.WriteString("# ")
	sb.WriteString(r.Title)
	sb.WriteString("\n\n")
	for _, part := range []string{r.FirstHalf, r.SecondHalf} {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		sb.WriteString(part)
		sb.WriteString("\n\n")
	}
	return sb.String()
}

// TitleFor 报告标题
func TitleFor(company string) string {
	return company + " Equity Research Draft: "
}
