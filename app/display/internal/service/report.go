package service

import (
	"context"
	"strconv"
	"time"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport/http"

	"github.com/iWorld-y/equity_report/app/display/internal/biz"
	"github.com/iWorld-y/equity_report/app/equity_report/pkg/callback"
	"github.com/iWorld-y/equity_report/app/equity_report/pkg/render"
	"github.com/iWorld-y/equity_report/app/equity_report/pkg/report"
	"github.com/iWorld-y/equity_report/app/equity_report/pkg/reporter"
)

const timeLayout = "2006-01-02 15:04:05"

type CompanyReply struct {
	Name       string `json:"name"`
	URL        string `json:"url"`
	FiscalYear string `json:"financial_year"`
}

type ReportReply struct {
	ID           int64                        `json:"id"`
	Company      string                       `json:"company"`
	Title        string                       `json:"title"`
	FiscalYear   string                       `json:"financial_year"`
	Markdown     string                       `json:"markdown"`
	HTML         string                       `json:"html"`
	SubQuestions []callback.SubQuestionAnswer `json:"sub_questions"`
	CreatedAt    string                       `json:"created_at"`
}

type ReportSummaryReply struct {
	ID               int64  `json:"id"`
	Company          string `json:"company"`
	Title            string `json:"title"`
	SubQuestionCount int    `json:"sub_question_count"`
	CreatedAt        string `json:"created_at"`
}

type ListReportsReply struct {
	Reports []*ReportSummaryReply `json:"reports"`
	Total   int                   `json:"total"`
}

type GenerateReportReq struct {
	Company string `json:"company"`
}

// ReportService 报告相关的 HTTP 与 websocket 接口
type ReportService struct {
	uc  *biz.ReportUseCase
	log *log.Helper
}

func NewReportService(uc *biz.ReportUseCase, logger log.Logger) *ReportService {
	return &ReportService{uc: uc, log: log.NewHelper(logger)}
}

// handle 让路由处理函数经过 server 的中间件
func handle(ctx http.Context, req any, fn func(context.Context) (any, error)) error {
	h := ctx.Middleware(func(c context.Context, _ any) (any, error) {
		return fn(c)
	})
	out, err := h(ctx, req)
	if err != nil {
		return err
	}
	return ctx.Result(200, out)
}

func (s *ReportService) ListCompanies(ctx http.Context) error {
	return handle(ctx, nil, func(context.Context) (any, error) {
		companies := s.uc.Companies()
		list := make([]*CompanyReply, 0, len(companies))
		for _, c := range companies {
			list = append(list, &CompanyReply{Name: c.Name, URL: c.SourceURL, FiscalYear: c.FiscalYear})
		}
		return map[string]any{"companies": list}, nil
	})
}

func (s *ReportService) PreviewCompany(ctx http.Context) error {
	name := ctx.Vars().Get("name")
	return handle(ctx, name, func(c context.Context) (any, error) {
		return s.uc.Preview(c, name)
	})
}

// GenerateReport 阻塞直到报告生成完成
func (s *ReportService) GenerateReport(ctx http.Context) error {
	var req GenerateReportReq
	if err := ctx.Bind(&req); err != nil {
		return errors.BadRequest("INVALID_ARGUMENT", err.Error())
	}
	return handle(ctx, &req, func(c context.Context) (any, error) {
		rec, err := s.uc.Generate(c, req.Company, reporter.NewBufferSink(), report.StatusFunc(func(report.State, string, bool) {}))
		if err != nil {
			return nil, err
		}
		return toReportReply(rec), nil
	})
}

func (s *ReportService) ListReports(ctx http.Context) error {
	page, _ := strconv.Atoi(ctx.Query().Get("page"))
	pageSize, _ := strconv.Atoi(ctx.Query().Get("page_size"))
	return handle(ctx, nil, func(c context.Context) (any, error) {
		reports, total, err := s.uc.List(c, page, pageSize)
		if err != nil {
			return nil, err
		}
		list := make([]*ReportSummaryReply, 0, len(reports))
		for _, r := range reports {
			list = append(list, &ReportSummaryReply{
				ID:               r.ID,
				Company:          r.Company,
				Title:            r.Title,
				SubQuestionCount: r.SubQuestionCount,
				CreatedAt:        formatTime(r.CreatedAt),
			})
		}
		return &ListReportsReply{Reports: list, Total: total}, nil
	})
}

func (s *ReportService) GetReport(ctx http.Context) error {
	id, err := strconv.ParseInt(ctx.Vars().Get("id"), 10, 64)
	if err != nil {
		return errors.BadRequest("INVALID_ARGUMENT", "invalid report id")
	}
	return handle(ctx, id, func(c context.Context) (any, error) {
		rec, err := s.uc.Get(c, id)
		if err != nil {
			return nil, err
		}
		return toReportReply(rec), nil
	})
}

func toReportReply(rec *biz.ReportRecord) *ReportReply {
	reply := &ReportReply{
		ID:           rec.ID,
		Company:      rec.Company,
		Title:        rec.Title,
		FiscalYear:   rec.FiscalYear,
		Markdown:     rec.Markdown,
		SubQuestions: rec.SubQuestions,
		CreatedAt:    formatTime(rec.CreatedAt),
	}
	if reply.SubQuestions == nil {
		reply.SubQuestions = []callback.SubQuestionAnswer{}
	}
	if html, err := render.HTML(rec.Markdown); err == nil {
		reply.HTML = html
	}
	return reply
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(timeLayout)
}
