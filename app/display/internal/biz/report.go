package biz

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/equity_report/app/equity_report/pkg/callback"
	"github.com/iWorld-y/equity_report/app/equity_report/pkg/company"
	"github.com/iWorld-y/equity_report/app/equity_report/pkg/filing"
	"github.com/iWorld-y/equity_report/app/equity_report/pkg/index"
	dm "github.com/iWorld-y/equity_report/app/equity_report/pkg/model"
	"github.com/iWorld-y/equity_report/app/equity_report/pkg/report"
	"github.com/iWorld-y/equity_report/app/equity_report/pkg/reporter"
)

var (
	ErrCompanyNotFound = errors.NotFound("COMPANY_NOT_FOUND", "company not found")
	ErrReportNotFound  = errors.NotFound("REPORT_NOT_FOUND", "report not found")
	ErrIndexNotFound   = errors.NotFound("INDEX_NOT_FOUND", "persisted index not found")
)

// ReportRecord 已保存的报告
type ReportRecord struct {
	ID           int64
	Company      string
	Title        string
	FiscalYear   string
	Markdown     string
	SubQuestions []callback.SubQuestionAnswer
	CreatedAt    time.Time
}

// ReportSummary 报告列表项
type ReportSummary struct {
	ID               int64
	Company          string
	Title            string
	SubQuestionCount int
	CreatedAt        time.Time
}

// ReportRepo 报告历史仓库
type ReportRepo interface {
	// SaveReport 保存报告，返回报告 ID；仓库未启用时返回 0
	SaveReport(ctx context.Context, r *dm.Report) (int64, error)
	// ListReports 按创建时间倒序分页
	ListReports(ctx context.Context, page, pageSize int) ([]*ReportSummary, int, error)
	// GetReport 不存在时返回 ErrReportNotFound
	GetReport(ctx context.Context, id int64) (*ReportRecord, error)
}

// Generator 报告生成器
type Generator interface {
	Catalog() *company.Catalog
	Generate(ctx context.Context, companyName string, sink reporter.Sink, status report.Status) (*dm.Report, error)
}

// Previewer 原文预览
type Previewer interface {
	Preview(ctx context.Context, c company.Company) (*filing.Preview, error)
}

// ReportUseCase 报告业务逻辑
type ReportUseCase struct {
	repo      ReportRepo
	gen       Generator
	previewer Previewer
	log       *log.Helper
}

// NewReportUseCase 创建报告业务逻辑实例
func NewReportUseCase(repo ReportRepo, gen Generator, previewer Previewer, logger log.Logger) *ReportUseCase {
	return &ReportUseCase{repo: repo, gen: gen, previewer: previewer, log: log.NewHelper(logger)}
}

// Companies 可选公司
func (uc *ReportUseCase) Companies() []company.Company {
	return uc.gen.Catalog().All()
}

// Preview 预览公司原文
func (uc *ReportUseCase) Preview(ctx context.Context, name string) (*filing.Preview, error) {
	c, err := uc.lookup(name)
	if err != nil {
		return nil, err
	}
	p, err := uc.previewer.Preview(ctx, c)
	if err != nil {
		if stderrors.Is(err, filing.ErrUnsupportedSource) {
			return nil, errors.BadRequest("UNSUPPORTED_SOURCE", err.Error())
		}
		return nil, errors.ServiceUnavailable("PREVIEW_FAILED", err.Error())
	}
	return p, nil
}

// Generate 生成并保存报告。保存失败只记录日志，报告仍然返回
func (uc *ReportUseCase) Generate(ctx context.Context, name string, sink reporter.Sink, status report.Status) (*ReportRecord, error) {
	c, err := uc.lookup(name)
	if err != nil {
		return nil, err
	}

	r, err := uc.gen.Generate(ctx, c.Name, sink, status)
	if err != nil {
		uc.log.Errorf("生成报告失败 [%s]: %v", c.Name, err)
		if stderrors.Is(err, index.ErrIndexNotFound) {
			return nil, ErrIndexNotFound.WithCause(err)
		}
		return nil, err
	}

	rec := &ReportRecord{
		Company:      r.Company,
		Title:        r.Title,
		FiscalYear:   r.FiscalYear,
		Markdown:     r.Markdown(),
		SubQuestions: r.SubQuestions,
		CreatedAt:    r.CreatedAt,
	}
	id, err := uc.repo.SaveReport(ctx, r)
	if err != nil {
		uc.log.Errorf("保存报告失败 [%s]: %v", c.Name, err)
	}
	rec.ID = id
	return rec, nil
}

// List 分页列出报告摘要
func (uc *ReportUseCase) List(ctx context.Context, page, pageSize int) ([]*ReportSummary, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}
	return uc.repo.ListReports(ctx, page, pageSize)
}

// Get 根据 ID 获取报告
func (uc *ReportUseCase) Get(ctx context.Context, id int64) (*ReportRecord, error) {
	if id <= 0 {
		return nil, errors.BadRequest("INVALID_ARGUMENT", "invalid report id")
	}
	return uc.repo.GetReport(ctx, id)
}

func (uc *ReportUseCase) lookup(name string) (company.Company, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return company.Company{}, errors.BadRequest("INVALID_ARGUMENT", "company is required")
	}
	c, err := uc.gen.Catalog().Lookup(name)
	if err != nil {
		return company.Company{}, ErrCompanyNotFound.WithCause(err)
	}
	return c, nil
}
