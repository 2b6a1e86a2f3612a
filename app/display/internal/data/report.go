package data

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/equity_report/app/display/internal/biz"
	"github.com/iWorld-y/equity_report/app/equity_report/pkg/callback"
	dm "github.com/iWorld-y/equity_report/app/equity_report/pkg/model"
)

type reportRepo struct {
	data *Data
	log  *log.Helper
}

func NewReportRepo(data *Data, logger log.Logger) biz.ReportRepo {
	return &reportRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

func (r *reportRepo) SaveReport(ctx context.Context, rep *dm.Report) (int64, error) {
	if !r.data.Enabled() {
		return 0, nil
	}

	tx, err := r.data.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowContext(ctx,
		`INSERT INTO report_runs (company, title, fiscal_year, markdown, created_at) VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		rep.Company, rep.Title, rep.FiscalYear, rep.Markdown(), rep.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert report run: %w", err)
	}

	for i, qa := range rep.SubQuestions {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO report_sub_questions (run_id, position, question, answer) VALUES ($1, $2, $3, $4)`,
			id, i, qa.Question, qa.Answer,
		); err != nil {
			return 0, fmt.Errorf("insert sub question: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	r.log.Infof("已保存报告 [%s] id=%d", rep.Company, id)
	return id, nil
}

func (r *reportRepo) ListReports(ctx context.Context, page, pageSize int) ([]*biz.ReportSummary, int, error) {
	if !r.data.Enabled() {
		return []*biz.ReportSummary{}, 0, nil
	}
	offset := (page - 1) * pageSize

	rows, err := r.data.db.QueryContext(ctx, `
		SELECT r.id, r.company, r.title, r.created_at, COUNT(q.id) AS sub_question_count
		FROM report_runs r
		LEFT JOIN report_sub_questions q ON q.run_id = r.id
		GROUP BY r.id, r.company, r.title, r.created_at
		ORDER BY r.created_at DESC
		LIMIT $1 OFFSET $2`, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	summaries := []*biz.ReportSummary{}
	for rows.Next() {
		s := &biz.ReportSummary{}
		if err := rows.Scan(&s.ID, &s.Company, &s.Title, &s.CreatedAt, &s.SubQuestionCount); err != nil {
			return nil, 0, err
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.data.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM report_runs`).Scan(&total); err != nil {
		return nil, 0, err
	}
	return summaries, total, nil
}

func (r *reportRepo) GetReport(ctx context.Context, id int64) (*biz.ReportRecord, error) {
	if !r.data.Enabled() {
		return nil, biz.ErrReportNotFound
	}

	rec := &biz.ReportRecord{ID: id}
	err := r.data.db.QueryRowContext(ctx,
		`SELECT company, title, fiscal_year, markdown, created_at FROM report_runs WHERE id = $1`, id,
	).Scan(&rec.Company, &rec.Title, &rec.FiscalYear, &rec.Markdown, &rec.CreatedAt)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, biz.ErrReportNotFound
		}
		return nil, err
	}

	rows, err := r.data.db.QueryContext(ctx,
		`SELECT question, answer FROM report_sub_questions WHERE run_id = $1 ORDER BY position`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var qa callback.SubQuestionAnswer
		if err := rows.Scan(&qa.Question, &qa.Answer); err != nil {
			return nil, err
		}
		rec.SubQuestions = append(rec.SubQuestions, qa)
	}
	return rec, rows.Err()
}
