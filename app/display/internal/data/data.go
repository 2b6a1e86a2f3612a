package data

import (
	"database/sql"
	"fmt"

	"github.com/go-kratos/kratos/v2/log"
	_ "github.com/lib/pq"

	"github.com/iWorld-y/equity_report/app/display/internal/conf"
)

// Data 数据库资源。db 为 nil 表示未配置数据库，报告历史不保存
type Data struct {
	db *sql.DB
}

// Enabled 是否连接了数据库
func (d *Data) Enabled() bool {
	return d != nil && d.db != nil
}

func NewData(c *conf.Data, logger log.Logger) (*Data, func(), error) {
	helper := log.NewHelper(logger)
	if c == nil || c.Database == nil || c.Database.Source == "" {
		helper.Warn("未配置数据库，报告历史不会保存")
		return &Data{}, func() {}, nil
	}

	driver := c.Database.Driver
	if driver == "" {
		driver = "postgres"
	}
	db, err := sql.Open(driver, c.Database.Source)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, nil, err
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, nil, err
	}

	cleanup := func() {
		helper.Info("closing the data resources")
		db.Close()
	}
	return &Data{db: db}, cleanup, nil
}

func initSchema(db *sql.DB) error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS report_runs (
			id BIGSERIAL PRIMARY KEY,
			company TEXT NOT NULL,
			title TEXT NOT NULL,
			fiscal_year TEXT NOT NULL DEFAULT '',
			markdown TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("failed to init report_runs table: %w", err)
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS report_sub_questions (
			id BIGSERIAL PRIMARY KEY,
			run_id BIGINT NOT NULL REFERENCES report_runs(id) ON DELETE CASCADE,
			position INT NOT NULL,
			question TEXT NOT NULL,
			answer TEXT NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("failed to init report_sub_questions table: %w", err)
	}
	return nil
}
