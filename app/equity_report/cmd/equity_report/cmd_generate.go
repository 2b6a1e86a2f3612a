package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/iWorld-y/equity_report/app/equity_report/pkg/logger"
	"github.com/iWorld-y/equity_report/app/equity_report/pkg/render"
	"github.com/iWorld-y/equity_report/app/equity_report/pkg/report"
	"github.com/iWorld-y/equity_report/app/equity_report/pkg/reporter"
)

type generateOptions struct {
	company string
	out     string
	html    bool
}

func newGenerateCommand(root *rootOptions) *cobra.Command {
	opts := &generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "生成研究报告，子问题回答完成时实时输出",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gen, err := report.NewFromConfig(cmd.Context(), root.cfg)
			if err != nil {
				return err
			}
			return runGenerate(cmd, gen, opts)
		},
	}
	cmd.Flags().StringVar(&opts.company, "company", "", "公司名，见 companies 子命令")
	cmd.Flags().StringVar(&opts.out, "out", "", "报告输出文件，为空时输出到标准输出")
	cmd.Flags().BoolVar(&opts.html, "html", false, "输出 HTML 而不是 markdown")
	_ = cmd.MarkFlagRequired("company")
	return cmd
}

func runGenerate(cmd *cobra.Command, gen *report.Generator, opts *generateOptions) error {
	out := cmd.OutOrStdout()
	status := report.StatusFunc(func(state report.State, label string, _ bool) {
		if state == report.StateError {
			return
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "[%s] %s\n", state, label)
	})

	rep, err := gen.Generate(cmd.Context(), opts.company, reporter.NewWriterSink(out), status)
	if err != nil {
		return err
	}

	content := rep.Markdown()
	if opts.html {
		if content, err = render.HTML(content); err != nil {
			return fmt.Errorf("render html: %w", err)
		}
	}

	if opts.out == "" {
		_, err = fmt.Fprint(out, content)
		return err
	}
	if dir := filepath.Dir(opts.out); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(opts.out, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	logger.Log.Infof("报告已写入 %s", opts.out)
	return nil
}
