package main

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/iWorld-y/equity_report/app/equity_report/pkg/config"
	"github.com/iWorld-y/equity_report/app/equity_report/pkg/logger"
)

const defaultConfigPath = "configs/equity.yaml"

type rootOptions struct {
	configPath string
	cfg        *config.Config
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "equity_report",
		Short: "根据 10-K 索引生成股票研究报告",
		Long: `equity_report 加载公司年报的向量索引，把报告提示词拆成子问题逐一检索回答，
并在回答完成时实时输出子问题，最后合成 markdown 格式的研究报告。`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd.Flags().Changed("config"))
		},
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", defaultConfigPath, "配置文件路径")

	cmd.AddCommand(newCompaniesCommand(opts))
	cmd.AddCommand(newGenerateCommand(opts))
	cmd.AddCommand(newPreviewCommand(opts))
	return cmd
}

// load 未显式指定且默认配置文件不存在时使用默认值
func (o *rootOptions) load(explicit bool) error {
	cfg, err := config.LoadConfig(o.configPath)
	if err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("无法加载配置文件: %w", err)
		}
		cfg = &config.Config{}
		cfg.ApplyDefaults()
	}
	if err := logger.InitLogger(cfg.Log.Level, cfg.Log.File); err != nil {
		return fmt.Errorf("无法初始化日志: %w", err)
	}
	o.cfg = cfg
	return nil
}
