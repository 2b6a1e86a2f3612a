package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iWorld-y/equity_report/app/equity_report/pkg/company"
)

func newCompaniesCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "companies",
		Short: "列出可生成报告的公司",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, c := range company.FromConfig(root.cfg.Companies).All() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", c.Name, c.FiscalYear, c.SourceURL)
			}
			return nil
		},
	}
}
