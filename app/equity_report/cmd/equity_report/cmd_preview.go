package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iWorld-y/equity_report/app/equity_report/pkg/company"
	"github.com/iWorld-y/equity_report/app/equity_report/pkg/filing"
)

func newPreviewCommand(root *rootOptions) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "预览公司 10-K 原文页面",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := company.FromConfig(root.cfg.Companies).Lookup(name)
			if err != nil {
				return err
			}
			p, err := filing.NewPreviewer(nil, 0).Preview(cmd.Context(), c)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s\n%s\n\n", p.Title, p.URL)
			if p.Byline != "" {
				fmt.Fprintf(w, "%s\n\n", p.Byline)
			}
			fmt.Fprintln(w, p.Text)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "company", "", "公司名")
	_ = cmd.MarkFlagRequired("company")
	return cmd
}
