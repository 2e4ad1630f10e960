package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func routesCmd(configDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List the registered pages in match order",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject(*configDir, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			static := make(map[string]bool)
			for _, r := range p.app.StaticPages() {
				static[r.Pattern] = true
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PATTERN\tEXPORT")
			for _, pattern := range p.app.Routes() {
				export := "-"
				if static[pattern] {
					export = "yes"
				}
				fmt.Fprintf(tw, "%s\t%s\n", pattern, export)
			}
			return tw.Flush()
		},
	}
}
