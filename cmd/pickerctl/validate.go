package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	var catalogPath, ownedPath string

	cmd := &cobra.Command{
		Use:   "validate-owned",
		Short: "Report owned ids that are not in the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, owned, err := loadInputs(cmd.Context(), catalogPath, ownedPath)
			if err != nil {
				return err
			}
			var unknown []string
			for _, id := range owned.Export() {
				if !c.Has(id) {
					unknown = append(unknown, id)
				}
			}
			out := cmd.OutOrStdout()
			for _, id := range unknown {
				fmt.Fprintln(out, "unknown:", id)
			}
			fmt.Fprintf(out, "%d owned, %d unknown\n", owned.Len(), len(unknown))
			if len(unknown) > 0 {
				return fmt.Errorf("%d owned ids are not in the catalog", len(unknown))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&catalogPath, "catalog", "operator-data.json", "catalog file")
	cmd.Flags().StringVar(&ownedPath, "owned", "", "JSON array of owned operator ids")
	_ = cmd.MarkFlagRequired("owned")
	return cmd
}
