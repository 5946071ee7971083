package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/DoyleJ11/siege-picker/internal/kv"
	"github.com/DoyleJ11/siege-picker/internal/lineup"
	"github.com/DoyleJ11/siege-picker/internal/operator"
	"github.com/DoyleJ11/siege-picker/internal/ownership"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// loadInputs reads a catalog file and an owned-id JSON array into an
// in-memory ownership store.
func loadInputs(ctx context.Context, catalogPath, ownedPath string) (*operator.Catalog, *ownership.Store, error) {
	c, err := operator.LoadCatalogFile(catalogPath)
	if err != nil {
		return nil, nil, fmt.Errorf("catalog: %w", err)
	}
	payload, err := os.ReadFile(ownedPath)
	if err != nil {
		return nil, nil, fmt.Errorf("owned: %w", err)
	}
	owned, err := ownership.Open(ctx, kv.NewMemory(), "local")
	if err != nil {
		return nil, nil, err
	}
	if err := owned.Import(ctx, payload); err != nil {
		return nil, nil, fmt.Errorf("owned: %w", err)
	}
	return c, owned, nil
}

func newLineupCmd() *cobra.Command {
	var catalogPath, ownedPath, side string

	cmd := &cobra.Command{
		Use:   "lineup",
		Short: "Draw a random lineup from a catalog and an owned list",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := lineup.ParseSide(side)
			if err != nil {
				return err
			}
			c, owned, err := loadInputs(cmd.Context(), catalogPath, ownedPath)
			if err != nil {
				return err
			}
			slots, err := lineup.NewSelector(c).Select(owned, start)
			if err != nil {
				return err
			}
			log.Debug("lineup drawn", zap.String("side", string(start)), zap.Int("owned", owned.Len()))
			return printLineup(cmd.OutOrStdout(), slots)
		},
	}
	cmd.Flags().StringVar(&catalogPath, "catalog", "operator-data.json", "catalog file")
	cmd.Flags().StringVar(&ownedPath, "owned", "", "JSON array of owned operator ids")
	cmd.Flags().StringVar(&side, "side", string(lineup.SideAttack), "starting side (Attack or Defense)")
	_ = cmd.MarkFlagRequired("owned")
	return cmd
}

func printLineup(w io.Writer, slots []lineup.Slot) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, s := range slots {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i+1, s.Label, s.Operator.Name, s.Operator.Role)
	}
	return tw.Flush()
}
