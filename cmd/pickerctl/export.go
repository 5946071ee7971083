package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/DoyleJ11/siege-picker/internal/operator"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const userAgent = "siege-picker/1.0"

func newExportCmd() *cobra.Command {
	var source, out string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "export-catalog",
		Short: "Fetch the raw operator object and write it pretty-printed",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			raw, err := readSource(ctx, source)
			if err != nil {
				return err
			}
			n, err := exportCatalog(raw, out)
			if err != nil {
				return err
			}
			log.Info("catalog exported", zap.String("out", out), zap.Int("operators", n))
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d operators to %s\n", n, out)
			return nil
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "URL or file holding the raw operator object")
	cmd.Flags().StringVar(&out, "out", "operator-data.json", "output path")
	cmd.Flags().DurationVar(&timeout, "timeout", 20*time.Second, "fetch timeout")
	_ = cmd.MarkFlagRequired("source")
	return cmd
}

// exportCatalog checks that raw parses as a catalog, then writes it indented.
func exportCatalog(raw []byte, out string) (int, error) {
	c, err := operator.LoadCatalog(bytes.NewReader(raw))
	if err != nil {
		return 0, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return 0, err
	}
	buf.WriteByte('\n')
	if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
		return 0, err
	}
	return c.Len(), nil
}

func readSource(ctx context.Context, source string) ([]byte, error) {
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		return os.ReadFile(source)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("GET %s failed: %d body=%s", source, resp.StatusCode, string(body))
	}
	if err != nil {
		return nil, fmt.Errorf("GET %s: read body: %w", source, err)
	}
	return body, nil
}
