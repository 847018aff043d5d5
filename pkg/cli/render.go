package cli

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/yourusername/graph-generation-service/pkg/api"
	"github.com/yourusername/graph-generation-service/pkg/loader"
	"github.com/yourusername/graph-generation-service/pkg/model"
	"github.com/yourusername/graph-generation-service/pkg/render"
	"github.com/yourusername/graph-generation-service/pkg/report"
	"github.com/yourusername/graph-generation-service/pkg/table"
)

type renderOptions struct {
	requestPath string
	dataPath    string
	outDir      string
	pdfPath     string
	title       string
}

func (a *App) newRenderCmd() *cobra.Command {
	opts := &renderOptions{}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a request file to PNG files or a PDF report",
		Long: `Render the charts of a generate request without starting the service.

The request file has the same shape as the POST /generate-graphs body. With
--data its rows are replaced by a .json, .csv or .xlsx file.

Examples:
  graphgen render --request request.json --out charts/
  graphgen render --request charts.json --data sales.csv --pdf report.pdf`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runRender(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.requestPath, "request", "r", "", "Path to the request JSON file")
	cmd.Flags().StringVarP(&opts.dataPath, "data", "d", "", "Data file replacing the request rows")
	cmd.Flags().StringVarP(&opts.outDir, "out", "o", ".", "Directory for PNG files")
	cmd.Flags().StringVar(&opts.pdfPath, "pdf", "", "Write a PDF report here instead of PNG files")
	cmd.Flags().StringVar(&opts.title, "title", api.DefaultReportTitle, "PDF report title")
	_ = cmd.MarkFlagRequired("request")

	return cmd
}

func (a *App) runRender(cmd *cobra.Command, opts *renderOptions) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}

	req, skipped, err := loader.LoadRequest(opts.requestPath, opts.dataPath)
	if err != nil {
		return err
	}
	if err := model.ValidateRequest(req, skipped); err != nil {
		return err
	}
	tbl, err := table.FromRecords(req.Data)
	if err != nil {
		return fmt.Errorf("failed to build table: %w", err)
	}

	dispatcher := render.NewDispatcher(cfg.Renderer, cfg.NewLogger(), nil)
	dispatcher.Reject(skipped)
	charts := dispatcher.Render(cmd.Context(), tbl, req.Charts)

	if opts.pdfPath != "" {
		pdf, err := report.Build(opts.title, charts, time.Now())
		if err != nil {
			return err
		}
		if err := os.WriteFile(opts.pdfPath, pdf, 0644); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		fmt.Fprintf(a.stdout, "wrote %s\n", opts.pdfPath)
	} else {
		if err := os.MkdirAll(opts.outDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		for i, c := range charts {
			path := filepath.Join(opts.outDir, chartFileName(c, i))
			if err := writeChart(path, c); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "wrote %s\n", path)
		}
	}

	fmt.Fprintf(a.stdout, "rendered %d of %d charts\n", len(charts), len(req.Charts)+len(skipped))
	return nil
}

func writeChart(path string, c model.RenderedChart) error {
	img, err := base64.StdEncoding.DecodeString(c.Image)
	if err != nil {
		return fmt.Errorf("chart %q: %w", c.ID, err)
	}
	if err := os.WriteFile(path, img, 0644); err != nil {
		return fmt.Errorf("failed to write chart %q: %w", c.ID, err)
	}
	return nil
}

// chartFileName derives a file name from the chart ID, keeping only
// characters that are safe in paths
func chartFileName(c model.RenderedChart, index int) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, c.ID)
	if strings.Trim(name, "_") == "" {
		name = fmt.Sprintf("chart-%d", index+1)
	}
	return name + ".png"
}
