package display

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dyike/manbo/internal/chart"
	"github.com/dyike/manbo/internal/dataflows"
	"github.com/dyike/manbo/internal/models"
	"github.com/dyike/manbo/internal/report"
)

// ChartFileName is the PNG written next to the exported reports.
const ChartFileName = "price_chart.png"

// Export writes the result under dir/<SYMBOL>_<date>: a decision summary,
// one markdown file per report, the backend candles as CSV and the price
// chart when at least two points exist. It returns the folder and the files written.
func Export(dir string, res *models.AnalysisResult, points []models.ChartPoint) (string, []string, error) {
	stamp := time.Now()
	if res.CompletedAt != nil {
		stamp = *res.CompletedAt
	}
	folder := filepath.Join(dir, sanitizeFilename(fmt.Sprintf("%s_%s", res.Symbol, stamp.Format("20060102_150405"))))
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return "", nil, fmt.Errorf("create export directory: %w", err)
	}

	var files []string
	write := func(name, content string) error {
		path := filepath.Join(folder, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		files = append(files, path)
		return nil
	}

	if err := write("summary.md", summaryMarkdown(res, stamp)); err != nil {
		return folder, files, err
	}
	for _, kind := range res.AvailableReports() {
		if err := write(kind.FileName(), reportMarkdown(res, kind, stamp)); err != nil {
			return folder, files, err
		}
	}

	if len(res.MarketData) > 0 {
		var csv strings.Builder
		if err := dataflows.WriteCandlesCSV(&csv, res.Symbol, res.MarketData); err != nil {
			return folder, files, err
		}
		if err := write(dataflows.CSVFileName, csv.String()); err != nil {
			return folder, files, err
		}
	}

	if len(points) >= 2 {
		path := filepath.Join(folder, ChartFileName)
		err := chart.WritePNG(path, points, chart.RenderOptions{Title: res.Symbol + " close"})
		if err != nil {
			return folder, files, err
		}
		files = append(files, path)
	}
	return folder, files, nil
}

func summaryMarkdown(res *models.AnalysisResult, stamp time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Trading Analysis Report: %s\n\n", res.Symbol)
	fmt.Fprintf(&b, "**Market:** %s  \n", res.Market.DisplayName())
	fmt.Fprintf(&b, "**Completed:** %s  \n", stamp.Format(time.DateTime))
	if res.JobID != "" {
		fmt.Fprintf(&b, "**Job:** %s  \n", res.JobID)
	}
	b.WriteString("\n## Decision\n\n")
	fmt.Fprintf(&b, "- **Action:** %s\n", actionLabel(res.Action))
	fmt.Fprintf(&b, "- **Target price:** %s\n", FormatPrice(res.TargetPrice))
	fmt.Fprintf(&b, "- **Confidence:** %s\n", FormatPercent(res.Confidence))
	fmt.Fprintf(&b, "- **Risk score:** %s\n", FormatPercent(res.RiskScore))
	if !res.Success && res.Error != "" {
		fmt.Fprintf(&b, "- **Error:** %s\n", res.Error)
	}
	if res.Reasoning != "" {
		b.WriteString("\n## Reasoning\n\n")
		b.WriteString(res.Reasoning)
		b.WriteString("\n")
	}

	if kinds := res.AvailableReports(); len(kinds) > 0 {
		b.WriteString("\n## Reports\n\n")
		for _, kind := range kinds {
			fmt.Fprintf(&b, "- [%s](%s)", kind.Title(), kind.FileName())
			if sections := report.Sections(res.Report(kind)); len(sections) > 0 {
				titles := make([]string, len(sections))
				for i, s := range sections {
					titles[i] = s.Title
				}
				fmt.Fprintf(&b, ": %s", strings.Join(titles, ", "))
			}
			b.WriteString("\n")
		}
	}
	b.WriteString("\n---\n\n*Generated by manbo*\n")
	return b.String()
}

func reportMarkdown(res *models.AnalysisResult, kind models.ReportKind, stamp time.Time) string {
	return fmt.Sprintf("# %s\n\n**Ticker:** %s  \n**Generated:** %s\n\n---\n\n%s\n",
		kind.Title(),
		res.Symbol,
		stamp.Format(time.DateTime),
		strings.TrimSpace(res.Report(kind)),
	)
}

func sanitizeFilename(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '_'
		}
		return r
	}, name)
	if len(name) > 50 {
		name = name[:50]
	}
	return name
}
