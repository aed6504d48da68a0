// Package display renders jobs and analysis results for the terminal and
// exports them to disk.
package display

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/dyike/manbo/internal/chart"
	"github.com/dyike/manbo/internal/models"
	"github.com/dyike/manbo/internal/report"
)

// ResultsDisplay writes analysis results to out.
type ResultsDisplay struct {
	out   io.Writer
	width int
}

func NewResultsDisplay(out io.Writer) *ResultsDisplay {
	return &ResultsDisplay{out: out, width: defaultWidth}
}

// WithWidth sets the wrap width.
func (d *ResultsDisplay) WithWidth(width int) *ResultsDisplay {
	if width > 20 {
		d.width = width
	}
	return d
}

// DisplayAnalysisResults shows the decision, the price chart and every
// report the backend produced, in presentation order.
func (d *ResultsDisplay) DisplayAnalysisResults(res *models.AnalysisResult, points []models.ChartPoint) {
	d.showHeader(res)
	d.showDecision(res)
	d.showChart(points)
	for _, kind := range res.AvailableReports() {
		d.showSection(kind, res.Report(kind))
	}
	d.showFooter(res)
}

func (d *ResultsDisplay) showHeader(res *models.AnalysisResult) {
	header := fmt.Sprintf("📊 Analysis results for %s", res.Symbol)
	if res.Market != "" {
		header += " · " + res.Market.DisplayName()
	}
	fmt.Fprintln(d.out, headerStyle.Render(header))
	fmt.Fprintln(d.out)
}

func (d *ResultsDisplay) showDecision(res *models.AnalysisResult) {
	fmt.Fprintln(d.out, decisionStyle.Width(d.width).Render(DecisionSummary(res)))
	fmt.Fprintln(d.out)
}

// DecisionSummary is the recommendation block: action, target price,
// confidence, risk and reasoning.
func DecisionSummary(res *models.AnalysisResult) string {
	var b strings.Builder
	if !res.Success {
		msg := res.Error
		if msg == "" {
			msg = "the backend reported an unsuccessful analysis"
		}
		b.WriteString(errorStyle.Render("❌ " + msg))
		b.WriteString("\n\n")
	}

	fmt.Fprintf(&b, "🎯 RECOMMENDATION: %s %s\n", getRecommendationEmoji(res.Action), actionStyle(res.Action).Render(actionLabel(res.Action)))
	fmt.Fprintf(&b, "💰 Target price:  %s\n", FormatPrice(res.TargetPrice))
	fmt.Fprintf(&b, "📈 Confidence:    %s\n", FormatPercent(res.Confidence))
	fmt.Fprintf(&b, "⚠️  Risk score:    %s", FormatPercent(res.RiskScore))
	if res.Reasoning != "" {
		b.WriteString("\n\n📝 ")
		b.WriteString(report.Clean(res.Reasoning))
	}
	return b.String()
}

func (d *ResultsDisplay) showChart(points []models.ChartPoint) {
	fmt.Fprintln(d.out, chartStyle.Render(ChartSummary(points, d.width-8)))
	fmt.Fprintln(d.out)
}

// ChartSummary draws a sparkline with the padded price axis, or the empty
// state when no market data is available.
func ChartSummary(points []models.ChartPoint, width int) string {
	line, err := chart.Sparkline(points, width)
	if err != nil {
		return mutedStyle.Render("📉 No chart available: the provider returned no market data")
	}
	domain, _ := chart.DomainOf(points)
	first, last := points[0], points[len(points)-1]

	var b strings.Builder
	fmt.Fprintf(&b, "📈 Price %s → %s (%d days)\n", first.Date, last.Date, len(points))
	fmt.Fprintf(&b, "%s\n", line)
	fmt.Fprintf(&b, "axis %.2f – %.2f · last close %.2f", domain.Min, domain.Max, last.Price)
	if change := changePercent(first.Price, last.Price); change != "" {
		b.WriteString(" · " + change)
	}
	return b.String()
}

func changePercent(from, to float64) string {
	if from == 0 {
		return ""
	}
	pct := (to - from) / from * 100
	return fmt.Sprintf("%+.2f%%", pct)
}

func (d *ResultsDisplay) showSection(kind models.ReportKind, content string) {
	fmt.Fprintf(d.out, "%s\n", sectionTitleStyle.Render(kind.Emoji()+" "+strings.ToUpper(kind.Title())))
	fmt.Fprintln(d.out, mutedStyle.Render(strings.Repeat("═", d.width)))
	if strings.TrimSpace(content) == "" {
		fmt.Fprintln(d.out, mutedStyle.Render("   (No data available)"))
	} else {
		fmt.Fprintln(d.out, RenderReport(content, d.width))
	}
	fmt.Fprintln(d.out)
}

func (d *ResultsDisplay) showFooter(res *models.AnalysisResult) {
	fmt.Fprintln(d.out, mutedStyle.Render(strings.Repeat("═", d.width)))
	completed := time.Now()
	if res.CompletedAt != nil {
		completed = *res.CompletedAt
	}
	fmt.Fprintf(d.out, "🕐 Analysis completed at: %s\n", completed.Format(time.DateTime))
	if res.JobID != "" {
		fmt.Fprintf(d.out, "🔖 Job: %s\n", res.JobID)
	}
	fmt.Fprintln(d.out, mutedStyle.Render("⚠️  This analysis is for informational purposes only and is not financial advice."))
}

// RenderReport renders markdown-lite text line by line: headings, bullets,
// numbered items and paragraphs with bold spans. Runs of blank lines collapse
// to one.
func RenderReport(text string, width int) string {
	var out []string
	prevBlank := true
	for _, line := range report.Lines(text) {
		if line.Kind == report.LineBlank {
			if !prevBlank {
				out = append(out, "")
			}
			prevBlank = true
			continue
		}
		prevBlank = false

		switch line.Kind {
		case report.LineHeading2:
			out = append(out, h2Style.Render(line.Text()))
		case report.LineHeading3:
			out = append(out, h3Style.Render(line.Text()))
		case report.LineBullet:
			out = append(out, wrapText(renderSpans(line.Spans), "  • ", "    ", width)...)
		case report.LineNumbered:
			marker := "  " + line.Marker + ". "
			out = append(out, wrapText(renderSpans(line.Spans), marker, strings.Repeat(" ", len(marker)), width)...)
		default:
			out = append(out, wrapText(renderSpans(line.Spans), "", "", width)...)
		}
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n")
}

func renderSpans(spans []report.Span) []string {
	var words []string
	for _, s := range spans {
		for _, w := range strings.Fields(s.Text) {
			if s.Bold {
				w = boldStyle.Render(w)
			}
			words = append(words, w)
		}
	}
	return words
}

// wrapText fills words into lines of at most width visible characters.
func wrapText(words []string, first, rest string, width int) []string {
	if len(words) == 0 {
		return nil
	}
	var lines []string
	line := first + words[0]
	for _, w := range words[1:] {
		if visibleLen(line)+1+visibleLen(w) > width {
			lines = append(lines, line)
			line = rest + w
			continue
		}
		line += " " + w
	}
	return append(lines, line)
}

func visibleLen(s string) int {
	n := 0
	inEscape := false
	for _, r := range s {
		switch {
		case r == '\x1b':
			inEscape = true
		case inEscape:
			if r == 'm' {
				inEscape = false
			}
		default:
			n++
		}
	}
	return n
}

func actionLabel(a models.Action) string {
	if a == "" {
		return "PENDING"
	}
	return string(a)
}

func actionStyle(a models.Action) lipgloss.Style {
	switch a {
	case models.ActionBuy:
		return buyStyle
	case models.ActionSell:
		return sellStyle
	case models.ActionHold:
		return holdStyle
	default:
		return mutedStyle
	}
}

func getRecommendationEmoji(a models.Action) string {
	switch a {
	case models.ActionBuy:
		return "🟢"
	case models.ActionSell:
		return "🔴"
	case models.ActionHold:
		return "🟡"
	default:
		return "⏳"
	}
}

// FormatPrice prints a target price with two decimals, or "n/a".
func FormatPrice(p *decimal.Decimal) string {
	if p == nil {
		return "n/a"
	}
	return p.StringFixed(2)
}

// FormatPercent prints a unit value as a whole percentage, or "n/a".
func FormatPercent(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.0f%%", *v*100)
}
