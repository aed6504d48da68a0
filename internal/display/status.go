package display

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/dyike/manbo/internal/jobs"
	"github.com/dyike/manbo/internal/models"
)

// StatusLine summarises a session snapshot in one line.
func StatusLine(snap jobs.Snapshot, now time.Time) string {
	switch {
	case snap.Generation == 0:
		return mutedStyle.Render("No analysis started")
	case snap.Submitting():
		return inProgressStyle.Render("🚀 Submitting analysis...")
	case snap.State == jobs.StateCancelled:
		return mutedStyle.Render("⏹  Analysis cancelled")
	case snap.Done && snap.Err != nil:
		return errorStyle.Render("❌ " + failureMessage(snap.Err))
	case snap.Fetching():
		return inProgressStyle.Render("📥 Analysis complete, fetching result...")
	case snap.Done:
		return completedStyle.Render("✅ Analysis complete")
	}

	job := snap.Job
	var parts []string
	if job.Symbol != "" {
		parts = append(parts, job.Symbol)
	}
	status := job.Status
	if status == "" {
		status = models.StatusQueued
	}
	parts = append(parts, string(status))
	if elapsed := job.Elapsed(now); elapsed > 0 {
		parts = append(parts, elapsed.Round(time.Second).String())
	}
	icon := "⏳"
	if status == models.StatusRunning {
		icon = "🔄"
	}
	return inProgressStyle.Render(icon + " " + strings.Join(parts, " · "))
}

// failureMessage picks the user-facing text for a terminal error. Job
// failures show the backend reason verbatim.
func failureMessage(err error) string {
	var (
		jf *jobs.JobFailure
		pe *jobs.PollingError
		fe *jobs.ResultFetchError
		se *jobs.SubmissionError
	)
	switch {
	case errors.As(err, &jf):
		return "Analysis failed: " + jf.Reason
	case errors.As(err, &pe):
		return "Lost contact with the backend: " + pe.Err.Error()
	case errors.As(err, &fe):
		return "Could not load the result: " + fe.Error()
	case errors.As(err, &se):
		return "Submission failed: " + se.Error()
	default:
		return err.Error()
	}
}

// RenderJob lists the fields of a job for the status command.
func RenderJob(job *models.AnalysisJob, now time.Time) string {
	var b strings.Builder
	row := func(label, value string) {
		if value != "" {
			fmt.Fprintf(&b, "%-14s %s\n", label+":", value)
		}
	}
	row("ID", job.ID)
	row("Symbol", job.Symbol)
	if job.Market != "" {
		row("Market", job.Market.DisplayName())
	}
	row("Status", statusStyle(job.Status).Render(string(job.Status)))
	row("Created", formatTime(&job.CreatedAt))
	row("Started", formatTime(job.StartedAt))
	row("Completed", formatTime(job.CompletedAt))
	if elapsed := job.Elapsed(now); elapsed > 0 {
		row("Elapsed", elapsed.Round(time.Second).String())
	}
	row("Error", job.ErrorMessage)
	return strings.TrimRight(b.String(), "\n")
}

func statusStyle(s models.JobStatus) lipgloss.Style {
	switch s {
	case models.StatusCompleted:
		return completedStyle
	case models.StatusFailed:
		return errorStyle
	case models.StatusRunning, models.StatusQueued:
		return inProgressStyle
	default:
		return mutedStyle
	}
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(time.DateTime)
}

// DisplayError shows a formatted error message.
func DisplayError(w io.Writer, err error) {
	fmt.Fprintln(w, errorStyle.Render("❌ Error: "+failureMessage(err)))
}

// DisplayWarning shows a formatted warning message.
func DisplayWarning(w io.Writer, message string) {
	fmt.Fprintln(w, inProgressStyle.Render("⚠️  Warning: "+message))
}

// DisplaySuccess shows a formatted success message.
func DisplaySuccess(w io.Writer, message string) {
	fmt.Fprintln(w, completedStyle.Render("✅ "+message))
}

// DisplayInfo shows a formatted info message.
func DisplayInfo(w io.Writer, message string) {
	fmt.Fprintln(w, infoStyle.Render("ℹ️  "+message))
}

// Title renders a banner line.
func Title(text string) string {
	return titleStyle.Render(text)
}
