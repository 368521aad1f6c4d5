package reporter

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/refreshmon/refreshmon/internal/models"
)

// Source provides recorded check runs and error logs
type Source interface {
	GetRunsSince(since time.Time) ([]*models.CheckRun, error)
	GetErrorsSince(since time.Time, limit int) ([]*models.ErrorLog, error)
}

// Reporter builds check history reports
type Reporter struct {
	repo Source
	now  func() time.Time
}

// New creates a new reporter
func New(repo Source) *Reporter {
	return &Reporter{
		repo: repo,
		now:  time.Now,
	}
}

// GenerateHistory builds the history of the given period. A positive limit
// keeps only the most recent runs; totals always cover the whole period.
// withErrors adds the logged errors of the period under the same limit.
func (r *Reporter) GenerateHistory(periodType string, limit int, withErrors bool) (*models.History, error) {
	period, err := r.getPeriod(periodType)
	if err != nil {
		return nil, err
	}

	runs, err := r.repo.GetRunsSince(period.Start)
	if err != nil {
		return nil, fmt.Errorf("failed to get check runs: %w", err)
	}

	history := &models.History{
		Period:      *period,
		GeneratedAt: r.now(),
	}
	for _, run := range runs {
		history.TotalRuns++
		history.TotalDeviations += int64(run.Deviations)
		if run.Deviations > 0 {
			history.RunsWithAlerts++
		}
	}

	if limit > 0 && len(runs) > limit {
		runs = runs[len(runs)-limit:]
	}
	history.Runs = runs

	if withErrors {
		logs, err := r.repo.GetErrorsSince(period.Start, limit)
		if err != nil {
			return nil, fmt.Errorf("failed to get error logs: %w", err)
		}
		if logs == nil {
			logs = []*models.ErrorLog{}
		}
		history.Errors = logs
	}

	return history, nil
}

// getPeriod calculates the time range for the report
func (r *Reporter) getPeriod(periodType string) (*models.HistoryPeriod, error) {
	now := r.now()
	var start, end time.Time

	switch periodType {
	case "", "day", "today":
		periodType = "day"
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		end = start.Add(24 * time.Hour)

	case "week":
		// Start of week (Monday)
		weekday := int(now.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, -(weekday - 1))
		end = start.AddDate(0, 0, 7)

	case "month":
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		end = start.AddDate(0, 1, 0)

	default:
		return nil, fmt.Errorf("invalid period type: %s (valid: day, week, month)", periodType)
	}

	return &models.HistoryPeriod{
		Start: start,
		End:   end,
		Type:  periodType,
	}, nil
}

// FormatHistoryText formats the history as human-readable text
func FormatHistoryText(history *models.History) string {
	output := fmt.Sprintf("Check History - %s\n", history.Period.Type)
	output += fmt.Sprintf("Period: %s to %s\n",
		history.Period.Start.Format("2006-01-02 15:04"),
		history.Period.End.Format("2006-01-02 15:04"))
	output += fmt.Sprintf("Checks: %d, with deviations: %d, deviations: %d\n\n",
		history.TotalRuns, history.RunsWithAlerts, history.TotalDeviations)

	if len(history.Runs) == 0 {
		output += "No checks recorded for this period.\n"
	} else {
		output += formatRuns(history.Runs)
	}

	if history.Errors != nil {
		output += "\n" + formatErrors(history.Errors)
	}
	return output
}

func formatRuns(runs []*models.CheckRun) string {
	output := fmt.Sprintf("%-20s %-8s %-10s %8s %11s %7s\n", "Time", "Trigger", "Backend", "Devices", "Deviations", "Errors")
	output += "------------------------------------------------------------------------\n"

	for _, run := range runs {
		output += fmt.Sprintf("%-20s %-8s %-10s %8d %11d %7d\n",
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Trigger,
			truncate(run.Backend, 10),
			run.Devices,
			run.Deviations,
			run.Errors)
	}
	return output
}

func formatErrors(logs []*models.ErrorLog) string {
	if len(logs) == 0 {
		return "No errors recorded for this period.\n"
	}

	output := fmt.Sprintf("%-20s %-12s %-12s %s\n", "Time", "Kind", "Device", "Error")
	output += "------------------------------------------------------------------------\n"
	for _, l := range logs {
		device := l.DeviceID
		if device == "" {
			device = "-"
		}
		output += fmt.Sprintf("%-20s %-12s %-12s %s\n",
			l.Timestamp.Format("2006-01-02 15:04:05"),
			truncate(l.Kind, 12),
			truncate(device, 12),
			l.ErrorMsg)
	}
	return output
}

// FormatHistoryJSON formats the history as JSON
func FormatHistoryJSON(history *models.History) (string, error) {
	data, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

// truncate truncates a string to the specified length
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
