package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/refreshmon/refreshmon/internal/monitor"
	"github.com/refreshmon/refreshmon/pkg/utils"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")).
			Bold(true)

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))

	frameStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("12")).
			Padding(0, 1)
)

// RenderStatus renders the monitor status for the terminal
func RenderStatus(status *monitor.Status, daemon bool) string {
	mode := "not running (one-shot)"
	if daemon {
		mode = "running"
	}

	lines := []string{
		titleStyle.Render("refreshmon"),
		dimStyle.Render(fmt.Sprintf("daemon: %s | backend: %s | interval: %v", mode, status.Backend, status.Interval)),
	}
	if !status.LastCheck.IsZero() {
		lines = append(lines, dimStyle.Render(fmt.Sprintf("last check: %s (%s)",
			status.LastCheck.Format("2006-01-02 15:04:05"), utils.FormatAgo(status.LastCheck, time.Now()))))
	}
	sound := "off"
	if status.Settings.AlertSound {
		sound = "on"
	}
	lines = append(lines, dimStyle.Render(fmt.Sprintf("default rate: %d Hz | sound: %s", status.Settings.AlertThreshold, sound)), "")

	if len(status.Devices) == 0 {
		lines = append(lines, "No active displays.")
	}
	for _, dev := range status.Devices {
		lines = append(lines, renderDevice(dev))
	}

	return frameStyle.Render(strings.Join(lines, "\n"))
}

func renderDevice(dev monitor.DeviceStatus) string {
	source := "default"
	if dev.Explicit {
		source = "saved"
	}
	current := "unknown"
	if dev.CurrentRate > 0 {
		current = fmt.Sprintf("%d Hz", dev.CurrentRate)
	}

	line := fmt.Sprintf("%-12s %8s  expected %d Hz (%s)", dev.ID, current, dev.PreferredRate, source)
	if dev.Deviating {
		return warnStyle.Render("! " + line)
	}
	return okStyle.Render("  " + line)
}

// RenderCheck summarises a check result
func RenderCheck(result *monitor.CheckResult) string {
	var b strings.Builder
	if len(result.Events) == 0 {
		b.WriteString(okStyle.Render(fmt.Sprintf("All %d display(s) at their expected refresh rate.", len(result.Devices))))
	}
	for _, ev := range result.Events {
		b.WriteString(warnStyle.Render(fmt.Sprintf("%s is running at %dHz, expected %dHz", ev.DeviceID, ev.CurrentRate, ev.ExpectedRate)))
		b.WriteString("\n")
	}
	for _, e := range result.Errors {
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("error: " + e))
	}
	return strings.TrimRight(b.String(), "\n")
}
