package cmd

import (
	"strings"

	"github.com/fatih/color"
)

var (
	colorSuccess = color.New(color.FgGreen).SprintFunc()
	colorInfo    = color.New(color.FgCyan).SprintFunc()
	colorWarn    = color.New(color.FgYellow).SprintFunc()
	colorError   = color.New(color.FgRed).SprintFunc()
)

func formatStatusWithColor(status string) string {
	switch strings.ToLower(status) {
	case "ok", "success", "pass", "completed", "satisfied":
		return colorSuccess(status)
	case "error", "fail", "failed":
		return colorError(status)
	case "running", "pending", "partial":
		return colorWarn(status)
	default:
		return status
	}
}

func formatRiskWithColor(level string) string {
	switch strings.ToLower(level) {
	case "critical", "high":
		return colorError(level)
	case "medium":
		return colorWarn(level)
	case "low":
		return colorInfo(level)
	default:
		return level
	}
}
