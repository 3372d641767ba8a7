package cmd

import (
	"testing"

	"github.com/fatih/color"
)

func TestFormatStatusWithColor(t *testing.T) {
	original := color.NoColor
	color.NoColor = true
	t.Cleanup(func() {
		color.NoColor = original
	})

	tests := []struct {
		name   string
		status string
		want   string
	}{
		{name: "success", status: "OK", want: "OK"},
		{name: "completed synonym", status: "completed", want: "completed"},
		{name: "failure", status: "failed", want: "failed"},
		{name: "running", status: "running", want: "running"},
		{name: "unknown", status: "archived", want: "archived"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatStatusWithColor(tt.status); got != tt.want {
				t.Fatalf("formatStatusWithColor(%q) = %q, want %q", tt.status, got, tt.want)
			}
		})
	}
}

func TestFormatRiskWithColor(t *testing.T) {
	original := color.NoColor
	color.NoColor = true
	t.Cleanup(func() {
		color.NoColor = original
	})

	tests := []struct {
		name  string
		level string
		want  string
	}{
		{name: "critical", level: "critical", want: "critical"},
		{name: "high uppercase", level: "HIGH", want: "HIGH"},
		{name: "medium", level: "medium", want: "medium"},
		{name: "low", level: "low", want: "low"},
		{name: "informational passes through", level: "informational", want: "informational"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatRiskWithColor(tt.level); got != tt.want {
				t.Fatalf("formatRiskWithColor(%q) = %q, want %q", tt.level, got, tt.want)
			}
		})
	}
}
