package main

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatClock renders seconds as m:ss or h:mm:ss, keeping a single decimal
// only when the value is not whole.
func formatClock(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	tenths := int(math.Round(seconds * 10))
	whole := tenths / 10
	frac := tenths % 10

	h := whole / 3600
	m := (whole % 3600) / 60
	s := whole % 60

	var base string
	if h > 0 {
		base = fmt.Sprintf("%d:%02d:%02d", h, m, s)
	} else {
		base = fmt.Sprintf("%d:%02d", m, s)
	}
	if frac > 0 {
		base += fmt.Sprintf(".%d", frac)
	}
	return base
}

func parseSeconds(arg, name string) (float64, error) {
	value, err := strconv.ParseFloat(strings.TrimSpace(arg), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: expected seconds", name, arg)
	}
	return value, nil
}

func formatStatusLabel(status string) string {
	status = strings.TrimSpace(status)
	if status == "" {
		return ""
	}
	parts := strings.Split(status, "_")
	for i, part := range parts {
		lower := strings.ToLower(part)
		if lower == "" {
			continue
		}
		parts[i] = strings.ToUpper(lower[:1]) + lower[1:]
	}
	return strings.Join(parts, " ")
}

func formatDisplayTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.UTC().Format("2006-01-02 15:04")
}

func truncateText(value string, limit int) string {
	value = strings.TrimSpace(value)
	if limit <= 3 || len(value) <= limit {
		return value
	}
	return value[:limit-3] + "..."
}
