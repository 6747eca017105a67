package model

import (
	"fmt"
	"strings"
)

// Window is a calendar period anchored to the moment a summary is requested.
type Window string

// Summary windows.
const (
	WindowDaily   Window = "daily"
	WindowWeekly  Window = "weekly"
	WindowMonthly Window = "monthly"
)

// AllWindows lists the windows in display order.
func AllWindows() []Window {
	return []Window{WindowDaily, WindowWeekly, WindowMonthly}
}

// ParseWindow converts user input into a Window.
func ParseWindow(s string) (Window, error) {
	w := Window(strings.ToLower(strings.TrimSpace(s)))
	switch w {
	case WindowDaily, WindowWeekly, WindowMonthly:
		return w, nil
	default:
		return "", fmt.Errorf("invalid window %q (want daily, weekly or monthly)", s)
	}
}
