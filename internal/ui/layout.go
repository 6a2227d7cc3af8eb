package ui

import "time"

// Layout sizes.
const (
	// SidebarWidth is the width of the section list, borders included.
	SidebarWidth = 28

	// LayoutCompactWidth is the threshold below which help hints are hidden.
	LayoutCompactWidth = 100

	// LabelWidth is the column reserved for field labels.
	LabelWidth = 30

	helpModalWidth  = 44
	inputModalWidth = 56
)

// Timing constants.
const (
	// ToastRefresh is how often expired toasts are dropped from the footer.
	ToastRefresh = 250 * time.Millisecond

	// ActionTimeout bounds reset and region calls started from the UI.
	ActionTimeout = 15 * time.Second
)
