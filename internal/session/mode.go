package session

import "strings"

// FocusMode categorizes what kind of work a focus session covers.
//
// The well-known modes form a closed set; anything else is accepted as a
// freeform custom mode so users can track their own categories.
type FocusMode string

const (
	ModeAiAssisted   FocusMode = "ai-assisted"
	ModeReview       FocusMode = "review"
	ModeArchitecture FocusMode = "architecture"
	ModeVeille       FocusMode = "veille"
)

// ParseMode normalizes a user-supplied mode string.
//
// "prompting" is a legacy alias for ai-assisted kept for stored sessions
// written by older versions.
func ParseMode(value string) FocusMode {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "prompting", "ai-assisted":
		return ModeAiAssisted
	case "review":
		return ModeReview
	case "architecture":
		return ModeArchitecture
	case "veille":
		return ModeVeille
	case "":
		return ModeAiAssisted
	default:
		return FocusMode(strings.ToLower(strings.TrimSpace(value)))
	}
}

// IsWellKnown reports whether the mode is one of the predefined modes.
func (m FocusMode) IsWellKnown() bool {
	switch m {
	case ModeAiAssisted, ModeReview, ModeArchitecture, ModeVeille:
		return true
	default:
		return false
	}
}

func (m FocusMode) String() string { return string(m) }
