// Package uiutil holds small presentation helpers shared by templates and handlers.
package uiutil

import (
	"strconv"
	"strings"
	"time"
	"unicode"
)

const FriendlyDateTimeLayout = "Jan 2, 2006 3:04 PM"

// FormatFriendlyDateTime returns a consistent, user-friendly local timestamp representation.
func FormatFriendlyDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(FriendlyDateTimeLayout)
}

// RelativeTime describes t relative to now. Future times read as "in N units".
func RelativeTime(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	diff := now.Sub(t)
	future := diff < 0
	if future {
		diff = -diff
	}
	var n int
	var unit string
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		n, unit = int(diff.Minutes()), "minute"
	case diff < 24*time.Hour:
		n, unit = int(diff.Hours()), "hour"
	case diff < 7*24*time.Hour:
		n, unit = int(diff.Hours()/24), "day"
	default:
		return FormatFriendlyDateTime(t)
	}
	if n != 1 {
		unit += "s"
	}
	if future {
		return "in " + strconv.Itoa(n) + " " + unit
	}
	return strconv.Itoa(n) + " " + unit + " ago"
}

// TruncateWithEllipsis shortens text to the provided rune limit and appends an ellipsis when truncated.
func TruncateWithEllipsis(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	if limit <= 1 {
		return "…"
	}
	return strings.TrimSpace(string(runes[:limit-1])) + "…"
}

// Humanize turns identifiers like "pending_applications" or "sessionsThisMonth" into
// "Pending applications" / "Sessions this month".
func Humanize(id string) string {
	var b strings.Builder
	for i, r := range id {
		switch {
		case r == '_' || r == '-':
			b.WriteByte(' ')
		case unicode.IsUpper(r) && i > 0:
			b.WriteByte(' ')
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	out := strings.Join(strings.Fields(b.String()), " ")
	if out == "" {
		return ""
	}
	first := []rune(out)
	first[0] = unicode.ToUpper(first[0])
	return string(first)
}
