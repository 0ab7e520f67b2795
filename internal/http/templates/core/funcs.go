// Package core provides the template funcs shared by every console page.
package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"time"

	"github.com/sakunasanka/Sona-frontend-admin-sub000/internal/http/uiutil"
)

// Deps holds optional dependencies for constructing the core template func map.
type Deps struct {
	Template           **template.Template
	ContentTemplateFor func(string) string
	Now                func() time.Time
}

// Funcs returns a template.FuncMap containing helpers that are broadly useful across templates.
func Funcs(deps Deps) template.FuncMap {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return template.FuncMap{
		"sectionTmpl":   deps.ContentTemplateFor,
		"renderSection": renderSection(deps),
		"friendlyTime":  func(ts any) string { return uiutil.FormatFriendlyDateTime(asTime(ts)) },
		"relativeTime":  func(ts any) string { return uiutil.RelativeTime(asTime(ts), now()) },
		"timeTag":       timeTag,
		"humanize":      uiutil.Humanize,
		"truncateText":  uiutil.TruncateWithEllipsis,
		"toJSON":        toJSON,
		"isList":        isList,
	}
}

func renderSection(deps Deps) func(string, any) (template.HTML, error) {
	return func(page string, data any) (template.HTML, error) {
		if deps.Template == nil || *deps.Template == nil {
			return "", errors.New("template not initialized")
		}
		var buf bytes.Buffer
		if err := (*deps.Template).ExecuteTemplate(&buf, deps.ContentTemplateFor(page), data); err != nil {
			return "", err
		}
		// #nosec G203 - output of our own html/template set; values were escaped during execution.
		return template.HTML(buf.String()), nil
	}
}

// asTime accepts time.Time, *time.Time or an RFC 3339 string as the backend sends them.
func asTime(ts any) time.Time {
	switch v := ts.(type) {
	case time.Time:
		return v
	case *time.Time:
		if v != nil {
			return *v
		}
	case string:
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t
		}
	}
	return time.Time{}
}

func timeTag(ts any) template.HTML {
	t0 := asTime(ts)
	if t0.IsZero() {
		return ""
	}
	// #nosec G203 - built from escaped values only
	return template.HTML(fmt.Sprintf(
		"<time datetime=\"%s\" title=\"%s\">%s</time>",
		t0.UTC().Format(time.RFC3339),
		template.HTMLEscapeString(t0.Local().Format(time.RFC1123)),
		template.HTMLEscapeString(uiutil.FormatFriendlyDateTime(t0)),
	))
}

func toJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// isList reports whether a reshaped widget value should render as rows rather than a figure.
func isList(v any) bool {
	_, ok := v.([]any)
	return ok
}
