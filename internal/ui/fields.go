package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/five82/dials/internal/panel"
	"github.com/five82/dials/internal/setting"
)

// formatValue renders a field value for the field list.
func formatValue(spec panel.FieldSpec, v setting.Value) string {
	if v.IsNull() {
		return "–"
	}
	switch v.Kind() {
	case setting.KindBool:
		b, _ := v.AsBool()
		if b {
			return "[x] on"
		}
		return "[ ] off"
	case setting.KindNumber:
		s := v.String()
		if len(spec.Options) > 0 {
			return "‹ " + s + " ›"
		}
		return s
	case setting.KindString:
		s, _ := v.AsString()
		if s == "" {
			return "(empty)"
		}
		if len(spec.Options) > 0 {
			return "‹ " + s + " ›"
		}
		return s
	case setting.KindStringList:
		list, _ := v.AsStrings()
		if len(list) == 0 {
			return "(none)"
		}
		return strings.Join(list, ", ")
	}
	return v.String()
}

// stepValue moves current by delta positions through the field's options,
// or by delta steps within Min..Max for plain numbers. ok is false when the
// field cannot be stepped or the value would not change.
func stepValue(spec panel.FieldSpec, current setting.Value, delta int) (setting.Value, bool) {
	if delta == 0 || spec.Kind == setting.KindStringList {
		return current, false
	}
	if len(spec.Options) > 0 {
		idx := -1
		for i, o := range spec.Options {
			if o.Equal(current) {
				idx = i
				break
			}
		}
		next := clamp(idx+delta, len(spec.Options))
		if idx < 0 {
			next = 0
		}
		if next == idx {
			return current, false
		}
		return spec.Options[next].Clone(), true
	}
	if spec.Kind != setting.KindNumber {
		return current, false
	}
	n, ok := current.AsInt()
	if !ok {
		return current, false
	}
	step := spec.Step
	if step <= 0 {
		step = 1
	}
	next := n + delta*step
	if spec.Max > spec.Min {
		next = max(spec.Min, min(spec.Max, next))
	}
	if next == n {
		return current, false
	}
	return setting.Int(next), true
}

// parseInput converts text typed in the input modal into a value of the
// field's kind.
func parseInput(spec panel.FieldSpec, text string) (setting.Value, error) {
	switch spec.Kind {
	case setting.KindNumber:
		n, err := strconv.Atoi(strings.TrimSpace(text))
		if err != nil {
			return setting.Null(), fmt.Errorf("%q is not a whole number", strings.TrimSpace(text))
		}
		return setting.Int(n), nil
	case setting.KindBool:
		b, err := strconv.ParseBool(strings.TrimSpace(text))
		if err != nil {
			return setting.Null(), fmt.Errorf("%q is not true or false", strings.TrimSpace(text))
		}
		return setting.Bool(b), nil
	case setting.KindStringList:
		var out []string
		for _, part := range strings.Split(text, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return setting.Strings(out), nil
	default:
		return setting.String(text), nil
	}
}

// usesInput reports whether enter opens the text input for spec.
func usesInput(spec panel.FieldSpec) bool {
	switch spec.Kind {
	case setting.KindString:
		return len(spec.Options) == 0
	case setting.KindNumber:
		return len(spec.Options) == 0
	}
	return false
}

// fieldBadge picks the state badge shown next to a field, or "".
func fieldBadge(f panel.FieldState, enabled bool) string {
	switch {
	case f.Loading:
		return badgeLoading
	case f.Error:
		return badgeError
	case !enabled:
		return badgeDisabled
	}
	return ""
}

// inputHint describes the constraints of spec for the input modal.
func inputHint(spec panel.FieldSpec) string {
	var parts []string
	if spec.Help != "" {
		parts = append(parts, spec.Help)
	}
	if spec.Kind == setting.KindNumber && spec.Max > spec.Min {
		parts = append(parts, fmt.Sprintf("%d to %d", spec.Min, spec.Max))
	}
	if spec.MaxLen > 0 {
		parts = append(parts, fmt.Sprintf("%d to %d characters", spec.MinLen, spec.MaxLen))
	}
	return strings.Join(parts, " · ")
}

// inputText is the editable text form of v.
func inputText(v setting.Value) string {
	switch v.Kind() {
	case setting.KindString:
		s, _ := v.AsString()
		return s
	case setting.KindStringList:
		list, _ := v.AsStrings()
		return strings.Join(list, ", ")
	case setting.KindNull:
		return ""
	}
	return v.String()
}
