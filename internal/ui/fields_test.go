package ui

import (
	"testing"

	"github.com/five82/dials/internal/panel"
	"github.com/five82/dials/internal/setting"
)

func TestFormatValue(t *testing.T) {
	dropdown := panel.FieldSpec{Kind: setting.KindString, Options: []setting.Value{setting.String("en")}}
	tests := []struct {
		name string
		spec panel.FieldSpec
		v    setting.Value
		want string
	}{
		{"null", panel.FieldSpec{Kind: setting.KindString}, setting.Null(), "–"},
		{"on", panel.FieldSpec{Kind: setting.KindBool}, setting.Bool(true), "[x] on"},
		{"off", panel.FieldSpec{Kind: setting.KindBool}, setting.Bool(false), "[ ] off"},
		{"number", panel.FieldSpec{Kind: setting.KindNumber}, setting.Int(12), "12"},
		{"dropdown", dropdown, setting.String("en"), "‹ en ›"},
		{"empty string", panel.FieldSpec{Kind: setting.KindString}, setting.String(""), "(empty)"},
		{"empty list", panel.FieldSpec{Kind: setting.KindStringList}, setting.Strings(nil), "(none)"},
		{"list", panel.FieldSpec{Kind: setting.KindStringList}, setting.Strings([]string{"de", "en"}), "de, en"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatValue(tt.spec, tt.v); got != tt.want {
				t.Fatalf("formatValue() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStepValue(t *testing.T) {
	days := panel.FieldSpec{Kind: setting.KindNumber, Options: []setting.Value{setting.Int(0), setting.Int(30), setting.Int(90)}}
	history := panel.FieldSpec{Kind: setting.KindNumber, Min: 0, Max: 24, Step: 2}

	tests := []struct {
		name    string
		spec    panel.FieldSpec
		current setting.Value
		delta   int
		want    setting.Value
		ok      bool
	}{
		{"next option", days, setting.Int(30), 1, setting.Int(90), true},
		{"last option stays", days, setting.Int(90), 1, setting.Int(90), false},
		{"first option stays", days, setting.Int(0), -1, setting.Int(0), false},
		{"unknown value snaps to first", days, setting.Int(7), 1, setting.Int(0), true},
		{"number steps", history, setting.Int(4), 1, setting.Int(6), true},
		{"number clamps to max", history, setting.Int(23), 1, setting.Int(24), true},
		{"number at min", history, setting.Int(0), -1, setting.Int(0), false},
		{"free text", panel.FieldSpec{Kind: setting.KindString}, setting.String("x"), 1, setting.String("x"), false},
		{"list", panel.FieldSpec{Kind: setting.KindStringList}, setting.Strings(nil), 1, setting.Strings(nil), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := stepValue(tt.spec, tt.current, tt.delta)
			if ok != tt.ok || !got.Equal(tt.want) {
				t.Fatalf("stepValue() = %v, %v; want %v, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestParseInput(t *testing.T) {
	number := panel.FieldSpec{Kind: setting.KindNumber}

	v, err := parseInput(number, " 42 ")
	if err != nil || !v.Equal(setting.Int(42)) {
		t.Fatalf("parseInput(number) = %v, %v; want 42", v, err)
	}
	if _, err := parseInput(number, "4.5"); err == nil {
		t.Fatalf("parseInput accepted a fraction")
	}

	v, err = parseInput(panel.FieldSpec{Kind: setting.KindStringList}, "de, ,en,")
	if err != nil || !v.Equal(setting.Strings([]string{"de", "en"})) {
		t.Fatalf("parseInput(list) = %v, %v; want [de en]", v, err)
	}

	v, err = parseInput(panel.FieldSpec{Kind: setting.KindString}, "  keep spaces ")
	if err != nil || !v.Equal(setting.String("  keep spaces ")) {
		t.Fatalf("parseInput(string) = %v, %v", v, err)
	}
}

func TestFieldBadge(t *testing.T) {
	tests := []struct {
		state   panel.FieldState
		enabled bool
		want    string
	}{
		{panel.FieldState{Loading: true, Error: true}, false, badgeLoading},
		{panel.FieldState{Error: true}, false, badgeError},
		{panel.FieldState{}, false, badgeDisabled},
		{panel.FieldState{}, true, ""},
	}
	for _, tt := range tests {
		if got := fieldBadge(tt.state, tt.enabled); got != tt.want {
			t.Fatalf("fieldBadge(%+v, %v) = %q, want %q", tt.state, tt.enabled, got, tt.want)
		}
	}
}

func TestUsesInput(t *testing.T) {
	if !usesInput(panel.FieldSpec{Kind: setting.KindString}) {
		t.Fatalf("free text should use the input modal")
	}
	if usesInput(panel.FieldSpec{Kind: setting.KindNumber, Options: []setting.Value{setting.Int(1)}}) {
		t.Fatalf("dropdown should not use the input modal")
	}
	if usesInput(panel.FieldSpec{Kind: setting.KindBool}) {
		t.Fatalf("toggle should not use the input modal")
	}
}
