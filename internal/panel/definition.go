package panel

import (
	"fmt"

	"github.com/five82/dials/internal/setting"
	"github.com/five82/dials/internal/validate"
)

// Strategy selects how LoadSettings hydrates a section.
type Strategy int

const (
	// Batched fetches the whole section once and distributes the values.
	Batched Strategy = iota
	// PerKey loads every key independently, each with its own retries.
	PerKey
)

func (s Strategy) String() string {
	if s == PerKey {
		return "per-key"
	}
	return "batched"
}

// Validator checks a candidate value before it is written.
type Validator func(setting.Value) error

// FieldSpec declares one setting owned by a panel.
type FieldSpec struct {
	Key   setting.Key
	Kind  setting.Kind
	Label string
	Help  string

	// Options lists the allowed values of a dropdown, or the selectable
	// members of a string list.
	Options []setting.Value

	// Min and Max bound numbers when Max > Min. Step is the arrow-key
	// increment in the UI.
	Min, Max int
	Step     int

	// MinLen and MaxLen bound string lengths; MaxLen 0 means unbounded.
	MinLen, MaxLen int

	Validators []Validator
}

// Validate runs the declared constraints followed by the custom validators.
func (f FieldSpec) Validate(v setting.Value) error {
	if v.IsNull() {
		return nil
	}
	if f.Kind != setting.KindNull && v.Kind() != f.Kind {
		return fmt.Errorf("expected %s, got %s", f.Kind, v.Kind())
	}
	switch v.Kind() {
	case setting.KindNumber:
		n, _ := v.AsInt()
		if f.Max > f.Min {
			if err := validate.IntRange(n, f.Min, f.Max); err != nil {
				return err
			}
		}
	case setting.KindString:
		s, _ := v.AsString()
		if f.MinLen > 0 || f.MaxLen > 0 {
			if err := validate.Length(s, f.MinLen, f.MaxLen); err != nil {
				return err
			}
		}
	}
	if len(f.Options) > 0 {
		if err := f.checkOptions(v); err != nil {
			return err
		}
	}
	for _, check := range f.Validators {
		if err := check(v); err != nil {
			return err
		}
	}
	return nil
}

func (f FieldSpec) checkOptions(v setting.Value) error {
	if v.Kind() == setting.KindStringList {
		allowed := make([]string, 0, len(f.Options))
		for _, o := range f.Options {
			if s, ok := o.AsString(); ok {
				allowed = append(allowed, s)
			}
		}
		members, _ := v.AsStrings()
		for _, m := range members {
			if err := validate.OneOf(m, allowed); err != nil {
				return err
			}
		}
		return nil
	}
	if !f.HasOption(v) {
		return fmt.Errorf("%s is not an allowed value", v)
	}
	return nil
}

// HasOption reports whether v is one of the declared options.
func (f FieldSpec) HasOption(v setting.Value) bool {
	for _, o := range f.Options {
		if o.Equal(v) {
			return true
		}
	}
	return false
}

// DisplayLabel falls back to the key when no label was declared.
func (f FieldSpec) DisplayLabel() string {
	if f.Label != "" {
		return f.Label
	}
	return string(f.Key)
}

// Definition is the typed registry entry for one panel.
type Definition struct {
	Section  setting.SectionPath
	Title    string
	Strategy Strategy
	Fields   []FieldSpec
	Rules    []Rule

	// RegionTable mounts the regions CRUD editor below the fields.
	RegionTable bool
}

// Keys returns the field keys in declaration order.
func (d Definition) Keys() []setting.Key {
	keys := make([]setting.Key, 0, len(d.Fields))
	for _, f := range d.Fields {
		keys = append(keys, f.Key)
	}
	return keys
}

// Field looks up the FieldSpec of key.
func (d Definition) Field(key setting.Key) (FieldSpec, bool) {
	for _, f := range d.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return FieldSpec{}, false
}
