package panel

import "github.com/five82/dials/internal/setting"

// Change is a value a rule wants assigned to another key.
type Change struct {
	Key   setting.Key
	Value setting.Value
}

// Rule derives follow-up changes from a written edit. The controller applies
// each returned change through Set, so forced values are validated and
// written like user edits.
type Rule interface {
	Apply(changed setting.Key, lookup func(setting.Key) setting.Value) []Change
}

// PairedRule is a Rule whose check needs other keys loaded before an edit
// of changed may be written.
type PairedRule interface {
	Rule
	Partners(changed setting.Key) []setting.Key
}

// MinMaxRule keeps Min <= Max by pushing the opposite bound.
type MinMaxRule struct {
	Min setting.Key
	Max setting.Key
}

func (r MinMaxRule) Apply(changed setting.Key, lookup func(setting.Key) setting.Value) []Change {
	if changed != r.Min && changed != r.Max {
		return nil
	}
	lo, okLo := lookup(r.Min).AsNumber()
	hi, okHi := lookup(r.Max).AsNumber()
	if !okLo || !okHi || lo <= hi {
		return nil
	}
	if changed == r.Min {
		return []Change{{Key: r.Max, Value: setting.Number(lo)}}
	}
	return []Change{{Key: r.Min, Value: setting.Number(hi)}}
}

// Partners returns the opposite bound of changed.
func (r MinMaxRule) Partners(changed setting.Key) []setting.Key {
	switch changed {
	case r.Min:
		return []setting.Key{r.Max}
	case r.Max:
		return []setting.Key{r.Min}
	}
	return nil
}

// DependsOnRule forces Children off whenever Parent is switched off.
type DependsOnRule struct {
	Parent   setting.Key
	Children []setting.Key
}

func (r DependsOnRule) Apply(changed setting.Key, lookup func(setting.Key) setting.Value) []Change {
	if changed != r.Parent {
		return nil
	}
	if on, ok := lookup(r.Parent).AsBool(); !ok || on {
		return nil
	}
	var changes []Change
	for _, child := range r.Children {
		if on, ok := lookup(child).AsBool(); ok && on {
			changes = append(changes, Change{Key: child, Value: setting.Bool(false)})
		}
	}
	return changes
}

// Enabled reports whether child is usable given its parent's value. Keys
// not governed by the rule are always enabled.
func (r DependsOnRule) Enabled(child setting.Key, lookup func(setting.Key) setting.Value) bool {
	for _, c := range r.Children {
		if c == child {
			on, ok := lookup(r.Parent).AsBool()
			return !ok || on
		}
	}
	return true
}
