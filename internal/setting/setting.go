// Package setting defines the values exchanged with the settings API.
package setting

import "errors"

// SectionPath groups related setting keys, e.g. "Application.Security.PasswordPolicies".
type SectionPath string

// Key names one configurable value within a section, e.g. "password.min.length".
type Key string

// ErrKeyNotFound is returned when a section does not carry a requested key.
var ErrKeyNotFound = errors.New("setting key not found")

// Setting is the unit of persistence and of cache lookup.
type Setting struct {
	Name  Key   `json:"setting_name"`
	Value Value `json:"value"`
}

// Update addresses one write inside a batch.
type Update struct {
	Section SectionPath `json:"section_path"`
	Key     Key         `json:"setting_name"`
	Value   Value       `json:"value"`
}

// UpdateResult reports the outcome of one batched write.
type UpdateResult struct {
	Section SectionPath `json:"section_path"`
	Key     Key         `json:"setting_name"`
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
}

// Find returns the value stored under key.
func Find(list []Setting, key Key) (Value, bool) {
	for _, s := range list {
		if s.Name == key {
			return s.Value, true
		}
	}
	return Value{}, false
}

// CloneList deep-copies a list of settings.
func CloneList(list []Setting) []Setting {
	if list == nil {
		return nil
	}
	out := make([]Setting, len(list))
	for i, s := range list {
		out[i] = Setting{Name: s.Name, Value: s.Value.Clone()}
	}
	return out
}

// Merge returns list with key set to value, appending when absent.
func Merge(list []Setting, key Key, value Value) []Setting {
	out := CloneList(list)
	for i := range out {
		if out[i].Name == key {
			out[i].Value = value.Clone()
			return out
		}
	}
	return append(out, Setting{Name: key, Value: value.Clone()})
}
