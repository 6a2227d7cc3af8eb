// Package validate holds the pure checks applied to string and number
// settings before they are written.
package validate

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"
)

// ErrEmpty is returned for blank input where a value is required.
var ErrEmpty = errors.New("value is empty")

// MaxPhoneMaskLength bounds phone masks.
const MaxPhoneMaskLength = 32

// Regex checks that pattern compiles with Go's RE2 syntax. Lookahead and
// backreferences are not supported.
func Regex(pattern string) error {
	if strings.TrimSpace(pattern) == "" {
		return ErrEmpty
	}
	if _, err := regexp.Compile(pattern); err != nil {
		return fmt.Errorf("invalid regular expression: %w", err)
	}
	return nil
}

// PhoneMask checks a mask such as "+1 (###) ###-####". '#' stands for one
// digit; digits, spaces and + - ( ) . are literals. Parentheses must be
// balanced and may not nest.
func PhoneMask(mask string) error {
	if strings.TrimSpace(mask) == "" {
		return ErrEmpty
	}
	if n := utf8.RuneCountInString(mask); n > MaxPhoneMaskLength {
		return fmt.Errorf("phone mask is %d characters, max %d", n, MaxPhoneMaskLength)
	}

	placeholders := 0
	open := false
	for i, r := range mask {
		switch {
		case r == '#':
			placeholders++
		case r >= '0' && r <= '9', r == ' ', r == '+', r == '-', r == '.':
		case r == '(':
			if open {
				return fmt.Errorf("nested parenthesis at %d", i)
			}
			open = true
		case r == ')':
			if !open {
				return fmt.Errorf("unbalanced parenthesis at %d", i)
			}
			open = false
		default:
			return fmt.Errorf("unexpected character %q at %d", r, i)
		}
	}
	if open {
		return fmt.Errorf("unclosed parenthesis")
	}
	if placeholders == 0 {
		return fmt.Errorf("phone mask has no # placeholder")
	}
	return nil
}

// Length checks that s has between min and max runes. A max of zero means
// unbounded.
func Length(s string, min, max int) error {
	n := utf8.RuneCountInString(s)
	if n < min {
		return fmt.Errorf("must be at least %d characters", min)
	}
	if max > 0 && n > max {
		return fmt.Errorf("must be at most %d characters", max)
	}
	return nil
}

// IntRange checks that min <= n <= max.
func IntRange(n, min, max int) error {
	if n < min || n > max {
		return fmt.Errorf("%d is outside %d..%d", n, min, max)
	}
	return nil
}

// OneOf checks that v is one of options.
func OneOf(v string, options []string) error {
	if slices.Contains(options, v) {
		return nil
	}
	return fmt.Errorf("%q is not an allowed option", v)
}
