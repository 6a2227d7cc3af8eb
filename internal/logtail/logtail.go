package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Read returns at most maxLines from the end of the file at path. A
// non-positive maxLines returns every line. A missing file yields no lines.
func Read(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if maxLines <= 0 {
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return lines, nil
	}

	ring := make([]string, maxLines)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := range count {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Attr is one key=value pair of a record.
type Attr struct {
	Key   string
	Value string
}

// Entry is a parsed slog text record.
type Entry struct {
	Time      string
	Level     string
	Component string
	Message   string
	Attrs     []Attr
	Raw       string
}

// Parsed reports whether the line looked like a slog record.
func (e Entry) Parsed() bool { return e.Level != "" }

// Parse splits a line written by slog's text handler. Lines in any other
// shape come back with only Raw set.
func Parse(line string) Entry {
	e := Entry{Raw: line}
	pairs, ok := splitPairs(line)
	if !ok {
		return e
	}
	for _, p := range pairs {
		switch p.Key {
		case "time":
			e.Time = p.Value
		case "level":
			e.Level = strings.ToUpper(p.Value)
		case "msg":
			e.Message = p.Value
		case "component":
			e.Component = p.Value
		default:
			e.Attrs = append(e.Attrs, p)
		}
	}
	if e.Level == "" {
		return Entry{Raw: line}
	}
	return e
}

// ParseLines parses every line.
func ParseLines(lines []string) []Entry {
	out := make([]Entry, len(lines))
	for i, l := range lines {
		out[i] = Parse(l)
	}
	return out
}

func splitPairs(line string) ([]Attr, bool) {
	var out []Attr
	rest := strings.TrimSpace(line)
	for rest != "" {
		eq := strings.IndexByte(rest, '=')
		if eq <= 0 || strings.ContainsAny(rest[:eq], " \"") {
			return nil, false
		}
		key := rest[:eq]
		rest = rest[eq+1:]

		var value string
		if strings.HasPrefix(rest, `"`) {
			quoted, err := strconv.QuotedPrefix(rest)
			if err != nil {
				return nil, false
			}
			value, _ = strconv.Unquote(quoted)
			rest = rest[len(quoted):]
		} else {
			end := strings.IndexByte(rest, ' ')
			if end < 0 {
				end = len(rest)
			}
			value = rest[:end]
			rest = rest[end:]
		}
		out = append(out, Attr{Key: key, Value: value})
		rest = strings.TrimLeft(rest, " ")
	}
	return out, len(out) > 0
}
