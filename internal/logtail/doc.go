// Package logtail reads the tail of the dials log file and splits slog
// text records into their parts for display.
//
// Read keeps a ring buffer of the last lines, so memory stays bounded no
// matter how large the file has grown. Parse understands the key=value
// layout of slog.TextHandler, including quoted values; anything else is
// returned raw so foreign lines still show up.
package logtail
