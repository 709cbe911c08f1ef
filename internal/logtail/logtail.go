package logtail

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Tail returns at most maxLines from the end of r. maxLines <= 0 keeps every
// line. Carriage-return progress updates collapse to their last frame.
func Tail(r io.Reader, maxLines int) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if maxLines <= 0 {
		var lines []string
		for scanner.Scan() {
			lines = append(lines, lastFrame(scanner.Text()))
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read output: %w", err)
		}
		return lines, nil
	}

	ring := make([]string, maxLines)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = lastFrame(scanner.Text())
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read output: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// TailString is Tail over an in-memory snapshot, joined back with newlines.
// A line longer than the scanner limit falls back to a plain split.
func TailString(s string, maxLines int) string {
	if s == "" {
		return ""
	}
	lines, err := Tail(strings.NewReader(s), maxLines)
	if err != nil {
		lines = strings.Split(strings.TrimRight(s, "\n"), "\n")
		if maxLines > 0 && len(lines) > maxLines {
			lines = lines[len(lines)-maxLines:]
		}
	}
	return strings.Join(lines, "\n")
}

func lastFrame(line string) string {
	line = strings.TrimRight(line, "\r")
	if i := strings.LastIndexByte(line, '\r'); i >= 0 {
		return line[i+1:]
	}
	return line
}

// Level is the severity a job output line was written at.
type Level int

const (
	LevelPlain Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "plain"
	}
}

var prefixes = []struct {
	prefix string
	level  Level
}{
	{"DEBUG:", LevelDebug},
	{"LOG:", LevelInfo},
	{"WARNING:", LevelWarn},
	{"ERROR:", LevelError},
	{"FATAL:", LevelError},
	{"Error ", LevelError},
}

// Classify maps a report generator output line to a Level by its prefix.
func Classify(line string) Level {
	trimmed := strings.TrimLeft(line, " \t")
	for _, p := range prefixes {
		if strings.HasPrefix(trimmed, p.prefix) {
			return p.level
		}
	}
	return LevelPlain
}
