// Package logtail bounds and classifies report job output.
//
// # Overview
//
// A running job's status carries its complete output so far, which for a
// large log can grow to many thousands of lines. The status view only ever
// shows the tail, so every snapshot is cut down to the last N lines before it
// is stored.
//
// # Ring Buffer
//
// Tail keeps a circular buffer of size maxLines:
//
//	1. Allocate ring buffer of size maxLines
//	2. For each line: store at current index, advance (wrapping)
//	3. Fewer than maxLines seen: return the first count entries
//	4. Otherwise: return the buffer starting at the current index
//
// Memory is O(maxLines) regardless of snapshot size.
//
// # Progress Frames
//
// The report generator redraws its progress bar with carriage returns. A line
// containing several "\r"-separated frames is reduced to the last one, which
// is what a terminal would have shown.
//
// # Classification
//
// Classify maps generator output prefixes (DEBUG:, LOG:, WARNING:, ERROR:,
// FATAL:) to a Level that the UI turns into a color. Lines without a known
// prefix are LevelPlain. Classification never fails.
package logtail
