// Package selection holds the currently selected server and the log chosen
// for report generation.
//
// A Context is owned by a single event loop and is not safe for concurrent
// use. Every change of selection yields a new Tag; listing requests carry the
// tag they were issued under, and their responses are applied only while
// IsCurrent reports true. Selecting A, then B, then A again produces three
// distinct tags, so a late reply to the first A request is still discarded.
package selection

// Tag identifies the selection a request was issued under.
type Tag struct {
	Server string
	Epoch  uint64
}

// Context is the selection state cell.
type Context struct {
	server     string
	selected   bool
	pendingLog string
	epoch      uint64
}

// New returns an empty Context with no server selected.
func New() *Context {
	return &Context{}
}

// SelectServer makes name the current server. The pending log is cleared and
// data fetched under the previous selection becomes stale.
func (c *Context) SelectServer(name string) Tag {
	c.server = name
	c.selected = true
	c.pendingLog = ""
	c.epoch++
	return c.Tag()
}

// Refresh invalidates in-flight responses without changing the server.
func (c *Context) Refresh() Tag {
	c.epoch++
	return c.Tag()
}

// Current returns the selected server, if any.
func (c *Context) Current() (string, bool) {
	return c.server, c.selected
}

// Tag returns the tag for requests issued now.
func (c *Context) Tag() Tag {
	return Tag{Server: c.server, Epoch: c.epoch}
}

// IsCurrent reports whether a response issued under tag may be applied.
func (c *Context) IsCurrent(tag Tag) bool {
	return c.selected && tag.Epoch == c.epoch && tag.Server == c.server
}

func (c *Context) SetPendingLog(name string) {
	c.pendingLog = name
}

func (c *Context) ClearPendingLog() {
	c.pendingLog = ""
}

// PendingLog returns the log awaiting confirmation, or "".
func (c *Context) PendingLog() string {
	return c.pendingLog
}
