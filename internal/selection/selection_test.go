package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextStartsEmpty(t *testing.T) {
	c := New()
	_, ok := c.Current()
	assert.False(t, ok)
	assert.False(t, c.IsCurrent(c.Tag()), "nothing is current before a selection")
}

func TestSelectServerClearsPendingLog(t *testing.T) {
	c := New()
	c.SelectServer("web-01")
	c.SetPendingLog("access.log")
	require.Equal(t, "access.log", c.PendingLog())

	c.SelectServer("db-01")
	assert.Empty(t, c.PendingLog())
	server, ok := c.Current()
	assert.True(t, ok)
	assert.Equal(t, "db-01", server)

	c.SetPendingLog("postgresql.log")
	c.ClearPendingLog()
	assert.Empty(t, c.PendingLog())
}

// applyLogs mimics a consumer that renders a listing only when its tag is
// still current.
func applyLogs(c *Context, rendered *string, tag Tag, data string) {
	if c.IsCurrent(tag) {
		*rendered = data
	}
}

func TestStaleResponsesDiscardedInEitherOrder(t *testing.T) {
	cases := []struct {
		name     string
		aFirst   bool
		expected string
	}{
		{name: "A resolves first", aFirst: true, expected: "logs of B"},
		{name: "B resolves first", aFirst: false, expected: "logs of B"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := New()
			var rendered string
			tagA := c.SelectServer("A")
			tagB := c.SelectServer("B")

			if tc.aFirst {
				applyLogs(c, &rendered, tagA, "logs of A")
				applyLogs(c, &rendered, tagB, "logs of B")
			} else {
				applyLogs(c, &rendered, tagB, "logs of B")
				applyLogs(c, &rendered, tagA, "logs of A")
			}
			assert.Equal(t, tc.expected, rendered)
		})
	}
}

func TestReselectingSameServerStillInvalidates(t *testing.T) {
	c := New()
	first := c.SelectServer("A")
	c.SelectServer("B")
	again := c.SelectServer("A")

	assert.NotEqual(t, first, again)
	assert.False(t, c.IsCurrent(first))
	assert.True(t, c.IsCurrent(again))
}

func TestRefreshKeepsServer(t *testing.T) {
	c := New()
	before := c.SelectServer("web-01")
	after := c.Refresh()

	assert.Equal(t, "web-01", after.Server)
	assert.False(t, c.IsCurrent(before))
	assert.True(t, c.IsCurrent(after))
}
