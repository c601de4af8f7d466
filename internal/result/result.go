// Package result holds the last decoded value and reports each distinct new
// value once to the foreground poller.
package result

import "sync"

// Session identifies a reset epoch of a Channel. Values published against an
// older session are discarded.
type Session uint64

// Channel stores the last published value and the last value handed out by
// Poll. Publish is called from the decode goroutine, Poll from the owner's tick.
type Channel struct {
	mu       sync.Mutex
	last     string
	notified string
	session  Session
}

// New returns an empty channel.
func New() *Channel {
	return &Channel{}
}

// Publish overwrites the last published value.
func (c *Channel) Publish(text string) {
	c.mu.Lock()
	c.last = text
	c.mu.Unlock()
}

// PublishFor overwrites the last published value only if no Reset happened
// since s was obtained. It reports whether the value was stored.
func (c *Channel) PublishFor(s Session, text string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s != c.session {
		return false
	}
	c.last = text
	return true
}

// Session returns the current reset epoch.
func (c *Channel) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Poll returns the last published value if it is non-empty and differs from
// the value returned by the previous successful Poll.
func (c *Channel) Poll() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == "" || c.last == c.notified {
		return "", false
	}
	c.notified = c.last
	return c.last, true
}

// Last returns the last published value, or "" if none.
func (c *Channel) Last() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Reset clears both values and starts a new session.
func (c *Channel) Reset() {
	c.mu.Lock()
	c.last = ""
	c.notified = ""
	c.session++
	c.mu.Unlock()
}
