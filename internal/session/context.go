// Package session tracks the recording session frames are evaluated for.
package session

import (
	"sync"
	"time"

	"github.com/derbytrack/packzone/pkg/core"
)

// Context holds the active session. It is safe for concurrent use.
type Context struct {
	mu      sync.RWMutex
	session *core.Session
	frames  uint
}

// NewContext creates a Context with no active session.
func NewContext() *Context {
	return &Context{}
}

// Start begins a new session and makes it the active one.
func (c *Context) Start(name string, method core.Method, start time.Time) *core.Session {
	s := core.NewSession(name, method, start)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = s
	c.frames = 0
	return s
}

// Get returns the active session, or nil.
func (c *Context) Get() *core.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// ID returns the active session's ID as a string, or "" without a session.
func (c *Context) ID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return ""
	}
	return c.session.ID.String()
}

// CountFrame records that one more frame was evaluated and returns the total.
func (c *Context) CountFrame() uint {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames++
	return c.frames
}

// Frames returns how many frames were counted in the active session.
func (c *Context) Frames() uint {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.frames
}

// End clears the active session and returns it.
func (c *Context) End() *core.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.session
	c.session = nil
	return s
}
