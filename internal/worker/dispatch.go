package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/derbytrack/packzone/internal/dispatcher"
	"github.com/derbytrack/packzone/pkg/core"
)

// Commands handled by the worker.
const (
	CommandFrame        = ":FRAME:"
	CommandStartSession = ":SESSION:START:"
)

// StartSession is the payload of CommandStartSession.
type StartSession struct {
	Name   string
	Method core.Method
	Start  time.Time
}

// RegisterHandlers registers the worker's handlers with the dispatcher.
//
// Frames are buffered and evaluated in arrival order on the dispatcher's
// goroutine for ":FRAME:". Callers end a session with EndSession after
// closing the dispatcher so no queued frame is lost.
func (m *Manager) RegisterHandlers(d *dispatcher.Dispatcher) {
	// Session start - sync (frames need the session row)
	d.Register(CommandStartSession, m.handleStartSession, dispatcher.Logged())

	// Frames - buffered, the producer waits when evaluation falls behind
	d.Register(CommandFrame, m.handleFrame, dispatcher.Buffered(m.deps.BufferSize), dispatcher.Blocking(), dispatcher.Logged())
}

func (m *Manager) handleStartSession(e dispatcher.Event) (any, error) {
	var req StartSession
	switch p := e.Payload.(type) {
	case StartSession:
		req = p
	case *StartSession:
		req = *p
	default:
		return nil, fmt.Errorf("invalid session payload %T", e.Payload)
	}
	if req.Start.IsZero() {
		req.Start = e.Timestamp
	}
	return m.StartSession(req.Name, req.Method, req.Start)
}

func (m *Manager) handleFrame(e dispatcher.Event) (any, error) {
	var frame core.Frame
	switch p := e.Payload.(type) {
	case core.Frame:
		frame = p
	case *core.Frame:
		frame = *p
	default:
		return nil, fmt.Errorf("invalid frame payload %T", e.Payload)
	}
	if frame.Time.IsZero() {
		frame.Time = e.Timestamp
	}

	fe, err := m.Process(context.Background(), frame)
	if err != nil {
		return nil, err
	}
	return fe, nil
}
