package session

import (
	"sync"

	"github.com/bluenviron/gomavlib/v3"
	"github.com/bluenviron/gomavlib/v3/pkg/message"
)

// fakeTransport is a scripted stand-in for *mavlinkio.Node. It records
// every outbound message and exposes an Events channel tests can feed
// directly, letting a test drive the session actor without a real
// MAVLink endpoint.
type fakeTransport struct {
	events chan gomavlib.Event

	mu   sync.Mutex
	sent []message.Message
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{events: make(chan gomavlib.Event, 64)}
}

func (f *fakeTransport) Events() chan gomavlib.Event { return f.events }

func (f *fakeTransport) WriteMessageAll(msg message.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeTransport) Close() { close(f.events) }

func (f *fakeTransport) Sent() []message.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]message.Message, len(f.sent))
	copy(out, f.sent)
	return out
}

func (f *fakeTransport) LastSent() message.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return nil
	}
	return f.sent[len(f.sent)-1]
}
