package sync

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"github.com/courtside/tracker/internal/events"
)

// FeedMessage is one message pushed by the remote store's session feed:
// delivery acknowledgements and session lifecycle changes originating
// server-side.
type FeedMessage struct {
	Type       string    `json:"type"` // "event:ack", "session:deactivated"
	SessionKey string    `json:"sessionKey"`
	EventID    string    `json:"eventId,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Feed subscribes to the remote store's websocket session feed and forwards
// messages onto the dispatcher. The feed is informational; losing it never
// affects recording or the outbox.
type Feed struct {
	url        string
	dispatcher *events.Dispatcher

	cancel context.CancelFunc
	done   chan struct{}
}

// NewFeed creates a feed subscriber for the given websocket URL.
func NewFeed(url string, dispatcher *events.Dispatcher) *Feed {
	return &Feed{url: url, dispatcher: dispatcher}
}

// Start connects and begins forwarding messages, reconnecting with a fixed
// delay on any failure until Stop is called.
func (f *Feed) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	f.cancel = cancel
	f.done = make(chan struct{})
	go f.run(ctx)
}

// Stop disconnects the feed.
func (f *Feed) Stop() {
	if f.cancel == nil {
		return
	}
	f.cancel()
	<-f.done
}

func (f *Feed) run(ctx context.Context) {
	defer close(f.done)
	for {
		if err := f.consume(ctx); err != nil && ctx.Err() == nil {
			log.Printf("[sync] feed disconnected: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(5 * time.Second):
		}
	}
}

func (f *Feed) consume(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var msg FeedMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("[sync] feed message malformed: %v", err)
			continue
		}
		switch msg.Type {
		case "session:deactivated":
			f.dispatcher.Dispatch(events.Event{
				Type:    events.TypeSessionEnded,
				Payload: events.SessionPayload{SessionKey: msg.SessionKey},
			})
		default:
			// Acks and unknown message types are informational only.
		}
	}
}
