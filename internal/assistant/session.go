// Package assistant implements the voice-order engine: utterance
// classification, item matching against the live catalog, quantity
// extraction, the per-session order ledger, and the conversation state
// machine that freezes the ledger at end-of-order.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"

	"khanabuddy/internal/catalog"
	"khanabuddy/internal/events"
	"khanabuddy/internal/monitoring"

	"github.com/google/uuid"
)

// Conversational replies. The not-present reply deliberately covers both
// unknown and out-of-stock items so callers never see inventory internals.
const (
	replyGreeting       = "Hi, What would you like to order?"
	replyNotPresent     = "not present"
	replyCleared        = "All items cleared from your order! What would you like to order now?"
	// The double space after "am" is part of the reply text.
	replyIdentity       = "I am  KhanaBuddy's Virtual helper! What would you like to order?"
	replyWhichItemPrice = "Which item price do you want to know?"
)

// ErrSessionClosed is returned for any utterance after end-of-order fired.
var ErrSessionClosed = errors.New("ordering session is closed")

// ErrSessionOpen is returned when a checkout is attempted before the caller
// has finished ordering.
var ErrSessionOpen = errors.New("ordering session is still open")

// Speaker identifies who produced a transcript entry.
type Speaker string

const (
	SpeakerSystem Speaker = "ai"
	SpeakerCaller Speaker = "user"
)

// Message is one transcript entry.
type Message struct {
	From Speaker `json:"from"`
	Text string  `json:"text"`
}

// State is the conversation state.
type State int

const (
	StateListening State = iota
	StateClosed
)

// Session is one caller's ordering conversation. It owns its own catalog
// snapshot and ledger; the snapshot refreshes itself on inventory change
// notifications from the dispatcher. Utterances are processed strictly one
// at a time.
type Session struct {
	ID string

	mu         sync.Mutex
	state      State
	cache      *catalog.Cache
	ledger     Ledger
	transcript []Message

	unsubscribe []func()
}

// NewSession starts a conversation: loads the catalog snapshot, subscribes
// it to change notifications, and greets the caller. A failed catalog load
// leaves the snapshot empty; matching then reports not-found until a later
// refresh succeeds.
func NewSession(ctx context.Context, store catalog.Store, bus *events.Dispatcher) *Session {
	s := &Session{
		ID:    uuid.NewString(),
		cache: catalog.NewCache(store),
	}
	if err := s.cache.Refresh(ctx); err != nil {
		log.Printf("session %s: catalog load failed: %v", s.ID, err)
	}
	s.transcript = append(s.transcript, Message{From: SpeakerSystem, Text: replyGreeting})

	refresh := func(events.Event) {
		go func() {
			if err := s.cache.Refresh(context.Background()); err != nil {
				log.Printf("session %s: catalog refresh failed: %v", s.ID, err)
			}
		}()
	}
	for _, kind := range []events.Kind{
		events.KindInventoryUpdated,
		events.KindPricesUpdated,
		events.KindQuantityUpdated,
		events.KindItemAdded,
		events.KindItemRemoved,
	} {
		s.unsubscribe = append(s.unsubscribe, bus.Subscribe(kind, refresh))
	}
	return s
}

// HandleUtterance processes one typed or transcribed caller utterance and
// returns the assistant's reply. Once the session is closed every further
// utterance is rejected with ErrSessionClosed and leaves the transcript and
// ledger untouched.
func (s *Session) HandleUtterance(ctx context.Context, text string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		return "", ErrSessionClosed
	}

	lower := strings.ToLower(strings.TrimSpace(text))
	intent := Classify(lower)
	monitoring.UtterancesTotal.WithLabelValues(intent.String()).Inc()

	s.transcript = append(s.transcript, Message{From: SpeakerCaller, Text: text})

	var reply string
	switch intent {
	case IntentClearOrder:
		s.ledger.Clear()
		reply = replyCleared
	case IntentIdentity:
		reply = replyIdentity
	case IntentEndOfOrder:
		s.state = StateClosed
		reply = fmt.Sprintf("Thank you for your order! Your bill amount is ₹%s. Now proceed to payment.",
			formatAmount(s.ledger.Total()))
	case IntentPriceQuery:
		reply = s.priceReply(lower)
	default:
		reply = s.mutate(lower)
	}

	s.transcript = append(s.transcript, Message{From: SpeakerSystem, Text: reply})
	return reply, nil
}

// mutate applies an add or remove utterance to the ledger. Unresolved and
// out-of-stock mentions both collapse to the generic not-present reply.
func (s *Session) mutate(lower string) string {
	isRemove := strings.Contains(lower, "remove") || strings.Contains(lower, "cancel")

	spoken, qty, ok := detectItem(lower)
	if !ok {
		return replyNotPresent
	}

	m := MatchItem(spoken, s.cache)
	if !m.Found || !m.Available {
		return replyNotPresent
	}

	if isRemove {
		outcome, removed := s.ledger.Remove(m.CanonicalName, qty)
		switch outcome {
		case RemoveMissing:
			return fmt.Sprintf("You don't have any %s in your order.", spoken)
		case RemoveAll:
			return fmt.Sprintf("%s removed", spoken)
		default:
			return fmt.Sprintf("%d %s removed", removed, spoken)
		}
	}

	s.ledger.Add(m.CanonicalName, m.Price, qty)
	if qty == 1 {
		return fmt.Sprintf("one %s added", spoken)
	}
	return fmt.Sprintf("%d %s added", qty, spoken)
}

// priceReply answers a price question for the first known item mentioned.
func (s *Session) priceReply(lower string) string {
	var asked string
	for _, item := range priceQueryItems {
		if strings.Contains(lower, item) {
			asked = item
			break
		}
	}
	if asked == "" {
		return replyWhichItemPrice
	}

	m := MatchItem(asked, s.cache)
	if !m.Found || !m.Available {
		return replyNotPresent
	}
	return fmt.Sprintf("The price of %s is ₹%s.", m.CanonicalName, formatAmount(m.Price))
}

// Transcript returns a copy of the conversation so far.
func (s *Session) Transcript() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// Lines returns a copy of the current ledger lines.
func (s *Session) Lines() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Lines()
}

// Total returns the ledger total at add-time prices.
func (s *Session) Total() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Total()
}

// Closed reports whether end-of-order has fired.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateClosed
}

// Checkout hands off the frozen ledger for order submission. It fails until
// the caller has ended the order.
func (s *Session) Checkout() ([]Line, float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateClosed {
		return nil, 0, ErrSessionOpen
	}
	return s.ledger.Lines(), s.ledger.Total(), nil
}

// Close tears down the session's change subscriptions.
func (s *Session) Close() {
	for _, unsub := range s.unsubscribe {
		unsub()
	}
	s.unsubscribe = nil
}

// formatAmount renders a rupee amount without trailing zeros, the way the
// conversational replies quote prices.
func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
