package state

import (
	"sync"

	"msgsync/models"
)

// DefaultPlaceholder is the input hint shown when none is configured.
const DefaultPlaceholder = "Add new message"

// ClientState is the root UI state owned by a Store.
type ClientState struct {
	PendingInput string
	Placeholder  string
	Messages     []models.Message
}

func (s ClientState) clone() ClientState {
	out := s
	out.Messages = cloneMessages(s.Messages)
	return out
}

// Patch lists the fields an action replaces. Nil fields are left alone.
type Patch struct {
	PendingInput *string
	Messages     *[]models.Message
}

// WithInput returns a patch that replaces the pending input.
func WithInput(text string) Patch {
	return Patch{PendingInput: &text}
}

// WithMessages returns a patch that replaces the message list.
func WithMessages(messages []models.Message) Patch {
	return Patch{Messages: &messages}
}

// WithInputAndMessages replaces both fields in a single step.
func WithInputAndMessages(text string, messages []models.Message) Patch {
	return Patch{PendingInput: &text, Messages: &messages}
}

// IsEmpty reports whether the patch replaces nothing.
func (p Patch) IsEmpty() bool {
	return p.PendingInput == nil && p.Messages == nil
}

// Store holds the single ClientState of a client session.
//
// Readers get deep copies and writers submit whole-field replacements, so
// no caller ever holds a reference into the stored state.
type Store struct {
	mu    sync.Mutex
	state ClientState

	subsMu sync.Mutex
	subs   map[int]chan ClientState
	nextID int
}

// NewStore creates a store with empty input and no messages.
func NewStore(placeholder string) *Store {
	if placeholder == "" {
		placeholder = DefaultPlaceholder
	}
	return &Store{
		state: ClientState{
			Placeholder: placeholder,
			Messages:    []models.Message{},
		},
		subs: make(map[int]chan ClientState),
	}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() ClientState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Apply replaces the fields set in p in one step and notifies subscribers.
func (s *Store) Apply(p Patch) {
	s.Update(func(ClientState) Patch { return p })
}

// Update runs fn against a snapshot of the current state and applies the
// returned patch before any other write can land. An empty patch is a no-op
// and does not notify subscribers. fn must not call back into the store.
func (s *Store) Update(fn func(ClientState) Patch) {
	s.mu.Lock()
	p := fn(s.state.clone())
	if p.IsEmpty() {
		s.mu.Unlock()
		return
	}

	next := s.state
	if p.PendingInput != nil {
		next.PendingInput = *p.PendingInput
	}
	if p.Messages != nil {
		next.Messages = cloneMessages(*p.Messages)
	}
	s.state = next
	s.publish(next)
	s.mu.Unlock()
}

// Subscribe returns a channel that receives a snapshot after every Apply.
//
// Delivery never blocks writers: if the channel buffer is full the
// snapshot is dropped for that subscriber. The returned function
// unsubscribes and closes the channel.
func (s *Store) Subscribe(buffer int) (<-chan ClientState, func()) {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan ClientState, buffer)

	s.subsMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.subsMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subsMu.Lock()
			delete(s.subs, id)
			s.subsMu.Unlock()
			close(ch)
		})
	}
}

func (s *Store) publish(snapshot ClientState) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	for _, ch := range s.subs {
		select {
		case ch <- snapshot.clone():
		default:
		}
	}
}

func cloneMessages(in []models.Message) []models.Message {
	out := make([]models.Message, len(in))
	for i, msg := range in {
		out[i] = msg.Clone()
	}
	return out
}
