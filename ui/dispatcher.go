package ui

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"msgsync/logging"
	"msgsync/models"
	"msgsync/network"
	"msgsync/state"
)

// Remote is the subset of the remote store the dispatcher needs.
type Remote interface {
	List(ctx context.Context) ([]models.Message, error)
	Create(ctx context.Context, text string) (models.Message, error)
	Remove(ctx context.Context, id models.ID) error
}

// Action is one dispatcher operation, suitable for Dispatcher.Go.
type Action func(ctx context.Context) error

// Dispatcher is the only entry point that changes client state.
type Dispatcher struct {
	store    *state.Store
	remote   Remote
	reporter Reporter
	log      logrus.FieldLogger
	actions  *prometheus.CounterVec

	inflight sync.WaitGroup
}

// DispatcherOption customizes a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithDispatcherLogger sets the logger used for action tracing.
func WithDispatcherLogger(log logrus.FieldLogger) DispatcherOption {
	return func(d *Dispatcher) {
		if log != nil {
			d.log = log
		}
	}
}

// WithMetrics registers per-action outcome counters on reg.
func WithMetrics(reg prometheus.Registerer) DispatcherOption {
	return func(d *Dispatcher) {
		if reg == nil {
			return
		}
		counter := prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "msgsync",
				Subsystem: "client",
				Name:      "actions_total",
				Help:      "Client actions that reached the remote store, by outcome.",
			},
			[]string{"action", "outcome"},
		)
		if err := reg.Register(counter); err != nil {
			if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
				if existing, ok := already.ExistingCollector.(*prometheus.CounterVec); ok {
					d.actions = existing
				}
			}
			return
		}
		d.actions = counter
	}
}

// NewDispatcher wires a store to a remote and a reporter.
func NewDispatcher(store *state.Store, remote Remote, reporter Reporter, opts ...DispatcherOption) *Dispatcher {
	if reporter == nil {
		reporter = ReporterFunc(func(models.APIError) {})
	}
	d := &Dispatcher{
		store:    store,
		remote:   remote,
		reporter: reporter,
		log:      logging.Discard(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// State returns a snapshot of the current client state.
func (d *Dispatcher) State() state.ClientState {
	return d.store.Snapshot()
}

// SetInput replaces the pending input text.
func (d *Dispatcher) SetInput(text string) {
	d.store.Apply(state.WithInput(text))
}

// SetMessages replaces the message list wholesale.
func (d *Dispatcher) SetMessages(messages []models.Message) {
	d.store.Apply(state.WithMessages(state.Normalize(messages)))
}

// ToggleDetails flips the details flag of the message with the given ID.
// Unknown IDs leave the state untouched.
func (d *Dispatcher) ToggleDetails(id models.ID) {
	d.store.Update(func(current state.ClientState) state.Patch {
		next := make([]models.Message, len(current.Messages))
		found := false
		for i, msg := range current.Messages {
			next[i] = msg
			if msg.ID.Equal(id) {
				flipped := !msg.ShowDetails()
				next[i].DetailsVisible = &flipped
				found = true
			}
		}
		if !found {
			return state.Patch{}
		}
		return state.WithMessages(next)
	})
}

// ListMessages replaces local messages with the store's list and clears the input.
func (d *Dispatcher) ListMessages(ctx context.Context) error {
	records, err := d.remote.List(ctx)
	if err != nil {
		return d.fail("list", err)
	}

	d.store.Apply(state.WithInputAndMessages("", state.Normalize(records)))
	d.record("list", network.OutcomeOK)
	d.log.WithField("count", len(records)).Debug("messages listed")
	return nil
}

// CreateMessage submits the pending input and appends the stored message.
//
// The append targets the message list as it was when the call started. A
// returned record whose ID is already listed replaces that entry instead.
// On failure the pending input is kept.
func (d *Dispatcher) CreateMessage(ctx context.Context) error {
	snapshot := d.store.Snapshot()

	created, err := d.remote.Create(ctx, snapshot.PendingInput)
	if err != nil {
		return d.fail("create", err)
	}

	d.store.Apply(state.WithInputAndMessages("", upsert(snapshot.Messages, state.NormalizeOne(created)[0])))
	d.record("create", network.OutcomeOK)
	d.log.WithField("id", created.ID.String()).Debug("message created")
	return nil
}

// DeleteMessage removes a message remotely, then drops it from the local list.
func (d *Dispatcher) DeleteMessage(ctx context.Context, id models.ID) error {
	if err := d.remote.Remove(ctx, id); err != nil {
		return d.fail("delete", err)
	}

	d.store.Update(func(current state.ClientState) state.Patch {
		next := make([]models.Message, 0, len(current.Messages))
		for _, msg := range current.Messages {
			if msg.ID.Equal(id) {
				continue
			}
			next = append(next, msg)
		}
		return state.WithMessages(next)
	})
	d.record("delete", network.OutcomeOK)
	d.log.WithField("id", id.String()).Debug("message deleted")
	return nil
}

// Go runs action on its own goroutine so the caller is never blocked by
// the network. Errors have already been reported when the action returns.
func (d *Dispatcher) Go(ctx context.Context, action Action) {
	d.inflight.Add(1)
	go func() {
		defer d.inflight.Done()
		_ = action(ctx)
	}()
}

// Wait blocks until every action started with Go has landed.
func (d *Dispatcher) Wait() {
	d.inflight.Wait()
}

// upsert replaces the entry with msg's ID, or appends msg when there is none.
func upsert(messages []models.Message, msg models.Message) []models.Message {
	for i := range messages {
		if messages[i].ID.Equal(msg.ID) {
			messages[i] = msg
			return messages
		}
	}
	return append(messages, msg)
}

func (d *Dispatcher) fail(action string, err error) error {
	outcome := network.Classify(err)
	d.record(action, outcome)
	d.log.WithError(err).WithFields(logrus.Fields{
		"action":  action,
		"outcome": string(outcome),
	}).Debug("action failed")
	d.reporter.Report(network.Payload(err))
	return err
}

func (d *Dispatcher) record(action string, outcome network.Outcome) {
	if d.actions == nil {
		return
	}
	d.actions.WithLabelValues(action, string(outcome)).Inc()
}
