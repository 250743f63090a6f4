package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"msgsync/models"
	"msgsync/state"
)

const terminalHelp = `commands:
  list             reload messages from the server
  add <text>       submit a new message
  input <text>     set the draft without sending
  send             submit the current draft
  del <id>         delete a message
  details <id>     show or hide message details
  help             show this help
  quit             exit
`

// Terminal is a line-oriented front end over a Dispatcher.
//
// It renders the client state after every change and turns typed commands
// into dispatcher actions.
type Terminal struct {
	dispatcher *Dispatcher
	store      *state.Store
	in         io.Reader
	out        io.Writer

	outMu sync.Mutex
}

// NewTerminal returns a terminal bound to one dispatcher/store pair.
func NewTerminal(dispatcher *Dispatcher, store *state.Store, in io.Reader, out io.Writer) *Terminal {
	return &Terminal{
		dispatcher: dispatcher,
		store:      store,
		in:         in,
		out:        out,
	}
}

// Run loads the initial list and processes commands until quit, EOF or ctx ends.
func (t *Terminal) Run(ctx context.Context) error {
	updates, unsubscribe := t.store.Subscribe(16)
	renderDone := make(chan struct{})
	go func() {
		defer close(renderDone)
		for snapshot := range updates {
			t.render(snapshot)
		}
	}()
	defer func() {
		t.dispatcher.Wait()
		unsubscribe()
		<-renderDone
	}()

	t.dispatcher.Go(ctx, t.dispatcher.ListMessages)

	lines := make(chan string)
	scanErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)
	go func() {
		scanner := bufio.NewScanner(t.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			case <-done:
				return
			}
		}
		scanErr <- scanner.Err()
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return <-scanErr
			}
			if quit := t.handle(ctx, line); quit {
				return nil
			}
		}
	}
}

func (t *Terminal) handle(ctx context.Context, line string) bool {
	command, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(command) {
	case "":
	case "list", "ls":
		t.dispatcher.Go(ctx, t.dispatcher.ListMessages)
	case "add":
		t.dispatcher.SetInput(arg)
		t.dispatcher.Go(ctx, t.dispatcher.CreateMessage)
	case "input":
		t.dispatcher.SetInput(arg)
	case "send":
		t.dispatcher.Go(ctx, t.dispatcher.CreateMessage)
	case "del", "delete", "rm":
		if arg == "" {
			t.printf("usage: del <id>\n")
			return false
		}
		id := models.ParseID(arg)
		t.dispatcher.Go(ctx, func(ctx context.Context) error {
			return t.dispatcher.DeleteMessage(ctx, id)
		})
	case "details", "d":
		if arg == "" {
			t.printf("usage: details <id>\n")
			return false
		}
		t.dispatcher.ToggleDetails(models.ParseID(arg))
	case "help", "?":
		t.printf("%s", terminalHelp)
	case "quit", "exit", "q":
		return true
	default:
		t.printf("unknown command %q (try help)\n", command)
	}
	return false
}

func (t *Terminal) render(snapshot state.ClientState) {
	var b strings.Builder
	b.WriteString("Messages\n")
	if len(snapshot.Messages) == 0 {
		b.WriteString("  (none)\n")
	}
	for _, msg := range snapshot.Messages {
		fmt.Fprintf(&b, "  [%s] %s\n", msg.ID, msg.Text)
		if msg.ShowDetails() {
			fmt.Fprintf(&b, "      Palindrome: %t\n", msg.IsPalindrome)
			fmt.Fprintf(&b, "      Created: %s\n", formatCreated(msg))
		}
	}
	if snapshot.PendingInput != "" {
		fmt.Fprintf(&b, "> %s\n", snapshot.PendingInput)
	} else {
		fmt.Fprintf(&b, "> (%s)\n", snapshot.Placeholder)
	}
	t.printf("%s", b.String())
}

func (t *Terminal) printf(format string, args ...any) {
	t.outMu.Lock()
	defer t.outMu.Unlock()
	_, _ = fmt.Fprintf(t.out, format, args...)
}

func formatCreated(msg models.Message) string {
	created, err := msg.CreatedTime()
	if err != nil {
		return msg.CreatedAt
	}
	return created.Local().Format(time.RFC1123)
}
