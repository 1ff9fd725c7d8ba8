package enhance

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/atotto/clipboard"
)

// DefaultAcknowledgment is how long a copy button shows its result before reverting.
const DefaultAcknowledgment = 2 * time.Second

// A CopyState is the visible state of a copy button.
type CopyState int

const (
	CopyIdle CopyState = iota
	CopyCopied
	CopyFailed
)

func (s CopyState) String() string {
	switch s {
	case CopyCopied:
		return "copied"
	case CopyFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Label returns the accessible label of a button in this state.
func (s CopyState) Label() string {
	switch s {
	case CopyCopied:
		return "Copied"
	case CopyFailed:
		return "Copy failed"
	default:
		return "Copy code"
	}
}

// A FailurePolicy decides how a copy button reacts to clipboard errors.
type FailurePolicy int

const (
	// FailSilent ignores clipboard errors: the button stays idle and Click returns nil.
	FailSilent FailurePolicy = iota
	// FailVisible shows clipboard errors: the button enters the failed state and Click returns
	// the error.
	FailVisible
)

// ParseFailurePolicy parses "silent" or "visible".
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "silent":
		return FailSilent, nil
	case "visible":
		return FailVisible, nil
	default:
		return FailSilent, fmt.Errorf("unknown clipboard failure policy %q", s)
	}
}

func (p FailurePolicy) String() string {
	if p == FailVisible {
		return "visible"
	}
	return "silent"
}

// A ClipboardWriter writes text to a clipboard.
type ClipboardWriter func(text string) error

// A CopyOption configures a CopyButton.
type CopyOption func(b *CopyButton)

// WithClipboard sets the clipboard writer. The default writes to the system clipboard.
func WithClipboard(write ClipboardWriter) CopyOption {
	return func(b *CopyButton) {
		b.write = write
	}
}

// WithFailurePolicy sets the reaction to clipboard errors. The default is FailSilent.
func WithFailurePolicy(policy FailurePolicy) CopyOption {
	return func(b *CopyButton) {
		b.policy = policy
	}
}

// WithAcknowledgment sets how long the button shows its result.
func WithAcknowledgment(d time.Duration) CopyOption {
	return func(b *CopyButton) {
		b.ack = d
	}
}

// WithStateHook registers a function that is called after every state change. The hook is not
// called with the button's lock held.
func WithStateHook(hook func(CopyState)) CopyOption {
	return func(b *CopyButton) {
		b.onChange = hook
	}
}

// A CopyButton copies code to the clipboard and acknowledges the copy for a short time. At most
// one revert timer is pending at any time.
type CopyButton struct {
	write    ClipboardWriter
	policy   FailurePolicy
	ack      time.Duration
	onChange func(CopyState)

	m          sync.Mutex
	state      CopyState
	timer      *time.Timer
	generation uint64
	closed     bool
}

// NewCopyButton creates an idle CopyButton.
func NewCopyButton(options ...CopyOption) *CopyButton {
	b := &CopyButton{write: clipboard.WriteAll, ack: DefaultAcknowledgment}
	for _, o := range options {
		o(b)
	}
	return b
}

// State returns the current state.
func (b *CopyButton) State() CopyState {
	b.m.Lock()
	defer b.m.Unlock()

	return b.state
}

// Acknowledgment returns how long the copied and failed states last.
func (b *CopyButton) Acknowledgment() time.Duration {
	return b.ack
}

// Click copies text. On success the button shows the copied state until the acknowledgment
// period ends; a click during that period restarts it. Clipboard errors follow the failure
// policy.
func (b *CopyButton) Click(text string) error {
	err := b.write(text)
	if err != nil && b.policy == FailSilent {
		return nil
	}

	next := CopyCopied
	if err != nil {
		next = CopyFailed
		err = fmt.Errorf("copying to clipboard: %w", err)
	}

	b.m.Lock()
	if b.closed {
		b.m.Unlock()
		return err
	}
	b.state = next
	b.schedule()
	b.m.Unlock()

	b.notify(next)
	return err
}

// schedule replaces the pending revert timer. Callers must hold b.m.
func (b *CopyButton) schedule() {
	if b.timer != nil {
		b.timer.Stop()
	}
	b.generation++
	generation := b.generation
	b.timer = time.AfterFunc(b.ack, func() {
		b.m.Lock()
		if b.closed || b.generation != generation {
			b.m.Unlock()
			return
		}
		b.timer = nil
		b.state = CopyIdle
		b.m.Unlock()

		b.notify(CopyIdle)
	})
}

func (b *CopyButton) notify(state CopyState) {
	if b.onChange != nil {
		b.onChange(state)
	}
}

// Close stops any pending timer. The button keeps its current state.
func (b *CopyButton) Close() {
	b.m.Lock()
	defer b.m.Unlock()

	b.closed = true
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}
