package input

import (
	"encoding/json"
	"fmt"

	"github.com/junsooki/webpane/internal/transport"
)

// Injector injects input events into a page.
type Injector interface {
	Inject(event *InputEvent) error
}

// InjectorFunc adapts a function to Injector.
type InjectorFunc func(event *InputEvent) error

func (f InjectorFunc) Inject(event *InputEvent) error { return f(event) }

// Forwarder injects events into a remote page by sending them as JSON over an
// input channel.
type Forwarder struct {
	sender transport.InputSender
}

// NewForwarder creates a Forwarder that writes to sender.
func NewForwarder(sender transport.InputSender) *Forwarder {
	return &Forwarder{sender: sender}
}

func (f *Forwarder) Inject(event *InputEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal input event: %w", err)
	}
	if err := f.sender.SendInput(data); err != nil {
		return fmt.Errorf("send input event: %w", err)
	}
	return nil
}
