package email

import (
	"context"
	"fmt"
	"strings"
)

// CompositeSender fans one Send out to several Senders (e.g. SMTP plus a
// file log). Errors from individual senders are collected, not short-circuited.
type CompositeSender struct {
	senders []Sender
}

// NewCompositeSender creates a CompositeSender. More senders can be attached
// with AddSender before use.
func NewCompositeSender(senders ...Sender) *CompositeSender {
	return &CompositeSender{senders: senders}
}

// AddSender attaches another sender.
func (cs *CompositeSender) AddSender(sender Sender) {
	if sender != nil {
		cs.senders = append(cs.senders, sender)
	}
}

func (cs *CompositeSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	if len(cs.senders) == 0 {
		return fmt.Errorf("no senders configured")
	}

	var errs []string
	for _, sender := range cs.senders {
		if err := sender.Send(ctx, to, subject, rawMessage); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("composite send failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
