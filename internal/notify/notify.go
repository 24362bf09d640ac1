// Package notify delivers one message to a notification person over their
// preferred channel.
package notify

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/erazemk/zaloga/internal/metrics"
	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/store"
)

// TestMessage is sent when no message is given.
const TestMessage = "Zaloga test notification: if you can read this, alerts reach you."

// DefaultTimeout bounds a single Send.
const DefaultTimeout = 30 * time.Second

// Result is the user-visible outcome of a Send.
type Result struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// Messenger sends text messages over SMS or WhatsApp.
type Messenger interface {
	SendSMS(ctx context.Context, to, body string) error
	SendWhatsApp(ctx context.Context, to, body string) error
}

// Mailer sends email.
type Mailer interface {
	SendMail(ctx context.Context, to, subject, body string) error
}

// Notifier resolves a person's channel and dispatches exactly one message.
type Notifier struct {
	DB        *sql.DB
	Messenger Messenger
	Mailer    Mailer
	Timeout   time.Duration
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

// Send looks up personID and delivers message. Failures are reported in the
// result; provider errors are passed through verbatim.
func (n *Notifier) Send(ctx context.Context, personID int64, message string) Result {
	if message == "" {
		message = TestMessage
	}

	timeout := n.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	person, err := store.GetPerson(ctx, n.DB, personID)
	if err != nil {
		return n.fail("", personID, err)
	}
	if person == nil {
		return n.fail("", personID, fmt.Errorf("person %d not found", personID))
	}
	if !person.Active {
		return n.fail(person.PreferredChannel, personID, errors.New("person is inactive"))
	}

	if err := n.dispatch(ctx, person, message); err != nil {
		return n.fail(person.PreferredChannel, personID, err)
	}

	n.Metrics.Notification(string(person.PreferredChannel), true)
	n.logger().Info("notification sent", "person_id", personID, "channel", person.PreferredChannel)
	return Result{OK: true}
}

func (n *Notifier) dispatch(ctx context.Context, p *model.NotificationPerson, message string) error {
	switch p.PreferredChannel {
	case model.ChannelSMS, model.ChannelWhatsApp:
		if n.Messenger == nil {
			return errors.New("messaging provider is not configured")
		}
		if p.Phone == "" {
			return fmt.Errorf("%s selected but no phone number on file", p.PreferredChannel)
		}
		phone, err := NormalizePhone(p.Phone)
		if err != nil {
			return err
		}
		if p.PreferredChannel == model.ChannelWhatsApp {
			return n.Messenger.SendWhatsApp(ctx, phone, message)
		}
		return n.Messenger.SendSMS(ctx, phone, message)

	case model.ChannelEmail:
		if n.Mailer == nil {
			return errors.New("email is not configured")
		}
		if p.Email == "" {
			return errors.New("EMAIL selected but no email address on file")
		}
		if err := model.Validator().Var(p.Email, "email"); err != nil {
			return fmt.Errorf("invalid email address %q", p.Email)
		}
		return n.Mailer.SendMail(ctx, p.Email, "Zaloga notification", message)

	default:
		return fmt.Errorf("unknown channel %q", p.PreferredChannel)
	}
}

func (n *Notifier) fail(channel model.Channel, personID int64, err error) Result {
	n.Metrics.Notification(string(channel), false)
	n.logger().Warn("notification failed", "person_id", personID, "channel", channel, "error", err)
	return Result{Error: err.Error()}
}

func (n *Notifier) logger() *slog.Logger {
	if n.Logger == nil {
		return slog.Default()
	}
	return n.Logger
}
