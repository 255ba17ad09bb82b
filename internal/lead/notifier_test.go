package lead

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/evcraddock/biens/internal/email"
)

type fakeNotifier struct {
	name  string
	err   error
	calls int
}

func (f *fakeNotifier) Name() string { return f.name }

func (f *fakeNotifier) Notify(context.Context, *Lead) error {
	f.calls++
	return f.err
}

func testLead(t *testing.T) *Lead {
	t.Helper()
	l, err := Parse(KindContact, []byte(`{"name":"a","email":"a@example.com","contenu":"hello"}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return l
}

func TestRelayPartialFailure(t *testing.T) {
	failing := &fakeNotifier{name: "mail", err: errors.New("smtp down")}
	ok := &fakeNotifier{name: "amqp"}

	if err := NewRelay(failing, ok).Dispatch(context.Background(), testLead(t)); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if failing.calls != 1 || ok.calls != 1 {
		t.Errorf("calls = %d, %d; want every notifier called once", failing.calls, ok.calls)
	}
}

func TestRelayAllFail(t *testing.T) {
	relay := NewRelay(
		&fakeNotifier{name: "mail", err: errors.New("smtp down")},
		&fakeNotifier{name: "amqp", err: errors.New("broker down")},
	)

	if err := relay.Dispatch(context.Background(), testLead(t)); !errors.Is(err, ErrUndelivered) {
		t.Fatalf("err = %v, want ErrUndelivered", err)
	}
}

func TestRelayWithoutNotifiers(t *testing.T) {
	if err := NewRelay().Dispatch(context.Background(), testLead(t)); !errors.Is(err, ErrUndelivered) {
		t.Fatalf("err = %v, want ErrUndelivered", err)
	}
}

func TestMailNotifierSends(t *testing.T) {
	m := NewMailNotifier(email.SMTPConfig{Host: "smtp.example.com", Port: "587", From: "site@example.com"},
		[]string{"agence@example.com"}, false)

	var sent email.Message
	m.send = func(_ email.SMTPConfig, msg email.Message) error {
		sent = msg
		return nil
	}

	l := testLead(t)
	if err := m.Notify(context.Background(), l); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if sent.ReplyTo != "a@example.com" {
		t.Errorf("reply-to = %q", sent.ReplyTo)
	}
	if sent.Subject != l.Subject || sent.Body != l.Body {
		t.Error("message does not carry the lead subject and body")
	}
	if len(sent.To) != 1 || sent.To[0] != "agence@example.com" {
		t.Errorf("to = %v", sent.To)
	}
}

func TestMailNotifierDevMode(t *testing.T) {
	m := NewMailNotifier(email.SMTPConfig{}, []string{"agence@example.com"}, true)
	m.send = func(email.SMTPConfig, email.Message) error {
		t.Fatal("dev mode must not send")
		return nil
	}

	if err := m.Notify(context.Background(), testLead(t)); err != nil {
		t.Fatalf("notify: %v", err)
	}
}

func TestMailNotifierWithoutRecipients(t *testing.T) {
	m := NewMailNotifier(email.SMTPConfig{Host: "h", From: "f"}, nil, false)
	if err := m.Notify(context.Background(), testLead(t)); err == nil {
		t.Error("expected error without agency address")
	}
}

type fakeChannel struct {
	exchange, key string
	msg           amqp.Publishing
	closed        bool
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	f.exchange, f.key, f.msg = exchange, key, msg
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestAMQPNotifierPublishes(t *testing.T) {
	ch := &fakeChannel{}
	a := &AMQPNotifier{exchange: "biens.leads", ch: ch}

	l, err := Parse(KindSelling, []byte(`{"name":"a","email":"a@example.com","localisation":"Nice","typeBien":"Villa"}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := a.Notify(context.Background(), l); err != nil {
		t.Fatalf("notify: %v", err)
	}

	if ch.exchange != "biens.leads" {
		t.Errorf("exchange = %q", ch.exchange)
	}
	if ch.key != "lead.selling" {
		t.Errorf("routing key = %q, want lead.selling", ch.key)
	}
	if ch.msg.ContentType != "application/json" || ch.msg.DeliveryMode != amqp.Persistent {
		t.Errorf("unexpected publishing properties %+v", ch.msg)
	}

	var event struct {
		Kind    Kind           `json:"kind"`
		Payload map[string]any `json:"payload"`
	}
	if err := json.Unmarshal(ch.msg.Body, &event); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if event.Kind != KindSelling || event.Payload["localisation"] != "Nice" {
		t.Errorf("event = %+v", event)
	}

	if err := a.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !ch.closed {
		t.Error("expected channel closed")
	}
}
