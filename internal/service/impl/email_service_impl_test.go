package impl

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type captureSender struct {
	to, subject, body string
	err               error
}

func (c *captureSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	c.to, c.subject, c.body = to, subject, htmlBody
	return c.err
}

func TestEmailServiceLinks(t *testing.T) {
	sender := &captureSender{}
	svc := NewEmailServiceImpl(sender, "https://app.taskhub.test/")
	ctx := context.Background()

	if err := svc.SendVerification(ctx, "alice@example.com", "abc.def.ghi"); err != nil {
		t.Fatalf("send verification: %v", err)
	}
	if sender.to != "alice@example.com" || sender.subject != "Verify your email" {
		t.Fatalf("unexpected envelope: %q %q", sender.to, sender.subject)
	}
	if !strings.Contains(sender.body, `href="https://app.taskhub.test/verify-email?token=abc.def.ghi"`) {
		t.Fatalf("verification link missing: %s", sender.body)
	}

	if err := svc.SendPasswordReset(ctx, "alice@example.com", "tok"); err != nil {
		t.Fatalf("send reset: %v", err)
	}
	if !strings.Contains(sender.body, `href="https://app.taskhub.test/reset-password?token=tok"`) {
		t.Fatalf("reset link missing: %s", sender.body)
	}
}

func TestEmailServicePropagatesSenderError(t *testing.T) {
	boom := errors.New("boom")
	svc := NewEmailServiceImpl(&captureSender{err: boom}, "http://localhost:5173")
	if err := svc.SendVerification(context.Background(), "a@example.com", "t"); !errors.Is(err, boom) {
		t.Fatalf("expected sender error, got %v", err)
	}
}
