package mailer

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"
)

func TestSMTP_Send_BuildsMultipartMessage(t *testing.T) {
	t.Parallel()

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte

	m := NewSMTP(Config{Host: "smtp.example", Port: 587, Username: "u", Password: "p", From: "noreply@pclub", FromName: "PClub"})
	m.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		if a == nil {
			t.Error("expected auth when username is set")
		}
		return nil
	}

	err := m.Send(context.Background(), Message{To: "a@ahduni.edu.in", Subject: "Hi", Text: "plain", HTML: "<b>rich</b>"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotAddr != "smtp.example:587" || gotFrom != "noreply@pclub" || len(gotTo) != 1 || gotTo[0] != "a@ahduni.edu.in" {
		t.Errorf("unexpected envelope: %s %s %v", gotAddr, gotFrom, gotTo)
	}
	body := string(gotMsg)
	for _, want := range []string{"Subject: Hi", "multipart/alternative", "text/plain", "plain", "text/html", "<b>rich</b>", "From: PClub <noreply@pclub>"} {
		if !strings.Contains(body, want) {
			t.Errorf("message missing %q:\n%s", want, body)
		}
	}
}

func TestSMTP_Send_NoAuthWithoutUsername(t *testing.T) {
	t.Parallel()

	m := NewSMTP(Config{Host: "localhost", Port: 25, From: "x@y"})
	m.send = func(_ string, a smtp.Auth, _ string, _ []string, _ []byte) error {
		if a != nil {
			t.Error("expected nil auth")
		}
		return nil
	}
	if err := m.Send(context.Background(), Message{To: "a@b", Text: "t"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSMTP_Send_WrapsError(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection refused")
	m := NewSMTP(Config{Host: "localhost", Port: 25})
	m.send = func(string, smtp.Auth, string, []string, []byte) error { return boom }

	err := m.Send(context.Background(), Message{To: "a@b"})
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped error, got %v", err)
	}
}

func TestSMTP_Send_CancelledContext(t *testing.T) {
	t.Parallel()

	m := NewSMTP(Config{Host: "localhost", Port: 25})
	m.send = func(string, smtp.Auth, string, []string, []byte) error {
		t.Error("send should not be called")
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := m.Send(ctx, Message{To: "a@b"}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestOTPMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		purpose Purpose
		subject string
	}{
		{PurposeSignup, "PClub verification"},
		{PurposePasswordReset, "PClub password reset"},
		{PurposeEventRegistration, "PClub event registration"},
	}
	for _, tt := range tests {
		msg := OTPMessage("a@ahduni.edu.in", tt.purpose, "123456", 5*time.Minute, "Hack<Night>")
		if msg.Subject != tt.subject {
			t.Errorf("%s: expected subject %q, got %q", tt.purpose, tt.subject, msg.Subject)
		}
		if !strings.Contains(msg.Text, "123456") || !strings.Contains(msg.HTML, "123456") {
			t.Errorf("%s: code missing from body", tt.purpose)
		}
		if !strings.Contains(msg.Text, "minutes") {
			t.Errorf("%s: expected humanized expiry in %q", tt.purpose, msg.Text)
		}
		if strings.Contains(msg.HTML, "<Night>") {
			t.Errorf("%s: event title not escaped in HTML", tt.purpose)
		}
	}
}
