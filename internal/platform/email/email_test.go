package email

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"talenthub/internal/platform/config"
)

func TestNewReturnsNoopWhenDisabled(t *testing.T) {
	m := New(config.Config{EmailEnabled: false, SMTPHost: "smtp.example.com"})
	if _, ok := m.(noopMailer); !ok {
		t.Fatalf("expected noop mailer, got %T", m)
	}
	if err := m.Send(context.Background(), "a@example.com", "b@example.com", "s", "b"); err != nil {
		t.Fatalf("noop send: %v", err)
	}
	if _, ok := New(config.Config{EmailEnabled: true, SMTPHost: "smtp.example.com", SMTPPort: 587}).(*smtpMailer); !ok {
		t.Fatal("expected smtp mailer when enabled")
	}
}

func TestBuildMessage(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"plain", "Hello Ada", "text/plain"},
		{"html", "<p>Hello Ada</p>", "text/html"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			if _, err := buildMessage("hr@example.com", "ada@example.com", "Welcome", tc.body).WriteTo(&buf); err != nil {
				t.Fatalf("write: %v", err)
			}
			out := buf.String()
			if !strings.Contains(out, "Content-Type: "+tc.want) || !strings.Contains(out, "Subject: Welcome") {
				t.Fatalf("unexpected message:\n%s", out)
			}
		})
	}
}
