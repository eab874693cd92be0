// Package notify delivers member notifications. Sends are best-effort and
// fire-and-forget relative to the state change that triggered them: a failed
// send is logged and counted, never surfaced as a booking failure.
package notify

import (
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"
)

// Contact is the minimal addressing info for one member.
type Contact struct {
	Email    string
	FullName string
}

// Sender delivers one message. Returns false when the message was not sent
// (disabled transport, missing address, transport failure).
type Sender interface {
	Send(to Contact, subject, body string) bool
}

// SMTPSender sends plain-text mail through a local relay (no auth).
type SMTPSender struct {
	Host   string
	Port   int
	From   string
	Logger *zap.Logger
}

// NewSMTPSender constructs a sender; logger is required so failures are never
// silent.
func NewSMTPSender(host string, port int, from string, logger *zap.Logger) *SMTPSender {
	if logger == nil {
		panic("smtp sender requires logger")
	}
	return &SMTPSender{Host: host, Port: port, From: from, Logger: logger}
}

func (s *SMTPSender) Send(to Contact, subject, body string) bool {
	if to.Email == "" {
		return false
	}

	msg := strings.Join([]string{
		"From: " + s.From,
		"To: " + to.Email,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		body,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", s.Host, s.Port)
	if err := smtp.SendMail(addr, nil, s.From, []string{to.Email}, []byte(msg)); err != nil {
		s.Logger.Warn("notification send failed",
			zap.String("to", to.Email),
			zap.String("subject", subject),
			zap.Error(err),
		)
		return false
	}
	return true
}

// LogSender records would-be sends at info level. Used when email is disabled
// and in tests.
type LogSender struct {
	Logger *zap.Logger
}

func (s *LogSender) Send(to Contact, subject, body string) bool {
	if to.Email == "" {
		return false
	}
	s.Logger.Info("notification (email disabled)",
		zap.String("to", to.Email),
		zap.String("subject", subject),
	)
	return true
}
