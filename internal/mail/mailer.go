// Package mail delivers best-effort notification emails from a background
// worker. Enqueueing never blocks and delivery failures are logged, not
// returned: a failed email must never fail or roll back the operation that
// triggered it.
package mail

import (
	"fmt"
	"net/smtp"
	"sync"

	"github.com/rs/zerolog"

	"github.com/calebdee/dndwiki/internal/config"
)

// Message is a single outbound email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Notifier is the side-effect contract services depend on.
type Notifier interface {
	Notify(msg Message)
}

// Discard is a Notifier that drops every message. Used when mail is not
// configured and in tests.
type Discard struct{}

func (Discard) Notify(Message) {}

// Mailer queues messages and sends them over SMTP from a single worker
// goroutine.
type Mailer struct {
	cfg   config.MailConfig
	log   zerolog.Logger
	queue chan Message
	wg    sync.WaitGroup
}

func NewMailer(cfg config.MailConfig, log zerolog.Logger) *Mailer {
	return &Mailer{
		cfg:   cfg,
		log:   log,
		queue: make(chan Message, 64),
	}
}

// Start launches the delivery worker.
func (m *Mailer) Start() {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		for msg := range m.queue {
			if err := m.send(msg); err != nil {
				m.log.Error().Err(err).Str("to", msg.To).Msg("mail delivery failed")
				continue
			}
			m.log.Info().Str("to", msg.To).Str("subject", msg.Subject).Msg("mail sent")
		}
	}()
}

// Close stops accepting messages and waits for the worker to drain the queue.
func (m *Mailer) Close() {
	close(m.queue)
	m.wg.Wait()
}

// Notify enqueues a message without blocking. When the queue is full the
// message is dropped with a log line; callers never wait on delivery.
func (m *Mailer) Notify(msg Message) {
	select {
	case m.queue <- msg:
	default:
		m.log.Warn().Str("to", msg.To).Msg("mail queue full, dropping message")
	}
}

func (m *Mailer) send(msg Message) error {
	addr := fmt.Sprintf("%s:%d", m.cfg.Server, m.cfg.Port)
	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Server)
	payload := []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-version: 1.0;\r\nContent-Type: text/plain; charset=\"UTF-8\";\r\n\r\n%s",
		m.cfg.From, msg.To, msg.Subject, msg.Body,
	))
	return smtp.SendMail(addr, auth, m.cfg.From, []string{msg.To}, payload)
}
