package notify

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Message is a single HTML email to one recipient.
type Message struct {
	To      string
	Subject string
	HTML    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// UseTLS dials with implicit TLS. Otherwise STARTTLS is used when offered.
	UseTLS  bool
	Timeout time.Duration
}

// smtpSession is the part of *smtp.Client a delivery needs.
type smtpSession interface {
	Auth(smtp.Auth) error
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}

// SMTPMailer opens one connection per message.
type SMTPMailer struct {
	cfg  SMTPConfig
	dial func(ctx context.Context) (smtpSession, error)
}

func NewSMTPMailer(cfg SMTPConfig) (*SMTPMailer, error) {
	if cfg.Host == "" || cfg.Port == 0 {
		return nil, errors.New("smtp: host and port are required")
	}
	if _, err := mail.ParseAddress(cfg.From); err != nil {
		return nil, fmt.Errorf("smtp: from address: %w", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	m := &SMTPMailer{cfg: cfg}
	m.dial = m.connect
	return m, nil
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if _, err := mail.ParseAddress(msg.To); err != nil {
		return fmt.Errorf("smtp: recipient %q: %w", msg.To, err)
	}

	sess, err := m.dial(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	if m.cfg.Username != "" {
		if err := sess.Auth(smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)); err != nil {
			return fmt.Errorf("smtp: auth: %w", err)
		}
	}
	if err := sess.Mail(m.cfg.From); err != nil {
		return fmt.Errorf("smtp: MAIL FROM: %w", err)
	}
	if err := sess.Rcpt(msg.To); err != nil {
		return fmt.Errorf("smtp: RCPT TO %s: %w", msg.To, err)
	}

	w, err := sess.Data()
	if err != nil {
		return fmt.Errorf("smtp: DATA: %w", err)
	}
	if _, err := io.WriteString(w, m.render(msg)); err != nil {
		w.Close()
		return fmt.Errorf("smtp: write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp: DATA: %w", err)
	}
	return sess.Quit()
}

// render builds the RFC 5322 message. The subject is Q-encoded so user text
// cannot add header lines.
func (m *SMTPMailer) render(msg Message) string {
	return "From: " + m.cfg.From + "\r\n" +
		"To: " + msg.To + "\r\n" +
		"Subject: " + mime.QEncoding.Encode("utf-8", msg.Subject) + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/html; charset=UTF-8\r\n" +
		"\r\n" + msg.HTML
}

func (m *SMTPMailer) connect(ctx context.Context) (smtpSession, error) {
	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	dialer := &net.Dialer{Timeout: m.cfg.Timeout}
	tlsCfg := &tls.Config{ServerName: m.cfg.Host}

	var (
		conn net.Conn
		err  error
	)
	if m.cfg.UseTLS {
		conn, err = (&tls.Dialer{NetDialer: dialer, Config: tlsCfg}).DialContext(ctx, "tcp", addr)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return nil, fmt.Errorf("smtp: dial %s: %w", addr, err)
	}

	client, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("smtp: handshake: %w", err)
	}
	if ok, _ := client.Extension("STARTTLS"); ok && !m.cfg.UseTLS {
		if err := client.StartTLS(tlsCfg); err != nil {
			client.Close()
			return nil, fmt.Errorf("smtp: STARTTLS: %w", err)
		}
	}
	return client, nil
}

// LogMailer writes messages to the log instead of delivering them.
type LogMailer struct {
	log *zap.Logger
}

func NewLogMailer(log *zap.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	preview := msg.HTML
	if len(preview) > 150 {
		preview = preview[:150]
	}
	m.log.Info("email not delivered, smtp disabled",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("preview", preview),
	)
	return nil
}
