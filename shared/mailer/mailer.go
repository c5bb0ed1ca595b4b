package mailer

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
	"gopkg.in/gomail.v2"
)

var ErrNoRecipients = errors.New("no recipients specified")

// Sender delivers a single email.
type Sender interface {
	Send(email Email) error
}

// Mailer represents an SMTP email sender.
type Mailer struct {
	config Config
	dialer *gomail.Dialer
}

// Email represents an email message.
type Email struct {
	To       []string
	Cc       []string
	Bcc      []string
	Subject  string
	Body     string
	HTMLBody string
}

// Config holds SMTP configuration for sending emails. Mail is disabled when Host is empty.
type Config struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT"     envDefault:"587"`
	Username string `env:"SMTP_USERNAME"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"SMTP_FROM"`
}

// LoadConfig reads the SMTP settings from environment variables.
func LoadConfig() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse smtp env: %w", err)
	}

	return cfg, nil
}

// Enabled reports whether an SMTP relay is configured.
func (c Config) Enabled() bool {
	return c.Host != ""
}

// Validate checks the settings of an enabled configuration.
func (c Config) Validate() error {
	var errs []error
	if c.Host == "" {
		errs = append(errs, errors.New("missing SMTP_HOST environment variable"))
	}
	if c.Port <= 0 {
		errs = append(errs, errors.New("SMTP_PORT must be positive"))
	}
	if c.From == "" {
		errs = append(errs, errors.New("missing SMTP_FROM environment variable"))
	}
	if (c.Username == "") != (c.Password == "") {
		errs = append(errs, errors.New("SMTP_USERNAME and SMTP_PASSWORD must be set together"))
	}

	return errors.Join(errs...)
}

// NewMailer creates a new Mailer instance with the given configuration.
func NewMailer(cfg Config) (*Mailer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Mailer{
		config: cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}, nil
}

// Send sends a single email.
func (m *Mailer) Send(email Email) error {
	msg, err := m.newMessage(email)
	if err != nil {
		return err
	}

	return m.dialer.DialAndSend(msg)
}

func (m *Mailer) newMessage(email Email) (*gomail.Message, error) {
	if len(email.To) == 0 {
		return nil, ErrNoRecipients
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.config.From)
	msg.SetHeader("To", email.To...)

	if len(email.Cc) > 0 {
		msg.SetHeader("Cc", email.Cc...)
	}
	if len(email.Bcc) > 0 {
		msg.SetHeader("Bcc", email.Bcc...)
	}

	msg.SetHeader("Subject", email.Subject)

	if email.HTMLBody != "" {
		msg.SetBody("text/html", email.HTMLBody)
		if email.Body != "" {
			msg.AddAlternative("text/plain", email.Body)
		}
	} else {
		msg.SetBody("text/plain", email.Body)
	}

	return msg, nil
}
