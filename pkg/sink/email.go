package sink

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/gardar/plainmerge/pkg/placeholder"
	"github.com/gardar/plainmerge/pkg/rows"
)

// SMTPConfig holds the settings of an outgoing mail server.
type SMTPConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	SSL  bool   `yaml:"ssl"`
	User string `yaml:"user"`
	Pass string `yaml:"pass"`
}

// Dialer returns a dialer for c.
func (c SMTPConfig) Dialer() *gomail.Dialer {
	d := gomail.NewDialer(c.Host, c.Port, c.User, c.Pass)
	d.SSL = c.SSL
	return d
}

// CheckSMTP connects and authenticates to the server, then hangs up.
func CheckSMTP(c SMTPConfig) error {
	if c.Host == "" {
		return errors.New("smtp host not set")
	}
	sc, err := c.Dialer().Dial()
	if err != nil {
		return fmt.Errorf("smtp check failed: %w", err)
	}
	return sc.Close()
}

// Email mails every artifact as an attachment to the address found in the
// row's recipient column. Subject and body are placeholder templates.
type Email struct {
	From     string
	ToColumn int
	Subject  string
	Body     string
	HTML     bool          // body is HTML, a plain text alternative is derived from it
	Sender   gomail.Sender // usually the result of Dialer().Dial()
}

// Save sends one message. Combined documents carry no row and are refused.
func (s *Email) Save(ctx context.Context, name string, content []byte, row rows.RowData) error {
	if err := ctx.Err(); err != nil {
		return Wrap(name, err)
	}
	if row == nil {
		return Wrap(name, errors.New("email delivery needs row data; combined output cannot be mailed"))
	}
	if s.Sender == nil {
		return Wrap(name, errors.New("email sink has no sender"))
	}
	to := strings.TrimSpace(row.Get(s.ToColumn))
	if to == "" {
		return Wrap(name, fmt.Errorf("no recipient in column %d", s.ToColumn))
	}

	m := s.Message(name, content, row)
	if err := gomail.Send(s.Sender, m); err != nil {
		return Wrap(name, fmt.Errorf("sending to %s: %w", to, err))
	}
	return nil
}

// Message builds the message for one artifact.
func (s *Email) Message(name string, content []byte, row rows.RowData) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", strings.TrimSpace(row.Get(s.ToColumn)))
	m.SetHeader("Subject", placeholder.Render(s.Subject, row))

	body := placeholder.Render(s.Body, row)
	if s.HTML {
		m.SetBody("text/plain", plainText(body))
		m.AddAlternative("text/html", body)
	} else {
		m.SetBody("text/plain", body)
	}
	m.Attach(filepath.Base(name), gomail.SetCopyFunc(func(w io.Writer) error {
		_, err := w.Write(content)
		return err
	}))
	return m
}
