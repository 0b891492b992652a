package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/a-h/templ"
	"gopkg.in/gomail.v2"
)

// SMTPMailer delivers lead notifications over SMTP.
type SMTPMailer struct {
	send func(...*gomail.Message) error
	from string
	to   string

	inflight sync.WaitGroup
}

// NewSMTPMailer returns a mailer that sends from one address to another.
func NewSMTPMailer(host string, port int, user, password, from, to string) *SMTPMailer {
	return &SMTPMailer{
		send: gomail.NewDialer(host, port, user, password).DialAndSend,
		from: from,
		to:   to,
	}
}

// SendLead renders the notification and sends it. gomail has no context
// support, so ctx only bounds how long the caller waits for the result;
// a send abandoned at the deadline keeps running until Wait drains it.
func (m *SMTPMailer) SendLead(ctx context.Context, ev LeadEvent) error {
	var body bytes.Buffer
	if err := LeadEmail(ev).Render(ctx, &body); err != nil {
		return fmt.Errorf("render lead email: %w", err)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", m.to)
	msg.SetHeader("Subject", LeadSubject(ev))
	msg.SetBody("text/html", body.String())

	done := make(chan error, 1)
	m.inflight.Add(1)
	go func() {
		defer m.inflight.Done()
		done <- m.send(msg)
	}()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send smtp: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("send smtp: %w", ctx.Err())
	}
}

// Wait blocks until every SMTP send started by SendLead has returned.
func (m *SMTPMailer) Wait() {
	m.inflight.Wait()
}

// LeadSubject is the notification subject line.
func LeadSubject(ev LeadEvent) string {
	return "New Lead: " + ev.Source
}

// LeadEmail renders the HTML notification body. Optional fields are left
// out when empty.
func LeadEmail(ev LeadEvent) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString("<h2>New Lead Submission</h2>\n")
		field(&b, "Source", ev.Source)
		field(&b, "Name", ev.Name)
		field(&b, "Email", ev.Email)
		phone := ev.Phone
		if phone == "" {
			phone = "N/A"
		}
		field(&b, "Phone", phone)
		optional(&b, "Resort", ev.ResortName)
		optional(&b, "Location", ev.Location)
		if ev.AnnualMaintenanceFee != nil {
			field(&b, "Annual Maintenance Fee", dollars(*ev.AnnualMaintenanceFee))
		}
		if ev.PurchasePrice != nil {
			field(&b, "Purchase Price", dollars(*ev.PurchasePrice))
		}
		if ev.YearsOwned != nil {
			field(&b, "Years Owned", strconv.FormatInt(*ev.YearsOwned, 10))
		}
		optional(&b, "Message", ev.Message)
		optional(&b, "Calculator Results", ev.CalculatorResults)
		field(&b, "Submitted", ev.Timestamp.Format("Jan 2, 2006 15:04 MST"))
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func field(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, "<p><strong>%s:</strong> %s</p>\n", label, templ.EscapeString(value))
}

func optional(b *strings.Builder, label, value string) {
	if value != "" {
		field(b, label, value)
	}
}

func dollars(v int64) string {
	return "$" + strconv.FormatInt(v, 10)
}
