// Package notify delivers booking confirmation emails. Dispatch happens
// after the booking transaction commits; a delivery failure is logged by
// the caller and never rolls a booking back.
package notify

import (
	"context"
	"fmt"
	"log"
	"net/smtp"
	"strings"

	"github.com/example/marina-booking/internal/booking"
)

const timeLayout = "2006-01-02 15:04"

type Mailer struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

func (m *Mailer) ReservationConfirmed(_ context.Context, c booking.Confirmation) error {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.From)
	fmt.Fprintf(&b, "To: %s\r\n", c.To)
	b.WriteString("Subject: Marina Reservation Confirmation\r\n")
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/html; charset=utf-8\r\n\r\n")
	fmt.Fprintf(&b, "<h2>Reservation Confirmed</h2>")
	fmt.Fprintf(&b, "<p><strong>Slot:</strong> %s</p>", c.SlotName)
	fmt.Fprintf(&b, "<p><strong>From:</strong> %s</p>", c.StartAt.Format(timeLayout))
	fmt.Fprintf(&b, "<p><strong>To:</strong> %s</p>", c.EndAt.Format(timeLayout))
	fmt.Fprintf(&b, "<p><strong>Total:</strong> $%s</p>", c.TotalPrice.StringFixed(2))
	b.WriteString("<p>Thank you for booking with us.</p>")

	auth := smtp.PlainAuth("", m.Username, m.Password, m.Host)
	return smtp.SendMail(m.Host+":"+m.Port, auth, m.From, []string{c.To}, []byte(b.String()))
}

// LogNotifier is used when SMTP is not configured (and in dev mode).
type LogNotifier struct{}

func (LogNotifier) ReservationConfirmed(_ context.Context, c booking.Confirmation) error {
	log.Printf("confirmation for %s: slot %q %s - %s, total $%s",
		c.To, c.SlotName, c.StartAt.Format(timeLayout), c.EndAt.Format(timeLayout), c.TotalPrice.StringFixed(2))
	return nil
}
