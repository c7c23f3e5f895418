package notify

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"gopkg.in/gomail.v2"
)

// Mailer delivers notifications over SMTP.  Confirmations carry the
// generated PDF ticket as an attachment; reminders are mail only.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewMailer builds a Mailer.  An empty from address disables delivery;
// Notify then reports the mail as undeliverable so the caller logs it.
func NewMailer(host string, port int, user, pass, from string) *Mailer {
	return &Mailer{dialer: gomail.NewDialer(host, port, user, pass), from: from}
}

// Notify renders and sends one email.  gomail has no context support,
// so cancellation is only honored up front; the SMTP dial itself is
// bounded by the server's own timeouts.
func (m *Mailer) Notify(ctx context.Context, kind Kind, recipient string, p Payload) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.from == "" {
		return fmt.Errorf("mail disabled: no from address configured")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", recipient)
	msg.SetHeader("Subject", subject(kind, p))
	msg.SetBody("text/plain", textBody(kind, p))
	msg.AddAlternative("text/html", htmlBody(kind, p))

	if kind == KindConfirmation {
		pdf, err := TicketPDF(recipient, p)
		if err != nil {
			// Ship the confirmation without the attachment rather than
			// dropping the mail entirely.
			log.Printf("[notify] ticket pdf generation failed for booking %s: %v", p.BookingID, err)
		} else {
			name := fmt.Sprintf("ticket-%s.pdf", p.BookingID)
			msg.Attach(name, gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(pdf)
				return err
			}))
		}
	}
	return m.dialer.DialAndSend(msg)
}

func subject(kind Kind, p Payload) string {
	if kind == KindReminder {
		return fmt.Sprintf("Reminder: %s starts in 2 hours!", orNA(p.MovieName))
	}
	return fmt.Sprintf("Booking Confirmation #%s", p.BookingID)
}

func textBody(kind Kind, p Payload) string {
	seats := strings.Join(p.Seats, ", ")
	if kind == KindReminder {
		return fmt.Sprintf(
			"Reminder: your movie %s starts at %s on %s (in 2 hours).\nTheatre: %s\nSeats: %s\n",
			orNA(p.MovieName), orNA(p.ShowTime), orNA(p.ShowDate), orNA(p.TheatreName), seats)
	}
	return fmt.Sprintf(
		"Booking Confirmation #%s\n---------------------------\nMovie: %s\nTheatre: %s\nDate: %s\nTime: %s\nSeats: %s\n\nThank you for your booking!\nPlease present this email at the theatre.\n",
		p.BookingID, orNA(p.MovieName), orNA(p.TheatreName), orNA(p.ShowDate), orNA(p.ShowTime), seats)
}

func htmlBody(kind Kind, p Payload) string {
	title := "Booking Confirmed!"
	note := "Thank you for choosing our service. Your booking is confirmed!<br>Please present this email or the attached ticket at the theatre."
	if kind == KindReminder {
		title = "Movie Reminder!"
		note = "Your movie starts in 2 hours! Please arrive at least 20 minutes early.<br>Don't forget to bring your booking confirmation and ID."
	}
	return fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; color: #333;">
  <div style="background: #4a6fa5; padding: 20px; color: white; text-align: center;">
	<h1 style="margin: 0; font-size: 24px;">%s</h1>
  </div>
  <div style="padding: 20px; border: 1px solid #ddd; border-top: none;">
	<h2 style="color: #2c3e50; margin-top: 0;">%s</h2>
	<div style="background: #f8f9fa; padding: 15px; margin-bottom: 20px;">
	  <p style="margin: 5px 0;"><strong>Booking ID:</strong> %s</p>
	  <p style="margin: 5px 0;"><strong>Date:</strong> %s</p>
	  <p style="margin: 5px 0;"><strong>Time:</strong> %s</p>
	  <p style="margin: 5px 0;"><strong>Theatre:</strong> %s</p>
	  <p style="margin: 5px 0;"><strong>Seats:</strong> %s</p>
	</div>
	<p>%s</p>
	<p style="font-size: 12px; color: #777;">This is an automated email, please do not reply directly to this message.</p>
  </div>
</div>`,
		title, orNA(p.MovieName), p.BookingID, orNA(p.ShowDate), orNA(p.ShowTime),
		orNA(p.TheatreName), strings.Join(p.Seats, ", "), note)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
