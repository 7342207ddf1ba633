package notify

import (
	"fmt"
	"html"
	"strings"

	"github.com/shopspring/decimal"
)

func normalize(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func joinSeats(seats []string) string { return strings.Join(seats, ", ") }

func formatMoney(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.StringFixed(2)
}

func recipient(job Job) Recipient {
	return Recipient{ID: job.UserEmail, Email: job.UserEmail, Number: job.UserPhone}
}

const signature = `<p>If you have any questions, please contact our support team.</p>
<br>
<p>Best regards,<br>Concertify Team</p>`

// PaymentConfirmation builds the message sent after a successful payment.
func PaymentConfirmation(job Job) Request {
	event := html.EscapeString(orDefault(job.EventName, "N/A"))
	amount := formatMoney(job.Amount)
	currency := orDefault(job.Currency, "USD")

	var b strings.Builder
	b.WriteString("<h2>Payment Confirmed!</h2>\n")
	b.WriteString("<p>Thank you for your payment. Your reservation is being processed.</p>\n<br>\n")
	fmt.Fprintf(&b, "<p><strong>Event:</strong> %s</p>\n", event)
	fmt.Fprintf(&b, "<p><strong>Amount:</strong> %s %s</p>\n", amount, html.EscapeString(currency))
	if job.PaymentID != "" {
		fmt.Fprintf(&b, "<p><strong>Payment ID:</strong> %s</p>\n", html.EscapeString(job.PaymentID))
	}
	b.WriteString("<br>\n<p>You will receive another notification once your reservation is approved.</p>\n<br>\n")
	b.WriteString(signature)

	req := Request{
		To:    recipient(job),
		Email: &EmailContent{Subject: "Payment Confirmed - Concertify", HTML: b.String()},
	}
	if job.UserPhone != "" {
		req.SMS = &SMSContent{Message: fmt.Sprintf(
			"Payment confirmed for %s. Amount: %s %s. You'll receive another notification when your reservation is approved. - Concertify",
			orDefault(job.EventName, "your event"), amount, currency)}
	}
	return req
}

// ReservationApproval builds the message sent when an admin approves a
// reservation.
func ReservationApproval(job Job) Request {
	seats := joinSeats(job.Seats)
	total := formatMoney(job.Total)

	var b strings.Builder
	b.WriteString("<h2>Your Reservation Has Been Approved!</h2>\n")
	b.WriteString("<p>Great news! Your reservation has been confirmed.</p>\n<br>\n")
	fmt.Fprintf(&b, "<p><strong>Event:</strong> %s</p>\n", html.EscapeString(orDefault(job.EventName, "N/A")))
	fmt.Fprintf(&b, "<p><strong>Reservation ID:</strong> #%d</p>\n", job.ReservationID)
	if seats != "" {
		fmt.Fprintf(&b, "<p><strong>Seats:</strong> %s</p>\n", html.EscapeString(seats))
	}
	if total != "" {
		fmt.Fprintf(&b, "<p><strong>Total Paid:</strong> %s %s</p>\n", total, html.EscapeString(orDefault(job.Currency, "USD")))
	}
	b.WriteString("<br>\n<p>Please arrive on time for the event. We look forward to seeing you there!</p>\n<br>\n")
	b.WriteString(signature)

	req := Request{
		To:    recipient(job),
		Email: &EmailContent{Subject: "Reservation Approved - Concertify", HTML: b.String()},
	}
	if job.UserPhone != "" {
		sms := fmt.Sprintf("Reservation approved! Event: %s. Reservation #%d.",
			orDefault(job.EventName, "your event"), job.ReservationID)
		if seats != "" {
			sms += " Seats: " + seats + "."
		}
		req.SMS = &SMSContent{Message: sms + " See you there! - Concertify"}
	}
	return req
}

// ReservationRejection builds the message sent when an admin rejects a
// reservation.
func ReservationRejection(job Job) Request {
	var b strings.Builder
	b.WriteString("<h2>Your Reservation Could Not Be Approved</h2>\n")
	b.WriteString("<p>Unfortunately we were unable to confirm your reservation.</p>\n<br>\n")
	fmt.Fprintf(&b, "<p><strong>Event:</strong> %s</p>\n", html.EscapeString(orDefault(job.EventName, "N/A")))
	fmt.Fprintf(&b, "<p><strong>Reservation ID:</strong> #%d</p>\n", job.ReservationID)
	if seats := joinSeats(job.Seats); seats != "" {
		fmt.Fprintf(&b, "<p><strong>Seats:</strong> %s</p>\n", html.EscapeString(seats))
	}
	b.WriteString("<br>\n<p>If a payment was taken it will be refunded to the original payment method.</p>\n<br>\n")
	b.WriteString(signature)

	req := Request{
		To:    recipient(job),
		Email: &EmailContent{Subject: "Reservation Update - Concertify", HTML: b.String()},
	}
	if job.UserPhone != "" {
		req.SMS = &SMSContent{Message: fmt.Sprintf(
			"Your reservation #%d for %s could not be approved. Any payment will be refunded. - Concertify",
			job.ReservationID, orDefault(job.EventName, "your event"))}
	}
	return req
}
