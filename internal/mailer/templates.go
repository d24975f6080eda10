package mailer

import (
	"fmt"
	"html"
	"time"

	"github.com/dustin/go-humanize"
)

// Purpose selects the wording of a one-time code email
type Purpose string

const (
	PurposeSignup            Purpose = "signup"
	PurposePasswordReset     Purpose = "password_reset"
	PurposeEventRegistration Purpose = "event_registration"
)

// OTPMessage renders the email carrying code. subject is used when
// purpose-specific wording needs an event name.
func OTPMessage(to string, purpose Purpose, code string, ttl time.Duration, eventTitle string) Message {
	now := time.Now()
	expires := humanize.RelTime(now, now.Add(ttl), "from now", "ago")

	var subject, intro string
	switch purpose {
	case PurposePasswordReset:
		subject = "PClub password reset"
		intro = "Use this code to reset your Programming Club password."
	case PurposeEventRegistration:
		subject = "PClub event registration"
		intro = fmt.Sprintf("Use this code to confirm your registration for %s.", eventTitle)
	default:
		subject = "PClub verification"
		intro = "Use this code to verify your Programming Club account."
	}

	text := fmt.Sprintf("%s\n\nCode: %s\n\nThe code expires %s. If you did not request it, ignore this email.\n",
		intro, code, expires)
	body := fmt.Sprintf(`<p>%s</p><p style="font-size:24px;letter-spacing:4px"><strong>%s</strong></p><p>The code expires %s. If you did not request it, ignore this email.</p>`,
		html.EscapeString(intro), html.EscapeString(code), html.EscapeString(expires))

	return Message{To: to, Subject: subject, Text: text, HTML: body}
}
