package mail

import (
	"fmt"
	"html"
	"time"

	"billa/internal/core"
)

// ReminderContent renders the subject and bodies for a payment
// reminder email about one subscription.
func ReminderContent(sub *core.Subscription, dueDate time.Time) (subject, textBody, htmlBody string) {
	due := dueDate.Format("2 Jan 2006")
	cost := core.FormatCents(sub.Cost.Cents)

	subject = fmt.Sprintf("Payment due: %s (%s on %s)", sub.Name, cost, due)

	textBody = fmt.Sprintf(
		"Your %s subscription %q (%s) has a payment due on %s.\n\n"+
			"Category: %s\n\n"+
			"Mark it as paid once the payment goes through.\n",
		sub.Cycle, sub.Name, cost, due, sub.Category)

	// Name and category are user input; they must not land in the HTML
	// part unescaped.
	htmlBody = fmt.Sprintf(
		"<p>Your %s subscription <strong>%s</strong> (%s) has a payment due on <strong>%s</strong>.</p>"+
			"<p>Category: %s</p>"+
			"<p>Mark it as paid once the payment goes through.</p>",
		sub.Cycle, html.EscapeString(sub.Name), cost, due, html.EscapeString(sub.Category))

	return subject, textBody, htmlBody
}
