package mail

import (
	"fmt"
	"html"
	"time"
)

// RenewalReminderBody builds the HTML body for a plan renewal reminder.
func RenewalReminderBody(displayName, planName string, price float64, dueDate time.Time) string {
	name := displayName
	if name == "" {
		name = "there"
	}
	return fmt.Sprintf(
		`<p>Hi %s,</p>
<p>Your <strong>%s</strong> plan payment of <strong>%.2f</strong> is due on <strong>%s</strong>.</p>
<p>Please renew before the due date to keep your shared account active.</p>`,
		html.EscapeString(name),
		html.EscapeString(planName),
		price,
		dueDate.Format("2 Jan 2006"),
	)
}
