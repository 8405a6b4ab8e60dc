// Package notify emails customers about changes to their orders.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/mail"

	"github.com/acksell/storefront/internal/order"

	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"
)

const bodyTemplate = `<p>Hi {{.Shipping.Name}},</p>
<p>{{.Headline}}</p>
<table>
{{range .Lines}}<tr><td>{{.Quantity}} x {{.Name}}</td><td>{{printf "%.2f" .Price}}</td></tr>
{{end}}</table>
<p>Total: {{printf "%.2f" .Total}}</p>
<p>Order reference: {{.ID}}</p>`

var tmpl = template.Must(template.New("order").Parse(bodyTemplate))

// Notifier sends order emails through Resend. When disabled it logs the
// email it would have sent, which keeps local development quiet.
type Notifier struct {
	client  *resend.Client
	from    string
	enabled bool
	logger  zerolog.Logger
}

func New(apiKey, from string, enabled bool, logger zerolog.Logger) *Notifier {
	var client *resend.Client
	if enabled {
		client = resend.NewClient(apiKey)
	}
	return &Notifier{
		client:  client,
		from:    from,
		enabled: enabled,
		logger:  logger.With().Str("component", "notify").Logger(),
	}
}

type templateData struct {
	order.Order
	Headline string
}

// OrderChanged emails the customer about the order's new state. subject
// and headline come from the event type via Describe.
func (n *Notifier) OrderChanged(ctx context.Context, o order.Order, subject, headline string) error {
	if _, err := mail.ParseAddress(o.Email); err != nil {
		return fmt.Errorf("invalid recipient %q: %w", o.Email, err)
	}
	var body bytes.Buffer
	if err := tmpl.Execute(&body, templateData{Order: o, Headline: headline}); err != nil {
		return fmt.Errorf("render email body: %w", err)
	}
	if !n.enabled {
		n.logger.Info().Str("to", o.Email).Str("subject", subject).Msg("email sending disabled, skipping")
		return nil
	}
	_, err := n.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    n.from,
		To:      []string{o.Email},
		Subject: subject,
		Html:    body.String(),
	})
	if err != nil {
		return fmt.Errorf("send email to %s: %w", o.Email, err)
	}
	n.logger.Info().Str("to", o.Email).Str("subject", subject).Msg("email sent")
	return nil
}

// Describe maps an order event type to the email subject and headline.
func Describe(eventType string) (subject, headline string, ok bool) {
	switch eventType {
	case "ORDER_CREATED":
		return "We received your order", "Thanks for your order! Here is what you bought:", true
	case "ORDER_UPDATED":
		return "Your order was updated", "Your order status changed. Current contents:", true
	case "ORDER_DELETED":
		return "Your order was cancelled", "Your order has been cancelled. It contained:", true
	}
	return "", "", false
}
