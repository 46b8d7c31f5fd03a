package jobs

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"afrimart/internal/domain"
)

// ErrUnknownTemplate marks a template identifier no renderer exists for.
// This is a caller defect, not a transient failure.
var ErrUnknownTemplate = fmt.Errorf("unknown email template")

var confirmationBody = template.Must(template.New(TypeOrderConfirmation).Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #10b981;">Thank you for your order!</h2>
  <p>Hi there,</p>
  <p>Your order <strong>{{.OrderNumber}}</strong> has been received and is being processed.</p>
  <p>We'll send you another email when your order ships.</p>
  <hr>
  <p style="color: #666; font-size: 12px;">
    This is an automated email from AfriMart. Please do not reply.
  </p>
</div>
`))

var statusUpdateBody = template.Must(template.New(TypeOrderStatusUpdate).Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #10b981;">Order Status Update</h2>
  <p>Hi there,</p>
  <p>Your order <strong>{{.OrderNumber}}</strong> status has been updated to:</p>
  <p style="font-size: 18px; color: #10b981; font-weight: bold;">{{.StatusUpper}}</p>
  {{if .Shipped}}<p>Your order is on its way!</p>{{end}}
  {{if .Delivered}}<p>Your order has been delivered. We hope you enjoy your purchase!</p>{{end}}
  <hr>
  <p style="color: #666; font-size: 12px;">
    This is an automated email from AfriMart. Please do not reply.
  </p>
</div>
`))

// Email is a rendered subject/body pair ready for dispatch.
type Email struct {
	Subject string
	Body    string
}

// RenderOrderConfirmation renders the confirmation email for an order number.
func RenderOrderConfirmation(p OrderConfirmationPayload) (Email, error) {
	var buf bytes.Buffer
	err := confirmationBody.Execute(&buf, struct{ OrderNumber string }{p.OrderNumber})
	if err != nil {
		return Email{}, fmt.Errorf("failed to render confirmation: %w", err)
	}
	return Email{
		Subject: fmt.Sprintf("Order Confirmation - %s", p.OrderNumber),
		Body:    buf.String(),
	}, nil
}

// RenderOrderStatusUpdate renders the status-update email.
func RenderOrderStatusUpdate(p OrderStatusUpdatePayload) (Email, error) {
	data := struct {
		OrderNumber string
		StatusUpper string
		Shipped     bool
		Delivered   bool
	}{
		OrderNumber: p.OrderNumber,
		StatusUpper: strings.ToUpper(string(p.Status)),
		Shipped:     p.Status == domain.OrderStatusShipped,
		Delivered:   p.Status == domain.OrderStatusDelivered,
	}

	var buf bytes.Buffer
	if err := statusUpdateBody.Execute(&buf, data); err != nil {
		return Email{}, fmt.Errorf("failed to render status update: %w", err)
	}
	return Email{
		Subject: fmt.Sprintf("Order %s - Status Update", p.OrderNumber),
		Body:    buf.String(),
	}, nil
}
