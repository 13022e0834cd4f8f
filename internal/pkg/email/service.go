// internal/pkg/email/service.go
package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/orient-appliances/storefront/internal/config"
	"github.com/orient-appliances/storefront/internal/domain/order"
	"github.com/orient-appliances/storefront/internal/domain/pricing"
	"github.com/sirupsen/logrus"
)

const resendEndpoint = "https://api.resend.com/emails"

// EmailService handles all email operations
type EmailService struct {
	config    *config.Config
	templates map[string]*template.Template
	client    *http.Client
	log       *logrus.Logger
	resendURL string
}

// NewEmailService creates a new email service
func NewEmailService(cfg *config.Config, log *logrus.Logger) (*EmailService, error) {
	service := &EmailService{
		config:    cfg,
		templates: make(map[string]*template.Template),
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		log:       log,
		resendURL: resendEndpoint,
	}

	for name, body := range templateSources {
		tmpl, err := template.New(name).Parse(body)
		if err != nil {
			return nil, fmt.Errorf("failed to parse email template %s: %w", name, err)
		}
		service.templates[name] = tmpl
	}

	return service, nil
}

// SendEmail sends an email using the configured provider
func (s *EmailService) SendEmail(ctx context.Context, email *Email) error {
	if len(email.To) == 0 {
		return fmt.Errorf("email has no recipients")
	}

	switch s.config.Email.Provider {
	case "smtp":
		return s.sendSMTPEmail(email)
	case "resend":
		return s.sendResendEmail(ctx, email)
	case "log":
		s.log.WithFields(logrus.Fields{
			"to":      email.To,
			"subject": email.Subject,
			"type":    email.Type,
		}).Info("email delivery disabled, message logged")
		return nil
	default:
		return fmt.Errorf("unsupported email provider: %s", s.config.Email.Provider)
	}
}

// SendDealerCredentials emails sign-in details to a newly accepted dealer
func (s *EmailService) SendDealerCredentials(ctx context.Context, to, name, username, password string) error {
	data := DealerCredentialsData{
		EmailTemplateData: GetBaseTemplateData(
			s.config.Email.FromName,
			s.config.App.CompanyWebsite,
			name,
			to,
		),
		Username: username,
		Password: password,
		LoginURL: s.config.App.CompanyWebsite + "/dealer/login",
	}

	htmlContent, err := s.renderTemplate(string(EmailTypeDealerCredentials), data)
	if err != nil {
		return fmt.Errorf("failed to render dealer credentials template: %w", err)
	}

	email := &Email{
		To:          []string{to},
		Subject:     fmt.Sprintf("Your %s dealer account", s.config.App.CompanyName),
		HTMLContent: htmlContent,
		Type:        EmailTypeDealerCredentials,
		Data:        map[string]interface{}{"username": username},
	}

	return s.SendEmail(ctx, email)
}

// OrderPlaced tells the shop staff about a new order. It does nothing when no recipients are configured.
func (s *EmailService) OrderPlaced(ctx context.Context, o *order.Order) error {
	recipients := s.config.Email.NotifyTo
	if len(recipients) == 0 {
		return nil
	}

	currency := o.Currency
	data := NewOrderData{
		EmailTemplateData: GetBaseTemplateData(
			s.config.Email.FromName,
			s.config.App.CompanyWebsite,
			s.config.App.CompanyName,
			s.config.App.CompanyEmail,
		),
		OrderNumber:   o.OrderNumber,
		OrderDate:     o.CreatedAt.Format("January 2, 2006 15:04"),
		BuyerName:     o.Buyer.Name,
		BuyerPhone:    o.Buyer.Phone,
		Address:       o.Buyer.Address,
		City:          o.Buyer.City,
		PaymentMethod: string(o.PaymentMethod),
		Note:          o.Note,
		Subtotal:      pricing.Display(currency, o.Subtotal, nil),
		Shipping:      pricing.Display(currency, o.ShippingCharge, nil),
		Total:         pricing.Display(currency, o.Total, nil),
	}
	for _, item := range o.Items {
		data.Items = append(data.Items, OrderItem{
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    pricing.Display(currency, item.UnitPrice, nil),
			Total:    pricing.Display(currency, item.LineTotal, nil),
		})
	}

	htmlContent, err := s.renderTemplate(string(EmailTypeNewOrder), data)
	if err != nil {
		return fmt.Errorf("failed to render new order template: %w", err)
	}

	email := &Email{
		To:          recipients,
		Subject:     fmt.Sprintf("New order %s (%s)", o.OrderNumber, data.Total),
		HTMLContent: htmlContent,
		Type:        EmailTypeNewOrder,
		Data: map[string]interface{}{
			"order_number": o.OrderNumber,
			"origin":       o.Origin,
		},
	}

	return s.SendEmail(ctx, email)
}

// renderTemplate renders an email template with data
func (s *EmailService) renderTemplate(templateName string, data interface{}) (string, error) {
	tmpl, exists := s.templates[templateName]
	if !exists {
		return "", fmt.Errorf("template %s not found", templateName)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", templateName, err)
	}

	return buf.String(), nil
}

func (s *EmailService) from() string {
	if s.config.Email.FromName != "" {
		return fmt.Sprintf("%s <%s>", s.config.Email.FromName, s.config.Email.FromEmail)
	}
	return s.config.Email.FromEmail
}

var templateSources = map[string]string{
	string(EmailTypeDealerCredentials): `<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>{{.SiteName}}</title></head>
<body style="font-family: Arial, sans-serif; margin: 0; padding: 20px; background-color: #f4f4f4;">
    <div style="max-width: 600px; margin: 0 auto; background-color: white; padding: 20px; border-radius: 8px;">
        <h1 style="color: #333;">Welcome to {{.SiteName}}</h1>
        <p>Hello {{.UserName}},</p>
        <p>Your membership request has been accepted. Use these details to sign in to the dealer area:</p>
        <table style="margin: 16px 0;">
            <tr><td><strong>Username</strong></td><td>{{.Username}}</td></tr>
            <tr><td><strong>Password</strong></td><td>{{.Password}}</td></tr>
        </table>
        {{if .SiteURL}}<p><a href="{{.LoginURL}}">Sign in</a></p>{{end}}
        <p>Please keep these details private.</p>
        <hr>
        <p style="font-size: 12px; color: #666;">&copy; {{.Year}} {{.SiteName}}</p>
    </div>
</body>
</html>`,
	string(EmailTypeNewOrder): `<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>{{.OrderNumber}}</title></head>
<body style="font-family: Arial, sans-serif; margin: 0; padding: 20px; background-color: #f4f4f4;">
    <div style="max-width: 600px; margin: 0 auto; background-color: white; padding: 20px; border-radius: 8px;">
        <h1 style="color: #333;">New order {{.OrderNumber}}</h1>
        <p>{{.OrderDate}}</p>
        <p>
            <strong>{{.BuyerName}}</strong> ({{.BuyerPhone}})<br>
            {{.Address}}, {{.City}}<br>
            Payment: {{.PaymentMethod}}
        </p>
        {{if .Note}}<p>Note: {{.Note}}</p>{{end}}
        <table style="width: 100%; border-collapse: collapse;">
            <tr><th align="left">Item</th><th>Qty</th><th align="right">Price</th><th align="right">Total</th></tr>
            {{range .Items}}
            <tr><td>{{.Name}}</td><td align="center">{{.Quantity}}</td><td align="right">{{.Price}}</td><td align="right">{{.Total}}</td></tr>
            {{end}}
        </table>
        <p style="text-align: right;">
            Subtotal: {{.Subtotal}}<br>
            Shipping: {{.Shipping}}<br>
            <strong>Total: {{.Total}}</strong>
        </p>
    </div>
</body>
</html>`,
}
