// internal/services/notification_service.go
package services

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/sirupsen/logrus"

	"github.com/accessramp/ramp-backend/internal/config"
	"github.com/accessramp/ramp-backend/internal/models"
)

// Mailer sends the customer-facing workflow emails. Only the quote, agreement
// and invoice flows send mail; everything else in the dashboard is silent.
type Mailer interface {
	SendQuoteEmail(customer *models.Customer, quote *models.Quote, acceptURL string) error
	SendAgreementEmail(customer *models.Customer, agreement *models.Agreement) error
	SendPaymentLinkEmail(customer *models.Customer, invoice *models.Invoice, paymentURL string) error
	SendSubscriptionSetupEmail(customer *models.Customer, invoice *models.Invoice, setupURL string) error
}

type NotificationService struct {
	config *config.Config
}

type EmailTemplate struct {
	Subject string
	Body    string
}

func NewNotificationService(config *config.Config) *NotificationService {
	return &NotificationService{
		config: config,
	}
}

func (s *NotificationService) SendQuoteEmail(customer *models.Customer, quote *models.Quote, acceptURL string) error {
	tmpl := s.getEmailTemplate("quote")

	data := map[string]interface{}{
		"CustomerName": customer.FullName(),
		"MonthlyRate":  fmt.Sprintf("%.2f", quote.MonthlyRentalRate),
		"SetupFee":     fmt.Sprintf("%.2f", quote.SetupFee),
		"AcceptURL":    acceptURL,
		"ValidUntil":   quote.ValidUntil,
		"CompanyName":  s.config.Email.FromName,
	}

	body, err := s.renderTemplate(tmpl.Body, data)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	return s.sendEmail(customer.Email, tmpl.Subject, body)
}

func (s *NotificationService) SendAgreementEmail(customer *models.Customer, agreement *models.Agreement) error {
	tmpl := s.getEmailTemplate("agreement")

	data := map[string]interface{}{
		"CustomerName": customer.FullName(),
		"SignPageURL":  agreement.Notes.SignPageURL,
		"CompanyName":  s.config.Email.FromName,
	}

	body, err := s.renderTemplate(tmpl.Body, data)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	return s.sendEmail(customer.Email, tmpl.Subject, body)
}

func (s *NotificationService) SendPaymentLinkEmail(customer *models.Customer, invoice *models.Invoice, paymentURL string) error {
	tmpl := s.getEmailTemplate("payment_link")

	data := map[string]interface{}{
		"CustomerName": customer.FullName(),
		"InvoiceType":  string(invoice.InvoiceType),
		"Amount":       fmt.Sprintf("%.2f", invoice.Amount),
		"PaymentURL":   paymentURL,
		"CompanyName":  s.config.Email.FromName,
	}

	body, err := s.renderTemplate(tmpl.Body, data)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	return s.sendEmail(customer.Email, tmpl.Subject, body)
}

func (s *NotificationService) SendSubscriptionSetupEmail(customer *models.Customer, invoice *models.Invoice, setupURL string) error {
	tmpl := s.getEmailTemplate("subscription_setup")

	data := map[string]interface{}{
		"CustomerName": customer.FullName(),
		"Amount":       fmt.Sprintf("%.2f", invoice.Amount),
		"SetupURL":     setupURL,
		"CompanyName":  s.config.Email.FromName,
	}

	body, err := s.renderTemplate(tmpl.Body, data)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	return s.sendEmail(customer.Email, tmpl.Subject, body)
}

// Helper methods
func (s *NotificationService) sendEmail(to, subject, body string) error {
	if s.config.Email.SMTPHost == "" {
		// Email not configured, just log
		logrus.WithFields(logrus.Fields{"to": to, "subject": subject}).Info("Email skipped (SMTP not configured)")
		return nil
	}

	// Setup authentication
	auth := smtp.PlainAuth("", s.config.Email.SMTPUsername, s.config.Email.SMTPPassword, s.config.Email.SMTPHost)

	// Compose message
	msg := []byte(fmt.Sprintf("To: %s\r\nSubject: %s\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s", to, subject, body))

	// Send email
	addr := fmt.Sprintf("%s:%s", s.config.Email.SMTPHost, s.config.Email.SMTPPort)
	return smtp.SendMail(addr, auth, s.config.Email.FromEmail, []string{to}, msg)
}

func (s *NotificationService) renderTemplate(templateStr string, data interface{}) (string, error) {
	tmpl, err := template.New("email").Parse(templateStr)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func (s *NotificationService) getEmailTemplate(templateType string) EmailTemplate {
	templates := map[string]EmailTemplate{
		"quote": {
			Subject: "Your Wheelchair Ramp Rental Quote",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Hello {{.CustomerName}},</h2>
	<p>Thank you for your interest in a ramp rental. Here is your quote:</p>
	<ul>
		<li>Monthly rental: ${{.MonthlyRate}}</li>
		<li>One-time setup fee: ${{.SetupFee}}</li>
	</ul>
	<p>To accept this quote, click the link below:</p>
	<a href="{{.AcceptURL}}">Accept Quote</a>
	{{if .ValidUntil}}<p>This quote is valid until {{.ValidUntil.Format "January 2, 2006"}}.</p>{{end}}
	<p>Best regards,<br>{{.CompanyName}}</p>
</body>
</html>`,
		},
		"agreement": {
			Subject: "Your Rental Agreement Is Ready to Sign",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Hello {{.CustomerName}},</h2>
	<p>Your rental agreement is ready. Please review and sign it here:</p>
	<a href="{{.SignPageURL}}">Review and Sign</a>
	<p>The signing link expires in 72 hours.</p>
	<p>Best regards,<br>{{.CompanyName}}</p>
</body>
</html>`,
		},
		"payment_link": {
			Subject: "Payment Request for Your Ramp Rental",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Hello {{.CustomerName}},</h2>
	<p>Your {{.InvoiceType}} invoice of ${{.Amount}} is ready for payment:</p>
	<a href="{{.PaymentURL}}">Pay Now</a>
	<p>Best regards,<br>{{.CompanyName}}</p>
</body>
</html>`,
		},
		"subscription_setup": {
			Subject: "Set Up Your Monthly Rental Payments",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Hello {{.CustomerName}},</h2>
	<p>Your monthly rental of ${{.Amount}} is ready to be set up. Add your payment method here:</p>
	<a href="{{.SetupURL}}">Set Up Payments</a>
	<p>Best regards,<br>{{.CompanyName}}</p>
</body>
</html>`,
		},
	}

	if tmpl, exists := templates[templateType]; exists {
		return tmpl
	}

	// Default template
	return EmailTemplate{
		Subject: "Notification",
		Body:    "<p>{{.Message}}</p>",
	}
}
