package dispatch

import (
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/wneessen/go-mail"

	"schutz/internal/models"
)

// emailBodyTemplate is the fixed notification mail body. The rendered
// output is deterministic given reading, threshold and timestamp.
const emailBodyTemplate = `<!DOCTYPE html>
<html>
<head>
<style>
body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
.container { max-width: 600px; margin: 0 auto; padding: 20px; }
.header { background: #ff4757; color: white; padding: 20px; text-align: center; }
.content { background: #f9f9f9; padding: 20px; border: 1px solid #ddd; }
.alert-box { background: #fff3cd; border: 1px solid #ffeaa7; padding: 15px; margin: 20px 0; }
.value { font-size: 24px; font-weight: bold; color: #ff4757; }
.footer { background: #f1f2f6; padding: 15px; text-align: center; font-size: 12px; color: #666; }
</style>
</head>
<body>
<div class="container">
  <div class="header">
    <h1>SAFETY ALERT</h1>
    <p>IoT Safety System - Your Threshold Exceeded</p>
  </div>
  <div class="content">
    <p>A sensor reading has exceeded your configured safety threshold:</p>
    <div class="alert-box">
      <h3>{{.SensorType}}</h3>
      <p>Current Reading: <span class="value">{{.Value}} {{.Unit}}</span></p>
      <p>Your Threshold: {{.Threshold}} {{.Unit}}</p>
      <p><strong>Exceeded by: {{.ExceededBy}} {{.Unit}}</strong></p>
      <p><strong>Status: CRITICAL</strong></p>
    </div>
    <p><strong>Recommended Actions:</strong></p>
    <ul>
      <li>Check the affected area immediately</li>
      <li>Ensure proper ventilation if gas-related</li>
      <li>Contact emergency services if danger is imminent</li>
    </ul>
  </div>
  <div class="footer">
    <p>This is an automated message from IoT Safety System</p>
    <p>You are receiving this because you configured an alert for {{.SensorType}} with threshold {{.Threshold}}{{.Unit}}</p>
    <p>Timestamp: {{.Timestamp}}</p>
  </div>
</div>
</body>
</html>`

var emailTmpl = template.Must(template.New("alert").Parse(emailBodyTemplate))

type emailData struct {
	SensorType models.SensorType
	Value      float64
	Unit       string
	Threshold  float64
	ExceededBy string
	Timestamp  string
}

// renderEmailBody fills the fixed template for a reading that exceeded
// a rule's threshold.
func renderEmailBody(reading models.Reading, ruleThreshold float64) (string, error) {
	var b strings.Builder
	err := emailTmpl.Execute(&b, emailData{
		SensorType: reading.SensorType,
		Value:      reading.Value,
		Unit:       reading.Unit,
		Threshold:  ruleThreshold,
		ExceededBy: fmt.Sprintf("%.2f", reading.Value-ruleThreshold),
		Timestamp:  reading.Timestamp.Format("2006-01-02 15:04:05"),
	})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}

// SMTPConfig holds mail transport configuration.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

// SMTPMailer delivers notification mail over an authenticated STARTTLS
// session. A fresh client is dialed per send and closed on every exit
// path, so no session state leaks across attempts.
type SMTPMailer struct {
	cfg SMTPConfig
}

// NewSMTPMailer creates a mailer from the given configuration.
func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	if cfg.Port <= 0 {
		cfg.Port = 587
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &SMTPMailer{cfg: cfg}
}

// Send transmits one HTML mail to a single recipient.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	client, err := mail.NewClient(m.cfg.Host,
		mail.WithPort(m.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.Username),
		mail.WithPassword(m.cfg.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithTimeout(m.cfg.Timeout),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	// DialAndSendWithContext closes the connection on success and on
	// every failure path.
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}
