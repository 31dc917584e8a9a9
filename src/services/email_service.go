package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"time"

	"github.com/mailgun/mailgun-go/v4"
	"github.com/username/insightfactory/backend/src/config"
	"github.com/username/insightfactory/backend/src/logger"
	"github.com/username/insightfactory/backend/src/models"
	"github.com/username/insightfactory/backend/src/utils"
)

// NewEmailService selects the email transport from configuration. Incomplete
// provider configuration falls back to the mock transport so the pipeline
// stays runnable in development.
func NewEmailService() EmailService {
	if config.Cfg == nil {
		slog.Error("Configuration (config.Cfg) is nil. Email service will default to mock.")
		return &MockEmailService{}
	}

	provider := strings.ToLower(config.Cfg.EmailServiceProvider)
	logger.L.Info("Initializing email service", "provider", provider)

	switch provider {
	case "mailgun":
		if config.Cfg.MailgunDomain == "" || config.Cfg.MailgunPrivateAPIKey == "" || config.Cfg.SenderEmail == "" {
			logger.L.Warn("Mailgun configuration incomplete (Domain, API Key, or SenderEmail missing). Falling back to MockEmailService.")
			return &MockEmailService{}
		}
		mg := mailgun.NewMailgun(config.Cfg.MailgunDomain, config.Cfg.MailgunPrivateAPIKey)
		logger.L.Info("Mailgun client initialized", "domain", config.Cfg.MailgunDomain)
		return &MailgunEmailService{
			mg:          mg,
			senderEmail: config.Cfg.SenderEmail,
			senderName:  config.Cfg.SenderName,
		}
	case "smtp":
		if config.Cfg.SMTPServer == "" || config.Cfg.SMTPUser == "" || config.Cfg.SMTPPassword == "" || config.Cfg.SenderEmail == "" {
			logger.L.Warn("SMTP configuration incomplete. Falling back to MockEmailService.")
			return &MockEmailService{}
		}
		return &SMTPEmailService{
			SMTPServer:   config.Cfg.SMTPServer,
			SMTPPort:     config.Cfg.SMTPPort,
			SMTPUser:     config.Cfg.SMTPUser,
			SMTPPassword: config.Cfg.SMTPPassword,
			SenderEmail:  config.Cfg.SenderEmail,
		}
	default:
		logger.L.Info("Defaulting to MockEmailService.")
		return &MockEmailService{}
	}
}

// reportEmailSubject embeds the inclusive date range in the subject line.
func reportEmailSubject(from, to time.Time) string {
	return fmt.Sprintf("Weekly Sales Report - %s to %s",
		from.Format(utils.DefaultDateFormat), to.Format(utils.DefaultDateFormat))
}

// buildReportEmailBody renders the primary message: period, narrative and the
// key-metrics block. Revenue is formatted to two decimals here, at the
// rendering stage only.
func buildReportEmailBody(agg models.SalesAggregates, summary string, from, to time.Time) string {
	return fmt.Sprintf(
		"Weekly Sales Report\n"+
			"Period: %s to %s\n\n"+
			"%s\n\n"+
			"Key Metrics:\n"+
			"- Total units: %d\n"+
			"- Total revenue: $%.2f\n"+
			"- Top SKU: %s\n"+
			"- Top branch: %s\n\n"+
			"Thank you for using Insight Factory!",
		from.Format(utils.DefaultDateFormat), to.Format(utils.DefaultDateFormat),
		summary, agg.TotalUnits, agg.TotalRevenue, agg.TopSKU, agg.TopBranch,
	)
}

// buildFallbackEmailBody renders the degraded message. It embeds the
// statistics directly and depends on nothing from the summary stage.
func buildFallbackEmailBody(agg models.SalesAggregates, from, to time.Time) string {
	return fmt.Sprintf(
		"Weekly Sales Report\n"+
			"Period: %s to %s\n\n"+
			"Summary: %d units were sold for a total revenue of $%.2f. "+
			"The top selling SKU was %s and the leading branch was %s.\n\n"+
			"Key Metrics:\n"+
			"- Total units: %d\n"+
			"- Total revenue: $%.2f\n"+
			"- Top SKU: %s\n"+
			"- Top branch: %s",
		from.Format(utils.DefaultDateFormat), to.Format(utils.DefaultDateFormat),
		agg.TotalUnits, agg.TotalRevenue, agg.TopSKU, agg.TopBranch,
		agg.TotalUnits, agg.TotalRevenue, agg.TopSKU, agg.TopBranch,
	)
}

type MailgunEmailService struct {
	mg          mailgun.Mailgun
	senderEmail string
	senderName  string
}

func (s *MailgunEmailService) SendReportEmail(toEmail string, from, to time.Time, agg models.SalesAggregates, summary models.GeneratedSummary) error {
	body := buildReportEmailBody(agg, summary.Text, from, to)
	return s.send(toEmail, reportEmailSubject(from, to), body, "sales-report")
}

func (s *MailgunEmailService) SendFallbackReportEmail(toEmail string, from, to time.Time, agg models.SalesAggregates) error {
	body := buildFallbackEmailBody(agg, from, to)
	return s.send(toEmail, reportEmailSubject(from, to), body, "sales-report-fallback")
}

func (s *MailgunEmailService) send(toEmail, subject, body, tag string) error {
	sender := fmt.Sprintf("%s <%s>", s.senderName, s.senderEmail)
	message := s.mg.NewMessage(sender, subject, body, toEmail)
	message.AddTag(tag)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*20)
	defer cancel()

	resp, id, err := s.mg.Send(ctx, message)
	if err != nil {
		logger.L.Error("Failed to send report email via Mailgun", "error", err, "to", toEmail, "mailgunResp", resp, "mailgunId", id)
		return fmt.Errorf("mailgun send failed: %w. Response: %s", err, resp)
	}
	logger.L.Info("Report email sent successfully via Mailgun", "to", toEmail, "id", id)
	return nil
}

type SMTPEmailService struct {
	SMTPServer   string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SenderEmail  string
}

func (s *SMTPEmailService) SendReportEmail(toEmail string, from, to time.Time, agg models.SalesAggregates, summary models.GeneratedSummary) error {
	body := buildReportEmailBody(agg, summary.Text, from, to)
	return s.send(toEmail, reportEmailSubject(from, to), body)
}

func (s *SMTPEmailService) SendFallbackReportEmail(toEmail string, from, to time.Time, agg models.SalesAggregates) error {
	body := buildFallbackEmailBody(agg, from, to)
	return s.send(toEmail, reportEmailSubject(from, to), body)
}

func (s *SMTPEmailService) send(toEmail, subject, body string) error {
	header := make(map[string]string)
	header["From"] = s.SenderEmail
	header["To"] = toEmail
	header["Subject"] = subject
	header["MIME-version"] = "1.0"
	header["Content-Type"] = "text/plain; charset=\"UTF-8\""
	message := ""
	for k, v := range header {
		message += fmt.Sprintf("%s: %s\r\n", k, v)
	}
	message += "\r\n" + body

	auth := smtp.PlainAuth("", s.SMTPUser, s.SMTPPassword, s.SMTPServer)
	addr := fmt.Sprintf("%s:%d", s.SMTPServer, s.SMTPPort)
	if err := smtp.SendMail(addr, auth, s.SenderEmail, []string{toEmail}, []byte(message)); err != nil {
		logger.L.Error("Failed to send report email via SMTP", "error", err, "to", toEmail)
		return fmt.Errorf("failed to send report email via SMTP: %w", err)
	}
	logger.L.Info("Report email sent successfully via SMTP", "to", toEmail)
	return nil
}

type MockEmailService struct{}

func (m *MockEmailService) SendReportEmail(toEmail string, from, to time.Time, agg models.SalesAggregates, summary models.GeneratedSummary) error {
	logger.L.Info("MockEmailService: Would send report email.",
		"to", toEmail, "subject", reportEmailSubject(from, to), "summarySource", string(summary.Source))
	return nil
}

func (m *MockEmailService) SendFallbackReportEmail(toEmail string, from, to time.Time, agg models.SalesAggregates) error {
	logger.L.Info("MockEmailService: Would send fallback report email.",
		"to", toEmail, "subject", reportEmailSubject(from, to))
	return nil
}
