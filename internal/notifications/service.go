// Package notifications delivers batch-completion summaries over email and a
// generic JSON webhook. Delivery is best effort; a failed channel is logged
// and reported but never blocks or rolls back the analysis that triggered it.
package notifications

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"

	"github.com/BinaryFighter-01/commentiq/internal/config"
)

// Service sends reports via the channels present in configuration
type Service struct {
	config *config.Config
	client *resty.Client
}

var _ Notifier = (*Service)(nil)

// NewService creates a new notification service
func NewService(cfg *config.Config) *Service {
	return &Service{
		config: cfg,
		client: resty.New().SetTimeout(30 * time.Second),
	}
}

// SendReport sends a report via configured notification channels
func (s *Service) SendReport(report *Report) error {
	var errors []string

	if s.config.ReportWebhookURL != "" {
		if err := s.sendToWebhook(report); err != nil {
			logrus.Errorf("Failed to send webhook notification: %v", err)
			errors = append(errors, fmt.Sprintf("Webhook: %v", err))
		} else {
			logrus.Info("Successfully sent report to webhook")
		}
	}

	if s.config.NotificationEmail != "" {
		if err := s.sendEmail(report); err != nil {
			logrus.Errorf("Failed to send email notification: %v", err)
			errors = append(errors, fmt.Sprintf("Email: %v", err))
		} else {
			logrus.Info("Successfully sent report via email")
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("notification errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

func (s *Service) sendToWebhook(report *Report) error {
	resp, err := s.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(report).
		Post(s.config.ReportWebhookURL)

	if err != nil {
		return fmt.Errorf("failed to send webhook message: %w", err)
	}

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	return nil
}

func (s *Service) sendEmail(report *Report) error {
	subject := fmt.Sprintf("Comment Analysis Report - %s (%d comments)",
		report.Video.Title, report.Batch.Analyzed)

	htmlBody, err := s.buildEmailHTML(report)
	if err != nil {
		return fmt.Errorf("failed to build email HTML: %w", err)
	}

	textBody := s.buildEmailText(report)

	m := gomail.NewMessage()
	m.SetHeader("From", s.config.SMTPUsername)
	m.SetHeader("To", s.config.NotificationEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", textBody)
	m.AddAlternative("text/html", htmlBody)

	d := gomail.NewDialer(s.config.SMTPHost, s.config.SMTPPort, s.config.SMTPUsername, s.config.SMTPPassword)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

func (s *Service) buildEmailHTML(report *Report) (string, error) {
	tmpl := `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Comment Analysis Report</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        .header { background-color: #0078d4; color: white; padding: 20px; border-radius: 5px; }
        .summary { background-color: #f5f5f5; padding: 15px; margin: 20px 0; border-radius: 5px; }
        .stat { border-left: 4px solid #0078d4; padding: 10px; margin: 10px 0; background-color: #fafafa; }
        .positive { border-left-color: #107c10; }
        .negative { border-left-color: #d13438; }
        .topics { color: #666; }
    </style>
</head>
<body>
    <div class="header">
        <h1>Comment Analysis Report</h1>
        <p>{{.Video.Title}} ({{.Video.Platform}})</p>
        <p>Batch {{.Batch.BatchID}} completed {{.Batch.StartedAt.Format "January 2, 2006 at 3:04 PM UTC"}}</p>
    </div>

    <div class="summary">
        <h2>Batch</h2>
        <p><strong>Requested:</strong> {{.Batch.Requested}}</p>
        <p><strong>Analyzed:</strong> {{.Batch.Analyzed}} ({{.Batch.FromCache}} from cache)</p>
        <p><strong>Failed:</strong> {{.Batch.Failed}}</p>
    </div>

    {{if .Aggregation}}
    <h2>Sentiment</h2>
    <div class="stat positive"><strong>Positive:</strong> {{.Aggregation.SentimentCounts.Positive}}</div>
    <div class="stat negative"><strong>Negative:</strong> {{.Aggregation.SentimentCounts.Negative}}</div>
    <div class="stat"><strong>Neutral:</strong> {{.Aggregation.SentimentCounts.Neutral}}</div>
    <div class="stat"><strong>Mixed:</strong> {{.Aggregation.SentimentCounts.Mixed}}</div>
    <p><strong>Average sentiment:</strong> {{printf "%.2f" .Aggregation.AverageSentiment}}</p>
    <p><strong>Average toxicity:</strong> {{printf "%.2f" .Aggregation.AverageToxicity}}</p>

    {{if .Aggregation.TopTopics}}
    <h2>Top Topics</h2>
    <p class="topics">{{join .Aggregation.TopTopics ", "}}</p>
    {{end}}
    {{end}}

    <hr>
    <p><small>This report was generated automatically by CommentIQ.</small></p>
</body>
</html>
`

	t := template.New("email").Funcs(template.FuncMap{
		"join": strings.Join,
	})

	t, err := t.Parse(tmpl)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, report); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func (s *Service) buildEmailText(report *Report) string {
	var text strings.Builder

	text.WriteString(fmt.Sprintf("Comment Analysis Report - %s\n", report.Video.Title))
	text.WriteString(fmt.Sprintf("Platform: %s\n", report.Video.Platform))
	text.WriteString(fmt.Sprintf("Batch: %s\n\n", report.Batch.BatchID))

	text.WriteString("BATCH\n")
	text.WriteString("=====\n")
	text.WriteString(fmt.Sprintf("Requested: %d\n", report.Batch.Requested))
	text.WriteString(fmt.Sprintf("Analyzed: %d (%d from cache)\n", report.Batch.Analyzed, report.Batch.FromCache))
	text.WriteString(fmt.Sprintf("Failed: %d\n", report.Batch.Failed))
	text.WriteString(fmt.Sprintf("Duration: %s\n", report.Batch.Duration))

	if agg := report.Aggregation; agg != nil {
		text.WriteString("\nSENTIMENT\n")
		text.WriteString("=========\n")
		text.WriteString(fmt.Sprintf("Positive: %d\n", agg.SentimentCounts.Positive))
		text.WriteString(fmt.Sprintf("Negative: %d\n", agg.SentimentCounts.Negative))
		text.WriteString(fmt.Sprintf("Neutral: %d\n", agg.SentimentCounts.Neutral))
		text.WriteString(fmt.Sprintf("Mixed: %d\n", agg.SentimentCounts.Mixed))
		text.WriteString(fmt.Sprintf("Average sentiment: %.2f\n", agg.AverageSentiment))
		text.WriteString(fmt.Sprintf("Average toxicity: %.2f\n", agg.AverageToxicity))

		if len(agg.TopTopics) > 0 {
			text.WriteString(fmt.Sprintf("\nTop topics: %s\n", strings.Join(agg.TopTopics, ", ")))
		}
		if len(agg.TopPhrases) > 0 {
			text.WriteString(fmt.Sprintf("Top phrases: %s\n", strings.Join(agg.TopPhrases, ", ")))
		}
	}

	text.WriteString("\n---\nThis report was generated automatically by CommentIQ.\n")

	return text.String()
}
