package services

import (
	"fmt"
	"net/smtp"
	"os"
	"regexp"
	"strings"

	"backend/models"

	"golang.org/x/net/html"
)

// convertHTMLToText flattens an HTML alert body into plain text for the
// text/plain part of the mail.
func convertHTMLToText(htmlContent string) string {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return htmlContent
	}

	var text strings.Builder
	var extractText func(*html.Node)
	extractText = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			text.WriteString(n.Data)
		case html.ElementNode:
			switch n.Data {
			case "p", "div", "br", "h1", "h2", "h3", "h4", "h5", "h6", "table", "tr":
				text.WriteString("\n")
			case "li":
				text.WriteString("- ")
			case "td", "th":
				text.WriteString(" | ")
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			extractText(child)
		}
	}
	extractText(doc)

	result := text.String()
	result = strings.ReplaceAll(result, "\n\n\n", "\n\n")
	return strings.TrimSpace(result)
}

// AlertService mails the planning team when the nightly scan finds BOM
// problems.
type AlertService struct {
	recipients []string
}

// NewAlertService reads the recipient list from ALERT_RECIPIENTS
// (comma-separated).
func NewAlertService() *AlertService {
	var recipients []string
	for _, r := range strings.Split(os.Getenv("ALERT_RECIPIENTS"), ",") {
		if r = strings.TrimSpace(r); r != "" {
			recipients = append(recipients, r)
		}
	}
	return &AlertService{recipients: recipients}
}

const scanAlertTemplate = `
<h2>BOM scan report {{scan_date}}</h2>
<p>Scanned {{scanned_boms}} BOMs.</p>
<p>Circular dependencies: {{circular_boms}}</p>
<p>Products with multiple ACTIVE BOMs: {{conflicted_products}}</p>
<p>Review the dashboard before confirming new production orders.</p>`

// SendScanReport mails the outcome of a completed scan job. It is a no-op
// when no recipients are configured.
func (as *AlertService) SendScanReport(job models.ScanJob) error {
	if len(as.recipients) == 0 {
		return nil
	}

	body, err := processTemplate(scanAlertTemplate, map[string]string{
		"scan_date":           job.StartedAt.Format("2006-01-02"),
		"scanned_boms":        fmt.Sprintf("%d", job.ScannedBOMs),
		"circular_boms":       fmt.Sprintf("%d", job.CircularBOMs),
		"conflicted_products": fmt.Sprintf("%d", job.ConflictedSKUs),
	})
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("BOM scan %s: %d circular, %d conflicted",
		job.StartedAt.Format("2006-01-02"), job.CircularBOMs, job.ConflictedSKUs)
	return sendEmail(as.recipients, subject, convertHTMLToText(body))
}

var templateVarPattern = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// processTemplate substitutes {{key}} placeholders and rejects unknown ones,
// so a typo in a template fails loudly instead of mailing raw braces.
func processTemplate(templateStr string, variables map[string]string) (string, error) {
	for _, match := range templateVarPattern.FindAllStringSubmatch(templateStr, -1) {
		key := strings.TrimSpace(match[1])
		if _, ok := variables[key]; !ok {
			return "", fmt.Errorf("invalid variable: %s", key)
		}
	}

	result := templateStr
	for key, value := range variables {
		result = strings.ReplaceAll(result, fmt.Sprintf("{{%s}}", key), value)
	}
	return result, nil
}

// sendEmail sends a plain-text mail through the SMTP relay configured in the
// environment.
func sendEmail(to []string, subject, body string) error {
	host := os.Getenv("SMTP_HOST")
	port := os.Getenv("SMTP_PORT")
	user := os.Getenv("SMTP_USER")
	password := os.Getenv("SMTP_PASSWORD")
	from := os.Getenv("SMTP_FROM")
	if from == "" {
		from = user
	}

	auth := smtp.PlainAuth("", user, password, host)

	headers := []string{
		"From: " + from,
		"To: " + strings.Join(to, ", "),
		"Subject: " + subject,
		"",
		body,
	}
	msg := []byte(strings.Join(headers, "\r\n") + "\r\n")

	return smtp.SendMail(host+":"+port, auth, from, to, msg)
}
