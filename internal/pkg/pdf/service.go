// internal/pkg/pdf/service.go
package pdf

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/SebastiaanKlippert/go-wkhtmltopdf"
	"github.com/your-org/caseledger-backend/internal/config"
	"github.com/your-org/caseledger-backend/internal/domain/audit"
)

// Service handles PDF generation
type Service struct {
	config *config.Config
}

// NewService creates a new PDF service
func NewService(cfg *config.Config) *Service {
	return &Service{
		config: cfg,
	}
}

// GenerateAuditReport renders a discrepancy audit report as a PDF
func (s *Service) GenerateAuditReport(report *audit.Report) (*bytes.Buffer, error) {
	// Prepare template data
	data := AuditReportData{
		Title:       fmt.Sprintf("Discrepancy Audit — %s", report.GeneratedAt.Format("January 2, 2006")),
		GeneratedAt: report.GeneratedAt.Format(time.RFC1123),
		Report:      report,
		Company: CompanyInfo{
			Name:    s.config.App.CompanyName,
			Address: s.config.App.CompanyAddress,
			Phone:   s.config.App.CompanyPhone,
			Email:   s.config.App.CompanyEmail,
		},
	}

	// Generate HTML from template
	htmlContent, err := s.generateHTML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to generate HTML: %w", err)
	}

	// Convert HTML to PDF
	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF generator: %w", err)
	}

	// Set PDF options
	pdfg.Dpi.Set(300)
	pdfg.Orientation.Set(wkhtmltopdf.OrientationPortrait)
	pdfg.Grayscale.Set(false)

	// Add page from HTML content
	page := wkhtmltopdf.NewPageReader(bytes.NewReader([]byte(htmlContent)))
	page.FooterRight.Set("[page]")
	page.FooterFontSize.Set(9)
	page.Zoom.Set(0.95)

	pdfg.AddPage(page)

	// Create PDF
	err = pdfg.Create()
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF: %w", err)
	}

	return bytes.NewBuffer(pdfg.Bytes()), nil
}

// generateHTML generates HTML content from template
func (s *Service) generateHTML(data AuditReportData) (string, error) {
	tmpl := template.Must(template.New("audit").Parse(auditTemplate))

	var buf bytes.Buffer
	err := tmpl.Execute(&buf, data)
	if err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}

// AuditReportData represents the data passed to the audit template
type AuditReportData struct {
	Title       string        `json:"title"`
	GeneratedAt string        `json:"generated_at"`
	Report      *audit.Report `json:"report"`
	Company     CompanyInfo   `json:"company"`
}

// CompanyInfo represents company information
type CompanyInfo struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
}

// Audit report HTML template
const auditTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.Title}}</title>
    <style>
        body {
            font-family: Arial, sans-serif;
            margin: 0;
            padding: 20px;
            color: #333;
        }
        .header {
            display: flex;
            justify-content: space-between;
            margin-bottom: 30px;
            border-bottom: 2px solid #eee;
            padding-bottom: 20px;
        }
        .report-title {
            font-size: 28px;
            font-weight: bold;
            color: #2563eb;
            margin-bottom: 10px;
        }
        .severity {
            display: inline-block;
            padding: 4px 12px;
            border-radius: 4px;
            font-weight: bold;
            color: #fff;
        }
        .severity-normal { background: #16a34a; }
        .severity-warning { background: #d97706; }
        .severity-critical { background: #dc2626; }
        .totals-table, .findings-table {
            width: 100%;
            border-collapse: collapse;
            margin-bottom: 30px;
        }
        .totals-table th, .totals-table td,
        .findings-table th, .findings-table td {
            border: 1px solid #ddd;
            padding: 8px;
            text-align: left;
        }
        .totals-table th, .findings-table th {
            background: #f3f4f6;
        }
        .section-title {
            font-size: 16px;
            font-weight: bold;
            margin-bottom: 10px;
            color: #374151;
        }
    </style>
</head>
<body>
    <div class="header">
        <div>
            <div class="report-title">{{.Title}}</div>
            <div>Generated: {{.GeneratedAt}}</div>
        </div>
        <div style="text-align: right;">
            <strong>{{.Company.Name}}</strong><br>
            {{.Company.Address}}<br>
            {{.Company.Phone}}<br>
            {{.Company.Email}}
        </div>
    </div>

    <div class="section-title">Totals</div>
    <table class="totals-table">
        <tr><th>Orders total</th><td>{{.Report.OrdersTotal}}</td></tr>
        <tr><th>Inventory total</th><td>{{.Report.InventoryTotal}}</td></tr>
        <tr><th>Discrepancy</th><td>{{printf "%.1f" .Report.DiscrepancyPercent}}%</td></tr>
        <tr><th>Severity</th><td><span class="severity severity-{{.Report.Severity}}">{{.Report.Severity}}</span></td></tr>
        <tr><th>Orders</th><td>{{.Report.OrderCount}}</td></tr>
        <tr><th>Ledger items</th><td>{{.Report.ItemCount}}</td></tr>
    </table>

    <div class="section-title">Findings</div>
    <table class="findings-table">
        <tr><th>Tag</th><th>Description</th></tr>
        {{range .Report.Findings}}
        <tr><td>{{.Tag}}</td><td>{{.Description}}</td></tr>
        {{else}}
        <tr><td colspan="2">No findings</td></tr>
        {{end}}
    </table>

    <div class="section-title">Recommendations (advisory only)</div>
    <table class="findings-table">
        <tr><th>#</th><th>Action</th><th>Expected gain</th></tr>
        {{range .Report.Recommendations}}
        <tr><td>{{.Rank}}</td><td>{{.Action}}</td><td>{{.ExpectedGain}}</td></tr>
        {{else}}
        <tr><td colspan="3">None</td></tr>
        {{end}}
    </table>
</body>
</html>
`
