package printing

import (
	"bytes"
	"context"
	"html/template"
	"time"

	warrantyapp "github.com/warrantyhub/backend/internal/application/warranty"
	"github.com/warrantyhub/backend/internal/domain/warranty"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const certificateDateLayout = "January 2, 2006"

const certificateTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>Warranty Certificate {{.RegistrationID}}</title>
<style>
body { font-family: Helvetica, Arial, sans-serif; color: #1f2933; margin: 0; }
.card { border: 2px solid #1f2933; border-radius: 8px; padding: 24px 32px; }
h1 { font-size: 24px; margin: 0 0 4px 0; }
.subtitle { color: #616e7c; margin-bottom: 20px; }
table { width: 100%; border-collapse: collapse; margin-bottom: 16px; }
th { text-align: left; width: 40%; color: #616e7c; font-weight: normal; padding: 4px 0; }
td { padding: 4px 0; }
.status { display: inline-block; padding: 2px 10px; border-radius: 12px; font-weight: bold; }
.status-active { background: #e3f9e5; color: #207227; }
.status-expiring_soon { background: #fff3c4; color: #8d2b0b; }
.status-expired { background: #ffe3e3; color: #ab091e; }
.footer { font-size: 11px; color: #9aa5b1; margin-top: 24px; }
</style>
</head>
<body>
<div class="card">
<h1>Warranty Certificate</h1>
<div class="subtitle">Certificate No. {{.RegistrationID}}</div>

<h2>Product</h2>
<table>
<tr><th>Product</th><td>{{.ProductName}}</td></tr>
<tr><th>Brand / Model</th><td>{{.Brand}} {{.Model}}</td></tr>
<tr><th>Category</th><td>{{.Category}}</td></tr>
<tr><th>Serial number</th><td>{{.SerialNumber}}</td></tr>
<tr><th>QR code</th><td>{{.QRCode}}</td></tr>
{{- if .Barcode}}
<tr><th>Barcode</th><td>{{.Barcode}}</td></tr>
{{- end}}
</table>

<h2>Owner</h2>
<table>
<tr><th>Name</th><td>{{.CustomerName}}</td></tr>
<tr><th>Email</th><td>{{.CustomerEmail}}</td></tr>
{{- if .CustomerPhone}}
<tr><th>Phone</th><td>{{.CustomerPhone}}</td></tr>
{{- end}}
</table>

<h2>Coverage</h2>
<table>
<tr><th>Purchase date</th><td>{{date .PurchaseDate}}</td></tr>
<tr><th>Coverage period</th><td>{{months .WarrantyPeriodMonths}}</td></tr>
<tr><th>Valid from</th><td>{{date .WarrantyStartDate}}</td></tr>
<tr><th>Valid until</th><td>{{date .WarrantyEndDate}}</td></tr>
<tr><th>Status</th><td><span class="status status-{{.Status}}">{{statusLabel .Status}}</span></td></tr>
<tr><th>Days remaining</th><td>{{number .DaysRemaining}}</td></tr>
</table>

<div class="footer">Issued {{date .IssuedAt}}. Present this certificate with the product when making a warranty claim.</div>
</div>
</body>
</html>
`

// CertificatePrinter renders warranty certificates as HTML and, with a
// PDFRenderer attached, as PDF
type CertificatePrinter struct {
	tmpl     *template.Template
	renderer PDFRenderer
	logger   *zap.Logger
}

// NewCertificatePrinter parses the certificate template. renderer may be nil,
// in which case only HTML is available.
func NewCertificatePrinter(renderer PDFRenderer, logger *zap.Logger) (*CertificatePrinter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := message.NewPrinter(language.English)
	funcs := template.FuncMap{
		"date": func(t time.Time) string {
			return t.Format(certificateDateLayout)
		},
		"number": func(n int) string {
			return p.Sprintf("%d", n)
		},
		"months": func(n int) string {
			if n == 1 {
				return "1 month"
			}
			return p.Sprintf("%d months", n)
		},
		"statusLabel": statusLabel,
	}
	tmpl, err := template.New("certificate").Funcs(funcs).Parse(certificateTemplate)
	if err != nil {
		return nil, NewRenderError(ErrCodeTemplateFailed, "failed to parse certificate template", err)
	}
	return &CertificatePrinter{
		tmpl:     tmpl,
		renderer: renderer,
		logger:   logger,
	}, nil
}

// PDFEnabled reports whether a PDF renderer is attached
func (c *CertificatePrinter) PDFEnabled() bool {
	return c.renderer != nil
}

// RenderHTML fills the certificate template
func (c *CertificatePrinter) RenderHTML(_ context.Context, data *warrantyapp.CertificateData) ([]byte, error) {
	if data == nil {
		return nil, NewRenderError(ErrCodeInvalidHTML, "certificate data is nil", nil)
	}
	var buf bytes.Buffer
	if err := c.tmpl.Execute(&buf, data); err != nil {
		return nil, NewRenderError(ErrCodeTemplateFailed, "failed to execute certificate template", err)
	}
	return buf.Bytes(), nil
}

// RenderPDF prints the certificate on A4 portrait
func (c *CertificatePrinter) RenderPDF(ctx context.Context, data *warrantyapp.CertificateData) ([]byte, error) {
	if c.renderer == nil {
		return nil, NewRenderError(ErrCodeRenderFailed, "no PDF renderer configured", nil)
	}
	html, err := c.RenderHTML(ctx, data)
	if err != nil {
		return nil, err
	}
	result, err := c.renderer.Render(ctx, &RenderRequest{
		HTML:    string(html),
		Margins: DefaultMargins(),
		Title:   "Warranty Certificate " + data.RegistrationID.String(),
	})
	if err != nil {
		return nil, err
	}
	c.logger.Debug("Certificate rendered",
		zap.String("registration_id", data.RegistrationID.String()),
		zap.Int("pages", result.PageCount),
		zap.Duration("duration", result.RenderDuration))
	return result.PDFData, nil
}

func statusLabel(s warranty.Status) string {
	switch s {
	case warranty.StatusActive:
		return "Active"
	case warranty.StatusExpiringSoon:
		return "Expiring soon"
	case warranty.StatusExpired:
		return "Expired"
	default:
		return string(s)
	}
}

var _ warrantyapp.CertificateRenderer = (*CertificatePrinter)(nil)
