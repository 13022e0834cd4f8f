// internal/pkg/pdf/service.go
package pdf

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/SebastiaanKlippert/go-wkhtmltopdf"
	"github.com/orient-appliances/storefront/internal/config"
	"github.com/orient-appliances/storefront/internal/domain/order"
	"github.com/orient-appliances/storefront/internal/domain/pricing"
	"github.com/shopspring/decimal"
)

// Service handles PDF generation
type Service struct {
	config *config.Config
	tmpl   *template.Template
	now    func() time.Time
}

// NewService creates a new PDF service
func NewService(cfg *config.Config) *Service {
	s := &Service{
		config: cfg,
		now:    time.Now,
	}
	s.tmpl = template.Must(template.New("invoice").Funcs(template.FuncMap{
		"money": func(currency string, amount decimal.Decimal) string {
			return pricing.Display(currency, amount, nil)
		},
	}).Parse(invoiceTemplate))
	return s
}

// GenerateInvoice generates a PDF invoice for an order
func (s *Service) GenerateInvoice(o *order.Order) (*bytes.Buffer, error) {
	htmlContent, err := s.GenerateHTML(o)
	if err != nil {
		return nil, fmt.Errorf("failed to generate HTML: %w", err)
	}

	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF generator: %w", err)
	}

	pdfg.Dpi.Set(300)
	pdfg.Orientation.Set(wkhtmltopdf.OrientationPortrait)
	pdfg.PageSize.Set(wkhtmltopdf.PageSizeA4)
	pdfg.Grayscale.Set(false)

	page := wkhtmltopdf.NewPageReader(bytes.NewReader([]byte(htmlContent)))
	page.FooterRight.Set("[page]")
	page.FooterFontSize.Set(9)
	page.Zoom.Set(0.95)

	pdfg.AddPage(page)

	if err := pdfg.Create(); err != nil {
		return nil, fmt.Errorf("failed to create PDF: %w", err)
	}

	return bytes.NewBuffer(pdfg.Bytes()), nil
}

// GenerateHTML renders the invoice page for an order
func (s *Service) GenerateHTML(o *order.Order) (string, error) {
	data := InvoiceData{
		InvoiceNumber: "INV-" + o.OrderNumber,
		InvoiceDate:   s.now().Format("January 2, 2006"),
		Order:         o,
		Company: CompanyInfo{
			Name:    s.config.App.CompanyName,
			Address: s.config.App.CompanyAddress,
			Phone:   s.config.App.CompanyPhone,
			Email:   s.config.App.CompanyEmail,
			Website: s.config.App.CompanyWebsite,
		},
	}

	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}

// InvoiceData represents the data passed to the invoice template
type InvoiceData struct {
	InvoiceNumber string       `json:"invoice_number"`
	InvoiceDate   string       `json:"invoice_date"`
	Order         *order.Order `json:"order"`
	Company       CompanyInfo  `json:"company"`
}

// CompanyInfo represents company information
type CompanyInfo struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Website string `json:"website"`
}

// Invoice HTML template
const invoiceTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Invoice {{.InvoiceNumber}}</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 0; padding: 20px; color: #333; }
        .header { display: flex; justify-content: space-between; margin-bottom: 30px; border-bottom: 2px solid #eee; padding-bottom: 20px; }
        .company-info, .invoice-info { flex: 1; }
        .invoice-info { text-align: right; }
        .invoice-title { font-size: 28px; font-weight: bold; color: #b91c1c; margin-bottom: 10px; }
        .section-title { font-size: 16px; font-weight: bold; margin-bottom: 10px; color: #374151; }
        .items-table { width: 100%; border-collapse: collapse; margin: 30px 0; }
        .items-table th, .items-table td { border: 1px solid #ddd; padding: 12px 8px; text-align: left; }
        .items-table th { background-color: #f8f9fa; }
        .items-table .num { text-align: right; }
        .totals { float: right; width: 320px; }
        .totals table { width: 100%; border-collapse: collapse; }
        .totals td { padding: 8px; border-bottom: 1px solid #eee; text-align: right; }
        .total-row { font-size: 18px; font-weight: bold; border-top: 2px solid #333 !important; }
        .footer { margin-top: 50px; padding-top: 20px; border-top: 1px solid #eee; text-align: center; color: #666; font-size: 12px; }
        .status-badge { display: inline-block; padding: 4px 8px; border-radius: 4px; font-size: 12px; font-weight: bold; background-color: #fef3c7; color: #92400e; }
    </style>
</head>
<body>
    <div class="header">
        <div class="company-info">
            <h1>{{.Company.Name}}</h1>
            {{if .Company.Address}}<p>{{.Company.Address}}</p>{{end}}
            {{if .Company.Phone}}<p>Phone: {{.Company.Phone}}</p>{{end}}
            {{if .Company.Email}}<p>Email: {{.Company.Email}}</p>{{end}}
            {{if .Company.Website}}<p>{{.Company.Website}}</p>{{end}}
        </div>
        <div class="invoice-info">
            <div class="invoice-title">INVOICE</div>
            <p><strong>Invoice #:</strong> {{.InvoiceNumber}}</p>
            <p><strong>Invoice Date:</strong> {{.InvoiceDate}}</p>
            <p><strong>Order #:</strong> {{.Order.OrderNumber}}</p>
            <p><strong>Order Date:</strong> {{.Order.CreatedAt.Format "January 2, 2006"}}</p>
            <p><span class="status-badge">{{.Order.Status}}</span></p>
        </div>
    </div>

    <div>
        <div class="section-title">Deliver To:</div>
        <p><strong>{{.Order.Buyer.Name}}</strong></p>
        <p>{{.Order.Buyer.Address}}</p>
        <p>{{.Order.Buyer.City}}</p>
        <p>Phone: {{.Order.Buyer.Phone}}</p>
        <p>Payment: {{.Order.PaymentMethod}}</p>
        {{if .Order.Note}}<p>Note: {{.Order.Note}}</p>{{end}}
    </div>

    <table class="items-table">
        <thead>
            <tr>
                <th>Item</th>
                <th class="num">Qty</th>
                <th class="num">Price</th>
                <th class="num">Total</th>
            </tr>
        </thead>
        <tbody>
            {{$currency := .Order.Currency}}
            {{range .Order.Items}}
            <tr>
                <td><strong>{{.Name}}</strong></td>
                <td class="num">{{.Quantity}}</td>
                <td class="num">{{money $currency .UnitPrice}}</td>
                <td class="num">{{money $currency .LineTotal}}</td>
            </tr>
            {{end}}
        </tbody>
    </table>

    <div class="totals">
        <table>
            <tr>
                <td>Subtotal:</td>
                <td>{{money .Order.Currency .Order.Subtotal}}</td>
            </tr>
            <tr>
                <td>Shipping:</td>
                <td>{{money .Order.Currency .Order.ShippingCharge}}</td>
            </tr>
            <tr class="total-row">
                <td>Total:</td>
                <td>{{money .Order.Currency .Order.Total}}</td>
            </tr>
        </table>
    </div>

    <div style="clear: both;"></div>

    <div class="footer">
        <p>Thank you for shopping with {{.Company.Name}}!</p>
        {{if .Company.Phone}}<p>Questions about this invoice? Call us at {{.Company.Phone}}</p>{{end}}
    </div>
</body>
</html>
`
