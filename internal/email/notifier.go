package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	subjectPhotosReady        = "Foto Photobox Anda Sudah Siap! 📸"
	subjectPhotosReadyInvoice = "Invoice & Foto Photobox Anda Sudah Siap! 📸"
)

// PhotosReady is the content of the delivery email.
type PhotosReady struct {
	To          string
	ExternalID  string
	GalleryURL  string
	Amount      decimal.Decimal
	PaidAt      *time.Time
	ExpiresAt   time.Time
	SendInvoice bool
}

type Notifier struct {
	provider Provider
	tmpl     *template.Template
	loc      *time.Location
	printer  *message.Printer
}

// NewNotifier renders dates in loc, the kiosk timezone.
func NewNotifier(provider Provider, loc *time.Location) (*Notifier, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/photos_ready.html")
	if err != nil {
		return nil, fmt.Errorf("parsing email templates: %w", err)
	}

	if loc == nil {
		loc = time.UTC
	}

	return &Notifier{
		provider: provider,
		tmpl:     tmpl,
		loc:      loc,
		printer:  message.NewPrinter(language.Indonesian),
	}, nil
}

func (n *Notifier) PhotosReady(ctx context.Context, msg PhotosReady) error {
	paidAt := "N/A"
	if msg.PaidAt != nil {
		paidAt = msg.PaidAt.In(n.loc).Format("02 January 2006, 15:04")
	}

	data := struct {
		ExternalID  string
		GalleryURL  string
		Amount      string
		PaidAt      string
		ExpiresAt   string
		SendInvoice bool
	}{
		ExternalID:  msg.ExternalID,
		GalleryURL:  msg.GalleryURL,
		Amount:      n.FormatIDR(msg.Amount),
		PaidAt:      paidAt,
		ExpiresAt:   msg.ExpiresAt.In(n.loc).Format("02 January 2006"),
		SendInvoice: msg.SendInvoice,
	}

	var body bytes.Buffer
	if err := n.tmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("rendering email: %w", err)
	}

	subject := subjectPhotosReady
	if msg.SendInvoice {
		subject = subjectPhotosReadyInvoice
	}

	if err := n.provider.Send(ctx, msg.To, subject, body.String(), true); err != nil {
		return fmt.Errorf("sending email to %s: %w", msg.To, err)
	}

	return nil
}

// FormatIDR formats whole rupiah with Indonesian digit grouping, e.g. Rp 35.000.
func (n *Notifier) FormatIDR(amount decimal.Decimal) string {
	return n.printer.Sprintf("Rp %d", amount.Round(0).IntPart())
}
