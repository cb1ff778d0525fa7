package letter

import (
	"context"
	"strings"
	"time"
)

// DefaultDateLayout renders the letter date in the US short form (1/2/2006).
const DefaultDateLayout = "1/2/2006"

const (
	accountFallback = "N/A"
	billingLine     = "Please stop all recurring billing associated with my account as of the effective date."
	closingLine     = "Thank you for your prompt attention to this matter."
)

// Render lays out the letter for req dated with date. It does not validate:
// empty fields render as empty segments.
func Render(req Request, date string) string {
	u, s := req.User, req.Subscription

	var b strings.Builder

	line(&b, u.FullName)
	if u.Address != "" {
		line(&b, u.Address)
	}
	line(&b, u.Email)
	if u.Phone != "" {
		line(&b, u.Phone)
	}

	b.WriteString("\n")
	line(&b, "Date: "+date)

	b.WriteString("\n")
	line(&b, "RE: Cancellation of "+s.ServiceName+" Subscription")
	account := s.AccountNumber
	if account == "" {
		account = accountFallback
	}
	line(&b, "Account Number: "+account)

	b.WriteString("\n")
	line(&b, "To the Customer Service Team at "+s.ServiceName+",")

	b.WriteString("\n")
	line(&b, "I am writing to request the cancellation of my "+s.SubscriptionPlan+
		" subscription, effective "+s.EffectiveDate+".")
	if s.CancellationReason != "" {
		line(&b, "Reason for cancellation: "+s.CancellationReason)
	}

	b.WriteString("\n")
	line(&b, billingLine)
	if addendum := req.Tone.Addendum(); addendum != "" {
		line(&b, addendum)
	}

	b.WriteString("\n")
	line(&b, closingLine)

	b.WriteString("\nSincerely,\n\n")
	b.WriteString(u.FullName)

	return b.String()
}

func line(b *strings.Builder, s string) {
	b.WriteString(s)
	b.WriteByte('\n')
}

// Generate renders req dated today in DefaultDateLayout.
func Generate(req Request) string {
	return Render(req, time.Now().Format(DefaultDateLayout))
}

// TemplateGenerator is the injectable form of Generate. The zero value uses
// time.Now and DefaultDateLayout.
type TemplateGenerator struct {
	Now        func() time.Time
	DateLayout string
}

// NewTemplateGenerator returns a generator formatting dates with layout.
func NewTemplateGenerator(layout string) *TemplateGenerator {
	return &TemplateGenerator{Now: time.Now, DateLayout: layout}
}

// Date returns the formatted current date as it will appear in the letter.
func (g *TemplateGenerator) Date() string {
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	layout := g.DateLayout
	if layout == "" {
		layout = DefaultDateLayout
	}
	return now().Format(layout)
}

// Generate renders req. It never returns an error; the signature matches the
// other drafters so callers can treat the template as one more source.
func (g *TemplateGenerator) Generate(_ context.Context, req Request) (string, error) {
	return Render(req, g.Date()), nil
}
