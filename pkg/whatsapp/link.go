package whatsapp

import (
	"fmt"
	"net/url"
	"strings"

	pkgerrors "github.com/tallyhq/tally-backend/pkg/errors"
)

// OrderLine is a single item rendered into the handoff message.
type OrderLine struct {
	Title    string
	Variant  string
	Quantity int
}

// OrderSummary carries the fields included in the wa.me message body.
// OrderID is the full order identifier; only its first eight characters
// appear in the message header.
type OrderSummary struct {
	OrderID string
	Lines   []OrderLine
	Total   string
}

// SanitizePhone strips every non-digit rune so the number fits the wa.me
// format, e.g. "+234 801 234 5678" becomes "2348012345678".
func SanitizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// DeepLink builds a wa.me URL that opens a chat with the store's WhatsApp
// number, prefilled with the order summary.
func DeepLink(phone string, summary OrderSummary) (string, error) {
	digits := SanitizePhone(phone)
	if digits == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "store has no WhatsApp number configured")
	}
	return fmt.Sprintf("https://wa.me/%s?text=%s", digits, url.QueryEscape(Message(summary))), nil
}

// Message renders the prefilled chat body for an order handoff.
func Message(summary OrderSummary) string {
	shortID := summary.OrderID
	if len(shortID) > 8 {
		shortID = shortID[:8]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "*New Order #%s*\n\n", shortID)
	for _, line := range summary.Lines {
		name := line.Title
		if line.Variant != "" {
			name = fmt.Sprintf("%s (%s)", line.Title, line.Variant)
		}
		fmt.Fprintf(&b, "• %s (x%d)\n", name, line.Quantity)
	}
	fmt.Fprintf(&b, "\n*Total: %s*", summary.Total)
	b.WriteString("\n\nI would like to pay for this order.")
	return b.String()
}
