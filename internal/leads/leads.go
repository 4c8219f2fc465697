// Package leads packages the public price-request form into a formatted
// summary message. Building the text is the whole contract: no submission
// transport exists, the message is logged and shown back to the operator.
package leads

import (
	"fmt"
	"strings"
)

const notSpecified = "Not specified"

// Request holds the fields collected by the price-request flow.
type Request struct {
	Name           string
	Email          string
	Phone          string
	City           string
	Brand          string
	Model          string
	Year           string
	Engine         string
	Power          string
	ContactMethods []string // preferred ways to reach the customer
	Comment        string
}

// Message renders the request as one formatted text block, ready to be
// forwarded as-is to whatever channel eventually carries leads.
func (r Request) Message() string {
	var builder strings.Builder

	builder.WriteString("🚗 *CHIP-TUNING PRICE REQUEST*\n\n")

	builder.WriteString("👤 *Contact details:*\n")
	builder.WriteString(fmt.Sprintf("• Name: %s\n", orDefault(r.Name)))
	builder.WriteString(fmt.Sprintf("• Email: %s\n", orDefault(r.Email)))
	builder.WriteString(fmt.Sprintf("• Phone: %s\n", orDefault(r.Phone)))
	builder.WriteString(fmt.Sprintf("• City: %s\n\n", orDefault(r.City)))

	builder.WriteString("🚘 *Vehicle:*\n")
	builder.WriteString(fmt.Sprintf("• Brand: %s\n", orDefault(r.Brand)))
	builder.WriteString(fmt.Sprintf("• Model: %s\n", orDefault(r.Model)))
	builder.WriteString(fmt.Sprintf("• Year: %s\n", orDefault(r.Year)))
	builder.WriteString(fmt.Sprintf("• Engine: %s\n", orDefault(r.Engine)))
	builder.WriteString(fmt.Sprintf("• Power: %s hp\n\n", orDefault(r.Power)))

	builder.WriteString("📞 *Preferred contact method:*\n")
	if len(r.ContactMethods) > 0 {
		builder.WriteString(strings.Join(r.ContactMethods, ", "))
	} else {
		builder.WriteString(notSpecified)
	}
	builder.WriteString("\n\n")

	builder.WriteString("💬 *Comment:*\n")
	if r.Comment != "" {
		builder.WriteString(r.Comment)
	} else {
		builder.WriteString("None")
	}

	return builder.String()
}

func orDefault(value string) string {
	if strings.TrimSpace(value) == "" {
		return notSpecified
	}
	return value
}
