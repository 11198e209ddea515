// Package messaging renders guest-facing WhatsApp messages from booking data.
package messaging

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/staydesk/backend/internal/domain/booking"
	"github.com/staydesk/backend/internal/domain/shared"
	"github.com/staydesk/backend/internal/domain/shared/valueobject"
)

// Template names
const (
	BookingConfirmation = "booking_confirmation"
	PaymentReminder     = "payment_reminder"
	CheckInInstructions = "check_in_instructions"
	ThankYou            = "thank_you"
	Default             = "default"
)

// MessageDateLayout formats stay dates in messages
const MessageDateLayout = "02 Jan 2006"

var builtinTemplates = map[string]string{
	BookingConfirmation: `Hi {{.GuestName}}, your booking {{.BookingID}} at {{.PropertyName}} is confirmed.
Check-in: {{date .CheckIn}}
Check-out: {{date .CheckOut}} ({{.Nights}} night{{if ne .Nights 1}}s{{end}})
Guests: {{.Guests}}
Total: {{inr .Total}}
We look forward to hosting you!`,

	PaymentReminder: `Hi {{.GuestName}}, a gentle reminder for booking {{.BookingID}} at {{.PropertyName}}.
Total: {{inr .Total}}
Paid so far: {{inr .Paid}}
Balance due: {{inr .Balance}}
Please complete the payment before check-in on {{date .CheckIn}}. Thank you!`,

	CheckInInstructions: `Hi {{.GuestName}}, welcome to {{.PropertyName}}!
Your check-in is on {{date .CheckIn}}.{{if .PropertyAddress}}
Address: {{.PropertyAddress}}{{end}}
Booking reference: {{.BookingID}}
Reply here if you need anything on arrival.`,

	ThankYou: `Hi {{.GuestName}}, thank you for staying at {{.PropertyName}}!
We hope you enjoyed your {{.Nights}} night{{if ne .Nights 1}}s{{end}} with us. We would love to host you again.`,

	Default: `Hi {{.GuestName}}, this is a message about your booking {{.BookingID}} at {{.PropertyName}} ({{date .CheckIn}} to {{date .CheckOut}}).`,
}

// Data is the input to a template
type Data struct {
	Reservation     booking.Reservation
	PropertyName    string
	PropertyAddress string
	// Ledger is optional; without it Paid is zero and Balance equals Total.
	Ledger *booking.Ledger
}

// view is what templates see
type view struct {
	GuestName       string
	BookingID       string
	PropertyName    string
	PropertyAddress string
	CheckIn         time.Time
	CheckOut        time.Time
	Nights          int
	Guests          int
	Total           decimal.Decimal
	Paid            decimal.Decimal
	Balance         decimal.Decimal
}

// Rendered is a rendered message
type Rendered struct {
	Template string `json:"template"`
	Text     string `json:"text"`
	// FellBack is true when the requested template was unknown
	FellBack bool `json:"fell_back"`
}

// Renderer holds parsed templates
type Renderer struct {
	templates map[string]*template.Template
}

// NewRenderer parses the built-in templates. Overrides replace or add
// templates by name.
func NewRenderer(overrides map[string]string) (*Renderer, error) {
	funcs := template.FuncMap{
		"inr":   func(d decimal.Decimal) string { return valueobject.FormatINR(d, false) },
		"date":  func(t time.Time) string { return t.Format(MessageDateLayout) },
		"title": func(s string) string { return cases.Title(language.English).String(s) },
	}

	sources := make(map[string]string, len(builtinTemplates)+len(overrides))
	for name, src := range builtinTemplates {
		sources[name] = src
	}
	for name, src := range overrides {
		sources[name] = src
	}

	r := &Renderer{templates: make(map[string]*template.Template, len(sources))}
	for name, src := range sources {
		tmpl, err := template.New(name).Funcs(funcs).Option("missingkey=error").Parse(src)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.templates[name] = tmpl
	}
	return r, nil
}

// Names lists the available templates
func (r *Renderer) Names() []string {
	names := make([]string, 0, len(r.templates))
	for name := range r.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Render renders the named template, falling back to the default one
func (r *Renderer) Render(name string, data Data) (Rendered, error) {
	out := Rendered{Template: name}
	tmpl, ok := r.templates[name]
	if !ok {
		tmpl, ok = r.templates[Default]
		if !ok {
			return Rendered{}, shared.ErrTemplateAbsent
		}
		out.Template = Default
		out.FellBack = true
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, newView(data)); err != nil {
		return Rendered{}, fmt.Errorf("render template %s: %w", out.Template, err)
	}
	out.Text = strings.TrimSpace(buf.String())
	return out, nil
}

func newView(d Data) view {
	r := d.Reservation
	v := view{
		GuestName:       firstName(r.GuestName),
		BookingID:       r.BookingID,
		PropertyName:    d.PropertyName,
		PropertyAddress: d.PropertyAddress,
		CheckIn:         r.CheckIn,
		CheckOut:        r.CheckOut,
		Nights:          r.Nights,
		Guests:          r.Adults + r.Children,
		Total:           r.TotalAmount,
		Paid:            decimal.Zero,
		Balance:         r.TotalAmount,
	}
	if v.PropertyName == "" {
		v.PropertyName = "our property"
	}
	if d.Ledger != nil {
		v.Paid = d.Ledger.Paid
		v.Balance = d.Ledger.BalanceDue
	}
	return v
}

func firstName(full string) string {
	fields := strings.Fields(full)
	if len(fields) == 0 {
		return "there"
	}
	return cases.Title(language.English).String(fields[0])
}
