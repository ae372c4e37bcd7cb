package card

// Field is a canonical card field name as used by template bindings.
type Field string

// Text fields.
const (
	FullName Field = "fullName"
	JobTitle Field = "jobTitle"
	Company  Field = "company"
	Email    Field = "email"
	Phone    Field = "phone"
	Website  Field = "website"
	Address  Field = "address"
	Bio      Field = "bio"
)

// Count fields. These are engagement counters maintained by the card service.
const (
	Views     Field = "views"
	LoveCount Field = "loveCount"
	Shares    Field = "shares"
	Downloads Field = "downloads"
)

// TemplateIDKey is the record key holding the card's template reference.
// It is carried by cards but is not a display field.
const TemplateIDKey = "templateId"

// TextFields lists the text fields in canonical order.
var TextFields = []Field{FullName, JobTitle, Company, Email, Phone, Website, Address, Bio}

// CountFields lists the count fields in canonical order.
var CountFields = []Field{Views, LoveCount, Shares, Downloads}

// Defaults holds the placeholder shown for a text field nobody filled in.
// Count fields default to zero.
var Defaults = map[Field]string{
	FullName: "Your Name",
	JobTitle: "Your Job Title",
	Company:  "Your Company",
	Email:    "email@example.com",
	Phone:    "+1 (555) 000-0000",
	Website:  "www.example.com",
	Address:  "Your Address",
	Bio:      "Tell people a little about yourself.",
}

// profileKeys maps a text field to the owner profile keys tried in order.
// Profiles name a few things differently from cards.
var profileKeys = map[Field][]string{
	FullName: {"name", "fullName"},
	JobTitle: {"title", "jobTitle"},
	Company:  {"company"},
	Email:    {"email"},
	Phone:    {"phone"},
	Website:  {"website"},
	Address:  {"location", "address"},
	Bio:      {"bio"},
}

// IsCount reports whether f is a count field.
func (f Field) IsCount() bool {
	switch f {
	case Views, LoveCount, Shares, Downloads:
		return true
	}
	return false
}

// IsText reports whether f is a text field.
func (f Field) IsText() bool {
	_, ok := Defaults[f]
	return ok
}

// Known reports whether f is any canonical field.
func (f Field) Known() bool { return f.IsText() || f.IsCount() }

// AllFields returns every canonical field, text fields first.
func AllFields() []Field {
	out := make([]Field, 0, len(TextFields)+len(CountFields))
	out = append(out, TextFields...)
	return append(out, CountFields...)
}
