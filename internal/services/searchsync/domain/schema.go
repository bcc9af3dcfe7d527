package domain

import (
	"fmt"
	"slices"
	"time"

	perr "gscsync/internal/platform/errors"
	str "gscsync/internal/platform/strings"
)

// MaxTextRunes bounds free-text display fields
const MaxTextRunes = 2000

// Kind is the storage type of a destination property
type Kind string

// Kinds of destination properties. KindText and KindFloat are what SQL columns report.
const (
	KindTitle    Kind = "title"
	KindRichText Kind = "rich_text"
	KindURL      Kind = "url"
	KindSelect   Kind = "select"
	KindDate     Kind = "date"
	KindNumber   Kind = "number"
	KindText     Kind = "text"
)

// Compatible reports whether a remote property of kind remote can store values of kind k
func (k Kind) Compatible(remote Kind) bool {
	if k == remote {
		return true
	}
	if remote == KindText {
		switch k {
		case KindTitle, KindRichText, KindURL, KindSelect:
			return true
		}
	}
	return false
}

// Field is a logical record field
type Field string

// Record fields
const (
	FieldKey         Field = "key"
	FieldDate        Field = "date"
	FieldQuery       Field = "query"
	FieldPage        Field = "page"
	FieldCountry     Field = "country"
	FieldDevice      Field = "device"
	FieldClicks      Field = "clicks"
	FieldImpressions Field = "impressions"
	FieldCTR         Field = "ctr"
	FieldPosition    Field = "position"
)

// Fields lists every field in projection order
var Fields = []Field{
	FieldKey, FieldDate, FieldQuery, FieldPage, FieldCountry, FieldDevice,
	FieldClicks, FieldImpressions, FieldCTR, FieldPosition,
}

var weeklyFields = []Field{FieldKey, FieldDate, FieldDevice, FieldClicks, FieldImpressions, FieldCTR, FieldPosition}

// Property maps a field to a named, typed destination property
type Property struct {
	Field Field
	Name  string
	Kind  Kind
}

// Schema is the ordered set of properties written for each record
type Schema struct {
	props []Property
}

var defaultProps = []Property{
	{FieldKey, "Clé", KindTitle},
	{FieldDate, "Date", KindDate},
	{FieldQuery, "Requête", KindRichText},
	{FieldPage, "Page", KindURL},
	{FieldCountry, "Pays", KindSelect},
	{FieldDevice, "Appareil", KindSelect},
	{FieldClicks, "Clics", KindNumber},
	{FieldImpressions, "Impressions", KindNumber},
	{FieldCTR, "CTR", KindNumber},
	{FieldPosition, "Position", KindNumber},
}

// DefaultSchema returns the stock property names; names overrides entries by field
func DefaultSchema(names map[Field]string) (Schema, error) {
	props := slices.Clone(defaultProps)
	for i := range props {
		if n := names[props[i].Field]; n != "" {
			props[i].Name = n
		}
	}
	return NewSchema(props...)
}

// NewSchema checks that the key field is a title and that names are unique
func NewSchema(props ...Property) (Schema, error) {
	seen := map[string]bool{}
	hasKey := false
	for _, p := range props {
		if p.Name == "" {
			return Schema{}, perr.Configf(string(p.Field), "property name for %s is empty", p.Field)
		}
		if seen[p.Name] {
			return Schema{}, perr.Configf(p.Name, "property %q is used twice", p.Name)
		}
		seen[p.Name] = true
		if p.Field == FieldKey {
			if p.Kind != KindTitle {
				return Schema{}, perr.Configf(p.Name, "key property %q must be a title", p.Name)
			}
			hasKey = true
		}
	}
	if !hasKey {
		return Schema{}, perr.Configf(string(FieldKey), "schema has no key property")
	}
	return Schema{props: props}, nil
}

// Properties returns a copy of the properties
func (s Schema) Properties() []Property { return slices.Clone(s.props) }

// Property returns the property for f
func (s Schema) Property(f Field) (Property, bool) {
	for _, p := range s.props {
		if p.Field == f {
			return p, true
		}
	}
	return Property{}, false
}

// Name is the destination name of f, empty when the schema does not carry it
func (s Schema) Name(f Field) string {
	p, _ := s.Property(f)
	return p.Name
}

// ForMode narrows the schema to the fields a mode writes
func (s Schema) ForMode(m Mode) Schema {
	if m != ModeWeeklyDevice {
		return s
	}
	out := make([]Property, 0, len(weeklyFields))
	for _, p := range s.props {
		if slices.Contains(weeklyFields, p.Field) {
			out = append(out, p)
		}
	}
	return Schema{props: out}
}

// Validate compares the schema with the property kinds a destination reports
func (s Schema) Validate(remote map[string]Kind) error {
	for _, p := range s.props {
		got, ok := remote[p.Name]
		if !ok {
			return perr.Configf(p.Name, "destination has no property %q (%s)", p.Name, p.Kind)
		}
		if !p.Kind.Compatible(got) {
			return perr.Configf(p.Name, "property %q is %s, want %s", p.Name, got, p.Kind)
		}
	}
	return nil
}

// Value is one projected property. Text is empty for a null text value.
type Value struct {
	Property
	Text   string
	Number float64
	Date   time.Time
}

// Project turns a record into property values in schema order.
// Free text is truncated here, after the key was derived from the raw values.
func (s Schema) Project(rec Record) []Value {
	out := make([]Value, 0, len(s.props))
	for _, p := range s.props {
		v := Value{Property: p}
		switch p.Field {
		case FieldKey:
			v.Text = rec.Key
		case FieldDate:
			v.Date = rec.Date
		case FieldQuery:
			v.Text = str.Truncate(rec.Query, MaxTextRunes)
		case FieldPage:
			v.Text = str.Truncate(rec.Page, MaxTextRunes)
		case FieldCountry:
			v.Text = rec.Country
		case FieldDevice:
			v.Text = rec.Device
		case FieldClicks:
			v.Number = rec.Clicks
		case FieldImpressions:
			v.Number = rec.Impressions
		case FieldCTR:
			v.Number = rec.CTR
		case FieldPosition:
			v.Number = rec.Position
		default:
			panic(fmt.Sprintf("domain: unknown field %q", p.Field))
		}
		out = append(out, v)
	}
	return out
}
