package notion

import (
	perr "gscsync/internal/platform/errors"

	json "github.com/goccy/go-json"
)

// Property type names as used by the API
const (
	TypeTitle    = "title"
	TypeRichText = "rich_text"
	TypeURL      = "url"
	TypeSelect   = "select"
	TypeDate     = "date"
	TypeNumber   = "number"
)

// MaxTextRunes is the per rich-text object content limit
const MaxTextRunes = 2000

// Properties maps a property name to its value
type Properties map[string]PropertyValue

// PropertyValue is one typed property. It marshals as {"<type>": value} and an
// empty url, select, date or number is sent as null so updates clear stale values.
type PropertyValue struct {
	Type     string
	Title    []RichText
	RichText []RichText
	URL      *string
	Select   *SelectOption
	Date     *DateValue
	Number   *float64
}

// RichText is a text run; only plain content is used here
type RichText struct {
	Type      string    `json:"type,omitempty"`
	Text      *TextBody `json:"text,omitempty"`
	PlainText string    `json:"plain_text,omitempty"`
}

// TextBody is the content of a text run
type TextBody struct {
	Content string `json:"content"`
}

// SelectOption names a select choice
type SelectOption struct {
	Name string `json:"name"`
}

// DateValue is a date property, start only
type DateValue struct {
	Start string `json:"start"`
}

// MarshalJSON emits the value keyed by its type
func (p PropertyValue) MarshalJSON() ([]byte, error) {
	var v any
	switch p.Type {
	case TypeTitle:
		v = nonNilRuns(p.Title)
	case TypeRichText:
		v = nonNilRuns(p.RichText)
	case TypeURL:
		v = p.URL
	case TypeSelect:
		v = p.Select
	case TypeDate:
		v = p.Date
	case TypeNumber:
		v = p.Number
	default:
		return nil, perr.InvalidArgf("notion: unsupported property type %q", p.Type)
	}
	return json.Marshal(map[string]any{p.Type: v})
}

// UnmarshalJSON reads the page property shape returned by the API
func (p *PropertyValue) UnmarshalJSON(b []byte) error {
	var raw struct {
		Type     string        `json:"type"`
		Title    []RichText    `json:"title"`
		RichText []RichText    `json:"rich_text"`
		URL      *string       `json:"url"`
		Select   *SelectOption `json:"select"`
		Date     *DateValue    `json:"date"`
		Number   *float64      `json:"number"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*p = PropertyValue{
		Type:     raw.Type,
		Title:    raw.Title,
		RichText: raw.RichText,
		URL:      raw.URL,
		Select:   raw.Select,
		Date:     raw.Date,
		Number:   raw.Number,
	}
	return nil
}

// PlainText joins the text runs of a title or rich_text value
func (p PropertyValue) PlainText() string {
	runs := p.Title
	if p.Type == TypeRichText {
		runs = p.RichText
	}
	var s string
	for _, r := range runs {
		switch {
		case r.PlainText != "":
			s += r.PlainText
		case r.Text != nil:
			s += r.Text.Content
		}
	}
	return s
}

func nonNilRuns(r []RichText) []RichText {
	if r == nil {
		return []RichText{}
	}
	return r
}

// Title builds a title value, split into runs of at most MaxTextRunes
func Title(s string) PropertyValue {
	return PropertyValue{Type: TypeTitle, Title: runs(s)}
}

// Text builds a rich_text value, split into runs of at most MaxTextRunes
func Text(s string) PropertyValue {
	return PropertyValue{Type: TypeRichText, RichText: runs(s)}
}

// URL builds a url value; empty becomes null
func URL(s string) PropertyValue {
	p := PropertyValue{Type: TypeURL}
	if s != "" {
		p.URL = &s
	}
	return p
}

// Select builds a select value; empty becomes null
func Select(name string) PropertyValue {
	p := PropertyValue{Type: TypeSelect}
	if name != "" {
		p.Select = &SelectOption{Name: name}
	}
	return p
}

// Date builds a date value from an ISO date; empty becomes null
func Date(start string) PropertyValue {
	p := PropertyValue{Type: TypeDate}
	if start != "" {
		p.Date = &DateValue{Start: start}
	}
	return p
}

// Number builds a number value
func Number(f float64) PropertyValue {
	return PropertyValue{Type: TypeNumber, Number: &f}
}

func runs(s string) []RichText {
	if s == "" {
		return []RichText{}
	}
	rs := []rune(s)
	out := make([]RichText, 0, len(rs)/MaxTextRunes+1)
	for len(rs) > 0 {
		n := min(len(rs), MaxTextRunes)
		out = append(out, RichText{Type: "text", Text: &TextBody{Content: string(rs[:n])}})
		rs = rs[n:]
	}
	return out
}

// Parent points a new page at its database
type Parent struct {
	DatabaseID string `json:"database_id"`
}

type createPageRequest struct {
	Parent     Parent     `json:"parent"`
	Properties Properties `json:"properties"`
}

type updatePageRequest struct {
	Properties Properties `json:"properties"`
}

// Page is a database row
type Page struct {
	ID         string     `json:"id"`
	URL        string     `json:"url,omitempty"`
	Archived   bool       `json:"archived,omitempty"`
	Properties Properties `json:"properties,omitempty"`
}

// Database carries the property schema of a database
type Database struct {
	ID         string                      `json:"id"`
	Title      []RichText                  `json:"title,omitempty"`
	Properties map[string]DatabaseProperty `json:"properties"`
}

// DatabaseProperty describes one column of a database
type DatabaseProperty struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// QueryRequest is the body of a database query
type QueryRequest struct {
	Filter      *Filter `json:"filter,omitempty"`
	PageSize    int     `json:"page_size,omitempty"`
	StartCursor string  `json:"start_cursor,omitempty"`
}

// Filter is a single property filter
type Filter struct {
	Property string         `json:"property"`
	Title    *TextCondition `json:"title,omitempty"`
	RichText *TextCondition `json:"rich_text,omitempty"`
}

// TextCondition matches text properties
type TextCondition struct {
	Equals string `json:"equals"`
}

// TitleEquals filters on an exact title match
func TitleEquals(property, value string) *Filter {
	return &Filter{Property: property, Title: &TextCondition{Equals: value}}
}

// QueryResponse is one page of query results
type QueryResponse struct {
	Results    []Page  `json:"results"`
	HasMore    bool    `json:"has_more"`
	NextCursor *string `json:"next_cursor"`
}
