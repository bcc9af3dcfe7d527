package domain

import (
	"strings"
	"time"

	perr "gscsync/internal/platform/errors"
	tim "gscsync/internal/platform/time"
)

// KeySep joins key fields
const KeySep = "|"

const weeklySuffix = "weekly"

var keyEscaper = strings.NewReplacer(`\`, `\\`, `|`, `\|`)

// DetailKey identifies a detail record
type DetailKey struct {
	Date    time.Time
	Query   string
	Page    string
	Country string
	Device  string
}

func (k DetailKey) String() string {
	return joinKey(tim.FormatDate(k.Date), k.Query, k.Page, k.Country, k.Device)
}

// WeeklyKey identifies a weekly device bucket
type WeeklyKey struct {
	WeekStart time.Time
	Device    string
}

func (k WeeklyKey) String() string {
	return joinKey(tim.FormatDate(k.WeekStart), k.Device, weeklySuffix)
}

func joinKey(fields ...string) string {
	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteString(KeySep)
		}
		_, _ = keyEscaper.WriteString(&b, f)
	}
	return b.String()
}

// SplitKey reverses String: it splits on unescaped separators and unescapes each field
func SplitKey(s string) []string {
	var (
		out []string
		cur strings.Builder
	)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '\\' && i+1 < len(s):
			i++
			cur.WriteByte(s[i])
		case c == '|':
			out = append(out, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	return append(out, cur.String())
}

// DetailKeyFromRow reads a detail row keyed by date, query, page, country, device
func DetailKeyFromRow(r Row) (DetailKey, error) {
	if len(r.Keys) != len(ModeDetail.Dimensions()) {
		return DetailKey{}, perr.InvalidArgf("detail row has %d keys, want %d", len(r.Keys), len(ModeDetail.Dimensions()))
	}
	d, err := tim.ParseDate(r.Keys[0])
	if err != nil {
		return DetailKey{}, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "detail row date %q", r.Keys[0])
	}
	return DetailKey{Date: d, Query: r.Keys[1], Page: r.Keys[2], Country: r.Keys[3], Device: r.Keys[4]}, nil
}

// DetailRecord builds the destination record for a detail row
func DetailRecord(k DetailKey, m Metrics) Record {
	return Record{
		Mode:    ModeDetail,
		Key:     k.String(),
		Date:    k.Date,
		Query:   k.Query,
		Page:    k.Page,
		Country: k.Country,
		Device:  k.Device,
		Metrics: m,
	}
}

// WeeklyRecord builds the destination record for a finalized weekly bucket
func WeeklyRecord(k WeeklyKey, m Metrics) Record {
	return Record{
		Mode:    ModeWeeklyDevice,
		Key:     k.String(),
		Date:    k.WeekStart,
		Device:  k.Device,
		Metrics: m,
	}
}
