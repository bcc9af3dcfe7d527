package repo

import (
	"strings"

	"gscsync/internal/services/searchsync/domain"
)

// Column names for the SQL destinations are the logical field names
// so they do not follow the Notion display names.

// columnSchema renames every property to its field name
func columnSchema(s domain.Schema) domain.Schema {
	props := s.Properties()
	for i := range props {
		props[i].Name = string(props[i].Field)
	}
	out, err := domain.NewSchema(props...)
	if err != nil {
		panic("repo: column schema: " + err.Error())
	}
	return out
}

func columnNames(vals []domain.Value) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = v.Name
	}
	return out
}

// sqlKind maps an information_schema or system.columns type to a domain kind
func sqlKind(t string) domain.Kind {
	t = strings.ToLower(strings.TrimSpace(t))
	for _, wrap := range []string{"nullable(", "lowcardinality("} {
		for strings.HasPrefix(t, wrap) {
			t = strings.TrimSuffix(strings.TrimPrefix(t, wrap), ")")
		}
	}
	switch {
	case t == "text", t == "string", strings.HasPrefix(t, "character"), strings.HasPrefix(t, "varchar"),
		strings.HasPrefix(t, "fixedstring"):
		return domain.KindText
	case t == "date", strings.HasPrefix(t, "date32"), strings.HasPrefix(t, "timestamp"), strings.HasPrefix(t, "datetime"):
		return domain.KindDate
	case t == "double precision", t == "real", strings.HasPrefix(t, "numeric"), strings.HasPrefix(t, "decimal"),
		t == "integer", t == "bigint", t == "smallint",
		strings.HasPrefix(t, "float"), strings.HasPrefix(t, "int"), strings.HasPrefix(t, "uint"):
		return domain.KindNumber
	default:
		return domain.Kind(t)
	}
}
