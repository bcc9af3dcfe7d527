package repo

import (
	"context"

	"gscsync/internal/adapters/notion"
	perr "gscsync/internal/platform/errors"
	tim "gscsync/internal/platform/time"
	"gscsync/internal/services/searchsync/domain"
)

// NotionAPI is the subset of the Notion client the destination needs
type NotionAPI interface {
	QueryDatabase(ctx context.Context, databaseID string, q notion.QueryRequest) (notion.QueryResponse, error)
	CreatePage(ctx context.Context, databaseID string, props notion.Properties) (notion.Page, error)
	UpdatePage(ctx context.Context, pageID string, props notion.Properties) (notion.Page, error)
	RetrieveDatabase(ctx context.Context, databaseID string) (notion.Database, error)
}

// Notion stores records as database pages; tables are database ids
type Notion struct {
	api    NotionAPI
	schema domain.Schema
}

// NewNotion binds api to schema
func NewNotion(api NotionAPI, schema domain.Schema) *Notion {
	return &Notion{api: api, schema: schema}
}

// Lookup finds the page whose title equals key
func (n *Notion) Lookup(ctx context.Context, table, key string) (string, bool, error) {
	resp, err := n.api.QueryDatabase(ctx, table, notion.QueryRequest{
		Filter:   notion.TitleEquals(n.schema.Name(domain.FieldKey), key),
		PageSize: 1,
	})
	if err != nil {
		return "", false, err
	}
	if len(resp.Results) == 0 {
		return "", false, nil
	}
	return resp.Results[0].ID, true, nil
}

// Create adds a page for rec
func (n *Notion) Create(ctx context.Context, table string, rec domain.Record) (string, error) {
	p, err := n.api.CreatePage(ctx, table, n.properties(rec))
	if err != nil {
		return "", err
	}
	return p.ID, nil
}

// Update overwrites every schema property of the page
func (n *Notion) Update(ctx context.Context, _ string, id string, rec domain.Record) error {
	_, err := n.api.UpdatePage(ctx, id, n.properties(rec))
	return err
}

// Validate checks the database carries the mode's properties with matching types
func (n *Notion) Validate(ctx context.Context, table string, mode domain.Mode) error {
	db, err := n.api.RetrieveDatabase(ctx, table)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) || perr.IsCode(err, perr.ErrorCodeUnauthorized) {
			return perr.Configf(table, "notion database %s is not reachable: %v", table, err)
		}
		return err
	}
	remote := make(map[string]domain.Kind, len(db.Properties))
	for name, p := range db.Properties {
		remote[name] = domain.Kind(p.Type)
	}
	return n.schema.ForMode(mode).Validate(remote)
}

func (n *Notion) properties(rec domain.Record) notion.Properties {
	vals := n.schema.ForMode(rec.Mode).Project(rec)
	props := make(notion.Properties, len(vals))
	for _, v := range vals {
		props[v.Name] = notionValue(v)
	}
	return props
}

func notionValue(v domain.Value) notion.PropertyValue {
	switch v.Kind {
	case domain.KindTitle:
		return notion.Title(v.Text)
	case domain.KindRichText, domain.KindText:
		return notion.Text(v.Text)
	case domain.KindURL:
		return notion.URL(v.Text)
	case domain.KindSelect:
		return notion.Select(v.Text)
	case domain.KindDate:
		if v.Date.IsZero() {
			return notion.Date("")
		}
		return notion.Date(tim.FormatDate(v.Date))
	default:
		return notion.Number(v.Number)
	}
}
