package export

import (
	"context"
	"sync/atomic"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/finclip/prospector-cli/internal/model"
	"github.com/finclip/prospector-cli/pkg/notion"
)

// notionConcurrency bounds in-flight page writes; the client's limiter
// paces the actual requests.
const notionConcurrency = 3

// NotionExporter pushes leads into the CRM database, one page per lead,
// keyed by lead name.
type NotionExporter struct {
	client notion.Client
}

// NewNotionExporter builds an exporter over the given database client.
func NewNotionExporter(client notion.Client) *NotionExporter {
	return &NotionExporter{client: client}
}

// Export upserts every lead as a database page. Returns how many pages were
// created and how many updated.
func (e *NotionExporter) Export(ctx context.Context, leads []model.Lead) (created, updated int, err error) {
	var createdN, updatedN atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(notionConcurrency)
	for _, lead := range leads {
		g.Go(func() error {
			page, err := e.client.FindPageByTitle(ctx, "Nome", lead.Name)
			if err != nil {
				return eris.Wrapf(err, "export: lookup %s", lead.Name)
			}

			props := e.leadProperties(lead)
			if page == nil {
				if _, err := e.client.CreatePage(ctx, props); err != nil {
					return eris.Wrapf(err, "export: create %s", lead.Name)
				}
				createdN.Add(1)
				return nil
			}

			if _, err := e.client.UpdatePage(ctx, string(page.ID), props); err != nil {
				return eris.Wrapf(err, "export: update %s", lead.Name)
			}
			updatedN.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return int(createdN.Load()), int(updatedN.Load()), err
	}

	zap.L().Info("export: notion push complete",
		zap.Int64("created", createdN.Load()),
		zap.Int64("updated", updatedN.Load()),
	)
	return int(createdN.Load()), int(updatedN.Load()), nil
}

func (e *NotionExporter) leadProperties(lead model.Lead) notionapi.Properties {
	props := notionapi.Properties{
		"Nome": notionapi.TitleProperty{
			Title: []notionapi.RichText{{Text: &notionapi.Text{Content: lead.Name}}},
		},
		"Status": notionapi.SelectProperty{
			Select: notionapi.Option{Name: string(lead.Status)},
		},
	}
	if lead.TaxID != "" {
		props["CNPJ"] = richText(lead.TaxID)
	}
	if lead.Phone != "" {
		props["Telefone"] = notionapi.PhoneNumberProperty{PhoneNumber: lead.Phone}
	}
	if lead.Email != "" {
		props["Email"] = notionapi.EmailProperty{Email: lead.Email}
	}
	if lead.Website != "" {
		props["Site"] = notionapi.URLProperty{URL: lead.Website}
	}
	if lead.City != "" {
		props["Cidade"] = richText(lead.City)
	}
	if lead.ContactName != "" {
		props["Contato"] = richText(lead.ContactName)
	}
	if lead.Rating > 0 {
		props["Avaliação"] = notionapi.NumberProperty{Number: lead.Rating}
	}
	return props
}

func richText(s string) notionapi.RichTextProperty {
	return notionapi.RichTextProperty{
		RichText: []notionapi.RichText{{Text: &notionapi.Text{Content: s}}},
	}
}
