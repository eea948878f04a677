// Package notion talks to a single Notion database used as the lead CRM.
package notion

import (
	"context"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Client is the page-level surface the lead exporter needs. All operations
// are scoped to the database the client was built for.
type Client interface {
	// FindPageByTitle returns the first page whose title property equals
	// title, or nil when the database has no such page.
	FindPageByTitle(ctx context.Context, titleProp, title string) (*notionapi.Page, error)
	CreatePage(ctx context.Context, props notionapi.Properties) (*notionapi.Page, error)
	UpdatePage(ctx context.Context, pageID string, props notionapi.Properties) (*notionapi.Page, error)
}

// Option configures the client.
type Option func(*leadDB)

// WithRateLimit overrides the default pacing (3 req/s, Notion's published
// limit). A non-positive value disables throttling.
func WithRateLimit(rps float64) Option {
	return func(c *leadDB) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		} else {
			c.limiter = nil
		}
	}
}

type leadDB struct {
	api     *notionapi.Client
	db      notionapi.DatabaseID
	limiter *rate.Limiter
}

// NewClient builds a client for one database using the given integration
// token.
func NewClient(token, databaseID string, opts ...Option) Client {
	c := &leadDB{
		api:     notionapi.NewClient(notionapi.Token(token)),
		db:      notionapi.DatabaseID(databaseID),
		limiter: rate.NewLimiter(3, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *leadDB) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

func (c *leadDB) FindPageByTitle(ctx context.Context, titleProp, title string) (*notionapi.Page, error) {
	if err := c.wait(ctx); err != nil {
		return nil, eris.Wrap(err, "notion: rate limit")
	}
	resp, err := c.api.Database.Query(ctx, c.db, &notionapi.DatabaseQueryRequest{
		Filter: notionapi.PropertyFilter{
			Property: titleProp,
			RichText: &notionapi.TextFilterCondition{Equals: title},
		},
		PageSize: 1,
	})
	if err != nil {
		return nil, eris.Wrapf(err, "notion: query database %s", c.db)
	}
	if len(resp.Results) == 0 {
		return nil, nil
	}
	return &resp.Results[0], nil
}

func (c *leadDB) CreatePage(ctx context.Context, props notionapi.Properties) (*notionapi.Page, error) {
	if err := c.wait(ctx); err != nil {
		return nil, eris.Wrap(err, "notion: rate limit")
	}
	page, err := c.api.Page.Create(ctx, &notionapi.PageCreateRequest{
		Parent:     notionapi.Parent{DatabaseID: c.db},
		Properties: props,
	})
	if err != nil {
		return nil, eris.Wrap(err, "notion: create page")
	}
	return page, nil
}

func (c *leadDB) UpdatePage(ctx context.Context, pageID string, props notionapi.Properties) (*notionapi.Page, error) {
	if err := c.wait(ctx); err != nil {
		return nil, eris.Wrap(err, "notion: rate limit")
	}
	page, err := c.api.Page.Update(ctx, notionapi.PageID(pageID), &notionapi.PageUpdateRequest{
		Properties: props,
	})
	if err != nil {
		return nil, eris.Wrapf(err, "notion: update page %s", pageID)
	}
	return page, nil
}
