package archive

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"archivist/internal/domain"
	"archivist/internal/fetch"
)

const (
	importPath      = "/api/article_import"
	bodyPreviewMax  = 1900
	statusNoRespond = "NoResponse"
)

// Outcome is the result of one article submission.
type Outcome struct {
	Created bool
	Status  string // HTTP status code as text, or NoResponse
	Body    string // response body preview
	Slug    string // server-assigned slug when created
}

// Client submits article records to the archive's import endpoint.
type Client struct {
	baseURL string
	fetcher *fetch.Fetcher
	logger  *slog.Logger
}

func New(baseURL string, fetcher *fetch.Fetcher, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		fetcher: fetcher,
		logger:  logger.With("component", "archive"),
	}
}

// BaseURL reports the configured archive root; empty means submissions are
// disabled.
func (c *Client) BaseURL() string { return c.baseURL }

// Submit posts the record. Transport failures and non-201 statuses are
// outcomes, not errors; the caller always gets something to report.
func (c *Client) Submit(ctx context.Context, record *domain.ArticleRecord) Outcome {
	resp, err := c.fetcher.PostJSON(ctx, c.baseURL+importPath, record, 10*time.Second)
	if err != nil {
		c.logger.Warn("archive unreachable", "err", err)
		return Outcome{Status: statusNoRespond, Body: "No response"}
	}

	preview := truncatePreview(resp.Text())
	if resp.Status != 201 {
		c.logger.Warn("archive rejected article", "status", resp.Status, "slug", record.Slug)
		return Outcome{Status: strconv.Itoa(resp.Status), Body: preview}
	}

	var created struct {
		Slug string `json:"slug"`
	}
	if err := resp.JSON(&created); err != nil || created.Slug == "" {
		created.Slug = record.Slug
	}
	c.logger.Info("article saved", "slug", created.Slug)
	return Outcome{Created: true, Status: "201", Body: preview, Slug: created.Slug}
}

// ArticleURL builds the public link for a saved article.
func (c *Client) ArticleURL(slug string) string {
	return c.baseURL + "/article/" + slug
}

func truncatePreview(body string) string {
	if len(body) <= bodyPreviewMax {
		return body
	}
	return body[:bodyPreviewMax]
}
