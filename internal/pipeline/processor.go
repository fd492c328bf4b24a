package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"archivist/internal/archive"
	"archivist/internal/domain"
	"archivist/internal/textutil"
)

// Classification of an incoming message.
type Classification int

const (
	// LinkOnly messages are nothing but URLs: no attachments and no prose
	// once the links are stripped out.
	LinkOnly Classification = iota
	// Mixed messages carry prose, attachments, or both.
	Mixed
)

// LinkRouter routes a URL to its platform extractor.
type LinkRouter interface {
	Classify(url string) textutil.Platform
	Extract(ctx context.Context, url string) domain.LinkMetadata
}

// MediaResolver picks a single representative media URL for a message.
type MediaResolver interface {
	Resolve(ctx context.Context, msg *domain.Message) string
}

// Archiver submits finished records to the archive service.
type Archiver interface {
	Submit(ctx context.Context, record *domain.ArticleRecord) archive.Outcome
	ArticleURL(slug string) string
}

// Request is one archive invocation: the target message, whoever invoked
// the action, and the channel for talking back to them.
type Request struct {
	Message *domain.Message
	Invoker domain.Invoker
	Notify  domain.Notifier
}

// Processor runs the whole pipeline for one request: classify, extract,
// merge, normalize, submit, report.
type Processor struct {
	router   LinkRouter
	resolver MediaResolver
	archiver Archiver
	reporter *Reporter
	logger   *slog.Logger
	now      func() time.Time
}

func New(router LinkRouter, resolver MediaResolver, archiver Archiver, logger *slog.Logger) *Processor {
	return &Processor{
		router:   router,
		resolver: resolver,
		archiver: archiver,
		reporter: NewReporter(logger),
		logger:   logger.With("component", "pipeline"),
		now:      time.Now,
	}
}

// Classify derives the extraction branch for a message.
func Classify(msg *domain.Message) Classification {
	if len(msg.Attachments) > 0 {
		return Mixed
	}
	urls := textutil.ExtractURLs(msg.Text)
	if len(urls) == 0 {
		return Mixed
	}
	if strings.TrimSpace(textutil.StripURLs(msg.Text)) != "" {
		return Mixed
	}
	return LinkOnly
}

// Archive processes one request end to end. It never returns an error;
// every failure mode ends in exactly one message to the invoker.
func (p *Processor) Archive(ctx context.Context, req Request) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("pipeline panic", "err", r)
			p.reporter.Catastrophic(ctx, req.Notify, fmt.Sprint(r))
		}
	}()

	record, note := p.buildRecord(ctx, req)

	p.reporter.Advisory(ctx, req.Notify, note)

	outcome := p.archiver.Submit(ctx, record)
	slug := record.Slug
	if outcome.Slug != "" {
		slug = outcome.Slug
	}
	p.reporter.Outcome(ctx, req.Notify, record, outcome, p.archiver.ArticleURL(slug))
}

func (p *Processor) buildRecord(ctx context.Context, req Request) (*domain.ArticleRecord, string) {
	msg := req.Message

	var draft draftArticle
	switch Classify(msg) {
	case LinkOnly:
		draft = p.linkOnlyDraft(ctx, msg)
	default:
		draft = p.mixedDraft(ctx, msg)
	}

	author := resolveAuthor(msg, req.Invoker)

	title := textutil.NormalizeTitle(draft.title)
	if title == "" {
		title = textutil.UntitledFallback
	}

	record := &domain.ArticleRecord{
		Title:         title,
		Slug:          textutil.NormalizeSlug(title),
		Content:       textutil.NormalizeContent(draft.content),
		ImageURL:      draft.mediaURL,
		MediaType:     draft.mediaType,
		Author:        author,
		PublishedDate: p.publishedDate(msg),
	}
	if record.ImageURL == "" {
		record.ImageURL = domain.PlaceholderImageURL
	}
	if s := textutil.NormalizeSubtitle(draft.subtitle); s != "" {
		record.Subtitle = &s
	}
	return record, draft.note
}

type draftArticle struct {
	title     string
	subtitle  string
	content   string
	mediaURL  string
	mediaType domain.MediaType
	note      string
}

func (p *Processor) linkOnlyDraft(ctx context.Context, msg *domain.Message) draftArticle {
	url := textutil.ExtractURLs(msg.Text)[0]
	meta := p.router.Extract(ctx, url)

	draft := draftArticle{
		title:    meta.Title,
		subtitle: meta.Subtitle,
		content:  meta.Content,
		mediaURL: meta.MediaURL,
		note:     meta.Note,
	}
	if draft.content == "" {
		draft.content = url
	}

	// The extractor's own classification wins; the long-form player URL in
	// particular must stay tagged as such.
	switch {
	case meta.MediaType != "":
		draft.mediaType = meta.MediaType
	case textutil.IsVideoURL(draft.mediaURL):
		draft.mediaType = domain.MediaVideo
	default:
		draft.mediaType = domain.MediaImage
	}
	return draft
}

func (p *Processor) mixedDraft(ctx context.Context, msg *domain.Message) draftArticle {
	title, subtitle, body := textutil.ParseHeadings(msg.Text)

	draft := draftArticle{
		title:    title,
		subtitle: subtitle,
		content:  body,
		mediaURL: p.resolver.Resolve(ctx, msg),
	}

	urls := textutil.ExtractURLs(msg.Text)
	if len(urls) > 0 {
		meta := p.router.Extract(ctx, urls[0])
		if draft.title == "" || draft.title == textutil.UntitledFallback {
			if meta.Title != "" {
				draft.title = meta.Title
			}
		}
		if draft.subtitle == "" {
			draft.subtitle = meta.Subtitle
		}
		if strings.TrimSpace(draft.content) == "" {
			draft.content = meta.Content
		}
		if draft.mediaURL == domain.PlaceholderImageURL && meta.MediaURL != "" {
			draft.mediaURL = meta.MediaURL
		}
		draft.note = meta.Note
	}

	if strings.TrimSpace(draft.content) == "" {
		draft.content = msg.Text
	}
	if draft.subtitle == "" {
		draft.subtitle = synthesizeSubtitle(draft.content)
	}

	draft.mediaType = p.mixedMediaType(urls, draft.mediaURL)
	return draft
}

// mixedMediaType keys off the first URL's host class, then the URL-shape
// heuristic on whatever media was chosen.
func (p *Processor) mixedMediaType(urls []string, mediaURL string) domain.MediaType {
	if len(urls) > 0 {
		switch p.router.Classify(urls[0]) {
		case textutil.PlatformYouTube, textutil.PlatformShortVideo:
			return domain.MediaVideo
		}
	}
	if textutil.IsVideoURL(mediaURL) {
		return domain.MediaVideo
	}
	return domain.MediaImage
}

// synthesizeSubtitle derives a subtitle from content with links removed.
func synthesizeSubtitle(content string) string {
	return textutil.NormalizeSubtitle(textutil.StripURLs(content))
}

// resolveAuthor applies the bot-authorship rules: a bot relaying someone
// else's message must never be recorded as the author.
func resolveAuthor(msg *domain.Message, invoker domain.Invoker) domain.ArticleAuthor {
	author := msg.Author
	if author.IsBot {
		if msg.Reference != nil {
			ref := msg.Reference.Author
			return domain.ArticleAuthor{Name: ref.DisplayName, DiscordID: ref.ID}
		}
		return domain.ArticleAuthor{Name: invoker.DisplayName, DiscordID: invoker.ID}
	}
	return domain.ArticleAuthor{Name: author.DisplayName, DiscordID: author.ID}
}

func (p *Processor) publishedDate(msg *domain.Message) string {
	if msg.CreatedAt.IsZero() {
		return p.now().Format(time.RFC3339)
	}
	return msg.CreatedAt.Format(time.RFC3339)
}
