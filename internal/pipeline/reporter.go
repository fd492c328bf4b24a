package pipeline

import (
	"context"
	"log/slog"
	"strings"

	"archivist/internal/archive"
	"archivist/internal/domain"
)

const previewMax = 1900

// Reporter turns an archive outcome into the single ephemeral message the
// invoker sees. Advisory notes are the one exception: they are sent as a
// separate warning before the outcome.
type Reporter struct {
	logger *slog.Logger
}

func NewReporter(logger *slog.Logger) *Reporter {
	return &Reporter{logger: logger.With("component", "reporter")}
}

func (r *Reporter) Outcome(ctx context.Context, notify domain.Notifier, record *domain.ArticleRecord, outcome archive.Outcome, articleURL string) {
	var msg string
	if outcome.Created {
		msg = SuccessMessage(record, articleURL)
	} else {
		msg = FailureMessage(outcome)
	}
	if err := notify.SendEphemeral(ctx, msg); err != nil {
		r.logger.Warn("outcome message not delivered", "err", err)
	}
}

func (r *Reporter) Advisory(ctx context.Context, notify domain.Notifier, note string) {
	if note == "" {
		return
	}
	if err := notify.SendEphemeral(ctx, "⚠️ "+note); err != nil {
		r.logger.Warn("advisory not delivered", "err", err)
	}
}

func (r *Reporter) Catastrophic(ctx context.Context, notify domain.Notifier, detail string) {
	msg := "⚠️ Unexpected error:\n```\n" + truncateRunes(detail, previewMax) + "\n```"
	if err := notify.SendEphemeral(ctx, msg); err != nil {
		r.logger.Error("error message not delivered", "err", err)
	}
}

// SuccessMessage is the confirmation the invoker sees for a saved article.
func SuccessMessage(record *domain.ArticleRecord, articleURL string) string {
	var b strings.Builder
	b.WriteString("✅ Article saved: **" + record.Title + "**")
	if record.Subtitle != nil && *record.Subtitle != "" {
		b.WriteString("\nSubtitle: " + *record.Subtitle)
	}
	b.WriteString("\nLink: " + articleURL)
	b.WriteString("\nAuthor: " + record.Author.Name)
	return b.String()
}

// FailureMessage carries the archive's status and a fenced body preview.
func FailureMessage(outcome archive.Outcome) string {
	return "⚠️ API returned " + outcome.Status + ":\n```\n" + truncateRunes(outcome.Body, previewMax) + "\n```"
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
