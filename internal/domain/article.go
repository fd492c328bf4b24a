package domain

// MediaType tags the kind of media attached to an article.
type MediaType string

const (
	MediaImage   MediaType = "image"
	MediaVideo   MediaType = "video"
	MediaYouTube MediaType = "youtube"
	MediaUnknown MediaType = "unknown"
)

// PlaceholderImageURL is the sole sentinel used when no media is discovered.
// Comparisons against it must be exact, never substring checks.
const PlaceholderImageURL = "https://dummyimage.com/600x400/e0e0e0/555.png&text=No+Image"

// LinkMetadata is what every platform extractor returns. All fields are
// optional; the pipeline fills in defaults for whatever is missing.
type LinkMetadata struct {
	Title     string
	Subtitle  string
	MediaURL  string
	Content   string
	MediaType MediaType
	Note      string // user-facing advisory, surfaced as a separate warning
}

// IsZero reports whether the extractor produced nothing usable.
func (m LinkMetadata) IsZero() bool {
	return m.Title == "" && m.Subtitle == "" && m.MediaURL == "" && m.Content == ""
}

// ArticleAuthor is the author object sent to the archive service.
type ArticleAuthor struct {
	Name      string `json:"name"`
	DiscordID string `json:"discord_id"`
}

// ArticleRecord is the final normalized record POSTed to the archive
// service. Field shapes match the /api/article_import contract exactly:
// subtitle and category are JSON null when absent.
type ArticleRecord struct {
	Title         string        `json:"title"`
	Subtitle      *string       `json:"subtitle"`
	Slug          string        `json:"slug"`
	Content       string        `json:"content"`
	ImageURL      string        `json:"image_url"`
	MediaType     MediaType     `json:"media_type"`
	Author        ArticleAuthor `json:"author"`
	Category      *string       `json:"category"`
	PublishedDate string        `json:"published_date"`
}
