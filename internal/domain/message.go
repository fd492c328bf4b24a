package domain

import "time"

// Author identifies the writer of a chat message.
type Author struct {
	DisplayName string
	ID          string // Discord snowflake, numeric, kept as a string
	IsBot       bool
}

// Invoker is the user who triggered the archive action.
type Invoker struct {
	DisplayName string
	ID          string
}

// Attachment is a file attached to a message.
type Attachment struct {
	URL         string
	ContentType string // MIME type, e.g. "image/jpeg", "video/mp4"
}

// EmbedMedia is a single media slot inside an embed.
type EmbedMedia struct {
	URL string
}

// Embed is a platform-generated preview card attached to a message.
// Any of the three slots may be nil.
type Embed struct {
	Image     *EmbedMedia
	Thumbnail *EmbedMedia
	Video     *EmbedMedia
}

// Message is the chat message handed to the pipeline by the channel binding.
type Message struct {
	Text        string
	Attachments []Attachment
	Embeds      []Embed
	Author      Author
	CreatedAt   time.Time // zero value means unknown
	Reference   *Message  // resolved replied-to message, if any
}
