package channel

import (
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
)

func TestToDomainMessage(t *testing.T) {
	ts := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	m := &discordgo.Message{
		Content:   "hello https://example.com",
		Timestamp: ts,
		Author:    &discordgo.User{ID: "7", Username: "someone", GlobalName: "Some One", Bot: false},
		Attachments: []*discordgo.MessageAttachment{
			{URL: "https://cdn/pic.png", ContentType: "image/png"},
		},
		Embeds: []*discordgo.MessageEmbed{
			{
				Thumbnail: &discordgo.MessageEmbedThumbnail{URL: "https://cdn/thumb.jpg"},
				Video:     &discordgo.MessageEmbedVideo{URL: "https://cdn/v.mp4"},
			},
		},
		ReferencedMessage: &discordgo.Message{
			Content: "original",
			Author:  &discordgo.User{ID: "9", Username: "author", Bot: false},
		},
	}

	msg := toDomainMessage(m)
	if msg.Text != "hello https://example.com" {
		t.Errorf("text = %q", msg.Text)
	}
	if !msg.CreatedAt.Equal(ts) {
		t.Errorf("created at = %v", msg.CreatedAt)
	}
	if msg.Author.DisplayName != "Some One" || msg.Author.ID != "7" {
		t.Errorf("author = %+v", msg.Author)
	}
	if len(msg.Attachments) != 1 || msg.Attachments[0].ContentType != "image/png" {
		t.Errorf("attachments = %+v", msg.Attachments)
	}
	if len(msg.Embeds) != 1 {
		t.Fatalf("embeds = %+v", msg.Embeds)
	}
	if msg.Embeds[0].Image != nil {
		t.Error("absent embed image should stay nil")
	}
	if msg.Embeds[0].Thumbnail == nil || msg.Embeds[0].Thumbnail.URL != "https://cdn/thumb.jpg" {
		t.Errorf("thumbnail = %+v", msg.Embeds[0].Thumbnail)
	}
	if msg.Reference == nil || msg.Reference.Author.ID != "9" {
		t.Errorf("reference = %+v", msg.Reference)
	}
}

func TestToDomainMessage_Nil(t *testing.T) {
	if toDomainMessage(nil) != nil {
		t.Error("nil in, nil out")
	}
}

func TestDisplayName(t *testing.T) {
	if got := displayName(&discordgo.User{Username: "user"}); got != "user" {
		t.Errorf("got %q", got)
	}
	if got := displayName(&discordgo.User{Username: "user", GlobalName: "Display"}); got != "Display" {
		t.Errorf("got %q", got)
	}
	if got := displayName(nil); got != "" {
		t.Errorf("got %q", got)
	}
}
