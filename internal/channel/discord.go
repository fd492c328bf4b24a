package channel

import (
	"context"
	"fmt"
	"log/slog"

	"archivist/internal/domain"
	"archivist/internal/pipeline"

	"github.com/bwmarrin/discordgo"
)

// archiveCommandName is the label shown in the message context menu.
const archiveCommandName = "Archive Message"

// Pipeline is what the channel hands each archive invocation to.
type Pipeline interface {
	Archive(ctx context.Context, req pipeline.Request)
}

// Discord binds the pipeline to Discord: it registers a message context-menu
// command and turns each invocation into one pipeline request.
type Discord struct {
	token    string
	guildID  string
	session  *discordgo.Session
	pipeline Pipeline
	logger   *slog.Logger
}

// DiscordConfig configures the Discord binding.
type DiscordConfig struct {
	Token   string
	GuildID string // empty = register the command globally
}

func NewDiscord(cfg DiscordConfig, p Pipeline, logger *slog.Logger) *Discord {
	return &Discord{
		token:    cfg.Token,
		guildID:  cfg.GuildID,
		pipeline: p,
		logger:   logger.With("channel", "discord"),
	}
}

func (d *Discord) Name() string { return "discord" }

// Start connects to Discord, registers the context-menu command, and serves
// interactions until ctx is cancelled.
func (d *Discord) Start(ctx context.Context) error {
	session, err := discordgo.New("Bot " + d.token)
	if err != nil {
		return fmt.Errorf("discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsMessageContent

	d.session = session
	session.AddHandler(d.handleInteraction)

	if err := session.Open(); err != nil {
		return fmt.Errorf("discord connect: %w", err)
	}
	d.logger.Info("discord bot connected", "user", session.State.User.Username)

	d.registerCommand()

	<-ctx.Done()
	d.logger.Info("discord bot disconnecting")
	return session.Close()
}

func (d *Discord) registerCommand() {
	cmd := &discordgo.ApplicationCommand{
		Name: archiveCommandName,
		Type: discordgo.MessageApplicationCommand,
	}
	if _, err := d.session.ApplicationCommandCreate(d.session.State.User.ID, d.guildID, cmd); err != nil {
		d.logger.Warn("failed to register command", "command", cmd.Name, "err", err)
	}
}

func (d *Discord) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	data := i.ApplicationCommandData()
	if data.Name != archiveCommandName {
		return
	}
	if d.guildID != "" && i.GuildID != d.guildID {
		return
	}

	target, ok := data.Resolved.Messages[data.TargetID]
	if !ok {
		d.logger.Warn("target message not resolved", "target", data.TargetID)
		return
	}

	// Acknowledge immediately; extraction can take many seconds.
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	})
	if err != nil {
		d.logger.Error("interaction ack failed", "err", err)
		return
	}

	invokerUser := interactionUser(i)
	d.logger.Info("archive requested",
		"invoker", invokerUser.Username,
		"message", data.TargetID,
		"channel", i.ChannelID,
	)

	req := pipeline.Request{
		Message: toDomainMessage(target),
		Invoker: domain.Invoker{
			DisplayName: displayName(invokerUser),
			ID:          invokerUser.ID,
		},
		Notify: d.followupNotifier(i.Interaction),
	}

	// One goroutine per invocation; the pipeline never returns an error.
	go d.pipeline.Archive(context.Background(), req)
}

// followupNotifier sends ephemeral followups on the deferred interaction.
func (d *Discord) followupNotifier(interaction *discordgo.Interaction) domain.Notifier {
	return domain.NotifierFunc(func(_ context.Context, content string) error {
		_, err := d.session.FollowupMessageCreate(interaction, true, &discordgo.WebhookParams{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		})
		return err
	})
}

func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

func displayName(u *discordgo.User) string {
	if u == nil {
		return ""
	}
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}

// toDomainMessage converts a Discord message, including its reply
// reference, into the pipeline's message shape.
func toDomainMessage(m *discordgo.Message) *domain.Message {
	if m == nil {
		return nil
	}

	msg := &domain.Message{
		Text:      m.Content,
		CreatedAt: m.Timestamp,
	}
	if m.Author != nil {
		msg.Author = domain.Author{
			DisplayName: displayName(m.Author),
			ID:          m.Author.ID,
			IsBot:       m.Author.Bot,
		}
	}
	for _, a := range m.Attachments {
		msg.Attachments = append(msg.Attachments, domain.Attachment{
			URL:         a.URL,
			ContentType: a.ContentType,
		})
	}
	for _, e := range m.Embeds {
		embed := domain.Embed{}
		if e.Image != nil && e.Image.URL != "" {
			embed.Image = &domain.EmbedMedia{URL: e.Image.URL}
		}
		if e.Thumbnail != nil && e.Thumbnail.URL != "" {
			embed.Thumbnail = &domain.EmbedMedia{URL: e.Thumbnail.URL}
		}
		if e.Video != nil && e.Video.URL != "" {
			embed.Video = &domain.EmbedMedia{URL: e.Video.URL}
		}
		msg.Embeds = append(msg.Embeds, embed)
	}
	if m.ReferencedMessage != nil {
		msg.Reference = toDomainMessage(m.ReferencedMessage)
	}
	return msg
}
