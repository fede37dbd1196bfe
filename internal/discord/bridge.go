package discord

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/s0up4200/seerr-bot/internal/agent"
	"github.com/s0up4200/seerr-bot/internal/llm"
	"github.com/s0up4200/seerr-bot/internal/session"
)

// handleTimeout bounds how long one inbound message may be processed,
// agent loop included.
const handleTimeout = 5 * time.Minute

// resetCommand clears the sender's conversation.
const resetCommand = "!reset"

// mentionPattern matches <@id> and <@!id> mention tokens in message
// content.
var mentionPattern = regexp.MustCompile(`<@!?(\d+)>`)

// Runner abstracts the agent loop for testability. The real
// implementation is *agent.Loop.
type Runner interface {
	Process(ctx context.Context, userID, text string, prior []llm.Message) *agent.Result
}

// Messenger abstracts the outbound REST calls for testability. The
// real implementation is *RestClient.
type Messenger interface {
	CreateMessage(ctx context.Context, channelID, content string, embeds []Embed) error
	TriggerTyping(ctx context.Context, channelID string) error
}

// BridgeConfig holds the dependencies for a Bridge.
type BridgeConfig struct {
	Gateway  *Gateway
	Rest     Messenger
	Runner   Runner
	Sessions *session.Store
	Channels []string // allowed channel IDs; empty allows all
	Logger   *slog.Logger
}

// Bridge receives Discord messages from the gateway, routes them
// through the agent loop, and renders the result back into chat.
type Bridge struct {
	gateway  *Gateway
	rest     Messenger
	runner   Runner
	sessions *session.Store
	channels map[string]bool
	logger   *slog.Logger
}

// NewBridge creates a Discord message bridge.
func NewBridge(cfg BridgeConfig) *Bridge {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	channels := make(map[string]bool, len(cfg.Channels))
	for _, id := range cfg.Channels {
		channels[id] = true
	}
	return &Bridge{
		gateway:  cfg.Gateway,
		rest:     cfg.Rest,
		runner:   cfg.Runner,
		sessions: cfg.Sessions,
		channels: channels,
		logger:   logger,
	}
}

// Start consumes gateway events and routes them through the agent loop
// until ctx is cancelled or the gateway closes its channel.
func (b *Bridge) Start(ctx context.Context) {
	b.logger.Info("discord bridge started")

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("discord bridge shutting down")
			return
		case msg, ok := <-b.gateway.Messages():
			if !ok {
				b.logger.Info("gateway channel closed, bridge stopping")
				return
			}
			b.HandleMessage(ctx, msg)
		}
	}
}

// HandleMessage processes a single inbound message. Exported for tests;
// Start is the production entry point.
func (b *Bridge) HandleMessage(ctx context.Context, msg *Message) {
	if msg.Author.Bot || msg.Author.ID == "" {
		return
	}
	if !b.shouldRespond(msg) {
		return
	}

	content := b.stripMentions(msg.Content)
	if content == "" {
		return
	}

	userID := msg.Author.ID
	logger := b.logger.With("user_id", userID, "channel_id", msg.ChannelID)

	if strings.EqualFold(content, resetCommand) {
		b.sessions.Clear(userID)
		logger.Info("conversation reset")
		b.send(ctx, msg.ChannelID, "Conversation cleared. What would you like to watch?", nil)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, handleTimeout)
	defer cancel()

	logger.Info("message received", "length", len(content))

	// Best-effort; the indicator expiring early is harmless.
	if err := b.rest.TriggerTyping(ctx, msg.ChannelID); err != nil {
		logger.Debug("typing indicator failed", "error", err)
	}

	prior := b.sessions.Get(userID)
	result := b.runner.Process(ctx, userID, content, prior)
	b.sessions.Set(userID, result.Conversation)

	logger.Info("agent run finished",
		"iterations", result.Iterations,
		"aborted", result.Aborted,
		"response_len", len(result.Text),
	)

	b.deliver(ctx, msg.ChannelID, result.Text)
}

// shouldRespond reports whether the bot should handle this message:
// DMs always, mentions always, plus any explicitly allowed channel.
func (b *Bridge) shouldRespond(msg *Message) bool {
	if msg.GuildID == "" {
		return true
	}
	if b.channels[msg.ChannelID] {
		return true
	}
	botID := b.gateway.BotUserID()
	for _, mention := range msg.Mentions {
		if mention.ID == botID {
			return true
		}
	}
	return false
}

// stripMentions removes mention tokens so the agent sees plain text.
func (b *Bridge) stripMentions(content string) string {
	return strings.TrimSpace(mentionPattern.ReplaceAllString(content, ""))
}

// deliver renders agent output into Discord messages: poster sections
// become embeds with images, plain text is chunked to the platform
// limit.
func (b *Bridge) deliver(ctx context.Context, channelID, text string) {
	sections := ParseSections(text)

	hasPoster := false
	for _, s := range sections {
		if s.PosterURL != "" {
			hasPoster = true
			break
		}
	}

	if !hasPoster {
		for _, chunk := range ChunkMessage(text, MessageLimit) {
			b.send(ctx, channelID, chunk, nil)
		}
		return
	}

	for _, s := range sections {
		var embeds []Embed
		content := s.Text
		if s.PosterURL != "" {
			embed := Embed{Image: &EmbedImage{URL: s.PosterURL}}
			// Long section text rides in the embed description to
			// keep it visually attached to its poster.
			if len(content) > MessageLimit {
				embed.Description = truncate(content, 4000)
				content = ""
			}
			embeds = []Embed{embed}
		} else {
			content = truncate(content, MessageLimit)
		}
		b.send(ctx, channelID, content, embeds)
	}
}

func (b *Bridge) send(ctx context.Context, channelID, content string, embeds []Embed) {
	if content == "" && len(embeds) == 0 {
		return
	}
	if err := b.rest.CreateMessage(ctx, channelID, content, embeds); err != nil {
		b.logger.Error("message send failed", "channel_id", channelID, "error", err)
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return runeCut(s, maxLen-3) + "..."
}
