// Package telegram adapts Telegram Bot API updates into the event pipeline:
// photos and texts from the watched chat become image and description events,
// and private messages become search queries answered with matching memes.
package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/gavril-s/meme-search-bot/internal/domain"
	"github.com/gavril-s/meme-search-bot/internal/logger"
	"github.com/gavril-s/meme-search-bot/internal/service"
)

const maxCaptionRunes = 200

// Config holds Telegram transport configuration.
type Config struct {
	Token             string
	WatchChatID       int64
	WatchChatUsername string
	PollTimeout       int
	Debug             bool
}

// Bot runs the Telegram long-poll loop.
type Bot struct {
	api    *tgbotapi.BotAPI
	ingest *service.IngestService
	search *service.SearchService
	cfg    Config
	logger *logger.Logger
}

// NewBot creates and authorizes the bot. Call SetPipeline before Run; the
// bot is constructed first so the media archiver can use it as its file
// resolver.
func NewBot(cfg Config, log *logger.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to authorize bot: %w", err)
	}
	api.Debug = cfg.Debug

	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 60
	}

	log.WithField("username", api.Self.UserName).Info("Authorized on Telegram")

	return &Bot{
		api:    api,
		cfg:    cfg,
		logger: log,
	}, nil
}

// SetPipeline attaches the services the update loop dispatches to.
func (b *Bot) SetPipeline(ingest *service.IngestService, search *service.SearchService) {
	b.ingest = ingest
	b.search = search
}

// Run consumes updates until the context is cancelled.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.PollTimeout

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil {
		msg = update.ChannelPost
	}
	if msg == nil {
		return
	}

	ctx = logger.WithFields(ctx, logger.Fields{
		logger.FieldComponent: "telegram",
		logger.FieldSourceID:  msg.Chat.ID,
		logger.FieldMessageID: msg.MessageID,
	})

	if b.isWatchedChat(msg.Chat) {
		b.handleWatchedMessage(ctx, msg)
		return
	}

	if msg.Chat.IsPrivate() {
		b.handlePrivateMessage(ctx, msg)
	}
}

// isWatchedChat reports whether the message came from the chat whose posts
// feed the corpus.
func (b *Bot) isWatchedChat(chat *tgbotapi.Chat) bool {
	if chat == nil {
		return false
	}
	if b.cfg.WatchChatID != 0 && chat.ID == b.cfg.WatchChatID {
		return true
	}
	if b.cfg.WatchChatUsername != "" {
		want := strings.TrimPrefix(b.cfg.WatchChatUsername, "@")
		return strings.EqualFold(chat.UserName, want)
	}
	return false
}

// handleWatchedMessage turns a watched-chat post into pipeline events. A photo
// with a caption carries both halves of a pair in one message.
func (b *Bot) handleWatchedMessage(ctx context.Context, msg *tgbotapi.Message) {
	now := time.Unix(int64(msg.Date), 0).UTC()

	if len(msg.Photo) > 0 {
		// Last photo size is the largest rendition
		photo := msg.Photo[len(msg.Photo)-1]
		b.ingest.OnImage(ctx, domain.ImageEvent{
			SourceID:      msg.Chat.ID,
			MessageID:     msg.MessageID,
			FileReference: photo.FileID,
			ArrivalTime:   now,
		})

		if msg.Caption != "" {
			b.resolveDescription(ctx, domain.DescriptionEvent{
				SourceID:    msg.Chat.ID,
				MessageID:   msg.MessageID,
				ReplyTo:     msg.MessageID,
				Text:        msg.Caption,
				ArrivalTime: now,
			})
		}
		return
	}

	if msg.Text != "" {
		ev := domain.DescriptionEvent{
			SourceID:    msg.Chat.ID,
			MessageID:   msg.MessageID,
			Text:        msg.Text,
			ArrivalTime: now,
		}
		if msg.ReplyToMessage != nil {
			ev.ReplyTo = msg.ReplyToMessage.MessageID
		}
		b.resolveDescription(ctx, ev)
	}
}

func (b *Bot) resolveDescription(ctx context.Context, ev domain.DescriptionEvent) {
	if _, err := b.ingest.OnDescription(ctx, ev); err != nil {
		logger.CtxError(ctx, "Failed to commit matched pair: %v", err)
	}
}

// handlePrivateMessage answers search queries and the /start and /help
// commands in private chats.
func (b *Bot) handlePrivateMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.IsCommand() {
		switch msg.Command() {
		case "start", "help":
			b.reply(ctx, msg.Chat.ID, "Send me a few words and I will reply with the meme that matches them best.")
		default:
			b.reply(ctx, msg.Chat.ID, "Unknown command. Send a text query to search for memes.")
		}
		return
	}

	query := strings.TrimSpace(msg.Text)
	if query == "" {
		return
	}

	resp := b.search.Search(ctx, query)
	if resp.Total == 0 {
		b.reply(ctx, msg.Chat.ID, "Nothing found, try different words.")
		return
	}

	top := resp.Results[0]
	photo := tgbotapi.NewPhoto(msg.Chat.ID, tgbotapi.FileID(top.FileReference))
	photo.Caption = trimCaption(top.Description)
	if _, err := b.api.Send(photo); err != nil {
		logger.CtxError(ctx, "Failed to send photo: %v", err)
		b.reply(ctx, msg.Chat.ID, "Found a match but failed to send it, try again.")
	}
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		logger.CtxError(ctx, "Failed to send message: %v", err)
	}
}

// trimCaption bounds a caption to the length Telegram renders without
// truncating mid-word when it can help it.
func trimCaption(text string) string {
	runes := []rune(text)
	if len(runes) <= maxCaptionRunes {
		return text
	}
	trimmed := string(runes[:maxCaptionRunes])
	if idx := strings.LastIndex(trimmed, " "); idx > maxCaptionRunes/2 {
		trimmed = trimmed[:idx]
	}
	return trimmed + "…"
}

// ResolveFileURL implements service.FileResolver over the Bot API file
// endpoint.
func (b *Bot) ResolveFileURL(ctx context.Context, fileReference string) (string, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileReference})
	if err != nil {
		return "", fmt.Errorf("failed to resolve file: %w", err)
	}
	return file.Link(b.api.Token), nil
}
