// Package bot is the Telegram surface of the stamp collection: scanner,
// collection views, comparison, export and the appraisal workflow.
package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/raine/telegram-stamp-bot/internal/collection"
	"github.com/raine/telegram-stamp-bot/internal/llm"
	"github.com/rs/zerolog/log"
)

// BotAPI defines the interface for Telegram bot API operations.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Options configures a Bot.
type Options struct {
	OwnerID    int64
	DeepScan   bool // scanner runs the deep analysis prompt
	Downloader *ImageDownloader
}

// Bot is the main Telegram bot handler.
type Bot struct {
	tg      BotAPI
	state   *BotState
	store   *collection.Store
	ownerID int64

	// Handlers
	scanHandler       *ScanHandler
	collectionHandler *CollectionHandler
	appraisalHandler  *AppraisalHandler
}

// NewBot creates a new Bot instance.
func NewBot(tg BotAPI, store *collection.Store, analyzer llm.Analyzer, opts Options) *Bot {
	downloader := opts.Downloader
	if downloader == nil {
		downloader = NewImageDownloader()
	}

	bot := &Bot{
		tg:      tg,
		store:   store,
		ownerID: opts.OwnerID,
	}
	bot.state = bot.newBotState()
	bot.scanHandler = NewScanHandler(tg, store, analyzer, downloader, opts.DeepScan)
	bot.collectionHandler = NewCollectionHandler(tg, store)
	bot.appraisalHandler = NewAppraisalHandler(tg, store)

	return bot
}

// HandleUpdate is the main message router.
// It dispatches messages to the appropriate session worker for sequential processing.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	b.dispatchUpdate(ctx, update, false)
}

// handleUpdateSync is like HandleUpdate but waits for message processing to complete.
// Used in tests where we need synchronous behavior.
func (b *Bot) handleUpdateSync(ctx context.Context, update tgbotapi.Update) {
	b.dispatchUpdate(ctx, update, true)
}

// dispatchUpdate routes updates to the appropriate session worker.
// If sync is true, it waits for message processing to complete.
func (b *Bot) dispatchUpdate(ctx context.Context, update tgbotapi.Update, sync bool) {
	var userId int64

	if update.CallbackQuery != nil {
		userId = update.CallbackQuery.From.ID
	} else if update.Message != nil && update.Message.From != nil {
		userId = update.Message.From.ID
	} else {
		return
	}

	// The collection belongs to one person. Checked before getUserSession so
	// random user ids never allocate a session.
	if userId != b.ownerID {
		log.Debug().Int64("userId", userId).Msg("dropping update from non-owner")
		return
	}

	session := b.state.getUserSession(userId)

	send := func(msg SessionMessage) {
		if sync {
			session.SendSync(msg)
		} else {
			session.Send(msg)
		}
	}

	if update.CallbackQuery != nil {
		send(SessionMessage{
			Kind:          KindCallback,
			Ctx:           ctx,
			CallbackQuery: update.CallbackQuery,
		})
		return
	}

	log.Info().Str("text", update.Message.Text).Str("caption", update.Message.Caption).Msg("got message")

	if len(update.Message.Photo) > 0 {
		send(SessionMessage{
			Kind:    KindPhoto,
			Ctx:     ctx,
			Message: update.Message,
		})
	} else {
		send(SessionMessage{
			Kind:    KindText,
			Ctx:     ctx,
			Message: update.Message,
			Text:    update.Message.Text,
		})
	}
}

// HandleSessionMessage implements MessageHandler interface.
// This is called by the session worker goroutine for sequential processing.
func (b *Bot) HandleSessionMessage(ctx context.Context, session *UserSession, msg SessionMessage) {
	switch msg.Kind {
	case KindCallback:
		b.handleCallbackQuery(ctx, session, msg.CallbackQuery)
	case KindPhoto:
		b.scanHandler.HandlePhoto(ctx, session, msg.Message)
	case KindText:
		b.handleCommand(ctx, session, msg.Text)
	}
}

// handleCommand processes bot commands.
// Called from session worker - no locking needed.
func (b *Bot) handleCommand(ctx context.Context, session *UserSession, text string) {
	command, args := parseCommand(text)
	switch command {
	case "/start", "/hilfe", "/help":
		session.reply(MsgHelp)
	case "/status":
		b.collectionHandler.HandleStatus(session)
	case "/sammlung":
		b.collectionHandler.HandleList(session, args)
	case "/marke":
		b.collectionHandler.HandleShow(session, command, args)
	case "/loeschen":
		b.collectionHandler.HandleDelete(session, command, args)
	case "/alben":
		b.collectionHandler.HandleAlbums(session)
	case "/neuesalbum":
		b.collectionHandler.HandleNewAlbum(session, strings.Join(args, " "))
	case "/verschieben":
		b.collectionHandler.HandleMove(session, args)
	case "/vergleich":
		b.collectionHandler.HandleCompare(session, args)
	case "/export":
		b.collectionHandler.HandleExport(session, args)
	case "/neuanalyse":
		b.scanHandler.HandleReanalyze(ctx, session, command, args, false)
	case "/tiefenanalyse":
		b.scanHandler.HandleReanalyze(ctx, session, command, args, true)
	case "/pruefung":
		b.appraisalHandler.HandleRequest(session, command, args)
	case "/offen":
		b.appraisalHandler.HandleOpen(session)
	case "/gutachten":
		b.appraisalHandler.HandleSubmit(session, args)
	case "/ablehnen":
		b.appraisalHandler.HandleReject(session, command, args)
	default:
		session.reply(MsgSendPhoto)
	}
}

// handleCallbackQuery handles inline keyboard button presses.
// Called from session worker - no locking needed.
func (b *Bot) handleCallbackQuery(ctx context.Context, session *UserSession, query *tgbotapi.CallbackQuery) {
	// Answer the callback to remove the loading state
	callback := tgbotapi.NewCallback(query.ID, "")
	if _, err := b.tg.Request(callback); err != nil {
		log.Debug().Err(err).Msg("failed to answer callback query")
	}

	switch {
	case strings.HasPrefix(query.Data, "scan:"):
		b.scanHandler.HandleCallback(ctx, session, query)
	case strings.HasPrefix(query.Data, "del:"):
		b.collectionHandler.HandleDeleteCallback(session, query)
	case strings.HasPrefix(query.Data, "reject:"):
		b.appraisalHandler.HandleRejectCallback(session, query)
	default:
		log.Warn().Str("data", query.Data).Msg("unknown callback data")
	}
}

// Shutdown stops all session workers.
func (b *Bot) Shutdown() {
	b.state.Shutdown()
}

// removeInlineKeyboard strips the buttons from the message a callback came from.
func removeInlineKeyboard(tg BotAPI, query *tgbotapi.CallbackQuery) {
	if query.Message == nil {
		return
	}
	edit := tgbotapi.NewEditMessageReplyMarkup(
		query.Message.Chat.ID,
		query.Message.MessageID,
		tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}},
	)
	if _, err := tg.Request(edit); err != nil {
		log.Debug().Err(err).Msg("failed to remove inline keyboard")
	}
}

// callbackParts splits "prefix:action:arg..." callback data.
func callbackParts(data string) (action string, args []string) {
	parts := strings.Split(data, ":")
	if len(parts) < 2 {
		return "", nil
	}
	return parts[1], parts[2:]
}
