package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

const (
	inboxSize      = 10
	typingInterval = 4 * time.Second // Telegram drops the indicator after ~5s

	// maxMessageLength stays below Telegram's 4096 limit, which counts UTF-16
	// units of the text after Markdown is parsed.
	maxMessageLength = 4000
)

// MessageKind tells the worker which handler a SessionMessage is for.
type MessageKind int

const (
	KindText MessageKind = iota
	KindPhoto
	KindCallback
)

// SessionMessage is one unit of work for a session worker. Message is set
// for text and photo, CallbackQuery for callbacks.
type SessionMessage struct {
	Kind MessageKind
	Ctx  context.Context
	Done chan struct{} // closed once handled, used by SendSync

	Message       *tgbotapi.Message
	CallbackQuery *tgbotapi.CallbackQuery
	Text          string
}

// MessageSender is the part of the Telegram API a session replies through.
type MessageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// MessageHandler processes the messages a session worker dequeues.
type MessageHandler interface {
	HandleSessionMessage(ctx context.Context, session *UserSession, msg SessionMessage)
}

// UserSession owns the owner's chat. A single worker goroutine drains the
// inbox, so scans, saves and appraisals of one user are strictly ordered and
// never run concurrently.
type UserSession struct {
	userId int64
	sender MessageSender

	inbox   chan SessionMessage
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	handler MessageHandler
}

// newUserSession creates a session and starts its worker.
func newUserSession(userId int64, sender MessageSender, handler MessageHandler) *UserSession {
	ctx, cancel := context.WithCancel(context.Background())
	s := &UserSession{
		userId:  userId,
		sender:  sender,
		inbox:   make(chan SessionMessage, inboxSize),
		ctx:     ctx,
		cancel:  cancel,
		handler: handler,
	}
	s.StartWorker()
	return s
}

// StartWorker launches the worker goroutine.
func (s *UserSession) StartWorker() {
	s.wg.Add(1)
	go s.runWorker()
}

func (s *UserSession) runWorker() {
	defer s.wg.Done()
	for {
		select {
		case <-s.ctx.Done():
			s.releaseQueued()
			return
		case msg := <-s.inbox:
			s.processMessage(msg)
		}
	}
}

// releaseQueued unblocks SendSync callers whose messages will never run.
func (s *UserSession) releaseQueued() {
	for {
		select {
		case msg := <-s.inbox:
			if msg.Done != nil {
				close(msg.Done)
			}
		default:
			return
		}
	}
}

func (s *UserSession) processMessage(msg SessionMessage) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Int64("userId", s.userId).
				Interface("panic", r).
				Msg("recovered from panic in session worker")
		}
		if msg.Done != nil {
			close(msg.Done)
		}
	}()

	if s.handler == nil {
		log.Error().Int64("userId", s.userId).Msg("session has no handler")
		return
	}
	ctx := msg.Ctx
	if ctx == nil {
		ctx = s.ctx
	}
	s.handler.HandleSessionMessage(ctx, s, msg)
}

// Send queues msg without waiting for it to be handled. On a stopped
// session the message is dropped.
func (s *UserSession) Send(msg SessionMessage) {
	select {
	case s.inbox <- msg:
	case <-s.ctx.Done():
		if msg.Done != nil {
			close(msg.Done)
		}
	}
}

// SendSync queues msg and blocks until the worker is done with it.
func (s *UserSession) SendSync(msg SessionMessage) {
	msg.Done = make(chan struct{})
	s.Send(msg)
	<-msg.Done
}

// Stop cancels the worker and waits for it to exit.
func (s *UserSession) Stop() {
	s.cancel()
	s.wg.Wait()
}

// startTypingLoop shows the typing indicator until ctx is cancelled.
func (s *UserSession) startTypingLoop(ctx context.Context) {
	ticker := time.NewTicker(typingInterval)
	defer ticker.Stop()

	for {
		action := tgbotapi.NewChatAction(s.userId, tgbotapi.ChatTyping)
		if _, err := s.sender.Request(action); err != nil {
			log.Debug().Err(err).Int64("userId", s.userId).Msg("failed to send typing action")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// send delivers msg as Markdown. Text over the message limit is cut. When
// Telegram rejects the Markdown, the text is sent again without formatting
// so the reply and its keyboard still arrive.
func (s *UserSession) send(msg tgbotapi.MessageConfig) tgbotapi.Message {
	msg.ChatID = s.userId
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.Text = truncate(msg.Text, maxMessageLength)

	sent, err := s.sender.Send(msg)
	var tgErr *tgbotapi.Error
	if errors.As(err, &tgErr) && tgErr.Code == http.StatusBadRequest {
		log.Warn().Err(err).Int64("userId", s.userId).Msg("markdown reply rejected, resending as plain text")
		msg.ParseMode = ""
		sent, err = s.sender.Send(msg)
	}
	if err != nil {
		log.Error().Stack().
			Int64("userId", s.userId).
			Err(fmt.Errorf("failed to send reply message: %w", err)).Send()
		return sent
	}
	log.Debug().Int64("userId", s.userId).Int("messageId", sent.MessageID).Msg("sent message")
	return sent
}

// reply sends a Markdown message. Arguments are formatted into text.
func (s *UserSession) reply(text string, a ...any) tgbotapi.Message {
	return s.send(tgbotapi.MessageConfig{Text: formatReplyText(text, a...)})
}

// replyWithKeyboard sends a Markdown message with an inline keyboard.
func (s *UserSession) replyWithKeyboard(keyboard tgbotapi.InlineKeyboardMarkup, text string, a ...any) tgbotapi.Message {
	msg := tgbotapi.MessageConfig{Text: formatReplyText(text, a...)}
	msg.ReplyMarkup = keyboard
	return s.send(msg)
}

func (s *UserSession) replyWithError(err error) tgbotapi.Message {
	log.Error().Stack().Err(err).Int64("userId", s.userId).Send()
	return s.reply(MsgUnexpectedErr, escapeMarkdown(err.Error()))
}
