package bot

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// BotState holds the live session of every chat the bot has seen.
type BotState struct {
	bot      *Bot
	mu       sync.Mutex
	sessions map[int64]*UserSession
}

func (b *Bot) newBotState() *BotState {
	return &BotState{
		bot:      b,
		sessions: make(map[int64]*UserSession),
	}
}

// getUserSession returns the session for userId, starting one on first use.
func (bs *BotState) getUserSession(userId int64) *UserSession {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	if session, ok := bs.sessions[userId]; ok {
		return session
	}
	session := newUserSession(userId, bs.bot.tg, bs.bot)
	bs.sessions[userId] = session
	log.Info().Int64("userId", userId).Msg("user session started")
	return session
}

// Shutdown stops every session worker. Workers are stopped outside the lock
// so a handler still running can look up its session.
func (bs *BotState) Shutdown() {
	bs.mu.Lock()
	sessions := make([]*UserSession, 0, len(bs.sessions))
	for _, session := range bs.sessions {
		sessions = append(sessions, session)
	}
	bs.mu.Unlock()

	for _, session := range sessions {
		session.Stop()
	}
	log.Info().Int("count", len(sessions)).Msg("stopped all session workers")
}
