package bot

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/raine/telegram-stamp-bot/internal/collection"
	"github.com/raine/telegram-stamp-bot/internal/stamp"
	"github.com/rs/zerolog/log"
)

// AppraisalHandler drives the expert review workflow.
type AppraisalHandler struct {
	tg    BotAPI
	store *collection.Store
}

// NewAppraisalHandler creates a new appraisal handler.
func NewAppraisalHandler(tg BotAPI, store *collection.Store) *AppraisalHandler {
	return &AppraisalHandler{tg: tg, store: store}
}

// HandleRequest queues a stamp for expert review.
func (h *AppraisalHandler) HandleRequest(session *UserSession, command string, args []string) {
	st, ok := lookupStamp(h.store, session, command, args)
	if !ok {
		return
	}
	updated, err := stamp.RequestAppraisal(st)
	if err != nil {
		session.reply(MsgAlreadyPending, escapeMarkdown(st.Name))
		return
	}
	if err := h.store.Update(updated); err != nil {
		session.replyWithError(err)
		return
	}
	log.Info().Str("stampId", st.ID).Msg("appraisal requested")
	session.reply(MsgAppraisalRequested, escapeMarkdown(st.Name))
}

// HandleOpen lists the stamps waiting for an expert.
func (h *AppraisalHandler) HandleOpen(session *UserSession) {
	pending := stamp.Query{Status: stamp.StatusPending}.Apply(h.store.All())
	if len(pending) == 0 {
		session.reply(MsgNoOpenAppraisals)
		return
	}
	var sb strings.Builder
	sb.WriteString(MsgOpenAppraisalsHead + "\n\n")
	for _, s := range pending {
		sb.WriteString(formatStampLine(s) + "\n")
	}
	session.reply(strings.TrimSpace(sb.String()))
}

// parseSubmission splits "<id> [valuation] [| note]".
func parseSubmission(args []string) (id, valuation, note string) {
	left, note, _ := strings.Cut(strings.Join(args, " "), "|")
	fields := strings.Fields(left)
	if len(fields) == 0 {
		return "", "", strings.TrimSpace(note)
	}
	return fields[0], strings.Join(fields[1:], " "), strings.TrimSpace(note)
}

// HandleSubmit records an expert valuation. Without a valuation the AI
// estimate is confirmed; without a note the default note is stored.
func (h *AppraisalHandler) HandleSubmit(session *UserSession, args []string) {
	id, valuation, note := parseSubmission(args)
	if id == "" {
		session.reply(MsgSubmitUsage)
		return
	}
	st, ok := h.store.Get(id)
	if !ok {
		session.reply(MsgStampNotFound, escapeMarkdown(id))
		return
	}
	updated := stamp.SubmitAppraisal(st, valuation, note)
	if err := h.store.Update(updated); err != nil {
		session.replyWithError(err)
		return
	}
	log.Info().Str("stampId", st.ID).Str("valuation", updated.ExpertValuation).Msg("appraisal submitted")
	session.reply(MsgAppraisalSaved, escapeMarkdown(updated.Name), escapeMarkdown(updated.ExpertValuation))
}

// HandleReject asks for confirmation before rejecting a pending review.
func (h *AppraisalHandler) HandleReject(session *UserSession, command string, args []string) {
	st, ok := lookupStamp(h.store, session, command, args)
	if !ok {
		return
	}
	if st.ExpertStatus != stamp.StatusPending {
		session.reply(MsgNotPending, escapeMarkdown(st.Name))
		return
	}
	session.replyWithKeyboard(confirmKeyboard("reject", st.ID), MsgConfirmReject, escapeMarkdown(st.Name), st.ID)
}

// HandleRejectCallback handles reject:yes:<id> and reject:no:<id>.
func (h *AppraisalHandler) HandleRejectCallback(session *UserSession, query *tgbotapi.CallbackQuery) {
	removeInlineKeyboard(h.tg, query)
	action, args := callbackParts(query.Data)
	if action != "yes" || len(args) == 0 {
		session.reply(MsgCancelled)
		return
	}
	st, ok := h.store.Get(args[0])
	if !ok {
		session.reply(MsgStampNotFound, escapeMarkdown(args[0]))
		return
	}
	updated, err := stamp.RejectAppraisal(st)
	if err != nil {
		session.reply(MsgNotPending, escapeMarkdown(st.Name))
		return
	}
	if err := h.store.Update(updated); err != nil {
		session.replyWithError(err)
		return
	}
	log.Info().Str("stampId", st.ID).Msg("appraisal rejected")
	session.reply(MsgAppraisalRejected, escapeMarkdown(st.Name))
}
