package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/raine/telegram-stamp-bot/internal/collection"
	"github.com/raine/telegram-stamp-bot/internal/llm"
	"github.com/raine/telegram-stamp-bot/internal/stamp"
	"github.com/rs/zerolog/log"
)

const (
	pendingScanTTL = 30 * time.Minute

	// scanQualityHint is sent with every photo from the scanner.
	scanQualityHint = "Fokus auf philatelistische Details"
)

// pendingScan is a photo waiting for the user to save, retry or discard it.
type pendingScan struct {
	ID       string
	Image    []byte
	MimeType string
	Keywords string
	Attempts int
	Analysis *stamp.Analysis // nil until an analysis succeeded
}

// ScanHandler runs the scanner flow and re-analysis of saved stamps.
type ScanHandler struct {
	tg         BotAPI
	store      *collection.Store
	analyzer   llm.Analyzer
	downloader *ImageDownloader
	deepScan   bool
	pending    *cache.Cache
}

// NewScanHandler creates a new scan handler.
func NewScanHandler(tg BotAPI, store *collection.Store, analyzer llm.Analyzer, downloader *ImageDownloader, deepScan bool) *ScanHandler {
	return &ScanHandler{
		tg:         tg,
		store:      store,
		analyzer:   analyzer,
		downloader: downloader,
		deepScan:   deepScan,
		pending:    cache.New(pendingScanTTL, 10*time.Minute),
	}
}

func pendingKey(userId int64, scanID string) string {
	return fmt.Sprintf("%d:%s", userId, scanID)
}

func newScanID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// HandlePhoto downloads the largest version of a photo and analyzes it.
// The caption is passed to the model as keywords.
func (h *ScanHandler) HandlePhoto(ctx context.Context, session *UserSession, message *tgbotapi.Message) {
	if len(message.Photo) == 0 {
		return
	}
	photo := message.Photo[len(message.Photo)-1]

	data, mimeType, err := h.downloader.DownloadFromTelegramFileID(ctx, h.tg.GetFileDirectURL, photo.FileID)
	if err != nil {
		log.Error().Err(err).Int64("userId", session.userId).Msg("failed to download photo")
		session.reply(MsgDownloadFailed)
		return
	}

	scan := &pendingScan{
		ID:       newScanID(),
		Image:    data,
		MimeType: mimeType,
		Keywords: strings.TrimSpace(message.Caption),
	}
	h.pending.Set(pendingKey(session.userId, scan.ID), scan, cache.DefaultExpiration)

	h.runScan(ctx, session, scan)
}

// runScan analyzes a pending scan and shows either the result with the save
// keyboard or the error guidance with retry buttons.
func (h *ScanHandler) runScan(ctx context.Context, session *UserSession, scan *pendingScan) {
	if h.deepScan {
		session.reply(MsgDeepAnalyzing)
	} else {
		session.reply(MsgAnalyzing)
	}

	opts := llm.Options{
		Keywords:     scan.Keywords,
		QualityHint:  scanQualityHint,
		DeepAnalysis: h.deepScan,
		Refresh:      scan.Attempts > 0,
	}
	result, err := h.analyze(ctx, session, scan.Image, scan.MimeType, nil, opts)
	if err != nil {
		log.Error().Err(err).Int64("userId", session.userId).Str("scanId", scan.ID).Msg("stamp analysis failed")
		session.replyWithKeyboard(
			tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(BtnRetry, "scan:retry:"+scan.ID),
				tgbotapi.NewInlineKeyboardButtonData(BtnRetake, "scan:discard:"+scan.ID),
			)),
			formatAnalysisError(err, false),
		)
		return
	}

	scan.Analysis = result.Analysis
	// Keyboard sent separately so it survives a rejected analysis text.
	session.reply(formatAnalysis(*result.Analysis))
	session.replyWithKeyboard(h.saveKeyboard(scan.ID), MsgSaveToAlbum)
}

func (h *ScanHandler) analyze(ctx context.Context, session *UserSession, image []byte, mimeType string, prior *stamp.Stamp, opts llm.Options) (*llm.AnalysisResult, error) {
	typingCtx, cancelTyping := context.WithCancel(ctx)
	defer cancelTyping()
	go session.startTypingLoop(typingCtx)

	result, err := h.analyzer.AnalyzeStamp(ctx, image, mimeType, prior, opts)
	if err != nil {
		return nil, err
	}
	if result == nil || result.Analysis == nil {
		return nil, &llm.AnalysisError{Kind: llm.KindEmptyResponse, Message: llm.UserMessage(llm.KindEmptyResponse)}
	}
	log.Info().
		Int64("userId", session.userId).
		Bool("cached", result.Cached).
		Float64("costUSD", result.Usage.CostUSD).
		Str("name", result.Analysis.Name).
		Msg("stamp analyzed")
	return result, nil
}

func (h *ScanHandler) saveKeyboard(scanID string) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	albums := h.store.Albums()
	for i := 0; i < len(albums); i += 2 {
		row := []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf(BtnSaveInto, albums[i]), fmt.Sprintf("scan:save:%s:%d", scanID, i)),
		}
		if i+1 < len(albums) {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf(BtnSaveInto, albums[i+1]), fmt.Sprintf("scan:save:%s:%d", scanID, i+1)))
		}
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(BtnRetry, "scan:retry:"+scanID),
		tgbotapi.NewInlineKeyboardButtonData(BtnDiscard, "scan:discard:"+scanID),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// HandleCallback handles scan:save, scan:retry and scan:discard buttons.
func (h *ScanHandler) HandleCallback(ctx context.Context, session *UserSession, query *tgbotapi.CallbackQuery) {
	action, args := callbackParts(query.Data)
	if len(args) == 0 {
		return
	}
	key := pendingKey(session.userId, args[0])

	cached, ok := h.pending.Get(key)
	if !ok {
		removeInlineKeyboard(h.tg, query)
		session.reply(MsgScanExpired)
		return
	}
	scan := cached.(*pendingScan)

	switch action {
	case "save":
		if scan.Analysis == nil {
			session.reply(MsgScanNothingToSave)
			return
		}
		albums := h.store.Albums()
		album := collection.DefaultAlbums[0]
		if len(albums) > 0 {
			album = albums[0]
		}
		if len(args) > 1 {
			if idx, err := strconv.Atoi(args[1]); err == nil && idx >= 0 && idx < len(albums) {
				album = albums[idx]
			}
		}
		removeInlineKeyboard(h.tg, query)
		saved, err := h.store.Add(stamp.NewStamp(stamp.EncodeImage(scan.Image, scan.MimeType), album, *scan.Analysis))
		if err != nil {
			session.replyWithError(err)
			return
		}
		h.pending.Delete(key)
		log.Info().Int64("userId", session.userId).Str("stampId", saved.ID).Str("album", album).Msg("stamp saved")
		session.reply(MsgStampSaved, escapeMarkdown(saved.Name), escapeMarkdown(album), saved.ID)
	case "retry":
		removeInlineKeyboard(h.tg, query)
		scan.Attempts++
		scan.Analysis = nil
		h.pending.Set(key, scan, cache.DefaultExpiration)
		h.runScan(ctx, session, scan)
	case "discard":
		removeInlineKeyboard(h.tg, query)
		h.pending.Delete(key)
		session.reply(MsgScanDiscarded)
	}
}

// HandleReanalyze runs the analysis again for a saved stamp with its stored
// image. Extra arguments are keywords. The result replaces the AI fields; a
// stamp with an expert valuation keeps it.
func (h *ScanHandler) HandleReanalyze(ctx context.Context, session *UserSession, command string, args []string, deep bool) {
	if len(args) == 0 {
		session.reply(MsgReanalyzeUsage, command)
		return
	}
	st, ok := h.store.Get(args[0])
	if !ok {
		session.reply(MsgStampNotFound, escapeMarkdown(args[0]))
		return
	}
	image, mimeType, err := stamp.DecodeImage(st.Image)
	if err != nil {
		log.Error().Err(err).Str("stampId", st.ID).Msg("failed to decode stored image")
		session.reply(MsgImageUnreadable)
		return
	}

	if deep {
		session.reply(MsgDeepAnalyzing)
	} else {
		session.reply(MsgAnalyzing)
	}

	opts := llm.Options{
		Keywords:     strings.Join(args[1:], " "),
		DeepAnalysis: deep,
		Refresh:      true,
	}
	result, err := h.analyze(ctx, session, image, mimeType, &st, opts)
	if err != nil {
		log.Error().Err(err).Str("stampId", st.ID).Msg("stamp reanalysis failed")
		session.reply(formatAnalysisError(err, true))
		return
	}

	updated := stamp.ApplyAnalysis(st, *result.Analysis)
	if err := h.store.Update(updated); err != nil {
		session.replyWithError(err)
		return
	}
	session.reply(MsgReanalysisDone + "\n\n" + formatStampDetails(updated))
}

// formatAnalysisError renders the category message and the remediation tips.
func formatAnalysisError(err error, retryByCommand bool) string {
	message := llm.UserMessage(llm.KindOf(err))
	var ae *llm.AnalysisError
	if errors.As(err, &ae) && ae.Message != "" {
		message = ae.Message
	}

	var sb strings.Builder
	sb.WriteString(MsgAnalysisFailedHead + "\n\n")
	sb.WriteString(escapeMarkdown(message) + "\n\n")
	sb.WriteString(MsgAnalysisTipsHead + "\n")
	for _, tip := range llm.RemediationTips {
		sb.WriteString("• " + escapeMarkdown(tip) + "\n")
	}
	if retryByCommand {
		sb.WriteString("\n" + MsgAnalysisRetryHint)
	}
	return strings.TrimSpace(sb.String())
}
