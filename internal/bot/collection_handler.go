package bot

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/raine/telegram-stamp-bot/internal/collection"
	"github.com/raine/telegram-stamp-bot/internal/stamp"
	"github.com/rs/zerolog/log"
)

const (
	maxListedStamps = 30
	minCompared     = 2
	maxCompared     = 5
)

// CollectionHandler serves the dashboard, collection views, albums,
// comparison and export.
type CollectionHandler struct {
	tg    BotAPI
	store *collection.Store
	now   func() time.Time
}

// NewCollectionHandler creates a new collection handler.
func NewCollectionHandler(tg BotAPI, store *collection.Store) *CollectionHandler {
	return &CollectionHandler{tg: tg, store: store, now: time.Now}
}

// lookupStamp resolves the stamp id argument or replies why it could not.
func lookupStamp(store *collection.Store, session *UserSession, command string, args []string) (stamp.Stamp, bool) {
	if len(args) == 0 {
		session.reply(MsgStampIDRequired, command)
		return stamp.Stamp{}, false
	}
	st, ok := store.Get(args[0])
	if !ok {
		session.reply(MsgStampNotFound, escapeMarkdown(args[0]))
	}
	return st, ok
}

// HandleStatus shows the dashboard figures.
func (h *CollectionHandler) HandleStatus(session *UserSession) {
	stamps := h.store.All()
	if len(stamps) == 0 {
		session.reply(MsgCollectionEmpty)
		return
	}
	session.reply(formatSummary(stamp.Summarize(stamps), stamp.StatusCounts(stamps), len(h.store.Albums())))
}

// parseStatus maps user input to an expert status.
func parseStatus(s string) (stamp.ExpertStatus, bool) {
	switch strings.ToLower(s) {
	case "ki", "none", "neu":
		return stamp.StatusNone, true
	case "pruefung", "prüfung", "pending", "offen":
		return stamp.StatusPending, true
	case "zertifiziert", "appraised", "geprueft", "geprüft":
		return stamp.StatusAppraised, true
	}
	return "", false
}

// parseQuery turns /sammlung arguments into a query. Recognized tokens are
// album:<name>, status:<status>, sort:<field>, auf|ab (asc|desc); everything
// else is the search text.
func parseQuery(args []string) (stamp.Query, string, error) {
	var q stamp.Query
	var search []string
	for _, arg := range args {
		key, value, hasValue := strings.Cut(arg, ":")
		switch {
		case hasValue && strings.EqualFold(key, "album"):
			q.Album = value
		case hasValue && strings.EqualFold(key, "status"):
			status, ok := parseStatus(value)
			if !ok {
				return q, fmt.Sprintf(MsgInvalidStatus, escapeMarkdown(value)), errInvalidQuery
			}
			q.Status = status
		case hasValue && strings.EqualFold(key, "sort"):
			field, ok := stamp.ParseSortField(value)
			if !ok {
				return q, fmt.Sprintf(MsgInvalidSort, escapeMarkdown(value)), errInvalidQuery
			}
			q.SortBy = field
		case strings.EqualFold(arg, "auf") || strings.EqualFold(arg, "asc"):
			q.Ascending = true
		case strings.EqualFold(arg, "ab") || strings.EqualFold(arg, "desc"):
			q.Ascending = false
		default:
			search = append(search, arg)
		}
	}
	q.Search = strings.Join(search, " ")
	return q, "", nil
}

var errInvalidQuery = errors.New("invalid query")

// HandleList lists the stamps matching the /sammlung filters.
func (h *CollectionHandler) HandleList(session *UserSession, args []string) {
	all := h.store.All()
	if len(all) == 0 {
		session.reply(MsgCollectionEmpty)
		return
	}
	q, problem, err := parseQuery(args)
	if err != nil {
		session.reply(problem)
		return
	}
	session.reply(formatStampList(q.Apply(all), len(all)))
}

func formatStampList(stamps []stamp.Stamp, total int) string {
	if len(stamps) == 0 {
		return MsgNoMatches
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "📚 *%d* von %s\n\n", len(stamps), pluralize("Marke", "Marken", total))
	for i, s := range stamps {
		if i == maxListedStamps {
			sb.WriteString("\n" + fmt.Sprintf(MsgListTruncated, len(stamps)-maxListedStamps))
			break
		}
		sb.WriteString(formatStampLine(s) + "\n")
	}
	return strings.TrimSpace(sb.String())
}

// HandleShow sends the stamp photo followed by its details.
func (h *CollectionHandler) HandleShow(session *UserSession, command string, args []string) {
	st, ok := lookupStamp(h.store, session, command, args)
	if !ok {
		return
	}

	if data, mimeType, err := stamp.DecodeImage(st.Image); err != nil {
		log.Warn().Err(err).Str("stampId", st.ID).Msg("failed to decode stored image")
	} else {
		photo := tgbotapi.NewPhoto(session.userId, tgbotapi.FileBytes{Name: st.ID + stamp.ImageExtension(mimeType), Bytes: data})
		if _, err := h.tg.Send(photo); err != nil {
			log.Error().Err(err).Str("stampId", st.ID).Msg("failed to send stamp photo")
		}
	}
	session.reply(formatStampDetails(st))
}

// HandleDelete asks for confirmation before deleting a stamp.
func (h *CollectionHandler) HandleDelete(session *UserSession, command string, args []string) {
	st, ok := lookupStamp(h.store, session, command, args)
	if !ok {
		return
	}
	session.replyWithKeyboard(confirmKeyboard("del", st.ID), MsgConfirmDelete, escapeMarkdown(st.Name), st.ID)
}

// HandleDeleteCallback handles del:yes:<id> and del:no:<id>.
func (h *CollectionHandler) HandleDeleteCallback(session *UserSession, query *tgbotapi.CallbackQuery) {
	removeInlineKeyboard(h.tg, query)
	action, args := callbackParts(query.Data)
	if action != "yes" || len(args) == 0 {
		session.reply(MsgCancelled)
		return
	}
	if err := h.store.Remove(args[0]); err != nil {
		if errors.Is(err, collection.ErrNotFound) {
			session.reply(MsgStampNotFound, escapeMarkdown(args[0]))
			return
		}
		session.replyWithError(err)
		return
	}
	log.Info().Str("stampId", args[0]).Msg("stamp deleted")
	session.reply(MsgStampDeleted)
}

// HandleAlbums lists the albums with their stamp counts.
func (h *CollectionHandler) HandleAlbums(session *UserSession) {
	counts := make(map[string]int)
	for _, s := range h.store.All() {
		counts[s.Album]++
	}
	var sb strings.Builder
	sb.WriteString(MsgAlbumsHead + "\n\n")
	for _, album := range h.store.Albums() {
		fmt.Fprintf(&sb, "• %s: %s\n", escapeMarkdown(album), pluralize("Marke", "Marken", counts[album]))
	}
	session.reply(strings.TrimSpace(sb.String()))
}

// HandleNewAlbum creates an album.
func (h *CollectionHandler) HandleNewAlbum(session *UserSession, name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		session.reply(MsgNewAlbumUsage)
		return
	}
	added, err := h.store.AddAlbum(name)
	if err != nil {
		session.replyWithError(err)
		return
	}
	if !added {
		session.reply(MsgAlbumExists, escapeMarkdown(name))
		return
	}
	session.reply(MsgAlbumCreated, escapeMarkdown(name))
}

// HandleMove assigns a stamp to another existing album.
func (h *CollectionHandler) HandleMove(session *UserSession, args []string) {
	if len(args) < 2 {
		session.reply(MsgMoveUsage)
		return
	}
	st, ok := h.store.Get(args[0])
	if !ok {
		session.reply(MsgStampNotFound, escapeMarkdown(args[0]))
		return
	}
	album := strings.Join(args[1:], " ")
	if !h.store.HasAlbum(album) {
		session.reply(MsgUnknownAlbum, escapeMarkdown(album))
		return
	}
	st.Album = album
	if err := h.store.Update(st); err != nil {
		session.replyWithError(err)
		return
	}
	session.reply(MsgStampMoved, escapeMarkdown(st.Name), escapeMarkdown(album))
}

// HandleCompare shows 2 to 5 stamps side by side.
func (h *CollectionHandler) HandleCompare(session *UserSession, args []string) {
	if len(args) < minCompared || len(args) > maxCompared {
		session.reply(MsgCompareUsage)
		return
	}
	stamps := make([]stamp.Stamp, 0, len(args))
	for _, id := range args {
		st, ok := h.store.Get(id)
		if !ok {
			session.reply(MsgStampNotFound, escapeMarkdown(id))
			return
		}
		stamps = append(stamps, st)
	}
	session.reply(formatComparison(stamp.Compare(stamps)))
}

// HandleExport sends the collection as a JSON backup, or CSV with "csv".
func (h *CollectionHandler) HandleExport(session *UserSession, args []string) {
	stamps := h.store.All()
	if len(stamps) == 0 {
		session.reply(MsgCollectionEmpty)
		return
	}

	ext := "json"
	export := stamp.ExportJSON
	if len(args) > 0 && strings.EqualFold(args[0], "csv") {
		ext = "csv"
		export = stamp.ExportCSV
	}
	data, err := export(stamps)
	if err != nil {
		session.replyWithError(err)
		return
	}

	doc := tgbotapi.NewDocument(session.userId, tgbotapi.FileBytes{
		Name:  stamp.ExportFileName(h.now(), ext),
		Bytes: data,
	})
	doc.Caption = fmt.Sprintf(MsgExportCaption, pluralize("Marke", "Marken", len(stamps)))
	if _, err := h.tg.Send(doc); err != nil {
		session.replyWithError(fmt.Errorf("failed to send export: %w", err))
		return
	}
	log.Info().Int("stamps", len(stamps)).Str("format", ext).Msg("collection exported")
}

// confirmKeyboard builds the yes/no keyboard for <prefix>:yes|no:<id>.
func confirmKeyboard(prefix, id string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(BtnYes, prefix+":yes:"+id),
		tgbotapi.NewInlineKeyboardButtonData(BtnNo, prefix+":no:"+id),
	))
}
