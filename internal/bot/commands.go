package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

// Command defines a bot command with its handler key and Telegram menu description.
type Command struct {
	Name        string // Command name without slash (e.g., "start")
	Description string // Description shown in Telegram command menu
}

// botCommands defines all available bot commands.
// This is the single source of truth for command definitions.
var botCommands = []Command{
	{Name: "status", Description: "Übersicht der Sammlung"},
	{Name: "sammlung", Description: "Marken suchen, filtern und sortieren"},
	{Name: "marke", Description: "Details einer Marke anzeigen"},
	{Name: "alben", Description: "Alben anzeigen"},
	{Name: "neuesalbum", Description: "Neues Album anlegen"},
	{Name: "verschieben", Description: "Marke in ein anderes Album verschieben"},
	{Name: "vergleich", Description: "Marken vergleichen"},
	{Name: "neuanalyse", Description: "Marke erneut analysieren"},
	{Name: "tiefenanalyse", Description: "Tiefenanalyse einer Marke"},
	{Name: "pruefung", Description: "Expertenprüfung anfordern"},
	{Name: "offen", Description: "Offene Prüfungen anzeigen"},
	{Name: "gutachten", Description: "Expertenbewertung eintragen"},
	{Name: "ablehnen", Description: "Prüfung ablehnen"},
	{Name: "loeschen", Description: "Marke löschen"},
	{Name: "export", Description: "Sammlung exportieren (JSON oder CSV)"},
	{Name: "hilfe", Description: "Hilfe anzeigen"},
}

// RegisterCommands sets the bot's command menu in Telegram.
// This should be called once at startup.
func RegisterCommands(tg BotAPI) {
	commands := make([]tgbotapi.BotCommand, len(botCommands))
	for i, cmd := range botCommands {
		commands[i] = tgbotapi.BotCommand{
			Command:     cmd.Name,
			Description: cmd.Description,
		}
	}

	config := tgbotapi.NewSetMyCommands(commands...)
	if _, err := tg.Request(config); err != nil {
		log.Error().Err(err).Msg("failed to set bot commands")
	} else {
		log.Info().Int("count", len(commands)).Msg("registered bot commands")
	}
}
