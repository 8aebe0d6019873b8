package bot

// =============================================================================
// General messages
// =============================================================================

const (
	MsgCancelled     = "Abgebrochen."
	MsgUnexpectedErr = `Unerwarteter Fehler: %s`
	MsgSendPhoto     = "Schicke mir ein Foto einer Briefmarke, um sie zu analysieren. /hilfe zeigt alle Befehle."
	MsgHelp          = `
		📮 *Philatelie-Assistent*

		Schicke ein Foto einer Briefmarke. Die Bildunterschrift wird als Hinweis für die Analyse genutzt (z.B. "Bayern Kreuzer").

		*Sammlung*
		/status - Übersicht
		/sammlung - Marken auflisten
		  Filter: ` + "`album:Europa` `status:pruefung` `sort:wert` `auf`" + ` und Suchbegriffe
		/marke <id> - Details
		/alben - Alben anzeigen
		/neuesalbum <name> - Album anlegen
		/verschieben <id> <album> - Album wechseln
		/vergleich <id> <id> ... - bis zu 5 Marken vergleichen
		/loeschen <id> - Marke löschen
		/export \[csv] - Sicherung herunterladen

		*Analyse*
		/neuanalyse <id> \[stichworte] - erneut analysieren
		/tiefenanalyse <id> \[stichworte] - Tiefenanalyse

		*Expertenprüfung*
		/pruefung <id> - Prüfung anfordern
		/offen - offene Prüfungen
		/gutachten <id> \[wert] \[| notiz] - Bewertung eintragen
		/ablehnen <id> - Prüfung ablehnen`
)

// =============================================================================
// Scanner messages
// =============================================================================

const (
	MsgAnalyzing          = "🔍 Analysiere Briefmarke..."
	MsgDeepAnalyzing      = "🔬 Tiefenanalyse läuft..."
	MsgDownloadFailed     = "Foto konnte nicht geladen werden. Bitte erneut senden."
	MsgScanExpired        = "Dieser Scan ist abgelaufen. Bitte das Foto erneut senden."
	MsgScanDiscarded      = "Scan verworfen. Schicke ein neues Foto."
	MsgScanNothingToSave  = "Für diesen Scan liegt kein Ergebnis vor."
	MsgStampSaved         = "✅ *%s* im Album *%s* gespeichert (ID `%s`)."
	MsgReanalysisDone     = "✅ Analyse aktualisiert."
	MsgAnalysisFailedHead = "⚠️ *Analyse fehlgeschlagen*"
	MsgAnalysisTipsHead   = "*Tipps für bessere Ergebnisse:*"
	MsgAnalysisRetryHint  = "Wiederhole den Befehl, um es erneut zu versuchen."
	MsgSaveToAlbum        = "In welchem Album speichern?"
	MsgReanalyzeUsage     = "Verwendung: `%s <id> [stichworte]`"
	MsgImageUnreadable    = "Das gespeicherte Bild dieser Marke ist beschädigt."
)

const (
	BtnRetry    = "🔄 Erneut analysieren"
	BtnRetake   = "📷 Neu aufnehmen"
	BtnDiscard  = "🗑 Verwerfen"
	BtnYes      = "✅ Ja"
	BtnNo       = "❌ Nein"
	BtnSaveInto = "💾 %s"
)

// =============================================================================
// Collection messages
// =============================================================================

const (
	MsgCollectionEmpty    = "Deine Sammlung ist noch leer. Schicke ein Foto, um die erste Marke zu erfassen."
	MsgNoMatches          = "Keine Marken gefunden."
	MsgStampNotFound      = "Keine Marke mit der ID `%s` gefunden."
	MsgStampIDRequired    = "Bitte gib eine Marken-ID an, z.B. `%s a1b2c3d4`."
	MsgConfirmDelete      = "Marke *%s* (`%s`) wirklich löschen?"
	MsgStampDeleted       = "🗑 Marke gelöscht."
	MsgAlbumsHead         = "*Alben*"
	MsgNewAlbumUsage      = "Verwendung: `/neuesalbum <name>`"
	MsgAlbumCreated       = "✅ Album *%s* angelegt."
	MsgAlbumExists        = "Das Album *%s* gibt es bereits."
	MsgMoveUsage          = "Verwendung: `/verschieben <id> <album>`"
	MsgUnknownAlbum       = "Das Album *%s* gibt es nicht. /alben zeigt alle Alben."
	MsgStampMoved         = "✅ *%s* nach *%s* verschoben."
	MsgCompareUsage       = "Gib 2 bis 5 Marken-IDs an, z.B. `/vergleich a1b2c3d4 e5f6a7b8`."
	MsgInvalidSort        = "Unbekannte Sortierung *%s*. Möglich: wert, jahr, land, zustand, name, datum."
	MsgInvalidStatus      = "Unbekannter Status *%s*. Möglich: ki, pruefung, zertifiziert."
	MsgExportCaption      = "Sicherung deiner Sammlung (%s)"
	MsgListTruncated      = "… und %d weitere. Grenze die Suche mit Filtern ein."
	MsgCompareDiverseNote = "⚡ = Werte unterscheiden sich"
)

// =============================================================================
// Appraisal messages
// =============================================================================

const (
	MsgAppraisalRequested = "📨 Prüfung für *%s* angefordert."
	MsgAlreadyPending     = "Für *%s* läuft bereits eine Prüfung."
	MsgNoOpenAppraisals   = "Keine offenen Prüfungen."
	MsgOpenAppraisalsHead = "*Offene Prüfungen*"
	MsgSubmitUsage        = "Verwendung: `/gutachten <id> [wert] [| notiz]`"
	MsgAppraisalSaved     = "🏅 Gutachten für *%s* gespeichert: %s"
	MsgConfirmReject      = "Prüfung für *%s* (`%s`) ablehnen?"
	MsgNotPending         = "Für *%s* ist keine Prüfung offen."
	MsgAppraisalRejected  = "Prüfung für *%s* abgelehnt."
)
