// Package command classifies free-form operator text into typed bot
// commands. Parsing is total: any input yields exactly one Command value,
// with unparseable text mapped to Help rather than an error, so callers can
// switch exhaustively and never branch on raw text.
//
// Grammar (case-insensitive):
//
//	/live <url>                apply url to latest pending Live Gratuita lot
//	/despertos <url>           apply url to latest pending Despertos lot
//	/link <lotCode> <url>      apply url to an explicit lot
//	/undo latest <live|despertos>  revert latest applied lot of that track
//	<bare url>                 shorthand for the default destination
//	anything else              help
//
// A "url" is recognized only when it matches a known YouTube shape; trailing
// sentence punctuation adjacent to the URL is stripped before validation.
package command

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/qnahub/dispatch-bot/internal/domain"
)

// Kind discriminates the Command union.
type Kind int

const (
	// KindHelp asks the bot to reply with usage text. Reason explains why.
	KindHelp Kind = iota
	// KindApply applies a video URL to a lot (explicit or latest pending).
	KindApply
	// KindUndo reverts the latest applied lot of a destination.
	KindUndo
)

// Command is the tagged union produced by Parse.
//
// For KindApply, exactly one of LotCode or Destination addresses the target
// lot; an explicit LotCode always wins over destination-based lookup. For
// KindUndo, Destination is always set (an undo without a destination token
// parses to KindHelp). URL is set for KindApply only.
type Command struct {
	Kind        Kind
	Destination domain.Destination
	LotCode     string
	URL         string
	// Reason is a short pt-BR hint for KindHelp replies (may be empty for
	// generic unrecognized input).
	Reason string
}

var (
	// youtubeRE matches the external-video-host URL shapes operators paste:
	// watch?v=, youtu.be/, live/, shorts/, embed/.
	youtubeRE = regexp.MustCompile(`(?i)^https?://(?:www\.|m\.)?(?:youtube\.com/(?:watch\?v=|live/|shorts/|embed/)[\w\-]{6,}(?:[?&][\w\-=%.]*)?|youtu\.be/[\w\-]{6,}(?:\?[\w\-=%.]*)?)$`)

	// lotCodeRE matches generated lot codes: date-time stamp plus random
	// suffix, e.g. "250829-1432-7F3K".
	lotCodeRE = regexp.MustCompile(`(?i)^\d{6}-\d{4}-[A-Z0-9]{4}$`)

	// replyLotRE extracts the lot code from a quoted dispatch message.
	replyLotRE = regexp.MustCompile(`(?i)\bLote:\s*(\d{6}-\d{4}-[A-Z0-9]{4})\b`)
)

// CleanURL strips trailing sentence punctuation from a pasted URL and
// reports whether the remainder is a recognized video link.
func CleanURL(raw string) (string, bool) {
	u := strings.TrimRight(strings.TrimSpace(raw), ".,;:!?)»”\"'")
	if youtubeRE.MatchString(u) {
		return u, true
	}
	return "", false
}

// LotCodeFromReply scans quoted reply-context text for a "Lote: <code>"
// line and returns the code if present. Threading context is the weakest
// addressing signal; callers must prefer explicit codes and destination
// lookup over it.
func LotCodeFromReply(replyText string) string {
	m := replyLotRE.FindStringSubmatch(replyText)
	if m == nil {
		return ""
	}
	return strings.ToUpper(m[1])
}

// Parse classifies one operator message. defaultDest is the destination the
// bare-URL shorthand binds to. The input is NFC-normalized first: some
// clients send Portuguese diacritics decomposed, which would break token
// matching.
func Parse(text string, defaultDest domain.Destination) Command {
	text = norm.NFC.String(strings.TrimSpace(text))
	if text == "" {
		return Command{Kind: KindHelp}
	}

	fields := strings.Fields(text)
	head := strings.ToLower(fields[0])

	switch head {
	case "/live":
		return parseDestApply(fields, domain.DestLiveGratuita)
	case "/despertos":
		return parseDestApply(fields, domain.DestDespertos)
	case "/link":
		return parseLink(fields)
	case "/undo":
		return parseUndo(fields)
	}

	// Bare URL shorthand: a pasted link with no slash command applies to
	// the default destination.
	if len(fields) == 1 {
		if url, ok := CleanURL(fields[0]); ok {
			return Command{Kind: KindApply, Destination: defaultDest, URL: url}
		}
	}

	return Command{Kind: KindHelp}
}

func parseDestApply(fields []string, dest domain.Destination) Command {
	if len(fields) != 2 {
		return Command{Kind: KindHelp, Reason: "envie o comando seguido do link do vídeo"}
	}
	url, ok := CleanURL(fields[1])
	if !ok {
		return Command{Kind: KindHelp, Reason: "link de vídeo não reconhecido"}
	}
	return Command{Kind: KindApply, Destination: dest, URL: url}
}

func parseLink(fields []string) Command {
	if len(fields) != 3 {
		return Command{Kind: KindHelp, Reason: "uso: /link <lote> <url>"}
	}
	code := strings.ToUpper(fields[1])
	if !lotCodeRE.MatchString(code) {
		return Command{Kind: KindHelp, Reason: "código de lote inválido"}
	}
	url, ok := CleanURL(fields[2])
	if !ok {
		return Command{Kind: KindHelp, Reason: "link de vídeo não reconhecido"}
	}
	return Command{Kind: KindApply, LotCode: code, URL: url}
}

func parseUndo(fields []string) Command {
	// An undo must be explicit about the destination; guessing which track
	// to revert would be worse than asking again.
	if len(fields) != 3 || strings.ToLower(fields[1]) != "latest" {
		return Command{Kind: KindHelp, Reason: "uso: /undo latest <live|despertos>"}
	}
	switch strings.ToLower(fields[2]) {
	case "live":
		return Command{Kind: KindUndo, Destination: domain.DestLiveGratuita}
	case "despertos":
		return Command{Kind: KindUndo, Destination: domain.DestDespertos}
	}
	return Command{Kind: KindHelp, Reason: "uso: /undo latest <live|despertos>"}
}

// HelpText is the usage reply sent for unrecognized input.
const HelpText = "Comandos disponíveis:\n" +
	"/live <url> - aplica o link ao último lote pendente da Live Gratuita\n" +
	"/despertos <url> - aplica o link ao último lote pendente do Despertos\n" +
	"/link <lote> <url> - aplica o link a um lote específico\n" +
	"/undo latest <live|despertos> - desfaz o último lote aplicado\n" +
	"Ou envie apenas o link do vídeo para aplicar ao lote pendente da Live Gratuita."
