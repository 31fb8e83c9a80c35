// Package format renders a dispatched lot into size-bounded outbound text
// messages. It is intentionally small and dependency-free, with the same
// library ergonomics used elsewhere in this codebase:
//
//   - No logging (callers decide how/what to log)
//   - Pure, deterministic functions: same input, same chunks
//   - Ordering preserved exactly as given (snapshot creation order)
//
// Chunking contract: every chunk is the header followed by as many whole
// item lines as fit under the maximum length. A line that cannot fit under
// the budget even alone is hard-truncated to fit (never split across two
// chunks when it would fit whole in one).
package format

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/qnahub/dispatch-bot/internal/domain"
)

const (
	// DefaultMaxLen is the per-message length budget. Telegram caps text
	// messages at 4096; 3800 leaves slack for entity expansion.
	DefaultMaxLen = 3800

	// minLineBudget is the minimum number of characters kept from a line
	// that has to be hard-truncated to fit under the budget.
	minLineBudget = 20
)

// whitespaceRE collapses consecutive whitespace to a single space.
var whitespaceRE = regexp.MustCompile(`\s+`)

// Header builds the message header for a lot: date (in loc), destination
// label, lot code, and total count, followed by the section title. The lot
// code line is what operators quote when addressing the lot explicitly.
func Header(dest domain.Destination, lotCode string, total int, now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	lines := []string{
		"Data: " + now.In(loc).Format("02/01/2006"),
		"Destino: " + dest.Label(),
		"Lote: " + lotCode,
		fmt.Sprintf("Total de perguntas: %d", total),
		"",
		"Perguntas selecionadas:",
	}
	return strings.Join(lines, "\n")
}

// QuestionLine renders one snapshot item as a numbered list entry:
// "N. [#id] Author: text" with whitespace collapsed and a default author.
func QuestionLine(index int, item domain.LotItem) string {
	author := strings.TrimSpace(item.Author)
	if author == "" {
		author = "Anônimo"
	}
	text := whitespaceRE.ReplaceAllString(strings.TrimSpace(item.Text), " ")
	return fmt.Sprintf("%d. [#%d] %s: %s", index+1, item.QuestionID, author, text)
}

// Lines renders every item of the lot in position order.
func Lines(items []domain.LotItem) []string {
	out := make([]string, 0, len(items))
	for i, it := range items {
		out = append(out, QuestionLine(i, it))
	}
	return out
}

// Split packs lines into the minimal ordered sequence of messages such that
// each message is header + joined lines and no message exceeds maxLen. Lines
// are joined with a newline. A maxLen <= 0 falls back to DefaultMaxLen.
//
// A single line that cannot fit under maxLen together with the header is
// truncated (keeping at least minLineBudget characters) and emitted as its
// own message; the cut remainder is dropped.
func Split(header string, lines []string, maxLen int) []string {
	if maxLen <= 0 {
		maxLen = DefaultMaxLen
	}

	var messages []string
	var body string

	for _, line := range lines {
		candidate := line
		if body != "" {
			candidate = body + "\n" + line
		}
		if len(header)+1+len(candidate) <= maxLen {
			body = candidate
			continue
		}

		// Current message is full; flush it.
		if body != "" {
			messages = append(messages, header+"\n"+body)
		}

		// Oversized line: truncate so header + line still fits.
		if len(header)+1+len(line) > maxLen {
			available := maxLen - len(header) - 1
			if available < minLineBudget {
				available = minLineBudget
			}
			if available > len(line) {
				available = len(line)
			}
			// Back up to a rune boundary: a mid-rune cut produces invalid
			// UTF-8, which the messaging API rejects.
			for available > 0 && available < len(line) && !utf8.RuneStart(line[available]) {
				available--
			}
			messages = append(messages, header+"\n"+line[:available])
			body = ""
			continue
		}

		body = line
	}

	if body != "" {
		messages = append(messages, header+"\n"+body)
	}

	return messages
}
