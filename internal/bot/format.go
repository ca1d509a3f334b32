package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/xaenox/second-brain/internal/models"
)

// maxMessageLength is Telegram's limit on message text. Lengths are measured
// in bytes, which never undercounts Telegram's UTF-16 units.
const maxMessageLength = 4096

// maxTitleRunes bounds a card title so a single card always fits a message.
const maxTitleRunes = 256

// escapeMarkdown escapes special characters for MarkdownV2.
func escapeMarkdown(text string) string {
	specialChars := []string{"\\", "_", "*", "[", "]", "(", ")", "~", "`", ">", "#", "+", "-", "=", "|", "{", "}", ".", "!"}
	escaped := text
	for _, char := range specialChars {
		escaped = strings.ReplaceAll(escaped, char, "\\"+char)
	}
	return escaped
}

// formatCard renders one content item as a MarkdownV2 block.
func formatCard(item models.ContentItem, now time.Time) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s *%s*\n",
		models.ContentType(item.Type).Icon(),
		escapeMarkdown(truncate(models.SanitizeTitle(item.Title), maxTitleRunes)))
	fmt.Fprintf(&sb, "_%s_ · id %s\n",
		escapeMarkdown(models.TimeAgo(item.CreatedOr(now), now)),
		escapeMarkdown(fmt.Sprint(item.ID)))
	sb.WriteString(escapeMarkdown(item.Link) + "\n")

	if len(item.Tags) > 0 {
		tags := make([]string, len(item.Tags))
		for i, tag := range item.Tags {
			tags[i] = escapeMarkdown("#" + strings.ReplaceAll(models.SanitizeTitle(tag.Title), " ", "_"))
		}
		sb.WriteString(strings.Join(tags, " ") + "\n")
	}
	return sb.String()
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}

// chunkCards packs cards into as few messages as fit within limit bytes,
// keeping their order. The header opens the first message only. A card that
// is larger than limit on its own is sent alone.
func chunkCards(header string, cards []string, limit int) []string {
	var chunks []string
	var sb strings.Builder
	sb.WriteString(header)

	for _, card := range cards {
		if sb.Len() > 0 && sb.Len()+len(card) > limit {
			chunks = append(chunks, sb.String())
			sb.Reset()
		}
		sb.WriteString(card)
	}
	if sb.Len() > 0 {
		chunks = append(chunks, sb.String())
	}
	return chunks
}
