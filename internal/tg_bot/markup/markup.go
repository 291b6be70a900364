// Package markup rebuilds Telegram HTML from plain text and its formatting entities.
package markup

import (
	"fmt"
	"html"
	"sort"
	"strings"
	"unicode/utf16"

	"github.com/DenisKhanov/RelayBOT/internal/tg_bot/models"
)

// Reconstruct renders text with entities as Telegram HTML.
// Entity offsets and lengths are UTF-16 code units, the unit Telegram reports them in.
// Ranges outside the text are clamped. Entities sharing one range nest; otherwise an entity
// overlapping the previous one starts where the previous one ended, so every character is
// emitted exactly once.
// The result depends only on the arguments; the input slice is not modified.
func Reconstruct(text string, entities []models.FormattingEntity) string {
	if len(entities) == 0 {
		return Escape(text)
	}

	units := utf16.Encode([]rune(text))
	sorted := make([]models.FormattingEntity, len(entities))
	copy(sorted, entities)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Offset < sorted[j].Offset
	})

	var b strings.Builder
	last := 0
	for i := 0; i < len(sorted); {
		start, end := bounds(sorted[i], len(units))
		// Entities over the same range nest, the first one outermost.
		j := i + 1
		for j < len(sorted) {
			if s, e := bounds(sorted[j], len(units)); s != start || e != end {
				break
			}
			j++
		}
		group := sorted[i:j]
		i = j

		if start < last {
			start = last
		}
		if end <= start {
			continue
		}
		if start > last {
			b.WriteString(Escape(decode(units[last:start])))
		}
		inner := Escape(decode(units[start:end]))
		for k := len(group) - 1; k >= 0; k-- {
			inner = wrap(group[k], inner)
		}
		b.WriteString(inner)
		last = end
	}
	if last < len(units) {
		b.WriteString(Escape(decode(units[last:])))
	}
	return b.String()
}

// Escape makes s safe to embed in Telegram HTML.
func Escape(s string) string {
	return html.EscapeString(s)
}

// Bold wraps already escaped content in <b>.
func Bold(s string) string {
	return "<b>" + s + "</b>"
}

func wrap(e models.FormattingEntity, inner string) string {
	switch e.Kind {
	case models.EntityBold:
		return "<b>" + inner + "</b>"
	case models.EntityItalic:
		return "<i>" + inner + "</i>"
	case models.EntityCode:
		return "<code>" + inner + "</code>"
	case models.EntityPre:
		return "<pre>" + inner + "</pre>"
	case models.EntityUnderline:
		return "<u>" + inner + "</u>"
	case models.EntityStrikethrough:
		return "<s>" + inner + "</s>"
	case models.EntityTextLink:
		return fmt.Sprintf(`<a href="%s">%s</a>`, Escape(e.URL), inner)
	case models.EntityTextMention:
		return fmt.Sprintf(`<a href="tg://user?id=%d">%s</a>`, e.UserID, inner)
	default:
		return inner
	}
}

func decode(units []uint16) string {
	return string(utf16.Decode(units))
}

func bounds(e models.FormattingEntity, n int) (int, int) {
	return clamp(e.Offset, 0, n), clamp(e.Offset+e.Length, 0, n)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
