package markup

import (
	"html"
	"regexp"
	"testing"

	"github.com/DenisKhanov/RelayBOT/internal/tg_bot/models"
	"github.com/stretchr/testify/assert"
)

var tagPattern = regexp.MustCompile(`<[^>]+>`)

func plain(markup string) string {
	return html.UnescapeString(tagPattern.ReplaceAllString(markup, ""))
}

func TestReconstruct(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		entities []models.FormattingEntity
		want     string
	}{
		{
			name: "escapes without entities",
			text: "a<b",
			want: "a&lt;b",
		},
		{
			name:     "bold word",
			text:     "hello world",
			entities: []models.FormattingEntity{{Offset: 6, Length: 5, Kind: models.EntityBold}},
			want:     "hello <b>world</b>",
		},
		{
			name: "every supported kind",
			text: "b i c p u s",
			entities: []models.FormattingEntity{
				{Offset: 0, Length: 1, Kind: models.EntityBold},
				{Offset: 2, Length: 1, Kind: models.EntityItalic},
				{Offset: 4, Length: 1, Kind: models.EntityCode},
				{Offset: 6, Length: 1, Kind: models.EntityPre},
				{Offset: 8, Length: 1, Kind: models.EntityUnderline},
				{Offset: 10, Length: 1, Kind: models.EntityStrikethrough},
			},
			want: "<b>b</b> <i>i</i> <code>c</code> <pre>p</pre> <u>u</u> <s>s</s>",
		},
		{
			name:     "text link escapes url",
			text:     "go here",
			entities: []models.FormattingEntity{{Offset: 3, Length: 4, Kind: models.EntityTextLink, URL: "https://x.y/?a=1&b=2"}},
			want:     `go <a href="https://x.y/?a=1&amp;b=2">here</a>`,
		},
		{
			name:     "text mention",
			text:     "hi bob",
			entities: []models.FormattingEntity{{Offset: 3, Length: 3, Kind: models.EntityTextMention, UserID: 42}},
			want:     `hi <a href="tg://user?id=42">bob</a>`,
		},
		{
			name:     "unknown kind passes through escaped",
			text:     "x & y",
			entities: []models.FormattingEntity{{Offset: 0, Length: 5, Kind: "spoiler"}},
			want:     "x &amp; y",
		},
		{
			name:     "entity content is escaped",
			text:     "<tag>",
			entities: []models.FormattingEntity{{Offset: 0, Length: 5, Kind: models.EntityCode}},
			want:     "<code>&lt;tag&gt;</code>",
		},
		{
			name:     "offsets count utf16 units",
			text:     "😀 hi",
			entities: []models.FormattingEntity{{Offset: 3, Length: 2, Kind: models.EntityBold}},
			want:     "😀 <b>hi</b>",
		},
		{
			name: "unsorted entities",
			text: "one two",
			entities: []models.FormattingEntity{
				{Offset: 4, Length: 3, Kind: models.EntityItalic},
				{Offset: 0, Length: 3, Kind: models.EntityBold},
			},
			want: "<b>one</b> <i>two</i>",
		},
		{
			name: "overlap is clipped",
			text: "abcdef",
			entities: []models.FormattingEntity{
				{Offset: 0, Length: 4, Kind: models.EntityBold},
				{Offset: 2, Length: 4, Kind: models.EntityItalic},
			},
			want: "<b>abcd</b><i>ef</i>",
		},
		{
			name: "contained entity is dropped",
			text: "abcdef",
			entities: []models.FormattingEntity{
				{Offset: 0, Length: 6, Kind: models.EntityBold},
				{Offset: 1, Length: 2, Kind: models.EntityItalic},
			},
			want: "<b>abcdef</b>",
		},
		{
			name: "same range nests",
			text: "x and y",
			entities: []models.FormattingEntity{
				{Offset: 0, Length: 1, Kind: models.EntityBold},
				{Offset: 0, Length: 1, Kind: models.EntityItalic},
				{Offset: 6, Length: 1, Kind: models.EntityUnderline},
			},
			want: "<b><i>x</i></b> and <u>y</u>",
		},
		{
			name:     "range past the end is clamped",
			text:     "abcdef",
			entities: []models.FormattingEntity{{Offset: 4, Length: 10, Kind: models.EntityBold}},
			want:     "abcd<b>ef</b>",
		},
		{
			name:     "range entirely outside is ignored",
			text:     "abc",
			entities: []models.FormattingEntity{{Offset: 10, Length: 2, Kind: models.EntityBold}},
			want:     "abc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Reconstruct(tt.text, tt.entities))
		})
	}
}

func TestReconstructKeepsContent(t *testing.T) {
	texts := []struct {
		text     string
		entities []models.FormattingEntity
	}{
		{"plain & simple <text>", nil},
		{"quote \"this\" and 'that'", []models.FormattingEntity{{Offset: 6, Length: 6, Kind: models.EntityItalic}}},
		{"Привет, мир!", []models.FormattingEntity{{Offset: 0, Length: 6, Kind: models.EntityBold}, {Offset: 8, Length: 3, Kind: models.EntityUnderline}}},
		{"emoji 🎉 party <b>", []models.FormattingEntity{{Offset: 6, Length: 2, Kind: models.EntityBold}, {Offset: 9, Length: 5, Kind: models.EntityTextLink, URL: "https://example.com"}}},
	}

	for _, tt := range texts {
		assert.Equal(t, tt.text, plain(Reconstruct(tt.text, tt.entities)))
	}
}

func TestReconstructIsDeterministic(t *testing.T) {
	entities := []models.FormattingEntity{
		{Offset: 6, Length: 5, Kind: models.EntityBold},
		{Offset: 0, Length: 5, Kind: models.EntityItalic},
	}
	first := Reconstruct("hello world", entities)
	assert.Equal(t, first, Reconstruct("hello world", entities))
	assert.Equal(t, 6, entities[0].Offset, "input order must not change")
}

func TestBold(t *testing.T) {
	assert.Equal(t, "<b>a &amp; b</b>", Bold(Escape("a & b")))
}
