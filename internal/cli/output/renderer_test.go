package output

import (
	"bytes"
	"testing"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEffectiveMode(t *testing.T) {
	tests := []struct {
		name  string
		mode  OutputMode
		isTTY bool
		want  OutputMode
	}{
		{"auto on terminal", ModeAuto, true, ModeText},
		{"auto piped", ModeAuto, false, ModeMarkdown},
		{"empty is auto", "", false, ModeMarkdown},
		{"explicit text piped", ModeText, false, ModeText},
		{"explicit json on terminal", ModeJSON, true, ModeJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRendererWithTTY(&bytes.Buffer{}, &bytes.Buffer{}, tt.isTTY, tt.mode)
			assert.Equal(t, tt.want, r.EffectiveMode())
		})
	}
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeAuto, m)

	m, err = ParseMode(" JSON ")
	require.NoError(t, err)
	assert.Equal(t, ModeJSON, m)

	_, err = ParseMode("yaml")
	assert.ErrorContains(t, err, "invalid output mode")
}

func TestRenderer_BufferIsNotTerminal(t *testing.T) {
	r := NewRenderer(&bytes.Buffer{}, &bytes.Buffer{}, ModeAuto)
	assert.False(t, r.IsTTY())
	assert.Equal(t, ModeMarkdown, r.EffectiveMode())
}

func TestRenderer_MarkdownOutput(t *testing.T) {
	out := &bytes.Buffer{}
	r := NewRendererWithTTY(out, &bytes.Buffer{}, false, ModeAuto)

	r.Header(1, "Run abc")
	r.KeyValue("Status", "completed")
	r.Table([]string{"key", "records"}, [][]string{{"tables.20261014", "3"}})

	got := out.String()
	assert.Contains(t, got, "# Run abc\n")
	assert.Contains(t, got, "- **Status:** completed")
	assert.Contains(t, got, "| key | records |")
	assert.Contains(t, got, "| tables.20261014 | 3 |")
	assert.NotContains(t, got, "\x1b[")
}

func TestRenderer_TextTableUnstyledWhenPiped(t *testing.T) {
	out := &bytes.Buffer{}
	r := NewRendererWithTTY(out, &bytes.Buffer{}, false, ModeText)

	r.Success("done")
	r.Table([]string{"A"}, [][]string{{"x"}})

	got := out.String()
	assert.Contains(t, got, "✓ done")
	assert.Contains(t, got, "x")
	assert.NotContains(t, got, "\x1b[")
}

func TestRenderer_StyledOnTerminal(t *testing.T) {
	text.EnableColors()
	out := &bytes.Buffer{}
	r := NewRendererWithTTY(out, &bytes.Buffer{}, true, ModeAuto)

	r.StatusLine("run", "failed", "boom")
	assert.Contains(t, out.String(), "\x1b[")
}

func TestRenderer_WarningGoesToStderr(t *testing.T) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	r := NewRendererWithTTY(out, errOut, false, ModeMarkdown)

	r.Warning("no documents")
	assert.Empty(t, out.String())
	assert.Equal(t, "Warning: no documents\n", errOut.String())
}

func TestRenderer_JSON(t *testing.T) {
	out := &bytes.Buffer{}
	r := NewRendererWithTTY(out, &bytes.Buffer{}, false, ModeJSON)

	require.NoError(t, r.JSON(CheckpointOutput{Key: "tables.20261014", Records: 2}))
	assert.Contains(t, out.String(), `"key": "tables.20261014"`)
	assert.Contains(t, out.String(), `"records": 2`)
}

func TestFormatTable_Escapes(t *testing.T) {
	got := FormatTable([]string{"A|B"}, [][]string{{"line1\nline2"}})
	assert.Equal(t, "| A\\|B |\n| --- |\n| line1<br>line2 |", got)
}

func TestFormatHeader_ClampsLevel(t *testing.T) {
	assert.Equal(t, "# T", FormatHeader(0, "T"))
	assert.Equal(t, "###### T", FormatHeader(9, "T"))
}
