package output_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/leapstack-labs/lineage/internal/cli/output"
)

// ---------- Mode Tests ----------

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want output.Mode
	}{
		{"text", output.ModeText},
		{"json", output.ModeJSON},
		{"markdown", output.ModeMarkdown},
		{"md", output.ModeMarkdown},
		{"JSON", output.ModeJSON},
		{"  text  ", output.ModeText},
		{"auto", output.ModeAuto},
		{"", output.ModeAuto},
		{"bogus", output.ModeAuto},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, output.ParseMode(tt.in))
		})
	}
}

func TestEffectiveModeExplicit(t *testing.T) {
	var out, errOut bytes.Buffer

	r := output.NewRenderer(&out, &errOut, output.ModeJSON)
	assert.Equal(t, output.ModeJSON, r.EffectiveMode())

	r = output.NewRenderer(&out, &errOut, output.ModeText)
	assert.Equal(t, output.ModeText, r.EffectiveMode())
}

func TestEffectiveModeAutoFallsBackToMarkdown(t *testing.T) {
	// A bytes.Buffer is not a terminal, so auto resolves to markdown.
	var out, errOut bytes.Buffer
	r := output.NewRenderer(&out, &errOut, output.ModeAuto)
	assert.Equal(t, output.ModeMarkdown, r.EffectiveMode())
}

func TestEffectiveModeNormalizesUnknown(t *testing.T) {
	var out, errOut bytes.Buffer
	r := output.NewRenderer(&out, &errOut, output.Mode("nonsense"))
	assert.Equal(t, output.ModeMarkdown, r.EffectiveMode())
}

// ---------- Rendering Tests ----------

func TestPrintlnAndPrintf(t *testing.T) {
	var out, errOut bytes.Buffer
	r := output.NewRenderer(&out, &errOut, output.ModeText)

	r.Println("hello")
	r.Printf("%s: %d\n", "count", 3)

	assert.Equal(t, "hello\ncount: 3\n", out.String())
	assert.Empty(t, errOut.String())
}

func TestHeaderWritesPlainTextWhenNotTerminal(t *testing.T) {
	var out, errOut bytes.Buffer
	r := output.NewRenderer(&out, &errOut, output.ModeText)

	r.Header(1, "Results")
	r.Header(2, "Sources")

	// Styles degrade to plain text on non-terminal writers.
	assert.Equal(t, "Results\nSources\n", out.String())
}

func TestStylesResolved(t *testing.T) {
	var out, errOut bytes.Buffer
	r := output.NewRenderer(&out, &errOut, output.ModeText)

	styles := r.Styles()
	assert.Equal(t, "users", styles.TableName.Render("users"))
	assert.Equal(t, "note", styles.Muted.Render("note"))
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "# Lineage", output.FormatHeader(1, "Lineage"))
	assert.Equal(t, "## Sources", output.FormatHeader(2, "Sources"))
	assert.Equal(t, "- **Total Tables**: 4", output.FormatKeyValue("Total Tables", "4"))
}

func TestSuccessAndWarning(t *testing.T) {
	var out, errOut bytes.Buffer
	r := output.NewRenderer(&out, &errOut, output.ModeText)

	r.Success("schema loaded")
	r.Warning("no catalog configured")

	assert.Equal(t, "✓ schema loaded\n", out.String())
	assert.Equal(t, "! no catalog configured\n", errOut.String())
}

func TestJSONIndented(t *testing.T) {
	var out, errOut bytes.Buffer
	r := output.NewRenderer(&out, &errOut, output.ModeJSON)

	err := r.JSON(map[string]int{"tables": 4})
	assert.NoError(t, err)
	assert.Equal(t, "{\n  \"tables\": 4\n}\n", out.String())
}
