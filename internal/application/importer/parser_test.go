package importer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name     string
		hint     string
		filename string
		data     string
		want     string
		wantErr  bool
	}{
		{name: "explicit hint wins", hint: "json", filename: "x.csv", want: FormatJSON},
		{name: "hint normalized", hint: " CSV ", want: FormatCSV},
		{name: "bad hint", hint: "xml", wantErr: true},
		{name: "csv extension", filename: "templates.CSV", want: FormatCSV},
		{name: "json extension", filename: "t.json", want: FormatJSON},
		{name: "txt extension", filename: "notes.txt", want: FormatText},
		{name: "json sniffed", data: `[{"title":"a"}]`, want: FormatJSON},
		{name: "csv sniffed", data: "title,body\na,b", want: FormatCSV},
		{name: "text fallback", data: "Greeting\nHi there!", want: FormatText},
		{name: "empty payload", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectFormat(tt.hint, tt.filename, []byte(tt.data))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCSV(t *testing.T) {
	payload := strings.Join([]string{
		`Title,Body,Category,Client Type,Keywords`,
		`Delivery note,"Hi, your files are attached.",delivery,business,delivery;files`,
		`,missing a title,,,`,
		`Follow up,Checking in on the draft.,,,`,
	}, "\n")

	records, rowErrs, err := Parse(FormatCSV, strings.NewReader(payload))
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, 2, records[0].Row)
	assert.Equal(t, "Delivery note", records[0].Title)
	assert.Equal(t, "Hi, your files are attached.", records[0].Body)
	assert.Equal(t, "delivery", records[0].Category)
	assert.Equal(t, "business", records[0].ClientType)
	assert.Equal(t, []string{"delivery", "files"}, records[0].Keywords)
	assert.Equal(t, "Follow up", records[1].Title)

	require.Len(t, rowErrs, 1)
	assert.Equal(t, 3, rowErrs[0].Row)
	assert.Equal(t, "missing title", rowErrs[0].Reason)
}

func TestParseCSVRequiresTitleAndBodyColumns(t *testing.T) {
	_, _, err := Parse(FormatCSV, strings.NewReader("name,text\na,b"))
	assert.Error(t, err)

	// "content" is accepted as a body alias.
	records, rowErrs, err := Parse(FormatCSV, strings.NewReader("title,content\nGreeting,Hello!"))
	require.NoError(t, err)
	assert.Empty(t, rowErrs)
	require.Len(t, records, 1)
	assert.Equal(t, "Hello!", records[0].Body)
}

func TestParseCSVShortRow(t *testing.T) {
	records, rowErrs, err := Parse(FormatCSV, strings.NewReader("title,body\nonly-title"))
	require.NoError(t, err)
	assert.Empty(t, records)
	require.Len(t, rowErrs, 1)
	assert.Equal(t, "missing body", rowErrs[0].Reason)
}

func TestParseJSON(t *testing.T) {
	payload := `[
		{"title":"Kickoff","body":"Welcome aboard!","tone_style":"warm"},
		{"title":"","body":"no title"},
		{"title":"Alias","content":"body via content"},
		42
	]`

	records, rowErrs, err := Parse(FormatJSON, strings.NewReader(payload))
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, "Kickoff", records[0].Title)
	assert.Equal(t, "warm", records[0].ToneStyle)
	assert.Equal(t, "body via content", records[1].Body)

	require.Len(t, rowErrs, 2)
	assert.Equal(t, 2, rowErrs[0].Row)
	assert.Equal(t, "missing title", rowErrs[0].Reason)
	assert.Equal(t, 4, rowErrs[1].Row)
	assert.Contains(t, rowErrs[1].Reason, "not a template object")
}

func TestParseJSONNotArray(t *testing.T) {
	_, _, err := Parse(FormatJSON, strings.NewReader(`{"title":"x"}`))
	assert.Error(t, err)
}

func TestParseText(t *testing.T) {
	payload := "Kickoff greeting\nWelcome! Excited to start.\n\nOrphan line\n\nRevision ack\nGot it, revising now.\nWill send tonight."

	records, rowErrs, err := Parse(FormatText, strings.NewReader(payload))
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, "Kickoff greeting", records[0].Title)
	assert.Equal(t, "Welcome! Excited to start.", records[0].Body)
	assert.Equal(t, "Got it, revising now.\nWill send tonight.", records[1].Body)

	// A single-line paragraph has a title but nothing to use as a body.
	require.Len(t, rowErrs, 1)
	assert.Equal(t, "missing body", rowErrs[0].Reason)
}

func TestParseUnknownFormat(t *testing.T) {
	_, _, err := Parse("yaml", strings.NewReader("x"))
	assert.Error(t, err)
}
