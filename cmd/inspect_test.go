package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetInspectCmd(t *testing.T) {
	cmd := getInspectCmd()
	require.NotNil(t, cmd)
	assert.Equal(t, "inspect <archive.zip|url>", cmd.Use)
	assert.NotNil(t, cmd.RunE)

	f := cmd.Flags().Lookup("delimiter")
	require.NotNil(t, f)
	assert.Equal(t, "tab", f.DefValue)
	require.NotNil(t, cmd.Flags().Lookup("output"))

	assert.Error(t, cmd.Args(cmd, nil), "archive argument is required")
	assert.NoError(t, cmd.Args(cmd, []string{"a.zip"}))
}

func TestDelimiter(t *testing.T) {
	tests := []struct {
		in  string
		out rune
		err bool
	}{
		{"tab", '\t', false},
		{"", '\t', false},
		{`\t`, '\t', false},
		{",", ',', false},
		{";", ';', false},
		{"|", '|', false},
		{"ab", 0, true},
		{`"`, 0, true},
		{"\n", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			r, err := delimiter(tt.in)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.out, r)
		})
	}
}

func TestOutputName(t *testing.T) {
	tests := []struct {
		src   string
		comma rune
		out   string
	}{
		{"archive.zip", '\t', "archive.tsv"},
		{"/tmp/data/1101.zip", ',', "1101.csv"},
		{"https://example.org/archives/1101.zip", '\t', "1101.tsv"},
		{"https://example.org/archives/", ';', "archives.tsv"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			assert.Equal(t, tt.out, outputName(tt.src, tt.comma))
		})
	}
}
