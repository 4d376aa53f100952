package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

func TestParseEmails(t *testing.T) {
	in := strings.NewReader(`
# administradores
 Root@AssetVerse.io
root@assetverse.io
no-es-email
ops@assetverse.io
`)
	emails, invalid, err := parseEmails(in)
	require.NoError(t, err)
	assert.Equal(t, []string{"root@assetverse.io", "ops@assetverse.io"}, emails)
	assert.Equal(t, []string{"no-es-email"}, invalid)
}

func TestParseEmails_Latin1(t *testing.T) {
	raw, err := charmap.ISO8859_1.NewEncoder().String("josé@acme.com\n")
	require.NoError(t, err)
	emails, _, err := parseEmails(transform.NewReader(strings.NewReader(raw), charmap.ISO8859_1.NewDecoder()))
	require.NoError(t, err)
	assert.Equal(t, []string{"josé@acme.com"}, emails)
}

func TestWriteSQL(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeSQL(&buf, []string{"a@b.com", "o'neil@b.com"}))
	out := buf.String()
	assert.Contains(t, out, "('a@b.com'),\n")
	assert.Contains(t, out, "('o''neil@b.com')\n")
	assert.True(t, strings.HasSuffix(out, "ON CONFLICT (email) DO NOTHING;\n"))

	buf.Reset()
	require.NoError(t, writeSQL(&buf, nil))
	assert.NotContains(t, buf.String(), "INSERT")
}
