package catalog

import (
	"bytes"
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gzipLines(t *testing.T, lines ...string) []byte {
	t.Helper()

	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	_, err := gw.Write([]byte(strings.Join(lines, "\n")))
	require.NoError(t, err)
	require.NoError(t, gw.Close())

	return buf.Bytes()
}

// createTestCatalogFile writes a gzipped catalog file and returns its directory.
func createTestCatalogFile(t *testing.T, name string, lines ...string) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), gzipLines(t, lines...), 0o600))

	return dir
}

func TestDecode(t *testing.T) {
	data := gzipLines(t,
		`{"name":"Tomato","price":5.5,"stock":10,"unit":"kg","category":"vegetables"}`,
		``,
		`   `,
		`{"name":"Lettuce","price":8,"stock":3,"unit":"unit"}`,
	)

	records, err := Decode(context.Background(), bytes.NewReader(data))

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 1, records[0].Line)
	assert.Equal(t, "Tomato", records[0].Name)
	assert.Equal(t, 5.5, records[0].Price)
	assert.Equal(t, "vegetables", records[0].Category)
	assert.Equal(t, 4, records[1].Line)
	assert.Equal(t, "Lettuce", records[1].Name)
	assert.Equal(t, 3, records[1].Stock)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name     string
		lines    []string
		wantLine int
	}{
		{
			name:     "malformed JSON",
			lines:    []string{`{"name":"a","price":1,"unit":"kg"}`, `{"name":`},
			wantLine: 2,
		},
		{
			name:     "unknown field",
			lines:    []string{`{"name":"a","colour":"red"}`},
			wantLine: 1,
		},
		{
			name:     "two objects on one line",
			lines:    []string{``, ``, `{"name":"a"} {"name":"b"}`},
			wantLine: 3,
		},
		{
			name:     "wrong type",
			lines:    []string{`{"name":"a","stock":"lots"}`},
			wantLine: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(context.Background(), bytes.NewReader(gzipLines(t, tt.lines...)))

			require.Error(t, err)
			var parseErr *ParseError
			require.ErrorAs(t, err, &parseErr)
			assert.Equal(t, tt.wantLine, parseErr.Line)
		})
	}
}

func TestDecode_NotGzip(t *testing.T) {
	_, err := Decode(context.Background(), strings.NewReader(`{"name":"plain"}`))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "gzip")
}

func TestDecode_CancelledContext(t *testing.T) {
	lines := make([]string, 2000)
	for i := range lines {
		lines[i] = `{"name":"x","unit":"kg"}`
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Decode(ctx, bytes.NewReader(gzipLines(t, lines...)))

	assert.ErrorIs(t, err, context.Canceled)
}

func TestFileLoader_Load(t *testing.T) {
	dir := createTestCatalogFile(t, "farm.jsonl.gz",
		`{"name":"Eggs","price":12,"stock":30,"unit":"dozen"}`,
	)
	loader := NewFileLoader(dir, zerolog.Nop())

	records, err := loader.Load(context.Background(), "farm.jsonl.gz")

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Eggs", records[0].Name)
}

func TestFileLoader_NotFound(t *testing.T) {
	loader := NewFileLoader(t.TempDir(), zerolog.Nop())

	_, err := loader.Load(context.Background(), "missing.gz")

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileLoader_RejectsPathsOutsideDir(t *testing.T) {
	loader := NewFileLoader(t.TempDir(), zerolog.Nop())

	for _, name := range []string{"../etc/passwd", "/etc/passwd", ""} {
		_, err := loader.Load(context.Background(), name)
		assert.ErrorIs(t, err, ErrNotFound, name)
	}
}
