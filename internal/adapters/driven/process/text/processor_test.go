package text

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/librarian/internal/core/domain"
)

func writeText(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestCanProcess(t *testing.T) {
	p := New(0)

	assert.True(t, p.CanProcess(domain.FileTypeText))
	assert.False(t, p.CanProcess(domain.FileTypePDF))
	assert.False(t, p.CanProcess(domain.FileTypeImage))
}

func TestProcessSmallFile(t *testing.T) {
	p := New(0)
	path := writeText(t, "short document\nwith two lines")

	rec, err := p.Process(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "short document\nwith two lines", rec.ExtractedText)
	assert.Equal(t, "Text document: short document with two lines", rec.Description)
	assert.Zero(t, rec.PageCount)
}

func TestProcessChunkedRead(t *testing.T) {
	// A chunk size smaller than the file forces multiple reads.
	p := New(8)
	content := strings.Repeat("0123456789", 100)
	path := writeText(t, content)

	rec, err := p.Process(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, content, rec.ExtractedText)
	assert.True(t, strings.HasSuffix(rec.Description, "..."))
	// "Text document: " prefix plus 200 preview chars plus ellipsis.
	assert.Len(t, rec.Description, len("Text document: ")+200+3)
}

func TestProcessEmptyFile(t *testing.T) {
	p := New(0)
	path := writeText(t, "")

	rec, err := p.Process(context.Background(), path)
	require.NoError(t, err)
	assert.Empty(t, rec.ExtractedText)
}

func TestProcessMissingFile(t *testing.T) {
	p := New(0)

	_, err := p.Process(context.Background(), filepath.Join(t.TempDir(), "absent.txt"))
	assert.Error(t, err)
}

func TestProcessCancelledContext(t *testing.T) {
	p := New(0)
	path := writeText(t, "content")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Process(ctx, path)
	assert.ErrorIs(t, err, context.Canceled)
}
