package classify

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/librarian/internal/core/domain"
)

// pngHeader is a minimal valid PNG signature plus IHDR start.
var pngHeader = []byte{
	0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A,
	0x00, 0x00, 0x00, 0x0D, 'I', 'H', 'D', 'R',
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestClassifyByExtension(t *testing.T) {
	c := New()

	tests := []struct {
		name string
		want domain.FileType
	}{
		{"notes.txt", domain.FileTypeText},
		{"README.md", domain.FileTypeText},
		{"data.csv", domain.FileTypeText},
		{"report.PDF", domain.FileTypePDF},
		{"photo.jpg", domain.FileTypeImage},
		{"photo.JPEG", domain.FileTypeImage},
		{"diagram.png", domain.FileTypeImage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Content is irrelevant when the extension is recognised.
			path := writeFile(t, tt.name, []byte("placeholder"))
			assert.Equal(t, tt.want, c.Classify(path))
		})
	}
}

func TestClassifyByMagicBytes(t *testing.T) {
	c := New()

	pdf := writeFile(t, "unknown.dat", []byte("%PDF-1.7 some content"))
	assert.Equal(t, domain.FileTypePDF, c.Classify(pdf))

	png := writeFile(t, "image.dat", pngHeader)
	assert.Equal(t, domain.FileTypeImage, c.Classify(png))
}

func TestClassifyExtensionlessText(t *testing.T) {
	c := New()

	path := writeFile(t, "LICENSE", []byte("Permission is hereby granted, free of charge..."))
	assert.Equal(t, domain.FileTypeText, c.Classify(path))
}

func TestClassifyUnknown(t *testing.T) {
	c := New()

	binary := writeFile(t, "blob", []byte{0x00, 0x01, 0x02, 0xFF, 0xFE})
	assert.Equal(t, domain.FileTypeUnknown, c.Classify(binary))

	assert.Equal(t, domain.FileTypeUnknown, c.Classify(filepath.Join(t.TempDir(), "missing")))
	assert.Equal(t, domain.FileTypeUnknown, c.Classify(t.TempDir()))
}

func TestLooksLikeText(t *testing.T) {
	assert.True(t, looksLikeText([]byte("plain ascii\nwith lines\n")))
	assert.False(t, looksLikeText([]byte{'a', 0x00, 'b'}))
	assert.False(t, looksLikeText(nil))
}
