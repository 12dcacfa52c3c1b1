package pdfinfo

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Svetozar-Technologies/LocalPDF/internal/document"
)

type stubDoc struct {
	pages  int
	images []document.ImageInfo
	sum    document.Summary
}

func (d *stubDoc) PageCount() int                             { return d.pages }
func (d *stubDoc) Images() ([]document.ImageInfo, error)      { return d.images, nil }
func (d *stubDoc) StripMetadata()                             {}
func (d *stubDoc) Summary() document.Summary                  { return d.sum }
func (d *stubDoc) Save(io.Writer, document.SaveOptions) error { return nil }

func (d *stubDoc) ExtractImage(document.ObjectID) (*document.ImageStream, error) {
	return nil, nil
}

func (d *stubDoc) ReplaceImageStream(document.ObjectID, document.ImageReplacement) error {
	return nil
}

type stubStore struct {
	doc *stubDoc
	err error
}

func (s *stubStore) Open(string) (document.Document, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.doc, nil
}

func (s *stubStore) OpenBytes([]byte) (document.Document, error) {
	return s.Open("")
}

func TestInspect(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.pdf")
	require.NoError(t, os.WriteFile(path, make([]byte, 2048), 0644))

	store := &stubStore{doc: &stubDoc{
		pages: 7,
		images: []document.ImageInfo{
			{ID: 10, RawLength: 1000},
			{ID: 12, RawLength: 500},
		},
		sum: document.Summary{Version: "1.7", Title: "Quarterly Report", Producer: "Scanner"},
	}}

	rep, err := Inspect(store, path)
	require.NoError(t, err)
	assert.Equal(t, int64(2048), rep.FileSize)
	assert.Equal(t, "2.00 KB", rep.FileSizeHuman)
	assert.Equal(t, 7, rep.PageCount)
	assert.Equal(t, 2, rep.ImageCount)
	assert.Equal(t, int64(1500), rep.ImageBytes)
	assert.False(t, rep.Encrypted)
	assert.Equal(t, "1.7", rep.Version)
	assert.Equal(t, "Quarterly Report", rep.Title)
}

func TestInspectEncrypted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locked.pdf")
	require.NoError(t, os.WriteFile(path, make([]byte, 100), 0644))

	store := &stubStore{err: document.ErrEncrypted}
	rep, err := Inspect(store, path)
	require.NoError(t, err)
	assert.True(t, rep.Encrypted)
	assert.Equal(t, 0, rep.PageCount)
}

func TestInspectMissingFile(t *testing.T) {
	store := &stubStore{doc: &stubDoc{}}
	_, err := Inspect(store, filepath.Join(t.TempDir(), "nope.pdf"))
	require.Error(t, err)
	assert.ErrorIs(t, err, document.ErrNotFound)
}

func TestFormatFileSize(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.00 KB"},
		{1536, "1.50 KB"},
		{2 * 1024 * 1024, "2.00 MB"},
		{5*1024*1024*1024 + 512*1024*1024, "5.50 GB"},
		{3 * 1024 * 1024 * 1024 * 1024, "3.00 TB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatFileSize(tt.bytes))
	}
}

func TestCompressedOutputPath(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "report.pdf")

	got := CompressedOutputPath(input, "_compressed")
	assert.Equal(t, filepath.Join(dir, "report_compressed.pdf"), got)

	require.NoError(t, os.WriteFile(got, []byte("x"), 0644))
	got = CompressedOutputPath(input, "_compressed")
	assert.Equal(t, filepath.Join(dir, "report_compressed_1.pdf"), got)

	require.NoError(t, os.WriteFile(got, []byte("x"), 0644))
	got = CompressedOutputPath(input, "_compressed")
	assert.Equal(t, filepath.Join(dir, "report_compressed_2.pdf"), got)
}
