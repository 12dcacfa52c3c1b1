package compressor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Svetozar-Technologies/LocalPDF/internal/document"
)

func TestCompressBatch(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.pdf"), make([]byte, 16000), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.pdf"), make([]byte, 16000), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "small.pdf"), make([]byte, 500), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	store := &fakeStore{template: photoDoc(1000, 0)}
	eng := NewEngine(store, &fakeCodec{}, testConfig(), nil)

	var percents []int
	var perFile []string
	br, err := eng.CompressBatch(context.Background(), BatchParams{
		InputDir:    dir,
		TargetBytes: 4000,
		Progress: func(percent int, message string) {
			percents = append(percents, percent)
		},
		OnResult: func(res *CompressionResult) {
			perFile = append(perFile, filepath.Base(res.InputPath))
		},
	})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "compressed"), br.OutputDir)
	require.Len(t, br.Results, 3)
	assert.Equal(t, []string{"a.pdf", "b.pdf", "small.pdf"}, perFile)

	statuses := make(map[string]int)
	for _, res := range br.Results {
		statuses[res.Status.String()]++
	}
	assert.Equal(t, 2, statuses["success"])
	assert.Equal(t, 1, statuses["already_small"])

	assert.Equal(t, int64(3), br.Stats.TotalFilesFound)
	assert.Equal(t, int64(3), br.Stats.GetTotalFilesProcessed())
	assert.Equal(t, int64(2), br.Stats.FilesCompressed)
	assert.Equal(t, int64(1), br.Stats.FilesAlreadySmall)

	// Outputs exist only for the files that needed compressing.
	for _, name := range []string{"a.pdf", "b.pdf"} {
		info, statErr := os.Stat(filepath.Join(br.OutputDir, name))
		require.NoError(t, statErr)
		assert.Equal(t, int64(4000), info.Size())
	}
	_, statErr := os.Stat(filepath.Join(br.OutputDir, "small.pdf"))
	assert.True(t, os.IsNotExist(statErr))

	for i := 1; i < len(percents); i++ {
		assert.GreaterOrEqual(t, percents[i], percents[i-1])
	}
	assert.Equal(t, 100, percents[len(percents)-1])
}

func TestCompressBatchEmptyDir(t *testing.T) {
	dir := t.TempDir()
	store := &fakeStore{template: photoDoc(1000, 0)}
	eng := NewEngine(store, &fakeCodec{}, testConfig(), nil)

	br, err := eng.CompressBatch(context.Background(), BatchParams{
		InputDir:    dir,
		TargetBytes: 4000,
	})
	require.NoError(t, err)
	assert.Empty(t, br.Results)
	// No output folder is created for an empty batch.
	_, statErr := os.Stat(filepath.Join(dir, "compressed"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestCompressBatchFailuresDoNotAbort(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.pdf"), make([]byte, 16000), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.pdf"), make([]byte, 16000), 0644))

	calls := 0
	store := &flakyStore{inner: &fakeStore{template: photoDoc(1000, 0)}, failOn: &calls}
	eng := NewEngine(store, &fakeCodec{}, testConfig(), nil)

	br, err := eng.CompressBatch(context.Background(), BatchParams{
		InputDir:    dir,
		TargetBytes: 4000,
	})
	require.NoError(t, err)
	require.Len(t, br.Results, 2)
	assert.Equal(t, StatusFailed, br.Results[0].Status)
	assert.Equal(t, StatusSuccess, br.Results[1].Status)
	assert.Equal(t, int64(1), br.Stats.GetFilesFailed())
	require.Len(t, br.Stats.Errors, 1)
}

func TestUniqueOutputPath(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, filepath.Join(dir, "doc.pdf"), uniqueOutputPath(dir, "doc.pdf"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "doc.pdf"), []byte("x"), 0644))
	assert.Equal(t, filepath.Join(dir, "doc(1).pdf"), uniqueOutputPath(dir, "doc.pdf"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "doc(1).pdf"), []byte("x"), 0644))
	assert.Equal(t, filepath.Join(dir, "doc(2).pdf"), uniqueOutputPath(dir, "doc.pdf"))
}

// flakyStore fails the first Open and delegates afterwards.
type flakyStore struct {
	inner  *fakeStore
	failOn *int
}

func (s *flakyStore) Open(path string) (document.Document, error) {
	*s.failOn++
	if *s.failOn == 1 {
		return nil, assert.AnError
	}
	return s.inner.Open(path)
}

func (s *flakyStore) OpenBytes(data []byte) (document.Document, error) {
	return s.inner.OpenBytes(data)
}
