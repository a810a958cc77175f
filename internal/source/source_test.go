package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/tablemerge/internal/testutil"
	"github.com/leapstack-labs/tablemerge/pkg/core"
)

func touch(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600))
}

func TestRegistry_ListDocuments(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.docx", "A.DOCX", "c.odt", "~$lock.docx", ".hidden.docx", "notes.txt", "legacy.doc"} {
		touch(t, dir, name)
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.docx"), 0o750))

	r := NewDefault(Options{Logger: testutil.NewTestLogger(t)})
	docs, err := r.ListDocuments(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(dir, "A.DOCX"),
		filepath.Join(dir, "b.docx"),
		filepath.Join(dir, "c.odt"),
	}, docs)
}

func TestRegistry_ExtensionFilter(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.docx")
	touch(t, dir, "b.odt")

	r := NewDefault(Options{Extensions: []string{"odt"}})
	docs, err := r.ListDocuments(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join(dir, "b.odt")}, docs)
	assert.Equal(t, []string{".odt"}, r.Extensions())
}

func TestRegistry_CustomSkipPrefix(t *testing.T) {
	r := NewDefault(Options{SkipPrefix: "_"})
	assert.False(t, r.Recognizes("_draft.docx"))
	assert.True(t, r.Recognizes("~draft.docx"))
}

func TestRegistry_ListDocumentsMissingDir(t *testing.T) {
	_, err := NewDefault(Options{}).ListDocuments(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.ErrorContains(t, err, "failed to read input directory")
}

func TestRegistry_OpenWrapsErrors(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "broken.docx")
	r := NewDefault(Options{})

	_, err := r.Open(context.Background(), filepath.Join(dir, "broken.docx"))
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrDocumentOpen)

	var de *core.DocumentError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, filepath.Join(dir, "broken.docx"), de.Path)

	_, err = r.Open(context.Background(), filepath.Join(dir, "x.pdf"))
	assert.ErrorIs(t, err, core.ErrUnsupportedDocument)
	assert.ErrorIs(t, err, core.ErrDocumentOpen)
}

func TestRegistry_OpenDocx(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteDocx(t, dir, "ok.docx", testutil.T(testutil.Row("H"), testutil.Row("v")))

	doc, err := NewDefault(Options{}).Open(context.Background(), path)
	require.NoError(t, err)
	defer func() { _ = doc.Close() }()

	tables, err := doc.Tables()
	require.NoError(t, err)
	assert.Len(t, tables, 1)
}
