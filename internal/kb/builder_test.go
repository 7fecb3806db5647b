package kb

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anihan/farm-assist/internal/logger"
)

func writeGuide(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func newTestBuilder(t *testing.T, guidesDir string) (*Builder, *FileStore) {
	t.Helper()
	store := NewFileStore(filepath.Join(t.TempDir(), "kb.json"))
	return NewBuilder(guidesDir, store, logger.NewTest(t)), store
}

func TestBuilder_BuildsTextGuides(t *testing.T) {
	dir := t.TempDir()
	writeGuide(t, dir, "palay.txt", strings.Repeat("ang palay ay itinatanim tuwing tag-ulan ", 60))
	writeGuide(t, dir, "mais.md", strings.Repeat("ang mais ay inaani pagkatapos ng tatlong buwan ", 50))

	builder, store := newTestBuilder(t, dir)
	count, err := builder.Build(context.Background())
	require.NoError(t, err)
	assert.Greater(t, count, 0)

	chunks, err := store.Load()
	require.NoError(t, err)
	assert.Len(t, chunks, count)

	sources := map[string]bool{}
	for _, c := range chunks {
		sources[c.Source] = true
	}
	assert.True(t, sources["palay.txt"])
	assert.True(t, sources["mais.md"])
}

func TestBuilder_RebuildIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	writeGuide(t, dir, "gabay.txt", strings.Repeat("pataba tubig binhi ani lupa araw ulan hangin ", 70))

	builder, store := newTestBuilder(t, dir)

	_, err := builder.Build(context.Background())
	require.NoError(t, err)
	first, err := store.Load()
	require.NoError(t, err)

	_, err = builder.Build(context.Background())
	require.NoError(t, err)
	second, err := store.Load()
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestBuilder_NormalizesWhitespace(t *testing.T) {
	dir := t.TempDir()
	writeGuide(t, dir, "g.txt", "ang   palay\n\nay\titinatanim    sa basang lupa tuwing tag-ulan dito")

	builder, store := newTestBuilder(t, dir)
	_, err := builder.Build(context.Background())
	require.NoError(t, err)

	chunks, err := store.Load()
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "ang palay ay itinatanim sa basang lupa tuwing tag-ulan dito", chunks[0].Text)
}

func TestBuilder_HTMLGuide(t *testing.T) {
	dir := t.TempDir()
	writeGuide(t, dir, "gabay.html", `<html><head><style>p{color:red}</style><script>alert(1)</script></head>
		<body><p>Ang palay ay itinatanim sa basang lupa.</p><p>Anihin pagkatapos ng apat na buwan.</p></body></html>`)

	builder, store := newTestBuilder(t, dir)
	_, err := builder.Build(context.Background())
	require.NoError(t, err)

	chunks, err := store.Load()
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0].Text, "Ang palay ay itinatanim")
	assert.NotContains(t, chunks[0].Text, "alert")
	assert.NotContains(t, chunks[0].Text, "color:red")
}

func TestBuilder_SkipsUnsupportedAndCorrupt(t *testing.T) {
	dir := t.TempDir()
	writeGuide(t, dir, "gabay.txt", strings.Repeat("ang palay ay pananim na mahalaga sa bansa ", 40))
	writeGuide(t, dir, "image.png", "\x89PNG not really text")
	writeGuide(t, dir, "sira.pdf", "not actually a pdf")

	builder, store := newTestBuilder(t, dir)
	count, err := builder.Build(context.Background())
	require.NoError(t, err)
	assert.Greater(t, count, 0)

	chunks, err := store.Load()
	require.NoError(t, err)
	for _, c := range chunks {
		assert.Equal(t, "gabay.txt", c.Source)
	}
}

func TestBuilder_EmptyGuidesDir(t *testing.T) {
	builder, store := newTestBuilder(t, t.TempDir())

	count, err := builder.Build(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)

	chunks, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestBuilder_MissingGuidesDir(t *testing.T) {
	builder, store := newTestBuilder(t, filepath.Join(t.TempDir(), "wala"))

	count, err := builder.Build(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)

	chunks, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestEngine_EnsureBuildsWhenEmpty(t *testing.T) {
	dir := t.TempDir()
	writeGuide(t, dir, "gabay.txt", strings.Repeat("pataba at tubig para sa masaganang ani ng palay ", 40))

	builder, store := newTestBuilder(t, dir)
	engine := NewEngine(store, builder)

	require.NoError(t, engine.Ensure(context.Background()))

	chunks, err := store.Load()
	require.NoError(t, err)
	assert.NotEmpty(t, chunks)

	// Second ensure is a no-op on a populated store.
	require.NoError(t, engine.Ensure(context.Background()))
}

func TestEngine_SearchAfterEmptyBuild(t *testing.T) {
	builder, store := newTestBuilder(t, t.TempDir())
	engine := NewEngine(store, builder)

	require.NoError(t, engine.Ensure(context.Background()))

	results, err := engine.Search("palay ulan ani presyo", "rice", 3)
	require.NoError(t, err)
	assert.Empty(t, results)
}
