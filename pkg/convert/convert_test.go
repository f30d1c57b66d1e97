package convert

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrovision/cropscout/pkg/risk"
)

func writeTestImage(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 4), uint8(y * 4), 128, 255})
		}
	}

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestFileConvertsToJPEG(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "photo.png")
	writeTestImage(t, src)

	out, err := File(src, Options{})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "photo.jpg"), out)

	_, err = os.Stat(out)
	assert.NoError(t, err)
	_, err = os.Stat(src)
	assert.True(t, os.IsNotExist(err), "original removed by default")
}

func TestFileKeepOriginal(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "photo.png")
	writeTestImage(t, src)

	_, err := File(src, Options{KeepOriginal: true})
	require.NoError(t, err)

	_, err = os.Stat(src)
	assert.NoError(t, err)
}

func TestFileRejectsGarbage(t *testing.T) {
	src := filepath.Join(t.TempDir(), "broken.webp")
	require.NoError(t, os.WriteFile(src, []byte("not an image"), 0o644))

	_, err := File(src, Options{})
	assert.Error(t, err)
	_, serr := os.Stat(src)
	assert.NoError(t, serr, "failed conversions leave the source alone")
}

func TestRenameDerivesIdentityFromContext(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "diseases", "cereals", "rust")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	stray := filepath.Join(dir, "photo.jpg")
	require.NoError(t, os.WriteFile(stray, []byte("x"), 0o644))

	np, err := Rename(stray)
	require.NoError(t, err)

	id := risk.Derive("diseases", "cereals", "rust")
	assert.Equal(t, filepath.Join(dir, "diseases_cereals_"+string(id)+"_01.jpg"), np)

	_, serr := os.Stat(stray)
	assert.True(t, os.IsNotExist(serr))
}

func TestRenameSkipsConformingNames(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "diseases", "cereals", "rust")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	id := risk.Derive("diseases", "cereals", "rust")
	path := filepath.Join(dir, risk.ImageName("diseases", "cereals", id, 4, "jpg"))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	np, err := Rename(path)
	require.NoError(t, err)
	assert.Equal(t, path, np)
}

func TestRenameSequencesPastExisting(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "pests", "corn", "wireworm")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	id := risk.Derive("pests", "corn", "wireworm")
	require.NoError(t, os.WriteFile(filepath.Join(dir, risk.ImageName("pests", "corn", id, 7, "jpg")), []byte("x"), 0o644))

	stray := filepath.Join(dir, "extra.jpg")
	require.NoError(t, os.WriteFile(stray, []byte("x"), 0o644))

	np, err := Rename(stray)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, risk.ImageName("pests", "corn", id, 8, "jpg")), np)
}

func TestContextFromPathFallback(t *testing.T) {
	rt, crop, slug := contextFromPath(filepath.Join("some", "odd", "layout"))
	assert.Equal(t, risk.Unknown, rt)
	assert.Equal(t, risk.Unknown, crop)
	assert.Equal(t, risk.Unknown, slug)
}

func TestDirConvertsTree(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "diseases", "cereals", "rust")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	// png is not a conversion target and must survive untouched
	keeper := filepath.Join(dir, "keeper.png")
	writeTestImage(t, keeper)

	require.NoError(t, Dir(base, Options{Recursive: true}))

	_, err := os.Stat(keeper)
	assert.NoError(t, err)
}
