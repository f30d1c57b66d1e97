package risk

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTableName(t *testing.T) {
	tests := []struct {
		path string
		want Culture
	}{
		{"csv_output/diseases_пшеница_cereals.csv", Culture{"diseases", "пшеница", "cereals"}},
		{"pests_кукуруза_corn.csv", Culture{"pests", "кукуруза", "corn"}},
		{"example_diseases_wheat_cereals.csv", Culture{"diseases", "wheat", "cereals"}},
		{"example_pests_wheat_cereals.csv", Culture{"pests", "wheat", "cereals"}},
		{"risks.csv", Culture{Unknown, Unknown, Unknown}},
		{"notes.csv", Culture{Unknown, Unknown, Unknown}},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, ParseTableName(tc.path), tc.path)
	}
}

func TestReadTable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "diseases_пшеница_cereals.csv")
	data := "name,english_name,severity\nРжавчина,rust,high\nСепториоз,,medium\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	recs, err := ReadTable(path)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, "Ржавчина", recs[0].Name)
	assert.Equal(t, "rust", recs[0].EnglishName)
	assert.Equal(t, "high", recs[0].Extra["severity"])

	assert.Equal(t, "Септориоз", recs[1].Name)
	assert.Empty(t, recs[1].EnglishName)
}

func TestReadTableMissing(t *testing.T) {
	_, err := ReadTable(filepath.Join(t.TempDir(), "absent.csv"))
	assert.Error(t, err)
}

func TestTables(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.csv"), []byte("name\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("x"), 0o644))

	ms, err := Tables(dir)
	require.NoError(t, err)
	require.Len(t, ms, 1)
	assert.Equal(t, "a.csv", filepath.Base(ms[0]))
}

func TestSlugPrefersEnglishName(t *testing.T) {
	s, translit := Record{Name: "Ржавчина", EnglishName: "Leaf Rust"}.Slug()
	assert.Equal(t, "leaf_rust", s)
	assert.False(t, translit)
}

func TestSlugTransliterates(t *testing.T) {
	s, translit := Record{Name: "Ржавчина"}.Slug()
	assert.Equal(t, "rzhavchina", s)
	assert.True(t, translit)

	s, _ = Record{Name: "Мучнистая роса"}.Slug()
	assert.Equal(t, "muchnistaya_rosa", s)
}

func TestTransliterate(t *testing.T) {
	assert.Equal(t, "khlebnyi zhuk", Transliterate("Хлебный жук"))
	assert.Equal(t, "shchitovka", Transliterate("щитовка"))
	assert.Equal(t, "frit fly", Transliterate("frit fly"))
}
