package crawl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrovision/cropscout/pkg/risk"
)

var wheat = risk.Culture{RiskType: "diseases", CropRU: "пшеница", CropEN: "cereals"}

func TestQueriesDisease(t *testing.T) {
	qs := Queries(risk.Record{Name: "Ржавчина", EnglishName: "rust"}, wheat, EngineGoogle)
	require.Len(t, qs, 2)
	assert.Equal(t, "Ржавчина болезнь пшеница фото", qs[0])
	assert.Equal(t, "rust disease cereals symptoms photo", qs[1])
}

func TestQueriesPest(t *testing.T) {
	cul := risk.Culture{RiskType: "pests", CropRU: "кукуруза", CropEN: "corn"}
	qs := Queries(risk.Record{Name: "Проволочник", EnglishName: "wireworm"}, cul, EngineGoogle)
	require.Len(t, qs, 2)
	assert.Equal(t, "Проволочник вредитель кукуруза фото", qs[0])
	assert.Equal(t, "wireworm pest corn damage photo", qs[1])
}

func TestQueriesYandexPhrasing(t *testing.T) {
	qs := Queries(risk.Record{Name: "Ржавчина", EnglishName: "rust"}, wheat, EngineYandex)
	assert.Equal(t, "Ржавчина болезнь пшеница фото высокое качество", qs[0])
}

func TestQueriesTransliteratedFallback(t *testing.T) {
	qs := Queries(risk.Record{Name: "Ржавчина"}, wheat, EngineGoogle)
	assert.Equal(t, "rzhavchina disease cereals symptoms photo", qs[1])
}

func TestQueriesIdempotent(t *testing.T) {
	rec := risk.Record{Name: "Ржавчина", EnglishName: "rust"}
	assert.Equal(t, Queries(rec, wheat, EngineGoogle), Queries(rec, wheat, EngineGoogle))
}

func TestDegradedQuery(t *testing.T) {
	q := DegradedQuery(risk.Record{Name: "Ржавчина"}, wheat)
	assert.Equal(t, "Ржавчина пшеница фото", q)
}

func TestParseEngine(t *testing.T) {
	for _, s := range []string{"google", "yandex", "both"} {
		e, err := ParseEngine(s)
		require.NoError(t, err)
		assert.Equal(t, Engine(s), e)
	}

	_, err := ParseEngine("bing")
	assert.Error(t, err)
}
