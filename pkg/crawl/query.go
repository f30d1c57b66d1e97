// Package crawl acquires candidate images for agricultural risks from image
// search engines and files them under the shared identity naming scheme.
package crawl

import (
	"fmt"

	"github.com/agrovision/cropscout/pkg/risk"
)

// Engine selects which search providers feed the crawl.
type Engine string

const (
	EngineGoogle Engine = "google"
	EngineYandex Engine = "yandex"
	EngineBoth   Engine = "both"
)

// ParseEngine validates an engine name from a flag.
func ParseEngine(s string) (Engine, error) {
	switch Engine(s) {
	case EngineGoogle, EngineYandex, EngineBoth:
		return Engine(s), nil
	}
	return "", fmt.Errorf("unknown engine %q (want google, yandex or both)", s)
}

// Queries expands a risk record into ranked search queries: the local-language
// query first, then an English one. Disease and pest vocabulary differ, and
// Yandex rewards more specific phrasing than Google does.
func Queries(rec risk.Record, cul risk.Culture, engine Engine) []string {
	name := rec.Name
	english := rec.EnglishName
	if english == "" {
		english, _ = rec.Slug()
	}

	var ru, en string
	switch cul.RiskType {
	case "pests":
		ru = fmt.Sprintf("%s вредитель %s фото", name, cul.CropRU)
		if engine == EngineYandex {
			ru = fmt.Sprintf("%s вредитель %s фото макро", name, cul.CropRU)
		}
		en = fmt.Sprintf("%s pest %s damage photo", english, cul.CropEN)
	default:
		ru = fmt.Sprintf("%s болезнь %s фото", name, cul.CropRU)
		if engine == EngineYandex {
			ru = fmt.Sprintf("%s болезнь %s фото высокое качество", name, cul.CropRU)
		}
		en = fmt.Sprintf("%s disease %s symptoms photo", english, cul.CropEN)
	}

	return []string{ru, en}
}

// DegradedQuery is the shorter, less specific fallback used once when the
// primary queries yield nothing.
func DegradedQuery(rec risk.Record, cul risk.Culture) string {
	return fmt.Sprintf("%s %s фото", rec.Name, cul.CropRU)
}
