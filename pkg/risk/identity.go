package risk

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Identity is a deterministic grouping key: every image of one logical risk
// carries the same Identity, no matter which tool or run produced it.
type Identity string

var guidRe = regexp.MustCompile(`[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)

// Derive computes the Identity for a risk. It is a pure function of the
// lowercased (risk_type, crop_en, risk_name) tuple, so independently-run
// tools converge on the same naming without coordination. Empty segments
// degrade to "unknown" instead of failing.
func Derive(riskType, cropEN, riskName string) Identity {
	if riskType == "" {
		riskType = Unknown
	}
	if cropEN == "" {
		cropEN = Unknown
	}
	if riskName == "" {
		riskName = Unknown
	}
	seed := strings.ToLower(fmt.Sprintf("%s_%s_%s", riskType, cropEN, riskName))
	return Identity(uuid.NewSHA1(uuid.NameSpaceDNS, []byte(seed)).String())
}

// RiskDir returns the directory owning all images of one risk:
// {base}/{risk_type}/{crop_en}/{risk_name}.
func RiskDir(base, riskType, cropEN, riskName string) string {
	return filepath.Join(base, riskType, strings.ToLower(cropEN), riskName)
}

// ImageName returns the canonical image filename:
// {risk_type}_{crop_en}_{GUID}_{NN}.{ext}.
func ImageName(riskType, cropEN string, id Identity, n int, ext string) string {
	return fmt.Sprintf("%s_%s_%s_%02d.%s", riskType, strings.ToLower(cropEN), id, n, strings.TrimPrefix(ext, "."))
}

// ParsedName is the metadata embedded in a canonical image filename.
type ParsedName struct {
	RiskType string
	CropEN   string
	GUID     Identity
	Seq      int
	Ext      string
}

// ParseImageName recovers the embedded metadata from an image path. This is
// inherently fragile and exists only for the converter and rename fix-up
// passes; in-process callers should pass Identity values directly.
func ParseImageName(path string) (ParsedName, bool) {
	base := filepath.Base(path)
	ext := strings.TrimPrefix(filepath.Ext(base), ".")
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	loc := guidRe.FindStringIndex(stem)
	if loc == nil {
		return ParsedName{}, false
	}

	prefix := strings.TrimSuffix(stem[:loc[0]], "_")
	suffix := strings.TrimPrefix(stem[loc[1]:], "_")

	i := strings.Index(prefix, "_")
	if i < 0 {
		return ParsedName{}, false
	}

	seq, err := strconv.Atoi(suffix)
	if err != nil {
		return ParsedName{}, false
	}

	return ParsedName{
		RiskType: prefix[:i],
		CropEN:   prefix[i+1:],
		GUID:     Identity(stem[loc[0]:loc[1]]),
		Seq:      seq,
		Ext:      ext,
	}, true
}
