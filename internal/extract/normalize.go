// Package extract turns raw model output into canonical claim records and
// prepares page content for chunked extraction calls.
package extract

import (
	"regexp"
	"strings"

	"github.com/avolkov/hopweaver/internal/model"
)

// The extraction model emits one labeled block per chunk:
//
//	##Evidence: <source excerpt>
//	##Claims: <claim text>
//	##Claim Target: <entity>
//	##Claim Topic: <short phrase>
//
// Sections may appear in any order and trailing sections may be missing.
// Each label is captured up to the next ## marker or end of text. The
// format has no escaping, so a ## inside a value truncates it; that is a
// known fragility of the upstream format.
var (
	evidencePattern = regexp.MustCompile(`(?s)##Evidence:\s*(.*?)(?:##|$)`)
	claimsPattern   = regexp.MustCompile(`(?s)##Claims:\s*(.*?)(?:##|$)`)
	targetPattern   = regexp.MustCompile(`(?s)##Claim Target:\s*(.*?)(?:##|$)`)
	topicPattern    = regexp.MustCompile(`(?s)##Claim Topic:\s*(.*?)(?:##|$)`)
)

// ParseClaimBlock parses one labeled text block into a claim record. The
// second return value is false when any of the four fields is missing or
// empty after trimming; such blocks are dropped, not reported as errors,
// since partial model output is routine.
func ParseClaimBlock(text string) (model.ClaimRecord, bool) {
	rec := model.ClaimRecord{
		Evidence: capture(evidencePattern, text),
		Claim:    capture(claimsPattern, text),
		Target:   capture(targetPattern, text),
		Topic:    capture(topicPattern, text),
	}
	return rec, rec.IsComplete()
}

func capture(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// Normalize parses a sequence of raw blocks, tags accepted records with
// the provenance URL, and silently drops incomplete ones.
func Normalize(blocks []string, url string) []model.ClaimRecord {
	var records []model.ClaimRecord
	for _, block := range blocks {
		rec, ok := ParseClaimBlock(block)
		if !ok {
			continue
		}
		rec.URL = url
		records = append(records, rec)
	}
	return records
}
