package facematch

import (
	"regexp"
	"strconv"
	"strings"

	"kycdesk/internal/verification/providers"
)

const (
	defaultScore       = 0.5
	defaultExplanation = "Unable to extract explanation from AI response."
)

var (
	scorePattern       = regexp.MustCompile(`Score:\s*([\d.]+)`)
	explanationPattern = regexp.MustCompile(`(?s)Explanation:\s*(.+)`)
)

// ParseComparison reads a "Score: n / Explanation: text" model reply.
// A missing or unparsable score yields 0.5 and a missing explanation a
// generic message. Scores are clamped to [0,1].
func ParseComparison(text string) *providers.Comparison {
	out := &providers.Comparison{Score: defaultScore, Explanation: defaultExplanation}

	if m := scorePattern.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			out.Score = min(max(v, 0), 1)
		}
	}
	if m := explanationPattern.FindStringSubmatch(text); m != nil {
		if e := strings.TrimSpace(m[1]); e != "" {
			out.Explanation = e
		}
	}
	return out
}
