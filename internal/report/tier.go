package report

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Maturity tiers, lowest to highest.
const (
	TierDabbler = "Dabbler"
	TierEnabler = "Enabler"
	TierLeader  = "Leader"
)

// DefaultTier is assumed when the report names no tier.
const DefaultTier = TierEnabler

var (
	overallTierRe = regexp.MustCompile(`(?im)^##\s*Overall Tier:?[ \t]*(.*)$`)
	overallRe     = regexp.MustCompile(`(?im)^##\s*Overall:?[ \t]*(.*)$`)
	tierWordRe    = regexp.MustCompile(`(?i)\b(leader|enabler|dabbler)\b`)
	scoreRes      = []*regexp.Regexp{
		regexp.MustCompile(`(?i)final score:?\**\s*(\d{1,3})\s*/\s*100`),
		regexp.MustCompile(`(?i)score of\s*(\d{1,3})\s*/\s*100`),
		regexp.MustCompile(`(?i)overall score:?\**\s*(\d{1,3})\s*/\s*100`),
	}
)

// NormalizeTier title-cases a tier label. Known tiers are returned in their
// canonical spelling; other labels are trimmed and title-cased.
func NormalizeTier(value string) string {
	trimmed := strings.Trim(strings.TrimSpace(value), "*_ .:")
	if trimmed == "" {
		return ""
	}
	if m := tierWordRe.FindString(trimmed); m != "" && len(strings.Fields(trimmed)) <= 2 {
		return titleCase(m)
	}
	return titleCase(trimmed)
}

// ExtractTier finds the maturity tier named in a report. It tries the Overall
// Tier heading, an Overall heading, bold tier names, and finally the most
// frequently mentioned tier, defaulting to Enabler.
func ExtractTier(md string) string {
	if strings.TrimSpace(md) == "" {
		return DefaultTier
	}

	if loc := overallTierRe.FindStringSubmatchIndex(md); loc != nil {
		rest := md[loc[2]:loc[3]]
		if m := tierWordRe.FindString(rest); m != "" {
			return NormalizeTier(m)
		}
		if strings.TrimSpace(rest) == "" {
			if line := firstNonEmptyLine(md[loc[1]:]); line != "" && !strings.HasPrefix(line, "#") {
				if m := tierWordRe.FindString(line); m != "" {
					return NormalizeTier(m)
				}
			}
		} else {
			return NormalizeTier(rest)
		}
	}

	if m := overallRe.FindStringSubmatch(md); m != nil {
		if tier := tierWordRe.FindString(m[1]); tier != "" {
			return NormalizeTier(tier)
		}
	}

	lower := strings.ToLower(md)
	for _, tier := range []string{TierLeader, TierEnabler, TierDabbler} {
		t := strings.ToLower(tier)
		if strings.Contains(lower, "**"+t+"**") || strings.Contains(lower, "__"+t+"__") {
			return tier
		}
	}

	leader := strings.Count(lower, "leader")
	enabler := strings.Count(lower, "enabler")
	dabbler := strings.Count(lower, "dabbler")
	switch {
	case leader > enabler && leader > dabbler:
		return TierLeader
	case enabler > leader && enabler > dabbler:
		return TierEnabler
	case dabbler > 0:
		return TierDabbler
	}
	return DefaultTier
}

// ExtractScore finds an explicit N/100 score in the report.
func ExtractScore(md string) (int, bool) {
	for _, re := range scoreRes {
		m := re.FindStringSubmatch(md)
		if m == nil {
			continue
		}
		score, err := strconv.Atoi(m[1])
		if err != nil || score < 0 || score > 100 {
			continue
		}
		return score, true
	}
	return 0, false
}

// TierRank orders tiers for comparisons; unknown tiers rank zero.
func TierRank(tier string) int {
	switch NormalizeTier(tier) {
	case TierDabbler:
		return 1
	case TierEnabler:
		return 2
	case TierLeader:
		return 3
	}
	return 0
}

// titleCase builds one Caser per call; Casers are not safe to share.
func titleCase(value string) string {
	return cases.Title(language.English).String(strings.ToLower(value))
}

func firstNonEmptyLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
