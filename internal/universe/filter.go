package universe

import (
	"regexp"
	"strings"

	"github.com/wonny/fscore/internal/contracts"
)

// 종목명 기반 제외 패턴
var (
	preferredPattern = regexp.MustCompile(`(우|우B|우C)$|\(전환\)`)
	spacPattern      = regexp.MustCompile(`스팩|제\d+호`)
	etfPattern       = regexp.MustCompile(`(?i)ETF|ETN`)
	reitPattern      = regexp.MustCompile(`(?i)리츠|REIT|펀드`)
)

// ExclusionReason returns why a security is excluded from scanning, or "" when it passes.
// 우선순위: 우선주 → SPAC → ETF/ETN → 리츠/펀드 → 관리종목
func ExclusionReason(name string) string {
	name = strings.TrimSpace(name)

	switch {
	case name == "":
		return "종목명 없음"
	case preferredPattern.MatchString(name):
		return "우선주"
	case spacPattern.MatchString(name):
		return "SPAC"
	case etfPattern.MatchString(name):
		return "ETF/ETN"
	case reitPattern.MatchString(name):
		return "리츠/펀드"
	case strings.Contains(name, "관리"):
		return "관리종목"
	}
	return ""
}

// Filter applies ExclusionReason, normalizes codes and drops duplicates keeping the first occurrence.
// excluded maps code → reason
func Filter(candidates []contracts.Candidate) (kept []contracts.Candidate, excluded map[string]string) {
	kept = make([]contracts.Candidate, 0, len(candidates))
	excluded = make(map[string]string)
	seen := make(map[string]bool, len(candidates))

	for _, c := range candidates {
		if strings.TrimSpace(c.Code) == "" {
			continue
		}
		code := contracts.NormalizeCode(c.Code)
		if seen[code] {
			continue
		}
		seen[code] = true

		if reason := ExclusionReason(c.Name); reason != "" {
			excluded[code] = reason
			continue
		}
		kept = append(kept, contracts.Candidate{Code: code, Name: strings.TrimSpace(c.Name)})
	}
	return kept, excluded
}

// Dedup normalizes codes and drops duplicates without name filtering
func Dedup(candidates []contracts.Candidate) []contracts.Candidate {
	out := make([]contracts.Candidate, 0, len(candidates))
	seen := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		if strings.TrimSpace(c.Code) == "" {
			continue
		}
		code := contracts.NormalizeCode(c.Code)
		if seen[code] {
			continue
		}
		seen[code] = true
		out = append(out, contracts.Candidate{Code: code, Name: strings.TrimSpace(c.Name)})
	}
	return out
}
