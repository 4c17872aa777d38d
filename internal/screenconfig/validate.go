package screenconfig

import (
	"fmt"

	"github.com/wonny/fscore/internal/contracts"
)

// ValidationError 검증 실패 (실행 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var universeSources = map[string]bool{"file": true, "listing": true, "db": true}

// Validate checks every field the profile sets
func Validate(p *Profile) error {
	positive := []struct {
		field string
		v     *int
	}{
		{"lite.workers", p.Lite.Workers},
		{"full.workers", p.Full.Workers},
		{"full.top_n", p.Full.TopN},
		{"timing.workers", p.Timing.Workers},
	}
	for _, f := range positive {
		if f.v != nil && *f.v <= 0 {
			return ValidationError{f.field, "must be > 0"}
		}
	}

	if v := p.Lite.MaxCount; v != nil && *v < 0 {
		return ValidationError{"lite.max_count", "must be >= 0 (0 = all)"}
	}
	if v := p.Full.FinalMinScore; v != nil && (*v < 0 || *v > contracts.MaxFullScore) {
		return ValidationError{"full.final_min_score", fmt.Sprintf("must be in [0, %d]", contracts.MaxFullScore)}
	}
	if v := p.Full.FiscalYear; v != nil && *v != 0 && (*v < 2015 || *v > 2100) {
		return ValidationError{"full.fiscal_year", "must be 0 (previous year) or a four-digit year from 2015"}
	}
	if v := p.Timing.MinFScore; v != nil && (*v < 0 || *v > contracts.MaxFullScore) {
		return ValidationError{"timing.min_fscore", fmt.Sprintf("must be in [0, %d]", contracts.MaxFullScore)}
	}

	if p.Universe.Source != "" && !universeSources[p.Universe.Source] {
		return ValidationError{"universe.source", "must be one of: file, listing, db"}
	}
	return nil
}
