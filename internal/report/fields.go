package report

import (
	"strconv"
	"strings"

	"github.com/wonny/fscore/internal/contracts"
)

// OptFloat is a nullable number cell. Empty cell means absent.
type OptFloat struct {
	V *float64
}

// MarshalCSV implements gocsv.TypeMarshaller
func (o OptFloat) MarshalCSV() (string, error) {
	if o.V == nil {
		return "", nil
	}
	return strconv.FormatFloat(*o.V, 'f', -1, 64), nil
}

// UnmarshalCSV implements gocsv.TypeUnmarshaller
func (o *OptFloat) UnmarshalCSV(s string) error {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") {
		o.V = nil
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	o.V = &v
	return nil
}

// Flag is a tri-state check cell: true, false, or empty for indeterminate
type Flag struct {
	Outcome contracts.CheckOutcome
}

// MarshalCSV implements gocsv.TypeMarshaller
func (f Flag) MarshalCSV() (string, error) {
	switch f.Outcome {
	case contracts.OutcomePass:
		return "true", nil
	case contracts.OutcomeFail:
		return "false", nil
	default:
		return "", nil
	}
}

// UnmarshalCSV implements gocsv.TypeUnmarshaller
func (f *Flag) UnmarshalCSV(s string) error {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1":
		f.Outcome = contracts.OutcomePass
	case "false", "0":
		f.Outcome = contracts.OutcomeFail
	default:
		f.Outcome = contracts.OutcomeIndeterminate
	}
	return nil
}

func flagOf(c contracts.CheckResult) Flag {
	return Flag{Outcome: c.Outcome}
}

func (f Flag) check(current OptFloat) contracts.CheckResult {
	outcome := f.Outcome
	if outcome == "" {
		outcome = contracts.OutcomeIndeterminate
	}
	return contracts.CheckResult{Outcome: outcome, Current: current.V}
}
