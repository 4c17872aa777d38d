package fscore

import (
	"fmt"
	"math"

	"github.com/wonny/fscore/internal/contracts"
)

// at returns the value offset years back from the newest entry (0 = newest)
func at(series contracts.FinancialSeries, name string, offset int) (float64, error) {
	idx := len(series) - 1 - offset
	if idx < 0 {
		return 0, fmt.Errorf("%w: %s has %d entries", contracts.ErrComputation, name, len(series))
	}
	return series[idx], nil
}

func divide(num, den float64, name string) (float64, error) {
	if den == 0 {
		return 0, fmt.Errorf("%w: %s division by zero", contracts.ErrComputation, name)
	}
	v := num / den
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %s not finite", contracts.ErrComputation, name)
	}
	return v, nil
}

// ratioPair computes num/den for the newest and prior year
func ratioPair(num, den contracts.FinancialSeries, name string) (cur, prev float64, err error) {
	values := make([]float64, 0, 4)
	for offset := 0; offset < 2; offset++ {
		n, err := at(num, name, offset)
		if err != nil {
			return 0, 0, err
		}
		d, err := at(den, name, offset)
		if err != nil {
			return 0, 0, err
		}
		values = append(values, n, d)
	}

	if cur, err = divide(values[0], values[1], name); err != nil {
		return 0, 0, err
	}
	if prev, err = divide(values[2], values[3], name); err != nil {
		return 0, 0, err
	}
	return cur, prev, nil
}

// compare builds a check from two metrics; scale/round only affect the recorded values
func compare(cur, prev float64, pass bool, scale float64) contracts.CheckResult {
	outcome := contracts.OutcomeFail
	if pass {
		outcome = contracts.OutcomePass
	}
	return contracts.CheckResult{
		Outcome:  outcome,
		Current:  ptr(round2(cur * scale)),
		Previous: ptr(round2(prev * scale)),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func ptr(v float64) *float64 {
	return &v
}

// higherIsBetter is a ratio check passing when the ratio rose
func higherIsBetter(num, den contracts.FinancialSeries, name string, scale float64) contracts.CheckResult {
	cur, prev, err := ratioPair(num, den, name)
	if err != nil {
		return contracts.Indeterminate(err)
	}
	return compare(cur, prev, cur > prev, scale)
}

// lowerIsBetter is a ratio check passing when the ratio fell
func lowerIsBetter(num, den contracts.FinancialSeries, name string, scale float64) contracts.CheckResult {
	cur, prev, err := ratioPair(num, den, name)
	if err != nil {
		return contracts.Indeterminate(err)
	}
	return compare(cur, prev, cur < prev, scale)
}
