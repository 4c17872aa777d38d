package fscore

import (
	"context"

	"github.com/wonny/fscore/internal/contracts"
)

// ScoreCandidate scores one candidate as a scan task
func (e *LiteEngine) ScoreCandidate(ctx context.Context, c contracts.Candidate) (contracts.ScoreResult, error) {
	score, details, err := e.Score(ctx, c.Code)
	if err != nil {
		return contracts.ScoreResult{}, err
	}
	return contracts.ScoreResult{
		Code:  c.Code,
		Name:  c.Name,
		Stage: contracts.StageLite,
		Score: score,
		Lite:  *details,
	}, nil
}

// CandidateScorer returns a scan task scoring candidates for fiscalYear (0 = prior year)
func (e *FullEngine) CandidateScorer(fiscalYear int) func(ctx context.Context, c contracts.Candidate) (contracts.ScoreResult, error) {
	return func(ctx context.Context, c contracts.Candidate) (contracts.ScoreResult, error) {
		score, details, err := e.Score(ctx, c.Code, fiscalYear)
		if err != nil {
			return contracts.ScoreResult{}, err
		}
		return contracts.ScoreResult{
			Code:  c.Code,
			Name:  c.Name,
			Stage: contracts.StageFull,
			Score: score,
			Lite:  details.Lite,
			Full:  details,
		}, nil
	}
}
