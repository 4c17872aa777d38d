package fscore

import "github.com/wonny/fscore/internal/contracts"

// Verdict is the human interpretation of a score
type Verdict struct {
	Label  string `json:"label"`
	Action string `json:"action"`
}

// Interpret maps a score to a verdict on its stage's scale
func Interpret(score int, stage contracts.ScoreStage) Verdict {
	if stage == contracts.StageLite {
		switch {
		case score >= 5:
			return Verdict{Label: "우수", Action: "Full 분석 대상"}
		case score >= 3:
			return Verdict{Label: "보통", Action: "관찰"}
		default:
			return Verdict{Label: "미흡", Action: "제외"}
		}
	}

	switch {
	case score >= 8:
		return Verdict{Label: "우수", Action: "매수 검토"}
	case score >= 6:
		return Verdict{Label: "양호", Action: "분할 매수 검토"}
	case score >= 4:
		return Verdict{Label: "보통", Action: "관망"}
	default:
		return Verdict{Label: "미흡", Action: "투자 제외"}
	}
}
