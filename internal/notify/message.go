package notify

import (
	"fmt"
	"strings"

	"github.com/wonny/fscore/internal/contracts"
	"github.com/wonny/fscore/internal/fscore"
	"github.com/wonny/fscore/internal/hybrid"
	"github.com/wonny/fscore/internal/timing"
)

// FormatRun renders a hybrid run summary
func FormatRun(result *hybrid.RunResult, topN int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "📊 F-Score 하이브리드 스크리닝 (%s)\n", result.Date.Format("2006-01-02"))
	fmt.Fprintf(&b, "Lite %d → Full %d → 최종 %d\n", len(result.Lite), len(result.Full), len(result.Final))
	if result.Empty {
		fmt.Fprintf(&b, "결과 없음: %s\n", result.Reason)
		return b.String()
	}

	if len(result.Final) == 0 {
		b.WriteString("기준 점수를 넘은 종목 없음\n")
		return b.String()
	}

	b.WriteString("\n🏆 상위 종목\n")
	for i, r := range result.Final {
		if i >= topN {
			break
		}
		v := fscore.Interpret(r.Score, r.Stage)
		fmt.Fprintf(&b, "%d. %s (%s) %d/%d %s · %s · %s\n",
			r.Rank, r.Name, r.Code, r.Score, r.MaxScore(), v.Label, r.Sector, v.Action)
	}
	if len(result.Final) > topN {
		fmt.Fprintf(&b, "... 외 %d종목\n", len(result.Final)-topN)
	}
	return b.String()
}

// FormatTiming renders a timing batch summary
func FormatTiming(result *timing.BatchResult, topN int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "⏱ 매수 타이밍 분석: %d종목 중 %d종목 완료\n", result.Candidates, len(result.Results))

	counts := make(map[contracts.TimingRating]int)
	for _, r := range result.Results {
		counts[r.Rating]++
	}
	fmt.Fprintf(&b, "A %d · B %d · C %d · D %d\n",
		counts[contracts.RatingA], counts[contracts.RatingB], counts[contracts.RatingC], counts[contracts.RatingD])

	if len(result.Results) == 0 {
		return b.String()
	}

	b.WriteString("\n🎯 상위 종목\n")
	for i, r := range result.Results {
		if i >= topN {
			break
		}
		fmt.Fprintf(&b, "%d. %s (%s) F%d · 타이밍 %.1f [%s] %s\n",
			i+1, r.Name, r.Code, r.FScore, r.TimingScore, r.Rating, timing.Recommendation(r.Rating))
	}
	return b.String()
}
