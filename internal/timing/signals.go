package timing

import (
	"fmt"
	"math"

	"github.com/wonny/fscore/internal/contracts"
)

// MaxScore caps the timing score
const MaxScore = 10.0

// Signal is one detected timing signal
type Signal struct {
	Name        string
	Points      float64
	Description string
}

// Evaluation is the timing verdict for one price history
type Evaluation struct {
	Score       float64
	Rating      contracts.TimingRating
	Signals     []Signal
	Close       float64
	RSI         float64
	VolumeRatio float64
}

// Descriptions returns the detected signal descriptions in check order
func (e *Evaluation) Descriptions() []string {
	out := make([]string, 0, len(e.Signals))
	for _, s := range e.Signals {
		out = append(out, s.Description)
	}
	return out
}

type check func(ind *Indicators) (float64, string)

// checks in evaluation order
var checks = []struct {
	name string
	fn   check
}{
	{"golden_cross", checkGoldenCross},
	{"ma_alignment", checkMAAlignment},
	{"rsi", checkRSI},
	{"macd", checkMACD},
	{"volume", checkVolume},
	{"bollinger", checkBollinger},
}

// Evaluate scores the indicators. Checks with zero points are not reported as signals.
// ⭐ SSOT: 타이밍 점수 규칙
func Evaluate(ind *Indicators) Evaluation {
	eval := Evaluation{
		Close:       last(ind.Close),
		RSI:         round2(last(ind.RSI)),
		VolumeRatio: round2(last(ind.VolumeRatio)),
	}

	total := 0.0
	for _, c := range checks {
		points, desc := c.fn(ind)
		if points <= 0 {
			continue
		}
		total += points
		eval.Signals = append(eval.Signals, Signal{Name: c.name, Points: points, Description: desc})
	}

	eval.Score = round2(math.Min(total, MaxScore))
	eval.Rating = Rate(eval.Score)
	return eval
}

// Rate grades a timing score
func Rate(score float64) contracts.TimingRating {
	switch {
	case score >= 7:
		return contracts.RatingA
	case score >= 5:
		return contracts.RatingB
	case score >= 3:
		return contracts.RatingC
	default:
		return contracts.RatingD
	}
}

// Combined merges the fundamental and timing scores (max 9·10 + 10·5 = 140)
func Combined(fscore int, timingScore float64) float64 {
	return round2(float64(fscore)*10 + timingScore*5)
}

// Recommendation is the action text for a rating
func Recommendation(r contracts.TimingRating) string {
	switch r {
	case contracts.RatingA:
		return "강력 매수 추천"
	case contracts.RatingB:
		return "매수 고려"
	case contracts.RatingC:
		return "관망"
	default:
		return "매수 보류"
	}
}

// checkGoldenCross: SMA20이 최근 5봉 안에서 SMA60을 상향 돌파 → 2, 위에 있음 → 1
func checkGoldenCross(ind *Indicators) (float64, string) {
	mid, long := tail(ind.SMA20, crossWindow), tail(ind.SMA60, crossWindow)
	above := mid[len(mid)-1] > long[len(long)-1]
	wasBelow := mid[0] <= long[0]

	switch {
	case above && wasBelow:
		return 2, fmt.Sprintf("골든크로스 발생 (최근 %d일 이내)", crossWindow)
	case above:
		return 1, "20일선 > 60일선 (상승 추세)"
	default:
		return 0, ""
	}
}

func checkMAAlignment(ind *Indicators) (float64, string) {
	ma5, ma20, ma60 := last(ind.SMA5), last(ind.SMA20), last(ind.SMA60)
	switch {
	case ma5 > ma20 && ma20 > ma60:
		return 1, "이동평균 정배열 (5>20>60)"
	case ma5 > ma20:
		return 0.5, "단기 정배열 (5>20)"
	default:
		return 0, ""
	}
}

func checkRSI(ind *Indicators) (float64, string) {
	rsi := last(ind.RSI)
	if math.IsNaN(rsi) || rsi < 30 || rsi > 70 {
		return 0, ""
	}
	switch {
	case rsi < 40:
		return 1, fmt.Sprintf("RSI %.1f (과매도 탈출)", rsi)
	case rsi <= 60:
		return 1, fmt.Sprintf("RSI %.1f (중립 구간)", rsi)
	default:
		return 1, fmt.Sprintf("RSI %.1f (상승 모멘텀)", rsi)
	}
}

func checkMACD(ind *Indicators) (float64, string) {
	macd, signal, hist := last(ind.MACD), last(ind.MACDSignal), last(ind.MACDHist)
	if math.IsNaN(macd) || math.IsNaN(signal) {
		return 0, ""
	}
	switch {
	case macd > signal && hist > 0:
		return 2, "MACD > Signal & 양전환"
	case macd > signal:
		return 1, "MACD > Signal"
	case macd > 0:
		return 0.5, "MACD 0선 위 (상승 추세)"
	default:
		return 0, ""
	}
}

func checkVolume(ind *Indicators) (float64, string) {
	ratio := last(ind.VolumeRatio)
	switch {
	case ratio >= 2.0:
		return 1.5, fmt.Sprintf("거래량 급증 (%.1f배)", ratio)
	case ratio >= 1.5:
		return 1, fmt.Sprintf("거래량 증가 (%.1f배)", ratio)
	case ratio >= 0.8:
		return 0.5, fmt.Sprintf("거래량 정상 (%.1f배)", ratio)
	default:
		return 0, ""
	}
}

// checkBollinger: 하단~하단+30% 구간이면서 최근 3봉 저가가 하단·1.02 이하 → 1, 구간만 → 0.5, 중심선 위 → 0.5
func checkBollinger(ind *Indicators) (float64, string) {
	closePrice := last(ind.Close)
	lower, middle := last(ind.BBLower), last(ind.BBMiddle)

	if closePrice >= lower && closePrice <= lower+(middle-lower)*0.3 {
		for _, low := range tail(ind.Low, touchWindow) {
			if low <= lower*1.02 {
				return 1, "볼린저 하단 반등"
			}
		}
		return 0.5, "볼린저 하단 근처"
	}
	if closePrice > middle {
		return 0.5, "볼린저 중심선 위"
	}
	return 0, ""
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
