package contracts

import "time"

// PriceBar is one daily OHLCV bar
type PriceBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// TimingRating grades a timing score
type TimingRating string

const (
	RatingA TimingRating = "A"
	RatingB TimingRating = "B"
	RatingC TimingRating = "C"
	RatingD TimingRating = "D"
)

// TimingResult is one security's entry-timing evaluation
// ⭐ SSOT: 타이밍 배치 결과 (체크포인트 행)
type TimingResult struct {
	Code          string       `json:"code"`
	Name          string       `json:"name"`
	FScore        int          `json:"fscore"`
	TimingScore   float64      `json:"timing_score"`
	Rating        TimingRating `json:"rating"`
	CombinedScore float64      `json:"combined_score"`
	Signals       []string     `json:"signals"`
	Close         float64      `json:"close"`
	RSI           float64      `json:"rsi"`
	VolumeRatio   float64      `json:"volume_ratio"`
}
