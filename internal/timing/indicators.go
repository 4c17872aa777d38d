package timing

import (
	"fmt"
	"math"

	"github.com/markcheno/go-talib"

	"github.com/wonny/fscore/internal/contracts"
)

// MinBars is the shortest price history that can be evaluated (SMA60 needs 60 bars)
const MinBars = 60

// Indicator periods
const (
	smaShort    = 5
	smaMid      = 20
	smaLong     = 60
	rsiPeriod   = 14
	macdFast    = 12
	macdSlow    = 26
	macdSignal  = 9
	bbPeriod    = 20
	bbDeviation = 2.0
	crossWindow = 5 // 골든크로스 판정 구간
	touchWindow = 3 // 볼린저 하단 터치 판정 구간
)

// Indicators holds the indicator series needed by the timing checks.
// 모든 시리즈는 bars와 같은 길이 (talib 규약상 초기 구간은 0)
type Indicators struct {
	Close []float64
	Low   []float64

	SMA5  []float64
	SMA20 []float64
	SMA60 []float64

	RSI []float64

	MACD       []float64
	MACDSignal []float64
	MACDHist   []float64

	VolumeRatio []float64

	BBUpper  []float64
	BBMiddle []float64
	BBLower  []float64
}

// Compute calculates all indicators over bars (oldest first)
func Compute(bars []contracts.PriceBar) (*Indicators, error) {
	if len(bars) < MinBars {
		return nil, fmt.Errorf("%w: %d bars, need %d", contracts.ErrInsufficientData, len(bars), MinBars)
	}

	closes := make([]float64, len(bars))
	lows := make([]float64, len(bars))
	volumes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
		lows[i] = b.Low
		volumes[i] = b.Volume
	}

	ind := &Indicators{
		Close: closes,
		Low:   lows,
		SMA5:  talib.Sma(closes, smaShort),
		SMA20: talib.Sma(closes, smaMid),
		SMA60: talib.Sma(closes, smaLong),
		RSI:   talib.Rsi(closes, rsiPeriod),
	}
	ind.MACD, ind.MACDSignal, ind.MACDHist = talib.Macd(closes, macdFast, macdSlow, macdSignal)
	ind.BBUpper, ind.BBMiddle, ind.BBLower = talib.BBands(closes, bbPeriod, bbDeviation, bbDeviation, 0)

	volumeSMA := talib.Sma(volumes, smaMid)
	ind.VolumeRatio = make([]float64, len(volumes))
	for i := range volumes {
		if volumeSMA[i] > 0 {
			ind.VolumeRatio[i] = volumes[i] / volumeSMA[i]
		}
	}

	return ind, nil
}

func last(series []float64) float64 {
	if len(series) == 0 {
		return math.NaN()
	}
	return series[len(series)-1]
}

func tail(series []float64, n int) []float64 {
	if n > len(series) {
		n = len(series)
	}
	return series[len(series)-n:]
}
