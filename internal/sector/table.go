package sector

import (
	"context"
	"time"

	"github.com/wonny/fscore/internal/contracts"
	"github.com/wonny/fscore/internal/external/krx"
	"github.com/wonny/fscore/pkg/logger"
	"github.com/wonny/fscore/pkg/redis"
)

// Table is an immutable code → sector snapshot for one run
type Table struct {
	sectors   map[string]string
	tradeDate time.Time
}

// NewTable copies m into a snapshot
func NewTable(m map[string]string) *Table {
	sectors := make(map[string]string, len(m))
	for code, name := range m {
		sectors[contracts.NormalizeCode(code)] = name
	}
	return &Table{sectors: sectors}
}

// Sector returns the code's sector, or DefaultSector when unknown (nil-safe)
func (t *Table) Sector(code string) string {
	if t == nil {
		return contracts.DefaultSector
	}
	if s, ok := t.sectors[contracts.NormalizeCode(code)]; ok && s != "" {
		return s
	}
	return contracts.DefaultSector
}

// Len returns the number of classified codes
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.sectors)
}

// TradeDate is the classification date the snapshot came from (zero when cached or empty)
func (t *Table) TradeDate() time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.tradeDate
}

// Fetcher fetches one board's classification for one date
type Fetcher interface {
	FetchSectors(ctx context.Context, date time.Time, market krx.MarketID) ([]krx.SectorRow, error)
}

// Loader builds the sector table, walking back over recent days until a trading day answers.
// ⭐ SSOT: 섹터 조회 실패는 여기서 흡수 (절대 오류를 반환하지 않음)
type Loader struct {
	fetcher  Fetcher
	cache    *redis.Cache
	lookback int
	pause    time.Duration
	logger   *logger.Logger
	now      func() time.Time
}

// NewLoader creates a loader. cache may be nil.
func NewLoader(fetcher Fetcher, cache *redis.Cache, lookbackDays int, log *logger.Logger) *Loader {
	if lookbackDays <= 0 {
		lookbackDays = 5
	}
	return &Loader{
		fetcher:  fetcher,
		cache:    cache,
		lookback: lookbackDays,
		pause:    300 * time.Millisecond,
		logger:   log.WithComponent("sector"),
		now:      time.Now,
	}
}

// WithPause sets the delay between sequential portal requests
func (l *Loader) WithPause(d time.Duration) *Loader {
	l.pause = d
	return l
}

// Load returns the sector table. Any failure degrades to an empty table.
func (l *Loader) Load(ctx context.Context) *Table {
	today := l.now()
	cacheKey := redis.SectorsKey(today.Format("20060102"))

	var cached map[string]string
	if ok, err := l.cache.Get(ctx, cacheKey, &cached); err != nil {
		l.logger.WithError(err).Warn("Sector cache read failed")
	} else if ok && len(cached) > 0 {
		l.logger.WithField("count", len(cached)).Debug("Sector table from cache")
		return NewTable(cached)
	}

	sectors := make(map[string]string)
	var tradeDate time.Time
	requests := 0

	for offset := 0; offset < l.lookback && len(sectors) == 0; offset++ {
		date := today.AddDate(0, 0, -offset)
		if date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
			continue
		}

		for _, market := range krx.Markets {
			if requests > 0 && l.pause > 0 {
				select {
				case <-ctx.Done():
					return NewTable(nil)
				case <-time.After(l.pause):
				}
			}
			requests++

			rows, err := l.fetcher.FetchSectors(ctx, date, market)
			if err != nil {
				l.logger.WithError(err).WithFields(map[string]interface{}{
					"market": market,
					"date":   date.Format("2006-01-02"),
				}).Warn("Sector lookup failed")
				continue
			}
			for _, row := range rows {
				// 먼저 조회된 시장 우선
				if _, ok := sectors[row.Code]; !ok && row.Sector != "" {
					sectors[row.Code] = row.Sector
				}
			}
		}
		if len(sectors) > 0 {
			tradeDate = date
		}
	}

	if len(sectors) == 0 {
		l.logger.Warn("Sector classification unavailable, all securities fall back to UNKNOWN")
		return NewTable(nil)
	}

	if err := l.cache.Set(ctx, cacheKey, sectors); err != nil {
		l.logger.WithError(err).Warn("Sector cache write failed")
	}

	l.logger.WithFields(map[string]interface{}{
		"count":      len(sectors),
		"trade_date": tradeDate.Format("2006-01-02"),
	}).Info("Sector table loaded")

	table := NewTable(sectors)
	table.tradeDate = tradeDate
	return table
}
