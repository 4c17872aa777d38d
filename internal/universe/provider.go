package universe

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/wonny/fscore/internal/contracts"
	"github.com/wonny/fscore/internal/external/naver"
	"github.com/wonny/fscore/internal/report"
	"github.com/wonny/fscore/pkg/logger"
)

// Provider supplies the candidate list to score
// ⭐ SSOT: 스캔 후보 목록은 Provider를 통해서만
type Provider interface {
	Candidates(ctx context.Context) ([]contracts.Candidate, error)
}

// Source names accepted by New
const (
	SourceFile    = "file"
	SourceListing = "listing"
	SourceDB      = "db"
)

// FileProvider reads a previously persisted ranking (tab or comma separated, columns Code and Name)
type FileProvider struct {
	path string
}

// NewFileProvider creates a provider over the ranking file at path
func NewFileProvider(path string) *FileProvider {
	return &FileProvider{path: path}
}

type rankingRow struct {
	Code string `csv:"Code"`
	Name string `csv:"Name"`
}

// Candidates returns the file's rows in file order
func (p *FileProvider) Candidates(ctx context.Context) ([]contracts.Candidate, error) {
	var rows []*rankingRow
	if err := report.ReadCSV(p.path, &rows); err != nil {
		return nil, fmt.Errorf("read universe file %s: %w", p.path, err)
	}

	candidates := make([]contracts.Candidate, 0, len(rows))
	for _, row := range rows {
		candidates = append(candidates, contracts.Candidate{Code: row.Code, Name: row.Name})
	}
	return Dedup(candidates), nil
}

// ListingSource fetches one board's listing
type ListingSource interface {
	FetchListing(ctx context.Context, market naver.Market) ([]naver.ListedStock, error)
}

// ListingProvider builds a fresh universe from the KOSPI and KOSDAQ listings
type ListingProvider struct {
	source ListingSource
	logger *logger.Logger
}

// NewListingProvider creates a listing-backed provider
func NewListingProvider(source ListingSource, log *logger.Logger) *ListingProvider {
	return &ListingProvider{source: source, logger: log.WithComponent("universe")}
}

// Candidates returns filtered common stocks, KOSPI first then KOSDAQ, each by market cap
func (p *ListingProvider) Candidates(ctx context.Context) ([]contracts.Candidate, error) {
	var all []contracts.Candidate
	nonStock := 0

	for _, market := range []naver.Market{naver.MarketKOSPI, naver.MarketKOSDAQ} {
		listing, err := p.source.FetchListing(ctx, market)
		if err != nil {
			return nil, fmt.Errorf("fetch %s listing: %w", market, err)
		}
		for _, s := range listing {
			// 종목 구분이 주식이 아닌 것(ETF/ETN 등)은 이름과 무관하게 제외
			if s.EndType != "" && s.EndType != "stock" {
				nonStock++
				continue
			}
			all = append(all, contracts.Candidate{Code: s.Code, Name: s.Name})
		}
	}

	kept, excluded := Filter(all)

	p.logger.WithFields(map[string]interface{}{
		"listed":    len(all) + nonStock,
		"non_stock": nonStock,
		"excluded":  len(excluded),
		"kept":      len(kept),
	}).Info("Universe built from listing")

	return kept, nil
}

// Querier is the subset of pgxpool.Pool used by DBProvider
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// DBProvider reads active stocks from the data.stocks table
type DBProvider struct {
	db     Querier
	logger *logger.Logger
}

// NewDBProvider creates a database-backed provider
func NewDBProvider(db Querier, log *logger.Logger) *DBProvider {
	return &DBProvider{db: db, logger: log.WithComponent("universe")}
}

// Candidates returns active stocks ordered by code, with the name filter applied
func (p *DBProvider) Candidates(ctx context.Context) ([]contracts.Candidate, error) {
	query := `
		SELECT code, name
		FROM data.stocks
		WHERE status = 'active'
		ORDER BY code
	`

	rows, err := p.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query stocks: %w", err)
	}
	defer rows.Close()

	var all []contracts.Candidate
	for rows.Next() {
		var c contracts.Candidate
		if err := rows.Scan(&c.Code, &c.Name); err != nil {
			return nil, fmt.Errorf("scan stock: %w", err)
		}
		all = append(all, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stocks: %w", err)
	}

	kept, excluded := Filter(all)
	p.logger.WithFields(map[string]interface{}{
		"active":   len(all),
		"excluded": len(excluded),
	}).Info("Universe built from database")

	return kept, nil
}

// Static is a fixed candidate list (used by the full command and tests)
type Static []contracts.Candidate

// Candidates returns the list with codes normalized
func (s Static) Candidates(ctx context.Context) ([]contracts.Candidate, error) {
	return Dedup(s), nil
}
