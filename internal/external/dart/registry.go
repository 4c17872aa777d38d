package dart

import (
	"context"
	"fmt"

	"github.com/wonny/fscore/internal/contracts"
	"github.com/wonny/fscore/pkg/logger"
)

// Registry is the Full engine's view of OpenDART: identifier resolution over a
// preloaded corp-code snapshot plus derived statement views.
// ⭐ SSOT: Full 스캔의 공시 데이터 접근은 여기서만
type Registry struct {
	client *Client
	table  *CorpCodeTable
	logger *logger.Logger
}

// NewRegistry creates a registry. Prepare must run before any worker uses it.
func NewRegistry(client *Client, log *logger.Logger) *Registry {
	return &Registry{
		client: client,
		logger: log.WithComponent("dart_registry"),
	}
}

// NewRegistryWithTable creates a registry over an existing snapshot
func NewRegistryWithTable(client *Client, table *CorpCodeTable, log *logger.Logger) *Registry {
	r := NewRegistry(client, log)
	r.table = table
	return r
}

// Prepare loads the corp-code table once, retrying a single time on failure.
// 워커 시작 전 단일 스레드에서 호출 (로드 완료가 배리어)
func (r *Registry) Prepare(ctx context.Context) error {
	if r.table != nil {
		return nil
	}

	table, err := r.client.LoadCorpCodes(ctx)
	if err != nil {
		r.logger.WithError(err).Warn("Corp code load failed, retrying once")
		table, err = r.client.LoadCorpCodes(ctx)
	}
	if err != nil {
		return fmt.Errorf("load corp codes: %w", err)
	}

	r.table = table
	return nil
}

// Table returns the loaded snapshot
func (r *Registry) Table() *CorpCodeTable {
	return r.table
}

// ResolveIdentifier maps a stock code to its corp code
func (r *Registry) ResolveIdentifier(stockCode string) (string, bool) {
	return r.table.Resolve(stockCode)
}

// FetchCashflow returns operating cash flow for the fiscal year
func (r *Registry) FetchCashflow(ctx context.Context, corpCode string, fiscalYear int) (*AmountPair, error) {
	st, err := r.client.FetchFinancials(ctx, corpCode, fiscalYear, defaultReport, FSConsolidated)
	if err != nil {
		return nil, err
	}
	return st.Cashflow(), nil
}

// FetchCurrentRatioInputs returns current assets/liabilities for two years
func (r *Registry) FetchCurrentRatioInputs(ctx context.Context, corpCode string, fiscalYear int) (*CurrentRatioInputs, error) {
	st, err := r.client.FetchFinancials(ctx, corpCode, fiscalYear, defaultReport, FSConsolidated)
	if err != nil {
		return nil, err
	}
	return st.CurrentRatioInputs(), nil
}

// FetchNetIncome returns net income for the fiscal year
func (r *Registry) FetchNetIncome(ctx context.Context, corpCode string, fiscalYear int) (*AmountPair, error) {
	st, err := r.client.FetchFinancials(ctx, corpCode, fiscalYear, defaultReport, FSConsolidated)
	if err != nil {
		return nil, err
	}
	return st.NetIncome(), nil
}

// FetchFScoreInputs resolves code and derives all three views from one statement fetch
func (r *Registry) FetchFScoreInputs(ctx context.Context, code string, fiscalYear int) (*contracts.RegistryFigures, error) {
	if r.table == nil {
		return nil, fmt.Errorf("%w: corp codes not loaded", contracts.ErrSourceUnavailable)
	}

	corpCode, ok := r.ResolveIdentifier(code)
	if !ok {
		return nil, fmt.Errorf("%w: no corp code for %s", contracts.ErrInsufficientData, code)
	}

	st, err := r.client.FetchFinancials(ctx, corpCode, fiscalYear, defaultReport, FSConsolidated)
	if err != nil {
		return nil, err
	}

	figures := &contracts.RegistryFigures{
		CorpCode:   corpCode,
		FiscalYear: fiscalYear,
	}

	if cf := st.Cashflow(); cf != nil {
		figures.OperatingCFCurrent = cf.Current
		figures.OperatingCFPrevious = cf.Previous
	}
	if ni := st.NetIncome(); ni != nil {
		figures.NetIncomeCurrent = ni.Current
		figures.NetIncomePrevious = ni.Previous
	}
	if cr := st.CurrentRatioInputs(); cr != nil {
		figures.CurrentAssetsCurrent = cr.AssetsCurrent
		figures.CurrentAssetsPrevious = cr.AssetsPrevious
		figures.CurrentLiabilitiesCurrent = cr.LiabilitiesCurrent
		figures.CurrentLiabilitiesPrevious = cr.LiabilitiesPrevious
	}

	return figures, nil
}
