package universe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fscore/internal/contracts"
	"github.com/wonny/fscore/internal/external/naver"
	"github.com/wonny/fscore/pkg/config"
	"github.com/wonny/fscore/pkg/database"
	"github.com/wonny/fscore/pkg/logger"
)

func TestExclusionReason(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"삼성전자", ""},
		{"삼성전자우", "우선주"},
		{"현대차2우B", "우선주"},
		{"한화솔루션(전환)", "우선주"},
		{"우리금융지주", ""},
		{"하나스팩28호", "SPAC"},
		{"엔에이치기업인수목적제25호", "SPAC"},
		{"KODEX 200 ETF", "ETF/ETN"},
		{"신한 인버스 etn", "ETF/ETN"},
		{"맥쿼리인프라리츠", "리츠/펀드"},
		{"한국부동산REIT", "리츠/펀드"},
		{"관리종목테스트", "관리종목"},
		{"  ", "종목명 없음"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExclusionReason(tt.name))
		})
	}
}

func TestFilter(t *testing.T) {
	kept, excluded := Filter([]contracts.Candidate{
		{Code: "5930", Name: "삼성전자"},
		{Code: "005935", Name: "삼성전자우"},
		{Code: "005930", Name: "삼성전자 중복"},
		{Code: "", Name: "코드없음"},
		{Code: "000660", Name: "SK하이닉스"},
	})

	assert.Equal(t, []contracts.Candidate{
		{Code: "005930", Name: "삼성전자"},
		{Code: "000660", Name: "SK하이닉스"},
	}, kept)
	assert.Equal(t, map[string]string{"005935": "우선주"}, excluded)
}

func TestFileProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "df_sorted.csv")
	content := "\tCode\tName\tRank\n0\t5930\t삼성전자\t1\n1\t660\tSK하이닉스\t2\n2\t5930\t삼성전자\t3\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	got, err := NewFileProvider(path).Candidates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []contracts.Candidate{
		{Code: "005930", Name: "삼성전자"},
		{Code: "000660", Name: "SK하이닉스"},
	}, got)

	_, err = NewFileProvider(filepath.Join(t.TempDir(), "missing.csv")).Candidates(context.Background())
	assert.Error(t, err)
}

type fakeListing struct {
	byMarket map[naver.Market][]naver.ListedStock
	err      error
}

func (f *fakeListing) FetchListing(ctx context.Context, market naver.Market) ([]naver.ListedStock, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byMarket[market], nil
}

func TestListingProvider(t *testing.T) {
	source := &fakeListing{byMarket: map[naver.Market][]naver.ListedStock{
		naver.MarketKOSPI: {
			{Code: "005930", Name: "삼성전자", EndType: "stock"},
			{Code: "069500", Name: "KODEX 200", EndType: "etf"},
			{Code: "005935", Name: "삼성전자우", EndType: "stock"},
		},
		naver.MarketKOSDAQ: {
			{Code: "035720", Name: "카카오", EndType: "stock"},
			{Code: "123456", Name: "대신밸런스스팩", EndType: "stock"},
		},
	}}

	got, err := NewListingProvider(source, logger.NewNop()).Candidates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"005930", "035720"}, contracts.Codes(got))

	_, err = NewListingProvider(&fakeListing{err: errors.New("down")}, logger.NewNop()).Candidates(context.Background())
	assert.Error(t, err)
}

func TestStatic(t *testing.T) {
	got, err := Static{{Code: "5930"}, {Code: "005930"}}.Candidates(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestDBProvider_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}

	cfg := &config.Config{Database: config.DatabaseConfig{URL: url, MaxConns: 2, MinConns: 1}}
	db, err := database.New(context.Background(), cfg)
	require.NoError(t, err, "database connection failed")
	defer db.Close()

	got, err := NewDBProvider(db.Pool, logger.NewNop()).Candidates(context.Background())
	require.NoError(t, err)
	for _, c := range got {
		assert.Len(t, c.Code, contracts.CodeWidth)
		assert.Empty(t, ExclusionReason(c.Name))
	}
}
