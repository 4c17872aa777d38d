package krx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fscore/internal/contracts"
	"github.com/wonny/fscore/pkg/config"
	"github.com/wonny/fscore/pkg/logger"
)

func newTestClient(url string) *Client {
	return NewClient(&config.Config{KRX: config.KRXConfig{BaseURL: url}}, logger.NewNop())
}

func TestFetchSectors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, jsonDataPath, r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, sectorBld, r.PostForm.Get("bld"))
		assert.Equal(t, "KSQ", r.PostForm.Get("mktId"))
		assert.Equal(t, "20240315", r.PostForm.Get("trdDd"))
		assert.NotEmpty(t, r.Header.Get("Referer"))

		w.Write([]byte(`{"block1":[
			{"ISU_SRT_CD":"5930","ISU_ABBRV":"삼성전자","IDX_IND_NM":" 전기전자 "},
			{"ISU_SRT_CD":"","ISU_ABBRV":"없음","IDX_IND_NM":"기타"},
			{"ISU_SRT_CD":"035720","ISU_ABBRV":"카카오","IDX_IND_NM":"서비스업"}
		]}`))
	}))
	defer server.Close()

	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	rows, err := newTestClient(server.URL).FetchSectors(context.Background(), date, MarketKOSDAQ)
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, SectorRow{Code: "005930", Name: "삼성전자", Sector: "전기전자"}, rows[0])
	assert.Equal(t, "서비스업", rows[1].Sector)
}

func TestFetchSectors_Holiday(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"block1":[]}`))
	}))
	defer server.Close()

	rows, err := newTestClient(server.URL).FetchSectors(context.Background(), time.Now(), MarketKOSPI)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestFetchSectors_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"bad status", http.StatusForbidden, ""},
		{"not json", http.StatusOK, "<html>LOGOUT</html>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newTestClient(server.URL).FetchSectors(context.Background(), time.Now(), MarketKOSPI)
			require.Error(t, err)
			assert.True(t, errors.Is(err, contracts.ErrSourceUnavailable))
		})
	}
}
