package dart

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/wonny/fscore/internal/contracts"
	"github.com/wonny/fscore/pkg/redis"
)

const corpCodeFile = "CORPCODE.xml"

// CorpCodeTable maps a 6-digit stock code to the 8-digit DART corp code.
// Built once per Full scan and read-only afterwards, so lookups need no lock.
// ⭐ SSOT: 종목코드 → 고유번호 매핑 스냅샷
type CorpCodeTable struct {
	codes map[string]string
}

// NewCorpCodeTable copies entries into an immutable table
func NewCorpCodeTable(entries map[string]string) *CorpCodeTable {
	codes := make(map[string]string, len(entries))
	for stock, corp := range entries {
		codes[contracts.NormalizeCode(stock)] = corp
	}
	return &CorpCodeTable{codes: codes}
}

// Resolve returns the corp code of a stock code
func (t *CorpCodeTable) Resolve(stockCode string) (string, bool) {
	if t == nil {
		return "", false
	}
	corp, ok := t.codes[contracts.NormalizeCode(stockCode)]
	return corp, ok
}

// Len returns the number of listed companies in the table
func (t *CorpCodeTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.codes)
}

type corpCodeXML struct {
	List []struct {
		CorpCode   string `xml:"corp_code"`
		CorpName   string `xml:"corp_name"`
		StockCode  string `xml:"stock_code"`
		ModifyDate string `xml:"modify_date"`
	} `xml:"list"`
}

// LoadCorpCodes bulk-loads the corp code table (cache first, then corpCode.xml)
func (c *Client) LoadCorpCodes(ctx context.Context) (*CorpCodeTable, error) {
	var cached map[string]string
	if found, err := c.cache.Get(ctx, redis.CorpCodesKey(), &cached); err != nil {
		c.logger.WithError(err).Warn("Corp code cache read failed")
	} else if found && len(cached) > 0 {
		c.logger.WithField("count", len(cached)).Debug("Corp codes loaded from cache")
		return NewCorpCodeTable(cached), nil
	}

	var archive []byte
	err := c.withRetry(ctx, "corpCode.xml", func() error {
		resp, err := c.http.Get(ctx, c.endpoint("corpCode.xml", nil))
		if err != nil {
			return fmt.Errorf("HTTP request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		}

		archive, err = io.ReadAll(resp.Body)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: download corp codes: %v", contracts.ErrSourceUnavailable, err)
	}

	entries, err := ParseCorpCodeArchive(archive)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, redis.CorpCodesKey(), entries); err != nil {
		c.logger.WithError(err).Warn("Corp code cache write failed")
	}

	c.logger.WithField("count", len(entries)).Info("Corp codes loaded")
	return NewCorpCodeTable(entries), nil
}

// ParseCorpCodeArchive reads CORPCODE.xml from the zip and keeps listed companies only
func ParseCorpCodeArchive(archive []byte) (map[string]string, error) {
	// 오류 응답은 ZIP 대신 JSON/XML 상태 메시지로 옴
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, fmt.Errorf("%w: corp code archive is not a zip: %v", contracts.ErrSourceUnavailable, err)
	}

	var xmlFile *zip.File
	for _, f := range zr.File {
		if strings.EqualFold(f.Name, corpCodeFile) {
			xmlFile = f
			break
		}
	}
	if xmlFile == nil {
		return nil, fmt.Errorf("%w: %s missing from archive", contracts.ErrSourceUnavailable, corpCodeFile)
	}

	rc, err := xmlFile.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", corpCodeFile, err)
	}
	defer rc.Close()

	var doc corpCodeXML
	if err := xml.NewDecoder(rc).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", corpCodeFile, err)
	}

	entries := make(map[string]string, len(doc.List))
	for _, item := range doc.List {
		stock := strings.TrimSpace(item.StockCode)
		if stock == "" {
			continue // 비상장
		}
		entries[stock] = strings.TrimSpace(item.CorpCode)
	}

	return entries, nil
}
