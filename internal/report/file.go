package report

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
)

// Artifact file prefixes
const (
	PrefixLite       = "hybrid_lite_results"
	PrefixFull       = "hybrid_full_results"
	PrefixFinal      = "hybrid_final"
	PrefixLiteCkpt   = "lite_checkpoint"
	PrefixTimingCkpt = "timing_checkpoint"
)

// utf8BOM keeps Korean names readable when the file is opened in Excel
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ArtifactName returns <prefix>_YYYYMMDD.csv
func ArtifactName(prefix string, date time.Time) string {
	return fmt.Sprintf("%s_%s.csv", prefix, date.Format("20060102"))
}

// ArtifactPath joins dir and the dated artifact name
func ArtifactPath(dir, prefix string, date time.Time) string {
	return filepath.Join(dir, ArtifactName(prefix, date))
}

// WriteCSV writes rows (a slice of gocsv-tagged struct pointers) with a UTF-8 BOM.
// 임시 파일에 쓴 뒤 rename하므로 중단되어도 이전 파일은 온전함
// ⭐ SSOT: 결과/체크포인트 파일 쓰기는 이 함수에서만
func WriteCSV(path string, rows interface{}) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(utf8BOM); err != nil {
		tmp.Close()
		return fmt.Errorf("write BOM: %w", err)
	}

	if err := gocsv.MarshalCSV(rows, gocsv.NewSafeCSVWriter(csv.NewWriter(tmp))); err != nil {
		tmp.Close()
		return fmt.Errorf("marshal csv: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// ReadCSV reads a comma or tab separated file into out (pointer to a slice of tagged structs).
// 구분자는 헤더 줄에서 판별, 모르는 컬럼은 무시
func ReadCSV(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return DecodeCSV(data, out)
}

// DecodeCSV decodes an in-memory table, see ReadCSV
func DecodeCSV(data []byte, out interface{}) error {
	data = bytes.TrimPrefix(data, utf8BOM)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sniffDelimiter(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	if err := gocsv.UnmarshalCSV(reader, out); err != nil {
		return fmt.Errorf("unmarshal csv: %w", err)
	}
	return nil
}

func sniffDelimiter(data []byte) rune {
	header, _ := bufio.NewReader(bytes.NewReader(data)).ReadString('\n')
	if strings.Count(header, "\t") > strings.Count(header, ",") {
		return '\t'
	}
	return ','
}

// Artifact describes one file in the output directory
type Artifact struct {
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// List returns the csv artifacts in dir, newest first
func List(dir string) ([]Artifact, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Artifact{}, nil
		}
		return nil, err
	}

	artifacts := make([]Artifact, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".csv") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		artifacts = append(artifacts, Artifact{Name: e.Name(), Size: info.Size(), ModTime: info.ModTime()})
	}

	sort.Slice(artifacts, func(i, j int) bool {
		return artifacts[i].ModTime.After(artifacts[j].ModTime)
	})
	return artifacts, nil
}

// IsTimingArtifact reports whether a file holds timing rows rather than score rows
func IsTimingArtifact(name string) bool {
	return strings.HasPrefix(name, PrefixTimingCkpt)
}

// Latest returns the path of the most recent dated artifact with prefix.
// 파일명의 날짜 기준 (같은 날짜면 수정 시각 기준)
func Latest(dir, prefix string) (string, error) {
	artifacts, err := List(dir)
	if err != nil {
		return "", err
	}

	best := ""
	for _, a := range artifacts {
		if !strings.HasPrefix(a.Name, prefix+"_") {
			continue
		}
		if best == "" || a.Name > best {
			best = a.Name
		}
	}
	if best == "" {
		return "", fmt.Errorf("no %s artifact in %s: %w", prefix, dir, os.ErrNotExist)
	}
	return filepath.Join(dir, best), nil
}
