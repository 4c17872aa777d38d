package contracts

import "strings"

// CodeWidth is the fixed width of a KRX security code
const CodeWidth = 6

// Candidate is one security to score
// ⭐ SSOT: Universe → Scan 후보 전달
type Candidate struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// NormalizeCode trims and zero-pads a security code to 6 characters.
// 엑셀/CSV에서 앞자리 0이 사라진 코드(5930)를 복원
func NormalizeCode(code string) string {
	code = strings.TrimSpace(code)
	code = strings.TrimSuffix(code, ".0")
	if len(code) >= CodeWidth {
		return code
	}
	return strings.Repeat("0", CodeWidth-len(code)) + code
}

// Codes returns the codes of candidates in order
func Codes(candidates []Candidate) []string {
	codes := make([]string, len(candidates))
	for i, c := range candidates {
		codes[i] = c.Code
	}
	return codes
}
