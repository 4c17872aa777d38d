package commands

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/wonny/fscore/internal/contracts"
	"github.com/wonny/fscore/internal/fscore"
	"github.com/wonny/fscore/internal/hybrid"
	"github.com/wonny/fscore/internal/scan"
	"github.com/wonny/fscore/internal/timing"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

const separatorWidth = 59

// PrintHeader prints a titled block header
func PrintHeader(w io.Writer, title string, fields [][2]string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("═", separatorWidth))
	fmt.Fprintf(w, "  %s\n", title)
	fmt.Fprintln(w, strings.Repeat("─", separatorWidth))
	for _, kv := range fields {
		fmt.Fprintf(w, "  %-10s: %s\n", kv[0], kv[1])
	}
	fmt.Fprintln(w, strings.Repeat("─", separatorWidth))
}

// PrintTable prints a header, a rule and rows with display-width aware padding
func PrintTable(w io.Writer, columns []string, widths []int, rows [][]string) {
	printRow(w, columns, widths)

	total := 0
	for i, width := range widths {
		total += width
		if i < len(widths)-1 {
			total += 2
		}
	}
	fmt.Fprintln(w, strings.Repeat("─", total))

	for _, row := range rows {
		printRow(w, row, widths)
	}
}

func printRow(w io.Writer, values []string, widths []int) {
	var b strings.Builder
	for i, v := range values {
		b.WriteString(pad(v, widths[i]))
		if i < len(values)-1 {
			b.WriteString("  ")
		}
	}
	fmt.Fprintln(w, strings.TrimRight(b.String(), " "))
}

// pad right-pads to a terminal display width (한글은 2칸)
func pad(s string, width int) string {
	n := displayWidth(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}

func displayWidth(s string) int {
	n := 0
	for _, r := range s {
		if r >= 0x1100 && (r <= 0x115F || (r >= 0x2E80 && r <= 0xA4CF) || (r >= 0xAC00 && r <= 0xD7A3) || (r >= 0xF900 && r <= 0xFAFF) || (r >= 0xFF00 && r <= 0xFF60)) {
			n += 2
		} else {
			n++
		}
	}
	return n
}

// PrintDistribution prints a histogram of raw scores from max down to 0
func PrintDistribution(w io.Writer, ranked []contracts.RankedResult, maxScore int) {
	counts := make([]int, maxScore+1)
	for _, r := range ranked {
		if r.Score >= 0 && r.Score <= maxScore {
			counts[r.Score]++
		}
	}

	fmt.Fprintln(w, "\n📊 점수 분포")
	for s := maxScore; s >= 0; s-- {
		pct := 0.0
		if len(ranked) > 0 {
			pct = float64(counts[s]) / float64(len(ranked)) * 100
		}
		bar := strings.Repeat("█", int(pct/2+0.5))
		fmt.Fprintf(w, "  %d점: %4d개 (%5.1f%%) %s\n", s, counts[s], pct, bar)
	}
}

// PrintRanked prints the top n ranked rows with verdicts
func PrintRanked(w io.Writer, title string, ranked []contracts.RankedResult, n int) {
	fmt.Fprintf(w, "\n🏆 %s (상위 %d)\n", title, min(n, len(ranked)))
	if len(ranked) == 0 {
		fmt.Fprintln(w, "  (없음)")
		return
	}

	rows := make([][]string, 0, n)
	for i, r := range ranked {
		if i >= n {
			break
		}
		adjusted := "-"
		if r.AdjustedScore != nil {
			adjusted = fmt.Sprintf("%.2f", *r.AdjustedScore)
		}
		v := fscore.Interpret(r.Score, r.Stage)
		rows = append(rows, []string{
			fmt.Sprintf("%d", r.Rank),
			r.Code,
			r.Name,
			fmt.Sprintf("%d/%d", r.Score, r.MaxScore()),
			adjusted,
			r.Sector,
			v.Label,
		})
	}
	PrintTable(w, []string{"순위", "코드", "종목명", "점수", "보정", "섹터", "평가"}, []int{4, 6, 20, 5, 6, 16, 4}, rows)
}

// PrintRunSummary prints the outcome of a hybrid or lite run
func PrintRunSummary(w io.Writer, result *hybrid.RunResult, topN int) {
	PrintHeader(w, "F-Score 하이브리드 결과", [][2]string{
		{"Run ID", result.RunID},
		{"Date", result.Date.Format("2006-01-02")},
		{"Stage", string(result.Stage)},
		{"Duration", result.Duration.Round(time.Second).String()},
	})

	if result.LiteProgress.Total > 0 {
		printProgressLine(w, result.LiteProgress)
	}
	if result.FullProgress.Total > 0 {
		printProgressLine(w, result.FullProgress)
	}
	if result.Empty {
		fmt.Fprintf(w, "\n⚠️  %s\n", result.Reason)
		return
	}

	if len(result.Final) > 0 || len(result.Full) > 0 {
		PrintQuality(w, fscore.Quality(scores(result.Full), result.Date))
		PrintDistribution(w, result.Full, contracts.MaxFullScore)
		PrintRanked(w, "최종 선정", result.Final, topN)
	} else {
		PrintQuality(w, fscore.Quality(scores(result.Lite), result.Date))
		PrintDistribution(w, result.Lite, contracts.MaxLiteScore)
		PrintRanked(w, "Lite 섹터 보정 순위", result.Lite, topN)
	}

	fmt.Fprintln(w, "\n📁 결과 파일")
	for _, stage := range []hybrid.Stage{hybrid.StageLiteScan, hybrid.StageSectorAdjustLite, hybrid.StageRankFull, hybrid.StageFilterFinal} {
		if path, ok := result.Artifacts[stage]; ok {
			fmt.Fprintf(w, "  %-20s %s\n", stage, path)
		}
	}
}

func scores(ranked []contracts.RankedResult) []contracts.ScoreResult {
	out := make([]contracts.ScoreResult, len(ranked))
	for i, r := range ranked {
		out[i] = r.ScoreResult
	}
	return out
}

// PrintQuality prints the determinate ratio of each check
func PrintQuality(w io.Writer, q *contracts.DataQualitySnapshot) {
	if q.TotalStocks == 0 {
		return
	}

	status := "✅"
	if !q.Passed {
		status = "⚠️ "
	}
	fmt.Fprintf(w, "\n%s 데이터 품질 %.1f%% (전 항목 판정 %d/%d)\n", status, q.QualityScore*100, q.ValidStocks, q.TotalStocks)

	names := make([]string, 0, len(q.Coverage))
	for name := range q.Coverage {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-28s %5.1f%%\n", name, q.Coverage[name]*100)
	}
}

func printProgressLine(w io.Writer, p scan.Progress) {
	fmt.Fprintf(w, "  %-14s 완료 %d/%d · 성공 %d · 실패 %d · %s\n",
		p.Label, p.Completed, p.Total, p.Success, p.Failed, p.Elapsed.Round(time.Second))
}

// PrintTimingSummary prints the timing batch outcome
func PrintTimingSummary(w io.Writer, result *timing.BatchResult, topN int) {
	PrintHeader(w, "매수 타이밍 분석 결과", [][2]string{
		{"Screened", fmt.Sprintf("%d", result.Candidates)},
		{"Evaluated", fmt.Sprintf("%d", len(result.Results))},
		{"Artifact", result.Artifact},
		{"Duration", result.Duration.Round(time.Second).String()},
	})

	rows := make([][]string, 0, topN)
	for i, r := range result.Results {
		if i >= topN {
			break
		}
		signals := ""
		if len(r.Signals) > 0 {
			signals = strings.Join(r.Signals[:min(2, len(r.Signals))], ", ")
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			r.Code,
			r.Name,
			fmt.Sprintf("%d", r.FScore),
			fmt.Sprintf("%.1f", r.TimingScore),
			string(r.Rating),
			fmt.Sprintf("%.1f", r.CombinedScore),
			signals,
		})
	}
	fmt.Fprintln(w)
	PrintTable(w, []string{"#", "코드", "종목명", "F", "타이밍", "등급", "종합", "주요 신호"}, []int{3, 6, 20, 2, 6, 4, 6, 30}, rows)
}

type checkLine struct {
	label string
	check contracts.CheckResult
}

// PrintFullDetail prints the nine checks of one Full score
func PrintFullDetail(w io.Writer, r contracts.ScoreResult) {
	v := fscore.Interpret(r.Score, r.Stage)
	fmt.Fprintf(w, "\n%s (%s)  %d/%d  %s · %s\n", r.Name, r.Code, r.Score, r.MaxScore(), v.Label, v.Action)

	lite := r.Lite
	checks := []checkLine{
		{"순이익 > 0", lite.NetIncomePositive},
		{"ROA 증가", lite.ROAIncreasing},
		{"부채비율 감소", lite.DebtRatioDecreasing},
		{"주식수 미증가", lite.SharesNotIncreased},
		{"영업이익률 증가", lite.OperatingMarginIncreasing},
		{"자산회전율 증가", lite.AssetTurnoverIncreasing},
	}
	if r.Full != nil {
		checks = append(checks,
			checkLine{"영업현금흐름 > 0", r.Full.OperatingCFPositive},
			checkLine{"현금흐름 > 순이익", r.Full.AccrualQuality},
			checkLine{"유동비율 증가", r.Full.CurrentRatioIncreasing},
		)
	}

	for _, c := range checks {
		mark := "–"
		switch c.check.Outcome {
		case contracts.OutcomePass:
			mark = "✅"
		case contracts.OutcomeFail:
			mark = "❌"
		}
		fmt.Fprintf(w, "  %s %s%s\n", mark, pad(c.label, 18), formatPair(c.check))
	}
}

func formatPair(c contracts.CheckResult) string {
	switch {
	case c.Current != nil && c.Previous != nil:
		return fmt.Sprintf("%.2f ← %.2f", *c.Current, *c.Previous)
	case c.Current != nil:
		return fmt.Sprintf("%.2f", *c.Current)
	case c.Err != nil:
		return c.Err.Error()
	default:
		return ""
	}
}
