package screenconfig

import "github.com/wonny/fscore/pkg/config"

// Profile is a YAML pipeline profile. Unset fields keep the environment defaults.
// ⭐ SSOT: 파이프라인 프로파일 스키마
type Profile struct {
	Name     string          `yaml:"name" json:"name"`
	Lite     LiteSection     `yaml:"lite" json:"lite"`
	Full     FullSection     `yaml:"full" json:"full"`
	Timing   TimingSection   `yaml:"timing" json:"timing"`
	Universe UniverseSection `yaml:"universe" json:"universe"`
}

// LiteSection overrides the Lite scan
type LiteSection struct {
	Workers    *int  `yaml:"workers" json:"workers,omitempty"`
	MaxCount   *int  `yaml:"max_count" json:"max_count,omitempty"`
	Checkpoint *bool `yaml:"checkpoint" json:"checkpoint,omitempty"`
}

// FullSection overrides the Full scan and final filter
type FullSection struct {
	Workers       *int `yaml:"workers" json:"workers,omitempty"`
	TopN          *int `yaml:"top_n" json:"top_n,omitempty"`
	FinalMinScore *int `yaml:"final_min_score" json:"final_min_score,omitempty"`
	FiscalYear    *int `yaml:"fiscal_year" json:"fiscal_year,omitempty"`
}

// TimingSection overrides the timing batch
type TimingSection struct {
	MinFScore *int `yaml:"min_fscore" json:"min_fscore,omitempty"`
	Workers   *int `yaml:"workers" json:"workers,omitempty"`
}

// UniverseSection selects the candidate source
type UniverseSection struct {
	Source string `yaml:"source" json:"source,omitempty"` // file | listing | db
	File   string `yaml:"file" json:"file,omitempty"`
}

// Settings are the resolved pipeline knobs (env defaults + profile)
type Settings struct {
	LiteWorkers     int
	LiteMaxCount    int
	LiteCheckpoint  bool
	FullWorkers     int
	TopN            int
	FinalMinScore   int
	FiscalYear      int
	TimingMinFScore int
	TimingWorkers   int
	UniverseSource  string
	UniverseFile    string
}

// Defaults builds settings from the environment configuration
func Defaults(cfg *config.Config) Settings {
	return Settings{
		LiteWorkers:     cfg.Scan.LiteWorkers,
		FullWorkers:     cfg.Scan.FullWorkers,
		TopN:            cfg.Scan.TopN,
		FinalMinScore:   cfg.Scan.FinalMinScore,
		TimingMinFScore: cfg.Scan.TimingMinFScore,
		TimingWorkers:   cfg.Scan.TimingWorkers,
		UniverseSource:  "file",
		UniverseFile:    cfg.Scan.UniverseFile,
	}
}

// Apply returns s with every field the profile sets overridden. A nil profile changes nothing.
func (p *Profile) Apply(s Settings) Settings {
	if p == nil {
		return s
	}
	setInt(&s.LiteWorkers, p.Lite.Workers)
	setInt(&s.LiteMaxCount, p.Lite.MaxCount)
	if p.Lite.Checkpoint != nil {
		s.LiteCheckpoint = *p.Lite.Checkpoint
	}
	setInt(&s.FullWorkers, p.Full.Workers)
	setInt(&s.TopN, p.Full.TopN)
	setInt(&s.FinalMinScore, p.Full.FinalMinScore)
	setInt(&s.FiscalYear, p.Full.FiscalYear)
	setInt(&s.TimingMinFScore, p.Timing.MinFScore)
	setInt(&s.TimingWorkers, p.Timing.Workers)
	if p.Universe.Source != "" {
		s.UniverseSource = p.Universe.Source
	}
	if p.Universe.File != "" {
		s.UniverseFile = p.Universe.File
	}
	return s
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func intPtr(v int) *int { return &v }

// builtin profiles selectable by name
var builtin = map[string]*Profile{
	// 테스트 모드: 소규모 빠른 검증
	"test": {
		Name: "test",
		Lite: LiteSection{MaxCount: intPtr(100)},
		Full: FullSection{TopN: intPtr(30), FinalMinScore: intPtr(6)},
	},
}
