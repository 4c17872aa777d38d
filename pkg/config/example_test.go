package config_test

import (
	"fmt"

	"github.com/wonny/fscore/pkg/config"
)

// Example demonstrates how to use the config package
func Example() {
	// Load configuration (.env → 환경변수)
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		return
	}

	// Access configuration values
	fmt.Printf("Environment: %s\n", cfg.Env)
	fmt.Printf("Lite workers: %d, Full workers: %d\n", cfg.Scan.LiteWorkers, cfg.Scan.FullWorkers)
	fmt.Printf("Top N: %d, Final min score: %d\n", cfg.Scan.TopN, cfg.Scan.FinalMinScore)

	// Full 단계는 DART 키 필요
	if err := cfg.RequireDART(); err != nil {
		fmt.Println("Lite only:", err)
	}
}
