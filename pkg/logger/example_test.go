package logger_test

import (
	"errors"

	"github.com/wonny/fscore/pkg/config"
	"github.com/wonny/fscore/pkg/logger"
)

// Example_basic demonstrates basic logger usage
func Example_basic() {
	cfg := &config.Config{
		Env:       "development",
		LogLevel:  "info",
		LogFormat: "console",
	}

	// Create logger (SSOT)
	log := logger.New(cfg)

	log.Debug("This won't appear (level is info)")
	log.Info("Hybrid run started")
	log.Infof("Lite scan %d/%d", 120, 2400)
}

// Example_withFields demonstrates structured logging with fields
func Example_withFields() {
	log := logger.New(&config.Config{Env: "production", LogLevel: "info", LogFormat: "json"})

	// 종목/컴포넌트 태그
	log.WithComponent("full").WithStock("005930").Info("Registry figures fetched")

	log.WithFields(map[string]interface{}{
		"run_id": "20240315-0600",
		"top_n":  200,
		"final":  17,
	}).Info("Final filter applied")
}

// Example_withError demonstrates error logging
func Example_withError() {
	log := logger.New(&config.Config{Env: "production", LogLevel: "warn", LogFormat: "json"})

	err := errors.New("corp code download timeout")
	log.WithError(err).Warn("Corp code load failed, retrying once")
}
