package common

import (
	"os"

	"github.com/ethereum/go-ethereum/log"
	"golang.org/x/term"

	"github.com/tranvictor/carebook/config"
)

// SetupLogger routes the go-ethereum root logger, which every package logs
// through, to stderr. Debug level is enabled by config.Debug.
func SetupLogger() {
	lvl := log.LevelInfo
	if config.Debug {
		lvl = log.LevelDebug
	}
	useColor := term.IsTerminal(int(os.Stderr.Fd()))
	log.SetDefault(log.NewLogger(log.NewTerminalHandlerWithLevel(os.Stderr, lvl, useColor)))
}
