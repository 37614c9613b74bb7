package main

import (
	"os"

	"github.com/mattn/go-isatty"

	"github.com/neurovol/neurovol/cmd/nvol/tui"
	"github.com/neurovol/neurovol/internal/engine"
)

func isTerminal(f *os.File) bool { return isatty.IsTerminal(f.Fd()) }

func runIngestProgress(eng *engine.Engine, scaleKey string) error {
	return tui.RunIngestProgress(eng, scaleKey)
}
