package main

import (
	"os"

	"github.com/Xunop/e-shelf/internal/log"
)

func main() {
	defer log.Logger.Sync()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
