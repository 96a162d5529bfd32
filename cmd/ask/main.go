package main

import (
	"os"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logger.Error("ask failed", zap.Error(err))
		os.Exit(1)
	}
}
