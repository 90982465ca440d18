package logger

import (
	"log"

	"go.uber.org/zap"
)

var L *zap.Logger

func Init() {
	var err error
	L, err = zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
}

func Sync() {
	if L != nil {
		_ = L.Sync()
	}
}
