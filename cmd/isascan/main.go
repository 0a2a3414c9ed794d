package main

import (
	"log/slog"
	"net/http"
	"os"

	_ "net/http/pprof"

	"isascan/internal/isascan/cmd"
	"isascan/internal/isascan/log"
)

func main() {
	defer log.RecoverPanic("main", func() {
		slog.Error("isascan terminated by a panic")
	})

	if addr := os.Getenv("ISASCAN_PROFILE"); addr != "" {
		if addr == "1" {
			addr = "localhost:6060"
		}
		go func() {
			slog.Info("Serving pprof", "addr", addr)
			if err := http.ListenAndServe(addr, nil); err != nil {
				slog.Error("pprof listener failed", "error", err)
			}
		}()
	}

	cmd.Execute()
}
