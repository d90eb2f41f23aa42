// Command creole-preview serves a single Creole source file as a
// live-reloading HTML preview, adapted from example/main.go's pattern of
// wiring a slog.Logger and an http.Handler together.
package main

import (
	"flag"
	"log/slog"
	"net/http"
	"os"

	"github.com/wikicreole/creole/preview"
)

func loggerMiddleware(next http.Handler, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Info("HTTP request", "method", r.Method, "url", r.URL)
		next.ServeHTTP(w, r)
	})
}

func main() {
	addr := flag.String("addr", ":8080", "address to listen on")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	if flag.NArg() != 1 {
		logger.Error("usage: creole-preview [-addr addr] FILE.creole")
		os.Exit(2)
	}

	srv := preview.New(flag.Arg(0))
	srv.Logger = logger

	logger.Info("starting preview server", "address", "http://localhost"+*addr, "file", flag.Arg(0))
	if err := http.ListenAndServe(*addr, loggerMiddleware(srv, logger)); err != nil {
		logger.Error("http server error", "error", err)
		os.Exit(1)
	}
}
