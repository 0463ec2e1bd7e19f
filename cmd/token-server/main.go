// token-server issues short-lived LiveKit join tokens over HTTP.
package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/avavoice/ava/internal/config"
	"github.com/avavoice/ava/internal/logging"
	"github.com/avavoice/ava/internal/tokens"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	issuer := tokens.NewIssuer(cfg)

	r := chi.NewRouter()
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Mount("/", issuer.Routes())

	logging.Infof("[token] listening on %s", cfg.TokenAddr)
	if err := http.ListenAndServe(cfg.TokenAddr, r); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
