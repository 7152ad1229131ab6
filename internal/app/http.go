package app

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vagentd/pkg/api"
	"vagentd/pkg/auth"
	"vagentd/pkg/banner"
	"vagentd/pkg/store"
)

func (a *App) printBanner() {
	ver := a.version
	if ver == "" {
		ver = "dev"
	}
	banner.Print(a.cfg.Addr(), a.cfg.Server.DBPath, ver)
}

// buildHandler assembles the router and middleware chain.
func (a *App) buildHandler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", healthzHandler).Methods(http.MethodGet)
	r.HandleFunc("/readyz", a.readyzHandler).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	api.New(a.co).Register(r)

	secCfg := auth.SecConfig{
		AllowedOrigins: append([]string{}, a.cfg.Security.CORS.AllowedOrigins...),
		RPS:            a.cfg.Security.RateLimit.RPS,
		Burst:          a.cfg.Security.RateLimit.Burst,
	}
	return auth.Middleware(secCfg)(r)
}

// readyzHandler reports readiness of the durable store.
func (a *App) readyzHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if !store.Ready() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"not ready"}`))
		return
	}
	ver := a.version
	if ver == "" {
		ver = "dev"
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok","version":"` + ver + `"}`))
}

func healthzHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// startHTTP starts the HTTP server in a goroutine and returns a channel
// that will carry any fatal server error.
func (a *App) startHTTP() <-chan error {
	a.srv = &http.Server{Addr: a.cfg.Addr(), Handler: a.buildHandler()}
	errCh := make(chan error, 1)
	go func() {
		cert := a.cfg.Server.TLS.CertFile
		key := a.cfg.Server.TLS.KeyFile
		if cert != "" && key != "" {
			errCh <- a.srv.ListenAndServeTLS(cert, key)
		} else {
			errCh <- a.srv.ListenAndServe()
		}
	}()
	return errCh
}
