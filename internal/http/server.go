package http

import (
	"net/http"
	"time"

	"panen/internal/export"
	"panen/internal/lookup"
	"panen/internal/middleware/ratelimit"
	"panen/internal/middleware/security"
	"panen/internal/middleware/trace"
	"panen/internal/tally"
)

// Server is the JSON transport in front of the tally service. It owns
// the per-identity group-selection session; the tally core receives the
// resolved group on every call and holds no session state.
type Server struct {
	http.Server

	svc       *tally.Service
	writer    export.Writer
	directory *lookup.Directory
	sessions  *sessionStore
	now       func() time.Time
}

func NewServer(addr string, svc *tally.Service, writer export.Writer, directory *lookup.Directory) *Server {
	s := &Server{
		svc:       svc,
		writer:    writer,
		directory: directory,
		sessions:  newSessionStore(),
		now:       time.Now,
	}

	// Exports walk the whole period log, so they get their own limiter.
	limiter := ratelimit.NewLimiter(ratelimit.DefaultConfig())
	limited := limiter.Middleware(trace.ClientIP)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/v1/period", s.handlePeriod)
	mux.HandleFunc("/v1/groups", s.handleGroups)
	mux.HandleFunc("/v1/session/group", s.handleSelectGroup)
	mux.HandleFunc("/v1/messages", s.handleMessage)
	mux.HandleFunc("/v1/reports/today", s.handleDailyReport)
	mux.Handle("/v1/export", limited(http.HandlerFunc(s.handleExportDownload)))
	mux.Handle("/v1/exports", limited(http.HandlerFunc(s.handleExportWrite)))

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	s.Server = http.Server{
		Addr:    addr,
		Handler: trace.Middleware(headers.Middleware(mux)),
	}
	s.RegisterOnShutdown(limiter.Stop)
	return s
}
