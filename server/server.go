package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"alabs.org/doorbell-bridge/bridge"
	"alabs.org/doorbell-bridge/journal"
)

//go:embed templates/index.html
var templatesFS embed.FS

var dashboardTemplate = template.Must(template.ParseFS(templatesFS, "templates/index.html"))

const shutdownTimeout = time.Second * 10

type BrokerStatus interface {
	Connected() bool
}

type History interface {
	Recent(ctx context.Context, limit int) ([]journal.Event, error)
}

type Options struct {
	ListenAddr   string
	CommandRate  float64
	CommandBurst int
}

type Server struct {
	bridge     *bridge.Bridge
	broker     BrokerStatus
	history    History
	limiter    *clientLimiter
	router     chi.Router
	httpServer *http.Server
	startTime  time.Time
}

// New builds the dashboard server. history may be nil when no journal is
// configured; /history then answers 404.
func New(relay *bridge.Bridge, broker BrokerStatus, history History, options Options) *Server {
	server := &Server{
		bridge:    relay,
		broker:    broker,
		history:   history,
		limiter:   newClientLimiter(options.CommandRate, options.CommandBurst),
		startTime: time.Now(),
	}
	server.router = server.routes()
	server.httpServer = &http.Server{
		Addr:              options.ListenAddr,
		Handler:           server.router,
		ReadHeaderTimeout: time.Second * 10,
	}
	return server
}

func (server *Server) routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger)
	router.Use(middleware.Recoverer)

	router.Get("/", server.handleIndex)
	router.Post("/command", server.handleCommand)
	router.Get("/ws", server.handleWebSocket)
	router.Get("/stream", server.handleStream)
	router.Get("/status", server.handleStatus)
	router.Get("/history", server.handleHistory)
	router.Get("/health", server.handleHealth)
	router.Handle("/metrics", promhttp.Handler())

	return router
}

func (server *Server) Handler() http.Handler {
	return server.router
}

// Run serves until ctx is done, then shuts down gracefully. Request contexts
// derive from ctx so open live channels end with it.
func (server *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", server.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", server.httpServer.Addr, err)
	}
	return server.Serve(ctx, listener)
}

func (server *Server) Serve(ctx context.Context, listener net.Listener) error {
	server.httpServer.BaseContext = func(net.Listener) context.Context { return ctx }

	serveErr := make(chan error, 1)
	go func() {
		log.Info().
			Str("event", "HTTPListen").
			Str("addr", listener.Addr().String()).
			Msg(fmt.Sprintf("Dashboard listening on http://%s", listener.Addr()))
		serveErr <- server.httpServer.Serve(listener)
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info().Str("event", "HTTPShutdown").Msg("Shutting down dashboard")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}
