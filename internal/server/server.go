package server

import (
	"context"
	"io/fs"
	"log"
	"net/http"

	"github.com/soar/joyview/internal/config"
	"github.com/soar/joyview/internal/hub"
	"github.com/soar/joyview/internal/theme"
)

// StateSource exposes the panel's current configuration.
type StateSource interface {
	Config() config.Config
}

// Panel is what the server needs from the panel controller.
type Panel interface {
	StateSource
	hub.ActionHandler
}

type Server struct {
	hub         *hub.Hub
	broadcaster *hub.Broadcaster
	panel       Panel
	bus         http.Handler
	frontendFS  fs.FS
	addr        string
	httpServer  *http.Server
}

// New creates the HTTP server. bus may be nil; when set it is mounted at /bus
// so other panels can exchange topics through this process.
func New(h *hub.Hub, b *hub.Broadcaster, p Panel, bus http.Handler, frontendFS fs.FS, addr string) *Server {
	return &Server{
		hub:         h,
		broadcaster: b,
		panel:       p,
		bus:         bus,
		frontendFS:  frontendFS,
		addr:        addr,
	}
}

// Handler returns the routes served by the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// WebSocket endpoint
	mux.HandleFunc("/ws", handleWebSocket(s.hub, s.broadcaster, s.panel))

	mux.HandleFunc("GET /theme", handleTheme(s.panel))
	mux.HandleFunc("GET /placeholder.svg", handlePlaceholder)
	mux.HandleFunc("GET /api/config", handleConfig(s.panel))
	mux.HandleFunc("GET /api/themes", handleThemes)

	if s.bus != nil {
		mux.Handle("/bus", s.bus)
	}

	// Static files (frontend)
	fileServer := http.FileServer(http.FS(s.frontendFS))
	mux.Handle("/", theme.Minifier().Middleware(fileServer))

	return mux
}

func (s *Server) ListenAndServe() error {
	s.httpServer = &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
	}

	log.Printf("HTTP server listening on %s", s.addr)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		log.Println("Shutting down HTTP server...")
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
