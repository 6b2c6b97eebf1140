package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"trajectory-go/fusion"
	"trajectory-go/monitoring"
	"trajectory-go/trajectory"
)

// Server exposes a precomputed archive to the viewer over HTTP and a
// websocket feed.
type Server struct {
	Hub *Hub
	// AccessLog receives combined-format request logs when set.
	AccessLog io.Writer

	archive      *trajectory.Archive
	summary      trajectory.Summary
	floorplanDir string
	router       *mux.Router
}

// frameMsg is the wire form of a single frame, shared by /api/frames and /ws.
type frameMsg struct {
	Index  int          `json:"index"`
	Label  string       `json:"label"`
	Points fusion.Frame `json:"points"`
}

type metaMsg struct {
	Version int             `json:"version"`
	Frames  int             `json:"frames"`
	Meta    trajectory.Meta `json:"meta"`
}

func NewServer(a *trajectory.Archive, floorplanDir string) *Server {
	s := &Server{
		Hub:          NewHub(),
		archive:      a,
		summary:      trajectory.Summarize(a),
		floorplanDir: floorplanDir,
		router:       mux.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/meta", s.handleMeta).Methods(http.MethodGet)
	api.HandleFunc("/summary", s.handleSummary).Methods(http.MethodGet)
	api.HandleFunc("/frames/{index:[0-9]+}", s.handleFrame).Methods(http.MethodGet)

	s.router.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveWs(s.Hub, w, r)
	})

	if s.floorplanDir != "" {
		if _, err := os.Stat(s.floorplanDir); err == nil {
			s.router.PathPrefix("/floorplan/").Handler(
				http.StripPrefix("/floorplan/", http.FileServer(http.Dir(s.floorplanDir))))
		} else {
			monitoring.Logf("floorplan dir %s not served: %v", s.floorplanDir, err)
		}
	}
}

// Handler returns the routed handler with CORS and optional access logging.
func (s *Server) Handler() http.Handler {
	var h http.Handler = handlers.CORS(
		handlers.AllowedMethods([]string{http.MethodGet}),
		handlers.AllowedOrigins([]string{"*"}),
	)(s.router)
	if s.AccessLog != nil {
		h = handlers.LoggingHandler(s.AccessLog, h)
	}
	return h
}

// Start serves on addr until ctx is done, then shuts the listener down.
func (s *Server) Start(ctx context.Context, addr string) error {
	go s.Hub.Run(ctx)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		monitoring.Logf("HTTP server listening on %s", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) frameMessage(i int) (frameMsg, error) {
	f, err := s.archive.Frame(i)
	if err != nil {
		return frameMsg{}, err
	}
	if f == nil {
		f = fusion.Frame{}
	}
	return frameMsg{
		Index:  i,
		Label:  trajectory.SpanLabel(i, s.archive.Meta.BucketDuration()),
		Points: f,
	}, nil
}

func (s *Server) handleMeta(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, metaMsg{
		Version: s.archive.Version,
		Frames:  s.archive.Len(),
		Meta:    s.archive.Meta,
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.summary)
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	i, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		http.Error(w, "bad frame index", http.StatusBadRequest)
		return
	}
	msg, err := s.frameMessage(i)
	if errors.Is(err, trajectory.ErrOutOfRange) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		monitoring.Logf("write response: %v", err)
	}
}
