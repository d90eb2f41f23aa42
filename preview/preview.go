// Package preview serves a single Creole source file as HTML over plain
// HTTP, and as a live-reloading stream over WebSocket: the same
// poll-render-push loop go-pages' Handler.servePage runs for a CHTML
// component's reactive scope, adapted here to watch a file's mtime instead
// of a scope's dirty flag, since this module has no file-watching
// dependency to reach for.
package preview

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wikicreole/creole"
	"github.com/wikicreole/creole/render/htmlrender"
)

// pollInterval is how often the WebSocket loop checks the source file's
// modification time.
const pollInterval = 300 * time.Millisecond

var upgrader = websocket.Upgrader{}

// Server renders Path as HTML on every request, and pushes a re-rendered
// page over WebSocket whenever Path's mtime advances.
type Server struct {
	Path    string
	Title   string
	Options []creole.Option
	Logger  *slog.Logger
}

// New returns a Server watching and rendering path.
func New(path string) *Server {
	return &Server{Path: path, Logger: slog.Default()}
}

func (s *Server) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func (s *Server) render() (string, error) {
	text, err := os.ReadFile(s.Path)
	if err != nil {
		return "", fmt.Errorf("preview: read %s: %w", s.Path, err)
	}
	p := creole.New(s.Options...)
	r := htmlrender.New(p)
	r.Title = s.Title
	if r.Title == "" {
		r.Title = s.Path
	}
	if err := p.ParseDocument(text); err != nil {
		return "", fmt.Errorf("preview: parse %s: %w", s.Path, err)
	}
	return r.String()
}

// ServeHTTP renders the document once for a plain request, or upgrades to a
// WebSocket and streams re-renders for the lifetime of the connection.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if websocket.IsWebSocketUpgrade(r) {
		s.serveLiveReload(w, r)
		return
	}

	out, err := s.render()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	io.WriteString(w, out)
}

// serveLiveReload upgrades the connection and pushes a fresh render each
// time Path's mtime advances, until the socket closes. A reader goroutine
// watches for the client going away (mirroring go-pages' done-channel
// pattern) since gorilla/websocket only surfaces a closed connection on
// read, not on write.
func (s *Server) serveLiveReload(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger().Warn("preview: upgrade websocket", "error", err)
		return
	}
	defer ws.Close()

	done := make(chan error, 1)
	go func() {
		for {
			if _, _, err := ws.NextReader(); err != nil {
				done <- err
				return
			}
		}
	}()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	var lastMod time.Time
	for {
		select {
		case <-ticker.C:
			fi, err := os.Stat(s.Path)
			if err != nil {
				continue
			}
			if !fi.ModTime().After(lastMod) {
				continue
			}
			lastMod = fi.ModTime()

			out, err := s.render()
			if err != nil {
				s.logger().Warn("preview: render", "path", s.Path, "error", err)
				continue
			}
			if err := s.push(ws, out); err != nil {
				s.logger().Warn("preview: push update", "error", err)
				return
			}
		case err := <-done:
			if err != nil && !websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger().Warn("preview: websocket closed", "error", err)
			}
			return
		}
	}
}

func (s *Server) push(ws *websocket.Conn, html string) error {
	w, err := ws.NextWriter(websocket.TextMessage)
	if err != nil {
		return fmt.Errorf("get websocket writer: %w", err)
	}
	if _, err := io.WriteString(w, html); err != nil {
		return fmt.Errorf("write websocket message: %w", err)
	}
	return w.Close()
}
