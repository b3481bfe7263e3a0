package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/justin4957/logflow-monitor/pkg/models"
)

// Server provides a read-only web view of the latest stats report. The
// ingest loop hands reports over with Publish and never waits on it.
type Server struct {
	addr      string
	upgrader  websocket.Upgrader
	clients   map[*websocket.Conn]bool
	clientsMu sync.RWMutex
	broadcast chan models.StatsReport

	latestMu sync.RWMutex
	latest   *models.StatsReport
}

// NewServer creates a new dashboard server
func NewServer(addr string) *Server {
	return &Server{
		addr: addr,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan models.StatsReport, 16),
	}
}

// Publish records a report and queues it for websocket clients. A report is
// dropped for clients when the queue is full.
func (s *Server) Publish(report models.StatsReport) {
	s.latestMu.Lock()
	s.latest = &report
	s.latestMu.Unlock()

	select {
	case s.broadcast <- report:
	default:
		log.Printf("Dashboard broadcast queue full, dropping report")
	}
}

// Latest returns the most recent report, if any
func (s *Server) Latest() (models.StatsReport, bool) {
	s.latestMu.RLock()
	defer s.latestMu.RUnlock()
	if s.latest == nil {
		return models.StatsReport{}, false
	}
	return *s.latest, true
}

// Handler returns the HTTP routes of the dashboard
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/api/stats", s.handleStats)
	mux.HandleFunc("/", s.handleIndex)
	return mux
}

// Start listens on the configured address and serves until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve runs the dashboard on ln until ctx is cancelled. Websocket clients
// are disconnected on return.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	server := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.broadcastLoop(ctx)
	}()

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		log.Printf("Dashboard server listening on %s", ln.Addr())
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	server.Shutdown(shutdownCtx)
	s.closeClients()
	<-errCh
	wg.Wait()

	return serveErr
}

func (s *Server) broadcastLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case report := <-s.broadcast:
			s.send(report)
		}
	}
}

func (s *Server) send(report models.StatsReport) {
	var failed []*websocket.Conn

	// Writes hold the exclusive lock: a connection allows one writer at a time
	s.clientsMu.Lock()
	for client := range s.clients {
		client.SetWriteDeadline(time.Now().Add(time.Second))
		if err := client.WriteJSON(report); err != nil {
			log.Printf("WebSocket write error: %v", err)
			failed = append(failed, client)
		}
	}
	s.clientsMu.Unlock()

	for _, client := range failed {
		client.Close()
		s.removeClient(client)
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	// New clients get the current state right away
	s.clientsMu.Lock()
	if report, ok := s.Latest(); ok {
		conn.WriteJSON(report)
	}
	s.clients[conn] = true
	s.clientsMu.Unlock()

	// Keep connection alive
	for {
		if _, _, err := conn.NextReader(); err != nil {
			s.removeClient(conn)
			conn.Close()
			break
		}
	}
}

func (s *Server) removeClient(conn *websocket.Conn) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	delete(s.clients, conn)
}

func (s *Server) closeClients() {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	for conn := range s.clients {
		conn.Close()
		delete(s.clients, conn)
	}
}

func (s *Server) clientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	report, ok := s.Latest()
	if !ok {
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(map[string]string{
			"status": "waiting for first report",
		})
		return
	}
	json.NewEncoder(w).Encode(report)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html")
	w.Write([]byte(indexHTML))
}

const indexHTML = `<!DOCTYPE html>
<html>
<head>
    <title>LogFlow Monitor</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 0; padding: 20px; background: #1a1a1a; color: #fff; }
        h1 { color: #4CAF50; }
        table { border-collapse: collapse; margin: 20px 0; }
        th, td { padding: 8px 16px; text-align: right; border-bottom: 1px solid #333; }
        th:first-child, td:first-child { text-align: left; }
        .alert { background: #d32f2f; padding: 12px; border-radius: 8px; display: none; }
        .status { color: #999; font-size: 0.9em; }
    </style>
</head>
<body>
    <h1>LogFlow Monitor</h1>
    <div class="status" id="status">Connecting to server...</div>
    <div class="alert" id="alert">High traffic alert active</div>
    <table>
        <tr><th></th><th>Whole run</th><th id="window-label">Window</th></tr>
        <tr><td>GET</td><td id="total-get">0</td><td id="window-get">0</td></tr>
        <tr><td>POST</td><td id="total-post">0</td><td id="window-post">0</td></tr>
        <tr><td>Total</td><td id="total-requests">0</td><td id="window-total">0</td></tr>
    </table>
    <div class="status" id="rate"></div>

    <script>
        const ws = new WebSocket('ws://' + window.location.host + '/ws');
        const set = (id, v) => { document.getElementById(id).textContent = v; };

        ws.onopen = () => set('status', 'Connected');
        ws.onclose = () => set('status', 'Disconnected');
        ws.onmessage = (event) => {
            const r = JSON.parse(event.data);
            set('window-label', 'Last ' + r.window_seconds + 's');
            set('total-get', r.total_get);
            set('total-post', r.total_post);
            set('total-requests', r.total_requests);
            set('window-get', r.window_get);
            set('window-post', r.window_post);
            set('window-total', r.window_total);
            set('rate', r.rate.toFixed(2) + ' req/s (threshold ' + r.threshold + ')');
            document.getElementById('alert').style.display = r.alert_active ? 'block' : 'none';
        };
    </script>
</body>
</html>`
