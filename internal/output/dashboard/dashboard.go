package dashboard

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"

	"github.com/hejijunhao/chatsift/internal/model"
	"github.com/hejijunhao/chatsift/internal/output"
)

//go:embed static
var staticFiles embed.FS

const writeTimeout = 5 * time.Second

type wsClient struct {
	conn *websocket.Conn
	id   string
}

// Output serves a local live view of classification snapshots. An HTTP
// server hosts an embedded static page plus a /ws endpoint; every snapshot
// written is broadcast as JSON to all connected clients, and a client that
// connects mid-stream immediately receives the latest snapshot.
type Output struct {
	ln        net.Listener
	server    *http.Server
	verbosity output.Verbosity
	clients   sync.Map
	nextID    atomic.Int64

	mu     sync.Mutex
	latest []byte // marshaled latest snapshot, nil until first Write
}

// New starts a dashboard server on the given port. Port 0 picks a free
// port; Addr reports the bound address.
func New(port int, verbosity output.Verbosity) (*Output, error) {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("dashboard: listen: %w", err)
	}

	o := &Output{ln: ln, verbosity: verbosity}

	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		ln.Close()
		return nil, fmt.Errorf("dashboard: embed static fs: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.FS(staticFS)))
	mux.HandleFunc("/ws", o.handleWS)
	o.server = &http.Server{Handler: mux}

	go func() {
		slog.Info("dashboard listening", "addr", ln.Addr().String())
		if err := o.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("dashboard server error", "error", err)
		}
	}()

	return o, nil
}

// Addr returns the address the dashboard is listening on.
func (o *Output) Addr() string {
	return o.ln.Addr().String()
}

// Write broadcasts the snapshot to every connected client and retains it
// for clients that connect later. Per-client write failures are ignored;
// the read loop reaps dead connections.
func (o *Output) Write(ctx context.Context, result model.ClusterResult) error {
	shaped := output.ShapeResult(result, o.verbosity)
	data, err := json.Marshal(shaped)
	if err != nil {
		return fmt.Errorf("dashboard: marshal: %w", err)
	}

	o.mu.Lock()
	o.latest = data
	o.mu.Unlock()

	o.clients.Range(func(_, value any) bool {
		c := value.(*wsClient)
		wctx, cancel := context.WithTimeout(ctx, writeTimeout)
		_ = c.conn.Write(wctx, websocket.MessageText, data)
		cancel()
		return true
	})
	return nil
}

// Close shuts the server down and disconnects all clients.
func (o *Output) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := o.server.Shutdown(ctx)

	o.clients.Range(func(_, value any) bool {
		value.(*wsClient).conn.CloseNow()
		return true
	})
	return err
}

func (o *Output) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		slog.Warn("dashboard websocket accept error", "error", err)
		return
	}

	clientID := fmt.Sprintf("viewer-%d", o.nextID.Add(1))
	client := &wsClient{conn: conn, id: clientID}
	o.clients.Store(clientID, client)
	slog.Debug("dashboard client connected", "client", clientID)

	defer func() {
		o.clients.Delete(clientID)
		conn.CloseNow()
		slog.Debug("dashboard client disconnected", "client", clientID)
	}()

	// Late joiners get the latest snapshot right away.
	o.mu.Lock()
	latest := o.latest
	o.mu.Unlock()
	if latest != nil {
		wctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
		err := conn.Write(wctx, websocket.MessageText, latest)
		cancel()
		if err != nil {
			return
		}
	}

	// The dashboard is read-only; the loop only detects disconnects.
	for {
		if _, _, err := conn.Read(r.Context()); err != nil {
			return
		}
	}
}
