package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"

	"github.com/gocraft/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// wsContext is the gocraft/web context type for this router — stateless,
// mirroring alcamerone-pocket2s's own empty Context{}; the running Server
// is captured by closure in NewRouter rather than carried on the context,
// since there is exactly one session per process (spec §2).
type wsContext struct{}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handle is the bound HTTP surface of a running Server: a net.Listener
// already open on its real address plus the http.Server serving it. Spec
// §6.5 requires the chosen port to be queryable via the handle (so that an
// ephemeral BOARDGO_PORT=0 can still be advertised through the §6.6
// discovery identity) — Listen binds the net.Listener itself rather than
// letting http.Server.ListenAndServe open and discard one internally, so
// Port can report back whatever the OS actually chose.
type Handle struct {
	listener   net.Listener
	httpServer *http.Server
}

// Listen binds addr (host:port, port 0 for an OS-chosen ephemeral port) and
// builds the HTTP surface around it. The returned Handle is not yet
// serving; call Serve to start accepting connections.
func Listen(ctx context.Context, srv *Server, addr string) (*Handle, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	router := NewRouter(ctx, srv)
	return &Handle{
		listener:   listener,
		httpServer: &http.Server{Handler: router},
	}, nil
}

// Addr returns the listener's bound address, including the actual port the
// OS chose when the caller asked for port 0.
func (h *Handle) Addr() net.Addr {
	return h.listener.Addr()
}

// Port returns the TCP port the listener is bound to.
func (h *Handle) Port() int {
	if tcpAddr, ok := h.listener.Addr().(*net.TCPAddr); ok {
		return tcpAddr.Port
	}
	return 0
}

// Serve blocks, accepting connections on the bound listener, until Shutdown
// is called or the listener is closed. It returns http.ErrServerClosed on a
// clean shutdown, matching http.Server.ListenAndServe's contract.
func (h *Handle) Serve() error {
	return h.httpServer.Serve(h.listener)
}

// Shutdown gracefully stops the HTTP server, per http.Server.Shutdown.
func (h *Handle) Shutdown(ctx context.Context) error {
	return h.httpServer.Shutdown(ctx)
}

// NewRouter builds the HTTP surface of spec §6.8: the websocket upgrade
// endpoint plus the admin health and start routes, generalized from
// alcamerone-pocket2s's handleCreateRoom/handleConnect pair.
func NewRouter(ctx context.Context, srv *Server) *web.Router {
	router := web.New(wsContext{})
	router.Get("/healthz", func(c *wsContext, rw web.ResponseWriter, req *web.Request) {
		handleHealthz(rw, req)
	})
	router.Get("/ws", func(c *wsContext, rw web.ResponseWriter, req *web.Request) {
		handleWebSocket(ctx, srv, rw, req)
	})
	router.Post("/start", func(c *wsContext, rw web.ResponseWriter, req *web.Request) {
		handleStart(ctx, srv, rw, req)
	})
	return router
}

func handleHealthz(rw web.ResponseWriter, _ *web.Request) {
	rw.WriteHeader(http.StatusOK)
	_, _ = rw.Write([]byte(`{"status":"ok"}`))
}

func handleWebSocket(ctx context.Context, srv *Server, rw web.ResponseWriter, req *web.Request) {
	conn, err := wsUpgrader.Upgrade(rw, req.Request, nil)
	if err != nil {
		srv.log.Warn("failed to upgrade connection", zap.Error(err))
		return
	}
	ch := newConnHandler(srv, conn)
	go ch.readLoop(ctx)
}

type startRequest struct {
	PackID string `json:"packId"`
}

func handleStart(ctx context.Context, srv *Server, rw web.ResponseWriter, req *web.Request) {
	var body startRequest
	if req.Request != nil && req.Request.Body != nil {
		_ = json.NewDecoder(req.Request.Body).Decode(&body)
	}
	if err := srv.StartGame(ctx, body.PackID); err != nil {
		rw.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(rw).Encode(map[string]string{"error": err.Error()})
		return
	}
	rw.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(rw).Encode(map[string]bool{"started": true})
}
