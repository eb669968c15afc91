package network

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/cbodonnell/tether/pkg/log"
	"github.com/cbodonnell/tether/pkg/messages"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

// WSServer represents a WebSocket server.
type WSServer struct {
	port int
	tls  *TLSConfig
	path string
}

type TLSConfig struct {
	CertFile string
	KeyFile  string
}

type NewWSServerOptions struct {
	Port int
	TLS  *TLSConfig
	// Path is the route connections are upgraded on. Defaults to "/ws".
	Path string
}

// NewWSServer creates a new WebSocket server.
func NewWSServer(opts NewWSServerOptions) *WSServer {
	path := opts.Path
	if path == "" {
		path = "/ws"
	}
	return &WSServer{
		port: opts.Port,
		tls:  opts.TLS,
		path: path,
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ConnectionHandler receives the events of one connection. OnMessage is
// called from the connection's read loop, so messages of a connection are
// handled in order.
type ConnectionHandler interface {
	OnConnect(conn *websocket.Conn) (uint32, error)
	OnMessage(ctx context.Context, peerID uint32, message *messages.Message)
	OnDisconnect(peerID uint32)
}

// Handler returns the HTTP handler upgrading connections on the server path.
func (s *WSServer) Handler(ctx context.Context, handler ConnectionHandler) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc(s.path, func(w http.ResponseWriter, req *http.Request) {
		conn, err := upgrader.Upgrade(w, req, nil)
		if err != nil {
			log.Error("Failed to upgrade to WebSocket: %v", err)
			return
		}
		log.Debug("New WebSocket connection from %s", conn.RemoteAddr().String())
		go s.handleWSConnection(ctx, conn, handler)
	})
	return r
}

// Start starts the WebSocket server.
func (s *WSServer) Start(ctx context.Context, handler ConnectionHandler) {
	addr := fmt.Sprintf(":%d", s.port)
	server := &http.Server{Addr: addr, Handler: s.Handler(ctx, handler)}

	go func() {
		<-ctx.Done()
		server.Shutdown(context.Background())
	}()

	var listenAndServe func() error
	if s.tls != nil {
		log.Info("WebSocket server listening on %s%s with TLS", addr, s.path)
		listenAndServe = func() error {
			return server.ListenAndServeTLS(s.tls.CertFile, s.tls.KeyFile)
		}
	} else {
		log.Info("WebSocket server listening on %s%s", addr, s.path)
		listenAndServe = server.ListenAndServe
	}
	if err := listenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			log.Info("WebSocket server closed")
			return
		}
		log.Error("WebSocket server error: %v", err)
	}
}

// handleWSConnection handles a WebSocket connection.
func (s *WSServer) handleWSConnection(ctx context.Context, conn *websocket.Conn, handler ConnectionHandler) {
	conn.SetReadLimit(messages.MessageBufferSize)
	peerID, err := handler.OnConnect(conn)
	if err != nil {
		log.Error("Failed to register connection from %s: %v", conn.RemoteAddr().String(), err)
		conn.Close()
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		handler.OnDisconnect(peerID)
		conn.Close()
	}()

	go func() {
		// unblock the read loop on shutdown
		<-ctx.Done()
		conn.Close()
	}()

	for {
		message, err := ReadMessageFromWS(conn)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Error("Error reading WebSocket message from %s: %v", conn.RemoteAddr().String(), err)
			}
			log.Trace("Connection closed for %s", conn.RemoteAddr().String())
			return
		}

		handler.OnMessage(ctx, peerID, message)
	}
}

// WriteMessageToWS writes a Message to a WebSocket connection
func WriteMessageToWS(conn *websocket.Conn, msg *messages.Message) error {
	b, err := messages.SerializeMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to serialize message: %v", err)
	}

	if err := conn.WriteMessage(websocket.BinaryMessage, b); err != nil {
		return fmt.Errorf("failed to write message to WebSocket connection: %v", err)
	}

	return nil
}

// ReadMessageFromWS reads a Message from a WebSocket connection
func ReadMessageFromWS(conn *websocket.Conn) (*messages.Message, error) {
	_, message, err := conn.ReadMessage()
	if err != nil {
		return nil, err
	}

	msg, err := messages.DeserializeMessage(message)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize message: %v", err)
	}

	return msg, nil
}
