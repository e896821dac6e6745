package signaling

import (
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/junsooki/webpane/internal/logging"
)

// Server relays signaling messages between registered hosts and viewers.
type Server struct {
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu      sync.Mutex
	clients map[string]*serverConn
}

type serverConn struct {
	id     string
	kind   string
	width  int
	height int
	conn   *websocket.Conn
	wmu    sync.Mutex
}

func (c *serverConn) write(msg Message) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteJSON(msg)
}

// NewServer creates a signaling server. A nil logger keeps it silent.
func NewServer(logger *slog.Logger) *Server {
	return &Server{
		logger:  logging.OrNop(logger),
		clients: make(map[string]*serverConn),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}
}

// Hosts returns the registered hosts sorted by ID.
func (s *Server) Hosts() []HostInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hostsLocked()
}

func (s *Server) hostsLocked() []HostInfo {
	hosts := make([]HostInfo, 0, len(s.clients))
	for _, c := range s.clients {
		if c.kind == ClientTypeHost {
			hosts = append(hosts, HostInfo{ID: c.id, Online: true, Width: c.width, Height: c.height})
		}
	}
	slices.SortFunc(hosts, func(a, b HostInfo) int { return strings.Compare(a.ID, b.ID) })
	return hosts
}

// ServeHTTP upgrades the request and serves one client until it disconnects.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("signaling upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}
	defer conn.Close()

	c, err := s.register(conn)
	if err != nil {
		s.logger.Info("signaling registration rejected", "remote", r.RemoteAddr, "err", err)
		_ = conn.WriteJSON(Message{Type: TypeError, Msg: err.Error()})
		return
	}
	defer s.unregister(c)

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("signaling read ended", "id", c.id, "err", err)
			}
			return
		}
		s.handle(c, msg)
	}
}

func (s *Server) register(conn *websocket.Conn) (*serverConn, error) {
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		return nil, fmt.Errorf("read register: %w", err)
	}
	if msg.Type != TypeRegister {
		return nil, fmt.Errorf("expected %q, got %q", TypeRegister, msg.Type)
	}
	if msg.ID == "" {
		return nil, fmt.Errorf("register without id")
	}
	if msg.ClientType != ClientTypeHost && msg.ClientType != ClientTypeViewer {
		return nil, fmt.Errorf("unknown client type %q", msg.ClientType)
	}

	c := &serverConn{id: msg.ID, kind: msg.ClientType, conn: conn}
	if c.kind == ClientTypeHost && msg.Width > 0 && msg.Height > 0 {
		c.width, c.height = msg.Width, msg.Height
	}

	s.mu.Lock()
	if _, exists := s.clients[c.id]; exists {
		s.mu.Unlock()
		return nil, fmt.Errorf("id %q already registered", c.id)
	}
	s.clients[c.id] = c
	s.mu.Unlock()

	s.logger.Info("signaling client registered", "id", c.id, "type", c.kind)
	if err := c.write(Message{Type: TypeRegistered, ID: c.id}); err != nil {
		s.unregister(c)
		return nil, fmt.Errorf("write registered: %w", err)
	}
	if c.kind == ClientTypeHost {
		s.broadcastHosts()
	}
	return c, nil
}

func (s *Server) unregister(c *serverConn) {
	s.mu.Lock()
	if s.clients[c.id] != c {
		s.mu.Unlock()
		return
	}
	delete(s.clients, c.id)
	s.mu.Unlock()

	s.logger.Info("signaling client left", "id", c.id, "type", c.kind)
	if c.kind == ClientTypeHost {
		s.toViewers(Message{Type: TypeHostDisconnected, HostID: c.id})
		s.broadcastHosts()
	}
}

func (s *Server) handle(c *serverConn, msg Message) {
	switch msg.Type {
	case TypeListHosts:
		_ = c.write(Message{Type: TypeHosts, List: s.Hosts()})
	case TypeOffer, TypeAnswer, TypeICECandidate:
		s.forward(c, msg)
	case TypePing:
		_ = c.write(Message{Type: TypePong, Timestamp: time.Now().UnixMilli()})
	default:
		_ = c.write(Message{Type: TypeError, Msg: fmt.Sprintf("unknown message type %q", msg.Type)})
	}
}

func (s *Server) forward(from *serverConn, msg Message) {
	s.mu.Lock()
	target := s.clients[msg.Target]
	s.mu.Unlock()

	if target == nil {
		_ = from.write(Message{Type: TypeError, Msg: fmt.Sprintf("unknown target %q", msg.Target)})
		return
	}
	msg.From = from.id
	if err := target.write(msg); err != nil {
		s.logger.Warn("signaling forward failed", "from", from.id, "to", target.id, "type", msg.Type, "err", err)
	}
}

func (s *Server) broadcastHosts() {
	s.mu.Lock()
	hosts := s.hostsLocked()
	s.mu.Unlock()
	s.toViewers(Message{Type: TypeHostsUpdated, List: hosts})
}

func (s *Server) toViewers(msg Message) {
	s.mu.Lock()
	viewers := make([]*serverConn, 0, len(s.clients))
	for _, c := range s.clients {
		if c.kind == ClientTypeViewer {
			viewers = append(viewers, c)
		}
	}
	s.mu.Unlock()

	for _, v := range viewers {
		_ = v.write(msg)
	}
}

// Close disconnects every client.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.clients {
		c.conn.Close()
	}
}
