package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mcdev12/quizbuzz/go/internal/game"
	"github.com/rs/zerolog/log"
)

// RoomDirectory is what the gateway needs from the room manager.
type RoomDirectory interface {
	Submit(code, from string, intent game.Intent) error
	Get(code string) (*game.Room, error)
}

// ConnectionManager manages WebSocket connections per room and implements
// game.EventSink: rooms broadcast through it without knowing about sockets.
type ConnectionManager struct {
	rooms RoomDirectory

	// Connection pools organized by room code
	roomConnections map[string]map[*Connection]bool
	mu              sync.RWMutex

	upgrader websocket.Upgrader
	config   ConnectionConfig

	broadcastCh chan broadcastMessage
}

// Connection represents a WebSocket connection to one participant.
type Connection struct {
	ID        string
	RoomCode  string
	StudentID string
	Name      string
	IsHost    bool
	Conn      *websocket.Conn
	Send      chan []byte
	Manager   *ConnectionManager

	ConnectedAt time.Time
	LastPing    time.Time
}

// ConnectionConfig holds configuration for WebSocket connections.
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

type broadcastMessage struct {
	roomCode  string
	studentID string // if set, only deliver to this student
	event     game.Event
}

// DefaultConnectionConfig returns default WebSocket configuration.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  4096,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// Allow all origins in development - restrict in production
			return true
		},
	}
}

// NewConnectionManager creates a new WebSocket connection manager. SetRooms
// must be called before connections are accepted; the manager and the room
// directory reference each other, so one side binds late.
func NewConnectionManager(config ConnectionConfig) *ConnectionManager {
	return &ConnectionManager{
		roomConnections: make(map[string]map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		broadcastCh: make(chan broadcastMessage, 1000),
	}
}

// SetRooms binds the room directory intents are routed to.
func (cm *ConnectionManager) SetRooms(rooms RoomDirectory) {
	cm.rooms = rooms
}

// Start begins processing broadcast messages.
func (cm *ConnectionManager) Start(ctx context.Context) {
	log.Info().Msg("connection manager started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("connection manager shutting down")
			return
		case message := <-cm.broadcastCh:
			cm.handleBroadcast(message)
		}
	}
}

// Broadcast queues an event for every connection in a room. Implements
// game.EventSink.
func (cm *ConnectionManager) Broadcast(roomCode string, event game.Event) {
	select {
	case cm.broadcastCh <- broadcastMessage{roomCode: roomCode, event: event}:
	default:
		log.Warn().Str("room", roomCode).Msg("broadcast channel full, dropping message")
	}
}

// SendToStudent queues an event for one participant only. Implements
// game.EventSink.
func (cm *ConnectionManager) SendToStudent(roomCode, studentID string, event game.Event) {
	select {
	case cm.broadcastCh <- broadcastMessage{roomCode: roomCode, studentID: studentID, event: event}:
	default:
		log.Warn().
			Str("room", roomCode).
			Str("student", studentID).
			Msg("broadcast channel full, dropping message")
	}
}

// UpgradeConnection upgrades an HTTP request to a WebSocket connection bound
// to one room and participant, and joins them into the session.
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request, roomCode, studentID, name string, isHost bool) error {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to upgrade WebSocket connection")
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	connection := &Connection{
		ID:          uuid.New().String(),
		RoomCode:    roomCode,
		StudentID:   studentID,
		Name:        name,
		IsHost:      isHost,
		Conn:        conn,
		Send:        make(chan []byte, 256),
		Manager:     cm,
		ConnectedAt: time.Now(),
		LastPing:    time.Now(),
	}

	cm.registerConnection(connection)

	go connection.writePump()
	go connection.readPump()

	// Joining is itself an intent on the room queue, so a join can never
	// race a broadcast mid-processing.
	if err := cm.rooms.Submit(roomCode, studentID, game.JoinRoom{
		StudentID:   studentID,
		StudentName: name,
		IsHost:      isHost,
	}); err != nil {
		log.Warn().Err(err).Str("room", roomCode).Str("student", studentID).Msg("join intent rejected")
	}

	log.Info().
		Str("connection_id", connection.ID).
		Str("room", roomCode).
		Str("student", studentID).
		Bool("host", isHost).
		Msg("WebSocket connection established")
	return nil
}

func (cm *ConnectionManager) registerConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.roomConnections[conn.RoomCode] == nil {
		cm.roomConnections[conn.RoomCode] = make(map[*Connection]bool)
	}
	cm.roomConnections[conn.RoomCode][conn] = true

	log.Debug().
		Str("connection_id", conn.ID).
		Str("room", conn.RoomCode).
		Int("total_connections", len(cm.roomConnections[conn.RoomCode])).
		Msg("connection registered")
}

func (cm *ConnectionManager) unregisterConnection(conn *Connection) {
	cm.mu.Lock()
	wasRegistered := false
	hadOtherConn := false
	if connections, exists := cm.roomConnections[conn.RoomCode]; exists {
		if _, exists := connections[conn]; exists {
			wasRegistered = true
			delete(connections, conn)
			close(conn.Send)
			if len(connections) == 0 {
				delete(cm.roomConnections, conn.RoomCode)
			}
		}
		for other := range connections {
			if other.StudentID == conn.StudentID {
				hadOtherConn = true
				break
			}
		}
	}
	cm.mu.Unlock()

	// Both pumps unregister on the way out; only the first one through may
	// report the departure, and only once the participant's last connection
	// drops.
	if !wasRegistered {
		return
	}
	if !hadOtherConn {
		if err := cm.rooms.Submit(conn.RoomCode, conn.StudentID, game.LeaveRoom{
			StudentID: conn.StudentID,
			IsHost:    conn.IsHost,
		}); err != nil {
			log.Debug().Err(err).Str("room", conn.RoomCode).Msg("leave intent dropped")
		}
	}

	log.Info().
		Str("connection_id", conn.ID).
		Str("room", conn.RoomCode).
		Str("student", conn.StudentID).
		Msg("connection unregistered")
}

func (cm *ConnectionManager) handleBroadcast(message broadcastMessage) {
	cm.mu.RLock()
	connections, exists := cm.roomConnections[message.roomCode]
	if !exists {
		cm.mu.RUnlock()
		return
	}

	var targets []*Connection
	for conn := range connections {
		if message.studentID != "" && conn.StudentID != message.studentID {
			continue
		}
		targets = append(targets, conn)
	}
	cm.mu.RUnlock()

	eventData, err := json.Marshal(message.event)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal event for broadcast")
		return
	}

	for _, conn := range targets {
		select {
		case conn.Send <- eventData:
		default:
			log.Warn().
				Str("connection_id", conn.ID).
				Str("student", conn.StudentID).
				Msg("connection send buffer full, closing connection")
			cm.unregisterConnection(conn)
			conn.Conn.Close()
		}
	}

	log.Debug().
		Str("event_type", string(message.event.Type)).
		Str("room", message.roomCode).
		Int("connections", len(targets)).
		Msg("event broadcasted")
}

// GetConnectionStats returns statistics about active connections.
func (cm *ConnectionManager) GetConnectionStats() (totalConnections, activeRooms int) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	for _, connections := range cm.roomConnections {
		totalConnections += len(connections)
	}
	return totalConnections, len(cm.roomConnections)
}

// writePump handles sending messages to the WebSocket connection.
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
		c.Manager.unregisterConnection(c)
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to write message to WebSocket")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to send ping")
				return
			}
			c.LastPing = time.Now()
		}
	}
}

// readPump reads client intents and routes them onto the room queue.
func (c *Connection) readPump() {
	defer func() {
		c.Manager.unregisterConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
		c.LastPing = time.Now()
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("unexpected WebSocket close error")
			}
			break
		}
		c.handleClientMessage(message)
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	}
}

// intentEnvelope is the wire shape of an inbound client message.
type intentEnvelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func (c *Connection) handleClientMessage(message []byte) {
	var envelope intentEnvelope
	if err := json.Unmarshal(message, &envelope); err != nil {
		log.Debug().
			Err(err).
			Str("connection_id", c.ID).
			Msg("malformed client message dropped")
		return
	}

	intent, err := game.DecodeIntent(envelope.Type, envelope.Payload)
	if err != nil {
		log.Debug().
			Err(err).
			Str("connection_id", c.ID).
			Str("type", envelope.Type).
			Msg("undecodable intent dropped")
		return
	}

	// Identity is bound at connect time; a client cannot speak for anyone
	// else no matter what its payload claims.
	switch in := intent.(type) {
	case game.JoinRoom:
		in.StudentID = c.StudentID
		in.StudentName = c.Name
		in.IsHost = c.IsHost
		intent = in
	case game.BuzzIn:
		in.StudentID = c.StudentID
		intent = in
	case game.SubmitAnswer:
		in.StudentID = c.StudentID
		intent = in
	case game.LeaveRoom:
		in.StudentID = c.StudentID
		in.IsHost = c.IsHost
		intent = in
	}

	if err := c.Manager.rooms.Submit(c.RoomCode, c.StudentID, intent); err != nil {
		log.Debug().
			Err(err).
			Str("connection_id", c.ID).
			Str("type", envelope.Type).
			Msg("intent not deliverable")
	}
}
