package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/mcdev12/quizbuzz/go/internal/game"
	"github.com/mcdev12/quizbuzz/go/internal/game/rooms"
	"github.com/rs/zerolog/log"
)

// RoomService is what the HTTP surface needs from the room manager.
type RoomService interface {
	RoomDirectory
	CreateRoom(ctx context.Context, questionSetID string) (*game.Room, error)
}

// Handler exposes room creation and the WebSocket upgrade endpoint.
type Handler struct {
	rooms             RoomService
	connectionManager *ConnectionManager
}

// NewHandler creates a gateway handler.
func NewHandler(roomService RoomService, cm *ConnectionManager) *Handler {
	return &Handler{
		rooms:             roomService,
		connectionManager: cm,
	}
}

// HandleCreateRoom creates a room for a question set and returns its code.
func (h *Handler) HandleCreateRoom(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		QuestionSetID string `json:"question_set_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.QuestionSetID == "" {
		http.Error(w, "question_set_id is required", http.StatusBadRequest)
		return
	}

	room, err := h.rooms.CreateRoom(r.Context(), req.QuestionSetID)
	if err != nil {
		log.Error().Err(err).Str("question_set", req.QuestionSetID).Msg("failed to create room")
		http.Error(w, "failed to create room", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{"room_code": room.Code()})
}

// HandleRoomConnection upgrades a request to a WebSocket bound to one room.
// Identity comes from the query string; the identity provider upstream is
// trusted, the engine does not re-validate it.
func (h *Handler) HandleRoomConnection(w http.ResponseWriter, r *http.Request) {
	roomCode := rooms.NormalizeCode(r.URL.Query().Get("room"))
	if roomCode == "" {
		http.Error(w, "room is required", http.StatusBadRequest)
		return
	}
	studentID := r.URL.Query().Get("student_id")
	if studentID == "" {
		http.Error(w, "student_id is required", http.StatusBadRequest)
		return
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		name = studentID
	}
	isHost := r.URL.Query().Get("role") == "host"

	if _, err := h.rooms.Get(roomCode); err != nil {
		if errors.Is(err, game.ErrUnknownRoom) {
			http.Error(w, "unknown room", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to look up room", http.StatusInternalServerError)
		return
	}

	if err := h.connectionManager.UpgradeConnection(w, r, roomCode, studentID, name, isHost); err != nil {
		log.Error().
			Err(err).
			Str("room", roomCode).
			Str("student", studentID).
			Msg("failed to upgrade WebSocket connection")
	}
}

// HandleConnectionStats returns statistics about active connections.
func (h *Handler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	total, active := h.connectionManager.GetConnectionStats()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"total_connections":%d,"active_rooms":%d}`, total, active)
}

// RegisterRoutes registers gateway routes with an HTTP mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/rooms", h.HandleCreateRoom)
	mux.HandleFunc("/ws/room", h.HandleRoomConnection)
	mux.HandleFunc("/ws/stats", h.HandleConnectionStats)
}
