package hub

import (
	"encoding/json"
	"sync"

	"github.com/sasineelakandan/chatkaro-Entegation-Task/internal/config"
	"github.com/sasineelakandan/chatkaro-Entegation-Task/pkg/log"
)

// Hub is the room-scoped half of the event channel: it tracks which
// connections are joined to which rooms and fans events out to them.
// All broadcasts for a room are drained by a single Run loop, so each
// subscriber observes them in emission order. Delivery is at-most-once;
// a subscriber whose send buffer is full is evicted, not retried.
type Hub struct {
	clients    map[string]*Client            // connID -> client
	rooms      map[string]map[string]*Client // roomID -> connID -> client
	register   chan *Client
	unregister chan *Client
	broadcast  chan *outbound
	mu         sync.RWMutex
	config     config.WebSocketConfig
}

type outbound struct {
	RoomID  string // empty means broadcast to every connected client
	Message []byte
	Exclude string // conn ID to exclude
}

func NewHub(cfg config.WebSocketConfig) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		rooms:      make(map[string]map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *outbound, 256),
		config:     cfg,
	}
}

func (h *Hub) Run() {
	l := log.L()
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
			l.Debug().Str(log.FieldConnID, client.ID).Msg("client registered")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				for roomID, members := range h.rooms {
					delete(members, client.ID)
					if len(members) == 0 {
						delete(h.rooms, roomID)
					}
				}
				delete(h.clients, client.ID)
				client.closeSend()
			}
			h.mu.Unlock()
			l.Debug().Str(log.FieldConnID, client.ID).Msg("client unregistered")

		case msg := <-h.broadcast:
			h.mu.RLock()
			targets := h.clients
			if msg.RoomID != "" {
				targets = h.rooms[msg.RoomID]
			}
			for connID, client := range targets {
				if connID == msg.Exclude {
					continue
				}
				select {
				case client.Send <- msg.Message:
				default:
					go h.removeClient(client)
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// JoinRoom adds a connection to a room's subscriber set. There is no
// explicit leave; membership is cleared when the connection unregisters.
func (h *Hub) JoinRoom(client *Client, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.rooms[roomID]; !ok {
		h.rooms[roomID] = make(map[string]*Client)
	}
	h.rooms[roomID][client.ID] = client
	client.State.JoinRoom(roomID)

	l := log.L()
	l.Info().Str(log.FieldConnID, client.ID).Str(log.FieldRoomID, roomID).Msg("client joined room")
}

// BroadcastToRoom queues an event for every connection joined to the room,
// optionally excluding one connection (used by the typing relay).
func (h *Hub) BroadcastToRoom(roomID string, message interface{}, exclude string) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	h.broadcast <- &outbound{
		RoomID:  roomID,
		Message: data,
		Exclude: exclude,
	}
	return nil
}

// BroadcastToAll queues an event for every connected client, regardless of
// room membership. Used for presence changes.
func (h *Hub) BroadcastToAll(message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	h.broadcast <- &outbound{Message: data}
	return nil
}

// RoomClientCount returns the number of connections joined to a room.
func (h *Hub) RoomClientCount(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if members, ok := h.rooms[roomID]; ok {
		return len(members)
	}
	return 0
}

func (h *Hub) removeClient(client *Client) {
	h.unregister <- client
}
