// internal/ws/hub.go
package ws

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"junketops-service/internal/domain/event"
	"junketops-service/internal/pkg/jwt"
)

// Hub fans report lifecycle events out to connected dashboard viewers.
// Clients are grouped by identity so one user's tabs share a bucket.
type Hub struct {
	clients map[int64]map[*Client]bool
	mu      sync.RWMutex

	Register   chan *Client
	unregister chan *Client

	broadcast chan *broadcastMessage

	verifier *jwt.Verifier
	logger   *zap.Logger
}

type broadcastMessage struct {
	// identityIDs nil means every connected client.
	identityIDs []int64
	channel     event.Channel
	message     *event.Message
}

func NewHub(verifier *jwt.Verifier, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients:    make(map[int64]map[*Client]bool),
		Register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *broadcastMessage, 256),
		verifier:   verifier,
		logger:     logger,
	}
}

// AuthenticateClient validates the bearer token and builds the client's
// identity for the lifetime of the connection.
func (h *Hub) AuthenticateClient(token string) (*ClientAuth, error) {
	claims, err := h.verifier.Verify(token)
	if err != nil {
		return nil, err
	}

	return &ClientAuth{
		IdentityID: claims.IdentityID,
		TokenID:    claims.ID,
		Roles:      claims.Roles,
		AgentID:    claims.AgentID,
		Device:     claims.Device,
	}, nil
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client.identityID] == nil {
		h.clients[client.identityID] = make(map[*Client]bool)
	}
	h.clients[client.identityID][client] = true

	h.logger.Info("websocket client connected",
		zap.Int64("identity_id", client.identityID),
		zap.String("device", client.device),
		zap.Int("total_clients", h.totalClients()))

	client.SendMessage(event.NewMessage(event.TypeConnected, map[string]any{
		"identity_id": client.identityID,
		"roles":       client.roles,
		"agent_id":    client.agentID,
	}))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.clients[client.identityID]; ok {
		if _, exists := clients[client]; exists {
			delete(clients, client)
			client.Close()

			if len(clients) == 0 {
				delete(h.clients, client.identityID)
			}

			h.logger.Info("websocket client disconnected",
				zap.Int64("identity_id", client.identityID),
				zap.Int("total_clients", h.totalClients()))
		}
	}
}

func (h *Hub) deliver(msg *broadcastMessage) {
	data, err := msg.message.ToJSON()
	if err != nil {
		h.logger.Error("failed to marshal websocket message", zap.Error(err))
		return
	}

	// Collect clients whose queue is full and drop them after the read
	// lock is released; unregisterClient takes the write lock.
	var full []*Client
	fan := func(clients map[*Client]bool) {
		for client := range clients {
			if !client.IsSubscribed(msg.channel) {
				continue
			}
			if !client.trySend(data) {
				full = append(full, client)
			}
		}
	}

	h.mu.RLock()
	if msg.identityIDs == nil {
		for _, clients := range h.clients {
			fan(clients)
		}
	} else {
		for _, identityID := range msg.identityIDs {
			if clients, ok := h.clients[identityID]; ok {
				fan(clients)
			}
		}
	}
	h.mu.RUnlock()

	for _, client := range full {
		h.logger.Warn("dropping websocket client with full queue",
			zap.Int64("identity_id", client.identityID))
		h.unregisterClient(client)
	}
}

// BroadcastReportRefreshed tells every dashboard subscriber a fresh
// snapshot is available. Viewers refetch through the REST surface so
// each one receives its own scope.
func (h *Hub) BroadcastReportRefreshed(data event.RefreshedData) {
	h.broadcast <- &broadcastMessage{
		channel: event.ChannelDashboard,
		message: event.NewMessage(event.TypeReportRefreshed, data),
	}
}

// BroadcastTripUpdated tells trip subscribers one trip's figures moved.
func (h *Hub) BroadcastTripUpdated(tripID string) {
	h.broadcast <- &broadcastMessage{
		channel: event.ChannelTrips,
		message: event.NewMessage(event.TypeTripUpdated, event.TripUpdatedData{TripID: tripID}),
	}
}

// BroadcastSourceDegraded surfaces source-failure warnings on the
// system channel so operators see degradation without polling.
func (h *Hub) BroadcastSourceDegraded(warnings []string) {
	if len(warnings) == 0 {
		return
	}
	h.broadcast <- &broadcastMessage{
		channel: event.ChannelSystem,
		message: event.NewMessage(event.TypeSourceDegraded, event.DegradedData{Warnings: warnings}),
	}
}

func (h *Hub) TotalClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.totalClients()
}

func (h *Hub) totalClients() int {
	total := 0
	for _, clients := range h.clients {
		total += len(clients)
	}
	return total
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, clients := range h.clients {
		for client := range clients {
			client.Close()
		}
	}
	h.clients = make(map[int64]map[*Client]bool)
}
