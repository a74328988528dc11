package server

import (
	"encoding/json"
	"net/http"
	"time"

	"trading-simulator/src/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// Feed Hub
// -----------------------------------------------------------------------------

// runFeed is the hub loop. One recurring ticker drives the simulator and the
// fan-out; subscription changes and control messages are serialized through
// the same select, so the simulator never sees a concurrent mutation.
func (s *Server) runFeed(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			for client := range s.clients {
				delete(s.clients, client)
				close(client.send)
			}
			return

		case client := <-s.register:
			s.clients[client] = struct{}{}
			s.clientCount.Store(int64(len(s.clients)))

			// Send the latest tick on connect so new subscribers don't
			// wait a full interval for their first price.
			s.stateMutex.RLock()
			if s.lastTick.Timestamp != 0 {
				select {
				case client.send <- s.lastTick:
				default:
				}
			}
			s.stateMutex.RUnlock()

		case client := <-s.unregister:
			// Disconnect may be reported more than once per client.
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				close(client.send)
			}
			s.clientCount.Store(int64(len(s.clients)))

		case msg := <-s.control:
			if msg.Type != "change_symbol" || msg.Symbol == "" {
				// Unrecognized shapes are dropped, never fatal.
				s.DroppedMessages.Add(1)
				continue
			}
			s.Logger.Info("Switching feed to symbol: %s", msg.Symbol)
			s.sim.ChangeSymbol(msg.Symbol)

		case <-ticker.C:
			tick := s.sim.Advance()

			s.stateMutex.Lock()
			s.lastTick = tick
			s.stateMutex.Unlock()

			for client := range s.clients {
				select {
				case client.send <- tick:
					// Delivered
				default:
					// Subscriber not in a sendable state: skip this tick
					// for this subscriber only. Backpressure is handled by
					// dropping, never by buffering.
					s.SkippedSends.Add(1)
				}
			}
		}
	}
}

// -----------------------------------------------------------------------------
// WebSocket Handlers
// -----------------------------------------------------------------------------

func (s *Server) newUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			return s.originAllowed(origin)
		},
	}
}

// -----------------------------------------------------------------------------

func (s *Server) handleWebSocket(c *gin.Context) {
	upgrader := s.newUpgrader()
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	client := &FeedClient{
		hub:  s,
		conn: conn,
		// Buffered channel so a slow reader never blocks the hub loop
		send: make(chan models.MTick, 16),
	}

	select {
	case s.register <- client:
	case <-s.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// -----------------------------------------------------------------------------
// Client Message Handling
// -----------------------------------------------------------------------------

func (s *Server) handleClientMessage(message []byte) {
	var msg models.MControlMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		// A malformed message from one client must not affect others, and
		// must not close its own connection either.
		s.Logger.Warning("Dropping malformed feed message: %v", err)
		s.DroppedMessages.Add(1)
		return
	}

	select {
	case s.control <- msg:
	default:
		s.DroppedMessages.Add(1)
	}
}
