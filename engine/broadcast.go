package engine

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"tradeforge/logger"
	"tradeforge/store"
)

// Broadcaster fans store.Snapshot reads out to attached dashboard/
// backtester websocket clients, one JSON message per tick. Grounded on
// yoghaf-market-indikator/internal/broadcast/server.go's Hub/Client
// register-unregister-broadcast loop, adapted from its MsgPack wire
// format to JSON (the retrieval pack carries no msgpack dependency) and
// from a single global Snapshot stream to a polling pull against
// store.Store.TakeSnapshot rather than a pushed channel, since the MSS
// (not the engine's own goroutine) is the one source of truth a
// dashboard client wants a consistent read of.
type Broadcaster struct {
	store    *store.Store
	interval time.Duration
	upgrader websocket.Upgrader

	register   chan *wsClient
	unregister chan *wsClient
}

// NewBroadcaster constructs a Broadcaster reading snapshots from st
// every interval.
func NewBroadcaster(st *store.Store, interval time.Duration) *Broadcaster {
	if interval <= 0 {
		interval = time.Second
	}
	return &Broadcaster{
		store:      st,
		interval:   interval,
		upgrader:   websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
	}
}

// Run drives the broadcast loop until the stop channel is closed or
// receives. It registers/unregisters clients and pushes one JSON-encoded
// store.Snapshot to every connected client each interval.
func (b *Broadcaster) Run(stop <-chan struct{}) {
	log := logger.Component("engine.broadcast")
	clients := make(map[*wsClient]bool)
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			for c := range clients {
				close(c.send)
			}
			return

		case c := <-b.register:
			clients[c] = true
			log.Debug().Int("clients", len(clients)).Msg("client connected")

		case c := <-b.unregister:
			if _, ok := clients[c]; ok {
				delete(clients, c)
				close(c.send)
				log.Debug().Int("clients", len(clients)).Msg("client disconnected")
			}

		case <-ticker.C:
			if len(clients) == 0 {
				continue
			}
			msg, err := json.Marshal(b.store.TakeSnapshot())
			if err != nil {
				log.Warn().Err(err).Msg("marshal snapshot")
				continue
			}
			for c := range clients {
				select {
				case c.send <- msg:
				default:
					// Slow client: drop this tick rather than block the
					// broadcast loop; it catches up next tick.
				}
			}
		}
	}
}

// ServeHTTP upgrades the request to a websocket and streams snapshots
// to it until the client disconnects.
func (b *Broadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Component("engine.broadcast").Warn().Err(err).Msg("upgrade")
		return
	}
	client := &wsClient{conn: conn, send: make(chan []byte, 32)}
	b.register <- client

	go client.writePump(b.unregister)
	client.readPump(b.unregister)
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

func (c *wsClient) readPump(unregister chan<- *wsClient) {
	defer func() {
		unregister <- c
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *wsClient) writePump(unregister chan<- *wsClient) {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			unregister <- c
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
