/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"bytes"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

const (
	liveSendBuffer = 8
	liveWriteWait  = 10 * time.Second
	livePongWait   = 60 * time.Second
	livePingPeriod = (livePongWait * 9) / 10
)

// Messages coming from clients
type liveFilterMessage struct {
	Type string `json:"type"` // "filter"
	Club string `json:"club"`
}

// Messages sent to clients
type liveRowsMessage struct {
	Type  string `json:"type"`  // "rows"
	Total int    `json:"total"` // participants before filtering
	Count int    `json:"count"` // rows after filtering
	Club  string `json:"club"`
	HTML  string `json:"html"` // rendered tbody contents
}

type liveClient struct {
	conn *websocket.Conn
	send chan liveRowsMessage
	club string
}

// liveHub pushes freshly rendered table bodies to every connected browser,
// each with its own club filter.
type liveHub struct {
	cfg     *Config
	mu      sync.Mutex
	clients map[*liveClient]struct{}
}

func newLiveHub(cfg *Config) *liveHub {
	return &liveHub{cfg: cfg, clients: make(map[*liveClient]struct{})}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

func rowsMessage(list *ParticipantsList, club string) (liveRowsMessage, error) {
	view := list.View(club)

	var buf bytes.Buffer
	if _, err := renderTemplate(&buf, "rows", view.Rows); err != nil {
		return liveRowsMessage{}, err
	}

	return liveRowsMessage{
		Type:  "rows",
		Total: view.Total,
		Count: len(view.Rows),
		Club:  club,
		HTML:  buf.String(),
	}, nil
}

func (h *liveHub) add(c *liveClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *liveHub) remove(c *liveClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// deliverLocked drops a client whose buffer is full instead of blocking.
func (h *liveHub) deliverLocked(c *liveClient, msg liveRowsMessage) {
	select {
	case c.send <- msg:
	default:
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *liveHub) deliver(c *liveClient, msg liveRowsMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; ok {
		h.deliverLocked(c, msg)
	}
}

func (h *liveHub) setFilter(c *liveClient, club string) {
	h.mu.Lock()
	c.club = club
	h.mu.Unlock()
}

func (h *liveHub) broadcast(list *ParticipantsList) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rendered := make(map[string]liveRowsMessage)

	for c := range h.clients {
		msg, ok := rendered[c.club]
		if !ok {
			var err error

			msg, err = rowsMessage(list, c.club)
			if err != nil {
				logf(h.cfg, "ERROR: Rendering live rows: %v", err)

				return
			}
			rendered[c.club] = msg
		}

		h.deliverLocked(c, msg)
	}
}

func (h *liveHub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.clients)
}

func (h *liveHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

func serveLive(cfg *Config, list *ParticipantsList) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logf(cfg, "ERROR: WebSocket upgrade from %s: %v", realIP(r), err)

			return
		}

		c := &liveClient{
			conn: conn,
			send: make(chan liveRowsMessage, liveSendBuffer),
			club: r.URL.Query().Get("club"),
		}

		list.live.add(c)

		logf(cfg, "LIVE: Client %s connected", realIP(r))

		go c.writePump()

		if msg, err := rowsMessage(list, c.club); err == nil {
			list.live.deliver(c, msg)
		}

		c.readPump(cfg, list)

		logf(cfg, "LIVE: Client %s disconnected", realIP(r))
	}
}

func (c *liveClient) readPump(cfg *Config, list *ParticipantsList) {
	defer list.live.remove(c)

	c.conn.SetReadLimit(4096)
	_ = c.conn.SetReadDeadline(time.Now().Add(livePongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(livePongWait))
	})

	for {
		var msg liveFilterMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		if msg.Type != "filter" {
			continue
		}

		list.live.setFilter(c, msg.Club)

		rows, err := rowsMessage(list, msg.Club)
		if err != nil {
			logf(cfg, "ERROR: Rendering live rows: %v", err)

			continue
		}

		list.live.deliver(c, rows)
	}
}

func (c *liveClient) writePump() {
	ticker := time.NewTicker(livePingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})

				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
