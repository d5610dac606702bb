package realtime

import (
	"context"
	"net/http"
	"sync"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/karanveer09/unilink/backend/internal/models"
)

// Event is the wire envelope pushed to live connections.
type Event struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// conn is the subset of *websocket.Conn the hub uses.
type conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// lockedConn serializes writes to one connection. gorilla/websocket allows
// at most one concurrent writer per conn, and two requests pushing to the
// same user can race.
type lockedConn struct {
	mu sync.Mutex
	c  conn
}

func (l *lockedConn) WriteJSON(v interface{}) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.c.WriteJSON(v)
}

func (l *lockedConn) Close() error { return l.c.Close() }

// Hub tracks live websocket connections per user and implements
// services.Notifier. A user may hold several connections (multiple devices);
// an event is written to all of them.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]map[string]conn
	log   *logrus.Logger
}

func NewHub(log *logrus.Logger) *Hub {
	return &Hub{conns: make(map[string]map[string]conn), log: log}
}

// Register attaches a connection for a user and returns its connection id.
func (h *Hub) Register(userID string, c conn) string {
	connID := uuid.NewString()
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns[userID] == nil {
		h.conns[userID] = make(map[string]conn)
	}
	h.conns[userID][connID] = &lockedConn{c: c}
	return connID
}

// Unregister detaches a connection. Closing the conn is the caller's job.
func (h *Hub) Unregister(userID, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns[userID], connID)
	if len(h.conns[userID]) == 0 {
		delete(h.conns, userID)
	}
}

// ConnectionCount reports the number of live connections for a user.
func (h *Hub) ConnectionCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID])
}

// NotifyUser writes the event to each of the user's live connections. A user
// with no connections is a silent success. Write failures drop the broken
// connection and are reported to the caller, who logs and moves on.
func (h *Hub) NotifyUser(ctx context.Context, userID, event string, payload interface{}) error {
	h.mu.RLock()
	targets := make(map[string]conn, len(h.conns[userID]))
	for id, c := range h.conns[userID] {
		targets[id] = c
	}
	h.mu.RUnlock()

	var firstErr error
	for connID, c := range targets {
		if err := c.WriteJSON(Event{Event: event, Data: payload}); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			c.Close()
			h.Unregister(userID, connID)
		}
	}
	return firstErr
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWS upgrades the request to a websocket and attaches it to the hub.
// Browsers cannot set headers on websocket requests, so the bearer token
// arrives as a "token" query parameter.
func (h *Hub) ServeWS(jwtSecret string) echo.HandlerFunc {
	return func(c echo.Context) error {
		tokenString := c.QueryParam("token")
		if tokenString == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "Missing token")
		}

		claims := &models.JwtCustomClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, echo.NewHTTPError(http.StatusUnauthorized, "Unexpected signing method")
			}
			return []byte(jwtSecret), nil
		})
		if err != nil || !token.Valid || claims.UserID == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
		}

		ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			return err
		}

		connID := h.Register(claims.UserID, ws)
		h.log.WithFields(logrus.Fields{"user_id": claims.UserID, "conn_id": connID}).
			Info("websocket connected")

		defer func() {
			h.Unregister(claims.UserID, connID)
			ws.Close()
			h.log.WithFields(logrus.Fields{"user_id": claims.UserID, "conn_id": connID}).
				Info("websocket disconnected")
		}()

		// Drain the read side until the client goes away; the server only
		// writes on this channel.
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return nil
			}
		}
	}
}
