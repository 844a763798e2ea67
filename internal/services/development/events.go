package development

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/tactility/internal/infrastructure/logging"
	"github.com/GriffinCanCode/tactility/internal/shared/id"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // development tooling runs on arbitrary origins
	},
}

// eventStream forwards loader events to WebSocket clients
type eventStream struct {
	deps   Deps
	logger *logging.Logger

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{} // Protected by mu
}

func newEventStream(deps Deps, logger *logging.Logger) *eventStream {
	return &eventStream{
		deps:   deps,
		logger: logger,
		conns:  make(map[*websocket.Conn]struct{}),
	}
}

func (e *eventStream) track(conn *websocket.Conn) {
	e.mu.Lock()
	e.conns[conn] = struct{}{}
	e.mu.Unlock()
}

func (e *eventStream) untrack(conn *websocket.Conn) {
	e.mu.Lock()
	delete(e.conns, conn)
	e.mu.Unlock()
}

// closeAll ends every open stream. http.Server.Shutdown does not track
// hijacked connections.
func (e *eventStream) closeAll() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	for conn := range e.conns {
		e.close(conn)
		conn.Close()
	}
	return len(e.conns)
}

func (e *eventStream) handle(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		e.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	e.track(conn)
	defer e.untrack(conn)

	connID := id.NewConnectionID()
	log := e.logger.With(zap.String("conn", connID.String()))
	e.deps.Metrics.IncWSConnections()
	defer e.deps.Metrics.DecWSConnections()
	log.Info("event stream connected")

	events, unsubscribe := e.deps.Loader.Stack().Events().Subscribe()
	defer unsubscribe()

	// The reader only handles control frames and notices the client going away
	closed := make(chan struct{})
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := e.send(conn, gin.H{"type": "hello", "stack": e.deps.Loader.Stack().Snapshot()}); err != nil {
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			log.Info("event stream disconnected")
			return
		case ev, ok := <-events:
			if !ok {
				e.close(conn)
				return
			}
			if err := e.send(conn, ev); err != nil {
				log.Debug("event stream write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (e *eventStream) send(conn *websocket.Conn, v any) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}

func (e *eventStream) close(conn *websocket.Conn) {
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "loader stopped")
	conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}
