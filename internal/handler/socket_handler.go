package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go-cosense/internal/data"
	"go-cosense/internal/devserver"
	"go-cosense/internal/logger"
	"go-cosense/internal/middleware"
	"go-cosense/internal/socketio"

	"github.com/gorilla/websocket"
)

const pingInterval = 25 * time.Second

// SocketHandler serves socket.io connections that join rooms and commit
// changesets to the store.
type SocketHandler struct {
	store    *devserver.Store
	log      logger.Logger
	upgrader websocket.Upgrader
}

// NewSocketHandler creates a new SocketHandler.
func NewSocketHandler(store *devserver.Store, log logger.Logger) *SocketHandler {
	return &SocketHandler{
		store: store,
		log:   log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (h *SocketHandler) serveSocket(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	if r.URL.Query().Get("EIO") != "4" || r.URL.Query().Get("transport") != "websocket" {
		return &middleware.AppError{
			Error:   errors.New("unsupported transport"),
			Name:    "BadRequestError",
			Message: "Only engine.io v4 over websocket is supported.",
			Code:    http.StatusBadRequest,
		}
	}
	user := middleware.GetUserInfo(r.Context())

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader already answered the request.
		h.log.Error(err, "Failed to upgrade socket")
		return nil
	}
	defer conn.Close()

	sess := &socketSession{handler: h, conn: conn, user: user, done: make(chan struct{})}
	sess.serve()
	return nil
}

type socketSession struct {
	handler *SocketHandler
	conn    *websocket.Conn
	user    *middleware.UserInfo
	writeMu sync.Mutex
	done    chan struct{}
}

func (ss *socketSession) send(frame []byte) error {
	ss.writeMu.Lock()
	defer ss.writeMu.Unlock()
	return ss.conn.WriteMessage(websocket.TextMessage, frame)
}

func (ss *socketSession) serve() {
	defer close(ss.done)

	open, _ := json.Marshal(map[string]interface{}{
		"sid":          ss.handler.store.NewID(),
		"upgrades":     []string{},
		"pingInterval": pingInterval.Milliseconds(),
		"pingTimeout":  20000,
		"maxPayload":   1000000,
	})
	if err := ss.send(socketio.Packet{Engine: socketio.EngineOpen, Data: open}.Encode()); err != nil {
		return
	}
	go ss.heartbeat()

	for {
		_, message, err := ss.conn.ReadMessage()
		if err != nil {
			return
		}
		p, err := socketio.Parse(message)
		if err != nil {
			ss.handler.log.Warn("Dropping malformed frame: " + err.Error())
			continue
		}
		switch p.Engine {
		case socketio.EngineClose:
			return
		case socketio.EngineMessage:
		default:
			continue
		}

		switch p.Type {
		case socketio.Connect:
			sid, _ := json.Marshal(map[string]string{"sid": ss.handler.store.NewID()})
			if err := ss.send(socketio.Packet{Engine: socketio.EngineMessage, Type: socketio.Connect, ID: -1, Data: sid}.Encode()); err != nil {
				return
			}
		case socketio.Disconnect:
			return
		case socketio.Event:
			req, err := socketio.DecodeRequest(p)
			if err != nil {
				ss.handler.log.Warn("Ignoring event: " + err.Error())
				continue
			}
			if p.ID < 0 {
				continue
			}
			ack, err := socketio.NewAck(p.ID, ss.handle(req))
			if err != nil {
				ss.handler.log.Error(err, "Failed to encode ack")
				continue
			}
			if err := ss.send(ack.Encode()); err != nil {
				return
			}
		}
	}
}

func (ss *socketSession) heartbeat() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := ss.send([]byte{socketio.EnginePing}); err != nil {
				return
			}
		case <-ss.done:
			return
		}
	}
}

func errorResponse(name, format string, args ...interface{}) map[string]interface{} {
	return map[string]interface{}{
		"error": map[string]string{"name": name, "message": fmt.Sprintf(format, args...)},
	}
}

func (ss *socketSession) handle(req socketio.Request) map[string]interface{} {
	switch req.Method {
	case "room:join":
		return map[string]interface{}{"data": map[string]bool{"success": true}}
	case "commit":
		return ss.commit(req.Data)
	}
	return errorResponse("UnexpectedRequestError", "unknown method %q", req.Method)
}

func (ss *socketSession) commit(raw json.RawMessage) map[string]interface{} {
	if ss.user == nil {
		return errorResponse("NotLoggedInError", "commits need a session")
	}

	var payload struct {
		Kind      string          `json:"kind"`
		ParentID  string          `json:"parentId"`
		ProjectID string          `json:"projectId"`
		PageID    string          `json:"pageId"`
		UserID    string          `json:"userId"`
		Changes   json.RawMessage `json:"changes"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return errorResponse("InvalidChangesError", "malformed commit: %v", err)
	}
	if payload.Kind != "page" {
		return errorResponse("InvalidChangesError", "unsupported commit kind %q", payload.Kind)
	}
	changes, err := data.UnmarshalChanges(payload.Changes)
	if err != nil {
		return errorResponse("InvalidChangesError", "%v", err)
	}

	commitID, err := ss.handler.store.Commit(devserver.CommitRequest{
		ParentID:  payload.ParentID,
		ProjectID: payload.ProjectID,
		PageID:    payload.PageID,
		UserID:    payload.UserID,
		Changes:   changes,
	})
	var commitErr *devserver.CommitError
	if errors.As(err, &commitErr) {
		ss.handler.log.Debug("Rejected commit: " + commitErr.Error())
		return errorResponse(commitErr.Name, "%s", commitErr.Message)
	}
	if err != nil {
		return errorResponse("UnexpectedError", "%v", err)
	}
	ss.handler.log.Info(fmt.Sprintf("Committed %d changes to page %s as %s", len(changes), payload.PageID, commitID))
	return map[string]interface{}{"data": map[string]string{"commitId": commitID}}
}
