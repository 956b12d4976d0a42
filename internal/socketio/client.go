package socketio

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go-cosense/internal/logger"

	"github.com/gorilla/websocket"
)

const (
	defaultTimeout   = 90 * time.Second
	handshakeTimeout = 10 * time.Second
	writeTimeout     = 10 * time.Second
)

// Options configures Dial.
type Options struct {
	// Host is the Cosense base URL, e.g. "https://scrapbox.io".
	Host string
	// SID is the connect.sid session cookie.
	SID string
	// Timeout bounds each request. Zero means 90 seconds.
	Timeout time.Duration
	Logger  logger.Logger
	Dialer  *websocket.Dialer
}

type result struct {
	data json.RawMessage
	err  error
}

// Client is a socket.io connection. Requests may be issued concurrently;
// their acknowledgements are matched by id.
type Client struct {
	conn    *websocket.Conn
	log     logger.Logger
	timeout time.Duration

	writeMu sync.Mutex

	mu      sync.Mutex
	nextID  int
	pending map[int]chan result
	closing bool
	// closed is set by Close; the other closing paths are the server's.
	closed bool
	done   chan struct{}
}

// SocketURL turns a host into its engine.io websocket endpoint.
func SocketURL(host string) (string, error) {
	u, err := url.Parse(strings.TrimRight(host, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid host %q: %w", host, err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	}
	u.Path += "/socket.io/"
	u.RawQuery = "EIO=4&transport=websocket"
	return u.String(), nil
}

// Dial connects to the host's socket.io endpoint and completes the
// engine.io and socket.io handshakes.
func Dial(ctx context.Context, opts Options) (*Client, error) {
	endpoint, err := SocketURL(opts.Host)
	if err != nil {
		return nil, err
	}
	dialer := opts.Dialer
	if dialer == nil {
		dialer = &websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	header := http.Header{}
	if opts.SID != "" {
		header.Set("Cookie", (&http.Cookie{Name: "connect.sid", Value: opts.SID}).String())
	}

	conn, _, err := dialer.DialContext(ctx, endpoint, header)
	if err != nil {
		return nil, newError(SocketIOError, "failed to dial %s: %v", endpoint, err)
	}

	success := false
	defer func() {
		if !success {
			conn.Close()
		}
	}()

	conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	open, err := readPacket(conn)
	if err != nil {
		return nil, newError(SocketIOError, "failed to read open packet: %v", err)
	}
	if open.Engine != EngineOpen {
		return nil, newError(SocketIOError, "expected an open packet, got %q", open.Encode())
	}

	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, Packet{Engine: EngineMessage, Type: Connect, ID: -1}.Encode()); err != nil {
		return nil, newError(SocketIOError, "failed to connect namespace: %v", err)
	}
	for {
		p, err := readPacket(conn)
		if err != nil {
			return nil, newError(SocketIOError, "failed to read connect packet: %v", err)
		}
		if p.Engine == EnginePing {
			if err := conn.WriteMessage(websocket.TextMessage, []byte{EnginePong}); err != nil {
				return nil, newError(SocketIOError, "failed to pong: %v", err)
			}
			continue
		}
		if p.Engine == EngineMessage && p.Type == Connect {
			break
		}
		if p.Engine == EngineMessage && p.Type == ConnectError {
			return nil, newError(SocketIOError, "connection refused: %s", p.Data)
		}
		return nil, newError(SocketIOError, "unexpected packet during handshake: %q", p.Encode())
	}
	conn.SetReadDeadline(time.Time{})
	conn.SetWriteDeadline(time.Time{})
	success = true

	c := &Client{
		conn:    conn,
		log:     log.With(map[string]interface{}{"component": "socketio"}),
		timeout: timeout,
		pending: make(map[int]chan result),
		done:    make(chan struct{}),
	}
	c.log.Debug("connected to " + endpoint)
	go c.readLoop()
	return c, nil
}

func readPacket(conn *websocket.Conn) (Packet, error) {
	messageType, message, err := conn.ReadMessage()
	if err != nil {
		return Packet{}, err
	}
	if messageType != websocket.TextMessage {
		return Packet{}, fmt.Errorf("unexpected message type %d", messageType)
	}
	return Parse(message)
}

func (c *Client) write(frame []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, frame)
}

func (c *Client) readLoop() {
	defer close(c.done)
	for {
		p, err := readPacket(c.conn)
		if err != nil {
			c.failPending(err)
			return
		}
		switch p.Engine {
		case EnginePing:
			if err := c.write([]byte{EnginePong}); err != nil {
				c.log.Error(err, "failed to answer ping")
			}
		case EngineClose:
			c.failPending(fmt.Errorf("server closed the engine"))
			return
		case EngineMessage:
			switch p.Type {
			case Ack:
				c.resolve(p)
			case Disconnect:
				c.failPending(fmt.Errorf("server disconnected the namespace"))
				return
			case Event:
				c.log.Debug("ignoring event " + string(p.Data))
			}
		}
	}
}

func (c *Client) resolve(p Packet) {
	c.mu.Lock()
	ch, ok := c.pending[p.ID]
	delete(c.pending, p.ID)
	c.mu.Unlock()
	if !ok {
		c.log.Warn(fmt.Sprintf("ack %d has no pending request", p.ID))
		return
	}

	var args []Response
	if err := json.Unmarshal(p.Data, &args); err != nil || len(args) == 0 {
		ch <- result{err: &Error{Name: UnexpectedRequestError, Message: "malformed ack", Raw: p.Data}}
		return
	}
	res := args[0]
	switch {
	case len(res.Error) > 0 && string(res.Error) != "null":
		ch <- result{err: serverError(res.Error)}
	case len(res.Data) > 0:
		ch <- result{data: res.Data}
	default:
		ch <- result{err: &Error{Name: UnexpectedRequestError, Message: "ack without data", Raw: p.Data}}
	}
}

func (c *Client) failPending(cause error) {
	c.mu.Lock()
	closing := c.closing
	name := c.closedName()
	pending := c.pending
	c.pending = make(map[int]chan result)
	c.closing = true
	c.mu.Unlock()

	if !closing {
		c.log.Warn("disconnected: " + cause.Error())
	}
	for _, ch := range pending {
		ch <- result{err: newError(name, "%v", cause)}
	}
}

// closedName names the error for requests cut off by a closed connection.
// c.mu must be held.
func (c *Client) closedName() string {
	if c.closed {
		return SocketIOError
	}
	return SocketIOServerDisconnectError
}

// Request emits a socket.io-request and waits for its acknowledgement. The
// returned error is an *Error unless ctx ends first.
func (c *Client) Request(ctx context.Context, method string, data interface{}) (json.RawMessage, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s request: %w", method, err)
	}

	ch := make(chan result, 1)
	c.mu.Lock()
	if c.closing {
		name := c.closedName()
		c.mu.Unlock()
		return nil, newError(name, "connection is closed")
	}
	id := c.nextID
	c.nextID++
	c.pending[id] = ch
	c.mu.Unlock()

	forget := func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}

	p, err := NewEvent(id, RequestEvent, Request{Method: method, Data: payload})
	if err != nil {
		forget()
		return nil, err
	}
	if err := c.write(p.Encode()); err != nil {
		forget()
		return nil, newError(SocketIOError, "failed to emit %s: %v", method, err)
	}

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()
	select {
	case res := <-ch:
		return res.data, res.err
	case <-timer.C:
		forget()
		return nil, newError(TimeoutError, "%s got no response in %s", method, c.timeout)
	case <-ctx.Done():
		forget()
		return nil, ctx.Err()
	}
}

// JoinRoom subscribes the connection to a page before committing to it.
func (c *Client) JoinRoom(ctx context.Context, projectID, pageID string) error {
	_, err := c.Request(ctx, "room:join", map[string]interface{}{
		"projectId":            projectID,
		"pageId":               pageID,
		"projectUpdatesStream": false,
	})
	return err
}

// Commit submits a changeset and returns the new head commit id.
func (c *Client) Commit(ctx context.Context, commit Commit) (string, error) {
	commit.Kind = "page"
	commit.Freeze = true
	raw, err := c.Request(ctx, "commit", commit)
	if err != nil {
		return "", err
	}
	var res struct {
		CommitID string `json:"commitId"`
	}
	if err := json.Unmarshal(raw, &res); err != nil || res.CommitID == "" {
		return "", &Error{Name: UnexpectedRequestError, Message: "commit ack without commitId", Raw: raw}
	}
	return res.CommitID, nil
}

// Close disconnects from the namespace and closes the websocket.
func (c *Client) Close() error {
	c.mu.Lock()
	already := c.closing
	c.closing = true
	c.closed = true
	c.mu.Unlock()
	if !already {
		_ = c.write(Packet{Engine: EngineMessage, Type: Disconnect, ID: -1}.Encode())
	}
	err := c.conn.Close()
	<-c.done
	return err
}
