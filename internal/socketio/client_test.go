//go:build integration

package socketio

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// hangUp makes fakeServer drop the connection instead of answering.
type hangUp struct{}

// fakeServer answers every socket.io-request with reply.
func fakeServer(t *testing.T, reply func(req Request) (interface{}, bool)) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/socket.io/" || r.URL.Query().Get("EIO") != "4" {
			http.NotFound(w, r)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var mu sync.Mutex
		send := func(frame []byte) {
			mu.Lock()
			defer mu.Unlock()
			conn.WriteMessage(websocket.TextMessage, frame)
		}

		send([]byte(`0{"sid":"e1","upgrades":[],"pingInterval":25000,"pingTimeout":20000}`))
		send([]byte("2"))
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			p, err := Parse(msg)
			if err != nil || p.Engine != EngineMessage {
				continue
			}
			switch p.Type {
			case Connect:
				send([]byte(`40{"sid":"s1"}`))
			case Disconnect:
				return
			case Event:
				req, err := DecodeRequest(p)
				if err != nil {
					continue
				}
				res, ok := reply(req)
				if !ok {
					continue
				}
				if _, ok := res.(hangUp); ok {
					return
				}
				ack, _ := NewAck(p.ID, res)
				send(ack.Encode())
			}
		}
	}))
}

func TestClient_Commit(t *testing.T) {
	var got Commit
	srv := fakeServer(t, func(req Request) (interface{}, bool) {
		switch req.Method {
		case "room:join":
			return map[string]interface{}{"data": map[string]bool{"success": true}}, true
		case "commit":
			json.Unmarshal(req.Data, &got)
			return map[string]interface{}{"data": map[string]string{"commitId": "c2"}}, true
		}
		return nil, false
	})
	defer srv.Close()

	c, err := Dial(context.Background(), Options{Host: srv.URL})
	if err != nil {
		t.Fatalf("failed to dial: %v", err)
	}
	defer c.Close()

	if err := c.JoinRoom(context.Background(), "p1", "pg1"); err != nil {
		t.Fatalf("failed to join: %v", err)
	}
	id, err := c.Commit(context.Background(), Commit{ParentID: "c1", ProjectID: "p1", PageID: "pg1", UserID: "u1"})
	if err != nil {
		t.Fatalf("failed to commit: %v", err)
	}
	if id != "c2" {
		t.Errorf("expected commit id c2, got %s", id)
	}
	if got.Kind != "page" || !got.Freeze || got.ParentID != "c1" {
		t.Errorf("unexpected commit payload %+v", got)
	}
}

func TestClient_ServerError(t *testing.T) {
	srv := fakeServer(t, func(req Request) (interface{}, bool) {
		return map[string]interface{}{"error": map[string]string{"name": "NotFastForwardError", "message": "stale"}}, true
	})
	defer srv.Close()

	c, err := Dial(context.Background(), Options{Host: srv.URL})
	if err != nil {
		t.Fatalf("failed to dial: %v", err)
	}
	defer c.Close()

	_, err = c.Commit(context.Background(), Commit{})
	var sioErr *Error
	if !errors.As(err, &sioErr) || sioErr.Name != "NotFastForwardError" {
		t.Errorf("expected NotFastForwardError, got %v", err)
	}
}

func TestClient_Timeout(t *testing.T) {
	srv := fakeServer(t, func(req Request) (interface{}, bool) { return nil, false })
	defer srv.Close()

	c, err := Dial(context.Background(), Options{Host: srv.URL, Timeout: 50 * time.Millisecond})
	if err != nil {
		t.Fatalf("failed to dial: %v", err)
	}
	defer c.Close()

	_, err = c.Request(context.Background(), "commit", nil)
	var sioErr *Error
	if !errors.As(err, &sioErr) || sioErr.Name != TimeoutError {
		t.Errorf("expected a TimeoutError, got %v", err)
	}
}

func TestClient_ServerDisconnect(t *testing.T) {
	srv := fakeServer(t, func(req Request) (interface{}, bool) { return hangUp{}, true })
	defer srv.Close()

	c, err := Dial(context.Background(), Options{Host: srv.URL})
	if err != nil {
		t.Fatalf("failed to dial: %v", err)
	}
	defer c.Close()

	_, err = c.Request(context.Background(), "commit", nil)
	var sioErr *Error
	if !errors.As(err, &sioErr) || sioErr.Name != SocketIOServerDisconnectError {
		t.Errorf("expected a SocketIOServerDisconnectError, got %v", err)
	}
}

func TestClient_CloseFailsPending(t *testing.T) {
	srv := fakeServer(t, func(req Request) (interface{}, bool) { return nil, false })
	defer srv.Close()

	c, err := Dial(context.Background(), Options{Host: srv.URL})
	if err != nil {
		t.Fatalf("failed to dial: %v", err)
	}

	errc := make(chan error, 1)
	go func() {
		_, err := c.Request(context.Background(), "commit", nil)
		errc <- err
	}()

	deadline := time.Now().Add(2 * time.Second)
	for {
		c.mu.Lock()
		n := len(c.pending)
		c.mu.Unlock()
		if n > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("request never became pending")
		}
		time.Sleep(5 * time.Millisecond)
	}
	c.Close()

	var sioErr *Error
	select {
	case err := <-errc:
		if !errors.As(err, &sioErr) || sioErr.Name != SocketIOError {
			t.Errorf("expected a SocketIOError, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("pending request was not failed by Close")
	}

	_, err = c.Request(context.Background(), "commit", nil)
	if !errors.As(err, &sioErr) || sioErr.Name != SocketIOError {
		t.Errorf("expected a SocketIOError after Close, got %v", err)
	}
}
