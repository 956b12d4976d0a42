package main

import (
	"context"
	"fmt"

	"go-cosense/internal/cache"
	"go-cosense/internal/data"
	"go-cosense/internal/service"
	"go-cosense/internal/socketio"
)

// app is the client stack shared by the commands.
type app struct {
	repo    *data.RESTPageRepository
	service *service.PageService
	store   *cache.Cache
	socket  *socketio.Client
}

// openRepo sets up the REST side only.
func openRepo() (*app, error) {
	a := &app{}
	store, err := cache.New(cfg.Cache)
	if err != nil {
		// The id cache only saves round trips; keep going in memory.
		log.Warn(fmt.Sprintf("id cache unavailable, using memory: %v", err))
	} else {
		a.store = store
	}
	ids := cache.NewIDCache(a.store, cfg.Cache.TTL)
	client := data.NewClient(nil, cfg.Server.Host, cfg.Session.SID)
	a.repo = data.NewRESTPageRepository(client, ids)
	return a, nil
}

// openApp sets up the REST side and the socket used for commits.
func openApp(ctx context.Context) (*app, error) {
	a, err := openRepo()
	if err != nil {
		return nil, err
	}
	sock, err := socketio.Dial(ctx, socketio.Options{
		Host:    cfg.Server.Host,
		SID:     cfg.Session.SID,
		Timeout: cfg.Socket.Timeout,
		Logger:  log,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.socket = sock
	a.service = service.NewPageService(a.repo, sock, log, cfg.Server.Host)
	return a, nil
}

func (a *app) pushOptions() service.PushOptions {
	return service.PushOptions{MaxAttempts: cfg.Push.MaxAttempts}
}

func (a *app) Close() {
	if a.socket != nil {
		a.socket.Close()
	}
	if a.store != nil {
		a.store.Close()
	}
}
