package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-cosense/internal/data"
	"go-cosense/internal/devserver"
	"go-cosense/internal/handler"
	"go-cosense/internal/middleware"
	"go-cosense/internal/view"
	"go-cosense/web"

	"github.com/spf13/cobra"
)

var devserverCmd = &cobra.Command{
	Use:   "devserver",
	Short: "Run an in-memory Cosense-compatible server for local testing",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		viewService, err := view.New(web.TemplateFS)
		if err != nil {
			return fmt.Errorf("failed to initialize view templates: %w", err)
		}

		user := data.User{ID: "000000000000000000000001", Name: cfg.DevServer.UserName, DisplayName: cfg.DevServer.UserName}
		store := devserver.NewStore(user, cfg.DevServer.Projects...)

		pageHandler := handler.NewPageHandler(store, viewService, log)
		socketHandler := handler.NewSocketHandler(store, log)
		authMiddleware := middleware.Authenticate(cfg.Session.SID, &middleware.UserInfo{ID: user.ID, Name: user.Name})
		router := handler.NewRouter(pageHandler, socketHandler, authMiddleware, log)

		server := &http.Server{
			Addr:    fmt.Sprintf(":%s", cfg.DevServer.Port),
			Handler: router,
		}
		go func() {
			log.Info(fmt.Sprintf("Starting dev server on %s with projects %v", server.Addr, cfg.DevServer.Projects))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal(err, "Could not start HTTP server")
			}
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Warn("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		log.Info("Server exiting")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(devserverCmd)
}
