package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"chat-client/internal/api"
	"chat-client/internal/auth"
	"chat-client/internal/config"
	"chat-client/internal/handlers"
	"chat-client/internal/notify"
	"chat-client/internal/session"
	"chat-client/internal/state"
	"chat-client/internal/store"
	"chat-client/internal/telemetry"
	"chat-client/internal/transport"
	"chat-client/internal/ws"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry.OTLPEndpoint, cfg.Telemetry.Environment)
	if err != nil {
		log.Fatalf("failed to set up tracing: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(shutdownCtx)
	}()

	var clientStore store.Store
	if cfg.Store.DSN != "" {
		pg, err := store.ConnectPostgres(cfg.Store.DSN)
		if err != nil {
			log.Fatalf("failed to connect to store: %v", err)
		}
		defer pg.Close()
		clientStore = pg
	} else {
		log.Println("no store DSN configured, client state will not survive restarts")
		clientStore = store.NewMemory()
	}

	if prev, ok, err := config.LoadSettings(ctx, clientStore); err == nil && ok && prev != cfg.Settings() {
		log.Printf("server settings changed since last run: %s -> %s", prev.Server, cfg.Server.Addr)
	}
	if err := config.SaveSettings(ctx, clientStore, cfg.Settings()); err != nil {
		log.Printf("failed to persist settings: %v", err)
	}

	notifier := notify.New(128)

	sess := session.NewManager(clientStore)
	if err := sess.Restore(ctx); err != nil {
		log.Printf("failed to restore session: %v", err)
	}

	// One http.Client for the transport and the refresher, so the
	// renewal call is bounded by the same request timeout.
	httpClient := &http.Client{Timeout: cfg.Server.RequestTimeout}
	refresher := auth.NewRefresher(sess, cfg.Server.BaseURL(), httpClient)
	restClient := transport.New(cfg.Server.BaseURL(), httpClient, sess, refresher, notifier)
	apiClient := api.NewClient(restClient, sess)

	reconciler := state.NewReconciler(sess, notifier, apiClient, clientStore)
	router := ws.NewRouter(reconciler)

	channel := ws.NewChannel(ws.Config{
		URL:               cfg.Server.WebsocketURL(),
		HeartbeatInterval: cfg.Realtime.HeartbeatInterval,
		PongTimeout:       cfg.Realtime.PongTimeout,
		ReconnectRetries:  cfg.Realtime.ReconnectRetries,
		ReconnectDelay:    cfg.Realtime.ReconnectDelay,
	}, sess, refresher, router, notifier)

	if !sess.Snapshot().Empty() {
		if chats, err := apiClient.ChatList(ctx); err == nil {
			reconciler.ApplyChatList(ctx, chats)
		}
		if friends, err := apiClient.FriendList(ctx); err == nil {
			reconciler.SetFriends(friends)
		}
		if err := channel.Connect(ctx); err != nil {
			log.Printf("initial realtime connect failed: %v", err)
		}
	}

	if cfg.Debug.Enabled {
		gin.SetMode(gin.ReleaseMode)
		debugRouter := gin.New()
		debugRouter.Use(gin.Recovery())
		handlers.RegisterDebugRoutes(debugRouter, sess, channel, reconciler, true)
		go func() {
			if err := debugRouter.Run(cfg.Debug.Addr); err != nil {
				log.Printf("debug server error: %v", err)
			}
		}()
	}

	// Drain notices; an embedding frontend would consume these instead.
	go func() {
		for notice := range notifier.Notices() {
			if notice.LoginRequired {
				channel.Disconnect()
			}
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	channel.Disconnect()
	log.Println("chat client stopped")
}
