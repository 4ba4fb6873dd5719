package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/refboard/refboard/internal/asset"
	"github.com/refboard/refboard/internal/auth"
	"github.com/refboard/refboard/internal/boards"
	"github.com/refboard/refboard/internal/collab"
	"github.com/refboard/refboard/internal/config"
	"github.com/refboard/refboard/internal/discovery"
	"github.com/refboard/refboard/internal/engine"
	"github.com/refboard/refboard/internal/export"
	mw "github.com/refboard/refboard/internal/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})))

	hub := collab.NewHub(cfg.BoardDir, engine.OptionsFromConfig(cfg))
	go hub.Run()

	assetHandler := asset.NewHandler(hub)
	exportHandler := export.NewHandler(hub, cfg.Display)
	origins := mw.SplitOrigins(cfg.AllowedOrigins)
	access := auth.NewService(cfg.AccessSecret, cfg.TokenTTL)
	if !access.Enabled() {
		slog.Warn("ACCESS_SECRET not set, boards are open to anyone who can reach the server")
	}
	boardHandler := boards.NewHandler(hub, access)

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(origins))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Board index. Listing and creating need a token for every board ("*").
	r.Handle("/boards", access.BoardAccess(http.HandlerFunc(boardHandler.List))).Methods("GET")
	r.Handle("/boards", access.BoardAccess(http.HandlerFunc(boardHandler.Create))).Methods("POST")

	// Per-board routes
	board := r.PathPrefix("/boards/{boardId}").Subrouter()
	board.Use(access.BoardAccess)
	board.HandleFunc("", boardHandler.Get).Methods("GET")
	board.HandleFunc("", boardHandler.Delete).Methods("DELETE")
	board.HandleFunc("/images", assetHandler.Upload).Methods("POST", "OPTIONS")
	board.HandleFunc("/images/{imageId}", func(w http.ResponseWriter, r *http.Request) {
		serveImage(w, r, hub)
	}).Methods("GET")
	board.HandleFunc("/export.{format}", exportHandler.ExportBoard).Methods("GET")

	r.Handle("/ws/board/{boardId}", access.BoardAccess(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleWebSocket(w, r, hub, origins)
	})))

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var advert *discovery.Advertiser
	if cfg.MDNSEnabled {
		advert, err = discovery.Advertise("", cfg.Port)
		if err != nil {
			slog.Warn("mDNS advertise", "error", err)
		} else {
			slog.Info("advertising on local network", "service", discovery.ServiceType)
		}
	}

	// Graceful shutdown
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")
		if advert != nil {
			advert.Shutdown()
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)

		// Save every open board after HTTP traffic has drained.
		slog.Info("saving open boards")
		hub.Stop()
	}()

	slog.Info("server starting", "addr", addr, "boards", cfg.BoardDir)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	<-stopped
}

func handleWebSocket(w http.ResponseWriter, r *http.Request, hub *collab.Hub, origins []string) {
	boardID := mux.Vars(r)["boardId"]
	if !collab.ValidBoardID(boardID) {
		http.Error(w, "invalid board id", http.StatusBadRequest)
		return
	}

	name := r.URL.Query().Get("name")
	if name == "" {
		name = auth.NameFromContext(r.Context())
	}
	if name == "" {
		name = "Anonymous"
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: origins,
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	clientID := uuid.New().String()
	client := collab.NewClient(hub, conn, clientID, name, boardID)

	if !hub.Register(client) {
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}

func serveImage(w http.ResponseWriter, r *http.Request, hub *collab.Hub) {
	vars := mux.Vars(r)
	data, format, err := hub.ImageData(r.Context(), vars["boardId"], vars["imageId"])
	switch {
	case errors.Is(err, engine.ErrNoSuchItem), errors.Is(err, collab.ErrInvalidBoardID), errors.Is(err, fs.ErrNotExist):
		http.Error(w, "image not found", http.StatusNotFound)
		return
	case err != nil:
		slog.Error("serve image", "error", err, "board", vars["boardId"])
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/"+format)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "private, max-age=31536000, immutable")
	w.Write(data)
}
