package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/inamate/infomap/internal/asset"
	"github.com/inamate/infomap/internal/collab"
	"github.com/inamate/infomap/internal/config"
	"github.com/inamate/infomap/internal/export"
	mw "github.com/inamate/infomap/internal/middleware"
	"github.com/inamate/infomap/internal/project"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level()})))

	defaults, err := config.LoadDefaults(cfg.DefaultsFile)
	if err != nil {
		slog.Warn("using built-in defaults", "error", err)
	}

	if err := os.MkdirAll(cfg.ProjectsRoot, 0o755); err != nil {
		slog.Error("create projects root", "path", cfg.ProjectsRoot, "error", err)
		os.Exit(1)
	}
	store := project.NewStore(cfg.ProjectsRoot, defaults)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var watcher *project.Watcher
	if cfg.WatchProjects {
		watcher, err = project.NewWatcher(store)
		if err != nil {
			slog.Warn("file watching disabled", "error", err)
			watcher = nil
		}
	}

	hub := collab.NewHub(store, watcher)
	go hub.Run(ctx)

	r := mux.NewRouter()

	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(cfg.Origins()))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	project.NewHandler(store).Routes(api)
	asset.NewHandler(store).Routes(api)
	export.NewHandler(hub, store, cfg.ExportDir).Routes(api)
	// Preflight requests only need a matched route; CORS answers them.
	api.PathPrefix("/").Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	patterns := originPatterns(cfg.Origins())
	r.HandleFunc("/ws/project/{name}", func(w http.ResponseWriter, r *http.Request) {
		handleWebSocket(w, r, hub, store, patterns)
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")

		// Stop hub first so every open project is saved
		hub.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr, "projects", store.Root())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

// originPatterns turns configured origins into the host patterns the
// websocket library matches against.
func originPatterns(origins []string) []string {
	var out []string
	for _, o := range origins {
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			out = append(out, u.Host)
			continue
		}
		out = append(out, o)
	}
	return out
}

func handleWebSocket(w http.ResponseWriter, r *http.Request, hub *collab.Hub, store *project.Store, patterns []string) {
	name := mux.Vars(r)["name"]
	if err := project.ValidateName(name); err != nil {
		http.Error(w, "invalid project name", http.StatusBadRequest)
		return
	}
	if _, err := os.Stat(store.ConfigPath(name)); err != nil {
		http.Error(w, "project not found", http.StatusNotFound)
		return
	}

	displayName := r.URL.Query().Get("name")
	if displayName == "" {
		displayName = "Guest"
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: patterns,
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	clientID := uuid.New().String()
	client := collab.NewClient(hub, conn, displayName, name, clientID)

	hub.Register(client)

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}
