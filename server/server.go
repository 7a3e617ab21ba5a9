// Package server is the HTTP shell around the annotation engine. Handlers are
// thin: all semantics live in pkg/anno and server/annostore.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/cyclopcam/logs"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/vidtag/vidtag/server/annostore"
)

type Config struct {
	// Port to listen on, eg ":8080"
	Port string `json:"port"`
	// Directory holding the annotation DB
	StorageRoot string `json:"storageRoot"`
}

func DefaultConfig() Config {
	return Config{
		Port:        ":8080",
		StorageRoot: "vidtag-data",
	}
}

// LoadConfig reads a JSON config file. Missing fields fall back to defaults.
func LoadConfig(filename string) (Config, error) {
	cfg := DefaultConfig()
	raw, err := os.ReadFile(filename)
	if err != nil {
		return cfg, fmt.Errorf("Failed to read config file %v: %w", filename, err)
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("Failed to parse config file %v: %w", filename, err)
	}
	return cfg, nil
}

type Server struct {
	Log   logs.Log
	Store *annostore.Store

	httpServer *http.Server
	httpRouter *httprouter.Router
	wsUpgrader websocket.Upgrader
}

func NewServer(logger logs.Log, cfg Config) (*Server, error) {
	store, err := annostore.NewStore(logger, cfg.StorageRoot)
	if err != nil {
		return nil, err
	}
	s := &Server{
		Log:   logger,
		Store: store,
	}
	s.setupHttpRoutes()
	return s, nil
}

// ListenHTTP blocks until the server is shut down.
// port example: ":8080"
func (s *Server) ListenHTTP(port string) error {
	s.Log.Infof("Listening on %v", port)
	s.httpServer = &http.Server{
		Addr:    port,
		Handler: s.httpRouter,
	}
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown() {
	s.Log.Infof("Shutdown")
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.httpServer.Shutdown(ctx)
	}
}
