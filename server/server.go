// Package server exposes the coordination engine over a small REST API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/hifiberry/audiocontrol3/addon"
	"github.com/hifiberry/audiocontrol3/audiocontroller"
	"github.com/hifiberry/audiocontrol3/constant"
	"github.com/hifiberry/audiocontrol3/key"
	"github.com/hifiberry/audiocontrol3/log"
	"github.com/hifiberry/audiocontrol3/metadata"
	"github.com/spf13/viper"
)

// Server serves engine state and commands over HTTP.
type Server struct {
	engine *audiocontroller.AudioController
	addons *addon.Manager
	http   *http.Server
}

// New creates a server bound to the engine and addon manager.
func New(engine *audiocontroller.AudioController, addons *addon.Manager) *Server {
	s := &Server{engine: engine, addons: addons}
	s.http = &http.Server{
		Handler:      s.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// Routes builds the API handler.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/system-info", s.handleSystemInfo)
	mux.HandleFunc("GET /api/players", s.handlePlayers)
	mux.HandleFunc("GET /api/players/active", s.handleActivePlayer)
	mux.HandleFunc("POST /api/players/active", s.handleSetActivePlayer)
	mux.HandleFunc("GET /api/song", s.handleSong)
	mux.HandleFunc("GET /api/volume", s.handleVolume)
	mux.HandleFunc("POST /api/volume", s.handleSetVolume)
	mux.HandleFunc("POST /api/player/{command}", s.handleCommand)
	mux.HandleFunc("GET /api/addons", s.handleAddons)
	mux.HandleFunc("POST /api/addons/{name}/enable", s.handleAddonEnable)
	mux.HandleFunc("POST /api/addons/{name}/disable", s.handleAddonDisable)

	return mux
}

// Start listens on the configured host and port until the context ends.
func (s *Server) Start(ctx context.Context) error {
	addr := net.JoinHostPort(viper.GetString(key.APIHost), strconv.Itoa(viper.GetInt(key.APIPort)))
	s.http.Addr = addr

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("api listen on %s: %w", addr, err)
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.http.Shutdown(shutdownCtx)
	}()

	log.Infof("api listening on %s", addr)
	if err := s.http.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleSystemInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    constant.AudioControl,
		"version": constant.Version,
		"players": s.engine.IDs(),
		"addons":  s.addons.EnabledAddons(),
	})
}

func (s *Server) handlePlayers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"players": s.engine.AllPlayerInfo(),
	})
}

func (s *Server) handleActivePlayer(w http.ResponseWriter, r *http.Request) {
	info := s.engine.ActivePlayerInfo()
	if info == nil {
		writeError(w, http.StatusNotFound, audiocontroller.ErrNoActiveController)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleSetActivePlayer(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PlayerID string `json:"player_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.PlayerID == "" {
		writeError(w, http.StatusBadRequest, errors.New("player_id required"))
		return
	}
	if err := s.engine.SetActiveController(body.PlayerID); err != nil {
		writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"active": body.PlayerID})
}

func (s *Server) handleSong(w http.ResponseWriter, r *http.Request) {
	song := s.engine.CurrentSong()
	if song == nil {
		writeJSON(w, http.StatusOK, map[string]any{"song": nil})
		return
	}
	if position, ok := s.engine.Position().Get(); ok {
		writeJSON(w, http.StatusOK, map[string]any{"song": song, "position": position})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"song": song})
}

func (s *Server) handleVolume(w http.ResponseWriter, r *http.Request) {
	volume, ok := s.engine.Volume().Get()
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("volume not reported"))
		return
	}
	response := map[string]any{"volume": volume}
	if muted, ok := s.engine.IsMuted().Get(); ok {
		response["muted"] = muted
	}
	writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleSetVolume(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Volume *int `json:"volume"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Volume == nil {
		writeError(w, http.StatusBadRequest, errors.New("volume required"))
		return
	}
	if err := s.engine.SetVolume(*body.Volume); err != nil {
		writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Position *float64 `json:"position"`
		Enabled  *bool    `json:"enabled"`
		Mode     string   `json:"mode"`
	}
	// Commands without parameters arrive with an empty body.
	_ = json.NewDecoder(r.Body).Decode(&body)

	var err error
	switch command := r.PathValue("command"); command {
	case "play":
		err = s.engine.Play()
	case "pause":
		err = s.engine.Pause()
	case "playpause":
		err = s.engine.PlayPause()
	case "stop":
		err = s.engine.Stop()
	case "next":
		err = s.engine.Next()
	case "previous":
		err = s.engine.Previous()
	case "seek":
		if body.Position == nil {
			writeError(w, http.StatusBadRequest, errors.New("position required"))
			return
		}
		err = s.engine.Seek(*body.Position)
	case "shuffle":
		if body.Enabled == nil {
			writeError(w, http.StatusBadRequest, errors.New("enabled required"))
			return
		}
		err = s.engine.SetShuffle(*body.Enabled)
	case "mute":
		if body.Enabled == nil {
			writeError(w, http.StatusBadRequest, errors.New("enabled required"))
			return
		}
		err = s.engine.Mute(*body.Enabled)
	case "loop":
		err = s.engine.SetLoopMode(metadata.ParseLoopMode(body.Mode))
	default:
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown command %q", command))
		return
	}

	if err != nil {
		writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleAddons(w http.ResponseWriter, r *http.Request) {
	type addonInfo struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Version     string `json:"version"`
		Enabled     bool   `json:"enabled"`
	}

	infos := make([]addonInfo, 0)
	for _, a := range s.addons.Loaded() {
		infos = append(infos, addonInfo{
			Name:        a.Name(),
			Description: a.Description(),
			Version:     a.Version(),
			Enabled:     a.Enabled(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"addons": infos})
}

func (s *Server) handleAddonEnable(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if err := s.addons.Enable(name); err != nil {
		writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleAddonDisable(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if err := s.addons.Disable(name); err != nil {
		writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// writeCommandError maps engine errors onto HTTP status codes.
func writeCommandError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, audiocontroller.ErrNotFound), errors.Is(err, addon.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, audiocontroller.ErrNoActiveController):
		writeError(w, http.StatusConflict, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Warnf("api response encoding failed: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}
