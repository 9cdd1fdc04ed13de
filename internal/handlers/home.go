package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"wordrelay/internal/game"
	"wordrelay/internal/viewmodel"
	"wordrelay/pkg/realtime"
	"wordrelay/views/pages"
)

const (
	minDurationMin = 1
	maxDurationMin = 120
)

// GameStore is the session store the handlers depend on.
type GameStore interface {
	CreateGame(settings game.Settings) *game.Game
	GetGame(id string) (*game.Game, bool)
	Broadcaster(id string) *realtime.Broadcaster[game.Event]
	Publish(id string, event game.Event)
}

// Options carries the server-wide defaults for new sessions.
type Options struct {
	Defaults game.Settings
	// BaseURL overrides the scheme and host used in join links.
	BaseURL string
}

type HomeHandler struct {
	store GameStore
	opts  Options
}

func NewHomeHandler(store GameStore, opts Options) *HomeHandler {
	return &HomeHandler{store: store, opts: opts}
}

func (h *HomeHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.home)
	r.Post("/games", h.createGame)
	r.Get("/healthz", h.health)
}

func (h *HomeHandler) home(w http.ResponseWriter, r *http.Request) {
	render(w, r, pages.HomePage(viewmodel.HomePage{
		Title:           "Word Relay",
		DefaultDuration: h.defaultMinutes(),
	}))
}

func (h *HomeHandler) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Ok\n"))
}

func (h *HomeHandler) defaultMinutes() int {
	d := h.opts.Defaults.Duration
	if d <= 0 {
		d = game.DefaultDuration
	}
	return int(d / time.Minute)
}

func (h *HomeHandler) createGame(w http.ResponseWriter, r *http.Request) {
	minutes := h.defaultMinutes()
	isJSON := strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
	if isJSON {
		var req viewmodel.CreateGameRequest
		if err := decodeBody(r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, viewmodel.ActionResponse{Status: game.ResultError, Msg: "invalid body"})
			return
		}
		if req.Duration > 0 {
			minutes = req.Duration
		}
	} else {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form", http.StatusBadRequest)
			return
		}
		minutes = parseInt(r.FormValue("duration"), minutes)
	}
	if minutes < minDurationMin {
		minutes = minDurationMin
	}
	if minutes > maxDurationMin {
		minutes = maxDurationMin
	}

	settings := h.opts.Defaults
	settings.Duration = time.Duration(minutes) * time.Minute
	g := h.store.CreateGame(settings)
	setCookie(w, hostCookieName(g.ID), g.HostToken)
	log.Info().Str("game", g.ID).Int("minutes", minutes).Str("remote", r.RemoteAddr).Msg("create game")

	adminURL := "/game/" + g.ID
	if isJSON {
		writeJSON(w, http.StatusOK, viewmodel.CreateGameResponse{
			GameID:   g.ID,
			AdminURL: adminURL,
			JoinURL:  buildJoinURL(r, h.opts.BaseURL, g.ID),
		})
		return
	}
	http.Redirect(w, r, adminURL, http.StatusSeeOther)
}

func parseInt(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return parsed
}

func buildJoinURL(r *http.Request, baseURL, gameID string) string {
	if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
		return strings.TrimRight(baseURL, "/") + "/game/" + gameID + "/join"
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host + "/game/" + gameID + "/join"
}
