package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	qrcode "github.com/skip2/go-qrcode"

	"wordrelay/internal/game"
	"wordrelay/internal/viewmodel"
	"wordrelay/views/pages"
)

const (
	leaderboardSize = 8
	maxNameLength   = 20
	maxBodyBytes    = 8 << 10
	qrSize          = 256
)

type GameHandler struct {
	store GameStore
	opts  Options
	now   func() time.Time
}

func NewGameHandler(store GameStore, opts Options) *GameHandler {
	return &GameHandler{
		store: store,
		opts:  opts,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (h *GameHandler) RegisterRoutes(r chi.Router) {
	r.Route("/game/{id}", func(r chi.Router) {
		r.Get("/", h.adminPage)
		r.Get("/join", h.joinPage)
		r.Post("/join", h.joinGame)
		r.Get("/play", h.playPage)
	})
	r.Route("/api/games/{id}", func(r chi.Router) {
		r.Post("/start", h.startGame)
		r.Post("/sync", h.sync)
		r.Post("/action", h.action)
		r.Get("/leaderboard", h.leaderboard)
		r.Get("/stream", h.stream)
		r.Get("/qr.png", h.qr)
	})
}

func (h *GameHandler) lookup(w http.ResponseWriter, r *http.Request) (*game.Game, bool) {
	instance, ok := h.store.GetGame(chi.URLParam(r, "id"))
	if !ok {
		http.NotFound(w, r)
		return nil, false
	}
	return instance, true
}

// lookupAPI is lookup for JSON routes.
func (h *GameHandler) lookupAPI(w http.ResponseWriter, r *http.Request) (*game.Game, bool) {
	instance, ok := h.store.GetGame(chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, viewmodel.ActionResponse{Status: game.ResultError, Msg: game.ErrGameNotFound.Error()})
		return nil, false
	}
	return instance, true
}

func (h *GameHandler) adminPage(w http.ResponseWriter, r *http.Request) {
	instance, ok := h.lookup(w, r)
	if !ok {
		return
	}
	snapshot := instance.Snapshot(h.now())
	render(w, r, pages.AdminPage(viewmodel.AdminPage{
		Title:       "Word Relay",
		GameID:      instance.ID,
		JoinURL:     buildJoinURL(r, h.opts.BaseURL, instance.ID),
		QRURL:       "/api/games/" + instance.ID + "/qr.png",
		Status:      string(snapshot.Status),
		DurationMin: int(snapshot.Duration / time.Minute),
		Words:       snapshot.Words,
		IsHost:      instance.IsHost(readCookie(r, hostCookieName(instance.ID))),
		Scores:      toScoreEntries(snapshot.Teams),
	}))
}

func (h *GameHandler) joinPage(w http.ResponseWriter, r *http.Request) {
	instance, ok := h.lookup(w, r)
	if !ok {
		return
	}
	status, _ := instance.State(h.now())
	render(w, r, pages.JoinPage(viewmodel.JoinPage{
		Title:  "Join Word Relay",
		GameID: instance.ID,
		Status: string(status),
		Error:  r.URL.Query().Get("error"),
	}))
}

func (h *GameHandler) joinGame(w http.ResponseWriter, r *http.Request) {
	instance, ok := h.lookup(w, r)
	if !ok {
		return
	}
	isJSON := strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
	var teamName, playerName, role string
	if isJSON {
		var req struct {
			TeamName   string `json:"team_name"`
			PlayerName string `json:"player_name"`
			Role       string `json:"role"`
		}
		if err := decodeBody(r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, viewmodel.ActionResponse{Status: game.ResultError, Msg: "invalid body"})
			return
		}
		teamName, playerName, role = req.TeamName, req.PlayerName, req.Role
	} else {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form", http.StatusBadRequest)
			return
		}
		teamName, playerName, role = r.FormValue("team_name"), r.FormValue("player_name"), r.FormValue("role")
	}

	team, player, err := instance.Join(truncate(teamName), truncate(playerName), game.ParseRole(role), h.now())
	if err != nil {
		if isJSON {
			writeJSON(w, http.StatusBadRequest, viewmodel.ActionResponse{Status: game.ResultError, Msg: err.Error()})
			return
		}
		http.Redirect(w, r, "/game/"+instance.ID+"/join?error=Team+name+required", http.StatusSeeOther)
		return
	}
	log.Info().Str("game", instance.ID).Str("team", team.Name).Str("role", string(player.Role)).Msg("player joined")

	setCookie(w, teamCookieName(instance.ID), team.Name)
	setCookie(w, playerCookieName(instance.ID), player.Token)
	h.store.Publish(instance.ID, game.EventScores)
	if isJSON {
		writeJSON(w, http.StatusOK, viewmodel.JoinResponse{Team: team.Name, Token: player.Token, Role: string(player.Role)})
		return
	}
	http.Redirect(w, r, "/game/"+instance.ID+"/play", http.StatusSeeOther)
}

func (h *GameHandler) playPage(w http.ResponseWriter, r *http.Request) {
	instance, ok := h.lookup(w, r)
	if !ok {
		return
	}
	teamName, token := identity(r, instance.ID, "", "")
	team, ok := instance.Team(teamName)
	if !ok {
		http.Redirect(w, r, "/game/"+instance.ID+"/join", http.StatusSeeOther)
		return
	}
	player, ok := team.Player(token)
	if !ok {
		http.Redirect(w, r, "/game/"+instance.ID+"/join", http.StatusSeeOther)
		return
	}
	render(w, r, pages.PlayPage(viewmodel.PlayPage{
		Title:      "Word Relay",
		GameID:     instance.ID,
		TeamName:   team.Name,
		PlayerName: player.Name,
		Role:       string(player.Role),
	}))
}

func (h *GameHandler) startGame(w http.ResponseWriter, r *http.Request) {
	instance, ok := h.lookupAPI(w, r)
	if !ok {
		return
	}
	if !instance.IsHost(readCookie(r, hostCookieName(instance.ID))) {
		writeJSON(w, http.StatusForbidden, viewmodel.ActionResponse{Status: game.ResultError, Msg: game.ErrNotHost.Error()})
		return
	}
	if err := instance.Start(h.now()); err != nil {
		writeJSON(w, http.StatusConflict, viewmodel.ActionResponse{Status: game.ResultError, Msg: err.Error()})
		return
	}
	log.Info().Str("game", instance.ID).Msg("game started")
	h.store.Publish(instance.ID, game.EventState)
	writeJSON(w, http.StatusOK, viewmodel.ActionResponse{Status: string(game.StatusRunning)})
}

func (h *GameHandler) sync(w http.ResponseWriter, r *http.Request) {
	instance, ok := h.lookupAPI(w, r)
	if !ok {
		return
	}
	var req viewmodel.SyncRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, viewmodel.ActionResponse{Status: game.ResultError, Msg: "invalid body"})
		return
	}
	team, token := identity(r, instance.ID, req.Team, req.Token)
	writeJSON(w, http.StatusOK, toSyncResponse(instance.Sync(team, token, h.now())))
}

func (h *GameHandler) action(w http.ResponseWriter, r *http.Request) {
	instance, ok := h.lookupAPI(w, r)
	if !ok {
		return
	}
	var req viewmodel.ActionRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, viewmodel.ActionResponse{Status: game.ResultError, Msg: "invalid body"})
		return
	}
	team, token := identity(r, instance.ID, req.Team, req.Token)
	out, err := instance.Action(r.Context(), team, token, req.Action, req.Value, h.now())

	ev := log.Info()
	if err != nil {
		ev = log.Debug().Err(err)
	}
	ev.Str("game", instance.ID).Str("team", team).Str("action", req.Action).Str("status", out.Status).Msg("action")

	switch out.Status {
	case game.ResultCorrect, game.ResultSkip, game.ResultPenalty:
		h.store.Publish(instance.ID, game.EventScores)
	}
	if status, _ := instance.State(h.now()); status == game.StatusFinished {
		h.store.Publish(instance.ID, game.EventState)
	}
	writeJSON(w, actionHTTPStatus(err), viewmodel.ActionResponse{Status: out.Status, Msg: out.Msg})
}

// actionHTTPStatus maps lookup failures to 4xx. Rule rejections stay 200 so
// clients read the message from the body.
func actionHTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, game.ErrTeamNotFound), errors.Is(err, game.ErrPlayerNotFound):
		return http.StatusNotFound
	case errors.Is(err, game.ErrWrongRole):
		return http.StatusForbidden
	case errors.Is(err, game.ErrUnknownAction):
		return http.StatusBadRequest
	}
	return http.StatusOK
}

func (h *GameHandler) leaderboard(w http.ResponseWriter, r *http.Request) {
	instance, ok := h.lookupAPI(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toScoreEntries(instance.Leaderboard(leaderboardSize)))
}

func (h *GameHandler) qr(w http.ResponseWriter, r *http.Request) {
	instance, ok := h.lookup(w, r)
	if !ok {
		return
	}
	png, err := qrcode.Encode(buildJoinURL(r, h.opts.BaseURL, instance.ID), qrcode.Medium, qrSize)
	if err != nil {
		log.Error().Err(err).Str("game", instance.ID).Msg("qr encode failed")
		http.Error(w, "failed to encode qr code", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(png)
}

func (h *GameHandler) stream(w http.ResponseWriter, r *http.Request) {
	instance, ok := h.lookup(w, r)
	if !ok {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	sub := h.store.Broadcaster(instance.ID).Subscribe()
	defer sub.Close()

	sendScores := func() {
		payload, _ := json.Marshal(toScoreEntries(instance.Leaderboard(leaderboardSize)))
		writeSSE(w, "scores", string(payload))
		flusher.Flush()
	}
	sendState := func() {
		status, left := instance.State(h.now())
		payload, _ := json.Marshal(map[string]any{"state": status, "time_left": left})
		writeSSE(w, "state", string(payload))
		flusher.Flush()
	}

	sendState()
	sendScores()

	keepAlive := time.NewTicker(25 * time.Second)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-sub.Ready():
			for _, event := range sub.Drain() {
				switch event {
				case game.EventScores:
					sendScores()
				case game.EventState:
					sendState()
				}
			}
		case <-keepAlive.C:
			_, _ = w.Write([]byte(": keepalive\n\n"))
			flusher.Flush()
		}
	}
}

// decodeBody decodes an optional JSON body. An empty body is not an error.
func decodeBody(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if runes := []rune(s); len(runes) > maxNameLength {
		return string(runes[:maxNameLength])
	}
	return s
}

func toSyncResponse(v game.View) viewmodel.SyncResponse {
	resp := viewmodel.SyncResponse{
		State:     string(v.State),
		TimeLeft:  v.TimeLeft,
		TeamScore: v.TeamScore,
	}
	if v.P1 != nil {
		resp.P1Data = &viewmodel.P1Data{
			Scrambled: v.P1.Scrambled,
			Attempts:  v.P1.Attempts,
			Finished:  v.P1.Finished,
		}
	}
	if v.P2 != nil {
		data := &viewmodel.P2Data{
			Active:     v.P2.Active,
			TargetWord: v.P2.TargetWord,
			Waiting:    v.P2.Waiting,
		}
		if v.P2.RequiredLength > 0 {
			n := v.P2.RequiredLength
			data.DiceSum = &n
		}
		resp.P2Data = data
	}
	return resp
}

func toScoreEntries(scores []game.ScoreEntry) []viewmodel.ScoreEntry {
	out := make([]viewmodel.ScoreEntry, 0, len(scores))
	for _, entry := range scores {
		out = append(out, viewmodel.ScoreEntry{
			Name:  entry.Name,
			Score: entry.Score,
		})
	}
	return out
}

func writeSSE(w http.ResponseWriter, event string, data string) {
	_, _ = w.Write([]byte("event: " + event + "\n"))
	for _, line := range strings.Split(data, "\n") {
		_, _ = w.Write([]byte("data: " + line + "\n"))
	}
	_, _ = w.Write([]byte("\n"))
}
