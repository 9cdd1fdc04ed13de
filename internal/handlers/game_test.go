package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"wordrelay/internal/game"
	"wordrelay/internal/viewmodel"
)

const testBaseURL = "http://relay.test"

func newTestServer(t *testing.T, words ...string) (*game.Store, http.Handler) {
	t.Helper()
	if len(words) == 0 {
		words = []string{"python", "docker"}
	}
	store := game.NewStore()
	opts := Options{
		Defaults: game.Settings{Words: words, Seed: 7},
		BaseURL:  testBaseURL,
	}
	r := chi.NewRouter()
	NewHomeHandler(store, opts).RegisterRoutes(r)
	NewGameHandler(store, opts).RegisterRoutes(r)
	return store, r
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var payload string
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		payload = string(raw)
	}
	req := httptest.NewRequest(method, path, strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func join(t *testing.T, h http.Handler, gameID, team, role string) viewmodel.JoinResponse {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/game/"+gameID+"/join", map[string]string{
		"team_name":   team,
		"player_name": role + " player",
		"role":        role,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("join status %d, want 200: %s", rec.Code, rec.Body.String())
	}
	return decode[viewmodel.JoinResponse](t, rec)
}

func TestCreateGame_JSON(t *testing.T) {
	store, h := newTestServer(t)
	rec := doJSON(t, h, http.MethodPost, "/games", map[string]int{"duration": 5})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}
	resp := decode[viewmodel.CreateGameResponse](t, rec)
	if resp.JoinURL != testBaseURL+"/game/"+resp.GameID+"/join" {
		t.Errorf("join url %q", resp.JoinURL)
	}
	if resp.AdminURL != "/game/"+resp.GameID {
		t.Errorf("admin url %q", resp.AdminURL)
	}
	g, ok := store.GetGame(resp.GameID)
	if !ok {
		t.Fatal("created game not in store")
	}
	if g.Countdown.Duration != 5*time.Minute {
		t.Errorf("duration %v, want 5m", g.Countdown.Duration)
	}
	var host string
	for _, c := range rec.Result().Cookies() {
		if c.Name == hostCookieName(g.ID) {
			host = c.Value
		}
	}
	if !g.IsHost(host) {
		t.Error("host cookie does not carry the host token")
	}
}

func TestCreateGame_FormClampsAndRedirects(t *testing.T) {
	store, h := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/games", strings.NewReader(url.Values{"duration": {"999"}}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status %d, want 303", rec.Code)
	}
	id := strings.TrimPrefix(rec.Header().Get("Location"), "/game/")
	g, ok := store.GetGame(id)
	if !ok {
		t.Fatalf("redirect %q does not name a game", rec.Header().Get("Location"))
	}
	if g.Countdown.Duration != maxDurationMin*time.Minute {
		t.Errorf("duration %v, want clamped to %dm", g.Countdown.Duration, maxDurationMin)
	}
}

func TestStartGame_RequiresHost(t *testing.T) {
	store, h := newTestServer(t)
	g := store.CreateGame(game.Settings{Words: []string{"python"}})
	path := "/api/games/" + g.ID + "/start"

	if rec := doJSON(t, h, http.MethodPost, path, nil); rec.Code != http.StatusForbidden {
		t.Errorf("start without host cookie %d, want 403", rec.Code)
	}
	host := &http.Cookie{Name: hostCookieName(g.ID), Value: g.HostToken}
	if rec := doJSON(t, h, http.MethodPost, path, nil, host); rec.Code != http.StatusOK {
		t.Errorf("start %d, want 200", rec.Code)
	}
	if status, _ := g.State(time.Now().UTC()); status != game.StatusRunning {
		t.Errorf("status %q, want running", status)
	}
	if rec := doJSON(t, h, http.MethodPost, path, nil, host); rec.Code != http.StatusConflict {
		t.Errorf("second start %d, want 409", rec.Code)
	}
}

func TestRelayFlow(t *testing.T) {
	store, h := newTestServer(t)
	g := store.CreateGame(game.Settings{Words: []string{"python", "docker"}, Seed: 3})
	p1 := join(t, h, g.ID, " red ", "p1")
	p2 := join(t, h, g.ID, "Red", "P2")
	if p1.Team != "RED" || p2.Team != "RED" {
		t.Fatalf("teams %q %q, want RED", p1.Team, p2.Team)
	}
	if p1.Role != "p1" || p2.Role != "p2" {
		t.Fatalf("roles %q %q", p1.Role, p2.Role)
	}
	if err := g.Start(time.Now().UTC()); err != nil {
		t.Fatalf("start: %v", err)
	}
	api := "/api/games/" + g.ID

	sync := decode[viewmodel.SyncResponse](t, doJSON(t, h, http.MethodPost, api+"/sync", viewmodel.SyncRequest{Team: p1.Team, Token: p1.Token}))
	if sync.State != "running" || sync.P1Data == nil || sync.P2Data != nil {
		t.Fatalf("p1 sync %+v", sync)
	}
	if len(sync.P1Data.Scrambled) != len("python") || sync.P1Data.Scrambled == "python" {
		t.Errorf("scrambled %q", sync.P1Data.Scrambled)
	}
	if sync.P1Data.Attempts != game.AttemptBudget {
		t.Errorf("attempts %d, want %d", sync.P1Data.Attempts, game.AttemptBudget)
	}

	sync = decode[viewmodel.SyncResponse](t, doJSON(t, h, http.MethodPost, api+"/sync", viewmodel.SyncRequest{Team: p2.Team, Token: p2.Token}))
	if sync.P2Data == nil || sync.P2Data.Active || sync.P2Data.DiceSum != nil {
		t.Fatalf("p2 before solve %+v", sync.P2Data)
	}

	out := decode[viewmodel.ActionResponse](t, doJSON(t, h, http.MethodPost, api+"/action", viewmodel.ActionRequest{
		Action: game.ActionGuess, Value: "PYTHON", Team: p1.Team, Token: p1.Token,
	}))
	if out.Status != game.ResultCorrect {
		t.Fatalf("guess %+v, want correct", out)
	}

	sync = decode[viewmodel.SyncResponse](t, doJSON(t, h, http.MethodPost, api+"/sync", viewmodel.SyncRequest{Team: p2.Team, Token: p2.Token}))
	if sync.P2Data == nil || !sync.P2Data.Active || sync.P2Data.TargetWord != "python" {
		t.Fatalf("p2 after solve %+v", sync.P2Data)
	}
	if sync.P2Data.DiceSum == nil || *sync.P2Data.DiceSum < game.DefaultDiceMin || *sync.P2Data.DiceSum > game.DefaultDiceMax {
		t.Fatalf("dice sum %v out of range", sync.P2Data.DiceSum)
	}
	if sync.TeamScore != game.SolveBase+game.AttemptBudget*game.AttemptBonus {
		t.Errorf("team score %d", sync.TeamScore)
	}

	words := make([]string, *sync.P2Data.DiceSum)
	words[0] = "Python"
	for i := 1; i < len(words); i++ {
		words[i] = "word"
	}
	out = decode[viewmodel.ActionResponse](t, doJSON(t, h, http.MethodPost, api+"/action", viewmodel.ActionRequest{
		Action: game.ActionSubmitSentence, Value: strings.Join(words, " ") + ".", Team: p2.Team, Token: p2.Token,
	}))
	if out.Status != game.ResultCorrect {
		t.Fatalf("sentence %+v, want correct", out)
	}

	board := decode[[]viewmodel.ScoreEntry](t, doJSON(t, h, http.MethodGet, api+"/leaderboard", nil))
	want := game.SolveBase + game.AttemptBudget*game.AttemptBonus + len(words)*game.PointsPerWord
	if len(board) != 1 || board[0].Name != "RED" || board[0].Score != want {
		t.Errorf("leaderboard %+v, want RED %d", board, want)
	}
}

func TestSync_UnknownTokenIsLobby(t *testing.T) {
	store, h := newTestServer(t)
	g := store.CreateGame(game.Settings{Words: []string{"python"}})
	rec := doJSON(t, h, http.MethodPost, "/api/games/"+g.ID+"/sync", viewmodel.SyncRequest{Team: "ghost", Token: "nope"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}
	sync := decode[viewmodel.SyncResponse](t, rec)
	if sync.State != "lobby" || sync.P1Data != nil || sync.P2Data != nil {
		t.Errorf("sync %+v, want bare lobby", sync)
	}
}

func TestAction_UnknownGame(t *testing.T) {
	_, h := newTestServer(t)
	rec := doJSON(t, h, http.MethodPost, "/api/games/ZZZZZ/action", viewmodel.ActionRequest{Action: game.ActionGuess})
	if rec.Code != http.StatusNotFound {
		t.Errorf("status %d, want 404", rec.Code)
	}
	if out := decode[viewmodel.ActionResponse](t, rec); out.Status != game.ResultError {
		t.Errorf("status field %q, want error", out.Status)
	}
}

func TestAction_WrongRoleAndUnknownAction(t *testing.T) {
	store, h := newTestServer(t)
	g := store.CreateGame(game.Settings{Words: []string{"python"}})
	p2 := join(t, h, g.ID, "blue", "p2")
	_ = g.Start(time.Now().UTC())
	api := "/api/games/" + g.ID + "/action"

	rec := doJSON(t, h, http.MethodPost, api, viewmodel.ActionRequest{Action: game.ActionGuess, Value: "python", Team: p2.Team, Token: p2.Token})
	if rec.Code != http.StatusForbidden {
		t.Errorf("p2 guess %d, want 403", rec.Code)
	}
	rec = doJSON(t, h, http.MethodPost, api, viewmodel.ActionRequest{Action: "dance", Team: p2.Team, Token: p2.Token})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown action %d, want 400", rec.Code)
	}
}

func TestAction_RuleRejectionIsOK(t *testing.T) {
	store, h := newTestServer(t)
	g := store.CreateGame(game.Settings{Words: []string{"python"}})
	p1 := join(t, h, g.ID, "blue", "p1")
	rec := doJSON(t, h, http.MethodPost, "/api/games/"+g.ID+"/action", viewmodel.ActionRequest{
		Action: game.ActionGuess, Value: "python", Team: p1.Team, Token: p1.Token,
	})
	if rec.Code != http.StatusOK {
		t.Errorf("status %d, want 200", rec.Code)
	}
	out := decode[viewmodel.ActionResponse](t, rec)
	if out.Status != game.ResultError || out.Msg != "Game is not running." {
		t.Errorf("out %+v", out)
	}
}

func TestJoin_FormSetsCookiesForActions(t *testing.T) {
	store, h := newTestServer(t)
	g := store.CreateGame(game.Settings{Words: []string{"python"}})
	_ = g.Start(time.Now().UTC())

	form := url.Values{"team_name": {"green"}, "player_name": {"Ada"}, "role": {"p1"}}
	req := httptest.NewRequest(http.MethodPost, "/game/"+g.ID+"/join", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/game/"+g.ID+"/play" {
		t.Fatalf("join %d %q", rec.Code, rec.Header().Get("Location"))
	}
	cookies := rec.Result().Cookies()

	out := decode[viewmodel.ActionResponse](t, doJSON(t, h, http.MethodPost, "/api/games/"+g.ID+"/action",
		viewmodel.ActionRequest{Action: game.ActionGuess, Value: "wrong"}, cookies...))
	if out.Status != game.ResultWrong {
		t.Errorf("guess via cookies %+v, want wrong", out)
	}

	page := httptest.NewRequest(http.MethodGet, "/game/"+g.ID+"/play", nil)
	for _, c := range cookies {
		page.AddCookie(c)
	}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, page)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "GREEN") {
		t.Errorf("play page %d", rec.Code)
	}
}

func TestJoin_EmptyTeamName(t *testing.T) {
	store, h := newTestServer(t)
	g := store.CreateGame(game.Settings{Words: []string{"python"}})
	rec := doJSON(t, h, http.MethodPost, "/game/"+g.ID+"/join", map[string]string{"team_name": "  "})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status %d, want 400", rec.Code)
	}
}

func TestPlayPage_WithoutIdentityRedirects(t *testing.T) {
	store, h := newTestServer(t)
	g := store.CreateGame(game.Settings{Words: []string{"python"}})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/game/"+g.ID+"/play", nil))
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/game/"+g.ID+"/join" {
		t.Errorf("play %d %q, want redirect to join", rec.Code, rec.Header().Get("Location"))
	}
}

func TestPages_Render(t *testing.T) {
	store, h := newTestServer(t)
	g := store.CreateGame(game.Settings{Words: []string{"python"}})

	cases := []struct {
		path string
		want string
	}{
		{"/", "Create game"},
		{"/game/" + g.ID, testBaseURL + "/game/" + g.ID + "/join"},
		{"/game/" + strings.ToLower(g.ID) + "/join", "team_name"},
		{"/healthz", "Ok"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s %d, want 200", tc.path, rec.Code)
			continue
		}
		if !strings.Contains(rec.Body.String(), tc.want) {
			t.Errorf("GET %s missing %q", tc.path, tc.want)
		}
	}
}

func TestAdminPage_EscapesTeamNames(t *testing.T) {
	store, h := newTestServer(t)
	g := store.CreateGame(game.Settings{Words: []string{"python"}})
	join(t, h, g.ID, "<b>x</b>", "p1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/game/"+g.ID, nil))
	if strings.Contains(rec.Body.String(), "<B>X</B>") {
		t.Error("team name rendered unescaped")
	}
}

func TestQRCode(t *testing.T) {
	store, h := newTestServer(t)
	g := store.CreateGame(game.Settings{Words: []string{"python"}})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/games/"+g.ID+"/qr.png", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("content type %q", ct)
	}
	if !strings.HasPrefix(rec.Body.String(), "\x89PNG") {
		t.Error("body is not a png")
	}
}

func TestStream_SendsInitialState(t *testing.T) {
	store, h := newTestServer(t)
	g := store.CreateGame(game.Settings{Words: []string{"python"}})
	join(t, h, g.ID, "red", "p1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/games/"+g.ID+"/stream", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	body := rec.Body.String()
	if !strings.Contains(body, "event: state\ndata: {\"state\":\"lobby\",\"time_left\":0}\n\n") {
		t.Errorf("missing state event in %q", body)
	}
	if !strings.Contains(body, "event: scores\ndata: [{\"name\":\"RED\",\"score\":0}]\n\n") {
		t.Errorf("missing scores event in %q", body)
	}
	if n := store.Broadcaster(g.ID).Subscribers(); n != 0 {
		t.Errorf("subscribers %d after disconnect, want 0", n)
	}
}

func TestToSyncResponse_DiceSumNilWhenUnrolled(t *testing.T) {
	resp := toSyncResponse(game.View{State: game.StatusRunning, P2: &game.P2View{Active: true, TargetWord: "cache"}})
	if resp.P2Data == nil || resp.P2Data.DiceSum != nil {
		t.Fatalf("p2 data %+v", resp.P2Data)
	}
	raw, _ := json.Marshal(resp)
	if !strings.Contains(string(raw), `"dice_sum":null`) {
		t.Errorf("json %s missing null dice_sum", raw)
	}
}

func TestAction_PublishesScoreEvents(t *testing.T) {
	store, h := newTestServer(t)
	g := store.CreateGame(game.Settings{Words: []string{"python", "docker"}})
	p1 := join(t, h, g.ID, "red", "p1")
	_ = g.Start(time.Now().UTC())

	sub := store.Broadcaster(g.ID).Subscribe()
	defer sub.Close()

	doJSON(t, h, http.MethodPost, "/api/games/"+g.ID+"/action", viewmodel.ActionRequest{
		Action: game.ActionGuess, Value: "wrong", Team: p1.Team, Token: p1.Token,
	})
	if got := sub.Drain(); len(got) != 0 {
		t.Errorf("wrong guess published %v, want nothing", got)
	}

	doJSON(t, h, http.MethodPost, "/api/games/"+g.ID+"/action", viewmodel.ActionRequest{
		Action: game.ActionGuess, Value: "python", Team: p1.Team, Token: p1.Token,
	})
	<-sub.Ready()
	if got := sub.Drain(); len(got) != 1 || got[0] != game.EventScores {
		t.Errorf("correct guess published %v, want [scores]", got)
	}
}
