package game

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"wordrelay/internal/grammar"
	"wordrelay/pkg/realtime"
)

// Status is a session's lifecycle state. It only moves forward.
type Status string

const (
	StatusLobby    Status = "lobby"
	StatusRunning  Status = "running"
	StatusFinished Status = "finished"
)

// Action kinds accepted by Game.Action.
const (
	ActionGuess          = "guess"
	ActionSubmitSentence = "submit_sentence"
	ActionCheatTabSwitch = "cheat_tab_switch"
)

// DefaultDuration is the countdown used when Settings leaves it unset.
const DefaultDuration = 10 * time.Minute

// Settings configures a new session. Zero values fall back to defaults.
type Settings struct {
	Duration time.Duration
	// Words is the exact sequence to play. When empty, Pool (or the embedded
	// bank) is repeated Repeat times and shuffled.
	Words        []string
	Pool         []string
	Repeat       int
	CheatPenalty int
	DiceMin      int
	DiceMax      int
	Checker      grammar.Checker
	// Seed makes scrambles and dice rolls reproducible when non-zero.
	Seed int64
}

func (s Settings) withDefaults() Settings {
	if s.Duration <= 0 {
		s.Duration = DefaultDuration
	}
	if s.CheatPenalty <= 0 {
		s.CheatPenalty = DefaultCheatPenalty
	}
	if s.DiceMin <= 0 {
		s.DiceMin = DefaultDiceMin
	}
	if s.DiceMax <= 0 {
		s.DiceMax = DefaultDiceMax
	}
	if _, ok := s.Checker.(*grammar.Fallback); !ok {
		s.Checker = &grammar.Fallback{Primary: s.Checker, Secondary: grammar.Heuristic{}}
	}
	if s.Repeat <= 0 {
		s.Repeat = DefaultWordRepeat
	}
	if s.Seed == 0 {
		s.Seed = time.Now().UnixNano()
	}
	return s
}

// Game holds the state for a single session. mu guards the lifecycle and the
// team index; each Team guards its own progress.
type Game struct {
	mu         sync.Mutex
	ID         string
	CreatedAt  time.Time
	HostToken  string
	Countdown  realtime.Countdown
	Status     Status
	words      []string
	teams      map[string]*Team
	exhausted  map[string]bool
	lastActive time.Time
	settings   Settings
	seeds      *rand.Rand
}

// NewGame creates a session in the lobby. An empty word list uses the
// embedded bank.
func NewGame(s Settings) *Game {
	s = s.withDefaults()
	seeds := rand.New(rand.NewSource(s.Seed))
	words := append([]string(nil), s.Words...)
	if len(words) == 0 {
		pool := s.Pool
		if len(pool) == 0 {
			var err error
			if pool, err = LoadWords(""); err != nil {
				log.Error().Err(err).Msg("embedded word list unreadable")
			}
		}
		words = BuildSequence(pool, s.Repeat, seeds)
	}
	now := time.Now().UTC()
	return &Game{
		ID:         newID(),
		CreatedAt:  now,
		HostToken:  uuid.NewString(),
		Countdown:  realtime.Countdown{Duration: s.Duration},
		Status:     StatusLobby,
		words:      words,
		teams:      make(map[string]*Team),
		exhausted:  make(map[string]bool),
		lastActive: now,
		settings:   s,
		seeds:      seeds,
	}
}

// Words returns a copy of the session's word sequence.
func (g *Game) Words() []string {
	return append([]string(nil), g.words...)
}

// IsHost reports whether token is the session's host token.
func (g *Game) IsHost(token string) bool {
	return token != "" && token == g.HostToken
}

// LastActive returns the last time anyone touched the session.
func (g *Game) LastActive() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastActive
}

// Join registers a player on teamName, creating the team on first use.
func (g *Game) Join(teamName, playerName string, role Role, now time.Time) (*Team, Player, error) {
	key := normalizeTeamName(teamName)
	if key == "" {
		return nil, Player{}, ErrEmptyTeamName
	}
	g.mu.Lock()
	g.lastActive = now
	team, ok := g.teams[key]
	if !ok {
		team = newTeam(key, rand.New(rand.NewSource(g.seeds.Int63())))
		g.teams[key] = team
	}
	g.mu.Unlock()

	p := &Player{
		Token:    uuid.NewString(),
		Name:     playerName,
		Role:     role,
		JoinedAt: now,
	}
	team.addPlayer(p)
	return team, *p, nil
}

// Team looks up a team by name.
func (g *Game) Team(name string) (*Team, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	t, ok := g.teams[normalizeTeamName(name)]
	return t, ok
}

// Start moves the session from lobby to running.
func (g *Game) Start(now time.Time) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Status != StatusLobby {
		return ErrAlreadyStarted
	}
	g.Status = StatusRunning
	g.Countdown.Start(now)
	g.lastActive = now
	return nil
}

// clockLocked applies lazy expiry and returns the status and seconds left.
func (g *Game) clockLocked(now time.Time) (Status, int) {
	if g.Status == StatusRunning && g.Countdown.Expired(now) {
		g.Status = StatusFinished
		log.Info().Str("game", g.ID).Msg("countdown expired")
	}
	if g.Status != StatusRunning {
		return g.Status, 0
	}
	return g.Status, int(g.Countdown.Remaining(now) / time.Second)
}

// State returns the lifecycle state and seconds left, expiring the session
// if its countdown ran out.
func (g *Game) State(now time.Time) (Status, int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.clockLocked(now)
}

func (g *Game) touch(teamName string, now time.Time) (Status, int, *Team) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastActive = now
	status, left := g.clockLocked(now)
	return status, left, g.teams[normalizeTeamName(teamName)]
}

// markExhausted finishes the session once every team has run out of words.
func (g *Game) markExhausted(team string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.exhausted[team] = true
	if g.Status == StatusRunning && len(g.exhausted) == len(g.teams) {
		g.Status = StatusFinished
		log.Info().Str("game", g.ID).Msg("all teams out of words")
	}
}

// View is the polled state for one player.
type View struct {
	State     Status
	TimeLeft  int
	TeamScore int
	Role      Role
	P1        *P1View
	P2        *P2View
}

// Sync returns the player's view, creating the cached scramble or rolling
// the sentence length as needed. Unknown teams or tokens get a bare lobby
// view.
func (g *Game) Sync(teamName, token string, now time.Time) View {
	status, left, team := g.touch(teamName, now)
	if team == nil {
		return View{State: StatusLobby}
	}
	rv, ok := team.view(token, g.words, g.settings.DiceMin, g.settings.DiceMax)
	if !ok {
		return View{State: StatusLobby}
	}
	return View{
		State:     status,
		TimeLeft:  left,
		TeamScore: rv.score,
		Role:      rv.role,
		P1:        rv.p1,
		P2:        rv.p2,
	}
}

// Action applies one player action. The returned error is set for lookup,
// lifecycle and role failures; the Outcome is always usable as a response.
func (g *Game) Action(ctx context.Context, teamName, token, kind, value string, now time.Time) (Outcome, error) {
	status, _, team := g.touch(teamName, now)
	running := func() bool {
		status, _ := g.State(now)
		return status == StatusRunning
	}
	if team == nil {
		return rejected("Unknown team."), ErrTeamNotFound
	}
	player, ok := team.Player(token)
	if !ok {
		return rejected("Unknown player."), ErrPlayerNotFound
	}

	switch kind {
	case ActionCheatTabSwitch:
		return team.cheat(g.settings.CheatPenalty), nil

	case ActionGuess:
		if player.Role != RoleP1 {
			return rejected("Only P1 can guess."), ErrWrongRole
		}
		out, exhausted := team.guess(value, g.words, running)
		if exhausted {
			g.markExhausted(team.Name)
		}
		if out.Status == ResultError {
			return out, ErrNotRunning
		}
		return out, nil

	case ActionSubmitSentence:
		if player.Role != RoleP2 {
			return rejected("Only P2 can submit sentences."), ErrWrongRole
		}
		if status != StatusRunning {
			return rejected(msgNotRunning), ErrNotRunning
		}
		return g.submitSentence(ctx, team, value, now)
	}
	return rejected("Unknown action."), fmt.Errorf("%w: %q", ErrUnknownAction, kind)
}

// submitSentence validates under the team lock, releases it for the bounded
// grammar check, then commits under the lock again. The commit re-reads the
// clock advanced by the time the check took.
func (g *Game) submitSentence(ctx context.Context, team *Team, text string, now time.Time) (Outcome, error) {
	ticket, out, ok := team.beginSentence(text)
	if !ok {
		return out, nil
	}
	began := time.Now()
	verdict, err := g.settings.Checker.Check(ctx, ticket.text)
	if err != nil {
		log.Warn().Err(err).Str("game", g.ID).Str("team", team.Name).Msg("grammar check failed")
		return rejected("Could not check the sentence, try again."), err
	}
	if issue, bad := verdict.Rejection(); bad {
		return rejected(issue.Message), nil
	}
	return team.commitSentence(ticket, func() bool {
		status, _ := g.State(now.Add(time.Since(began)))
		return status == StatusRunning
	})
}

// ScoreEntry is one leaderboard row.
type ScoreEntry struct {
	Name  string
	Score int
}

// Leaderboard returns teams by score, highest first. limit <= 0 returns all.
func (g *Game) Leaderboard(limit int) []ScoreEntry {
	g.mu.Lock()
	teams := make([]*Team, 0, len(g.teams))
	for _, t := range g.teams {
		teams = append(teams, t)
	}
	g.mu.Unlock()

	scores := make([]ScoreEntry, 0, len(teams))
	for _, t := range teams {
		scores = append(scores, ScoreEntry{Name: t.Name, Score: t.Score()})
	}
	sortScores(scores)
	if limit > 0 && len(scores) > limit {
		scores = scores[:limit]
	}
	return scores
}

// Snapshot captures the session state needed by the host page.
type Snapshot struct {
	ID        string
	Status    Status
	TimeLeft  int
	Duration  time.Duration
	Words     int
	Teams     []ScoreEntry
	CreatedAt time.Time
}

// Snapshot returns a consistent view of the session.
func (g *Game) Snapshot(now time.Time) Snapshot {
	status, left := g.State(now)
	return Snapshot{
		ID:        g.ID,
		Status:    status,
		TimeLeft:  left,
		Duration:  g.Countdown.Duration,
		Words:     len(g.words),
		Teams:     g.Leaderboard(0),
		CreatedAt: g.CreatedAt,
	}
}

func sortScores(scores []ScoreEntry) {
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Score == scores[j].Score {
			return scores[i].Name < scores[j].Name
		}
		return scores[i].Score > scores[j].Score
	})
}
