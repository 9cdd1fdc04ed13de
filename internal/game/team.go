package game

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"
)

// Scoring rules.
const (
	AttemptBudget       = 5
	SolveBase           = 50
	AttemptBonus        = 10
	SkipPenalty         = 20
	PointsPerWord       = 5
	DefaultCheatPenalty = 100
	DefaultDiceMin      = 4
	DefaultDiceMax      = 10
)

// Role is a player's fixed job within a team.
type Role string

const (
	RoleP1 Role = "p1"
	RoleP2 Role = "p2"
)

// ParseRole maps user input to a role, defaulting to P1.
func ParseRole(s string) Role {
	if strings.ToLower(strings.TrimSpace(s)) == string(RoleP2) {
		return RoleP2
	}
	return RoleP1
}

// Result statuses returned to clients.
const (
	ResultCorrect  = "correct"
	ResultWrong    = "wrong"
	ResultSkip     = "skip"
	ResultFinished = "finished"
	ResultPenalty  = "penalty"
	ResultError    = "error"
)

// Outcome is the result of one player action.
type Outcome struct {
	Status string
	Msg    string
}

const msgNotRunning = "Game is not running."

func rejected(msg string) Outcome {
	return Outcome{Status: ResultError, Msg: msg}
}

// Player is one token holder on a team.
type Player struct {
	Token    string
	Name     string
	Role     Role
	JoinedAt time.Time
}

// Team tracks one team's progress. Every method takes mu for its whole
// read-modify-write, so concurrent pollers and actors on the same team are
// serialized while other teams proceed independently.
type Team struct {
	mu   sync.Mutex
	Name string

	score    int
	index    int
	attempts int
	solved   []string

	scrambleIdx int
	scrambled   string

	dice int
	// windowDone is set once a sentence is accepted for the latest solved word.
	windowDone bool
	// window increments on every solve so an in-flight sentence can tell the
	// target moved underneath it.
	window int

	used      map[string]struct{}
	sentences []string

	players map[string]*Player
	rng     *rand.Rand
}

func newTeam(name string, rng *rand.Rand) *Team {
	return &Team{
		Name:        name,
		attempts:    AttemptBudget,
		scrambleIdx: -1,
		used:        make(map[string]struct{}),
		players:     make(map[string]*Player),
		rng:         rng,
	}
}

func normalizeTeamName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

func (t *Team) addPlayer(p *Player) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.players[p.Token] = p
}

// Player returns a copy of the player holding token.
func (t *Team) Player(token string) (Player, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.players[token]
	if !ok {
		return Player{}, false
	}
	return *p, true
}

// Score returns the team's current score.
func (t *Team) Score() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.score
}

// Progress is a read-only copy of a team's counters.
type Progress struct {
	Name      string
	Score     int
	Index     int
	Attempts  int
	Solved    []string
	Sentences []string
	Players   int
}

// Progress returns a consistent copy of the team's state.
func (t *Team) Progress() Progress {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Progress{
		Name:      t.Name,
		Score:     t.score,
		Index:     t.index,
		Attempts:  t.attempts,
		Solved:    append([]string(nil), t.solved...),
		Sentences: append([]string(nil), t.sentences...),
		Players:   len(t.players),
	}
}

func (t *Team) target() string {
	if len(t.solved) == 0 {
		return ""
	}
	return t.solved[len(t.solved)-1]
}

// guess applies a P1 guess. running is consulted under the team lock so a
// guess racing the countdown is not scored. exhausted reports that this call
// moved the team past the last word.
func (t *Team) guess(text string, words []string, running func() bool) (out Outcome, exhausted bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.index >= len(words) {
		return Outcome{Status: ResultFinished}, false
	}
	if !running() {
		return rejected(msgNotRunning), false
	}

	actual := words[t.index]
	if strings.ToLower(strings.TrimSpace(text)) == strings.ToLower(strings.TrimSpace(actual)) {
		t.solved = append(t.solved, actual)
		t.score += SolveBase + t.attempts*AttemptBonus
		t.advanceLocked()
		t.dice = 0
		t.windowDone = false
		t.window++
		return Outcome{Status: ResultCorrect}, t.index >= len(words)
	}

	t.attempts--
	if t.attempts > 0 {
		return Outcome{Status: ResultWrong}, false
	}
	t.score -= SkipPenalty
	t.advanceLocked()
	return Outcome{
		Status: ResultSkip,
		Msg:    fmt.Sprintf("Out of attempts! The word was '%s'.", actual),
	}, t.index >= len(words)
}

func (t *Team) advanceLocked() {
	t.index++
	t.attempts = AttemptBudget
}

// cheat subtracts penalty from the score, never going below zero.
func (t *Team) cheat(penalty int) Outcome {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.score -= penalty
	if t.score < 0 {
		t.score = 0
	}
	return Outcome{Status: ResultPenalty}
}

// sentenceTicket captures the window a sentence was validated against.
type sentenceTicket struct {
	text     string
	window   int
	required int
}

// windowLocked returns the sentence length the current window needs, and
// whether the window's sentence was already accepted.
func (t *Team) windowLocked() (required int, waiting bool) {
	if t.windowDone {
		return 0, true
	}
	return t.dice, false
}

// beginSentence runs the structural checks under the lock.
func (t *Team) beginSentence(text string) (sentenceTicket, Outcome, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	required, waiting := t.windowLocked()
	if msg := checkSentence(text, t.target(), required, waiting, t.used); msg != "" {
		return sentenceTicket{}, rejected(msg), false
	}
	return sentenceTicket{
		text:     strings.TrimSpace(text),
		window:   t.window,
		required: required,
	}, Outcome{}, true
}

// commitSentence scores a sentence that already passed the grammar gate. The
// session may have ended and the window may have moved while the lock was
// released, so both are checked again against the current state.
func (t *Team) commitSentence(tk sentenceTicket, running func() bool) (Outcome, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !running() {
		return rejected(msgNotRunning), ErrNotRunning
	}
	required, waiting := t.windowLocked()
	if tk.window != t.window || tk.required != required {
		if msg := checkSentence(tk.text, t.target(), required, waiting, t.used); msg != "" {
			return rejected(msg), nil
		}
	} else if _, ok := t.used[sentenceKey(tk.text)]; ok {
		return rejected("Sentence already used."), nil
	}
	t.score += required * PointsPerWord
	t.used[sentenceKey(tk.text)] = struct{}{}
	t.sentences = append(t.sentences, tk.text)
	t.dice = 0
	t.windowDone = true
	return Outcome{Status: ResultCorrect}, nil
}

// P1View is what the word solver sees.
type P1View struct {
	Scrambled string
	Attempts  int
	Finished  bool
}

// P2View is what the sentence writer sees.
type P2View struct {
	Active         bool
	TargetWord     string
	RequiredLength int
	// Waiting is set after a sentence was accepted and before the next solve.
	Waiting bool
}

type roleView struct {
	role  Role
	score int
	p1    *P1View
	p2    *P2View
}

// view derives the role's view, caching the scramble and rolling the dice
// the first time they are needed for the current window.
func (t *Team) view(token string, words []string, diceMin, diceMax int) (roleView, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.players[token]
	if !ok {
		return roleView{}, false
	}
	rv := roleView{role: p.Role, score: t.score}

	switch p.Role {
	case RoleP1:
		v := &P1View{Attempts: t.attempts}
		if t.index < len(words) {
			if t.scrambleIdx != t.index {
				t.scrambled = Scramble(words[t.index], t.rng)
				t.scrambleIdx = t.index
			}
			v.Scrambled = t.scrambled
		} else {
			v.Finished = true
		}
		rv.p1 = v
	default:
		v := &P2View{Active: len(t.solved) > 0, TargetWord: t.target()}
		if v.Active && !t.windowDone && t.dice == 0 {
			t.dice = rollDice(t.rng, diceMin, diceMax)
		}
		v.RequiredLength = t.dice
		v.Waiting = v.Active && t.windowDone
		rv.p2 = v
	}
	return rv, true
}

func rollDice(rng *rand.Rand, lo, hi int) int {
	if hi < lo {
		lo, hi = hi, lo
	}
	return lo + rng.Intn(hi-lo+1)
}
