package viewmodel

// HomePage holds data for the create-game form.
type HomePage struct {
	Title           string
	DefaultDuration int
}

// AdminPage holds data for the host's page.
type AdminPage struct {
	Title       string
	GameID      string
	JoinURL     string
	QRURL       string
	Status      string
	DurationMin int
	Words       int
	IsHost      bool
	Scores      []ScoreEntry
}

// JoinPage holds data for the join form.
type JoinPage struct {
	Title  string
	GameID string
	Status string
	Error  string
}

// PlayPage holds data for a player's page.
type PlayPage struct {
	Title      string
	GameID     string
	TeamName   string
	PlayerName string
	Role       string
}

// ScoreEntry holds a team's score for rendering and the leaderboard API.
type ScoreEntry struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// SyncResponse is the polled state for one player.
type SyncResponse struct {
	State     string  `json:"state"`
	TimeLeft  int     `json:"time_left"`
	TeamScore int     `json:"team_score"`
	P1Data    *P1Data `json:"p1_data,omitempty"`
	P2Data    *P2Data `json:"p2_data,omitempty"`
}

// P1Data is the word solver's payload.
type P1Data struct {
	Scrambled string `json:"scrambled"`
	Attempts  int    `json:"attempts"`
	Finished  bool   `json:"finished,omitempty"`
}

// P2Data is the sentence writer's payload.
type P2Data struct {
	Active     bool   `json:"active"`
	TargetWord string `json:"target_word"`
	DiceSum    *int   `json:"dice_sum"`
	Waiting    bool   `json:"waiting,omitempty"`
}

// SyncRequest optionally names the player; cookies are used otherwise.
type SyncRequest struct {
	Team  string `json:"team,omitempty"`
	Token string `json:"token,omitempty"`
}

// ActionRequest is a player action body.
type ActionRequest struct {
	Action string `json:"action"`
	Value  string `json:"value"`
	Team   string `json:"team,omitempty"`
	Token  string `json:"token,omitempty"`
}

// JoinResponse is returned to JSON clients after joining.
type JoinResponse struct {
	Team  string `json:"team"`
	Token string `json:"token"`
	Role  string `json:"role"`
}

// ActionResponse is the result of a player action.
type ActionResponse struct {
	Status string `json:"status"`
	Msg    string `json:"msg,omitempty"`
}

// CreateGameRequest is the JSON body for creating a game.
type CreateGameRequest struct {
	Duration int `json:"duration"`
}

// CreateGameResponse tells the host where to go next.
type CreateGameResponse struct {
	GameID   string `json:"game_id"`
	AdminURL string `json:"admin_url"`
	JoinURL  string `json:"join_url"`
}
