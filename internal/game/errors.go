package game

import "errors"

var (
	ErrGameNotFound   = errors.New("game not found")
	ErrTeamNotFound   = errors.New("team not found")
	ErrPlayerNotFound = errors.New("player not found")
	ErrNotRunning     = errors.New("game not running")
	ErrAlreadyStarted = errors.New("game already started")
	ErrNotHost        = errors.New("not host")
	ErrWrongRole      = errors.New("action not allowed for role")
	ErrUnknownAction  = errors.New("unknown action")
	ErrEmptyTeamName  = errors.New("team name required")
)
