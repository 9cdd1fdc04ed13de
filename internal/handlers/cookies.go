package handlers

import (
	"net/http"
	"net/url"
	"strings"
	"time"
)

const cookieTTL = 24 * time.Hour

func setCookie(w http.ResponseWriter, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    url.QueryEscape(value),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(cookieTTL),
	})
}

func readCookie(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	v, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return ""
	}
	return v
}

func hostCookieName(gameID string) string {
	return "wordrelay_host_" + strings.ToUpper(gameID)
}

func teamCookieName(gameID string) string {
	return "wordrelay_team_" + strings.ToUpper(gameID)
}

func playerCookieName(gameID string) string {
	return "wordrelay_player_" + strings.ToUpper(gameID)
}

// identity returns the team and token a request acts as. Explicit values in
// the body win over cookies so non-browser clients can drive the API.
func identity(r *http.Request, gameID, team, token string) (string, string) {
	if team == "" {
		team = readCookie(r, teamCookieName(gameID))
	}
	if token == "" {
		token = readCookie(r, playerCookieName(gameID))
	}
	return team, token
}
