package grammar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// DefaultLanguageToolURL is the public LanguageTool check endpoint.
const DefaultLanguageToolURL = "https://api.languagetool.org/v2/check"

// LanguageTool talks to a LanguageTool compatible /v2/check endpoint.
type LanguageTool struct {
	Endpoint string
	Language string
	Client   *http.Client
}

// NewLanguageTool returns a client for endpoint using language (e.g. "en-US").
func NewLanguageTool(endpoint, language string) *LanguageTool {
	if language == "" {
		language = "en-US"
	}
	return &LanguageTool{
		Endpoint: endpoint,
		Language: language,
		Client:   &http.Client{Timeout: DefaultTimeout},
	}
}

type ltResponse struct {
	Matches []struct {
		Message string `json:"message"`
		Rule    struct {
			IssueType string `json:"issueType"`
			Category  struct {
				ID string `json:"id"`
			} `json:"category"`
		} `json:"rule"`
	} `json:"matches"`
}

// Check posts text and maps every match to an Issue. Any failure to get a
// well-formed 200 answer is reported as ErrUnavailable.
func (lt *LanguageTool) Check(ctx context.Context, text string) (Verdict, error) {
	form := url.Values{}
	form.Set("text", text)
	form.Set("language", lt.Language)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, lt.Endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return Verdict{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	client := lt.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return Verdict{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return Verdict{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var parsed ltResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Verdict{}, fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}

	v := Verdict{Source: "languagetool"}
	for _, m := range parsed.Matches {
		issue := Issue{Category: m.Rule.Category.ID, Message: m.Message}
		// Category ids vary by language; issueType is the stable signal.
		if byType := (Issue{Category: m.Rule.IssueType}); issue.Category == "" || (!issue.Blocking() && byType.Blocking()) {
			issue.Category = m.Rule.IssueType
		}
		v.Issues = append(v.Issues, issue)
	}
	return v, nil
}
