package grammar

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHeuristic_Check(t *testing.T) {
	cases := []struct {
		text string
		ok   bool
	}{
		{"The cloud is big.", true},
		{"Is the cache warm?", true},
		{"Binary rules!", true},
		{"  Trailing spaces are trimmed.  ", true},
		{"the cloud is big.", false},
		{"The cloud is big", false},
		{"", false},
		{"1 cloud is big.", false},
	}
	for _, tc := range cases {
		v, err := Heuristic{}.Check(context.Background(), tc.text)
		if err != nil {
			t.Fatalf("Heuristic.Check(%q): %v", tc.text, err)
		}
		_, rejected := v.Rejection()
		if rejected == tc.ok {
			t.Errorf("Heuristic.Check(%q) rejected=%t, want ok=%t", tc.text, rejected, tc.ok)
		}
	}
}

func TestIssue_Blocking(t *testing.T) {
	for _, c := range []string{"GRAMMAR", "TYPOS", "misspelling", "grammar"} {
		if !(Issue{Category: c}).Blocking() {
			t.Errorf("category %q should block", c)
		}
	}
	for _, c := range []string{"STYLE", "PUNCTUATION", "whitespace", ""} {
		if (Issue{Category: c}).Blocking() {
			t.Errorf("category %q should not block", c)
		}
	}
}

func TestLanguageTool_Check_ReportsIssues(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}
		if got := r.FormValue("language"); got != "en-US" {
			t.Errorf("language %q, want en-US", got)
		}
		if got := r.FormValue("text"); got != "He go home." {
			t.Errorf("text %q, want He go home.", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"matches":[
			{"message":"Consider a comma.","rule":{"issueType":"style","category":{"id":"STYLE"}}},
			{"message":"Use 'goes'.","rule":{"issueType":"grammar","category":{"id":"GRAMMAR"}}}
		]}`))
	}))
	defer srv.Close()

	lt := NewLanguageTool(srv.URL, "en-US")
	v, err := lt.Check(context.Background(), "He go home.")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if len(v.Issues) != 2 {
		t.Fatalf("len(Issues) %d, want 2", len(v.Issues))
	}
	issue, rejected := v.Rejection()
	if !rejected {
		t.Fatal("grammar match should reject")
	}
	if issue.Message != "Use 'goes'." {
		t.Errorf("Message %q, want Use 'goes'.", issue.Message)
	}
}

func TestLanguageTool_Check_IssueTypeFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"matches":[{"message":"Possible typo.","rule":{"issueType":"misspelling","category":{"id":"HILFSVERBEN"}}}]}`))
	}))
	defer srv.Close()

	v, err := NewLanguageTool(srv.URL, "de-DE").Check(context.Background(), "Das ist fallsch.")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if _, rejected := v.Rejection(); !rejected {
		t.Error("misspelling issue type should reject")
	}
}

func TestLanguageTool_Check_Non200IsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewLanguageTool(srv.URL, "").Check(context.Background(), "Hello there.")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("err %v, want ErrUnavailable", err)
	}
}

func TestLanguageTool_Check_BadJSONIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	_, err := NewLanguageTool(srv.URL, "").Check(context.Background(), "Hello there.")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("err %v, want ErrUnavailable", err)
	}
}

func TestFallback_UsesPrimaryVerdict(t *testing.T) {
	f := &Fallback{
		Primary: CheckerFunc(func(ctx context.Context, text string) (Verdict, error) {
			return Verdict{Source: "primary"}, nil
		}),
		Secondary: Heuristic{},
	}
	// lowercase start would fail the heuristic; primary says it is fine
	v, err := f.Check(context.Background(), "lowercase but fine")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if v.Source != "primary" {
		t.Errorf("Source %q, want primary", v.Source)
	}
}

func TestFallback_TimeoutUsesHeuristic(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(block)

	f := NewFallback(srv.URL, "en-US", 50*time.Millisecond)
	start := time.Now()
	v, err := f.Check(context.Background(), "no capital here.")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("fallback took %v, want it bounded by the timeout", elapsed)
	}
	if v.Source != "heuristic" {
		t.Errorf("Source %q, want heuristic", v.Source)
	}
	if _, rejected := v.Rejection(); !rejected {
		t.Error("heuristic should reject a sentence without a capital")
	}
}

func TestNewFallback_EmptyEndpointIsHeuristicOnly(t *testing.T) {
	f := NewFallback("", "en-US", time.Second)
	if f.Primary != nil {
		t.Error("Primary should be nil without an endpoint")
	}
	v, err := f.Check(context.Background(), "Fine sentence here.")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if v.Source != "heuristic" {
		t.Errorf("Source %q, want heuristic", v.Source)
	}
}
