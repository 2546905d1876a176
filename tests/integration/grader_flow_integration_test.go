//go:build integration

package integration_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"
)

// Exercises a running server end to end. Point GRADER_TEST_BASE_URL at the
// instance and GRADER_TEST_TOKEN at a provisioned account whose data
// directory carries practice gold labels.
func baseURL() string {
	if v := os.Getenv("GRADER_TEST_BASE_URL"); strings.TrimSpace(v) != "" {
		return strings.TrimRight(v, "/")
	}
	return "http://127.0.0.1:8080"
}

func testToken(t *testing.T) string {
	tok := os.Getenv("GRADER_TEST_TOKEN")
	if tok == "" {
		t.Skip("GRADER_TEST_TOKEN not set")
	}
	return tok
}

func TestSubmissionJourneyIntegration(t *testing.T) {
	client := &http.Client{Timeout: 10 * time.Second}
	base := baseURL()
	token := testToken(t)

	// Activate.
	var activate struct {
		Status  string `json:"status"`
		Account struct {
			Username string `json:"username"`
		} `json:"account"`
	}
	getJSON(t, client, base+"/dbqr-qa/activate?token="+token, &activate)
	if activate.Status != "ok" || activate.Account.Username == "" {
		t.Fatalf("unexpected activate response: %+v", activate)
	}

	// Submit a practice-shaped file. Answers are wrong on purpose; only
	// acceptance matters here.
	parts := make([]string, 0, 5)
	for _, c := range []string{"c1", "c2", "c3", "c4", "c5"} {
		parts = append(parts, `"`+c+`": {"q1": "integration"}`)
	}
	body := "{" + strings.Join(parts, ",") + "}"

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("token", token); err != nil {
		t.Fatal(err)
	}
	part, err := mw.CreateFormFile("file", "answers.json")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write([]byte(body)); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	resp, err := client.Post(base+"/dbqr-qa/submit", mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatal(err)
	}
	var submit struct {
		Status string `json:"status"`
		Error  string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&submit); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	// missing_answers is acceptable when the deployment's gold labels use
	// different conversation ids; anything else is a wiring failure.
	if submit.Status != "ok" && submit.Error != "missing_answers" {
		t.Fatalf("unexpected submit response: %+v", submit)
	}

	// History responds with the pagination envelope either way.
	var history struct {
		Status    string `json:"status"`
		PageCount int    `json:"pageCount"`
		Remaining int    `json:"remaining"`
	}
	getJSON(t, client, base+"/dbqr-qa/history?token="+token+"&page=1", &history)
	if history.Status != "ok" || history.PageCount < 1 {
		t.Fatalf("unexpected history response: %+v", history)
	}

	// Leaderboard always carries the three stage tables.
	var leaderboard struct {
		Status string                      `json:"status"`
		Scores map[string][]map[string]any `json:"scores"`
	}
	getJSON(t, client, base+"/dbqr-qa/leaderboard", &leaderboard)
	if leaderboard.Status != "ok" {
		t.Fatalf("unexpected leaderboard response: %+v", leaderboard)
	}
	for _, stage := range []string{"practice", "training", "test"} {
		if _, ok := leaderboard.Scores[stage]; !ok {
			t.Fatalf("leaderboard missing stage %q", stage)
		}
	}
}

func getJSON(t *testing.T, client *http.Client, url string, out any) {
	t.Helper()
	resp, err := client.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode %s: %v", url, err)
	}
}
