package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/dbqr-qa/grader/internal/middleware"
	"github.com/dbqr-qa/grader/internal/services"
	"github.com/dbqr-qa/grader/internal/store"
)

const (
	testToken    = "tok-alice"
	testPassword = "review-pass"
)

func practiceBody() string {
	parts := make([]string, 0, 5)
	for i := 1; i <= 5; i++ {
		parts = append(parts, fmt.Sprintf(`"c%d": {"q1": "a"}`, i))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func newTestServer(t *testing.T, limit int) (*httptest.Server, *store.FileStore) {
	t.Helper()
	root := t.TempDir()

	goldDir := filepath.Join(root, "gold", "compiled")
	require.NoError(t, os.MkdirAll(goldDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(goldDir, "practice.json"),
		[]byte(practiceBody()), 0o644))

	st := store.NewFileStore(root)
	require.NoError(t, st.SaveAccount(&services.Account{
		Username: "alice", Display: "Alice", Token: testToken,
	}))

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	stages := services.DefaultStages()
	quota := services.NewQuotaTracker(limit)
	evaluator := services.NewEvaluator(func(answer, label any) float64 {
		if answer == label {
			return 1
		}
		return 0
	})
	secret := []byte("test-secret")
	router := NewRouter(
		st,
		services.NewAccountService(st, quota),
		services.NewSubmissionService(st, store.NewGoldFiles(root), services.NewStageClassifier(stages), quota, evaluator),
		services.NewHistoryService(st, quota, 5),
		services.NewLeaderboardService(st, stages),
		services.NewReviewService(st),
		services.NewAdminService(string(hash), middleware.NewAdminSigner(secret)),
		secret,
		zap.NewNop(),
	)

	mux := http.NewServeMux()
	router.Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, st
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func submitFile(t *testing.T, srv *httptest.Server, token, filename, content string) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("token", token))
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	resp, err := http.Post(srv.URL+"/dbqr-qa/submit", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	var body map[string]any
	decodeBody(t, resp, &body)
	return body
}

func TestStatusAndRoot(t *testing.T) {
	srv, _ := newTestServer(t, 100)

	resp, err := http.Get(srv.URL + "/dbqr-qa/status")
	require.NoError(t, err)
	var body map[string]any
	decodeBody(t, resp, &body)
	assert.Equal(t, "ok", body["status"])

	resp, err = http.Get(srv.URL + "/")
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(raw), "DBQR-QA Grader")
}

func TestSubmitEndToEnd(t *testing.T) {
	srv, st := newTestServer(t, 2)

	// First and second submissions succeed.
	for i := 0; i < 2; i++ {
		body := submitFile(t, srv, testToken, "answers.json", practiceBody())
		assert.Equal(t, "ok", body["status"], "submission %d: %v", i+1, body)
	}

	// Third hits the daily limit and leaves history untouched.
	body := submitFile(t, srv, testToken, "answers.json", practiceBody())
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "submission_limit_exceeded", body["error"])

	records, err := st.LoadScores("alice")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 1, records[0].Entry)
	assert.Equal(t, 2, records[1].Entry)
	assert.Less(t, records[0].Timestamp, records[1].Timestamp)
}

func TestSubmitErrorEnvelopes(t *testing.T) {
	srv, _ := newTestServer(t, 100)

	body := submitFile(t, srv, "bad-token", "answers.json", practiceBody())
	assert.Equal(t, "invalid_token", body["error"])
	assert.Equal(t, "Invalid token.", body["message"])

	body = submitFile(t, srv, testToken, "", "")
	assert.Equal(t, "no_file", body["error"])

	body = submitFile(t, srv, testToken, "answers.txt", "x")
	assert.Equal(t, "invalid_file_type", body["error"])

	body = submitFile(t, srv, testToken, "answers.json", "{broken")
	assert.Equal(t, "incorrect_file", body["error"])

	body = submitFile(t, srv, testToken, "answers.json", `{"c1": {"q1": "a"}}`)
	assert.Equal(t, "stage_not_found", body["error"])
}

func TestHistoryEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, 100)
	submitFile(t, srv, testToken, "answers.json", practiceBody())

	resp, err := http.Get(srv.URL + "/dbqr-qa/history?token=" + testToken + "&page=1")
	require.NoError(t, err)
	var body struct {
		Status    string                 `json:"status"`
		History   []services.ScoreRecord `json:"history"`
		Records   int                    `json:"records"`
		Page      int                    `json:"page"`
		PageCount int                    `json:"pageCount"`
		PageSize  int                    `json:"pageSize"`
		Remaining int                    `json:"remaining"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, 1, body.Records)
	assert.Equal(t, 1, body.PageCount)
	assert.Equal(t, 5, body.PageSize)
	assert.Equal(t, 99, body.Remaining)
	require.Len(t, body.History, 1)
	assert.Equal(t, "Practice", body.History[0].Stage)

	// Non-numeric page falls back to 1.
	resp, err = http.Get(srv.URL + "/dbqr-qa/history?token=" + testToken + "&page=abc")
	require.NoError(t, err)
	decodeBody(t, resp, &body)
	assert.Equal(t, 1, body.Page)
}

func TestLeaderboardEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, 100)
	submitFile(t, srv, testToken, "answers.json", practiceBody())

	resp, err := http.Get(srv.URL + "/dbqr-qa/leaderboard")
	require.NoError(t, err)
	var body struct {
		Status string                                  `json:"status"`
		Scores map[string][]services.LeaderboardRow    `json:"scores"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, "ok", body.Status)
	require.Len(t, body.Scores["practice"], 1)
	assert.Equal(t, "Alice", body.Scores["practice"][0].Name)
	assert.InDelta(t, 1.0, body.Scores["practice"][0].GraderScore, 1e-9)
	assert.Empty(t, body.Scores["training"])
	assert.Empty(t, body.Scores["test"])
}

func TestRenameAndActivate(t *testing.T) {
	srv, _ := newTestServer(t, 100)

	resp, err := http.PostForm(srv.URL+"/dbqr-qa/username", url.Values{
		"token": {testToken}, "name": {"Team Alice"},
	})
	require.NoError(t, err)
	var body map[string]any
	decodeBody(t, resp, &body)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "Team Alice", body["name"])

	resp, err = http.Get(srv.URL + "/dbqr-qa/activate?token=" + testToken)
	require.NoError(t, err)
	var activate struct {
		Status  string            `json:"status"`
		Account *services.Account `json:"account"`
	}
	decodeBody(t, resp, &activate)
	assert.Equal(t, "ok", activate.Status)
	require.NotNil(t, activate.Account)
	assert.Equal(t, "Team Alice", activate.Account.Display)
}

func TestDownloadEndpoint(t *testing.T) {
	srv, st := newTestServer(t, 100)
	submitFile(t, srv, testToken, "answers.json", practiceBody())

	records, err := st.LoadScores("alice")
	require.NoError(t, err)
	require.Len(t, records, 1)

	resp, err := http.Get(srv.URL + "/dbqr-qa/download?token=" + testToken +
		"&timestamp=" + records[0].Timestamp)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, practiceBody(), string(raw))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), records[0].Timestamp)

	resp, err = http.Get(srv.URL + "/dbqr-qa/download?token=" + testToken + "&timestamp=nope")
	require.NoError(t, err)
	raw, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(raw), "Answer not found")
}

func TestAdminReviewFlow(t *testing.T) {
	srv, st := newTestServer(t, 100)
	submitFile(t, srv, testToken, "answers.json", practiceBody())
	records, err := st.LoadScores("alice")
	require.NoError(t, err)
	require.Len(t, records, 1)

	// Guarded endpoint rejects missing credentials.
	req, err := http.NewRequest(http.MethodPut, srv.URL+"/dbqr-qa/admin/scores",
		strings.NewReader(`{}`))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Login.
	resp, err = http.Post(srv.URL+"/dbqr-qa/admin/login", "application/json",
		strings.NewReader(`{"password": "`+testPassword+`"}`))
	require.NoError(t, err)
	var login map[string]any
	decodeBody(t, resp, &login)
	require.Equal(t, "ok", login["status"])
	token, _ := login["token"].(string)
	require.NotEmpty(t, token)

	// Write back a GPT score.
	payload := fmt.Sprintf(`{"username": "alice", "timestamp": %q, "gptScore": 0.91}`,
		records[0].Timestamp)
	req, err = http.NewRequest(http.MethodPut, srv.URL+"/dbqr-qa/admin/scores",
		strings.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	var updated map[string]any
	decodeBody(t, resp, &updated)
	assert.Equal(t, "ok", updated["status"])

	records, err = st.LoadScores("alice")
	require.NoError(t, err)
	require.True(t, records[0].GPTScore.Set)
	assert.InDelta(t, 0.91, records[0].GPTScore.Value, 1e-9)
	assert.False(t, records[0].HumanScore.Set)
}

func TestAdminProvisionAccount(t *testing.T) {
	srv, st := newTestServer(t, 100)

	resp, err := http.Post(srv.URL+"/dbqr-qa/admin/login", "application/json",
		strings.NewReader(`{"password": "`+testPassword+`"}`))
	require.NoError(t, err)
	var login map[string]any
	decodeBody(t, resp, &login)
	token, _ := login["token"].(string)
	require.NotEmpty(t, token)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/dbqr-qa/admin/accounts",
		strings.NewReader(`{"username": "team-7", "display": "Team Seven"}`))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	var created struct {
		Status  string            `json:"status"`
		Account *services.Account `json:"account"`
	}
	decodeBody(t, resp, &created)
	assert.Equal(t, "ok", created.Status)
	require.NotNil(t, created.Account)
	assert.NotEmpty(t, created.Account.Token)

	stored, err := st.GetAccount("team-7")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "Team Seven", stored.Display)
}
