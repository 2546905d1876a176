package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/dbqr-qa/grader/internal/middleware"
	"github.com/dbqr-qa/grader/internal/services"
	"github.com/dbqr-qa/grader/internal/store"
)

const banner = "DBQR-QA Grader Version 0.1.0: Running"

// Router exposes the grader over HTTP. Endpoints return the JSON envelope
// {status: ok|error, error?, message?, ...}; transport concerns beyond that
// envelope stay here and never leak into the services.
type Router struct {
	store       store.Store
	accounts    *services.AccountService
	submissions *services.SubmissionService
	history     *services.HistoryService
	leaderboard *services.LeaderboardService
	review      *services.ReviewService
	admin       *services.AdminService
	jwtSecret   []byte
	logger      *zap.Logger
}

func NewRouter(
	st store.Store,
	accounts *services.AccountService,
	submissions *services.SubmissionService,
	history *services.HistoryService,
	leaderboard *services.LeaderboardService,
	review *services.ReviewService,
	admin *services.AdminService,
	jwtSecret []byte,
	logger *zap.Logger,
) *Router {
	return &Router{
		store:       st,
		accounts:    accounts,
		submissions: submissions,
		history:     history,
		leaderboard: leaderboard,
		review:      review,
		admin:       admin,
		jwtSecret:   jwtSecret,
		logger:      logger,
	}
}

func (rt *Router) Register(mux *http.ServeMux) {
	mux.HandleFunc("/", rt.handleRoot)
	mux.HandleFunc("/dbqr-qa/status", rt.handleStatus)
	mux.HandleFunc("/dbqr-qa/leaderboard", rt.handleLeaderboard)
	mux.HandleFunc("/dbqr-qa/activate", rt.handleActivate)
	mux.HandleFunc("/dbqr-qa/history", rt.handleHistory)
	mux.HandleFunc("/dbqr-qa/submit", rt.handleSubmit)   // POST
	mux.HandleFunc("/dbqr-qa/username", rt.handleRename) // POST
	mux.HandleFunc("/dbqr-qa/limit", rt.handleLimit)
	mux.HandleFunc("/dbqr-qa/download", rt.handleDownload)
	mux.HandleFunc("/dbqr-qa/admin/login", rt.handleAdminLogin) // POST

	guard := middleware.RequireAdmin(rt.jwtSecret)
	mux.Handle("/dbqr-qa/admin/scores", guard(http.HandlerFunc(rt.handleAdminScores)))     // PUT
	mux.Handle("/dbqr-qa/admin/accounts", guard(http.HandlerFunc(rt.handleAdminAccounts))) // POST
}

func (rt *Router) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		rt.logger.Error("encode response", zap.Error(err))
	}
}

func (rt *Router) ok(w http.ResponseWriter, payload map[string]any) {
	body := map[string]any{"status": "ok"}
	for k, v := range payload {
		body[k] = v
	}
	rt.writeJSON(w, body)
}

// fail writes a tagged error envelope for service errors and a bare 500 for
// everything else (storage-layer failures are fatal for the request only).
func (rt *Router) fail(w http.ResponseWriter, r *http.Request, err error) {
	if se, ok := services.AsServiceError(err); ok {
		rt.writeJSON(w, map[string]any{
			"status":  "error",
			"error":   string(se.Code),
			"message": se.Message,
		})
		return
	}
	rt.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func (rt *Router) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	fmt.Fprint(w, banner)
}

func (rt *Router) handleStatus(w http.ResponseWriter, r *http.Request) {
	rt.ok(w, nil)
}

func (rt *Router) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	table, err := rt.leaderboard.Table()
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	rt.ok(w, map[string]any{"scores": table})
}

func (rt *Router) handleActivate(w http.ResponseWriter, r *http.Request) {
	account, err := rt.accounts.Activate(r.FormValue("token"))
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	rt.ok(w, map[string]any{"account": account})
}

func (rt *Router) handleHistory(w http.ResponseWriter, r *http.Request) {
	account, err := rt.accounts.Activate(r.FormValue("token"))
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	page := 1
	if p := r.FormValue("page"); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			page = n
		}
	}
	result, err := rt.history.Page(account.Username, page)
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	rt.writeJSON(w, struct {
		Status string `json:"status"`
		*services.HistoryPage
	}{Status: "ok", HistoryPage: result})
}

func (rt *Router) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	req := services.SubmissionRequest{Token: r.FormValue("token")}
	if file, header, err := r.FormFile("file"); err == nil {
		defer file.Close()
		req.Filename = header.Filename
		req.File = file
	}
	if err := rt.submissions.Submit(req); err != nil {
		rt.fail(w, r, err)
		return
	}
	rt.ok(w, nil)
}

func (rt *Router) handleRename(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	account, err := rt.accounts.Rename(r.FormValue("token"), r.FormValue("name"))
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	rt.ok(w, map[string]any{"name": account.Display})
}

func (rt *Router) handleLimit(w http.ResponseWriter, r *http.Request) {
	remaining, err := rt.accounts.Remaining(r.FormValue("token"))
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	rt.ok(w, map[string]any{"remaining": remaining})
}

// handleDownload streams a stored raw answer file back to its owner. This
// endpoint predates the envelope and answers plain text on errors.
func (rt *Router) handleDownload(w http.ResponseWriter, r *http.Request) {
	account, err := rt.accounts.Activate(r.FormValue("token"))
	if err != nil {
		fmt.Fprint(w, "Invalid token.")
		return
	}
	timestamp := r.FormValue("timestamp")
	data, err := rt.store.ReadAnswers(account.Username, timestamp)
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	if data == nil {
		fmt.Fprintf(w, "Answer not found for %s", timestamp)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.json", timestamp))
	_, _ = w.Write(data)
}

func (rt *Router) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rt.fail(w, r, services.NewInvalidError("invalid request body"))
		return
	}
	token, err := rt.admin.Login(req.Password)
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	rt.ok(w, map[string]any{"token": token})
}

func (rt *Router) handleAdminScores(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Username   string   `json:"username"`
		Timestamp  string   `json:"timestamp"`
		GPTScore   *float64 `json:"gptScore"`
		HumanScore *float64 `json:"humanScore"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rt.fail(w, r, services.NewInvalidError("invalid request body"))
		return
	}
	rec, err := rt.review.SetSecondaryScores(req.Username, req.Timestamp, req.GPTScore, req.HumanScore)
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	rt.ok(w, map[string]any{"record": rec})
}

func (rt *Router) handleAdminAccounts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Username string `json:"username"`
		Display  string `json:"display"`
		Email    string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rt.fail(w, r, services.NewInvalidError("invalid request body"))
		return
	}
	account, err := rt.accounts.Create(req.Username, req.Display, req.Email)
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	rt.ok(w, map[string]any{"account": account})
}
