package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/freeeve/polite-betrayal/planner/internal/auth"
	"github.com/freeeve/polite-betrayal/planner/internal/bot"
	"github.com/freeeve/polite-betrayal/planner/internal/model"
	"github.com/freeeve/polite-betrayal/planner/internal/service"
	"github.com/freeeve/polite-betrayal/planner/pkg/diplomacy"
)

// --- Mock Repositories ---

type mockPlanCache struct {
	mu   sync.Mutex
	jobs map[string]model.PlanJob
}

func (m *mockPlanCache) SetJob(_ context.Context, job *model.PlanJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job.ID] = *job
	return nil
}

func (m *mockPlanCache) GetJob(_ context.Context, id string) (*model.PlanJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, nil
	}
	return &job, nil
}

func (m *mockPlanCache) SetProgress(context.Context, string, float64) error { return nil }

type mockRunRepo struct {
	mu   sync.Mutex
	runs []model.PlanRun
}

func (m *mockRunRepo) Save(_ context.Context, run *model.PlanRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, *run)
	return nil
}

func (m *mockRunRepo) FindByID(_ context.Context, id string) (*model.PlanRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.runs {
		if r.ID == id {
			return &r, nil
		}
	}
	return nil, nil
}

func (m *mockRunRepo) ListRecent(_ context.Context, power string, limit int) ([]model.PlanRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.PlanRun
	for _, r := range m.runs {
		if power == "" || r.Power == power {
			out = append(out, r)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// --- Helpers ---

type env struct {
	svc   *service.PlanService
	hub   *Hub
	plans *PlanHandler
	jwt   *auth.JWTManager
}

func newEnv() *env {
	cfg := bot.DefaultSearchConfig()
	cfg.Iterations = 100
	cfg.ImportanceDepth = 1
	cfg.Seed = 11
	hub := NewHub()
	svc := service.NewPlanService(diplomacy.StandardMap(), cfg,
		&mockPlanCache{jobs: make(map[string]model.PlanJob)}, nil, &mockRunRepo{}, hub)
	return &env{svc: svc, hub: hub, plans: NewPlanHandler(svc), jwt: auth.NewJWTManager("test-secret")}
}

func asClient(r *http.Request, clientID string) *http.Request {
	return r.WithContext(auth.SetClientIDForTest(r.Context(), clientID))
}

func submit(t *testing.T, e *env, clientID, body string) (*httptest.ResponseRecorder, model.PlanJob) {
	t.Helper()
	req := asClient(httptest.NewRequest(http.MethodPost, "/api/v1/plans", strings.NewReader(body)), clientID)
	rec := httptest.NewRecorder()
	e.plans.Submit(rec, req)
	var job model.PlanJob
	if rec.Code == http.StatusAccepted {
		if err := json.Unmarshal(rec.Body.Bytes(), &job); err != nil {
			t.Fatalf("decode job: %v", err)
		}
	}
	return rec, job
}

func get(e *env, clientID, id string) *httptest.ResponseRecorder {
	req := asClient(httptest.NewRequest(http.MethodGet, "/api/v1/plans/"+id, nil), clientID)
	req.SetPathValue("id", id)
	rec := httptest.NewRecorder()
	e.plans.Get(rec, req)
	return rec
}

// waitDone polls until the plan leaves the running state.
func waitDone(t *testing.T, e *env, clientID, id string) model.PlanJob {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		rec := get(e, clientID, id)
		var job model.PlanJob
		json.Unmarshal(rec.Body.Bytes(), &job)
		if job.Status != model.PlanRunning {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("plan %s did not finish", id)
	return model.PlanJob{}
}

func planBody(power string) string {
	b, _ := json.Marshal(map[string]string{
		"dfen":  diplomacy.EncodeDFEN(diplomacy.NewInitialState()),
		"power": power,
	})
	return string(b)
}

// --- Plan Handler Tests ---

func TestSubmitAndGetPlan(t *testing.T) {
	e := newEnv()
	rec, job := submit(t, e, "client-1", planBody("france"))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	if job.Status != model.PlanRunning || job.Power != "france" {
		t.Fatalf("unexpected job %+v", job)
	}

	done := waitDone(t, e, "client-1", job.ID)
	if done.Status != model.PlanDone || done.Plan == nil {
		t.Fatalf("expected finished plan, got %+v", done)
	}
	if len(done.Plan.Orders) != 3 {
		t.Errorf("expected 3 orders, got %d", len(done.Plan.Orders))
	}
}

func TestSubmitPlanBadRequests(t *testing.T) {
	e := newEnv()
	dfen := diplomacy.EncodeDFEN(diplomacy.NewInitialState())
	tests := []struct {
		name string
		body string
	}{
		{"not json", "{"},
		{"missing power", `{"dfen":"` + dfen + `"}`},
		{"bad board", `{"dfen":"garbage","power":"france"}`},
		{"impossible board", `{"dfen":"1901sm/Eanth/Elon/-","power":"england"}`},
		{"bad power", `{"dfen":"` + dfen + `","power":"atlantis"}`},
		{"bad strategy", `{"dfen":"` + dfen + `","power":"france","strategy":"oracle"}`},
		{"bad config", `{"dfen":"` + dfen + `","power":"france","config":{"iterations":0}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := submit(t, e, "client-1", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestGetPlanOtherClient(t *testing.T) {
	e := newEnv()
	_, job := submit(t, e, "client-1", planBody("italy"))
	waitDone(t, e, "client-1", job.ID)

	if rec := get(e, "client-2", job.ID); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for another client, got %d", rec.Code)
	}
	if rec := get(e, "client-1", "missing"); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown plan, got %d", rec.Code)
	}
}

func TestCancelPlan(t *testing.T) {
	e := newEnv()
	body := `{"dfen":"` + diplomacy.EncodeDFEN(diplomacy.NewInitialState()) +
		`","power":"russia","config":{"iterations":1000000000,"cooling_rate":0.9,"restarts":1,"importance_depth":1,"fallback_temperature":1000}}`
	_, job := submit(t, e, "client-1", body)

	cancel := func() int {
		req := asClient(httptest.NewRequest(http.MethodDelete, "/api/v1/plans/"+job.ID, nil), "client-1")
		req.SetPathValue("id", job.ID)
		rec := httptest.NewRecorder()
		e.plans.Cancel(rec, req)
		return rec.Code
	}
	if code := cancel(); code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", code)
	}
	done := waitDone(t, e, "client-1", job.ID)
	if done.Plan == nil || !done.Plan.Aborted {
		t.Errorf("expected aborted plan, got %+v", done)
	}
	if code := cancel(); code != http.StatusConflict {
		t.Errorf("expected 409 when cancelling a finished plan, got %d", code)
	}
}

func TestListRuns(t *testing.T) {
	e := newEnv()
	_, job := submit(t, e, "client-1", planBody("germany"))
	waitDone(t, e, "client-1", job.ID)

	list := func(query string) *httptest.ResponseRecorder {
		req := asClient(httptest.NewRequest(http.MethodGet, "/api/v1/runs"+query, nil), "client-1")
		rec := httptest.NewRecorder()
		e.plans.ListRuns(rec, req)
		return rec
	}

	rec := list("?power=germany&limit=5")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var runs []model.PlanRun
	if err := json.Unmarshal(rec.Body.Bytes(), &runs); err != nil {
		t.Fatalf("decode runs: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != job.ID {
		t.Errorf("unexpected runs %+v", runs)
	}
	if rec := list("?limit=abc"); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad limit, got %d", rec.Code)
	}
	if rec := list("?power=atlantis"); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad power, got %d", rec.Code)
	}
}

func TestGetRun(t *testing.T) {
	e := newEnv()
	_, job := submit(t, e, "client-1", planBody("italy"))
	waitDone(t, e, "client-1", job.ID)

	getRun := func(id string) *httptest.ResponseRecorder {
		req := asClient(httptest.NewRequest(http.MethodGet, "/api/v1/runs/"+id, nil), "client-1")
		req.SetPathValue("id", id)
		rec := httptest.NewRecorder()
		e.plans.GetRun(rec, req)
		return rec
	}

	rec := getRun(job.ID)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var run model.PlanRun
	if err := json.Unmarshal(rec.Body.Bytes(), &run); err != nil {
		t.Fatalf("decode run: %v", err)
	}
	if run.ID != job.ID || run.Power != "italy" {
		t.Errorf("unexpected run %+v", run)
	}
	if rec := getRun("missing"); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown run, got %d", rec.Code)
	}
}

func TestStrategies(t *testing.T) {
	e := newEnv()
	rec := httptest.NewRecorder()
	e.plans.Strategies(rec, httptest.NewRequest(http.MethodGet, "/api/v1/strategies", nil))
	var names []string
	json.Unmarshal(rec.Body.Bytes(), &names)
	if len(names) != len(bot.StrategyNames) {
		t.Errorf("expected %v, got %v", bot.StrategyNames, names)
	}
}

// --- Auth Handler Tests ---

func TestIssueToken(t *testing.T) {
	jwtMgr := auth.NewJWTManager("test-secret")
	h := NewAuthHandler(jwtMgr, true)

	rec := httptest.NewRecorder()
	h.IssueToken(rec, httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(`{"client_id":"bot-7"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var tokens auth.TokenPair
	json.Unmarshal(rec.Body.Bytes(), &tokens)
	claims, err := jwtMgr.ValidateToken(tokens.AccessToken, auth.KindAccess)
	if err != nil || claims.ClientID != "bot-7" {
		t.Fatalf("expected access token for bot-7, got %v, %v", claims, err)
	}

	rec = httptest.NewRecorder()
	h.IssueToken(rec, httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(`{"client_id":"has space"}`)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad client id, got %d", rec.Code)
	}
}

func TestIssueTokenDisabled(t *testing.T) {
	h := NewAuthHandler(auth.NewJWTManager("test-secret"), false)
	rec := httptest.NewRecorder()
	h.IssueToken(rec, httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(`{"client_id":"bot"}`)))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 when dev auth is off, got %d", rec.Code)
	}
}

func TestRefreshToken(t *testing.T) {
	jwtMgr := auth.NewJWTManager("test-secret")
	h := NewAuthHandler(jwtMgr, false)
	pair, err := jwtMgr.GenerateTokenPair("client-1")
	if err != nil {
		t.Fatalf("token pair: %v", err)
	}

	refresh := func(token string) *httptest.ResponseRecorder {
		body := `{"refresh_token":"` + token + `"}`
		rec := httptest.NewRecorder()
		h.RefreshToken(rec, httptest.NewRequest(http.MethodPost, "/auth/refresh", strings.NewReader(body)))
		return rec
	}
	if rec := refresh(pair.RefreshToken); rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if rec := refresh(pair.AccessToken); rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for an access token, got %d", rec.Code)
	}
}

// --- WebSocket Tests ---

func TestWebSocketSubscribe(t *testing.T) {
	e := newEnv()
	ws := NewWSHandler(e.hub, e.svc)
	srv := httptest.NewServer(auth.Middleware(e.jwt)(http.HandlerFunc(ws.ServeWS)))
	defer srv.Close()

	token, err := e.jwt.GenerateAccessToken("client-1")
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	read := func() WSEvent {
		t.Helper()
		conn.SetReadDeadline(time.Now().Add(10 * time.Second))
		var event WSEvent
		if err := conn.ReadJSON(&event); err != nil {
			t.Fatalf("read: %v", err)
		}
		return event
	}
	if event := read(); event.Type != EventConnected {
		t.Fatalf("expected connected, got %s", event.Type)
	}

	conn.WriteJSON(ClientMessage{Action: "subscribe", PlanID: "missing"})
	if event := read(); event.Type != EventError {
		t.Fatalf("expected error for unknown plan, got %s", event.Type)
	}

	_, job := submit(t, e, "client-1", planBody("austria"))
	conn.WriteJSON(ClientMessage{Action: "subscribe", PlanID: job.ID})

	// Progress and completion may arrive before or after the status
	// snapshot; either a completion event or a finished snapshot ends it.
	sawStatus := false
	for {
		event := read()
		if event.PlanID != job.ID {
			t.Fatalf("event for wrong plan: %+v", event)
		}
		switch event.Type {
		case service.EventPlanProgress:
			continue
		case service.EventPlanCompleted:
			if !sawStatus {
				if next := read(); next.Type != EventPlanStatus {
					t.Fatalf("expected status snapshot, got %s", next.Type)
				}
			}
			return
		case EventPlanStatus:
			sawStatus = true
			data, _ := json.Marshal(event.Data)
			var snap model.PlanJob
			json.Unmarshal(data, &snap)
			if snap.Status == model.PlanDone {
				return
			}
		default:
			t.Fatalf("unexpected event %s", event.Type)
		}
	}
}

func TestWebSocketRequiresToken(t *testing.T) {
	e := newEnv()
	ws := NewWSHandler(e.hub, e.svc)
	srv := httptest.NewServer(auth.Middleware(e.jwt)(http.HandlerFunc(ws.ServeWS)))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("expected dial to fail without a token")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", resp)
	}
}
