package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sanghalabs/bodhikit"
	"github.com/sanghalabs/bodhikit/internal/logging"
	"github.com/sanghalabs/bodhikit/providers"
	"github.com/sanghalabs/bodhikit/providers/mock"
	"github.com/sanghalabs/bodhikit/store"
)

type fixture struct {
	server    *Server
	provider  *mock.Provider
	agents    store.AgentStore
	knowledge store.KnowledgeStore
	approvals *bodhikit.Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	agents := store.NewMemoryAgentStore()
	knowledge := store.NewMemoryKnowledgeStore()
	users := store.NewMemoryUserStore()
	apiKeys := store.NewMemoryAPIKeyStore()

	provider := mock.New()

	registry := bodhikit.NewRegistry()
	if err := bodhikit.RegisterBuilderTools(registry, agents, knowledge, provider); err != nil {
		t.Fatalf("register tools: %v", err)
	}

	approvals := bodhikit.NewManager(bodhikit.ManagerConfig{})
	gateway := bodhikit.NewGateway(bodhikit.GatewayConfig{Registry: registry, Approvals: approvals})
	resolver := bodhikit.NewResolver(bodhikit.ResolverConfig{Registry: registry, Approvals: approvals})

	silent := logging.LoggingConfig{}.Silent()
	builder, err := bodhikit.NewBuilder(bodhikit.Config{
		Provider: provider,
		Registry: registry,
		Gateway:  gateway,
		Resolver: resolver,
		Logging:  *silent,
	})
	if err != nil {
		t.Fatalf("new builder: %v", err)
	}

	cfg := DefaultConfig()
	cfg.JWTSecret = "test-secret"

	srv := New(cfg, Deps{
		Builder:   builder,
		Approvals: approvals,
		Agents:    agents,
		Knowledge: knowledge,
		Users:     users,
		APIKeys:   apiKeys,
		Logger:    logging.ResolveLogger(*silent),
	})

	return &fixture{
		server:    srv,
		provider:  provider,
		agents:    agents,
		knowledge: knowledge,
		approvals: approvals,
	}
}

func (f *fixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

func (f *fixture) signup(t *testing.T) string {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email":    "ananda@example.com",
		"password": "impermanence",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup status %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode signup response: %v", err)
	}
	return resp.Token
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestSignupAndSignin(t *testing.T) {
	f := newFixture(t)
	token := f.signup(t)
	if token == "" {
		t.Fatal("expected a token")
	}

	rec := f.do(t, http.MethodPost, "/api/auth/signin", "", map[string]string{
		"email":    "ananda@example.com",
		"password": "impermanence",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("signin status %d: %s", rec.Code, rec.Body.String())
	}

	rec = f.do(t, http.MethodPost, "/api/auth/signin", "", map[string]string{
		"email":    "ananda@example.com",
		"password": "wrong-password",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad password, got %d", rec.Code)
	}
}

func TestSignup_RejectsShortPassword(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email":    "a@example.com",
		"password": "short",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestSignup_RejectsDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	f.signup(t)
	rec := f.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email":    "ananda@example.com",
		"password": "impermanence",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	f := newFixture(t)
	for _, path := range []string{"/api/agents", "/api/approvals"} {
		rec := f.do(t, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", path, rec.Code)
		}
	}

	rec := f.do(t, http.MethodGet, "/api/agents", "not-a-real-token", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for a bad token, got %d", rec.Code)
	}
}

func TestAPIKeyAuth(t *testing.T) {
	f := newFixture(t)
	token := f.signup(t)

	rec := f.do(t, http.MethodPost, "/api/keys", token, map[string]string{"name": "ci"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create key status %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Key string `json:"key"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode key response: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/agents", nil)
	req.Header.Set("X-API-Key", resp.Key)
	out := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(out, req)
	if out.Code != http.StatusOK {
		t.Fatalf("api key auth status %d: %s", out.Code, out.Body.String())
	}
}

func TestListAgents_FiltersNonBuddhist(t *testing.T) {
	f := newFixture(t)
	token := f.signup(t)

	seeded := []*store.Agent{
		{ID: "b1", Name: "Metta Guide", AgentType: store.AgentTypeBuddhist},
		{ID: "g1", Name: "Generic", AgentType: "generic"},
	}
	for _, a := range seeded {
		if err := f.agents.Create(context.Background(), a); err != nil {
			t.Fatalf("seed agent: %v", err)
		}
	}

	rec := f.do(t, http.MethodGet, "/api/agents", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var resp struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Count != 1 {
		t.Fatalf("expected 1 agent, got %d", resp.Count)
	}

	rec = f.do(t, http.MethodGet, "/api/agents/g1", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for non-Buddhist agent, got %d", rec.Code)
	}
}

func TestAgentCRUDOverHTTP(t *testing.T) {
	f := newFixture(t)
	token := f.signup(t)

	rec := f.do(t, http.MethodPost, "/api/agents", token, map[string]any{
		"name":        "Metta Guide",
		"description": "kindness practice",
		"language":    "vi",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status %d: %s", rec.Code, rec.Body.String())
	}
	var created store.Agent
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created agent: %v", err)
	}
	if created.ID == "" || created.AgentType != store.AgentTypeBuddhist {
		t.Fatalf("unexpected created agent: %+v", created)
	}
	if created.Language != "vi" {
		t.Errorf("expected language vi, got %q", created.Language)
	}

	rec = f.do(t, http.MethodPut, "/api/agents/"+created.ID, token, map[string]any{
		"name":   "Renamed Guide",
		"status": "inactive",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status %d: %s", rec.Code, rec.Body.String())
	}
	updated, err := f.agents.Get(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("get updated agent: %v", err)
	}
	if updated.Name != "Renamed Guide" || updated.Status != store.AgentStatusInactive {
		t.Fatalf("update not applied: %+v", updated)
	}

	rec = f.do(t, http.MethodDelete, "/api/agents/"+created.ID, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status %d: %s", rec.Code, rec.Body.String())
	}
	if _, err := f.agents.Get(context.Background(), created.ID); err == nil {
		t.Fatal("expected the agent to be gone")
	}
}

func TestCreateAgent_RequiresName(t *testing.T) {
	f := newFixture(t)
	token := f.signup(t)

	rec := f.do(t, http.MethodPost, "/api/agents", token, map[string]any{"description": "no name"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAPIKeyListAndRevoke(t *testing.T) {
	f := newFixture(t)
	token := f.signup(t)

	rec := f.do(t, http.MethodPost, "/api/keys", token, map[string]string{"name": "ci"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create key status %d: %s", rec.Code, rec.Body.String())
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode key response: %v", err)
	}

	rec = f.do(t, http.MethodGet, "/api/keys", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list keys status %d", rec.Code)
	}
	var listed struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode list response: %v", err)
	}
	if listed.Count != 1 {
		t.Fatalf("expected 1 key, got %d", listed.Count)
	}

	rec = f.do(t, http.MethodDelete, "/api/keys/"+created.ID, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("revoke status %d: %s", rec.Code, rec.Body.String())
	}

	rec = f.do(t, http.MethodDelete, "/api/keys/"+created.ID, token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for a revoked key, got %d", rec.Code)
	}
}

func TestListApprovals(t *testing.T) {
	f := newFixture(t)
	token := f.signup(t)

	_, err := f.approvals.Create(context.Background(), "delete_buddhist_agent", "d",
		map[string]any{"agent_id": "abc"}, "r")
	if err != nil {
		t.Fatalf("create approval: %v", err)
	}

	rec := f.do(t, http.MethodGet, "/api/approvals", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var resp struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Count != 1 {
		t.Fatalf("expected 1 pending approval, got %d", resp.Count)
	}
}

func TestChat_StreamsSSE(t *testing.T) {
	f := newFixture(t)
	token := f.signup(t)
	f.provider.WithTextStream("May you ", "be well.")

	rec := f.do(t, http.MethodPost, "/api/chat", token, bodhikit.ChatRequest{
		Messages: []providers.Message{{Role: providers.RoleUser, Content: "hello"}},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type %q", ct)
	}

	body := rec.Body.String()
	if !bytes.Contains([]byte(body), []byte("event: assistant_chunk")) {
		t.Errorf("expected chunk events: %s", body)
	}
	if !bytes.Contains([]byte(body), []byte("event: assistant_final")) {
		t.Errorf("expected a final event: %s", body)
	}
	if !bytes.Contains([]byte(body), []byte("data: [DONE]")) {
		t.Errorf("expected the done marker: %s", body)
	}
}

func TestChat_ApprovalRequestIsLastEvent(t *testing.T) {
	f := newFixture(t)
	token := f.signup(t)
	f.provider.WithToolCallStream("call-1", "delete_buddhist_agent", `{"agent_id":"abc"}`)

	rec := f.do(t, http.MethodPost, "/api/chat", token, bodhikit.ChatRequest{
		Messages: []providers.Message{{Role: providers.RoleUser, Content: "delete abc"}},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}

	body := rec.Body.String()
	approvalIdx := bytes.Index([]byte(body), []byte("event: approval_request"))
	if approvalIdx == -1 {
		t.Fatalf("expected an approval_request event: %s", body)
	}
	doneIdx := bytes.Index([]byte(body), []byte("event: done"))
	if doneIdx == -1 {
		t.Fatalf("expected the done event: %s", body)
	}
	// Nothing but the done marker may follow the approval request.
	between := body[approvalIdx:doneIdx]
	for _, evt := range []string{"assistant_chunk", "assistant_final", "tool_execution"} {
		if bytes.Contains([]byte(between), []byte("event: "+evt)) {
			t.Errorf("unexpected %s after approval_request", evt)
		}
	}
}

func TestChat_InvalidBody(t *testing.T) {
	f := newFixture(t)
	token := f.signup(t)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader([]byte("not json")))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
}
