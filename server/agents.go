package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/sanghalabs/bodhikit/store"
)

func (s *Server) handleListAgents(w http.ResponseWriter, r *http.Request) {
	var (
		agents []*store.Agent
		err    error
	)
	if query := r.URL.Query().Get("q"); query != "" {
		agents, err = s.agents.Search(r.Context(), query)
	} else {
		agents, err = s.agents.List(r.Context())
	}
	if err != nil {
		s.logger.Error("list agents failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "could not list agents")
		return
	}

	buddhist := make([]*store.Agent, 0, len(agents))
	for _, agent := range agents {
		if agent.AgentType == store.AgentTypeBuddhist {
			buddhist = append(buddhist, agent)
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"agents": buddhist,
		"count":  len(buddhist),
	})
}

func (s *Server) handleGetAgent(w http.ResponseWriter, r *http.Request) {
	agent, err := s.loadBuddhistAgent(w, r, r.PathValue("id"))
	if err != nil {
		return
	}
	s.writeJSON(w, http.StatusOK, agent)
}

type agentPayload struct {
	Name         *string  `json:"name"`
	Description  *string  `json:"description"`
	Language     *string  `json:"language"`
	SystemPrompt *string  `json:"system_prompt"`
	Model        *string  `json:"model"`
	Temperature  *float64 `json:"temperature"`
	Status       *string  `json:"status"`
}

func (s *Server) handleCreateAgent(w http.ResponseWriter, r *http.Request) {
	var req agentPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == nil || *req.Name == "" {
		s.writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	now := time.Now().UTC()
	agent := &store.Agent{
		ID:        uuid.NewString(),
		Name:      *req.Name,
		AgentType: store.AgentTypeBuddhist,
		Language:  "en",
		Model:     s.cfg.Model,
		Status:    store.AgentStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyAgentPayload(agent, &req)

	if err := s.agents.Create(r.Context(), agent); err != nil {
		s.logger.Error("create agent failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "could not create agent")
		return
	}
	s.writeJSON(w, http.StatusCreated, agent)
}

func (s *Server) handleUpdateAgent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req agentPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	agent, err := s.loadBuddhistAgent(w, r, id)
	if err != nil {
		return
	}
	applyAgentPayload(agent, &req)
	agent.UpdatedAt = time.Now().UTC()

	if err := s.agents.Update(r.Context(), agent); err != nil {
		s.logger.Error("update agent failed", "agent_id", id, "error", err)
		s.writeError(w, http.StatusInternalServerError, "could not update agent")
		return
	}
	s.writeJSON(w, http.StatusOK, agent)
}

func (s *Server) handleDeleteAgent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.loadBuddhistAgent(w, r, id); err != nil {
		return
	}
	if err := s.agents.Delete(r.Context(), id); err != nil {
		s.logger.Error("delete agent failed", "agent_id", id, "error", err)
		s.writeError(w, http.StatusInternalServerError, "could not delete agent")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

// loadBuddhistAgent fetches an agent and writes the error response itself
// when the agent is missing or not a Buddhist agent.
func (s *Server) loadBuddhistAgent(w http.ResponseWriter, r *http.Request, id string) (*store.Agent, error) {
	agent, err := s.agents.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "agent not found")
			return nil, err
		}
		s.logger.Error("get agent failed", "agent_id", id, "error", err)
		s.writeError(w, http.StatusInternalServerError, "could not load agent")
		return nil, err
	}
	if agent.AgentType != store.AgentTypeBuddhist {
		s.writeError(w, http.StatusNotFound, "agent not found")
		return nil, store.ErrNotFound
	}
	return agent, nil
}

func applyAgentPayload(agent *store.Agent, req *agentPayload) {
	if req.Name != nil && *req.Name != "" {
		agent.Name = *req.Name
	}
	if req.Description != nil {
		agent.Description = *req.Description
	}
	if req.Language != nil && *req.Language != "" {
		agent.Language = *req.Language
	}
	if req.SystemPrompt != nil {
		agent.SystemPrompt = *req.SystemPrompt
	}
	if req.Model != nil && *req.Model != "" {
		agent.Model = *req.Model
	}
	if req.Temperature != nil {
		agent.Temperature = *req.Temperature
	}
	if req.Status != nil && *req.Status != "" {
		agent.Status = store.AgentStatus(*req.Status)
	}
}

func (s *Server) handleAgentKnowledge(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	entries, err := s.knowledge.ListByAgent(r.Context(), id)
	if err != nil {
		s.logger.Error("list knowledge failed", "agent_id", id, "error", err)
		s.writeError(w, http.StatusInternalServerError, "could not load knowledge")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"entries": entries,
		"count":   len(entries),
	})
}
