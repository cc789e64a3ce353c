package bodhikit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sanghalabs/bodhikit/providers"
	"github.com/sanghalabs/bodhikit/store"
)

// updatableAgentFields names the agent fields a model-driven update may
// touch. Everything else is rejected before the store is consulted.
var updatableAgentFields = map[string]struct{}{
	"name":          {},
	"description":   {},
	"language":      {},
	"system_prompt": {},
	"model":         {},
	"temperature":   {},
	"status":        {},
}

// RegisterBuilderTools registers the Buddhist agent builder toolset against
// the given stores and provider. Sensitive tools are declared here; the
// Gateway decides which of them require approval. The provider backs the
// test tool only; everything else runs locally.
func RegisterBuilderTools(reg *Registry, agents store.AgentStore, knowledge store.KnowledgeStore, provider providers.Provider) error {
	tools := []Tool{
		createAgentTool(agents),
		updateAgentTool(agents),
		deleteAgentTool(agents),
		listAgentsTool(agents),
		getAgentTool(agents),
		searchAgentsTool(agents),
		testAgentTool(agents, provider),
		getTeachingsTool(),
		addKnowledgeTool(knowledge),
		searchKnowledgeTool(knowledge),
		addTeachingExampleTool(knowledge),
		addUserInsightTool(knowledge),
		meditationGuideTool(),
		mindfulnessExerciseTool(),
		compassionPracticeTool(),
		lifeGuidanceTool(),
		studyReviewTool(),
		knowledgeTestTool(),
		poetryTool(),
	}
	for _, t := range tools {
		if err := reg.Register(t); err != nil {
			return err
		}
	}
	return nil
}

func createAgentTool(agents store.AgentStore) Tool {
	return NewTool("create_buddhist_agent").
		WithDescription("Create a new Buddhist agent with the given name, description and configuration").
		WithParameter("name", String().WithDescription("Display name of the agent").Required()).
		WithParameter("description", String().WithDescription("What this agent is for")).
		WithParameter("language", String().WithEnum("en", "vi").WithDescription("Agent language")).
		WithParameter("system_prompt", String().WithDescription("System prompt guiding the agent")).
		WithParameter("model", String().WithDescription("Model identifier")).
		WithParameter("temperature", Number().WithDescription("Sampling temperature")).
		WithHandler(func(ctx context.Context, args map[string]any) (any, error) {
			name, _ := args["name"].(string)
			if name == "" {
				return nil, &ValidationError{Field: "name", Reason: "name is required"}
			}

			now := time.Now().UTC()
			agent := &store.Agent{
				ID:           uuid.NewString(),
				Name:         name,
				Description:  stringArg(args, "description"),
				AgentType:    store.AgentTypeBuddhist,
				Language:     defaultString(stringArg(args, "language"), "en"),
				SystemPrompt: stringArg(args, "system_prompt"),
				Model:        defaultString(stringArg(args, "model"), defaultModel),
				Temperature:  floatArg(args, "temperature"),
				Status:       store.AgentStatusActive,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			if err := agents.Create(ctx, agent); err != nil {
				return nil, &ExecutionError{Tool: "create_buddhist_agent", Err: err}
			}
			return map[string]any{
				"agent_id": agent.ID,
				"message":  fmt.Sprintf("Buddhist agent '%s' created", agent.Name),
			}, nil
		}).
		Build()
}

func updateAgentTool(agents store.AgentStore) Tool {
	return NewTool("update_buddhist_agent").
		WithDescription("Update fields of an existing Buddhist agent").
		WithParameter("agent_id", String().WithDescription("Identifier of the agent to update").Required()).
		WithParameter("updates", Object().WithDescription("Fields to change and their new values").Required()).
		WithHandler(func(ctx context.Context, args map[string]any) (any, error) {
			agentID, _ := args["agent_id"].(string)
			if agentID == "" {
				return nil, &ValidationError{Field: "agent_id", Reason: "agent_id is required"}
			}
			updates, _ := args["updates"].(map[string]any)
			if len(updates) == 0 {
				return nil, &ValidationError{Field: "updates", Reason: "no fields to update"}
			}

			agent, err := fetchBuddhistAgent(ctx, agents, agentID)
			if err != nil {
				return nil, err
			}

			for field, value := range updates {
				if _, ok := updatableAgentFields[field]; !ok {
					return nil, &ValidationError{Field: field, Reason: "field cannot be updated"}
				}
				applyAgentField(agent, field, value)
			}
			agent.UpdatedAt = time.Now().UTC()

			if err := agents.Update(ctx, agent); err != nil {
				return nil, &ExecutionError{Tool: "update_buddhist_agent", Err: err}
			}
			return map[string]any{
				"agent_id": agent.ID,
				"message":  fmt.Sprintf("Buddhist agent '%s' updated", agent.Name),
			}, nil
		}).
		Build()
}

func deleteAgentTool(agents store.AgentStore) Tool {
	return NewTool("delete_buddhist_agent").
		WithDescription("Permanently delete a Buddhist agent").
		WithParameter("agent_id", String().WithDescription("Identifier of the agent to delete").Required()).
		WithHandler(func(ctx context.Context, args map[string]any) (any, error) {
			agentID, _ := args["agent_id"].(string)
			if agentID == "" {
				return nil, &ValidationError{Field: "agent_id", Reason: "agent_id is required"}
			}

			agent, err := fetchBuddhistAgent(ctx, agents, agentID)
			if err != nil {
				return nil, err
			}
			if err := agents.Delete(ctx, agentID); err != nil {
				return nil, &ExecutionError{Tool: "delete_buddhist_agent", Err: err}
			}
			return map[string]any{
				"agent_id": agentID,
				"message":  fmt.Sprintf("Buddhist agent '%s' deleted", agent.Name),
			}, nil
		}).
		Build()
}

func listAgentsTool(agents store.AgentStore) Tool {
	return NewTool("list_buddhist_agents").
		WithDescription("List all Buddhist agents").
		WithHandler(func(ctx context.Context, args map[string]any) (any, error) {
			all, err := agents.List(ctx)
			if err != nil {
				return nil, &ExecutionError{Tool: "list_buddhist_agents", Err: err}
			}
			return map[string]any{
				"agents": filterBuddhist(all),
				"count":  len(filterBuddhist(all)),
			}, nil
		}).
		Build()
}

func getAgentTool(agents store.AgentStore) Tool {
	return NewTool("get_buddhist_agent").
		WithDescription("Fetch a single Buddhist agent by id").
		WithParameter("agent_id", String().WithDescription("Identifier of the agent").Required()).
		WithHandler(func(ctx context.Context, args map[string]any) (any, error) {
			agentID, _ := args["agent_id"].(string)
			if agentID == "" {
				return nil, &ValidationError{Field: "agent_id", Reason: "agent_id is required"}
			}
			agent, err := fetchBuddhistAgent(ctx, agents, agentID)
			if err != nil {
				return nil, err
			}
			return map[string]any{"agent": agent}, nil
		}).
		Build()
}

func searchAgentsTool(agents store.AgentStore) Tool {
	return NewTool("search_buddhist_agents").
		WithDescription("Search Buddhist agents by name or description").
		WithParameter("query", String().WithDescription("Search text").Required()).
		WithHandler(func(ctx context.Context, args map[string]any) (any, error) {
			query, _ := args["query"].(string)
			found, err := agents.Search(ctx, query)
			if err != nil {
				return nil, &ExecutionError{Tool: "search_buddhist_agents", Err: err}
			}
			matches := filterBuddhist(found)
			return map[string]any{
				"agents": matches,
				"count":  len(matches),
			}, nil
		}).
		Build()
}

func testAgentTool(agents store.AgentStore, provider providers.Provider) Tool {
	return NewTool("test_buddhist_agent").
		WithDescription("Send a sample input to a Buddhist agent and return its reply").
		WithParameter("agent_id", String().WithDescription("Identifier of the agent to test").Required()).
		WithParameter("test_input", String().WithDescription("Message to send to the agent").Required()).
		WithHandler(func(ctx context.Context, args map[string]any) (any, error) {
			agentID, _ := args["agent_id"].(string)
			if agentID == "" {
				return nil, &ValidationError{Field: "agent_id", Reason: "agent_id is required"}
			}
			input, _ := args["test_input"].(string)
			if input == "" {
				return nil, &ValidationError{Field: "test_input", Reason: "test_input is required"}
			}

			agent, err := fetchBuddhistAgent(ctx, agents, agentID)
			if err != nil {
				return nil, err
			}

			// One-shot completion against the agent's own configuration,
			// with no tools exposed.
			model := defaultString(agent.Model, defaultModel)
			resp, err := provider.Complete(ctx, providers.CompletionRequest{
				Model:        model,
				SystemPrompt: agent.SystemPrompt,
				Temperature:  float32(agent.Temperature),
				Messages:     []providers.Message{{Role: providers.RoleUser, Content: input}},
			})
			if err != nil {
				return nil, &ExecutionError{Tool: "test_buddhist_agent", Err: err}
			}
			return map[string]any{
				"agent_id":    agent.ID,
				"agent_name":  agent.Name,
				"test_input":  input,
				"response":    resp.Content,
				"model_used":  model,
				"temperature": agent.Temperature,
			}, nil
		}).
		Build()
}

func getTeachingsTool() Tool {
	return NewTool("get_buddhist_teachings").
		WithDescription("Retrieve core Buddhist teachings by topic").
		WithParameter("topic", String().
			WithEnum(teachingTopics()...).
			WithDescription("Teaching topic").Required()).
		WithParameter("language", String().WithEnum("en", "vi").WithDescription("Teaching language")).
		WithHandler(func(ctx context.Context, args map[string]any) (any, error) {
			topic, _ := args["topic"].(string)
			lang := Language(stringArg(args, "language")).Normalize()
			teaching, err := LookupTeaching(topic, lang)
			if err != nil {
				return nil, err
			}
			return map[string]any{
				"topic":    topic,
				"title":    teaching.Title,
				"teaching": teaching.Content,
			}, nil
		}).
		Build()
}

func addKnowledgeTool(knowledge store.KnowledgeStore) Tool {
	return NewTool("add_buddhist_knowledge").
		WithDescription("Add an entry to an agent's Buddhist knowledge base").
		WithParameter("agent_id", String().WithDescription("Agent the knowledge belongs to")).
		WithParameter("title", String().WithDescription("Entry title").Required()).
		WithParameter("content", String().WithDescription("Entry body").Required()).
		WithParameter("category", String().WithDescription("Entry category")).
		WithParameter("language", String().WithEnum("en", "vi").WithDescription("Entry language")).
		WithHandler(knowledgeAddHandler(knowledge, "add_buddhist_knowledge", "knowledge")).
		Build()
}

func addTeachingExampleTool(knowledge store.KnowledgeStore) Tool {
	return NewTool("add_buddhist_teaching_example").
		WithDescription("Add a worked teaching example to the knowledge base").
		WithParameter("title", String().WithDescription("Example title").Required()).
		WithParameter("content", String().WithDescription("The example itself").Required()).
		WithParameter("language", String().WithEnum("en", "vi").WithDescription("Example language")).
		WithHandler(knowledgeAddHandler(knowledge, "add_buddhist_teaching_example", "teaching_example")).
		Build()
}

func addUserInsightTool(knowledge store.KnowledgeStore) Tool {
	return NewTool("add_user_insight_to_knowledge_base").
		WithDescription("Record a user's personal insight in the shared knowledge base").
		WithParameter("title", String().WithDescription("Insight title").Required()).
		WithParameter("content", String().WithDescription("The insight text").Required()).
		WithParameter("language", String().WithEnum("en", "vi").WithDescription("Insight language")).
		WithHandler(knowledgeAddHandler(knowledge, "add_user_insight_to_knowledge_base", "user_insight")).
		Build()
}

func searchKnowledgeTool(knowledge store.KnowledgeStore) Tool {
	return NewTool("search_buddhist_knowledge").
		WithDescription("Search the Buddhist knowledge base").
		WithParameter("query", String().WithDescription("Search text").Required()).
		WithHandler(func(ctx context.Context, args map[string]any) (any, error) {
			query, _ := args["query"].(string)
			found, err := knowledge.Search(ctx, query)
			if err != nil {
				return nil, &ExecutionError{Tool: "search_buddhist_knowledge", Err: err}
			}
			return map[string]any{
				"entries": found,
				"count":   len(found),
			}, nil
		}).
		Build()
}

func meditationGuideTool() Tool {
	return NewTool("create_meditation_guide").
		WithDescription("Create a guided meditation script").
		WithParameter("duration", Number().WithDescription("Session length in minutes")).
		WithParameter("type", String().WithEnum(meditationKinds()...).WithDescription("Meditation style")).
		WithHandler(func(_ context.Context, args map[string]any) (any, error) {
			kind := defaultString(stringArg(args, "type"), MeditationMindfulness)
			minutes := int(floatArg(args, "duration"))
			if minutes <= 0 {
				minutes = 10
			}
			return map[string]any{
				"type":             kind,
				"duration_minutes": minutes,
				"guide":            MeditationGuide(kind, minutes),
			}, nil
		}).
		Build()
}

func mindfulnessExerciseTool() Tool {
	return NewTool("generate_mindfulness_exercise").
		WithDescription("Generate a mindfulness exercise for a specific situation").
		WithParameter("context", String().WithEnum(mindfulnessContexts()...).WithDescription("Situation to practice in")).
		WithHandler(func(_ context.Context, args map[string]any) (any, error) {
			situation := defaultString(stringArg(args, "context"), MindfulnessDailyLife)
			return map[string]any{
				"context":  situation,
				"exercise": MindfulnessExercise(situation),
			}, nil
		}).
		Build()
}

func compassionPracticeTool() Tool {
	return NewTool("create_compassion_practice").
		WithDescription("Create a compassion practice exercise").
		WithParameter("target", String().WithEnum(compassionTargets()...).WithDescription("Who the compassion is directed at")).
		WithHandler(func(_ context.Context, args map[string]any) (any, error) {
			target := defaultString(stringArg(args, "target"), CompassionSelf)
			return map[string]any{
				"target":   target,
				"practice": CompassionPractice(target),
			}, nil
		}).
		Build()
}

func lifeGuidanceTool() Tool {
	return NewTool("create_life_guidance_response").
		WithDescription("Open a life guidance dialogue grounded in Buddhist wisdom").
		WithParameter("question", String().WithDescription("The user's life question or concern").Required()).
		WithParameter("language", String().WithEnum("en", "vi").WithDescription("Response language")).
		WithHandler(func(_ context.Context, args map[string]any) (any, error) {
			question, _ := args["question"].(string)
			if question == "" {
				return nil, &ValidationError{Field: "question", Reason: "question is required"}
			}
			lang := Language(stringArg(args, "language")).Normalize()
			return map[string]any{
				"question": question,
				"guidance": LifeGuidance(question, lang),
			}, nil
		}).
		Build()
}

func studyReviewTool() Tool {
	return NewTool("create_study_review_material").
		WithDescription("Create study and review material for a Buddhist topic").
		WithParameter("topic", String().WithDescription("Topic to study").Required()).
		WithParameter("language", String().WithEnum("en", "vi").WithDescription("Material language")).
		WithHandler(func(_ context.Context, args map[string]any) (any, error) {
			topic, _ := args["topic"].(string)
			if topic == "" {
				return nil, &ValidationError{Field: "topic", Reason: "topic is required"}
			}
			lang := Language(stringArg(args, "language")).Normalize()
			return map[string]any{
				"topic":    topic,
				"material": StudyReviewMaterial(topic, lang),
			}, nil
		}).
		Build()
}

func knowledgeTestTool() Tool {
	return NewTool("create_knowledge_test").
		WithDescription("Create a knowledge test for Buddhist learning").
		WithParameter("topic", String().WithDescription("Topic to test").Required()).
		WithParameter("difficulty", String().WithEnum("easy", "medium", "hard").WithDescription("Test difficulty")).
		WithParameter("language", String().WithEnum("en", "vi").WithDescription("Test language")).
		WithHandler(func(_ context.Context, args map[string]any) (any, error) {
			topic, _ := args["topic"].(string)
			if topic == "" {
				return nil, &ValidationError{Field: "topic", Reason: "topic is required"}
			}
			difficulty := defaultString(stringArg(args, "difficulty"), "medium")
			lang := Language(stringArg(args, "language")).Normalize()
			return map[string]any{
				"topic":      topic,
				"difficulty": difficulty,
				"test":       KnowledgeTest(topic, difficulty, lang),
			}, nil
		}).
		Build()
}

func poetryTool() Tool {
	return NewTool("create_buddhist_poetry").
		WithDescription("Create Buddhist poetry based on a theme and style").
		WithParameter("theme", String().WithDescription("Theme for the poem").Required()).
		WithParameter("style", String().WithEnum("traditional", "modern", "zen").WithDescription("Poetry style")).
		WithParameter("language", String().WithEnum("en", "vi").WithDescription("Poem language")).
		WithHandler(func(_ context.Context, args map[string]any) (any, error) {
			theme, _ := args["theme"].(string)
			if theme == "" {
				return nil, &ValidationError{Field: "theme", Reason: "theme is required"}
			}
			style := defaultString(stringArg(args, "style"), "traditional")
			lang := Language(stringArg(args, "language")).Normalize()
			return map[string]any{
				"theme": theme,
				"style": style,
				"poem":  BuddhistPoem(theme, style, lang),
			}, nil
		}).
		Build()
}

func knowledgeAddHandler(knowledge store.KnowledgeStore, toolName, category string) ToolHandler {
	return func(ctx context.Context, args map[string]any) (any, error) {
		title, _ := args["title"].(string)
		content, _ := args["content"].(string)
		if title == "" {
			return nil, &ValidationError{Field: "title", Reason: "title is required"}
		}
		if content == "" {
			return nil, &ValidationError{Field: "content", Reason: "content is required"}
		}

		entry := &store.Knowledge{
			ID:        uuid.NewString(),
			AgentID:   stringArg(args, "agent_id"),
			Title:     title,
			Content:   content,
			Category:  defaultString(stringArg(args, "category"), category),
			Language:  string(Language(stringArg(args, "language")).Normalize()),
			CreatedAt: time.Now().UTC(),
		}
		if err := knowledge.Add(ctx, entry); err != nil {
			return nil, &ExecutionError{Tool: toolName, Err: err}
		}
		return map[string]any{
			"knowledge_id": entry.ID,
			"message":      fmt.Sprintf("Knowledge entry '%s' added", entry.Title),
		}, nil
	}
}

// fetchBuddhistAgent loads an agent and confirms it is a Buddhist agent.
// Records of any other type are reported as not found rather than exposed.
func fetchBuddhistAgent(ctx context.Context, agents store.AgentStore, id string) (*store.Agent, error) {
	agent, err := agents.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &NotFoundError{Resource: "agent", ID: id}
		}
		return nil, err
	}
	if agent.AgentType != store.AgentTypeBuddhist {
		return nil, &NotFoundError{Resource: "agent", ID: id}
	}
	return agent, nil
}

func filterBuddhist(agents []*store.Agent) []*store.Agent {
	out := make([]*store.Agent, 0, len(agents))
	for _, agent := range agents {
		if agent.AgentType == store.AgentTypeBuddhist {
			out = append(out, agent)
		}
	}
	return out
}

func applyAgentField(agent *store.Agent, field string, value any) {
	switch field {
	case "name":
		if v, ok := value.(string); ok {
			agent.Name = v
		}
	case "description":
		if v, ok := value.(string); ok {
			agent.Description = v
		}
	case "language":
		if v, ok := value.(string); ok {
			agent.Language = v
		}
	case "system_prompt":
		if v, ok := value.(string); ok {
			agent.SystemPrompt = v
		}
	case "model":
		if v, ok := value.(string); ok {
			agent.Model = v
		}
	case "temperature":
		switch v := value.(type) {
		case float64:
			agent.Temperature = v
		case int:
			agent.Temperature = float64(v)
		}
	case "status":
		if v, ok := value.(string); ok {
			agent.Status = store.AgentStatus(v)
		}
	}
}

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

func defaultString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func floatArg(args map[string]any, key string) float64 {
	switch v := args[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}
