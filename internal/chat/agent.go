package chat

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/model/gemini"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/genai"

	"github.com/muhammadolammi/careerzync/internal/llm"
)

const (
	agentName = "resume advisor"
	agentUser = "careerzync"
)

func instruction() string {
	return `
You are an expert resume advisor helping a job seeker improve their resume for a specific role.
Each message contains context retrieved from the candidate's resume and its ATS analysis, followed by a query.
Answer only from that context and the earlier turns of this conversation.
Do not make up experience the candidate does not have.
Keep responses concise, ATS-optimized, and highly role-specific.
	`
}

// DefaultMaxSessions bounds how many conversations an AgentModel holds at once.
const DefaultMaxSessions = 256

// AgentModel runs chat turns through an agent runner so each conversation keeps its history.
// When more than maxSessions conversations are live the least recently started one is dropped;
// Resume brings a dropped conversation back from its stored turns.
type AgentModel struct {
	runner      *runner.Runner
	sessions    session.Service
	appName     string
	maxSessions int

	mu      sync.Mutex
	started map[string]bool
	order   []string
}

type AgentOption func(*AgentModel)

func WithMaxSessions(n int) AgentOption {
	return func(m *AgentModel) {
		if n > 0 {
			m.maxSessions = n
		}
	}
}

func NewAgentModel(ctx context.Context, apiKey, modelName string, opts ...AgentOption) (*AgentModel, error) {
	model, err := gemini.NewModel(ctx, modelName, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create model: %v", err)
	}

	advisor, err := llmagent.New(llmagent.Config{
		Name:        agentName,
		Model:       model,
		Description: "Answer questions about an analysed resume",
		Instruction: instruction(),
		GenerateContentConfig: &genai.GenerateContentConfig{
			Temperature:     genai.Ptr(Temperature),
			MaxOutputTokens: MaxOutputTokens,
			ThinkingConfig:  llm.ThinkingConfig(modelName),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create agent: %v", err)
	}

	sessions := session.InMemoryService()
	r, err := runner.New(runner.Config{
		AppName:        advisor.Name(),
		Agent:          advisor,
		SessionService: sessions,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create runner: %v", err)
	}

	m := &AgentModel{
		runner:      r,
		sessions:    sessions,
		appName:     advisor.Name(),
		maxSessions: DefaultMaxSessions,
		started:     make(map[string]bool),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

func (m *AgentModel) ensureSession(ctx context.Context, conversationID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, err := m.startLocked(ctx, conversationID)
	return err
}

// startLocked creates the session for conversationID unless it is live.
// It reports the session only when it was created by this call.
func (m *AgentModel) startLocked(ctx context.Context, conversationID string) (session.Session, error) {
	if m.started[conversationID] {
		return nil, nil
	}
	resp, err := m.sessions.Create(ctx, &session.CreateRequest{
		AppName:   m.appName,
		UserID:    agentUser,
		SessionID: conversationID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	m.started[conversationID] = true
	m.order = append(m.order, conversationID)
	for len(m.order) > m.maxSessions {
		if err := m.dropLocked(ctx, m.order[0]); err != nil {
			return nil, err
		}
	}
	return resp.Session, nil
}

// Resume seeds a conversation this model is not holding with its stored turns.
// history is not called for a live conversation.
func (m *AgentModel) Resume(ctx context.Context, conversationID string, history HistoryFunc) error {
	m.mu.Lock()
	live := m.started[conversationID]
	m.mu.Unlock()
	if live {
		return nil
	}

	turns, err := history(ctx)
	if err != nil {
		return fmt.Errorf("failed to load chat history: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	sess, err := m.startLocked(ctx, conversationID)
	if err != nil || sess == nil {
		return err
	}
	for _, t := range turns {
		if err := m.sessions.AppendEvent(ctx, sess, turnEvent("user", genai.RoleUser, t.Query)); err != nil {
			return fmt.Errorf("failed to restore chat history: %w", err)
		}
		if err := m.sessions.AppendEvent(ctx, sess, turnEvent(m.appName, genai.RoleModel, t.Response)); err != nil {
			return fmt.Errorf("failed to restore chat history: %w", err)
		}
	}
	return nil
}

func turnEvent(author string, role genai.Role, text string) *session.Event {
	ev := session.NewEvent(uuid.NewString())
	ev.Author = author
	ev.Content = genai.NewContentFromText(text, role)
	return ev
}

func (m *AgentModel) Reply(ctx context.Context, conversationID, prompt string) (string, error) {
	if err := m.ensureSession(ctx, conversationID); err != nil {
		return "", err
	}

	stream := m.runner.Run(ctx, agentUser, conversationID, &genai.Content{
		Role: "user",
		Parts: []*genai.Part{
			{Text: prompt},
		},
	}, agent.RunConfig{})

	var output string
	for event, err := range stream {
		if err != nil {
			return "", err
		}
		if event != nil && event.IsFinalResponse() && event.Content != nil && len(event.Content.Parts) > 0 {
			output = event.Content.Parts[0].Text
		}
	}
	if strings.TrimSpace(output) == "" {
		return "", fmt.Errorf("empty agent response")
	}
	return output, nil
}

// End drops the conversation history held for conversationID.
func (m *AgentModel) End(ctx context.Context, conversationID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.started[conversationID] {
		return nil
	}
	return m.dropLocked(ctx, conversationID)
}

func (m *AgentModel) dropLocked(ctx context.Context, conversationID string) error {
	delete(m.started, conversationID)
	m.order = slices.DeleteFunc(m.order, func(id string) bool { return id == conversationID })
	err := m.sessions.Delete(ctx, &session.DeleteRequest{
		AppName:   m.appName,
		UserID:    agentUser,
		SessionID: conversationID,
	})
	if err != nil {
		return fmt.Errorf("failed to delete session: %v", err)
	}
	return nil
}
