package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hession/boxmate/internal/config"
	"github.com/hession/boxmate/internal/llm"
	"github.com/hession/boxmate/internal/store"
	"github.com/hession/boxmate/internal/tools"
)

const (
	// MaxToolIterations caps tool call rounds within one user turn
	MaxToolIterations = 10
)

// Agent drives the conversation between the user, the LLM and the inventory tools.
type Agent struct {
	config          *config.Config
	promptConfig    *config.PromptConfig
	llm             *llm.Client
	store           store.Store
	registry        *tools.Registry
	sessionID       string
	maxContextMsgs  int
	streamHandler   func(content string)
	toolCallHandler func(name string, args map[string]any, result string, err error)
}

// Option agent configuration option
type Option func(*Agent)

// WithStreamHandler sets the stream output handler
func WithStreamHandler(handler func(content string)) Option {
	return func(a *Agent) {
		a.streamHandler = handler
	}
}

// WithToolCallHandler sets the tool call handler
func WithToolCallHandler(handler func(name string, args map[string]any, result string, err error)) Option {
	return func(a *Agent) {
		a.toolCallHandler = handler
	}
}

// New creates a new Agent instance
func New(cfg *config.Config, llmClient *llm.Client, st store.Store, reg *tools.Registry, opts ...Option) (*Agent, error) {
	promptCfg, err := config.LoadPromptConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load prompt config: %w", err)
	}

	agent := &Agent{
		config:         cfg,
		promptConfig:   promptCfg,
		llm:            llmClient,
		store:          st,
		registry:       reg,
		maxContextMsgs: cfg.Store.MaxContextMessages,
	}

	for _, opt := range opts {
		opt(agent)
	}

	if err := agent.initSession(); err != nil {
		return nil, err
	}

	return agent, nil
}

// initSession resumes the latest session or starts a fresh one
func (a *Agent) initSession() error {
	session, err := a.store.GetLatestSession()
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}

	if session != nil {
		a.sessionID = session.ID
		return nil
	}

	sessionID, err := a.store.CreateSession()
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	a.sessionID = sessionID
	return nil
}

// NewSession creates a new session
func (a *Agent) NewSession() error {
	sessionID, err := a.store.CreateSession()
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	a.sessionID = sessionID
	return nil
}

// ClearSession clears the current session
func (a *Agent) ClearSession() error {
	if err := a.store.ClearSession(a.sessionID); err != nil {
		return err
	}
	return a.NewSession()
}

// Chat processes one user message, running tool calls until the model answers
func (a *Agent) Chat(ctx context.Context, userMessage string) (string, error) {
	if err := a.store.SaveMessage(a.sessionID, &store.Message{
		SessionID: a.sessionID,
		Role:      "user",
		Content:   userMessage,
	}); err != nil {
		return "", fmt.Errorf("failed to save user message: %w", err)
	}

	messages, err := a.buildMessages(userMessage)
	if err != nil {
		return "", fmt.Errorf("failed to build messages: %w", err)
	}

	llmTools := a.toolDefinitions()

	var finalResponse string
	for i := 0; i < MaxToolIterations; i++ {
		var resp *llm.ChatResponse
		var err error

		if a.streamHandler != nil {
			resp, err = a.llm.ChatStream(ctx, messages, llmTools, a.streamHandler)
		} else {
			resp, err = a.llm.Chat(ctx, messages, llmTools)
		}
		if err != nil {
			return "", fmt.Errorf("failed to call LLM: %w", err)
		}

		if len(resp.ToolCalls) == 0 {
			finalResponse = resp.Content
			break
		}

		assistantMsg := llm.Message{
			Role:      "assistant",
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		}
		messages = append(messages, assistantMsg)

		toolCallsJSON, _ := json.Marshal(resp.ToolCalls)
		if err := a.store.SaveMessage(a.sessionID, &store.Message{
			SessionID: a.sessionID,
			Role:      "assistant",
			Content:   resp.Content,
			ToolCalls: string(toolCallsJSON),
		}); err != nil {
			return "", fmt.Errorf("failed to save assistant tool call message: %w", err)
		}

		for _, toolCall := range resp.ToolCalls {
			result, toolErr := a.executeTool(toolCall)

			if a.toolCallHandler != nil {
				var args map[string]any
				_ = json.Unmarshal([]byte(toolCall.Function.Arguments), &args)
				a.toolCallHandler(toolCall.Function.Name, args, result, toolErr)
			}

			toolResultContent := result
			if toolErr != nil {
				// The model sees the failure and can recover or apologize
				toolResultContent = fmt.Sprintf("%s: %v", a.promptConfig.GetErrorPrefix(), toolErr)
			}

			messages = append(messages, llm.Message{
				Role:       "tool",
				Content:    toolResultContent,
				ToolCallID: toolCall.ID,
			})

			if err := a.store.SaveMessage(a.sessionID, &store.Message{
				SessionID:  a.sessionID,
				Role:       "tool",
				Content:    toolResultContent,
				ToolCallID: toolCall.ID,
			}); err != nil {
				return "", fmt.Errorf("failed to save tool message: %w", err)
			}
		}
	}

	if finalResponse != "" {
		if err := a.store.SaveMessage(a.sessionID, &store.Message{
			SessionID: a.sessionID,
			Role:      "assistant",
			Content:   finalResponse,
		}); err != nil {
			return "", fmt.Errorf("failed to save assistant message: %w", err)
		}
	}

	return finalResponse, nil
}

// toolDefinitions converts registry schemas into the LLM wire format
func (a *Agent) toolDefinitions() []llm.Tool {
	toolSchemas := a.registry.GetSchemas()
	llmTools := make([]llm.Tool, len(toolSchemas))
	for i, schema := range toolSchemas {
		llmTools[i] = llm.Tool{
			Type: schema.Type,
			Function: llm.ToolFunction{
				Name:        schema.Function.Name,
				Description: schema.Function.Description,
				Parameters:  schema.Function.Parameters,
			},
		}
	}
	return llmTools
}

// buildMessages assembles system prompt plus session history
func (a *Agent) buildMessages(userMessage string) ([]llm.Message, error) {
	messages := []llm.Message{
		{Role: "system", Content: a.promptConfig.GetSystemPrompt()},
	}

	historyMsgs, err := a.store.GetMessages(a.sessionID, a.maxContextMsgs)
	if err != nil {
		return nil, fmt.Errorf("failed to get history messages: %w", err)
	}

	for _, msg := range historyMsgs {
		// Skip the just-saved user message, it is appended last
		if msg.Role == "user" && msg.Content == userMessage {
			continue
		}

		llmMsg := llm.Message{
			Role:       msg.Role,
			Content:    msg.Content,
			ToolCallID: msg.ToolCallID,
		}

		if msg.ToolCalls != "" {
			var toolCalls []llm.ToolCall
			if err := json.Unmarshal([]byte(msg.ToolCalls), &toolCalls); err == nil {
				llmMsg.ToolCalls = toolCalls
			}
		}

		messages = append(messages, llmMsg)
	}

	messages = append(messages, llm.Message{
		Role:    "user",
		Content: userMessage,
	})

	return messages, nil
}

// executeTool parses arguments and dispatches through the registry
func (a *Agent) executeTool(toolCall llm.ToolCall) (string, error) {
	var args map[string]any
	if err := json.Unmarshal([]byte(toolCall.Function.Arguments), &args); err != nil {
		return "", fmt.Errorf("failed to parse tool arguments: %w", err)
	}

	return a.registry.Execute(toolCall.Function.Name, args)
}

// SessionID returns the current session ID
func (a *Agent) SessionID() string {
	return a.sessionID
}
