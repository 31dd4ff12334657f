package tools

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/hession/boxmate/internal/homebox"
	"github.com/hession/boxmate/internal/store"
)

// Auditor records executed tool calls.
type Auditor interface {
	RecordToolCall(rec *store.ToolCallRecord) error
}

// Registry tool registry
type Registry struct {
	tools   map[string]Tool
	mu      sync.RWMutex
	auditor Auditor
	origin  string
}

// NewRegistry creates a new tool registry
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// SetAuditor enables audit logging of executed tools.
// Origin labels where calls come from ("repl" or "server").
func (r *Registry) SetAuditor(a Auditor, origin string) {
	r.auditor = a
	r.origin = origin
}

// Register registers a tool
func (r *Registry) Register(tool Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := tool.Name()
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %s already exists", name)
	}

	r.tools[name] = tool
	return nil
}

// Get gets a tool by name
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, exists := r.tools[name]
	return tool, exists
}

// List lists all tools
func (r *Registry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]Tool, 0, len(r.tools))
	for _, tool := range r.tools {
		tools = append(tools, tool)
	}
	return tools
}

// Execute executes a tool by name and records the call when auditing is on
func (r *Registry) Execute(name string, args map[string]any) (string, error) {
	tool, exists := r.Get(name)
	if !exists {
		return "", fmt.Errorf("tool not found: %s", name)
	}

	start := time.Now()
	result, err := tool.Execute(args)
	r.audit(name, args, time.Since(start), err)
	return result, err
}

// audit writes one entry to the audit log, ignoring storage failures
func (r *Registry) audit(name string, args map[string]any, elapsed time.Duration, execErr error) {
	if r.auditor == nil {
		return
	}

	encoded, _ := json.Marshal(args)
	rec := &store.ToolCallRecord{
		Tool:       name,
		Args:       string(encoded),
		OK:         execErr == nil,
		DurationMS: elapsed.Milliseconds(),
		Origin:     r.origin,
	}
	if execErr != nil {
		rec.Error = execErr.Error()
	}
	_ = r.auditor.RecordToolCall(rec)
}

// ToolSchema tool schema (for Function Calling)
type ToolSchema struct {
	Type     string         `json:"type"`
	Function FunctionSchema `json:"function"`
}

// FunctionSchema function schema
type FunctionSchema struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// GetSchemas gets all tool schemas for Function Calling
func (r *Registry) GetSchemas() []ToolSchema {
	r.mu.RLock()
	defer r.mu.RUnlock()

	schemas := make([]ToolSchema, 0, len(r.tools))
	for _, tool := range r.tools {
		schema := ToolSchema{
			Type: "function",
			Function: FunctionSchema{
				Name:        tool.Name(),
				Description: tool.Description(),
				Parameters:  buildParameterSchema(tool.Parameters()),
			},
		}
		schemas = append(schemas, schema)
	}
	return schemas
}

// buildParameterSchema builds parameter schema
func buildParameterSchema(params []ParameterDef) map[string]interface{} {
	properties := make(map[string]interface{})
	required := make([]string, 0)

	for _, param := range params {
		properties[param.Name] = map[string]interface{}{
			"type":        param.Type,
			"description": param.Description,
		}
		if param.Required {
			required = append(required, param.Name)
		}
	}

	schema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}

	if len(required) > 0 {
		schema["required"] = required
	}

	return schema
}

// NewDefaultRegistry creates and registers all inventory tools
func NewDefaultRegistry(client *homebox.Client, defaultPageSize int, confirmFunc ConfirmFunc) *Registry {
	registry := NewRegistry()

	// Register all built-in tools
	tools := []Tool{
		NewSearchItemsTool(client, defaultPageSize),
		NewGetItemTool(client),
		NewListLocationsTool(client),
		NewItemsInLocationTool(client, defaultPageSize),
		NewCreateItemTool(client, confirmFunc),
		NewUpdateItemQuantityTool(client, confirmFunc),
	}

	for _, tool := range tools {
		_ = registry.Register(tool) // Ignore errors as we know these tool names won't conflict
	}

	return registry
}
