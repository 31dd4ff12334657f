package tools

import (
	"context"
	"fmt"

	"github.com/hession/boxmate/internal/homebox"
)

// ListLocationsTool lists all storage locations.
type ListLocationsTool struct {
	client *homebox.Client
}

// NewListLocationsTool creates a location listing tool.
func NewListLocationsTool(client *homebox.Client) *ListLocationsTool {
	return &ListLocationsTool{client: client}
}

func (t *ListLocationsTool) Name() string {
	return "list_locations"
}

func (t *ListLocationsTool) Description() string {
	return "List all storage locations in the inventory with their IDs. Use the IDs with items_in_location."
}

func (t *ListLocationsTool) Parameters() []ParameterDef {
	return []ParameterDef{}
}

func (t *ListLocationsTool) Execute(args map[string]any) (string, error) {
	locations, err := t.client.ListLocations(context.Background())
	if err != nil {
		return "", fmt.Errorf("failed to list locations: %w", err)
	}

	return renderLocations(locations), nil
}
