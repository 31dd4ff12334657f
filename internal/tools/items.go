package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/hession/boxmate/internal/homebox"
)

const maxPageSize = 100

// SearchItemsTool searches inventory items by free-text query.
type SearchItemsTool struct {
	client          *homebox.Client
	defaultPageSize int
}

// NewSearchItemsTool creates an item search tool.
func NewSearchItemsTool(client *homebox.Client, defaultPageSize int) *SearchItemsTool {
	if defaultPageSize <= 0 {
		defaultPageSize = 20
	}
	return &SearchItemsTool{
		client:          client,
		defaultPageSize: defaultPageSize,
	}
}

func (t *SearchItemsTool) Name() string {
	return "search_items"
}

func (t *SearchItemsTool) Description() string {
	return "Search the inventory for items matching a text query. Returns names, locations, quantities and asset IDs. Results are paginated."
}

func (t *SearchItemsTool) Parameters() []ParameterDef {
	return []ParameterDef{
		{
			Name:        "query",
			Type:        "string",
			Description: "Text to search for in item names and descriptions",
			Required:    true,
		},
		{
			Name:        "page",
			Type:        "number",
			Description: "Page number to return, starting from 1",
			Required:    false,
		},
		{
			Name:        "page_size",
			Type:        "number",
			Description: "Number of items per page",
			Required:    false,
		},
	}
}

func (t *SearchItemsTool) Execute(args map[string]any) (string, error) {
	query, ok := args["query"].(string)
	if !ok || strings.TrimSpace(query) == "" {
		return "", fmt.Errorf("missing required parameter: query")
	}
	query = strings.TrimSpace(query)

	page, err := t.client.SearchItems(context.Background(), homebox.ItemQuery{
		Query:    query,
		Page:     intArg(args, "page", 1),
		PageSize: clampPageSize(intArg(args, "page_size", t.defaultPageSize)),
	})
	if err != nil {
		return "", fmt.Errorf("search failed: %w", err)
	}

	return renderSearchResults(query, page), nil
}

// GetItemTool fetches full details for a single item.
type GetItemTool struct {
	client *homebox.Client
}

// NewGetItemTool creates an item detail tool.
func NewGetItemTool(client *homebox.Client) *GetItemTool {
	return &GetItemTool{client: client}
}

func (t *GetItemTool) Name() string {
	return "get_item"
}

func (t *GetItemTool) Description() string {
	return "Get the full details of one inventory item by its ID, including purchase, warranty, custom fields and notes."
}

func (t *GetItemTool) Parameters() []ParameterDef {
	return []ParameterDef{
		{
			Name:        "item_id",
			Type:        "string",
			Description: "ID of the item, as returned by search_items",
			Required:    true,
		},
	}
}

func (t *GetItemTool) Execute(args map[string]any) (string, error) {
	itemID, ok := args["item_id"].(string)
	if !ok || strings.TrimSpace(itemID) == "" {
		return "", fmt.Errorf("missing required parameter: item_id")
	}

	item, err := t.client.GetItem(context.Background(), strings.TrimSpace(itemID))
	if err != nil {
		return "", fmt.Errorf("failed to get item: %w", err)
	}

	return renderItem(item), nil
}

// ItemsInLocationTool lists the items stored in one location.
type ItemsInLocationTool struct {
	client          *homebox.Client
	defaultPageSize int
}

// NewItemsInLocationTool creates a per-location item listing tool.
func NewItemsInLocationTool(client *homebox.Client, defaultPageSize int) *ItemsInLocationTool {
	if defaultPageSize <= 0 {
		defaultPageSize = 20
	}
	return &ItemsInLocationTool{
		client:          client,
		defaultPageSize: defaultPageSize,
	}
}

func (t *ItemsInLocationTool) Name() string {
	return "items_in_location"
}

func (t *ItemsInLocationTool) Description() string {
	return "List the items stored in a specific location. Use list_locations first to find the location ID. Results are paginated."
}

func (t *ItemsInLocationTool) Parameters() []ParameterDef {
	return []ParameterDef{
		{
			Name:        "location_id",
			Type:        "string",
			Description: "ID of the location, as returned by list_locations",
			Required:    true,
		},
		{
			Name:        "page",
			Type:        "number",
			Description: "Page number to return, starting from 1",
			Required:    false,
		},
		{
			Name:        "page_size",
			Type:        "number",
			Description: "Number of items per page",
			Required:    false,
		},
	}
}

func (t *ItemsInLocationTool) Execute(args map[string]any) (string, error) {
	locationID, ok := args["location_id"].(string)
	if !ok || strings.TrimSpace(locationID) == "" {
		return "", fmt.Errorf("missing required parameter: location_id")
	}

	page, err := t.client.SearchItems(context.Background(), homebox.ItemQuery{
		LocationIDs: []string{strings.TrimSpace(locationID)},
		Page:        intArg(args, "page", 1),
		PageSize:    clampPageSize(intArg(args, "page_size", t.defaultPageSize)),
	})
	if err != nil {
		return "", fmt.Errorf("search failed: %w", err)
	}

	return renderLocationItems(page), nil
}

// intArg extracts an integer argument. JSON numbers decode as float64.
func intArg(args map[string]any, name string, fallback int) int {
	if v, ok := args[name].(float64); ok && v > 0 {
		return int(v)
	}
	return fallback
}

func clampPageSize(size int) int {
	if size > maxPageSize {
		return maxPageSize
	}
	return size
}
