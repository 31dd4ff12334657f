package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/hession/boxmate/internal/homebox"
)

// ConfirmFunc asks the user to approve a write before it runs.
// A nil ConfirmFunc means writes run unconfirmed.
type ConfirmFunc func(action string) bool

// CreateItemTool creates a new inventory item.
type CreateItemTool struct {
	client  *homebox.Client
	confirm ConfirmFunc
}

// NewCreateItemTool creates an item creation tool.
func NewCreateItemTool(client *homebox.Client, confirm ConfirmFunc) *CreateItemTool {
	return &CreateItemTool{client: client, confirm: confirm}
}

func (t *CreateItemTool) Name() string {
	return "create_item"
}

func (t *CreateItemTool) Description() string {
	return "Create a new item in the inventory. Requires a name, optionally a description, location ID and quantity."
}

func (t *CreateItemTool) Parameters() []ParameterDef {
	return []ParameterDef{
		{
			Name:        "name",
			Type:        "string",
			Description: "Name of the new item",
			Required:    true,
		},
		{
			Name:        "description",
			Type:        "string",
			Description: "Description of the item",
			Required:    false,
		},
		{
			Name:        "location_id",
			Type:        "string",
			Description: "ID of the location to store the item in, as returned by list_locations",
			Required:    false,
		},
		{
			Name:        "quantity",
			Type:        "number",
			Description: "Initial quantity, defaults to 1",
			Required:    false,
		},
	}
}

func (t *CreateItemTool) Execute(args map[string]any) (string, error) {
	name, ok := args["name"].(string)
	if !ok || strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("missing required parameter: name")
	}
	name = strings.TrimSpace(name)

	create := homebox.ItemCreate{
		Name:     name,
		Quantity: intArg(args, "quantity", 1),
	}
	if desc, ok := args["description"].(string); ok {
		create.Description = strings.TrimSpace(desc)
	}
	if loc, ok := args["location_id"].(string); ok {
		create.LocationID = strings.TrimSpace(loc)
	}

	if t.confirm != nil && !t.confirm(fmt.Sprintf("create item '%s'", name)) {
		return "Item creation cancelled by user.", nil
	}

	item, err := t.client.CreateItem(context.Background(), create)
	if err != nil {
		return "", fmt.Errorf("failed to create item: %w", err)
	}

	return fmt.Sprintf("Created item '%s' (ID: %s).", item.Name, item.ID), nil
}

// UpdateItemQuantityTool changes the quantity of an existing item.
type UpdateItemQuantityTool struct {
	client  *homebox.Client
	confirm ConfirmFunc
}

// NewUpdateItemQuantityTool creates a quantity update tool.
func NewUpdateItemQuantityTool(client *homebox.Client, confirm ConfirmFunc) *UpdateItemQuantityTool {
	return &UpdateItemQuantityTool{client: client, confirm: confirm}
}

func (t *UpdateItemQuantityTool) Name() string {
	return "update_item_quantity"
}

func (t *UpdateItemQuantityTool) Description() string {
	return "Set the quantity of an existing inventory item. Use search_items or get_item first to find the item ID."
}

func (t *UpdateItemQuantityTool) Parameters() []ParameterDef {
	return []ParameterDef{
		{
			Name:        "item_id",
			Type:        "string",
			Description: "ID of the item to update",
			Required:    true,
		},
		{
			Name:        "quantity",
			Type:        "number",
			Description: "New quantity for the item",
			Required:    true,
		},
	}
}

func (t *UpdateItemQuantityTool) Execute(args map[string]any) (string, error) {
	itemID, ok := args["item_id"].(string)
	if !ok || strings.TrimSpace(itemID) == "" {
		return "", fmt.Errorf("missing required parameter: item_id")
	}
	itemID = strings.TrimSpace(itemID)

	quantityRaw, ok := args["quantity"].(float64)
	if !ok {
		return "", fmt.Errorf("missing required parameter: quantity")
	}
	quantity := int(quantityRaw)
	if quantity < 0 {
		return "", fmt.Errorf("quantity must not be negative")
	}

	ctx := context.Background()

	// Homebox updates are full replaces, so fetch the current state first
	item, err := t.client.GetItem(ctx, itemID)
	if err != nil {
		return "", fmt.Errorf("failed to get item: %w", err)
	}

	if item.Quantity == quantity {
		return fmt.Sprintf("Item '%s' already has quantity %d.", item.Name, quantity), nil
	}

	if t.confirm != nil && !t.confirm(fmt.Sprintf("change quantity of '%s' from %d to %d", item.Name, item.Quantity, quantity)) {
		return "Quantity update cancelled by user.", nil
	}

	upd := item.ToUpdate()
	upd.Quantity = quantity

	updated, err := t.client.UpdateItem(ctx, upd)
	if err != nil {
		return "", fmt.Errorf("failed to update item: %w", err)
	}

	return fmt.Sprintf("Updated '%s': quantity is now %d.", updated.Name, updated.Quantity), nil
}
