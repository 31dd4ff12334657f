package tools

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hession/boxmate/internal/homebox"
	"github.com/hession/boxmate/internal/store"
)

type staticTool struct {
	name   string
	result string
}

func (t *staticTool) Name() string               { return t.name }
func (t *staticTool) Description() string        { return "static test tool" }
func (t *staticTool) Parameters() []ParameterDef { return nil }
func (t *staticTool) Execute(args map[string]any) (string, error) {
	return t.result, nil
}

func TestRegistryRegisterAndGet(t *testing.T) {
	registry := NewRegistry()

	if err := registry.Register(&staticTool{name: "echo", result: "ok"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := registry.Register(&staticTool{name: "echo"}); err == nil {
		t.Error("expected error registering duplicate tool name")
	}

	tool, exists := registry.Get("echo")
	if !exists {
		t.Fatal("expected registered tool to be found")
	}
	if tool.Name() != "echo" {
		t.Errorf("got tool %q, want echo", tool.Name())
	}

	if _, exists := registry.Get("missing"); exists {
		t.Error("expected unknown tool to not be found")
	}
	if len(registry.List()) != 1 {
		t.Errorf("got %d tools, want 1", len(registry.List()))
	}
}

func TestRegistryExecuteUnknownTool(t *testing.T) {
	registry := NewRegistry()
	if _, err := registry.Execute("nope", nil); err == nil {
		t.Error("expected error executing unknown tool")
	}
}

type fakeAuditor struct {
	records []*store.ToolCallRecord
}

func (a *fakeAuditor) RecordToolCall(rec *store.ToolCallRecord) error {
	a.records = append(a.records, rec)
	return nil
}

func TestRegistryAuditsExecutions(t *testing.T) {
	registry := NewRegistry()
	_ = registry.Register(&staticTool{name: "echo", result: "done"})

	auditor := &fakeAuditor{}
	registry.SetAuditor(auditor, "repl")

	result, err := registry.Execute("echo", map[string]any{"q": "x"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result != "done" {
		t.Errorf("got result %q, want done", result)
	}

	if len(auditor.records) != 1 {
		t.Fatalf("got %d audit records, want 1", len(auditor.records))
	}
	rec := auditor.records[0]
	if rec.Tool != "echo" {
		t.Errorf("got tool %q, want echo", rec.Tool)
	}
	if !rec.OK {
		t.Error("expected OK record for successful execution")
	}
	if rec.Origin != "repl" {
		t.Errorf("got origin %q, want repl", rec.Origin)
	}
	if !strings.Contains(rec.Args, `"q":"x"`) {
		t.Errorf("args not encoded: %q", rec.Args)
	}
}

func TestRegistryGetSchemas(t *testing.T) {
	client := newToolTestClient(t, http.NotFoundHandler())
	registry := NewDefaultRegistry(client, 20, nil)

	schemas := registry.GetSchemas()
	if len(schemas) != 6 {
		t.Fatalf("got %d schemas, want 6", len(schemas))
	}

	byName := make(map[string]ToolSchema)
	for _, schema := range schemas {
		if schema.Type != "function" {
			t.Errorf("got schema type %q, want function", schema.Type)
		}
		byName[schema.Function.Name] = schema
	}

	for _, name := range []string{"search_items", "get_item", "list_locations", "items_in_location", "create_item", "update_item_quantity"} {
		if _, ok := byName[name]; !ok {
			t.Errorf("schema %s missing", name)
		}
	}

	search := byName["search_items"].Function.Parameters
	required, ok := search["required"].([]string)
	if !ok || len(required) != 1 || required[0] != "query" {
		t.Errorf("search_items required = %v, want [query]", search["required"])
	}
}

func newToolTestClient(t *testing.T, handler http.Handler) *homebox.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := homebox.NewClient(homebox.ClientConfig{
		BaseURL: server.URL,
		Token:   "test-token",
	})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return client
}

func itemPageHandler(t *testing.T, page homebox.ItemPage) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/items" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(page)
	})
}

func TestSearchItemsToolRendersResults(t *testing.T) {
	page := homebox.ItemPage{
		Items: []homebox.ItemSummary{
			{
				ID:           "id-1",
				Name:         "ThinkPad X1",
				Description:  "Work laptop",
				AssetID:      "A-001",
				Quantity:     1,
				Location:     &homebox.LocationSummary{ID: "loc-1", Name: "Office"},
				Manufacturer: "Lenovo",
				ModelNumber:  "X1C9",
			},
			{ID: "id-2", Name: "MacBook Air", Quantity: 2},
		},
		Total:    25,
		Page:     1,
		PageSize: 20,
	}

	tool := NewSearchItemsTool(newToolTestClient(t, itemPageHandler(t, page)), 20)
	result, err := tool.Execute(map[string]any{"query": "laptop"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	for _, want := range []string{
		"Found 25 items matching 'laptop':",
		"1. ThinkPad X1",
		"   Description: Work laptop",
		"   Location: Office",
		"   Asset ID: A-001",
		"   Quantity: 1",
		"   Manufacturer: Lenovo",
		"   Model: X1C9",
		"2. MacBook Air",
		"Page 1 of 2",
		"Use 'page=2' to see more results.",
	} {
		if !strings.Contains(result, want) {
			t.Errorf("result missing %q:\n%s", want, result)
		}
	}
}

func TestSearchItemsToolLastPageOmitsHint(t *testing.T) {
	page := homebox.ItemPage{
		Items:    []homebox.ItemSummary{{ID: "id-1", Name: "Drill", Quantity: 1}},
		Total:    21,
		Page:     2,
		PageSize: 20,
	}

	tool := NewSearchItemsTool(newToolTestClient(t, itemPageHandler(t, page)), 20)
	result, err := tool.Execute(map[string]any{"query": "drill", "page": float64(2)})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if !strings.Contains(result, "Page 2 of 2") {
		t.Errorf("result missing footer:\n%s", result)
	}
	if strings.Contains(result, "to see more results") {
		t.Errorf("last page should not suggest a next page:\n%s", result)
	}
}

func TestSearchItemsToolEmptyResults(t *testing.T) {
	page := homebox.ItemPage{Total: 0, Page: 1, PageSize: 20}

	tool := NewSearchItemsTool(newToolTestClient(t, itemPageHandler(t, page)), 20)
	result, err := tool.Execute(map[string]any{"query": "unobtainium"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result != "No items found matching 'unobtainium'." {
		t.Errorf("unexpected empty-result message: %q", result)
	}
}

func TestSearchItemsToolMissingQuery(t *testing.T) {
	tool := NewSearchItemsTool(newToolTestClient(t, http.NotFoundHandler()), 20)

	for _, args := range []map[string]any{
		{},
		{"query": "   "},
		{"query": 42},
	} {
		if _, err := tool.Execute(args); err == nil {
			t.Errorf("expected error for args %v", args)
		}
	}
}

func TestSearchItemsToolClampsPageSize(t *testing.T) {
	var gotPageSize string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPageSize = r.URL.Query().Get("pageSize")
		_ = json.NewEncoder(w).Encode(homebox.ItemPage{Page: 1, PageSize: maxPageSize})
	})

	tool := NewSearchItemsTool(newToolTestClient(t, handler), 20)
	if _, err := tool.Execute(map[string]any{"query": "x", "page_size": float64(500)}); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if gotPageSize != "100" {
		t.Errorf("got pageSize %q, want 100", gotPageSize)
	}
}

func TestGetItemToolRendersDetails(t *testing.T) {
	item := homebox.Item{
		ItemSummary: homebox.ItemSummary{
			ID:           "id-9",
			AssetID:      "A-009",
			Name:         "Cordless Drill",
			Description:  "18V brushless",
			Quantity:     1,
			Location:     &homebox.LocationSummary{ID: "loc-2", Name: "Garage"},
			Manufacturer: "Makita",
			ModelNumber:  "DDF485",
		},
		SerialNumber:     "SN12345",
		PurchaseFrom:     "Hardware Store",
		PurchasePrice:    199.99,
		PurchaseTime:     "2024-03-01",
		LifetimeWarranty: false,
		WarrantyExpires:  "2027-03-01",
		Fields:           []homebox.CustomField{{Name: "Battery", Value: "2x 5Ah"}},
		Notes:            "Chuck is slightly worn.",
	}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/items/id-9" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(item)
	})

	tool := NewGetItemTool(newToolTestClient(t, handler))
	result, err := tool.Execute(map[string]any{"item_id": "id-9"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	for _, want := range []string{
		"Item Details: Cordless Drill",
		"Description: 18V brushless",
		"Basic Information:",
		"- Asset ID: A-009",
		"- Quantity: 1",
		"- Manufacturer: Makita",
		"- Model Number: DDF485",
		"- Serial Number: SN12345",
		"Location: Garage",
		"Purchase Information:",
		"- Purchased From: Hardware Store",
		"- Purchase Price: 199.99",
		"- Purchase Date: 2024-03-01",
		"Warranty Information:",
		"- Warranty Expires: 2027-03-01",
		"Custom Fields:",
		"- Battery: 2x 5Ah",
		"Notes:",
		"Chuck is slightly worn.",
	} {
		if !strings.Contains(result, want) {
			t.Errorf("result missing %q:\n%s", want, result)
		}
	}
	if strings.Contains(result, "Lifetime Warranty") {
		t.Errorf("lifetime warranty line should be absent:\n%s", result)
	}
}

func TestGetItemToolMissingID(t *testing.T) {
	tool := NewGetItemTool(newToolTestClient(t, http.NotFoundHandler()))
	if _, err := tool.Execute(map[string]any{}); err == nil {
		t.Error("expected error without item_id")
	}
}

func TestListLocationsToolRendersLocations(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/locations" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []homebox.Location{
				{ID: "loc-1", Name: "Office", Description: "Upstairs"},
				{ID: "loc-2", Name: "Garage"},
			},
		})
	})

	tool := NewListLocationsTool(newToolTestClient(t, handler))
	result, err := tool.Execute(nil)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	for _, want := range []string{
		"Found 2 locations:",
		"1. Office",
		"   Description: Upstairs",
		"   ID: loc-1",
		"2. Garage",
		"   ID: loc-2",
	} {
		if !strings.Contains(result, want) {
			t.Errorf("result missing %q:\n%s", want, result)
		}
	}
}

func TestListLocationsToolEmpty(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"data": []homebox.Location{}})
	})

	tool := NewListLocationsTool(newToolTestClient(t, handler))
	result, err := tool.Execute(nil)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result != "No locations found." {
		t.Errorf("unexpected empty message: %q", result)
	}
}

func TestItemsInLocationToolRendersResults(t *testing.T) {
	var gotLocations []string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLocations = r.URL.Query()["locations"]
		_ = json.NewEncoder(w).Encode(homebox.ItemPage{
			Items: []homebox.ItemSummary{
				{ID: "id-1", Name: "Hammer", Quantity: 1, Location: &homebox.LocationSummary{ID: "loc-2", Name: "Garage"}},
				{ID: "id-2", Name: "Screwdriver Set", Quantity: 3, Location: &homebox.LocationSummary{ID: "loc-2", Name: "Garage"}},
			},
			Total:    2,
			Page:     1,
			PageSize: 20,
		})
	})

	tool := NewItemsInLocationTool(newToolTestClient(t, handler), 20)
	result, err := tool.Execute(map[string]any{"location_id": "loc-2"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if len(gotLocations) != 1 || gotLocations[0] != "loc-2" {
		t.Errorf("got locations param %v, want [loc-2]", gotLocations)
	}
	for _, want := range []string{
		"Found 2 items in location 'Garage':",
		"1. Hammer",
		"2. Screwdriver Set",
		"Page 1 of 1",
	} {
		if !strings.Contains(result, want) {
			t.Errorf("result missing %q:\n%s", want, result)
		}
	}
	// Per-location listings do not repeat the location on every entry
	if strings.Contains(result, "   Location: Garage") {
		t.Errorf("location lines should be omitted:\n%s", result)
	}
}

func TestItemsInLocationToolEmpty(t *testing.T) {
	tool := NewItemsInLocationTool(newToolTestClient(t, itemPageHandler(t, homebox.ItemPage{Page: 1, PageSize: 20})), 20)
	result, err := tool.Execute(map[string]any{"location_id": "loc-9"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result != "No items found in the specified location." {
		t.Errorf("unexpected empty message: %q", result)
	}
}

func TestCreateItemTool(t *testing.T) {
	var gotBody homebox.ItemCreate
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/items" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(homebox.Item{ItemSummary: homebox.ItemSummary{ID: "new-1", Name: gotBody.Name, Quantity: gotBody.Quantity}})
	})

	tool := NewCreateItemTool(newToolTestClient(t, handler), nil)
	result, err := tool.Execute(map[string]any{
		"name":        "Label Printer",
		"description": "Thermal",
		"location_id": "loc-1",
		"quantity":    float64(2),
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if gotBody.Name != "Label Printer" || gotBody.Description != "Thermal" || gotBody.LocationID != "loc-1" || gotBody.Quantity != 2 {
		t.Errorf("unexpected request body: %+v", gotBody)
	}
	if result != "Created item 'Label Printer' (ID: new-1)." {
		t.Errorf("unexpected result: %q", result)
	}
}

func TestCreateItemToolConfirmDenied(t *testing.T) {
	requests := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	})

	var askedFor string
	deny := func(action string) bool {
		askedFor = action
		return false
	}

	tool := NewCreateItemTool(newToolTestClient(t, handler), deny)
	result, err := tool.Execute(map[string]any{"name": "Gadget"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if result != "Item creation cancelled by user." {
		t.Errorf("unexpected result: %q", result)
	}
	if requests != 0 {
		t.Errorf("denied create still hit the API %d times", requests)
	}
	if !strings.Contains(askedFor, "Gadget") {
		t.Errorf("confirmation prompt should name the item: %q", askedFor)
	}
}

func TestCreateItemToolMissingName(t *testing.T) {
	tool := NewCreateItemTool(newToolTestClient(t, http.NotFoundHandler()), nil)
	if _, err := tool.Execute(map[string]any{"description": "no name"}); err == nil {
		t.Error("expected error without name")
	}
}

func TestUpdateItemQuantityTool(t *testing.T) {
	item := homebox.Item{
		ItemSummary: homebox.ItemSummary{
			ID:       "id-5",
			Name:     "AA Batteries",
			Quantity: 4,
			Location: &homebox.LocationSummary{ID: "loc-3", Name: "Drawer"},
		},
	}
	var gotUpdate homebox.ItemUpdate
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode(item)
		case http.MethodPut:
			_ = json.NewDecoder(r.Body).Decode(&gotUpdate)
			updated := item
			updated.Quantity = gotUpdate.Quantity
			_ = json.NewEncoder(w).Encode(updated)
		default:
			t.Errorf("unexpected method %s", r.Method)
		}
	})

	tool := NewUpdateItemQuantityTool(newToolTestClient(t, handler), nil)
	result, err := tool.Execute(map[string]any{"item_id": "id-5", "quantity": float64(12)})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if gotUpdate.Quantity != 12 {
		t.Errorf("got quantity %d in update, want 12", gotUpdate.Quantity)
	}
	if gotUpdate.Name != "AA Batteries" || gotUpdate.LocationID != "loc-3" {
		t.Errorf("update should carry existing fields: %+v", gotUpdate)
	}
	if result != "Updated 'AA Batteries': quantity is now 12." {
		t.Errorf("unexpected result: %q", result)
	}
}

func TestUpdateItemQuantityToolNoChange(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			t.Error("unchanged quantity should not trigger an update")
		}
		_ = json.NewEncoder(w).Encode(homebox.Item{ItemSummary: homebox.ItemSummary{ID: "id-5", Name: "AA Batteries", Quantity: 4}})
	})

	tool := NewUpdateItemQuantityTool(newToolTestClient(t, handler), nil)
	result, err := tool.Execute(map[string]any{"item_id": "id-5", "quantity": float64(4)})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result != "Item 'AA Batteries' already has quantity 4." {
		t.Errorf("unexpected result: %q", result)
	}
}

func TestUpdateItemQuantityToolValidation(t *testing.T) {
	tool := NewUpdateItemQuantityTool(newToolTestClient(t, http.NotFoundHandler()), nil)

	if _, err := tool.Execute(map[string]any{"quantity": float64(1)}); err == nil {
		t.Error("expected error without item_id")
	}
	if _, err := tool.Execute(map[string]any{"item_id": "id-1"}); err == nil {
		t.Error("expected error without quantity")
	}
	if _, err := tool.Execute(map[string]any{"item_id": "id-1", "quantity": float64(-2)}); err == nil {
		t.Error("expected error for negative quantity")
	}
}
