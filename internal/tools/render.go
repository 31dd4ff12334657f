package tools

import (
	"fmt"
	"strings"

	"github.com/hession/boxmate/internal/homebox"
)

// renderItemList writes the numbered item list shared by the search tools.
func renderItemList(b *strings.Builder, items []homebox.ItemSummary, detailed bool) {
	for idx, item := range items {
		fmt.Fprintf(b, "%d. %s\n", idx+1, item.Name)

		if item.Description != "" {
			fmt.Fprintf(b, "   Description: %s\n", item.Description)
		}
		if detailed && item.Location != nil {
			fmt.Fprintf(b, "   Location: %s\n", item.Location.Name)
		}
		if item.AssetID != "" {
			fmt.Fprintf(b, "   Asset ID: %s\n", item.AssetID)
		}
		fmt.Fprintf(b, "   Quantity: %d\n", item.Quantity)
		if detailed && item.Manufacturer != "" {
			fmt.Fprintf(b, "   Manufacturer: %s\n", item.Manufacturer)
		}
		if detailed && item.ModelNumber != "" {
			fmt.Fprintf(b, "   Model: %s\n", item.ModelNumber)
		}

		b.WriteString("\n")
	}
}

// renderPageFooter appends the pagination footer with a next-page hint.
func renderPageFooter(b *strings.Builder, page *homebox.ItemPage) {
	totalPages := page.TotalPages()
	fmt.Fprintf(b, "Page %d of %d\n", page.Page, totalPages)
	if page.Page < totalPages {
		fmt.Fprintf(b, "Use 'page=%d' to see more results.", page.Page+1)
	}
}

// renderSearchResults formats a search result page for the LLM.
func renderSearchResults(query string, page *homebox.ItemPage) string {
	if len(page.Items) == 0 {
		return fmt.Sprintf("No items found matching '%s'.", query)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d items matching '%s':\n\n", page.Total, query)
	renderItemList(&b, page.Items, true)
	renderPageFooter(&b, page)
	return b.String()
}

// renderLocationItems formats a per-location result page for the LLM.
func renderLocationItems(page *homebox.ItemPage) string {
	if len(page.Items) == 0 {
		return "No items found in the specified location."
	}

	// The location name comes from the first result entry
	locationName := "Unknown Location"
	if page.Items[0].Location != nil {
		locationName = page.Items[0].Location.Name
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d items in location '%s':\n\n", page.Total, locationName)
	renderItemList(&b, page.Items, false)
	renderPageFooter(&b, page)
	return b.String()
}

// renderItem formats the full item detail view for the LLM.
func renderItem(item *homebox.Item) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Item Details: %s\n\n", item.Name)

	if item.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n\n", item.Description)
	}

	b.WriteString("Basic Information:\n")
	if item.AssetID != "" {
		fmt.Fprintf(&b, "- Asset ID: %s\n", item.AssetID)
	}
	fmt.Fprintf(&b, "- Quantity: %d\n", item.Quantity)
	if item.Manufacturer != "" {
		fmt.Fprintf(&b, "- Manufacturer: %s\n", item.Manufacturer)
	}
	if item.ModelNumber != "" {
		fmt.Fprintf(&b, "- Model Number: %s\n", item.ModelNumber)
	}
	if item.SerialNumber != "" {
		fmt.Fprintf(&b, "- Serial Number: %s\n", item.SerialNumber)
	}

	if item.Location != nil {
		fmt.Fprintf(&b, "\nLocation: %s\n", item.Location.Name)
	}

	var purchase []string
	if item.PurchaseFrom != "" {
		purchase = append(purchase, fmt.Sprintf("- Purchased From: %s", item.PurchaseFrom))
	}
	if item.PurchasePrice != 0 {
		purchase = append(purchase, fmt.Sprintf("- Purchase Price: %.2f", item.PurchasePrice))
	}
	if item.PurchaseTime != "" {
		purchase = append(purchase, fmt.Sprintf("- Purchase Date: %s", item.PurchaseTime))
	}
	if len(purchase) > 0 {
		b.WriteString("\nPurchase Information:\n" + strings.Join(purchase, "\n") + "\n")
	}

	var warranty []string
	if item.LifetimeWarranty {
		warranty = append(warranty, "- Lifetime Warranty: Yes")
	}
	if item.WarrantyDetails != "" {
		warranty = append(warranty, fmt.Sprintf("- Warranty Details: %s", item.WarrantyDetails))
	}
	if item.WarrantyExpires != "" {
		warranty = append(warranty, fmt.Sprintf("- Warranty Expires: %s", item.WarrantyExpires))
	}
	if len(warranty) > 0 {
		b.WriteString("\nWarranty Information:\n" + strings.Join(warranty, "\n") + "\n")
	}

	if len(item.Fields) > 0 {
		b.WriteString("\nCustom Fields:\n")
		for _, field := range item.Fields {
			fmt.Fprintf(&b, "- %s: %s\n", field.Name, field.Value)
		}
	}

	if item.Notes != "" {
		fmt.Fprintf(&b, "\nNotes:\n%s\n", item.Notes)
	}

	return b.String()
}

// renderLocations formats the location list for the LLM.
func renderLocations(locations []homebox.Location) string {
	if len(locations) == 0 {
		return "No locations found."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d locations:\n\n", len(locations))
	for idx, location := range locations {
		fmt.Fprintf(&b, "%d. %s\n", idx+1, location.Name)
		if location.Description != "" {
			fmt.Fprintf(&b, "   Description: %s\n", location.Description)
		}
		fmt.Fprintf(&b, "   ID: %s\n\n", location.ID)
	}
	return b.String()
}
