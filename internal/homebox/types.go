package homebox

import "time"

// LocationSummary is the location reference embedded in items.
type LocationSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Location is a storage location entry.
type Location struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	ItemCount   int       `json:"itemCount,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt,omitempty"`
}

// CustomField is a user-defined field attached to an item.
type CustomField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ItemSummary is the compact item representation returned by list endpoints.
type ItemSummary struct {
	ID           string           `json:"id"`
	AssetID      string           `json:"assetId,omitempty"`
	Name         string           `json:"name"`
	Description  string           `json:"description,omitempty"`
	Quantity     int              `json:"quantity"`
	Location     *LocationSummary `json:"location,omitempty"`
	Manufacturer string           `json:"manufacturer,omitempty"`
	ModelNumber  string           `json:"modelNumber,omitempty"`
}

// Item is the full item representation returned by the detail endpoint.
type Item struct {
	ItemSummary

	SerialNumber     string        `json:"serialNumber,omitempty"`
	PurchaseFrom     string        `json:"purchaseFrom,omitempty"`
	PurchasePrice    float64       `json:"purchasePrice,omitempty"`
	PurchaseTime     string        `json:"purchaseTime,omitempty"`
	LifetimeWarranty bool          `json:"lifetimeWarranty,omitempty"`
	WarrantyDetails  string        `json:"warrantyDetails,omitempty"`
	WarrantyExpires  string        `json:"warrantyExpires,omitempty"`
	Fields           []CustomField `json:"fields,omitempty"`
	Notes            string        `json:"notes,omitempty"`
}

// ItemPage is one page of item search results.
type ItemPage struct {
	Items    []ItemSummary `json:"data"`
	Total    int           `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"pageSize"`
}

// TotalPages returns the number of pages for the page size used.
func (p *ItemPage) TotalPages() int {
	if p.PageSize <= 0 {
		return 0
	}
	return (p.Total + p.PageSize - 1) / p.PageSize
}

// locationList is the wire format of the locations endpoint.
type locationList struct {
	Data []Location `json:"data"`
}

// ItemQuery describes an item search.
type ItemQuery struct {
	Query       string
	LocationIDs []string
	Page        int
	PageSize    int
}

// ItemCreate is the payload for creating an item.
type ItemCreate struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	LocationID  string `json:"locationId,omitempty"`
	Quantity    int    `json:"quantity,omitempty"`
}

// ItemUpdate is the payload for replacing an item.
// The Homebox update endpoint is a full PUT, so callers should build this
// from an existing Item via ToUpdate and modify only what changed.
type ItemUpdate struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Description  string        `json:"description,omitempty"`
	Quantity     int           `json:"quantity"`
	LocationID   string        `json:"locationId,omitempty"`
	AssetID      string        `json:"assetId,omitempty"`
	Manufacturer string        `json:"manufacturer,omitempty"`
	ModelNumber  string        `json:"modelNumber,omitempty"`
	SerialNumber string        `json:"serialNumber,omitempty"`
	Notes        string        `json:"notes,omitempty"`
	Fields       []CustomField `json:"fields,omitempty"`
}

// ToUpdate converts a full item into an update payload.
func (i *Item) ToUpdate() ItemUpdate {
	upd := ItemUpdate{
		ID:           i.ID,
		Name:         i.Name,
		Description:  i.Description,
		Quantity:     i.Quantity,
		AssetID:      i.AssetID,
		Manufacturer: i.Manufacturer,
		ModelNumber:  i.ModelNumber,
		SerialNumber: i.SerialNumber,
		Notes:        i.Notes,
		Fields:       i.Fields,
	}
	if i.Location != nil {
		upd.LocationID = i.Location.ID
	}
	return upd
}

// loginRequest is the payload of the login endpoint.
type loginRequest struct {
	Username     string `json:"username"`
	Password     string `json:"password"`
	StayLoggedIn bool   `json:"stayLoggedIn"`
}

// loginResponse is the result of the login endpoint.
type loginResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expiresAt"`
}
