package dto

// HealthResponse reports service liveness.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version,omitempty"`
}

// ProcessResponse summarizes a manual trigger invocation.
type ProcessResponse struct {
	Status    string `json:"status"`
	Total     int    `json:"total"`
	Processed int    `json:"processed"`
	Invalid   int    `json:"invalid,omitempty"`
	Failed    int    `json:"failed,omitempty"`
	BatchID   string `json:"batch_id"`
}

// DrinkResponse is one stored drink. Record is the full enriched object.
type DrinkResponse struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Record map[string]any `json:"record"`
}

// ListDrinksResponse is a list of stored drinks.
type ListDrinksResponse struct {
	Drinks []DrinkSummary `json:"drinks"`
	Total  int            `json:"total"`
}

// DrinkSummary is a brief representation of a drink for list responses.
type DrinkSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	Alcoholic string `json:"alcoholic"`
	Processed string `json:"processed"`
}

// ListBatchesResponse is a list of recorded batches.
type ListBatchesResponse struct {
	Batches []BatchSummary `json:"batches"`
}

// BatchSummary is one batch outcome.
type BatchSummary struct {
	ID          string `json:"id"`
	Source      string `json:"source"`
	Total       int    `json:"total"`
	Invalid     int    `json:"invalid"`
	Stored      int    `json:"stored"`
	StoreFailed int    `json:"store_failed"`
	Mirror      string `json:"mirror,omitempty"`
	Created     string `json:"created"`
}

// DescribeDrinkResponse carries a generated drink description and its review
// verdict.
type DescribeDrinkResponse struct {
	ID           string `json:"id"`
	Description  string `json:"description"`
	ReviewStatus string `json:"review_status,omitempty"`
}
