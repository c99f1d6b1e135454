package dto

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// HealthRequest is an empty request for the health endpoint.
type HealthRequest struct{}

// Validate implements Validatable.
func (r *HealthRequest) Validate() error { return nil }

// ProcessRequest is the manual trigger payload: a batch of raw records.
//
// The body may be either a bare JSON array of records (the shape the feed
// produces) or an object {"records": [...], "source": "..."}.
type ProcessRequest struct {
	Records []map[string]any `json:"records"`
	Source  string           `json:"source"`
}

// UnmarshalJSON accepts both the bare-array and object forms.
func (r *ProcessRequest) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return json.Unmarshal(data, &r.Records)
	}
	type plain ProcessRequest
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = ProcessRequest(p)
	return nil
}

// Validate implements Validatable.
func (r *ProcessRequest) Validate() error {
	if r.Records == nil {
		return errors.New("records are required")
	}
	return nil
}

// GetDrinkRequest fetches one stored drink by id.
type GetDrinkRequest struct {
	ID string `path:"id"`
}

// Validate implements Validatable.
func (r *GetDrinkRequest) Validate() error {
	if r.ID == "" {
		return errors.New("id is required")
	}
	return nil
}

// ListDrinksRequest lists stored drinks, optionally filtered by category.
type ListDrinksRequest struct {
	Category string `query:"category"`
	Limit    int    `query:"limit"`
}

// Validate implements Validatable.
func (r *ListDrinksRequest) Validate() error {
	if r.Limit < 0 {
		return fmt.Errorf("limit must be non-negative, got %d", r.Limit)
	}
	return nil
}

// ListBatchesRequest lists recorded batch outcomes.
type ListBatchesRequest struct{}

// Validate implements Validatable.
func (r *ListBatchesRequest) Validate() error { return nil }

// DescribeDrinkRequest asks the writer agent for a description of a stored
// drink.
type DescribeDrinkRequest struct {
	ID string `path:"id"`
}

// Validate implements Validatable.
func (r *DescribeDrinkRequest) Validate() error {
	if r.ID == "" {
		return errors.New("id is required")
	}
	return nil
}
