// Package agent generates and reviews drink descriptions with an LLM.
package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/coffeeverse/coffeeverse/internal/storage"
)

// ReviewStatus classifies a reviewed description.
type ReviewStatus string

const (
	StatusApproved           ReviewStatus = "APPROVED"
	StatusNeedsMinorRevision ReviewStatus = "NEEDS_MINOR_REVISION"
	StatusNeedsMajorRevision ReviewStatus = "NEEDS_MAJOR_REVISION"
)

// Generator produces text from a prompt. Implemented by [GeminiGenerator];
// tests substitute fakes.
type Generator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Writer turns stored drinks into prose descriptions.
type Writer struct {
	gen Generator
}

// NewWriter creates a writer backed by gen.
func NewWriter(gen Generator) *Writer {
	return &Writer{gen: gen}
}

// Describe generates a short description of the drink.
func (w *Writer) Describe(ctx context.Context, d storage.Drink) (string, error) {
	text, err := w.gen.GenerateText(ctx, DescribePrompt(d))
	if err != nil {
		return "", fmt.Errorf("failed to generate description: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// DescribePrompt builds the generation prompt for a drink.
func DescribePrompt(d storage.Drink) string {
	var sb strings.Builder
	sb.WriteString("Write a short, factual description of the following drink for a catalog page.\n")
	sb.WriteString("Stick to the data given. Do not invent ingredients or history.\n\n")
	fmt.Fprintf(&sb, "Name: %s\n", d.Name)
	fmt.Fprintf(&sb, "Category: %s\n", d.Category)
	fmt.Fprintf(&sb, "Alcoholic: %s\n", d.Alcoholic)
	if len(d.Ingredients) > 0 {
		sb.WriteString("Ingredients:\n")
		for _, ing := range d.Ingredients {
			if ing.Measure != "" {
				fmt.Fprintf(&sb, "- %s (%s)\n", ing.Ingredient, ing.Measure)
			} else {
				fmt.Fprintf(&sb, "- %s\n", ing.Ingredient)
			}
		}
	}
	fmt.Fprintf(&sb, "Preparation: %s\n", d.Instructions)
	sb.WriteString("\nDescription:")
	return sb.String()
}

// Reviewer fact-checks generated descriptions against the stored record.
type Reviewer struct {
	gen Generator
}

// NewReviewer creates a reviewer backed by gen.
func NewReviewer(gen Generator) *Reviewer {
	return &Reviewer{gen: gen}
}

// Review asks the model to fact-check the description and classifies the
// verdict.
func (r *Reviewer) Review(ctx context.Context, d storage.Drink, description string) (ReviewStatus, error) {
	text, err := r.gen.GenerateText(ctx, ReviewPrompt(d, description))
	if err != nil {
		return "", fmt.Errorf("failed to review description: %w", err)
	}
	return ClassifyReview(text), nil
}

// ReviewPrompt builds the fact-check prompt for a description.
func ReviewPrompt(d storage.Drink, description string) string {
	var sb strings.Builder
	sb.WriteString("Fact-check the following description against the source record.\n")
	sb.WriteString("If everything matches, say there are no significant issues.\n")
	sb.WriteString("If small details are off, say minor corrections are needed and list them.\n")
	sb.WriteString("Otherwise, explain what is wrong.\n\n")
	fmt.Fprintf(&sb, "Description: %s\n\n", description)
	fmt.Fprintf(&sb, "Source record: name=%s category=%s alcoholic=%s\n", d.Name, d.Category, d.Alcoholic)
	if len(d.Ingredients) > 0 {
		sb.WriteString("Ingredients:")
		for _, ing := range d.Ingredients {
			fmt.Fprintf(&sb, " %s", ing.Ingredient)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\nReview:")
	return sb.String()
}

// ClassifyReview maps free-form review text onto a status.
func ClassifyReview(review string) ReviewStatus {
	lower := strings.ToLower(review)
	switch {
	case strings.Contains(lower, "no significant issues"):
		return StatusApproved
	case strings.Contains(lower, "minor corrections"):
		return StatusNeedsMinorRevision
	default:
		return StatusNeedsMajorRevision
	}
}
