package services

import (
	"fmt"

	"duo-journal-backend/internal/catalog"
)

// PromptResponse is a conversation starter
type PromptResponse struct {
	Kind catalog.Kind `json:"kind"`
	Text string       `json:"text"`
}

// PromptService hands out conversation starters from the catalog
type PromptService struct {
	catalog *catalog.Catalog
}

// NewPromptService creates a new prompt service
func NewPromptService(cat *catalog.Catalog) *PromptService {
	return &PromptService{catalog: cat}
}

// Random picks a prompt or question
func (s *PromptService) Random(kind catalog.Kind) (*PromptResponse, error) {
	if kind == "" {
		kind = catalog.KindPrompt
	}
	text, err := s.catalog.Random(kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return &PromptResponse{Kind: kind, Text: text}, nil
}

// Tags lists the tags entries may carry
func (s *PromptService) Tags() []string {
	return s.catalog.Tags
}
