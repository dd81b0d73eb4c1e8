package mocks

import (
	"context"
	"strings"
	"sync"

	"github.com/custodia-labs/tender-rag/internal/core/domain"
	"github.com/custodia-labs/tender-rag/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.Generator = (*MockGenerator)(nil)

// MockGenerator is a mock implementation of Generator for testing
type MockGenerator struct {
	mu        sync.Mutex
	response  string
	err       error
	healthErr error
	prompts   []string
}

// NewMockGenerator creates a MockGenerator that answers with a fixed response
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{response: "mock answer"}
}

func (m *MockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

// GenerateStream emits the response word by word
func (m *MockGenerator) GenerateStream(ctx context.Context, prompt string, onToken driven.TokenHandler) error {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	response, err := m.response, m.err
	m.mu.Unlock()

	if err != nil {
		return err
	}
	words := strings.SplitAfter(response, " ")
	for _, w := range words {
		if err := onToken(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *MockGenerator) Model() string {
	return "mock-generator"
}

func (m *MockGenerator) HealthCheck(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.healthErr
}

func (m *MockGenerator) Close() error {
	return nil
}

// Helper methods for testing

func (m *MockGenerator) SetResponse(response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.response = response
}

// SetError makes every generation fail with err; nil clears it
func (m *MockGenerator) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// SetTimeout makes generation fail with ErrGenerationTimeout
func (m *MockGenerator) SetTimeout() {
	m.SetError(domain.ErrGenerationTimeout)
}

func (m *MockGenerator) SetHealthError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.healthErr = err
}

// Prompts returns every prompt received so far
func (m *MockGenerator) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// LastPrompt returns the most recent prompt, or ""
func (m *MockGenerator) LastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prompts) == 0 {
		return ""
	}
	return m.prompts[len(m.prompts)-1]
}
