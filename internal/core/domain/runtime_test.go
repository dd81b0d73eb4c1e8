package domain

import (
	"sync"
	"testing"
)

func TestNewRuntimeConfig(t *testing.T) {
	config := NewRuntimeConfig("qdrant", "redis")

	if config == nil {
		t.Fatal("expected non-nil config")
	}
	if config.IndexBackend != "qdrant" {
		t.Errorf("expected qdrant, got %s", config.IndexBackend)
	}
	if config.QueueBackend != "redis" {
		t.Errorf("expected redis, got %s", config.QueueBackend)
	}
	if config.EmbeddingAvailable() || config.GeneratorAvailable() || config.IndexAvailable() {
		t.Error("expected all services to be unavailable initially")
	}
}

func TestRuntimeConfig_CanAnswer(t *testing.T) {
	config := NewRuntimeConfig("memory", "memory")

	config.SetEmbeddingAvailable(true)
	config.SetIndexAvailable(true)
	if config.CanAnswer() {
		t.Error("expected CanAnswer to be false without generator")
	}
	if !config.CanIngest() {
		t.Error("expected CanIngest to be true with embedding and index")
	}

	config.SetGeneratorAvailable(true)
	if !config.CanAnswer() {
		t.Error("expected CanAnswer to be true with all services")
	}

	config.SetIndexAvailable(false)
	if config.CanAnswer() || config.CanIngest() {
		t.Error("expected no capabilities without index")
	}
}

func TestRuntimeConfig_ConcurrentAccess(t *testing.T) {
	config := NewRuntimeConfig("memory", "memory")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(v bool) {
			defer wg.Done()
			config.SetEmbeddingAvailable(v)
			config.SetGeneratorAvailable(v)
		}(i%2 == 0)
		go func() {
			defer wg.Done()
			_ = config.CanAnswer()
		}()
	}
	wg.Wait()
}

func TestHealthStatus_Healthy(t *testing.T) {
	tests := []struct {
		name     string
		status   HealthStatus
		expected bool
	}{
		{"all up", HealthStatus{GeneratorConnected: true, IndexConnected: true, EmbeddingModelLoaded: true}, true},
		{"generator down", HealthStatus{IndexConnected: true, EmbeddingModelLoaded: true}, false},
		{"index down", HealthStatus{GeneratorConnected: true, EmbeddingModelLoaded: true}, false},
		{"nothing", HealthStatus{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.Healthy(); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}
