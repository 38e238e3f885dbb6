package redis

import (
	"testing"
)

func TestKeyBuilder_Environment_Prefixes(t *testing.T) {
	tests := []struct {
		name           string
		environment    string
		expectedPrefix string
	}{
		{
			name:           "Production environment should use prod prefix",
			environment:    "production",
			expectedPrefix: "prod",
		},
		{
			name:           "Development environment should use staging prefix",
			environment:    "development",
			expectedPrefix: "staging",
		},
		{
			name:           "Staging environment should use staging prefix",
			environment:    "staging",
			expectedPrefix: "staging",
		},
		{
			name:           "Test environment keeps its own prefix",
			environment:    "test",
			expectedPrefix: "test",
		},
		{
			name:           "Unknown environment should default to prod prefix",
			environment:    "unknown",
			expectedPrefix: "prod",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kb := NewKeyBuilder(tt.environment)
			if kb.GetPrefix() != tt.expectedPrefix {
				t.Errorf("NewKeyBuilder(%s).GetPrefix() = %s, want %s",
					tt.environment, kb.GetPrefix(), tt.expectedPrefix)
			}
		})
	}
}

func TestKeyBuilder_EventKeys(t *testing.T) {
	kb := NewKeyBuilder("production")

	tests := []struct {
		name     string
		method   func() string
		expected string
	}{
		{
			name:     "Event key",
			method:   func() string { return kb.KeyEvent("evt-1") },
			expected: "prod:events:event:evt-1",
		},
		{
			name:     "Leaderboard key",
			method:   func() string { return kb.KeyLeaderboard("evt-1") },
			expected: "prod:events:event:evt-1:leaderboard",
		},
		{
			name:     "Payment lock key",
			method:   func() string { return kb.KeyPaymentLock("pay_ABC") },
			expected: "prod:payments:lock:pay_ABC",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.method()
			if result != tt.expected {
				t.Errorf("%s = %s, want %s", tt.name, result, tt.expected)
			}
		})
	}
}

func TestKeyBuilder_EnvironmentSeparation(t *testing.T) {
	prodKey := NewKeyBuilder("production").KeyEvent("e1")
	stagingKey := NewKeyBuilder("development").KeyEvent("e1")

	if prodKey == stagingKey {
		t.Errorf("Production and staging keys should be different. Got: prod=%s, staging=%s",
			prodKey, stagingKey)
	}
	if stagingKey != "staging:events:event:e1" {
		t.Errorf("Staging key = %s, want staging:events:event:e1", stagingKey)
	}
}

func TestKeyBuilder_BuildKey(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		key         string
		expected    string
	}{
		{name: "Production simple key", environment: "production", key: "test:key", expected: "prod:test:key"},
		{name: "Staging simple key", environment: "staging", key: "test:key", expected: "staging:test:key"},
		{name: "Development simple key", environment: "development", key: "test:key", expected: "staging:test:key"},
		{name: "Unknown environment defaults to prod", environment: "qa", key: "test:key", expected: "prod:test:key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NewKeyBuilder(tt.environment).BuildKey(tt.key)
			if result != tt.expected {
				t.Errorf("BuildKey(%s) with env %s = %s, want %s",
					tt.key, tt.environment, result, tt.expected)
			}
		})
	}
}
