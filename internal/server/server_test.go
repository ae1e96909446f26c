package server

import (
	"context"
	"testing"

	"github.com/yelpcamp/apiserver/config"
	"github.com/yelpcamp/apiserver/internal/session"
)

func TestNewRequiresSessionSecret(t *testing.T) {
	if _, err := New(context.Background(), config.Config{}, nil); err == nil {
		t.Fatal("expected error without a session secret")
	}
}

func TestOpenSessionStore(t *testing.T) {
	cfg := config.Config{Session: config.SessionConfig{Store: config.SessionStoreMemory}}
	store, closeStore, err := OpenSessionStore(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("OpenSessionStore: %v", err)
	}
	if _, ok := store.(*session.MemoryStore); !ok {
		t.Fatalf("store = %T; want *session.MemoryStore", store)
	}
	if err := closeStore(); err != nil {
		t.Fatalf("close: %v", err)
	}

	cfg.Session.Store = "cassandra"
	if _, _, err := OpenSessionStore(context.Background(), cfg, nil); err == nil {
		t.Fatal("expected error for unknown store")
	}
}
