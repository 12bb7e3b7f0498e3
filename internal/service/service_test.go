package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/store-inventory/internal/auth"
	"github.com/iliyamo/store-inventory/internal/model"
	"github.com/iliyamo/store-inventory/internal/queue"
	"github.com/iliyamo/store-inventory/internal/repository/inmem"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.Event
}

var _ queue.Publisher = (*recordingPublisher)(nil)

func (p *recordingPublisher) Publish(_ context.Context, ev queue.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type fixture struct {
	db          *inmem.DB
	tokens      *auth.TokenManager
	revocations *inmem.Revocations
	pub         *recordingPublisher

	managers    *ManagerService
	stores      *StoreService
	inventories *InventoryService
	items       *ItemService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tokens, err := auth.NewTokenManager("service-test-secret", "HS256", 24*time.Hour)
	require.NoError(t, err)

	f := &fixture{
		db:          inmem.New(),
		tokens:      tokens,
		revocations: inmem.NewRevocations(24 * time.Hour),
		pub:         &recordingPublisher{},
	}
	log := zap.NewNop()
	f.managers = NewManagerService(f.db.Managers(), tokens, f.revocations, f.pub, bcrypt.MinCost, log)
	f.stores = NewStoreService(f.db.Stores(), f.pub, log)
	f.inventories = NewInventoryService(f.db.Inventories(), log)
	f.items = NewItemService(f.db.Items(), f.db.Inventories(), f.pub, log)
	return f
}

func (f *fixture) register(t *testing.T, email string) *model.Manager {
	t.Helper()
	m, err := f.managers.Register(context.Background(), RegisterInput{Name: "Manager " + email, Email: email, Password: "password123"})
	require.NoError(t, err)
	return m
}

// managerWithStore registers a manager and creates a store assigned to them.
func (f *fixture) managerWithStore(t *testing.T, email string) (*model.Manager, *model.Store) {
	t.Helper()
	m := f.register(t, email)
	s, err := f.stores.Create(context.Background(), m, StoreInput{Name: "Store of " + email, Location: "Somewhere 1"}, true)
	require.NoError(t, err)
	m, err = f.managers.Get(context.Background(), m.ID)
	require.NoError(t, err)
	return m, s
}
