package storage

import (
	"errors"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "store.json"))
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func addRole(channelID, roleID string) func(GuildVoiceConfig) (GuildVoiceConfig, error) {
	return func(cfg GuildVoiceConfig) (GuildVoiceConfig, error) {
		cfg.ChannelRoles[channelID] = append(cfg.ChannelRoles[channelID], roleID)
		return cfg, nil
	}
}

func TestGetReturnsLazyDefault(t *testing.T) {
	s := newTestStorage(t)

	cfg, err := s.Get("g1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if cfg.Enabled {
		t.Fatal("expected new guild to be disabled")
	}
	if len(cfg.ChannelRoles) != 0 {
		t.Fatalf("expected no bindings, got %v", cfg.ChannelRoles)
	}
	if cfg.DefaultChannelID != "" {
		t.Fatalf("expected no default channel, got %q", cfg.DefaultChannelID)
	}
}

func TestMutatePersistsResult(t *testing.T) {
	s := newTestStorage(t)

	out, err := s.Mutate("g1", addRole("c1", "r1"))
	if err != nil {
		t.Fatalf("mutate: %v", err)
	}
	if !reflect.DeepEqual(out.ChannelRoles["c1"], []string{"r1"}) {
		t.Fatalf("unexpected mutate result: %v", out.ChannelRoles)
	}

	got, err := s.Get("g1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !reflect.DeepEqual(got.ChannelRoles["c1"], []string{"r1"}) {
		t.Fatalf("unexpected stored config: %v", got.ChannelRoles)
	}
}

func TestMutateRemovesEmptyRoleSets(t *testing.T) {
	s := newTestStorage(t)

	if _, err := s.Mutate("g1", addRole("c1", "r1")); err != nil {
		t.Fatalf("seed: %v", err)
	}
	out, err := s.Mutate("g1", func(cfg GuildVoiceConfig) (GuildVoiceConfig, error) {
		cfg.ChannelRoles["c1"] = nil
		return cfg, nil
	})
	if err != nil {
		t.Fatalf("mutate: %v", err)
	}
	if _, ok := out.ChannelRoles["c1"]; ok {
		t.Fatal("expected emptied channel to be removed, not stored as {}")
	}
}

func TestMutateRejectsDuplicateRole(t *testing.T) {
	s := newTestStorage(t)

	if _, err := s.Mutate("g1", addRole("c1", "r1")); err != nil {
		t.Fatalf("seed: %v", err)
	}
	_, err := s.Mutate("g1", addRole("c1", "r1"))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	got, _ := s.Get("g1")
	if !reflect.DeepEqual(got.ChannelRoles["c1"], []string{"r1"}) {
		t.Fatalf("config changed by rejected mutation: %v", got.ChannelRoles)
	}
}

func TestMutateRejectsEnableWithNothingConfigured(t *testing.T) {
	s := newTestStorage(t)

	_, err := s.Mutate("g1", func(cfg GuildVoiceConfig) (GuildVoiceConfig, error) {
		cfg.Enabled = true
		return cfg, nil
	})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	got, _ := s.Get("g1")
	if got.Enabled {
		t.Fatal("rejected enable must not persist")
	}
}

func TestMutatePropagatesFnError(t *testing.T) {
	s := newTestStorage(t)
	sentinel := errors.New("no such assignment")

	_, err := s.Mutate("g1", func(cfg GuildVoiceConfig) (GuildVoiceConfig, error) {
		return cfg, sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected fn error to pass through, got %v", err)
	}
}

func TestSnapshotIsolation(t *testing.T) {
	s := newTestStorage(t)

	if _, err := s.Mutate("g1", addRole("c1", "r1")); err != nil {
		t.Fatalf("seed: %v", err)
	}

	snap, _ := s.Get("g1")
	snap.ChannelRoles["c1"][0] = "tampered"
	snap.ChannelRoles["c2"] = []string{"r2"}

	got, _ := s.Get("g1")
	if !reflect.DeepEqual(got.ChannelRoles, map[string][]string{"c1": {"r1"}}) {
		t.Fatalf("snapshot mutation leaked into store: %v", got.ChannelRoles)
	}
}

func TestConcurrentMutatesSameGuildKeepBothEffects(t *testing.T) {
	s := newTestStorage(t)

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for _, binding := range []struct{ channel, role string }{
		{"c1", "r1"},
		{"c2", "r2"},
	} {
		wg.Add(1)
		go func(channel, role string) {
			defer wg.Done()
			_, err := s.Mutate("g1", addRole(channel, role))
			errs <- err
		}(binding.channel, binding.role)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Logf("writer result: %v", err)
		if err != nil {
			t.Fatalf("concurrent mutate failed: %v", err)
		}
	}

	got, _ := s.Get("g1")
	want := map[string][]string{"c1": {"r1"}, "c2": {"r2"}}
	if !reflect.DeepEqual(got.ChannelRoles, want) {
		t.Fatalf("lost update: got %v, want %v", got.ChannelRoles, want)
	}
}

// failingBackend accepts writes in memory but refuses to persist.
type failingBackend struct {
	data map[string]any
}

func newFailingBackend() *failingBackend { return &failingBackend{data: map[string]any{}} }

func (b *failingBackend) Get(key string) (any, bool) { v, ok := b.data[key]; return v, ok }
func (b *failingBackend) Put(key string, value any)  { b.data[key] = value }
func (b *failingBackend) Delete(key string)          { delete(b.data, key) }
func (b *failingBackend) SaveToFile() error          { return errors.New("disk full") }

// gatedBackend parks inside SaveToFile until released, then refuses the write.
type gatedBackend struct {
	data    map[string]any
	entered chan struct{}
	release chan struct{}
}

func (b *gatedBackend) Get(key string) (any, bool) { v, ok := b.data[key]; return v, ok }
func (b *gatedBackend) Put(key string, value any)  { b.data[key] = value }
func (b *gatedBackend) Delete(key string)          { delete(b.data, key) }
func (b *gatedBackend) SaveToFile() error {
	close(b.entered)
	<-b.release
	return errors.New("disk full")
}

func TestGetNeverObservesUnpersistedState(t *testing.T) {
	backend := &gatedBackend{
		data:    map[string]any{},
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	s := NewWithBackend(backend)

	mutateDone := make(chan struct{})
	go func() {
		defer close(mutateDone)
		_, _ = s.Mutate("g1", addRole("c1", "r1"))
	}()
	<-backend.entered

	// The mutation is parked mid-persist; a reader arriving now must wait for
	// its outcome instead of seeing the not-yet-committed value.
	got := make(chan GuildVoiceConfig, 1)
	go func() {
		cfg, err := s.Get("g1")
		if err != nil {
			t.Errorf("get: %v", err)
		}
		got <- cfg
	}()

	close(backend.release)
	<-mutateDone

	cfg := <-got
	if len(cfg.ChannelRoles) != 0 {
		t.Fatalf("reader observed state that was rolled back: %v", cfg.ChannelRoles)
	}
}

func TestMutateRollsBackOnPersistFailure(t *testing.T) {
	s := NewWithBackend(newFailingBackend())

	_, err := s.Mutate("g1", addRole("c1", "r1"))
	var perr *PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}

	// The guild had no record before the failed write; it must have none after.
	got, err := s.Get("g1")
	if err != nil {
		t.Fatalf("get after rollback: %v", err)
	}
	if len(got.ChannelRoles) != 0 {
		t.Fatalf("failed write left partial state: %v", got.ChannelRoles)
	}
}
