package history_test

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/tenanthub/pkg/tenanthub/event"
	"github.com/randalmurphal/tenanthub/pkg/tenanthub/history"
)

// storeFactories returns constructors for every Store implementation.
func storeFactories(t *testing.T) map[string]func() history.Store {
	return map[string]func() history.Store{
		"memory": func() history.Store {
			return history.NewMemoryStore()
		},
		"sqlite": func() history.Store {
			s, err := history.NewSQLiteStore(":memory:")
			require.NoError(t, err)
			return s
		},
	}
}

func TestStore_RecordAndList(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := factory()
			defer store.Close()

			e1 := event.New("first", "t", "s", map[string]any{"n": 1})
			e2 := event.New("second", "t", "s", nil)
			e3 := event.NewResponse(e1, "third", "t", "s", nil)

			require.NoError(t, store.Record("tenant-a", e1))
			require.NoError(t, store.Record("tenant-a", e2))
			require.NoError(t, store.Record("tenant-a", e3))

			records, err := store.List("tenant-a", 0)
			require.NoError(t, err)
			require.Len(t, records, 3)
			assert.Equal(t, e1.ID(), records[0].EventID)
			assert.Equal(t, e3.ID(), records[2].EventID)
			assert.Equal(t, e1.ID(), records[2].ResponseID)
			assert.Equal(t, int64(1), records[0].Sequence)
			assert.Equal(t, int64(3), records[2].Sequence)
			assert.JSONEq(t, `{"n":1}`, string(records[0].Data))

			latest, err := store.List("tenant-a", 2)
			require.NoError(t, err)
			require.Len(t, latest, 2)
			assert.Equal(t, e2.ID(), latest[0].EventID)
			assert.Equal(t, e3.ID(), latest[1].EventID)
		})
	}
}

func TestStore_TenantIsolation(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := factory()
			defer store.Close()

			evt := event.New("e", "t", "s", nil)
			require.NoError(t, store.Record("a", evt))

			n, err := store.Count("b")
			require.NoError(t, err)
			assert.Zero(t, n)

			_, err = store.Get("b", evt.ID())
			assert.ErrorIs(t, err, history.ErrNotFound)

			records, err := store.List("b", 0)
			require.NoError(t, err)
			assert.Empty(t, records)
		})
	}
}

func TestStore_DuplicateIgnored(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := factory()
			defer store.Close()

			evt := event.New("e", "t", "s", nil)
			require.NoError(t, store.Record("a", evt))
			require.NoError(t, store.Record("a", evt))

			n, err := store.Count("a")
			require.NoError(t, err)
			assert.Equal(t, 1, n)
		})
	}
}

func TestStore_GetAndDelete(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := factory()
			defer store.Close()

			evt := event.New("named", "type", "source", nil)
			require.NoError(t, store.Record("a", evt))

			rec, err := store.Get("a", evt.ID())
			require.NoError(t, err)
			assert.Equal(t, "named", rec.Name)
			assert.Equal(t, "type", rec.Type)
			assert.Equal(t, "source", rec.Source)
			assert.True(t, evt.Timestamp().Equal(rec.Timestamp))

			require.NoError(t, store.DeleteTenant("a"))
			_, err = store.Get("a", evt.ID())
			assert.ErrorIs(t, err, history.ErrNotFound)
		})
	}
}

func TestStore_Closed(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := factory()
			require.NoError(t, store.Close())
			require.NoError(t, store.Close())

			err := store.Record("a", event.New("e", "t", "s", nil))
			assert.ErrorIs(t, err, history.ErrStoreClosed)

			_, err = store.List("a", 0)
			assert.ErrorIs(t, err, history.ErrStoreClosed)
		})
	}
}

func TestStore_Concurrent(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := factory()
			defer store.Close()

			const goroutines = 20
			const perGoroutine = 10

			var wg sync.WaitGroup
			for g := 0; g < goroutines; g++ {
				wg.Add(1)
				go func(g int) {
					defer wg.Done()
					tenant := fmt.Sprintf("tenant-%d", g%4)
					for i := 0; i < perGoroutine; i++ {
						assert.NoError(t, store.Record(tenant, event.New("e", "t", "s", nil)))
					}
				}(g)
			}
			wg.Wait()

			total := 0
			for i := 0; i < 4; i++ {
				n, err := store.Count(fmt.Sprintf("tenant-%d", i))
				require.NoError(t, err)
				total += n
			}
			assert.Equal(t, goroutines*perGoroutine, total)
		})
	}
}

func TestSQLiteStore_Persistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	store1, err := history.NewSQLiteStore(path)
	require.NoError(t, err)
	evt := event.New("persisted", "t", "s", nil)
	require.NoError(t, store1.Record("a", evt))
	require.NoError(t, store1.Close())

	store2, err := history.NewSQLiteStore(path)
	require.NoError(t, err)
	defer store2.Close()

	rec, err := store2.Get("a", evt.ID())
	require.NoError(t, err)
	assert.Equal(t, "persisted", rec.Name)
}

func TestSQLiteStore_InvalidPath(t *testing.T) {
	_, err := history.NewSQLiteStore("/nonexistent/path/history.db")
	assert.Error(t, err)
}
