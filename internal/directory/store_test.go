package directory

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/turnos/pkg/logging"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client, MustBuiltin("general"), logging.New("error")), mr
}

func TestStore_FallsBackWithoutOverride(t *testing.T) {
	store, _ := newTestStore(t)

	dir, err := store.Directory(context.Background())
	require.NoError(t, err)
	assert.Equal(t, MustBuiltin("general").Entries(), dir.Entries())
}

func TestStore_SetAndReset(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t)

	require.NoError(t, store.Set(ctx, MustBuiltin("centro")))
	assert.True(t, mr.Exists(overrideKey))

	dir, err := store.Directory(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Dr. Martín Rivas", "Dr. Sergio Paz"}, dir.Medicos("Traumatología"))
	assert.Empty(t, dir.Medicos("Gastroenterología"))

	require.NoError(t, store.Reset(ctx))
	assert.False(t, mr.Exists(overrideKey))

	dir, err = store.Directory(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Dr. Aguilar Marcelo"}, dir.Medicos("Gastroenterología"))
}

func TestStore_CorruptOverrideUsesFallback(t *testing.T) {
	store, mr := newTestStore(t)
	require.NoError(t, mr.Set(overrideKey, "not-json"))

	dir, err := store.Directory(context.Background())
	require.NoError(t, err)
	assert.Equal(t, MustBuiltin("general").Entries(), dir.Entries())
}

func TestStore_RedisDownUsesFallback(t *testing.T) {
	store, mr := newTestStore(t)
	mr.Close()

	dir, err := store.Directory(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Dr. Aguilar Marcelo", "Claudia Zamora"}, dir.Medicos("Clínica Médica"))
}

func TestStatic(t *testing.T) {
	dir := MustBuiltin("centro")
	got, err := NewStatic(dir).Directory(context.Background())
	require.NoError(t, err)
	assert.Same(t, dir, got)
}
