package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appconfig "github.com/wolfman30/turnos/internal/config"
	"github.com/wolfman30/turnos/internal/directory"
	"github.com/wolfman30/turnos/pkg/logging"
)

func TestBuildRedisClientDisabledWithoutAddr(t *testing.T) {
	assert.Nil(t, BuildRedisClient(context.Background(), &appconfig.Config{}, logging.New("error"), true))
	assert.Nil(t, BuildRedisClient(context.Background(), nil, logging.New("error"), false))
}

func TestBuildRedisClientVerifiesConnection(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	client := BuildRedisClient(context.Background(), &appconfig.Config{RedisAddr: addr}, logging.New("error"), true)
	require.NotNil(t, client)
	t.Cleanup(func() { _ = client.Close() })

	mr.Close()
	assert.Nil(t, BuildRedisClient(context.Background(), &appconfig.Config{RedisAddr: addr}, logging.New("error"), true))
}

func TestBaseDirectoryUsesRevision(t *testing.T) {
	dir, err := BaseDirectory(&appconfig.Config{DirectoryRevision: "centro"})
	require.NoError(t, err)
	assert.Contains(t, dir.Especialidades(), "Pediatría")

	dir, err = BaseDirectory(&appconfig.Config{})
	require.NoError(t, err)
	assert.Equal(t, directory.MustBuiltin(directory.DefaultRevision).Especialidades(), dir.Especialidades())

	_, err = BaseDirectory(&appconfig.Config{DirectoryRevision: "nope"})
	assert.ErrorIs(t, err, directory.ErrUnknownRevision)
}

func TestBaseDirectoryPrefersFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "directorio.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"nombre":"Urología","medicos":["Dr. Pablo Vera"]}]`), 0o600))

	dir, err := BaseDirectory(&appconfig.Config{DirectoryRevision: "centro", DirectoryFile: path})
	require.NoError(t, err)
	assert.Equal(t, []string{"Urología"}, dir.Especialidades())
}

func TestBuildDirectorySource(t *testing.T) {
	cfg := &appconfig.Config{DirectoryRevision: "general"}

	src, err := BuildDirectorySource(cfg, nil, logging.New("error"))
	require.NoError(t, err)
	assert.IsType(t, &directory.Static{}, src)

	mr := miniredis.RunT(t)
	client := BuildRedisClient(context.Background(), &appconfig.Config{RedisAddr: mr.Addr()}, logging.New("error"), false)
	t.Cleanup(func() { _ = client.Close() })

	src, err = BuildDirectorySource(cfg, client, logging.New("error"))
	require.NoError(t, err)
	store, ok := src.(*directory.Store)
	require.True(t, ok)
	dir, err := store.Directory(context.Background())
	require.NoError(t, err)
	assert.Contains(t, dir.Medicos("Clínica Médica"), "Claudia Zamora")
}
