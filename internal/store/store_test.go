package store

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T, s Store) {
	t.Helper()

	_, err := s.Get("missing.yaml")
	assert.True(t, errors.Is(err, ErrNotFound), err)

	require.NoError(t, s.Put("a.yaml", strings.NewReader("dims: [time]")))
	require.NoError(t, s.Put("nested/b.yaml", strings.NewReader("dims: []")))
	require.NoError(t, s.Put("a.yaml", strings.NewReader("dims: [distance]")))

	rc, err := s.Get("a.yaml")
	require.NoError(t, err)
	d, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "dims: [distance]", string(d))

	keys, err := s.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.yaml", "nested/b.yaml"}, keys)
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	assert.Equal(t, MemoryStoreType, s.Type())
	testStore(t, s)
}

func TestLocalStore(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, LocalStoreType, s.Type())
	testStore(t, s)

	_, err = s.Get("../escape.yaml")
	assert.Error(t, err)
	assert.Error(t, s.Put("../escape.yaml", strings.NewReader("")))
}
