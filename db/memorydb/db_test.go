package memorydb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var namespaceTest = []byte("acct")

func TestMemoryDB(t *testing.T) {
	db := NewDB()

	exists, err := db.Exist(namespaceTest, []byte("key"))
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, db.Set(namespaceTest, []byte("key"), []byte("value")))

	value, exists, err := db.Get(namespaceTest, []byte("key"))
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, []byte("value"), value)

	// same key under another namespace is a different entry
	_, exists, err = db.Get([]byte("other"), []byte("key"))
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, db.Delete(namespaceTest, []byte("key")))
	exists, err = db.Exist(namespaceTest, []byte("key"))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemoryDBOverwrite(t *testing.T) {
	db := NewDB()
	require.NoError(t, db.Set(namespaceTest, []byte("key"), []byte("one")))
	require.NoError(t, db.Set(namespaceTest, []byte("key"), []byte("two")))

	value, exists, err := db.Get(namespaceTest, []byte("key"))
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, []byte("two"), value)
}
