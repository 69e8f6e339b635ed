package slotmap

import (
	"encoding/binary"
	"encoding/json"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNullKey(t *testing.T) {
	nk := Null()
	assert.True(t, nk.IsNull())

	var zero Key
	assert.Equal(t, nk, zero, "the zero Key is the null key")

	sm := New[int]()
	k := sm.Insert(42)
	assert.False(t, k.IsNull())

	_, ok := sm.Get(nk)
	assert.False(t, ok)
	_, ok = sm.Remove(nk)
	assert.False(t, ok)
	assert.False(t, sm.Contains(nk))

	hm := NewHop[int]()
	hm.Insert(42)
	_, ok = hm.Get(nk)
	assert.False(t, ok)
	assert.False(t, hm.Contains(nk))
}

func TestKeyCompare(t *testing.T) {
	sm := New[int]()
	keys := make([]Key, 0, 16)
	for i := 0; i < 16; i++ {
		keys = append(keys, sm.Insert(i))
	}

	for _, k := range keys {
		assert.Zero(t, k.Compare(k))
	}

	shuffled := slices.Clone(keys)
	slices.Reverse(shuffled)
	slices.SortFunc(shuffled, Key.Compare)
	for i := 1; i < len(shuffled); i++ {
		assert.Negative(t, shuffled[i-1].Compare(shuffled[i]))
		assert.Positive(t, shuffled[i].Compare(shuffled[i-1]))
	}
}

func TestKeyString(t *testing.T) {
	assert.Equal(t, "Key(null)", Null().String())

	sm := New[string]()
	k := sm.Insert("x")
	assert.Equal(t, "Key(0 v1)", k.String())
}

func TestKeyJSONRoundTrip(t *testing.T) {
	sm := New[int]()
	k := sm.Insert(42)
	sm.Remove(k)
	reused := sm.Insert(43) // same slot, later version

	for _, k := range []Key{k, reused, Null()} {
		data, err := json.Marshal(k)
		require.NoError(t, err)

		var got Key
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, k, got)
	}

	// Keys embedded in larger structures survive too.
	type node struct {
		Next  Key `json:"next"`
		Value int `json:"value"`
	}
	data, err := json.Marshal(node{Next: reused, Value: 7})
	require.NoError(t, err)
	var got node
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, reused, got.Next)
	assert.Equal(t, 7, got.Value)
}

func TestKeyJSONHardening(t *testing.T) {
	// Even ("vacant-looking") versions are forced odd so malicious input can
	// never validate against a vacant slot encoding.
	var malicious Key
	require.NoError(t, json.Unmarshal([]byte(`{"idx":0,"version":4}`), &malicious))
	assert.Equal(t, uint32(5), malicious.version)
	assert.Equal(t, uint32(0), malicious.idx)

	// Any attempted null variant collapses to the single canonical null key.
	for _, input := range []string{
		`{"idx":4294967295,"version":1}`,
		`{"idx":4294967295,"version":2}`,
		`{"idx":4294967295,"version":4294967295}`,
	} {
		var k Key
		require.NoError(t, json.Unmarshal([]byte(input), &k))
		assert.True(t, k.IsNull(), "input %s", input)
		assert.Equal(t, Null(), k)
	}
}

func TestDecodedKeyCannotMatchVacantSlot(t *testing.T) {
	sm := New[string]()
	k := sm.Insert("gone")
	sm.Remove(k) // slot 0 now vacant with version 2

	var forged Key
	require.NoError(t, json.Unmarshal([]byte(`{"idx":0,"version":2}`), &forged))
	assert.False(t, sm.Contains(forged))
	_, ok := sm.Get(forged)
	assert.False(t, ok)
}

func TestKeyBinary(t *testing.T) {
	sm := New[int]()
	k := sm.Insert(1)

	data, err := k.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, data, 8)

	var got Key
	require.NoError(t, got.UnmarshalBinary(data))
	assert.Equal(t, k, got)

	data, err = Null().MarshalBinary()
	require.NoError(t, err)
	require.NoError(t, got.UnmarshalBinary(data))
	assert.True(t, got.IsNull())

	// Hardening applies on the binary path as well.
	forged := make([]byte, 8)
	binary.LittleEndian.PutUint32(forged[0:4], 3)
	binary.LittleEndian.PutUint32(forged[4:8], 6)
	require.NoError(t, got.UnmarshalBinary(forged))
	assert.Equal(t, Key{idx: 3, version: 7}, got)

	assert.Error(t, got.UnmarshalBinary(forged[:5]))
	assert.Error(t, got.UnmarshalBinary(nil))
}
