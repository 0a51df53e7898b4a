package loom

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	ix := buildForest(t)
	require.NoError(t, ix.Checkout(3))
	require.NoError(t, ix.Tag("bookmark"))
	ix.SetName("roundtrip")

	data, err := Marshal(ix)
	require.NoError(t, err)

	loaded, err := Unmarshal(data)
	require.NoError(t, err)

	assert.Equal(t, ix.Name(), loaded.Name())
	assert.Equal(t, ix.DocID(), loaded.DocID())
	assert.Equal(t, ix.Tags(), loaded.Tags())
	assert.Equal(t, ix.Store().IDs(), loaded.Store().IDs())
	assert.Equal(t, pathIDs(ix), pathIDs(loaded))

	for _, id := range ix.Store().IDs() {
		want, err := ix.Store().Get(id)
		require.NoError(t, err)
		got, err := loaded.Store().Get(id)
		require.NoError(t, err)
		assert.Equal(t, want.Text, got.Text)
		assert.Equal(t, want.Prefix, got.Prefix)
		assert.Equal(t, want.ChildIDs(), got.ChildIDs())
		assert.Equal(t, want.CheckedOut, got.CheckedOut)
	}
}

func TestUnmarshalEmptyDocument(t *testing.T) {
	ix, err := Unmarshal([]byte(`{"index_struct":{"nodes":{},"roots":[]},"tags":{}}`))
	require.NoError(t, err)
	assert.Equal(t, 0, ix.Store().Size())
	assert.Empty(t, ix.Path())
}

func TestUnmarshalIDAllocationContinuesAfterLoad(t *testing.T) {
	ix := buildForest(t)
	data, err := Marshal(ix)
	require.NoError(t, err)

	loaded, err := Unmarshal(data)
	require.NoError(t, err)

	require.NoError(t, loaded.Checkout(0))
	node, err := loaded.Extend("fresh", "")
	require.NoError(t, err)
	assert.Equal(t, 6, node.ID)
}

func TestUnmarshalMissingChildIsCorrupt(t *testing.T) {
	raw := `{"index_struct":{"nodes":{"0":{"text":"a","children":[7]}},"roots":[0]},"tags":{}}`
	_, err := Unmarshal([]byte(raw))
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestUnmarshalTwoParentsIsCorrupt(t *testing.T) {
	raw := `{"index_struct":{"nodes":{
		"0":{"text":"a","children":[2]},
		"1":{"text":"b","children":[2]},
		"2":{"text":"c","children":[]}
	},"roots":[0,1]},"tags":{}}`
	_, err := Unmarshal([]byte(raw))
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestUnmarshalTwoActivePathsIsCorrupt(t *testing.T) {
	raw := `{"index_struct":{"nodes":{
		"0":{"text":"a","children":[],"checked_out":true},
		"1":{"text":"b","children":[],"checked_out":true}
	},"roots":[0,1]},"tags":{}}`
	_, err := Unmarshal([]byte(raw))
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestUnmarshalDisconnectedCheckoutIsCorrupt(t *testing.T) {
	// 0 is checked out, 2 is checked out, but 1 between them is not.
	raw := `{"index_struct":{"nodes":{
		"0":{"text":"a","children":[1],"checked_out":true},
		"1":{"text":"b","children":[2]},
		"2":{"text":"c","children":[],"checked_out":true}
	},"roots":[0]},"tags":{}}`
	_, err := Unmarshal([]byte(raw))
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestUnmarshalCycleIsCorrupt(t *testing.T) {
	raw := `{"index_struct":{"nodes":{
		"0":{"text":"a","children":[]},
		"1":{"text":"b","children":[2]},
		"2":{"text":"c","children":[1]}
	},"roots":[0]},"tags":{}}`
	_, err := Unmarshal([]byte(raw))
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestUnmarshalDigestMismatchIsCorrupt(t *testing.T) {
	ix := buildForest(t)
	data, err := Marshal(ix)
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &doc))
	doc["digest"] = json.RawMessage(`"deadbeef"`)
	tampered, err := json.Marshal(doc)
	require.NoError(t, err)

	_, err = Unmarshal(tampered)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestUnmarshalGarbageIsCorrupt(t *testing.T) {
	_, err := Unmarshal([]byte(`{"index_struct": [1,2,3]}`))
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestUnmarshalWithoutDigestIsAccepted(t *testing.T) {
	raw := `{"index_struct":{"nodes":{"0":{"text":"a","children":[],"checked_out":true}},"roots":[0]},"tags":{"start":0}}`
	ix, err := Unmarshal([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, 0, ix.Tip().ID)
	assert.Equal(t, map[string]int{"start": 0}, ix.Tags())
}
