package refs

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nom-protocol/nom-go/pkg/proxy"
)

type thing struct{ n int }

func TestExportIdempotent(t *testing.T) {
	e := NewExports()
	obj := &thing{n: 1}

	id1 := e.Export(obj)
	id2 := e.Export(obj)
	assert.Equal(t, id1, id2, "same object must keep its id")

	other := &thing{n: 2}
	id3 := e.Export(other)
	assert.NotEqual(t, id1, id3, "distinct objects get distinct ids")

	got, err := e.ResolveLocal(id1)
	require.NoError(t, err)
	assert.Same(t, obj, got.(*thing))
}

func TestIDsAreMonotonicAndNeverReused(t *testing.T) {
	e := NewExports()

	id1 := e.ExportRef(&thing{})
	e.Release(id1)
	_, err := e.ResolveLocal(id1)
	require.ErrorIs(t, err, ErrNotFound, "released unnamed export must disappear")

	id2 := e.ExportRef(&thing{})
	assert.Greater(t, id2, id1, "ids keep climbing after release")
}

func TestRegisterAndResolveName(t *testing.T) {
	e := NewExports()
	obj := &thing{n: 7}

	id := e.Register("answer", obj)
	rid, err := e.ResolveName("answer")
	require.NoError(t, err)
	assert.Equal(t, id, rid)

	_, err = e.ResolveName("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, []string{"answer"}, e.Names())
}

func TestReRegisterReplacesButKeepsReferencedID(t *testing.T) {
	e := NewExports()
	first := &thing{n: 1}
	second := &thing{n: 2}

	id1 := e.Register("obj", first)
	e.AddRef(id1) // a peer imported it

	id2 := e.Register("obj", second)
	require.NotEqual(t, id1, id2)

	// The name now resolves to the new object...
	rid, err := e.ResolveName("obj")
	require.NoError(t, err)
	assert.Equal(t, id2, rid)

	// ...but the referenced prior id stays valid until its refcount drains.
	got, err := e.ResolveLocal(id1)
	require.NoError(t, err)
	assert.Same(t, first, got.(*thing))

	e.Release(id1)
	_, err = e.ResolveLocal(id1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUnregisterKeepsReferencedExports(t *testing.T) {
	e := NewExports()
	obj := &thing{}

	id := e.Register("x", obj)
	e.AddRef(id)
	e.Unregister("x")

	_, err := e.ResolveName("x")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = e.ResolveLocal(id)
	assert.NoError(t, err, "referenced export survives unregister")

	e.Release(id)
	_, err = e.ResolveLocal(id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestExportRefCountsImports(t *testing.T) {
	e := NewExports()
	obj := &thing{}

	id := e.ExportRef(obj)
	assert.Equal(t, 1, e.Refcount(id))
	same := e.ExportRef(obj)
	assert.Equal(t, id, same)
	assert.Equal(t, 2, e.Refcount(id))

	e.Release(id)
	assert.Equal(t, 1, e.Refcount(id))
	e.Release(id)
	assert.Equal(t, -1, e.Refcount(id), "entry reaped at zero")
}

func TestReleaseUnknownIDIsHarmless(t *testing.T) {
	e := NewExports()
	e.Release(999)
	assert.Equal(t, 0, e.Len())
}

func TestImportsSingleProxyPerRemoteID(t *testing.T) {
	im := NewImports()
	peer := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 12074}

	made := 0
	make1 := func() *proxy.Proxy {
		made++
		return proxy.New(peer, 5, nil)
	}

	p1 := im.GetOrCreate(5, make1)
	p2 := im.GetOrCreate(5, make1)
	assert.Same(t, p1, p2, "one live Proxy per remote id")
	assert.Equal(t, 1, made)

	require.True(t, im.Drop(5))
	assert.False(t, im.Drop(5))

	p3 := im.GetOrCreate(5, make1)
	assert.NotSame(t, p1, p3, "drop then re-import builds a fresh Proxy")
	assert.True(t, p1.Equal(p3), "but equality by (peer, id) still holds")
}

func TestNonComparableObjectsGetFreshIDs(t *testing.T) {
	e := NewExports()

	type blob struct{ s []int }
	id1 := e.Export(blob{s: []int{1}})
	id2 := e.Export(blob{s: []int{1}})
	assert.NotEqual(t, id1, id2, "no identity means a fresh id per export")
}
