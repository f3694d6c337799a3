package service

import (
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nom-protocol/nom-go/pkg/proxy"
	"github.com/nom-protocol/nom-go/pkg/txn"
	"github.com/nom-protocol/nom-go/pkg/wire"
)

// startService boots a service on an ephemeral loopback port with a fast
// retry schedule, and stops it when the test ends.
func startService(t *testing.T, cfg Config) *Service {
	t.Helper()
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:0"
	}
	if cfg.Retries == 0 {
		cfg.Retries = 2
	}
	if cfg.RetryInterval == 0 {
		cfg.RetryInterval = 50 * time.Millisecond
	}
	if cfg.CallTimeout == 0 {
		cfg.CallTimeout = 3 * time.Second
	}
	s := New(cfg)
	require.NoError(t, s.Start())
	t.Cleanup(func() { _ = s.Stop() })
	return s
}

func connect(t *testing.T, from, to *Service) *PeerHandle {
	t.Helper()
	h, err := from.Connect(to.LocalAddr().String())
	require.NoError(t, err)
	return h
}

func TestScenarioMapMirroring(t *testing.T) {
	s := startService(t, Config{})
	c := startService(t, Config{})

	m := map[string]any{"a": int64(1), "b": []any{int64(2), int64(3)}}
	require.NoError(t, s.Register("m", m))

	h := connect(t, c, s)

	names, err := h.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"m"}, names)

	p, err := h.Resolve("m")
	require.NoError(t, err)

	a, err := p.GetItem("a")
	require.NoError(t, err)
	assert.Equal(t, int64(1), a)

	// Bounded containers travel by value.
	b, err := p.GetItem("b")
	require.NoError(t, err)
	seq, ok := b.([]any)
	require.True(t, ok, "b should arrive as a local sequence")
	assert.Len(t, seq, 2)
	assert.Equal(t, int64(3), seq[1])

	// Remote length of the map itself.
	n, err := p.Len()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

type greetObj struct {
	Tag string
}

func (g *greetObj) Greet(name string) string {
	return "hi " + name
}

func TestScenarioMethodCall(t *testing.T) {
	s := startService(t, Config{})
	c := startService(t, Config{})

	require.NoError(t, s.Register("x", &greetObj{}))

	h := connect(t, c, s)
	p, err := h.Resolve("x")
	require.NoError(t, err)

	// GETATTR ships the bound method through the reference fallback; CALL
	// then carries (Ref, ["world"], {}).
	res, err := p.CallMethod("Greet", "world")
	require.NoError(t, err)
	assert.Equal(t, "hi world", res)
}

type cbHolder struct {
	Cb any
}

func TestScenarioCallbackRoundTrip(t *testing.T) {
	s := startService(t, Config{})
	c := startService(t, Config{})

	x := &cbHolder{}
	require.NoError(t, s.Register("x", x))

	var mu sync.Mutex
	var got []int64
	f := func(n int64) string {
		mu.Lock()
		got = append(got, n)
		mu.Unlock()
		return "seen"
	}

	h := connect(t, c, s)
	p, err := h.Resolve("x")
	require.NoError(t, err)

	// The local function is unserializable: it exports on C and arrives at
	// S as a Proxy bound back to C.
	require.NoError(t, p.SetAttr("Cb", f))

	cb, ok := x.Cb.(*proxy.Proxy)
	require.True(t, ok, "callback must materialize as a Proxy on the owner side")

	// S invokes the callback; it executes on C.
	res, err := cb.Call(int64(42))
	require.NoError(t, err)
	assert.Equal(t, "seen", res)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int64{42}, got)
}

func TestScenarioUnderscoreDenied(t *testing.T) {
	s := startService(t, Config{})
	c := startService(t, Config{})

	require.NoError(t, s.Register("x", &greetObj{Tag: "v"}))

	h := connect(t, c, s)
	p, err := h.Resolve("x")
	require.NoError(t, err)

	_, err = p.GetAttr("_secret")
	var re *wire.RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, wire.ErrKindAccessDenied, re.Kind)

	// The guard applies regardless of whether the attribute exists.
	assert.ErrorAs(t, p.SetAttr("_Tag", "w"), &re)
	assert.Equal(t, wire.ErrKindAccessDenied, re.Kind)

	// Non-underscore access still works.
	v, err := p.GetAttr("Tag")
	require.NoError(t, err)
	assert.Equal(t, "v", v)
}

// silentPeer reads NOM datagrams and never replies; it records what it saw.
type silentPeer struct {
	conn *net.UDPConn

	mu     sync.Mutex
	frames []*wire.Frame
	from   *net.UDPAddr
}

func newSilentPeer(t *testing.T) *silentPeer {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	sp := &silentPeer{conn: conn}
	t.Cleanup(func() { _ = conn.Close() })
	go func() {
		buf := make([]byte, 65536)
		for {
			n, addr, err := conn.ReadFromUDP(buf)
			if err != nil {
				return
			}
			data := make([]byte, n)
			copy(data, buf[:n])
			if f, err := wire.DecodeFrame(data); err == nil {
				sp.mu.Lock()
				sp.frames = append(sp.frames, f)
				sp.from = addr
				sp.mu.Unlock()
			}
		}
	}()
	return sp
}

func (sp *silentPeer) frameCount() int {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	return len(sp.frames)
}

func TestScenarioTimeoutAndLateReply(t *testing.T) {
	c := startService(t, Config{Retries: 2, RetryInterval: 40 * time.Millisecond})
	sp := newSilentPeer(t)

	peerAddr := sp.conn.LocalAddr().(*net.UDPAddr)
	_, err := c.Invoke(t.Context(), peerAddr, wire.OpList, wire.Nil())
	require.ErrorIs(t, err, txn.ErrTimeout)

	// Initial transmission plus two retransmissions, same tid each time.
	require.Equal(t, 3, sp.frameCount())
	sp.mu.Lock()
	tid := sp.frames[0].TID
	for _, f := range sp.frames {
		assert.Equal(t, tid, f.TID, "retransmissions reuse the tid")
	}
	caller := sp.from
	sp.mu.Unlock()

	// A late reply is dropped and corrupts no waiter.
	before := c.Stats().UnknownTIDDropped
	late := &wire.Frame{Flags: wire.FlagReply, TID: tid, Op: wire.OpReplyOK, Payload: mustEncode(wire.Seq())}
	data, err := late.Encode(0)
	require.NoError(t, err)
	_, err = sp.conn.WriteToUDP(data, caller)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return c.Stats().UnknownTIDDropped == before+1
	}, time.Second, 10*time.Millisecond)
}

func TestScenarioRestartInvalidatesReferences(t *testing.T) {
	s1 := startService(t, Config{})
	c := startService(t, Config{})

	require.NoError(t, s1.Register("m", map[string]any{"a": int64(1)}))

	h := connect(t, c, s1)
	p, err := h.Resolve("m")
	require.NoError(t, err)

	addr := s1.LocalAddr().String()
	require.NoError(t, s1.Stop())

	// A fresh service on the same endpoint knows none of the old ids.
	s2 := startService(t, Config{Addr: addr})
	require.NoError(t, s2.Register("m", map[string]any{"a": int64(1)}))

	_, err = p.GetItem("a")
	var re *wire.RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, wire.ErrKindNotFound, re.Kind)
}

func TestDuplicateRequestExecutesOnce(t *testing.T) {
	s := startService(t, Config{})
	require.NoError(t, s.Register("obj", &greetObj{}))

	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer conn.Close()

	// RESOLVE has an observable side effect: it bumps the export refcount.
	req := &wire.Frame{TID: 99, Op: wire.OpResolve, Payload: mustEncode(wire.Text("obj"))}
	data, err := req.Encode(0)
	require.NoError(t, err)

	readReply := func() []byte {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		buf := make([]byte, 65536)
		n, _, err := conn.ReadFromUDP(buf)
		require.NoError(t, err)
		return append([]byte(nil), buf[:n]...)
	}

	_, err = conn.WriteToUDP(data, s.LocalAddr())
	require.NoError(t, err)
	first := readReply()

	_, err = conn.WriteToUDP(data, s.LocalAddr())
	require.NoError(t, err)
	second := readReply()

	assert.Equal(t, first, second, "duplicate delivery must yield the identical reply")

	f, err := wire.DecodeFrame(first)
	require.NoError(t, err)
	v, err := wire.DecodeValue(f.Payload)
	require.NoError(t, err)
	require.Equal(t, wire.KindRef, v.Kind)

	// Exactly one execution: the refcount moved once.
	assert.Equal(t, 1, s.Exports().Refcount(v.Ref))
	assert.GreaterOrEqual(t, s.Stats().DuplicateHits, uint64(1))
}

func TestProxyIdentity(t *testing.T) {
	s := startService(t, Config{})
	c := startService(t, Config{})

	require.NoError(t, s.Register("m", map[string]any{}))

	h := connect(t, c, s)
	p1, err := h.Resolve("m")
	require.NoError(t, err)
	p2, err := h.Resolve("m")
	require.NoError(t, err)

	assert.Same(t, p1, p2, "repeated decodes of one (peer, id) share the Proxy")
	assert.True(t, p1.Equal(p2))
	assert.Equal(t, p1.Key(), p2.Key(), "hash keys agree with equality")
}

func TestReferenceFallbackExportsOnce(t *testing.T) {
	s := startService(t, Config{})
	c := startService(t, Config{})

	inner := &greetObj{Tag: "inner"}
	require.NoError(t, s.Register("holder", map[string]any{"obj": inner}))

	h := connect(t, c, s)
	p, err := h.Resolve("holder")
	require.NoError(t, err)

	before := s.Exports().Len()
	got, err := p.GetItem("obj")
	require.NoError(t, err)
	_, ok := got.(*proxy.Proxy)
	require.True(t, ok, "unserializable result must arrive as a Proxy")
	assert.Equal(t, before+1, s.Exports().Len(), "exactly one new export entry")

	// Fetching it again reuses the export and the import.
	got2, err := p.GetItem("obj")
	require.NoError(t, err)
	assert.Same(t, got, got2)
	assert.Equal(t, before+1, s.Exports().Len())
}

func TestResolveUnknownName(t *testing.T) {
	s := startService(t, Config{})
	c := startService(t, Config{})

	h := connect(t, c, s)
	_, err := h.Resolve("nope")
	var re *wire.RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, wire.ErrKindNotFound, re.Kind)
}

func TestRemoteMutationIsObservable(t *testing.T) {
	s := startService(t, Config{})
	c := startService(t, Config{})

	g := &greetObj{Tag: "old"}
	require.NoError(t, s.Register("g", g))

	h := connect(t, c, s)
	p, err := h.Resolve("g")
	require.NoError(t, err)

	v, err := p.GetAttr("Tag")
	require.NoError(t, err)
	assert.Equal(t, "old", v)

	// Mutate on the owner side; the next proxy read must see it
	// because proxies never cache.
	g.Tag = "new"
	v, err = p.GetAttr("Tag")
	require.NoError(t, err)
	assert.Equal(t, "new", v)

	// And a proxy write is visible to the owner.
	require.NoError(t, p.SetAttr("Tag", "written"))
	assert.Equal(t, "written", g.Tag)
}

func TestItemMutationAndDeletion(t *testing.T) {
	s := startService(t, Config{})
	c := startService(t, Config{})

	m := map[string]any{"k": int64(1)}
	require.NoError(t, s.Register("m", m))

	h := connect(t, c, s)
	p, err := h.Resolve("m")
	require.NoError(t, err)

	require.NoError(t, p.SetItem("k", int64(2)))
	assert.Equal(t, int64(2), m["k"])

	require.NoError(t, p.DelItem("k"))
	assert.NotContains(t, m, "k")

	_, err = p.GetItem("k")
	var re *wire.RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, wire.ErrKindNotFound, re.Kind)
}

func TestStrAndReprAreRemoteOperations(t *testing.T) {
	s := startService(t, Config{})
	c := startService(t, Config{})

	require.NoError(t, s.Register("v", []any{int64(1)}))

	h := connect(t, c, s)
	p, err := h.Resolve("v")
	require.NoError(t, err)

	str, err := p.Str()
	require.NoError(t, err)
	assert.Equal(t, "[1]", str)

	repr, err := p.Repr()
	require.NoError(t, err)
	assert.Contains(t, repr, "interface {}")
}

func TestReleaseDropsAdvisoryRefcount(t *testing.T) {
	s := startService(t, Config{})
	c := startService(t, Config{})

	require.NoError(t, s.Register("m", map[string]any{}))

	h := connect(t, c, s)
	p, err := h.Resolve("m")
	require.NoError(t, err)

	id := p.RemoteID()
	assert.Equal(t, 1, s.Exports().Refcount(id))

	p.Release()
	require.Eventually(t, func() bool {
		return s.Exports().Refcount(id) == 0
	}, time.Second, 10*time.Millisecond, "RELEASE must reach the owner")

	// The name keeps the export alive.
	_, err = s.Exports().ResolveLocal(id)
	assert.NoError(t, err)
}

func TestConcurrentCallsFromOnePeer(t *testing.T) {
	s := startService(t, Config{})
	c := startService(t, Config{})

	require.NoError(t, s.Register("m", map[string]any{"k": int64(7)}))

	h := connect(t, c, s)
	p, err := h.Resolve("m")
	require.NoError(t, err)

	const callers = 16
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := p.GetItem("k")
			if err == nil && v != int64(7) {
				err = errors.New("wrong value")
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
}

func TestLifecycleRules(t *testing.T) {
	s := New(Config{Addr: "127.0.0.1:0"})
	assert.Equal(t, StateUnstarted, s.State())

	// Registration before start is legal.
	require.NoError(t, s.Register("early", map[string]any{}))

	// Connect requires RUNNING.
	_, err := s.Connect("127.0.0.1:1")
	assert.ErrorIs(t, err, ErrNotRunning)

	require.NoError(t, s.Start())
	assert.Equal(t, StateRunning, s.State())
	assert.ErrorIs(t, s.Start(), ErrAlreadyStarted)

	require.NoError(t, s.Stop())
	assert.Equal(t, StateStopped, s.State())
	assert.NoError(t, s.Stop(), "stop is idempotent")

	assert.ErrorIs(t, s.Register("late", map[string]any{}), ErrStopped)
	_, err = s.Connect("127.0.0.1:1")
	assert.ErrorIs(t, err, ErrNotRunning)
}

func TestStopWakesOutstandingCalls(t *testing.T) {
	c := startService(t, Config{Retries: 5, RetryInterval: time.Second, CallTimeout: time.Minute})
	sp := newSilentPeer(t)

	done := make(chan error, 1)
	go func() {
		_, err := c.Invoke(t.Context(), sp.conn.LocalAddr().(*net.UDPAddr), wire.OpList, wire.Nil())
		done <- err
	}()

	require.Eventually(t, func() bool { return sp.frameCount() > 0 }, time.Second, 5*time.Millisecond)
	require.NoError(t, c.Stop())

	select {
	case err := <-done:
		assert.ErrorIs(t, err, txn.ErrServiceStopped)
	case <-time.After(2 * time.Second):
		t.Fatal("waiter not woken by Stop")
	}
}

func TestMalformedDatagramsAreCountedAndDropped(t *testing.T) {
	s := startService(t, Config{})

	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.WriteToUDP([]byte("definitely not a NOM frame"), s.LocalAddr())
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return s.Stats().MalformedDropped == 1
	}, time.Second, 10*time.Millisecond)
}

func TestHelloVersionNegotiation(t *testing.T) {
	s := startService(t, Config{})

	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer conn.Close()

	call := func(tid uint32, version int64) *wire.Frame {
		req := &wire.Frame{TID: tid, Op: wire.OpHello, Payload: mustEncode(wire.Int(version))}
		data, err := req.Encode(0)
		require.NoError(t, err)
		_, err = conn.WriteToUDP(data, s.LocalAddr())
		require.NoError(t, err)

		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		buf := make([]byte, 65536)
		n, _, err := conn.ReadFromUDP(buf)
		require.NoError(t, err)
		f, err := wire.DecodeFrame(buf[:n])
		require.NoError(t, err)
		return f
	}

	// A newer peer negotiates down to our version.
	f := call(1, int64(wire.Version)+5)
	require.Equal(t, wire.OpReplyOK, f.Op)
	v, err := wire.DecodeValue(f.Payload)
	require.NoError(t, err)
	assert.Equal(t, wire.Int(int64(wire.Version)), v)

	// A peer below the minimum is rejected.
	f = call(2, 0)
	require.Equal(t, wire.OpReplyErr, f.Op)
	v, err = wire.DecodeValue(f.Payload)
	require.NoError(t, err)
	re, ok := wire.ParseErrorPayload(v)
	require.True(t, ok)
	assert.Equal(t, wire.ErrKindUnsupportedVersion, re.Kind)
}

func TestBidirectionalMirroring(t *testing.T) {
	// Both peers publish; both resolve. Symmetry is the point.
	a := startService(t, Config{})
	b := startService(t, Config{})

	require.NoError(t, a.Register("a-obj", map[string]any{"who": "a"}))
	require.NoError(t, b.Register("b-obj", map[string]any{"who": "b"}))

	ha := connect(t, a, b) // a's handle on b
	hb := connect(t, b, a) // b's handle on a

	pb, err := ha.Resolve("b-obj")
	require.NoError(t, err)
	who, err := pb.GetItem("who")
	require.NoError(t, err)
	assert.Equal(t, "b", who)

	pa, err := hb.Resolve("a-obj")
	require.NoError(t, err)
	who, err = pa.GetItem("who")
	require.NoError(t, err)
	assert.Equal(t, "a", who)
}
