package mirror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type greeter struct {
	Name string
	Cb   any
}

func (g *greeter) Greet(who string) string {
	return "hi " + who
}

func (g *greeter) Sum(nums ...int) int {
	total := 0
	for _, n := range nums {
		total += n
	}
	return total
}

func (g *greeter) Fail() (string, error) {
	return "", errors.New("boom")
}

func TestStructAttributes(t *testing.T) {
	g := &greeter{Name: "ada"}
	o := Wrap(g)

	got, err := o.GetAttr("Name")
	require.NoError(t, err)
	assert.Equal(t, "ada", got)

	require.NoError(t, o.SetAttr("Name", "grace"))
	assert.Equal(t, "grace", g.Name)

	_, err = o.GetAttr("Missing")
	assert.ErrorIs(t, err, ErrNotFound)

	err = o.SetAttr("Missing", 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMethodsSurfaceAsCallables(t *testing.T) {
	o := Wrap(&greeter{})

	m, err := o.GetAttr("Greet")
	require.NoError(t, err)

	res, err := Wrap(m).Call([]any{"world"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "hi world", res)
}

func TestAttrWriteNeedsPointer(t *testing.T) {
	o := Wrap(greeter{Name: "x"})
	err := o.SetAttr("Name", "y")
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestAttrDeleteOnlyViaInterface(t *testing.T) {
	assert.ErrorIs(t, Wrap(&greeter{}).DelAttr("Name"), ErrUnsupported)

	bag := attrBag{vals: map[string]any{"k": 1}}
	require.NoError(t, Wrap(bag).DelAttr("k"))
	assert.NotContains(t, bag.vals, "k")
}

// attrBag implements the attribute interfaces directly.
type attrBag struct {
	vals map[string]any
}

func (b attrBag) GetAttr(name string) (any, error) {
	v, ok := b.vals[name]
	if !ok {
		return nil, fmt.Errorf("attr %q: %w", name, ErrNotFound)
	}
	return v, nil
}

func (b attrBag) SetAttr(name string, val any) error {
	b.vals[name] = val
	return nil
}

func (b attrBag) DelAttr(name string) error {
	delete(b.vals, name)
	return nil
}

func TestInterfacesTakePrecedence(t *testing.T) {
	bag := attrBag{vals: map[string]any{"x": 7}}
	o := Wrap(bag)

	got, err := o.GetAttr("x")
	require.NoError(t, err)
	assert.Equal(t, 7, got)

	require.NoError(t, o.SetAttr("y", 8))
	assert.Equal(t, 8, bag.vals["y"])
}

func TestMapItems(t *testing.T) {
	m := map[string]any{"a": 1}
	o := Wrap(m)

	got, err := o.GetItem("a")
	require.NoError(t, err)
	assert.Equal(t, 1, got)

	_, err = o.GetItem("zzz")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, o.SetItem("b", 2))
	assert.Equal(t, 2, m["b"])

	require.NoError(t, o.DelItem("a"))
	assert.NotContains(t, m, "a")
	assert.ErrorIs(t, o.DelItem("a"), ErrNotFound)

	n, err := o.Len()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMapKeyConversion(t *testing.T) {
	// Wire integers arrive as int64; typed maps still index correctly.
	m := map[int]string{5: "five"}
	got, err := Wrap(m).GetItem(int64(5))
	require.NoError(t, err)
	assert.Equal(t, "five", got)
}

func TestSliceItems(t *testing.T) {
	s := []int{2, 3}
	o := Wrap(s)

	got, err := o.GetItem(int64(1))
	require.NoError(t, err)
	assert.Equal(t, 3, got)

	_, err = o.GetItem(int64(2))
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = o.GetItem(int64(-1))
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, o.SetItem(int64(0), int64(9)))
	assert.Equal(t, 9, s[0])

	assert.ErrorIs(t, o.DelItem(int64(0)), ErrUnsupported)

	n, err := o.Len()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestScalarCapabilities(t *testing.T) {
	o := Wrap(42)

	_, err := o.Len()
	assert.ErrorIs(t, err, ErrUnsupported)
	_, err = o.GetItem(0)
	assert.ErrorIs(t, err, ErrUnsupported)
	assert.ErrorIs(t, o.SetItem(0, 1), ErrUnsupported)
	_, err = o.Call(nil, nil)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestFuncCall(t *testing.T) {
	add := func(a, b int) int { return a + b }
	res, err := Wrap(add).Call([]any{int64(2), int64(3)}, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, res)

	// Wrong arity.
	_, err = Wrap(add).Call([]any{1}, nil)
	assert.ErrorIs(t, err, ErrUnsupported)

	// Keyword args need a Caller implementation.
	_, err = Wrap(add).Call([]any{1, 2}, map[string]any{"x": 1})
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestVariadicCall(t *testing.T) {
	o := Wrap(&greeter{})
	m, err := o.GetAttr("Sum")
	require.NoError(t, err)

	res, err := Wrap(m).Call([]any{int64(1), int64(2), int64(3)}, nil)
	require.NoError(t, err)
	assert.Equal(t, 6, res)

	res, err = Wrap(m).Call(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res)
}

func TestCallErrorReturn(t *testing.T) {
	o := Wrap(&greeter{})
	m, err := o.GetAttr("Fail")
	require.NoError(t, err)

	_, err = Wrap(m).Call(nil, nil)
	require.Error(t, err)
	assert.Equal(t, "boom", err.Error())
}

type fancy struct{}

func (fancy) String() string   { return "fancy" }
func (fancy) GoString() string { return "mirror.fancy{}" }

func TestTextualConversions(t *testing.T) {
	assert.Equal(t, "fancy", Wrap(fancy{}).Str())
	assert.Equal(t, "mirror.fancy{}", Wrap(fancy{}).Repr())

	assert.Equal(t, "42", Wrap(42).Str())
	assert.Equal(t, "[]int{1}", Wrap([]int{1}).Repr())
}

func TestStringIndexAndLen(t *testing.T) {
	o := Wrap("hé")
	n, err := o.Len()
	require.NoError(t, err)
	assert.Equal(t, 3, n, "byte length, like the wire sees it")

	b, err := o.GetItem(0)
	require.NoError(t, err)
	assert.Equal(t, "h", b)
}
