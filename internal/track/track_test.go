package track

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type leaf struct{ id int }

func (l *leaf) TrackableChildren() map[string]Trackable { return nil }

func TestListSingleObject(t *testing.T) {
	root := NewContainer()
	tracked := List(root)
	require.Len(t, tracked, 1)
	assert.Equal(t, Trackable(root), tracked[0].Object)
	assert.Equal(t, "", tracked[0].Path)
}

func TestListDeterministicOrder(t *testing.T) {
	root := NewContainer()
	a, b, c := &leaf{1}, &leaf{2}, &leaf{3}
	root.Track("zeta", c)
	root.Track("alpha", a)
	root.Track("mid", b)

	tracked := List(root)
	require.Len(t, tracked, 4)
	assert.Equal(t, "alpha", tracked[1].Path)
	assert.Equal(t, "mid", tracked[2].Path)
	assert.Equal(t, "zeta", tracked[3].Path)

	// Same hierarchy, same order.
	again := List(root)
	require.Equal(t, tracked, again)
}

func TestListNestedPaths(t *testing.T) {
	inner := NewContainer()
	inner.Track("weight", &leaf{1})
	root := NewContainer()
	root.Track("layer", inner)

	tracked := List(root)
	require.Len(t, tracked, 3)
	assert.Equal(t, "layer", tracked[1].Path)
	assert.Equal(t, "layer/weight", tracked[2].Path)
}

func TestListBreadthFirst(t *testing.T) {
	// root -> {a: {deep: leaf}, b: leaf}: b is listed before a/deep.
	deepLeaf := &leaf{1}
	a := NewContainer()
	a.Track("deep", deepLeaf)
	root := NewContainer()
	root.Track("a", a)
	root.Track("b", &leaf{2})

	tracked := List(root)
	require.Len(t, tracked, 4)
	assert.Equal(t, "a", tracked[1].Path)
	assert.Equal(t, "b", tracked[2].Path)
	assert.Equal(t, "a/deep", tracked[3].Path)
}

func TestListHandlesCycles(t *testing.T) {
	a := NewContainer()
	b := NewContainer()
	a.Track("b", b)
	b.Track("a", a)

	tracked := List(a)
	require.Len(t, tracked, 2)
	assert.Equal(t, "b", tracked[1].Path)
}

func TestListSharedObjectListedOnce(t *testing.T) {
	shared := &leaf{1}
	root := NewContainer()
	root.Track("x", shared)
	root.Track("y", shared)

	tracked := List(root)
	require.Len(t, tracked, 2)
	assert.Equal(t, "x", tracked[1].Path)
}

func TestListObjects(t *testing.T) {
	root := NewContainer()
	l := &leaf{1}
	root.Track("v", l)
	objects := ListObjects(root)
	require.Len(t, objects, 2)
	assert.Equal(t, Trackable(l), objects[1])
}
