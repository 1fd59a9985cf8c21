package clientlist

import (
	"testing"

	"github.com/nuclearfall/howm/internal/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendAndSlice(t *testing.T) {
	var l List
	a, b, c := client.New(1), client.New(2), client.New(3)
	l.Append(a)
	l.Append(b)
	l.Append(c)

	require.Equal(t, 3, l.Count)
	assert.Equal(t, []*client.Client{a, b, c}, l.Slice())
	assert.Equal(t, c, l.Last())
}

func TestPredecessorHeadAndAbsent(t *testing.T) {
	var l List
	a, b := client.New(1), client.New(2)
	l.Append(a)
	l.Append(b)

	assert.Nil(t, l.Predecessor(a))
	assert.Equal(t, a, l.Predecessor(b))
	assert.Nil(t, l.Predecessor(client.New(99)))
}

func TestUnlinkHeadMiddleTailAbsent(t *testing.T) {
	var l List
	a, b, c := client.New(1), client.New(2), client.New(3)
	l.Append(a)
	l.Append(b)
	l.Append(c)

	assert.False(t, l.Unlink(client.New(404)))

	require.True(t, l.Unlink(b))
	assert.Equal(t, []*client.Client{a, c}, l.Slice())
	assert.Equal(t, 2, l.Count)

	require.True(t, l.Unlink(a))
	assert.Equal(t, []*client.Client{c}, l.Slice())

	require.True(t, l.Unlink(c))
	assert.Nil(t, l.Head)
	assert.Equal(t, 0, l.Count)
}

func TestNextWithWrap(t *testing.T) {
	var l List
	assert.Nil(t, l.NextWithWrap(nil))

	a, b := client.New(1), client.New(2)
	l.Append(a)
	assert.Equal(t, a, l.NextWithWrap(nil))
	assert.Equal(t, a, l.NextWithWrap(a), "single element wraps to itself")

	l.Append(b)
	assert.Equal(t, b, l.NextWithWrap(a))
	assert.Equal(t, a, l.NextWithWrap(b), "wraps past tail back to head")
}

func TestContains(t *testing.T) {
	var l List
	a, b := client.New(1), client.New(2)
	l.Append(a)
	assert.True(t, l.Contains(a))
	assert.False(t, l.Contains(b))
}
