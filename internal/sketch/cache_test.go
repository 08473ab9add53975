package sketch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Inkwell/internal/models"
)

const (
	rect1 = `{"type":"rect","x":1,"y":0,"width":10,"height":10}`
	rect2 = `{"type":"rect","x":2,"y":0,"width":10,"height":10}`
)

func raws(entries []Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Raw)
	}
	return out
}

func TestCache_ApplyChatAndErase(t *testing.T) {
	redraws := 0
	c := NewCache(func([]Entry) { redraws++ })

	assert.True(t, c.Apply(models.Outbound{Type: models.MessageTypeChat, RoomID: 1, Message: rect1}))
	assert.True(t, c.Apply(models.Outbound{Type: models.MessageTypeChat, RoomID: 1, Message: rect2}))
	assert.Equal(t, []string{rect1, rect2}, raws(c.Shapes()))

	assert.True(t, c.Apply(models.Outbound{Type: models.MessageTypeErase, RoomID: 1, Shape: rect1}))
	assert.Equal(t, []string{rect2}, raws(c.Shapes()))
	assert.Equal(t, 3, redraws)
}

func TestCache_EraseIsExact(t *testing.T) {
	c := NewCache(nil)
	c.ApplyChat(rect1)

	assert.Zero(t, c.ApplyErase(`{"type":"rect", "x":1,"y":0,"width":10,"height":10}`))
	assert.Len(t, c.Shapes(), 1)
}

func TestCache_EraseRemovesDuplicates(t *testing.T) {
	c := NewCache(nil)
	c.ApplyChat(rect1)
	c.ApplyChat(rect1)
	c.ApplyChat(rect2)

	assert.Equal(t, 2, c.ApplyErase(rect1))
	assert.Equal(t, []string{rect2}, raws(c.Shapes()))
}

func TestCache_InvalidPayloadDropped(t *testing.T) {
	redraws := 0
	c := NewCache(func([]Entry) { redraws++ })

	assert.False(t, c.ApplyChat("not a shape"))
	assert.False(t, c.Apply(models.Outbound{Type: "cursor"}))
	assert.Empty(t, c.Shapes())
	assert.Zero(t, redraws)
}

func TestCache_LoadHistory(t *testing.T) {
	c := NewCache(nil)
	c.ApplyChat(`{"type":"text","x":0,"y":0,"text":"stale"}`)

	c.Load([]string{rect2, "garbage", rect1})

	assert.Equal(t, []string{rect1, rect2}, raws(c.Shapes()))
}

func TestCache_FindAt(t *testing.T) {
	c := NewCache(nil)
	c.ApplyChat(rect1)
	c.ApplyChat(rect2)

	entry, ok := c.FindAt(2, 5, 0.5)
	require.True(t, ok)
	assert.Equal(t, rect2, entry.Raw, "newest shape wins")

	_, ok = c.FindAt(50, 50, 1)
	assert.False(t, ok)
}
