package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgress(t *testing.T) {
	cases := []struct {
		current, count int
		want           float64
	}{
		{0, 10, 0},
		{1, 3, 33.3},
		{2, 3, 66.7},
		{3, 3, 100},
		{7, 9, 77.8},
		{5, 0, 0},
	}
	for _, c := range cases {
		b := &Book{CurrentPage: c.current, PageCount: c.count}
		assert.Equal(t, c.want, b.Progress(), "current=%d count=%d", c.current, c.count)
	}
}

func TestCloneIsDeep(t *testing.T) {
	now := time.Now()
	score := float32(4.5)
	b := &Book{
		ID:             "a",
		Score:          &score,
		LastTimeOpened: &now,
		TextHighlights: []TextHighlight{{PageNumber: 1, Color: ColorRed}},
	}
	c := b.Clone()
	*c.Score = 1
	c.TextHighlights[0].PageNumber = 9
	*c.LastTimeOpened = now.Add(time.Hour)

	assert.Equal(t, float32(4.5), *b.Score)
	assert.Equal(t, 1, b.TextHighlights[0].PageNumber)
	assert.True(t, b.LastTimeOpened.Equal(now))
}

func TestMarshalIncludesProgress(t *testing.T) {
	data, err := json.Marshal(&Book{ID: "a", CurrentPage: 1, PageCount: 4})
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, 25.0, out["progress"])
	assert.Equal(t, "a", out["id"])
}

func TestHighlightColor(t *testing.T) {
	var h TextHighlight
	require.NoError(t, json.Unmarshal([]byte(`{"page_number":2,"color":"pink"}`), &h))
	assert.Equal(t, ColorPink, h.Color)

	err := json.Unmarshal([]byte(`{"color":"ORANGE"}`), &h)
	assert.Error(t, err)
}

func TestRectOverlap(t *testing.T) {
	view := Rect{Y: 0, Width: 100, Height: 100}
	assert.Equal(t, 50.0, view.VerticalOverlap(Rect{Y: 50, Width: 100, Height: 200}))
	assert.Equal(t, 0.0, view.VerticalOverlap(Rect{Y: 100, Width: 100, Height: 20}))
	assert.True(t, Rect{Width: 10}.Empty())
}
