package guidance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/echosnap/internal/model"
)

func TestParseWellFormedLines(t *testing.T) {
	blob := "Angle - LOWER | Move down 10 degrees\nDistance - CLOSER | Step forward"
	items := Parse(blob)
	require.Len(t, items, 2)
	assert.Equal(t, model.GuidanceItem{Category: "Angle", Direction: "LOWER", Detail: "Move down 10 degrees"}, items[0])
	assert.Equal(t, model.GuidanceItem{Category: "Distance", Direction: "CLOSER", Detail: "Step forward"}, items[1])
}

func TestParseSkipsBlankAndSeparatorlessLines(t *testing.T) {
	blob := "\nSure, here are the adjustments:\n\nAngle - HIGHER | Raise the camera\njust chatter\n"
	items := Parse(blob)
	require.Len(t, items, 1)
	assert.Equal(t, "Angle", items[0].Category)
}

func TestParseMissingFieldsGetPlaceholders(t *testing.T) {
	items := Parse("Angle - | Raise it\nDistance - FARTHER\nComposition -")
	require.Len(t, items, 3)
	assert.Equal(t, "N/A", items[0].Direction)
	assert.Equal(t, "Raise it", items[0].Detail)
	assert.Equal(t, "FARTHER", items[1].Direction)
	assert.Equal(t, "No guidance provided", items[1].Detail)
	assert.Equal(t, "N/A", items[2].Direction)
	assert.Equal(t, "No guidance provided", items[2].Detail)
}

func TestParseSplitsOnFirstSeparatorsOnly(t *testing.T) {
	items := Parse("Angle - LOWER | tilt down | keep level")
	require.Len(t, items, 1)
	assert.Equal(t, "LOWER", items[0].Direction)
	assert.Equal(t, "tilt down | keep level", items[0].Detail)
}

func TestParseFallbackOnUnparseableInput(t *testing.T) {
	items := Parse("no separators here\n\njust prose")
	require.Len(t, items, 4)
	want := []string{"Angle", "Distance", "Composition", "Lighting"}
	for i, item := range items {
		assert.Equal(t, want[i], item.Category)
		assert.Equal(t, "N/A", item.Direction)
		assert.Equal(t, "Waiting for guidance...", item.Detail)
	}
}

func TestParseEmptyInputFallsBack(t *testing.T) {
	assert.Len(t, Parse(""), 4)
}
