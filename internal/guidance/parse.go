// Package guidance requests repositioning hints from a vision model and
// parses its semi-structured reply, one "Category - DIRECTION | details"
// line per category.
package guidance

import (
	"strings"

	"github.com/verte-zerg/echosnap/internal/model"
)

const (
	missingDirection = "N/A"
	missingDetail    = "No guidance provided"
	waitingDetail    = "Waiting for guidance..."
)

var defaultCategories = []string{"Angle", "Distance", "Composition", "Lighting"}

// Parse turns a response blob into ordered guidance items. Blank lines and
// lines without a "-" separator are discarded; missing fields get literal
// placeholders. When nothing parses, a fixed default list is returned so
// the caller always has one entry per category.
func Parse(blob string) []model.GuidanceItem {
	var items []model.GuidanceItem
	for _, line := range strings.Split(blob, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !strings.Contains(line, "-") {
			continue
		}
		category, rest, _ := strings.Cut(line, "-")
		direction, detail, hasDetail := strings.Cut(rest, "|")
		item := model.GuidanceItem{
			Category:  strings.TrimSpace(category),
			Direction: strings.TrimSpace(direction),
			Detail:    strings.TrimSpace(detail),
		}
		if item.Direction == "" {
			item.Direction = missingDirection
		}
		if !hasDetail || item.Detail == "" {
			item.Detail = missingDetail
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		return DefaultItems()
	}
	return items
}

// DefaultItems returns the placeholder entries shown before a response
// arrives or when a response contains nothing parseable.
func DefaultItems() []model.GuidanceItem {
	items := make([]model.GuidanceItem, 0, len(defaultCategories))
	for _, category := range defaultCategories {
		items = append(items, model.GuidanceItem{
			Category:  category,
			Direction: missingDirection,
			Detail:    waitingDetail,
		})
	}
	return items
}
