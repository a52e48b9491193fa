package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

type HighlightColor string

const (
	ColorRed    HighlightColor = "RED"
	ColorBlue   HighlightColor = "BLUE"
	ColorCyan   HighlightColor = "CYAN"
	ColorGreen  HighlightColor = "GREEN"
	ColorGray   HighlightColor = "GRAY"
	ColorPink   HighlightColor = "PINK"
	ColorYellow HighlightColor = "YELLOW"
	ColorPurple HighlightColor = "PURPLE"
)

var highlightColors = map[HighlightColor]struct{}{
	ColorRed: {}, ColorBlue: {}, ColorCyan: {}, ColorGreen: {},
	ColorGray: {}, ColorPink: {}, ColorYellow: {}, ColorPurple: {},
}

func (c *HighlightColor) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	color := HighlightColor(strings.ToUpper(s))
	if _, ok := highlightColors[color]; !ok {
		return fmt.Errorf("unknown highlight color %q", s)
	}
	*c = color
	return nil
}

// TextHighlight is kept as-is, the reader does not interpret it.
type TextHighlight struct {
	PageNumber int            `json:"page_number"`
	LineNumber int            `json:"line_number"`
	StartPos   int            `json:"start_pos"`
	Length     int            `json:"length"`
	Color      HighlightColor `json:"color"`
}
