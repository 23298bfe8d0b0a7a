package services

import (
	"encoding/json"
	"regexp"
	"strings"

	"oriemap-backend/internal/models"
)

var (
	chartBlockRegex = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")
	blankRunRegex   = regexp.MustCompile(`\n{3,}`)
)

var validChartTypes = map[string]bool{
	"bar":   true,
	"radar": true,
	"line":  true,
	"pie":   true,
}

// ParseMentorReply splits a raw mentor reply into display text and an
// optional chart payload. Every fenced json block is stripped from the
// display text, well formed or not, so raw block syntax never reaches the
// user; the first block that decodes into a valid chart wins. Malformed
// blocks degrade to a missing chart, never an error.
func ParseMentorReply(raw string) (string, *models.ChartData) {
	var chart *models.ChartData

	clean := chartBlockRegex.ReplaceAllStringFunc(raw, func(block string) string {
		if chart == nil {
			sub := chartBlockRegex.FindStringSubmatch(block)
			if c := decodeChart(sub[1]); c != nil {
				chart = c
			}
		}
		return ""
	})

	clean = blankRunRegex.ReplaceAllString(clean, "\n\n")
	return strings.TrimSpace(clean), chart
}

func decodeChart(payload string) *models.ChartData {
	var c models.ChartData
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		return nil
	}

	if c.Type != "chart" || !validChartTypes[c.ChartType] {
		return nil
	}

	// Labels and values correspond positionally; a mismatched pair would
	// render garbage, so the whole payload is dropped.
	if len(c.Labels) == 0 || len(c.Labels) != len(c.Data) {
		return nil
	}

	return &c
}
