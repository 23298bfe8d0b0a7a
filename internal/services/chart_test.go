package services

import (
	"strings"
	"testing"
)

const chartReply = "Dưới đây là so sánh điểm chuẩn:\n\n```json\n" +
	`{"type":"chart","chartType":"bar","title":"Điểm chuẩn 2025","labels":["CNTT","Y khoa","Luật"],"data":[28.5,26.8,27.5]}` +
	"\n```\n\nBạn nên cân nhắc khối A00."

func TestParseMentorReply_ExtractsChart(t *testing.T) {
	display, chart := ParseMentorReply(chartReply)

	if chart == nil {
		t.Fatal("expected a chart to be extracted")
	}
	if chart.ChartType != "bar" {
		t.Errorf("expected chartType 'bar', got %q", chart.ChartType)
	}
	if chart.Title != "Điểm chuẩn 2025" {
		t.Errorf("unexpected chart title: %q", chart.Title)
	}
	if len(chart.Labels) != 3 || len(chart.Data) != 3 {
		t.Fatalf("expected 3 labels and 3 data points, got %d and %d", len(chart.Labels), len(chart.Data))
	}
	if chart.Data[0] != 28.5 {
		t.Errorf("expected first data point 28.5, got %v", chart.Data[0])
	}

	if strings.Contains(display, "```") {
		t.Errorf("display text still contains a fenced block: %q", display)
	}
	if !strings.Contains(display, "so sánh điểm chuẩn") || !strings.Contains(display, "khối A00") {
		t.Errorf("display text lost surrounding prose: %q", display)
	}
	if strings.Contains(display, "\n\n\n") {
		t.Errorf("display text contains a blank run: %q", display)
	}
}

func TestParseMentorReply_NoBlockPassesThrough(t *testing.T) {
	in := "Chào bạn, mình có thể giúp gì?"
	display, chart := ParseMentorReply(in)

	if chart != nil {
		t.Fatalf("expected no chart, got %+v", chart)
	}
	if display != in {
		t.Errorf("expected text unchanged, got %q", display)
	}
}

func TestParseMentorReply_MalformedBlocksAreStripped(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"invalid json", `{"type":"chart","chartType":"bar"`},
		{"wrong type", `{"type":"table","chartType":"bar","labels":["a"],"data":[1]}`},
		{"unknown chart type", `{"type":"chart","chartType":"scatter","labels":["a"],"data":[1]}`},
		{"length mismatch", `{"type":"chart","chartType":"pie","labels":["a","b"],"data":[1]}`},
		{"empty labels", `{"type":"chart","chartType":"line","labels":[],"data":[]}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			raw := "Trước\n```json\n" + tc.payload + "\n```\nSau"
			display, chart := ParseMentorReply(raw)

			if chart != nil {
				t.Errorf("expected malformed payload to yield no chart, got %+v", chart)
			}
			if strings.Contains(display, "```") {
				t.Errorf("malformed block not stripped from display text: %q", display)
			}
			if !strings.Contains(display, "Trước") || !strings.Contains(display, "Sau") {
				t.Errorf("surrounding text lost: %q", display)
			}
		})
	}
}

func TestParseMentorReply_FirstValidChartWins(t *testing.T) {
	raw := "A\n```json\n{\"broken\":\n```\n" +
		"B\n```json\n{\"type\":\"chart\",\"chartType\":\"radar\",\"title\":\"first\",\"labels\":[\"x\"],\"data\":[1]}\n```\n" +
		"C\n```json\n{\"type\":\"chart\",\"chartType\":\"pie\",\"title\":\"second\",\"labels\":[\"y\"],\"data\":[2]}\n```\nD"

	display, chart := ParseMentorReply(raw)

	if chart == nil {
		t.Fatal("expected a chart")
	}
	if chart.Title != "first" {
		t.Errorf("expected the first valid chart to win, got %q", chart.Title)
	}
	if strings.Contains(display, "```") {
		t.Errorf("expected every block stripped, got %q", display)
	}
}

func TestParseMentorReply_Idempotent(t *testing.T) {
	display, _ := ParseMentorReply(chartReply)

	again, chart := ParseMentorReply(display)
	if chart != nil {
		t.Fatalf("re-parsing display text produced a chart: %+v", chart)
	}
	if again != display {
		t.Errorf("re-parsing changed the text:\nfirst:  %q\nsecond: %q", display, again)
	}
}
