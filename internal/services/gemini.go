package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"oriemap-backend/internal/models"
)

const mentorSystemInstruction = `Bạn là "OrieMap AI Mentor" – chuyên gia tư vấn hướng nghiệp cho học sinh THPT Việt Nam (lớp 10-12).

PHONG CÁCH:
- Thân thiện, chuyên nghiệp, truyền cảm hứng.
- Ngôn ngữ dễ hiểu, không quá học thuật.
- Sử dụng Markdown để định dạng câu trả lời.
- Ưu tiên dữ liệu về thị trường lao động và hệ thống giáo dục Việt Nam.
- Khi thiếu thông tin (sở thích, khối học, học lực), hãy đặt câu hỏi gợi mở.
- Không bịa đặt số liệu.

TÍCH HỢP BIỂU ĐỒ:
Khi cần minh họa so sánh ngành học, trường đại học, lộ trình hoặc xu hướng nghề nghiệp bằng dữ liệu số, hãy trả về một khối JSON riêng ở CUỐI câu trả lời theo đúng định dạng:
` + "```json" + `
{"type": "chart", "chartType": "radar" | "bar" | "line" | "pie", "title": "Tiêu đề biểu đồ", "labels": ["Nhãn 1", "Nhãn 2"], "data": [10, 20]}
` + "```" + `
Chỉ trả về JSON khi thực sự cần thiết để minh họa dữ liệu số.

LỘ TRÌNH THPT:
- Lớp 10: Tập trung khám phá, xây dựng nền tảng.
- Lớp 11: Chọn khối thi, rèn luyện kỹ năng chuyên sâu.
- Lớp 12: Luyện thi, chọn trường và nộp hồ sơ.`

type GeminiService struct {
	client    *genai.Client
	chatModel *genai.GenerativeModel
	jsonModel *genai.GenerativeModel
	redis     *redis.Client
	rateChan  chan struct{} // Token bucket
}

func NewGeminiService(apiKey string, concurrentReqs int, redisClient *redis.Client) (*GeminiService, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	chatModel := client.GenerativeModel("gemini-3-flash-preview")
	chatModel.SetTemperature(0.7)
	chatModel.SetTopP(0.95)
	chatModel.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(mentorSystemInstruction)},
	}

	// Separate model handle for structured output (roadmaps, suggestions)
	jsonModel := client.GenerativeModel("gemini-3-flash-preview")
	jsonModel.SetTemperature(0.3)
	jsonModel.SetTopP(0.95)
	jsonModel.ResponseMIMEType = "application/json"

	// Token bucket for rate limiting
	rateChan := make(chan struct{}, concurrentReqs)
	for i := 0; i < concurrentReqs; i++ {
		rateChan <- struct{}{}
	}

	return &GeminiService{
		client:    client,
		chatModel: chatModel,
		jsonModel: jsonModel,
		redis:     redisClient,
		rateChan:  rateChan,
	}, nil
}

func (s *GeminiService) Close() {
	s.client.Close()
}

// acquireRate blocks until a rate slot is available
func (s *GeminiService) acquireRate(ctx context.Context) error {
	select {
	case <-s.rateChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(5 * time.Minute):
		return fmt.Errorf("timeout waiting for Gemini rate slot")
	}
}

func (s *GeminiService) releaseRate() {
	s.rateChan <- struct{}{}
}

// PublishUpdate sends a WebSocket update via Redis pub/sub
func (s *GeminiService) PublishUpdate(ctx context.Context, userID uuid.UUID, msg models.WSMessage) {
	if s.redis == nil {
		return
	}
	data, _ := json.Marshal(msg)
	s.redis.Publish(ctx, fmt.Sprintf("user_updates:%s", userID.String()), string(data))
}

// StreamMentorReply sends one mentor turn with the given history and streams
// the reply. onChunk receives the accumulated text so far after each chunk,
// i.e. a strictly growing prefix of the final reply. Returns the full text.
func (s *GeminiService) StreamMentorReply(ctx context.Context, history []models.Message, message string, onChunk func(string)) (string, error) {
	if err := s.acquireRate(ctx); err != nil {
		return "", err
	}
	defer s.releaseRate()

	cs := s.chatModel.StartChat()
	cs.History = make([]*genai.Content, 0, len(history))
	for _, msg := range history {
		cs.History = append(cs.History, &genai.Content{
			Role:  msg.Role,
			Parts: []genai.Part{genai.Text(msg.Text)},
		})
	}

	var full strings.Builder
	iter := cs.SendMessageStream(ctx, genai.Text(message))
	for {
		resp, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("Gemini API error: %w", err)
		}

		chunk := extractText(resp)
		if chunk == "" {
			continue
		}
		full.WriteString(chunk)
		if onChunk != nil {
			onChunk(full.String())
		}
	}

	text := full.String()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("Gemini returned an empty reply")
	}

	return text, nil
}

// GenerateRoadmap produces the staged study plan for one roadmap request.
func (s *GeminiService) GenerateRoadmap(ctx context.Context, req models.GenerateRoadmapRequest) ([]models.RoadmapStage, error) {
	if err := s.acquireRate(ctx); err != nil {
		return nil, err
	}
	defer s.releaseRate()

	prompt := fmt.Sprintf(`Xây dựng lộ trình học tập cá nhân hóa cho học sinh lớp %s, học lực %s, mục tiêu ngành %s tại trường %s.
Trả về CHỈ một mảng JSON các giai đoạn từ lớp 10 đến đại học, mỗi phần tử có dạng:
{"year": "string", "goals": ["string"], "activities": ["string"]}`,
		req.Grade, req.Performance, req.TargetMajor, req.TargetSchool)

	resp, err := s.jsonModel.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("Gemini API error: %w", err)
	}

	rawText := stripCodeFences(extractText(resp))

	var stages []models.RoadmapStage
	if err := json.Unmarshal([]byte(rawText), &stages); err != nil {
		// Try to extract JSON array
		start := strings.Index(rawText, "[")
		end := strings.LastIndex(rawText, "]")
		if start >= 0 && end > start {
			json.Unmarshal([]byte(rawText[start:end+1]), &stages)
		}
	}

	if len(stages) == 0 {
		return nil, fmt.Errorf("Gemini returned no roadmap stages")
	}

	return stages, nil
}

// SuggestMajors asks Gemini to rank catalogue majors against a free-text
// query. Queries under 2 characters return no suggestions without a call.
func (s *GeminiService) SuggestMajors(ctx context.Context, query string, majors []*models.Major) ([]models.MajorSuggestion, error) {
	if len(strings.TrimSpace(query)) < 2 {
		return []models.MajorSuggestion{}, nil
	}

	if err := s.acquireRate(ctx); err != nil {
		return nil, err
	}
	defer s.releaseRate()

	var list strings.Builder
	known := make(map[string]bool, len(majors))
	for _, m := range majors {
		known[m.ID] = true
		fmt.Fprintf(&list, "%s: %s (%s)\n", m.ID, m.MajorName, m.University)
	}

	prompt := fmt.Sprintf(`Dựa trên danh sách ngành học bên dưới và câu hỏi của người dùng: %q, hãy gợi ý tối đa 5 ngành học phù hợp nhất.
Trả về CHỈ một mảng JSON chứa các object có trường "id" (phải khớp chính xác với ID trong danh sách) và "reason" (lý do ngắn gọn, tối đa 10 từ).

Danh sách ngành học:
%s`, query, list.String())

	resp, err := s.jsonModel.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("Gemini API error: %w", err)
	}

	rawText := stripCodeFences(extractText(resp))

	var suggestions []models.MajorSuggestion
	if err := json.Unmarshal([]byte(rawText), &suggestions); err != nil {
		start := strings.Index(rawText, "[")
		end := strings.LastIndex(rawText, "]")
		if start >= 0 && end > start {
			json.Unmarshal([]byte(rawText[start:end+1]), &suggestions)
		}
	}

	// Keep only suggestions that reference a real catalogue id
	valid := suggestions[:0]
	for _, sug := range suggestions {
		if known[sug.ID] {
			valid = append(valid, sug)
		}
	}
	if len(valid) > 5 {
		valid = valid[:5]
	}

	if valid == nil {
		valid = []models.MajorSuggestion{}
	}
	return valid, nil
}

// Helper functions

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
