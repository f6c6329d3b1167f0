package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/yukikurage/mini-trello-api/internal/models"
)

// TaskGenerator drafts tasks for a card from free text.
type TaskGenerator interface {
	GenerateTasks(ctx context.Context, cardName, text string) ([]GeneratedTask, error)
}

type AIService struct {
	client *openai.Client
	now    func() time.Time
}

type GeneratedTask struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Priority    models.Priority `json:"priority"`
	DueDate     *time.Time      `json:"due_date"`
}

func NewAIService(apiKey string) *AIService {
	return &AIService{
		client: openai.NewClient(apiKey),
		now:    time.Now,
	}
}

// GenerateTasks asks the model to split text into concrete tasks for the card.
func (s *AIService) GenerateTasks(ctx context.Context, cardName, text string) ([]GeneratedTask, error) {
	if s.client == nil {
		return nil, fmt.Errorf("OpenAI client not initialized")
	}

	currentTime := s.now().Format(time.RFC3339)
	prompt := fmt.Sprintf(`You are a task planning assistant for a kanban board.
Break the notes below into concrete tasks for the card "%s".

Current time: %s

Notes:
%s

Answer with a JSON array only, no prose:
[
  {
    "title": "short task title",
    "description": "what needs to be done",
    "priority": "one of low, medium, high, urgent",
    "due_date": "ISO8601 deadline such as 2025-10-28T23:59:59Z, or null when none is stated"
  }
]

Rules:
- Return [] when the notes contain no tasks
- Convert relative deadlines ("tomorrow", "next week") into absolute times
- due_date must be an ISO8601 string or null`, cardName, currentTime, text)

	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: openai.GPT4o,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: 0.3,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimSuffix(strings.TrimPrefix(content, "```"), "```")

	var tasks []GeneratedTask
	if err := json.Unmarshal([]byte(content), &tasks); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w (response: %s)", err, content)
	}

	return tasks, nil
}
