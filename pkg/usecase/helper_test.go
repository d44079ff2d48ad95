package usecase_test

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/stackscout/pkg/domain/model"
)

// mockEmbedder maps text to a 3 dimensional vector by keyword
type mockEmbedder struct {
	embedFn func(ctx context.Context, text string) ([]float32, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if m.embedFn != nil {
		return m.embedFn(ctx, text)
	}
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "airflow"):
		return []float32{1, 0, 0}, nil
	case strings.Contains(lower, "aws"):
		return []float32{0, 1, 0}, nil
	default:
		return []float32{0, 0, 1}, nil
	}
}

type mockRowSource struct {
	rows []*model.CallRow
	err  error
}

func (m *mockRowSource) FetchCalls(ctx context.Context, limit int) ([]*model.CallRow, error) {
	if m.err != nil {
		return nil, m.err
	}
	if limit > 0 && limit < len(m.rows) {
		return m.rows[:limit], nil
	}
	return m.rows, nil
}

type publishedEvent struct {
	subject string
	event   any
}

type mockPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (m *mockPublisher) Publish(ctx context.Context, subject string, event any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, publishedEvent{subject: subject, event: event})
	return nil
}

func (m *mockPublisher) Events() []publishedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]publishedEvent(nil), m.events...)
}

// mockLLMSession is a mock gollem Session for testing
type mockLLMSession struct {
	generateContentFn func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error)
}

func (s *mockLLMSession) GenerateContent(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
	if s.generateContentFn != nil {
		return s.generateContentFn(ctx, input...)
	}
	return &gollem.Response{
		Texts: []string{`{"tech_stack":{},"confidence_score":0}`},
	}, nil
}

func (s *mockLLMSession) GenerateStream(ctx context.Context, input ...gollem.Input) (<-chan *gollem.Response, error) {
	return nil, nil
}

func (s *mockLLMSession) History() (*gollem.History, error) {
	return nil, nil
}

func (s *mockLLMSession) AppendHistory(*gollem.History) error {
	return nil
}

func (s *mockLLMSession) CountToken(ctx context.Context, input ...gollem.Input) (int, error) {
	return 0, nil
}

// mockLLMClient is a mock gollem LLMClient for testing
type mockLLMClient struct {
	newSessionFn func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error)
}

func (c *mockLLMClient) NewSession(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
	if c.newSessionFn != nil {
		return c.newSessionFn(ctx, options...)
	}
	return &mockLLMSession{}, nil
}

func (c *mockLLMClient) GenerateEmbedding(ctx context.Context, dimension int, input []string) ([][]float64, error) {
	return nil, nil
}

// newAnsweringLLM returns a client whose every session answers with result as JSON
func newAnsweringLLM(result any) *mockLLMClient {
	data, err := json.Marshal(result)
	if err != nil {
		panic(err)
	}
	return &mockLLMClient{
		newSessionFn: func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
			return &mockLLMSession{
				generateContentFn: func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
					return &gollem.Response{Texts: []string{string(data)}}, nil
				},
			}, nil
		},
	}
}

func transcriptJSON(fragments ...string) string {
	items := make([]map[string]string, len(fragments))
	for i, f := range fragments {
		items[i] = map[string]string{"text": f, "speaker_id": "s1"}
	}
	data, err := json.Marshal(items)
	if err != nil {
		panic(err)
	}
	return string(data)
}
