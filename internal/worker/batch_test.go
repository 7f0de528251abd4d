package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/docanswer/internal/model"
	"github.com/ppiankov/docanswer/internal/pipeline"
)

// MockAsker implements Asker
type MockAsker struct {
	FailOn string
	calls  atomic.Int32
}

func (m *MockAsker) ProviderName() string { return "mock" }

func (m *MockAsker) Ask(ctx context.Context, question string) (*pipeline.QueryResult, error) {
	m.calls.Add(1)
	time.Sleep(10 * time.Millisecond) // Simulate work
	if question == m.FailOn {
		return nil, errors.New("ask error")
	}
	return &pipeline.QueryResult{
		Question: question,
		Record:   model.AnswerRecord{Answer: "answer to " + question, Citations: []model.CitationRecord{}},
	}, nil
}

func writeQuestions(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "questions.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBatchProcessor_ProcessQuestions(t *testing.T) {
	asker := &MockAsker{}
	processor := NewBatchProcessor(asker, 2, 0, 0, nil)

	questions := []string{"q1", "q2", "q3", "q4", "q5"}
	results := processor.ProcessQuestions(context.Background(), questions)

	if len(results) != len(questions) {
		t.Fatalf("expected %d results, got %d", len(questions), len(results))
	}

	for i, res := range results {
		if res.Error != nil {
			t.Errorf("unexpected error for %s: %v", res.Question, res.Error)
			continue
		}
		if res.Index != i || res.Question != questions[i] {
			t.Errorf("result %d out of order: %d %q", i, res.Index, res.Question)
		}
		if res.Result.Record.Answer != "answer to "+questions[i] {
			t.Errorf("unexpected answer %q", res.Result.Record.Answer)
		}
	}
}

func TestBatchProcessor_ProcessQuestions_Error(t *testing.T) {
	asker := &MockAsker{FailOn: "bad"}
	processor := NewBatchProcessor(asker, 2, 0, 0, nil)

	results := processor.ProcessQuestions(context.Background(), []string{"good", "bad"})

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Error != nil {
		t.Errorf("expected success for first question, got %v", results[0].Error)
	}
	if results[1].Error == nil {
		t.Error("expected error, got nil")
	}
	if results[1].Result != nil {
		t.Error("expected nil result on error")
	}
}

func TestBatchProcessor_ProcessQuestions_Empty(t *testing.T) {
	processor := NewBatchProcessor(&MockAsker{}, 2, 0, 0, nil)

	results := processor.ProcessQuestions(context.Background(), []string{})
	if len(results) != 0 {
		t.Errorf("expected 0 results, got %d", len(results))
	}
}

func TestBatchProcessor_CancelledContext(t *testing.T) {
	asker := &MockAsker{}
	processor := NewBatchProcessor(asker, 1, 0, 0, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := processor.ProcessQuestions(ctx, []string{"q1", "q2", "q3"})
	if len(results) != 3 {
		t.Fatalf("every question should get a result, got %d", len(results))
	}
	for _, res := range results {
		if !errors.Is(res.Error, context.Canceled) {
			t.Errorf("expected context.Canceled for %s, got %v", res.Question, res.Error)
		}
	}
	if asker.calls.Load() != 0 {
		t.Errorf("expected no calls after cancellation, got %d", asker.calls.Load())
	}
}

func TestBatchProcessor_RateLimited(t *testing.T) {
	processor := NewBatchProcessor(&MockAsker{}, 4, 20, 1, nil)

	start := time.Now()
	results := processor.ProcessQuestions(context.Background(), []string{"a", "b", "c", "d"})
	elapsed := time.Since(start)

	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	// burst 1 at 20/s: three calls wait ~50ms each
	if elapsed < 120*time.Millisecond {
		t.Errorf("expected rate limiting to space calls, took %v", elapsed)
	}
}

func TestReadQuestionsFromFile(t *testing.T) {
	path := writeQuestions(t, `When was the treaty signed?
# comment
How much did revenue grow?
   
Who signed it?   `)

	questions, err := ReadQuestionsFromFile(path)
	if err != nil {
		t.Fatalf("ReadQuestionsFromFile failed: %v", err)
	}

	expected := []string{"When was the treaty signed?", "How much did revenue grow?", "Who signed it?"}
	if strings.Join(questions, "|") != strings.Join(expected, "|") {
		t.Errorf("expected %v, got %v", expected, questions)
	}
}

func TestReadQuestionsFromFile_NonExistent(t *testing.T) {
	_, err := ReadQuestionsFromFile("non_existent_file.txt")
	if err == nil {
		t.Error("expected error for non-existent file, got nil")
	}
}

func TestReadQuestionsFromFile_Deduplication(t *testing.T) {
	path := writeQuestions(t, "Same question?\nSame question?\n")

	questions, err := ReadQuestionsFromFile(path)
	if err != nil {
		t.Fatalf("ReadQuestionsFromFile failed: %v", err)
	}
	if len(questions) != 1 {
		t.Errorf("expected 1 question after deduplication, got %d", len(questions))
	}
}

func TestQuestionResult_GetError(t *testing.T) {
	r1 := &QuestionResult{Question: "q", Error: nil}
	if r1.GetError() != nil {
		t.Errorf("expected nil error, got %v", r1.GetError())
	}

	expected := errors.New("ask failed")
	r2 := &QuestionResult{Question: "q", Error: expected}
	if r2.GetError() != expected {
		t.Errorf("expected %v, got %v", expected, r2.GetError())
	}
}

func TestBatchProcessor_ProcessFile(t *testing.T) {
	path := writeQuestions(t, "q1\nq2\n# comment\n\nq3\n")

	results, err := NewBatchProcessor(&MockAsker{}, 2, 0, 0, nil).ProcessFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}

	if len(results) != 3 {
		t.Errorf("expected 3 results, got %d", len(results))
	}
}

func TestBatchProcessor_ProcessFile_NonExistent(t *testing.T) {
	_, err := NewBatchProcessor(&MockAsker{}, 2, 0, 0, nil).ProcessFile(context.Background(), "no_such_file.txt")
	if err == nil {
		t.Error("expected error for non-existent file, got nil")
	}
}
