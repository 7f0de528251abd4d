package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/docanswer/internal/pipeline"
	"go.uber.org/zap"
)

// Asker answers one question
type Asker interface {
	Ask(ctx context.Context, question string) (*pipeline.QueryResult, error)
	ProviderName() string
}

// QuestionJob asks one question once the limiter allows a model call
type QuestionJob struct {
	Index    int
	Question string
	Asker    Asker
	Limiter  *Limiter
}

// Execute executes the question job
func (j *QuestionJob) Execute(ctx context.Context) Result {
	res := &QuestionResult{Index: j.Index, Question: j.Question}

	if j.Limiter != nil {
		if err := j.Limiter.Wait(ctx, j.Asker.ProviderName()); err != nil {
			res.Error = fmt.Errorf("rate limit: %w", err)
			return res
		}
	}

	res.Result, res.Error = j.Asker.Ask(ctx, j.Question)
	return res
}

// QuestionResult represents the result of a question job
type QuestionResult struct {
	Index    int
	Question string
	Result   *pipeline.QueryResult
	Error    error
}

// GetError returns the error from the question result
func (r *QuestionResult) GetError() error {
	return r.Error
}

// BatchProcessor answers many questions concurrently
type BatchProcessor struct {
	asker       Asker
	concurrency int
	limiter     *Limiter
	logger      *zap.Logger
}

// NewBatchProcessor creates a new batch processor. Model calls are limited to
// requestsPerSecond per provider; zero disables limiting.
func NewBatchProcessor(asker Asker, concurrency int, requestsPerSecond float64, burst int, logger *zap.Logger) *BatchProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchProcessor{
		asker:       asker,
		concurrency: concurrency,
		limiter:     NewLimiter(requestsPerSecond, burst),
		logger:      logger,
	}
}

// ProcessQuestions answers questions concurrently; results keep input order
func (b *BatchProcessor) ProcessQuestions(ctx context.Context, questions []string) []*QuestionResult {
	if len(questions) == 0 {
		return []*QuestionResult{}
	}
	start := time.Now()

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for i, q := range questions {
		pool.Submit(&QuestionJob{
			Index:    i,
			Question: q,
			Asker:    b.asker,
			Limiter:  b.limiter,
		})
	}

	results := pool.Wait()

	// Jobs cut off by cancellation never report; give them the context error
	out := make([]*QuestionResult, len(questions))
	for _, result := range results {
		qr := result.(*QuestionResult)
		out[qr.Index] = qr
	}
	failed := 0
	for i, qr := range out {
		if qr == nil {
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			out[i] = &QuestionResult{Index: i, Question: questions[i], Error: err}
		}
		if out[i].Error != nil {
			failed++
		}
	}

	b.logger.Info("batch complete",
		zap.Int("questions", len(questions)),
		zap.Int("answered", len(out)-failed),
		zap.Int("failed", failed),
		zap.Duration("elapsed", time.Since(start)),
	)
	return out
}

// ProcessFile reads questions from a file and answers them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*QuestionResult, error) {
	questions, err := ReadQuestionsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read questions: %w", err)
	}

	return b.ProcessQuestions(ctx, questions), nil
}

// ReadQuestionsFromFile reads questions from a file (one per line)
func ReadQuestionsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var questions []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			questions = append(questions, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return questions, nil
}
