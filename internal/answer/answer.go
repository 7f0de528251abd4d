// Package answer turns a language model's free-form reply into an AnswerRecord.
//
// A reply is first parsed against the announced structured format. When that
// fails, layered heuristics recover what they can from the raw text. Either
// way the citations are normalized into CitationRecords and their missing
// excerpts are filled from the retrieved chunks. Every step is a pure function
// of its inputs, so a Processor is safe for concurrent use.
package answer

import (
	"errors"
	"strings"

	"github.com/ppiankov/docanswer/internal/model"
	"go.uber.org/zap"
)

// Mode records which parser produced the answer
type Mode string

const (
	ModeStructured Mode = "structured"
	ModeFallback   Mode = "fallback"
)

// Result is a finished record plus a trace of how it was produced
type Result struct {
	Record   model.AnswerRecord
	Mode     Mode
	Strategy string // fallback strategy that produced citations; empty in structured mode
	Dropped  int    // citation elements that could not be interpreted
	Resolved int    // excerpts filled from retrieved chunks
}

// Processor runs parse, fallback, normalize and resolve for one reply at a time
type Processor struct {
	normalizer *Normalizer
	logger     *zap.Logger
}

// NewProcessor creates a processor; a nil logger discards output
func NewProcessor(logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		normalizer: NewNormalizer(logger),
		logger:     logger,
	}
}

// Process converts a raw reply into an AnswerRecord. It never fails.
func (p *Processor) Process(raw string, chunks []model.RetrievedChunk) Result {
	res := Result{Mode: ModeStructured}

	fields, err := ParseStructured(raw)
	if err != nil {
		if !errors.Is(err, ErrSchemaParse) {
			p.logger.Warn("structured parse failed unexpectedly", zap.Error(err))
		} else {
			p.logger.Debug("reply is not structured, using fallback", zap.Error(err))
		}
		fields, res.Strategy = FallbackExtract(raw)
		res.Mode = ModeFallback
	}

	if fields.Answer == "" {
		fields.Answer = strings.TrimSpace(raw)
	}

	citations, dropped := p.normalizer.Normalize(fields.Citations)
	citations, resolved := ResolveCitations(citations, chunks)
	res.Dropped = dropped
	res.Resolved = resolved

	res.Record = model.AnswerRecord{
		Answer:    fields.Answer,
		Found:     fields.Found || len(citations) > 0,
		Citations: citations,
		FollowUp:  fields.FollowUp,
	}

	p.logger.Debug("processed reply",
		zap.String("mode", string(res.Mode)),
		zap.String("strategy", res.Strategy),
		zap.Int("citations", len(citations)),
		zap.Int("dropped", dropped),
		zap.Int("resolved", resolved),
	)
	return res
}

// Process is a convenience wrapper around a silent Processor
func Process(raw string, chunks []model.RetrievedChunk) model.AnswerRecord {
	return NewProcessor(nil).Process(raw, chunks).Record
}
