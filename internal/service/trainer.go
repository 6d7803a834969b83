package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dspybridge/dspybridge/internal/llm"
	"github.com/dspybridge/dspybridge/internal/modules"
	"github.com/dspybridge/dspybridge/internal/training"
	"github.com/rs/zerolog/log"
)

var (
	ErrNoTrainingData = errors.New("no training data found")
	ErrNotTrained     = errors.New("model not trained")
)

var trainedQASignature = modules.MustSignature("question -> answer").
	WithInstructions("Answer questions based on training data.").
	Describe(map[string]string{
		"question": "User question",
		"answer":   "Answer to the question",
	})

// ExampleLoader supplies labelled training examples.
type ExampleLoader interface {
	Load() ([]training.Example, []string, error)
}

// TrainResult reports what a Train call consumed.
type TrainResult struct {
	Files    []string
	Examples int
	Demos    int
}

// Trainer builds a few-shot QA module from the training store. The trained
// module replaces the previous one atomically.
type Trainer struct {
	loader   ExampleLoader
	client   llm.Client
	maxDemos int

	mu        sync.RWMutex
	trained   *modules.Predict
	trainedAt time.Time
}

func NewTrainer(loader ExampleLoader, client llm.Client, maxDemos int) *Trainer {
	if maxDemos <= 0 {
		maxDemos = 16
	}
	return &Trainer{loader: loader, client: client, maxDemos: maxDemos}
}

// Train loads every example and keeps up to maxDemos of them as demos.
func (t *Trainer) Train(ctx context.Context) (*TrainResult, error) {
	examples, files, err := t.loader.Load()
	if err != nil {
		return nil, fmt.Errorf("load training data: %w", err)
	}
	if len(examples) == 0 {
		return nil, ErrNoTrainingData
	}
	if t.client == nil {
		return nil, llm.ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n := min(len(examples), t.maxDemos)
	demos := make([]modules.Example, 0, n)
	for _, ex := range examples[:n] {
		demos = append(demos, modules.Example{
			Inputs:  map[string]string{"question": ex.Question},
			Outputs: map[string]string{"answer": ex.Answer},
		})
	}
	predict := modules.NewPredict(t.client, trainedQASignature).WithDemos(demos)

	t.mu.Lock()
	t.trained, t.trainedAt = predict, time.Now()
	t.mu.Unlock()

	log.Info().Strs("files", files).Int("examples", len(examples)).Int("demos", n).Msg("trained few-shot QA module")
	return &TrainResult{Files: files, Examples: len(examples), Demos: n}, nil
}

// Predict answers with the trained module.
func (t *Trainer) Predict(ctx context.Context, question string) (string, error) {
	t.mu.RLock()
	predict := t.trained
	t.mu.RUnlock()
	if predict == nil {
		return "", ErrNotTrained
	}
	pred, err := predict.Forward(ctx, map[string]string{"question": question})
	if err != nil {
		return "", fmt.Errorf("predict: %w", err)
	}
	return pred.Get("answer"), nil
}

// Trained reports whether Train has succeeded and when.
func (t *Trainer) Trained() (bool, time.Time) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.trained != nil, t.trainedAt
}
