package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fadilmartias/comment-assistant/internal/model"
	"github.com/fadilmartias/comment-assistant/internal/service"
	"go.uber.org/zap"
)

const DefaultBatchSize = 5

// RunTarget is the record store a generation run reads from and publishes to.
type RunTarget interface {
	Records() []model.StudentRecord
	Config() model.GenerationConfig
	TryStartRun() bool
	FinishRun()
	Publish(updated []model.StudentRecord)
}

type GenerationUsecase struct {
	credentials  *CredentialUsecase
	newGenerator service.GeneratorFactory
	batchSize    int
	log          *zap.Logger
}

func NewGenerationUsecase(credentials *CredentialUsecase, newGenerator service.GeneratorFactory, batchSize int, log *zap.Logger) *GenerationUsecase {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &GenerationUsecase{
		credentials:  credentials,
		newGenerator: newGenerator,
		batchSize:    batchSize,
		log:          log.Named("generation"),
	}
}

// Verify resolves the credential and makes one round trip to the provider.
func (uc *GenerationUsecase) Verify(ctx context.Context) (string, CredentialSource, error) {
	apiKey, source, err := uc.credentials.Resolve(ctx)
	if err != nil {
		return "", source, err
	}
	generator, err := uc.newGenerator(ctx, apiKey)
	if err != nil {
		return "", source, err
	}
	reply, err := generator.Ping(ctx)
	if err != nil {
		return "", source, fmt.Errorf("provider ping failed: %w", err)
	}
	return reply, source, nil
}

// Run is a started generation pass over one target. Execute must be called
// exactly once; it releases the target's run guard when it returns.
type Run struct {
	target    RunTarget
	generator service.CommentGenerator
	batchSize int
	log       *zap.Logger
}

type RunSummary struct {
	Records   int           `json:"records"`
	Batches   int           `json:"batches"`
	Completed int           `json:"completed"`
	Failed    int           `json:"failed"`
	Duration  time.Duration `json:"duration"`
}

// Start checks the preconditions of a run and claims the target's run guard.
// It fails with ErrNoRecords, ErrRunInProgress or ErrCredentialRequired, in that order.
func (uc *GenerationUsecase) Start(ctx context.Context, target RunTarget) (*Run, error) {
	if len(target.Records()) == 0 {
		return nil, ErrNoRecords
	}
	if !target.TryStartRun() {
		return nil, ErrRunInProgress
	}

	apiKey, source, err := uc.credentials.Resolve(ctx)
	if err != nil {
		target.FinishRun()
		return nil, err
	}

	generator, err := uc.newGenerator(ctx, apiKey)
	if err != nil {
		target.FinishRun()
		return nil, err
	}

	uc.log.Info("generation run started", zap.String("credential_source", string(source)))
	return &Run{target: target, generator: generator, batchSize: uc.batchSize, log: uc.log}, nil
}

// Execute processes the records in fixed-size batches, one call at a time.
// A failed batch marks its records as errors and the run moves on.
func (r *Run) Execute(ctx context.Context) RunSummary {
	defer r.target.FinishRun()
	start := time.Now()

	records := r.target.Records()
	for i := range records {
		records[i].Requeue()
	}
	r.target.Publish(records)

	summary := RunSummary{Records: len(records)}
	for from := 0; from < len(records); from += r.batchSize {
		to := min(from+r.batchSize, len(records))
		batch := records[from:to]
		summary.Batches++

		for i := range batch {
			batch[i].MarkProcessing()
		}
		r.target.Publish(batch)

		// Config is read per batch so edits made during a run apply to later batches.
		cfg := r.target.Config()
		completed, err := r.processBatch(ctx, batch, cfg)
		r.target.Publish(batch)

		summary.Completed += completed
		summary.Failed += len(batch) - completed

		fields := []zap.Field{
			zap.Int("batch", summary.Batches),
			zap.Int("size", len(batch)),
			zap.Int("completed", completed),
		}
		if err != nil {
			r.log.Warn("batch failed", append(fields, zap.Error(err))...)
		} else {
			r.log.Info("batch done", fields...)
		}
	}

	summary.Duration = time.Since(start)
	r.log.Info("generation run finished",
		zap.Int("records", summary.Records),
		zap.Int("batches", summary.Batches),
		zap.Int("completed", summary.Completed),
		zap.Int("failed", summary.Failed),
		zap.Duration("took", summary.Duration),
	)
	return summary
}

func (r *Run) processBatch(ctx context.Context, batch []model.StudentRecord, cfg model.GenerationConfig) (int, error) {
	request := make([]model.StudentRecord, len(batch))
	for i := range batch {
		request[i] = batch[i].Clone()
	}

	results, err := r.generator.GenerateComments(ctx, request, cfg)
	if err != nil {
		for i := range batch {
			batch[i].Fail(ConnectionFailedMessage)
		}
		return 0, err
	}

	byID := make(map[string]string, len(results))
	for _, res := range results {
		if _, dup := byID[res.ID]; !dup {
			byID[res.ID] = res.Comment
		}
	}

	completed := 0
	for i := range batch {
		if comment, ok := byID[batch[i].ID]; ok {
			batch[i].Complete(comment)
			completed++
		} else {
			batch[i].Fail(CommentOmittedMessage)
		}
	}
	if completed < len(batch) {
		return completed, errors.New("generator omitted some records")
	}
	return completed, nil
}
