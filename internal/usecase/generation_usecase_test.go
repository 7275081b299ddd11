package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/fadilmartias/comment-assistant/internal/model"
	"github.com/fadilmartias/comment-assistant/internal/repository"
	"github.com/fadilmartias/comment-assistant/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeGenerator struct {
	mu      sync.Mutex
	calls   [][]string
	configs []model.GenerationConfig

	inFlight    atomic.Int32
	maxInFlight atomic.Int32

	// respond overrides the default of one comment per record.
	respond func(call int, batch []model.StudentRecord) ([]model.GeneratedComment, error)
}

func (g *fakeGenerator) GenerateComments(_ context.Context, batch []model.StudentRecord, cfg model.GenerationConfig) ([]model.GeneratedComment, error) {
	n := g.inFlight.Add(1)
	defer g.inFlight.Add(-1)
	for {
		m := g.maxInFlight.Load()
		if n <= m || g.maxInFlight.CompareAndSwap(m, n) {
			break
		}
	}

	ids := make([]string, len(batch))
	for i, r := range batch {
		ids[i] = r.ID
	}
	g.mu.Lock()
	call := len(g.calls)
	g.calls = append(g.calls, ids)
	g.configs = append(g.configs, cfg)
	g.mu.Unlock()

	if g.respond != nil {
		return g.respond(call, batch)
	}
	return commentsFor(batch), nil
}

func (g *fakeGenerator) Ping(context.Context) (string, error) { return "ok", nil }

func commentsFor(batch []model.StudentRecord) []model.GeneratedComment {
	out := make([]model.GeneratedComment, len(batch))
	for i, r := range batch {
		out[i] = model.GeneratedComment{ID: r.ID, Comment: "Nhận xét cho " + r.Name}
	}
	return out
}

func seededSession(t *testing.T, n int) *repository.Session {
	t.Helper()
	s := repository.NewSessionRepository().Create(model.DefaultGenerationConfig())
	records := make([]model.StudentRecord, n)
	for i := range records {
		records[i] = model.StudentRecord{
			ID:     fmt.Sprintf("st-%d-test", i),
			Name:   fmt.Sprintf("Học sinh %d", i+1),
			Score:  "8",
			Level:  model.LevelSatisfactory,
			Status: model.StatusPending,
		}
	}
	require.True(t, s.Replace("Sheet1", []string{"Họ và tên"}, records))
	return s
}

func newGenerationUsecase(gen service.CommentGenerator, fallbackKey string) *GenerationUsecase {
	factory := func(_ context.Context, apiKey string) (service.CommentGenerator, error) {
		if apiKey != fallbackKey {
			return nil, fmt.Errorf("unexpected key %q", apiKey)
		}
		return gen, nil
	}
	return NewGenerationUsecase(NewCredentialUsecase(newMemoryStore(), fallbackKey), factory, 0, zap.NewNop())
}

func runAll(t *testing.T, uc *GenerationUsecase, s *repository.Session) RunSummary {
	t.Helper()
	run, err := uc.Start(context.Background(), s)
	require.NoError(t, err)
	return run.Execute(context.Background())
}

func TestGeneration_BatchesSequentially(t *testing.T) {
	gen := &fakeGenerator{}
	s := seededSession(t, 12)

	summary := runAll(t, newGenerationUsecase(gen, "k"), s)

	assert.Equal(t, RunSummary{Records: 12, Batches: 3, Completed: 12, Duration: summary.Duration}, summary)
	require.Len(t, gen.calls, 3)
	assert.Len(t, gen.calls[0], 5)
	assert.Len(t, gen.calls[1], 5)
	assert.Len(t, gen.calls[2], 2)
	assert.Equal(t, int32(1), gen.maxInFlight.Load(), "batches never overlap")

	seen := map[string]bool{}
	for _, call := range gen.calls {
		for _, id := range call {
			assert.False(t, seen[id], "record %s sent twice", id)
			seen[id] = true
		}
	}
	assert.Len(t, seen, 12)
	assert.Equal(t, "st-0-test", gen.calls[0][0])
	assert.Equal(t, "st-11-test", gen.calls[2][1])

	for _, r := range s.Records() {
		assert.Equal(t, model.StatusCompleted, r.Status)
		assert.Equal(t, "Nhận xét cho "+r.Name, r.CommentText())
	}
	assert.Equal(t, repository.RunIdle, s.RunState())
}

func TestGeneration_StatusesDuringRun(t *testing.T) {
	s := seededSession(t, 7)
	gen := &fakeGenerator{}
	gen.respond = func(call int, batch []model.StudentRecord) ([]model.GeneratedComment, error) {
		records := s.Records()
		for i, r := range records {
			switch {
			case call == 0 && i < 5, call == 1 && i >= 5:
				assert.Equal(t, model.StatusProcessing, r.Status, "record %d", i)
			case call == 0:
				assert.Equal(t, model.StatusPending, r.Status, "record %d", i)
			default:
				assert.Equal(t, model.StatusCompleted, r.Status, "record %d", i)
			}
		}
		assert.Equal(t, repository.RunRunning, s.RunState())
		return commentsFor(batch), nil
	}

	runAll(t, newGenerationUsecase(gen, "k"), s)
	assert.Len(t, gen.calls, 2)
}

func TestGeneration_PartialResults(t *testing.T) {
	s := seededSession(t, 5)
	gen := &fakeGenerator{respond: func(_ int, batch []model.StudentRecord) ([]model.GeneratedComment, error) {
		return []model.GeneratedComment{
			{ID: batch[0].ID, Comment: "một"},
			{ID: batch[0].ID, Comment: "trùng"},
			{ID: batch[2].ID, Comment: "ba"},
			{ID: "st-404", Comment: "lạ"},
		}, nil
	}}

	summary := runAll(t, newGenerationUsecase(gen, "k"), s)
	assert.Equal(t, 2, summary.Completed)
	assert.Equal(t, 3, summary.Failed)

	records := s.Records()
	assert.Equal(t, "một", records[0].CommentText(), "first comment for an id wins")
	assert.Equal(t, model.StatusCompleted, records[2].Status)
	for _, i := range []int{1, 3, 4} {
		assert.Equal(t, model.StatusError, records[i].Status)
		assert.Equal(t, CommentOmittedMessage, records[i].CommentText())
	}
}

func TestGeneration_FailedBatchDoesNotStopRun(t *testing.T) {
	s := seededSession(t, 15)
	gen := &fakeGenerator{respond: func(call int, batch []model.StudentRecord) ([]model.GeneratedComment, error) {
		if call == 1 {
			return nil, errors.New("upstream 503")
		}
		return commentsFor(batch), nil
	}}

	summary := runAll(t, newGenerationUsecase(gen, "k"), s)
	assert.Equal(t, 3, summary.Batches)
	assert.Equal(t, 10, summary.Completed)
	assert.Equal(t, 5, summary.Failed)
	assert.Len(t, gen.calls, 3)

	for i, r := range s.Records() {
		if i >= 5 && i < 10 {
			assert.Equal(t, model.StatusError, r.Status)
			assert.Equal(t, ConnectionFailedMessage, r.CommentText())
			continue
		}
		assert.Equal(t, model.StatusCompleted, r.Status)
	}
	assert.Equal(t, repository.RunIdle, s.RunState())
}

func TestGeneration_ConfigReadPerBatch(t *testing.T) {
	s := seededSession(t, 10)
	gen := &fakeGenerator{}
	gen.respond = func(call int, batch []model.StudentRecord) ([]model.GeneratedComment, error) {
		if call == 0 {
			cfg := s.Config()
			cfg.Subject = "Toán"
			s.SetConfig(cfg)
		}
		return commentsFor(batch), nil
	}

	runAll(t, newGenerationUsecase(gen, "k"), s)
	require.Len(t, gen.configs, 2)
	assert.Equal(t, "Tiếng Việt", gen.configs[0].Subject)
	assert.Equal(t, "Toán", gen.configs[1].Subject)
}

func TestGeneration_RerunRequeuesEverything(t *testing.T) {
	s := seededSession(t, 3)
	failing := true
	gen := &fakeGenerator{respond: func(_ int, batch []model.StudentRecord) ([]model.GeneratedComment, error) {
		if failing {
			return nil, errors.New("bad key")
		}
		return commentsFor(batch), nil
	}}
	uc := newGenerationUsecase(gen, "k")

	summary := runAll(t, uc, s)
	assert.Equal(t, 3, summary.Failed)

	failing = false
	summary = runAll(t, uc, s)
	assert.Equal(t, 3, summary.Completed)
	for _, r := range s.Records() {
		assert.Equal(t, model.StatusCompleted, r.Status)
	}
}

func TestGeneration_StartPreconditions(t *testing.T) {
	ctx := context.Background()
	gen := &fakeGenerator{}

	t.Run("no records", func(t *testing.T) {
		s := repository.NewSessionRepository().Create(model.DefaultGenerationConfig())
		_, err := newGenerationUsecase(gen, "k").Start(ctx, s)
		assert.ErrorIs(t, err, ErrNoRecords)
	})

	t.Run("already running", func(t *testing.T) {
		s := seededSession(t, 2)
		require.True(t, s.TryStartRun())
		_, err := newGenerationUsecase(gen, "k").Start(ctx, s)
		assert.ErrorIs(t, err, ErrRunInProgress)
		s.FinishRun()
	})

	t.Run("no credential", func(t *testing.T) {
		s := seededSession(t, 2)
		_, err := newGenerationUsecase(gen, "").Start(ctx, s)
		assert.ErrorIs(t, err, ErrCredentialRequired)
		assert.Equal(t, repository.RunIdle, s.RunState(), "guard is released")
		for _, r := range s.Records() {
			assert.Equal(t, model.StatusPending, r.Status)
		}
	})

	t.Run("generator cannot be built", func(t *testing.T) {
		s := seededSession(t, 2)
		factory := func(context.Context, string) (service.CommentGenerator, error) {
			return nil, errors.New("bad base url")
		}
		uc := NewGenerationUsecase(NewCredentialUsecase(newMemoryStore(), "k"), factory, 5, zap.NewNop())
		_, err := uc.Start(ctx, s)
		assert.ErrorContains(t, err, "bad base url")
		assert.Equal(t, repository.RunIdle, s.RunState())
	})

	assert.Empty(t, gen.calls)
}

func TestGeneration_ConcurrentStartsClaimOnce(t *testing.T) {
	s := seededSession(t, 5)
	uc := newGenerationUsecase(&fakeGenerator{}, "k")

	var (
		wg      sync.WaitGroup
		started atomic.Int32
		runs    = make(chan *Run, 8)
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			run, err := uc.Start(context.Background(), s)
			if err == nil {
				started.Add(1)
				runs <- run
				return
			}
			assert.ErrorIs(t, err, ErrRunInProgress)
		}()
	}
	wg.Wait()
	close(runs)

	assert.Equal(t, int32(1), started.Load())
	for run := range runs {
		run.Execute(context.Background())
	}
}

type pingGenerator struct {
	fakeGenerator
	err error
}

func (g *pingGenerator) Ping(context.Context) (string, error) { return "pong", g.err }

func TestGeneration_Verify(t *testing.T) {
	ctx := context.Background()

	reply, source, err := newGenerationUsecase(&pingGenerator{}, "k").Verify(ctx)
	require.NoError(t, err)
	assert.Equal(t, "pong", reply)
	assert.Equal(t, CredentialSourceEnv, source)

	_, _, err = newGenerationUsecase(&pingGenerator{err: errors.New("401")}, "k").Verify(ctx)
	assert.ErrorContains(t, err, "401")

	_, source, err = newGenerationUsecase(&pingGenerator{}, "").Verify(ctx)
	assert.ErrorIs(t, err, ErrCredentialRequired)
	assert.Equal(t, CredentialSourceNone, source)
}
