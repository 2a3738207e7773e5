package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Defaults for ServiceConfig.
var (
	DefaultImportTimeout = 10 * time.Minute
	DefaultRetention     = 15 * time.Minute
)

// Phase is the lifecycle stage of an import job.
type Phase string

const (
	PhaseQueued     Phase = "queued"
	PhaseReading    Phase = "reading"
	PhasePersisting Phase = "persisting"
	PhaseComplete   Phase = "complete"
	PhaseFailed     Phase = "failed"
)

// Upload is a workbook handed to the service. The service owns File once
// Start or Run is called and closes it when the import ends.
type Upload struct {
	Name string
	Size int64
	File interface {
		io.ReaderAt
		io.Closer
	}
}

// ServiceConfig wires the service's collaborators. Only Importer is required.
type ServiceConfig struct {
	Importer  *Importer
	Limiter   *ImportLimiter // nil means DefaultMaxConcurrentImports
	Persister Persister      // nil disables persisting
	Timeout   time.Duration  // per import; 0 means DefaultImportTimeout
	Retention time.Duration  // how long finished jobs stay queryable
	Logger    *slog.Logger
}

// Service runs imports against registered layouts, either synchronously (Run)
// or as background jobs (Start) bounded by an ImportLimiter.
type Service struct {
	importer  *Importer
	limiter   *ImportLimiter
	persister Persister
	timeout   time.Duration
	retention time.Duration
	logger    *slog.Logger

	mu   sync.RWMutex
	jobs map[string]*Job
	wg   sync.WaitGroup
}

// NewService creates a Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Importer == nil {
		return nil, errors.New("service: importer is required")
	}
	if cfg.Limiter == nil {
		cfg.Limiter = NewImportLimiter(DefaultMaxConcurrentImports, DefaultMaxWaitTime)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultImportTimeout
	}
	if cfg.Retention <= 0 {
		cfg.Retention = DefaultRetention
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Service{
		importer:  cfg.Importer,
		limiter:   cfg.Limiter,
		persister: cfg.Persister,
		timeout:   cfg.Timeout,
		retention: cfg.Retention,
		logger:    cfg.Logger,
		jobs:      make(map[string]*Job),
	}, nil
}

// Layouts returns every registered layout.
func (s *Service) Layouts() []LayoutInfo {
	defs := All()
	infos := make([]LayoutInfo, len(defs))
	for i, def := range defs {
		infos[i] = def.Info
	}
	return infos
}

// Limiter returns the limiter bounding background imports.
func (s *Service) Limiter() *ImportLimiter {
	return s.limiter
}

// CanPersist reports whether a Persister is configured.
func (s *Service) CanPersist() bool {
	return s.persister != nil
}

// Run imports up synchronously and, when persist is set, stores the valid
// records. up.File is closed before Run returns.
func (s *Service) Run(ctx context.Context, layoutKey string, up Upload, persist bool) (*Result, map[string]int64, error) {
	defer up.File.Close()

	def, err := s.layout(layoutKey, persist)
	if err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return s.execute(ctx, def, up, persist, nil)
}

// Start queues up as a background job and returns its ID. It blocks while
// the limiter is full and fails with ErrTooManyImports when no slot frees up
// in time. The job runs detached from ctx.
func (s *Service) Start(ctx context.Context, layoutKey string, up Upload, persist bool) (string, error) {
	def, err := s.layout(layoutKey, persist)
	if err != nil {
		up.File.Close()
		return "", err
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		up.File.Close()
		return "", err
	}

	jobCtx, cancel := context.WithTimeout(context.Background(), s.timeout)
	job := &Job{
		ID:        uuid.New().String(),
		Layout:    layoutKey,
		FileName:  up.Name,
		Size:      up.Size,
		Requester: RequesterFromContext(ctx),
		StartedAt: time.Now(),
		cancel:    cancel,
		phase:     PhaseQueued,
		done:      make(chan struct{}),
	}

	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()

	s.wg.Add(1)
	go s.process(jobCtx, job, def, up, persist)

	return job.ID, nil
}

// Job returns the job with the given ID.
func (s *Service) Job(id string) (*Job, error) {
	s.mu.RLock()
	job, ok := s.jobs[id]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrImportNotFound, id)
	}
	return job, nil
}

// Cancel stops a running job. Cancelling a finished job has no effect.
func (s *Service) Cancel(id string) error {
	job, err := s.Job(id)
	if err != nil {
		return err
	}
	job.cancel()
	return nil
}

// Shutdown waits for background jobs to finish or ctx to end. Jobs still
// running when ctx ends are cancelled.
func (s *Service) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		s.mu.RLock()
		for _, job := range s.jobs {
			job.cancel()
		}
		s.mu.RUnlock()
		return ctx.Err()
	}
}

func (s *Service) layout(key string, persist bool) (LayoutDefinition, error) {
	def, ok := Get(key)
	if !ok {
		return LayoutDefinition{}, fmt.Errorf("%w: %s", ErrLayoutNotFound, key)
	}
	if persist && s.persister == nil {
		return LayoutDefinition{}, ErrPersistDisabled
	}
	return def, nil
}

func (s *Service) process(ctx context.Context, job *Job, def LayoutDefinition, up Upload, persist bool) {
	logger := s.logger.With(
		"import_id", job.ID,
		"layout", job.Layout,
		"file", job.FileName,
		"ip", job.Requester.IPAddress,
	)

	defer func() {
		if p := recover(); p != nil {
			logger.Error("import panicked", "panic", p)
			job.finish(nil, nil, fmt.Errorf("import panicked: %v", p))
		}
		job.cancel()
		up.File.Close()
		s.limiter.Release()
		close(job.done)
		s.cleanup(job.ID, s.retention)
		s.wg.Done()
	}()

	logger.Info("import started", "size", job.Size)

	res, persisted, err := s.execute(ctx, def, up, persist, job.setPhase)
	job.finish(res, persisted, err)

	if err != nil {
		logger.Error("import failed", "error", err, "code", MapError(err).Code)
		return
	}
	valid, invalid := res.Totals()
	logger.Info("import finished",
		"valid", valid,
		"invalid", invalid,
		"duration", time.Since(job.StartedAt),
	)
}

// execute imports the workbook and optionally persists the result. phase,
// when non-nil, is told about each stage.
func (s *Service) execute(ctx context.Context, def LayoutDefinition, up Upload, persist bool, phase func(Phase)) (*Result, map[string]int64, error) {
	if phase == nil {
		phase = func(Phase) {}
	}

	phase(PhaseReading)
	res, err := s.importer.Import(ctx, up.File, up.Size, def.Binders())
	if err != nil {
		return res, nil, err
	}

	if !persist {
		return res, nil, nil
	}

	phase(PhasePersisting)
	persisted, err := s.persister.Persist(ctx, def, res)
	if err != nil {
		return res, persisted, fmt.Errorf("persist: %w", err)
	}
	return res, persisted, nil
}

// cleanup removes the job from tracking after a delay.
func (s *Service) cleanup(id string, delay time.Duration) {
	time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.jobs, id)
		s.mu.Unlock()
	})
}

// Job is a background import.
type Job struct {
	ID        string
	Layout    string
	FileName  string
	Size      int64
	Requester Requester
	StartedAt time.Time

	cancel context.CancelFunc
	done   chan struct{}

	mu         sync.RWMutex
	phase      Phase
	result     *Result
	persisted  map[string]int64
	err        error
	finishedAt time.Time
}

// JobStatus is a point-in-time view of a job.
type JobStatus struct {
	ID         string           `json:"id"`
	Layout     string           `json:"layout"`
	FileName   string           `json:"fileName"`
	Size       int64            `json:"size"`
	Phase      Phase            `json:"phase"`
	StartedAt  time.Time        `json:"startedAt"`
	FinishedAt *time.Time       `json:"finishedAt,omitempty"`
	Sheets     []SheetSummary   `json:"sheets,omitempty"`
	Persisted  map[string]int64 `json:"persisted,omitempty"`
	Error      *UserMessage     `json:"error,omitempty"`
}

// Done is closed when the job finishes.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Wait blocks until the job finishes or ctx ends.
func (j *Job) Wait(ctx context.Context) error {
	select {
	case <-j.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Result returns the import result and the job error. The result is nil
// until the job finishes; it may be partial when the error is non-nil.
func (j *Job) Result() (*Result, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.result, j.err
}

// Status returns the job's current state.
func (j *Job) Status() JobStatus {
	j.mu.RLock()
	defer j.mu.RUnlock()

	st := JobStatus{
		ID:        j.ID,
		Layout:    j.Layout,
		FileName:  j.FileName,
		Size:      j.Size,
		Phase:     j.phase,
		StartedAt: j.StartedAt,
		Persisted: j.persisted,
	}
	if !j.finishedAt.IsZero() {
		t := j.finishedAt
		st.FinishedAt = &t
	}
	if j.result != nil {
		st.Sheets = j.result.Sheets()
	}
	if j.err != nil {
		msg := MapError(j.err)
		st.Error = &msg
	}
	return st
}

func (j *Job) setPhase(p Phase) {
	j.mu.Lock()
	j.phase = p
	j.mu.Unlock()
}

// finish records the outcome. Only the first call has an effect.
func (j *Job) finish(res *Result, persisted map[string]int64, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !j.finishedAt.IsZero() {
		return
	}
	j.finishedAt = time.Now()
	j.result = res
	j.persisted = persisted
	j.err = err
	if err != nil {
		j.phase = PhaseFailed
	} else {
		j.phase = PhaseComplete
	}
}
