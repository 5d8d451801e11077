// Package runtime executes signed transactions against the ledger. Each
// transaction runs inside a state overlay that is committed only when every
// instruction succeeds and the lamport total is unchanged.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"gitbounty/core/events"
	"gitbounty/core/rent"
	"gitbounty/core/state"
	"gitbounty/core/types"
	"gitbounty/crypto"
	"gitbounty/native/common"
	"gitbounty/native/system"
	"gitbounty/native/system/quotas"
	"gitbounty/observability"
	"gitbounty/observability/logging"
)

// MaxInvokeDepth bounds the call stack, top-level instruction included.
const MaxInvokeDepth = 4

// Runtime owns the program registry and serialises execution against the
// state manager.
type Runtime struct {
	mu       sync.Mutex
	state    *state.Manager
	programs map[crypto.Address]common.Program
	rent     common.RentCalculator
	emitter  events.Emitter
	pauses   common.PauseView
	quota    common.Quota
	quotas   *quotas.Store
	logger   *slog.Logger
	tracer   trace.Tracer
	now      func() time.Time
}

// Option customises a Runtime.
type Option func(*Runtime)

// WithEmitter publishes committed events to emitter.
func WithEmitter(emitter events.Emitter) Option {
	return func(r *Runtime) {
		if emitter != nil {
			r.emitter = emitter
		}
	}
}

func WithRent(calc common.RentCalculator) Option {
	return func(r *Runtime) {
		if calc != nil {
			r.rent = calc
		}
	}
}

// WithPauses rejects instructions addressed to paused programs.
func WithPauses(p common.PauseView) Option {
	return func(r *Runtime) { r.pauses = p }
}

// WithQuota enforces q per signer, program and epoch.
func WithQuota(q common.Quota) Option {
	return func(r *Runtime) { r.quota = q }
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Runtime) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithClock overrides the time source used for quota epochs and latency.
func WithClock(now func() time.Time) Option {
	return func(r *Runtime) {
		if now != nil {
			r.now = now
		}
	}
}

// New returns a runtime over manager with the system program registered.
func New(manager *state.Manager, opts ...Option) *Runtime {
	r := &Runtime{
		state:    manager,
		programs: make(map[crypto.Address]common.Program),
		rent:     rent.Default(),
		emitter:  events.NoopEmitter{},
		logger:   logging.Discard(),
		tracer:   observability.RuntimeTracer(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.quotas = quotas.NewStore(manager)
	r.programs[system.ProgramID] = system.New()
	return r
}

// Register adds a program. Program ids are unique.
func (r *Runtime) Register(p common.Program) error {
	if p == nil {
		return errors.New("runtime: nil program")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.programs[p.ID()]; ok {
		return fmt.Errorf("%w: %s", ErrProgramExists, p.ID())
	}
	r.programs[p.ID()] = p
	return nil
}

// State exposes the underlying manager for read-only queries.
func (r *Runtime) State() *state.Manager { return r.state }

// Account returns the committed account at addr.
func (r *Runtime) Account(addr crypto.Address) (*types.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.GetAccount(addr)
}

// Execute verifies and runs tx. The returned receipt is populated for both
// outcomes; the error is non-nil exactly when the transaction did not commit.
func (r *Runtime) Execute(ctx context.Context, tx *types.Transaction) (*Receipt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	started := r.now()
	receipt := &Receipt{ID: uuid.NewString(), FailedInstruction: -1}
	ctx, span := r.tracer.Start(ctx, "runtime.execute",
		trace.WithAttributes(attribute.String("invocation", receipt.ID)))

	err := r.execute(ctx, tx, receipt)
	if err != nil {
		receipt.Err = err.Error()
		if receipt.Code == 0 {
			receipt.Code = CodeRuntimeFailure
		}
		r.logger.Warn("transaction rejected",
			slog.String("invocation", receipt.ID),
			slog.Int("instruction", receipt.FailedInstruction),
			slog.Any("error", err))
	} else {
		r.logger.Info("transaction committed",
			slog.String("invocation", receipt.ID),
			slog.Int("events", len(receipt.Events)))
	}
	span.SetAttributes(attribute.Int("code", int(receipt.Code)))
	observability.EndSpan(span, err)
	observability.RuntimeMetrics().ObserveTransaction(err, r.now().Sub(started))
	return receipt, err
}

func (r *Runtime) execute(ctx context.Context, tx *types.Transaction, receipt *Receipt) error {
	if tx == nil || len(tx.Instructions) == 0 {
		return ErrEmptyTransaction
	}
	digest, err := tx.Digest()
	if err != nil {
		return err
	}
	receipt.Digest = digest

	processed, err := r.state.Processed(digest)
	if err != nil {
		return err
	}
	if processed {
		return ErrAlreadyProcessed
	}

	signers, err := tx.Signers()
	if err != nil {
		return err
	}
	for i, ix := range tx.Instructions {
		for _, meta := range ix.Accounts {
			if _, ok := signers[meta.Address]; meta.IsSigner && !ok {
				receipt.FailedInstruction = i
				return fmt.Errorf("%w: %s", ErrMissingSignature, meta.Address)
			}
		}
	}

	exec := &execution{
		rt:      r,
		cache:   state.NewCache(r.state),
		signers: signers,
		logs:    newLogCollector(&receipt.Logs, r.logger.Handler()),
		id:      receipt.ID,
		epoch:   r.quota.Epoch(r.now().Unix()),
		usage:   make(map[quotaKey]common.QuotaNow),
	}
	defer exec.cache.Discard()

	before, err := exec.lamportTotal(tx.Instructions)
	if err != nil {
		return err
	}

	for i, ix := range tx.Instructions {
		if err := exec.runTopLevel(ctx, ix); err != nil {
			receipt.FailedInstruction = i
			receipt.Code = exec.errorCode(ix.ProgramID, err)
			return fmt.Errorf("instruction %d: %w", i, err)
		}
	}

	after, err := exec.lamportTotal(tx.Instructions)
	if err != nil {
		return err
	}
	if !before.Eq(after) {
		return fmt.Errorf("%w: before %s, after %s", ErrLamportsNotConserved, before.Dec(), after.Dec())
	}

	// Accounts, the replay marker and quota counters land in one write.
	batch := r.state.NewBatch()
	if err := exec.cache.Stage(batch); err != nil {
		return fmt.Errorf("runtime: stage accounts: %w", err)
	}
	if err := batch.MarkProcessed(digest); err != nil {
		return fmt.Errorf("runtime: stage processed marker: %w", err)
	}
	if err := exec.stageQuotas(batch); err != nil {
		return fmt.Errorf("runtime: stage quota counters: %w", err)
	}
	if err := batch.Write(); err != nil {
		return fmt.Errorf("runtime: commit: %w", err)
	}

	receipt.Events = exec.pending
	for _, evt := range exec.pending {
		r.emitter.Emit(events.Ledger{Evt: evt})
		observability.Events().RecordEvent(evt.Type)
	}
	return nil
}
