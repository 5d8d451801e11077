package runtime

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/holiman/uint256"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"gitbounty/core/state"
	"gitbounty/core/types"
	"gitbounty/crypto"
	"gitbounty/native/common"
	"gitbounty/observability"
)

type quotaKey struct {
	program string
	signer  crypto.Address
}

// execution holds the per-transaction state shared by every invocation.
type execution struct {
	rt      *Runtime
	cache   *state.Cache
	signers map[crypto.Address]struct{}
	logs    *logCollector
	id      string
	pending []*types.Event
	epoch   uint64
	usage   map[quotaKey]common.QuotaNow
}

// lamportTotal sums the balances of every account the instructions list.
// Nested invocations can only reach listed accounts, so this set covers
// everything a transaction can touch.
func (x *execution) lamportTotal(ixs []types.Instruction) (*uint256.Int, error) {
	seen := make(map[crypto.Address]struct{})
	total := new(uint256.Int)
	for _, ix := range ixs {
		for _, meta := range ix.Accounts {
			if _, ok := seen[meta.Address]; ok {
				continue
			}
			seen[meta.Address] = struct{}{}
			acc, err := x.cache.Account(meta.Address)
			if err != nil {
				return nil, err
			}
			if _, overflow := total.AddOverflow(total, uint256.NewInt(acc.Lamports)); overflow {
				return nil, ErrLamportSumOverflow
			}
		}
	}
	return total, nil
}

func (x *execution) program(id crypto.Address) (common.Program, error) {
	p, ok := x.rt.programs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProgram, id)
	}
	return p, nil
}

func (x *execution) errorCode(programID crypto.Address, err error) uint32 {
	if p, ok := x.rt.programs[programID]; ok {
		if coder, ok := p.(ErrorCoder); ok {
			return coder.ErrorCode(err)
		}
	}
	return CodeRuntimeFailure
}

// runTopLevel applies the pause guard and quota, then runs ix at depth one.
func (x *execution) runTopLevel(ctx context.Context, ix types.Instruction) (err error) {
	program, err := x.program(ix.ProgramID)
	if err != nil {
		return err
	}
	name := program.Name()
	metrics := observability.RuntimeMetrics()
	defer func() { metrics.ObserveInstruction(name, err) }()

	_, span := x.rt.tracer.Start(ctx, "runtime.instruction",
		trace.WithAttributes(attribute.String("program", name)))
	defer func() { observability.EndSpan(span, err) }()

	if err := common.Guard(x.rt.pauses, name); err != nil {
		metrics.RecordThrottle(name, "paused")
		return fmt.Errorf("%s: %w", name, err)
	}

	signer, hasSigner := firstSigner(ix)
	var debitBefore uint64
	if hasSigner && x.rt.quota.Enabled() {
		if err := x.chargeQuota(name, signer, 1, 0); err != nil {
			metrics.RecordThrottle(name, "quota_exceeded")
			return err
		}
		acc, err := x.cache.Account(signer)
		if err != nil {
			return err
		}
		debitBefore = acc.Lamports
	}

	if err := x.run(ix, 1); err != nil {
		return err
	}

	if hasSigner && x.rt.quota.Enabled() {
		acc, err := x.cache.Account(signer)
		if err != nil {
			return err
		}
		if acc.Lamports < debitBefore {
			if err := x.chargeQuota(name, signer, 0, debitBefore-acc.Lamports); err != nil {
				metrics.RecordThrottle(name, "quota_exceeded")
				return err
			}
		}
	}
	return nil
}

func firstSigner(ix types.Instruction) (crypto.Address, bool) {
	for _, meta := range ix.Accounts {
		if meta.IsSigner {
			return meta.Address, true
		}
	}
	return crypto.Address{}, false
}

func (x *execution) chargeQuota(program string, signer crypto.Address, reqs uint32, lamports uint64) error {
	key := quotaKey{program: program, signer: signer}
	prev, ok := x.usage[key]
	if !ok {
		loaded, _, err := x.rt.quotas.Load(program, x.epoch, signer)
		if err != nil {
			return err
		}
		prev = loaded
	}
	next, err := common.CheckQuota(x.rt.quota, x.epoch, prev, reqs, lamports)
	if err != nil {
		return fmt.Errorf("%s: %w", program, err)
	}
	x.usage[key] = next
	return nil
}

// stageQuotas adds the updated counters to the commit batch.
func (x *execution) stageQuotas(batch *state.Batch) error {
	for key, counters := range x.usage {
		if err := x.rt.quotas.Stage(batch, key.program, x.epoch, key.signer, counters); err != nil {
			return err
		}
	}
	return nil
}

// run dispatches ix to its program with a ledger view limited to the
// instruction's accounts.
func (x *execution) run(ix types.Instruction, depth int) error {
	program, err := x.program(ix.ProgramID)
	if err != nil {
		return err
	}
	logger := slog.New(x.logs.forProgram(program.Name())).With(
		slog.String("invocation", x.id),
		slog.String("program", program.Name()),
		slog.Int("depth", depth),
	)
	ictx := &common.InvokeContext{
		ProgramID: ix.ProgramID,
		Accounts:  ix.Accounts,
		Ledger:    newLedgerView(x.cache, ix.ProgramID, ix.Accounts),
		Rent:      x.rt.rent,
		Invoker:   &invoker{exec: x, caller: ix.ProgramID, callerMetas: mergeMetas(ix.Accounts), depth: depth},
		Logger:    logger,
	}
	ictx.SetEmitter(func(evt *types.Event) { x.pending = append(x.pending, evt) })
	return program.Process(ictx, ix.Data)
}

// invoker implements common.Invoker for one running program.
type invoker struct {
	exec        *execution
	caller      crypto.Address
	callerMetas map[crypto.Address]types.AccountMeta
	depth       int
}

// InvokeSigned runs ix on behalf of the caller. Accounts must already be
// listed by the caller with at least the privileges requested; signer status
// comes either from the caller or from an address derived from the caller's
// id and one of signerSeeds.
func (v *invoker) InvokeSigned(ix types.Instruction, signerSeeds [][][]byte) error {
	if v.depth+1 > MaxInvokeDepth {
		return ErrInvokeDepthExceeded
	}
	if _, ok := v.callerMetas[ix.ProgramID]; !ok {
		return fmt.Errorf("%w: program %s", ErrAccountNotListed, ix.ProgramID)
	}

	derived := make(map[crypto.Address]struct{}, len(signerSeeds))
	for _, seeds := range signerSeeds {
		addr, err := crypto.CreateProgramAddress(seeds, v.caller)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrSignerSeedsUnderivable, err)
		}
		derived[addr] = struct{}{}
	}

	for _, meta := range ix.Accounts {
		callerMeta, ok := v.callerMetas[meta.Address]
		if !ok {
			return fmt.Errorf("%w: %s", ErrAccountNotListed, meta.Address)
		}
		if meta.IsWritable && !callerMeta.IsWritable {
			return fmt.Errorf("%w: %s is not writable", ErrPrivilegeEscalation, meta.Address)
		}
		if meta.IsSigner && !callerMeta.IsSigner {
			if _, ok := derived[meta.Address]; !ok {
				return fmt.Errorf("%w: %s did not sign", ErrPrivilegeEscalation, meta.Address)
			}
		}
	}
	return v.exec.run(ix, v.depth+1)
}
