package harness

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/roach88/council/internal/airdrop"
	"github.com/roach88/council/internal/commitment"
	"github.com/roach88/council/internal/eligibility"
	"github.com/roach88/council/internal/session"
	"github.com/roach88/council/internal/store"
	"github.com/roach88/council/internal/testutil"
	"github.com/roach88/council/internal/wizard"
)

// driver applies ops to one kind of flow.
type driver interface {
	apply(ctx context.Context, op Op) error
	final() FinalState
}

// Run executes a scenario in a fresh in-memory store and returns the
// result. An error is returned only when the run itself could not be set
// up or persisted; op and assertion failures are reported in the result.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()
	mgr, err := session.NewManager(ctx, st,
		session.WithClock(testutil.NewDeterministicClock()),
		session.WithIDGenerator(testutil.NewFixedFlowGenerator(scenario.Name)),
	)
	if err != nil {
		return nil, err
	}

	d, tracker, err := newDriver(ctx, mgr, scenario)
	if err != nil {
		return nil, fmt.Errorf("failed to start %s flow: %w", scenario.Flow, err)
	}

	result := NewResult()
	result.SessionID = tracker.ID()

	for i, op := range scenario.Ops {
		if msg := checkExpect(op, d.apply(ctx, op)); msg != "" {
			result.AddError(fmt.Sprintf("ops[%d] %s: %s", i, op.Op, msg))
		}
	}
	if err := tracker.Err(); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	events, err := st.ReadEvents(ctx, tracker.ID())
	if err != nil {
		return nil, err
	}
	result.Trace = traceFromEvents(events)

	result.Final = d.final()
	ids, err := st.PublicIDs(ctx, tracker.ID())
	if err != nil {
		return nil, err
	}
	result.Final.PublicIDs = len(ids)

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func newDriver(ctx context.Context, mgr *session.Manager, s *Scenario) (driver, *session.Tracker, error) {
	switch s.Flow {
	case FlowWizard:
		opts := []wizard.Option{wizard.WithInitialCompleted(s.InitialCompleted)}
		if s.LockOnFinal {
			opts = append(opts, wizard.WithLockOnFinal())
		}
		wiz, err := wizard.New(s.Steps, opts...)
		if err != nil {
			return nil, nil, err
		}
		tracker, err := mgr.Start(ctx, session.FlowWizard, s.Steps, wiz.State())
		if err != nil {
			return nil, nil, err
		}
		wiz.Observe(tracker.ObserveWizard)
		return &wizardDriver{wiz: wiz}, tracker, nil

	case FlowCommitment:
		c, err := mgr.StartCommitment(ctx, commitment.MiMCHasher{}, &memoryExporter{})
		if err != nil {
			return nil, nil, err
		}
		return &commitmentDriver{c: c}, c.Tracker, nil

	case FlowAirdrop:
		flow, tracker, err := mgr.StartAirdrop(ctx, nil)
		if err != nil {
			return nil, nil, err
		}
		return &airdropDriver{flow: flow}, tracker, nil
	}
	return nil, nil, fmt.Errorf("unknown flow %q", s.Flow)
}

func checkExpect(op Op, err error) string {
	switch op.Expect {
	case "", ExpectOK:
		if err != nil {
			return "unexpected error: " + err.Error()
		}
	case ExpectRejected:
		if !isRejected(err) {
			return fmt.Sprintf("expected rejection, got %v", err)
		}
	case ExpectUsageError:
		if !wizard.IsUsageError(err) {
			return fmt.Sprintf("expected usage error, got %v", err)
		}
	case ExpectError:
		if err == nil {
			return "expected an error"
		}
	}
	return ""
}

func isRejected(err error) bool {
	if wizard.IsRejected(err) {
		return true
	}
	var te *airdrop.TransitionError
	return errors.As(err, &te)
}

type wizardDriver struct {
	wiz *wizard.Wizard
}

func (d *wizardDriver) apply(_ context.Context, op Op) error {
	switch op.Op {
	case OpNext:
		return d.wiz.Next()
	case OpBack:
		return d.wiz.Previous()
	case OpGoTo:
		return d.wiz.GoTo(op.Step)
	case OpComplete:
		return d.wiz.Complete(op.Step)
	}
	return fmt.Errorf("unsupported op %q", op.Op)
}

func (d *wizardDriver) final() FinalState {
	s := d.wiz.State()
	return FinalState{
		CurrentStep:          s.CurrentStep,
		HighestCompletedStep: s.HighestCompletedStep,
		Statuses:             statusNames(d.wiz.Statuses()),
	}
}

type commitmentDriver struct {
	c *session.Commitment
}

func (d *commitmentDriver) apply(ctx context.Context, op Op) error {
	switch op.Op {
	case OpNext:
		return d.c.Next()
	case OpBack:
		return d.c.Previous()
	case OpGoTo:
		return d.c.GoTo(op.Step)
	case OpSetKey:
		_, err := d.c.SetKey(op.Key)
		return err
	case OpExport:
		return d.c.Export(ctx)
	}
	return fmt.Errorf("unsupported op %q", op.Op)
}

func (d *commitmentDriver) final() FinalState {
	s := d.c.State()
	return FinalState{
		CurrentStep:          s.CurrentStep,
		HighestCompletedStep: s.HighestCompletedStep,
		Exported:             d.c.Exported(),
		Statuses:             statusNames(d.c.Statuses()),
	}
}

type airdropDriver struct {
	flow *airdrop.Flow
}

func (d *airdropDriver) apply(_ context.Context, op Op) error {
	switch op.Op {
	case OpNext:
		return d.flow.Next()
	case OpBack:
		return d.flow.Back()
	case OpChooseDelegate:
		return d.flow.ChooseDelegate(op.Address)
	case OpSetEligibility:
		total, err := decimal.NewFromString(op.Total)
		if err != nil {
			return err
		}
		claimed := decimal.Zero
		if op.Claimed != "" {
			if claimed, err = decimal.NewFromString(op.Claimed); err != nil {
				return err
			}
		}
		d.flow.SetEligibility(eligibility.ClaimState{
			Eligibility:    &eligibility.MerkleEligibility{LeafValue: op.Total, Proof: []common.Hash{}},
			TotalGranted:   total,
			AlreadyClaimed: claimed,
		})
		return nil
	}
	return fmt.Errorf("unsupported op %q", op.Op)
}

func (d *airdropDriver) final() FinalState {
	ind := d.flow.Indicator()
	return FinalState{
		Phase: d.flow.Phase().String(),
		Statuses: []string{
			ind.ConnectWallet.String(),
			ind.Delegate.String(),
			ind.ClaimAndDelegate.String(),
		},
	}
}

func statusNames(statuses []wizard.Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = s.String()
	}
	return out
}

// memoryExporter accepts exports without writing anything.
type memoryExporter struct {
	count int
}

func (e *memoryExporter) Export(context.Context, string, commitment.Pair) error {
	e.count++
	return nil
}
