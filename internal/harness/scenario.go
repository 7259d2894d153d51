package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Flow kinds a scenario can drive.
const (
	FlowWizard     = "wizard"
	FlowCommitment = "commitment"
	FlowAirdrop    = "airdrop"
)

// Scenario is a scripted run of one flow.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	// Flow selects the driven flow: wizard, commitment or airdrop.
	Flow string `yaml:"flow"`

	// Steps, InitialCompleted and LockOnFinal configure a bare wizard.
	Steps            int  `yaml:"steps,omitempty"`
	InitialCompleted int  `yaml:"initial_completed,omitempty"`
	LockOnFinal      bool `yaml:"lock_on_final,omitempty"`

	Ops        []Op        `yaml:"ops"`
	Assertions []Assertion `yaml:"assertions"`
}

// Op is one scripted request.
type Op struct {
	// Op is next, back, goto, complete, set_key, export, set_eligibility or
	// choose_delegate.
	Op string `yaml:"op"`

	Step    int    `yaml:"step,omitempty"`
	Key     string `yaml:"key,omitempty"`
	Total   string `yaml:"total,omitempty"`
	Claimed string `yaml:"claimed,omitempty"`
	Address string `yaml:"address,omitempty"`

	// Expect is the required outcome: empty or "ok", "rejected",
	// "usage_error" or "error".
	Expect string `yaml:"expect,omitempty"`
}

// Op names.
const (
	OpNext           = "next"
	OpBack           = "back"
	OpGoTo           = "goto"
	OpComplete       = "complete"
	OpSetKey         = "set_key"
	OpExport         = "export"
	OpSetEligibility = "set_eligibility"
	OpChooseDelegate = "choose_delegate"
)

// Expected outcomes.
const (
	ExpectOK         = "ok"
	ExpectRejected   = "rejected"
	ExpectUsageError = "usage_error"
	ExpectError      = "error"
)

// Assertion checks the outcome of a run.
type Assertion struct {
	// Type is final_state, trace_count or trace_order.
	Type string `yaml:"type"`

	// Expect holds final_state fields: current_step,
	// highest_completed_step, phase, exported, public_ids, statuses.
	Expect map[string]any `yaml:"expect,omitempty"`

	// Op and Accepted filter events for trace_count.
	Op       string `yaml:"op,omitempty"`
	Accepted *bool  `yaml:"accepted,omitempty"`
	Count    int    `yaml:"count,omitempty"`

	// Ops is the expected order of accepted events for trace_order.
	Ops []string `yaml:"ops,omitempty"`
}

// Assertion types.
const (
	AssertFinalState = "final_state"
	AssertTraceCount = "trace_count"
	AssertTraceOrder = "trace_order"
)

var flowOps = map[string]map[string]bool{
	FlowWizard:     {OpNext: true, OpBack: true, OpGoTo: true, OpComplete: true},
	FlowCommitment: {OpNext: true, OpBack: true, OpGoTo: true, OpSetKey: true, OpExport: true},
	FlowAirdrop:    {OpNext: true, OpBack: true, OpSetEligibility: true, OpChooseDelegate: true},
}

// LoadScenario reads and validates a scenario file. Unknown fields are
// rejected so typos surface early.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	allowed, ok := flowOps[s.Flow]
	if !ok {
		return fmt.Errorf("unknown flow %q", s.Flow)
	}
	if s.Flow == FlowWizard && s.Steps < 1 {
		return fmt.Errorf("steps must be >= 1 for a wizard flow")
	}
	if len(s.Ops) == 0 {
		return fmt.Errorf("ops list is required and must be non-empty")
	}

	for i, op := range s.Ops {
		if !allowed[op.Op] {
			return fmt.Errorf("ops[%d]: op %q not supported by %s flow", i, op.Op, s.Flow)
		}
		switch op.Expect {
		case "", ExpectOK, ExpectRejected, ExpectUsageError, ExpectError:
		default:
			return fmt.Errorf("ops[%d]: unknown expect %q", i, op.Expect)
		}
		if op.Op == OpSetEligibility && op.Total == "" {
			return fmt.Errorf("ops[%d]: total is required for set_eligibility", i)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case AssertFinalState:
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	case AssertTraceCount:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertTraceOrder:
		if len(a.Ops) == 0 {
			return fmt.Errorf("assertions[%d]: ops list is required for trace_order", index)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
