package harness

import (
	"fmt"
	"slices"
)

// EvaluateAssertions checks every assertion against result and returns
// one message per failure. It does not stop at the first failure.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertFinalState:
			err = assertFinalState(result, a)
		case AssertTraceCount:
			err = assertTraceCount(result, a)
		case AssertTraceOrder:
			err = assertTraceOrder(result, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d] %s: %v", i, a.Type, err))
		}
	}
	return errs
}

func assertFinalState(result *Result, a Assertion) error {
	f := result.Final
	actual := map[string]any{
		"current_step":           f.CurrentStep,
		"highest_completed_step": f.HighestCompletedStep,
		"phase":                  f.Phase,
		"exported":               f.Exported,
		"public_ids":             f.PublicIDs,
		"statuses":               f.Statuses,
	}

	keys := make([]string, 0, len(a.Expect))
	for k := range a.Expect {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		got, ok := actual[k]
		if !ok {
			return fmt.Errorf("unknown field %q", k)
		}
		// YAML decodes numbers and lists loosely; compare rendered values.
		if want := a.Expect[k]; fmt.Sprint(got) != fmt.Sprint(want) {
			return fmt.Errorf("%s = %v, want %v", k, got, want)
		}
	}
	return nil
}

func assertTraceCount(result *Result, a Assertion) error {
	n := 0
	for _, e := range result.Trace {
		if e.Op != a.Op {
			continue
		}
		if a.Accepted != nil && e.Accepted != *a.Accepted {
			continue
		}
		n++
	}
	if n != a.Count {
		return fmt.Errorf("%s appears %d times, want %d", a.Op, n, a.Count)
	}
	return nil
}

// assertTraceOrder checks that the accepted events contain a.Ops as a
// subsequence.
func assertTraceOrder(result *Result, a Assertion) error {
	i := 0
	for _, e := range result.Trace {
		if i < len(a.Ops) && e.Accepted && e.Op == a.Ops[i] {
			i++
		}
	}
	if i != len(a.Ops) {
		return fmt.Errorf("accepted ops do not contain %v in order (matched %d)", a.Ops, i)
	}
	return nil
}
