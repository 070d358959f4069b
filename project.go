package suitejson

// Allow-listed fields copied from suites.
var (
	suiteFields    = []string{"title", "pending", "root", "file"}
	suiteAccessors = []string{"timeout", "slow", "retries"}
)

// Allow-listed fields copied from tests and hooks.
var (
	testFields    = []string{"title", "body", "timedOut", "pending", "type", "file", "duration", "state", "speed"}
	testAccessors = []string{"timeout", "slow", "retries", "currentRetry"}
)

// Project copies the plain fields of node that are defined and the results of
// its accessors that are defined into a new Object, in list order.
//
// A missing or non-callable accessor yields a *ContractError. Errors returned
// by an accessor are passed through wrapped; panics are not recovered.
func Project(node any, plain, accessors []string) (*Object, error) {
	src := newSource(node)
	out := NewObject()

	for _, name := range plain {
		if v, ok := src.field(name); ok {
			out.Set(name, v)
		}
	}

	for _, name := range accessors {
		v, ok, err := src.call(name)
		if err != nil {
			return nil, err
		}

		if ok {
			out.Set(name, v)
		}
	}

	return out, nil
}
