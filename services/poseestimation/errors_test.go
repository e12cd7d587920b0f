package poseestimation

import (
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"
)

func TestOutcome(t *testing.T) {
	test.That(t, Outcome(nil), test.ShouldEqual, OutcomePublished)
	test.That(t, Outcome(errors.New("boom")), test.ShouldEqual, OutcomeError)
	for _, o := range outcomes {
		test.That(t, Outcome(o.err), test.ShouldEqual, o.label)
		test.That(t, Outcome(errors.Wrap(o.err, "context")), test.ShouldEqual, o.label)
	}
	test.That(t, Outcome(errors.Wrap(ErrDegenerateGeometry, "tile")), test.ShouldEqual, OutcomeDegenerateGeometry)
}
