package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveTransition(t *testing.T) {
	before := testutil.ToFloat64(TransitionsTotal.WithLabelValues("APPROVE", "CONFLICT"))

	ObserveTransition("APPROVE", "CONFLICT", 0.01)

	after := testutil.ToFloat64(TransitionsTotal.WithLabelValues("APPROVE", "CONFLICT"))
	assert.Equal(t, before+1, after)
}
