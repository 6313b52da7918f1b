package conformerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeOf(t *testing.T) {
	cause := errors.New("boom")
	err := Transport("orchestrator", "send failed", cause)

	assert.Equal(t, CodeTransport, CodeOf(err))
	assert.Equal(t, CodeSynthesis, CodeOf(Synthesis("synth", "no value", nil)))
}

func TestWrapUnwrap(t *testing.T) {
	cause := errors.New("underlying")
	err := StateSource("sampler", "kind omitted", cause)

	require.ErrorIs(t, err, cause)
	assert.Equal(t, "STATE_SOURCE: sampler: kind omitted: underlying", err.Error())
}

func TestCancelledSentinel(t *testing.T) {
	err := Cancelled("engine")

	assert.True(t, IsCancelled(err))
	assert.False(t, IsCancelled(errors.New("not cancelled")))
}

func TestCodeOfNonConformanceError(t *testing.T) {
	assert.Equal(t, Code(""), CodeOf(errors.New("plain")))
}
