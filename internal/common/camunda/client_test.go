package camunda

import (
	stderrors "errors"
	"testing"

	"dishprice-workers/internal/common/errors"

	"github.com/stretchr/testify/assert"
)

func TestMapZeebeError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		code      errors.ErrorCode
		retryable bool
	}{
		{"unavailable", stderrors.New("rpc error: code = Unavailable desc = connection refused"), errors.ErrCodeTransientNetwork, true},
		{"deadline", stderrors.New("context deadline exceeded"), errors.ErrCodeTransientNetwork, true},
		{"permission", stderrors.New("rpc error: code = PermissionDenied"), errors.ErrCodeInternal, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mapped := mapZeebeError(tt.err, "connect")
			assert.Equal(t, tt.code, errors.CodeOf(mapped))
			assert.Equal(t, tt.retryable, errors.IsRetryable(mapped))
			assert.ErrorIs(t, mapped, tt.err)
		})
	}
}

func TestStopNilWorker(t *testing.T) {
	var w *JobWorker
	assert.NotPanics(t, w.Stop)
}
