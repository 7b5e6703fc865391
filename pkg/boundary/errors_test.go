package boundary

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestClassify(t *testing.T) {
	tests := map[string]struct {
		err  error
		kind Kind
	}{
		"connection refused": {
			err:  fmt.Errorf("dial: %w", syscall.ECONNREFUSED),
			kind: KindTransient,
		},
		"network timeout": {
			err:  timeoutErr{},
			kind: KindTransient,
		},
		"deadline": {
			err:  context.DeadlineExceeded,
			kind: KindInconclusive,
		},
		"unknown": {
			err:  errors.New("certificate signed by unknown authority"),
			kind: KindTransport,
		},
		"already classified": {
			err:  Logical("list", errors.New("empty")),
			kind: KindLogical,
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			err := Classify("op", tt.err)
			assert.Equal(t, tt.kind, KindOf(err))
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestErrorFormatting(t *testing.T) {
	err := Transport("put object", errors.New("403 forbidden"))
	assert.EqualError(t, err, "put object: 403 forbidden")
	assert.Nil(t, Transient("noop", nil))
	assert.Equal(t, KindTransport, KindOf(errors.New("plain")))
	assert.False(t, IsTransient(nil))
}
