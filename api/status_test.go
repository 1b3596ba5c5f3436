package api_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/momentics/gfxqueue/api"
)

func TestErrorTaxonomy(t *testing.T) {
	cases := []struct {
		name string
		code api.ErrorCode
		want string
	}{
		{"invalid argument", api.ErrCodeInvalidArgument, "bad width"},
		{"resource exhausted", api.ErrCodeResourceExhausted, "pool full"},
		{"timeout", api.ErrCodeTimeout, "request timed out"},
		{"no buffer", api.ErrCodeNoBuffer, "pool empty"},
		{"no consumer", api.ErrCodeNoConsumer, "listener missing"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := api.NewError(tc.code, tc.want)
			assert.Equal(t, tc.code, err.Code)
			assert.Equal(t, tc.want, err.Error())

			err = err.WithContext("sequence", uint64(42))
			assert.Contains(t, err.Error(), "sequence")
			assert.Equal(t, uint64(42), err.Context["sequence"])
		})
	}
}

func TestSentinelErrorsAreDistinct(t *testing.T) {
	sentinels := []error{
		api.ErrNoBuffer,
		api.ErrNoEntry,
		api.ErrNoConsumer,
		api.ErrOutOfRange,
		api.ErrNullPtr,
		api.ErrInvalidOperating,
	}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i == j {
				continue
			}
			assert.NotEqual(t, a.Error(), b.Error())
		}
	}
}
