package docdex_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/akarwowski/docdex"
)

func TestErrorCode(t *testing.T) {
	t.Parallel()

	t.Run("nil error", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "", docdex.ErrorCode(nil))
	})

	t.Run("application error", func(t *testing.T) {
		t.Parallel()
		err := docdex.Errorf(docdex.ENOTFOUND, "record %q not found", "abc")
		assert.Equal(t, docdex.ENOTFOUND, docdex.ErrorCode(err))
	})

	t.Run("wrapped application error", func(t *testing.T) {
		t.Parallel()
		inner := docdex.Errorf(docdex.ECONFLICT, "already exists")
		err := fmt.Errorf("saving record: %w", inner)
		assert.Equal(t, docdex.ECONFLICT, docdex.ErrorCode(err))
	})

	t.Run("unknown error is internal", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, docdex.EINTERNAL, docdex.ErrorCode(errors.New("boom")))
	})
}

func TestErrorMessage(t *testing.T) {
	t.Parallel()

	t.Run("nil error", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "", docdex.ErrorMessage(nil))
	})

	t.Run("application error", func(t *testing.T) {
		t.Parallel()
		err := docdex.Errorf(docdex.EINVALID, "name required")
		assert.Equal(t, "name required", docdex.ErrorMessage(err))
	})

	t.Run("unknown error is generic", func(t *testing.T) {
		t.Parallel()
		msg := docdex.ErrorMessage(errors.New("boom"))
		assert.NotContains(t, msg, "boom")
		assert.NotEmpty(t, msg)
	})
}
