package result

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOk(t *testing.T) {
	values := []any{"text", 42, map[string]any{"sid": "SM1"}, []int{1, 2}, true}

	for _, v := range values {
		r := Ok(v)
		assert.False(t, r.IsError())
		assert.Equal(t, v, r.Data())
		assert.PanicsWithValue(t, ErrNotFailed, func() { r.Failure() })
	}
}

func TestFailed(t *testing.T) {
	failures := []any{errors.New("boom"), "reason", 500}

	for _, f := range failures {
		r := Failed[string](f)
		assert.True(t, r.IsError())
		assert.Equal(t, f, r.Failure())
		assert.PanicsWithValue(t, ErrNotSuccessful, func() { r.Data() })
	}
}

func TestFailedNil(t *testing.T) {
	r := Failed[int](nil)

	require.True(t, r.IsError())
	assert.Equal(t, ErrNilFailure, r.Failure())
}

func TestOkRedirectsErrors(t *testing.T) {
	err := errors.New("x")

	got := Ok(err)
	want := Failed[error](err)

	assert.Equal(t, want.IsError(), got.IsError())
	assert.Equal(t, want.Failure(), got.Failure())
	assert.Panics(t, func() { got.Data() })
}

func TestOkWithNilError(t *testing.T) {
	var err error
	r := Ok(err)

	assert.False(t, r.IsError())
	assert.Nil(t, r.Data())
}

func TestFromAndUnwrap(t *testing.T) {
	r := From(strconv.Atoi("12"))
	v, err := r.Unwrap()
	require.NoError(t, err)
	assert.Equal(t, 12, v)

	r = From(strconv.Atoi("nope"))
	_, err = r.Unwrap()
	assert.Error(t, err)
	assert.True(t, r.IsError())
}

func TestErrFromNonError(t *testing.T) {
	r := Failed[int]("bad input")

	assert.EqualError(t, r.Err(), "bad input")
}

func TestMap(t *testing.T) {
	doubled := Map(Ok(21), func(v int) int { return v * 2 })
	assert.Equal(t, 42, doubled.Data())

	failed := Map(Failed[int]("nope"), func(v int) string { return strconv.Itoa(v) })
	assert.True(t, failed.IsError())
	assert.Equal(t, "nope", failed.Failure())
}

func TestTry(t *testing.T) {
	r := Try(func() (string, error) { return "", errors.New("down") })
	assert.True(t, r.IsError())
	assert.Equal(t, "down", Message(r.Failure()))
}

func TestOutcome(t *testing.T) {
	var o Outcome = Ok(map[string]string{"foo": "bar"})

	assert.False(t, o.IsError())
	assert.Equal(t, map[string]string{"foo": "bar"}, o.Payload())
}
