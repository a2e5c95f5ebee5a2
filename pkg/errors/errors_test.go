package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{New(CodeInvalid, "bad"), http.StatusBadRequest},
		{NotFound("feature", "f1"), http.StatusNotFound},
		{fmt.Errorf("outer: %w", New(CodeConflict, "dup")), http.StatusConflict},
		{Wrap(fmt.Errorf("boom"), CodeInternal, "db"), http.StatusInternalServerError},
		{fmt.Errorf("plain"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HTTPStatus(tc.err), tc.err.Error())
	}
}

func TestWithFieldAndMessage(t *testing.T) {
	e := New(CodeInvalid, "validation failed").WithField("description", "min")
	assert.Equal(t, "min", e.Fields["description"])
	assert.Equal(t, "invalid: validation failed", e.Error())
	assert.True(t, IsCode(e, CodeInvalid))
	assert.False(t, IsCode(fmt.Errorf("x"), CodeInvalid))
	assert.Equal(t, "not_found: project 7 not found", NotFound("project", 7).Error())
}
