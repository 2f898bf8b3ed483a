package response

import (
	"errors"
	"net/http"
	"testing"

	"surveillance/pkg/apperror"

	"github.com/stretchr/testify/assert"
)

func TestFromErrorCarriesKind(t *testing.T) {
	resp := FromError(apperror.Conflict("clinical report already exists"))

	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "conflict", resp.Kind)
	assert.Equal(t, "clinical report already exists", resp.Error)
}

func TestFromErrorUnknown(t *testing.T) {
	resp := FromError(errors.New("boom"))

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "internal_error", resp.Kind)
	assert.Equal(t, "internal server error", resp.Error)
}

func TestSuccess(t *testing.T) {
	resp := Success(http.StatusCreated, map[string]string{"id": "1"})

	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Empty(t, resp.Kind)
}
