package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasCode(t *testing.T) {
	base := errors.New("dial tcp: connection refused")
	err := Wrap(base, CodeNetworkOrServer, "backend unreachable")

	assert.True(t, HasCode(err, CodeNetworkOrServer))
	assert.False(t, HasCode(err, CodeUnauthenticated))
	assert.ErrorIs(t, err, base)
	assert.ErrorIs(t, err, New(CodeNetworkOrServer, "any message"))
}

func TestHasCode_NestedDomainErrors(t *testing.T) {
	inner := New(CodeMalformedCredential, "credential has no subject")
	outer := Wrap(inner, CodeInternal, "load session")

	assert.True(t, HasCode(outer, CodeInternal))
	assert.True(t, HasCode(outer, CodeMalformedCredential))
	assert.Equal(t, CodeInternal, CodeOf(outer))
}

func TestHasCode_FmtWrapped(t *testing.T) {
	err := fmt.Errorf("verify: %w", New(CodeInvalidChallengeResponse, "wrong code"))
	assert.True(t, HasCode(err, CodeInvalidChallengeResponse))
	assert.Equal(t, "wrong code", MessageOf(err))
}

func TestCodeOf_Unclassified(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
	assert.Equal(t, "boom", MessageOf(errors.New("boom")))
	assert.False(t, HasCode(nil, CodeInternal))
}

func TestToHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, ToHTTPStatus(CodeUnauthenticated))
	assert.Equal(t, http.StatusUnauthorized, ToHTTPStatus(CodeInvalidCredentials))
	assert.Equal(t, http.StatusUnprocessableEntity, ToHTTPStatus(CodeIdentityMismatch))
	assert.Equal(t, http.StatusConflict, ToHTTPStatus(CodeInvalidState))
	assert.Equal(t, http.StatusBadGateway, ToHTTPStatus(CodeNetworkOrServer))
	assert.Equal(t, http.StatusInternalServerError, ToHTTPStatus(Code("unknown")))
}
