package middlewares

import (
	"testing"

	apihttp "github.com/microscopium/microscopium/pkg/api/http"
	"github.com/stretchr/testify/assert"
)

func TestIsAuthorized_ValidToken(t *testing.T) {
	// Set package-level authTokens for testing
	authTokens = "token1,token2,token3"

	assert.True(t, isAuthorized("token1"))
	assert.True(t, isAuthorized("token2"))
	assert.True(t, isAuthorized("token3"))
}

func TestIsAuthorized_InvalidToken(t *testing.T) {
	authTokens = "token1,token2"

	assert.False(t, isAuthorized("bad_token"))
	assert.False(t, isAuthorized(""))
}

func TestIsAuthorized_SingleToken(t *testing.T) {
	authTokens = "single_token"

	assert.True(t, isAuthorized("single_token"))
	assert.False(t, isAuthorized("other"))
}

func TestConstants(t *testing.T) {
	assert.Equal(t, "MICROSCOPIUM-AUTH-TOKEN", apihttp.HeaderAuthToken)
	assert.Equal(t, "MICROSCOPIUM-SCREEN", apihttp.HeaderScreenContext)
}
