package social

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractGrant(t *testing.T) {
	params := map[string]string{
		"grant_type": "social",
		"type":       "google",
		"token":      "eyJhbGciOi.raw.token",
		"scope":      "read",
	}

	req, err := ExtractGrant(params)
	require.NoError(t, err)
	assert.Equal(t, "google", req.ProviderType)
	assert.Equal(t, "eyJhbGciOi.raw.token", req.Token)
	assert.Equal(t, map[string]string{"grant_type": "social", "type": "google", "scope": "read"}, req.Parameters)

	// el bag original no se toca
	assert.Equal(t, "eyJhbGciOi.raw.token", params["token"])
	assert.NotContains(t, req.String(), "eyJhbGciOi")
}

func TestExtractGrant_MissingParameters(t *testing.T) {
	cases := []struct {
		name   string
		params map[string]string
		want   error
	}{
		{"no type", map[string]string{"token": "abc"}, ErrMissingProviderType},
		{"blank type", map[string]string{"type": "  ", "token": "abc"}, ErrMissingProviderType},
		{"both missing reports type first", map[string]string{}, ErrMissingProviderType},
		{"no token", map[string]string{"type": "google"}, ErrMissingCredential},
		{"empty token", map[string]string{"type": "google", "token": ""}, ErrMissingCredential},
		{"blank token", map[string]string{"type": "google", "token": " \t\n"}, ErrMissingCredential},
		{"nil bag", nil, ErrMissingProviderType},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ExtractGrant(tc.params)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)
			assert.True(t, IsRequestError(err))
		})
	}
}

func TestExtractGrant_TypeNotNormalized(t *testing.T) {
	req, err := ExtractGrant(map[string]string{"type": "Google", "token": "t"})
	require.NoError(t, err)
	assert.Equal(t, "Google", req.ProviderType)
}

func TestExtractGrant_PaddedValuesKeptAsIs(t *testing.T) {
	req, err := ExtractGrant(map[string]string{"type": " google", "token": " tok "})
	require.NoError(t, err)
	assert.Equal(t, " google", req.ProviderType)
	assert.Equal(t, " tok ", req.Token)
}

func TestSanitize(t *testing.T) {
	out := Sanitize(map[string]string{"token": "secret", "type": "facebook"})
	assert.Equal(t, map[string]string{"type": "facebook"}, out)
	assert.NotNil(t, Sanitize(nil))
}
