package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/socialgrant/internal/config"
)

func fullSocial() config.Social {
	var s config.Social
	s.Google.ClientIDs = []string{"g-client"}
	s.Facebook.AppID = "fb-app"
	s.Facebook.AppSecret = "fb-secret"
	s.LinkedIn.ClientID = "li-client"
	s.LinkedIn.ClientSecret = "li-secret"
	s.LinkedIn.RedirectURI = "https://app.example.com/cb"
	return s
}

func TestBuildValidators_DefaultOrder(t *testing.T) {
	vs, err := BuildValidators(fullSocial(), Deps{})
	require.NoError(t, err)
	assert.Equal(t, []string{"google", "facebook", "linkedin"}, Enabled(vs))
}

func TestBuildValidators_ConfiguredOrder(t *testing.T) {
	s := fullSocial()
	s.Order = []string{"linkedin", "google"}

	vs, err := BuildValidators(s, Deps{})
	require.NoError(t, err)
	assert.Equal(t, []string{"linkedin", "google"}, Enabled(vs))
}

func TestBuildValidators_SkipsIncomplete(t *testing.T) {
	var s config.Social
	s.Google.ClientIDs = []string{""}
	s.Facebook.AppID = "fb-app" // sin secret
	s.LinkedIn.ClientID = "li-client"
	s.LinkedIn.ClientSecret = "li-secret" // sin redirect uri

	vs, err := BuildValidators(s, Deps{})
	require.NoError(t, err)
	assert.Empty(t, vs)
}

func TestBuildValidators_UnknownProvider(t *testing.T) {
	s := fullSocial()
	s.Order = []string{"myspace"}

	_, err := BuildValidators(s, Deps{})
	require.Error(t, err)
}

func TestBuildValidators_Applicability(t *testing.T) {
	vs, err := BuildValidators(fullSocial(), Deps{})
	require.NoError(t, err)
	for _, v := range vs {
		assert.True(t, v.IsApplicable(v.Type()))
		assert.False(t, v.IsApplicable(""))
	}
}
