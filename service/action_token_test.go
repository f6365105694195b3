package service

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Xushengqwer/community_service/config"
	"github.com/Xushengqwer/community_service/models/enums"
	"github.com/Xushengqwer/community_service/myErrors"
)

func TestNewActionTokenSigner(t *testing.T) {
	_, err := NewActionTokenSigner(config.ActionTokenConfig{Secret: "  "})
	assert.Error(t, err)

	s, err := NewActionTokenSigner(config.ActionTokenConfig{Secret: "s"})
	require.NoError(t, err)
	assert.Equal(t, defaultActionTokenTTL, s.ttl)
	assert.Equal(t, defaultActionTokenIssuer, s.issuer)

	s, err = NewActionTokenSigner(config.ActionTokenConfig{Secret: "s", TTLMinutes: 5, Issuer: "custom"})
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, s.ttl)
	assert.Equal(t, "custom", s.issuer)
}

func TestActionToken_RoundTrip(t *testing.T) {
	s, err := NewActionTokenSigner(config.ActionTokenConfig{Secret: "secret"})
	require.NoError(t, err)

	a, err := s.Issue(enums.ActionBanPost, "some-post-20240501120000")
	require.NoError(t, err)
	b, err := s.Issue(enums.ActionBanPost, "some-post-20240501120000")
	require.NoError(t, err)
	assert.NotEqual(t, a, b, "每个令牌的 jti 不同")

	claims, err := s.Verify(a)
	require.NoError(t, err)
	assert.Equal(t, enums.ActionBanPost, claims.Action)
	assert.Equal(t, "some-post-20240501120000", claims.Target)
	assert.NotEmpty(t, claims.ID)
}

func TestActionToken_Rejections(t *testing.T) {
	s, err := NewActionTokenSigner(config.ActionTokenConfig{Secret: "secret", TTLMinutes: 10})
	require.NoError(t, err)
	token, err := s.Issue(enums.ActionUnbanPost, "p")
	require.NoError(t, err)

	other, err := NewActionTokenSigner(config.ActionTokenConfig{Secret: "other"})
	require.NoError(t, err)
	_, err = other.Verify(token)
	assert.ErrorIs(t, err, myErrors.ErrInvalidActionToken)

	wrongIssuer, err := NewActionTokenSigner(config.ActionTokenConfig{Secret: "secret", Issuer: "someone-else"})
	require.NoError(t, err)
	_, err = wrongIssuer.Verify(token)
	assert.ErrorIs(t, err, myErrors.ErrInvalidActionToken)

	s.now = func() time.Time { return time.Now().Add(11 * time.Minute) }
	_, err = s.Verify(token)
	assert.ErrorIs(t, err, myErrors.ErrInvalidActionToken)

	s.now = time.Now
	bogus, err := s.Issue(enums.ModerationAction("drop_tables"), "p")
	require.NoError(t, err)
	_, err = s.Verify(bogus)
	assert.ErrorIs(t, err, myErrors.ErrInvalidActionToken)
}

func TestActionURL(t *testing.T) {
	raw := ActionURL("https://example.com/", "a.b+c")
	assert.True(t, strings.HasPrefix(raw, "https://example.com/api/v1/community/moderation/actions?token="))
	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "a.b+c", u.Query().Get("token"))
}
