package utils

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebAppTokenRoundTrip(t *testing.T) {
	tokens := NewWebAppTokens("secret", time.Hour)

	token, err := tokens.Issue(4242)
	require.NoError(t, err)

	id, err := tokens.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, int64(4242), id)
}

func TestWebAppTokenRejectsWrongSecret(t *testing.T) {
	token, err := NewWebAppTokens("secret", time.Hour).Issue(1)
	require.NoError(t, err)

	_, err = NewWebAppTokens("other", time.Hour).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestWebAppTokenExpires(t *testing.T) {
	tokens := NewWebAppTokens("secret", time.Minute)
	tokens.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := tokens.Issue(1)
	require.NoError(t, err)

	tokens.now = time.Now
	_, err = tokens.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestEditorURL(t *testing.T) {
	linker := WebAppLinker{BaseURL: "https://forms.example.com/editor?lang=en", Tokens: NewWebAppTokens("secret", time.Hour)}

	raw, err := linker.EditorURL(7, 12)
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "en", u.Query().Get("lang"))
	assert.Equal(t, "12", u.Query().Get("edit"))

	id, err := linker.Tokens.Parse(u.Query().Get("token"))
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)

	raw, err = linker.EditorURL(7, 0)
	require.NoError(t, err)
	u, _ = url.Parse(raw)
	assert.False(t, u.Query().Has("edit"))
}

func TestEditorURLRequiresBase(t *testing.T) {
	_, err := WebAppLinker{Tokens: NewWebAppTokens("s", time.Hour)}.EditorURL(1, 0)
	assert.Error(t, err)
}
