package utils

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const (
	jwtClaimPrincipalID = "principal_id"
	jwtClaimExpires     = "exp"
	jwtClaimIssuedAt    = "iat"
)

var ErrInvalidToken = errors.New("invalid web app token")

// WebAppTokens выпускает и проверяет короткоживущие токены для ссылок на редактор турниров.
type WebAppTokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewWebAppTokens(secret string, ttl time.Duration) *WebAppTokens {
	return &WebAppTokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (t *WebAppTokens) Issue(principalID int64) (string, error) {
	now := t.now()
	claims := jwt.MapClaims{
		jwtClaimPrincipalID: strconv.FormatInt(principalID, 10),
		jwtClaimIssuedAt:    now.Unix(),
		jwtClaimExpires:     now.Add(t.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Parse возвращает идентификатор принципала из действительного токена.
func (t *WebAppTokens) Parse(tokenString string) (int64, error) {
	parser := jwt.Parser{}
	token, err := parser.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil || !token.Valid {
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, ErrInvalidToken
	}
	// exp обязателен: ссылка не должна жить вечно
	if !claims.VerifyExpiresAt(t.now().Unix(), true) {
		return 0, fmt.Errorf("%w: token expired", ErrInvalidToken)
	}

	raw, ok := claims[jwtClaimPrincipalID].(string)
	if !ok {
		return 0, fmt.Errorf("%w: missing '%s' claim", ErrInvalidToken, jwtClaimPrincipalID)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: bad '%s' claim", ErrInvalidToken, jwtClaimPrincipalID)
	}
	return id, nil
}

// WebAppLinker строит подписанные ссылки на страницу редактора.
type WebAppLinker struct {
	BaseURL string
	Tokens  *WebAppTokens
}

// EditorURL - tournamentID == 0 означает создание нового турнира.
func (l WebAppLinker) EditorURL(principalID int64, tournamentID int) (string, error) {
	if l.BaseURL == "" {
		return "", errors.New("web app url is not configured")
	}
	u, err := url.Parse(l.BaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid web app url: %w", err)
	}
	token, err := l.Tokens.Issue(principalID)
	if err != nil {
		return "", fmt.Errorf("failed to sign web app token: %w", err)
	}

	q := u.Query()
	q.Set("token", token)
	if tournamentID != 0 {
		q.Set("edit", strconv.Itoa(tournamentID))
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
