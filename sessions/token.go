package sessions

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// tokenTTL is how long a gateway token stays redeemable after the
// start call hands it out.
const tokenTTL = 30 * time.Second

// TokenIssuer mints and checks the short lived gateway tokens that
// bind a websocket connection to the address it was started for. The
// subject claim carries the address, empty for guest sessions; the
// token id is what the hub consumes to make each token single use.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer returns an issuer signing with secret. Tokens expire
// after ttl.
func NewTokenIssuer(secret []byte, ttl time.Duration, now func() time.Time) *TokenIssuer {
	return &TokenIssuer{secret: secret, ttl: ttl, now: now}
}

// Issue signs a token for address and returns it with its id and
// expiry. An empty address issues a guest token.
func (ti *TokenIssuer) Issue(address string) (token, id string, expires time.Time, err error) {
	id = uuid.NewString()
	expires = ti.now().Add(ti.ttl)
	claims := jwt.RegisteredClaims{
		ID:        id,
		Subject:   address,
		IssuedAt:  jwt.NewNumericDate(ti.now()),
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ti.secret)
	return token, id, expires, err
}

// Verify parses a token and returns its claims. Tampered, expired and
// foreign tokens all fail here; single use is enforced by the hub on
// the token id.
func (ti *TokenIssuer) Verify(token string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return ti.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithTimeFunc(ti.now))
	if err != nil {
		return nil, err
	}
	return claims, nil
}
