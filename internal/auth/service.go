package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AnyBoard in a token's board claim grants access to every board.
const AnyBoard = "*"

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrWrongBoard   = errors.New("token not valid for this board")
)

// Claims identify who holds a board token and which board it opens.
type Claims struct {
	Board string `json:"board"`
	jwt.RegisteredClaims
}

// Service issues and checks HS256 board-access tokens. A Service with an
// empty secret is disabled: every board is open and Enabled reports false.
type Service struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewService(secret string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Service{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (s *Service) Enabled() bool {
	return s != nil && len(s.secret) > 0
}

// IssueToken signs a token for name that opens boardID (or AnyBoard).
func (s *Service) IssueToken(boardID, name string) (string, error) {
	if !s.Enabled() {
		return "", errors.New("token signing disabled: no secret configured")
	}
	if boardID == "" {
		return "", errors.New("board id is required")
	}
	now := s.now()
	claims := Claims{
		Board: boardID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   name,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses tokenString and checks that it opens boardID.
func (s *Service) ValidateToken(tokenString, boardID string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Board != AnyBoard && claims.Board != boardID {
		return nil, ErrWrongBoard
	}
	return claims, nil
}
