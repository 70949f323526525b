package main

import (
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"chexy-balloons/shared/protocol"
)

const tokenExpiry = 5 * time.Minute

var (
	ErrProtocolMismatch = errors.New("protocol id mismatch")
	ErrBadClientID      = errors.New("invalid client id")
	ErrMissingToken     = errors.New("missing connect token")
)

// ConnectClaims is the payload of a connect token.
type ConnectClaims struct {
	ClientID   uint64 `json:"cid"`
	ProtocolID uint64 `json:"pid"`
	jwt.RegisteredClaims
}

// Auth admits connections and guards admin endpoints. In unsecure mode a
// client names its own id; in secure mode it must present a token issued
// by this server.
type Auth struct {
	secret    []byte
	adminHash []byte
	secure    bool
	now       func() time.Time
}

// NewAuth creates an Auth. An empty secret is replaced by a random one,
// which invalidates tokens across restarts.
func NewAuth(secret, adminHash string, secure bool) *Auth {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			panic("failed to generate token secret: " + err.Error())
		}
	}
	return &Auth{secret: key, adminHash: []byte(adminHash), secure: secure, now: time.Now}
}

// IssueToken signs a connect token for clientID.
func (a *Auth) IssueToken(clientID protocol.ClientID) (string, error) {
	now := a.now()
	claims := ConnectClaims{
		ClientID:   clientID,
		ProtocolID: protocol.ProtocolID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenExpiry)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// ValidateToken checks a connect token and returns the client id it grants.
func (a *Auth) ValidateToken(tokenStr string) (protocol.ClientID, error) {
	claims := &ConnectClaims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(a.now))
	if err != nil {
		return 0, fmt.Errorf("connect token: %w", err)
	}
	if claims.ProtocolID != protocol.ProtocolID {
		return 0, ErrProtocolMismatch
	}
	return claims.ClientID, nil
}

// Authenticate resolves the client id of a websocket request.
func (a *Auth) Authenticate(r *http.Request) (protocol.ClientID, error) {
	q := r.URL.Query()
	if a.secure {
		tok := q.Get("token")
		if tok == "" {
			return 0, ErrMissingToken
		}
		return a.ValidateToken(tok)
	}

	if p := q.Get("protocol"); p != "" {
		pid, err := strconv.ParseUint(p, 10, 64)
		if err != nil || pid != protocol.ProtocolID {
			return 0, ErrProtocolMismatch
		}
	}
	if s := q.Get("client_id"); s != "" {
		id, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return 0, ErrBadClientID
		}
		return id, nil
	}
	return a.NewClientID(), nil
}

// NewClientID derives an id from the current time in milliseconds.
func (a *Auth) NewClientID() protocol.ClientID {
	return uint64(a.now().UnixMilli())
}

// AdminEnabled reports whether an admin password is configured.
func (a *Auth) AdminEnabled() bool {
	return len(a.adminHash) > 0
}

// CheckAdmin validates HTTP basic auth against the admin password hash.
func (a *Auth) CheckAdmin(r *http.Request) bool {
	if !a.AdminEnabled() {
		return false
	}
	_, password, ok := r.BasicAuth()
	if !ok {
		return false
	}
	return bcrypt.CompareHashAndPassword(a.adminHash, []byte(password)) == nil
}
