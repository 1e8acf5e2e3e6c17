// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

// Package rtjwt mints and validates short-lived tokens for devtools
// stream clients (websocket and SSE cannot carry the auth header, so
// they present a token minted over the authenticated REST channel).
// Keys are generated per process and never persisted.
package rtjwt

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const IssuerRiptide = "riptide"

// DefaultTokenLife bounds how stale a minted stream token can be.
const DefaultTokenLife = 5 * time.Minute

var (
	globalLock sync.Mutex
	publicKey  ed25519.PublicKey
	privateKey ed25519.PrivateKey
)

type RtJwtClaims struct {
	jwt.RegisteredClaims
	ClientId string `json:"clientid,omitempty"`
	Scope    string `json:"scope,omitempty"`
}

// InitKeys generates the process key pair. A pair that already exists is
// kept, so late callers do not invalidate tokens minted earlier in the
// process.
func InitKeys() error {
	globalLock.Lock()
	hasKeys := privateKey != nil
	globalLock.Unlock()
	if hasKeys {
		return nil
	}
	return RotateKeys()
}

// RotateKeys replaces the process key pair and invalidates every
// outstanding token.
func RotateKeys() error {
	pubKey, privKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return fmt.Errorf("failed to generate key pair: %w", err)
	}
	globalLock.Lock()
	defer globalLock.Unlock()
	publicKey = pubKey
	privateKey = privKey
	return nil
}

// MakeClientToken mints a stream token bound to a fresh client id.
func MakeClientToken(scope string, validFor time.Duration) (string, string, error) {
	if validFor <= 0 {
		validFor = DefaultTokenLife
	}
	clientId := uuid.New().String()
	claims := &RtJwtClaims{
		ClientId: clientId,
		Scope:    scope,
	}
	claims.IssuedAt = jwt.NewNumericDate(time.Now())
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(validFor))
	claims.Issuer = IssuerRiptide
	token, err := Sign(claims)
	if err != nil {
		return "", "", err
	}
	return token, clientId, nil
}

func Sign(claims *RtJwtClaims) (string, error) {
	globalLock.Lock()
	privKey := privateKey
	globalLock.Unlock()

	if privKey == nil {
		return "", fmt.Errorf("private key not set")
	}
	if claims.IssuedAt == nil {
		claims.IssuedAt = jwt.NewNumericDate(time.Now())
	}
	if claims.Issuer == "" {
		claims.Issuer = IssuerRiptide
	}
	if claims.ExpiresAt == nil {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(DefaultTokenLife))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	tokenStr, err := token.SignedString(privKey)
	if err != nil {
		return "", fmt.Errorf("error signing token: %w", err)
	}
	return tokenStr, nil
}

func ValidateAndExtract(tokenStr string) (*RtJwtClaims, error) {
	globalLock.Lock()
	pubKey := publicKey
	globalLock.Unlock()

	if pubKey == nil {
		return nil, fmt.Errorf("public key not set")
	}

	token, err := jwt.ParseWithClaims(tokenStr, &RtJwtClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return pubKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*RtJwtClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.Issuer != IssuerRiptide {
		return nil, fmt.Errorf("invalid token issuer %q", claims.Issuer)
	}
	return claims, nil
}
