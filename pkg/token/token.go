// Package token はセッショントークン（HS256署名のJWT）の発行・検証・有効期限の読み取りを行う。
//
// サーバー側は Issuer でトークンを発行・検証し、クライアント側は署名を検証せずに
// ExpiresAt で有効期限だけを読み取ってリフレッシュの要否を判断する。
package token

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultIssuer はトークンの発行者名のデフォルト値。
const DefaultIssuer = "bookstore-catalog"

// DefaultTTL はアクセストークンの有効期間のデフォルト値。
const DefaultTTL = 24 * time.Hour

// ErrNoExpiry はトークンにexpクレームが含まれていない場合に返される。
var ErrNoExpiry = errors.New("トークンに有効期限が含まれていません")

// Claims はセッショントークンのクレーム。
type Claims struct {
	jwt.RegisteredClaims
	// UserID は認証済みユーザーの一意識別子。
	UserID uint `json:"user_id"`
	// Username はユーザー名。
	Username string `json:"username"`
}

// Issuer はセッショントークンを発行・検証する。
type Issuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// IssuerOption はIssuerの設定を変更するオプション。
type IssuerOption func(*Issuer)

// WithIssuerName は発行者名（issクレーム）を設定する。
func WithIssuerName(name string) IssuerOption {
	return func(i *Issuer) { i.issuer = name }
}

// WithTTL はトークンの有効期間を設定する。
func WithTTL(ttl time.Duration) IssuerOption {
	return func(i *Issuer) { i.ttl = ttl }
}

// WithClock は現在時刻の取得関数を差し替える。
func WithClock(now func() time.Time) IssuerOption {
	return func(i *Issuer) { i.now = now }
}

// NewIssuer は署名鍵secretを使うIssuerを生成する。
func NewIssuer(secret string, opts ...IssuerOption) *Issuer {
	i := &Issuer{
		secret: []byte(secret),
		issuer: DefaultIssuer,
		ttl:    DefaultTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Issue はユーザー情報からセッショントークンを生成する。
func (i *Issuer) Issue(userID uint, username string) (string, error) {
	now := i.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", userID),
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
		UserID:   userID,
		Username: username,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("JWTトークンの署名に失敗: %w", err)
	}
	return signed, nil
}

// Validate はトークンの署名と有効期限を検証し、クレームを返す。
func (i *Issuer) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithIssuer(i.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("トークンの検証に失敗: %w", err)
	}
	if !parsed.Valid {
		return nil, errors.New("トークンが無効です")
	}
	return claims, nil
}

// ExpiresAt は署名を検証せずにトークンの有効期限を読み取る。
// クライアントは署名鍵を持たないため、リフレッシュ要否の判断にのみ使用する。
func ExpiresAt(tokenString string) (time.Time, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return time.Time{}, fmt.Errorf("トークンのデコードに失敗: %w", err)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("有効期限の取得に失敗: %w", err)
	}
	if exp == nil {
		return time.Time{}, ErrNoExpiry
	}
	return exp.Time, nil
}

// NewRefreshToken はリフレッシュトークン用のランダム文字列を生成する。
func NewRefreshToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("リフレッシュトークンの生成に失敗: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
