package token

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// testSecret はテスト用のJWTシークレット。
const testSecret = "test-secret-key-for-unit-tests"

// TestIssuer_Issue はIssueメソッドを検証する。
func TestIssuer_Issue(t *testing.T) {
	t.Parallel()

	t.Run("発行したトークンを検証してクレームを取得できること", func(t *testing.T) {
		t.Parallel()

		issuer := NewIssuer(testSecret)
		tokenStr, err := issuer.Issue(42, "admin")
		if err != nil {
			t.Fatalf("Issue()でエラーが発生: %v", err)
		}

		claims, err := issuer.Validate(tokenStr)
		if err != nil {
			t.Fatalf("Validate()でエラーが発生: %v", err)
		}
		if claims.UserID != 42 {
			t.Errorf("UserID = %d, want %d", claims.UserID, 42)
		}
		if claims.Username != "admin" {
			t.Errorf("Username = %q, want %q", claims.Username, "admin")
		}
		if claims.Subject != "42" {
			t.Errorf("Subject = %q, want %q", claims.Subject, "42")
		}
		if claims.Issuer != DefaultIssuer {
			t.Errorf("Issuer = %q, want %q", claims.Issuer, DefaultIssuer)
		}
	})

	t.Run("有効期限がTTL後に設定されること", func(t *testing.T) {
		t.Parallel()

		fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		issuer := NewIssuer(testSecret, WithTTL(time.Hour), WithClock(func() time.Time { return fixed }))
		tokenStr, err := issuer.Issue(1, "u")
		if err != nil {
			t.Fatalf("Issue()でエラーが発生: %v", err)
		}

		exp, err := ExpiresAt(tokenStr)
		if err != nil {
			t.Fatalf("ExpiresAt()でエラーが発生: %v", err)
		}
		if !exp.Equal(fixed.Add(time.Hour)) {
			t.Errorf("ExpiresAt = %v, want %v", exp, fixed.Add(time.Hour))
		}
	})

	t.Run("発行者名を変更できること", func(t *testing.T) {
		t.Parallel()

		issuer := NewIssuer(testSecret, WithIssuerName("custom"))
		tokenStr, err := issuer.Issue(1, "u")
		if err != nil {
			t.Fatalf("Issue()でエラーが発生: %v", err)
		}
		claims, err := issuer.Validate(tokenStr)
		if err != nil {
			t.Fatalf("Validate()でエラーが発生: %v", err)
		}
		if claims.Issuer != "custom" {
			t.Errorf("Issuer = %q, want %q", claims.Issuer, "custom")
		}
	})
}

// TestIssuer_Validate はValidateメソッドの異常系を検証する。
func TestIssuer_Validate(t *testing.T) {
	t.Parallel()

	t.Run("異なるシークレットで署名されたトークンはエラーになること", func(t *testing.T) {
		t.Parallel()

		tokenStr, err := NewIssuer("other-secret").Issue(1, "u")
		if err != nil {
			t.Fatalf("Issue()でエラーが発生: %v", err)
		}
		if _, err := NewIssuer(testSecret).Validate(tokenStr); err == nil {
			t.Fatal("Validate()がエラーを返すべきだが、nilが返った")
		}
	})

	t.Run("期限切れのトークンはエラーになること", func(t *testing.T) {
		t.Parallel()

		past := time.Now().Add(-48 * time.Hour)
		tokenStr, err := NewIssuer(testSecret, WithClock(func() time.Time { return past })).Issue(1, "u")
		if err != nil {
			t.Fatalf("Issue()でエラーが発生: %v", err)
		}
		_, err = NewIssuer(testSecret).Validate(tokenStr)
		if !errors.Is(err, jwt.ErrTokenExpired) {
			t.Errorf("err = %v, want jwt.ErrTokenExpired", err)
		}
	})

	t.Run("HS256以外のアルゴリズムは拒否されること", func(t *testing.T) {
		t.Parallel()

		claims := Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		tokenStr, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
		if err != nil {
			t.Fatalf("トークンの署名に失敗: %v", err)
		}
		if _, err := NewIssuer(testSecret).Validate(tokenStr); err == nil {
			t.Fatal("Validate()がエラーを返すべきだが、nilが返った")
		}
	})

	t.Run("発行者名が異なるトークンはエラーになること", func(t *testing.T) {
		t.Parallel()

		tokenStr, err := NewIssuer(testSecret, WithIssuerName("someone-else")).Issue(1, "u")
		if err != nil {
			t.Fatalf("Issue()でエラーが発生: %v", err)
		}
		if _, err := NewIssuer(testSecret).Validate(tokenStr); !errors.Is(err, jwt.ErrTokenInvalidIssuer) {
			t.Errorf("err = %v, want jwt.ErrTokenInvalidIssuer", err)
		}
	})

	t.Run("不正な文字列はエラーになること", func(t *testing.T) {
		t.Parallel()

		if _, err := NewIssuer(testSecret).Validate("not-a-jwt"); err == nil {
			t.Fatal("Validate()がエラーを返すべきだが、nilが返った")
		}
	})
}

// TestExpiresAt はExpiresAt関数を検証する。
func TestExpiresAt(t *testing.T) {
	t.Parallel()

	t.Run("署名鍵なしで有効期限を読み取れること", func(t *testing.T) {
		t.Parallel()

		want := time.Now().Add(30 * time.Minute).Truncate(time.Second)
		tokenStr, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(want),
		}).SignedString([]byte("unknown-to-client"))
		if err != nil {
			t.Fatalf("トークンの署名に失敗: %v", err)
		}

		got, err := ExpiresAt(tokenStr)
		if err != nil {
			t.Fatalf("ExpiresAt()でエラーが発生: %v", err)
		}
		if !got.Equal(want) {
			t.Errorf("ExpiresAt = %v, want %v", got, want)
		}
	})

	t.Run("期限切れのトークンでもエラーにならないこと", func(t *testing.T) {
		t.Parallel()

		want := time.Now().Add(-time.Hour).Truncate(time.Second)
		tokenStr, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(want),
		}).SignedString([]byte(testSecret))
		if err != nil {
			t.Fatalf("トークンの署名に失敗: %v", err)
		}

		got, err := ExpiresAt(tokenStr)
		if err != nil {
			t.Fatalf("ExpiresAt()でエラーが発生: %v", err)
		}
		if !got.Equal(want) {
			t.Errorf("ExpiresAt = %v, want %v", got, want)
		}
	})

	t.Run("expクレームがない場合はErrNoExpiryが返ること", func(t *testing.T) {
		t.Parallel()

		tokenStr, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Subject: "1",
		}).SignedString([]byte(testSecret))
		if err != nil {
			t.Fatalf("トークンの署名に失敗: %v", err)
		}

		if _, err := ExpiresAt(tokenStr); !errors.Is(err, ErrNoExpiry) {
			t.Errorf("err = %v, want ErrNoExpiry", err)
		}
	})

	t.Run("デコードできない文字列はエラーになること", func(t *testing.T) {
		t.Parallel()

		if _, err := ExpiresAt("garbage"); err == nil {
			t.Fatal("ExpiresAt()がエラーを返すべきだが、nilが返った")
		}
	})
}

// TestNewRefreshToken はNewRefreshToken関数を検証する。
func TestNewRefreshToken(t *testing.T) {
	t.Parallel()

	a, err := NewRefreshToken()
	if err != nil {
		t.Fatalf("NewRefreshToken()でエラーが発生: %v", err)
	}
	b, err := NewRefreshToken()
	if err != nil {
		t.Fatalf("NewRefreshToken()でエラーが発生: %v", err)
	}

	if a == b {
		t.Error("2回生成したリフレッシュトークンが一致した")
	}
	// 32バイトをパディングなしbase64でエンコードすると43文字になる
	if len(a) != 43 {
		t.Errorf("len = %d, want 43", len(a))
	}
	if strings.ContainsAny(a, "+/=") {
		t.Errorf("Cookieに使えない文字が含まれている: %q", a)
	}
}
