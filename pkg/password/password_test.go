package password

import (
	"errors"
	"strings"
	"testing"
)

// fastParams はテストを高速化するための軽量なパラメータ。
var fastParams = Params{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16}

// TestHashAndVerify はハッシュ生成と照合を検証する。
func TestHashAndVerify(t *testing.T) {
	t.Parallel()

	t.Run("正しいパスワードで照合に成功すること", func(t *testing.T) {
		t.Parallel()

		hash, err := HashWithParams("s3cret", fastParams)
		if err != nil {
			t.Fatalf("HashWithParams()でエラーが発生: %v", err)
		}
		ok, err := Verify(hash, "s3cret")
		if err != nil {
			t.Fatalf("Verify()でエラーが発生: %v", err)
		}
		if !ok {
			t.Error("正しいパスワードで照合に失敗した")
		}
	})

	t.Run("誤ったパスワードで照合に失敗すること", func(t *testing.T) {
		t.Parallel()

		hash, err := HashWithParams("s3cret", fastParams)
		if err != nil {
			t.Fatalf("HashWithParams()でエラーが発生: %v", err)
		}
		ok, err := Verify(hash, "wrong")
		if err != nil {
			t.Fatalf("Verify()でエラーが発生: %v", err)
		}
		if ok {
			t.Error("誤ったパスワードで照合に成功した")
		}
	})

	t.Run("ハッシュにパラメータが埋め込まれること", func(t *testing.T) {
		t.Parallel()

		hash, err := HashWithParams("x", fastParams)
		if err != nil {
			t.Fatalf("HashWithParams()でエラーが発生: %v", err)
		}
		if !strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$") {
			t.Errorf("hash = %q, 期待するプレフィックスで始まらない", hash)
		}
	})

	t.Run("同じパスワードでもソルトによりハッシュが異なること", func(t *testing.T) {
		t.Parallel()

		a, _ := HashWithParams("same", fastParams)
		b, _ := HashWithParams("same", fastParams)
		if a == b {
			t.Error("2つのハッシュが一致した")
		}
	})

	t.Run("デフォルトパラメータで生成したハッシュを照合できること", func(t *testing.T) {
		t.Parallel()

		hash, err := Hash("admin")
		if err != nil {
			t.Fatalf("Hash()でエラーが発生: %v", err)
		}
		ok, err := Verify(hash, "admin")
		if err != nil || !ok {
			t.Errorf("Verify() = %v, %v, want true, nil", ok, err)
		}
	})
}

// TestVerify_InvalidHash は不正なハッシュ文字列の扱いを検証する。
func TestVerify_InvalidHash(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		encoded string
	}{
		{name: "空文字列", encoded: ""},
		{name: "区切りが足りない", encoded: "$argon2id$v=19$m=1,t=1,p=1$abc"},
		{name: "アルゴリズムが異なる", encoded: "$bcrypt$v=19$m=1,t=1,p=1$abc$def"},
		{name: "バージョンが異なる", encoded: "$argon2id$v=16$m=1,t=1,p=1$abc$def"},
		{name: "パラメータが壊れている", encoded: "$argon2id$v=19$mem=1$abc$def"},
		{name: "ソルトがbase64でない", encoded: "$argon2id$v=19$m=1,t=1,p=1$!!!$def"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Verify(tt.encoded, "pw")
			if !errors.Is(err, ErrInvalidHash) {
				t.Errorf("err = %v, want ErrInvalidHash", err)
			}
		})
	}
}
