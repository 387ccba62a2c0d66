package credentials

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastArgon2 = Argon2Params{Time: 1, Memory: 8 * 1024, Threads: 1, SaltLen: 16, KeyLen: 32}

func TestSHA256Hasher_KnownVectors(t *testing.T) {
	h := SHA256Hasher{}

	tests := []struct {
		in   string
		want string
	}{
		{"", "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
		{"abc", "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
		{"password", "5e884898da28047151d0e56f8dc6292773603d0d6aabbdd62a11ef721d1542d8"},
	}
	for _, tt := range tests {
		got, err := h.Hash(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestSHA256Hasher_Deterministic(t *testing.T) {
	h := SHA256Hasher{}
	seen := make(map[string]string)

	for i := 0; i < 500; i++ {
		p := fmt.Sprintf("pass-%d", i)

		a, _ := h.Hash(p)
		b, _ := h.Hash(p)
		require.Equal(t, a, b, "hash must be stable for %q", p)
		require.Len(t, a, 64)
		require.Equal(t, strings.ToLower(a), a)

		if other, dup := seen[a]; dup {
			t.Fatalf("collision between %q and %q", p, other)
		}
		seen[a] = p
	}
}

func TestSHA256Hasher_Verify(t *testing.T) {
	h := SHA256Hasher{}
	stored, _ := h.Hash("Secreto#2024")

	assert.True(t, h.Verify("Secreto#2024", stored))
	assert.False(t, h.Verify("secreto#2024", stored))
	assert.False(t, h.Verify("Secreto#2024", strings.ToUpper(stored)))
	assert.False(t, h.NeedsUpgrade(stored))
}

func TestArgon2idHasher_RoundTrip(t *testing.T) {
	h := NewArgon2idHasher(fastArgon2)

	a, err := h.Hash("Secreto#2024")
	require.NoError(t, err)
	b, err := h.Hash("Secreto#2024")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(a, "$argon2id$v=19$m=8192,t=1,p=1$"))
	assert.NotEqual(t, a, b, "salts must differ")
	assert.True(t, h.Verify("Secreto#2024", a))
	assert.True(t, h.Verify("Secreto#2024", b))
	assert.False(t, h.Verify("otra", a))
	assert.False(t, h.NeedsUpgrade(a))
}

func TestArgon2idHasher_AcceptsLegacyHashes(t *testing.T) {
	h := NewArgon2idHasher(fastArgon2)
	legacy, _ := SHA256Hasher{}.Hash("vieja-clave")

	assert.True(t, h.Verify("vieja-clave", legacy))
	assert.False(t, h.Verify("otra", legacy))
	assert.True(t, h.NeedsUpgrade(legacy))
}

func TestArgon2idHasher_WeakerParamsNeedUpgrade(t *testing.T) {
	weak := NewArgon2idHasher(fastArgon2)
	strong := NewArgon2idHasher(Argon2Params{Time: 2, Memory: 16 * 1024, Threads: 1, SaltLen: 16, KeyLen: 32})

	hash, err := weak.Hash("x")
	require.NoError(t, err)
	assert.True(t, strong.NeedsUpgrade(hash))
	assert.True(t, strong.Verify("x", hash))
}

func TestArgon2idHasher_MalformedHashes(t *testing.T) {
	h := NewArgon2idHasher(fastArgon2)
	for _, bad := range []string{
		"$argon2id$",
		"$argon2id$v=19$m=8192,t=1,p=1$salt",
		"$argon2id$v=18$m=8192,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=8192,t=1,p=0$c2FsdA$a2V5",
		"$argon2id$v=19$m=8192,t=1,p=1$!!!$a2V5",
	} {
		assert.False(t, h.Verify("x", bad), bad)
		assert.True(t, h.NeedsUpgrade(bad), bad)
	}
}

func TestArgon2idHasher_ConcurrentUse(t *testing.T) {
	h := NewArgon2idHasher(fastArgon2)
	stored, err := h.Hash("shared")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.True(t, h.Verify("shared", stored))
		}()
	}
	wg.Wait()
}

func TestNew(t *testing.T) {
	h, err := New(SchemeSHA256)
	require.NoError(t, err)
	assert.IsType(t, SHA256Hasher{}, h)

	h, err = New(SchemeArgon2id)
	require.NoError(t, err)
	assert.IsType(t, &Argon2idHasher{}, h)

	_, err = New("md5")
	require.Error(t, err)
}
