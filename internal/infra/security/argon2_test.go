package security

import (
	"strings"
	"testing"
)

func fastArgon2Config() Argon2Config {
	return Argon2Config{
		Memory:      8 * 1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  8,
		KeyLength:   16,
	}
}

func TestNewPasswordHasherValidatesConfig(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Argon2Config)
	}{
		{"low memory", func(c *Argon2Config) { c.Memory = 1024 }},
		{"zero iterations", func(c *Argon2Config) { c.Iterations = 0 }},
		{"zero parallelism", func(c *Argon2Config) { c.Parallelism = 0 }},
		{"short salt", func(c *Argon2Config) { c.SaltLength = 4 }},
		{"short key", func(c *Argon2Config) { c.KeyLength = 8 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := fastArgon2Config()
			tc.mutate(&cfg)
			if _, err := NewPasswordHasher(cfg); err == nil {
				t.Fatal("expected config validation error")
			}
		})
	}
}

func TestHashAndVerify(t *testing.T) {
	hasher, err := NewPasswordHasher(fastArgon2Config())
	if err != nil {
		t.Fatalf("NewPasswordHasher: %v", err)
	}

	encoded, err := hasher.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if !strings.HasPrefix(encoded, "argon2id$v=19$") {
		t.Fatalf("unexpected hash format: %q", encoded)
	}

	if !hasher.Verify("correct horse battery staple", encoded) {
		t.Fatal("correct password should verify")
	}
	if hasher.Verify("wrong password", encoded) {
		t.Fatal("wrong password should not verify")
	}
}

func TestHashProducesUniqueSalts(t *testing.T) {
	hasher, _ := NewPasswordHasher(fastArgon2Config())

	first, err := hasher.Hash("same password")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	second, err := hasher.Hash("same password")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if first == second {
		t.Fatal("two hashes of the same password must differ")
	}
}

func TestVerifyCrossConfig(t *testing.T) {
	// Parameters are embedded in the encoded hash, so a hasher with different
	// defaults still verifies hashes produced under another config.
	strict, _ := NewPasswordHasher(DefaultArgon2Config())
	fast, _ := NewPasswordHasher(fastArgon2Config())

	encoded, err := fast.Hash("portable")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if !strict.Verify("portable", encoded) {
		t.Fatal("hash should verify under a hasher with different defaults")
	}
}

func TestVerifyRejectsMalformedHashes(t *testing.T) {
	hasher, _ := NewPasswordHasher(fastArgon2Config())

	malformed := []string{
		"",
		"plain-text",
		"argon2id$v=19$m=8192,t=1,p=1$notbase64!!$notbase64!!",
		"bcrypt$v=19$m=8192,t=1,p=1$c2FsdHNhbHQ$aGFzaGhhc2hoYXNoaGFzaA",
		"argon2id$v=18$m=8192,t=1,p=1$c2FsdHNhbHQ$aGFzaGhhc2hoYXNoaGFzaA",
		"argon2id$v=19$m=8192,t=1$c2FsdHNhbHQ$aGFzaGhhc2hoYXNoaGFzaA",
	}
	for _, encoded := range malformed {
		if hasher.Verify("anything", encoded) {
			t.Fatalf("malformed hash verified: %q", encoded)
		}
	}
}

func TestVerifyEmptyInputs(t *testing.T) {
	hasher, _ := NewPasswordHasher(fastArgon2Config())

	encoded, _ := hasher.Hash("pw")
	if hasher.Verify("", encoded) {
		t.Fatal("empty password should not verify")
	}
	if hasher.Verify("pw", "") {
		t.Fatal("empty stored hash should not verify")
	}
}
