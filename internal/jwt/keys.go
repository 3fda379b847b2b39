package jwt

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/crypto/hkdf"

	"github.com/dropDatabas3/socialgrant/internal/util/atomicwrite"
)

// hkdfInfo separa la clave de firma derivada de otros usos de la master key.
const hkdfInfo = "socialgrant/jwt/ed25519/v1"

// KeySet mantiene una sola clave Ed25519 activa.
type KeySet struct {
	Priv ed25519.PrivateKey
	Pub  ed25519.PublicKey
	KID  string
	Alg  string // "EdDSA"
}

// NewKeySetFromSeed construye la clave a partir de un seed de 32 bytes.
// El KID se deriva de la pública, así es estable entre reinicios.
func NewKeySetFromSeed(seed []byte) (*KeySet, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("jwt: seed inválido: %d bytes (requiere %d)", len(seed), ed25519.SeedSize)
	}
	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)
	sum := sha256.Sum256(pub)
	return &KeySet{
		Priv: priv,
		Pub:  pub,
		KID:  base64.RawURLEncoding.EncodeToString(sum[:8]),
		Alg:  "EdDSA",
	}, nil
}

// GenerateKeySet genera una clave nueva en memoria (dev).
func GenerateKeySet() (*KeySet, error) {
	seed, err := newSeed()
	if err != nil {
		return nil, err
	}
	return NewKeySetFromSeed(seed)
}

// ParseSeed decodifica un seed en base64 (std o url, con o sin padding).
func ParseSeed(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding,
	} {
		if b, err := enc.DecodeString(s); err == nil && len(b) == ed25519.SeedSize {
			return b, nil
		}
	}
	return nil, errors.New("jwt: seed debe ser base64 de 32 bytes")
}

// LoadOrCreateKeyFile lee el seed de path; si no existe, genera uno y lo persiste (0600).
func LoadOrCreateKeyFile(path string) (*KeySet, error) {
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		seed, err := ParseSeed(string(b))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return NewKeySetFromSeed(seed)
	case errors.Is(err, os.ErrNotExist):
		seed, err := newSeed()
		if err != nil {
			return nil, err
		}
		enc := base64.StdEncoding.EncodeToString(seed) + "\n"
		if err := atomicwrite.WriteFile(path, []byte(enc), 0o600); err != nil {
			return nil, fmt.Errorf("jwt: persist key: %w", err)
		}
		return NewKeySetFromSeed(seed)
	default:
		return nil, fmt.Errorf("jwt: read key file: %w", err)
	}
}

// DeriveSeed deriva un seed Ed25519 de la master key (HKDF-SHA256).
// Todas las réplicas con la misma master key firman con la misma clave.
func DeriveSeed(master []byte) ([]byte, error) {
	if len(master) == 0 {
		return nil, errors.New("jwt: master key vacía")
	}
	seed := make([]byte, ed25519.SeedSize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, master, nil, []byte(hkdfInfo)), seed); err != nil {
		return nil, fmt.Errorf("jwt: hkdf: %w", err)
	}
	return seed, nil
}

// LoadKeySet resuelve la clave según config: seed > key file > derivada de master > efímera.
func LoadKeySet(seedB64, keyFile string, master []byte) (ks *KeySet, ephemeral bool, err error) {
	switch {
	case seedB64 != "":
		seed, err := ParseSeed(seedB64)
		if err != nil {
			return nil, false, err
		}
		ks, err = NewKeySetFromSeed(seed)
		return ks, false, err
	case keyFile != "":
		ks, err = LoadOrCreateKeyFile(keyFile)
		return ks, false, err
	case len(master) > 0:
		seed, err := DeriveSeed(master)
		if err != nil {
			return nil, false, err
		}
		ks, err = NewKeySetFromSeed(seed)
		return ks, false, err
	default:
		ks, err = GenerateKeySet()
		return ks, true, err
	}
}

func newSeed() ([]byte, error) {
	seed := make([]byte, ed25519.SeedSize)
	if _, err := rand.Read(seed); err != nil {
		return nil, fmt.Errorf("jwt: random: %w", err)
	}
	return seed, nil
}

// ----- JWKS (serialización) -----

type jwk struct {
	Kty string `json:"kty"` // "OKP"
	Crv string `json:"crv"` // "Ed25519"
	Kid string `json:"kid"`
	Alg string `json:"alg"` // "EdDSA"
	Use string `json:"use"` // "sig"
	X   string `json:"x"`   // base64url(pub)
}

type jwks struct {
	Keys []jwk `json:"keys"`
}

// JWKSJSON devuelve el JWKS (solo la pública) en JSON.
func (k *KeySet) JWKSJSON() []byte {
	j := jwks{
		Keys: []jwk{{
			Kty: "OKP",
			Crv: "Ed25519",
			Kid: k.KID,
			Alg: k.Alg,
			Use: "sig",
			X:   base64.RawURLEncoding.EncodeToString(k.Pub),
		}},
	}
	b, _ := json.Marshal(j)
	return b
}
