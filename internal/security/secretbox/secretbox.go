// Package secretbox cifra secretos de configuración con AES-256-GCM.
//
// Formato: base64(nonce)|base64(ciphertext). En config.yaml se escribe con prefijo
// "enc:" y la clave maestra viene de SECRETBOX_MASTER_KEY.
package secretbox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	// EnvMasterKey es la variable con la clave maestra (base64, hex o raw de 32 bytes).
	EnvMasterKey = "SECRETBOX_MASTER_KEY"
	// Prefix marca un valor cifrado en config.
	Prefix = "enc:"

	nonceSizeGCM      = 12  // AES-GCM nonce size recomendado (96 bits)
	requiredKeyLength = 32  // 32 bytes => AES-256
	sep               = "|" // nonce|ciphertext (ambos en base64)
)

// ErrNoKey indica que SECRETBOX_MASTER_KEY no está seteada.
var ErrNoKey = fmt.Errorf("%s no seteada; genere una clave con: openssl rand -base64 32", EnvMasterKey)

// Box cifra y descifra con una clave fija. Seguro para uso concurrente.
type Box struct {
	aead cipher.AEAD
}

// New crea un Box con una clave de 32 bytes.
func New(key []byte) (*Box, error) {
	if len(key) != requiredKeyLength {
		return nil, fmt.Errorf("clave inválida: %d bytes (requiere %d)", len(key), requiredKeyLength)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}
	return &Box{aead: aead}, nil
}

// FromEnv crea un Box con la clave de SECRETBOX_MASTER_KEY. ErrNoKey si no está.
func FromEnv() (*Box, error) {
	k, err := KeyFromEnv()
	if err != nil {
		return nil, err
	}
	return New(k)
}

// KeyFromEnv devuelve la master key decodificada. ErrNoKey si no está.
func KeyFromEnv() ([]byte, error) {
	v := strings.TrimSpace(os.Getenv(EnvMasterKey))
	if v == "" {
		return nil, ErrNoKey
	}
	k, err := ParseKey(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", EnvMasterKey, err)
	}
	return k, nil
}

// ParseKey acepta base64 (con o sin padding), hex (64 chars) o 32 bytes crudos.
func ParseKey(key string) ([]byte, error) {
	key = strings.TrimSpace(key)
	if b, err := base64.StdEncoding.DecodeString(key); err == nil && len(b) == requiredKeyLength {
		return b, nil
	}
	if b, err := base64.RawStdEncoding.DecodeString(key); err == nil && len(b) == requiredKeyLength {
		return b, nil
	}
	if len(key) == 64 {
		if h, err := hex.DecodeString(key); err == nil {
			return h, nil
		}
	}
	if len(key) == requiredKeyLength {
		return []byte(key), nil
	}
	return nil, fmt.Errorf("clave inválida: se requieren %d bytes", requiredKeyLength)
}

// GenerateKey devuelve una clave nueva en base64.
func GenerateKey() (string, error) {
	k := make([]byte, requiredKeyLength)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		return "", fmt.Errorf("random: %w", err)
	}
	return base64.StdEncoding.EncodeToString(k), nil
}

// Seal cifra plainText y devuelve base64(nonce)|base64(ciphertext).
func (b *Box) Seal(plainText string) (string, error) {
	nonce := make([]byte, nonceSizeGCM)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("nonce random: %w", err)
	}
	ct := b.aead.Seal(nil, nonce, []byte(plainText), nil)
	return base64.StdEncoding.EncodeToString(nonce) + sep + base64.StdEncoding.EncodeToString(ct), nil
}

// Open descifra base64(nonce)|base64(ciphertext). Acepta el prefijo "enc:".
func (b *Box) Open(cipherText string) (string, error) {
	cipherText = strings.TrimPrefix(strings.TrimSpace(cipherText), Prefix)
	parts := strings.Split(cipherText, sep)
	if len(parts) != 2 {
		return "", errors.New("formato inválido: esperado base64(nonce)|base64(ciphertext)")
	}
	nonce, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return "", fmt.Errorf("decode nonce: %w", err)
	}
	ct, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return "", fmt.Errorf("decode ciphertext: %w", err)
	}
	if len(nonce) != nonceSizeGCM {
		return "", fmt.Errorf("nonce inválido: esperado %d bytes, obtuvo %d", nonceSizeGCM, len(nonce))
	}
	pt, err := b.aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", fmt.Errorf("gcm auth/decrypt: %w", err)
	}
	return string(pt), nil
}

// IsSealed indica si un valor de config está cifrado.
func IsSealed(v string) bool { return strings.HasPrefix(strings.TrimSpace(v), Prefix) }
