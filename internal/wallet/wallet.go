// Package wallet decrypts and holds the signing key used for DEX
// transactions, grounded on the teacher's pkg/util.Decrypt/Encrypt
// (AES-GCM-over-passphrase) pattern referenced from cmd/main.go.
package wallet

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdsa"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/scrypt"
)

// Wallet holds a decrypted private key and its derived address.
type Wallet struct {
	PrivateKey *ecdsa.PrivateKey
	Address    string
}

// FromEncryptedHex decrypts encHex (AES-256-GCM ciphertext, hex-encoded)
// using a key scrypt-derived from passphrase, then parses the plaintext as
// a secp256k1 private key.
func FromEncryptedHex(encHex, passphrase string) (*Wallet, error) {
	data, err := hex.DecodeString(encHex)
	if err != nil {
		return nil, fmt.Errorf("wallet: decode ciphertext: %w", err)
	}
	if len(data) < 16 {
		return nil, fmt.Errorf("wallet: ciphertext too short")
	}
	salt, ciphertext := data[:16], data[16:]

	key, err := scrypt.Key([]byte(passphrase), salt, 1<<15, 8, 1, 32)
	if err != nil {
		return nil, fmt.Errorf("wallet: derive key: %w", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("wallet: new cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("wallet: new gcm: %w", err)
	}
	if len(ciphertext) < gcm.NonceSize() {
		return nil, fmt.Errorf("wallet: ciphertext too short for nonce")
	}
	nonce, sealed := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("wallet: decrypt: %w", err)
	}

	pk, err := crypto.HexToECDSA(string(plaintext))
	if err != nil {
		return nil, fmt.Errorf("wallet: parse private key: %w", err)
	}
	addr := crypto.PubkeyToAddress(pk.PublicKey)
	return &Wallet{PrivateKey: pk, Address: addr.Hex()}, nil
}

// Encrypt is the inverse of FromEncryptedHex's decryption, used by
// operator tooling to produce the ENC_PK environment value.
func Encrypt(privateKeyHex, passphrase string) (string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("wallet: read salt: %w", err)
	}
	key, err := scrypt.Key([]byte(passphrase), salt, 1<<15, 8, 1, 32)
	if err != nil {
		return "", fmt.Errorf("wallet: derive key: %w", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("wallet: new cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("wallet: new gcm: %w", err)
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("wallet: read nonce: %w", err)
	}
	sealed := gcm.Seal(nonce, nonce, []byte(privateKeyHex), nil)
	return hex.EncodeToString(append(salt, sealed...)), nil
}
