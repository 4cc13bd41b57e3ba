// Location Tracker - Per-user location databases on Cloudant/CouchDB
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/locationtracker

// Package credential encrypts the per-user API password at rest.
//
// The cipher is AES-256-CTR. Key and IV are expanded from the user's login
// password with OpenSSL's EVP_BytesToKey (MD5, no salt, one round), the same
// expansion Node's crypto.createCipher performs, so records written by
// earlier deployments stay readable. Ciphertext is lowercase hex.
//
// CTR mode has no authentication: decrypting with the wrong password
// succeeds and returns unrelated bytes. Whether the password was right is
// only known once the store accepts or rejects the decrypted credential.
package credential

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5" //nolint:gosec // EVP_BytesToKey is defined over MD5
	"encoding/hex"
	"errors"
	"fmt"
)

const (
	keySize = 32
	ivSize  = aes.BlockSize
)

// ErrInvalidCiphertext is returned when the stored value is not hex.
var ErrInvalidCiphertext = errors.New("credential: ciphertext is not valid hex")

// Encrypt returns the hex ciphertext of secret under password.
func Encrypt(secret, password string) (string, error) {
	out, err := xor([]byte(secret), password)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(out), nil
}

// Decrypt reverses Encrypt. A wrong password is not an error.
func Decrypt(ciphertext, password string) (string, error) {
	raw, err := hex.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCiphertext, err)
	}
	out, err := xor(raw, password)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// xor runs the CTR keystream over in. Encryption and decryption are the
// same operation.
func xor(in []byte, password string) ([]byte, error) {
	key, iv := bytesToKey([]byte(password))
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("credential: create cipher: %w", err)
	}
	out := make([]byte, len(in))
	cipher.NewCTR(block, iv).XORKeyStream(out, in)
	return out, nil
}

// bytesToKey implements EVP_BytesToKey with MD5, no salt and a single
// iteration: D_i = MD5(D_{i-1} || password), concatenated until key and IV
// are filled.
func bytesToKey(password []byte) (key, iv []byte) {
	material := make([]byte, 0, keySize+ivSize+md5.Size)
	var prev []byte
	for len(material) < keySize+ivSize {
		h := md5.New() //nolint:gosec // see import
		h.Write(prev)
		h.Write(password)
		prev = h.Sum(nil)
		material = append(material, prev...)
	}
	return material[:keySize], material[keySize : keySize+ivSize]
}
