package jwt

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Create creates a server signed JWT
func Create(claims Claims, privatekeyHex string) (string, error) {
	header := Header{
		Type:      "JWT",
		Algorithm: "EdDSA",
	}
	headerStr, err := json.Marshal(header)
	if err != nil {
		return "", err
	}

	payloadStr, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}

	keyBytes, err := hex.DecodeString(privatekeyHex)
	if err != nil {
		return "", err
	}
	if len(keyBytes) != ed25519.SeedSize {
		return "", fmt.Errorf("invalid private key length")
	}
	privatekey := ed25519.NewKeyFromSeed(keyBytes)

	headerB64 := base64.RawURLEncoding.EncodeToString(headerStr)
	payloadB64 := base64.RawURLEncoding.EncodeToString(payloadStr)
	target := headerB64 + "." + payloadB64

	signature := ed25519.Sign(privatekey, []byte(target))
	signatureB64 := base64.RawURLEncoding.EncodeToString(signature)

	return target + "." + signatureB64, nil
}

// Validate checks is jwt signature valid and not expired
func Validate(jwt string, publickeyHex string) (*Header, *Claims, error) {

	split := strings.Split(jwt, ".")
	if len(split) != 3 {
		return nil, nil, fmt.Errorf("invalid jwt format")
	}

	var header Header
	headerBytes, err := base64.RawURLEncoding.DecodeString(split[0])
	if err != nil {
		return nil, nil, err
	}
	err = json.Unmarshal(headerBytes, &header)
	if err != nil {
		return nil, nil, err
	}

	// check jwt type
	if header.Type != "JWT" || header.Algorithm != "EdDSA" {
		return nil, nil, fmt.Errorf("unsupported JWT type")
	}

	payloadBytes, err := base64.RawURLEncoding.DecodeString(split[1])
	if err != nil {
		return nil, nil, err
	}

	var claims Claims
	err = json.Unmarshal(payloadBytes, &claims)
	if err != nil {
		return nil, nil, err
	}

	// check exp
	if claims.ExpirationTime != "" {
		exp, err := strconv.ParseInt(claims.ExpirationTime, 10, 64)
		if err != nil {
			return nil, nil, err
		}
		now := time.Now().Unix()
		if exp < now {
			return nil, nil, fmt.Errorf("jwt is already expired")
		}
	}

	// check signature
	signatureBytes, err := base64.RawURLEncoding.DecodeString(split[2])
	if err != nil {
		return nil, nil, err
	}

	keyBytes, err := hex.DecodeString(publickeyHex)
	if err != nil {
		return nil, nil, err
	}
	if len(keyBytes) != ed25519.PublicKeySize {
		return nil, nil, fmt.Errorf("invalid public key length")
	}

	ok := ed25519.Verify(ed25519.PublicKey(keyBytes), []byte(split[0]+"."+split[1]), signatureBytes)
	if !ok {
		return nil, nil, fmt.Errorf("jwt signature mismatch")
	}

	// all checks passed
	return &header, &claims, nil
}
