// Package auth implements the authentication engine: the
// uid connect-parameter block, the Srp and Legacy_Auth plugins, and wire
// crypt installation once a plugin has negotiated a shared session key.
package auth

import (
	"crypto/rand"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"math/big"
)

// The SRP-6 group: the RFC 3526 2048-bit MODP prime with generator 2,
// hashed with SHA-1 throughout as Firebird's Srp plugin does.
const srpPrimeHex = "" +
	"FFFFFFFFFFFFFFFFC90FDAA22168C234C4C6628B80DC1CD129024E088A67CC74" +
	"020BBEA63B139B22514A08798E3404DDEF9519B3CD3A431B302B0A6DF25F1437" +
	"4FE1356D6D51C245E485B576625E7EC6F44C42E9A637ED6B0BFF5CB6F406B7ED" +
	"EE386BFB5A899FA5AE9F24117C4B1FE649286651ECE45B3DC2007CB8A163BF05" +
	"98DA48361C55D39A69163FA8FD24CF5F83655D23DCA3AD961C62F356208552BB" +
	"9ED529077096966D670C354E4ABC9804F1746C08CA18217C32905E462E36CE3B" +
	"E39E772C180E86039B2783A2EC07A28FB5C55DF06F4C52C9DE2BCBF695581718" +
	"3995497CEA956AE515D2261898FA051015728E5A8AACAA68FFFFFFFFFFFFFFFF"

const srpGeneratorValue = 2

var (
	srpPrime     *big.Int
	srpGenerator = big.NewInt(srpGeneratorValue)
	srpK         *big.Int // multiplier k = H(N || g)
)

func init() {
	srpPrime, _ = new(big.Int).SetString(srpPrimeHex, 16)
	srpK = srpHash(srpPrime.Bytes(), padToN(srpGenerator.Bytes()))
}

func padToN(b []byte) []byte {
	if len(b) >= (srpPrime.BitLen()+7)/8 {
		return b
	}
	out := make([]byte, (srpPrime.BitLen()+7)/8)
	copy(out[len(out)-len(b):], b)
	return out
}

func srpHash(parts ...[]byte) *big.Int {
	h := sha1.New()
	for _, p := range parts {
		h.Write(p)
	}
	return new(big.Int).SetBytes(h.Sum(nil))
}

// ClientKeyPair is the ephemeral secret/public pair the client generates
// when starting an Srp negotiation.
type ClientKeyPair struct {
	secret *big.Int // a
	Public *big.Int // A = g^a mod N
}

// NewClientKeyPair generates a fresh ephemeral SRP key pair.
func NewClientKeyPair() (*ClientKeyPair, error) {
	secretBytes := make([]byte, 32)
	if _, err := rand.Read(secretBytes); err != nil {
		return nil, fmt.Errorf("auth: generate srp secret: %w", err)
	}
	a := new(big.Int).SetBytes(secretBytes)
	A := new(big.Int).Exp(srpGenerator, a, srpPrime)
	return &ClientKeyPair{secret: a, Public: A}, nil
}

// PublicHex is the hex-encoded client public key sent as specific_data.
func (k *ClientKeyPair) PublicHex() string {
	return hex.EncodeToString(k.Public.Bytes())
}

// ClientProof is the result of completing the SRP-6 key exchange against a
// server's salt and public key: the client proof to send back, and the
// session key used to derive the Arc4 auth key.
type ClientProof struct {
	Proof      []byte
	SessionKey []byte
}

// CompleteHandshake derives the client proof and shared session key from
// the server salt, server public key, account name, and password, per
// standard SRP-6a key derivation (with SHA-1 as the hash function, as
// Firebird's plugin uses).
func CompleteHandshake(user, password string, salt, serverPublic []byte, client *ClientKeyPair) (*ClientProof, error) {
	B := new(big.Int).SetBytes(serverPublic)
	if B.Sign() == 0 {
		return nil, fmt.Errorf("auth: server public key B is zero")
	}

	u := srpHash(padToN(client.Public.Bytes()), padToN(serverPublic))
	if u.Sign() == 0 {
		return nil, fmt.Errorf("auth: scrambling parameter u is zero")
	}

	x := srpHash(salt, srpHash([]byte(user+":"+password)).Bytes())

	// S = (B - k*g^x)^(a + u*x) mod N
	gx := new(big.Int).Exp(srpGenerator, x, srpPrime)
	kgx := new(big.Int).Mul(srpK, gx)
	kgx.Mod(kgx, srpPrime)

	base := new(big.Int).Sub(B, kgx)
	base.Mod(base, srpPrime)

	exp := new(big.Int).Mul(u, x)
	exp.Add(exp, client.secret)

	S := new(big.Int).Exp(base, exp, srpPrime)

	sessionKey := srpHash(S.Bytes()).Bytes()

	// Client proof M1 = H(H(N) XOR H(g) || H(user) || salt || A || B || K)
	hn := srpHash(srpPrime.Bytes()).Bytes()
	hg := srpHash(srpGenerator.Bytes()).Bytes()
	xored := make([]byte, len(hn))
	for i := range xored {
		xored[i] = hn[i] ^ hg[i%len(hg)]
	}
	hUser := srpHash([]byte(user)).Bytes()

	m1 := srpHash(xored, hUser, salt, client.Public.Bytes(), serverPublic, sessionKey)

	return &ClientProof{
		Proof:      m1.Bytes(),
		SessionKey: sessionKey,
	}, nil
}

// ProofHex is the hex-encoded client proof sent in op_cont_auth.
func (p *ClientProof) ProofHex() string {
	return hex.EncodeToString(p.Proof)
}
