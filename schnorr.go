package frost

import (
	"fmt"
	"io"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
)

// ProofOfPossession proves that a party knows the constant term behind its
// key generation commitment. It is a BIP340 signature by that constant term
// over the key generation id and the party's index, so a proof cannot be
// replayed in another run or by another party.
type ProofOfPossession struct {
	sig *schnorr.Signature
}

// popMessage is the 32-byte digest signed by a proof of possession.
func popMessage(keygenID [32]byte, party ParticipantIndex) [32]byte {
	return taggedHash(tagPoP, keygenID[:], party.bytes())
}

// NewProofOfPossession signs the key generation id with secret. The BIP340
// auxiliary randomness is drawn from rng.
func NewProofOfPossession(rng io.Reader, keygenID [32]byte, party ParticipantIndex, secret *Scalar) (*ProofOfPossession, error) {
	if err := secret.nonZero("proof of possession secret"); err != nil {
		return nil, err
	}
	aux, err := randomBytes(rng, 32)
	if err != nil {
		return nil, err
	}
	var auxData [32]byte
	copy(auxData[:], aux)

	secretBytes := secret.Bytes()
	priv, _ := btcec.PrivKeyFromBytes(secretBytes[:])
	defer priv.Zero()
	zeroBytes(secretBytes[:])

	msg := popMessage(keygenID, party)
	sig, err := schnorr.Sign(priv, msg[:], schnorr.CustomNonce(auxData))
	if err != nil {
		return nil, fmt.Errorf("failed to sign proof of possession: %w", err)
	}
	return &ProofOfPossession{sig: sig}, nil
}

// Verify checks the proof against the committed public key of party.
func (p *ProofOfPossession) Verify(keygenID [32]byte, party ParticipantIndex, publicKey *Point) bool {
	if p == nil || p.sig == nil {
		return false
	}
	pub, err := publicKey.PublicKey()
	if err != nil {
		return false
	}
	msg := popMessage(keygenID, party)
	return p.sig.Verify(msg[:], pub)
}

// Bytes returns the 64-byte BIP340 encoding.
func (p *ProofOfPossession) Bytes() [SignatureSize]byte {
	var out [SignatureSize]byte
	copy(out[:], p.sig.Serialize())
	return out
}

// ProofOfPossessionFromBytes parses a 64-byte proof.
func ProofOfPossessionFromBytes(data []byte) (*ProofOfPossession, error) {
	if len(data) != SignatureSize {
		return nil, ErrTruncatedInput.WithContext("expected", SignatureSize).WithContext("got", len(data))
	}
	sig, err := schnorr.ParseSignature(data)
	if err != nil {
		return nil, ErrInvalidEncoding.WithCause(err)
	}
	return &ProofOfPossession{sig: sig}, nil
}
