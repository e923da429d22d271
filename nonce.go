package frost

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/hkdf"
)

// PublicNonce is a signer's binonce commitment (k1·G, k2·G).
type PublicNonce struct {
	R1 *Point
	R2 *Point
}

// Equal compares two binonces.
func (n *PublicNonce) Equal(other *PublicNonce) bool {
	return n.R1.Equal(other.R1) && n.R2.Equal(other.R2)
}

// Validate rejects binonces containing the identity.
func (n *PublicNonce) Validate() error {
	if n == nil || n.R1.IsIdentity() || n.R2.IsIdentity() {
		return ErrUnexpectedZero.WithContext("value", "nonce commitment")
	}
	return nil
}

// SecretNonce is the secret half of a binonce. It signs exactly once.
type SecretNonce struct {
	mu        sync.Mutex
	k1, k2    *Scalar
	public    PublicNonce
	sessionID []byte
	consumed  bool
}

// Public returns the commitment to the nonce.
func (n *SecretNonce) Public() *PublicNonce {
	return &n.public
}

// SessionID returns the session the nonce was derived for.
func (n *SecretNonce) SessionID() []byte {
	return append([]byte(nil), n.sessionID...)
}

// consume hands out the secret scalars once and marks the nonce used.
func (n *SecretNonce) consume() (*Scalar, *Scalar, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.consumed {
		return nil, nil, ErrNonceReuse.WithDetails("secret nonce already used")
	}
	n.consumed = true
	k1, k2 := n.k1, n.k2
	n.k1, n.k2 = nil, nil
	return k1, k2, nil
}

// Zeroize clears the secret scalars and marks the nonce used.
func (n *SecretNonce) Zeroize() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.k1.Zeroize()
	n.k2.Zeroize()
	n.k1, n.k2 = nil, nil
	n.consumed = true
}

// SessionID builds the nonce derivation context from the joint key, a
// caller-chosen label and a counter.
func SessionID(jointKey *JointKey, label string, counter uint64) []byte {
	xonly := jointKey.XOnly()
	id := make([]byte, 0, XOnlySize+len(label)+8)
	id = append(id, xonly[:]...)
	id = append(id, label...)
	return binary.BigEndian.AppendUint64(id, counter)
}

// GenerateNonce derives a binonce for sessionID from the signer's secret
// share and fresh randomness from rng. The secret share binds the nonce to
// the signer; the randomness keeps it unique even when a session id is
// repeated after a restart.
func GenerateNonce(rng io.Reader, secretShare *Scalar, sessionID []byte) (*SecretNonce, error) {
	if err := secretShare.nonZero("secret share"); err != nil {
		return nil, err
	}
	var nonce *SecretNonce
	err := retryDegenerate(func() error {
		salt, err := randomBytes(rng, 32)
		if err != nil {
			return err
		}
		ikm := secretShare.Bytes()
		defer zeroBytes(ikm[:])
		info := append(append([]byte(nil), tagNonce...), sessionID...)
		kdf := hkdf.New(sha256.New, ikm[:], salt, info)

		k1, err := scalarFromKDF(kdf)
		if err != nil {
			return err
		}
		k2, err := scalarFromKDF(kdf)
		if err != nil {
			k1.Zeroize()
			return err
		}
		nonce = &SecretNonce{
			k1: k1,
			k2: k2,
			public: PublicNonce{
				R1: ScalarBaseMult(k1),
				R2: ScalarBaseMult(k2),
			},
			sessionID: append([]byte(nil), sessionID...),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return nonce, nil
}

// scalarFromKDF reads 32-byte blocks from kdf until one is a valid non-zero
// scalar.
func scalarFromKDF(kdf io.Reader) (*Scalar, error) {
	var buf [ScalarSize]byte
	defer zeroBytes(buf[:])
	// hkdf-sha256 yields at most 255*32 bytes, far more than ever needed.
	for i := 0; i < maxScalarAttempts; i++ {
		if _, err := io.ReadFull(kdf, buf[:]); err != nil {
			return nil, fmt.Errorf("nonce derivation: %w", err)
		}
		s := new(Scalar)
		if overflow := s.inner.SetByteSlice(buf[:]); overflow {
			continue
		}
		if s.IsZero() {
			return nil, ErrDegenerateValue.WithContext("value", "nonce")
		}
		return s, nil
	}
	return nil, ErrDegenerateValue.WithContext("value", "nonce")
}

// NonceIssuer issues at most one nonce per session id for one signer. It is
// the only operation of a signer that needs mutual exclusion: concurrent
// sessions each get their own id.
type NonceIssuer struct {
	mu          sync.Mutex
	secretShare *Scalar
	rng         io.Reader
	logger      logrus.FieldLogger
	issued      map[string]struct{}
	pending     map[string]*SecretNonce
}

// NewNonceIssuer returns an issuer for the signer holding secretShare.
func NewNonceIssuer(secretShare *Scalar, rng io.Reader, logger logrus.FieldLogger) *NonceIssuer {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &NonceIssuer{
		secretShare: secretShare,
		rng:         rng,
		logger:      logger,
		issued:      make(map[string]struct{}),
		pending:     make(map[string]*SecretNonce),
	}
}

// Issue derives the nonce for sessionID and returns its public half. A
// session id is never issued twice, even after the nonce was discarded.
func (ni *NonceIssuer) Issue(sessionID []byte) (*PublicNonce, error) {
	key := hex.EncodeToString(sessionID)

	ni.mu.Lock()
	defer ni.mu.Unlock()

	if _, ok := ni.issued[key]; ok {
		nonceReuseRejected.Inc()
		ni.logger.WithField("session", key).Warn("refusing to issue a nonce twice")
		return nil, ErrNonceReuse.WithContext("session", key)
	}

	nonce, err := GenerateNonce(ni.rng, ni.secretShare, sessionID)
	if err != nil {
		return nil, err
	}
	ni.issued[key] = struct{}{}
	ni.pending[key] = nonce
	noncesIssued.Inc()
	noncesOutstanding.Inc()
	return nonce.Public(), nil
}

// Take removes and returns the secret nonce of sessionID. It succeeds once
// per issued session.
func (ni *NonceIssuer) Take(sessionID []byte) (*SecretNonce, error) {
	key := hex.EncodeToString(sessionID)

	ni.mu.Lock()
	defer ni.mu.Unlock()

	nonce, ok := ni.pending[key]
	if !ok {
		return nil, ErrNonceReuse.WithContext("session", key).WithDetails("no outstanding nonce")
	}
	delete(ni.pending, key)
	noncesOutstanding.Dec()
	return nonce, nil
}

// Discard destroys the outstanding nonce of an aborted session. The session
// id stays burned.
func (ni *NonceIssuer) Discard(sessionID []byte) {
	key := hex.EncodeToString(sessionID)

	ni.mu.Lock()
	defer ni.mu.Unlock()

	if nonce, ok := ni.pending[key]; ok {
		nonce.Zeroize()
		delete(ni.pending, key)
		noncesOutstanding.Dec()
	}
}

// Outstanding returns the number of issued nonces not yet taken.
func (ni *NonceIssuer) Outstanding() int {
	ni.mu.Lock()
	defer ni.mu.Unlock()
	return len(ni.pending)
}
