package frost

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"io"
)

// Encodable values have exactly one canonical byte form. Two parties holding
// the same logical value always produce identical bytes.
type Encodable interface {
	ConsensusEncode(w io.Writer) (int, error)
}

// Decodable values parse their canonical byte form, rejecting anything else.
type Decodable interface {
	ConsensusDecode(r io.Reader) error
}

// EncodeToBytes returns the canonical encoding of v.
func EncodeToBytes(v Encodable) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := v.ConsensusEncode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeFromBytes decodes v from data, which must hold exactly one
// encoding.
func DecodeFromBytes(data []byte, v Decodable) error {
	r := bytes.NewReader(data)
	if err := v.ConsensusDecode(r); err != nil {
		return err
	}
	if r.Len() != 0 {
		return ErrTruncatedInput.WithDetails("%d trailing bytes", r.Len())
	}
	return nil
}

// EncodeToHex returns the hex form of the canonical encoding, used to embed
// values in configuration files.
func EncodeToHex(v Encodable) (string, error) {
	b, err := EncodeToBytes(v)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// DecodeFromHex is the inverse of EncodeToHex.
func DecodeFromHex(s string, v Decodable) error {
	b, err := hex.DecodeString(s)
	if err != nil {
		return ErrInvalidEncoding.WithCause(err)
	}
	return DecodeFromBytes(b, v)
}

// readExact reads len(buf) bytes, mapping a short read to ErrTruncatedInput.
func readExact(r io.Reader, buf []byte) error {
	if _, err := io.ReadFull(r, buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return ErrTruncatedInput.WithContext("expected", len(buf))
		}
		return err
	}
	return nil
}

func readUint32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if err := readExact(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

func writeAll(w io.Writer, chunks ...[]byte) (int, error) {
	total := 0
	for _, c := range chunks {
		n, err := w.Write(c)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func uint32Bytes(v uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return b[:]
}

func decodeScalar(r io.Reader, nonZero bool, what string) (*Scalar, error) {
	var buf [ScalarSize]byte
	if err := readExact(r, buf[:]); err != nil {
		return nil, err
	}
	s, err := ScalarFromBytes(buf[:])
	zeroBytes(buf[:])
	if err != nil {
		return nil, err
	}
	if nonZero && s.IsZero() {
		return nil, ErrUnexpectedZero.WithContext("value", what)
	}
	return s, nil
}

func decodePoint(r io.Reader) (*Point, error) {
	var buf [PointSize]byte
	if err := readExact(r, buf[:]); err != nil {
		return nil, err
	}
	return PointFromBytes(buf[:])
}

func encodePoint(p *Point) ([]byte, error) {
	enc, err := p.Compressed()
	if err != nil {
		return nil, err
	}
	return enc[:], nil
}

// Scalar: 32 bytes big-endian. Zero is a valid scalar.

func (s *Scalar) ConsensusEncode(w io.Writer) (int, error) {
	if s == nil {
		return 0, ErrUnexpectedZero.WithContext("value", "scalar")
	}
	b := s.Bytes()
	return w.Write(b[:])
}

func (s *Scalar) ConsensusDecode(r io.Reader) error {
	decoded, err := decodeScalar(r, false, "scalar")
	if err != nil {
		return err
	}
	s.inner.Set(&decoded.inner)
	return nil
}

// Point: 33-byte compressed SEC1. The identity has no encoding.

func (p *Point) ConsensusEncode(w io.Writer) (int, error) {
	enc, err := encodePoint(p)
	if err != nil {
		return 0, err
	}
	return w.Write(enc)
}

func (p *Point) ConsensusDecode(r io.Reader) error {
	decoded, err := decodePoint(r)
	if err != nil {
		return err
	}
	p.inner = decoded.inner
	return nil
}

// PublicNonce: R1 || R2, 66 bytes.

func (n *PublicNonce) ConsensusEncode(w io.Writer) (int, error) {
	r1, err := encodePoint(n.R1)
	if err != nil {
		return 0, err
	}
	r2, err := encodePoint(n.R2)
	if err != nil {
		return 0, err
	}
	return writeAll(w, r1, r2)
}

func (n *PublicNonce) ConsensusDecode(r io.Reader) error {
	var buf [BinonceSize]byte
	if err := readExact(r, buf[:]); err != nil {
		return err
	}
	r1, err := PointFromBytes(buf[:PointSize])
	if err != nil {
		return err
	}
	r2, err := PointFromBytes(buf[PointSize:])
	if err != nil {
		return err
	}
	n.R1, n.R2 = r1, r2
	return nil
}

// SignatureShare: u32 signer || 32-byte scalar.

func (s *SignatureShare) ConsensusEncode(w io.Writer) (int, error) {
	if s == nil || s.S == nil {
		return 0, ErrUnexpectedZero.WithContext("value", "signature share")
	}
	b := s.S.Bytes()
	return writeAll(w, uint32Bytes(uint32(s.Signer)), b[:])
}

func (s *SignatureShare) ConsensusDecode(r io.Reader) error {
	signer, err := readUint32(r)
	if err != nil {
		return err
	}
	value, err := decodeScalar(r, false, "signature share")
	if err != nil {
		return err
	}
	s.Signer, s.S = ParticipantIndex(signer), value
	return nil
}

// Signature: BIP340, 64 bytes.

func (sig *Signature) ConsensusEncode(w io.Writer) (int, error) {
	if sig == nil || sig.S == nil || sig.S.IsZero() {
		return 0, ErrUnexpectedZero.WithContext("value", "signature scalar")
	}
	b := sig.Bytes()
	return w.Write(b[:])
}

func (sig *Signature) ConsensusDecode(r io.Reader) error {
	var buf [SignatureSize]byte
	if err := readExact(r, buf[:]); err != nil {
		return err
	}
	decoded, err := SignatureFromBytes(buf[:])
	if err != nil {
		return err
	}
	*sig = *decoded
	return nil
}

// ProofOfPossession: BIP340, 64 bytes.

func (p *ProofOfPossession) ConsensusEncode(w io.Writer) (int, error) {
	b := p.Bytes()
	return w.Write(b[:])
}

func (p *ProofOfPossession) ConsensusDecode(r io.Reader) error {
	var buf [SignatureSize]byte
	if err := readExact(r, buf[:]); err != nil {
		return err
	}
	decoded, err := ProofOfPossessionFromBytes(buf[:])
	if err != nil {
		return err
	}
	p.sig = decoded.sig
	return nil
}

// BlindedMessage and BlindedSignature: 32-byte non-zero scalars.

func (bm *BlindedMessage) ConsensusEncode(w io.Writer) (int, error) {
	if bm.c == nil || bm.c.IsZero() {
		return 0, ErrUnexpectedZero.WithContext("value", "blinded message")
	}
	return bm.c.ConsensusEncode(w)
}

func (bm *BlindedMessage) ConsensusDecode(r io.Reader) error {
	c, err := decodeScalar(r, true, "blinded message")
	if err != nil {
		return err
	}
	bm.c = c
	return nil
}

func (bs *BlindedSignature) ConsensusEncode(w io.Writer) (int, error) {
	if bs.s == nil || bs.s.IsZero() {
		return 0, ErrUnexpectedZero.WithContext("value", "blinded signature")
	}
	return bs.s.ConsensusEncode(w)
}

func (bs *BlindedSignature) ConsensusDecode(r io.Reader) error {
	s, err := decodeScalar(r, true, "blinded signature")
	if err != nil {
		return err
	}
	bs.s = s
	return nil
}

// BlindingKey: alpha || beta || challenge || nonce x || key x || parity byte,
// 161 bytes. Only for the requester's own storage.

func (bk *BlindingKey) ConsensusEncode(w io.Writer) (int, error) {
	if bk.alpha == nil || bk.beta == nil || bk.challenge == nil {
		return 0, ErrUnexpectedZero.WithContext("value", "blinding key")
	}
	alpha, beta, challenge := bk.alpha.Bytes(), bk.beta.Bytes(), bk.challenge.Bytes()
	parity := []byte{0}
	if bk.negate {
		parity[0] = 1
	}
	return writeAll(w, alpha[:], beta[:], challenge[:], bk.nonceX[:], bk.keyX[:], parity)
}

func (bk *BlindingKey) ConsensusDecode(r io.Reader) error {
	alpha, err := decodeScalar(r, true, "blinding alpha")
	if err != nil {
		return err
	}
	beta, err := decodeScalar(r, true, "blinding beta")
	if err != nil {
		return err
	}
	challenge, err := decodeScalar(r, false, "blinding challenge")
	if err != nil {
		return err
	}
	var rest [2*XOnlySize + 1]byte
	if err := readExact(r, rest[:]); err != nil {
		return err
	}
	var nonceX, keyX [XOnlySize]byte
	copy(nonceX[:], rest[:XOnlySize])
	copy(keyX[:], rest[XOnlySize:2*XOnlySize])
	for _, x := range [][XOnlySize]byte{nonceX, keyX} {
		if _, err := liftX(x); err != nil {
			return err
		}
	}
	if rest[2*XOnlySize] > 1 {
		return ErrInvalidEncoding.WithDetails("parity byte %d", rest[2*XOnlySize])
	}
	bk.alpha, bk.beta, bk.challenge = alpha, beta, challenge
	bk.nonceX, bk.keyX, bk.negate = nonceX, keyX, rest[2*XOnlySize] == 1
	return nil
}

// PublicCommitment: u32 t || t compressed points.

func (c *PublicCommitment) ConsensusEncode(w io.Writer) (int, error) {
	chunks := [][]byte{uint32Bytes(uint32(len(*c)))}
	for _, p := range *c {
		enc, err := encodePoint(p)
		if err != nil {
			return 0, err
		}
		chunks = append(chunks, enc)
	}
	return writeAll(w, chunks...)
}

func (c *PublicCommitment) ConsensusDecode(r io.Reader) error {
	t, err := readUint32(r)
	if err != nil {
		return err
	}
	if t == 0 || t > MaxParticipants {
		return ErrInvalidEncoding.WithDetails("commitment length %d", t)
	}
	decoded := make(PublicCommitment, t)
	for i := range decoded {
		if decoded[i], err = decodePoint(r); err != nil {
			return err
		}
	}
	*c = decoded
	return nil
}

// JointKey: u32 t || u32 n || public key || n verification shares.

func (jk *JointKey) ConsensusEncode(w io.Writer) (int, error) {
	pk, err := encodePoint(jk.PublicKey)
	if err != nil {
		return 0, err
	}
	chunks := [][]byte{
		uint32Bytes(uint32(jk.Threshold)),
		uint32Bytes(uint32(len(jk.VerificationShares))),
		pk,
	}
	for _, share := range jk.VerificationShares {
		enc, err := encodePoint(share)
		if err != nil {
			return 0, err
		}
		chunks = append(chunks, enc)
	}
	return writeAll(w, chunks...)
}

func (jk *JointKey) ConsensusDecode(r io.Reader) error {
	t, err := readUint32(r)
	if err != nil {
		return err
	}
	n, err := readUint32(r)
	if err != nil {
		return err
	}
	if n == 0 || n > MaxParticipants || t == 0 || t > n {
		return ErrInvalidEncoding.WithDetails("threshold %d of %d", t, n)
	}
	pk, err := decodePoint(r)
	if err != nil {
		return err
	}
	shares := make([]*Point, n)
	for i := range shares {
		if shares[i], err = decodePoint(r); err != nil {
			return err
		}
	}
	jk.Threshold, jk.PublicKey, jk.VerificationShares = int(t), pk, shares
	return nil
}
