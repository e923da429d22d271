package frost

import (
	"encoding/hex"
	"fmt"
	"runtime"

	"github.com/btcsuite/btcd/btcec/v2"
)

// Scalar is an element of the secp256k1 scalar field. Arithmetic never
// mutates the receiver; every operation returns a fresh value.
type Scalar struct {
	inner btcec.ModNScalar
}

// NewScalarFromUint32 returns the scalar v.
func NewScalarFromUint32(v uint32) *Scalar {
	s := new(Scalar)
	s.inner.SetInt(v)
	return s
}

// ScalarFromBytes parses a canonical 32-byte big-endian scalar. Values not
// below the group order are rejected. Zero is accepted; callers that need a
// non-zero value check IsZero.
func ScalarFromBytes(data []byte) (*Scalar, error) {
	if len(data) != ScalarSize {
		return nil, ErrTruncatedInput.WithContext("expected", ScalarSize).WithContext("got", len(data))
	}
	s := new(Scalar)
	if overflow := s.inner.SetByteSlice(data); overflow {
		return nil, ErrInvalidEncoding.WithContext("reason", "scalar not below group order")
	}
	return s, nil
}

// scalarFromDigest reduces a 32-byte digest modulo the group order.
func scalarFromDigest(digest []byte) *Scalar {
	s := new(Scalar)
	s.inner.SetByteSlice(digest)
	return s
}

func (s *Scalar) Bytes() [ScalarSize]byte {
	return s.inner.Bytes()
}

func (s *Scalar) String() string {
	b := s.Bytes()
	return hex.EncodeToString(b[:])
}

func (s *Scalar) Add(other *Scalar) *Scalar {
	r := new(Scalar)
	r.inner.Add2(&s.inner, &other.inner)
	return r
}

func (s *Scalar) Sub(other *Scalar) *Scalar {
	return s.Add(other.Negate())
}

func (s *Scalar) Mul(other *Scalar) *Scalar {
	r := new(Scalar)
	r.inner.Mul2(&s.inner, &other.inner)
	return r
}

func (s *Scalar) Negate() *Scalar {
	r := new(Scalar)
	r.inner.NegateVal(&s.inner)
	return r
}

// Invert returns the multiplicative inverse. btcec only offers a variable
// time inversion; it is used for public values (Lagrange denominators).
func (s *Scalar) Invert() (*Scalar, error) {
	if s.IsZero() {
		return nil, ErrDegenerateValue.WithContext("operation", "invert")
	}
	r := new(Scalar)
	r.inner.InverseValNonConst(&s.inner)
	return r, nil
}

// conditionalNegate negates s when negate is set.
func (s *Scalar) conditionalNegate(negate bool) *Scalar {
	if negate {
		return s.Negate()
	}
	return s.Copy()
}

func (s *Scalar) Copy() *Scalar {
	r := new(Scalar)
	r.inner.Set(&s.inner)
	return r
}

func (s *Scalar) Equal(other *Scalar) bool {
	if s == nil || other == nil {
		return s == other
	}
	return s.inner.Equals(&other.inner)
}

func (s *Scalar) IsZero() bool {
	return s.inner.IsZero()
}

// nonZero returns ErrDegenerateValue when s is zero.
func (s *Scalar) nonZero(what string) error {
	if s == nil || s.IsZero() {
		return ErrDegenerateValue.WithContext("value", what)
	}
	return nil
}

// Zeroize clears the scalar in place.
func (s *Scalar) Zeroize() {
	if s == nil {
		return
	}
	s.inner.Zero()
	runtime.KeepAlive(s)
}

// Point is a secp256k1 group element. A nil inner key is the identity.
type Point struct {
	inner *btcec.PublicKey
}

// Generator returns the curve base point G.
func Generator() *Point {
	return &Point{inner: btcec.Generator()}
}

// Identity returns the point at infinity.
func Identity() *Point {
	return &Point{}
}

// ScalarBaseMult returns k·G.
func ScalarBaseMult(k *Scalar) *Point {
	if k.IsZero() {
		return Identity()
	}
	var result btcec.JacobianPoint
	btcec.ScalarBaseMultNonConst(&k.inner, &result)
	return pointFromJacobian(&result)
}

// PointFromBytes parses a 33-byte compressed point.
func PointFromBytes(data []byte) (*Point, error) {
	if len(data) != PointSize {
		return nil, ErrTruncatedInput.WithContext("expected", PointSize).WithContext("got", len(data))
	}
	if data[0] != 0x02 && data[0] != 0x03 {
		return nil, ErrInvalidEncoding.WithContext("reason", fmt.Sprintf("point prefix %#x", data[0]))
	}
	pub, err := btcec.ParsePubKey(data)
	if err != nil {
		return nil, ErrInvalidEncoding.WithCause(err)
	}
	return &Point{inner: pub}, nil
}

// PointFromPublicKey wraps a btcec public key.
func PointFromPublicKey(pub *btcec.PublicKey) *Point {
	return &Point{inner: pub}
}

func pointFromJacobian(j *btcec.JacobianPoint) *Point {
	if isInfinity(j) {
		return Identity()
	}
	var affine btcec.JacobianPoint
	affine.Set(j)
	affine.ToAffine()
	return &Point{inner: btcec.NewPublicKey(&affine.X, &affine.Y)}
}

func isInfinity(j *btcec.JacobianPoint) bool {
	var x, y, z btcec.FieldVal
	x.Set(&j.X).Normalize()
	y.Set(&j.Y).Normalize()
	z.Set(&j.Z).Normalize()
	return (x.IsZero() && y.IsZero()) || z.IsZero()
}

func (p *Point) jacobian() btcec.JacobianPoint {
	var j btcec.JacobianPoint
	if p.inner != nil {
		p.inner.AsJacobian(&j)
	}
	return j
}

func (p *Point) Add(other *Point) *Point {
	if p.IsIdentity() {
		return other.copy()
	}
	if other.IsIdentity() {
		return p.copy()
	}
	a, b := p.jacobian(), other.jacobian()
	var result btcec.JacobianPoint
	btcec.AddNonConst(&a, &b, &result)
	return pointFromJacobian(&result)
}

func (p *Point) Sub(other *Point) *Point {
	return p.Add(other.Negate())
}

// Mul returns k·p.
func (p *Point) Mul(k *Scalar) *Point {
	if p.IsIdentity() || k.IsZero() {
		return Identity()
	}
	j := p.jacobian()
	var result btcec.JacobianPoint
	btcec.ScalarMultNonConst(&k.inner, &j, &result)
	return pointFromJacobian(&result)
}

func (p *Point) Negate() *Point {
	if p.IsIdentity() {
		return Identity()
	}
	j := p.jacobian()
	j.Y.Negate(1).Normalize()
	return pointFromJacobian(&j)
}

// conditionalNegate negates p when negate is set.
func (p *Point) conditionalNegate(negate bool) *Point {
	if negate {
		return p.Negate()
	}
	return p.copy()
}

func (p *Point) copy() *Point {
	if p.IsIdentity() {
		return Identity()
	}
	j := p.jacobian()
	return pointFromJacobian(&j)
}

func (p *Point) Equal(other *Point) bool {
	if p.IsIdentity() || other.IsIdentity() {
		return p.IsIdentity() && other.IsIdentity()
	}
	return p.inner.IsEqual(other.inner)
}

func (p *Point) IsIdentity() bool {
	return p == nil || p.inner == nil
}

// HasOddY reports whether the affine Y coordinate is odd. The identity is
// treated as even.
func (p *Point) HasOddY() bool {
	if p.IsIdentity() {
		return false
	}
	return p.inner.SerializeCompressed()[0] == 0x03
}

// XOnly returns the 32-byte x coordinate used by BIP340.
func (p *Point) XOnly() [XOnlySize]byte {
	var out [XOnlySize]byte
	if p.IsIdentity() {
		return out
	}
	copy(out[:], p.inner.SerializeCompressed()[1:])
	return out
}

// Compressed returns the 33-byte SEC1 compressed encoding. The identity has
// no encoding.
func (p *Point) Compressed() ([PointSize]byte, error) {
	var out [PointSize]byte
	if p.IsIdentity() {
		return out, ErrUnexpectedZero.WithContext("value", "point at infinity")
	}
	copy(out[:], p.inner.SerializeCompressed())
	return out, nil
}

// PublicKey returns the btcec form of p.
func (p *Point) PublicKey() (*btcec.PublicKey, error) {
	if p.IsIdentity() {
		return nil, ErrUnexpectedZero.WithContext("value", "point at infinity")
	}
	return p.inner, nil
}

func (p *Point) String() string {
	if p.IsIdentity() {
		return "identity"
	}
	return hex.EncodeToString(p.inner.SerializeCompressed())
}
