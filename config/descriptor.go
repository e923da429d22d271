package config

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/minimint/frost"
)

const (
	descriptorInputCharset = "0123456789()[],'/*abcdefgh@:$%{}" +
		"IJKLMNOPQRSTUVWXYZ&+-.;<=>?!^_|~" +
		"ijklmnopqrstuvwxyzABCDEFGH`#\"\\ "
	descriptorChecksumCharset = "qpzry9x8gf2tvdw0s3jn54khce6mua7l"
	descriptorChecksumLength  = 8
)

var descriptorGenerators = [5]uint64{0xf5dee51989, 0xa9fdca3312, 0x1bab10e32d, 0x3706b1677a, 0x644d626ffd}

func descriptorPolyMod(c uint64, val int) uint64 {
	c0 := c >> 35
	c = ((c & 0x7ffffffff) << 5) ^ uint64(val)
	for i, g := range descriptorGenerators {
		if (c0>>i)&1 != 0 {
			c ^= g
		}
	}
	return c
}

// DescriptorChecksum returns the 8 character output descriptor checksum of
// desc, which must not already carry one.
func DescriptorChecksum(desc string) (string, error) {
	c := uint64(1)
	cls, clsCount := 0, 0
	for _, ch := range desc {
		pos := strings.IndexRune(descriptorInputCharset, ch)
		if pos < 0 {
			return "", fmt.Errorf("invalid descriptor character %q", ch)
		}
		c = descriptorPolyMod(c, pos&31)
		cls = cls*3 + (pos >> 5)
		clsCount++
		if clsCount == 3 {
			c = descriptorPolyMod(c, cls)
			cls, clsCount = 0, 0
		}
	}
	if clsCount > 0 {
		c = descriptorPolyMod(c, cls)
	}
	for range descriptorChecksumLength {
		c = descriptorPolyMod(c, 0)
	}
	c ^= 1

	out := make([]byte, descriptorChecksumLength)
	for j := range out {
		out[j] = descriptorChecksumCharset[(c>>(5*(7-j)))&31]
	}
	return string(out), nil
}

// PegInDescriptor returns the key-path-only taproot descriptor paying to the
// joint key, with checksum.
func PegInDescriptor(jointKey *frost.JointKey) string {
	xonly := jointKey.XOnly()
	desc := fmt.Sprintf("tr(%s)", hex.EncodeToString(xonly[:]))
	// the descriptor alphabet covers hex, so this cannot fail
	checksum, _ := DescriptorChecksum(desc)
	return desc + "#" + checksum
}

// ParsePegInDescriptor checks the checksum of a tr() descriptor and returns
// its x-only key.
func ParsePegInDescriptor(descriptor string) ([frost.XOnlySize]byte, error) {
	var key [frost.XOnlySize]byte

	desc, checksum, ok := strings.Cut(descriptor, "#")
	if !ok {
		return key, fmt.Errorf("descriptor %q has no checksum", descriptor)
	}
	expected, err := DescriptorChecksum(desc)
	if err != nil {
		return key, err
	}
	if checksum != expected {
		return key, fmt.Errorf("descriptor checksum %q, expected %q", checksum, expected)
	}

	inner, ok := strings.CutPrefix(desc, "tr(")
	if !ok {
		return key, fmt.Errorf("descriptor %q is not a taproot descriptor", desc)
	}
	inner, ok = strings.CutSuffix(inner, ")")
	if !ok || strings.ContainsAny(inner, ",()") {
		return key, fmt.Errorf("descriptor %q is not a key-path-only taproot descriptor", desc)
	}
	raw, err := hex.DecodeString(inner)
	if err != nil || len(raw) != frost.XOnlySize {
		return key, fmt.Errorf("descriptor key %q is not a 32 byte x-only key", inner)
	}
	copy(key[:], raw)
	return key, nil
}
