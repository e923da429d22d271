// Package frost implements the threshold blind Schnorr engine of a federated
// mint over secp256k1.
//
// n federation members run a distributed key generation that leaves each of
// them with a secret share of a joint key. Any t of them can then sign a
// message that a requester blinded beforehand; the requester unblinds the
// combined result into an ordinary BIP340 signature under the joint key.
// Every value that crosses a process boundary has one canonical byte
// encoding (see encoding.go).
//
// All randomness is injected as an io.Reader.
package frost

import (
	"maps"
	"slices"
)

// ParticipantIndex identifies a federation member. Indices are 0-based; the
// polynomial evaluation point of participant i is i+1.
type ParticipantIndex uint32

func sortedParticipants[V any](m map[ParticipantIndex]V) []ParticipantIndex {
	return slices.Sorted(maps.Keys(m))
}
