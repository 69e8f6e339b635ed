package slotmap

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
)

// noIndex marks the end of an intra-array link chain and doubles as the
// reserved index of the null key's wire form.
const noIndex = math.MaxUint32

// maxSlots caps how many value slots a map may address: 2^32 - 2 elements,
// leaving the top index reserved for the null key.
const maxSlots = 1<<32 - 2

// Key addresses a value stored in a [SlotMap] or [HopSlotMap].
//
// Keys are cheap immutable values, freely copied and shared; removing the
// value invalidates every copy at once. Do not use a key from one map in
// another: the behavior is safe but nonsensical. Keys are comparable and
// usable as Go map keys; [Key.Compare] additionally defines a total order so
// keys can live in sorted containers, but the order carries no meaning.
//
// The zero Key is the null key.
type Key struct {
	idx     uint32
	version uint32
}

// Null returns the key that is always invalid and distinct from any key ever
// produced by an insert. There is only one null key: it equals the zero Key,
// and it is safe to present to any map, which reports it as not found.
func Null() Key {
	return Key{}
}

// IsNull reports whether k is the null key. A removed key does not become
// null; it stays a distinct, permanently invalid key.
func (k Key) IsNull() bool {
	return k == Key{}
}

// Compare returns -1, 0 or 1 ordering keys by their raw (index, version)
// pair. The order is total but arbitrary; it exists only so keys can be kept
// in sorted containers.
func (k Key) Compare(other Key) int {
	switch {
	case k.idx != other.idx:
		if k.idx < other.idx {
			return -1
		}
		return 1
	case k.version != other.version:
		if k.version < other.version {
			return -1
		}
		return 1
	default:
		return 0
	}
}

// String returns a debug representation of the key.
func (k Key) String() string {
	if k.IsNull() {
		return "Key(null)"
	}
	return fmt.Sprintf("Key(%d v%d)", k.idx, k.version)
}

// wireKey is the serialized form of a Key: the slot index and the version
// counter, spelled out so persisted keys survive library-internal changes.
type wireKey struct {
	Idx     uint32 `json:"idx"`
	Version uint32 `json:"version"`
}

func (k Key) wire() wireKey {
	if k.IsNull() {
		return wireKey{Idx: noIndex, Version: 1}
	}
	return wireKey{Idx: k.idx, Version: k.version}
}

// fromWire normalizes a decoded key. Untrusted input is made harmless rather
// than rejected: every null-indexed variant collapses to the canonical null
// key, and the version is forced odd so a decoded key can never equal an
// internal vacant-slot encoding.
func fromWire(w wireKey) Key {
	if w.Idx == noIndex {
		return Key{}
	}
	return Key{idx: w.Idx, version: w.Version | 1}
}

// MarshalJSON encodes the key as {"idx":..,"version":..}.
func (k Key) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.wire())
}

// UnmarshalJSON decodes and normalizes a key; see [Key.UnmarshalBinary] for
// the normalization rules. Decoding a key that a map produced yields the
// identical key.
func (k *Key) UnmarshalJSON(data []byte) error {
	var w wireKey
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*k = fromWire(w)
	return nil
}

// MarshalBinary encodes the key as 8 bytes: little-endian index, then
// little-endian version.
func (k Key) MarshalBinary() ([]byte, error) {
	w := k.wire()
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint32(buf[0:4], w.Idx)
	binary.LittleEndian.PutUint32(buf[4:8], w.Version)
	return buf, nil
}

// UnmarshalBinary decodes the 8-byte form produced by [Key.MarshalBinary].
// Adversarial input is normalized, never rejected: an index of 2^32-1
// decodes to the canonical null key regardless of the encoded version, and
// the version's low bit is forced on so the decoded key cannot carry a
// vacant-looking even version.
func (k *Key) UnmarshalBinary(data []byte) error {
	if len(data) != 8 {
		return fmt.Errorf("slotmap: key must be 8 bytes, got %d", len(data))
	}
	*k = fromWire(wireKey{
		Idx:     binary.LittleEndian.Uint32(data[0:4]),
		Version: binary.LittleEndian.Uint32(data[4:8]),
	})
	return nil
}
