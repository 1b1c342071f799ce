package restype

import (
	"encoding/binary"
	"fmt"
)

// EncodeChildList serializes an ordered list of ids into the wire format a
// container's default variant payload uses (§6): a varint-encoded count
// followed by each id's raw 16 bytes, big-endian. This format is meant to
// be library-independent so a container written by one implementation
// reads back unchanged in another.
func EncodeChildList(ids []ResourceId) []byte {
	var countBuf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(countBuf[:], uint64(len(ids)))

	buf := make([]byte, 0, n+len(ids)*16)
	buf = append(buf, countBuf[:n]...)
	for _, id := range ids {
		raw := id.u
		buf = append(buf, raw[:]...)
	}
	return buf
}

// DecodeChildList reverses EncodeChildList.
func DecodeChildList(data []byte) ([]ResourceId, error) {
	count, n := binary.Uvarint(data)
	if n <= 0 {
		return nil, fmt.Errorf("restype: invalid child list length prefix")
	}
	data = data[n:]
	if uint64(len(data)) < count*16 {
		return nil, fmt.Errorf("restype: truncated child list, want %d ids, have %d bytes", count, len(data))
	}

	ids := make([]ResourceId, count)
	for i := uint64(0); i < count; i++ {
		var id ResourceId
		copy(id.u[:], data[i*16:(i+1)*16])
		ids[i] = id
	}
	return ids, nil
}
