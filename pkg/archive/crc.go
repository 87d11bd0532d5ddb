package archive

import (
	"encoding/binary"
	"hash/crc32"

	"github.com/google/uuid"
)

var crcTable = crc32.MakeTable(crc32.IEEE)

// CRC folds data into a running CRC-32 (IEEE) value. Objects chain their
// defining state through successive calls so one checksum covers an
// entire composite structure.
func CRC(current uint32, data []byte) uint32 {
	return crc32.Update(current, crcTable, data)
}

// CRCString folds a string into a running checksum.
func CRCString(current uint32, s string) uint32 {
	return CRC(current, []byte(s))
}

// CRCUint32 folds a uint32, little-endian, into a running checksum.
func CRCUint32(current uint32, v uint32) uint32 {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return CRC(current, b[:])
}

// CRCInt32 folds an int32 into a running checksum.
func CRCInt32(current uint32, v int32) uint32 {
	return CRCUint32(current, uint32(v))
}

// CRCUUID folds the 16 raw identifier bytes into a running checksum.
func CRCUUID(current uint32, id uuid.UUID) uint32 {
	return CRC(current, id[:])
}
