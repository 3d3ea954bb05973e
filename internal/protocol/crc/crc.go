// Package crc implements the 16-bit frame checksum (CRC-16/MODBUS).
package crc

// Init is the register value before any byte is folded in.
const Init uint16 = 0xFFFF

// mask is polynomial 0x8005 bit-reversed.
const mask uint16 = 0xA001

var table = makeTable()

func makeTable() [256]uint16 {
	var t [256]uint16
	for i := range t {
		crc := uint16(i)
		for j := 0; j < 8; j++ {
			if crc&1 != 0 {
				crc = (crc >> 1) ^ mask
			} else {
				crc >>= 1
			}
		}
		t[i] = crc
	}
	return t
}

// Checksum returns the CRC of b. An empty range yields Init.
func Checksum(b []byte) uint16 {
	return Update(Init, b)
}

// Update folds b into a running register. No final XOR is applied.
func Update(crc uint16, b []byte) uint16 {
	for _, v := range b {
		crc = (crc >> 8) ^ table[byte(crc)^v]
	}
	return crc
}

// updateBitwise is the shift-and-mask form; the table above must agree with it.
func updateBitwise(crc uint16, b []byte) uint16 {
	for _, v := range b {
		crc ^= uint16(v)
		for i := 0; i < 8; i++ {
			if crc&1 != 0 {
				crc = (crc >> 1) ^ mask
			} else {
				crc >>= 1
			}
		}
	}
	return crc
}
