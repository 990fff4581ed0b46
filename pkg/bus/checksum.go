package bus

// CRC8 computes the bambubus header checksum: DVB-S2 variant with
// init 0x66 and polynomial 0x39.
func CRC8(data []byte) byte {
	crc := byte(0x66)
	for _, b := range data {
		crc ^= b
		for i := 0; i < 8; i++ {
			if crc&0x80 != 0 {
				crc = (crc << 1) ^ 0x39
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

// CRC16 computes the bambubus frame checksum: polynomial 0x1021 with
// the protocol-specific init 0x913D.
func CRC16(data []byte) uint16 {
	crc := uint16(0x913D)
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = (crc << 1) ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
