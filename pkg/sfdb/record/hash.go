package record

// PathHash computes the 32-bit fingerprint SuperFetch stores alongside
// volume device paths and file paths, processing data in 8-byte windows.
// The constants and operation order are taken directly from
// libagdb_hash.c's path hash function; every arithmetic operation wraps at
// 32 bits, which Go's uint32 does natively.
//
// The loop bound mirrors libagdb_hash.c's own off-by-one: it advances
// while (offset+8) < len(data), strictly, not <=. A final window that ends
// exactly at len(data) is therefore never processed as a window; its 8
// bytes fall through to the trailing per-byte loop instead.
func PathHash(data []byte) uint32 {
	var h uint32 = 0x4CB2F

	i := 0
	for ; i+8 < len(data); i += 8 {
		window := data[i : i+8]

		v := uint32(window[1])
		v = v*0x25 + uint32(window[2])
		v = v*0x25 + uint32(window[3])
		v = v*0x25 + uint32(window[4])
		v = v*0x25 + uint32(window[5])
		v = v*0x25 + uint32(window[6])
		v *= 0x25

		v += 0x1A617D0D * uint32(window[0])
		h = v - 0x2FE8ED1F*h + uint32(window[7])
	}

	for ; i < len(data); i++ {
		h = h*0x25 + uint32(data[i])
	}

	return h
}
