package jieli

// E1 block cipher. Two 8-round keyed passes over a 272-byte schedule;
// between passes the state is folded with the plaintext and the
// magic-expanded key. Operates on 16-byte blocks, byte oriented, so the
// result is independent of host endianness.

// keySchedule expands a 16-byte block into the 272-byte (17 x 16)
// schedule. Block 0 is the input itself; each of the 16 following
// blocks is produced from a 17-byte circular buffer (input plus XOR
// checksum) whose bytes are rotated left by 3 every round, combined
// with the schedule table read backwards from 0xF + 16*round.
func keySchedule(data [16]byte) [272]byte {
	var out [272]byte
	copy(out[:16], data[:])

	var local [17]byte
	copy(local[:16], data[:])
	var checksum byte
	for _, b := range data {
		checksum ^= b
	}
	local[16] = checksum

	outPos := 16
	for round := 0; round < 16; round++ {
		for i := 0; i < 17; i++ {
			local[i] = local[i]<<3 | local[i]>>5
		}
		readPos := round + 1
		for j := 0; j < 16; j++ {
			tblIdx := 0xF + round*16 - j
			out[outPos+j] = ksTable[tblIdx] + local[readPos]
			readPos++
			if readPos > 16 {
				readPos = 0
			}
		}
		outPos += 16
	}
	return out
}

// butterflyMix is the Fibonacci-style pair mixing network applied at
// the start of every cipher round. Arithmetic is on 32-bit lanes; only
// the low byte of each lane survives into the output.
func butterflyMix(s *[16]byte) {
	r16, r17, r3, r4 := uint32(s[0]), uint32(s[1]), uint32(s[2]), uint32(s[3])
	r5, r6, r7, r19 := uint32(s[4]), uint32(s[5]), uint32(s[6]), uint32(s[7])
	r20, r21, r22, r23 := uint32(s[8]), uint32(s[9]), uint32(s[10]), uint32(s[11])
	r24, r25, r26, r27 := uint32(s[12]), uint32(s[13]), uint32(s[14]), uint32(s[15])
	var r28 uint32

	// Stage 1: adjacent pairs
	r28 = r17 + r16*2
	r16 = r17 + r16
	r17, r3 = r4+r3*2, r4+r3
	r4, r5 = r6+r5*2, r6+r5
	r6, r7 = r19+r7*2, r19+r7
	r19, r20 = r21+r20*2, r21+r20
	r21, r22 = r23+r22*2, r23+r22
	r23, r24 = r25+r24*2, r25+r24
	r25, r26 = r27+r26*2, r27+r26

	// Stage 2: cross pairs
	r27, r19 = r22+r19*2, r22+r19
	r22, r23 = r26+r23*2, r26+r23
	r26, r16 = r16+r17*2, r17+r16
	r17, r5 = r5+r6*2, r6+r5
	r6, r20 = r20+r21*2, r21+r20
	r21, r24 = r24+r25*2, r25+r24
	r25, r7 = r7+r28*2, r7+r28
	r28, r3 = r3+r4*2, r4+r3

	// Stage 3
	r4, r6 = r24+r6*2, r24+r6
	r24, r3 = r3+r25*2, r25+r3
	r25, r19 = r19+r22*2, r22+r19
	r22, r16 = r16+r17*2, r17+r16
	r17, r20 = r20+r21*2, r21+r20
	r21, r7 = r7+r28*2, r7+r28
	r28, r5 = r5+r27*2, r27+r5
	r27, r23 = r23+r26*2, r23+r26

	// Stage 4
	r26, r17 = r7+r17*2, r17+r7
	r7, r23 = r23+r28*2, r23+r28
	r28, r6 = r6+r24*2, r6+r24
	r24, r19 = r19+r22*2, r19+r22
	r22, r20 = r20+r21*2, r20+r21
	r21, r5 = r5+r27*2, r27+r5
	r27, r16 = r16+r4*2, r4+r16
	r4, r3 = r3+r25*2, r25+r3

	s[0], s[1], s[2], s[3] = byte(r26), byte(r17), byte(r7), byte(r23)
	s[4], s[5], s[6], s[7] = byte(r28), byte(r6), byte(r24), byte(r19)
	s[8], s[9], s[10], s[11] = byte(r22), byte(r20), byte(r21), byte(r5)
	s[12], s[13], s[14], s[15] = byte(r27), byte(r16), byte(r4), byte(r3)
}

// condMixXorAdd mixes a key block into the state: mask bit set selects
// XOR, clear selects ADD.
func condMixXorAdd(s *[16]byte, key []byte) {
	for i := 0; i < 16; i++ {
		if 1<<uint(i)&condMask != 0 {
			s[i] ^= key[i]
		} else {
			s[i] += key[i]
		}
	}
}

// condMixAddXor is the inverted selection: mask bit set selects ADD.
func condMixAddXor(s *[16]byte, key []byte) {
	for i := 0; i < 16; i++ {
		if 1<<uint(i)&condMask != 0 {
			s[i] += key[i]
		} else {
			s[i] ^= key[i]
		}
	}
}

// substitute applies the split substitution: half the positions through
// the forward box, the other half through the inverse box.
func substitute(s *[16]byte) {
	for _, pos := range [8]int{0, 3, 4, 7, 8, 11, 12, 15} {
		s[pos] = sbox[s[pos]]
	}
	for _, pos := range [8]int{1, 2, 5, 6, 9, 10, 13, 14} {
		s[pos] = isbox[s[pos]]
	}
}

// cipherPass runs the 8-round keyed pass. When foldInput is set the
// original input is folded back into the state after round 2.
func cipherPass(state *[16]byte, ek *[272]byte, foldInput bool) {
	initial := *state

	condMixXorAdd(state, ek[0:16])
	substitute(state)
	condMixAddXor(state, ek[16:32])

	for x9 := 1; x9 <= 8; x9++ {
		butterflyMix(state)
		if x9 == 8 {
			condMixXorAdd(state, ek[0x100:0x110])
			break
		}
		if foldInput && x9 == 2 {
			condMixXorAdd(state, initial[:])
		}
		ekOff := x9 * 0x20
		condMixXorAdd(state, ek[ekOff:ekOff+16])
		substitute(state)
		condMixAddXor(state, ek[ekOff+16:ekOff+32])
	}
}

// obfuscate derives the second-pass schedule seed from the key with the
// fixed per-position transform.
func obfuscate(key [16]byte) [16]byte {
	return [16]byte{
		key[0] - 0x17,
		key[1] ^ 0xE5,
		key[2] - 0x21,
		key[3] ^ 0xC1,
		key[4] - 0x4D,
		key[5] ^ 0xA7,
		key[6] - 0x6B,
		key[7] ^ 0x83,
		key[8] ^ 0xE9,
		key[9] - 0x1B,
		key[10] ^ 0xDF,
		key[11] - 0x3F,
		key[12] ^ 0xB3,
		key[13] - 0x59,
		key[14] ^ 0x95,
		key[15] - 0x7D,
	}
}

// Encrypt runs the full E1 pipeline on one 16-byte block under the
// given key. Deterministic.
func Encrypt(block [16]byte, key [16]byte) [16]byte {
	var expanded [16]byte
	for i := 0; i < 16; i++ {
		expanded[i] = scheduleMagic[i%8]
	}

	output := block
	ek := keySchedule(key)
	cipherPass(&output, &ek, false)

	for i := 0; i < 16; i++ {
		output[i] = expanded[i] + (output[i] ^ block[i])
	}

	ek2 := keySchedule(obfuscate(key))
	cipherPass(&output, &ek2, true)
	return output
}
