package jieli

// Substitution and schedule tables of the Jieli E1 block cipher,
// embedded process-wide constants.

var sbox = [256]byte{
	0x01, 0x2d, 0xe2, 0x93, 0xbe, 0x45, 0x15, 0xae, 0x78, 0x03, 0x87, 0xa4, 0xb8, 0x38, 0xcf, 0x3f,
	0x08, 0x67, 0x09, 0x94, 0xeb, 0x26, 0xa8, 0x6b, 0xbd, 0x18, 0x34, 0x1b, 0xbb, 0xbf, 0x72, 0xf7,
	0x40, 0x35, 0x48, 0x9c, 0x51, 0x2f, 0x3b, 0x55, 0xe3, 0xc0, 0x9f, 0xd8, 0xd3, 0xf3, 0x8d, 0xb1,
	0xff, 0xa7, 0x3e, 0xdc, 0x86, 0x77, 0xd7, 0xa6, 0x11, 0xfb, 0xf4, 0xba, 0x92, 0x91, 0x64, 0x83,
	0xf1, 0x33, 0xef, 0xda, 0x2c, 0xb5, 0xb2, 0x2b, 0x88, 0xd1, 0x99, 0xcb, 0x8c, 0x84, 0x1d, 0x14,
	0x81, 0x97, 0x71, 0xca, 0x5f, 0xa3, 0x8b, 0x57, 0x3c, 0x82, 0xc4, 0x52, 0x5c, 0x1c, 0xe8, 0xa0,
	0x04, 0xb4, 0x85, 0x4a, 0xf6, 0x13, 0x54, 0xb6, 0xdf, 0x0c, 0x1a, 0x8e, 0xde, 0xe0, 0x39, 0xfc,
	0x20, 0x9b, 0x24, 0x4e, 0xa9, 0x98, 0x9e, 0xab, 0xf2, 0x60, 0xd0, 0x6c, 0xea, 0xfa, 0xc7, 0xd9,
	0x00, 0xd4, 0x1f, 0x6e, 0x43, 0xbc, 0xec, 0x53, 0x89, 0xfe, 0x7a, 0x5d, 0x49, 0xc9, 0x32, 0xc2,
	0xf9, 0x9a, 0xf8, 0x6d, 0x16, 0xdb, 0x59, 0x96, 0x44, 0xe9, 0xcd, 0xe6, 0x46, 0x42, 0x8f, 0x0a,
	0xc1, 0xcc, 0xb9, 0x65, 0xb0, 0xd2, 0xc6, 0xac, 0x1e, 0x41, 0x62, 0x29, 0x2e, 0x0e, 0x74, 0x50,
	0x02, 0x5a, 0xc3, 0x25, 0x7b, 0x8a, 0x2a, 0x5b, 0xf0, 0x06, 0x0d, 0x47, 0x6f, 0x70, 0x9d, 0x7e,
	0x10, 0xce, 0x12, 0x27, 0xd5, 0x4c, 0x4f, 0xd6, 0x79, 0x30, 0x68, 0x36, 0x75, 0x7d, 0xe4, 0xed,
	0x80, 0x6a, 0x90, 0x37, 0xa2, 0x5e, 0x76, 0xaa, 0xc5, 0x7f, 0x3d, 0xaf, 0xa5, 0xe5, 0x19, 0x61,
	0xfd, 0x4d, 0x7c, 0xb7, 0x0b, 0xee, 0xad, 0x4b, 0x22, 0xf5, 0xe7, 0x73, 0x23, 0x21, 0xc8, 0x05,
	0xe1, 0x66, 0xdd, 0xb3, 0x58, 0x69, 0x63, 0x56, 0x0f, 0xa1, 0x31, 0x95, 0x17, 0x07, 0x3a, 0x28,
}

var isbox = [256]byte{
	0x80, 0x00, 0xb0, 0x09, 0x60, 0xef, 0xb9, 0xfd, 0x10, 0x12, 0x9f, 0xe4, 0x69, 0xba, 0xad, 0xf8,
	0xc0, 0x38, 0xc2, 0x65, 0x4f, 0x06, 0x94, 0xfc, 0x19, 0xde, 0x6a, 0x1b, 0x5d, 0x4e, 0xa8, 0x82,
	0x70, 0xed, 0xe8, 0xec, 0x72, 0xb3, 0x15, 0xc3, 0xff, 0xab, 0xb6, 0x47, 0x44, 0x01, 0xac, 0x25,
	0xc9, 0xfa, 0x8e, 0x41, 0x1a, 0x21, 0xcb, 0xd3, 0x0d, 0x6e, 0xfe, 0x26, 0x58, 0xda, 0x32, 0x0f,
	0x20, 0xa9, 0x9d, 0x84, 0x98, 0x05, 0x9c, 0xbb, 0x22, 0x8c, 0x63, 0xe7, 0xc5, 0xe1, 0x73, 0xc6,
	0xaf, 0x24, 0x5b, 0x87, 0x66, 0x27, 0xf7, 0x57, 0xf4, 0x96, 0xb1, 0xb7, 0x5c, 0x8b, 0xd5, 0x54,
	0x79, 0xdf, 0xaa, 0xf6, 0x3e, 0xa3, 0xf1, 0x11, 0xca, 0xf5, 0xd1, 0x17, 0x7b, 0x93, 0x83, 0xbc,
	0xbd, 0x52, 0x1e, 0xeb, 0xae, 0xcc, 0xd6, 0x35, 0x08, 0xc8, 0x8a, 0xb4, 0xe2, 0xcd, 0xbf, 0xd9,
	0xd0, 0x50, 0x59, 0x3f, 0x4d, 0x62, 0x34, 0x0a, 0x48, 0x88, 0xb5, 0x56, 0x4c, 0x2e, 0x6b, 0x9e,
	0xd2, 0x3d, 0x3c, 0x03, 0x13, 0xfb, 0x97, 0x51, 0x75, 0x4a, 0x91, 0x71, 0x23, 0xbe, 0x76, 0x2a,
	0x5f, 0xf9, 0xd4, 0x55, 0x0b, 0xdc, 0x37, 0x31, 0x16, 0x74, 0xd7, 0x77, 0xa7, 0xe6, 0x07, 0xdb,
	0xa4, 0x2f, 0x46, 0xf3, 0x61, 0x45, 0x67, 0xe3, 0x0c, 0xa2, 0x3b, 0x1c, 0x85, 0x18, 0x04, 0x1d,
	0x29, 0xa0, 0x8f, 0xb2, 0x5a, 0xd8, 0xa6, 0x7e, 0xee, 0x8d, 0x53, 0x4b, 0xa1, 0x9a, 0xc1, 0x0e,
	0x7a, 0x49, 0xa5, 0x2c, 0x81, 0xc4, 0xc7, 0x36, 0x2b, 0x7f, 0x43, 0x95, 0x33, 0xf2, 0x6c, 0x68,
	0x6d, 0xf0, 0x02, 0x28, 0xce, 0xdd, 0x9b, 0xea, 0x5e, 0x99, 0x7c, 0x14, 0x86, 0xcf, 0xe5, 0x42,
	0xb8, 0x40, 0x78, 0x2d, 0x3a, 0xe9, 0x64, 0x1f, 0x92, 0x90, 0x7d, 0x39, 0x6f, 0xe0, 0x89, 0x30,
}

// Table consumed by the key schedule, read backwards from index
// 0xF + 16*round.
var ksTable = [256]byte{
	0x8e, 0xbe, 0xff, 0x92, 0x01, 0xd8, 0x68, 0x4a, 0x54, 0x78, 0x64, 0xa5, 0xf1, 0x45, 0x11, 0x08,
	0x43, 0x68, 0xf9, 0xca, 0x98, 0xab, 0x03, 0xad, 0xd3, 0x73, 0xad, 0x1b, 0x6a, 0xd2, 0x26, 0x8f,
	0x7c, 0xb8, 0x90, 0xf0, 0x16, 0x20, 0xdd, 0xba, 0x45, 0x16, 0x5b, 0x8a, 0x03, 0xf5, 0x8d, 0xd7,
	0xe7, 0xe1, 0xe1, 0xdb, 0x95, 0x9e, 0x6f, 0x75, 0x15, 0x79, 0xc1, 0xae, 0x26, 0x15, 0x94, 0x7b,
	0xe3, 0x87, 0xf7, 0xe6, 0x60, 0x8a, 0x99, 0xa3, 0xed, 0xe1, 0xea, 0xd2, 0x18, 0xf4, 0xb9, 0x41,
	0x62, 0x34, 0xf6, 0x5c, 0x84, 0x3d, 0xf7, 0x3f, 0xd4, 0x41, 0x3a, 0xa7, 0x8e, 0xfc, 0x7c, 0x9c,
	0xb1, 0x9d, 0x9a, 0x83, 0x75, 0xde, 0xba, 0xec, 0x4e, 0x0c, 0xfa, 0x02, 0x39, 0x6c, 0x44, 0x1c,
	0xc2, 0x10, 0x7f, 0x60, 0x4e, 0xd1, 0xdb, 0xcb, 0x36, 0x38, 0x76, 0x6c, 0xeb, 0x61, 0x24, 0x35,
	0xc4, 0x54, 0x2b, 0x1d, 0x2c, 0x3c, 0xec, 0x70, 0xed, 0x2a, 0x17, 0x99, 0xba, 0x08, 0x44, 0x38,
	0xeb, 0x83, 0x88, 0x67, 0x6a, 0x8a, 0x83, 0xaf, 0x53, 0x0d, 0x90, 0xc2, 0x10, 0xca, 0xf1, 0x81,
	0x09, 0xcf, 0x49, 0x8e, 0x83, 0x4a, 0x9d, 0xac, 0x3d, 0xf0, 0xa6, 0x14, 0xdf, 0x70, 0x34, 0xae,
	0xb2, 0xed, 0x4f, 0xc6, 0xce, 0xd7, 0x62, 0xfe, 0xb8, 0x5d, 0x91, 0x52, 0xf7, 0x10, 0xb0, 0x25,
	0x7f, 0xf1, 0x6b, 0xab, 0x34, 0xa2, 0x7e, 0x81, 0x2c, 0xd9, 0x21, 0x12, 0x3b, 0xa3, 0xd9, 0xb8,
	0x47, 0xb2, 0xb7, 0x59, 0xdd, 0xc6, 0x36, 0x93, 0x67, 0x2c, 0x89, 0x4c, 0x28, 0xb2, 0x7e, 0x95,
	0x79, 0xaf, 0x09, 0x20, 0x02, 0x47, 0x21, 0x5e, 0x21, 0xd6, 0x28, 0x7e, 0x28, 0x62, 0x1a, 0x68,
	0x81, 0x86, 0x9c, 0xcd, 0x1a, 0x8c, 0x23, 0xd6, 0xa2, 0x31, 0x75, 0xf0, 0x41, 0xb9, 0x1e, 0xb7,
}

// StaticKey is the shared symmetric key both sides prove possession of.
var StaticKey = [16]byte{
	0x6B, 0xE9, 0xB2, 0xC0, 0x83, 0xD9, 0x4A, 0x1E,
	0x5A, 0xF8, 0x9C, 0x4E, 0x7B, 0x6D, 0x3F, 0x20,
}

// scheduleMagic is expanded by repetition to the 16-byte whitening key
// applied between the two cipher passes.
var scheduleMagic = [8]byte{0xB3, 0xA1, 0xD7, 0xE9, 0x4C, 0x2F, 0x85, 0x60}

// condMask selects XOR vs ADD per byte position in the conditional
// mixing phases.
const condMask = 0x9999
