// Package codec implements the wire text encoding between Value and the
// worker's own serializer. Both sides must produce byte-for-byte
// compatible output for round-tripping to work.
//
// # Grammar
//
// Every encoding begins with a single type-tag character:
//
//	scalar := TAG payload
//	array  := '*' NDIMS ',' dim1 [',' dim2] ';' len1 ',' len2 ',' ... ',' ';' enc1 enc2 ... encN
//
// Tag table:
//
//	#  double          £  string          T  true            F  false
//	D  date (serial)   E  empty           N  null            %  int16
//	&  int32           L  int64           S  single          C  currency
//	@  decimal         !  error-code      *  array
//
// The length section lists, in column-major element order, the length in
// characters of each element's own encoding, each followed by a comma.
// The content section concatenates the element encodings with no
// delimiter; boundaries are recovered purely from the length section,
// which keeps decoding single-pass. Lengths count characters, not bytes:
// the '£' marker is one character.
//
// Numbers use strconv's shortest round-trip decimal form, so output is
// locale-invariant ('.' radix, no grouping) and Decode(Encode(v))
// reproduces v exactly. Dates travel as their numeric day serial, never
// as a formatted calendar string.
//
// An int64 scalar is down-cast to a double (tag '#') when the encoder is
// configured for a consumer that cannot hold 64-bit integers. The
// down-cast is lossy above 2^53; it is a capability concession, not a
// property of the format.
package codec
