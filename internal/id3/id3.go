// Package id3 removes leading ID3v2 tag blocks from encoded audio buffers.
//
// Some decoders and transcription backends misreport duration or reject
// payloads when an ID3v2 block precedes the first audio frame. Stripping is a
// pure byte operation: it never decodes audio and never fails.
package id3

// headerLen is the fixed size of an ID3v2 header.
const headerLen = 10

// SynchsafeInt decodes a 28-bit synchsafe integer (7 significant bits per byte).
func SynchsafeInt(b [4]byte) int {
	return int(b[0]&0x7f)<<21 |
		int(b[1]&0x7f)<<14 |
		int(b[2]&0x7f)<<7 |
		int(b[3]&0x7f)
}

// HeaderSize returns the total length (header plus tag body) of the ID3v2
// block at the start of buf. ok is false when buf does not start with a tag.
func HeaderSize(buf []byte) (total int, ok bool) {
	if len(buf) < headerLen {
		return 0, false
	}
	if buf[0] != 'I' || buf[1] != 'D' || buf[2] != '3' {
		return 0, false
	}
	size := SynchsafeInt([4]byte{buf[6], buf[7], buf[8], buf[9]})
	return headerLen + size, true
}

// Strip returns buf without its leading ID3v2 block(s).
//
// Buffers shorter than a header, or not starting with "ID3", are returned
// unchanged. A declared size running past the end yields an empty slice.
// Consecutive blocks are all removed, so Strip(Strip(x)) equals Strip(x).
// The result aliases buf.
func Strip(buf []byte) []byte {
	for {
		total, ok := HeaderSize(buf)
		if !ok {
			return buf
		}
		if total >= len(buf) {
			return buf[len(buf):]
		}
		buf = buf[total:]
	}
}
