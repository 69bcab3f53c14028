package imageprocessor

import (
	"bytes"
	"encoding/base64"
	"image"
	"strings"

	// Decoders registered for format sniffing.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const base64Marker = "base64,"

// Payload is a document image as received from a client.
type Payload struct {
	// Encoded is the base64 text with any data URI header removed.
	Encoded string
	// Data holds the decoded bytes, or the encoded text when it is not valid base64.
	Data []byte
	// Decoded reports whether Data came from a successful base64 decode.
	Decoded bool
	// Format is the sniffed image format ("png", "jpeg", ...), empty when unknown.
	Format string
}

// Empty reports whether there is nothing to analyse.
func (p Payload) Empty() bool {
	return strings.TrimSpace(p.Encoded) == ""
}

// StripDataURI drops everything up to and including the first "base64,".
func StripDataURI(documentImage string) string {
	if _, after, found := strings.Cut(documentImage, base64Marker); found {
		return after
	}
	return documentImage
}

// DecodePayload strips the data URI header and decodes the payload on a best-effort basis.
// Text that is not valid base64 is kept verbatim rather than rejected.
func DecodePayload(documentImage string) Payload {
	encoded := StripDataURI(documentImage)
	p := Payload{Encoded: encoded, Data: []byte(encoded)}
	if p.Empty() {
		return p
	}

	data, ok := decodeBase64(strings.TrimSpace(encoded))
	if !ok {
		return p
	}
	p.Data = data
	p.Decoded = true
	if _, format, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		p.Format = format
	}
	return p
}

func decodeBase64(s string) ([]byte, bool) {
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	} {
		if data, err := enc.DecodeString(s); err == nil {
			return data, true
		}
	}
	return nil, false
}
