package mail

import (
	"encoding/base64"
	"fmt"
	"mime"
	"strings"
)

// buildRFC2822 assembles a multipart/alternative message and returns it
// base64url-encoded, the raw format the Gmail API expects.
func buildRFC2822(from, to, subject, textBody, htmlBody string) string {
	const boundary = "billa-alt-boundary"

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	b.WriteString("MIME-Version: 1.0\r\n")

	switch {
	case htmlBody == "":
		b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
		b.WriteString(textBody)
	case textBody == "":
		b.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n\r\n")
		b.WriteString(htmlBody)
	default:
		fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=\"%s\"\r\n\r\n", boundary)
		fmt.Fprintf(&b, "--%s\r\n", boundary)
		b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
		b.WriteString(textBody)
		fmt.Fprintf(&b, "\r\n--%s\r\n", boundary)
		b.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n\r\n")
		b.WriteString(htmlBody)
		fmt.Fprintf(&b, "\r\n--%s--\r\n", boundary)
	}

	return base64.URLEncoding.EncodeToString([]byte(b.String()))
}
