package email

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"time"
)

// buildMessage assembles the raw RFC 5322 message. It is separated from
// Send so tests can inspect the bytes without a live SMTP server.
func (m *Mailer) buildMessage(subject, body string, attachments []Attachment, messageID string) []byte {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fmt.Fprintf(&buf, "From: %s\r\n", m.From)
	fmt.Fprintf(&buf, "To: %s\r\n", m.To)
	fmt.Fprintf(&buf, "Subject: %s\r\n", subject)
	fmt.Fprintf(&buf, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	fmt.Fprintf(&buf, "Message-ID: <%s@%s>\r\n", messageID, m.Host)
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n", mw.Boundary())
	fmt.Fprintf(&buf, "\r\n")

	textHeader := textproto.MIMEHeader{}
	textHeader.Set("Content-Type", "text/plain; charset=utf-8")
	textPart, _ := mw.CreatePart(textHeader)
	fmt.Fprintf(textPart, "%s\r\n", body)

	for _, att := range attachments {
		header := textproto.MIMEHeader{}
		header.Set("Content-Type", "application/octet-stream")
		header.Set("Content-Transfer-Encoding", "base64")
		header.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", att.Filename))

		part, _ := mw.CreatePart(header)
		writeBase64(part, att.Content)
	}

	mw.Close()
	return buf.Bytes()
}

// writeBase64 encodes content in 76-character lines as MIME requires.
func writeBase64(w io.Writer, content []byte) {
	encoded := base64.StdEncoding.EncodeToString(content)
	for len(encoded) > 76 {
		fmt.Fprintf(w, "%s\r\n", encoded[:76])
		encoded = encoded[76:]
	}
	fmt.Fprintf(w, "%s\r\n", encoded)
}
