package email

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMailer() *Mailer {
	return &Mailer{
		Host: "smtp.example.com",
		Port: 465,
		From: "agent@example.com",
		To:   "candidate@example.com",
	}
}

func TestBuildMessageHeaders(t *testing.T) {
	msg := string(testMailer().buildMessage("job #3 - Engineer - Acme", "body text", nil, "abc-123"))

	assert.Contains(t, msg, "From: agent@example.com\r\n")
	assert.Contains(t, msg, "To: candidate@example.com\r\n")
	assert.Contains(t, msg, "Subject: job #3 - Engineer - Acme\r\n")
	assert.Contains(t, msg, "Message-ID: <abc-123@smtp.example.com>\r\n")
	assert.Contains(t, msg, "multipart/mixed")
	assert.Contains(t, msg, "body text")
}

func TestBuildMessageAttachments(t *testing.T) {
	content := []byte("\\documentclass{article}")
	msg := string(testMailer().buildMessage("subject", "body", []Attachment{
		{Filename: "doe_resume.tex", Content: content},
	}, "id"))

	assert.Contains(t, msg, `attachment; filename="doe_resume.tex"`)
	assert.Contains(t, msg, "Content-Transfer-Encoding: base64")
	assert.Contains(t, msg, base64.StdEncoding.EncodeToString(content))
}

func TestBuildMessageLongAttachmentWraps(t *testing.T) {
	content := make([]byte, 600)
	for i := range content {
		content[i] = byte(i % 251)
	}

	msg := string(testMailer().buildMessage("subject", "body", []Attachment{
		{Filename: "big.tex", Content: content},
	}, "id"))

	// Base64 payload lines must stay within the MIME line limit.
	inPayload := false
	for _, line := range strings.Split(msg, "\r\n") {
		if strings.HasPrefix(line, "Content-Disposition") {
			inPayload = true
			continue
		}
		if inPayload && line != "" && !strings.Contains(line, ":") && !strings.HasPrefix(line, "--") {
			require.LessOrEqual(t, len(line), 76)
		}
	}
}
