package service

import (
	"mime"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/almuerzo-cl/almuerzo/backend/config"
	"github.com/almuerzo-cl/almuerzo/backend/internal/models"
)

func headerLines(t *testing.T, msg []byte) []string {
	t.Helper()
	head, _, found := strings.Cut(string(msg), "\r\n\r\n")
	require.True(t, found, "message has no header/body separator")
	return strings.Split(head, "\r\n")
}

func TestEmailMessageHeaders(t *testing.T) {
	svc := NewEmailService(&config.Config{EmailFrom: "hola@almuerzo.cl", EmailFromName: "Almuerzo Ñuñoa"}, nil)
	event := &models.LunchEvent{Title: "Almuerzo\r\nBcc: victim@evil.test", Status: models.EventConfirmed}
	event.ID = uuid.New()
	subject := NewMessages(nil, "https://almuerzo.cl").Invitation(event, "Fuente Chilena", "Ana").Title

	msg, err := svc.message("ana@example.cl", subject, "Hola Ana")
	require.NoError(t, err)

	lines := headerLines(t, msg)
	var subjectLine string
	for _, l := range lines {
		assert.False(t, strings.HasPrefix(strings.ToLower(l), "bcc:"), "unexpected header %q", l)
		if strings.HasPrefix(l, "Subject: ") {
			subjectLine = strings.TrimPrefix(l, "Subject: ")
		}
	}
	require.NotEmpty(t, subjectLine)
	assert.True(t, strings.HasPrefix(subjectLine, "=?utf-8?q?"), subjectLine)

	decoded, err := new(mime.WordDecoder).DecodeHeader(subjectLine)
	require.NoError(t, err)
	assert.Contains(t, decoded, "Invitación")
	assert.Contains(t, decoded, "Almuerzo Bcc: victim@evil.test")
	assert.NotContains(t, decoded, "\n")

	assert.Contains(t, lines, "From: =?utf-8?q?Almuerzo_=C3=91u=C3=B1oa?= <hola@almuerzo.cl>")
	assert.True(t, strings.HasSuffix(string(msg), "\r\n\r\nHola Ana\r\n"))
}

func TestSendEmailRejectsRecipientWithLineBreak(t *testing.T) {
	svc := NewEmailService(&config.Config{EmailFrom: "hola@almuerzo.cl"}, nil)
	err := svc.SendEmail("ana@example.cl\r\nBcc: victim@evil.test", "Hola", "cuerpo")
	assert.Error(t, err)

	assert.NoError(t, svc.SendEmail("ana@example.cl", "Hola", "cuerpo"), "unconfigured SMTP only logs")
}
