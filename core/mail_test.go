package core

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmailMessage_Attach(t *testing.T) {
	msg := new(EmailMessage)
	require.NoError(t, msg.Attach(strings.NewReader("hello"), "hello.txt"))
	require.True(t, msg.HasAttachments())

	at := msg.Attachments[0]
	assert.Equal(t, "hello.txt", at.Filename)
	assert.Equal(t, "text/plain; charset=utf-8", at.ContentType)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("hello")), at.Content.String())
}

func TestEmailMessage_Render(t *testing.T) {
	t.Run("plain body", func(t *testing.T) {
		msg := &EmailMessage{BodyStr: "hi"}
		require.NoError(t, msg.Render())
		assert.Equal(t, "hi", msg.TextContent)
		assert.Empty(t, msg.HTMLContent)
	})

	t.Run("unknown template", func(t *testing.T) {
		msg := &EmailMessage{TemplateName: "nope"}
		assert.Error(t, msg.Render())
	})
}
