package notify

import (
	"bytes"
	"fmt"
	"mime"
	"time"

	"github.com/google/uuid"
)

// Message is a single outgoing HTML email.
type Message struct {
	ID      string
	From    string
	To      string
	Subject string
	HTML    string
	Date    time.Time
}

func newMessage(from, to, subject, html string) *Message {
	return &Message{
		ID:      uuid.NewString(),
		From:    from,
		To:      to,
		Subject: subject,
		HTML:    html,
		Date:    time.Now().UTC(),
	}
}

// Bytes renders the message as an RFC 5322 document with a UTF-8 HTML body.
func (m *Message) Bytes() []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "Message-ID: <%s@acedema.com>\r\n", m.ID)
	fmt.Fprintf(&b, "Date: %s\r\n", m.Date.Format(time.RFC1123Z))
	fmt.Fprintf(&b, "From: %s\r\n", m.From)
	fmt.Fprintf(&b, "To: %s\r\n", m.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", m.Subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	b.WriteString("\r\n")
	b.WriteString(m.HTML)
	return b.Bytes()
}
