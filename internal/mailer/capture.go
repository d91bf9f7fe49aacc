package mailer

import "sync"

// Capture records messages instead of sending them. Test helper.
type Capture struct {
	mu   sync.Mutex
	Sent []Message
}

type Message struct {
	To      string
	Subject string
	Body    string
}

func (c *Capture) Send(to, subject, htmlBody string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Sent = append(c.Sent, Message{To: to, Subject: subject, Body: htmlBody})
	return nil
}

func (c *Capture) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Sent = nil
}
