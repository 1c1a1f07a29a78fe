package core

import "net/mail"

type (
	EmailMessage struct {
		To      []mail.Address
		Cc      []mail.Address
		Subject string
		BodyStr string // text/plain
	}

	// EmailService is any service that can send emails
	EmailService interface {
		// SendMessages sends messages concurrently
		SendMessages(messages ...*EmailMessage)
	}
)

func (m *EmailMessage) HasRecipients() bool { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool    { return m.BodyStr != "" }

// ParseAddresses parses the configured recipient list, skipping blank and malformed entries.
func ParseAddresses(list []string) []mail.Address {
	addrs := make([]mail.Address, 0, len(list))
	for _, s := range list {
		s = CleanString(s)
		if s == "" {
			continue
		}
		addr, err := mail.ParseAddress(s)
		if err != nil {
			continue
		}
		addrs = append(addrs, *addr)
	}
	return addrs
}
