package email

import (
	"context"
	"fmt"
	"net/mail"
	"net/smtp"
	"strings"

	"github.com/keysnap/keyframe-service/internal/domain/port"
	"go.uber.org/zap"
)

type SMTPNotifier struct {
	addr   string
	from   string
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
	logger *zap.Logger
}

func NewSMTPNotifier(host string, port int, from string, logger *zap.Logger) *SMTPNotifier {
	return &SMTPNotifier{
		addr:   fmt.Sprintf("%s:%d", host, port),
		from:   from,
		send:   smtp.SendMail,
		logger: logger,
	}
}

func (n *SMTPNotifier) NotifyFailure(_ context.Context, notice port.FailureNotice) error {
	if notice.UserEmail == "" {
		return nil
	}
	if err := validateRecipient(notice.UserEmail); err != nil {
		n.logger.Warn("refusing failure notification", zap.String("job_id", notice.JobID), zap.Error(err))
		return err
	}
	msg := buildFailureMessage(n.from, notice)

	if err := n.send(n.addr, nil, n.from, []string{notice.UserEmail}, msg); err != nil {
		n.logger.Error("failed to send failure notification email",
			zap.String("to", notice.UserEmail),
			zap.String("job_id", notice.JobID),
			zap.Error(err),
		)
		return fmt.Errorf("send email: %w", err)
	}

	n.logger.Info("failure notification email sent",
		zap.String("to", notice.UserEmail),
		zap.String("job_id", notice.JobID),
	)
	return nil
}

// validateRecipient accepts a single bare address. Header line breaks are
// rejected before they can reach the To: line.
func validateRecipient(addr string) error {
	if strings.ContainsAny(addr, "\r\n") {
		return fmt.Errorf("invalid recipient %q: contains line break", addr)
	}
	parsed, err := mail.ParseAddress(addr)
	if err != nil {
		return fmt.Errorf("invalid recipient %q: %w", addr, err)
	}
	if parsed.Address != addr {
		return fmt.Errorf("invalid recipient %q: expected a bare address", addr)
	}
	return nil
}

func buildFailureMessage(from string, notice port.FailureNotice) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", notice.UserEmail)
	fmt.Fprintf(&b, "Subject: KeySnap - Keyframe extraction failed [Job %s]\r\n\r\n", notice.JobID)
	b.WriteString("Hello,\r\n\r\n")
	b.WriteString("We could not extract keyframes from your video.\r\n\r\n")
	fmt.Fprintf(&b, "Job ID: %s\r\nVideo: %s\r\nReason: %s\r\n\r\n", notice.JobID, notice.VideoKey, notice.Reason)
	b.WriteString("Please check that the file is a playable video and upload it again.\r\n\r\n")
	b.WriteString("-- KeySnap Keyframe Service")
	return []byte(b.String())
}
