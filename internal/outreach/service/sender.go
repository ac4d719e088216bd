package service

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"outreach_backend/platform/apperr"
	"outreach_backend/platform/config"
	"outreach_backend/platform/logger"

	"github.com/google/uuid"
	gomail "github.com/wneessen/go-mail"
)

const opSend = "outreach.service.send"

// SendInput is one outbound cold email.
type SendInput struct {
	Recipient  string
	Sender     string
	Subject    string
	TextBody   string
	HTMLBody   string
	CampaignID string
}

// SendResult reports the message id and whether the send was simulated.
type SendResult struct {
	MessageID string
	DryRun    bool
}

// Sender delivers cold emails over SMTP. With EMAIL_DRY_RUN on (the
// default) it fabricates a dryrun-<uuid> message id without dialing,
// which keeps demo runs safe.
type Sender struct {
	cfg config.MailConfig
	log *logger.Logger
}

// NewSender creates an SMTP sender.
func NewSender(cfg config.MailConfig, log *logger.Logger) *Sender {
	return &Sender{cfg: cfg, log: log}
}

// TagSubject appends the correlation tag the inbound parser recovers
// campaign and lead from. Subjects already carrying a tag are left alone.
func TagSubject(subject, campaignID, recipient string) string {
	if campaignID == "" || strings.Contains(subject, "[CID:") {
		return subject
	}
	return fmt.Sprintf("%s [CID:%s|%s]", subject, campaignID, strings.ToLower(recipient))
}

// Send delivers one message, fire and forget: a message id comes back,
// nothing about delivery is guaranteed.
func (s *Sender) Send(ctx context.Context, input SendInput) (*SendResult, error) {
	recipient := strings.TrimSpace(input.Recipient)
	subject := strings.TrimSpace(input.Subject)
	if recipient == "" || subject == "" {
		return nil, apperr.Validation("recipient_email and subject are required").WithOp(opSend)
	}
	if strings.TrimSpace(input.TextBody) == "" && strings.TrimSpace(input.HTMLBody) == "" {
		return nil, apperr.Validation("one of email_body, bodyText or bodyHtml is required").WithOp(opSend)
	}

	sender := strings.TrimSpace(input.Sender)
	if sender == "" {
		sender = s.cfg.GetEmailFromAddress()
	}
	if sender == "" && !s.cfg.GetEmailDryRun() {
		return nil, apperr.Validation("sender_email or EMAIL_FROM_ADDRESS is required").WithOp(opSend)
	}

	subject = TagSubject(subject, input.CampaignID, recipient)

	if s.cfg.GetEmailDryRun() {
		messageID := "dryrun-" + uuid.NewString()
		s.log.MailEvent(recipient, messageID, true)
		return &SendResult{MessageID: messageID, DryRun: true}, nil
	}

	messageID := uuid.NewString()

	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.cfg.GetEmailFromName(), sender); err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, "invalid sender address", err).WithOp(opSend)
	}
	if err := msg.To(recipient); err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, "invalid recipient address", err).WithOp(opSend)
	}
	msg.Subject(subject)
	msg.SetMessageIDWithValue(messageID)

	if replyTo := s.cfg.GetEmailReplyToAddress(); replyTo != "" {
		if err := msg.ReplyTo(replyTo); err != nil {
			return nil, apperr.Wrap(apperr.KindValidation, "invalid reply-to address", err).WithOp(opSend)
		}
	}

	if input.TextBody != "" {
		msg.SetBodyString(gomail.TypeTextPlain, input.TextBody)
		if input.HTMLBody != "" {
			msg.AddAlternativeString(gomail.TypeTextHTML, input.HTMLBody)
		}
	} else {
		msg.SetBodyString(gomail.TypeTextHTML, input.HTMLBody)
	}

	client, err := gomail.NewClient(s.cfg.GetSMTPHost(),
		gomail.WithPort(s.cfg.GetSMTPPort()),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.cfg.GetSMTPUsername()),
		gomail.WithPassword(s.cfg.GetSMTPPassword()),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "smtp client init failed", err).WithOp(opSend)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "smtp send failed", err).WithOp(opSend)
	}

	s.log.MailEvent(recipient, messageID, false)
	return &SendResult{MessageID: messageID, DryRun: false}, nil
}
