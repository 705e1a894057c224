package mail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	gmail "google.golang.org/api/gmail/v1"
	goption "google.golang.org/api/option"
)

// GmailSender sends email through the Gmail API on behalf of a
// service account with domain-wide delegation.
type GmailSender struct {
	svc    *gmail.Service
	sender string
}

var _ Sender = (*GmailSender)(nil)

// NewGmailFromEnv creates a Gmail sender using environment variables.
// Credentials come from GOOGLE_SERVICE_ACCOUNT_JSON,
// GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS.
func NewGmailFromEnv(ctx context.Context, sender string) (*GmailSender, error) {
	if strings.TrimSpace(sender) == "" {
		return nil, errors.New("missing sender address")
	}

	svc, err := newGmailService(ctx)
	if err != nil {
		return nil, fmt.Errorf("gmail service: %w", err)
	}

	return &GmailSender{svc: svc, sender: sender}, nil
}

func newGmailService(ctx context.Context) (*gmail.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))

	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gmail.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gmail.GmailSendScope))
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}

	return service, nil
}

func (g *GmailSender) Send(ctx context.Context, to, subject, textBody, htmlBody string) error {
	if g.svc == nil {
		return errors.New("gmail service not initialized")
	}
	if strings.TrimSpace(to) == "" {
		return errors.New("missing recipient address")
	}

	msg := &gmail.Message{
		Raw: buildRFC2822(g.sender, to, subject, textBody, htmlBody),
	}

	_, err := g.svc.Users.Messages.Send("me", msg).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("send message to %s: %w", to, err)
	}

	slog.InfoContext(ctx, "Sent email", "to", to, "subject", subject)
	return nil
}
