package services

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"gopkg.in/gomail.v2"

	"yatube/config"
	"yatube/models"
)

// EmailService sends comment notifications over SMTP.
type EmailService struct {
	config *config.Config
	send   func(m ...*gomail.Message) error
	logger *slog.Logger
}

func NewEmailService(cfg *config.Config, logger *slog.Logger) *EmailService {
	dialer := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)

	return &EmailService{
		config: cfg,
		send:   dialer.DialAndSend,
		logger: logger,
	}
}

// NotifyComment emails the post's author about comment. Authors without an
// email address are skipped.
func (es *EmailService) NotifyComment(ctx context.Context, post *models.Post, comment *models.Comment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if post.Author.Email == "" {
		return nil
	}

	postURL := fmt.Sprintf("%s/posts/%d/", strings.TrimSuffix(es.config.SiteURL, "/"), post.ID)
	commenter := comment.Author.FullName()

	m := gomail.NewMessage()
	m.SetHeader("From", fmt.Sprintf("%s <%s>", es.config.FromName, es.config.FromEmail))
	m.SetHeader("To", post.Author.Email)
	m.SetHeader("Subject", fmt.Sprintf("%s - new comment on \"%s\"", es.config.FromName, post.String()))

	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>New comment</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .content { background: #f8f9fa; padding: 30px; border-radius: 10px; }
        .quote { background: #e9ecef; padding: 15px; border-left: 4px solid #007bff; margin: 20px 0; }
        .btn { display: inline-block; background: #007bff; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="content">
            <h2>Hello %s!</h2>
            <p><strong>%s</strong> commented on your post:</p>
            <div class="quote">%s</div>
            <a class="btn" href="%s">Open the post</a>
        </div>
    </div>
</body>
</html>`,
		html.EscapeString(post.Author.FullName()),
		html.EscapeString(commenter),
		html.EscapeString(comment.Text),
		html.EscapeString(postURL),
	)

	textBody := fmt.Sprintf(`
Hello %s!

%s commented on your post:

%s

Open the post: %s
`, post.Author.FullName(), commenter, comment.Text, postURL)

	m.SetBody("text/plain", textBody)
	m.AddAlternative("text/html", htmlBody)

	if err := es.send(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	es.logger.Info("comment notification sent", "post_id", post.ID, "to", post.Author.Email)
	return nil
}
