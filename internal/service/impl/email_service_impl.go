package impl

import (
	"bytes"
	"context"
	"html/template"
	"net/url"
	"strings"

	"auth/internal/mailer"
	"auth/internal/service"
)

var _ service.EmailService = (*EmailServiceImpl)(nil)

var (
	verifyTmpl = template.Must(template.New("verify").Parse(
		`<p>Welcome to TaskHub.</p>
<p>Confirm your email address by opening the link below. It expires in one hour.</p>
<p><a href="{{.Link}}">Verify email</a></p>`))
	resetTmpl = template.Must(template.New("reset").Parse(
		`<p>We received a request to reset your TaskHub password.</p>
<p>The link below expires in 15 minutes. Ignore this email if you did not ask for it.</p>
<p><a href="{{.Link}}">Reset password</a></p>`))
)

// EmailServiceImpl renders account mail and hands it to a mailer.Sender.
type EmailServiceImpl struct {
	Sender         mailer.Sender
	FrontendOrigin string
}

func NewEmailServiceImpl(sender mailer.Sender, frontendOrigin string) *EmailServiceImpl {
	return &EmailServiceImpl{Sender: sender, FrontendOrigin: strings.TrimRight(frontendOrigin, "/")}
}

func (e *EmailServiceImpl) SendVerification(ctx context.Context, to, token string) error {
	return e.send(ctx, to, "Verify your email", verifyTmpl, "/verify-email", token)
}

func (e *EmailServiceImpl) SendPasswordReset(ctx context.Context, to, token string) error {
	return e.send(ctx, to, "Reset your password", resetTmpl, "/reset-password", token)
}

func (e *EmailServiceImpl) send(ctx context.Context, to, subject string, tmpl *template.Template, path, token string) error {
	var body bytes.Buffer
	if err := tmpl.Execute(&body, struct{ Link string }{Link: e.link(path, token)}); err != nil {
		return err
	}
	return e.Sender.Send(ctx, to, subject, body.String())
}

func (e *EmailServiceImpl) link(path, token string) string {
	return e.FrontendOrigin + path + "?token=" + url.QueryEscape(token)
}
