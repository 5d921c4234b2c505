// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package mail

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"time"

	"codeberg.org/auisnexus/nexus/internal/i18n"
)

//go:embed templates/*.html
var templateFS embed.FS

var messageTemplate = template.Must(template.ParseFS(templateFS, "templates/message.html"))

// Message is a rendered, localised email.
type Message struct {
	Subject string
	HTML    string
}

type messageData struct {
	Lang      string
	Dir       string
	Title     string
	Heading   string
	Greeting  string
	Intro     string
	Button    string
	URL       string
	Expiry    string
	Ignore    string
	Fallback  string
	Automated string
	Copyright string
}

// Verification renders the email-address confirmation message.
func Verification(ctx context.Context, name, url string, ttl time.Duration) (Message, error) {
	return render(ctx, "email_verification", name, url,
		i18n.TData(ctx, "email_verification_expiry", map[string]any{"Hours": int(ttl.Hours())}))
}

// PasswordReset renders the password reset message.
func PasswordReset(ctx context.Context, name, url string, ttl time.Duration) (Message, error) {
	return render(ctx, "password_reset", name, url,
		i18n.TData(ctx, "password_reset_expiry", map[string]any{"Minutes": int(ttl.Minutes())}))
}

func render(ctx context.Context, prefix, name, url, expiry string) (Message, error) {
	dir := "ltr"
	if i18n.IsRTL(ctx) {
		dir = "rtl"
	}

	subject := i18n.T(ctx, prefix+"_subject")
	data := messageData{
		Lang:      i18n.GetLocale(ctx),
		Dir:       dir,
		Title:     subject,
		Heading:   i18n.T(ctx, prefix+"_heading"),
		Greeting:  i18n.TData(ctx, "email_greeting", map[string]any{"Name": name}),
		Intro:     i18n.T(ctx, prefix+"_intro"),
		Button:    i18n.T(ctx, prefix+"_button"),
		URL:       url,
		Expiry:    expiry,
		Ignore:    i18n.T(ctx, prefix+"_ignore"),
		Fallback:  i18n.T(ctx, "email_link_fallback"),
		Automated: i18n.T(ctx, "email_footer_automated"),
		Copyright: i18n.TData(ctx, "email_footer_copyright", map[string]any{"Year": time.Now().Year()}),
	}

	var buf bytes.Buffer
	if err := messageTemplate.Execute(&buf, data); err != nil {
		return Message{}, err
	}
	return Message{Subject: subject, HTML: buf.String()}, nil
}
