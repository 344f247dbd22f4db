package mailx

import (
	"bytes"
	"embed"
	"fmt"
	"html"
	"html/template"
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Template names an email kind.
type Template string

const (
	TemplateVerifyEmail   Template = "verify_email"
	TemplateResetPassword Template = "reset_password"
)

// Locale selects the language of an email. Anything unknown falls back to
// LocaleVI.
type Locale string

const (
	LocaleVI Locale = "vi"
	LocaleEN Locale = "en"
)

// ParseLocale maps free-form input to a supported Locale.
func ParseLocale(s string) Locale {
	if strings.EqualFold(strings.TrimSpace(s), string(LocaleEN)) {
		return LocaleEN
	}
	return LocaleVI
}

//go:embed templates/*.html.tmpl
var templateFS embed.FS

type copyText struct {
	Subject  string
	Greeting string
	Intro    string
	CTA      string
	Button   string
	Alt      string
	Expires  string
}

var copies = map[Template]map[Locale]copyText{
	TemplateVerifyEmail: {
		LocaleVI: {
			Subject:  "Xác thực email · VNLF App Explorer",
			Greeting: "Xin chào",
			Intro:    "Cảm ơn bạn đã đăng ký",
			CTA:      "Nhấn nút bên dưới để xác thực email:",
			Button:   "Xác thực email",
			Alt:      "Hoặc copy link:",
		},
		LocaleEN: {
			Subject:  "Verify your email · VNLF App Explorer",
			Greeting: "Hi",
			Intro:    "Thank you for signing up for",
			CTA:      "Click the button below to verify your email:",
			Button:   "Verify Email",
			Alt:      "Or copy this link:",
		},
	},
	TemplateResetPassword: {
		LocaleVI: {
			Subject:  "Đặt lại mật khẩu · VNLF App Explorer",
			Greeting: "Xin chào",
			Intro:    "Bạn đã yêu cầu đặt lại mật khẩu.",
			Button:   "Đặt lại mật khẩu",
			Expires:  "Link có hiệu lực trong 1 giờ.",
		},
		LocaleEN: {
			Subject:  "Reset your password · VNLF App Explorer",
			Greeting: "Hi",
			Intro:    "You requested a password reset.",
			Button:   "Reset Password",
			Expires:  "This link expires in 1 hour.",
		},
	},
}

var templates = map[Template]*template.Template{
	TemplateVerifyEmail:   parse("verify.html.tmpl"),
	TemplateResetPassword: parse("reset.html.tmpl"),
}

func parse(body string) *template.Template {
	return template.Must(template.ParseFS(templateFS, "templates/layout.html.tmpl", "templates/"+body))
}

// linkPaths is where each template's link lands on the web client.
var linkPaths = map[Template]string{
	TemplateVerifyEmail:   "/verify",
	TemplateResetPassword: "/reset-password",
}

// Link builds "<base>/verify?token=..." style URLs.
func Link(base string, tmpl Template, token string) string {
	return strings.TrimRight(base, "/") + linkPaths[tmpl] + "?token=" + url.QueryEscape(token)
}

// Render produces a ready-to-send Message.
func Render(tmpl Template, locale Locale, to, displayName, link string) (Message, error) {
	byLocale, ok := copies[tmpl]
	if !ok {
		return Message{}, fmt.Errorf("mailx: unknown template %q", tmpl)
	}
	text, ok := byLocale[locale]
	if !ok {
		text = byLocale[LocaleVI]
	}

	var buf bytes.Buffer
	err := templates[tmpl].ExecuteTemplate(&buf, "layout", struct {
		Text        copyText
		DisplayName string
		Link        string
	}{text, displayName, link})
	if err != nil {
		return Message{}, fmt.Errorf("mailx: render %s: %w", tmpl, err)
	}

	return Message{
		Template: tmpl,
		To:       to,
		Subject:  text.Subject,
		HTML:     buf.String(),
		Text:     plainText(buf.String(), link),
	}, nil
}

var stripTags = bluemonday.StrictPolicy()

// plainText derives the text/plain alternative from a rendered body. The
// link goes on its own line when the body only carried it in an href.
func plainText(body, link string) string {
	stripped := html.UnescapeString(stripTags.Sanitize(body))

	var lines []string
	for _, line := range strings.Split(stripped, "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	if !strings.Contains(stripped, link) {
		lines = append(lines, link)
	}
	return strings.Join(lines, "\n\n")
}
