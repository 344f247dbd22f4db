package mailx_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/aussiebroadwan/explorer/pkg/mailx"
	"github.com/stretchr/testify/require"
)

func TestLink(t *testing.T) {
	tok := "ab12"
	require.Equal(t, "https://apps.example/verify?token=ab12",
		mailx.Link("https://apps.example/", mailx.TemplateVerifyEmail, tok))
	require.Equal(t, "http://localhost:5173/reset-password?token=ab12",
		mailx.Link("http://localhost:5173", mailx.TemplateResetPassword, tok))
}

func TestParseLocale(t *testing.T) {
	require.Equal(t, mailx.LocaleEN, mailx.ParseLocale("EN"))
	require.Equal(t, mailx.LocaleVI, mailx.ParseLocale("vi"))
	require.Equal(t, mailx.LocaleVI, mailx.ParseLocale(""))
	require.Equal(t, mailx.LocaleVI, mailx.ParseLocale("fr"))
}

func TestRender(t *testing.T) {
	link := "https://apps.example/reset-password?token=ab12"

	t.Run("reset in english", func(t *testing.T) {
		msg, err := mailx.Render(mailx.TemplateResetPassword, mailx.LocaleEN, "a@x.com", "Alice", link)
		require.NoError(t, err)
		require.Equal(t, "a@x.com", msg.To)
		require.Equal(t, "Reset your password · VNLF App Explorer", msg.Subject)
		require.Contains(t, msg.HTML, "Hi Alice!")
		require.Contains(t, msg.HTML, "This link expires in 1 hour.")
		require.Contains(t, msg.HTML, `href="https://apps.example/reset-password?token=ab12"`)
	})

	t.Run("verify in vietnamese", func(t *testing.T) {
		msg, err := mailx.Render(mailx.TemplateVerifyEmail, mailx.LocaleVI, "a@x.com", "An", link)
		require.NoError(t, err)
		require.Equal(t, "Xác thực email · VNLF App Explorer", msg.Subject)
		require.Contains(t, msg.HTML, "Xin chào An!")
		require.Contains(t, msg.HTML, "<strong>VNLF App Explorer</strong>")
	})

	t.Run("display name is escaped", func(t *testing.T) {
		msg, err := mailx.Render(mailx.TemplateVerifyEmail, mailx.LocaleEN, "a@x.com", "<script>x</script>", link)
		require.NoError(t, err)
		require.NotContains(t, msg.HTML, "<script>")
		require.Contains(t, msg.HTML, "&lt;script&gt;")
	})

	t.Run("plain text alternative", func(t *testing.T) {
		msg, err := mailx.Render(mailx.TemplateResetPassword, mailx.LocaleEN, "a@x.com", "Tom & Jerry's", link)
		require.NoError(t, err)
		require.NotContains(t, msg.Text, "<")
		require.NotContains(t, msg.Text, "&amp;")
		require.Contains(t, msg.Text, "Hi Tom & Jerry's!")
		require.Contains(t, msg.Text, "This link expires in 1 hour.")
		require.Contains(t, msg.Text, link)
	})

	t.Run("unknown template", func(t *testing.T) {
		_, err := mailx.Render("welcome", mailx.LocaleEN, "a@x.com", "A", link)
		require.Error(t, err)
	})
}

type outcomes struct{ got map[string][]error }

func (o *outcomes) EmailSent(tmpl string, err error) {
	if o.got == nil {
		o.got = map[string][]error{}
	}
	o.got[tmpl] = append(o.got[tmpl], err)
}

type failing struct{}

func (failing) Send(context.Context, mailx.Message) error { return errors.New("smtp down") }

func TestObserve(t *testing.T) {
	obs := &outcomes{}
	var buf bytes.Buffer
	ok := mailx.Observe(mailx.Log{Logger: slog.New(slog.NewJSONHandler(&buf, nil))}, obs)
	bad := mailx.Observe(failing{}, obs)

	msg := mailx.Message{Template: mailx.TemplateVerifyEmail, To: "a@x.com", Subject: "s"}
	require.NoError(t, ok.Send(context.Background(), msg))
	require.Error(t, bad.Send(context.Background(), msg))

	require.Len(t, obs.got["verify_email"], 2)
	require.NoError(t, obs.got["verify_email"][0])
	require.Error(t, obs.got["verify_email"][1])
	require.Contains(t, buf.String(), "a@x.com")
}
