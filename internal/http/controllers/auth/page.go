package auth

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/google/uuid"

	"github.com/dropDatabas3/socialconnect/internal/events"
)

// completionPage notifica a window.opener (target "*") y cierra el popup.
var completionPage = template.Must(template.New("completion").Parse(`<!doctype html>
<html>
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body>
<p>{{.Text}}</p>
<script nonce="{{.Nonce}}">
(function () {
  var msg = {{.Message}};
  if (window.opener) {
    window.opener.postMessage(msg, "*");
  }
  window.close();
})();
</script>
</body>
</html>
`))

type pageData struct {
	Title   string
	Text    string
	Nonce   string
	Message events.Message
}

// writePage renderiza la página con CSP por nonce; el único script permitido es el inline.
func writePage(w http.ResponseWriter, status int, m events.Message) error {
	data := pageData{
		Title:   "Authentication complete",
		Text:    "You can close this window.",
		Nonce:   uuid.NewString(),
		Message: m,
	}
	if m.Type == events.TypeAuthFailure {
		data.Title = "Authentication failed"
		data.Text = "Authentication failed. You can close this window and try again."
	}

	var buf bytes.Buffer
	if err := completionPage.Execute(&buf, data); err != nil {
		return err
	}
	h := w.Header()
	h.Set("Content-Type", "text/html; charset=utf-8")
	h.Set("Content-Security-Policy", "default-src 'none'; script-src 'nonce-"+data.Nonce+"'")
	w.WriteHeader(status)
	_, err := w.Write(buf.Bytes())
	return err
}
