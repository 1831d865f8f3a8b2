package mailer

import (
	"embed"
	"html/template"
	"strings"
)

// Template names map 1:1 onto files under templates/.
const (
	TemplateActivateAccount = "activate_account.html"
	TemplateResetPassword   = "reset_password.html"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Render executes the named template with the given data.
func Render(name string, data map[string]any) (string, error) {
	var b strings.Builder
	if err := templates.ExecuteTemplate(&b, name, data); err != nil {
		return "", err
	}
	return b.String(), nil
}
