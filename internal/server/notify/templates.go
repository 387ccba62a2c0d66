package notify

import (
	"bytes"
	"html/template"
)

const (
	SubjectTemporaryCredential = "Sus credenciales de ACEDEMA.COM"
	SubjectResetLink           = "Recuperación de contraseña - ACEDEMA"
)

var temporaryCredentialTmpl = template.Must(template.New("credencial").Parse(`<html>
<body style="font-family: Arial, sans-serif;">
<p>Estimado(a) {{.Name}},</p>
<p>Se ha creado su cuenta en ACEDEMA.COM. Sus credenciales de acceso son:</p>
<ul>
<li><strong>Usuario:</strong> {{.Email}}</li>
<li><strong>Contraseña temporal:</strong> {{.Password}}</li>
</ul>
<p>Por seguridad, cambie su contraseña después de iniciar sesión.</p>
<p>Atentamente,<br>ACEDEMA</p>
</body>
</html>
`))

var resetLinkTmpl = template.Must(template.New("recuperacion").Parse(`<html>
<body style="font-family: Arial, sans-serif;">
<p>Hemos recibido una solicitud para restablecer la contraseña de su cuenta.</p>
<p><a href="{{.Link}}">Restablecer contraseña</a></p>
<p>Si usted no realizó esta solicitud, ignore este correo.</p>
<p>Atentamente,<br>ACEDEMA</p>
</body>
</html>
`))

// Composer renders the HTML bodies. Values are escaped by html/template.
type Composer struct {
	from string
}

func NewComposer(from string) *Composer {
	return &Composer{from: from}
}

func (c *Composer) TemporaryCredential(fullName, email, plaintext string) (*Message, error) {
	body, err := render(temporaryCredentialTmpl, struct {
		Name, Email, Password string
	}{fullName, email, plaintext})
	if err != nil {
		return nil, err
	}
	return newMessage(c.from, email, SubjectTemporaryCredential, body), nil
}

func (c *Composer) ResetLink(email, link string) (*Message, error) {
	body, err := render(resetLinkTmpl, struct{ Link string }{link})
	if err != nil {
		return nil, err
	}
	return newMessage(c.from, email, SubjectResetLink, body), nil
}

func render(t *template.Template, data any) (string, error) {
	var b bytes.Buffer
	if err := t.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}
