// Package handler renders the server-side portal pages that exercise
// the session pipeline: login and registration forms, role-gated
// dashboards, and profile management.
package handler

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/rentdesk/client-go/internal/core/domain"
	"github.com/rentdesk/client-go/internal/core/ports"
	"github.com/rentdesk/client-go/internal/session"
)

type Portal struct {
	sess *session.Manager
	log  zerolog.Logger
}

func NewPortal(sess *session.Manager, log zerolog.Logger) *Portal {
	return &Portal{sess: sess, log: log}
}

type pageData struct {
	Title string
	Error string
	User  *domain.User
	Role  domain.Role
}

const layoutHTML = `<!doctype html>
<html>
<head><meta charset="utf-8"><title>{{.Title}} · RentDesk</title></head>
<body>
<h1>{{.Title}}</h1>
{{if .Error}}<p role="alert">{{.Error}}</p>{{end}}
{{block "body" .}}{{end}}
</body>
</html>`

var pages = map[string]*template.Template{}

func init() {
	for name, body := range map[string]string{
		"login": `{{define "body"}}
<form method="post" action="/login">
<label>Email <input type="email" name="email" required></label>
<label>Password <input type="password" name="password" required></label>
<button type="submit">Sign in</button>
</form>
<p><a href="/register">Create an account</a></p>
{{end}}`,
		"register": `{{define "body"}}
<form method="post" action="/register">
<label>Email <input type="email" name="email" required></label>
<label>Password <input type="password" name="password" required></label>
<label>First name <input name="firstName" required></label>
<label>Last name <input name="lastName" required></label>
<label>Role <select name="role">
<option value="TENANT">Tenant</option>
<option value="LANDLORD">Landlord</option>
</select></label>
<label>Phone <input name="phoneNumber"></label>
<label>Address <input name="address"></label>
<label>City <input name="city"></label>
<label>State <input name="state"></label>
<label>Zip <input name="zipCode"></label>
<button type="submit">Register</button>
</form>
{{end}}`,
		"dashboard": `{{define "body"}}
<p>Welcome back, {{.User.FirstName}} {{.User.LastName}} ({{.Role}}).</p>
<ul>
<li><a href="/profile">Profile</a></li>
{{if eq .Role "ADMIN"}}<li><a href="/admin">Administration</a></li>{{end}}
{{if or (eq .Role "ADMIN") (eq .Role "LANDLORD")}}<li><a href="/properties">Properties</a></li>{{end}}
</ul>
<form method="post" action="/logout"><button type="submit">Sign out</button></form>
{{end}}`,
		"profile": `{{define "body"}}
<form method="post" action="/profile">
<label>First name <input name="firstName" value="{{.User.FirstName}}"></label>
<label>Last name <input name="lastName" value="{{.User.LastName}}"></label>
<label>Phone <input name="phoneNumber" value="{{.User.PhoneNumber}}"></label>
<label>Address <input name="address" value="{{.User.Address}}"></label>
<label>City <input name="city" value="{{.User.City}}"></label>
<label>State <input name="state" value="{{.User.State}}"></label>
<label>Zip <input name="zipCode" value="{{.User.ZipCode}}"></label>
<button type="submit">Save</button>
</form>
<form method="post" action="/password">
<label>Current password <input type="password" name="currentPassword" required></label>
<label>New password <input type="password" name="newPassword" required></label>
<button type="submit">Change password</button>
</form>
{{end}}`,
		"unauthorized": `{{define "body"}}
<p>Your account does not have access to that page.</p>
<p><a href="/dashboard">Back to dashboard</a></p>
{{end}}`,
		"section": `{{define "body"}}
<p>{{.User.FirstName}}, you are viewing a {{.Role}} area.</p>
<p><a href="/dashboard">Back to dashboard</a></p>
{{end}}`,
	} {
		t := template.Must(template.New("layout").Parse(layoutHTML))
		pages[name] = template.Must(t.Parse(body))
	}
}

func (p *Portal) render(c echo.Context, status int, page string, data pageData) error {
	var buf bytes.Buffer
	if err := pages[page].Execute(&buf, data); err != nil {
		return err
	}
	return c.HTMLBlob(status, buf.Bytes())
}

func (p *Portal) LoginPage(c echo.Context) error {
	if p.sess.CheckAuthenticated(c.Request().Context()) {
		return c.Redirect(http.StatusFound, "/dashboard")
	}
	return p.render(c, http.StatusOK, "login", pageData{Title: "Sign in"})
}

func (p *Portal) Login(c echo.Context) error {
	email := c.FormValue("email")
	password := c.FormValue("password")

	if err := p.sess.Login(c.Request().Context(), email, password); err != nil {
		return p.render(c, http.StatusUnauthorized, "login", pageData{
			Title: "Sign in",
			Error: domain.UserMessage(err),
		})
	}
	return c.Redirect(http.StatusFound, "/dashboard")
}

func (p *Portal) RegisterPage(c echo.Context) error {
	return p.render(c, http.StatusOK, "register", pageData{Title: "Create account"})
}

func (p *Portal) Register(c echo.Context) error {
	in := ports.RegisterInput{
		Email:       c.FormValue("email"),
		Password:    c.FormValue("password"),
		FirstName:   c.FormValue("firstName"),
		LastName:    c.FormValue("lastName"),
		Role:        c.FormValue("role"),
		PhoneNumber: c.FormValue("phoneNumber"),
		Address:     c.FormValue("address"),
		City:        c.FormValue("city"),
		State:       c.FormValue("state"),
		ZipCode:     c.FormValue("zipCode"),
	}

	if err := p.sess.Register(c.Request().Context(), in); err != nil {
		return p.render(c, http.StatusBadRequest, "register", pageData{
			Title: "Create account",
			Error: domain.UserMessage(err),
		})
	}
	return c.Redirect(http.StatusFound, "/dashboard")
}

func (p *Portal) Logout(c echo.Context) error {
	_ = p.sess.Logout(c.Request().Context())
	return c.Redirect(http.StatusFound, "/login")
}

func (p *Portal) Dashboard(c echo.Context) error {
	st := p.sess.State()
	return p.render(c, http.StatusOK, "dashboard", pageData{
		Title: "Dashboard", User: st.User, Role: st.Role, Error: st.Err,
	})
}

// Section serves the role-restricted areas behind the guard; the guard
// has already decided access, so it only needs to render.
func (p *Portal) Section(title string) echo.HandlerFunc {
	return func(c echo.Context) error {
		st := p.sess.State()
		return p.render(c, http.StatusOK, "section", pageData{
			Title: title, User: st.User, Role: st.Role,
		})
	}
}

func (p *Portal) Unauthorized(c echo.Context) error {
	st := p.sess.State()
	return p.render(c, http.StatusForbidden, "unauthorized", pageData{
		Title: "Not authorized", User: st.User, Role: st.Role,
	})
}

func (p *Portal) ProfilePage(c echo.Context) error {
	st := p.sess.State()
	return p.render(c, http.StatusOK, "profile", pageData{
		Title: "Profile", User: st.User, Role: st.Role, Error: st.Err,
	})
}

// UpdateProfile builds a partial update from the submitted form. Every
// submitted field becomes an explicit value — including empty strings,
// which clear the field; only fields absent from the form are left
// unchanged.
func (p *Portal) UpdateProfile(c echo.Context) error {
	params, err := c.FormParams()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}

	field := func(key string) *string {
		if vs, ok := params[key]; ok && len(vs) > 0 {
			v := vs[0]
			return &v
		}
		return nil
	}

	patch := domain.ProfileUpdate{
		FirstName:   field("firstName"),
		LastName:    field("lastName"),
		PhoneNumber: field("phoneNumber"),
		Address:     field("address"),
		City:        field("city"),
		State:       field("state"),
		ZipCode:     field("zipCode"),
	}

	if err := p.sess.UpdateProfile(c.Request().Context(), patch); err != nil {
		st := p.sess.State()
		return p.render(c, http.StatusBadRequest, "profile", pageData{
			Title: "Profile", User: st.User, Role: st.Role,
			Error: domain.UserMessage(err),
		})
	}
	return c.Redirect(http.StatusFound, "/profile")
}

func (p *Portal) ChangePassword(c echo.Context) error {
	err := p.sess.ChangePassword(c.Request().Context(),
		c.FormValue("currentPassword"), c.FormValue("newPassword"))
	if err != nil {
		st := p.sess.State()
		return p.render(c, http.StatusBadRequest, "profile", pageData{
			Title: "Profile", User: st.User, Role: st.Role,
			Error: domain.UserMessage(err),
		})
	}
	return c.Redirect(http.StatusFound, "/profile")
}
