package httpx

import (
	"net/http"
	"time"

	domainauth "github.com/sakunasanka/Sona-frontend-admin-sub000/internal/domain/auth"
)

// PageMeta contains metadata for page rendering.
type PageMeta struct {
	Title       string
	PageTitle   string
	CurrentPage string
}

// UserView is what templates see of the signed-in user.
type UserView struct {
	Subject   string
	Email     string
	Role      string
	Elevated  bool
	ExpiresAt time.Time
	State     string
}

func userViewFor(s domainauth.Session) *UserView {
	if s.State != domainauth.StateValidCredential {
		return nil
	}
	u := &UserView{
		Subject:  s.Claims.Subject(),
		Email:    s.Claims.Email(),
		Role:     string(s.Role()),
		Elevated: s.Role().IsElevated(),
		State:    string(s.State),
	}
	if s.Claims.HasExp {
		u.ExpiresAt = s.Claims.ExpiresAt()
	}
	return u
}

// basePageData constructs the common page data map with user context.
func basePageData(r *http.Request, meta PageMeta) map[string]any {
	data := map[string]any{
		"Title":           meta.Title,
		"PageTitle":       meta.PageTitle,
		"CurrentPage":     meta.CurrentPage,
		"IsAuthenticated": false,
	}
	if token := GetCSRFToken(r); token != "" {
		data["CSRFToken"] = token
	}
	if session, ok := GetSessionFromContext(r.Context()); ok {
		if u := userViewFor(session); u != nil {
			data["User"] = u
			data["IsAuthenticated"] = true
			data["IsElevated"] = u.Elevated
		}
	}
	return data
}

// TemplateDataBuilder provides a fluent API for building template data maps.
type TemplateDataBuilder struct {
	data map[string]any
}

// NewTemplateData creates a new TemplateDataBuilder initialized with basePageData.
func NewTemplateData(r *http.Request, meta PageMeta) *TemplateDataBuilder {
	return &TemplateDataBuilder{data: basePageData(r, meta)}
}

// WithError sets a general error message.
func (b *TemplateDataBuilder) WithError(msg string) *TemplateDataBuilder {
	b.data["Error"] = true
	b.data["ErrorMessage"] = msg
	return b
}

// WithFieldErrors adds field-level validation errors.
func (b *TemplateDataBuilder) WithFieldErrors(errs map[string]string) *TemplateDataBuilder {
	if len(errs) > 0 {
		b.data["Errors"] = errs
	}
	return b
}

// With adds a custom field to the template data.
func (b *TemplateDataBuilder) With(key string, value any) *TemplateDataBuilder {
	b.data[key] = value
	return b
}

// Build returns the final template data map.
func (b *TemplateDataBuilder) Build() map[string]any {
	return b.data
}
