package httpx

// Page identifiers used in templates and navigation.
const (
	PageSignIn       = "signin"
	PageDashboard    = "dashboard"
	PageApplications = "applications"
	PageProfile      = "profile"
	PageForbidden    = "forbidden"
	PageNotFound     = "not-found"
)

// Fixed navigation targets.
const (
	PathRoot      = "/"
	PathSignIn    = "/signin"
	PathLogout    = "/logout"
	PathForbidden = "/forbidden"
	PathDashboard = "/dashboard"

	PathApplications = "/applications"
	PathProfile      = "/profile"

	// RedirectParam carries the originally requested path through sign-in.
	RedirectParam = "redirect_uri"
)

// Template paths used for loading templates in tests and production.
const (
	TemplatePathFromRoot = "frontend/templates"
	TemplatePathFromTest = "../../frontend/templates"
)

//nolint:gochecknoglobals // static read-only lookup for templates
var contentTemplates = map[string]string{
	PageSignIn:       "signin-content",
	PageDashboard:    "dashboard-content",
	PageApplications: "applications-content",
	PageProfile:      "profile-content",
	PageForbidden:    "forbidden-content",
	PageNotFound:     "not-found-content",
}

// ContentTemplateFor returns the content template for the given page.
// Unknown pages render the not-found section.
func ContentTemplateFor(page string) string {
	if name, ok := contentTemplates[page]; ok {
		return name
	}
	return "not-found-content"
}
