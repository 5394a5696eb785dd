package wiki

// Config holds file-based configuration loaded at bootstrap.
type Config struct {
	DatabaseFile string `yaml:"dbfile"`
	Host         string `yaml:"host"`
	BaseURL      string `yaml:"base_url"`
	LogFormat    string `yaml:"log_format"`
	LogLevel     string `yaml:"log_level"`

	// AnonymousRole is the role granted to unauthenticated requests:
	// "anonymous" for a read-only public wiki, "member" for an open one.
	AnonymousRole string `yaml:"anonymous_role"`

	// RenderTimeoutSeconds bounds a single parse pipeline run.
	RenderTimeoutSeconds int `yaml:"render_timeout_seconds"`

	// TemplateMaxDepth is the template recursion ceiling.
	TemplateMaxDepth int `yaml:"template_max_depth"`

	// LinkConcurrency caps parallel link lookups per parse.
	LinkConcurrency int `yaml:"link_concurrency"`
}

// RoleForName maps a configured role name to its role constant.
func RoleForName(name string) int {
	switch name {
	case "member":
		return RoleMember
	case "moderator":
		return RoleModerator
	case "admin":
		return RoleAdmin
	default:
		return RoleAnonymous
	}
}
