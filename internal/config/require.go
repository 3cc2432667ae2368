package config

import "log"

func MustNonEmpty(value, envName string) {
	if value == "" {
		log.Fatalf("missing required env %s", envName)
	}
}

// MustValidate refuses startup when any security-sensitive setting is
// absent. Running without a signing secret is never acceptable.
func (c *Config) MustValidate() {
	MustNonEmpty(c.DATABASE_URL, "DATABASE_URL")
	MustNonEmpty(c.JWT_SECRET, "JWT_SECRET")
	MustNonEmpty(c.REFRESH_SECRET, "REFRESH_SECRET")
	MustNonEmpty(c.BASE_URL, "BASE_URL")
	MustNonEmpty(c.SMTP_HOST, "SMTP_HOST")
	MustNonEmpty(c.SMTP_PORT, "SMTP_PORT")
	MustNonEmpty(c.MAIL_FROM, "MAIL_FROM")
}
