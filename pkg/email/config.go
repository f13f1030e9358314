package email

// Config holds email service configuration.
// Postmark tokens are optional to support development environments where a
// file-based sender is used instead of the real transport.
type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"SENDER_EMAIL,required"`
	SupportEmail         string `env:"SUPPORT_EMAIL,required"`
	CompanyName          string `env:"COMPANY_NAME" envDefault:"Gatherspace"`
	WebsiteURL           string `env:"COMPANY_WEBSITE" envDefault:"http://localhost:3000"`
	DevSenderDir         string `env:"EMAIL_DEV_DIR"` // when set, emails are written to disk instead of sent
}
