package email

import "fmt"

// ConfirmationEmail builds the email-confirmation message for a freshly
// registered user. The link points at the public website which forwards the
// token to the API.
func ConfirmationEmail(cfg Config, to, token string) SendEmailParams {
	link := fmt.Sprintf("%s/confirmemail/%s", cfg.WebsiteURL, token)
	return SendEmailParams{
		SendTo:  to,
		Subject: "Email Confirmation",
		BodyHTML: fmt.Sprintf(
			`<p>Welcome to %s!</p><p>Click on this link to confirm your email: <a href="%s">%s</a></p><p>The link expires in one hour.</p>`,
			cfg.CompanyName, link, link,
		),
		Tag: "email-confirmation",
	}
}

// PasswordResetEmail builds the password-reset message.
func PasswordResetEmail(cfg Config, to, token string) SendEmailParams {
	link := fmt.Sprintf("%s/resetpassword/%s", cfg.WebsiteURL, token)
	return SendEmailParams{
		SendTo:  to,
		Subject: "Password Reset",
		BodyHTML: fmt.Sprintf(
			`<p>Click on this link to reset your password: <a href="%s">%s</a></p><p>The link expires in one hour. If you did not request a reset, you can ignore this message.</p>`,
			link, link,
		),
		Tag: "password-reset",
	}
}
