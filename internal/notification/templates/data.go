package templates

// VerifyEmailData holds variables for the auth.verify_email scenario.
// VerifyURL carries the single-use token; the plaintext token appears
// nowhere else.
type VerifyEmailData struct {
	DisplayName  string
	VerifyURL    string
	SupportEmail string
}

// VerifyEmail is the typed handle for the auth.verify_email template.
var VerifyEmail = Expect[VerifyEmailData]("auth.verify_email")

// PasswordResetData holds variables for the auth.password_reset scenario.
type PasswordResetData struct {
	DisplayName  string
	ResetURL     string
	SupportEmail string
}

// PasswordReset is the typed handle for the auth.password_reset template.
var PasswordReset = Expect[PasswordResetData]("auth.password_reset")
