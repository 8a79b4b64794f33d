package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

// OTPEmailSubject is the subject line of verification emails.
const OTPEmailSubject = "Your verification code"

// OTPSMS renders the verification text message.
func OTPSMS(code string, ttl time.Duration) string {
	return fmt.Sprintf("Your verification code is %s. It will expire in %d minutes. Do not share this code with anyone.", code, minutes(ttl))
}

var otpEmailHTML = template.Must(template.New("otp").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8" />
<meta name="viewport" content="width=device-width, initial-scale=1.0" />
<title>OTP Verification</title>
</head>
<body style="margin:0; padding:0; font-family: Arial, sans-serif; background-color:#f5f6fa;">
<table align="center" width="100%" border="0" cellspacing="0" cellpadding="0" bgcolor="#f5f6fa">
<tr><td align="center">
<table width="600" border="0" cellspacing="0" cellpadding="20" bgcolor="#ffffff" style="margin:20px auto; border-radius:8px;">
<tr><td style="font-size:16px; color:#333333;">
<p>Hi <strong>{{.Name}}</strong>,</p>
<p>Please use the one-time password below to verify your email address:</p>
<p style="text-align:center; margin:30px 0;">
<span style="display:inline-block; padding:15px 30px; font-size:24px; font-weight:bold; color:#ffffff; background-color:#4f46e5; border-radius:6px; letter-spacing:3px;">{{.Code}}</span>
</p>
<p>This code will expire in <strong>{{.Minutes}} minutes</strong>. Do not share it with anyone.</p>
<p>If you did not request this, please ignore this email.</p>
</td></tr>
<tr><td align="center" style="font-size:12px; color:#888888; border-top:1px solid #eeeeee;">This is an automated email, please do not reply.</td></tr>
</table>
</td></tr>
</table>
</body>
</html>
`))

// OTPEmail builds the verification email for to. An empty name renders as "User".
func OTPEmail(to, name, code string, ttl time.Duration) (EmailMessage, error) {
	if name == "" {
		name = "User"
	}

	var buf bytes.Buffer
	err := otpEmailHTML.Execute(&buf, struct {
		Name    string
		Code    string
		Minutes int
	}{Name: name, Code: code, Minutes: minutes(ttl)})
	if err != nil {
		return EmailMessage{}, fmt.Errorf("render otp email: %w", err)
	}

	return EmailMessage{
		To:      to,
		Subject: OTPEmailSubject,
		Text:    OTPSMS(code, ttl),
		HTML:    buf.String(),
	}, nil
}

func minutes(d time.Duration) int {
	m := int(d.Round(time.Minute) / time.Minute)
	if m < 1 {
		return 1
	}
	return m
}
