package utils

import (
	"fmt"
	"html"
	"strings"
)

const mailLayout = `<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { background:#f5f7fb; font-family:Arial, Helvetica, sans-serif; color:#222; }
.container { max-width:640px; margin:20px auto; }
.card { background:#fff; border:1px solid #e6eef6; padding:24px; border-radius:8px; }
.label { font-weight:700; width:160px; display:inline-block; vertical-align:top; }
.btn { display:inline-block; padding:12px 20px; background:#0b74ff; color:#fff; text-decoration:none; border-radius:6px; margin-top:16px; }
.warn { background:#fff7e6; border:1px solid #ffd591; padding:12px; border-radius:6px; }
</style>
</head>
<body>
<div class="container">
  <div class="card">
%s
  </div>
</div>
</body>
</html>`

// row is one "label: value" line rendered in both parts.
type row struct {
	label string
	value string
}

func renderRows(rows []row) (string, string) {
	var text, htm strings.Builder
	for _, r := range rows {
		text.WriteString(fmt.Sprintf("%s: %s\n", r.label, r.value))
		htm.WriteString(fmt.Sprintf("    <p><span class=\"label\">%s:</span> %s</p>\n", html.EscapeString(r.label), html.EscapeString(r.value)))
	}
	return text.String(), htm.String()
}

func ensureScheme(link string) string {
	link = strings.TrimSpace(link)
	if link == "" || strings.HasPrefix(link, "http://") || strings.HasPrefix(link, "https://") {
		return link
	}
	return "https://" + strings.TrimLeft(link, "/")
}

func buildMail(to, subject, greeting, intro string, rows []row, note, linkLabel, link string) Mail {
	rowsText, rowsHTML := renderRows(rows)
	link = ensureScheme(link)

	var text strings.Builder
	text.WriteString(fmt.Sprintf("%s,\n\n%s\n\n%s", greeting, intro, rowsText))
	if note != "" {
		text.WriteString("\n" + note + "\n")
	}
	if link != "" {
		text.WriteString(fmt.Sprintf("\n%s: %s\n", linkLabel, link))
	}

	var body strings.Builder
	body.WriteString(fmt.Sprintf("    <h2>%s</h2>\n", html.EscapeString(subject)))
	body.WriteString(fmt.Sprintf("    <p>%s,</p>\n", html.EscapeString(greeting)))
	body.WriteString(fmt.Sprintf("    <p>%s</p>\n", html.EscapeString(intro)))
	body.WriteString(rowsHTML)
	if note != "" {
		body.WriteString(fmt.Sprintf("    <p class=\"warn\">%s</p>\n", html.EscapeString(note)))
	}
	if link != "" {
		body.WriteString(fmt.Sprintf("    <a class=\"btn\" href=\"%s\" target=\"_blank\">%s</a>\n", html.EscapeString(link), html.EscapeString(linkLabel)))
	}

	return Mail{
		To:      to,
		Subject: subject,
		Text:    text.String(),
		HTML:    fmt.Sprintf(mailLayout, html.EscapeString(subject), body.String()),
	}
}

type BookingMailData struct {
	GuestName         string
	Email             string
	HostelName        string
	RoomNumber        string
	ReferenceCode     string
	CheckIn           string
	TotalAmount       float64
	SecurityDeposit   float64
	TemporaryPassword string
	LoginURL          string
}

// BookingConfirmationMail includes temporary credentials when the booking provisioned the account.
func BookingConfirmationMail(d BookingMailData) Mail {
	rows := []row{
		{"Booking Reference", d.ReferenceCode},
		{"Hostel", d.HostelName},
		{"Room", d.RoomNumber},
		{"Check-In", d.CheckIn},
		{"Total Amount", FormatAmount(d.TotalAmount)},
	}
	if d.SecurityDeposit > 0 {
		rows = append(rows, row{"Security Deposit", FormatAmount(d.SecurityDeposit)})
	}
	note := ""
	if d.TemporaryPassword != "" {
		rows = append(rows, row{"Login Email", d.Email}, row{"Temporary Password", d.TemporaryPassword})
		note = "You will be asked to choose a new password the first time you sign in."
	}
	return buildMail(d.Email, "Booking Confirmation - "+d.ReferenceCode, "Dear "+d.GuestName,
		"Your booking has been received. Here are the details:", rows, note, "Sign in", d.LoginURL)
}

func WelcomeMail(name, email, temporaryPassword, loginURL string) Mail {
	rows := []row{{"Login Email", email}}
	note := ""
	if temporaryPassword != "" {
		rows = append(rows, row{"Temporary Password", temporaryPassword})
		note = "You will be asked to choose a new password the first time you sign in."
	}
	return buildMail(email, "Welcome to the hostel portal", "Hi "+name,
		"An account has been created for you.", rows, note, "Sign in", loginURL)
}

func PaymentReceiptMail(name, email string, paymentID uint, amount float64, paymentType, paidAt string) Mail {
	rows := []row{
		{"Receipt", fmt.Sprintf("#%d", paymentID)},
		{"Type", paymentType},
		{"Amount", FormatAmount(amount)},
		{"Paid At", paidAt},
	}
	return buildMail(email, "Payment Received", "Dear "+name,
		"We have received your payment. Thank you.", rows, "", "", "")
}

func SalaryPaidMail(name, email, month string, net float64, paidAt string) Mail {
	rows := []row{
		{"Month", month},
		{"Net Amount", FormatAmount(net)},
		{"Paid At", paidAt},
	}
	return buildMail(email, "Salary Paid - "+month, "Dear "+name,
		"Your salary has been processed.", rows, "", "", "")
}

func PasswordResetMail(name, email, resetLink string) Mail {
	return buildMail(email, "Reset your password", "Hi "+name,
		"A password reset was requested for your account. The link expires in one hour.",
		nil, "If you did not request this, you can ignore this email.", "Reset password", resetLink)
}
