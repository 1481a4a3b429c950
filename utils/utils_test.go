package utils

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	hostel := uint(7)
	tok, err := IssueToken(42, "WARDEN", &hostel, "sess-1", "hostel", "k1", time.Now().Add(time.Hour))
	require.NoError(t, err)

	claims, err := ParseToken(tok, "k1", "hostel")
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.EqualValues(t, 42, id)
	assert.Equal(t, "WARDEN", claims.Role)
	assert.Equal(t, "sess-1", claims.ID)
	require.NotNil(t, claims.HostelID)
	assert.EqualValues(t, 7, *claims.HostelID)

	_, err = ParseToken(tok, "other-key", "hostel")
	assert.Error(t, err)
	_, err = ParseToken(tok, "k1", "someone-else")
	assert.Error(t, err)
}

func TestParseTokenRejects(t *testing.T) {
	expired, err := IssueToken(1, "ADMIN", nil, "s", "hostel", "k", time.Now().Add(-time.Minute))
	require.NoError(t, err)
	_, err = ParseToken(expired, "k", "hostel")
	assert.Error(t, err)

	noID, err := IssueToken(1, "ADMIN", nil, "", "hostel", "k", time.Now().Add(time.Hour))
	require.NoError(t, err)
	_, err = ParseToken(noID, "k", "hostel")
	assert.EqualError(t, err, "missing token id")

	_, err = ParseToken("not.a.token", "k", "hostel")
	assert.Error(t, err)
}

func TestGeneratedValues(t *testing.T) {
	now := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	ref, err := GenerateReferenceCode(now)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^BK-20261015-[A-HJ-NP-Z2-9]{6}$`), ref)

	pw, err := GenerateTemporaryPassword()
	require.NoError(t, err)
	assert.Len(t, pw, 12)

	tok, err := GenerateSecureToken(32)
	require.NoError(t, err)
	assert.Len(t, tok, 64)
	other, err := GenerateSecureToken(32)
	require.NoError(t, err)
	assert.NotEqual(t, tok, other)

	_, err = GenerateSecureToken(0)
	assert.Error(t, err)
}

func TestEmailHelpers(t *testing.T) {
	assert.Equal(t, "jane.doe@example.com", NormalizeEmail("  Jane.Doe@Example.COM "))
	assert.Equal(t, "j******e@e******.com", MaskEmail("jane.doe@example.com"))
	assert.Equal(t, "a*@x.io", MaskEmail("ab@x.io"))
	assert.Equal(t, "not-an-email", MaskEmail("not-an-email"))
}

func TestBookingConfirmationMail(t *testing.T) {
	base := BookingMailData{
		GuestName:     "Sara <Admin>",
		Email:         "sara@example.com",
		HostelName:    "North Wing",
		RoomNumber:    "12",
		ReferenceCode: "BK-20261015-ABCDEF",
		CheckIn:       "2026-10-20",
		TotalAmount:   15000,
		LoginURL:      "hostel.example.com/login",
	}

	m := BookingConfirmationMail(base)
	assert.Equal(t, "sara@example.com", m.To)
	assert.Contains(t, m.Subject, "BK-20261015-ABCDEF")
	assert.Contains(t, m.Text, "Total Amount: 15000.00")
	assert.NotContains(t, m.Text, "Temporary Password")
	assert.Contains(t, m.Text, "https://hostel.example.com/login")
	assert.Contains(t, m.HTML, "Sara &lt;Admin&gt;")
	assert.NotContains(t, m.HTML, "<Admin>")

	base.TemporaryPassword = "Tmp9xYzPq2Ab"
	base.SecurityDeposit = 5000
	m = BookingConfirmationMail(base)
	assert.Contains(t, m.Text, "Temporary Password: Tmp9xYzPq2Ab")
	assert.Contains(t, m.Text, "Security Deposit: 5000.00")
}

func TestBuildMIME(t *testing.T) {
	raw := string(BuildMIME("Hostel <no-reply@example.com>", Mail{
		To:      "guest@example.com\r\nBcc: evil@example.com",
		Subject: "Hello",
		Text:    "plain body",
		HTML:    "<p>html body</p>",
	}))
	assert.Contains(t, raw, "Subject: Hello\r\n")
	assert.NotContains(t, raw, "\r\nBcc:")
	assert.Contains(t, raw, "plain body")
	assert.Contains(t, raw, "<p>html body</p>")
	assert.True(t, strings.HasSuffix(raw, "--"+mimeBoundary+"--\r\n"))
}

func TestWriteCSV(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	require.NoError(t, WriteCSV(c, "report", []string{"month", "revenue"}, [][]string{
		{"2026-10", FormatAmount(1500)},
		{"2026-09", FormatAmount(999.999)},
	}))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), `filename="report-`)
	assert.Equal(t, "month,revenue\n2026-10,1500.00\n2026-09,1000.00\n", w.Body.String())
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "", FormatDate(nil))
	d := time.Date(2026, 1, 2, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026-01-02", FormatDate(&d))
}
