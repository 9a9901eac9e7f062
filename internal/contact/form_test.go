package contact

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ChocoStore/pkg/kit"
)

func validForm() Form {
	return Form{
		Name:    "María Núñez",
		Email:   "maria.nunez@example.com",
		Phone:   "0991234567",
		Subject: "pedido",
		Message: "Quisiera encargar una caja de bombones.",
	}
}

func TestForm_Valid(t *testing.T) {
	assert.NoError(t, validForm().Normalize().Validate())
}

func TestForm_FieldErrors(t *testing.T) {
	cases := []struct {
		name  string
		edit  func(*Form)
		field string
		msg   string
	}{
		{"empty name", func(f *Form) { f.Name = "   " }, "name", "is required"},
		{"short name", func(f *Form) { f.Name = "Al" }, "name", "must be at least 3 characters"},
		{"digits in name", func(f *Form) { f.Name = "R2D2 Robot" }, "name", "must contain only letters and spaces"},
		{"bad email", func(f *Form) { f.Email = "maria@example" }, "email", "must be a valid email"},
		{"long tld", func(f *Form) { f.Email = "a@b.chocolate" }, "email", "must be a valid email"},
		{"short phone", func(f *Form) { f.Phone = "12345" }, "phone", "must be exactly 10 digits"},
		{"phone with dashes", func(f *Form) { f.Phone = "099-123-456" }, "phone", "must be exactly 10 digits"},
		{"no subject", func(f *Form) { f.Subject = "" }, "subject", "is required"},
		{"short message", func(f *Form) { f.Message = "  hola   " }, "message", "must be at least 10 characters"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := validForm()
			tc.edit(&f)

			err := f.Normalize().Validate()
			var fields FieldErrors
			require.ErrorAs(t, err, &fields)
			assert.Equal(t, FieldErrors{tc.field: tc.msg}, fields)
		})
	}
}

func TestSubmitter_Delay(t *testing.T) {
	s := NewSubmitter(20*time.Millisecond, nil)

	start := time.Now()
	r, err := s.Submit(context.Background(), validForm())
	require.NoError(t, err)
	assert.NotEmpty(t, r.ID)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestSubmitter_HonoursCancellation(t *testing.T) {
	s := NewSubmitter(time.Hour, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := s.Submit(ctx, validForm())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSubmitter_RejectsInvalidBeforeWaiting(t *testing.T) {
	s := NewSubmitter(time.Hour, nil)
	f := validForm()
	f.Phone = ""

	_, err := s.Submit(context.Background(), f)
	var fields FieldErrors
	assert.ErrorAs(t, err, &fields)
}

func TestContactHTTP(t *testing.T) {
	srv := &Server{
		Submitter: NewSubmitter(0, nil),
		Limiter:   kit.NewIPRateLimiter(2, time.Minute),
	}
	h := srv.Handler()

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(body))
		req.RemoteAddr = "10.1.1.1:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := post(`{"name":"Ana Paz","email":"ana@paz.ec","phone":"0987654321","subject":"info","message":"¿Hacen envíos a Quito?"}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)

	rec = post(`{"name":"A","email":"x","phone":"1","subject":"","message":"corto"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), `"phone":"must be exactly 10 digits"`)

	rec = post(`{}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
