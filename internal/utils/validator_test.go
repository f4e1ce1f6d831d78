package utils

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/RecoveryAshes/imgscrape/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestHeaderValidator_ValidateHeader(t *testing.T) {
	hv := NewHeaderValidator()

	tests := []struct {
		name      string
		header    string
		value     string
		wantErr   bool
		wantField string
	}{
		{"合法的Referer", "Referer", "https://www.google.com/", false, ""},
		{"禁止的Host", "Host", "example.com", true, "name"},
		{"大小写不敏感的禁止头部", "content-length", "10", true, "name"},
		{"名称含空格", "X Custom", "v", true, "name"},
		{"空名称", "", "v", true, "name"},
		{"值含控制字符", "X-Custom", "a\x00b", true, "value"},
		{"值过长", "X-Custom", strings.Repeat("a", MaxHeaderValueLength+1), true, "value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := hv.ValidateHeader(tt.header, tt.value)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var vErr *models.ValidationError
			if assert.True(t, errors.As(err, &vErr)) {
				assert.Equal(t, tt.wantField, vErr.Field)
			}
		})
	}
}

func TestHeaderValidator_Validate(t *testing.T) {
	hv := NewHeaderValidator()
	assert.NoError(t, hv.Validate(http.Header{"Accept": {"image/*"}}))
	assert.Error(t, hv.Validate(http.Header{"Connection": {"close"}}))
}

func TestHeaderRedactor(t *testing.T) {
	hr := NewHeaderRedactor()

	redacted := hr.Redact(http.Header{
		"Authorization": {"Bearer abcdef"},
		"Cookie":        {"NID=1234567890"},
		"X-Api-Key":     {"short"},
		"Referer":       {"https://www.google.com/"},
	})

	assert.Equal(t, "Bearer ***", redacted["Authorization"])
	assert.Equal(t, "NID=***7890", redacted["Cookie"])
	assert.Equal(t, "***", redacted["X-Api-Key"])
	assert.Equal(t, "https://www.google.com/", redacted["Referer"])
}
