package crawlers

import (
	"encoding/base64"
	"errors"
	"testing"

	"github.com/RecoveryAshes/imgscrape/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifySource(t *testing.T) {
	tests := []struct {
		name        string
		src         string
		markup      string
		allowInline bool
		want        models.RevealedImage
		wantErr     bool
	}{
		{
			name: "https地址",
			src:  "https://example.com/a.jpg",
			want: models.RevealedImage{URL: "https://example.com/a.jpg"},
		},
		{
			name:        "data URI",
			src:         "data:image/jpeg;base64,/9j/AAA",
			allowInline: true,
			want:        models.RevealedImage{Inline: "data:image/jpeg;base64,/9j/AAA"},
		},
		{
			name:    "禁用内嵌时data URI失败",
			src:     "data:image/jpeg;base64,/9j/AAA",
			wantErr: true,
		},
		{
			name:        "无src时使用标记",
			markup:      `<img src="data:image/png;base64,AAAA">`,
			allowInline: true,
			want:        models.RevealedImage{Inline: `<img src="data:image/png;base64,AAAA">`},
		},
		{
			name:    "无src且禁用内嵌",
			markup:  `<img>`,
			wantErr: true,
		},
		{
			name:        "无src也无标记",
			allowInline: true,
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ClassifySource(tt.src, tt.markup, tt.allowInline)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, models.FailureSource, models.KindOf(err))
				assert.True(t, errors.Is(err, ErrNoSource))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeInlinePayload(t *testing.T) {
	raw := []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F'}
	encoded := base64.StdEncoding.EncodeToString(raw)
	require.Equal(t, "/9j/", encoded[:4])

	tests := []struct {
		name    string
		payload string
	}{
		{"data URI", "data:image/jpeg;base64," + encoded},
		{"裸base64", encoded},
		{"无填充base64", base64.RawStdEncoding.EncodeToString(raw)},
		{"前缀垃圾后跟JPEG标记", "garbage" + encoded},
		{"HTML片段", `<div><img class="iPVvYb" src="data:image/jpeg;base64,` + encoded + `"></div>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := DecodeInlinePayload(tt.payload)
			require.NoError(t, err)
			assert.Equal(t, raw, data)
		})
	}
}

func TestDecodeInlinePayload_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"非base64", "not base64 at all!"},
		{"没有img的标记", `<div>nothing</div>`},
		{"空数据", "data:image/png;base64,"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeInlinePayload(tt.payload)
			require.Error(t, err)
			assert.Equal(t, models.FailureDecode, models.KindOf(err))
		})
	}
}
