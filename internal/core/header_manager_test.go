package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderManager_Priority(t *testing.T) {
	hm, err := NewHeaderManager(
		map[string]string{"referer": "https://config.example/", "x-from": "config"},
		[]string{"X-From: cli", "Cookie: NID=1234567890"},
	)
	require.NoError(t, err)

	headers, err := hm.GetHeaders()
	require.NoError(t, err)

	assert.Equal(t, DefaultUserAgent, headers.Get("User-Agent"))
	assert.Equal(t, "https://config.example/", headers.Get("Referer"))
	assert.Equal(t, "cli", headers.Get("X-From"))
	assert.Equal(t, "NID=1234567890", headers.Get("Cookie"))

	safe := hm.GetSafeHeaders()
	assert.Equal(t, "NID=***7890", safe["Cookie"])
	assert.Equal(t, "cli", safe["X-From"])
}

func TestHeaderManager_MergedIsCopy(t *testing.T) {
	hm, err := NewHeaderManager(nil, nil)
	require.NoError(t, err)

	merged := hm.GetMergedHeaders()
	merged.Set("User-Agent", "changed")
	assert.Equal(t, DefaultUserAgent, hm.GetMergedHeaders().Get("User-Agent"))
}

func TestHeaderManager_Invalid(t *testing.T) {
	t.Run("命令行格式错误", func(t *testing.T) {
		_, err := NewHeaderManager(nil, []string{"no-colon"})
		assert.Error(t, err)
	})

	t.Run("配置中的禁止头部", func(t *testing.T) {
		hm, err := NewHeaderManager(map[string]string{"host": "evil.example"}, nil)
		require.NoError(t, err)
		assert.Error(t, hm.Validate())
		_, err = hm.GetHeaders()
		assert.Error(t, err)
	})

	t.Run("命令行中的非法值", func(t *testing.T) {
		hm, err := NewHeaderManager(nil, []string{"X-Bad: a\x01b"})
		require.NoError(t, err)
		assert.Error(t, hm.Validate())
	})
}
