package minio

import (
	"GameZone/internal/api/config"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetAvatarURL(t *testing.T) {
	config.Cfg = &config.Config{
		MinIO: config.MinIOConfig{
			ExternalEndpoint: "oss.example.com",
			AvatarBucket:     "avatars",
			UsePublicLink:    true,
		},
	}

	ctx := context.Background()
	assert.Equal(t, "https://oss.example.com/avatars/u/1.png", GetAvatarURL(ctx, "u/1.png"))
	assert.Equal(t, "https://oss.example.com/avatars/default_avatar.png", GetAvatarURL(ctx, ""))
	assert.Equal(t, "https://cdn.example.com/a.png", GetAvatarURL(ctx, "https://cdn.example.com/a.png"))
	assert.Equal(t, "https://oss.example.com/avatars/a.png", GetPublicURL("/a.png"))
}
