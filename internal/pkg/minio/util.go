package minio

import (
	"GameZone/internal/api/config"
	"GameZone/internal/pkg/consts"
	"context"
	"fmt"
	log "log/slog"
	"strings"
	"time"
)

// GetAvatarURL 头像访问地址，桶不公开时生成预签名链接
func GetAvatarURL(ctx context.Context, objectName string) string {
	if objectName == "" {
		objectName = consts.DefaultAvatarURL
	}
	if isAbsolute(objectName) {
		return objectName
	}

	cfg := config.Cfg.MinIO
	if cfg.UsePublicLink || Client == nil {
		return GetPublicURL(objectName)
	}

	expire := time.Duration(cfg.PresignExpire) * time.Minute
	if expire <= 0 {
		expire = time.Hour
	}
	u, err := Client.PresignedGetObject(ctx, AvatarBucket, objectName, expire, nil)
	if err != nil {
		log.WarnContext(ctx, "Presign avatar failed", "object", objectName, "err", err)
		return GetPublicURL(objectName)
	}
	return u.String()
}

// GetPublicURL 获取文件的公共访问URL
func GetPublicURL(objectName string) string {
	if isAbsolute(objectName) {
		return objectName
	}
	cfg := config.Cfg.MinIO
	bucket := AvatarBucket
	if bucket == "" {
		bucket = cfg.AvatarBucket
	}
	return fmt.Sprintf("https://%s/%s/%s", cfg.ExternalEndpoint, bucket, strings.TrimPrefix(objectName, "/"))
}

func isAbsolute(objectName string) bool {
	return strings.HasPrefix(objectName, "http://") || strings.HasPrefix(objectName, "https://")
}
