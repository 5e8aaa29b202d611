package storage

import (
	"context"
	"fmt"
	"imagestudio/internal/config"
	"path/filepath"
	"strings"
)

const (
	// TypeLocal 表示本地文件系统存储。
	TypeLocal = "local"
	// TypeS3 表示 Amazon S3 或兼容的存储后端。
	TypeS3 = "s3"
	// TypeOSS 表示阿里云 OSS 存储。
	TypeOSS = "oss"
	// TypeCOS 表示腾讯云 COS 存储。
	TypeCOS = "cos"
	// TypeR2 表示 Cloudflare R2 存储。
	TypeR2 = "r2"
)

// SaveOptions 控制导出目标如何持久化文件。
//
// Category 用于组织文件（图库下载时为记录 ID），BaseName 为文件名主体，
// Extension 为不含前导点的扩展名。ContentType 为空时按扩展名推断；
// DownloadName 非空时远端对象带 attachment 形式的 Content-Disposition。
type SaveOptions struct {
	Category     string
	Extension    string
	BaseName     string
	ContentType  string
	DownloadName string
	SkipIfExists bool
}

// Storage 持久化二进制数据并返回存储特定的对象标识（本地为相对路径）。
type Storage interface {
	Save(ctx context.Context, data []byte, opts SaveOptions) (string, error)
}

// LocalBaseDirProvider 由写入本地目录的存储驱动实现。
type LocalBaseDirProvider interface {
	LocalBaseDir() string
}

// NewStorage 根据 EXPORT_TYPE 实例化导出目标。
func NewStorage(cfg config.Config) (Storage, error) {
	typeName := strings.ToLower(strings.TrimSpace(cfg.ExportType))
	switch typeName {
	case "", TypeLocal:
		return NewLocalStorage(cfg.ExportLocalDir)
	case TypeS3:
		return NewS3Storage(cfg)
	case TypeOSS:
		return NewOSSStorage(cfg)
	case TypeCOS:
		return NewCOSStorage(cfg)
	case TypeR2:
		return NewR2Storage(cfg)
	default:
		return nil, fmt.Errorf("unsupported export type: %s", cfg.ExportType)
	}
}

// Location turns a saved key into something a user can open: a public URL
// when publicBase is set, an absolute path for local storage, else the key.
func Location(store Storage, publicBase, key string) string {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return ""
	}
	if base := strings.TrimRight(strings.TrimSpace(publicBase), "/"); base != "" {
		return fmt.Sprintf("%s/%s", base, strings.TrimLeft(trimmed, "/"))
	}
	if local, ok := store.(LocalBaseDirProvider); ok {
		return filepath.Join(local.LocalBaseDir(), filepath.FromSlash(trimmed))
	}
	return trimmed
}

func contentTypeFor(opts SaveOptions) string {
	if ct := strings.TrimSpace(opts.ContentType); ct != "" {
		return ct
	}
	return detectContentType(opts.Extension)
}

func contentDisposition(opts SaveOptions) string {
	name := strings.TrimSpace(opts.DownloadName)
	if name == "" {
		return ""
	}
	return fmt.Sprintf(`attachment; filename="%s"`, strings.ReplaceAll(name, `"`, ""))
}
