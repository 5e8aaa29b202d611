package model

import (
	"context"
	"imagestudio/internal/entity"
)

// HistoryStore 定义生成历史的持久化接口
type HistoryStore interface {
	// Load 返回全部历史记录，最新的在前；不存在时返回空
	Load(ctx context.Context) ([]entity.HistoryRecord, error)
	// Append 将记录插入到最前面并写回
	Append(ctx context.Context, record entity.HistoryRecord) error
}

// DefaultHistoryLimit 默认最多保留的记录数
const DefaultHistoryLimit = entity.DefaultHistoryLimit
