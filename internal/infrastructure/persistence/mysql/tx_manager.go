package mysql

import (
	"context"

	"gorm.io/gorm"
)

// txKey 事务上下文键（非导出类型避免碰撞）
type txKey struct{}

// TxManager 事务管理器
// 设计说明：
// 1. 事务通过context传递，Repository内部用getDB()取出当前事务
// 2. 业务代码（application层）只依赖WithinTransaction，不感知GORM
// 3. 回调返回error时自动回滚，否则提交
type TxManager struct {
	db *gorm.DB
}

func NewTxManager(db *gorm.DB) *TxManager {
	return &TxManager{db: db}
}

// WithinTransaction 在单个数据库事务内执行fn
func (m *TxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// getDB 从context获取当前事务，没有事务时返回基础连接
func getDB(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return db.WithContext(ctx)
}
