package domain

import "errors"

// 引擎错误分类
// 校验与前置条件检查一律发生在任何写操作之前；账本事务一旦创建，
// 之后只可能出现持久化错误，由事务整体回滚兜底
var (
	// ErrWalletNotFound 钱包不存在
	ErrWalletNotFound = errors.New("wallet not found")
	// ErrInsufficientBalance 余额前置条件不满足
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrDuplicateIdempotencyKey 幂等键重复，表示该笔资金操作已执行过
	// 调用方应查询既有结果而非重试
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")
	// ErrInvalidAmount 金额非法（非正数、非有限值或精度越界）
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrVersionConflict 钱包版本冲突，余额已被并发事务修改
	ErrVersionConflict = errors.New("wallet version conflict")
)
