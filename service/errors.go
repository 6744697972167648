package service

import "errors"

// 业务错误类型，调用方使用 errors.Is 判断
var (
	ErrInvalidInput = errors.New("参数错误")
	ErrNotFound     = errors.New("记录不存在")
	ErrAlreadyPaid  = errors.New("记录已支付")
	ErrConflict     = errors.New("操作冲突")
	ErrStoreIO      = errors.New("存储读写失败")
)
