package cache

import "errors"

var (
	ErrRecomputeTimeout        = errors.New("重新计算超时")
	ErrBackingStoreUnavailable = errors.New("数据源不可用")
)
