package service

import (
	"CraveQuest/internal/model"
	"CraveQuest/internal/pkg/cache"
	"errors"
)

const (
	BadRequest          = 400
	Unauthorized        = 401
	NotFound            = 404
	InternalServerError = 500
	ServiceUnavailable  = 503
)

var (
	ErrParamInvalid     = errors.New("参数错误")
	ErrInvalidRating    = errors.New("评分超出范围")
	ErrEmptyRating      = errors.New("至少需要评价一个维度")
	ErrUnknownMode      = errors.New("未知的计算模式")
	ErrRecipeNotFound   = errors.New("菜谱不存在")
	ErrInsufficientData = model.ErrInsufficientData
	ErrRefreshStale     = errors.New("榜单重算失败，仍为旧快照")
	UnauthorizedError   = errors.New("权限不足")
	UnExpectedError     = errors.New("系统异常，请稍后重试")
)

var ErrorMap = map[error]int{
	ErrParamInvalid:                  BadRequest,
	ErrInvalidRating:                 BadRequest,
	ErrEmptyRating:                   BadRequest,
	ErrUnknownMode:                   BadRequest,
	ErrRecipeNotFound:                NotFound,
	UnauthorizedError:                Unauthorized,
	UnExpectedError:                  InternalServerError,
	ErrRefreshStale:                  ServiceUnavailable,
	cache.ErrRecomputeTimeout:        ServiceUnavailable,
	cache.ErrBackingStoreUnavailable: ServiceUnavailable,
}

// 输入类错误优先于基础设施错误匹配
var errorPriority = []error{
	ErrParamInvalid,
	ErrInvalidRating,
	ErrEmptyRating,
	ErrUnknownMode,
	ErrRecipeNotFound,
	UnauthorizedError,
	ErrRefreshStale,
	cache.ErrRecomputeTimeout,
	cache.ErrBackingStoreUnavailable,
	UnExpectedError,
}

// CodeOf 返回错误对应的业务码，支持被包装的错误
func CodeOf(err error) (int, bool) {
	if code, ok := ErrorMap[err]; ok {
		return code, true
	}
	for _, target := range errorPriority {
		if errors.Is(err, target) {
			return ErrorMap[target], true
		}
	}
	return 0, false
}

// IsInputError 由调用方输入导致的错误，缓存层不应以旧数据掩盖
func IsInputError(err error) bool {
	code, ok := CodeOf(err)
	return ok && (code == BadRequest || code == NotFound)
}
