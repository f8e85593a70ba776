package collector

import (
	"errors"
	"fmt"
)

// 错误分类，调用方通过 errors.Is 判断
var (
	ErrNetwork   = errors.New("network error")
	ErrParse     = errors.New("parse error")
	ErrDateParse = errors.New("date parse error")
	ErrConfig    = errors.New("configuration error")
	// ErrUnknownFeedType 同时匹配 ErrConfig
	ErrUnknownFeedType = fmt.Errorf("%w: unknown feed type", ErrConfig)
)

func parseErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrParse, fmt.Sprintf(format, args...))
}

func missingField(field string) error {
	return parseErrorf("missing %s", field)
}
