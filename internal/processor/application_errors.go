package processor

import (
	"errors"
	"fmt"
)

// 定义基础错误类型
var (
	ErrFetchFailed         = errors.New("获取申请列表失败")
	ErrLookupFailed        = errors.New("查询关联数据失败")
	ErrStoreFailed         = errors.New("保存申请记录失败")
	ErrUploadFailed        = errors.New("上传申请附件失败")
	ErrApplicationNotFound = errors.New("申请记录不存在")
	ErrInvalidSubmission   = errors.New("申请提交数据无效")
)

// ApplicationProcessError 包含详细错误信息的自定义错误
type ApplicationProcessError struct {
	ApplicationID string
	Op            string
	BaseErr       error
	Detail        string
}

func (e *ApplicationProcessError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (操作:%s, ID:%s): %s", e.BaseErr, e.Op, e.ApplicationID, e.Detail)
	}
	return fmt.Sprintf("%s (操作:%s, ID:%s)", e.BaseErr, e.Op, e.ApplicationID)
}

func (e *ApplicationProcessError) Unwrap() error {
	return e.BaseErr
}

// Is 实现 errors.Is 接口以支持错误比较
func (e *ApplicationProcessError) Is(target error) bool {
	return errors.Is(e.BaseErr, target)
}

// 错误构造函数
func NewFetchError(detail string) error {
	return &ApplicationProcessError{
		Op:      "fetch",
		BaseErr: ErrFetchFailed,
		Detail:  detail,
	}
}

func NewLookupError(applicationID, detail string) error {
	return &ApplicationProcessError{
		ApplicationID: applicationID,
		Op:            "lookup",
		BaseErr:       ErrLookupFailed,
		Detail:        detail,
	}
}

func NewStoreError(applicationID, detail string) error {
	return &ApplicationProcessError{
		ApplicationID: applicationID,
		Op:            "store",
		BaseErr:       ErrStoreFailed,
		Detail:        detail,
	}
}

func NewUploadError(applicationID, detail string) error {
	return &ApplicationProcessError{
		ApplicationID: applicationID,
		Op:            "upload",
		BaseErr:       ErrUploadFailed,
		Detail:        detail,
	}
}

func NewNotFoundError(applicationID string) error {
	return &ApplicationProcessError{
		ApplicationID: applicationID,
		Op:            "load",
		BaseErr:       ErrApplicationNotFound,
	}
}
