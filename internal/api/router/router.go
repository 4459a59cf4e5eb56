package router

import (
	"context"
	"errors"
	"mime/multipart"
	"strconv"

	"job-apply-go/internal/api/handler"
	"job-apply-go/internal/processor"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// statusForError 将处理器错误映射为HTTP状态码
func statusForError(err error) int {
	switch {
	case errors.Is(err, processor.ErrApplicationNotFound):
		return consts.StatusNotFound
	case errors.Is(err, processor.ErrInvalidSubmission):
		return consts.StatusBadRequest
	case errors.Is(err, processor.ErrFetchFailed),
		errors.Is(err, processor.ErrUploadFailed),
		errors.Is(err, processor.ErrStoreFailed):
		return consts.StatusBadGateway
	default:
		return consts.StatusInternalServerError
	}
}

// RegisterRoutes 注册 API 路由
func RegisterRoutes(h *server.Hertz, appHandler *handler.ApplicationHandler) {
	api := h.Group("/api/v1")

	// 提交申请（multipart表单，附件可选）
	api.POST("/applications", func(c context.Context, ctx *app.RequestContext) {
		jobID := ctx.PostForm("job_id")
		userID := ctx.PostForm("user_id")
		education := ctx.PostForm("education")
		phone := ctx.PostForm("phone")
		expSummary := ctx.PostForm("experience_summary")
		expYears, _ := strconv.Atoi(ctx.PostForm("experience_years"))

		var fileHeader *multipart.FileHeader
		if fh, err := ctx.FormFile("attachment"); err == nil {
			fileHeader = fh
		}

		var resp *handler.SubmissionResponse
		var err error
		if fileHeader != nil {
			file, errOpen := fileHeader.Open()
			if errOpen != nil {
				ctx.JSON(consts.StatusInternalServerError, utils.H{"error": "打开附件失败"})
				return
			}
			defer file.Close()
			resp, err = appHandler.HandleSubmit(c, jobID, userID, education, phone,
				expYears, expSummary, file, fileHeader.Filename, fileHeader.Size)
		} else {
			resp, err = appHandler.HandleSubmit(c, jobID, userID, education, phone,
				expYears, expSummary, nil, "", 0)
		}
		if err != nil {
			ctx.JSON(statusForError(err), utils.H{"error": err.Error()})
			return
		}

		ctx.JSON(consts.StatusOK, resp)
	})

	// 查询申请列表，user_id为空时返回全量
	api.GET("/applications", func(c context.Context, ctx *app.RequestContext) {
		userID := ctx.Query("user_id")

		resp, err := appHandler.HandleList(c, userID)
		if err != nil {
			ctx.JSON(statusForError(err), utils.H{"error": err.Error()})
			return
		}

		ctx.JSON(consts.StatusOK, resp)
	})

	// 更新审批结果
	api.POST("/applications/:id/status", func(c context.Context, ctx *app.RequestContext) {
		applicationID := ctx.Param("id")

		var body struct {
			Approved bool `json:"approved"`
		}
		if err := ctx.BindJSON(&body); err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "请求体解析失败"})
			return
		}

		if err := appHandler.HandleSetStatus(c, applicationID, body.Approved); err != nil {
			ctx.JSON(statusForError(err), utils.H{"error": err.Error()})
			return
		}

		ctx.JSON(consts.StatusOK, utils.H{"application_id": applicationID})
	})

	// 写入审批反馈
	api.POST("/applications/:id/feedback", func(c context.Context, ctx *app.RequestContext) {
		applicationID := ctx.Param("id")

		var body struct {
			Feedback string `json:"feedback"`
		}
		if err := ctx.BindJSON(&body); err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "请求体解析失败"})
			return
		}

		if err := appHandler.HandleSetFeedback(c, applicationID, body.Feedback); err != nil {
			ctx.JSON(statusForError(err), utils.H{"error": err.Error()})
			return
		}

		ctx.JSON(consts.StatusOK, utils.H{"application_id": applicationID})
	})

	// 删除申请
	api.DELETE("/applications/:id", func(c context.Context, ctx *app.RequestContext) {
		applicationID := ctx.Param("id")

		if err := appHandler.HandleDelete(c, applicationID); err != nil {
			ctx.JSON(statusForError(err), utils.H{"error": err.Error()})
			return
		}

		ctx.JSON(consts.StatusOK, utils.H{"application_id": applicationID})
	})

	// 获取附件预签名下载URL
	api.GET("/applications/:id/attachment", func(c context.Context, ctx *app.RequestContext) {
		applicationID := ctx.Param("id")

		url, err := appHandler.HandleAttachmentURL(c, applicationID)
		if err != nil {
			ctx.JSON(statusForError(err), utils.H{"error": err.Error()})
			return
		}

		ctx.JSON(consts.StatusOK, utils.H{"url": url})
	})

	// 添加健康检查
	api.GET("/health", func(c context.Context, ctx *app.RequestContext) {
		ctx.JSON(consts.StatusOK, utils.H{"status": "ok"})
	})
}
