package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/trustcircle/internal/service"
	"github.com/d60-Lab/trustcircle/pkg/response"
)

type replyRequest struct {
	Content string `json:"content" binding:"required"`
}

// CreateConversation 发起会话
// @Summary 发起会话（公开社区内发言即加入）
// @Tags 会话
// @Accept json
// @Produce json
// @Param X-User-ID header int true "当前用户"
// @Param request body service.CreateConversationInput true "会话"
// @Success 200 {object} response.Response{data=model.Conversation}
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /api/v1/conversations [post]
func (h *Handler) CreateConversation(c *gin.Context) {
	viewer := viewerID(c)
	if viewer == 0 {
		response.Unauthorized(c, "login required")
		return
	}
	var in service.CreateConversationInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	conv, err := h.conversations.Create(c.Request.Context(), viewer, in)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, conv)
}

// Reply 回复会话
// @Summary 回复会话，并与作者建立关系
// @Tags 会话
// @Accept json
// @Produce json
// @Param X-User-ID header int true "当前用户"
// @Param id path int true "会话ID"
// @Param request body replyRequest true "回复内容"
// @Success 200 {object} response.Response{data=model.Reply}
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/conversations/{id}/replies [post]
func (h *Handler) Reply(c *gin.Context) {
	viewer := viewerID(c)
	if viewer == 0 {
		response.Unauthorized(c, "login required")
		return
	}
	convID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req replyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	reply, err := h.conversations.Reply(c.Request.Context(), viewer, convID, req.Content)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, reply)
}
