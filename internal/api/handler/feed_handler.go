package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/trustcircle/internal/service"
	"github.com/d60-Lab/trustcircle/pkg/response"
)

// GlobalFeed 按信任圈过滤的全局 feed
// @Summary 全局 feed
// @Tags feed
// @Param X-User-ID header int false "当前用户"
// @Param circle query string false "inner | trusted | extended | all" default(all)
// @Param filter query string false "my_events | all_events | communities"
// @Param page query int false "页码" default(1)
// @Param per_page query int false "每页数量" default(20)
// @Success 200 {object} response.Response{data=service.FeedPage}
// @Failure 400 {object} response.Response
// @Router /api/v1/feed [get]
func (h *Handler) GlobalFeed(c *gin.Context) {
	var opts service.FeedOptions
	if err := c.ShouldBindQuery(&opts); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	circle, err := service.ParseCircle(c.Query("circle"))
	if err != nil {
		fail(c, err)
		return
	}
	page, err := h.feed.GlobalFeed(c.Request.Context(), viewerID(c), circle, opts)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, page)
}

// PersonalFeed 自己发布的会话
// @Summary 我的 feed
// @Tags feed
// @Param X-User-ID header int false "当前用户"
// @Param page query int false "页码" default(1)
// @Param per_page query int false "每页数量" default(20)
// @Success 200 {object} response.Response{data=service.FeedPage}
// @Router /api/v1/me/feed [get]
func (h *Handler) PersonalFeed(c *gin.Context) {
	var opts service.PageOptions
	if err := c.ShouldBindQuery(&opts); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	page, err := h.feed.PersonalFeed(c.Request.Context(), viewerID(c), opts)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, page)
}

// CommunityFeed 社区 feed
// @Summary 社区内全部会话
// @Tags feed
// @Param X-User-ID header int false "当前用户"
// @Param id path int true "社区ID"
// @Param page query int false "页码" default(1)
// @Param per_page query int false "每页数量" default(20)
// @Success 200 {object} response.Response{data=service.FeedPage}
// @Router /api/v1/communities/{id}/feed [get]
func (h *Handler) CommunityFeed(c *gin.Context) {
	communityID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var opts service.PageOptions
	if err := c.ShouldBindQuery(&opts); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	page, err := h.feed.CommunityFeed(c.Request.Context(), viewerID(c), communityID, opts)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, page)
}
