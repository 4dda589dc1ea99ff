package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/trustcircle/internal/service"
	"github.com/d60-Lab/trustcircle/pkg/response"
)

// ListCommunities 信任圈内的社区目录
// @Summary 社区目录
// @Tags 社区
// @Param X-User-ID header int false "当前用户"
// @Param circle query string false "inner | trusted | extended | all" default(all)
// @Param page query int false "页码" default(1)
// @Param per_page query int false "每页数量" default(20)
// @Success 200 {object} response.Response{data=service.CommunityPage}
// @Failure 400 {object} response.Response
// @Router /api/v1/communities [get]
func (h *Handler) ListCommunities(c *gin.Context) {
	var opts service.PageOptions
	if err := c.ShouldBindQuery(&opts); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	circle, err := service.ParseCircle(c.Query("circle"))
	if err != nil {
		fail(c, err)
		return
	}
	page, err := h.scope.ListCommunities(c.Request.Context(), viewerID(c), circle, opts)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, page)
}
