package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/trustcircle/internal/model"
	"github.com/d60-Lab/trustcircle/pkg/response"
)

type linkRequest struct {
	UserA int64 `json:"user_a" binding:"required"`
	UserB int64 `json:"user_b" binding:"required"`
}

type importRequest struct {
	Pairs []model.LinkPair `json:"pairs" binding:"required"`
}

// CreateLink 建立双向关系
// @Summary 建立双向信任关系
// @Tags 关系
// @Accept json
// @Produce json
// @Param request body linkRequest true "两端用户"
// @Success 200 {object} response.Response{data=map[string]bool}
// @Failure 400 {object} response.Response
// @Router /api/v1/links [post]
func (h *Handler) CreateLink(c *gin.Context) {
	var req linkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	ok, err := h.links.CreateLink(c.Request.Context(), req.UserA, req.UserB)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"linked": ok})
}

// RemoveLink 删除双向关系
// @Summary 删除双向信任关系
// @Tags 关系
// @Accept json
// @Produce json
// @Param request body linkRequest true "两端用户"
// @Success 200 {object} response.Response{data=map[string]bool}
// @Failure 400 {object} response.Response
// @Router /api/v1/links [delete]
func (h *Handler) RemoveLink(c *gin.Context) {
	var req linkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	ok, err := h.links.RemoveLink(c.Request.Context(), req.UserA, req.UserB)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"removed": ok})
}

// ImportLinks 批量导入关系
// @Summary 批量导入关系并异步重建缓存
// @Tags 关系
// @Accept json
// @Produce json
// @Param request body importRequest true "关系列表"
// @Success 200 {object} response.Response{data=service.ImportResult}
// @Failure 400 {object} response.Response
// @Router /api/v1/links/import [post]
func (h *Handler) ImportLinks(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	res, err := h.links.ImportLinks(c.Request.Context(), req.Pairs)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, res)
}

// ListPeers 直接关系
// @Summary 查询直接关系（1 跳）
// @Tags 关系
// @Param user_id path int true "用户ID"
// @Success 200 {object} response.Response{data=map[string][]int64}
// @Router /api/v1/users/{user_id}/peers [get]
func (h *Handler) ListPeers(c *gin.Context) {
	userID, ok := pathID(c, "user_id")
	if !ok {
		return
	}
	peers, err := h.links.DirectPeers(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"peers": peers})
}

// GetCircles 三层信任圈
// @Summary 查询用户的 inner/trusted/extended
// @Tags 关系
// @Param user_id path int true "用户ID"
// @Success 200 {object} response.Response{data=model.CircleContext}
// @Router /api/v1/users/{user_id}/circles [get]
func (h *Handler) GetCircles(c *gin.Context) {
	userID, ok := pathID(c, "user_id")
	if !ok {
		return
	}
	cc, err := h.graph.BuildContext(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, cc)
}
