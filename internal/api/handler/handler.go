package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/trustcircle/internal/service"
	"github.com/d60-Lab/trustcircle/pkg/response"
)

// HeaderUserID 上游鉴权层写入的当前用户 id；缺失或非法视为游客
const HeaderUserID = "X-User-ID"

type Handler struct {
	links         service.LinkService
	graph         service.CircleGraph
	scope         service.CommunityScopeResolver
	feed          service.FeedAssembler
	conversations service.ConversationService
}

func New(
	links service.LinkService,
	graph service.CircleGraph,
	scope service.CommunityScopeResolver,
	feed service.FeedAssembler,
	conversations service.ConversationService,
) *Handler {
	return &Handler{links: links, graph: graph, scope: scope, feed: feed, conversations: conversations}
}

// Register 挂载 /api/v1 下的全部路由
func (h *Handler) Register(r gin.IRoutes) {
	r.POST("/links", h.CreateLink)
	r.DELETE("/links", h.RemoveLink)
	r.POST("/links/import", h.ImportLinks)
	r.GET("/users/:user_id/peers", h.ListPeers)
	r.GET("/users/:user_id/circles", h.GetCircles)

	r.GET("/feed", h.GlobalFeed)
	r.GET("/me/feed", h.PersonalFeed)
	r.GET("/communities", h.ListCommunities)
	r.GET("/communities/:id/feed", h.CommunityFeed)

	r.POST("/conversations", h.CreateConversation)
	r.POST("/conversations/:id/replies", h.Reply)
}

func viewerID(c *gin.Context) int64 {
	id, err := strconv.ParseInt(c.GetHeader(HeaderUserID), 10, 64)
	if err != nil || id <= 0 {
		return 0
	}
	return id
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}

func fail(c *gin.Context, err error) {
	switch {
	case service.IsClientError(err):
		response.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, service.ErrNotMember):
		response.Forbidden(c, err.Error())
	default:
		response.InternalError(c, err)
	}
}
