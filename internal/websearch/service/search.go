package service

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/lk2023060901/property-research-backend/internal/pkg/errors"
	"github.com/lk2023060901/property-research-backend/internal/pkg/logger"
	"github.com/lk2023060901/property-research-backend/internal/pkg/response"
	"github.com/lk2023060901/property-research-backend/internal/pkg/sse"
	"github.com/lk2023060901/property-research-backend/internal/websearch/biz"
	"github.com/lk2023060901/property-research-backend/internal/websearch/types"
)

// DefaultHeartbeatInterval SSE 心跳默认间隔
const DefaultHeartbeatInterval = 15 * time.Second

// SearchService 搜索与搜索模式 HTTP 服务
type SearchService struct {
	uc        *biz.SearchUseCase
	logger    *logger.Logger
	heartbeat time.Duration
}

// Option 配置 SearchService
type Option func(*SearchService)

// WithHeartbeatInterval 设置 SSE 心跳间隔，<= 0 关闭心跳
func WithHeartbeatInterval(d time.Duration) Option {
	return func(s *SearchService) {
		s.heartbeat = d
	}
}

// NewSearchService 创建搜索服务
func NewSearchService(uc *biz.SearchUseCase, log *logger.Logger, opts ...Option) *SearchService {
	s := &SearchService{
		uc:        uc,
		logger:    log,
		heartbeat: DefaultHeartbeatInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// clearWriteDeadline 取消 server.write_timeout 对长时间执行请求的限制
func (s *SearchService) clearWriteDeadline(c *gin.Context) {
	err := http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{})
	if err != nil && !errors.Is(err, http.ErrNotSupported) {
		s.logger.Debug("failed to clear write deadline", zap.Error(err))
	}
}

// RegisterRoutes 注册路由
func (s *SearchService) RegisterRoutes(r *gin.RouterGroup) {
	search := r.Group("/search")
	{
		search.POST("/compile", s.Compile)
		search.POST("", s.Search)
		search.GET("/providers", s.ListProviders)
	}

	patterns := r.Group("/patterns")
	{
		patterns.POST("", s.CreatePattern)
		patterns.GET("", s.ListPatterns)
		patterns.GET("/:id", s.GetPattern)
		patterns.PUT("/:id", s.UpdatePattern)
		patterns.DELETE("/:id", s.DeletePattern)
		patterns.POST("/:id/run", s.RunPattern)
	}

	projects := r.Group("/projects/:project_id")
	{
		projects.POST("/run", s.RunProject)
		projects.GET("/run/stream", s.StreamProject)
	}
}

// Compile 编译搜索模式
// @Summary 编译搜索模式为服务商请求参数
// @Tags search
// @Param provider query string false "google | serpapi"
// @Param request body types.SearchPattern true "搜索模式"
// @Success 200 {object} CompileResponse
// @Router /search/compile [post]
func (s *SearchService) Compile(c *gin.Context) {
	var pattern types.SearchPattern
	if err := c.ShouldBindJSON(&pattern); err != nil {
		response.ErrorWithCode(c, apperrors.ErrInvalidParams, err.Error())
		return
	}

	req, err := s.uc.Compile(c.Request.Context(), c.Query("provider"), &pattern)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, toCompileResponse(req))
}

// Search 执行搜索
// @Summary 编译并执行搜索模式
// @Tags search
// @Param provider query string false "google | serpapi"
// @Param request body types.SearchPattern true "搜索模式"
// @Success 200 {object} types.SearchResponse
// @Router /search [post]
func (s *SearchService) Search(c *gin.Context) {
	var pattern types.SearchPattern
	if err := c.ShouldBindJSON(&pattern); err != nil {
		response.ErrorWithCode(c, apperrors.ErrInvalidParams, err.Error())
		return
	}

	resp, err := s.uc.Search(c.Request.Context(), c.Query("provider"), &pattern)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, resp)
}

// ListProviders 获取已配置的搜索服务商
func (s *SearchService) ListProviders(c *gin.Context) {
	items := s.uc.Providers()
	response.Success(c, &ProvidersResponse{Items: items, Total: len(items)})
}

// CreatePattern 保存搜索模式
func (s *SearchService) CreatePattern(c *gin.Context) {
	var req CreatePatternRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrInvalidParams, err.Error())
		return
	}

	saved, err := s.uc.CreatePattern(c.Request.Context(), &biz.CreatePatternRequest{
		ProjectID: req.ProjectID,
		Name:      req.Name,
		Pattern:   req.Pattern,
	})
	if err != nil {
		handleError(c, err)
		return
	}

	response.Created(c, saved)
}

// GetPattern 获取搜索模式
func (s *SearchService) GetPattern(c *gin.Context) {
	saved, err := s.uc.GetPattern(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, saved)
}

// ListPatterns 按项目分页获取搜索模式
func (s *SearchService) ListPatterns(c *gin.Context) {
	var req ListPatternsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrInvalidParams, err.Error())
		return
	}

	filter := &types.PatternFilter{ProjectID: req.ProjectID, Page: req.Page, PageSize: req.PageSize}
	items, total, err := s.uc.ListPatterns(c.Request.Context(), filter)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, &ListPatternsResponse{
		Items:    items,
		Total:    total,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	})
}

// UpdatePattern 更新搜索模式
func (s *SearchService) UpdatePattern(c *gin.Context) {
	var req UpdatePatternRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrInvalidParams, err.Error())
		return
	}

	saved, err := s.uc.UpdatePattern(c.Request.Context(), c.Param("id"), &biz.UpdatePatternRequest{
		Name:    req.Name,
		Pattern: req.Pattern,
	})
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, saved)
}

// DeletePattern 删除搜索模式
func (s *SearchService) DeletePattern(c *gin.Context) {
	if err := s.uc.DeletePattern(c.Request.Context(), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, nil)
}

// RunPattern 执行已保存的搜索模式
func (s *SearchService) RunPattern(c *gin.Context) {
	var req RunPatternRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrInvalidParams, err.Error())
		return
	}

	resp, err := s.uc.RunPattern(c.Request.Context(), c.Param("id"), req.Provider, req.Page)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, resp)
}

// RunProject 执行项目下全部搜索模式
func (s *SearchService) RunProject(c *gin.Context) {
	projectID := c.Param("project_id")
	s.clearWriteDeadline(c)

	runs, err := s.uc.RunProject(c.Request.Context(), projectID, c.Query("provider"))
	if err != nil {
		handleError(c, err)
		return
	}

	failed := 0
	for _, run := range runs {
		if run.Error != "" {
			failed++
		}
	}
	if failed > 0 {
		s.logger.Warn("project run finished with failures",
			zap.String("project_id", projectID),
			zap.Int("failed", failed),
			zap.Int("total", len(runs)),
		)
	}

	response.Success(c, &ProjectRunResponse{ProjectID: projectID, Runs: runs, Failed: failed})
}

// StreamProject 以 SSE 推送项目批量执行进度
// 事件: batch-start, pattern-success, pattern-failed, batch-complete, batch-error
func (s *SearchService) StreamProject(c *gin.Context) {
	projectID := c.Param("project_id")
	s.clearWriteDeadline(c)
	obs := &streamObserver{c: c, heartbeat: s.heartbeat}

	_, err := s.uc.RunProjectObserved(c.Request.Context(), projectID, c.Query("provider"), obs)

	// 流尚未开始时仍可返回普通 JSON 错误
	if obs.stream == nil {
		if err != nil {
			handleError(c, err)
		}
		return
	}
	defer obs.stream.Close()

	if err != nil {
		err = obs.stream.Send("batch-error", gin.H{"error": err.Error()})
	} else {
		err = obs.tracker.Complete()
	}
	if err != nil {
		s.logger.Debug("project stream closed early",
			zap.String("project_id", projectID),
			zap.Error(err),
		)
		return
	}

	completed, success, failed := obs.tracker.GetStats()
	s.logger.Debug("project stream finished",
		zap.String("project_id", projectID),
		zap.Int("completed", completed),
		zap.Int("success", success),
		zap.Int("failed", failed),
		zap.Duration("duration", obs.stream.GetDuration()),
	)
}

// streamObserver 将项目执行进度转换为 SSE 事件
type streamObserver struct {
	c         *gin.Context
	heartbeat time.Duration
	stream    *sse.Stream
	tracker   *sse.ProgressTracker
}

func (o *streamObserver) Started(total int) {
	o.stream = sse.NewStream(o.c)
	o.tracker = sse.NewProgressTracker(o.stream, total).WithEventPrefix("pattern")
	_ = o.tracker.Start()
	o.stream.StartHeartbeat(o.heartbeat)
}

func (o *streamObserver) Finished(index int, run *types.PatternRun) {
	if run.Error != "" {
		_ = o.tracker.RecordFailure(index, run.Name, run.Error)
		return
	}
	_ = o.tracker.RecordSuccess(index, run.Name, run)
}
