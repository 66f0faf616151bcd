package service

import (
	"net/url"

	"github.com/lk2023060901/property-research-backend/internal/websearch/biz"
	"github.com/lk2023060901/property-research-backend/internal/websearch/query"
	"github.com/lk2023060901/property-research-backend/internal/websearch/types"
)

// CompileResponse 编译结果（不含凭据）
type CompileResponse struct {
	Provider types.ProviderID  `json:"provider"`
	Query    string            `json:"q"`
	Page     int               `json:"page"`
	Params   map[string]string `json:"params"`
	Encoded  string            `json:"encoded"`
}

// ProvidersResponse 已配置的搜索服务商
type ProvidersResponse struct {
	Items []biz.ProviderInfo `json:"items"`
	Total int                `json:"total"`
}

// CreatePatternRequest 保存搜索模式请求
type CreatePatternRequest struct {
	ProjectID string              `json:"project_id" binding:"required"`
	Name      string              `json:"name" binding:"required"`
	Pattern   types.SearchPattern `json:"pattern"`
}

// UpdatePatternRequest 更新搜索模式请求，未提供的字段保持不变
type UpdatePatternRequest struct {
	Name    *string              `json:"name"`
	Pattern *types.SearchPattern `json:"pattern"`
}

// ListPatternsRequest 列表查询参数
type ListPatternsRequest struct {
	ProjectID string `form:"project_id" binding:"required"`
	Page      int    `form:"page"`
	PageSize  int    `form:"page_size" binding:"omitempty,max=100"`
}

// ListPatternsResponse 搜索模式分页结果
type ListPatternsResponse struct {
	Items    []*types.SavedPattern `json:"items"`
	Total    int64                 `json:"total"`
	Page     int                   `json:"page"`
	PageSize int                   `json:"page_size"`
}

// RunPatternRequest 执行已保存模式的查询参数
type RunPatternRequest struct {
	Provider string `form:"provider"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
}

// ProjectRunResponse 项目批量执行结果
type ProjectRunResponse struct {
	ProjectID string              `json:"project_id"`
	Runs      []*types.PatternRun `json:"runs"`
	Failed    int                 `json:"failed"`
}

func toCompileResponse(req query.Request) *CompileResponse {
	values := req.Values()
	return &CompileResponse{
		Provider: req.Provider(),
		Query:    req.Query(),
		Page:     req.Page(),
		Params:   flatten(values),
		Encoded:  values.Encode(),
	}
}

// flatten keeps the first value of every key; compiled requests never repeat keys
func flatten(values url.Values) map[string]string {
	out := make(map[string]string, len(values))
	for k := range values {
		out[k] = values.Get(k)
	}
	return out
}
