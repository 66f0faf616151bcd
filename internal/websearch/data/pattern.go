package data

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lk2023060901/property-research-backend/internal/pkg/database"
	"github.com/lk2023060901/property-research-backend/internal/websearch/biz"
	"github.com/lk2023060901/property-research-backend/internal/websearch/types"

	"gorm.io/gorm"
)

// StringArrayJSON stores a string slice in a jsonb column
type StringArrayJSON []string

func (j *StringArrayJSON) Scan(value interface{}) error {
	return scanJSON(value, j)
}

func (j StringArrayJSON) Value() (driver.Value, error) {
	if j == nil {
		return json.Marshal([]string{})
	}
	return json.Marshal([]string(j))
}

// KeywordsJSON stores the keyword group in a jsonb column
type KeywordsJSON []types.Keyword

func (j *KeywordsJSON) Scan(value interface{}) error {
	return scanJSON(value, j)
}

func (j KeywordsJSON) Value() (driver.Value, error) {
	if j == nil {
		return json.Marshal([]types.Keyword{})
	}
	return json.Marshal([]types.Keyword(j))
}

func scanJSON(value interface{}, dest interface{}) error {
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dest)
	case string:
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("unsupported jsonb value type %T", value)
	}
}

// SearchPatternPO is the database model of a saved search pattern
type SearchPatternPO struct {
	ID                    string          `gorm:"type:uuid;primarykey"`
	ProjectID             string          `gorm:"size:64;not null;index:idx_search_patterns_project_id,where:deleted_at IS NULL"`
	Name                  string          `gorm:"size:255;not null"`
	CustomerName          string          `gorm:"size:256;not null"`
	CustomerNameMatchType string          `gorm:"size:16;not null"`
	Address               string          `gorm:"size:256;not null"`
	AddressMatchType      string          `gorm:"size:16;not null"`
	DateRestrict          string          `gorm:"size:8;not null"`
	AdvancedSearchEnabled bool            `gorm:"not null"`
	AdditionalKeywords    KeywordsJSON    `gorm:"type:jsonb;not null"`
	SearchSites           StringArrayJSON `gorm:"type:jsonb;not null"`
	SiteSearchMode        string          `gorm:"size:16;not null"`
	Page                  int             `gorm:"not null"`
	CreatedAt             time.Time       `gorm:"not null"`
	UpdatedAt             time.Time       `gorm:"not null"`
	DeletedAt             gorm.DeletedAt  `gorm:"index:idx_search_patterns_deleted_at"`
}

func (SearchPatternPO) TableName() string {
	return "search_patterns"
}

// PatternRepo is the gorm implementation of biz.PatternRepo
type PatternRepo struct {
	db *database.DB
}

// NewPatternRepo creates a pattern repository
func NewPatternRepo(db *database.DB) biz.PatternRepo {
	return &PatternRepo{db: db}
}

// Create inserts a pattern
func (r *PatternRepo) Create(ctx context.Context, p *types.SavedPattern) error {
	return r.db.WithContext(ctx).GetDB().Create(toPO(p)).Error
}

// GetByID loads a pattern that has not been deleted
func (r *PatternRepo) GetByID(ctx context.Context, id string) (*types.SavedPattern, error) {
	var po SearchPatternPO
	err := r.db.WithContext(ctx).GetDB().
		Where("id = ?", id).
		First(&po).Error
	if err != nil {
		if database.IsRecordNotFoundError(err) {
			return nil, biz.ErrPatternNotFound
		}
		return nil, err
	}

	return po.toSavedPattern(), nil
}

// List returns one page of a project's patterns, oldest first
func (r *PatternRepo) List(ctx context.Context, filter *types.PatternFilter) ([]*types.SavedPattern, int64, error) {
	var total int64
	if err := r.byProject(ctx, filter.ProjectID).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []*types.SavedPattern{}, 0, nil
	}

	var pos []SearchPatternPO
	err := r.byProject(ctx, filter.ProjectID).
		Order("created_at ASC, id ASC").
		Scopes(database.Paginate(filter.Page, filter.PageSize)).
		Find(&pos).Error
	if err != nil {
		return nil, 0, err
	}

	return toSavedPatterns(pos), total, nil
}

// ListAll returns every pattern of a project, oldest first
func (r *PatternRepo) ListAll(ctx context.Context, projectID string) ([]*types.SavedPattern, error) {
	var pos []SearchPatternPO
	err := r.byProject(ctx, projectID).
		Order("created_at ASC, id ASC").
		Find(&pos).Error
	if err != nil {
		return nil, err
	}

	return toSavedPatterns(pos), nil
}

func (r *PatternRepo) byProject(ctx context.Context, projectID string) *gorm.DB {
	return r.db.WithContext(ctx).GetDB().
		Model(&SearchPatternPO{}).
		Where("project_id = ?", projectID)
}

// Update overwrites the mutable fields of a pattern
func (r *PatternRepo) Update(ctx context.Context, p *types.SavedPattern) error {
	po := toPO(p)
	updates := map[string]interface{}{
		"name":                     po.Name,
		"customer_name":            po.CustomerName,
		"customer_name_match_type": po.CustomerNameMatchType,
		"address":                  po.Address,
		"address_match_type":       po.AddressMatchType,
		"date_restrict":            po.DateRestrict,
		"advanced_search_enabled":  po.AdvancedSearchEnabled,
		"additional_keywords":      po.AdditionalKeywords,
		"search_sites":             po.SearchSites,
		"site_search_mode":         po.SiteSearchMode,
		"page":                     po.Page,
		"updated_at":               po.UpdatedAt,
	}

	result := r.db.WithContext(ctx).GetDB().
		Model(&SearchPatternPO{}).
		Where("id = ?", p.ID).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return biz.ErrPatternNotFound
	}

	return nil
}

// Delete soft-deletes a pattern
func (r *PatternRepo) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).GetDB().
		Where("id = ?", id).
		Delete(&SearchPatternPO{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return biz.ErrPatternNotFound
	}

	return nil
}

func toPO(p *types.SavedPattern) *SearchPatternPO {
	sp := p.Pattern
	return &SearchPatternPO{
		ID:                    p.ID,
		ProjectID:             p.ProjectID,
		Name:                  p.Name,
		CustomerName:          sp.CustomerName,
		CustomerNameMatchType: string(sp.CustomerNameMatchType),
		Address:               sp.Address,
		AddressMatchType:      string(sp.AddressMatchType),
		DateRestrict:          string(sp.DateRestrict),
		AdvancedSearchEnabled: sp.AdvancedSearchEnabled,
		AdditionalKeywords:    KeywordsJSON(sp.AdditionalKeywords),
		SearchSites:           StringArrayJSON(sp.SearchSites),
		SiteSearchMode:        string(sp.SiteSearchMode),
		Page:                  sp.Page,
		CreatedAt:             p.CreatedAt,
		UpdatedAt:             p.UpdatedAt,
	}
}

func (po *SearchPatternPO) toSavedPattern() *types.SavedPattern {
	return &types.SavedPattern{
		ID:        po.ID,
		ProjectID: po.ProjectID,
		Name:      po.Name,
		Pattern: types.SearchPattern{
			CustomerName:          po.CustomerName,
			CustomerNameMatchType: types.MatchType(po.CustomerNameMatchType),
			Address:               po.Address,
			AddressMatchType:      types.MatchType(po.AddressMatchType),
			DateRestrict:          types.DateRestrict(po.DateRestrict),
			AdvancedSearchEnabled: po.AdvancedSearchEnabled,
			AdditionalKeywords:    []types.Keyword(po.AdditionalKeywords),
			SearchSites:           []string(po.SearchSites),
			SiteSearchMode:        types.SiteSearchMode(po.SiteSearchMode),
			Page:                  po.Page,
		},
		CreatedAt: po.CreatedAt,
		UpdatedAt: po.UpdatedAt,
	}
}

func toSavedPatterns(pos []SearchPatternPO) []*types.SavedPattern {
	out := make([]*types.SavedPattern, len(pos))
	for i := range pos {
		out[i] = pos[i].toSavedPattern()
	}
	return out
}
