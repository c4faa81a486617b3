package service

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/xeonx/timeago"
	"go.uber.org/zap"

	"github.com/noah-isme/cohort-admin-api/internal/dto"
	"github.com/noah-isme/cohort-admin-api/internal/models"
	appErrors "github.com/noah-isme/cohort-admin-api/pkg/errors"
	"github.com/noah-isme/cohort-admin-api/pkg/token"
)

type cohortStore interface {
	FindByID(ctx context.Context, id int64) (*models.Cohort, error)
	List(ctx context.Context, filter models.CohortFilter) (*models.CohortPage, error)
	CountMembers(ctx context.Context, cohortID int64, mode models.MemberCountMode) (int, error)
	CountEnrolledCourses(ctx context.Context, cohortID int64) (int, error)
	ListMembers(ctx context.Context, cohortID int64, page, pageSize int) ([]models.CohortMember, int, error)
	ListCourses(ctx context.Context, cohortID int64, page, pageSize int) ([]models.Course, int, error)
}

type invisibleContextSource interface {
	InvisibleContextIDs(ctx context.Context) ([]int64, error)
}

type capabilityAuthorizer interface {
	HasCapability(ctx context.Context, claims *models.JWTClaims, capability string, contextID int64) (bool, error)
}

type queryObserver interface {
	ObserveDBQuery(label string, duration time.Duration)
}

// CohortConfig tunes listing defaults.
type CohortConfig struct {
	PageSize         int
	MaxPageSize      int
	HiddenContextIDs []int64
}

// CohortService serves cohort listings, counts and drill-down pages.
type CohortService struct {
	repo      cohortStore
	contexts  invisibleContextSource
	authz     capabilityAuthorizer
	metrics   queryObserver
	validator *validator.Validate
	logger    *zap.Logger
	cfg       CohortConfig
	now       func() time.Time
}

// NewCohortService wires the cohort read service.
func NewCohortService(
	repo cohortStore,
	contexts invisibleContextSource,
	authz capabilityAuthorizer,
	metrics queryObserver,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg CohortConfig,
) *CohortService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 25
	}
	if cfg.MaxPageSize < cfg.PageSize {
		cfg.MaxPageSize = cfg.PageSize
	}
	return &CohortService{
		repo:      repo,
		contexts:  contexts,
		authz:     authz,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// List returns a page of cohorts with member and course counts.
func (s *CohortService) List(ctx context.Context, claims *models.JWTClaims, req dto.ListCohortsRequest) (*dto.CohortList, error) {
	return s.list(ctx, claims, s.normalizeList(req))
}

// Report returns the first limit cohorts of a filtered listing for export. Paging parameters are ignored.
func (s *CohortService) Report(ctx context.Context, claims *models.JWTClaims, req dto.ListCohortsRequest, limit int) (*dto.CohortList, error) {
	req = s.normalizeList(req)
	req.Page = 0
	if limit > 0 {
		req.PageSize = limit
	}
	return s.list(ctx, claims, req)
}

func (s *CohortService) list(ctx context.Context, claims *models.JWTClaims, req dto.ListCohortsRequest) (*dto.CohortList, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid cohort filter")
	}

	if err := s.require(ctx, claims, models.CapabilityCohortView, models.SystemContextID); err != nil {
		return nil, err
	}
	canManage, err := s.authz.HasCapability(ctx, claims, models.CapabilityCohortManage, models.SystemContextID)
	if err != nil {
		return nil, err
	}

	page, err := s.page(ctx, models.CohortFilter{
		Search:    req.Search,
		Emptiness: models.EmptinessMode(req.Empty),
		Page:      req.Page,
		PageSize:  req.PageSize,
	})
	if err != nil {
		return nil, err
	}

	items := make([]dto.CohortItem, 0, len(page.Rows))
	for _, row := range page.Rows {
		item, err := s.item(ctx, row, canManage)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return &dto.CohortList{
		Items: items,
		Pagination: models.Pagination{
			Page:       req.Page,
			PageSize:   req.PageSize,
			TotalCount: page.Total,
		},
		AllTotal:  page.AllTotal,
		CanManage: canManage,
		Emptiness: models.EmptinessMode(req.Empty),
	}, nil
}

// Get returns a single cohort visible to the caller.
func (s *CohortService) Get(ctx context.Context, claims *models.JWTClaims, id int64) (*models.Cohort, error) {
	cohort, err := s.viewable(ctx, claims, id)
	if err != nil {
		return nil, err
	}
	return cohort, nil
}

// Counts reports the member count for mode and the distinct enrolled course count.
func (s *CohortService) Counts(ctx context.Context, claims *models.JWTClaims, id int64, mode models.MemberCountMode) (*dto.CohortCounts, error) {
	cohort, err := s.viewable(ctx, claims, id)
	if err != nil {
		return nil, err
	}
	members, err := s.countMembers(ctx, cohort.ID, mode)
	if err != nil {
		return nil, err
	}
	courses, err := s.countCourses(ctx, cohort.ID)
	if err != nil {
		return nil, err
	}
	return &dto.CohortCounts{CohortID: cohort.ID, Mode: mode.String(), MemberCount: members, CourseCount: courses}, nil
}

// Members returns a page of the cohort roster ordered by last name.
func (s *CohortService) Members(ctx context.Context, claims *models.JWTClaims, id int64, req dto.PageRequest) (*dto.MemberList, error) {
	cohort, err := s.viewable(ctx, claims, id)
	if err != nil {
		return nil, err
	}
	canManage, err := s.authz.HasCapability(ctx, claims, models.CapabilityCohortManage, cohort.ContextID)
	if err != nil {
		return nil, err
	}
	req = s.normalizePage(req)

	start := time.Now()
	members, total, err := s.repo.ListMembers(ctx, cohort.ID, req.Page, req.PageSize)
	s.observe("cohort_members", start)
	if err != nil {
		s.logger.Error("list cohort members failed", zap.Int64("cohort_id", cohort.ID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list cohort members")
	}

	now := s.now()
	items := make([]dto.MemberItem, 0, len(members))
	for _, member := range members {
		items = append(items, dto.MemberItem{
			ID:            member.ID,
			FullName:      member.FullName(),
			Email:         member.Email,
			LastAccess:    member.LastAccess,
			LastAccessAgo: lastAccessAgo(member.LastAccess, now),
			Suspended:     member.Suspended,
		})
	}

	return &dto.MemberList{
		Cohort:     *cohort,
		Items:      items,
		Pagination: models.Pagination{Page: req.Page, PageSize: req.PageSize, TotalCount: total},
		CanManage:  canManage,
	}, nil
}

// Courses returns a page of distinct courses the cohort is enrolled into.
func (s *CohortService) Courses(ctx context.Context, claims *models.JWTClaims, id int64, req dto.PageRequest) (*dto.CourseList, error) {
	cohort, err := s.viewable(ctx, claims, id)
	if err != nil {
		return nil, err
	}
	canManage, err := s.authz.HasCapability(ctx, claims, models.CapabilityCohortManage, cohort.ContextID)
	if err != nil {
		return nil, err
	}
	req = s.normalizePage(req)

	start := time.Now()
	courses, total, err := s.repo.ListCourses(ctx, cohort.ID, req.Page, req.PageSize)
	s.observe("cohort_courses", start)
	if err != nil {
		s.logger.Error("list cohort courses failed", zap.Int64("cohort_id", cohort.ID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list cohort courses")
	}

	items := make([]dto.CourseItem, 0, len(courses))
	for _, course := range courses {
		items = append(items, dto.CourseItem{ID: course.ID, FullName: course.FullName, Visible: course.Visible})
	}

	return &dto.CourseList{
		Cohort:     *cohort,
		Items:      items,
		Pagination: models.Pagination{Page: req.Page, PageSize: req.PageSize, TotalCount: total},
		CanManage:  canManage,
	}, nil
}

// page applies hidden context exclusion and runs the listing query.
func (s *CohortService) page(ctx context.Context, filter models.CohortFilter) (*models.CohortPage, error) {
	excluded, err := s.excludedContexts(ctx)
	if err != nil {
		return nil, err
	}
	filter.ExcludedContextIDs = excluded

	start := time.Now()
	page, err := s.repo.List(ctx, filter)
	s.observe("cohort_list", start)
	if err != nil {
		s.logger.Error("list cohorts failed", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list cohorts")
	}
	return page, nil
}

func (s *CohortService) item(ctx context.Context, row models.CohortRow, canManage bool) (dto.CohortItem, error) {
	members, err := s.countMembers(ctx, row.ID, models.MemberCountAll)
	if err != nil {
		return dto.CohortItem{}, err
	}
	courses, err := s.countCourses(ctx, row.ID)
	if err != nil {
		return dto.CohortItem{}, err
	}
	return dto.CohortItem{
		ID:           row.ID,
		Name:         row.Name,
		IDNumber:     row.IDNumber,
		ContextID:    row.ContextID,
		ContextName:  row.ContextName(),
		CategoryLink: row.ContextLevel == models.ContextLevelCategory,
		Visible:      row.Visible,
		Component:    row.Component,
		MemberCount:  members,
		CourseCount:  courses,
		Editable:     canManage && !row.Managed(),
	}, nil
}

func (s *CohortService) viewable(ctx context.Context, claims *models.JWTClaims, id int64) (*models.Cohort, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	cohort, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// callers without site-wide view cannot tell missing ids from hidden ones
			if err := s.require(ctx, claims, models.CapabilityCohortView, models.SystemContextID); err != nil {
				return nil, err
			}
			return nil, appErrors.Clone(appErrors.ErrNotFound, "cohort not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load cohort")
	}
	if err := s.require(ctx, claims, models.CapabilityCohortView, cohort.ContextID); err != nil {
		return nil, err
	}
	return cohort, nil
}

func (s *CohortService) require(ctx context.Context, claims *models.JWTClaims, capability string, contextID int64) error {
	ok, err := s.authz.HasCapability(ctx, claims, capability, contextID)
	if err != nil {
		return err
	}
	if !ok {
		return appErrors.Clone(appErrors.ErrForbidden, "missing capability "+capability)
	}
	return nil
}

func (s *CohortService) countMembers(ctx context.Context, cohortID int64, mode models.MemberCountMode) (int, error) {
	start := time.Now()
	count, err := s.repo.CountMembers(ctx, cohortID, mode)
	s.observe("cohort_member_count", start)
	if err != nil {
		s.logger.Error("count cohort members failed", zap.Int64("cohort_id", cohortID), zap.Error(err))
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count cohort members")
	}
	return count, nil
}

func (s *CohortService) countCourses(ctx context.Context, cohortID int64) (int, error) {
	start := time.Now()
	count, err := s.repo.CountEnrolledCourses(ctx, cohortID)
	s.observe("cohort_course_count", start)
	if err != nil {
		s.logger.Error("count cohort courses failed", zap.Int64("cohort_id", cohortID), zap.Error(err))
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count cohort courses")
	}
	return count, nil
}

func (s *CohortService) excludedContexts(ctx context.Context) ([]int64, error) {
	ids := append([]int64{}, s.cfg.HiddenContextIDs...)
	if s.contexts != nil {
		hidden, err := s.contexts.InvisibleContextIDs(ctx)
		if err != nil {
			s.logger.Error("resolve invisible contexts failed", zap.Error(err))
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve hidden contexts")
		}
		ids = append(ids, hidden...)
	}
	return token.CanonicalIDs(ids), nil
}

func (s *CohortService) normalizeList(req dto.ListCohortsRequest) dto.ListCohortsRequest {
	page := s.normalizePage(dto.PageRequest{Page: req.Page, PageSize: req.PageSize})
	req.Page = page.Page
	req.PageSize = page.PageSize
	req.Search = truncateSearch(strings.TrimSpace(req.Search))
	req.Empty = int(models.EmptinessMode(req.Empty).Normalize())
	return req
}

func (s *CohortService) normalizePage(req dto.PageRequest) dto.PageRequest {
	if req.Page < 0 {
		req.Page = 0
	}
	if req.PageSize <= 0 {
		req.PageSize = s.cfg.PageSize
	}
	if req.PageSize > s.cfg.MaxPageSize {
		req.PageSize = s.cfg.MaxPageSize
	}
	if req.Page > math.MaxInt/req.PageSize {
		req.Page = math.MaxInt / req.PageSize
	}
	return req
}

func (s *CohortService) observe(label string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveDBQuery(label, time.Since(start))
	}
}

// maxSearchLength bounds the search term in runes.
const maxSearchLength = 255

func truncateSearch(search string) string {
	runes := []rune(search)
	if len(runes) <= maxSearchLength {
		return search
	}
	return strings.TrimSpace(string(runes[:maxSearchLength]))
}

func lastAccessAgo(lastAccess *time.Time, now time.Time) string {
	if lastAccess == nil || lastAccess.IsZero() {
		return "never"
	}
	return timeago.English.FormatReference(*lastAccess, now)
}
