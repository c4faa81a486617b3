package repository

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/cohort-admin-api/internal/models"
)

// DefaultEnrolMethod is the enrolment method tag of cohort based enrolments.
const DefaultEnrolMethod = "cohort"

const (
	defaultPageSize = 25
	maxPageSize     = 5000
)

var cohortListBase = fmt.Sprintf(`FROM cohorts c
JOIN contexts ctx ON ctx.id = c.context_id
LEFT JOIN course_categories cc ON ctx.context_level = %d AND cc.id = ctx.instance_id`, models.ContextLevelCategory)

const cohortColumns = `c.id, c.context_id, c.name, c.id_number, c.description, c.visible, c.component`

// CohortRepository reads cohorts, their memberships and cohort enrolments, and deletes cohorts.
type CohortRepository struct {
	db          *sqlx.DB
	enrolMethod string
	search      SearchBuilder
}

// NewCohortRepository constructs a cohort repository. Empty enrolMethod falls back to DefaultEnrolMethod.
func NewCohortRepository(db *sqlx.DB, enrolMethod string, search SearchBuilder) *CohortRepository {
	if enrolMethod == "" {
		enrolMethod = DefaultEnrolMethod
	}
	if search == nil {
		search = LikeSearch{}
	}
	return &CohortRepository{db: db, enrolMethod: enrolMethod, search: search}
}

// FindByID returns a cohort by ID. sql.ErrNoRows is returned unwrapped when absent.
func (r *CohortRepository) FindByID(ctx context.Context, id int64) (*models.Cohort, error) {
	query := fmt.Sprintf(`SELECT %s FROM cohorts c WHERE c.id = $1`, cohortColumns)
	var cohort models.Cohort
	if err := r.db.GetContext(ctx, &cohort, query, id); err != nil {
		return nil, err
	}
	return &cohort, nil
}

// List returns one page of cohorts plus the totals with and without search applied.
func (r *CohortRepository) List(ctx context.Context, filter models.CohortFilter) (*models.CohortPage, error) {
	var conditions []string
	var args []interface{}

	if len(filter.ExcludedContextIDs) > 0 {
		placeholders := make([]string, len(filter.ExcludedContextIDs))
		for i, id := range filter.ExcludedContextIDs {
			args = append(args, id)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("c.context_id NOT IN (%s)", strings.Join(placeholders, ", ")))
	}

	switch filter.Emptiness.Normalize() {
	case models.EmptinessNoMembers:
		conditions = append(conditions, "NOT EXISTS (SELECT 1 FROM cohort_members cm WHERE cm.cohort_id = c.id)")
	case models.EmptinessNoActiveMembers:
		conditions = append(conditions, "NOT EXISTS (SELECT 1 FROM cohort_members cm JOIN users u ON u.id = cm.user_id WHERE cm.cohort_id = c.id AND u.suspended = FALSE)")
	}

	allClause := whereClause(conditions)
	var allTotal int
	if err := r.db.GetContext(ctx, &allTotal, "SELECT COUNT(*) "+cohortListBase+allClause, args...); err != nil {
		return nil, fmt.Errorf("count all cohorts: %w", err)
	}

	clause := allClause
	total := allTotal
	if predicate, searchArgs := r.search.Build(filter.Search, "c", len(args)+1); predicate != "" {
		conditions = append(conditions, predicate)
		args = append(args, searchArgs...)
		clause = whereClause(conditions)
		if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+cohortListBase+clause, args...); err != nil {
			return nil, fmt.Errorf("count matching cohorts: %w", err)
		}
	}

	result := &models.CohortPage{Total: total, AllTotal: allTotal, Rows: []models.CohortRow{}}
	if total == 0 {
		return result, nil
	}

	size, offset := pageBounds(filter.Page, filter.PageSize)
	query := fmt.Sprintf(`SELECT %s, ctx.context_level, COALESCE(cc.name, '') AS category_name %s%s ORDER BY c.name ASC, c.id_number ASC LIMIT %d OFFSET %d`,
		cohortColumns, cohortListBase, clause, size, offset)
	if err := r.db.SelectContext(ctx, &result.Rows, query, args...); err != nil {
		return nil, fmt.Errorf("list cohorts: %w", err)
	}
	return result, nil
}

// CountMembers counts memberships of a cohort, optionally restricted by account suspension.
func (r *CohortRepository) CountMembers(ctx context.Context, cohortID int64, mode models.MemberCountMode) (int, error) {
	var query string
	switch mode {
	case models.MemberCountActive:
		query = `SELECT COUNT(*) FROM cohort_members cm JOIN users u ON u.id = cm.user_id WHERE cm.cohort_id = $1 AND u.suspended = FALSE`
	case models.MemberCountSuspended:
		query = `SELECT COUNT(*) FROM cohort_members cm JOIN users u ON u.id = cm.user_id WHERE cm.cohort_id = $1 AND u.suspended = TRUE`
	default:
		query = `SELECT COUNT(*) FROM cohort_members cm WHERE cm.cohort_id = $1`
	}
	var count int
	if err := r.db.GetContext(ctx, &count, query, cohortID); err != nil {
		return 0, fmt.Errorf("count cohort members: %w", err)
	}
	return count, nil
}

// CountEnrolledCourses counts distinct courses the cohort is enrolled into.
func (r *CohortRepository) CountEnrolledCourses(ctx context.Context, cohortID int64) (int, error) {
	const query = `SELECT COUNT(DISTINCT e.course_id) FROM enrol_instances e WHERE e.method = $1 AND e.custom_int1 = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, r.enrolMethod, cohortID); err != nil {
		return 0, fmt.Errorf("count cohort courses: %w", err)
	}
	return count, nil
}

// ListMembers returns a page of member accounts ordered by last name, with the total membership count.
func (r *CohortRepository) ListMembers(ctx context.Context, cohortID int64, page, pageSize int) ([]models.CohortMember, int, error) {
	total, err := r.CountMembers(ctx, cohortID, models.MemberCountAll)
	if err != nil {
		return nil, 0, err
	}
	members := []models.CohortMember{}
	if total == 0 {
		return members, 0, nil
	}

	size, offset := pageBounds(page, pageSize)
	query := fmt.Sprintf(`SELECT u.id, u.first_name, u.last_name, u.email, u.last_access, u.suspended FROM cohort_members cm JOIN users u ON u.id = cm.user_id WHERE cm.cohort_id = $1 ORDER BY u.last_name ASC, u.first_name ASC, u.id ASC LIMIT %d OFFSET %d`, size, offset)
	if err := r.db.SelectContext(ctx, &members, query, cohortID); err != nil {
		return nil, 0, fmt.Errorf("list cohort members: %w", err)
	}
	return members, total, nil
}

// ListCourses returns a page of distinct enrolled courses ordered by full name, with the distinct total.
func (r *CohortRepository) ListCourses(ctx context.Context, cohortID int64, page, pageSize int) ([]models.Course, int, error) {
	total, err := r.CountEnrolledCourses(ctx, cohortID)
	if err != nil {
		return nil, 0, err
	}
	courses := []models.Course{}
	if total == 0 {
		return courses, 0, nil
	}

	size, offset := pageBounds(page, pageSize)
	query := fmt.Sprintf(`SELECT co.id, co.full_name, co.short_name, co.visible FROM courses co WHERE co.id IN (SELECT e.course_id FROM enrol_instances e WHERE e.method = $1 AND e.custom_int1 = $2) ORDER BY co.full_name ASC, co.id ASC LIMIT %d OFFSET %d`, size, offset)
	if err := r.db.SelectContext(ctx, &courses, query, r.enrolMethod, cohortID); err != nil {
		return nil, 0, fmt.Errorf("list cohort courses: %w", err)
	}
	return courses, total, nil
}

// Delete removes a cohort together with its memberships and cohort enrolment instances.
func (r *CohortRepository) Delete(ctx context.Context, cohortID int64) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete cohort: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM cohort_members WHERE cohort_id = $1`, cohortID); err != nil {
		return fmt.Errorf("delete cohort members: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM enrol_instances WHERE method = $1 AND custom_int1 = $2`, r.enrolMethod, cohortID); err != nil {
		return fmt.Errorf("delete cohort enrolments: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM cohorts WHERE id = $1`, cohortID); err != nil {
		return fmt.Errorf("delete cohort: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete cohort: %w", err)
	}
	return nil
}

func whereClause(conditions []string) string {
	if len(conditions) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conditions, " AND ")
}

func pageBounds(page, pageSize int) (size, offset int) {
	if page < 0 {
		page = 0
	}
	size = pageSize
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	if page > math.MaxInt/size {
		page = math.MaxInt / size
	}
	return size, page * size
}
