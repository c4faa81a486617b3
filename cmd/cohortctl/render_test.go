package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/cohort-admin-api/internal/dto"
	"github.com/noah-isme/cohort-admin-api/internal/models"
)

func TestWriteCohorts(t *testing.T) {
	list := &dto.CohortList{
		Items: []dto.CohortItem{
			{ID: 1, Name: "Year 9", ContextName: "System", MemberCount: 4, CourseCount: 1},
			{ID: 2, Name: "Synced", IDNumber: "S1", ContextName: "Science", Component: "auth_ldap"},
		},
		Pagination: models.Pagination{Page: 0, PageSize: 25, TotalCount: 2},
		AllTotal:   30,
	}

	var buf bytes.Buffer
	require.NoError(t, writeCohorts(&buf, list))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, lines[1], "manual")
	assert.Contains(t, lines[2], "auth_ldap")
	assert.Equal(t, "page 0, 25 per page, 2 matching of 30", lines[3])
}

func TestWriteMembers(t *testing.T) {
	list := &dto.MemberList{
		Cohort:     models.Cohort{ID: 5, Name: "Staff"},
		Items:      []dto.MemberItem{{ID: 1, FullName: "Turing Alan", Suspended: true, LastAccessAgo: "never"}},
		Pagination: models.Pagination{PageSize: 25, TotalCount: 1},
	}

	var buf bytes.Buffer
	require.NoError(t, writeMembers(&buf, list))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "Staff (5)\n"))
	assert.Contains(t, out, "suspended")
	assert.Contains(t, out, "page 0, 25 per page, 1 total")
}

func TestParseCohortID(t *testing.T) {
	id, err := parseCohortID("12")
	require.NoError(t, err)
	assert.Equal(t, int64(12), id)

	for _, raw := range []string{"0", "-1", "abc"} {
		_, err := parseCohortID(raw)
		assert.Error(t, err, raw)
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, &dto.CohortCounts{CohortID: 3, Mode: "all", MemberCount: 2}))
	assert.Contains(t, buf.String(), `"member_count": 2`)
}
