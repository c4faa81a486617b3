package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/noah-isme/cohort-admin-api/internal/dto"
	"github.com/noah-isme/cohort-admin-api/internal/models"
)

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeCohorts(w io.Writer, list *dto.CohortList) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCATEGORY\tNAME\tCOHORT ID\tMEMBERS\tCOURSES\tSOURCE")
	for _, item := range list.Items {
		source := item.Component
		if source == "" {
			source = "manual"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%d\t%s\n", item.ID, item.ContextName, item.Name, dash(item.IDNumber), item.MemberCount, item.CourseCount, source)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%s\n", footer(list.Pagination, list.AllTotal))
	return err
}

func writeMembers(w io.Writer, list *dto.MemberList) error {
	fmt.Fprintf(w, "%s (%d)\n", list.Cohort.Name, list.Cohort.ID)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tLAST ACCESS\tSTATUS")
	for _, item := range list.Items {
		status := "active"
		if item.Suspended {
			status = "suspended"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", item.ID, item.FullName, item.Email, item.LastAccessAgo, status)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%s\n", footer(list.Pagination, list.Pagination.TotalCount))
	return err
}

func writeCourses(w io.Writer, list *dto.CourseList) error {
	fmt.Fprintf(w, "%s (%d)\n", list.Cohort.Name, list.Cohort.ID)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCOURSE\tVISIBLE")
	for _, item := range list.Items {
		fmt.Fprintf(tw, "%d\t%s\t%t\n", item.ID, item.FullName, item.Visible)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%s\n", footer(list.Pagination, list.Pagination.TotalCount))
	return err
}

func footer(p models.Pagination, allTotal int) string {
	if allTotal != p.TotalCount {
		return fmt.Sprintf("page %d, %d per page, %d matching of %d", p.Page, p.PageSize, p.TotalCount, allTotal)
	}
	return fmt.Sprintf("page %d, %d per page, %d total", p.Page, p.PageSize, p.TotalCount)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
