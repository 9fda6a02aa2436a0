package main

import (
	"context"
	"fmt"

	"github.com/elimuhub/elimu/core"
)

func (cli *commandLine) listStudents(ctx context.Context) error {
	profiles, err := cli.studentSvc.QueryAllProfiles(ctx, core.DBOrdering{Field: "student_id", Ascending: true})
	if err != nil {
		return err
	}

	w := cli.tabWriter()
	fmt.Fprintln(w, "ID\tSTUDENT ID\tNAME\tEMAIL\tENROLLED")
	for _, p := range profiles {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			p.ID, p.StudentID, p.FullName, p.Email, p.EnrolledAt.Format("2006-01-02"))
	}
	return w.Flush()
}

func (cli *commandLine) enroll(ctx context.Context, profileID, courseID int) error {
	enr, err := cli.studentSvc.Enroll(ctx, profileID, courseID)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "enrollment %d created (%s)\n", enr.ID, enr.Status)
	return nil
}

func (cli *commandLine) toggleStatus(ctx context.Context, profileID, courseID int) error {
	enr, err := cli.studentSvc.ToggleEnrollmentStatus(ctx, profileID, courseID)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "enrollment %d is now %s\n", enr.ID, enr.Status)
	return nil
}
