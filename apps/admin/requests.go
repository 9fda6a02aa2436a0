package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/elimuhub/elimu/core/request"
)

func (cli *commandLine) listRequests(ctx context.Context, pendingOnly bool) error {
	var views []request.RequestView
	var err error
	if pendingOnly {
		views, err = cli.requestSvc.Pending(ctx)
	} else {
		views, err = cli.requestSvc.All(ctx)
	}
	if err != nil {
		return err
	}

	w := cli.tabWriter()
	fmt.Fprintln(w, "ID\tAPPLICANT\tEMAIL\tCOURSES\tSTATUS\tREQUESTED")
	for _, v := range views {
		titles := make([]string, 0, len(v.Courses))
		for _, c := range v.Courses {
			titles = append(titles, c.Title)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			v.ID, v.FullName, v.Email, strings.Join(titles, ", "), v.Status, v.RequestedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func (cli *commandLine) approve(ctx context.Context, id string, courseIDs []int, adminID int) error {
	var err error
	if len(courseIDs) > 0 {
		_, err = cli.requestSvc.ApproveSelected(ctx, id, courseIDs, adminID)
	} else {
		_, err = cli.requestSvc.Approve(ctx, id, adminID)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "request %s approved\n", id)
	return nil
}

func (cli *commandLine) reject(ctx context.Context, id string, adminID int) error {
	if _, err := cli.requestSvc.Reject(ctx, id, adminID); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "request %s rejected\n", id)
	return nil
}
