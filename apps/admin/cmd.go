package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/elimuhub/elimu/core/request"
	"github.com/elimuhub/elimu/core/student"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	db         *sql.DB
	studentSvc student.Service
	requestSvc request.Service
	out        io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]                      - run database migrations (up, down, status, ...)")
	fmt.Fprintln(cli.out, "  listrequests [-pending]                     - list enrollment requests")
	fmt.Fprintln(cli.out, "  approve -id ID [-courses 1,2] [-admin ID]   - approve a pending request, optionally only selected courses")
	fmt.Fprintln(cli.out, "  reject -id ID [-admin ID]                   - reject a pending request")
	fmt.Fprintln(cli.out, "  liststudents                                - list student profiles")
	fmt.Fprintln(cli.out, "  enroll -student ID -course ID               - enroll a student in a course")
	fmt.Fprintln(cli.out, "  togglestatus -student ID -course ID         - drop or reactivate an enrollment")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}
	ctx := context.Background()

	listRequestsCmd := flag.NewFlagSet("listrequests", flag.ExitOnError)
	listRequestsPending := listRequestsCmd.Bool("pending", false, "Only list pending requests.")

	approveCmd := flag.NewFlagSet("approve", flag.ExitOnError)
	approveID := approveCmd.String("id", "", "The request id.")
	approveCourses := approveCmd.String("courses", "", "Comma-separated course ids; approves only this subset.")
	approveAdmin := approveCmd.Int("admin", 0, "The processing admin's account id.")

	rejectCmd := flag.NewFlagSet("reject", flag.ExitOnError)
	rejectID := rejectCmd.String("id", "", "The request id.")
	rejectAdmin := rejectCmd.Int("admin", 0, "The processing admin's account id.")

	enrollCmd := flag.NewFlagSet("enroll", flag.ExitOnError)
	enrollStudent := enrollCmd.Int("student", 0, "The student profile id.")
	enrollCourse := enrollCmd.Int("course", 0, "The course id.")

	toggleCmd := flag.NewFlagSet("togglestatus", flag.ExitOnError)
	toggleStudent := toggleCmd.Int("student", 0, "The student profile id.")
	toggleCourse := toggleCmd.Int("course", 0, "The course id.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "listrequests":
		if err := listRequestsCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.listRequests(ctx, *listRequestsPending)

	case "approve":
		if err := approveCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *approveID == "" {
			approveCmd.Usage()
			return errHelp
		}
		courseIDs, err := parseIntList(*approveCourses)
		if err != nil {
			return err
		}
		return cli.approve(ctx, *approveID, courseIDs, *approveAdmin)

	case "reject":
		if err := rejectCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *rejectID == "" {
			rejectCmd.Usage()
			return errHelp
		}
		return cli.reject(ctx, *rejectID, *rejectAdmin)

	case "liststudents":
		return cli.listStudents(ctx)

	case "enroll":
		if err := enrollCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *enrollStudent == 0 || *enrollCourse == 0 {
			enrollCmd.Usage()
			return errHelp
		}
		return cli.enroll(ctx, *enrollStudent, *enrollCourse)

	case "togglestatus":
		if err := toggleCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *toggleStudent == 0 || *toggleCourse == 0 {
			toggleCmd.Usage()
			return errHelp
		}
		return cli.toggleStatus(ctx, *toggleStudent, *toggleCourse)

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) tabWriter() *tabwriter.Writer {
	return tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
}

func parseIntList(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	ids := make([]int, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid course id %q", p)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
