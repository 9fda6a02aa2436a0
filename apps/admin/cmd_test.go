package main

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"testing"

	"github.com/elimuhub/elimu/core"
	"github.com/elimuhub/elimu/core/account"
	"github.com/elimuhub/elimu/core/content"
	"github.com/elimuhub/elimu/core/request"
	"github.com/elimuhub/elimu/core/student"
	emailsvc "github.com/elimuhub/elimu/services/email"
	inmemdb "github.com/elimuhub/elimu/storage/database/inmem"
	testutil "github.com/elimuhub/elimu/tests"
)

func setup(t *testing.T) (*commandLine, *inmemdb.DB, *bytes.Buffer) {
	t.Helper()
	testutil.Setup(t)
	emailsvc.ClearSentMessages()

	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	studentRepo := inmemdb.NewStudentRepository(db)
	contentRepo := inmemdb.NewContentRepository(db)
	mailSvc := emailsvc.NewConsoleServiceMock()
	quiet := core.NewStdLogger(log.New(io.Discard, "", 0))

	out := new(bytes.Buffer)
	cli := &commandLine{
		studentSvc: student.NewService(studentRepo, contentRepo, mailSvc),
		requestSvc: request.NewService(
			db,
			inmemdb.NewRequestRepository(db),
			studentRepo,
			contentRepo,
			account.NewIdentityProvider(account.NewService(inmemdb.NewAccountRepository(db))),
			mailSvc,
			quiet,
		),
		out: out,
	}
	return cli, db, out
}

func submitRequest(t *testing.T, cli *commandLine, email string, courseIDs ...int) request.Request {
	t.Helper()
	req, err := cli.requestSvc.Submit(context.Background(), request.NewRequest{
		FullName:  "Jane Doe",
		Email:     email,
		CourseIDs: courseIDs,
	})
	if err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}
	return req
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	wantOut    string
}

func runTests(t *testing.T, cli *commandLine, tests []cliTest, out *bytes.Buffer) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out.Reset()
			args := append([]string{"admin"}, tt.args...)
			err := cli.run(args)
			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("run() error = %v; want %v", err, tt.wantErr)
				}
			case tt.wantErrStr != "":
				if err == nil || err.Error() != tt.wantErrStr {
					t.Errorf("run() error = %v; want %q", err, tt.wantErrStr)
				}
			default:
				if err != nil {
					t.Errorf("run() failed: %v", err)
				}
			}
			if tt.wantOut != "" && !strings.Contains(out.String(), tt.wantOut) {
				t.Errorf("run() output %q does not contain %q", out.String(), tt.wantOut)
			}
		})
	}
}

func Test_commandLine_usage(t *testing.T) {
	cli, _, out := setup(t)
	runTests(t, cli, []cliTest{
		{name: "no command", args: nil, wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "migrate without subcommand", args: []string{"migrate"}, wantErr: errHelp},
	}, out)
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _, out := setup(t)

	gooseRunFunc = func(command string, db *sql.DB, dir string, args ...string) error {
		switch command {
		case "up", "down", "redo", "reset", "status", "version", "fix": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s requires a version", command)
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	runTests(t, cli, []cliTest{
		{name: "up", args: []string{"migrate", "up"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to requires a version"},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
	}, out)
}

func Test_commandLine_requests(t *testing.T) {
	cli, db, out := setup(t)
	course, _, _ := testutil.SeedCourse(t, db, "Go", 1)
	approveMe := submitRequest(t, cli, "jane@test.com", course.ID)
	rejectMe := submitRequest(t, cli, "john@test.com", course.ID)

	runTests(t, cli, []cliTest{
		{name: "list", args: []string{"listrequests"}, wantOut: "jane@test.com"},
		{name: "approve: no id", args: []string{"approve"}, wantErr: errHelp},
		{name: "approve: bad courses flag", args: []string{"approve", "-id", approveMe.ID, "-courses", "x"}, wantErrStr: `invalid course id "x"`},
		{name: "approve", args: []string{"approve", "-id", approveMe.ID, "-admin", "1"}, wantOut: "approved"},
		{name: "approve: already processed", args: []string{"approve", "-id", approveMe.ID}, wantErr: request.ErrNotPending},
		{name: "reject: no id", args: []string{"reject"}, wantErr: errHelp},
		{name: "reject", args: []string{"reject", "-id", rejectMe.ID, "-admin", "1"}, wantOut: "rejected"},
		{name: "list pending", args: []string{"listrequests", "-pending"}, wantOut: "APPLICANT"},
		{name: "unknown id", args: []string{"approve", "-id", "nope"}, wantErr: request.ErrNotFound},
	}, out)
}

// allRequestsBroken fails full listings; pending-only listings must not touch them.
type allRequestsBroken struct {
	request.Repository
	err error
}

func (repo allRequestsBroken) QueryAllRequests(_ context.Context, _ ...core.DBExecutor) ([]request.Request, error) {
	return nil, repo.err
}

func Test_commandLine_listRequests_pendingOnly(t *testing.T) {
	cli, db, out := setup(t)
	course, _, _ := testutil.SeedCourse(t, db, "Go", 1)
	submitRequest(t, cli, "jane@test.com", course.ID)

	errBroken := errors.New("full listing unavailable")
	cli.requestSvc = request.NewService(
		db,
		allRequestsBroken{Repository: inmemdb.NewRequestRepository(db), err: errBroken},
		inmemdb.NewStudentRepository(db),
		inmemdb.NewContentRepository(db),
		account.NewIdentityProvider(account.NewService(inmemdb.NewAccountRepository(db))),
		emailsvc.NewConsoleServiceMock(),
		core.NewStdLogger(log.New(io.Discard, "", 0)),
	)

	runTests(t, cli, []cliTest{
		{name: "pending only", args: []string{"listrequests", "-pending"}, wantOut: "jane@test.com"},
		{name: "full listing", args: []string{"listrequests"}, wantErr: errBroken},
	}, out)
}

func Test_commandLine_students(t *testing.T) {
	cli, db, out := setup(t)
	course, _, _ := testutil.SeedCourse(t, db, "Go", 1)
	req := submitRequest(t, cli, "jane@test.com", course.ID)
	view, err := cli.requestSvc.Approve(context.Background(), req.ID, 1)
	if err != nil {
		t.Fatalf("Approve() failed: %v", err)
	}

	second := inmemdb.NewContentRepository(db).AddCourse(content.Course{Title: "SQL"})

	runTests(t, cli, []cliTest{
		{name: "list", args: []string{"liststudents"}, wantOut: view.StudentID},
		{name: "enroll: missing flags", args: []string{"enroll"}, wantErr: errHelp},
		{name: "enroll", args: []string{"enroll", "-student", fmt.Sprint(view.ID), "-course", fmt.Sprint(second.ID)}, wantOut: "created"},
		{name: "enroll: duplicate", args: []string{"enroll", "-student", fmt.Sprint(view.ID), "-course", fmt.Sprint(second.ID)}, wantErr: student.ErrAlreadyEnrolled},
		{name: "toggle", args: []string{"togglestatus", "-student", fmt.Sprint(view.ID), "-course", fmt.Sprint(second.ID)}, wantOut: student.StatusDropped},
	}, out)
}
