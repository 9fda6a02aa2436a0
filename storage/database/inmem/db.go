// Package inmemdb is an in-memory store used in tests and local development.
// Tables are guarded by RW mutexes; RunInTx only serializes callers, it does
// not roll back. Good enough for exercising the services without PostgreSQL.
package inmemdb

import (
	"context"
	"sync"
	"time"

	"github.com/elimuhub/elimu/core"
	"github.com/elimuhub/elimu/core/account"
	"github.com/elimuhub/elimu/core/content"
	"github.com/elimuhub/elimu/core/progress"
	"github.com/elimuhub/elimu/core/request"
	"github.com/elimuhub/elimu/core/student"
)

type (
	DB struct {
		txMu sync.Mutex

		content  *contentTable
		progress *progressTable
		student  *studentTable
		request  *requestTable
		account  *accountTable
	}

	contentTable struct {
		sync.RWMutex
		courses  map[int]*content.Course
		modules  map[int]*content.Module
		chapters map[int]*content.Chapter
		pkCount  int
	}

	progressKey struct{ userID, chapterID int }
	moduleKey   struct{ userID, moduleID int }

	progressTable struct {
		sync.RWMutex
		records     map[progressKey]*progress.ChapterProgress
		completions map[moduleKey]time.Time
		pkCount     int
	}

	enrollmentKey struct{ profileID, courseID int }

	studentTable struct {
		sync.RWMutex
		profiles    map[int]*student.StudentProfile
		enrollments map[int]*student.Enrollment
		byPair      map[enrollmentKey]int
		pkCount     int
		seq         int
	}

	requestTable struct {
		sync.RWMutex
		table map[string]*request.Request
	}

	accountTable struct {
		sync.RWMutex
		table   map[int]*account.Account
		pkCount int
	}
)

func Open() (*DB, error) {
	db := &DB{
		content: &contentTable{
			courses:  make(map[int]*content.Course),
			modules:  make(map[int]*content.Module),
			chapters: make(map[int]*content.Chapter),
		},
		progress: &progressTable{
			records:     make(map[progressKey]*progress.ChapterProgress),
			completions: make(map[moduleKey]time.Time),
		},
		student: &studentTable{
			profiles:    make(map[int]*student.StudentProfile),
			enrollments: make(map[int]*student.Enrollment),
			byPair:      make(map[enrollmentKey]int),
		},
		request: &requestTable{table: make(map[string]*request.Request)},
		account: &accountTable{table: make(map[int]*account.Account)},
	}
	return db, nil
}

var _ core.TxRunner = (*DB)(nil)

// RunInTx serializes fn against other transactions and passes a nil exec; the
// repositories here ignore exec overrides anyway.
func (db *DB) RunInTx(_ context.Context, fn func(exec core.DBExecutor) error) error {
	db.txMu.Lock()
	defer db.txMu.Unlock()
	return fn(nil)
}
