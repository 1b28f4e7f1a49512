package inmemdb

import (
	"sync"

	"github.com/trezcool/darasa/core/content"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/user"
)

type (
	// DB keeps every table in process memory; used in tests and local dev.
	DB struct {
		user       *userTable
		asset      *assetTable
		mode       *modeTable
		enrollment *enrollmentTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	assetTable struct {
		sync.RWMutex
		table map[string]*content.Asset // keyed on AssetKey.MapKey()
	}

	modeTable struct {
		sync.RWMutex
		table map[string]*course.Mode // keyed on courseID+"|"+slug
	}

	enrollmentTable struct {
		sync.RWMutex
		table map[string]*course.Enrollment // keyed on userID+"|"+courseID
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:       &userTable{table: make(map[string]*user.User)},
		asset:      &assetTable{table: make(map[string]*content.Asset)},
		mode:       &modeTable{table: make(map[string]*course.Mode)},
		enrollment: &enrollmentTable{table: make(map[string]*course.Enrollment)},
	}
	return db, nil
}

// Reset drops every row; tests call it between cases.
func (db *DB) Reset() {
	db.user.Lock()
	db.user.table = make(map[string]*user.User)
	db.user.Unlock()

	db.asset.Lock()
	db.asset.table = make(map[string]*content.Asset)
	db.asset.Unlock()

	db.mode.Lock()
	db.mode.table = make(map[string]*course.Mode)
	db.mode.Unlock()

	db.enrollment.Lock()
	db.enrollment.table = make(map[string]*course.Enrollment)
	db.enrollment.Unlock()
}
