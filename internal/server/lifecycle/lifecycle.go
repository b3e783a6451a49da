// Package lifecycle holds the pure transition rules of a record:
// Active → Trashed → Purged, with Trashed → Active on restore.
//
// Nothing here touches storage. The repository expresses the same rules as
// conditional SQL using Cutoffs.
package lifecycle

import (
	"math"
	"time"

	"github.com/dmitrijs2005/gophvault/internal/server/models"
	"github.com/dmitrijs2005/gophvault/internal/server/retention"
	"github.com/dmitrijs2005/gophvault/internal/timex"
)

type State int

const (
	Active State = iota
	Trashed
	// Purged is terminal; a purged record no longer exists anywhere.
	Purged
)

func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Trashed:
		return "trashed"
	case Purged:
		return "purged"
	default:
		return "unknown"
	}
}

// StateOf returns Active or Trashed depending on the deletion mark.
func StateOf(r models.Record) State {
	if r.DeletedAt != nil {
		return Trashed
	}
	return Active
}

// SoftDelete moves an Active record to the trash. It returns the record
// unchanged and false when the record is already trashed or the collection
// has no trash stage.
func SoftDelete(r models.Record, p retention.Policy, now time.Time) (models.Record, bool) {
	if !p.HasTrashStage || StateOf(r) == Trashed {
		return r, false
	}
	at := now
	r.DeletedAt = &at
	return r, true
}

// Restore brings a trashed record back and refreshes UpdatedAt. Restoring an
// Active record is a no-op.
func Restore(r models.Record, now time.Time) (models.Record, bool) {
	if StateOf(r) != Trashed {
		return r, false
	}
	r.DeletedAt = nil
	r.UpdatedAt = now
	return r, true
}

// IsAgedOut reports whether an Active record outlived the active-age limit.
// Trashed records are governed by the grace limit instead.
func IsAgedOut(r models.Record, p retention.Policy, now time.Time) bool {
	if p.ActiveAgeLimit <= 0 {
		return false
	}
	if p.HasTrashStage && StateOf(r) == Trashed {
		return false
	}
	return now.Sub(r.CreatedAt) > p.ActiveAgeLimit
}

// IsGraceExpired reports whether a trashed record stayed in the trash longer
// than the grace limit.
func IsGraceExpired(r models.Record, p retention.Policy, now time.Time) bool {
	if p.TrashGraceLimit <= 0 || r.DeletedAt == nil {
		return false
	}
	return now.Sub(*r.DeletedAt) > p.TrashGraceLimit
}

// DaysRemaining returns the whole days, rounded up, before a trashed record
// becomes eligible for purge, never below zero. ok is false when the record
// is not trashed or the collection sets no grace limit.
func DaysRemaining(r models.Record, p retention.Policy, now time.Time) (days int, ok bool) {
	if p.TrashGraceLimit <= 0 || r.DeletedAt == nil {
		return 0, false
	}
	left := p.TrashGraceLimit - now.Sub(*r.DeletedAt)
	if left <= 0 {
		return 0, true
	}
	return int(math.Ceil(float64(left) / float64(timex.Day))), true
}

// Cutoff is a timestamp bound for a conditional delete. Set is false when the
// corresponding limit is absent.
type Cutoff struct {
	At  time.Time
	Set bool
}

// Cutoffs translates the policy into timestamp bounds: a record created
// before Age is aged out, a record trashed before Grace is grace-expired.
type Cutoffs struct {
	Age   Cutoff
	Grace Cutoff
}

func CutoffsFor(p retention.Policy, now time.Time) Cutoffs {
	var c Cutoffs
	if p.ActiveAgeLimit > 0 {
		c.Age = Cutoff{At: now.Add(-p.ActiveAgeLimit), Set: true}
	}
	if p.HasTrashStage && p.TrashGraceLimit > 0 {
		c.Grace = Cutoff{At: now.Add(-p.TrashGraceLimit), Set: true}
	}
	return c
}
