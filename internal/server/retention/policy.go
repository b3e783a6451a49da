// Package retention declares how long records of each collection live and
// how many of them are kept.
package retention

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/dmitrijs2005/gophvault/internal/common"
	"github.com/dmitrijs2005/gophvault/internal/timex"
	"gopkg.in/yaml.v3"
)

// Collection names.
const (
	Conversations = "conversations"
	VaultFiles    = "vault_files"
	Todos         = "todos"
	SessionLogs   = "session_logs"
)

// Policy is the immutable retention configuration of one collection.
// A zero Cap, ActiveAgeLimit or TrashGraceLimit means "none".
type Policy struct {
	Cap                    int
	ActiveAgeLimit         time.Duration
	TrashGraceLimit        time.Duration
	HasTrashStage          bool
	RemoteDeletionRequired bool
}

// Capped reports whether cap eviction applies.
func (p Policy) Capped() bool { return p.Cap > 0 }

// Validate rejects negative limits and a grace limit on a collection that
// has no trash stage.
func (p Policy) Validate() error {
	if p.Cap < 0 {
		return fmt.Errorf("%w: negative cap %d", common.ErrorValidation, p.Cap)
	}
	if p.ActiveAgeLimit < 0 {
		return fmt.Errorf("%w: negative active age limit %s", common.ErrorValidation, p.ActiveAgeLimit)
	}
	if p.TrashGraceLimit < 0 {
		return fmt.Errorf("%w: negative trash grace limit %s", common.ErrorValidation, p.TrashGraceLimit)
	}
	if !p.HasTrashStage && p.TrashGraceLimit > 0 {
		return fmt.Errorf("%w: trash grace limit without a trash stage", common.ErrorValidation)
	}
	return nil
}

// Set maps a collection name to its policy.
type Set map[string]Policy

// Defaults returns the built-in policies.
func Defaults() Set {
	return Set{
		Conversations: {
			Cap:             50,
			ActiveAgeLimit:  90 * timex.Day,
			TrashGraceLimit: 1 * timex.Day,
			HasTrashStage:   true,
		},
		VaultFiles: {
			TrashGraceLimit:        10 * timex.Day,
			HasTrashStage:          true,
			RemoteDeletionRequired: true,
		},
		Todos: {
			ActiveAgeLimit: 30 * timex.Day,
		},
		SessionLogs: {
			ActiveAgeLimit: 365 * timex.Day,
		},
	}
}

// Lookup returns the policy of a collection or common.ErrorUnknownCollection.
func (s Set) Lookup(collection string) (Policy, error) {
	p, ok := s[collection]
	if !ok {
		return Policy{}, fmt.Errorf("%w: %q", common.ErrorUnknownCollection, collection)
	}
	return p, nil
}

// Names returns the collection names in a stable order.
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks every policy and joins the failures.
func (s Set) Validate() error {
	var errs []error
	for _, name := range s.Names() {
		if err := s[name].Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

type policyFile struct {
	Collections map[string]policyOverride `yaml:"collections"`
}

type policyOverride struct {
	Cap                    *int            `yaml:"cap"`
	ActiveAgeLimit         *timex.Duration `yaml:"active_age_limit"`
	TrashGraceLimit        *timex.Duration `yaml:"trash_grace_limit"`
	HasTrashStage          *bool           `yaml:"has_trash_stage"`
	RemoteDeletionRequired *bool           `yaml:"remote_deletion_required"`
}

// Override applies a YAML document on top of s and returns the merged set.
// Only collections already present in s may be overridden, since every
// collection is backed by its own table.
//
//	collections:
//	  conversations:
//	    cap: 100
//	    active_age_limit: 180d
func (s Set) Override(doc []byte) (Set, error) {
	var f policyFile
	if err := yaml.Unmarshal(doc, &f); err != nil {
		return nil, fmt.Errorf("%w: policy file: %v", common.ErrorValidation, err)
	}

	out := make(Set, len(s))
	for k, v := range s {
		out[k] = v
	}

	for name, o := range f.Collections {
		p, ok := out[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", common.ErrorUnknownCollection, name)
		}
		if o.Cap != nil {
			p.Cap = *o.Cap
		}
		if o.ActiveAgeLimit != nil {
			p.ActiveAgeLimit = o.ActiveAgeLimit.Duration
		}
		if o.TrashGraceLimit != nil {
			p.TrashGraceLimit = o.TrashGraceLimit.Duration
		}
		if o.HasTrashStage != nil {
			p.HasTrashStage = *o.HasTrashStage
		}
		if o.RemoteDeletionRequired != nil {
			p.RemoteDeletionRequired = *o.RemoteDeletionRequired
		}
		out[name] = p
	}
	return out, nil
}

// Load returns Defaults overridden by the YAML file at path (if any),
// validated.
func Load(path string) (Set, error) {
	set := Defaults()
	if path != "" {
		doc, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read policy file: %w", err)
		}
		if set, err = set.Override(doc); err != nil {
			return nil, err
		}
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}
	return set, nil
}
