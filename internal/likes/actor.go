package likes

import (
	"strings"

	"github.com/folio-studio/folio/pkg/models"
)

// MaxFingerprintLength bounds client supplied fingerprints.
const MaxFingerprintLength = 128

// Actor kinds
const (
	ActorUser        = "user"
	ActorFingerprint = "fingerprint"
)

// Actor identifies who a like belongs to. Exactly one of UserID and
// Fingerprint is set.
type Actor struct {
	Key         string
	Kind        string
	UserID      string
	Fingerprint string
}

// Anonymous reports whether the actor is identified by fingerprint only.
func (a Actor) Anonymous() bool {
	return a.Kind == ActorFingerprint
}

// ResolveActor derives the actor for a request. An authenticated identity
// takes precedence over a supplied fingerprint. ok is false when the caller
// has neither.
func ResolveActor(identity *models.Identity, fingerprint string) (Actor, bool) {
	if identity != nil && identity.UserID != "" {
		return Actor{
			Key:    "user:" + identity.UserID,
			Kind:   ActorUser,
			UserID: identity.UserID,
		}, true
	}

	fingerprint = strings.TrimSpace(fingerprint)
	if fingerprint == "" {
		return Actor{}, false
	}

	return Actor{
		Key:         "fp:" + fingerprint,
		Kind:        ActorFingerprint,
		Fingerprint: fingerprint,
	}, true
}

// Like returns the like record this actor would hold on workID.
func (a Actor) Like(workID int64) *models.Like {
	like := &models.Like{WorkID: workID, ActorKey: a.Key}
	if a.UserID != "" {
		userID := a.UserID
		like.UserID = &userID
	}
	if a.Fingerprint != "" {
		fingerprint := a.Fingerprint
		like.Fingerprint = &fingerprint
	}
	return like
}
