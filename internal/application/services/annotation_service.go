package services

import (
	"fmt"
	"time"

	"github.com/ForesightHQ/foresight-go/internal/domain/session"
	"github.com/ForesightHQ/foresight-go/internal/infrastructure/caching/stores"
	"github.com/ForesightHQ/foresight-go/internal/infrastructure/security"
)

// AnnotationService manages the free-form notes a user attaches to their
// analysis for reports and shares.
type AnnotationService struct {
	store *stores.SessionsStore
}

// NewAnnotationService creates a new annotation service
func NewAnnotationService(store *stores.SessionsStore) *AnnotationService {
	return &AnnotationService{store: store}
}

// Add appends a new annotation and returns it.
func (s *AnnotationService) Add(sessionID string, annType session.AnnotationType, text string, includeInReport, includeInShare bool) (*session.Annotation, error) {
	if text == "" {
		return nil, fmt.Errorf("annotation text is required")
	}
	if !session.ValidAnnotationType(annType) {
		return nil, fmt.Errorf("unknown annotation type %q", annType)
	}

	ann := session.Annotation{
		ID:              security.GenerateULID(),
		Type:            annType,
		Text:            text,
		CreatedAt:       time.Now().UTC(),
		IncludeInReport: includeInReport,
		IncludeInShare:  includeInShare,
	}

	err := s.store.Update(sessionID, func(sess *session.Session) error {
		sess.Annotations = append(sess.Annotations, ann)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &ann, nil
}

// Update edits an annotation's text, type, or inclusion flags.
func (s *AnnotationService) Update(sessionID, annotationID string, annType session.AnnotationType, text string, includeInReport, includeInShare bool) (*session.Annotation, error) {
	if !session.ValidAnnotationType(annType) {
		return nil, fmt.Errorf("unknown annotation type %q", annType)
	}

	var updated *session.Annotation
	err := s.store.Update(sessionID, func(sess *session.Session) error {
		for i := range sess.Annotations {
			if sess.Annotations[i].ID == annotationID {
				sess.Annotations[i].Type = annType
				sess.Annotations[i].Text = text
				sess.Annotations[i].IncludeInReport = includeInReport
				sess.Annotations[i].IncludeInShare = includeInShare
				ann := sess.Annotations[i]
				updated = &ann
				return nil
			}
		}
		return fmt.Errorf("annotation %s not found", annotationID)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Remove deletes an annotation by id.
func (s *AnnotationService) Remove(sessionID, annotationID string) error {
	return s.store.Update(sessionID, func(sess *session.Session) error {
		for i := range sess.Annotations {
			if sess.Annotations[i].ID == annotationID {
				sess.Annotations = append(sess.Annotations[:i], sess.Annotations[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("annotation %s not found", annotationID)
	})
}

// List returns the session's annotations in creation order.
func (s *AnnotationService) List(sessionID string) ([]session.Annotation, error) {
	sess, exists := s.store.Get(sessionID)
	if !exists {
		return nil, stores.ErrSessionNotFound
	}
	annotations := make([]session.Annotation, len(sess.Annotations))
	copy(annotations, sess.Annotations)
	return annotations, nil
}
