package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"
	"ucampus.dev/reserve/internal/dto"
	"ucampus.dev/reserve/internal/model"
	"ucampus.dev/reserve/internal/repository"
	"ucampus.dev/reserve/pkg/apperror"
)

func newFeedback(s *memStore) FeedbackService {
	return NewFeedbackService(
		&fakeFeedbackRepo{s: s},
		&fakeEventRepo{s: s},
		&fakeUserRepo{s: s},
		newReputation(s),
		fakeTx{},
		nil,
		30*time.Second,
	)
}

func TestFeedbackCreateUpdatesReputation(t *testing.T) {
	s := newMemStore()
	owner := seedUser(s, "diego", model.RoleStudent)
	alice := seedUser(s, "alice", model.RoleStudent)
	bruno := seedUser(s, "bruno", model.RoleStudent)
	_, group, event := seedGroupTree(s, owner, "chess-club")
	svc := newFeedback(s)

	if _, err := svc.Create(context.Background(), alice.ID, dto.CreateFeedbackInput{
		EventID: event.ID.String(),
		Rating:  5.0,
	}); err != nil {
		t.Fatalf("first Create: %v", err)
	}
	fb, err := svc.Create(context.Background(), bruno.ID, dto.CreateFeedbackInput{
		EventID: event.ID.String(),
		Rating:  3.0,
	})
	if err != nil {
		t.Fatalf("second Create: %v", err)
	}

	if group.Reputation != 4.0 {
		t.Errorf("reputation after two ratings = %v, want 4.0", group.Reputation)
	}

	if err := svc.Delete(context.Background(), bruno.ID, fb.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if group.Reputation != 5.0 {
		t.Errorf("reputation after delete = %v, want 5.0", group.Reputation)
	}
}

func TestFeedbackCreateDuplicateConflicts(t *testing.T) {
	s := newMemStore()
	owner := seedUser(s, "diego", model.RoleStudent)
	alice := seedUser(s, "alice", model.RoleStudent)
	_, _, event := seedGroupTree(s, owner, "chess-club")
	svc := newFeedback(s)

	in := dto.CreateFeedbackInput{EventID: event.ID.String(), Rating: 4.0}
	if _, err := svc.Create(context.Background(), alice.ID, in); err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, err := svc.Create(context.Background(), alice.ID, in)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("duplicate Create error = %v, want ErrConflict", err)
	}
}

// duplicateKeyFeedbackRepo simulates a concurrent writer winning the race
// between the duplicate read and the insert: the unique index fires.
type duplicateKeyFeedbackRepo struct {
	repository.FeedbackRepository
}

func (r *duplicateKeyFeedbackRepo) Create(ctx context.Context, fb *model.Feedback) error {
	return gorm.ErrDuplicatedKey
}

func TestFeedbackCreateRaceSurfacesConflict(t *testing.T) {
	s := newMemStore()
	owner := seedUser(s, "diego", model.RoleStudent)
	alice := seedUser(s, "alice", model.RoleStudent)
	_, _, event := seedGroupTree(s, owner, "chess-club")

	svc := NewFeedbackService(
		&duplicateKeyFeedbackRepo{FeedbackRepository: &fakeFeedbackRepo{s: s}},
		&fakeEventRepo{s: s},
		&fakeUserRepo{s: s},
		newReputation(s),
		fakeTx{},
		nil,
		30*time.Second,
	)

	_, err := svc.Create(context.Background(), alice.ID, dto.CreateFeedbackInput{
		EventID: event.ID.String(),
		Rating:  4.0,
	})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("racing Create error = %v, want ErrConflict", err)
	}
}

func TestFeedbackCreateInvalidRating(t *testing.T) {
	s := newMemStore()
	owner := seedUser(s, "diego", model.RoleStudent)
	alice := seedUser(s, "alice", model.RoleStudent)
	_, _, event := seedGroupTree(s, owner, "chess-club")
	svc := newFeedback(s)

	for _, rating := range []float64{0.5, 5.5, 4.25, -1} {
		_, err := svc.Create(context.Background(), alice.ID, dto.CreateFeedbackInput{
			EventID: event.ID.String(),
			Rating:  rating,
		})
		if !errors.Is(err, apperror.ErrBadRequest) {
			t.Errorf("Create(rating %v) error = %v, want ErrBadRequest", rating, err)
		}
	}
}

func TestFeedbackCreateOnDeletedEvent(t *testing.T) {
	s := newMemStore()
	owner := seedUser(s, "diego", model.RoleStudent)
	alice := seedUser(s, "alice", model.RoleStudent)
	_, _, event := seedGroupTree(s, owner, "chess-club")
	now := time.Now()
	event.IsDeleted = true
	event.DeletedAt = &now
	svc := newFeedback(s)

	_, err := svc.Create(context.Background(), alice.ID, dto.CreateFeedbackInput{
		EventID: event.ID.String(),
		Rating:  4.0,
	})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Create on deleted event error = %v, want ErrNotFound", err)
	}
}

func TestFeedbackCreateOnPendingEvent(t *testing.T) {
	s := newMemStore()
	owner := seedUser(s, "diego", model.RoleStudent)
	alice := seedUser(s, "alice", model.RoleStudent)
	_, _, event := seedGroupTree(s, owner, "chess-club")
	event.Status = model.StatusPending
	svc := newFeedback(s)

	_, err := svc.Create(context.Background(), alice.ID, dto.CreateFeedbackInput{
		EventID: event.ID.String(),
		Rating:  4.0,
	})
	if !errors.Is(err, apperror.ErrBadRequest) {
		t.Errorf("Create on pending event error = %v, want ErrBadRequest", err)
	}
}

func TestFeedbackCommentIsSanitized(t *testing.T) {
	s := newMemStore()
	owner := seedUser(s, "diego", model.RoleStudent)
	alice := seedUser(s, "alice", model.RoleStudent)
	_, _, event := seedGroupTree(s, owner, "chess-club")
	svc := newFeedback(s)

	comment := `great event <script>alert("x")</script>`
	fb, err := svc.Create(context.Background(), alice.ID, dto.CreateFeedbackInput{
		EventID: event.ID.String(),
		Rating:  5.0,
		Comment: &comment,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if fb.Comment == nil || *fb.Comment != "great event " {
		t.Errorf("comment = %q, want script stripped", *fb.Comment)
	}
}

func TestFeedbackUpdateByNonAuthorForbidden(t *testing.T) {
	s := newMemStore()
	owner := seedUser(s, "diego", model.RoleStudent)
	alice := seedUser(s, "alice", model.RoleStudent)
	bruno := seedUser(s, "bruno", model.RoleStudent)
	_, _, event := seedGroupTree(s, owner, "chess-club")
	fb := seedFeedback(s, event, alice, 4.0)
	svc := newFeedback(s)

	_, err := svc.Update(context.Background(), bruno.ID, fb.ID, dto.UpdateFeedbackInput{Rating: 1.0})
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("Update by non-author error = %v, want ErrForbidden", err)
	}
}

func TestFeedbackDeleteByAdmin(t *testing.T) {
	s := newMemStore()
	owner := seedUser(s, "diego", model.RoleStudent)
	alice := seedUser(s, "alice", model.RoleStudent)
	admin := seedUser(s, "admin", model.RoleAdmin)
	_, group, event := seedGroupTree(s, owner, "chess-club")
	fb := seedFeedback(s, event, alice, 2.0)
	group.Reputation = 2.0
	svc := newFeedback(s)

	if err := svc.Delete(context.Background(), admin.ID, fb.ID); err != nil {
		t.Fatalf("Delete by admin: %v", err)
	}
	if _, ok := s.feedback[fb.ID]; ok {
		t.Errorf("feedback still present after admin delete")
	}
	if group.Reputation != 0 {
		t.Errorf("reputation = %v, want 0 after last feedback removed", group.Reputation)
	}
}
