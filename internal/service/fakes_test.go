package service

import (
	"bytes"
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"ucampus.dev/reserve/internal/model"
	"ucampus.dev/reserve/internal/repository"
)

// memStore is a shared in-memory backing store for the fake repositories.
// The fakes mirror the semantics of the gorm implementations closely
// enough for the engine services to be exercised without a database.
type memStore struct {
	users        map[uuid.UUID]*model.User
	groupReqs    map[uuid.UUID]*model.GroupRequest
	groups       map[uuid.UUID]*model.Group
	events       map[uuid.UUID]*model.EventRequest
	feedback     map[uuid.UUID]*model.Feedback
	reservations map[uuid.UUID]*model.Reservation
	strikes      map[uuid.UUID]*model.Strike
}

func newMemStore() *memStore {
	return &memStore{
		users:        make(map[uuid.UUID]*model.User),
		groupReqs:    make(map[uuid.UUID]*model.GroupRequest),
		groups:       make(map[uuid.UUID]*model.Group),
		events:       make(map[uuid.UUID]*model.EventRequest),
		feedback:     make(map[uuid.UUID]*model.Feedback),
		reservations: make(map[uuid.UUID]*model.Reservation),
		strikes:      make(map[uuid.UUID]*model.Strike),
	}
}

func newID() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		panic(err)
	}
	return id
}

func lessID(a, b uuid.UUID) bool {
	return bytes.Compare(a[:], b[:]) < 0
}

// fakeTx runs the function directly; the fakes have no rollback, so tests
// that need transactional failure inject errors before any mutation.
type fakeTx struct{}

func (fakeTx) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeUserRepo struct{ s *memStore }

func (r *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	if user.ID == uuid.Nil {
		user.ID = newID()
	}
	r.s.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	if u, ok := r.s.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) FindActiveByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	if u, ok := r.s.users[id]; ok && !u.IsDeleted {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) FindActiveByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, u := range r.s.users {
		if u.Email == email && !u.IsDeleted {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) FindStrikeIssuer(ctx context.Context) (*model.User, error) {
	var admins []*model.User
	for _, u := range r.s.users {
		if u.Role == model.RoleAdmin && !u.IsDeleted {
			admins = append(admins, u)
		}
	}
	if len(admins) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	sort.Slice(admins, func(i, j int) bool { return lessID(admins[i].ID, admins[j].ID) })
	return admins[0], nil
}

func (r *fakeUserRepo) ListActive(ctx context.Context) ([]*model.User, error) {
	var users []*model.User
	for _, u := range r.s.users {
		if !u.IsDeleted {
			users = append(users, u)
		}
	}
	return users, nil
}

func (r *fakeUserRepo) MarkDeleted(ctx context.Context, id uuid.UUID, at time.Time) error {
	if u, ok := r.s.users[id]; ok && !u.IsDeleted {
		u.IsDeleted = true
		u.DeletedAt = &at
	}
	return nil
}

func (r *fakeUserRepo) Restore(ctx context.Context, id uuid.UUID) error {
	if u, ok := r.s.users[id]; ok {
		u.IsDeleted = false
		u.DeletedAt = nil
	}
	return nil
}

type fakeGroupRequestRepo struct{ s *memStore }

func (r *fakeGroupRequestRepo) Create(ctx context.Context, req *model.GroupRequest) error {
	if req.ID == uuid.Nil {
		req.ID = newID()
	}
	r.s.groupReqs[req.ID] = req
	return nil
}

func (r *fakeGroupRequestRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.GroupRequest, error) {
	if req, ok := r.s.groupReqs[id]; ok {
		return req, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeGroupRequestRepo) ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]*model.GroupRequest, error) {
	var reqs []*model.GroupRequest
	for _, req := range r.s.groupReqs {
		if req.UserID == userID && !req.IsDeleted {
			reqs = append(reqs, req)
		}
	}
	return reqs, nil
}

func (r *fakeGroupRequestRepo) ListPending(ctx context.Context) ([]*model.GroupRequest, error) {
	var reqs []*model.GroupRequest
	for _, req := range r.s.groupReqs {
		if req.Status == model.StatusPending && !req.IsDeleted {
			reqs = append(reqs, req)
		}
	}
	return reqs, nil
}

func (r *fakeGroupRequestRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status model.RequestStatus) error {
	if req, ok := r.s.groupReqs[id]; ok {
		req.Status = status
	}
	return nil
}

func (r *fakeGroupRequestRepo) MarkDeleted(ctx context.Context, ids []uuid.UUID, at time.Time) error {
	for _, id := range ids {
		if req, ok := r.s.groupReqs[id]; ok && !req.IsDeleted {
			req.IsDeleted = true
			req.DeletedAt = &at
		}
	}
	return nil
}

func (r *fakeGroupRequestRepo) Restore(ctx context.Context, id uuid.UUID) error {
	if req, ok := r.s.groupReqs[id]; ok {
		req.IsDeleted = false
		req.DeletedAt = nil
	}
	return nil
}

type fakeGroupRepo struct{ s *memStore }

func (r *fakeGroupRepo) Create(ctx context.Context, group *model.Group) error {
	if group.ID == uuid.Nil {
		group.ID = newID()
	}
	r.s.groups[group.ID] = group
	return nil
}

func (r *fakeGroupRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Group, error) {
	if g, ok := r.s.groups[id]; ok {
		return g, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeGroupRepo) FindActiveByID(ctx context.Context, id uuid.UUID) (*model.Group, error) {
	if g, ok := r.s.groups[id]; ok && !g.IsDeleted {
		return g, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeGroupRepo) ListActive(ctx context.Context) ([]*model.Group, error) {
	var groups []*model.Group
	for _, g := range r.s.groups {
		if !g.IsDeleted {
			groups = append(groups, g)
		}
	}
	return groups, nil
}

func (r *fakeGroupRepo) ListActiveByRequestIDs(ctx context.Context, requestIDs []uuid.UUID) ([]*model.Group, error) {
	var groups []*model.Group
	for _, g := range r.s.groups {
		if g.IsDeleted {
			continue
		}
		for _, reqID := range requestIDs {
			if g.GroupRequestID == reqID {
				groups = append(groups, g)
				break
			}
		}
	}
	return groups, nil
}

func (r *fakeGroupRepo) UpdateReputation(ctx context.Context, id uuid.UUID, reputation float64) error {
	if g, ok := r.s.groups[id]; ok {
		g.Reputation = reputation
	}
	return nil
}

func (r *fakeGroupRepo) MarkDeleted(ctx context.Context, ids []uuid.UUID, at time.Time) error {
	for _, id := range ids {
		if g, ok := r.s.groups[id]; ok && !g.IsDeleted {
			g.IsDeleted = true
			g.DeletedAt = &at
		}
	}
	return nil
}

type fakeEventRepo struct{ s *memStore }

func (r *fakeEventRepo) Create(ctx context.Context, req *model.EventRequest) error {
	if req.ID == uuid.Nil {
		req.ID = newID()
	}
	r.s.events[req.ID] = req
	return nil
}

func (r *fakeEventRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.EventRequest, error) {
	if e, ok := r.s.events[id]; ok {
		return e, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeEventRepo) ListActiveByGroup(ctx context.Context, groupID uuid.UUID) ([]*model.EventRequest, error) {
	var reqs []*model.EventRequest
	for _, e := range r.s.events {
		if e.GroupID == groupID && !e.IsDeleted {
			reqs = append(reqs, e)
		}
	}
	return reqs, nil
}

func (r *fakeEventRepo) ListActiveIDsByGroup(ctx context.Context, groupID uuid.UUID) ([]uuid.UUID, error) {
	return r.ListActiveIDsByGroupIDs(ctx, []uuid.UUID{groupID})
}

func (r *fakeEventRepo) ListActiveIDsByGroupIDs(ctx context.Context, groupIDs []uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, e := range r.s.events {
		if e.IsDeleted {
			continue
		}
		for _, groupID := range groupIDs {
			if e.GroupID == groupID {
				ids = append(ids, e.ID)
				break
			}
		}
	}
	return ids, nil
}

func (r *fakeEventRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status model.RequestStatus) error {
	if e, ok := r.s.events[id]; ok {
		e.Status = status
	}
	return nil
}

func (r *fakeEventRepo) MarkDeleted(ctx context.Context, ids []uuid.UUID, at time.Time) error {
	for _, id := range ids {
		if e, ok := r.s.events[id]; ok && !e.IsDeleted {
			e.IsDeleted = true
			e.DeletedAt = &at
		}
	}
	return nil
}

type fakeFeedbackRepo struct{ s *memStore }

func (r *fakeFeedbackRepo) Create(ctx context.Context, fb *model.Feedback) error {
	if fb.ID == uuid.Nil {
		fb.ID = newID()
	}
	r.s.feedback[fb.ID] = fb
	return nil
}

func (r *fakeFeedbackRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Feedback, error) {
	if fb, ok := r.s.feedback[id]; ok {
		return fb, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeFeedbackRepo) FindByEventAndStudent(ctx context.Context, eventID, studentID uuid.UUID) (*model.Feedback, error) {
	for _, fb := range r.s.feedback {
		if fb.EventID == eventID && fb.StudentID == studentID {
			return fb, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeFeedbackRepo) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*model.Feedback, error) {
	var fbs []*model.Feedback
	for _, fb := range r.s.feedback {
		if fb.EventID == eventID {
			fbs = append(fbs, fb)
		}
	}
	return fbs, nil
}

func (r *fakeFeedbackRepo) Update(ctx context.Context, fb *model.Feedback) error {
	if existing, ok := r.s.feedback[fb.ID]; ok {
		existing.Rating = fb.Rating
		existing.Comment = fb.Comment
	}
	return nil
}

func (r *fakeFeedbackRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.s.feedback, id)
	return nil
}

func (r *fakeFeedbackRepo) DeleteByEventIDs(ctx context.Context, eventIDs []uuid.UUID) error {
	for id, fb := range r.s.feedback {
		for _, eventID := range eventIDs {
			if fb.EventID == eventID {
				delete(r.s.feedback, id)
				break
			}
		}
	}
	return nil
}

func (r *fakeFeedbackRepo) DeleteByStudent(ctx context.Context, studentID uuid.UUID) error {
	for id, fb := range r.s.feedback {
		if fb.StudentID == studentID {
			delete(r.s.feedback, id)
		}
	}
	return nil
}

func (r *fakeFeedbackRepo) AverageRatingByEventIDs(ctx context.Context, eventIDs []uuid.UUID) (float64, int64, error) {
	var sum float64
	var count int64
	for _, fb := range r.s.feedback {
		for _, eventID := range eventIDs {
			if fb.EventID == eventID {
				sum += fb.Rating
				count++
				break
			}
		}
	}
	if count == 0 {
		return 0, 0, nil
	}
	return sum / float64(count), count, nil
}

func (r *fakeFeedbackRepo) GroupIDsWithFeedbackByStudent(ctx context.Context, studentID uuid.UUID) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]struct{})
	var ids []uuid.UUID
	for _, fb := range r.s.feedback {
		if fb.StudentID != studentID {
			continue
		}
		event, ok := r.s.events[fb.EventID]
		if !ok {
			continue
		}
		if _, dup := seen[event.GroupID]; !dup {
			seen[event.GroupID] = struct{}{}
			ids = append(ids, event.GroupID)
		}
	}
	return ids, nil
}

type fakeReservationRepo struct{ s *memStore }

func (r *fakeReservationRepo) BulkCreate(ctx context.Context, slots []*model.Reservation) error {
	for _, slot := range slots {
		exists := false
		for _, existing := range r.s.reservations {
			if existing.Room == slot.Room && existing.Day.Equal(slot.Day) && existing.Module == slot.Module {
				exists = true
				break
			}
		}
		if exists {
			continue
		}
		if slot.ID == uuid.Nil {
			slot.ID = newID()
		}
		r.s.reservations[slot.ID] = slot
	}
	return nil
}

func (r *fakeReservationRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Reservation, error) {
	if res, ok := r.s.reservations[id]; ok {
		return res, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeReservationRepo) FindSlot(ctx context.Context, room string, day time.Time, module int) (*model.Reservation, error) {
	for _, res := range r.s.reservations {
		if res.Room == room && res.Day.Equal(day) && res.Module == module {
			return res, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeReservationRepo) ListByDay(ctx context.Context, day time.Time, room string) ([]*model.Reservation, error) {
	var slots []*model.Reservation
	for _, res := range r.s.reservations {
		if !res.Day.Equal(day) {
			continue
		}
		if room != "" && res.Room != room {
			continue
		}
		slots = append(slots, res)
	}
	return slots, nil
}

func (r *fakeReservationRepo) ListPendingAssigned(ctx context.Context) ([]*model.Reservation, error) {
	var slots []*model.Reservation
	for _, res := range r.s.reservations {
		if res.Availability == model.SlotUnavailable &&
			res.Status == model.ReservationPending &&
			!res.IsFinished && res.UserID != nil {
			slots = append(slots, res)
		}
	}
	sort.Slice(slots, func(i, j int) bool { return lessID(slots[i].ID, slots[j].ID) })
	return slots, nil
}

func (r *fakeReservationRepo) Book(ctx context.Context, id, userID uuid.UUID) error {
	res, ok := r.s.reservations[id]
	if !ok || res.Availability != model.SlotAvailable || res.IsFinished {
		return gorm.ErrRecordNotFound
	}
	res.Availability = model.SlotUnavailable
	res.Status = model.ReservationPending
	uid := userID
	res.UserID = &uid
	return nil
}

func (r *fakeReservationRepo) SetStatus(ctx context.Context, id uuid.UUID, status model.ReservationStatus) error {
	if res, ok := r.s.reservations[id]; ok {
		res.Status = status
	}
	return nil
}

func (r *fakeReservationRepo) Revert(ctx context.Context, id uuid.UUID) error {
	if res, ok := r.s.reservations[id]; ok {
		res.Availability = model.SlotAvailable
		res.Status = model.ReservationPending
		res.UserID = nil
	}
	return nil
}

func (r *fakeReservationRepo) ReleaseByUser(ctx context.Context, userID uuid.UUID) error {
	for _, res := range r.s.reservations {
		if res.UserID != nil && *res.UserID == userID {
			res.Availability = model.SlotAvailable
			res.Status = model.ReservationPending
			res.UserID = nil
		}
	}
	return nil
}

type fakeStrikeRepo struct{ s *memStore }

func (r *fakeStrikeRepo) Create(ctx context.Context, strike *model.Strike) error {
	if strike.ID == uuid.Nil {
		strike.ID = newID()
	}
	r.s.strikes[strike.ID] = strike
	return nil
}

func (r *fakeStrikeRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.Strike, error) {
	var strikes []*model.Strike
	for _, s := range r.s.strikes {
		if s.UserID == userID {
			strikes = append(strikes, s)
		}
	}
	return strikes, nil
}

func (r *fakeStrikeRepo) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	strikes, _ := r.ListByUser(ctx, userID)
	return int64(len(strikes)), nil
}

func (r *fakeStrikeRepo) DeleteBySubject(ctx context.Context, userID uuid.UUID) error {
	for id, s := range r.s.strikes {
		if s.UserID == userID {
			delete(r.s.strikes, id)
		}
	}
	return nil
}

func (r *fakeStrikeRepo) DeleteByIssuer(ctx context.Context, issuerID uuid.UUID) error {
	for id, s := range r.s.strikes {
		if s.IssuerID == issuerID {
			delete(r.s.strikes, id)
		}
	}
	return nil
}

func mustLoadLocation(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("load location %s: %v", name, err)
	}
	return loc
}

func seedUser(s *memStore, name string, role model.Role) *model.User {
	u := &model.User{
		ID:         newID(),
		Name:       name,
		Email:      name + "@ucampus.dev",
		Role:       role,
		ExternalID: name + "@ucampus.dev",
	}
	s.users[u.ID] = u
	return u
}

func seedReservation(s *memStore, room string, day time.Time, module int) *model.Reservation {
	r := &model.Reservation{
		ID:           newID(),
		Room:         room,
		Day:          day,
		Module:       module,
		Availability: model.SlotAvailable,
		Status:       model.ReservationPending,
	}
	s.reservations[r.ID] = r
	return r
}

func seedBookedReservation(s *memStore, room string, day time.Time, module int, user *model.User) *model.Reservation {
	r := seedReservation(s, room, day, module)
	r.Availability = model.SlotUnavailable
	uid := user.ID
	r.UserID = &uid
	return r
}

// seedGroupTree creates a confirmed request, its group and one confirmed
// event, all owned by the given user.
func seedGroupTree(s *memStore, owner *model.User, name string) (*model.GroupRequest, *model.Group, *model.EventRequest) {
	req := &model.GroupRequest{
		ID:     newID(),
		UserID: owner.ID,
		Name:   name,
		Status: model.StatusConfirmed,
	}
	s.groupReqs[req.ID] = req

	group := &model.Group{
		ID:               newID(),
		GroupRequestID:   req.ID,
		RepresentativeID: owner.ID,
		Name:             name,
	}
	s.groups[group.ID] = group

	event := &model.EventRequest{
		ID:      newID(),
		GroupID: group.ID,
		Space:   "Central Patio",
		Day:     time.Date(2026, time.March, 16, 0, 0, 0, 0, time.UTC),
		Module:  3,
		Title:   name + " meetup",
		Status:  model.StatusConfirmed,
	}
	s.events[event.ID] = event

	return req, group, event
}

func seedFeedback(s *memStore, event *model.EventRequest, student *model.User, rating float64) *model.Feedback {
	fb := &model.Feedback{
		ID:        newID(),
		EventID:   event.ID,
		StudentID: student.ID,
		Rating:    rating,
	}
	s.feedback[fb.ID] = fb
	return fb
}

// Interface conformance.
var (
	_ repository.UserRepository         = (*fakeUserRepo)(nil)
	_ repository.GroupRequestRepository = (*fakeGroupRequestRepo)(nil)
	_ repository.GroupRepository        = (*fakeGroupRepo)(nil)
	_ repository.EventRequestRepository = (*fakeEventRepo)(nil)
	_ repository.FeedbackRepository     = (*fakeFeedbackRepo)(nil)
	_ repository.ReservationRepository  = (*fakeReservationRepo)(nil)
	_ repository.StrikeRepository       = (*fakeStrikeRepo)(nil)
)
