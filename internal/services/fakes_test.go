package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"outreachhub/internal/domain"
)

// In-memory fakes shared by the service tests. Each fake keeps its rows in a
// map and exposes err fields to force failures.

type fakeUserRepo struct {
	users     map[string]*domain.User
	createErr error
	touchErr  error
	nextID    int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*domain.User)}
}

func (r *fakeUserRepo) add(u *domain.User) *domain.User {
	if u.ID == "" {
		r.nextID++
		u.ID = fmt.Sprintf("user-%d", r.nextID)
	}
	r.users[u.ID] = u
	return u
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	if r.createErr != nil {
		return r.createErr
	}
	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return domain.ErrDuplicateEmail
		}
	}
	r.add(user)
	return nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return domain.ErrNotFound
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) UpdatePassword(_ context.Context, id, passwordHash, salt string) error {
	u, ok := r.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.Salt = salt
	return nil
}

func (r *fakeUserRepo) SetActive(_ context.Context, id string, active bool) error {
	u, ok := r.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.IsActive = active
	return nil
}

func (r *fakeUserRepo) TouchLastLogin(_ context.Context, id string, at time.Time) error {
	if r.touchErr != nil {
		return r.touchErr
	}
	u, ok := r.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.LastLoginAt = &at
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.users[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

type fakeHasher struct {
	hashErr error
}

func (h *fakeHasher) GenerateSalt() (string, error) { return "salt", nil }

func (h *fakeHasher) Hash(salt, password string) (string, error) {
	if h.hashErr != nil {
		return "", h.hashErr
	}
	return "hashed:" + salt + ":" + password, nil
}

func (h *fakeHasher) Compare(hash, salt, password string) error {
	if hash != "hashed:"+salt+":"+password {
		return errors.New("password mismatch")
	}
	return nil
}

type fakeTokenIssuer struct {
	err error
}

func (i *fakeTokenIssuer) Issue(userID, _ string, _ time.Duration) (string, error) {
	if i.err != nil {
		return "", i.err
	}
	return "token-for-" + userID, nil
}

type fakeTokenVerifier struct {
	tokens map[string]string
}

func (v *fakeTokenVerifier) Verify(token string) (string, error) {
	userID, ok := v.tokens[token]
	if !ok {
		return "", domain.ErrInvalidToken
	}
	return userID, nil
}

type fakeEmailService struct {
	sent    []*domain.WelcomeMessageEmailData
	sendErr error
}

func (e *fakeEmailService) SendWelcomeMessage(_ context.Context, data *domain.WelcomeMessageEmailData) error {
	if e.sendErr != nil {
		return e.sendErr
	}
	e.sent = append(e.sent, data)
	return nil
}

type fakeEventRepo struct {
	events map[string]*domain.Event
	stats  *domain.EventStats
	nextID int
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{events: make(map[string]*domain.Event)}
}

func (r *fakeEventRepo) add(e *domain.Event) *domain.Event {
	if e.ID == "" {
		r.nextID++
		e.ID = fmt.Sprintf("ev-%d", r.nextID)
	}
	r.events[e.ID] = e
	return e
}

func (r *fakeEventRepo) Create(_ context.Context, event *domain.Event) error {
	r.add(event)
	return nil
}

func (r *fakeEventRepo) GetByID(_ context.Context, id string) (*domain.Event, error) {
	e, ok := r.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return e, nil
}

func (r *fakeEventRepo) ListByUserID(_ context.Context, userID string, filter domain.EventListFilter) ([]*domain.Event, int, error) {
	var out []*domain.Event
	for _, e := range r.events {
		if e.UserID != userID {
			continue
		}
		if filter.Status != nil && e.Status != *filter.Status {
			continue
		}
		out = append(out, e)
	}
	return out, len(out), nil
}

func (r *fakeEventRepo) Update(_ context.Context, id string, in domain.EventUpdateInput) (*domain.Event, error) {
	e, ok := r.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	e.Title = in.Title
	e.Description = in.Description
	e.EventDate = in.EventDate
	e.Location = in.Location
	e.Status = in.Status
	e.MaxParticipants = in.MaxParticipants
	e.IsPublic = in.IsPublic
	e.RegistrationDeadline = in.RegistrationDeadline
	e.Tags = in.Tags
	e.Metadata = in.Metadata
	return e, nil
}

func (r *fakeEventRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.events[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.events, id)
	return nil
}

func (r *fakeEventRepo) Search(_ context.Context, userID, term string) ([]*domain.Event, error) {
	var out []*domain.Event
	for _, e := range r.events {
		if e.UserID == userID && strings.Contains(strings.ToLower(e.Title), strings.ToLower(term)) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeEventRepo) ListUpcoming(_ context.Context, userID string, limit int) ([]*domain.Event, error) {
	var out []*domain.Event
	for _, e := range r.events {
		if e.UserID == userID && e.EventDate.After(time.Now()) {
			out = append(out, e)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *fakeEventRepo) GetStats(_ context.Context, _ string) (*domain.EventStats, error) {
	if r.stats != nil {
		return r.stats, nil
	}
	return &domain.EventStats{}, nil
}

type fakeParticipantRepo struct {
	participants map[string]*domain.EventParticipant
	events       map[string]*domain.Event
	recountErr   error
}

func newFakeParticipantRepo() *fakeParticipantRepo {
	return &fakeParticipantRepo{participants: make(map[string]*domain.EventParticipant)}
}

func participantKey(eventID, recipientID string) string {
	return eventID + "/" + recipientID
}

func (r *fakeParticipantRepo) Upsert(_ context.Context, eventID, recipientID string, status domain.ParticipantStatus) (*domain.EventParticipant, error) {
	key := participantKey(eventID, recipientID)
	p, ok := r.participants[key]
	if !ok {
		p = &domain.EventParticipant{
			ID:          "part-" + key,
			EventID:     eventID,
			RecipientID: recipientID,
		}
		r.participants[key] = p
	}
	p.Status = status
	p.InvitedAt = time.Now()
	return p, nil
}

func (r *fakeParticipantRepo) Remove(_ context.Context, eventID, recipientID string) error {
	key := participantKey(eventID, recipientID)
	if _, ok := r.participants[key]; !ok {
		return domain.ErrNotFound
	}
	delete(r.participants, key)
	return nil
}

func (r *fakeParticipantRepo) ListByEventID(_ context.Context, eventID string) ([]*domain.EventParticipant, error) {
	var out []*domain.EventParticipant
	for _, p := range r.participants {
		if p.EventID == eventID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeParticipantRepo) RecountParticipants(_ context.Context, eventID string) (int, error) {
	if r.recountErr != nil {
		return 0, r.recountErr
	}
	count := 0
	for _, p := range r.participants {
		if p.EventID != eventID {
			continue
		}
		if p.Status == domain.ParticipantStatusConfirmed || p.Status == domain.ParticipantStatusAttended {
			count++
		}
	}
	if e, ok := r.events[eventID]; ok {
		e.CurrentParticipants = count
	}
	return count, nil
}

type fakeRecipientRepo struct {
	recipients map[string]*domain.Recipient
	tags       []string
	stats      *domain.RecipientStats
	nextID     int
}

func newFakeRecipientRepo() *fakeRecipientRepo {
	return &fakeRecipientRepo{recipients: make(map[string]*domain.Recipient)}
}

func (r *fakeRecipientRepo) add(rec *domain.Recipient) *domain.Recipient {
	if rec.ID == "" {
		r.nextID++
		rec.ID = fmt.Sprintf("rec-%d", r.nextID)
	}
	r.recipients[rec.ID] = rec
	return rec
}

func (r *fakeRecipientRepo) Create(_ context.Context, rec *domain.Recipient) error {
	r.add(rec)
	return nil
}

func (r *fakeRecipientRepo) BulkCreate(_ context.Context, userID string, recipients []*domain.Recipient) (*domain.BulkCreateResult, error) {
	result := &domain.BulkCreateResult{}
	for _, rec := range recipients {
		exists, _ := r.ExistsByEmail(context.Background(), userID, rec.Email, "")
		if exists {
			result.Skipped++
			continue
		}
		rec.UserID = userID
		result.Created = append(result.Created, r.add(rec))
	}
	return result, nil
}

func (r *fakeRecipientRepo) GetByID(_ context.Context, id string) (*domain.Recipient, error) {
	rec, ok := r.recipients[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return rec, nil
}

func (r *fakeRecipientRepo) ExistsByEmail(_ context.Context, userID, email, excludeID string) (bool, error) {
	for _, rec := range r.recipients {
		if rec.UserID == userID && rec.Email == email && rec.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRecipientRepo) List(_ context.Context, userID string, _ domain.PaginationParams) ([]*domain.Recipient, int, error) {
	var out []*domain.Recipient
	for _, rec := range r.recipients {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out, len(out), nil
}

func (r *fakeRecipientRepo) Update(_ context.Context, id string, in domain.RecipientUpdateInput) (*domain.Recipient, error) {
	rec, ok := r.recipients[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	rec.Email = in.Email
	rec.FirstName = in.FirstName
	rec.LastName = in.LastName
	rec.Phone = in.Phone
	rec.Company = in.Company
	rec.Position = in.Position
	rec.Tags = in.Tags
	rec.Notes = in.Notes
	rec.IsActive = in.IsActive
	rec.Metadata = in.Metadata
	return rec, nil
}

func (r *fakeRecipientRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.recipients[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.recipients, id)
	return nil
}

func (r *fakeRecipientRepo) SetOptOut(_ context.Context, id string, optOut bool, at *time.Time) error {
	rec, ok := r.recipients[id]
	if !ok {
		return domain.ErrNotFound
	}
	rec.OptOut = optOut
	rec.OptOutDate = at
	return nil
}

func (r *fakeRecipientRepo) Search(_ context.Context, userID, term string) ([]*domain.Recipient, error) {
	var out []*domain.Recipient
	for _, rec := range r.recipients {
		if rec.UserID == userID && strings.Contains(strings.ToLower(rec.Email), strings.ToLower(term)) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *fakeRecipientRepo) ListTags(_ context.Context, _ string) ([]string, error) {
	return r.tags, nil
}

func (r *fakeRecipientRepo) GetStats(_ context.Context, _ string) (*domain.RecipientStats, error) {
	if r.stats != nil {
		return r.stats, nil
	}
	return &domain.RecipientStats{}, nil
}

type fakeMessageRepo struct {
	messages map[string]*domain.Message
	sends    map[string][]*domain.MessageSend
	sendErr  error
	nextID   int
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{
		messages: make(map[string]*domain.Message),
		sends:    make(map[string][]*domain.MessageSend),
	}
}

func (r *fakeMessageRepo) add(m *domain.Message) *domain.Message {
	if m.ID == "" {
		r.nextID++
		m.ID = fmt.Sprintf("msg-%d", r.nextID)
	}
	r.messages[m.ID] = m
	return m
}

func (r *fakeMessageRepo) Create(_ context.Context, message *domain.Message) error {
	r.add(message)
	return nil
}

func (r *fakeMessageRepo) GetByID(_ context.Context, id string) (*domain.Message, error) {
	m, ok := r.messages[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return m, nil
}

func (r *fakeMessageRepo) ListByUserID(_ context.Context, userID string, filter domain.MessageListFilter) ([]*domain.Message, int, error) {
	var out []*domain.Message
	for _, m := range r.messages {
		if m.UserID != userID {
			continue
		}
		if filter.Status != nil && m.Status != *filter.Status {
			continue
		}
		out = append(out, m)
	}
	return out, len(out), nil
}

func (r *fakeMessageRepo) Update(_ context.Context, id string, in domain.MessageUpdateInput) (*domain.Message, error) {
	m, ok := r.messages[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	m.EventID = in.EventID
	m.Subject = in.Subject
	m.Content = in.Content
	m.MessageType = in.MessageType
	m.ScheduledAt = in.ScheduledAt
	m.Metadata = in.Metadata
	return m, nil
}

func (r *fakeMessageRepo) UpdateStatus(_ context.Context, id string, status domain.MessageStatus, scheduledAt *time.Time) error {
	m, ok := r.messages[id]
	if !ok {
		return domain.ErrNotFound
	}
	m.Status = status
	if scheduledAt != nil {
		m.ScheduledAt = scheduledAt
	}
	return nil
}

func (r *fakeMessageRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.messages[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.messages, id)
	return nil
}

func (r *fakeMessageRepo) Send(_ context.Context, messageID string, recipientIDs []string, sentAt time.Time) ([]*domain.MessageSend, error) {
	if r.sendErr != nil {
		return nil, r.sendErr
	}
	m, ok := r.messages[messageID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	var sends []*domain.MessageSend
	for _, recipientID := range recipientIDs {
		sends = append(sends, &domain.MessageSend{
			ID:             fmt.Sprintf("send-%s-%s", messageID, recipientID),
			MessageID:      messageID,
			RecipientID:    recipientID,
			RecipientEmail: recipientID + "@example.com",
			Status:         domain.SendStatusPending,
			CreatedAt:      sentAt,
		})
	}
	r.sends[messageID] = sends
	m.Status = domain.MessageStatusSent
	m.SentAt = &sentAt
	m.TotalRecipients = len(recipientIDs)
	return sends, nil
}

func (r *fakeMessageRepo) ListSends(_ context.Context, messageID string) ([]*domain.MessageSend, error) {
	return r.sends[messageID], nil
}

func (r *fakeMessageRepo) GetSendByID(_ context.Context, sendID string) (*domain.MessageSend, error) {
	for _, sends := range r.sends {
		for _, s := range sends {
			if s.ID == sendID {
				return s, nil
			}
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeMessageRepo) UpdateSendStatus(_ context.Context, sendID string, status domain.SendStatus, errorMessage *string, at time.Time) error {
	s, err := r.GetSendByID(context.Background(), sendID)
	if err != nil {
		return err
	}
	s.Status = status
	s.ErrorMessage = errorMessage
	switch status {
	case domain.SendStatusSent:
		s.SentAt = &at
	case domain.SendStatusDelivered:
		s.DeliveredAt = &at
	case domain.SendStatusRead:
		s.ReadAt = &at
	}
	return nil
}

func (r *fakeMessageRepo) GetStats(_ context.Context, _ string) (*domain.MessageStats, error) {
	return &domain.MessageStats{}, nil
}
