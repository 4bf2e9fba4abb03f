package services

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"

	"github.com/musikmadness/musikmadness-api/brackets"
	"github.com/musikmadness/musikmadness-api/models"
	"github.com/musikmadness/musikmadness-api/repositories"
	"github.com/musikmadness/musikmadness-api/storage"
)

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]models.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return repositories.ErrUserEmailConflict
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = time.Now()
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	return &u, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

// fakeTournamentRepo keeps tournaments in memory. Begin, MutateBracket and
// participant inserts hold the mutex for their whole duration, mirroring the
// tournament row lock of the postgres implementation. Lock order is the
// tournament mutex before the participant one.
type fakeTournamentRepo struct {
	mu           sync.Mutex
	tournaments  map[uuid.UUID]models.Tournament
	participants *fakeParticipantRepo
	beginCalls   int
}

func newFakeTournamentRepo() *fakeTournamentRepo {
	return &fakeTournamentRepo{tournaments: make(map[uuid.UUID]models.Tournament)}
}

func (r *fakeTournamentRepo) Create(_ context.Context, t *models.Tournament) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Status == "" {
		t.Status = models.StatusUpcoming
	}
	t.CreatedAt = time.Now()
	r.tournaments[t.ID] = *t
	return nil
}

func (r *fakeTournamentRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	t.Bracket = t.Bracket.Clone()
	return &t, nil
}

func (r *fakeTournamentRepo) List(_ context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Tournament, 0)
	for _, t := range r.tournaments {
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		if filter.CreatorID != nil && t.CreatorID != *filter.CreatorID {
			continue
		}
		t.Bracket = nil
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeTournamentRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tournaments[id]; !ok {
		return repositories.ErrTournamentNotFound
	}
	delete(r.tournaments, id)
	return nil
}

func (r *fakeTournamentRepo) Begin(ctx context.Context, id uuid.UUID, build repositories.BracketBuilder) (*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.beginCalls++
	t, ok := r.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	if t.Status != models.StatusUpcoming {
		return nil, repositories.ErrTournamentNotUpcoming
	}

	var participants []models.Participant
	if r.participants != nil {
		participants, _ = r.participants.ListByTournament(ctx, id)
	}
	working := t
	bracket, err := build(&working, participants)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	t.Status = models.StatusOngoing
	t.Bracket = bracket.Clone()
	t.StartedAt = &now
	r.tournaments[id] = t

	t.Bracket = t.Bracket.Clone()
	t.Participants = participants
	return &t, nil
}

func (r *fakeTournamentRepo) MutateBracket(_ context.Context, id uuid.UUID, fn repositories.BracketMutation) (*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	working := t
	working.Bracket = t.Bracket.Clone()
	if err := fn(&working); err != nil {
		return nil, err
	}
	r.tournaments[id] = working

	out := working
	out.Bracket = working.Bracket.Clone()
	return &out, nil
}

// setStatus bypasses the service to put a tournament in a given state.
func (r *fakeTournamentRepo) setStatus(id uuid.UUID, status models.TournamentStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := r.tournaments[id]
	t.Status = status
	r.tournaments[id] = t
}

type fakeParticipantRepo struct {
	mu           sync.Mutex
	users        *fakeUserRepo
	tournaments  *fakeTournamentRepo
	participants []models.Participant
}

// newFakeParticipantRepo links the repository to tournaments so inserts check
// status and capacity under the tournament lock, as the postgres one does.
func newFakeParticipantRepo(users *fakeUserRepo, tournaments *fakeTournamentRepo) *fakeParticipantRepo {
	r := &fakeParticipantRepo{users: users, tournaments: tournaments}
	tournaments.participants = r
	return r
}

func (r *fakeParticipantRepo) Create(ctx context.Context, p *models.Participant) error {
	r.tournaments.mu.Lock()
	defer r.tournaments.mu.Unlock()
	t, ok := r.tournaments.tournaments[p.TournamentID]
	if !ok {
		return repositories.ErrParticipantTournamentInvalid
	}
	if t.Status != models.StatusUpcoming {
		return repositories.ErrRegistrationClosed
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, existing := range r.participants {
		if existing.TournamentID != p.TournamentID {
			continue
		}
		if existing.UserID == p.UserID {
			return repositories.ErrParticipantConflict
		}
		count++
	}
	if count >= t.Capacity() {
		return repositories.ErrTournamentFull
	}

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now()
	if r.users != nil {
		if u, err := r.users.GetByID(ctx, p.UserID); err == nil {
			p.DisplayName = u.DisplayName
		}
	}
	r.participants = append(r.participants, *p)
	return nil
}

func (r *fakeParticipantRepo) ListByTournament(_ context.Context, tournamentID uuid.UUID) ([]models.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Participant, 0)
	for _, p := range r.participants {
		if p.TournamentID == tournamentID {
			out = append(out, p)
		}
	}
	return out, nil
}

// addParticipants registers n fake musicians directly in the repository.
func (r *fakeParticipantRepo) addParticipants(tournamentID uuid.UUID, n int) []models.Participant {
	added := make([]models.Participant, 0, n)
	for i := 0; i < n; i++ {
		p := &models.Participant{
			TournamentID: tournamentID,
			UserID:       uuid.New(),
			DisplayName:  gofakeit.Name(),
			TrackTitle:   fmt.Sprintf("Track %d", i+1),
		}
		_ = r.Create(context.Background(), p)
		added = append(added, *p)
	}
	return added
}

type recordedMessage struct {
	room    string
	message brackets.WebSocketMessage
}

type fakeBroadcaster struct {
	mu       sync.Mutex
	messages []recordedMessage
}

func (b *fakeBroadcaster) BroadcastToRoom(roomID string, message any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	msg, _ := message.(brackets.WebSocketMessage)
	b.messages = append(b.messages, recordedMessage{room: roomID, message: msg})
}

func (b *fakeBroadcaster) types() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.messages))
	for i, m := range b.messages {
		out[i] = m.message.Type
	}
	return out
}

type fakeUploader struct {
	mu      sync.Mutex
	objects map[string][]byte
	err     error
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{objects: make(map[string][]byte)}
}

func (u *fakeUploader) Upload(_ context.Context, key, _ string, reader io.Reader) (*storage.UploadResult, error) {
	if u.err != nil {
		return nil, u.err
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.objects[key] = body
	return &storage.UploadResult{Key: key, Location: u.GetPublicURL(key)}, nil
}

func (u *fakeUploader) Delete(_ context.Context, key string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.objects, key)
	return nil
}

func (u *fakeUploader) GetPublicURL(key string) string {
	return "https://cdn.test/" + key
}

func (u *fakeUploader) object(key string) ([]byte, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	b, ok := u.objects[key]
	return b, ok
}
