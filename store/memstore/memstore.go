// Package memstore is an in-memory store.Store for tests.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kevinaaaquil/poems/backend/models"
	"github.com/kevinaaaquil/poems/backend/store"
)

type favKey struct{ user, poem int64 }

// Store keeps everything in maps behind one mutex. Setting Err makes every
// call fail with it, to exercise storage failure paths.
type Store struct {
	mu        sync.Mutex
	users     map[int64]models.User
	poems     map[int64]models.Poem
	favorites map[favKey]time.Time
	lastUser  int64
	lastPoem  int64

	Err error
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		users:     make(map[int64]models.User),
		poems:     make(map[int64]models.Poem),
		favorites: make(map[favKey]time.Time),
	}
}

func (s *Store) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	for _, u := range s.users {
		if u.Email == user.Email {
			return store.ErrDuplicateEmail
		}
	}
	s.lastUser++
	user.ID = s.lastUser
	user.CreatedAt = time.Now().UTC()
	s.users[user.ID] = *user
	return nil
}

func (s *Store) UserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) UserByID(_ context.Context, id int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

// SetRole changes a stored user's role, standing in for an operator editing
// the database.
func (s *Store) SetRole(id int64, role string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		u.Role = role
		s.users[id] = u
	}
}

func (s *Store) InsertPoem(_ context.Context, poem *models.Poem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.users[poem.UserID]; !ok {
		return store.ErrNotFound
	}
	s.lastPoem++
	poem.ID = s.lastPoem
	poem.CreatedAt = time.Now().UTC()
	stored := *poem
	stored.Author = ""
	s.poems[poem.ID] = stored
	return nil
}

func (s *Store) ListPoems(_ context.Context, q models.PoemQuery) ([]models.Poem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	needle := strings.ToLower(q.Search)
	poems := make([]models.Poem, 0, len(s.poems))
	for _, p := range s.poems {
		if needle != "" && !matches(p, needle) {
			continue
		}
		p.Author = models.AuthorName(p.Anonymous, s.users[p.UserID].Name)
		poems = append(poems, p)
	}
	sort.Slice(poems, func(i, j int) bool {
		if q.Ascending() {
			return poems[i].ID < poems[j].ID
		}
		return poems[i].ID > poems[j].ID
	})
	return poems, nil
}

func matches(p models.Poem, needle string) bool {
	if strings.Contains(strings.ToLower(p.Title), needle) ||
		strings.Contains(strings.ToLower(p.Content), needle) {
		return true
	}
	return p.Tags != nil && strings.Contains(strings.ToLower(*p.Tags), needle)
}

func (s *Store) PoemByID(_ context.Context, id int64) (*models.Poem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	p, ok := s.poems[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (s *Store) DeletePoem(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.poems[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.poems, id)
	for k := range s.favorites {
		if k.poem == id {
			delete(s.favorites, k)
		}
	}
	return nil
}

func (s *Store) AddFavorite(_ context.Context, userID, poemID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.poems[poemID]; !ok {
		return store.ErrNotFound
	}
	k := favKey{userID, poemID}
	if _, ok := s.favorites[k]; !ok {
		s.favorites[k] = time.Now().UTC()
	}
	return nil
}

func (s *Store) RemoveFavorite(_ context.Context, userID, poemID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	delete(s.favorites, favKey{userID, poemID})
	return nil
}

// Favorites lists the poem ids userID has favorited, ascending.
func (s *Store) Favorites(userID int64) []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int64
	for k := range s.favorites {
		if k.user == userID {
			ids = append(ids, k.poem)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s *Store) Close(context.Context) error { return nil }
