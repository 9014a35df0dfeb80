package profile

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bookwormlabs/jarvisbot/pkg/logger"
	"github.com/bookwormlabs/jarvisbot/pkg/store"
)

// Config configures the conversation & interest store.
type Config struct {
	RootKey          string
	VectorDims       int
	TrainPasses      int
	ContextWindow    int
	MatchThreshold   float64
	MaxConversations int
}

// Match is one recommendation candidate.
type Match struct {
	UserID   string
	Username string
	Score    float64
}

// Service orchestrates per-user conversation logs and interest models over
// a shared store handle. Same-user operations are serialized with a
// per-user lock because a model update is an unguarded read-modify-write;
// different users proceed in parallel. In-memory models are caches: a
// missing one is rebuilt from the user's stored conversation history.
type Service struct {
	cfg       Config
	store     store.Store
	tokenizer *Tokenizer
	cache     *VectorCache
	directory *Directory

	mu     sync.Mutex
	models map[string]*InterestModel
	locks  map[string]*sync.Mutex
}

func NewService(cfg Config, st store.Store, tokenizer *Tokenizer) (*Service, error) {
	if cfg.RootKey == "" {
		return nil, fmt.Errorf("profile root key is required")
	}
	if st == nil {
		return nil, fmt.Errorf("profile store is required")
	}
	if tokenizer == nil {
		return nil, fmt.Errorf("profile tokenizer is required")
	}
	if cfg.VectorDims <= 0 {
		cfg.VectorDims = 100
	}
	if cfg.TrainPasses <= 0 {
		cfg.TrainPasses = 10
	}
	if cfg.ContextWindow <= 0 {
		cfg.ContextWindow = 5
	}
	if cfg.MatchThreshold <= 0 {
		cfg.MatchThreshold = 0.7
	}
	if cfg.MaxConversations <= 0 {
		cfg.MaxConversations = 8
	}

	return &Service{
		cfg:       cfg,
		store:     st,
		tokenizer: tokenizer,
		cache:     NewVectorCache(st, cfg.RootKey),
		directory: NewDirectory(st, cfg.RootKey),
		models:    make(map[string]*InterestModel),
		locks:     make(map[string]*sync.Mutex),
	}, nil
}

func (s *Service) Log(userID string) *ConversationLog {
	return NewConversationLog(s.store, s.cfg.RootKey, userID, s.cfg.MaxConversations)
}

func (s *Service) userLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[userID] = lock
	}
	return lock
}

// RecordUserTurn appends the message to the user's log, feeds its text to
// the interest model and persists the refreshed interest vector.
func (s *Service) RecordUserTurn(ctx context.Context, userID, text string) error {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	// Resolve the model before appending so a model rebuilt from history
	// does not see this message twice.
	model, err := s.model(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.Log(userID).Append(ctx, Turn{Role: RoleUser, Content: text}); err != nil {
		return err
	}
	model.Update(s.tokenizer.Tokenize(text))

	vec := model.Vector()
	if vec == nil {
		return nil
	}
	return s.cache.Save(ctx, userID, vec)
}

// RecordAssistantTurn appends the reply and trims the log, completing the
// exchange. Trimming here is what keeps the log bounded.
func (s *Service) RecordAssistantTurn(ctx context.Context, userID, text string) error {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	log := s.Log(userID)
	if err := log.Append(ctx, Turn{Role: RoleAssistant, Content: text}); err != nil {
		return err
	}
	return log.Trim(ctx)
}

func (s *Service) History(ctx context.Context, userID string) ([]Turn, error) {
	return s.Log(userID).Recent(ctx)
}

func (s *Service) SetUsername(ctx context.Context, userID, name string) error {
	key := fmt.Sprintf("%s:%s:username", s.cfg.RootKey, userID)
	return s.store.Set(ctx, key, name)
}

// Username returns the stored display name, or the id itself when none is
// set.
func (s *Service) Username(ctx context.Context, userID string) string {
	key := fmt.Sprintf("%s:%s:username", s.cfg.RootKey, userID)
	name, found, err := s.store.Get(ctx, key)
	if err != nil || !found || name == "" {
		return userID
	}
	return name
}

// Recommend returns the other known users whose interest vectors score
// above the similarity threshold against userID's, best match first.
func (s *Service) Recommend(ctx context.Context, userID string) ([]Match, error) {
	if err := s.directory.Refresh(ctx); err != nil {
		return nil, err
	}

	reqVec, err := s.resolveVector(ctx, userID)
	if err != nil {
		return nil, err
	}
	if reqVec == nil {
		return nil, ErrInsufficientData
	}

	var matches []Match
	for _, candidate := range s.directory.Users() {
		if candidate == userID {
			continue
		}
		vec, err := s.resolveVector(ctx, candidate)
		if err != nil {
			return nil, err
		}
		if vec == nil {
			continue
		}
		score := CosineSimilarity(reqVec, vec)
		if score > s.cfg.MatchThreshold {
			matches = append(matches, Match{
				UserID:   candidate,
				Username: s.Username(ctx, candidate),
				Score:    score,
			})
		}
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	return matches, nil
}

// RefreshDirectory rescans the key namespace for known users.
func (s *Service) RefreshDirectory(ctx context.Context) error {
	return s.directory.Refresh(ctx)
}

// KnownUsers returns the user ids found by the last directory refresh.
func (s *Service) KnownUsers() []string {
	return s.directory.Users()
}

// MaintenanceSweep refreshes the directory and re-trims every known user's
// conversation log, bounding logs that missed their post-exchange trim.
func (s *Service) MaintenanceSweep(ctx context.Context) error {
	if err := s.directory.Refresh(ctx); err != nil {
		return err
	}

	users := s.directory.Users()
	for _, userID := range users {
		lock := s.userLock(userID)
		lock.Lock()
		err := s.Log(userID).Trim(ctx)
		lock.Unlock()
		if err != nil {
			return err
		}
	}
	logger.DebugCF("profile", "Maintenance sweep completed", map[string]interface{}{
		"users": len(users),
	})
	return nil
}

// resolveVector returns the user's interest vector via the cache's
// load-or-compute path, handing it the in-memory model (rebuilt from
// stored history when absent). Computed vectors are not persisted here;
// saving stays tied to model updates.
func (s *Service) resolveVector(ctx context.Context, userID string) ([]float32, error) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	model, err := s.model(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.cache.LoadOrCompute(ctx, userID, model)
}

// model returns the in-memory interest model for userID, creating one
// seeded from the user's stored history when absent. Callers must hold the
// user's lock.
func (s *Service) model(ctx context.Context, userID string) (*InterestModel, error) {
	s.mu.Lock()
	model, ok := s.models[userID]
	s.mu.Unlock()
	if ok {
		return model, nil
	}

	model = NewInterestModel(s.cfg.VectorDims, s.cfg.ContextWindow, s.cfg.TrainPasses, time.Now().UnixNano())

	turns, err := s.Log(userID).Recent(ctx)
	if err != nil {
		return nil, err
	}
	for _, turn := range turns {
		if turn.Role != RoleUser {
			continue
		}
		model.Update(s.tokenizer.Tokenize(turn.Content))
	}

	s.mu.Lock()
	s.models[userID] = model
	s.mu.Unlock()
	return model, nil
}
