package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alexanderramin/studymap/internal/domain"
)

// Session holds the auth artifacts persisted between runs. Tokens are
// stored raw; the user is stored as JSON.
type Session struct {
	User    *domain.User
	Access  string
	Refresh string
}

// Session returns the stored session. Missing parts are left empty.
func (s *ProgressStore) Session(ctx context.Context) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sess Session
	for key, dst := range map[string]*string{KeyAccess: &sess.Access, KeyRefresh: &sess.Refresh} {
		e, err := s.loadLocked(ctx, s.kv, key)
		if err != nil {
			return Session{}, err
		}
		*dst = string(e.Value)
	}
	e, err := s.loadLocked(ctx, s.kv, KeyUser)
	if err != nil {
		return Session{}, err
	}
	if len(e.Value) > 0 {
		var u domain.User
		if err := json.Unmarshal(e.Value, &u); err != nil {
			s.logger.Warn("ignoring corrupt session user", "error", err)
		} else {
			sess.User = &u
		}
	}
	return sess, nil
}

// SaveSession stores every non-empty part of sess.
func (s *ProgressStore) SaveSession(ctx context.Context, sess Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess.User != nil {
		data, err := json.Marshal(sess.User)
		if err != nil {
			return fmt.Errorf("encoding session user: %w", err)
		}
		if err := s.putLocked(ctx, KeyUser, data); err != nil {
			return err
		}
	}
	if sess.Access != "" {
		if err := s.putLocked(ctx, KeyAccess, []byte(sess.Access)); err != nil {
			return err
		}
	}
	if sess.Refresh != "" {
		if err := s.putLocked(ctx, KeyRefresh, []byte(sess.Refresh)); err != nil {
			return err
		}
	}
	return nil
}

// AccessToken returns the stored access token or "".
func (s *ProgressStore) AccessToken(ctx context.Context) (string, error) {
	sess, err := s.Session(ctx)
	return sess.Access, err
}

// RefreshToken returns the stored refresh token or "".
func (s *ProgressStore) RefreshToken(ctx context.Context) (string, error) {
	sess, err := s.Session(ctx)
	return sess.Refresh, err
}

// SetAccessToken replaces the access token after a refresh.
func (s *ProgressStore) SetAccessToken(ctx context.Context, token string) error {
	return s.SaveSession(ctx, Session{Access: token})
}

// ClearSession removes the user and both tokens.
func (s *ProgressStore) ClearSession(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.Delete(ctx, KeyAccess, KeyRefresh, KeyUser); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	delete(s.cache, KeyAccess)
	delete(s.cache, KeyRefresh)
	delete(s.cache, KeyUser)
	return nil
}

// ClearUserData removes every plan and progress key of the current scope,
// then publishes an empty StudyPlansUpdated. Other users' keys are kept; an
// unscoped store only clears unscoped keys.
func (s *ProgressStore) ClearUserData(ctx context.Context) error {
	var removed int
	err := s.locked(func() error {
		uid := s.scopeLocked(ctx)
		keys, err := s.kv.Keys(ctx, "")
		if err != nil {
			return err
		}
		var doomed []string
		for _, k := range keys {
			if ownedBy(k, uid) {
				doomed = append(doomed, k)
			}
		}
		if err := s.kv.Delete(ctx, doomed...); err != nil {
			return err
		}
		removed = len(doomed)
		s.cache = make(map[string]Entry)
		return nil
	})
	if err != nil {
		return fmt.Errorf("clearing user data: %w", err)
	}
	s.logger.Debug("cleared user data", "keys", removed)
	s.bus.Publish(StudyPlansUpdated{})
	return nil
}

func (s *ProgressStore) putLocked(ctx context.Context, key string, value []byte) error {
	rev, err := s.kv.Put(ctx, key, value, AnyRevision)
	if err != nil {
		delete(s.cache, key)
		return fmt.Errorf("writing %s: %w", key, err)
	}
	s.cache[key] = Entry{Value: value, Revision: rev}
	return nil
}
