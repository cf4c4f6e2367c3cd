// Package access implements the owner/admin/allow-list authorization layer
// wrapped around the engine. The policy file is plain JSON, loaded once and
// fully rewritten on every mutation.
//
// Roles: the owner can manage admins; owner and admins can manage the allow
// list and pending access requests; allowed users can call the engine.
package access

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Request is a pending access request from an unknown user.
type Request struct {
	UserID    int64  `json:"user_id"`
	Username  string `json:"username"`
	Timestamp int64  `json:"timestamp"`
}

type policy struct {
	OwnerID        int64     `json:"owner_id"`
	Admins         []int64   `json:"admins"`
	AllowedUsers   []int64   `json:"allowed_users"`
	AccessRequests []Request `json:"access_requests"`
	AutoApprove    bool      `json:"auto_approve"`
}

// Manager owns the policy file and answers permission checks.
type Manager struct {
	mu     sync.Mutex
	path   string
	policy policy
	log    *zap.Logger
	now    func() time.Time
}

// NewManager loads the policy at path, creating a default one (owner is
// admin and allowed) when the file does not exist. A corrupt file degrades
// to the default policy with a logged warning.
func NewManager(path string, ownerID int64, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{
		path: path,
		log:  logger,
		now:  time.Now,
		policy: policy{
			OwnerID:      ownerID,
			Admins:       []int64{ownerID},
			AllowedUsers: []int64{ownerID},
		},
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			m.save()
			return m
		}
		logger.Warn("access config unreadable, using defaults",
			zap.String("path", path), zap.Error(err))
		return m
	}
	var p policy
	if err := json.Unmarshal(data, &p); err != nil {
		logger.Warn("access config corrupt, using defaults",
			zap.String("path", path), zap.Error(err))
		return m
	}
	m.policy = p
	return m
}

// IsOwner reports whether userID is the owner.
func (m *Manager) IsOwner(userID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return userID == m.policy.OwnerID
}

// IsAdmin reports whether userID is an admin.
func (m *Manager) IsAdmin(userID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return contains(m.policy.Admins, userID)
}

// IsAllowed reports whether userID may use the engine.
func (m *Manager) IsAllowed(userID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return contains(m.policy.AllowedUsers, userID) ||
		contains(m.policy.Admins, userID) ||
		userID == m.policy.OwnerID
}

// AddAllowedUser grants userID engine access. The caller must be owner or
// admin.
func (m *Manager) AddAllowedUser(userID, byUserID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.canManageLocked(byUserID) {
		return false
	}
	if contains(m.policy.AllowedUsers, userID) {
		return false
	}
	m.policy.AllowedUsers = append(m.policy.AllowedUsers, userID)
	m.save()
	m.log.Info("allowed user added", zap.Int64("user_id", userID), zap.Int64("by", byUserID))
	return true
}

// RemoveAllowedUser revokes engine access. The owner cannot be removed.
func (m *Manager) RemoveAllowedUser(userID, byUserID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.canManageLocked(byUserID) || userID == m.policy.OwnerID {
		return false
	}
	if !contains(m.policy.AllowedUsers, userID) {
		return false
	}
	m.policy.AllowedUsers = remove(m.policy.AllowedUsers, userID)
	m.save()
	m.log.Info("allowed user removed", zap.Int64("user_id", userID), zap.Int64("by", byUserID))
	return true
}

// AddAdmin promotes userID. Owner only. Admins are implicitly allowed.
func (m *Manager) AddAdmin(userID, byUserID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if byUserID != m.policy.OwnerID {
		return false
	}
	if contains(m.policy.Admins, userID) {
		return false
	}
	m.policy.Admins = append(m.policy.Admins, userID)
	if !contains(m.policy.AllowedUsers, userID) {
		m.policy.AllowedUsers = append(m.policy.AllowedUsers, userID)
	}
	m.save()
	m.log.Info("admin added", zap.Int64("user_id", userID))
	return true
}

// RemoveAdmin demotes userID. Owner only; the owner cannot be demoted.
func (m *Manager) RemoveAdmin(userID, byUserID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if byUserID != m.policy.OwnerID || userID == m.policy.OwnerID {
		return false
	}
	if !contains(m.policy.Admins, userID) {
		return false
	}
	m.policy.Admins = remove(m.policy.Admins, userID)
	m.save()
	m.log.Info("admin removed", zap.Int64("user_id", userID))
	return true
}

// RequestAccess queues an access request. Duplicate requests from the same
// user are rejected.
func (m *Manager) RequestAccess(userID int64, username string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.policy.AccessRequests {
		if r.UserID == userID {
			return false
		}
	}
	m.policy.AccessRequests = append(m.policy.AccessRequests, Request{
		UserID:    userID,
		Username:  username,
		Timestamp: m.now().Unix(),
	})
	m.save()
	m.log.Info("access requested", zap.Int64("user_id", userID), zap.String("username", username))
	return true
}

// ApproveRequest moves a pending request onto the allow list.
func (m *Manager) ApproveRequest(userID, byUserID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.canManageLocked(byUserID) {
		return false
	}
	if !m.dropRequestLocked(userID) {
		return false
	}
	if !contains(m.policy.AllowedUsers, userID) {
		m.policy.AllowedUsers = append(m.policy.AllowedUsers, userID)
	}
	m.save()
	m.log.Info("access approved", zap.Int64("user_id", userID), zap.Int64("by", byUserID))
	return true
}

// DenyRequest discards a pending request.
func (m *Manager) DenyRequest(userID, byUserID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.canManageLocked(byUserID) {
		return false
	}
	if !m.dropRequestLocked(userID) {
		return false
	}
	m.save()
	m.log.Info("access denied", zap.Int64("user_id", userID), zap.Int64("by", byUserID))
	return true
}

// AllowedUsers returns the allow list.
func (m *Manager) AllowedUsers() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int64(nil), m.policy.AllowedUsers...)
}

// Admins returns the admin list.
func (m *Manager) Admins() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int64(nil), m.policy.Admins...)
}

// Requests returns pending access requests.
func (m *Manager) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.policy.AccessRequests...)
}

// OwnerID returns the configured owner.
func (m *Manager) OwnerID() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.policy.OwnerID
}

func (m *Manager) canManageLocked(userID int64) bool {
	return userID == m.policy.OwnerID || contains(m.policy.Admins, userID)
}

func (m *Manager) dropRequestLocked(userID int64) bool {
	for i, r := range m.policy.AccessRequests {
		if r.UserID == userID {
			m.policy.AccessRequests = append(
				m.policy.AccessRequests[:i], m.policy.AccessRequests[i+1:]...)
			return true
		}
	}
	return false
}

// save rewrites the policy file. Write faults are logged and swallowed so a
// read-only filesystem cannot take authorization checks down with it.
func (m *Manager) save() {
	data, err := json.MarshalIndent(m.policy, "", "  ")
	if err != nil {
		m.log.Warn("encoding access config failed", zap.Error(err))
		return
	}
	if err := os.WriteFile(m.path, data, 0o644); err != nil {
		m.log.Warn("writing access config failed",
			zap.String("path", m.path), zap.Error(err))
	}
}

func contains(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func remove(ids []int64, id int64) []int64 {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// String renders a short human-readable summary for CLI output.
func (m *Manager) String() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fmt.Sprintf("owner=%d admins=%d allowed=%d pending=%d",
		m.policy.OwnerID, len(m.policy.Admins), len(m.policy.AllowedUsers),
		len(m.policy.AccessRequests))
}
