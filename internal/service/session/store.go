package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zhaomeiling/kangyuan/backend/internal/mmse"
	"github.com/zhaomeiling/kangyuan/backend/internal/model/chat"
)

// State 是一场进行中评估的全部状态。
type State struct {
	Cursor    int
	Records   []mmse.Record
	StartedAt time.Time
}

// Session 保存单个用户的会话历史与评估状态，随进程生命周期存在。
// 字段只允许在 Store.Do 的回调中访问。
type Session struct {
	mu sync.Mutex

	ID         string
	CreatedAt  time.Time
	History    []chat.Message
	Assessment *State
	LastReport *mmse.Report
}

// AppendHistory 追加一轮发言。
func (s *Session) AppendHistory(role, content string) {
	s.History = append(s.History, chat.Message{
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	})
}

// ResetHistory 清空会话历史（评估开始时使用）。
func (s *Session) ResetHistory() {
	s.History = nil
}

// RecentHistory 返回最近 n 轮发言的副本。
func (s *Session) RecentHistory(n int) []chat.Message {
	if n < 1 || len(s.History) == 0 {
		return nil
	}
	start := len(s.History) - n
	if start < 0 {
		start = 0
	}
	window := make([]chat.Message, len(s.History)-start)
	copy(window, s.History[start:])
	return window
}

// Store 管理按会话 ID 索引的内存会话集合。
// 同一会话的并发请求会被逐一串行处理，不同会话互不阻塞。
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore 创建空的会话存储。
func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// Do 在指定会话的互斥锁内执行 fn，会话不存在时自动创建；
// id 为空时分配一个新的会话 ID。返回实际使用的会话 ID。
// fn 内不得发起外部调用，以免慢调用拖住同一用户的后续请求。
func (s *Store) Do(id string, fn func(*Session)) string {
	if id == "" {
		id = uuid.NewString()
	}

	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok {
		s.mu.Lock()
		sess, ok = s.sessions[id]
		if !ok {
			sess = &Session{ID: id, CreatedAt: time.Now().UTC()}
			s.sessions[id] = sess
		}
		s.mu.Unlock()
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	fn(sess)
	return id
}

// Len 返回当前会话数量。
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
