package sync

import (
	"sync"
)

// ConnectionState состояние связи клиента с сервером
type ConnectionState string

// Жизненный цикл: disconnected -> requested -> syncing -> completed -> connected.
// error поглощающее состояние, выход только через явный Retry.
const (
	StateDisconnected ConnectionState = "disconnected"
	StateRequested    ConnectionState = "requested"
	StateSyncing      ConnectionState = "syncing"
	StateCompleted    ConnectionState = "completed"
	StateConnected    ConnectionState = "connected"
	StateError        ConnectionState = "error"
)

// Snapshot согласованный срез State для отображения
type Snapshot struct {
	Err         error
	Progress    *float64
	State       ConnectionState
	NeedsReauth bool
}

// State хранит состояние соединения, флаг повторной авторизации,
// последнюю ошибку и прогресс текущей синхронизации.
// Подписчики вызываются синхронно после каждого изменения, вне блокировки.
type State struct {
	listeners   map[int]func(Snapshot)
	err         error
	progress    *float64
	state       ConnectionState
	mu          sync.Mutex
	nextID      int
	needsReauth bool
}

// NewState создает State в начальном состоянии disconnected
func NewState() *State {
	return &State{
		state:     StateDisconnected,
		listeners: make(map[int]func(Snapshot)),
	}
}

// Current возвращает текущее состояние соединения
func (s *State) Current() ConnectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err возвращает ошибку, приведшую в состояние error
func (s *State) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// NeedsReauth сообщает, что сервер отверг учетные данные
func (s *State) NeedsReauth() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.needsReauth
}

// Progress возвращает процент выполнения текущей синхронизации, nil если синхронизации нет
func (s *State) Progress() *float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.progress == nil {
		return nil
	}
	p := *s.progress
	return &p
}

// Snapshot возвращает копию всех полей
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Set переводит в новое состояние. Ошибка сбрасывается при выходе из error.
func (s *State) Set(next ConnectionState) {
	s.update(func() bool {
		if s.state == next {
			return false
		}
		s.state = next
		if next != StateError {
			s.err = nil
		}
		return true
	})
}

// Transition переводит from -> to атомарно; false если текущее состояние не from
func (s *State) Transition(from, to ConnectionState) bool {
	var ok bool
	s.update(func() bool {
		if s.state != from {
			return false
		}
		ok = true
		s.state = to
		if to != StateError {
			s.err = nil
		}
		return true
	})
	return ok
}

// Fail переводит в error и запоминает причину для отображения
func (s *State) Fail(err error) {
	s.update(func() bool {
		s.state = StateError
		s.err = err
		return true
	})
}

// SetNeedsReauth выставляет или снимает флаг повторной авторизации
func (s *State) SetNeedsReauth(v bool) {
	s.update(func() bool {
		if s.needsReauth == v {
			return false
		}
		s.needsReauth = v
		return true
	})
}

// Reset возвращает начальное состояние (смена пользователя или сессии)
func (s *State) Reset() {
	s.update(func() bool {
		s.state = StateDisconnected
		s.err = nil
		s.needsReauth = false
		s.progress = nil
		return true
	})
}

// Subscribe регистрирует слушателя изменений, возвращает функцию отписки
func (s *State) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *State) setProgress(p *float64) {
	s.update(func() bool {
		if p == nil && s.progress == nil {
			return false
		}
		s.progress = p
		return true
	})
}

func (s *State) update(apply func() bool) {
	s.mu.Lock()
	if !apply() {
		s.mu.Unlock()
		return
	}
	snap := s.snapshotLocked()
	listeners := make([]func(Snapshot), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
}

func (s *State) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:       s.state,
		Err:         s.err,
		NeedsReauth: s.needsReauth,
	}
	if s.progress != nil {
		p := *s.progress
		snap.Progress = &p
	}
	return snap
}
