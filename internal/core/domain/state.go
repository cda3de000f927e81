package domain

// tokenState is a point-in-time copy of every externally visible field of
// an AccessToken. The field list is enumerated by hand: the diff stays
// predictable and survives refactors that reflection-driven enumeration
// would not.
type tokenState struct {
	token     string
	userID    int64
	clientID  string
	issuedAt  *int64
	ttl       *int64
	expiresAt *int64
	session   string
}

func (t *AccessToken) captureState() *tokenState {
	return &tokenState{
		token:     t.Token,
		userID:    t.UserID,
		clientID:  t.ClientID,
		issuedAt:  copyInt64(t.IssuedAt),
		ttl:       copyInt64(t.TTL),
		expiresAt: copyInt64(t.ExpiresAt),
		session:   t.Session,
	}
}

// RememberState captures the current field values as the snapshot that
// IsChanged and RestoreState compare against. Called on load-from-storage
// and after a successful save.
func (t *AccessToken) RememberState() {
	t.state = t.captureState()
}

// IsChanged reports whether any field differs from the last snapshot.
// Without a snapshot every value counts as changed.
func (t *AccessToken) IsChanged() bool {
	s := t.state
	if s == nil {
		return true
	}
	return s.token != t.Token ||
		s.userID != t.UserID ||
		s.clientID != t.ClientID ||
		!eqInt64(s.issuedAt, t.IssuedAt) ||
		!eqInt64(s.ttl, t.TTL) ||
		!eqInt64(s.expiresAt, t.ExpiresAt) ||
		s.session != t.Session
}

// RestoreState reverts all fields to the last snapshot. It reports false
// when no snapshot has been taken.
func (t *AccessToken) RestoreState() bool {
	s := t.state
	if s == nil {
		return false
	}
	t.Token = s.token
	t.UserID = s.userID
	t.ClientID = s.clientID
	t.IssuedAt = copyInt64(s.issuedAt)
	t.TTL = copyInt64(s.ttl)
	t.ExpiresAt = copyInt64(s.expiresAt)
	t.Session = s.session
	return true
}

func eqInt64(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
