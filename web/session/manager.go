package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/zeptools/gw-pdfedit/db/kvdb"
	"github.com/zeptools/gw-pdfedit/editor"
	"github.com/zeptools/gw-pdfedit/sec"
)

var ErrInvalidCookie = errors.New("invalid editor session cookie")

const (
	fieldTool    = "tool"
	fieldRecord  = "record"
	fieldSavedAt = "saved_at"
)

// Manager persists editor session records in the KVDB as hashes with a sliding expiry,
// and carries the current session id in an encrypted cookie.
type Manager struct {
	Conf              Conf
	AppName           string // key namespace when the KVDB has no key prefix
	BackendKVDBClient kvdb.Client
	now               func() time.Time
}

// Ensure Manager implements editor.Store
var _ editor.Store = (*Manager)(nil)

func NewManager(conf Conf, appName string, kv kvdb.Client) (*Manager, error) {
	conf.SetDefaults()
	if conf.Cipher == nil {
		if conf.EncryptionKey == "" {
			return nil, errors.New("session enckey is empty")
		}
		c, err := sec.NewSealCipherFromBase64(conf.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("session cipher: %w", err)
		}
		conf.Cipher = c
	}
	return &Manager{Conf: conf, AppName: appName, BackendKVDBClient: kv, now: time.Now}, nil
}

func (m *Manager) keyPrefix() string {
	if conf := m.BackendKVDBClient.GetConf(); conf != nil && conf.KeyPrefix != "" {
		return conf.KeyPrefix + "editor:"
	}
	return m.AppName + "_editor:"
}

func (m *Manager) SessionIDToKVDBKey(sessionID string) string {
	return m.keyPrefix() + sessionID
}

func (m *Manager) sliding() time.Duration {
	return time.Duration(m.Conf.ExpireSliding) * time.Second
}

func (m *Manager) hardcap() time.Duration {
	return time.Duration(m.Conf.ExpireHardcap) * time.Second
}

func (m *Manager) SaveRecord(ctx context.Context, rec editor.Record) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return m.BackendKVDBClient.PutHash(ctx, m.SessionIDToKVDBKey(rec.ID), map[string]any{
		fieldTool:    rec.Tool,
		fieldRecord:  string(b),
		fieldSavedAt: m.now().Unix(),
	}, m.sliding())
}

// LoadRecord refreshes the sliding expiry. Records older than the hard cap are dropped.
func (m *Manager) LoadRecord(ctx context.Context, sessionID string) (editor.Record, error) {
	key := m.SessionIDToKVDBKey(sessionID)
	fields, err := m.BackendKVDBClient.GetHash(ctx, key)
	if err != nil {
		return editor.Record{}, err
	}
	raw, ok := fields[fieldRecord]
	if !ok {
		return editor.Record{}, editor.ErrUnknownSession
	}
	var rec editor.Record
	if err = json.Unmarshal([]byte(raw), &rec); err != nil {
		return editor.Record{}, fmt.Errorf("decode session record: %w", err)
	}
	if !rec.CreatedAt.IsZero() && m.now().Sub(rec.CreatedAt) > m.hardcap() {
		if err = m.DeleteRecord(ctx, sessionID); err != nil {
			log.Printf("[WARN][EditorSession] failed to drop expired session %s: %v", sessionID, err)
		}
		return editor.Record{}, editor.ErrUnknownSession
	}
	if _, err = m.BackendKVDBClient.Expire(ctx, key, m.sliding()); err != nil {
		log.Printf("[WARN][EditorSession] failed to extend session %s: %v", sessionID, err)
	}
	return rec, nil
}

func (m *Manager) DeleteRecord(ctx context.Context, sessionID string) error {
	_, err := m.BackendKVDBClient.Delete(ctx, m.SessionIDToKVDBKey(sessionID))
	return err
}

// SavedAt - when the record was written last, zero if unknown
func (m *Manager) SavedAt(ctx context.Context, sessionID string) (time.Time, error) {
	val, found, err := m.BackendKVDBClient.GetHashField(ctx, m.SessionIDToKVDBKey(sessionID), fieldSavedAt)
	if err != nil || !found {
		return time.Time{}, err
	}
	unix, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("saved_at %q: %w", val, err)
	}
	return time.Unix(unix, 0), nil
}

// StoredIDs lists the ids of every persisted session
func (m *Manager) StoredIDs(ctx context.Context) ([]string, error) {
	prefix := m.keyPrefix()
	var ids []string
	var cursor any
	for {
		keys, next, err := m.BackendKVDBClient.ScanKeys(ctx, cursor, prefix+"*", 100)
		if err != nil {
			return nil, err
		}
		for _, k := range keys {
			ids = append(ids, strings.TrimPrefix(k, prefix))
		}
		if next == nil {
			return ids, nil
		}
		cursor = next
	}
}

//---- Cookie ----

type cookieClaims struct {
	SessionID string `json:"sid"`
	IssuedAt  int64  `json:"iat"`
}

func (m *Manager) ad() []byte {
	return []byte(m.Conf.CookieName)
}

func (m *Manager) SetSessionCookie(w http.ResponseWriter, sessionID string) error {
	sealed, err := m.Conf.Cipher.SealJSON(cookieClaims{SessionID: sessionID, IssuedAt: m.now().Unix()}, m.ad())
	if err != nil {
		return fmt.Errorf("failed to seal editor session id. %v", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.Conf.CookieName,
		Value:    sealed,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		MaxAge:   m.Conf.ExpireHardcap,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// SessionIDFromCookie opens the cookie and enforces the hard cap on its age
func (m *Manager) SessionIDFromCookie(r *http.Request) (string, error) {
	c, err := r.Cookie(m.Conf.CookieName)
	if err != nil {
		return "", err
	}
	var claims cookieClaims
	if err = m.Conf.Cipher.OpenJSON(c.Value, m.ad(), &claims); err != nil {
		return "", ErrInvalidCookie
	}
	if claims.SessionID == "" || m.now().Sub(time.Unix(claims.IssuedAt, 0)) > m.hardcap() {
		return "", ErrInvalidCookie
	}
	return claims.SessionID, nil
}

func (m *Manager) RemoveSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.Conf.CookieName,
		Path:     "/",
		MaxAge:   -1, // Delete
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}
