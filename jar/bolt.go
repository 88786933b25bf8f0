// Package jar provides an http.CookieJar that persists its entries to
// a bbolt database, so a CLI process keeps its session cookies across
// invocations the way a browser keeps its cookie store. Cookie policy
// (host matching, paths, expiry) is delegated to net/http/cookiejar;
// this package only mirrors writes to disk and replays them on open.
package jar

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"go.etcd.io/bbolt"
)

var bucketCookies = []byte("cookies")

// storedCookie is the durable subset of http.Cookie.
type storedCookie struct {
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Path     string    `json:"path,omitempty"`
	Domain   string    `json:"domain,omitempty"`
	Expires  time.Time `json:"expires,omitempty"`
	Secure   bool      `json:"secure,omitempty"`
	HttpOnly bool      `json:"http_only,omitempty"`
}

// Bolt is a persistent cookie jar. Safe for concurrent use.
type Bolt struct {
	mu    sync.Mutex
	db    *bbolt.DB
	inner http.CookieJar
	// byOrigin mirrors the persisted state: origin URL -> cookie name
	// -> cookie. The inner jar owns matching semantics; this map only
	// exists so whole origins can be rewritten on change.
	byOrigin map[string]map[string]storedCookie
}

var _ http.CookieJar = (*Bolt)(nil)

// Open opens (creating if needed) a persistent jar at path and replays
// surviving cookies into a fresh in-memory jar. Expired entries are
// dropped.
func Open(path string) (*Bolt, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening cookie jar db: %w", err)
	}
	inner, err := cookiejar.New(nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}
	j := &Bolt{
		db:       db,
		inner:    inner,
		byOrigin: make(map[string]map[string]storedCookie),
	}
	if err := j.load(); err != nil {
		db.Close()
		return nil, err
	}
	return j, nil
}

// Close flushes nothing further (writes are synchronous) and closes
// the underlying database.
func (j *Bolt) Close() error {
	return j.db.Close()
}

// SetCookies implements http.CookieJar. Every write goes to the inner
// jar and, synchronously, to disk.
func (j *Bolt) SetCookies(u *url.URL, cookies []*http.Cookie) {
	origin := u.Scheme + "://" + u.Host
	j.mu.Lock()
	defer j.mu.Unlock()
	j.inner.SetCookies(u, cookies)
	m := j.byOrigin[origin]
	if m == nil {
		m = make(map[string]storedCookie)
		j.byOrigin[origin] = m
	}
	for _, c := range cookies {
		if c.MaxAge < 0 || (!c.Expires.IsZero() && c.Expires.Before(time.Now())) {
			delete(m, c.Name)
			continue
		}
		expires := c.Expires
		if c.MaxAge > 0 {
			expires = time.Now().Add(time.Duration(c.MaxAge) * time.Second)
		}
		m[c.Name] = storedCookie{
			Name:     c.Name,
			Value:    c.Value,
			Path:     c.Path,
			Domain:   c.Domain,
			Expires:  expires,
			Secure:   c.Secure,
			HttpOnly: c.HttpOnly,
		}
	}
	j.persistOrigin(origin, m)
}

// Cookies implements http.CookieJar.
func (j *Bolt) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	inner := j.inner
	j.mu.Unlock()
	return inner.Cookies(u)
}

// persistOrigin rewrites one origin's cookie set. Caller holds j.mu.
func (j *Bolt) persistOrigin(origin string, m map[string]storedCookie) {
	cookies := make([]storedCookie, 0, len(m))
	for _, c := range m {
		cookies = append(cookies, c)
	}
	// Errors here lose persistence, not correctness: the in-memory jar
	// still has the cookie for this process's lifetime.
	j.db.Update(func(tx *bbolt.Tx) error { //nolint:errcheck
		b, err := tx.CreateBucketIfNotExists(bucketCookies)
		if err != nil {
			return err
		}
		if len(cookies) == 0 {
			return b.Delete([]byte(origin))
		}
		data, err := json.Marshal(cookies)
		if err != nil {
			return err
		}
		return b.Put([]byte(origin), data)
	})
}

// load replays persisted cookies into the inner jar, skipping expired
// entries and pruning them from disk.
func (j *Bolt) load() error {
	type originSet struct {
		origin  string
		cookies []storedCookie
	}
	var sets []originSet
	err := j.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketCookies)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var cookies []storedCookie
			if err := json.Unmarshal(v, &cookies); err != nil {
				return fmt.Errorf("decoding cookies for %s: %w", k, err)
			}
			sets = append(sets, originSet{origin: string(k), cookies: cookies})
			return nil
		})
	})
	if err != nil {
		return fmt.Errorf("loading cookie jar: %w", err)
	}

	now := time.Now()
	for _, set := range sets {
		u, err := url.Parse(set.origin)
		if err != nil {
			continue
		}
		m := make(map[string]storedCookie)
		var live []*http.Cookie
		for _, c := range set.cookies {
			if !c.Expires.IsZero() && c.Expires.Before(now) {
				continue
			}
			m[c.Name] = c
			live = append(live, &http.Cookie{
				Name:     c.Name,
				Value:    c.Value,
				Path:     c.Path,
				Domain:   c.Domain,
				Expires:  c.Expires,
				Secure:   c.Secure,
				HttpOnly: c.HttpOnly,
			})
		}
		if len(live) > 0 {
			j.inner.SetCookies(u, live)
		}
		j.mu.Lock()
		j.byOrigin[set.origin] = m
		if len(m) != len(set.cookies) {
			j.persistOrigin(set.origin, m)
		}
		j.mu.Unlock()
	}
	return nil
}

// Clear removes every cookie, in memory and on disk. Used by logout.
func (j *Bolt) Clear() error {
	inner, err := cookiejar.New(nil)
	if err != nil {
		return err
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.inner = inner
	j.byOrigin = make(map[string]map[string]storedCookie)
	return j.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket(bucketCookies) == nil {
			return nil
		}
		return tx.DeleteBucket(bucketCookies)
	})
}
