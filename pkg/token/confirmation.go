package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Verification failures. Callers treat all of them as a rejected confirmation.
var (
	ErrMalformed         = errors.New("invalid token format")
	ErrSignature         = errors.New("invalid token signature")
	ErrExpired           = errors.New("token expired")
	ErrActorMismatch     = errors.New("token issued to another user")
	ErrSelectionMismatch = errors.New("selection does not match token")
	ErrSecretMissing     = errors.New("signing secret missing")
)

// Confirmation is an issued token together with its metadata.
type Confirmation struct {
	Token     string
	Nonce     string
	ExpiresAt time.Time
}

// ConfirmationSigner issues and verifies short-lived tokens that bind an actor to a selection of ids.
type ConfirmationSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewConfirmationSigner constructs a signer with the provided secret and TTL.
func NewConfirmationSigner(secret string, ttl time.Duration) *ConfirmationSigner {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &ConfirmationSigner{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// TTL returns how long issued tokens stay valid.
func (s *ConfirmationSigner) TTL() time.Duration {
	return s.ttl
}

// Issue returns a token for actorID over the canonical form of ids.
func (s *ConfirmationSigner) Issue(actorID int64, ids []int64) (Confirmation, error) {
	if len(s.secret) == 0 {
		return Confirmation{}, ErrSecretMissing
	}
	if actorID <= 0 {
		return Confirmation{}, fmt.Errorf("actor id required")
	}
	canonical := CanonicalIDs(ids)
	if len(canonical) == 0 {
		return Confirmation{}, fmt.Errorf("selection required")
	}

	expiresAt := s.now().Add(s.ttl)
	nonce := uuid.NewString()
	actor := strconv.FormatInt(actorID, 10)
	exp := strconv.FormatInt(expiresAt.Unix(), 10)
	digest := selectionDigest(canonical)
	signature := s.sign(actor, exp, nonce, digest)

	return Confirmation{
		Token:     strings.Join([]string{actor, exp, nonce, digest, signature}, "."),
		Nonce:     nonce,
		ExpiresAt: time.Unix(expiresAt.Unix(), 0),
	}, nil
}

// Verify checks signature, expiry, actor and that ids is the same selection the token was issued for.
func (s *ConfirmationSigner) Verify(raw string, actorID int64, ids []int64) (Confirmation, error) {
	if len(s.secret) == 0 {
		return Confirmation{}, ErrSecretMissing
	}
	parts := strings.Split(raw, ".")
	if len(parts) != 5 || parts[2] == "" {
		return Confirmation{}, ErrMalformed
	}
	actor, exp, nonce, digest, signature := parts[0], parts[1], parts[2], parts[3], parts[4]

	expUnix, err := strconv.ParseInt(exp, 10, 64)
	if err != nil {
		return Confirmation{}, ErrMalformed
	}
	tokenActor, err := strconv.ParseInt(actor, 10, 64)
	if err != nil {
		return Confirmation{}, ErrMalformed
	}

	expected := s.sign(actor, exp, nonce, digest)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return Confirmation{}, ErrSignature
	}
	if tokenActor != actorID {
		return Confirmation{}, ErrActorMismatch
	}
	if !hmac.Equal([]byte(digest), []byte(selectionDigest(CanonicalIDs(ids)))) {
		return Confirmation{}, ErrSelectionMismatch
	}
	expiresAt := time.Unix(expUnix, 0)
	if s.now().After(expiresAt) {
		return Confirmation{}, ErrExpired
	}
	return Confirmation{Token: raw, Nonce: nonce, ExpiresAt: expiresAt}, nil
}

func (s *ConfirmationSigner) sign(actor, exp, nonce, digest string) string {
	payload := fmt.Sprintf("%s|%s|%s|%s", actor, exp, nonce, digest)
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// CanonicalIDs drops non-positive ids, removes duplicates and sorts ascending.
func CanonicalIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func selectionDigest(canonical []int64) string {
	parts := make([]string, len(canonical))
	for i, id := range canonical {
		parts[i] = strconv.FormatInt(id, 10)
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, ",")))
	return hex.EncodeToString(sum[:])
}
