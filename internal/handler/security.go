package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/go-faster/errors"

	"github.com/stridekart/fulfillment/internal/domain/auth"
	"github.com/stridekart/fulfillment/internal/domain/user"
)

type actorKey struct{}

// ActorFromContext extracts the authenticated actor from the context. The
// second return is false for unauthenticated requests.
func ActorFromContext(ctx context.Context) (user.Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(user.Actor)
	return a, ok
}

// Authenticator resolves API keys to acting identities. Requests carry the
// key in the api_key header; the stored side is an HMAC-SHA256 of the key
// under a server-side pepper.
type Authenticator struct {
	apikeys auth.Repository
	users   user.Directory
	pepper  []byte
}

// NewAuthenticator creates an Authenticator with the given API key
// repository, user directory, and HMAC pepper.
func NewAuthenticator(apikeys auth.Repository, users user.Directory, pepper []byte) *Authenticator {
	return &Authenticator{
		apikeys: apikeys,
		users:   users,
		pepper:  pepper,
	}
}

// Wrap authenticates every request before passing it to next. On success the
// resolved Actor is stored in the request context.
func (a *Authenticator) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("api_key")
		if key == "" {
			writeError(w, http.StatusUnauthorized, "missing api_key header")
			return
		}

		actor, err := a.resolve(r.Context(), key)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid api key")
			return
		}

		ctx := context.WithValue(r.Context(), actorKey{}, actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *Authenticator) resolve(ctx context.Context, key string) (user.Actor, error) {
	mac := hmac.New(sha256.New, a.pepper)
	mac.Write([]byte(key))
	hash := mac.Sum(nil)

	info, err := a.apikeys.FindByHash(ctx, hex.EncodeToString(hash))
	if err != nil {
		return user.Actor{}, err
	}

	stored, err := hex.DecodeString(info.KeyHash)
	if err != nil {
		return user.Actor{}, err
	}
	if subtle.ConstantTimeCompare(hash, stored) != 1 {
		return user.Actor{}, errInvalidKey
	}

	u, err := a.users.GetByID(ctx, info.UserID)
	if err != nil {
		return user.Actor{}, err
	}

	return user.Actor{UserID: u.ID, Role: u.Role}, nil
}

var errInvalidKey = errors.New("api key hash mismatch")
