package api

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/feastly/feastly/internal/domain/user"
	"github.com/feastly/feastly/internal/fault"
)

// authedFunc is a handler that receives the authenticated caller.
type authedFunc func(w http.ResponseWriter, r *http.Request, actor *user.User)

// authenticated wraps next with bearer-token authentication. The token is
// hashed before lookup so the store never sees plaintext credentials, and
// the stored hash is compared in constant time to prevent timing attacks.
func (h *Handler) authenticated(next authedFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeError(r.Context(), w, fault.New(fault.Unauthorized, "authentication required"))
			return
		}

		hash := sha256.Sum256([]byte(token))
		hexHash := hex.EncodeToString(hash[:])

		actor, err := h.users.FindByTokenHash(r.Context(), hexHash)
		if err != nil {
			writeError(r.Context(), w, fault.New(fault.Unauthorized, "invalid token"))
			return
		}

		stored, err := hex.DecodeString(actor.TokenHash)
		if err != nil || subtle.ConstantTimeCompare(hash[:], stored) != 1 {
			writeError(r.Context(), w, fault.New(fault.Unauthorized, "invalid token"))
			return
		}

		ctx := zctx.With(r.Context(), zap.String("user_id", actor.ID))
		next(w, r.WithContext(ctx), actor)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok || token == "" {
		return "", false
	}
	return token, true
}
