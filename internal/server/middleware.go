package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	admindomain "github.com/sngm3741/bizsurvey-services/api/internal/admin/domain"
	"github.com/sngm3741/bizsurvey-services/api/internal/domainerr"
	"github.com/sngm3741/bizsurvey-services/api/internal/infrastructure/auth"
	commonhttp "github.com/sngm3741/bizsurvey-services/api/internal/interfaces/http/common"
)

// tokenParser は管理者トークンの検証を抽象化する。
type tokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

// staffLookup はトークン発行後に無効化・降格されたアカウントを検出するための参照口。
type staffLookup interface {
	FindByID(ctx context.Context, id string) (*admindomain.User, error)
}

// withCORS は許可されたオリジン情報をもとに CORS ヘッダーを付与するミドルウェアを返す。
func withCORS(origins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{})
	allowAll := false
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		if origin == "*" {
			allowAll = true
			continue
		}
		allowed[origin] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			if origin == "" || (!allowAll && !originAllowed(origin, allowed)) {
				if r.Method == http.MethodOptions {
					w.WriteHeader(http.StatusNoContent)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,PATCH,DELETE,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization,Content-Type")
			w.Header().Set("Access-Control-Expose-Headers", "Content-Disposition")
			w.Header().Set("Access-Control-Max-Age", "300")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// originAllowed は指定された Origin が許可リストに含まれるか判定する。
func originAllowed(origin string, allowed map[string]struct{}) bool {
	_, ok := allowed[origin]
	return ok
}

// authMiddleware は Authorization ヘッダーの Bearer トークンを検証し、管理者をコンテキストへ詰める。
// ロールと有効フラグはトークンではなく現在のアカウントから取る。
func authMiddleware(tokens tokenParser, staff staffLookup, logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
			if authHeader == "" {
				writeJSON(logger, w, http.StatusUnauthorized, map[string]string{"error": "missing Authorization header"})
				return
			}

			const bearerPrefix = "Bearer "
			if !strings.HasPrefix(authHeader, bearerPrefix) {
				writeJSON(logger, w, http.StatusUnauthorized, map[string]string{"error": "expected a Bearer token"})
				return
			}

			tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, bearerPrefix))
			if tokenString == "" {
				writeJSON(logger, w, http.StatusUnauthorized, map[string]string{"error": "empty access token"})
				return
			}

			claims, err := tokens.Parse(tokenString)
			if err != nil {
				writeJSON(logger, w, http.StatusUnauthorized, map[string]string{"error": "invalid or expired access token"})
				return
			}

			account, err := staff.FindByID(r.Context(), claims.Subject)
			if err != nil {
				if errors.Is(err, domainerr.ErrNotFound) {
					writeJSON(logger, w, http.StatusUnauthorized, map[string]string{"error": "account no longer exists"})
					return
				}
				if logger != nil {
					logger.Printf("管理者アカウントの取得に失敗 id=%s: %v", claims.Subject, err)
				}
				writeJSON(logger, w, http.StatusInternalServerError, map[string]string{"error": "failed to verify account"})
				return
			}
			if !account.Active {
				writeJSON(logger, w, http.StatusUnauthorized, map[string]string{"error": "account is disabled"})
				return
			}

			user := commonhttp.AuthenticatedUser{
				ID:    account.ID,
				Email: account.Email.String(),
				Name:  account.Name,
				Role:  account.Role.String(),
			}
			next.ServeHTTP(w, r.WithContext(commonhttp.ContextWithUser(r.Context(), user)))
		})
	}
}

// writeJSON は JSON レスポンスの共通書き込み処理。
func writeJSON(logger *log.Logger, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil && logger != nil {
		logger.Printf("JSON エンコードに失敗: %v", err)
	}
}
