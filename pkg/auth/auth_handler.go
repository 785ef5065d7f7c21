package auth

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kalendo/kalendo/internal/config"
	"github.com/kalendo/kalendo/internal/rest"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	googleoauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

type authRedirect struct {
	RedirectUrl string `json:"redirectUrl"`
}

type CapabilityDTO struct {
	IsAuthenticated bool   `json:"isAuthenticated"`
	IsAdmin         bool   `json:"isAdmin"`
	Username        string `json:"username,omitempty"`
	Loading         bool   `json:"loading"`
}

// Handler implements the sign-in flow. Credential verification is delegated
// to Google OAuth; all this service keeps is the verified email, the session
// row, and the capability resolved from the membership store.
type Handler struct {
	db              *sql.DB
	sessions        SessionRepository
	registry        *GateRegistry
	oauthConfig     *oauth2.Config
	sessionDuration time.Duration
}

func NewHandler(db *sql.DB, sessions SessionRepository, registry *GateRegistry, cfg config.Application) *Handler {
	oauthConfig := &oauth2.Config{
		ClientID:     cfg.Google.ClientId,
		ClientSecret: cfg.Google.ClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  cfg.Host + "/api/auth/callback",
		Scopes:       []string{googleoauth2.UserinfoEmailScope},
	}

	return &Handler{
		db:              db,
		sessions:        sessions,
		registry:        registry,
		oauthConfig:     oauthConfig,
		sessionDuration: time.Duration(cfg.Session.DurationHours) * time.Hour,
	}
}

// Login godoc
// @Summary Start the sign-in flow
// @Description Returns the Google OAuth URL the browser should redirect to
// @Tags Auth
// @Produce json
// @Param finalUrl query string false "URL to return to after sign-in"
// @Success 200 {object} authRedirect
// @Router /api/auth/login [get]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	stateNonce := uuid.New().String()
	finalUrl := r.URL.Query().Get("finalUrl")

	_, err := h.db.ExecContext(r.Context(), "INSERT INTO oauth_nonce (nonce, created_at) VALUES ($1, $2)",
		stateNonce, time.Now().UnixMilli())
	if err != nil {
		log.Errorf("failed to store oauth nonce: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		encodeErr := json.NewEncoder(w).Encode(rest.ErrorResponse{
			Error: "Failed to start sign-in",
		})
		if encodeErr != nil {
			http.Error(w, encodeErr.Error(), http.StatusInternalServerError)
		}
		return
	}

	log.Tracef("Redirecting to Google auth URL with nonce: %s", stateNonce)
	u := h.oauthConfig.AuthCodeURL(finalUrl + "|" + stateNonce)

	w.WriteHeader(http.StatusOK)
	encodeErr := json.NewEncoder(w).Encode(authRedirect{
		RedirectUrl: u,
	})
	if encodeErr != nil {
		http.Error(w, encodeErr.Error(), http.StatusInternalServerError)
	}
}

// Callback godoc
// @Summary OAuth callback
// @Description Exchanges the code, verifies the identity, and establishes a session
// @Tags Auth
// @Router /api/auth/callback [get]
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	code := r.FormValue("code")
	state := r.FormValue("state")

	parts := strings.SplitN(state, "|", 2)
	if len(parts) != 2 {
		http.Error(w, "invalid state parameter", http.StatusBadRequest)
		return
	}
	finalUrl := parts[0]
	nonce := parts[1]

	if err := h.consumeNonce(r.Context(), nonce); err != nil {
		log.Errorf("oauth nonce rejected: %v", err)
		http.Redirect(w, r, finalUrl+"?success=false", http.StatusFound)
		return
	}

	token, err := h.oauthConfig.Exchange(r.Context(), code)
	if err != nil {
		log.Errorf("unable to exchange code for token: %v", err)
		http.Redirect(w, r, finalUrl+"?success=false", http.StatusFound)
		return
	}

	email, err := h.fetchVerifiedEmail(r.Context(), token)
	if err != nil {
		log.Errorf("unable to fetch verified email: %v", err)
		http.Redirect(w, r, finalUrl+"?success=false", http.StatusFound)
		return
	}

	now := time.Now()
	session := Session{
		Id:        uuid.New().String(),
		Email:     email,
		CreatedAt: now,
		ExpiresAt: now.Add(h.sessionDuration),
	}
	if err := h.sessions.StoreSession(r.Context(), session); err != nil {
		http.Redirect(w, r, finalUrl+"?success=false", http.StatusFound)
		return
	}

	SetSessionCookie(w, session)

	// The admin resolution outlives this request, so detach it from the
	// request's cancellation.
	h.registry.Gate(session.Id).OnIdentityChange(context.WithoutCancel(r.Context()), email)

	log.Infof("User signed in: %s", email)
	http.Redirect(w, r, finalUrl+"?success=true", http.StatusFound)
}

// Logout godoc
// @Summary Sign out
// @Description Destroys the session and resets capability
// @Tags Auth
// @Success 204
// @Router /api/auth/logout [delete]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	sessionId := ReadSessionId(r)
	if sessionId != "" {
		if err := h.sessions.DeleteSession(r.Context(), sessionId); err != nil {
			log.Errorf("failed to delete session: %v", err)
		}
		h.registry.Gate(sessionId).OnIdentityChange(r.Context(), "")
		h.registry.Drop(sessionId)
	}
	ClearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// SessionInfo godoc
// @Summary Current capability
// @Description Returns the capability state for the calling session
// @Tags Auth
// @Produce json
// @Success 200 {object} CapabilityDTO
// @Router /api/auth/session [get]
func (h *Handler) SessionInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	sessionId := ReadSessionId(r)
	if sessionId == "" {
		writeCapability(w, Capability{})
		return
	}

	session, err := h.sessions.FindSession(r.Context(), sessionId)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if session == nil || session.Expired(time.Now()) {
		ClearSessionCookie(w)
		writeCapability(w, Capability{})
		return
	}

	gate := h.registry.Gate(sessionId)
	snapshot := gate.Snapshot()
	if !snapshot.IsAuthenticated || snapshot.Identity != session.Email {
		// Fresh gate (e.g. after a restart): trigger resolution and report
		// the loading state until it lands.
		gate.OnIdentityChange(context.WithoutCancel(r.Context()), session.Email)
		snapshot = gate.Snapshot()
	}
	writeCapability(w, snapshot)
}

func writeCapability(w http.ResponseWriter, c Capability) {
	var username string
	if c.Identity != "" {
		username = strings.SplitN(c.Identity, "@", 2)[0]
	}
	dto := CapabilityDTO{
		IsAuthenticated: c.IsAuthenticated,
		IsAdmin:         c.IsAdmin,
		Username:        username,
		Loading:         c.Loading,
	}
	if err := json.NewEncoder(w).Encode(dto); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) consumeNonce(ctx context.Context, nonce string) error {
	result, err := h.db.ExecContext(ctx, "DELETE FROM oauth_nonce WHERE nonce = $1", nonce)
	if err != nil {
		return fmt.Errorf("could not consume nonce: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if deleted == 0 {
		return errors.New("unknown nonce")
	}
	return nil
}

func (h *Handler) fetchVerifiedEmail(ctx context.Context, token *oauth2.Token) (string, error) {
	svc, err := googleoauth2.NewService(ctx, option.WithTokenSource(h.oauthConfig.TokenSource(ctx, token)))
	if err != nil {
		return "", fmt.Errorf("could not create userinfo service: %w", err)
	}
	info, err := svc.Userinfo.Get().Do()
	if err != nil {
		return "", fmt.Errorf("could not fetch userinfo: %w", err)
	}
	if info.Email == "" {
		return "", errors.New("userinfo response carried no email")
	}
	return info.Email, nil
}
