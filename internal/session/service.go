// Location Tracker - Per-user location databases on Cloudant/CouchDB
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/locationtracker

// Package session implements login against the store's cookie sessions and
// resolution of an existing AuthSession back to its user record.
package session

import (
	"context"
	"errors"

	"github.com/goccy/go-json"

	"github.com/tomtom215/locationtracker/internal/credential"
	"github.com/tomtom215/locationtracker/internal/logging"
	"github.com/tomtom215/locationtracker/internal/metrics"
	"github.com/tomtom215/locationtracker/internal/models"
	"github.com/tomtom215/locationtracker/internal/store"
)

// AuthSessionCookie is the store's session cookie name.
const AuthSessionCookie = "AuthSession"

// Store is the subset of the store client the session workflows use.
type Store interface {
	Host() string
	GetDocument(ctx context.Context, db, id string, out interface{}) error
	FindDocuments(ctx context.Context, db string, selector map[string]interface{}, fields []string) ([]json.RawMessage, error)
	Authenticate(ctx context.Context, name, password string) (*store.Session, error)
	SessionInfo(ctx context.Context, authSession string) (*models.SessionContext, error)
}

// Service logs users in and resolves their sessions.
type Service struct {
	store   Store
	usersDB string
}

// NewService creates a Service reading user records from usersDB.
func NewService(s Store, usersDB string) *Service {
	return &Service{store: s, usersDB: usersDB}
}

// LoginResult is a successful login. Cookie is the rewritten Set-Cookie
// value and is empty when the store sent none.
type LoginResult struct {
	Bundle models.CredentialBundle
	Cookie string
}

// Login results recorded in metrics.
const (
	loginOK         = "ok"
	loginBadRequest = "bad_request"
	loginRejected   = "rejected"
	loginFailed     = "failed"
)

// Login looks up the user record, decrypts the stored credential with the
// login password and opens a store session with it.
//
// A wrong password is not detected locally: it decrypts to a different
// secret, which the store then rejects.
func (s *Service) Login(ctx context.Context, req models.LoginRequest) (*LoginResult, error) {
	name := req.LoginName()
	if name == "" || req.Password == "" {
		metrics.RecordLogin(loginBadRequest)
		return nil, models.E(models.KindBadRequest, "session.login", errors.New("username and password are required"))
	}
	log := logging.Ctx(ctx).With().Str("user_id", models.UserID(name)).Logger()

	var user models.User
	if err := s.store.GetDocument(ctx, s.usersDB, models.UserID(name), &user); err != nil {
		metrics.RecordLogin(loginRejected)
		log.Info().Err(err).Msg("Login failed: user record not found")
		return nil, models.E(models.KindAuthentication, "session.lookup_user", err)
	}

	secret, err := credential.Decrypt(user.APIPassword, req.Password)
	if err != nil {
		metrics.RecordLogin(loginFailed)
		log.Error().Err(err).Msg("Stored credential is unreadable")
		return nil, models.E(models.KindStore, "session.decrypt_credential", err)
	}

	sess, err := s.store.Authenticate(ctx, user.APIKey, secret)
	if err != nil {
		if store.IsUnauthorized(err) {
			metrics.RecordLogin(loginRejected)
			log.Info().Msg("Login failed: credential rejected")
			return nil, models.E(models.KindAuthentication, "session.authenticate", err)
		}
		metrics.RecordLogin(loginFailed)
		log.Error().Err(err).Msg("Login failed")
		return nil, models.E(models.KindStore, "session.authenticate", err)
	}

	metrics.RecordLogin(loginOK)
	log.Info().Msg("User logged in")

	return &LoginResult{
		Bundle: models.CredentialBundle{
			OK:             true,
			Name:           name,
			APIKey:         user.APIKey,
			APIPassword:    secret,
			LocationDB:     user.LocationDB,
			LocationDBName: user.LocationDB,
			LocationDBHost: s.store.Host(),
			Roles:          sess.Roles,
		},
		Cookie: RewriteSessionCookie(sess.SetCookie),
	}, nil
}

// sessionUserFields are projected from the user record onto the session.
var sessionUserFields = []string{"name", "api_key", "api_password", "location_db"}

// Resolve asks the store who owns authSession and, when the owning API key
// belongs to a registered user, overlays that user's record onto the
// returned userCtx. The overlaid api_password is the stored ciphertext.
// Sessions the store does not recognise come back anonymous, unchanged.
func (s *Service) Resolve(ctx context.Context, authSession string) (*models.SessionContext, error) {
	if authSession == "" {
		return nil, models.E(models.KindAuthentication, "session.resolve", errors.New("no AuthSession cookie"))
	}

	info, err := s.store.SessionInfo(ctx, authSession)
	if err != nil {
		return nil, models.E(models.KindStore, "session.session_info", err)
	}
	if info.UserCtx.Roles == nil {
		info.UserCtx.Roles = []string{}
	}
	if info.UserCtx.Name == nil {
		return info, nil
	}

	docs, err := s.store.FindDocuments(ctx, s.usersDB, map[string]interface{}{"api_key": *info.UserCtx.Name}, sessionUserFields)
	if err != nil {
		return nil, models.E(models.KindStore, "session.find_user", err)
	}
	if len(docs) == 0 {
		return info, nil
	}

	var user models.User
	if err := json.Unmarshal(docs[0], &user); err != nil {
		return nil, models.E(models.KindStore, "session.find_user", err)
	}
	name := user.Name
	info.UserCtx.Name = &name
	info.UserCtx.APIKey = user.APIKey
	info.UserCtx.APIPassword = user.APIPassword
	info.UserCtx.LocationDB = user.LocationDB
	return info, nil
}
