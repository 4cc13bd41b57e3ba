// Location Tracker - Per-user location databases on Cloudant/CouchDB
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/locationtracker

// Package provision registers users and tears down the shared databases.
//
// Registration is a fixed chain of store calls. Each step either succeeds or
// aborts the chain; nothing already done is undone. A failed registration
// can leave a per-user database or an unbound credential behind; the orphan
// sweep reports and optionally removes such databases.
package provision

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/locationtracker/internal/credential"
	"github.com/tomtom215/locationtracker/internal/logging"
	"github.com/tomtom215/locationtracker/internal/metrics"
	"github.com/tomtom215/locationtracker/internal/models"
	"github.com/tomtom215/locationtracker/internal/store"
)

// Store is the subset of the store client the workflows use.
// *store.Client and *store.BreakerClient both satisfy it.
type Store interface {
	CreateDatabase(ctx context.Context, db string) (bool, error)
	DestroyDatabase(ctx context.Context, db string) error
	ListDatabases(ctx context.Context) ([]string, error)
	InsertDocument(ctx context.Context, db string, doc interface{}) (store.DocumentResult, error)
	InsertDesignDocument(ctx context.Context, db string, doc store.DesignDocument) (bool, error)
	FindDocuments(ctx context.Context, db string, selector map[string]interface{}, fields []string) ([]json.RawMessage, error)
	GenerateAPIKey(ctx context.Context) (store.APIKey, error)
	GetAccessList(ctx context.Context, db string) (store.AccessList, error)
	SetAccessList(ctx context.Context, db string, acl store.AccessList) error
	Replicate(ctx context.Context, source, target string, continuous bool) error
}

// Databases names the shared databases and the per-user prefix.
type Databases struct {
	Users          string
	Aggregate      string
	LocationPrefix string
}

// Step identifies one stage of registration.
type Step string

// Registration steps, in execution order.
const (
	StepCheckNotExists       Step = "check_not_exists"
	StepCreateUserDatabase   Step = "create_user_database"
	StepAttachGeoIndex       Step = "attach_geo_index"
	StepIssueCredential      Step = "issue_credential"
	StepBindCredential       Step = "bind_credential"
	StepPersistUser          Step = "persist_user"
	StepEstablishReplication Step = "establish_replication"
)

// Steps lists the registration steps in the order Register runs them.
var Steps = []Step{
	StepCheckNotExists,
	StepCreateUserDatabase,
	StepAttachGeoIndex,
	StepIssueCredential,
	StepBindCredential,
	StepPersistUser,
	StepEstablishReplication,
}

// StepError reports the step at which registration stopped. Err is always
// a *models.Error, so models.KindOf works on a StepError directly.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("provision: %s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Request is a registration request. ID must equal models.UserID(Name).
type Request struct {
	ID       string
	Name     string
	Password string
}

func (r Request) validate(maxName int) error {
	var reason string
	switch name, ok := models.NameFromUserID(r.ID); {
	case r.Name == "" || r.Password == "":
		reason = "name and password are required"
	case !ok || name != r.Name:
		reason = "id does not match name"
	case len(r.Name) > maxName:
		reason = fmt.Sprintf("name longer than %d bytes", maxName)
	default:
		return nil
	}
	return models.E(models.KindBadRequest, "provision.register", errors.New(reason))
}

// Result describes a registered user.
type Result struct {
	ID         string
	Rev        string
	LocationDB string
}

// Provisioner runs the registration workflow.
type Provisioner struct {
	store Store
	dbs   Databases
}

// NewProvisioner creates a Provisioner. An empty LocationPrefix falls back
// to DefaultLocationPrefix.
func NewProvisioner(s Store, dbs Databases) *Provisioner {
	if dbs.LocationPrefix == "" {
		dbs.LocationPrefix = DefaultLocationPrefix
	}
	return &Provisioner{store: s, dbs: dbs}
}

// registration carries state between steps.
type registration struct {
	req Request
	db  string
	key store.APIKey
	rev string
}

type stepFunc func(ctx context.Context, r *registration) (outcome string, err error)

type plannedStep struct {
	step Step
	run  stepFunc
}

// plan pairs every entry of Steps with its implementation.
func (p *Provisioner) plan() []plannedStep {
	return []plannedStep{
		{StepCheckNotExists, p.checkNotExists},
		{StepCreateUserDatabase, p.createUserDatabase},
		{StepAttachGeoIndex, p.attachGeoIndex},
		{StepIssueCredential, p.issueCredential},
		{StepBindCredential, p.bindCredential},
		{StepPersistUser, p.persistUser},
		{StepEstablishReplication, p.establishReplication},
	}
}

// Step outcomes recorded in metrics.
const (
	outcomeOK     = "ok"
	outcomeExists = "exists"
	outcomeFailed = "failed"
)

// Register provisions a new user: a private location database with a geo
// index, a store credential bound to it, the user record and continuous
// replication into the aggregate database.
//
// Steps run strictly in order and the first failure stops the chain with a
// *StepError. Work done by earlier steps is not rolled back. Concurrent
// registrations of the same id are settled by the store: only one user
// record insert succeeds and the other caller gets KindDuplicate.
func (p *Provisioner) Register(ctx context.Context, req Request) (*Result, error) {
	if err := req.validate(MaxNameLength(p.dbs.LocationPrefix)); err != nil {
		metrics.RecordRegistration("bad_request")
		return nil, err
	}

	r := &registration{
		req: req,
		db:  LocationDBName(p.dbs.LocationPrefix, req.Name),
	}
	log := logging.Ctx(ctx).With().Str("user_id", req.ID).Str("location_db", r.db).Logger()

	for _, st := range p.plan() {
		step := st.step
		start := time.Now()
		outcome, err := st.run(ctx, r)
		if err != nil {
			outcome = outcomeFailed
		}
		metrics.RecordProvisionStep(string(step), outcome, time.Since(start))
		log.Debug().Str("step", string(step)).Str("outcome", outcome).Msg("Provisioning step")

		if err == nil {
			continue
		}

		kind := models.KindOf(err)
		if kind == models.KindDuplicate {
			metrics.RecordRegistration("duplicate")
			log.Info().Str("step", string(step)).Msg("User already exists")
		} else {
			metrics.RecordRegistration("failed")
			event := log.Error().Err(err).Str("step", string(step))
			if step == StepEstablishReplication {
				// The record and database exist; only replication is missing.
				event = event.Bool("partial", true)
			}
			event.Msg("Registration failed")
		}
		return nil, &StepError{Step: step, Err: err}
	}

	metrics.RecordRegistration("created")
	log.Info().Msg("User registered")
	return &Result{ID: req.ID, Rev: r.rev, LocationDB: r.db}, nil
}

func op(step Step) string {
	return "provision." + string(step)
}

func (p *Provisioner) checkNotExists(ctx context.Context, r *registration) (string, error) {
	docs, err := p.store.FindDocuments(ctx, p.dbs.Users, map[string]interface{}{"_id": r.req.ID}, []string{"_id"})
	if err != nil {
		return "", models.E(models.KindStore, op(StepCheckNotExists), err)
	}
	if len(docs) > 0 {
		return "", models.E(models.KindDuplicate, op(StepCheckNotExists), nil)
	}
	return outcomeOK, nil
}

func (p *Provisioner) createUserDatabase(ctx context.Context, r *registration) (string, error) {
	created, err := p.store.CreateDatabase(ctx, r.db)
	if err != nil {
		return "", models.E(models.KindStore, op(StepCreateUserDatabase), err)
	}
	if !created {
		return outcomeExists, nil
	}
	return outcomeOK, nil
}

func (p *Provisioner) attachGeoIndex(ctx context.Context, r *registration) (string, error) {
	created, err := p.store.InsertDesignDocument(ctx, r.db, store.GeoDesignDocument())
	if err != nil {
		return "", models.E(models.KindStore, op(StepAttachGeoIndex), err)
	}
	if !created {
		return outcomeExists, nil
	}
	return outcomeOK, nil
}

func (p *Provisioner) issueCredential(ctx context.Context, r *registration) (string, error) {
	key, err := p.store.GenerateAPIKey(ctx)
	if err != nil {
		return "", models.E(models.KindStore, op(StepIssueCredential), err)
	}
	if key.Key == "" || key.Password == "" {
		return "", models.E(models.KindStore, op(StepIssueCredential), errors.New("store returned an empty credential"))
	}
	r.key = key
	return outcomeOK, nil
}

func (p *Provisioner) bindCredential(ctx context.Context, r *registration) (string, error) {
	acl, err := p.store.GetAccessList(ctx, r.db)
	if err != nil {
		return "", models.E(models.KindStore, op(StepBindCredential), err)
	}
	if acl == nil {
		acl = store.AccessList{}
	}
	acl[r.key.Key] = []string{store.RoleReader, store.RoleWriter}
	if err := p.store.SetAccessList(ctx, r.db, acl); err != nil {
		return "", models.E(models.KindStore, op(StepBindCredential), err)
	}
	return outcomeOK, nil
}

func (p *Provisioner) persistUser(ctx context.Context, r *registration) (string, error) {
	encrypted, err := credential.Encrypt(r.key.Password, r.req.Password)
	if err != nil {
		return "", models.E(models.KindStore, op(StepPersistUser), err)
	}

	user := models.User{
		ID:          r.req.ID,
		Name:        r.req.Name,
		APIKey:      r.key.Key,
		APIPassword: encrypted,
		LocationDB:  r.db,
	}
	res, err := p.store.InsertDocument(ctx, p.dbs.Users, user)
	if store.IsConflict(err) {
		return "", models.E(models.KindDuplicate, op(StepPersistUser), err)
	}
	if err != nil {
		return "", models.E(models.KindStore, op(StepPersistUser), err)
	}
	r.rev = res.Rev
	return outcomeOK, nil
}

func (p *Provisioner) establishReplication(ctx context.Context, r *registration) (string, error) {
	if err := p.store.Replicate(ctx, r.db, p.dbs.Aggregate, true); err != nil {
		return "", models.E(models.KindStore, op(StepEstablishReplication), err)
	}
	return outcomeOK, nil
}
