// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package memrepo provides in-memory implementations of the database
// repositories for the use case and REST tests. All rows are kept in a
// Store and guarded by its mutex, so every repository method behaves
// like an atomic statement. Transactions share the same rows and are
// never rolled back, so tests which depend on rollbacks need the
// postgres adapter instead.
package memrepo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/momeni/rentdispatch/pkg/core/model"
	"github.com/momeni/rentdispatch/pkg/core/repo"
)

// ErrRawSQL is returned by the Exec methods.
var ErrRawSQL = errors.New("raw sql is not supported by memrepo")

// Store keeps bookings and partners rows.
type Store struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]model.Booking
	partners map[uuid.UUID]model.Partner

	assignCalls int

	// OnlinePartnersErr, if non-nil, is returned by OnlinePartners.
	OnlinePartnersErr error

	// BeforeAssign, if non-nil, is called (without holding the mutex)
	// before each conditional assignment write.
	BeforeAssign func()

	// BeforeSetStatus, if non-nil, is called (without holding the
	// mutex) before each partner status write.
	BeforeSetStatus func()
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		bookings: make(map[uuid.UUID]model.Booking),
		partners: make(map[uuid.UUID]model.Partner),
	}
}

// AssignCalls returns the number of conditional assignment writes
// which were attempted so far.
func (s *Store) AssignCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.assignCalls
}

// SetOnlinePartnersErr replaces the OnlinePartnersErr field.
func (s *Store) SetOnlinePartnersErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.OnlinePartnersErr = err
}

// Pool returns a repo.Pool over s.
func (s *Store) Pool() *Pool {
	return &Pool{s: s}
}

// Pool implements repo.Pool.
type Pool struct {
	s *Store
}

// Conn implements repo.Pool.
func (p *Pool) Conn(ctx context.Context, handler repo.ConnHandler) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return handler(ctx, &Conn{s: p.s})
}

// Conn implements repo.Conn.
type Conn struct {
	s *Store
}

// Tx runs handler with a Tx which shares the rows of the connection.
func (c *Conn) Tx(ctx context.Context, handler repo.TxHandler) error {
	return handler(ctx, &Tx{s: c.s})
}

func (c *Conn) Exec(context.Context, string, ...any) (int64, error) {
	return 0, ErrRawSQL
}

func (c *Conn) IsConn() {
}

// Tx implements repo.Tx.
type Tx struct {
	s *Store
}

func (tx *Tx) Exec(context.Context, string, ...any) (int64, error) {
	return 0, ErrRawSQL
}

func (tx *Tx) IsTx() {
}

func storeOf(q repo.Queryer) *Store {
	switch v := q.(type) {
	case *Conn:
		return v.s
	case *Tx:
		return v.s
	default:
		panic(fmt.Sprintf("unsupported queryer type: %T", q))
	}
}

// Bookings implements repo.Bookings.
type Bookings struct{}

func (Bookings) Conn(c repo.Conn) repo.BookingsConnQueryer {
	return bookingsQueryer{storeOf(c)}
}

func (Bookings) Tx(tx repo.Tx) repo.BookingsTxQueryer {
	return bookingsQueryer{storeOf(tx)}
}

type bookingsQueryer struct {
	s *Store
}

func (q bookingsQueryer) Booking(ctx context.Context, bid uuid.UUID) (*model.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q.s.mu.Lock()
	defer q.s.mu.Unlock()
	b, ok := q.s.bookings[bid]
	if !ok {
		return nil, fmt.Errorf("booking %s: %w", bid, model.ErrBookingNotFound)
	}
	return cloneBooking(b), nil
}

func (q bookingsQueryer) Assign(
	ctx context.Context, bid, pid uuid.UUID, at time.Time,
) (int64, error) {
	if f := q.s.BeforeAssign; f != nil {
		f()
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	q.s.mu.Lock()
	defer q.s.mu.Unlock()
	q.s.assignCalls++
	b, ok := q.s.bookings[bid]
	if !ok || b.PartnerID != nil || b.Status != model.BookingStatusPending {
		return 0, nil
	}
	b.PartnerID = &pid
	b.Status = model.BookingStatusAssigned
	b.AssignedAt = &at
	b.UpdatedAt = at
	q.s.bookings[bid] = b
	return 1, nil
}

func (q bookingsQueryer) Create(ctx context.Context, b *model.Booking) error {
	q.s.mu.Lock()
	defer q.s.mu.Unlock()
	if _, ok := q.s.bookings[b.ID]; ok {
		return fmt.Errorf("duplicate booking %s", b.ID)
	}
	q.s.bookings[b.ID] = *cloneBooking(*b)
	return nil
}

func cloneBooking(b model.Booking) *model.Booking {
	if b.PartnerID != nil {
		pid := *b.PartnerID
		b.PartnerID = &pid
	}
	if b.AssignedAt != nil {
		at := *b.AssignedAt
		b.AssignedAt = &at
	}
	return &b
}

// Partners implements repo.Partners.
type Partners struct{}

func (Partners) Conn(c repo.Conn) repo.PartnersConnQueryer {
	return partnersQueryer{storeOf(c)}
}

func (Partners) Tx(tx repo.Tx) repo.PartnersTxQueryer {
	return partnersQueryer{storeOf(tx)}
}

type partnersQueryer struct {
	s *Store
}

func (q partnersQueryer) OnlinePartners(ctx context.Context) ([]model.Partner, error) {
	q.s.mu.Lock()
	defer q.s.mu.Unlock()
	if q.s.OnlinePartnersErr != nil {
		return nil, q.s.OnlinePartnersErr
	}
	var pp []model.Partner
	for _, p := range q.s.partners {
		if p.Status == model.PartnerStatusOnline {
			pp = append(pp, *clonePartner(p))
		}
	}
	sort.Slice(pp, func(i, j int) bool {
		return pp[i].ID.String() < pp[j].ID.String()
	})
	return pp, nil
}

func (q partnersQueryer) Partner(ctx context.Context, pid uuid.UUID) (*model.Partner, error) {
	q.s.mu.Lock()
	defer q.s.mu.Unlock()
	p, ok := q.s.partners[pid]
	if !ok {
		return nil, fmt.Errorf("partner %s: %w", pid, model.ErrPartnerNotFound)
	}
	return clonePartner(p), nil
}

func (q partnersQueryer) UpdateLocation(
	ctx context.Context, pid uuid.UUID, c model.Coordinate, at time.Time,
) (*model.Partner, error) {
	return q.update(pid, func(p *model.Partner) error {
		p.Location = c
		p.LastGPSAt = &at
		return nil
	})
}

func (q partnersQueryer) SetStatus(
	ctx context.Context, pid uuid.UUID, s model.PartnerStatus,
	keepSuspended bool,
) (*model.Partner, error) {
	if f := q.s.BeforeSetStatus; f != nil {
		f()
	}
	return q.update(pid, func(p *model.Partner) error {
		if keepSuspended && p.Status == model.PartnerStatusSuspended {
			return fmt.Errorf("partner %s: %w", pid, model.ErrPartnerSuspended)
		}
		p.Status = s
		return nil
	})
}

func (q partnersQueryer) update(pid uuid.UUID, f func(*model.Partner) error) (*model.Partner, error) {
	q.s.mu.Lock()
	defer q.s.mu.Unlock()
	p, ok := q.s.partners[pid]
	if !ok {
		return nil, fmt.Errorf("partner %s: %w", pid, model.ErrPartnerNotFound)
	}
	if err := f(&p); err != nil {
		return nil, err
	}
	q.s.partners[pid] = p
	return clonePartner(p), nil
}

func (q partnersQueryer) Create(ctx context.Context, p *model.Partner) error {
	q.s.mu.Lock()
	defer q.s.mu.Unlock()
	if _, ok := q.s.partners[p.ID]; ok {
		return fmt.Errorf("duplicate partner %s", p.ID)
	}
	q.s.partners[p.ID] = *clonePartner(*p)
	return nil
}

func clonePartner(p model.Partner) *model.Partner {
	if p.LastGPSAt != nil {
		at := *p.LastGPSAt
		p.LastGPSAt = &at
	}
	return &p
}

// AddBooking inserts b, panicking on duplicates. It is a shortcut for
// the test fixtures.
func (s *Store) AddBooking(b model.Booking) {
	if err := (bookingsQueryer{s}).Create(context.Background(), &b); err != nil {
		panic(err)
	}
}

// AddPartner inserts p, panicking on duplicates.
func (s *Store) AddPartner(p model.Partner) {
	if err := (partnersQueryer{s}).Create(context.Background(), &p); err != nil {
		panic(err)
	}
}
