// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package partnersuc_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/momeni/rentdispatch/internal/test/memrepo"
	kvredis "github.com/momeni/rentdispatch/pkg/adapter/kv/redis"
	"github.com/momeni/rentdispatch/pkg/core/cerr"
	"github.com/momeni/rentdispatch/pkg/core/model"
	"github.com/momeni/rentdispatch/pkg/core/usecase/eventuc"
	"github.com/momeni/rentdispatch/pkg/core/usecase/partnersuc"
	"github.com/momeni/rentdispatch/pkg/core/usecase/ratelimituc"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
)

var (
	onlineID    = uuid.MustParse("a1f3c5e0-0000-4000-8000-000000000001")
	suspendedID = uuid.MustParse("a1f3c5e0-0000-4000-8000-000000000004")
	fixedNow    = time.Unix(1_700_000_000, 0).UTC()
)

type PartnersTestSuite struct {
	suite.Suite

	ctx   context.Context
	srv   *miniredis.Miniredis
	rdb   *redis.Client
	store *memrepo.Store
	uc    *partnersuc.UseCase
}

func TestPartnersTestSuite(t *testing.T) {
	suite.Run(t, new(PartnersTestSuite))
}

func (pts *PartnersTestSuite) SetupTest() {
	pts.ctx = context.Background()
	pts.srv = miniredis.RunT(pts.T())
	rdb, err := kvredis.Connect(pts.ctx, &redis.Options{Addr: pts.srv.Addr()})
	pts.Require().NoError(err)
	pts.rdb = rdb

	pts.store = memrepo.New()
	pts.store.AddPartner(model.Partner{
		ID: onlineID, Status: model.PartnerStatusOnline,
		Location: model.Coordinate{Lat: 19.2, Lon: 72.82},
	})
	pts.store.AddPartner(model.Partner{
		ID: suspendedID, Status: model.PartnerStatusSuspended,
		Location: model.Coordinate{Lat: 19.06, Lon: 72.83},
	})

	clock := func() time.Time { return fixedNow }
	limiter, err := ratelimituc.New(kvredis.NewCounter(rdb), ratelimituc.WithClock(clock))
	pts.Require().NoError(err)
	events, err := eventuc.New(kvredis.NewBus(rdb))
	pts.Require().NoError(err)
	pts.uc, err = partnersuc.New(
		pts.store.Pool(), memrepo.Partners{}, limiter, events,
		partnersuc.WithGPSRateLimit(2, 10*time.Second),
		partnersuc.WithClock(clock),
	)
	pts.Require().NoError(err)
}

func (pts *PartnersTestSuite) TearDownTest() {
	pts.rdb.Close()
}

func (pts *PartnersTestSuite) requireCode(err error, status int, code string) {
	var ce *cerr.Error
	pts.Require().ErrorAs(err, &ce)
	pts.Equal(status, ce.HTTPStatusCode)
	pts.Equal(code, ce.Code)
}

func (pts *PartnersTestSuite) TestReportLocation() {
	sub, err := kvredis.NewBus(pts.rdb).Subscribe(pts.ctx, model.ChannelPartnerGPS)
	pts.Require().NoError(err)
	defer sub.Close()

	loc := model.Coordinate{Lat: 19.21, Lon: 72.83}
	p, err := pts.uc.ReportLocation(pts.ctx, onlineID, loc)
	pts.Require().NoError(err)
	pts.Equal(loc, p.Location)
	pts.Require().NotNil(p.LastGPSAt)
	pts.Equal(fixedNow, *p.LastGPSAt)

	select {
	case msg := <-sub.Messages():
		pts.JSONEq(`{
			"partnerId": "a1f3c5e0-0000-4000-8000-000000000001",
			"lat": 19.21,
			"lng": 72.83
		}`, string(msg.Payload))
	case <-time.After(3 * time.Second):
		pts.Fail("partner-gps event was not published")
	}

	got, err := pts.uc.Partner(pts.ctx, onlineID)
	pts.Require().NoError(err)
	pts.Equal(loc, got.Location)
}

func (pts *PartnersTestSuite) TestReportLocationIsRateLimited() {
	loc := model.Coordinate{Lat: 19.21, Lon: 72.83}
	for i := 0; i < 2; i++ {
		_, err := pts.uc.ReportLocation(pts.ctx, onlineID, loc)
		pts.Require().NoError(err)
	}
	_, err := pts.uc.ReportLocation(pts.ctx, onlineID, model.Coordinate{Lat: 1, Lon: 1})
	pts.requireCode(err, http.StatusTooManyRequests, cerr.CodeRateLimited)
	pts.ErrorIs(err, model.ErrRateLimited)

	p, err := pts.uc.Partner(pts.ctx, onlineID)
	pts.Require().NoError(err)
	pts.Equal(loc, p.Location, "rejected report is not stored")

	// limits are kept per partner
	_, err = pts.uc.ReportLocation(pts.ctx, suspendedID, loc)
	pts.NoError(err)
}

func (pts *PartnersTestSuite) TestReportLocationRejections() {
	for _, loc := range []model.Coordinate{
		{Lat: 91, Lon: 0}, {Lat: -90.5, Lon: 0}, {Lat: 0, Lon: 180.1}, {Lat: 0, Lon: -181},
	} {
		_, err := pts.uc.ReportLocation(pts.ctx, onlineID, loc)
		pts.requireCode(err, http.StatusBadRequest, cerr.CodeBadRequest)
	}
	_, err := pts.uc.ReportLocation(pts.ctx, uuid.New(), model.Coordinate{})
	pts.requireCode(err, http.StatusNotFound, cerr.CodeNotFound)
	pts.ErrorIs(err, model.ErrPartnerNotFound)
}

func (pts *PartnersTestSuite) TestSetStatus() {
	p, err := pts.uc.SetStatus(pts.ctx, onlineID, model.PartnerStatusOffline, false)
	pts.Require().NoError(err)
	pts.Equal(model.PartnerStatusOffline, p.Status)

	_, err = pts.uc.SetStatus(pts.ctx, onlineID, model.PartnerStatusSuspended, false)
	pts.requireCode(err, http.StatusForbidden, cerr.CodeForbidden)
	pts.ErrorIs(err, partnersuc.ErrSuspendedByAdmin)

	_, err = pts.uc.SetStatus(pts.ctx, suspendedID, model.PartnerStatusOnline, false)
	pts.requireCode(err, http.StatusForbidden, cerr.CodeForbidden)
	p, err = pts.uc.Partner(pts.ctx, suspendedID)
	pts.Require().NoError(err)
	pts.Equal(model.PartnerStatusSuspended, p.Status)

	p, err = pts.uc.SetStatus(pts.ctx, suspendedID, model.PartnerStatusOnline, true)
	pts.Require().NoError(err)
	pts.Equal(model.PartnerStatusOnline, p.Status)

	p, err = pts.uc.SetStatus(pts.ctx, onlineID, model.PartnerStatusSuspended, true)
	pts.Require().NoError(err)
	pts.Equal(model.PartnerStatusSuspended, p.Status)

	_, err = pts.uc.SetStatus(pts.ctx, onlineID, model.PartnerStatusInvalid, true)
	pts.requireCode(err, http.StatusBadRequest, cerr.CodeBadRequest)

	_, err = pts.uc.SetStatus(pts.ctx, uuid.New(), model.PartnerStatusOnline, true)
	pts.requireCode(err, http.StatusNotFound, cerr.CodeNotFound)
}

func (pts *PartnersTestSuite) TestSetStatusKeepsConcurrentSuspension() {
	pts.store.BeforeSetStatus = func() {
		pts.store.BeforeSetStatus = nil
		p, err := pts.uc.SetStatus(pts.ctx, onlineID, model.PartnerStatusSuspended, true)
		pts.Require().NoError(err)
		pts.Equal(model.PartnerStatusSuspended, p.Status)
	}
	_, err := pts.uc.SetStatus(pts.ctx, onlineID, model.PartnerStatusOnline, false)
	pts.requireCode(err, http.StatusForbidden, cerr.CodeForbidden)
	pts.ErrorIs(err, partnersuc.ErrSuspendedByAdmin)
	pts.ErrorIs(err, model.ErrPartnerSuspended)

	p, err := pts.uc.Partner(pts.ctx, onlineID)
	pts.Require().NoError(err)
	pts.Equal(model.PartnerStatusSuspended, p.Status)

	_, err = pts.uc.SetStatus(pts.ctx, uuid.New(), model.PartnerStatusOffline, false)
	pts.requireCode(err, http.StatusNotFound, cerr.CodeNotFound)
}

func (pts *PartnersTestSuite) TestInvalidOptions() {
	for name, opt := range map[string]partnersuc.Option{
		"zero limit":   partnersuc.WithGPSRateLimit(0, time.Second),
		"short window": partnersuc.WithGPSRateLimit(1, time.Millisecond),
		"nil clock":    partnersuc.WithClock(nil),
	} {
		_, err := partnersuc.New(nil, nil, nil, nil, opt)
		pts.Error(err, name)
	}
}
