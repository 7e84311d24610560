// Copyright (c) 2023-2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package gin_test

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	gingonic "github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/momeni/rentdispatch/internal/test/memrepo"
	"github.com/momeni/rentdispatch/pkg/adapter/auth/jwt"
	"github.com/momeni/rentdispatch/pkg/adapter/kv/redis"
	"github.com/momeni/rentdispatch/pkg/adapter/restful/gin"
	"github.com/momeni/rentdispatch/pkg/adapter/restful/gin/routes"
	"github.com/momeni/rentdispatch/pkg/core/model"
	"github.com/momeni/rentdispatch/pkg/core/usecase/assignuc"
	"github.com/momeni/rentdispatch/pkg/core/usecase/bookingsuc"
	"github.com/momeni/rentdispatch/pkg/core/usecase/eventuc"
	"github.com/momeni/rentdispatch/pkg/core/usecase/lockuc"
	"github.com/momeni/rentdispatch/pkg/core/usecase/matchuc"
	"github.com/momeni/rentdispatch/pkg/core/usecase/partnersuc"
	"github.com/momeni/rentdispatch/pkg/core/usecase/ratelimituc"
)

var (
	bookingID = uuid.MustParse("b0000000-0000-4000-8000-000000000001")
	nearID    = uuid.MustParse("a1f3c5e0-0000-4000-8000-000000000001")
	farID     = uuid.MustParse("a1f3c5e0-0000-4000-8000-000000000002")
	suspendID = uuid.MustParse("a1f3c5e0-0000-4000-8000-000000000004")
)

type GinTestSuite struct {
	suite.Suite

	Ctx    context.Context
	Srv    *miniredis.Miniredis
	Rdb    *goredis.Client
	Store  *memrepo.Store
	Auth   *jwt.Authority
	Events *eventuc.UseCase
	Gin    *gin.Engine
}

func TestGinTestSuite(t *testing.T) {
	gingonic.SetMode(gingonic.TestMode)
	suite.Run(t, new(GinTestSuite))
}

func (gts *GinTestSuite) SetupTest() {
	gts.Ctx = context.Background()
	gts.Srv = miniredis.RunT(gts.T())
	rdb, err := redis.Connect(gts.Ctx, &goredis.Options{Addr: gts.Srv.Addr()})
	gts.Require().NoError(err)
	gts.Rdb = rdb

	gts.Store = memrepo.New()
	gts.Store.AddBooking(model.Booking{
		ID:          bookingID,
		Destination: model.Coordinate{Lat: 19.203, Lon: 72.828},
		Status:      model.BookingStatusPending,
	})
	gts.Store.AddPartner(model.Partner{
		ID:       nearID,
		Name:     "near",
		Status:   model.PartnerStatusOnline,
		Location: model.Coordinate{Lat: 19.2, Lon: 72.82},
	})
	gts.Store.AddPartner(model.Partner{
		ID:       farID,
		Name:     "far",
		Status:   model.PartnerStatusOnline,
		Location: model.Coordinate{Lat: 19.18, Lon: 72.80},
	})
	gts.Store.AddPartner(model.Partner{
		ID:       suspendID,
		Name:     "suspended",
		Status:   model.PartnerStatusSuspended,
		Location: model.Coordinate{Lat: 19.06, Lon: 72.83},
	})

	gts.Auth, err = jwt.New("0123456789abcdef-gin-test", "rdweb")
	gts.Require().NoError(err)
	locks, err := lockuc.New(redis.NewLocker(rdb))
	gts.Require().NoError(err)
	// a fixed clock keeps all requests of a test in one window
	now := time.Date(2024, 5, 1, 10, 0, 1, 0, time.UTC)
	limiter, err := ratelimituc.New(
		redis.NewCounter(rdb),
		ratelimituc.WithClock(func() time.Time { return now }),
	)
	gts.Require().NoError(err)
	gts.Events, err = eventuc.New(
		redis.NewBus(rdb), eventuc.WithRetryHint(1500*time.Millisecond),
	)
	gts.Require().NoError(err)
	pool := gts.Store.Pool()
	assign, err := assignuc.New(
		pool, memrepo.Bookings{}, locks,
		matchuc.New(memrepo.Partners{}), gts.Events,
	)
	gts.Require().NoError(err)
	partners, err := partnersuc.New(
		pool, memrepo.Partners{}, limiter, gts.Events,
		partnersuc.WithGPSRateLimit(3, 10*time.Second),
	)
	gts.Require().NoError(err)

	gts.Gin = gin.New(gin.Recovery())
	routes.Mount(gts.Gin, routes.UseCases{
		Auth:     gts.Auth,
		Assign:   assign,
		Bookings: bookingsuc.New(pool, memrepo.Bookings{}),
		Partners: partners,
		Events:   gts.Events,
	})
}

func (gts *GinTestSuite) TearDownTest() {
	gts.NoError(gts.Rdb.Close())
}

func (gts *GinTestSuite) token(sub string, role model.Role) string {
	tok, err := gts.Auth.Issue(sub, role, time.Hour)
	gts.Require().NoError(err)
	return tok
}

type errorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

// send serves a request and decodes its JSON response into res (if it
// is not nil).
func (gts *GinTestSuite) send(
	method, path, token string, body any, res any,
) *httptest.ResponseRecorder {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		gts.Require().NoError(err)
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, routes.Prefix+path, r)
	gts.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	gts.Gin.ServeHTTP(w, req)
	if res != nil {
		gts.NoError(json.Unmarshal(w.Body.Bytes(), res), "body is not json")
	}
	return w
}

func (gts *GinTestSuite) customer() string {
	return gts.token("customer-1", model.RoleCustomer)
}

func (gts *GinTestSuite) admin() string {
	return gts.token("admin-1", model.RoleAdmin)
}

func (gts *GinTestSuite) TestAssignNearestPartner() {
	a := &model.Assignment{}
	w := gts.send(
		http.MethodPost, "/bookings/"+bookingID.String()+"/assign",
		gts.customer(), nil, a,
	)
	gts.Equal(http.StatusOK, w.Code)
	gts.Equal(nearID, a.PartnerID)
	gts.Equal(bookingID, a.BookingID)
	gts.Greater(a.DistanceKm, 0.0)

	b := &model.Booking{}
	w = gts.send(http.MethodGet, "/bookings/"+bookingID.String(), gts.customer(), nil, b)
	gts.Equal(http.StatusOK, w.Code)
	gts.Equal(model.BookingStatusAssigned, b.Status)
	gts.Require().NotNil(b.PartnerID)
	gts.Equal(nearID, *b.PartnerID)

	res := &errorBody{}
	w = gts.send(
		http.MethodPost, "/bookings/"+bookingID.String()+"/assign",
		gts.admin(), nil, res,
	)
	gts.Equal(http.StatusConflict, w.Code)
	gts.Equal("ALREADY_ASSIGNED", res.Error)
}

func (gts *GinTestSuite) TestAssignRejections() {
	missing := uuid.New()
	res := &errorBody{}
	w := gts.send(
		http.MethodPost, "/bookings/"+missing.String()+"/assign",
		gts.customer(), nil, res,
	)
	gts.Equal(http.StatusConflict, w.Code)
	gts.Equal("NOT_FOUND", res.Error)

	gts.Require().NoError(gts.Srv.Set(model.AssignLockKey(bookingID), "other-holder"))
	res = &errorBody{}
	w = gts.send(
		http.MethodPost, "/bookings/"+bookingID.String()+"/assign",
		gts.customer(), nil, res,
	)
	gts.Equal(http.StatusLocked, w.Code)
	gts.Equal("LOCK_BUSY", res.Error)
	gts.Equal(0, gts.Store.AssignCalls())

	gts.Srv.Del(model.AssignLockKey(bookingID))
	for _, pid := range []uuid.UUID{nearID, farID} {
		w = gts.send(
			http.MethodPut, "/partners/"+pid.String()+"/status",
			gts.admin(), map[string]string{"status": "offline"}, nil,
		)
		gts.Require().Equal(http.StatusOK, w.Code)
	}
	res = &errorBody{}
	w = gts.send(
		http.MethodPost, "/bookings/"+bookingID.String()+"/assign",
		gts.customer(), nil, res,
	)
	gts.Equal(http.StatusConflict, w.Code)
	gts.Equal("NO_ONLINE_PARTNER", res.Error)
}

func (gts *GinTestSuite) TestAuthentication() {
	path := "/bookings/" + bookingID.String()
	for name, tc := range map[string]struct {
		method, path, token string
		code                int
		errCode             string
	}{
		"no token": {
			http.MethodGet, path, "", http.StatusUnauthorized, "UNAUTHORIZED",
		},
		"forged token": {
			http.MethodGet, path, "a.b.c", http.StatusUnauthorized, "UNAUTHORIZED",
		},
		"partner assigns": {
			http.MethodPost, path + "/assign",
			gts.token(nearID.String(), model.RolePartner),
			http.StatusForbidden, "FORBIDDEN",
		},
		"invalid booking id": {
			http.MethodGet, "/bookings/not-a-uuid", gts.customer(),
			http.StatusBadRequest, "BAD_REQUEST",
		},
		"missing booking": {
			http.MethodGet, "/bookings/" + uuid.NewString(), gts.customer(),
			http.StatusNotFound, "NOT_FOUND",
		},
	} {
		gts.Run(name, func() {
			res := &errorBody{}
			w := gts.send(tc.method, tc.path, tc.token, nil, res)
			gts.Equal(tc.code, w.Code)
			gts.Equal(tc.errCode, res.Error)
		})
	}
	gts.Equal(0, gts.Store.AssignCalls())
}

func (gts *GinTestSuite) TestReportLocation() {
	path := "/partners/" + nearID.String() + "/location"
	self := gts.token(nearID.String(), model.RolePartner)
	loc := map[string]float64{"lat": 19.21, "lng": 72.83}

	p := &model.Partner{}
	w := gts.send(http.MethodPut, path, self, loc, p)
	gts.Equal(http.StatusOK, w.Code)
	gts.Equal(model.Coordinate{Lat: 19.21, Lon: 72.83}, p.Location)
	gts.NotNil(p.LastGPSAt)

	res := &errorBody{}
	other := gts.token(farID.String(), model.RolePartner)
	w = gts.send(http.MethodPut, path, other, loc, res)
	gts.Equal(http.StatusForbidden, w.Code)

	res = &errorBody{}
	lookalike := gts.token(nearID.String(), model.RoleCustomer)
	w = gts.send(http.MethodPut, path, lookalike, loc, res)
	gts.Equal(http.StatusForbidden, w.Code, "customer with the partner id as subject")
	gts.Equal("FORBIDDEN", res.Error)

	w = gts.send(http.MethodPut, path, self, map[string]float64{"lat": 91, "lng": 0}, nil)
	gts.Equal(http.StatusBadRequest, w.Code)
	w = gts.send(http.MethodPut, path, self, map[string]float64{"lng": 10}, nil)
	gts.Equal(http.StatusBadRequest, w.Code, "lat is required")

	w = gts.send(http.MethodPut, path, gts.admin(), loc, nil)
	gts.Equal(http.StatusOK, w.Code)
	w = gts.send(http.MethodPut, path, self, loc, nil)
	gts.Equal(http.StatusOK, w.Code)
	res = &errorBody{}
	w = gts.send(http.MethodPut, path, self, loc, res)
	gts.Equal(http.StatusTooManyRequests, w.Code, "limit is 3 per window")
	gts.Equal("RATE_LIMITED", res.Error)

	res = &errorBody{}
	w = gts.send(
		http.MethodPut, "/partners/"+uuid.NewString()+"/location",
		gts.admin(), loc, res,
	)
	gts.Equal(http.StatusNotFound, w.Code)
	gts.Equal("NOT_FOUND", res.Error)
}

func (gts *GinTestSuite) TestSetStatus() {
	self := gts.token(nearID.String(), model.RolePartner)
	path := "/partners/" + nearID.String() + "/status"

	p := &model.Partner{}
	w := gts.send(http.MethodPut, path, self, map[string]string{"status": "offline"}, p)
	gts.Equal(http.StatusOK, w.Code)
	gts.Equal(model.PartnerStatusOffline, p.Status)

	w = gts.send(http.MethodPut, path, self, map[string]string{"status": "away"}, nil)
	gts.Equal(http.StatusBadRequest, w.Code)

	lookalike := gts.token(nearID.String(), model.RoleCustomer)
	w = gts.send(http.MethodPut, path, lookalike, map[string]string{"status": "online"}, nil)
	gts.Equal(http.StatusForbidden, w.Code)

	res := &errorBody{}
	w = gts.send(http.MethodPut, path, self, map[string]string{"status": "suspended"}, res)
	gts.Equal(http.StatusForbidden, w.Code)

	suspended := gts.token(suspendID.String(), model.RolePartner)
	w = gts.send(
		http.MethodPut, "/partners/"+suspendID.String()+"/status",
		suspended, map[string]string{"status": "online"}, nil,
	)
	gts.Equal(http.StatusForbidden, w.Code, "only admins lift suspensions")

	w = gts.send(
		http.MethodPut, "/partners/"+suspendID.String()+"/status",
		gts.admin(), map[string]string{"status": "online"}, p,
	)
	gts.Equal(http.StatusOK, w.Code)
	gts.Equal(model.PartnerStatusOnline, p.Status)
}

func (gts *GinTestSuite) TestUnknownRoutes() {
	res := &errorBody{}
	w := gts.send(http.MethodGet, "/vehicles", gts.customer(), nil, res)
	gts.Equal(http.StatusNotFound, w.Code)
	gts.Equal("NOT_FOUND", res.Error)
	gts.Contains(w.Header().Get("Content-Type"), "application/json")

	res = &errorBody{}
	w = gts.send(http.MethodDelete, "/bookings/"+bookingID.String(), gts.customer(), nil, res)
	gts.Equal(http.StatusMethodNotAllowed, w.Code)
	gts.Equal("METHOD_NOT_ALLOWED", res.Error)
	gts.Contains(res.Detail, http.MethodDelete)
}

type frame struct {
	event, data, retry string
}

// readFrame reads lines up to the next blank line and collects the
// fields of one text/event-stream frame.
func readFrame(r *bufio.Reader) (frame, error) {
	var f frame
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return f, err
		}
		line = strings.TrimRight(line, "\n")
		if line == "" {
			return f, nil
		}
		name, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch name {
		case "event":
			f.event = value
		case "data":
			f.data = value
		case "retry":
			f.retry = value
		}
	}
}

func (gts *GinTestSuite) TestEventStream() {
	srv := httptest.NewServer(gts.Gin)
	defer srv.Close()

	// published before the client subscribes, so it is never delivered
	gts.Events.Publish(gts.Ctx, model.PartnerGPS{PartnerID: farID, Lat: 1, Lng: 2})

	ctx, cancel := context.WithTimeout(gts.Ctx, 10*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet,
		srv.URL+routes.Prefix+"/events?access_token="+gts.customer(), nil,
	)
	gts.Require().NoError(err)
	resp, err := srv.Client().Do(req)
	gts.Require().NoError(err)
	defer resp.Body.Close()
	gts.Require().Equal(http.StatusOK, resp.StatusCode)
	gts.Equal("text/event-stream", resp.Header.Get("Content-Type"))
	r := bufio.NewReader(resp.Body)

	f, err := readFrame(r)
	gts.Require().NoError(err)
	gts.Equal(frame{retry: "1500"}, f)

	w := gts.send(
		http.MethodPost, "/bookings/"+bookingID.String()+"/assign",
		gts.customer(), nil, nil,
	)
	gts.Require().Equal(http.StatusOK, w.Code)
	f, err = readFrame(r)
	gts.Require().NoError(err)
	gts.Equal(model.ChannelBookingConfirmed, f.event)
	bc := &model.BookingConfirmed{}
	gts.Require().NoError(json.Unmarshal([]byte(f.data), bc))
	gts.Equal(bookingID, bc.BookingID)
	gts.Equal(nearID, bc.PartnerID)
	gts.Equal(model.BookingStatusAssigned, bc.Status)

	w = gts.send(
		http.MethodPut, "/partners/"+nearID.String()+"/location",
		gts.token(nearID.String(), model.RolePartner),
		map[string]float64{"lat": 19.3, "lng": 72.9}, nil,
	)
	gts.Require().Equal(http.StatusOK, w.Code)
	f, err = readFrame(r)
	gts.Require().NoError(err)
	gts.Equal(model.ChannelPartnerGPS, f.event)
	gts.JSONEq(
		`{"partnerId":"`+nearID.String()+`","lat":19.3,"lng":72.9}`,
		f.data,
	)
}

func (gts *GinTestSuite) TestEventStreamRequiresToken() {
	res := &errorBody{}
	w := gts.send(http.MethodGet, "/events", "", nil, res)
	gts.Equal(http.StatusUnauthorized, w.Code)
	gts.Equal("UNAUTHORIZED", res.Error)
}
