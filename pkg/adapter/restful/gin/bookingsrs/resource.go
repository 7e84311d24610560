// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package bookingsrs realizes the bookings resource, allowing the
// assignment and lookup REST APIs to be accepted and delegated to the
// assignment and bookings use cases respectively.
package bookingsrs

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/momeni/rentdispatch/pkg/adapter/restful/gin/authmw"
	"github.com/momeni/rentdispatch/pkg/adapter/restful/gin/serdser"
	"github.com/momeni/rentdispatch/pkg/core/model"
	"github.com/momeni/rentdispatch/pkg/core/usecase/assignuc"
	"github.com/momeni/rentdispatch/pkg/core/usecase/bookingsuc"
)

type resource struct {
	assign   *assignuc.UseCase
	bookings *bookingsuc.UseCase
}

type bookingURI struct {
	BookingID string `uri:"bid" binding:"required,uuid"`
}

// Register instantiates a resource adapting the use case instances
// with the relevant REST APIs including:
//  1. POST request to /api/rdweb/v1/bookings/:bid/assign
//     in order to assign the nearest online partner to a booking,
//  2. GET request to /api/rdweb/v1/bookings/:bid
//     in order to view a booking.
//
// The r group must authenticate its callers.
func Register(
	r *gin.RouterGroup, a *assignuc.UseCase, b *bookingsuc.UseCase,
) {
	rs := &resource{assign: a, bookings: b}
	r.POST(
		"bookings/:bid/assign",
		authmw.RequireRole(model.RoleCustomer, model.RoleAdmin),
		rs.Assign,
	)
	r.GET("bookings/:bid", rs.Booking)
}

func bookingID(c *gin.Context) (uuid.UUID, bool) {
	req := &bookingURI{}
	if !serdser.Bind(c, req, nil) {
		return uuid.Nil, false
	}
	return uuid.MustParse(req.BookingID), true
}

func (rs *resource) Assign(c *gin.Context) {
	bid, ok := bookingID(c)
	if !ok {
		return
	}
	a, err := rs.assign.Assign(c.Request.Context(), bid)
	if err != nil {
		serdser.SerErr(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (rs *resource) Booking(c *gin.Context) {
	bid, ok := bookingID(c)
	if !ok {
		return
	}
	b, err := rs.bookings.Booking(c.Request.Context(), bid)
	if err != nil {
		serdser.SerErr(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}
