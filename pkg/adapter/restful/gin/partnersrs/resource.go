// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package partnersrs realizes the partners resource, allowing partners
// to report their locations and toggle their availability.
package partnersrs

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"

	"github.com/momeni/rentdispatch/pkg/adapter/restful/gin/authmw"
	"github.com/momeni/rentdispatch/pkg/adapter/restful/gin/serdser"
	"github.com/momeni/rentdispatch/pkg/core/model"
	"github.com/momeni/rentdispatch/pkg/core/usecase/partnersuc"
)

type resource struct {
	partners *partnersuc.UseCase
}

type partnerURI struct {
	PartnerID string `uri:"pid" binding:"required,uuid"`
}

type locationReq struct {
	Lat *float64 `json:"lat" binding:"required,latitude"`
	Lng *float64 `json:"lng" binding:"required,longitude"`
}

type statusReq struct {
	Status string `json:"status" binding:"required,oneof=online offline suspended"`
}

// Register instantiates a resource adapting the partners use case
// instance with the relevant REST APIs including:
//  1. PUT request to /api/rdweb/v1/partners/:pid/location
//     in order to report the current location of a partner,
//  2. PUT request to /api/rdweb/v1/partners/:pid/status
//     in order to go online, go offline, or suspend a partner.
//
// Partners may only update themselves, while admins may update all of
// them. The r group must authenticate its callers.
func Register(r *gin.RouterGroup, p *partnersuc.UseCase) {
	rs := &resource{partners: p}
	r.PUT("partners/:pid/location", rs.ReportLocation)
	r.PUT("partners/:pid/status", rs.SetStatus)
}

// partnerID binds the pid parameter and ensures that the caller may
// update that partner.
func partnerID(c *gin.Context) (uuid.UUID, bool) {
	req := &partnerURI{}
	if !serdser.Bind(c, req, nil) {
		return uuid.Nil, false
	}
	pid := uuid.MustParse(req.PartnerID)
	if err := authmw.RequireSelfOrAdmin(c, pid.String()); err != nil {
		serdser.SerErr(c, err)
		return uuid.Nil, false
	}
	return pid, true
}

func (rs *resource) ReportLocation(c *gin.Context) {
	pid, ok := partnerID(c)
	if !ok {
		return
	}
	req := &locationReq{}
	if !serdser.Bind(c, req, binding.JSON) {
		return
	}
	loc := model.Coordinate{Lat: *req.Lat, Lon: *req.Lng}
	p, err := rs.partners.ReportLocation(c.Request.Context(), pid, loc)
	if err != nil {
		serdser.SerErr(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (rs *resource) SetStatus(c *gin.Context) {
	pid, ok := partnerID(c)
	if !ok {
		return
	}
	req := &statusReq{}
	if !serdser.Bind(c, req, binding.JSON) {
		return
	}
	s, err := model.ParsePartnerStatus(req.Status)
	if err != nil {
		serdser.SerErr(c, err)
		return
	}
	admin := authmw.Identity(c).IsAdmin()
	p, err := rs.partners.SetStatus(c.Request.Context(), pid, s, admin)
	if err != nil {
		serdser.SerErr(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
