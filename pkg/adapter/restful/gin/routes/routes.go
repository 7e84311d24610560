// Copyright (c) 2023-2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package routes contains all resource packages and facilitates
// instantiation and registration of all repo, use case, and resource
// packages based on the user provided configuration settings.
package routes

import (
	"fmt"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"

	"github.com/momeni/rentdispatch/pkg/adapter/config/cfg1"
	"github.com/momeni/rentdispatch/pkg/adapter/db/postgres/bookingsrp"
	"github.com/momeni/rentdispatch/pkg/adapter/db/postgres/partnersrp"
	"github.com/momeni/rentdispatch/pkg/adapter/kv/redis"
	"github.com/momeni/rentdispatch/pkg/adapter/restful/gin/authmw"
	"github.com/momeni/rentdispatch/pkg/adapter/restful/gin/bookingsrs"
	"github.com/momeni/rentdispatch/pkg/adapter/restful/gin/eventsrs"
	"github.com/momeni/rentdispatch/pkg/adapter/restful/gin/partnersrs"
	"github.com/momeni/rentdispatch/pkg/core/repo"
	"github.com/momeni/rentdispatch/pkg/core/usecase/assignuc"
	"github.com/momeni/rentdispatch/pkg/core/usecase/bookingsuc"
	"github.com/momeni/rentdispatch/pkg/core/usecase/eventuc"
	"github.com/momeni/rentdispatch/pkg/core/usecase/matchuc"
	"github.com/momeni/rentdispatch/pkg/core/usecase/partnersuc"
)

// Prefix is the path prefix of all REST APIs.
const Prefix = "/api/rdweb/v1"

// UseCases lists the use cases which are exposed as REST APIs.
type UseCases struct {
	Auth     authmw.Authenticator
	Assign   *assignuc.UseCase
	Bookings *bookingsuc.UseCase
	Partners *partnersuc.UseCase
	Events   *eventuc.UseCase
}

// Register instantiates relevant repositories and use cases based on
// the c configuration settings. The p connections pool is passed to
// the use case instances, so they may acquire/release connections
// and transactions on demand. The rdb client backs the assignment
// locks and rate limiting counters, while the bus carries the events.
// These use cases are adapted by the resource packages and registered
// as request handlers using the e gin-gonic engine instance.
// Possible errors will be returned after possible wrapping.
func Register(
	e *gin.Engine,
	p repo.Pool,
	rdb goredis.UniversalClient,
	bus repo.Bus,
	c *cfg1.Config,
) error {
	bookingsRepo := bookingsrp.New()
	partnersRepo := partnersrp.New()

	authority, err := c.Auth.NewAuthority()
	if err != nil {
		return fmt.Errorf("creating tokens authority: %w", err)
	}
	locks, err := c.Usecases.Assignment.NewLockUseCase(redis.NewLocker(rdb))
	if err != nil {
		return fmt.Errorf("creating lock use case: %w", err)
	}
	limiter, err := c.Usecases.Partners.NewLimiterUseCase(
		redis.NewCounter(rdb),
	)
	if err != nil {
		return fmt.Errorf("creating rate limiter use case: %w", err)
	}
	events, err := c.Usecases.Events.NewUseCase(bus)
	if err != nil {
		return fmt.Errorf("creating events use case: %w", err)
	}
	assign, err := assignuc.New(
		p, bookingsRepo, locks, matchuc.New(partnersRepo), events,
	)
	if err != nil {
		return fmt.Errorf("creating assignment use case: %w", err)
	}
	partners, err := c.Usecases.Partners.NewUseCase(
		p, partnersRepo, limiter, events,
	)
	if err != nil {
		return fmt.Errorf("creating partners use case: %w", err)
	}
	Mount(e, UseCases{
		Auth:     authority,
		Assign:   assign,
		Bookings: bookingsuc.New(p, bookingsRepo),
		Partners: partners,
		Events:   events,
	})
	return nil
}

// Mount registers the resources of ucs use cases under the Prefix
// path. All of them require an authenticated caller.
func Mount(e *gin.Engine, ucs UseCases) {
	r := e.Group(Prefix, authmw.Authenticate(ucs.Auth))
	bookingsrs.Register(r, ucs.Assign, ucs.Bookings)
	partnersrs.Register(r, ucs.Partners)
	eventsrs.Register(r, ucs.Events)
}
