// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Command rdweb runs the booking dispatch web server and its database
// management actions.
package main

import (
	"github.com/joho/godotenv"
	"github.com/momeni/rentdispatch/cmd/rdweb/command"
)

func main() {
	// a missing .env file is fine, variables may come from elsewhere
	_ = godotenv.Load()
	command.Execute()
}
