// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package settings

// Nil2Zero overwrites the (*t) pointer, which should be nil,
// in order to point to a newly allocated T instance and initializes it
// with the zero value of T type.
// If the (*t) pointer was not nil, Nil2Zero will perform no action.
func Nil2Zero[T any](t **T) {
	if (*t) != nil {
		return
	}
	var zero T
	(*t) = &zero
}

// Default makes the (*t) pointer to point to a copy of def value if
// it is nil. Non-nil pointers are left unchanged.
func Default[T any](t **T, def T) {
	if (*t) != nil {
		return
	}
	(*t) = &def
}

// Override makes the (*dst) pointer to point to a copy of (*src) value
// if src is not nil. It is used for overriding the settings of a file
// with the settings which are found in the environment variables.
func Override[T any](dst **T, src *T) {
	if src == nil {
		return
	}
	t := *src
	(*dst) = &t
}
